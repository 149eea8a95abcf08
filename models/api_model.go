package models

type UploadResp struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id"`
	Filename  string `json:"filename"`
	FileSize  int64  `json:"file_size"`
}

type GenerateReq struct {
	SessionID string `json:"session_id"`
	MaxShorts int    `json:"max_shorts"`
	// nil means "not sent"; GPT analysis defaults on
	UseGPT *bool `json:"use_gpt"`
}

type GenerateResp struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

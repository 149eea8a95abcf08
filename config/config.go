package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	HttpPort string

	// media folders, namespaced per session below these roots
	UploadDir string
	OutputDir string

	// limits
	MaxUploadSize int64
	MaxShorts     int

	// session store: "memory" (default) or "postgres"
	SessionStore     string
	SessionRetention time.Duration

	// Redis (optional; progress events fan out in-process without it)
	RedisURL string

	// Postgres, only used when SessionStore == "postgres"
	Host     string
	User     string
	Password string
	DBName   string
	Port     string

	// collaborators
	OpenAIAPIKey  string
	OpenAIModel   string
	WhisperAPIURL string
	FFmpegPath    string
	FFprobePath   string

	// S3/MinIO mirror for finished clips (optional)
	BucketEndpoint  string
	BucketAccessID  string
	BucketAccessKey string
	BucketName      string
	BucketRegion    string
	UseSSL          bool   // MinIO: false, S3: true
	StorageType     string // "", "minio" or "s3"
}

func LoadConfig() *Config {
	return &Config{
		HttpPort:         os.Getenv("PORT"),
		UploadDir:        envOr("UPLOAD_DIR", "static/uploads"),
		OutputDir:        envOr("OUTPUT_DIR", "static/outputs"),
		MaxUploadSize:    envInt64("MAX_UPLOAD_SIZE", 500*1024*1024),
		MaxShorts:        int(envInt64("MAX_SHORTS", 10)),
		SessionStore:     envOr("SESSION_STORE", "memory"),
		SessionRetention: 24 * time.Hour,
		RedisURL:         os.Getenv("REDIS_URL"),
		Host:             os.Getenv("PG_HOST"),
		User:             os.Getenv("PG_USER"),
		Password:         os.Getenv("PG_PASSWORD"),
		DBName:           os.Getenv("PG_DB"),
		Port:             os.Getenv("PG_PORT"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:      envOr("OPENAI_MODEL", "gpt-4o-mini"),
		WhisperAPIURL:    envOr("WHISPER_API_URL", "http://localhost:9000"),
		FFmpegPath:       envOr("FFMPEG_PATH", "ffmpeg"),
		FFprobePath:      envOr("FFPROBE_PATH", "ffprobe"),
		BucketEndpoint:   os.Getenv("BUCKET_ENDPOINT"),
		BucketAccessID:   os.Getenv("BUCKET_ACCESS_ID"),
		BucketAccessKey:  os.Getenv("BUCKET_ACCESS_KEY"),
		BucketName:       os.Getenv("BUCKET_NAME"),
		BucketRegion:     os.Getenv("BUCKET_REGION"),
		UseSSL:           os.Getenv("BUCKET_USE_SSL") == "true",
		StorageType:      os.Getenv("STORAGE_TYPE"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

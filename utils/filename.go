package utils

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

const maxBaseNameLen = 50

var (
	dangerousChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	unsafeChars    = regexp.MustCompile(`[^\p{L}\p{N}_\-.]`)
	repeatedMarks  = regexp.MustCompile(`[_\-.]{2,}`)
)

// CleanFilename strips path components and unsafe characters from a
// user-supplied filename, keeping the extension.
func CleanFilename(filename string) string {
	filename = filepath.Base(filename)
	ext := strings.ToLower(filepath.Ext(filename))
	base := strings.TrimSuffix(filename, filepath.Ext(filename))

	base = strings.ReplaceAll(base, " ", "_")
	base = dangerousChars.ReplaceAllString(base, "")
	base = unsafeChars.ReplaceAllString(base, "_")
	base = repeatedMarks.ReplaceAllString(base, "_")
	base = strings.Trim(base, "_-.")

	if len(base) > maxBaseNameLen {
		base = ensureValidUTF8End(base[:maxBaseNameLen])
	}
	if base == "" || base == "_" {
		base = "video"
	}
	return base + ext
}

// SessionScopedName prefixes a cleaned filename with the session id so
// concurrent uploads can never collide on disk.
func SessionScopedName(sessionID, filename string) string {
	return fmt.Sprintf("%s_%s", sessionID, CleanFilename(filename))
}

// OutputName builds the filename for the n-th rendered short.
func OutputName(n int, title string) string {
	base := strings.TrimSuffix(CleanFilename(title+".mp4"), ".mp4")
	if base == "video" {
		base = "clip"
	}
	return fmt.Sprintf("short_%02d_%s.mp4", n, base)
}

// ArchiveName names the bulk download for a session, keyed by a prefix
// of the session id.
func ArchiveName(sessionID string) string {
	id := sessionID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("ai_shorts_%s.zip", id)
}

// do not cut a multi-byte rune in half when truncating
func ensureValidUTF8End(s string) string {
	for i := len(s) - 1; i >= 0 && i >= len(s)-4; i-- {
		if s[i]&0x80 == 0 {
			return s
		}
		if s[i]&0xC0 == 0xC0 {
			return s[:i]
		}
	}
	return s
}

// Package contenttype maps asset filenames to MIME types.
package contenttype

import (
	"mime"
	"path/filepath"
	"strings"
)

// Default is returned when the extension is missing or unknown
const Default = "application/octet-stream"

// known takes precedence over the host mime.types database, which differs
// between platforms and often lacks audio entries.
var known = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".bmp":  "image/bmp",
	".avif": "image/avif",
	".wav":  "audio/wav",
	".mp3":  "audio/mpeg",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".opus": "audio/opus",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".flac": "audio/flac",
	".webm": "audio/webm",
	".json": "application/json",
}

// Resolve returns the content type for filename based on its extension
func Resolve(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return Default
	}
	if ct, ok := known[ext]; ok {
		return ct
	}
	ct := mime.TypeByExtension(ext)
	if ct == "" {
		return Default
	}
	if idx := strings.IndexByte(ct, ';'); idx >= 0 {
		ct = strings.TrimSpace(ct[:idx])
	}
	return ct
}

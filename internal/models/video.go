package models

import (
	"path/filepath"
	"strings"
)

// VideoFile is one candidate discovered during directory enumeration
type VideoFile struct {
	Path    string
	Size    int64
	ModUnix int64
}

var videoExtensions = map[string]bool{
	".mp4": true,
	".mkv": true,
	".avi": true,
	".mov": true,
	".flv": true,
}

// IsVideo reports whether name has a recognized video extension
func IsVideo(name string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(name))]
}

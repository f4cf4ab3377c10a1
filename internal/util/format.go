package util

import (
	"fmt"
	"path/filepath"
	"strings"

	"vault-gateway/internal/model"
)

// HumanSize renders a byte count with binary (1024-based) units and
// two-decimal precision, e.g. 1536 -> "1.50 KB".
func HumanSize(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	if bytes < 1024 {
		return fmt.Sprintf("%d B", bytes)
	}

	units := []string{"KB", "MB", "GB", "TB"}
	value := float64(bytes)
	unit := ""
	for _, u := range units {
		value /= 1024
		unit = u
		if value < 1024 {
			break
		}
	}

	return fmt.Sprintf("%.2f %s", value, unit)
}

// CategoryForName derives a content category from the filename extension.
func CategoryForName(name string) model.ContentCategory {
	switch strings.ToLower(strings.TrimSpace(filepath.Ext(name))) {
	case ".mp4", ".m4v", ".mov", ".webm", ".mkv", ".avi", ".wmv", ".flv", ".mpeg", ".mpg", ".3gp", ".ts", ".m2ts", ".ogv":
		return model.CategoryVideo
	case ".png", ".jpg", ".jpeg", ".jfif", ".gif", ".webp", ".bmp", ".tiff", ".tif", ".svg", ".ico", ".avif", ".heic", ".heif":
		return model.CategoryImage
	case ".mp3", ".flac", ".wav", ".aac", ".ogg", ".oga", ".m4a", ".wma", ".opus", ".aiff":
		return model.CategoryAudio
	case ".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx", ".txt", ".md", ".rtf", ".odt", ".epub", ".csv":
		return model.CategoryDocument
	case ".zip", ".rar", ".7z", ".tar", ".gz", ".bz2", ".xz", ".iso", ".tgz":
		return model.CategoryArchive
	default:
		return model.CategoryOther
	}
}

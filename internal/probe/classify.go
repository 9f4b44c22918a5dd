package probe

import (
	"path/filepath"
	"sort"
	"strings"
)

// videoExtensions is the set of (lowercase, dot-prefixed) file
// extensions which are considered candidates for probing.
var videoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".mkv":  true,
	".avi":  true,
	".flv":  true,
	".wmv":  true,
	".webm": true,
	".m4v":  true,
}

// IsVideoFile reports whether the file name provided has one of the
// recognised video extensions. Only the suffix after the final '.' is
// considered, compared case-insensitively; the file is never opened.
func IsVideoFile(name string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(name))]
}

// VideoExtensions returns the recognised extensions, sorted.
func VideoExtensions() []string {
	exts := make([]string, 0, len(videoExtensions))
	for ext := range videoExtensions {
		exts = append(exts, ext)
	}

	sort.Strings(exts)
	return exts
}

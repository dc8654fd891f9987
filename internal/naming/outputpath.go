package naming

import (
	"path/filepath"
	"strings"
)

// Suffix marks converted files; Ext is the output container extension.
const (
	Suffix = "_rec709"
	Ext    = ".mp4"
)

// Stem returns the base name of path without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// OutputPath returns <outputDir>/<stem>_rec709.mp4 for input.
func OutputPath(input, outputDir string) string {
	return filepath.Join(outputDir, Stem(input)+Suffix+Ext)
}

// IsConverted reports whether path looks like a file this tool produced,
// so directory scans can skip earlier outputs.
func IsConverted(path string) bool {
	stem := Stem(path)
	if strings.HasSuffix(stem, Suffix) {
		return true
	}
	// Outputs renamed by CollisionResolver: "<stem>_rec709 - dupN".
	if i := strings.LastIndex(stem, " - dup"); i > 0 {
		return strings.HasSuffix(stem[:i], Suffix)
	}
	return false
}

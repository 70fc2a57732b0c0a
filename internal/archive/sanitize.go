package archive

import (
	"path/filepath"
	"regexp"
	"strings"
)

// DefaultMaxNameLen caps an archive filename. Long enough for descriptive
// model-proposed names, short enough for every mainstream filesystem.
const DefaultMaxNameLen = 180

var (
	illegalChars = regexp.MustCompile(`[\\/:*?"<>|]`)
	whitespace   = regexp.MustCompile(`\s+`)
)

// SanitizeName makes a proposed filename safe for the archive: characters
// illegal in filesystem names are replaced, repeated whitespace and
// separators collapse to one, and the name is truncated to maxLen by
// shortening the stem only. The extension is preserved verbatim.
func SanitizeName(name string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultMaxNameLen
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	stem = illegalChars.ReplaceAllString(stem, " ")
	stem = whitespace.ReplaceAllString(stem, " ")
	stem = strings.Trim(stem, " .")

	if stem == "" {
		stem = "file"
	}

	if len(stem)+len(ext) > maxLen {
		cut := maxLen - len(ext)
		if cut < 1 {
			cut = 1
		}
		stem = strings.TrimRight(stem[:cut], " .")
		if stem == "" {
			stem = "file"
		}
	}

	return stem + ext
}

// EnsureExtension appends the original file's extension to a proposed name
// when the model dropped or changed it. The original extension always wins.
func EnsureExtension(proposed, originalName string) string {
	originalExt := filepath.Ext(originalName)
	if originalExt == "" {
		return proposed
	}
	if strings.EqualFold(filepath.Ext(proposed), originalExt) {
		// Normalize the casing to the original extension.
		return strings.TrimSuffix(proposed, filepath.Ext(proposed)) + originalExt
	}
	return strings.TrimRight(proposed, ".") + originalExt
}

// sanitizeComponent cleans a single path component (category or year folder).
func sanitizeComponent(name, fallback string) string {
	cleaned := illegalChars.ReplaceAllString(name, " ")
	cleaned = whitespace.ReplaceAllString(cleaned, " ")
	cleaned = strings.Trim(cleaned, " .")
	if cleaned == "" {
		return fallback
	}
	return cleaned
}

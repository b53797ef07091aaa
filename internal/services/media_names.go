package services

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// MediaKind selects which allow-list an attachment is checked against.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

var allowedExtensions = map[MediaKind]map[string]bool{
	MediaImage: {"png": true, "jpg": true, "jpeg": true, "gif": true},
	MediaVideo: {"mp4": true, "mov": true, "avi": true, "webm": true, "mkv": true},
}

// Allowed reports whether filename carries an extension permitted for kind.
// The comparison is case-insensitive and uses the text after the last dot.
func (k MediaKind) Allowed(filename string) bool {
	i := strings.LastIndexByte(filename, '.')
	if i < 0 || i == len(filename)-1 {
		return false
	}
	return allowedExtensions[k][strings.ToLower(filename[i+1:])]
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SecureFilename reduces a client supplied name to a flat ASCII filename.
// Accents are folded, path separators become spaces, whitespace runs become
// underscores and everything outside [A-Za-z0-9_.-] is dropped. The result
// may be empty.
func SecureFilename(name string) string {
	var b strings.Builder
	for _, r := range norm.NFKD.String(name) {
		if r < unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	s := strings.NewReplacer("/", " ", `\`, " ").Replace(b.String())
	s = strings.Join(strings.Fields(s), "_")
	s = unsafeFilenameChars.ReplaceAllString(s, "")
	return strings.Trim(s, "._")
}

// StoredMediaName prefixes the sanitized name with a UTC second timestamp.
// It returns "" when nothing usable survives sanitizing.
func StoredMediaName(now time.Time, original string) string {
	clean := SecureFilename(original)
	if clean == "" {
		return ""
	}
	return now.UTC().Format("20060102150405") + "_" + clean
}

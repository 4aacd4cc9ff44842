package workspace

import (
	"net/url"
	"path/filepath"
	"strings"
)

// URI identifies a document.
type URI string

// FileURI converts a file path to a file:// URI. Relative paths are
// made absolute.
func FileURI(path string) URI {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return URI(u.String())
}

// Path returns the file system path of a file:// URI.
func (u URI) Path() (string, bool) {
	s := string(u)
	if !strings.HasPrefix(s, "file://") {
		return "", false
	}
	parsed, err := url.Parse(s)
	if err != nil {
		return "", false
	}
	return filepath.FromSlash(parsed.Path), true
}

// Dir returns the directory of a file URI, or "" if u is not one.
func (u URI) Dir() string {
	p, ok := u.Path()
	if !ok {
		return ""
	}
	return filepath.Dir(p)
}

// Ext returns the lower-cased extension of the URI path.
func (u URI) Ext() string {
	s := string(u)
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	return strings.ToLower(filepath.Ext(s))
}

// String returns the URI string.
func (u URI) String() string {
	return string(u)
}

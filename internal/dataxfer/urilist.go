package dataxfer

import (
	"net/url"
	"path/filepath"
	"strings"
)

// ParseURIList parses a text/uri-list payload. Comment lines starting
// with '#' and blank lines are skipped.
func ParseURIList(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}

// FormatURIList formats URIs as a text/uri-list payload.
func FormatURIList(uris []string) string {
	return strings.Join(uris, "\r\n")
}

// FileURI converts an absolute path to a file:// URI.
func FileURI(path string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String()
}

// URIPath returns the local path of a file:// URI.
func URIPath(uri string) (string, bool) {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" {
		return "", false
	}
	return filepath.FromSlash(u.Path), true
}

// mergeURIList adds uris to the text/uri-list entry, skipping duplicates.
func mergeURIList(d *DataTransfer, uris []string) {
	if len(uris) == 0 {
		return
	}
	existing := d.URIs()
	seen := make(map[string]bool, len(existing))
	for _, u := range existing {
		seen[u] = true
	}
	changed := false
	for _, u := range uris {
		if !seen[u] {
			seen[u] = true
			existing = append(existing, u)
			changed = true
		}
	}
	if changed {
		d.Set(MimeURIList, StringItem(FormatURIList(existing)))
	}
}

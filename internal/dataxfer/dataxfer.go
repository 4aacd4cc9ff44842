// Package dataxfer normalizes dropped content into a DataTransfer: an
// ordered mapping from mime type to payload items.
package dataxfer

import (
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// Well-known mime types.
const (
	MimeTextPlain = "text/plain"
	MimeURIList   = "text/uri-list"
	MimeFiles     = "files"
	MimeResources = "application/vnd.dropin.resources"
)

// File is a dropped file. Its data is read lazily.
type File struct {
	Name string
	URI  string
	read func() ([]byte, error)
}

// NewFile creates a file entry. read may be nil for files without content.
func NewFile(name, uri string, read func() ([]byte, error)) *File {
	return &File{Name: name, URI: uri, read: read}
}

// Data returns the file content.
func (f *File) Data() ([]byte, error) {
	if f.read == nil {
		return nil, nil
	}
	return f.read()
}

// Mime guesses the file's mime type from its extension.
func (f *File) Mime() string {
	return mime.TypeByExtension(strings.ToLower(filepath.Ext(f.Name)))
}

// Item is a single payload: a string, a file, or an in-process reference.
type Item struct {
	value string
	file  *File
	ref   any
}

// StringItem returns an item holding a string value.
func StringItem(s string) Item { return Item{value: s} }

// FileItem returns an item holding a file.
func FileItem(f *File) Item { return Item{file: f} }

// RefItem returns an item holding an in-process reference.
func RefItem(v any) Item { return Item{ref: v} }

// String returns the string value. File items return their URI.
func (i Item) String() string {
	if i.file != nil {
		return i.file.URI
	}
	return i.value
}

// File returns the file, or nil.
func (i Item) File() *File { return i.file }

// Ref returns the in-process reference, or nil.
func (i Item) Ref() any { return i.ref }

type entry struct {
	mime  string
	items []Item
}

// DataTransfer is an ordered mapping from mime type to items. Mime types
// are compared case-insensitively. The zero value is empty and ready to use.
type DataTransfer struct {
	entries []entry
}

// New returns an empty DataTransfer.
func New() *DataTransfer {
	return &DataTransfer{}
}

func normalize(m string) string {
	return strings.ToLower(strings.TrimSpace(m))
}

func (d *DataTransfer) index(m string) int {
	for i, e := range d.entries {
		if e.mime == m {
			return i
		}
	}
	return -1
}

// Set replaces the items for mime with a single item.
func (d *DataTransfer) Set(m string, it Item) {
	m = normalize(m)
	if i := d.index(m); i >= 0 {
		d.entries[i].items = []Item{it}
		return
	}
	d.entries = append(d.entries, entry{mime: m, items: []Item{it}})
}

// Append adds an item for mime after any existing ones.
func (d *DataTransfer) Append(m string, it Item) {
	m = normalize(m)
	if i := d.index(m); i >= 0 {
		d.entries[i].items = append(d.entries[i].items, it)
		return
	}
	d.entries = append(d.entries, entry{mime: m, items: []Item{it}})
}

// Delete removes mime.
func (d *DataTransfer) Delete(m string) {
	if i := d.index(normalize(m)); i >= 0 {
		d.entries = append(d.entries[:i], d.entries[i+1:]...)
	}
}

// Get returns the first item for mime.
func (d *DataTransfer) Get(m string) (Item, bool) {
	if d == nil {
		return Item{}, false
	}
	if i := d.index(normalize(m)); i >= 0 {
		return d.entries[i].items[0], true
	}
	return Item{}, false
}

// GetAll returns every item for mime.
func (d *DataTransfer) GetAll(m string) []Item {
	if d == nil {
		return nil
	}
	if i := d.index(normalize(m)); i >= 0 {
		out := make([]Item, len(d.entries[i].items))
		copy(out, d.entries[i].items)
		return out
	}
	return nil
}

// Has reports whether mime is present.
func (d *DataTransfer) Has(m string) bool {
	_, ok := d.Get(m)
	return ok
}

// Text returns the string value for mime, or "".
func (d *DataTransfer) Text(m string) string {
	it, _ := d.Get(m)
	return it.String()
}

// Keys returns the mime types in insertion order.
func (d *DataTransfer) Keys() []string {
	if d == nil {
		return nil
	}
	out := make([]string, len(d.entries))
	for i, e := range d.entries {
		out[i] = e.mime
	}
	return out
}

// Len returns the number of mime types.
func (d *DataTransfer) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

// Files returns the dropped files.
func (d *DataTransfer) Files() []*File {
	var out []*File
	for _, it := range d.GetAll(MimeFiles) {
		if f := it.File(); f != nil {
			out = append(out, f)
		}
	}
	return out
}

// URIs returns the entries of the text/uri-list item.
func (d *DataTransfer) URIs() []string {
	return ParseURIList(d.Text(MimeURIList))
}

// Matches reports whether any of the patterns names a mime type present
// in d. A pattern may be "*/*" or end in "/*".
func (d *DataTransfer) Matches(patterns []string) bool {
	for _, p := range patterns {
		p = normalize(p)
		for _, e := range d.entries {
			if MatchMime(p, e.mime) {
				return true
			}
		}
	}
	return false
}

// MatchMime reports whether mime type m satisfies pattern.
func MatchMime(pattern, m string) bool {
	switch {
	case pattern == "*/*":
		return true
	case strings.HasSuffix(pattern, "/*"):
		return strings.HasPrefix(m, pattern[:len(pattern)-1])
	default:
		return pattern == m
	}
}

// fileReader returns a lazy reader for a local path.
func fileReader(path string) func() ([]byte, error) {
	return func() ([]byte, error) {
		return os.ReadFile(path)
	}
}

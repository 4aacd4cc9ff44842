package dataxfer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
)

// NativeEvent is a drop gesture as delivered by the host surface.
type NativeEvent struct {
	// Data is nil when the gesture carried no transferable data.
	Data *NativeData
}

// NativeFile is a file carried by a native drop.
type NativeFile struct {
	Name string
	Path string
}

// NativeData is the raw payload of a native drop.
type NativeData struct {
	Types  []string
	values map[string]string
	Files  []NativeFile
}

// NewNativeData returns an empty payload.
func NewNativeData() *NativeData {
	return &NativeData{values: make(map[string]string)}
}

// SetData declares a mime type with a string value.
func (n *NativeData) SetData(m, value string) {
	m = normalize(m)
	if _, ok := n.values[m]; !ok {
		n.Types = append(n.Types, m)
	}
	n.values[m] = value
}

// GetData returns the value declared for a mime type.
func (n *NativeData) GetData(m string) string {
	return n.values[normalize(m)]
}

// AddFile adds a local file.
func (n *NativeData) AddFile(path string) {
	n.Files = append(n.Files, NativeFile{Name: filepath.Base(path), Path: path})
}

// Enricher adds entries derived from the native payload.
type Enricher interface {
	Enrich(ctx context.Context, native *NativeData, dt *DataTransfer) error
}

// EnricherFunc adapts a function to Enricher.
type EnricherFunc func(ctx context.Context, native *NativeData, dt *DataTransfer) error

// Enrich calls f.
func (f EnricherFunc) Enrich(ctx context.Context, native *NativeData, dt *DataTransfer) error {
	return f(ctx, native, dt)
}

// Extract builds a DataTransfer from a native drop. A nil event or an
// event without data yields an empty DataTransfer. Enricher failures are
// returned joined, alongside the entries that were extracted; only a
// done context yields a nil DataTransfer.
func Extract(ctx context.Context, ev *NativeEvent, enrichers ...Enricher) (*DataTransfer, error) {
	dt := New()
	if ev == nil || ev.Data == nil {
		return dt, nil
	}
	native := ev.Data

	for _, m := range native.Types {
		dt.Set(m, StringItem(native.values[m]))
	}

	uris := make([]string, 0, len(native.Files))
	for _, nf := range native.Files {
		uri := FileURI(nf.Path)
		dt.Append(MimeFiles, FileItem(NewFile(nf.Name, uri, fileReader(nf.Path))))
		uris = append(uris, uri)
	}
	mergeURIList(dt, uris)

	var errs []error
	for _, e := range enrichers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := e.Enrich(ctx, native, dt); err != nil {
			errs = append(errs, fmt.Errorf("enrich drop data: %w", err))
		}
	}
	return dt, errors.Join(errs...)
}

// Resource is an editor resource dragged from another dropin window.
type Resource struct {
	URI  string `json:"uri"`
	Name string `json:"name,omitempty"`
}

// EditorResourceEnricher recognizes resources dragged from another
// editor window and adds them to text/uri-list.
type EditorResourceEnricher struct{}

// Enrich implements Enricher.
func (EditorResourceEnricher) Enrich(_ context.Context, native *NativeData, dt *DataTransfer) error {
	raw := native.GetData(MimeResources)
	if raw == "" {
		return nil
	}
	var resources []Resource
	if err := json.Unmarshal([]byte(raw), &resources); err != nil {
		return fmt.Errorf("parse %s: %w", MimeResources, err)
	}

	uris := make([]string, 0, len(resources))
	for _, r := range resources {
		if r.URI != "" {
			uris = append(uris, r.URI)
		}
	}
	mergeURIList(dt, uris)
	dt.Set(MimeResources, Item{value: raw, ref: resources})
	return nil
}

// EncodeResources encodes resources as a MimeResources payload.
func EncodeResources(resources []Resource) (string, error) {
	b, err := json.Marshal(resources)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dshills/dropin/internal/engine"
)

func TestFileURI(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "my notes.md")

	uri := FileURI(path)
	got, ok := uri.Path()
	if !ok {
		t.Fatalf("Path() not ok for %q", uri)
	}
	if got != path {
		t.Errorf("Path() = %q, want %q", got, path)
	}
	if uri.Ext() != ".md" {
		t.Errorf("Ext() = %q, want .md", uri.Ext())
	}
	if uri.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", uri.Dir(), dir)
	}

	if _, ok := URI("untitled:1").Path(); ok {
		t.Error("Path() ok for non-file URI")
	}
}

func TestOpenDuplicate(t *testing.T) {
	ws := New()
	if _, err := ws.Open("mem://a", engine.New()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	_, err := ws.Open("mem://a", engine.New())
	if !errors.Is(err, ErrDocumentOpen) {
		t.Errorf("second Open err = %v, want ErrDocumentOpen", err)
	}
}

func TestOpenFileSaveModified(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}

	ws := New()
	doc, err := ws.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if doc.Engine.Text() != "hello" {
		t.Fatalf("Text() = %q", doc.Engine.Text())
	}
	if doc.IsModified() {
		t.Error("new document reports modified")
	}

	again, _ := ws.OpenFile(path)
	if again != doc {
		t.Error("OpenFile returned a second document for the same path")
	}

	_, _ = doc.Engine.Insert(5, " world")
	if got := ws.Modified(); len(got) != 1 || got[0] != doc.URI {
		t.Errorf("Modified() = %v", got)
	}
	if err := ws.Save(doc.URI); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "hello world" {
		t.Errorf("file = %q", data)
	}
	if doc.IsModified() {
		t.Error("document modified after save")
	}
}

func TestOpenFileMissing(t *testing.T) {
	ws := New()
	doc, err := ws.OpenFile(filepath.Join(t.TempDir(), "new.md"))
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if doc.Engine.Len() != 0 {
		t.Errorf("Len() = %d, want 0", doc.Engine.Len())
	}
}

func TestOpenFileWithoutWritePermission(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locked.txt")
	if err := os.WriteFile(path, []byte("x"), 0o444); err != nil {
		t.Fatal(err)
	}
	doc, err := New().OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if !doc.Engine.IsReadOnly() {
		t.Error("engine for a read-only file accepts edits")
	}
	if _, err := doc.Engine.Insert(0, "y"); !errors.Is(err, engine.ErrReadOnly) {
		t.Errorf("Insert err = %v, want ErrReadOnly", err)
	}
}

func TestClose(t *testing.T) {
	ws := New()
	eng := engine.New()
	_, _ = ws.Open("mem://a", eng)

	if err := ws.Close("mem://a"); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !eng.IsClosed() {
		t.Error("engine not closed")
	}
	if _, ok := ws.Document("mem://a"); ok {
		t.Error("document still present")
	}
	if err := ws.Close("mem://a"); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("Close twice err = %v", err)
	}
	if len(ws.URIs()) != 0 {
		t.Errorf("URIs() = %v", ws.URIs())
	}
}

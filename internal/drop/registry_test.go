package drop

import (
	"reflect"
	"testing"

	"github.com/dshills/dropin/internal/engine"
	"github.com/dshills/dropin/internal/workspace"
)

func ids(ps []Provider) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID()
	}
	return out
}

func testDoc(t *testing.T, uri workspace.URI) *workspace.Document {
	t.Helper()
	doc, err := workspace.New().Open(uri, engine.New())
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestRegistryOrdering(t *testing.T) {
	r := NewRegistry()
	r.Register(staticProvider("a", nil))
	r.Register(staticProvider("b", nil), WithPriority(10))
	r.Register(staticProvider("c", nil))
	r.Register(staticProvider("d", nil), WithPriority(10))

	doc := testDoc(t, "mem://x.txt")
	if got, want := ids(r.ProvidersFor(doc)), []string{"b", "d", "a", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("ProvidersFor() = %v, want %v", got, want)
	}

	r.SetOrder([]string{"c", "a"})
	if got, want := ids(r.ProvidersFor(doc)), []string{"c", "a", "b", "d"}; !reflect.DeepEqual(got, want) {
		t.Errorf("with order = %v, want %v", got, want)
	}

	r.SetDisabled([]string{"a"})
	if got, want := ids(r.ProvidersFor(doc)), []string{"c", "b", "d"}; !reflect.DeepEqual(got, want) {
		t.Errorf("with disabled = %v, want %v", got, want)
	}
	if got := r.IDs(); len(got) != 4 {
		t.Errorf("IDs() = %v", got)
	}
}

func TestRegistrySelectorAndUnregister(t *testing.T) {
	r := NewRegistry()
	r.Register(staticProvider("any", nil))
	unregister := r.Register(staticProvider("md", nil), WithSelector(ExtSelector(".md", ".markdown")))

	if got := ids(r.ProvidersFor(testDoc(t, "mem://notes.md"))); !reflect.DeepEqual(got, []string{"any", "md"}) {
		t.Errorf("for .md = %v", got)
	}
	if got := ids(r.ProvidersFor(testDoc(t, "mem://main.go"))); !reflect.DeepEqual(got, []string{"any"}) {
		t.Errorf("for .go = %v", got)
	}

	unregister()
	if got := ids(r.ProvidersFor(testDoc(t, "mem://notes.md"))); !reflect.DeepEqual(got, []string{"any"}) {
		t.Errorf("after unregister = %v", got)
	}
}

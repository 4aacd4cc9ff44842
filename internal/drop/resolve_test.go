package drop

import (
	"context"
	"errors"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dshills/dropin/internal/dataxfer"
	"github.com/dshills/dropin/internal/engine"
	"github.com/dshills/dropin/internal/snippet"
	"github.com/dshills/dropin/internal/workspace"
)

func textTransfer(s string) *dataxfer.DataTransfer {
	dt := dataxfer.New()
	dt.Set(dataxfer.MimeTextPlain, dataxfer.StringItem(s))
	return dt
}

func TestSelectProviders(t *testing.T) {
	providers := []Provider{
		staticProvider("plain", []string{"text/plain"}),
		staticProvider("all", nil),
		staticProvider("image", []string{"image/*"}),
		staticProvider("text", []string{"text/*"}),
		staticProvider("uris", []string{"text/uri-list"}),
	}
	got := ids(selectProviders(providers, textTransfer("x")))
	if want := []string{"plain", "all", "text"}; !reflect.DeepEqual(got, want) {
		t.Errorf("selectProviders() = %v, want %v", got, want)
	}
}

func TestResolveEmptyTransfer(t *testing.T) {
	var calls atomic.Int32
	p := NewProvider("p", nil, func(context.Context, *workspace.Document, engine.ByteOffset, *dataxfer.DataTransfer) ([]Candidate, error) {
		calls.Add(1)
		return nil, nil
	})
	res, err := Resolve(context.Background(), testDoc(t, "mem://a"), 0, dataxfer.New(), []Provider{p})
	if err != nil || len(res.Candidates) != 0 {
		t.Errorf("Resolve() = %+v, %v", res, err)
	}
	if calls.Load() != 0 {
		t.Error("provider called for empty transfer")
	}
}

func TestResolveFlattensInProviderOrder(t *testing.T) {
	slow := NewProvider("slow", nil, func(context.Context, *workspace.Document, engine.ByteOffset, *dataxfer.DataTransfer) ([]Candidate, error) {
		time.Sleep(20 * time.Millisecond)
		return []Candidate{{Insert: snippet.Literal("s1")}, {Insert: snippet.Literal("s2")}}, nil
	})
	fast := staticProvider("fast", nil,
		Candidate{Insert: snippet.Literal("f1"), ProviderID: "custom"},
		Candidate{},
	)
	none := staticProvider("none", nil)

	res, err := Resolve(context.Background(), testDoc(t, "mem://a"), 0, textTransfer("x"), []Provider{slow, none, fast})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	var got []string
	for _, c := range res.Candidates {
		got = append(got, c.Insert.Value+"@"+c.ProviderID)
	}
	if want := []string{"s1@slow", "s2@slow", "f1@custom"}; !reflect.DeepEqual(got, want) {
		t.Errorf("candidates = %v, want %v", got, want)
	}
	if want := []string{"slow", "none", "fast"}; !reflect.DeepEqual(res.Providers, want) {
		t.Errorf("Providers = %v, want %v", res.Providers, want)
	}
}

func TestResolveCanceledWhileWaiting(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	stuck := NewProvider("stuck", nil, func(context.Context, *workspace.Document, engine.ByteOffset, *dataxfer.DataTransfer) ([]Candidate, error) {
		<-block
		return []Candidate{{Insert: snippet.Literal("late")}}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	res, err := Resolve(ctx, testDoc(t, "mem://a"), 0, textTransfer("x"), []Provider{stuck})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(res.Candidates) != 0 {
		t.Errorf("candidates = %v", res.Candidates)
	}
}

func TestResolveRecordsFailures(t *testing.T) {
	boom := errors.New("boom")
	failing := NewProvider("failing", nil, func(context.Context, *workspace.Document, engine.ByteOffset, *dataxfer.DataTransfer) ([]Candidate, error) {
		return []Candidate{{Insert: snippet.Literal("ignored")}}, boom
	})
	panicking := NewProvider("panicking", nil, func(context.Context, *workspace.Document, engine.ByteOffset, *dataxfer.DataTransfer) ([]Candidate, error) {
		panic("oops")
	})

	res, err := Resolve(context.Background(), testDoc(t, "mem://a"), 0, textTransfer("x"), []Provider{failing, panicking})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(res.Candidates) != 0 {
		t.Errorf("candidates = %v", res.Candidates)
	}
	if len(res.Failures) != 2 {
		t.Fatalf("failures = %v", res.Failures)
	}
	if !errors.Is(res.Failures[0], boom) || res.Failures[0].ProviderID != "failing" {
		t.Errorf("failure[0] = %v", res.Failures[0])
	}
	if res.Failures[1].ProviderID != "panicking" {
		t.Errorf("failure[1] = %v", res.Failures[1])
	}
}

package drop

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/dshills/dropin/internal/dataxfer"
	"github.com/dshills/dropin/internal/engine"
	"github.com/dshills/dropin/internal/workspace"
)

// Resolution is the outcome of running providers for a drop.
type Resolution struct {
	// Providers lists the ids of the providers that were invoked.
	Providers []string

	// Candidates are ordered by provider, then by provider result order.
	Candidates []Candidate

	// Failures holds one error per provider that failed.
	Failures []*ProviderError
}

// selectProviders keeps providers without a mime filter and providers
// with at least one mime type present in dt.
func selectProviders(providers []Provider, dt *dataxfer.DataTransfer) []Provider {
	var out []Provider
	for _, p := range providers {
		mimes := p.DropMimeTypes()
		if len(mimes) == 0 || dt.Matches(mimes) {
			out = append(out, p)
		}
	}
	return out
}

// Resolve runs the applicable providers concurrently and collects their
// candidates. An empty DataTransfer resolves to nothing without calling
// any provider. If ctx is done before every provider returned, Resolve
// stops waiting and returns ctx.Err(); providers still running are left
// to finish and their results are discarded.
func Resolve(ctx context.Context, doc *workspace.Document, pos engine.ByteOffset, dt *dataxfer.DataTransfer, providers []Provider) (Resolution, error) {
	if dt.Len() == 0 {
		return Resolution{}, nil
	}
	selected := selectProviders(providers, dt)
	if len(selected) == 0 {
		return Resolution{}, nil
	}

	results := make([][]Candidate, len(selected))
	errs := make([]error, len(selected))

	var wg sync.WaitGroup
	for i, p := range selected {
		wg.Add(1)
		go func(i int, p Provider) {
			defer wg.Done()
			results[i], errs[i] = callProvider(ctx, p, doc, pos, dt)
		}(i, p)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return Resolution{}, ctx.Err()
	}
	if err := ctx.Err(); err != nil {
		return Resolution{}, err
	}

	res := Resolution{Providers: make([]string, len(selected))}
	for i, p := range selected {
		res.Providers[i] = p.ID()
		if errs[i] != nil {
			res.Failures = append(res.Failures, &ProviderError{ProviderID: p.ID(), Err: errs[i]})
			continue
		}
		for _, c := range results[i] {
			if c.Insert.IsEmpty() && c.AdditionalEdit.Len() == 0 {
				continue
			}
			if c.ProviderID == "" {
				c.ProviderID = p.ID()
			}
			res.Candidates = append(res.Candidates, c)
		}
	}
	return res, nil
}

func callProvider(ctx context.Context, p Provider, doc *workspace.Document, pos engine.ByteOffset, dt *dataxfer.DataTransfer) (cands []Candidate, err error) {
	defer func() {
		if r := recover(); r != nil {
			cands = nil
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()
	return p.ProvideDropEdits(ctx, doc, pos, dt)
}

package drop

import (
	"sort"
	"sync"

	"github.com/dshills/dropin/internal/workspace"
)

// Selector decides whether a provider applies to a document.
type Selector func(doc *workspace.Document) bool

// AllDocuments selects every document.
func AllDocuments(*workspace.Document) bool { return true }

// ExtSelector selects documents whose URI has one of the extensions.
func ExtSelector(exts ...string) Selector {
	return func(doc *workspace.Document) bool {
		ext := doc.URI.Ext()
		for _, e := range exts {
			if e == ext {
				return true
			}
		}
		return false
	}
}

// RegisterOption configures a registration.
type RegisterOption func(*registration)

// WithSelector restricts a provider to matching documents.
func WithSelector(sel Selector) RegisterOption {
	return func(r *registration) {
		if sel != nil {
			r.selector = sel
		}
	}
}

// WithPriority sets the priority. Higher priorities come first; ties
// keep registration order.
func WithPriority(p int) RegisterOption {
	return func(r *registration) {
		r.priority = p
	}
}

type registration struct {
	provider Provider
	selector Selector
	priority int
	seq      uint64
}

// Registry holds the registered providers.
type Registry struct {
	mu       sync.RWMutex
	regs     []*registration
	seq      uint64
	order    map[string]int
	disabled map[string]bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		order:    make(map[string]int),
		disabled: make(map[string]bool),
	}
}

// Register adds a provider and returns a function that removes it.
func (r *Registry) Register(p Provider, opts ...RegisterOption) (unregister func()) {
	reg := &registration{provider: p, selector: AllDocuments}
	for _, opt := range opts {
		opt(reg)
	}

	r.mu.Lock()
	r.seq++
	reg.seq = r.seq
	r.regs = append(r.regs, reg)
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		for i, x := range r.regs {
			if x == reg {
				r.regs = append(r.regs[:i], r.regs[i+1:]...)
				return
			}
		}
	}
}

// SetOrder places the listed provider ids first, in the given order.
func (r *Registry) SetOrder(ids []string) {
	order := make(map[string]int, len(ids))
	for i, id := range ids {
		if _, dup := order[id]; !dup {
			order[id] = i
		}
	}
	r.mu.Lock()
	r.order = order
	r.mu.Unlock()
}

// SetDisabled excludes the listed provider ids from lookups.
func (r *Registry) SetDisabled(ids []string) {
	disabled := make(map[string]bool, len(ids))
	for _, id := range ids {
		disabled[id] = true
	}
	r.mu.Lock()
	r.disabled = disabled
	r.mu.Unlock()
}

// ProvidersFor returns the enabled providers whose selector matches doc:
// configured order first, then by priority, then registration order.
func (r *Registry) ProvidersFor(doc *workspace.Document) []Provider {
	r.mu.RLock()
	var matched []*registration
	for _, reg := range r.regs {
		if r.disabled[reg.provider.ID()] || !reg.selector(doc) {
			continue
		}
		matched = append(matched, reg)
	}
	order := r.order
	r.mu.RUnlock()

	rank := func(reg *registration) int {
		if i, ok := order[reg.provider.ID()]; ok {
			return i
		}
		return len(order)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if ra, rb := rank(a), rank(b); ra != rb {
			return ra < rb
		}
		if a.priority != b.priority {
			return a.priority > b.priority
		}
		return a.seq < b.seq
	})

	out := make([]Provider, len(matched))
	for i, reg := range matched {
		out[i] = reg.provider
	}
	return out
}

// IDs returns the ids of all registered providers in registration order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.regs))
	for i, reg := range r.regs {
		out[i] = reg.provider.ID()
	}
	return out
}

package transform

import (
	"fmt"
)

var (
	ErrUnsupported   = fmt.Errorf("not supported")
	ErrDuplicatePair = fmt.Errorf("duplicate transform pair")
)

// Pair identifies a transformation by source and target format.
type Pair struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (p Pair) String() string {
	return p.From + ":" + p.To
}

// Entry binds a Pair to the Capability that implements it.
type Entry struct {
	From       string
	To         string
	Capability Capability
}

// Registry is the dispatch table. It is populated at startup and read
// concurrently afterwards; Register must not be called once requests are
// being served.
type Registry struct {
	entries map[Pair]Capability
	order   []Pair
}

func NewRegistry(entries ...Entry) (*Registry, error) {
	r := &Registry{
		entries: make(map[Pair]Capability, len(entries)),
		order:   make([]Pair, 0, len(entries)),
	}
	for _, e := range entries {
		if err := r.Register(e); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Register(e Entry) error {
	if e.From == "" || e.To == "" {
		return fmt.Errorf("transform pair %q -> %q: from and to are required", e.From, e.To)
	}
	if e.Capability == nil {
		return fmt.Errorf("transform pair %s -> %s: capability cannot be nil", e.From, e.To)
	}

	p := Pair{From: e.From, To: e.To}
	if _, ok := r.entries[p]; ok {
		return fmt.Errorf("%w: %s -> %s", ErrDuplicatePair, e.From, e.To)
	}

	r.entries[p] = e.Capability
	r.order = append(r.order, p)
	return nil
}

// Resolve returns the capability registered for the exact pair. Matching is
// case sensitive.
func (r *Registry) Resolve(from, to string) (Capability, bool) {
	c, ok := r.entries[Pair{From: from, To: to}]
	return c, ok
}

// Pairs returns the registered pairs in registration order.
func (r *Registry) Pairs() []Pair {
	pairs := make([]Pair, len(r.order))
	copy(pairs, r.order)
	return pairs
}

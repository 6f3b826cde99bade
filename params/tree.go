package params

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrDuplicateAddress    = errors.New("duplicate parameter address")
	ErrAddressOutOfRange   = errors.New("parameter address out of range")
	ErrDuplicateIdentifier = errors.New("duplicate parameter identifier")
)

// Tree owns the plugin's parameters, keyed by address
type Tree struct {
	mu     sync.RWMutex
	params map[Address]*Parameter
	byID   map[string]*Parameter
	order  []Address
}

// NewTree creates an empty tree
func NewTree() *Tree {
	return &Tree{
		params: make(map[Address]*Parameter),
		byID:   make(map[string]*Parameter),
	}
}

// Add registers parameters. Nothing is added if any of them is rejected.
func (t *Tree) Add(params ...*Parameter) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	seen := make(map[Address]bool, len(params))
	seenID := make(map[string]bool, len(params))
	for _, p := range params {
		if !p.Address.Valid() {
			return fmt.Errorf("%w: %d", ErrAddressOutOfRange, uint64(p.Address))
		}
		if _, exists := t.params[p.Address]; exists || seen[p.Address] {
			return fmt.Errorf("%w: %s", ErrDuplicateAddress, p.Address)
		}
		if _, exists := t.byID[p.Identifier]; exists || seenID[p.Identifier] {
			return fmt.Errorf("%w: %q", ErrDuplicateIdentifier, p.Identifier)
		}
		seen[p.Address] = true
		seenID[p.Identifier] = true
	}

	for _, p := range params {
		t.params[p.Address] = p
		t.byID[p.Identifier] = p
		t.order = append(t.order, p.Address)
	}
	return nil
}

// Get retrieves a parameter by address
func (t *Tree) Get(addr Address) *Parameter {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.params[addr]
}

// ByIdentifier retrieves a parameter by its persistence key
func (t *Tree) ByIdentifier(id string) *Parameter {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.byID[id]
}

// Count returns the number of parameters
func (t *Tree) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.order)
}

// All returns all parameters in insertion order
func (t *Tree) All() []*Parameter {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]*Parameter, len(t.order))
	for i, addr := range t.order {
		out[i] = t.params[addr]
	}
	return out
}

// Snapshot returns plain values keyed by identifier. Momentary
// parameters are left out.
func (t *Tree) Snapshot() map[string]float64 {
	out := make(map[string]float64)
	for _, p := range t.All() {
		if p.Momentary() {
			continue
		}
		out[p.Identifier] = p.PlainValue()
	}
	return out
}

// Restore applies a snapshot. Unknown identifiers and momentary
// parameters are ignored.
func (t *Tree) Restore(state map[string]float64) {
	for id, v := range state {
		p := t.ByIdentifier(id)
		if p == nil || p.Momentary() {
			continue
		}
		p.SetPlainValue(v)
	}
}

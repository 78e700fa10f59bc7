// Package codec is the JSON wire format of the note model. Diffs and blocks
// are closed sum types, so each value is written as an object carrying a
// "type" discriminator next to its fields and decoded through a Registry
// keyed by that discriminator.
package codec

import (
	"encoding/json"
	"sort"
	"sync"
)

// Codec encodes and decodes one variant, identified by Kind.
type Codec interface {
	// Kind returns the discriminator written to the "type" field.
	Kind() string
	// Encode converts a value of this variant to its JSON fields.
	Encode(any) (json.RawMessage, error)
	// Decode converts JSON fields back to a value of this variant.
	Decode(json.RawMessage) (any, error)
}

// Registry maps kinds to codecs. It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	codecs map[string]Codec
}

// NewRegistry creates an empty registry. Use RegisterModel to fill it with
// the note model's variants.
func NewRegistry() *Registry {
	return &Registry{
		codecs: make(map[string]Codec),
	}
}

// Register adds c under c.Kind(), replacing any codec of the same kind.
func (r *Registry) Register(c Codec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codecs[c.Kind()] = c
}

// Get returns the codec registered for kind.
func (r *Registry) Get(kind string) (Codec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.codecs[kind]
	return c, ok
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.codecs))
	for kind := range r.codecs {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// DefaultRegistry holds every diff and block variant of the note model.
var DefaultRegistry = newModelRegistry()

func newModelRegistry() *Registry {
	r := NewRegistry()
	RegisterModel(r)
	return r
}

// Register adds c to DefaultRegistry.
func Register(c Codec) {
	DefaultRegistry.Register(c)
}

// Get looks kind up in DefaultRegistry.
func Get(kind string) (Codec, bool) {
	return DefaultRegistry.Get(kind)
}

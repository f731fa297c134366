package block

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/aretw0/lattice/pkg/fault"
	"github.com/aretw0/lattice/pkg/value"
)

var (
	// ErrDuplicateBlock is returned when a block name is registered twice.
	ErrDuplicateBlock = errors.New("block already registered")
	// ErrTagCollision is returned when two identities hash to the same tag.
	ErrTagCollision = errors.New("type tag collision")
)

// Constructor creates a fresh, unconfigured block instance.
type Constructor func() Block

// Registry maps block names to constructors and keeps every type tag in use
// so distinct semantic types never share one.
type Registry struct {
	mu     sync.RWMutex
	blocks map[string]Constructor
	tags   map[value.TypeTag]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		blocks: make(map[string]Constructor),
		tags:   make(map[value.TypeTag]string),
	}
}

// Register adds a block kind. The constructor is called once to read the
// block name and tag.
func (r *Registry) Register(ctor Constructor) error {
	probe := ctor()
	name := probe.Name()
	tag := probe.Hash()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.blocks[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateBlock, name)
	}
	if err := r.claimTag(name, tag); err != nil {
		return err
	}

	r.blocks[name] = ctor
	return nil
}

// MustRegister is Register for init-time wiring; it panics on error.
func (r *Registry) MustRegister(ctors ...Constructor) {
	for _, ctor := range ctors {
		if err := r.Register(ctor); err != nil {
			panic(err)
		}
	}
}

// RegisterType records the tag of a native object type. Registering the
// same identity again is a no-op.
func (r *Registry) RegisterType(identity string, tag value.TypeTag) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.claimTag(identity, tag)
}

func (r *Registry) claimTag(identity string, tag value.TypeTag) error {
	if tag == 0 {
		return fmt.Errorf("%w: %s has a zero tag", ErrTagCollision, identity)
	}
	if owner, taken := r.tags[tag]; taken && owner != identity {
		return fmt.Errorf("%w: %s and %s both hash to %s", ErrTagCollision, owner, identity, tag)
	}
	r.tags[tag] = identity
	return nil
}

// Create instantiates the named block.
func (r *Registry) Create(name string) (Block, error) {
	ctor, ok := r.Lookup(name)
	if !ok {
		return nil, fault.NotFound("block %q is not registered", name)
	}
	return ctor(), nil
}

// Lookup returns the constructor registered for name.
func (r *Registry) Lookup(name string) (Constructor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ctor, ok := r.blocks[name]
	return ctor, ok
}

// TypeOf returns the identity registered for tag.
func (r *Registry) TypeOf(tag value.TypeTag) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	identity, ok := r.tags[tag]
	return identity, ok
}

// List returns the registered block names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.blocks))
	for name := range r.blocks {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

package job

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyName indicates a descriptor without a name.
	ErrEmptyName = errors.New("job name is required")
	// ErrNilJob indicates a descriptor without an implementation.
	ErrNilJob = errors.New("job implementation is required")
	// ErrDuplicateName indicates a second job registered under an existing name.
	ErrDuplicateName = errors.New("job name already registered")
)

// Registry is the ordered, append-only list of jobs a batch runs. It is built once at
// startup and not safe for concurrent registration.
type Registry struct {
	descriptors []Descriptor
	names       map[string]struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{names: make(map[string]struct{})}
}

// Register appends a job. Names are trimmed and must be unique.
func (r *Registry) Register(name string, j Job) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if j == nil {
		return fmt.Errorf("%s: %w", name, ErrNilJob)
	}
	if _, ok := r.names[name]; ok {
		return fmt.Errorf("%s: %w", name, ErrDuplicateName)
	}
	r.names[name] = struct{}{}
	r.descriptors = append(r.descriptors, Descriptor{Name: name, Job: j})
	return nil
}

// MustRegister is Register for static job tables; it panics on error.
func (r *Registry) MustRegister(name string, j Job) *Registry {
	if err := r.Register(name, j); err != nil {
		panic(err)
	}
	return r
}

// Descriptors returns a copy of the registered jobs in registration order.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, len(r.descriptors))
	copy(out, r.descriptors)
	return out
}

// Names returns the registered job names in order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.descriptors))
	for i, d := range r.descriptors {
		out[i] = d.Name
	}
	return out
}

// Len returns the number of registered jobs.
func (r *Registry) Len() int { return len(r.descriptors) }

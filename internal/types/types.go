// Package types contains the domain records shared by the generator, parser,
// store and pipeline packages.
package types

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Params is the named-parameter request handed to the generation service.
// A Params value is immutable once built: every accessor returns a copy.
type Params struct {
	values map[string]any
}

// NewParams builds a request from the given values. The map is copied.
func NewParams(values map[string]any) Params {
	cp := make(map[string]any, len(values))
	for k, v := range values {
		cp[k] = v
	}
	return Params{values: cp}
}

// With returns a new Params with key set to value.
func (p Params) With(key string, value any) Params {
	next := NewParams(p.values)
	next.values[key] = value
	return next
}

// Get returns the value stored under key.
func (p Params) Get(key string) (any, bool) {
	v, ok := p.values[key]
	return v, ok
}

// String returns the value under key formatted with %v, or "" when absent.
func (p Params) String(key string) string {
	v, ok := p.values[key]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

// Keys returns the parameter names in sorted order.
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p.values))
	for k := range p.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Map returns a copy of the underlying values, suitable for template data.
func (p Params) Map() map[string]any {
	return NewParams(p.values).values
}

// Len returns the number of parameters.
func (p Params) Len() int {
	return len(p.values)
}

// Record is a structured mapping decoded from generated text.
type Record interface {
	// Validate reports the first required field that is missing or empty.
	Validate() error
}

// ErrMissingField is wrapped by Validate when a required field is absent.
var ErrMissingField = errors.New("missing required field")

// UserProfile is the record produced by the user-creation pipeline.
type UserProfile struct {
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Bio       string `json:"bio"`
	FirstPost string `json:"first_post"`
}

// Validate implements Record.
func (p UserProfile) Validate() error {
	return requireFields(
		field{"firstname", p.FirstName},
		field{"lastname", p.LastName},
		field{"bio", p.Bio},
		field{"first_post", p.FirstPost},
	)
}

// FullName is the display name sent to the store.
func (p UserProfile) FullName() string {
	return p.FirstName + " " + p.LastName
}

// Reaction is the record produced by the reaction pipeline.
type Reaction struct {
	Text string `json:"text"`
}

// Validate implements Record.
func (r Reaction) Validate() error {
	return requireFields(field{"text", r.Text})
}

type field struct {
	name  string
	value string
}

func requireFields(fields ...field) error {
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, f.name)
		}
	}
	return nil
}

// User is a user entity as returned by the store.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Username string `json:"username,omitempty"`
	Bio      string `json:"bio,omitempty"`
}

// Post is a post entity as returned by the store.
type Post struct {
	ID     string `json:"id"`
	UserID string `json:"userId,omitempty"`
	Text   string `json:"text"`
}

// Comment is a comment entity as returned by the store.
type Comment struct {
	ID     string `json:"id"`
	PostID string `json:"postId,omitempty"`
	UserID string `json:"userId,omitempty"`
	Text   string `json:"text"`
}

// Package parser turns raw generated text into validated records.
package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/kaptinlin/jsonrepair"

	"github.com/tuannvm/crowdseed/internal/types"
)

const fence = "```"

// excerptLen bounds the raw text kept on a ParseError.
const excerptLen = 120

// ParseError reports generated text that could not be decoded into a record.
type ParseError struct {
	Excerpt string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse generated text %q: %v", e.Excerpt, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ErrEmpty is wrapped when the generated text is blank after stripping.
var ErrEmpty = errors.New("empty response")

type options struct {
	repair bool
}

// Option configures Parse.
type Option func(*options)

// WithRepair runs syntactically broken JSON through jsonrepair before
// decoding. Required fields are still enforced.
func WithRepair(enabled bool) Option {
	return func(o *options) {
		o.repair = enabled
	}
}

// StripFences removes a leading and trailing fenced-code delimiter, including
// an info string such as "json", and surrounding whitespace.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, fence) {
		s = strings.TrimPrefix(s, fence)
		// The info string ("json", "json title", ...) runs to the first
		// newline. Without a newline it may run straight into the payload.
		if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], "{[") {
			s = s[nl+1:]
		} else if idx := strings.IndexAny(s, "{["); idx >= 0 {
			if isInfoString(s[:idx]) {
				s = s[idx:]
			}
		} else if isInfoString(s) {
			s = ""
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, fence)
	return strings.TrimSpace(s)
}

func isInfoString(s string) bool {
	s = strings.TrimSpace(s)
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return false
		}
	}
	return true
}

// Parse strips fences from raw and decodes it as T. On failure it returns the
// zero T and a *ParseError; no partially populated record escapes.
func Parse[T types.Record](raw string, opts ...Option) (T, error) {
	var zero T
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	cleaned := StripFences(raw)
	if cleaned == "" {
		return zero, &ParseError{Excerpt: excerpt(raw), Err: ErrEmpty}
	}

	if o.repair && !json.Valid([]byte(cleaned)) {
		repaired, err := jsonrepair.JSONRepair(cleaned)
		if err != nil {
			return zero, &ParseError{Excerpt: excerpt(raw), Err: fmt.Errorf("repair json: %w", err)}
		}
		cleaned = repaired
	}

	var record T
	dec := json.NewDecoder(bytes.NewReader([]byte(cleaned)))
	if err := dec.Decode(&record); err != nil {
		return zero, &ParseError{Excerpt: excerpt(raw), Err: err}
	}
	if _, err := dec.Token(); err != io.EOF {
		return zero, &ParseError{Excerpt: excerpt(raw), Err: errors.New("unexpected data after JSON value")}
	}
	if err := record.Validate(); err != nil {
		return zero, &ParseError{Excerpt: excerpt(raw), Err: err}
	}
	return record, nil
}

// ParseProfile decodes a user profile.
func ParseProfile(raw string, opts ...Option) (types.UserProfile, error) {
	return Parse[types.UserProfile](raw, opts...)
}

// ParseReaction decodes a reaction.
func ParseReaction(raw string, opts ...Option) (types.Reaction, error) {
	return Parse[types.Reaction](raw, opts...)
}

func excerpt(raw string) string {
	s := strings.TrimSpace(raw)
	if len(s) <= excerptLen {
		return s
	}
	n := excerptLen
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

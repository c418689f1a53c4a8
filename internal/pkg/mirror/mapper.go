package mirror

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ManuelReschke/RecurFox/internal/pkg/recurly"
)

// ErrNotResource marks an input that is not resource-shaped (carries no
// attributes at all), which is a programming or payload error rather than a
// sync condition.
var ErrNotResource = errors.New("mirror: input is not a resource")

// MissingUniqueValueError reports a remote payload that carries no value for
// the entity's unique lookup field, so there is nothing safe to upsert
// against.
type MissingUniqueValueError struct {
	Entity string
	Attr   string
}

func (e *MissingUniqueValueError) Error() string {
	return fmt.Sprintf("mirror: remote %s record has no value for unique field %q", e.Entity, e.Attr)
}

// Field maps one remote attribute onto one column of a local row. Apply
// reports whether the row value actually changed; an attribute missing from
// the payload never touches the row, while a present-but-empty attribute
// overwrites (last write wins).
type Field[T any] struct {
	Attr  string
	Apply func(dst *T, res *recurly.Resource) bool
}

// Schema is the static mapping descriptor for one entity type: its resource
// node name, its unique lookup attribute ("" when the entity is only ever
// reached through its parent) and the persisted field list.
type Schema[T any] struct {
	Entity     string
	UniqueAttr string
	Fields     []Field[T]
}

// StringField copies a string attribute verbatim.
func StringField[T any](attr string, sel func(*T) *string) Field[T] {
	return Field[T]{Attr: attr, Apply: func(dst *T, res *recurly.Resource) bool {
		v, ok := res.Get(attr)
		if !ok {
			return false
		}
		p := sel(dst)
		if *p == v {
			return false
		}
		*p = v
		return true
	}}
}

// EnumField copies a string attribute with a constrained domain, normalized
// to lower case (the provider returns mixed-case enum strings).
func EnumField[T any](attr string, sel func(*T) *string) Field[T] {
	return Field[T]{Attr: attr, Apply: func(dst *T, res *recurly.Resource) bool {
		v, ok := res.Get(attr)
		if !ok {
			return false
		}
		v = strings.ToLower(v)
		p := sel(dst)
		if *p == v {
			return false
		}
		*p = v
		return true
	}}
}

// IntField copies an integer attribute into a non-nullable column. A nil or
// unparseable value leaves the column untouched.
func IntField[T any](attr string, sel func(*T) *int) Field[T] {
	return Field[T]{Attr: attr, Apply: func(dst *T, res *recurly.Resource) bool {
		v, ok := res.Int(attr)
		if !ok || v == nil {
			return false
		}
		p := sel(dst)
		if *p == *v {
			return false
		}
		*p = *v
		return true
	}}
}

// IntPtrField copies a nullable integer attribute.
func IntPtrField[T any](attr string, sel func(*T) **int) Field[T] {
	return Field[T]{Attr: attr, Apply: func(dst *T, res *recurly.Resource) bool {
		v, ok := res.Int(attr)
		if !ok {
			return false
		}
		p := sel(dst)
		if intPtrEqual(*p, v) {
			return false
		}
		*p = v
		return true
	}}
}

// BoolPtrField copies a nullable boolean attribute.
func BoolPtrField[T any](attr string, sel func(*T) **bool) Field[T] {
	return Field[T]{Attr: attr, Apply: func(dst *T, res *recurly.Resource) bool {
		v, ok := res.Bool(attr)
		if !ok {
			return false
		}
		p := sel(dst)
		if boolPtrEqual(*p, v) {
			return false
		}
		*p = v
		return true
	}}
}

// TimePtrField copies a nullable timestamp attribute.
func TimePtrField[T any](attr string, sel func(*T) **time.Time) Field[T] {
	return Field[T]{Attr: attr, Apply: func(dst *T, res *recurly.Resource) bool {
		v, ok := res.Time(attr)
		if !ok {
			return false
		}
		p := sel(dst)
		if timePtrEqual(*p, v) {
			return false
		}
		*p = v
		return true
	}}
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func boolPtrEqual(a, b *bool) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// Modelify converts one remote resource into exactly one local row.
//
// When existing is non-nil that row is updated in place. Otherwise, if the
// schema declares a unique lookup attribute, lookup is consulted with the
// remote value to find the row to update; no match (or no unique attribute)
// yields a fresh row. The second return value is the number of mapped fields
// that changed, letting callers skip redundant writes. Modelify never
// persists anything itself.
func Modelify[T any](res *recurly.Resource, schema Schema[T], existing *T, lookup func(value string) (*T, error)) (*T, int, error) {
	if !res.HasAttrs() {
		return nil, 0, fmt.Errorf("%w: %s", ErrNotResource, schema.Entity)
	}

	if existing == nil && schema.UniqueAttr != "" {
		value, _ := res.Get(schema.UniqueAttr)
		if value == "" {
			return nil, 0, &MissingUniqueValueError{Entity: schema.Entity, Attr: schema.UniqueAttr}
		}
		if lookup != nil {
			row, err := lookup(value)
			if err != nil {
				return nil, 0, err
			}
			existing = row
		}
	}

	row := existing
	isNew := row == nil
	if isNew {
		row = new(T)
	}

	changed := 0
	for _, field := range schema.Fields {
		if field.Apply(row, res) {
			changed++
		}
	}
	if isNew && changed == 0 {
		// A fresh row always counts as a change, even if every mapped
		// attribute happens to equal the zero value.
		changed = 1
	}
	return row, changed, nil
}

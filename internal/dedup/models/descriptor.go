package models

import (
	"fmt"

	"convergo/pkg/platform/sentinel"
)

// AttributeKind is the declared scalar kind of a groupable attribute.
type AttributeKind string

const (
	KindString AttributeKind = "string"
	KindInt    AttributeKind = "int"
	KindFloat  AttributeKind = "float"
	KindBool   AttributeKind = "bool"
	KindTime   AttributeKind = "time"
)

// Descriptor declares a record type's scalar attributes and their kinds.
// Stores validate grouping requests against it at call time, so a bad
// attribute name or kind surfaces as a typed error instead of a crash.
type Descriptor struct {
	Name       string
	Attributes map[string]AttributeKind
}

// ValidateGrouping checks that attribute resolves on the type and that its
// kind supports grouping. Only string attributes group today; the winner
// rule depends on a total ordering of values and identifiers, and string
// is the one kind every store backend orders identically.
func (d Descriptor) ValidateGrouping(attribute string) error {
	kind, ok := d.Attributes[attribute]
	if !ok {
		return fmt.Errorf("attribute %q on type %q: %w", attribute, d.Name, sentinel.ErrUnknownAttribute)
	}
	if kind != KindString {
		return fmt.Errorf("attribute %q on type %q has kind %q, want %q: %w", attribute, d.Name, kind, KindString, sentinel.ErrTypeMismatch)
	}
	return nil
}

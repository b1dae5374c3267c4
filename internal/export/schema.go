// Package export derives the destination field schema from a normalized
// Reach collection and shapes records for bulk feature upload.
package export

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/couchcryptid/reach-data-etl/internal/domain"
)

// ErrSchemaInconsistency indicates the Reach collection contains records
// with divergent attribute key sets. That means a normalizer bug upstream,
// not a data-quality issue, so it is fatal for the whole batch.
var ErrSchemaInconsistency = errors.New("inconsistent attribute keys across reach collection")

// ObjectIDField is the destination platform's auto-maintained row
// identifier. It is always declared explicitly rather than left to the
// platform's schema inference, and it is distinct from the source's
// reach_id attribute.
const ObjectIDField = "objectid"

// TypeOID marks the destination row-identifier field.
const TypeOID domain.FieldType = "oid"

// Field describes one destination schema field.
type Field struct {
	Name     string
	Type     domain.FieldType
	Nullable bool
	Editable bool

	// Length bounds string fields, in characters. Zero means unbounded
	// (non-string fields are never length-bounded).
	Length int
}

// Schema is the ordered destination field list for one export batch.
type Schema struct {
	Fields []Field
}

// DeriveSchema computes the destination schema from the complete Reach
// collection. It must see every record before any upload begins: string
// lengths are bounded by the longest observed value plus 10% headroom, so a
// partial derivation would under-size fields and truncate or reject later
// records.
func DeriveSchema(reaches []*domain.Reach) (Schema, error) {
	defs := domain.AttributeFields()

	maxLengths := make(map[string]int, len(defs))
	for _, r := range reaches {
		attrs := r.Attributes()
		if err := checkKeySet(attrs, defs); err != nil {
			return Schema{}, fmt.Errorf("reach %d: %w", r.ReachID, err)
		}
		for _, def := range defs {
			if def.Type != domain.FieldString {
				continue
			}
			if s, ok := attrs[def.Name].(string); ok {
				if n := utf8.RuneCountInString(s); n > maxLengths[def.Name] {
					maxLengths[def.Name] = n
				}
			}
		}
	}

	fields := make([]Field, 0, len(defs)+1)
	fields = append(fields, Field{
		Name:     ObjectIDField,
		Type:     TypeOID,
		Nullable: false,
		Editable: false,
	})
	for _, def := range defs {
		f := Field{Name: def.Name, Type: def.Type, Nullable: true, Editable: true}
		if def.Type == domain.FieldString {
			f.Length = headroomLength(maxLengths[def.Name])
		}
		fields = append(fields, f)
	}

	return Schema{Fields: fields}, nil
}

// checkKeySet verifies a record exposes exactly the canonical field set.
func checkKeySet(attrs map[string]any, defs []domain.FieldDef) error {
	if len(attrs) != len(defs) {
		return fmt.Errorf("%w: %d attributes, want %d", ErrSchemaInconsistency, len(attrs), len(defs))
	}
	for _, def := range defs {
		if _, ok := attrs[def.Name]; !ok {
			return fmt.Errorf("%w: missing %q", ErrSchemaInconsistency, def.Name)
		}
	}
	return nil
}

// headroomLength applies the declared-length rule: the longest observed
// value plus 10% headroom, rounded up, never below 1. Integer arithmetic
// keeps ceil(20*1.1) at exactly 22 where float math would round up to 23.
func headroomLength(maxObserved int) int {
	if maxObserved <= 0 {
		return 1
	}
	return (maxObserved*11 + 9) / 10
}

package constants

import (
	"fmt"
	"slices"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// Table is a deduplicated, concatenated string buffer with an offset lookup.
// For every name s it was built from, Buffer[Offsets[s]:Offsets[s]+len(s)] == s.
type Table struct {
	Buffer  string         `cbor:"1,keyasint"`
	Offsets map[string]int `cbor:"2,keyasint"`
}

// Build deduplicates names and concatenates the survivors.
func Build(names []string) *Table {
	survivors := Survivors(names)
	buffer := strings.Join(survivors, "")

	offsets := make(map[string]int, len(names))
	for _, s := range names {
		if _, ok := offsets[s]; ok {
			continue
		}
		offsets[s] = strings.Index(buffer, s)
	}

	return &Table{Buffer: buffer, Offsets: offsets}
}

// Survivors returns the unique names, in first-seen order, that are not a
// substring of another distinct unique name.
//
// Each round judges every candidate against the same snapshot and removes
// all subsumed names at once, so the result does not depend on input order
// beyond the first-seen ordering of the survivors.
func Survivors(names []string) []string {
	unique := make([]string, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, s := range names {
		if !seen[s] {
			seen[s] = true
			unique = append(unique, s)
		}
	}

	for {
		subsumed := make(map[string]bool)
		for _, s := range unique {
			for _, other := range unique {
				if other != s && strings.Contains(other, s) {
					subsumed[s] = true
					break
				}
			}
		}

		if len(subsumed) == 0 {
			return unique
		}

		unique = slices.DeleteFunc(unique, func(s string) bool { return subsumed[s] })
	}
}

// Offset returns the position of s in the buffer.
func (t *Table) Offset(s string) (int, bool) {
	off, ok := t.Offsets[s]
	return off, ok
}

// Lookup returns the buffer slice for s, which equals s.
func (t *Table) Lookup(s string) (string, bool) {
	off, ok := t.Offsets[s]
	if !ok {
		return "", false
	}
	return t.Buffer[off : off+len(s)], true
}

// Strings returns the original names in sorted order.
func (t *Table) Strings() []string {
	out := make([]string, 0, len(t.Offsets))
	for s := range t.Offsets {
		out = append(out, s)
	}
	slices.Sort(out)
	return out
}

// Len returns the number of original names.
func (t *Table) Len() int {
	return len(t.Offsets)
}

// Validate checks the offset invariant for every name.
func (t *Table) Validate() error {
	for s, off := range t.Offsets {
		if off < 0 || off+len(s) > len(t.Buffer) || t.Buffer[off:off+len(s)] != s {
			return fmt.Errorf("constant %q not found at offset %d", s, off)
		}
	}
	return nil
}

var encMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("constants: failed to create CBOR enc mode: %v", err))
	}
	encMode = em
}

// wireTable has Table's fields without its BinaryMarshaler methods.
type wireTable Table

// MarshalBinary encodes the table as canonical CBOR.
func (t *Table) MarshalBinary() ([]byte, error) {
	return encMode.Marshal((*wireTable)(t))
}

// UnmarshalBinary decodes a table and checks its invariant.
func (t *Table) UnmarshalBinary(data []byte) error {
	var w wireTable
	if err := cbor.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("constants: unmarshal table: %w", err)
	}

	decoded := Table(w)
	if err := decoded.Validate(); err != nil {
		return fmt.Errorf("constants: unmarshal table: %w", err)
	}

	*t = decoded
	return nil
}

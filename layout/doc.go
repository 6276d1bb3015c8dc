// Package layout probes the relative memory order of a reference type's
// instance fields.
//
// A probe is synthesized per type from its field list. It is run once on a
// freshly constructed instance, reads the address of every field, and the
// offset of each field is its address minus the lowest address observed.
package layout

// Package match ranks identifiers by similarity so that an unknown type or
// property name can be answered with "did you mean" suggestions.
package match

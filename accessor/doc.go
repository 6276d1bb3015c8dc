// Package accessor finds which backing fields each property getter of a
// reference type actually reads, by decoding the getter's instruction stream
// and resolving every field token it references.
package accessor

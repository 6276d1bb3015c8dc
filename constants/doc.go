// Package constants stores the property and field names of a type graph
// once, as a single concatenated buffer in which names that occur inside
// other names are not repeated, with an offset lookup per original name.
package constants

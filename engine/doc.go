// Package engine is the entry point of the inspector. For a reference type
// it reports which fields each property getter reads, where each field sits
// in memory relative to the others, and a compact table of the property and
// field names reachable from the type.
//
// Typical use:
//
//	e := engine.New()
//	usage, err := e.PropertyFieldUsage(reflect.TypeFor[*store.Person]())
//	offsets, err := e.FieldOffsets(reflect.TypeFor[*store.Person]())
//	names := e.ExtractConstants(reflect.TypeFor[*store.Person]())
//
// Getter bodies are read from Go source by default. Callers that already
// hold instruction streams can supply them with WithAccessorSource.
package engine

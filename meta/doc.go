// Package meta holds the type, field and property identities shared by the
// analyses, and the host metadata contracts they consume.
//
// Key types:
//   - TypeID: package import path + type name
//   - FieldDescriptor / PropertyDescriptor: comparable identities usable as map keys
//   - Module: resolves field tokens of the instruction streams it owns
//   - AccessorSource: enumerates the property getters of a reference type
package meta

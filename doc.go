// Package capnp implements the core Cap'n Proto message model: reading
// and writing segments, struct and list views over them, the pointer
// encodings that link them together (including far and double-far
// pointers across segment boundaries), a message's capability table,
// and the deep-copy and compaction operations used to move data
// between messages or shrink it in place.
//
// It does not include a schema compiler, generated code, or the RPC
// layer; those build on top of the types defined here.
package capnp

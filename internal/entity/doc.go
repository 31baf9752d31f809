// Package entity composes a types.Backend into typed, per-id isolated entity
// storage.
//
// A Table binds a Descriptor (state namespace, index name, initial state,
// seed rows) to a Store. Each id is served by a Cell whose operations are
// serialized by a per-key mutex; operations on different ids never contend.
// The Table keeps the per-type Index and the stored states in step:
//
//   - create writes the state before adding the id to the index;
//   - delete removes the index entry before deleting the state.
//
// An interrupted create or delete therefore leaves at most an orphan state,
// which List never surfaces and CollectOrphans removes.
//
// See docs/ARCHITECTURE.md § Storage Core.
package entity

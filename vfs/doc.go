// Package vfs holds the single virtual source document the engine compiles.
//
// The embedding exposes exactly one logical file. Every lookup, whatever
// FileID it names, resolves to that document; multi-file resolution is
// collapsed on purpose so that adding it later only means adding entries.
//
// The text lives in a rope (github.com/npillmayer/cords). Range edits split
// and re-concatenate the rope, so untouched segments are shared between
// revisions and the *Source handed to the compiler keeps its identity
// across edits; only its revision moves.
package vfs

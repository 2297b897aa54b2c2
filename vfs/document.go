package vfs

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInitialized is returned by reads and edits before the first
	// SetSource call.
	ErrNotInitialized = errors.New("vfs: source has not been set")
	// ErrOutOfRange is returned for edits whose byte range does not fit the
	// current text.
	ErrOutOfRange = errors.New("vfs: edit range out of bounds")
)

// Document owns the one source file of the embedding.
type Document struct {
	id     FileID
	source *Source
}

// New returns an empty document. Reads fail until SetSource is called.
func New() *Document {
	return &Document{id: NewFileID(MainPath)}
}

// ID returns the fixed identity of the document.
func (d *Document) ID() FileID { return d.id }

// Initialized reports whether SetSource has been called.
func (d *Document) Initialized() bool { return d.source != nil }

// SetSource replaces the whole text. The first call creates the source;
// later calls reuse it.
func (d *Document) SetSource(text string) {
	if d.source == nil {
		d.source = newSource(d.id, text)
		return
	}
	d.source.replace(text)
}

// EditSource replaces the byte range [start, end) with `with`. Invalid
// ranges are rejected before any state changes.
func (d *Document) EditSource(start, end int, with string) error {
	if d.source == nil {
		return ErrNotInitialized
	}
	if start < 0 || start > end || end > d.source.Len() {
		return fmt.Errorf("%w: [%d, %d) against length %d", ErrOutOfRange, start, end, d.source.Len())
	}
	if err := d.source.edit(start, end, with); err != nil {
		return fmt.Errorf("vfs: edit [%d, %d): %w", start, end, err)
	}
	return nil
}

// File returns the document bytes. id is ignored: every file is the
// document.
func (d *Document) File(id FileID) ([]byte, error) {
	if d.source == nil {
		return nil, fmt.Errorf("read %s: %w", id, ErrNotInitialized)
	}
	return d.source.Bytes(), nil
}

// Source returns the structured source for the document. id is ignored, as
// in File.
func (d *Document) Source(id FileID) (*Source, error) {
	if d.source == nil {
		return nil, fmt.Errorf("source %s: %w", id, ErrNotInitialized)
	}
	return d.source, nil
}

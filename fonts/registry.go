package fonts

import (
	"bytes"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/electratype/electra/internal/logging"
)

type slotState int

const (
	slotUnconstructed slotState = iota
	slotConstructed
	slotFailed
)

// slot holds one catalog entry's backing buffer and its materialization
// state. Transitions are one-way: unconstructed -> constructed | failed.
type slot struct {
	buffer []byte
	info   Info
	state  slotState
	font   *Font
}

// Options configures a Registry.
type Options struct {
	// Loader materializes faces; nil means CanvasLoader.
	Loader Loader
	Logger *log.Logger
}

// Registry pairs the font Book with one lazily materialized slot per entry.
// Book entry i and slot i always describe the same face.
//
// A Registry is safe for concurrent use. Compiled documents keep reading
// fonts after the engine lock is released.
type Registry struct {
	mu     sync.Mutex
	book   *Book
	slots  []*slot
	loader Loader
	logger *log.Logger
}

// NewRegistry returns an empty registry.
func NewRegistry(opts Options) *Registry {
	loader := opts.Loader
	if loader == nil {
		loader = CanvasLoader
	}
	return &Registry{
		book:   NewBook(),
		loader: loader,
		logger: logging.OrDefault(opts.Logger),
	}
}

// SupplyFonts registers every face found in buffers and returns how many
// were added. Metadata is registered immediately; fonts are built on first
// use. Buffers that yield no faces are skipped and do not affect fonts
// registered earlier.
func (r *Registry) SupplyFonts(buffers [][]byte) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	added := 0
	for i, buf := range buffers {
		infos, err := Parse(buf)
		if err != nil || len(infos) == 0 {
			r.logger.Warn("font buffer yields no faces", logging.FieldIndex, i, logging.FieldError, err)
			continue
		}
		// one private copy per buffer, shared by all its faces
		owned := bytes.Clone(buf)
		for _, info := range infos {
			r.book.Push(info)
			r.slots = append(r.slots, &slot{buffer: owned, info: info})
			added++
		}
	}
	r.logger.Debug("fonts supplied", logging.FieldBuffers, len(buffers), logging.FieldFaces, added)
	return added
}

// Font returns the materialized font for catalog index i. The first call
// builds it; later calls return the cached result. It returns nil when i
// is out of range or the face could not be built.
func (r *Registry) Font(i int) *Font {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i < 0 || i >= len(r.slots) {
		return nil
	}
	s := r.slots[i]
	switch s.state {
	case slotConstructed:
		return s.font
	case slotFailed:
		return nil
	}
	font, err := r.loader(s.buffer, s.info)
	if err != nil || font == nil {
		s.state = slotFailed
		r.logger.Warn("font cannot be constructed", logging.FieldIndex, i, logging.FieldFamily, s.info.Family, logging.FieldError, err)
		return nil
	}
	s.state = slotConstructed
	s.font = font
	r.logger.Debug("font materialized", logging.FieldIndex, i, logging.FieldFamily, s.info.Family)
	return font
}

// Book returns the catalog. It reflects every face supplied so far.
func (r *Registry) Book() *Book { return r.book }

// Len returns the number of registered faces.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.slots)
}

// Package engine is the host-facing entry point: it owns the document, the
// font registry and the export cache, and turns compiles into the list of
// pages that changed since the previous export.
package engine

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/electratype/electra/compiler"
	"github.com/electratype/electra/diag"
	"github.com/electratype/electra/export"
	"github.com/electratype/electra/fonts"
	"github.com/electratype/electra/internal/logging"
	"github.com/electratype/electra/layout"
	"github.com/electratype/electra/renderer"
	"github.com/electratype/electra/vfs"
	"github.com/electratype/electra/world"
)

// ErrNotInitialized is returned when compiling before any source was set.
var ErrNotInitialized = vfs.ErrNotInitialized

// Options configures an Engine. The zero value is usable.
type Options struct {
	Logger *log.Logger
	// Clock answers date queries; nil means the fixed 1970-01-01 clock.
	Clock world.Clock
	// Format is the per-page export format; empty means svg.
	Format renderer.Format
	// Loader materializes fonts; nil means the canvas loader.
	Loader  fonts.Loader
	Library *world.Library
	// Data is bound into ${...} placeholders.
	Data  any
	Debug layout.DebugOptions
}

// Engine is an incremental typesetting engine for one document.
//
// All methods are safe to call from several goroutines; calls are
// serialized, and each runs to completion before the next starts.
type Engine struct {
	mu       sync.Mutex
	host     *host
	compiler *compiler.Compiler
	cache    *export.Cache
	logger   *log.Logger
}

// New returns an engine with no document, no fonts and an empty cache.
func New() *Engine { return NewWithOptions(Options{}) }

// NewWithOptions returns an engine configured by opts.
func NewWithOptions(opts Options) *Engine {
	logger := logging.OrDefault(opts.Logger)
	clock := opts.Clock
	if clock == nil {
		clock = world.FixedClock{}
	}
	library := opts.Library
	if library == nil {
		library = world.StandardLibrary()
	}
	return &Engine{
		host: &host{
			doc:     vfs.New(),
			fonts:   fonts.NewRegistry(fonts.Options{Loader: opts.Loader, Logger: logger}),
			library: library,
			clock:   clock,
		},
		compiler: compiler.New(compiler.Options{
			Data:   opts.Data,
			Format: opts.Format,
			Debug:  opts.Debug,
			Logger: logger,
		}),
		cache:  export.NewCache().WithLogger(logger),
		logger: logger,
	}
}

// SetSource replaces the whole document text.
func (e *Engine) SetSource(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.host.doc.SetSource(text)
	e.logger.Debug("source set", logging.FieldLength, len(text))
}

// EditSource replaces the byte range [start, end) with with. Invalid
// ranges fail with vfs.ErrOutOfRange and leave the text unchanged.
func (e *Engine) EditSource(start, end int, with string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.host.doc.EditSource(start, end, with); err != nil {
		return fmt.Errorf("engine: edit [%d,%d): %w", start, end, err)
	}
	return nil
}

// SupplyFonts registers every face found in buffers and returns how many
// were added. Malformed buffers are skipped.
func (e *Engine) SupplyFonts(buffers [][]byte) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.host.fonts.SupplyFonts(buffers)
}

// SetData replaces the data bound into placeholders.
func (e *Engine) SetData(data any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.compiler.SetData(data)
}

// Book returns a snapshot of the font catalog.
func (e *Engine) Book() []fonts.Info {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.host.fonts.Book().Infos()
}

// Source returns the current document text.
func (e *Engine) Source() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	src, err := e.host.doc.Source(e.host.Main())
	if err != nil {
		return "", err
	}
	return src.Text(), nil
}

// ResetExportCache forgets every exported page; the next export emits all.
func (e *Engine) ResetExportCache() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache.Reset()
}

// TrimExportCache forgets exported pages at position n and beyond. A host
// that deletes its copies of pages past the current count calls it, so a
// document growing back re-exports those positions.
func (e *Engine) TrimExportCache(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache.Truncate(n)
}

// Compile lays the document out without touching the export cache.
// Compilation errors are returned as *diag.Error. The returned document
// reads fonts through the engine, so finish with it before the next call
// that supplies fonts.
func (e *Engine) Compile() (*compiler.Document, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.compile()
}

func (e *Engine) compile() (*compiler.Document, error) {
	if !e.host.doc.Initialized() {
		return nil, ErrNotInitialized
	}
	doc, diags := e.compiler.Compile(e.host)
	if diags.HasErrors() {
		e.logger.Debug("compile failed",
			logging.FieldErrors, len(diags.Errors()),
			logging.FieldWarnings, len(diags.Warnings()))
		return nil, &diag.Error{Diagnostics: diags}
	}
	return doc, nil
}

// CompileToExport compiles the document and serializes the pages that
// changed since the previous call.
//
// On compilation errors it returns a *diag.Error holding every diagnostic;
// no pages are produced and the export cache is left as it was.
func (e *Engine) CompileToExport() (*Export, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	doc, err := e.compile()
	if err != nil {
		return nil, err
	}

	out := &Export{Count: len(doc.Pages), Format: doc.Format(), Warnings: doc.Warnings}
	for i, page := range doc.Pages {
		if e.cache.IsCached(i, page) {
			continue
		}
		content, err := doc.ExportPage(i)
		if err != nil {
			// nothing from this pass reaches the host, so none of it may count as exported
			e.cache.Invalidate(i)
			for _, p := range out.Pages {
				e.cache.Invalidate(p.Index)
			}
			return nil, fmt.Errorf("engine: export page %d: %w", i, err)
		}
		out.Pages = append(out.Pages, Page{Index: i, Content: content})
	}

	e.logger.Debug("exported",
		logging.FieldPages, out.Count,
		logging.FieldExported, len(out.Pages),
		logging.FieldSkipped, out.Count-len(out.Pages))
	return out, nil
}

// RenderPDF compiles the document into one PDF. The export cache is not
// consulted.
func (e *Engine) RenderPDF() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	doc, err := e.compile()
	if err != nil {
		return nil, err
	}
	return doc.PDF()
}

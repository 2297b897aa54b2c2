// Package compiler turns the document a World exposes into laid-out pages.
//
// A Compiler only reads through the world.World interface: it parses the
// main source, binds host data and the date into text, lays pages out and
// reports positioned diagnostics. Parsed syntax trees are memoized per
// source revision so recompiling an unchanged document skips the parser.
package compiler

import (
	"errors"
	"time"

	"github.com/charmbracelet/log"

	"github.com/electratype/electra/binding"
	"github.com/electratype/electra/diag"
	"github.com/electratype/electra/dsl"
	"github.com/electratype/electra/internal/logging"
	"github.com/electratype/electra/layout"
	"github.com/electratype/electra/renderer"
	canvasrenderer "github.com/electratype/electra/renderer/canvas"
	"github.com/electratype/electra/vfs"
	"github.com/electratype/electra/world"
)

// Options configures a Compiler.
type Options struct {
	// Data is bound into ${...} placeholders. Nil binds nothing.
	Data any
	// Format selects the per-page serialization of compiled documents.
	Format renderer.Format
	Debug  layout.DebugOptions
	Logger *log.Logger
}

// Compiler drives parsing and layout against a World.
//
// A Compiler is not safe for concurrent use.
type Compiler struct {
	opts   Options
	logger *log.Logger

	memo   parseMemo
	parses int
}

// parseMemo caches the last parse outcome, failures included.
type parseMemo struct {
	src      *vfs.Source
	id       vfs.FileID
	revision uint64
	doc      *dsl.Document
	err      error
}

func (m *parseMemo) hit(src *vfs.Source) bool {
	return m.src == src && m.id == src.ID() && m.revision == src.Revision()
}

// New returns a compiler.
func New(opts Options) *Compiler {
	if opts.Format == "" {
		opts.Format = renderer.FormatSVG
	}
	return &Compiler{opts: opts, logger: logging.OrDefault(opts.Logger)}
}

// SetData replaces the data bound into placeholders.
func (c *Compiler) SetData(data any) { c.opts.Data = data }

// Parses returns how many times the parser actually ran.
func (c *Compiler) Parses() int { return c.parses }

// Document is a successful compilation: the laid-out pages plus the
// renderer that serializes them.
type Document struct {
	*layout.Result
	renderer *canvasrenderer.Renderer
}

// ExportPage serializes page i in the compiler's format.
func (d *Document) ExportPage(i int) ([]byte, error) {
	return d.renderer.ExportPage(d.Pages[i])
}

// Format returns the format ExportPage produces.
func (d *Document) Format() renderer.Format { return d.renderer.Format() }

// PDF renders the whole document into one PDF.
func (d *Document) PDF() ([]byte, error) { return d.renderer.Render(d.Result) }

// Compile compiles the world's main document. It returns a nil Document
// exactly when the diagnostics contain an error; warnings accompany a
// successful result.
func (c *Compiler) Compile(w world.World) (*Document, diag.List) {
	start := time.Now()

	src, err := w.Source(w.Main())
	if err != nil {
		return nil, diag.List{{Severity: diag.SeverityError, Span: diag.Span{Start: 0, End: 1}, Message: err.Error()}}
	}
	doc, err := c.parse(src)
	if err != nil {
		return nil, diag.List{diag.FromParseError(err)}
	}

	scope := binding.NewScope(c.opts.Data)
	if today, ok := w.Today(nil); ok {
		scope.Define("today", today.String())
	}

	r := canvasrenderer.NewRenderer(w, canvasrenderer.Options{Format: c.opts.Format, Logger: c.logger})
	res, err := layout.Build(doc, layout.BuildOptions{
		Typesetter: r,
		Library:    w.Library(),
		Book:       w.Book(),
		Scope:      scope,
		Debug:      c.opts.Debug,
	})
	if err != nil {
		diags := diag.List{toDiagnostic(err)}
		if res != nil {
			diags = append(diags, res.Warnings...)
		}
		diags.Sort()
		return nil, diags
	}

	res.Warnings.Sort()
	c.logger.Debug("compiled",
		logging.FieldRevision, src.Revision(),
		logging.FieldPages, len(res.Pages),
		logging.FieldWarnings, len(res.Warnings),
		logging.FieldDuration, time.Since(start))
	return &Document{Result: res, renderer: r}, res.Warnings
}

func (c *Compiler) parse(src *vfs.Source) (*dsl.Document, error) {
	if c.memo.hit(src) {
		return c.memo.doc, c.memo.err
	}
	doc, err := dsl.ParseBytes(src.ID().Path(), src.Bytes())
	c.parses++
	c.memo = parseMemo{src: src, id: src.ID(), revision: src.Revision(), doc: doc, err: err}
	return doc, err
}

func toDiagnostic(err error) diag.Diagnostic {
	var lerr *layout.Error
	if errors.As(err, &lerr) {
		return lerr.Diagnostic()
	}
	return diag.Diagnostic{Severity: diag.SeverityError, Span: diag.Span{Start: 0, End: 1}, Message: err.Error()}
}

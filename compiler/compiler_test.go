package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/electratype/electra/diag"
	"github.com/electratype/electra/fonts"
	"github.com/electratype/electra/internal/logging"
	"github.com/electratype/electra/vfs"
	"github.com/electratype/electra/world"
)

// testWorld is a minimal World over one document and a font registry.
type testWorld struct {
	doc   *vfs.Document
	fonts *fonts.Registry
	clock world.Clock
}

func newTestWorld(t *testing.T, src string) *testWorld {
	t.Helper()
	w := &testWorld{
		doc:   vfs.New(),
		fonts: fonts.NewRegistry(fonts.Options{Logger: logging.Discard()}),
		clock: world.FixedClock{},
	}
	require.Equal(t, 1, w.fonts.SupplyFonts([][]byte{goregular.TTF}))
	w.doc.SetSource(src)
	return w
}

func (w *testWorld) Library() *world.Library                   { return world.StandardLibrary() }
func (w *testWorld) Book() *fonts.Book                         { return w.fonts.Book() }
func (w *testWorld) Main() vfs.FileID                          { return w.doc.ID() }
func (w *testWorld) File(id vfs.FileID) ([]byte, error)        { return w.doc.File(id) }
func (w *testWorld) Source(id vfs.FileID) (*vfs.Source, error) { return w.doc.Source(id) }
func (w *testWorld) Font(i int) *fonts.Font                    { return w.fonts.Font(i) }
func (w *testWorld) Packages() []world.PackageSpec             { return nil }
func (w *testWorld) Today(offset *int) (world.Datetime, bool)  { return w.clock.Today(offset) }

func newCompiler(data any) *Compiler {
	return New(Options{Data: data, Logger: logging.Discard()})
}

const simpleDoc = `doc Test {
  page A4 {
    text { "hello ${name}" }
  }
}`

func TestCompileProducesPages(t *testing.T) {
	w := newTestWorld(t, simpleDoc)
	doc, diags := newCompiler(map[string]any{"name": "world"}).Compile(w)
	require.Empty(t, diags)
	require.NotNil(t, doc)
	require.Len(t, doc.Pages, 1)
	assert.Equal(t, "hello world", doc.Pages[0].Texts[0].Content)

	svg, err := doc.ExportPage(0)
	require.NoError(t, err)
	assert.Contains(t, string(svg), "<svg")
}

func TestCompileMemoizesParse(t *testing.T) {
	w := newTestWorld(t, simpleDoc)
	c := newCompiler(nil)

	_, _ = c.Compile(w)
	_, _ = c.Compile(w)
	assert.Equal(t, 1, c.Parses())

	require.NoError(t, w.doc.EditSource(0, 0, "// edited\n"))
	_, _ = c.Compile(w)
	assert.Equal(t, 2, c.Parses())
}

func TestCompileMemoizesParseFailure(t *testing.T) {
	w := newTestWorld(t, "doc Test {")
	c := newCompiler(nil)

	for i := 0; i < 2; i++ {
		doc, diags := c.Compile(w)
		assert.Nil(t, doc)
		require.Len(t, diags, 1)
		assert.Equal(t, diag.SeverityError, diags[0].Severity)
	}
	assert.Equal(t, 1, c.Parses())
}

func TestCompileLayoutError(t *testing.T) {
	w := newTestWorld(t, "doc Test {\n  page Tabloid { text { \"x\" } }\n}")
	doc, diags := newCompiler(nil).Compile(w)
	assert.Nil(t, doc)
	require.Len(t, diags, 1)
	assert.Equal(t, 2, diags[0].Line)
	assert.Equal(t, 3, diags[0].Column)
	assert.Contains(t, diags[0].Message, "Tabloid")
}

func TestCompileLayoutErrorKeepsWarnings(t *testing.T) {
	w := newTestWorld(t, "doc Test {\n  page A4 { video clip }\n  page Tabloid { text { \"x\" } }\n}")
	doc, diags := newCompiler(nil).Compile(w)
	assert.Nil(t, doc)
	require.Len(t, diags, 2)
	assert.True(t, diags.HasErrors())
	assert.Equal(t, diag.SeverityWarning, diags[0].Severity)
	assert.Equal(t, 2, diags[0].Line)
	assert.Equal(t, diag.SeverityError, diags[1].Severity)
	assert.Equal(t, 3, diags[1].Line)
}

func TestCompileUninitializedWorld(t *testing.T) {
	w := newTestWorld(t, simpleDoc)
	w.doc = vfs.New()
	doc, diags := newCompiler(nil).Compile(w)
	assert.Nil(t, doc)
	require.True(t, diags.HasErrors())
	assert.Contains(t, diags[0].Message, vfs.ErrNotInitialized.Error())
}

func TestCompileBindsToday(t *testing.T) {
	w := newTestWorld(t, `doc Test { page A4 { text { "${today}" } } }`)
	w.clock = world.NewFixedClock(world.Datetime{Year: 2025, Month: 12, Day: 31})
	doc, diags := newCompiler(nil).Compile(w)
	require.Empty(t, diags)
	assert.Equal(t, "2025-12-31", doc.Pages[0].Texts[0].Content)
}

func TestCompileWarningsSorted(t *testing.T) {
	w := newTestWorld(t, `doc Test {
  page A4 {
    footer { table x }
    text { "${a}" }
    video clip
  }
}`)
	doc, diags := newCompiler(nil).Compile(w)
	require.NotNil(t, doc)
	require.Len(t, diags, 3)
	assert.False(t, diags.HasErrors())
	for i := 1; i < len(diags); i++ {
		assert.Less(t, diags[i-1].Span.Start, diags[i].Span.Start)
	}
	assert.Equal(t, doc.Warnings, diags)
}

func TestDocumentPDF(t *testing.T) {
	w := newTestWorld(t, simpleDoc)
	doc, diags := newCompiler(map[string]any{"name": "pdf"}).Compile(w)
	require.Empty(t, diags)
	pdf, err := doc.PDF()
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(pdf[:4]))
}

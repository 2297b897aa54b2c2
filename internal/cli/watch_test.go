package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/electratype/electra/engine"
	"github.com/electratype/electra/internal/config"
	"github.com/electratype/electra/internal/logging"
)

type watchFixture struct {
	w   *watcher
	doc string
	out string
	log *bytes.Buffer
}

func newWatchFixture(t *testing.T, text string) *watchFixture {
	t.Helper()
	dir := t.TempDir()
	doc := writeDoc(t, dir, text)

	cfg := config.Default()
	cfg.Input = doc
	cfg.OutputDir = filepath.Join(dir, "out")
	logger := logging.Discard()
	eng := engine.NewWithOptions(engine.Options{Logger: logger, Format: cfg.RendererFormat()})
	require.NoError(t, supplyFonts(eng, cfg.Fonts, logger))

	var buf bytes.Buffer
	s := &session{cfg: cfg, engine: eng, logger: logger, styles: newStyles(false), out: &buf}
	w, err := newWatcher(s)
	require.NoError(t, err)
	return &watchFixture{w: w, doc: doc, out: cfg.OutputDir, log: &buf}
}

func (f *watchFixture) pages(t *testing.T) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(f.out, "page-*.svg"))
	require.NoError(t, err)
	for i, m := range matches {
		matches[i] = filepath.Base(m)
	}
	return matches
}

func (f *watchFixture) content(t *testing.T, name string) []byte {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join(f.out, name))
	require.NoError(t, err)
	return raw
}

func TestWatcherInitialCompile(t *testing.T) {
	f := newWatchFixture(t, pagesDoc("alpha", "beta", "gamma"))
	assert.Equal(t, []string{"page-001.svg", "page-002.svg", "page-003.svg"}, f.pages(t))
}

func TestWatcherAppliesEdits(t *testing.T) {
	f := newWatchFixture(t, pagesDoc("alpha", "beta"))
	second := f.content(t, "page-002.svg")

	require.NoError(t, os.WriteFile(f.doc, []byte(pagesDoc("alpha", "BETA")), 0o644))
	require.NoError(t, f.w.reload())

	src, err := f.w.s.engine.Source()
	require.NoError(t, err)
	assert.Equal(t, pagesDoc("alpha", "BETA"), src)
	assert.NotEqual(t, second, f.content(t, "page-002.svg"))
}

func TestWatcherRemovesStalePages(t *testing.T) {
	f := newWatchFixture(t, pagesDoc("alpha", "beta", "gamma"))

	require.NoError(t, os.WriteFile(f.doc, []byte(pagesDoc("alpha")), 0o644))
	require.NoError(t, f.w.reload())
	assert.Equal(t, []string{"page-001.svg"}, f.pages(t))
}

func TestWatcherRestoresPagesAfterRegrowth(t *testing.T) {
	doc := func(texts ...string) string {
		var b strings.Builder
		b.WriteString("doc Test {\n  page A5 {\n")
		for i, s := range texts {
			if i > 0 {
				b.WriteString("    pagebreak\n")
			}
			fmt.Fprintf(&b, "    text { %q }\n", s)
		}
		b.WriteString("  }\n}\n")
		return b.String()
	}
	f := newWatchFixture(t, doc("alpha", "beta", "gamma"))
	third := f.content(t, "page-003.svg")

	require.NoError(t, os.WriteFile(f.doc, []byte(doc("alpha", "beta")), 0o644))
	require.NoError(t, f.w.reload())
	assert.Equal(t, []string{"page-001.svg", "page-002.svg"}, f.pages(t))

	require.NoError(t, os.WriteFile(f.doc, []byte(doc("alpha", "beta", "gamma")), 0o644))
	require.NoError(t, f.w.reload())
	assert.Equal(t, []string{"page-001.svg", "page-002.svg", "page-003.svg"}, f.pages(t))
	assert.Equal(t, third, f.content(t, "page-003.svg"))
}

func TestWatcherKeepsOutputOnError(t *testing.T) {
	f := newWatchFixture(t, pagesDoc("alpha", "beta"))
	before := f.content(t, "page-001.svg")

	require.NoError(t, os.WriteFile(f.doc, []byte("doc Test {\n  page Tabloid {\n  }\n}\n"), 0o644))
	require.NoError(t, f.w.reload(), "compile errors do not stop watching")
	assert.Contains(t, f.log.String(), "doc.electra:2:3: error:")
	assert.Equal(t, []string{"page-001.svg", "page-002.svg"}, f.pages(t))
	assert.Equal(t, before, f.content(t, "page-001.svg"))

	require.NoError(t, os.WriteFile(f.doc, []byte(pagesDoc("alpha")), 0o644))
	require.NoError(t, f.w.reload())
	assert.Equal(t, []string{"page-001.svg"}, f.pages(t))
}

func TestWatcherSkipsMissingFile(t *testing.T) {
	f := newWatchFixture(t, pagesDoc("alpha"))
	require.NoError(t, os.Remove(f.doc))
	assert.NoError(t, f.w.reload())
}

func TestWatcherRelevant(t *testing.T) {
	f := newWatchFixture(t, pagesDoc("alpha"))
	other := filepath.Join(filepath.Dir(f.doc), "other.electra")

	tests := []struct {
		name string
		ev   fsnotify.Event
		want bool
	}{
		{"write", fsnotify.Event{Name: f.doc, Op: fsnotify.Write}, true},
		{"create", fsnotify.Event{Name: f.doc, Op: fsnotify.Create}, true},
		{"chmod", fsnotify.Event{Name: f.doc, Op: fsnotify.Chmod}, false},
		{"remove", fsnotify.Event{Name: f.doc, Op: fsnotify.Remove}, false},
		{"other file", fsnotify.Event{Name: other, Op: fsnotify.Write}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.w.relevant(tt.ev))
		})
	}
}

func TestWatcherRunLoop(t *testing.T) {
	f := newWatchFixture(t, pagesDoc("alpha", "beta"))
	require.NoError(t, os.WriteFile(f.doc, []byte(pagesDoc("alpha")), 0o644))

	events := make(chan fsnotify.Event, 2)
	errs := make(chan error)
	events <- fsnotify.Event{Name: f.doc, Op: fsnotify.Chmod}
	events <- fsnotify.Event{Name: f.doc, Op: fsnotify.Write}
	close(events)

	require.NoError(t, f.w.run(context.Background(), events, errs))
	assert.Equal(t, []string{"page-001.svg"}, f.pages(t))
}

func TestWatcherRunStopsOnCancel(t *testing.T) {
	f := newWatchFixture(t, pagesDoc("alpha"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, f.w.run(ctx, make(chan fsnotify.Event), make(chan error)))
}

func TestWatcherLogsErrorsThroughContext(t *testing.T) {
	f := newWatchFixture(t, pagesDoc("alpha"))
	var buf bytes.Buffer
	ctx := logging.WithLogger(context.Background(), logging.NewWithWriter(&buf, "warn"))

	errs := make(chan error, 1)
	errs <- errors.New("queue overflow")
	close(errs)

	require.NoError(t, f.w.run(ctx, nil, errs))
	assert.Contains(t, buf.String(), "watch error")
	assert.Contains(t, buf.String(), "queue overflow")
}

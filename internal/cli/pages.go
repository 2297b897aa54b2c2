package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/electratype/electra/diag"
	"github.com/electratype/electra/engine"
	"github.com/electratype/electra/internal/logging"
	"github.com/electratype/electra/renderer"
)

const pagePrefix = "page-"

// pageFileName names the file of the zero-based page index.
func pageFileName(index int, format renderer.Format) string {
	return fmt.Sprintf("%s%03d%s", pagePrefix, index+1, format.Ext())
}

// writePages writes every exported page into dir and returns the paths.
func writePages(dir string, x *engine.Export) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	paths := make([]string, 0, len(x.Pages))
	for _, p := range x.Pages {
		path := filepath.Join(dir, pageFileName(p.Index, x.Format))
		if err := os.WriteFile(path, p.Content, 0o644); err != nil {
			return paths, fmt.Errorf("write page %d: %w", p.Index+1, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// removeStalePages deletes page files of format numbered beyond count,
// left over from a longer earlier version of the document.
func removeStalePages(dir string, format renderer.Format, count int) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pagePrefix+"*"+format.Ext()))
	if err != nil {
		return nil, err
	}
	var removed []string
	for _, path := range matches {
		num := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(path), pagePrefix), format.Ext())
		n, err := strconv.Atoi(num)
		if err != nil || n <= count {
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return removed, fmt.Errorf("remove stale page: %w", err)
		}
		removed = append(removed, path)
	}
	return removed, nil
}

// publish compiles the session's document and syncs the output directory
// with the result. Diagnostics are printed; compile errors come back as
// ErrCompileFailed.
func (s *session) publish() (*engine.Export, error) {
	x, err := s.engine.CompileToExport()
	if err != nil {
		var derr *diag.Error
		if errors.As(err, &derr) {
			printDiagnostics(s.out, s.styles, s.cfg.Input, derr.Diagnostics)
			return nil, ErrCompileFailed
		}
		return nil, err
	}
	printDiagnostics(s.out, s.styles, s.cfg.Input, x.Warnings)

	written, err := writePages(s.cfg.OutputDir, x)
	if err != nil {
		// the cache already counts these pages as exported
		s.engine.ResetExportCache()
		return nil, err
	}
	// files past the count are deleted below, so the cache must not vouch for them
	s.engine.TrimExportCache(x.Count)
	removed, err := removeStalePages(s.cfg.OutputDir, x.Format, x.Count)
	if err != nil {
		return nil, err
	}

	s.logger.Info("compiled",
		logging.FieldOutput, s.cfg.OutputDir,
		logging.FieldPages, x.Count,
		logging.FieldExported, len(written),
		"removed", len(removed),
		logging.FieldWarnings, len(x.Warnings))
	return x, nil
}

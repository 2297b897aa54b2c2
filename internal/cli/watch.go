package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/electratype/electra/internal/logging"
)

func newWatchCommand() *cobra.Command {
	flags := &compileFlags{}

	cmd := &cobra.Command{
		Use:   "watch [input]",
		Short: "Recompile a document whenever it changes",
		Long: `Compile a document, then keep watching it. Each save is applied to the
engine as a single text edit and only the pages that changed are rewritten.
Page files beyond the current page count are removed.

Compile errors are printed and the previous output stays in place until the
document compiles again. Stop with Ctrl-C.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.outputDir, "out-dir", "o", "", "页面输出目录")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "", "单页格式：svg、svgz、pdf")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string, flags *compileFlags) error {
	s, err := openSession(cmd, args, sessionOptions{
		outputDir: flags.outputDir,
		format:    flags.format,
	})
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	w, err := newWatcher(s)
	if err != nil {
		return err
	}
	// editors often replace the file instead of writing it, so watch the directory
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", w.path, err)
	}
	logging.FromContext(ctx).Info("watching", logging.FieldPath, filepath.Dir(w.path))

	return w.run(ctx, fsw.Events, fsw.Errors)
}

// watcher feeds file changes into a session as incremental edits.
type watcher struct {
	s    *session
	path string
	text string
}

func newWatcher(s *session) (*watcher, error) {
	path, err := filepath.Abs(s.cfg.Input)
	if err != nil {
		return nil, err
	}
	text, err := s.readInput()
	if err != nil {
		return nil, err
	}
	w := &watcher{s: s, path: path, text: text}
	if err := w.compile(); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *watcher) run(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			if err := w.reload(); err != nil {
				return err
			}
		case err, ok := <-errs:
			if !ok {
				return nil
			}
			logging.FromContext(ctx).Warn("watch error", logging.FieldError, err)
		}
	}
}

// relevant reports whether ev may have changed the watched document.
func (w *watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return false
	}
	path, err := filepath.Abs(ev.Name)
	if err != nil {
		return false
	}
	return path == w.path
}

// reload applies the file's current text as one edit and recompiles.
// A missing file is skipped: the next Create event brings it back.
func (w *watcher) reload() error {
	raw, err := os.ReadFile(w.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read input: %w", err)
	}
	text := string(raw)
	if text == w.text {
		return nil
	}
	start, end, with := diffRange(w.text, text)
	if err := w.s.engine.EditSource(start, end, with); err != nil {
		return err
	}
	w.text = text
	w.s.logger.Debug("applied edit", "start", start, "end", end, logging.FieldLength, len(with))
	return w.compile()
}

func (w *watcher) compile() error {
	_, err := w.s.publish()
	if errors.Is(err, ErrCompileFailed) {
		return nil
	}
	return err
}

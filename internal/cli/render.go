package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/electratype/electra/diag"
	"github.com/electratype/electra/internal/logging"
	"github.com/electratype/electra/layout"
)

type renderFlags struct {
	output        string
	debugJSON     string
	debugRawUnits bool
}

func newRenderCommand() *cobra.Command {
	flags := &renderFlags{}

	cmd := &cobra.Command{
		Use:   "render [input]",
		Short: "Render a document into a single PDF",
		Long: `Render every page of a document into one PDF file. The export cache is not
used: the whole document is written each time.

The laid-out pages can be dumped as JSON with --debug-json.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, args, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "out", "o", "output/document.pdf", "PDF 输出路径")
	cmd.Flags().StringVar(&flags.debugJSON, "debug-json", "", "布局调试 JSON 输出路径")
	cmd.Flags().BoolVar(&flags.debugRawUnits, "debug-raw-units", false, "在调试 JSON 中输出 debug.rawUnits 影子字段")

	return cmd
}

func runRender(cmd *cobra.Command, args []string, flags *renderFlags) error {
	s, err := openSession(cmd, args, sessionOptions{
		debug: layout.DebugOptions{RawUnits: flags.debugRawUnits},
	})
	if err != nil {
		return err
	}
	if _, err := s.readInput(); err != nil {
		return err
	}

	doc, err := s.engine.Compile()
	if err != nil {
		var derr *diag.Error
		if errors.As(err, &derr) {
			printDiagnostics(s.out, s.styles, s.cfg.Input, derr.Diagnostics)
			return ErrCompileFailed
		}
		return err
	}
	printDiagnostics(s.out, s.styles, s.cfg.Input, doc.Warnings)

	if flags.debugJSON != "" {
		if err := layout.WriteDebugJSON(doc.Result, flags.debugJSON); err != nil {
			return err
		}
		s.logger.Debug("wrote layout", logging.FieldPath, flags.debugJSON)
	}

	pdf, err := doc.PDF()
	if err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(flags.output), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(flags.output, pdf, 0o644); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	s.logger.Info("rendered", logging.FieldOutput, flags.output, logging.FieldPages, len(doc.Pages))
	return nil
}

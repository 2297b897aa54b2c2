package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/electratype/electra/engine"
	"github.com/electratype/electra/fonts"
	"github.com/electratype/electra/internal/config"
	"github.com/electratype/electra/internal/logging"
	"github.com/electratype/electra/layout"
)

// errNoInput is returned when neither the arguments nor the config name a document.
var errNoInput = errors.New("no input document: pass a path or set input in the config")

// fontExtensions are the font file suffixes picked up from font directories.
var fontExtensions = map[string]bool{".ttf": true, ".otf": true, ".ttc": true, ".otc": true}

// session is the state shared by the document commands: the resolved
// config, an engine holding the fonts, and the output styles.
type session struct {
	cfg    *config.Config
	engine *engine.Engine
	logger *log.Logger
	styles *styles
	out    io.Writer
}

// sessionOptions carries per-command overrides applied over the config.
type sessionOptions struct {
	outputDir string
	format    string
	debug     layout.DebugOptions
}

func openSession(cmd *cobra.Command, args []string, opts sessionOptions) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if len(args) > 0 {
		cfg.Input = args[0]
	}
	if opts.outputDir != "" {
		cfg.OutputDir = opts.outputDir
	}
	if opts.format != "" {
		cfg.Format = opts.format
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Input == "" {
		return nil, errNoInput
	}

	data, err := cfg.LoadData()
	if err != nil {
		return nil, err
	}
	clock, err := cfg.Clock()
	if err != nil {
		return nil, err
	}

	ctx := logging.WithFields(cmd.Context(), logging.FieldInput, cfg.Input)
	cmd.SetContext(ctx)
	logger := logging.FromContext(ctx)
	eng := engine.NewWithOptions(engine.Options{
		Logger: logger,
		Clock:  clock,
		Format: cfg.RendererFormat(),
		Data:   data,
		Debug:  opts.debug,
	})
	if err := supplyFonts(eng, cfg.Fonts, logger); err != nil {
		return nil, err
	}

	color, _ := cmd.Flags().GetString("color")
	out := cmd.OutOrStdout()
	return &session{
		cfg:    cfg,
		engine: eng,
		logger: logger,
		styles: newStyles(isColorEnabled(color, out)),
		out:    out,
	}, nil
}

// loadConfig reads the --config file and applies its log level unless
// --debug already raised it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("get config flag: %w", err)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if debug, _ := cmd.Flags().GetBool("debug"); !debug && cfg.LogLevel != "" {
		logging.SetLevel(cfg.LogLevel)
	}
	return cfg, nil
}

// readInput loads the input document into the engine and returns its text.
func (s *session) readInput() (string, error) {
	raw, err := os.ReadFile(s.cfg.Input)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	text := string(raw)
	s.engine.SetSource(text)
	return text, nil
}

func supplyFonts(eng *engine.Engine, cfg config.FontsConfig, logger *log.Logger) error {
	var buffers [][]byte
	if cfg.Builtin {
		buffers = append(buffers, fonts.Builtin()...)
	}
	files, err := fontFiles(cfg.Paths)
	if err != nil {
		return err
	}
	for _, path := range files {
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read font: %w", err)
		}
		buffers = append(buffers, raw)
	}
	faces := eng.SupplyFonts(buffers)
	logger.Debug("fonts supplied", logging.FieldBuffers, len(buffers), logging.FieldFaces, faces)
	return nil
}

// fontFiles expands paths into font files. Files are taken as given;
// directories are walked for known font extensions in lexical order.
func fontFiles(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("font path: %w", err)
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && fontExtensions[strings.ToLower(filepath.Ext(path))] {
				out = append(out, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk font dir %s: %w", p, err)
		}
	}
	return out, nil
}

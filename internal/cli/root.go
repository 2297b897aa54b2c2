// Package cli provides the Cobra command structure for electra.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/electratype/electra/internal/logging"
)

// BuildInfo holds build-time version information.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// NewRootCommand creates the root electra command with all subcommands.
func NewRootCommand(info BuildInfo) *cobra.Command {
	var debug bool
	var configPath string
	var color string

	rootCmd := &cobra.Command{
		Use:   "electra",
		Short: "Incremental typesetting for the electra document language",
		Long: `electra compiles documents written in the electra layout language into
paged output: one SVG, compressed SVG or PDF file per page, or a single PDF.

Pages are exported incrementally. In watch mode only the pages whose
content changed since the previous compile are rewritten.`,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if debug {
				logging.SetLevel("debug")
			}
			cmd.SetContext(logging.WithLogger(cmd.Context(), logging.Default()))
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "输出调试日志")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "配置文件路径（默认读取工作目录下的 electra.yaml）")
	rootCmd.PersistentFlags().StringVar(&color, "color", "auto", "彩色输出：auto、always、never")

	rootCmd.AddCommand(newCompileCommand())
	rootCmd.AddCommand(newWatchCommand())
	rootCmd.AddCommand(newRenderCommand())
	rootCmd.AddCommand(newFontsCommand())
	rootCmd.AddCommand(newVersionCommand(info))

	return rootCmd
}

package cli

import (
	"github.com/spf13/cobra"
)

type compileFlags struct {
	outputDir string
	format    string
}

func newCompileCommand() *cobra.Command {
	flags := &compileFlags{}

	cmd := &cobra.Command{
		Use:   "compile [input]",
		Short: "Compile a document into one file per page",
		Long:  compileLongDescription,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd, args, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.outputDir, "out-dir", "o", "", "页面输出目录")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "", "单页格式：svg、svgz、pdf")

	return cmd
}

const compileLongDescription = `Compile a document and write each page to the output directory as
page-001.svg, page-002.svg and so on.

Errors and warnings are printed as path:line:column: severity: message.
Any error fails the compile and leaves the output directory untouched.

Examples:
  electra compile report.electra
  electra compile report.electra -o build -f pdf`

func runCompile(cmd *cobra.Command, args []string, flags *compileFlags) error {
	s, err := openSession(cmd, args, sessionOptions{
		outputDir: flags.outputDir,
		format:    flags.format,
	})
	if err != nil {
		return err
	}
	if _, err := s.readInput(); err != nil {
		return err
	}
	_, err = s.publish()
	return err
}

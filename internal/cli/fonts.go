package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/electratype/electra/engine"
	"github.com/electratype/electra/fonts"
	"github.com/electratype/electra/internal/logging"
)

func newFontsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fonts",
		Short: "List the font catalog",
		Long: `List every font face supplied by the configuration, in catalog order.
The index column is the value documents resolve font declarations to.`,
		Args: cobra.NoArgs,
		RunE: runFonts,
	}
}

func runFonts(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := logging.FromContext(cmd.Context())
	eng := engine.NewWithOptions(engine.Options{Logger: logger})
	if err := supplyFonts(eng, cfg.Fonts, logger); err != nil {
		return err
	}

	color, _ := cmd.Flags().GetString("color")
	out := cmd.OutOrStdout()
	printFontTable(out, newStyles(isColorEnabled(color, out)), eng.Book())
	return nil
}

func printFontTable(w io.Writer, st *styles, infos []fonts.Info) {
	if len(infos) == 0 {
		fmt.Fprintln(w, st.Dim.Render("没有可用的字体"))
		return
	}
	rows := make([][]string, 0, len(infos))
	for i, info := range infos {
		italic := ""
		if info.Italic() {
			italic = "italic"
		}
		rows = append(rows, []string{
			strconv.Itoa(i),
			info.Family,
			info.Subfamily,
			strconv.Itoa(info.Weight()),
			italic,
			info.FullName,
		})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(st.TableBorder).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return st.TableHeader.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers("INDEX", "FAMILY", "STYLE", "WEIGHT", "ITALIC", "NAME").
		Rows(rows...)
	fmt.Fprintln(w, t.Render())
}

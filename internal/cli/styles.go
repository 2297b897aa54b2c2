package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/electratype/electra/diag"
)

// styles holds the terminal styles for command output.
type styles struct {
	Error    lipgloss.Style
	Warning  lipgloss.Style
	FilePath lipgloss.Style
	Location lipgloss.Style
	Success  lipgloss.Style
	Dim      lipgloss.Style

	TableHeader lipgloss.Style
	TableBorder lipgloss.Style
}

func newStyles(colorEnabled bool) *styles {
	if !colorEnabled {
		plain := lipgloss.NewStyle()
		return &styles{
			Error:       plain,
			Warning:     plain,
			FilePath:    plain,
			Location:    plain,
			Success:     plain,
			Dim:         plain,
			TableHeader: plain,
			TableBorder: plain,
		}
	}
	return &styles{
		Error:       lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Warning:     lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
		FilePath:    lipgloss.NewStyle().Bold(true),
		Location:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Success:     lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		Dim:         lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		TableHeader: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7")),
		TableBorder: lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// isColorEnabled resolves the --color mode for writer.
// In auto mode, color is enabled only if the writer is a TTY and NO_COLOR is not set.
func isColorEnabled(mode string, writer io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	default:
		if os.Getenv("NO_COLOR") != "" {
			return false
		}
		if f, ok := writer.(*os.File); ok {
			return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
		}
		return false
	}
}

// printDiagnostics writes one "path:line:col: severity: message" line per
// diagnostic.
func printDiagnostics(w io.Writer, st *styles, path string, list diag.List) {
	for _, d := range list {
		sev := st.Warning.Render(d.Severity.String())
		if d.Severity == diag.SeverityError {
			sev = st.Error.Render(d.Severity.String())
		}
		loc := path
		if d.Line > 0 {
			loc = fmt.Sprintf("%s:%d:%d", path, d.Line, d.Column)
		}
		fmt.Fprintf(w, "%s: %s: %s\n", st.FilePath.Render(loc), sev, d.Message)
	}
}

// Package diag 定义编译诊断：带源码位置的错误与警告。
//
// 编译失败时，所有诊断作为一个批次通过 *Error 返回；警告不会使编译失败，
// 而是随成功结果一起交给调用方。
package diag

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Severity 区分硬错误与警告。
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Span is a half-open byte range [Start, End) in the source document.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Diagnostic 是一条带位置的诊断信息。Line/Column 从 1 开始，0 表示未知。
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Span     Span     `json:"span"`
	Line     int      `json:"line"`
	Column   int      `json:"column"`
	Message  string   `json:"message"`
}

func (d Diagnostic) String() string {
	if d.Line > 0 {
		return fmt.Sprintf("%d:%d: %s: %s", d.Line, d.Column, d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Severity, d.Message)
}

// At builds a diagnostic anchored at a lexer position. width is the span
// length in bytes; values below 1 are widened to 1.
func At(sev Severity, pos lexer.Position, width int, msg string) Diagnostic {
	if width < 1 {
		width = 1
	}
	return Diagnostic{
		Severity: sev,
		Span:     Span{Start: pos.Offset, End: pos.Offset + width},
		Line:     pos.Line,
		Column:   pos.Column,
		Message:  msg,
	}
}

// Errorf 创建一条 error 级别的诊断。
func Errorf(pos lexer.Position, format string, args ...any) Diagnostic {
	return At(SeverityError, pos, 1, fmt.Sprintf(format, args...))
}

// Warningf 创建一条 warning 级别的诊断。
func Warningf(pos lexer.Position, format string, args ...any) Diagnostic {
	return At(SeverityWarning, pos, 1, fmt.Sprintf(format, args...))
}

// List is an ordered batch of diagnostics.
type List []Diagnostic

// HasErrors reports whether any diagnostic has error severity.
func (l List) HasErrors() bool {
	for _, d := range l {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns only error-severity diagnostics.
func (l List) Errors() List { return l.filter(SeverityError) }

// Warnings returns only warning-severity diagnostics.
func (l List) Warnings() List { return l.filter(SeverityWarning) }

func (l List) filter(sev Severity) List {
	var out List
	for _, d := range l {
		if d.Severity == sev {
			out = append(out, d)
		}
	}
	return out
}

// Sort orders diagnostics by source offset, errors before warnings on ties.
func (l List) Sort() {
	sort.SliceStable(l, func(i, j int) bool {
		if l[i].Span.Start != l[j].Span.Start {
			return l[i].Span.Start < l[j].Span.Start
		}
		return l[i].Severity < l[j].Severity
	})
}

// Error is returned when a compilation produced at least one error
// diagnostic. Diagnostics holds the complete batch, warnings included.
type Error struct {
	Diagnostics List
}

func (e *Error) Error() string {
	errs := e.Diagnostics.Errors()
	switch len(errs) {
	case 0:
		return "compilation failed"
	case 1:
		return "compilation failed: " + errs[0].String()
	default:
		return fmt.Sprintf("compilation failed: %s (and %d more)", errs[0].String(), len(errs)-1)
	}
}

// Summary renders every diagnostic on its own line.
func (e *Error) Summary() string {
	var b strings.Builder
	for _, d := range e.Diagnostics {
		b.WriteString(d.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// FromParseError converts a participle parse or lexer error into a
// diagnostic. Errors without position information map to offset 0.
func FromParseError(err error) Diagnostic {
	var perr participle.Error
	if errors.As(err, &perr) {
		return At(SeverityError, perr.Position(), 1, perr.Message())
	}
	return Diagnostic{Severity: SeverityError, Span: Span{Start: 0, End: 1}, Message: err.Error()}
}

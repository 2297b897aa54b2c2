package layout

import (
	"errors"
	"fmt"

	"github.com/alecthomas/participle/v2/lexer"

	"github.com/electratype/electra/diag"
	"github.com/electratype/electra/dsl"
)

// ErrNoTypesetter is returned when BuildOptions carries no Typesetter.
var ErrNoTypesetter = errors.New("layout: 缺少排版后端 Typesetter")

// ErrFontUnavailable 由排版后端返回：字体目录中没有任何可以构建的字体。
// 布局遇到它时按估算宽度继续，并产生警告。
var ErrFontUnavailable = errors.New("没有可用的字体")

// Error 是带源码位置的布局错误。
type Error struct {
	Pos   lexer.Position
	Width int
	Msg   string
}

func (e *Error) Error() string {
	if e.Pos.Line > 0 {
		return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Column, e.Msg)
	}
	return e.Msg
}

// Diagnostic converts the error into an error-severity diagnostic.
func (e *Error) Diagnostic() diag.Diagnostic {
	return diag.At(diag.SeverityError, e.Pos, e.Width, e.Msg)
}

func errorAt(cmd *dsl.Command, format string, args ...any) *Error {
	return &Error{Pos: cmd.Pos, Width: cmd.Width(), Msg: fmt.Sprintf(format, args...)}
}

func warningAt(cmd *dsl.Command, format string, args ...any) diag.Diagnostic {
	return diag.At(diag.SeverityWarning, cmd.Pos, cmd.Width(), fmt.Sprintf(format, args...))
}

package layout

import (
	"strings"

	"github.com/electratype/electra/dsl"
)

// addShape 解析 line/rect/circle 命令并追加到对应列表，参数无效时产生警告。
func (b *builder) addShape(cmd *dsl.Command, lines *[]Line, rects *[]Rect, circles *[]Circle) {
	_, attrs := parseArgs(cmd.Args, false)
	name := strings.ToLower(cmd.Name)
	ok := false
	switch name {
	case "line":
		var ln Line
		if ln, ok = b.parseLineShape(cmd, attrs); ok {
			*lines = append(*lines, ln)
		}
	case "rect":
		var rc Rect
		if rc, ok = b.parseRectShape(cmd, attrs); ok {
			*rects = append(*rects, rc)
		}
	case "circle":
		var c Circle
		if c, ok = b.parseCircleShape(cmd, attrs); ok {
			*circles = append(*circles, c)
		}
	}
	if !ok {
		b.warn(warningAt(cmd, "%s 缺少有效的尺寸参数，已忽略", name))
	}
}

// parseLineShape supports both full form (x1/y1/x2/y2) and simplified form:
//
//	line x <len> y <len> length <len> [dir h|v] [color <..>] [width <len>]
func (b *builder) parseLineShape(cmd *dsl.Command, attrs map[string]string) (Line, bool) {
	var ln Line
	x1, y1 := lengthMM(attrs["x1"]), lengthMM(attrs["y1"])
	x2, y2 := lengthMM(attrs["x2"]), lengthMM(attrs["y2"])
	switch {
	case x1 != 0 || y1 != 0 || x2 != 0 || y2 != 0:
		ln.X1, ln.Y1, ln.X2, ln.Y2 = x1, y1, x2, y2
	default:
		x, y := lengthMM(attrs["x"]), lengthMM(attrs["y"])
		length := lengthMM(attrs["length"])
		if (x == 0 && y == 0) || length <= 0 {
			return Line{}, false
		}
		switch strings.ToLower(strings.TrimSpace(attrs["dir"])) {
		case "", "h", "hor", "horizontal":
			ln.X1, ln.Y1, ln.X2, ln.Y2 = x, y, x+length, y
		case "v", "ver", "vertical":
			ln.X1, ln.Y1, ln.X2, ln.Y2 = x, y, x, y+length
		default:
			return Line{}, false
		}
	}
	ln.Color = Color{}
	if v := attrs["color"]; v != "" {
		ln.Color = b.resolveColor(cmd, v)
	}
	ln.Width = lengthMM(attrs["width"]) // may be 0
	return ln, true
}

func (b *builder) parseRectShape(cmd *dsl.Command, attrs map[string]string) (Rect, bool) {
	rc := Rect{
		X:      lengthMM(attrs["x"]),
		Y:      lengthMM(attrs["y"]),
		Width:  lengthMM(attrs["width"]),
		Height: lengthMM(attrs["height"]),
	}
	if rc.Width <= 0 || rc.Height <= 0 {
		return Rect{}, false
	}
	if v := attrs["stroke"]; v != "" {
		rc.StrokeColor = b.resolveColor(cmd, v)
	}
	if v := attrs["stroke-width"]; v != "" {
		rc.StrokeWidth = lengthMM(v)
	}
	if v := attrs["fill"]; v != "" {
		c := b.resolveColor(cmd, v)
		rc.FillColor = &c
	}
	return rc, true
}

func (b *builder) parseCircleShape(cmd *dsl.Command, attrs map[string]string) (Circle, bool) {
	c := Circle{
		CX: lengthMM(attrs["cx"]),
		CY: lengthMM(attrs["cy"]),
		R:  lengthMM(attrs["r"]),
	}
	if c.R <= 0 {
		return Circle{}, false
	}
	if v := attrs["stroke"]; v != "" {
		c.StrokeColor = b.resolveColor(cmd, v)
	}
	if v := attrs["stroke-width"]; v != "" {
		c.StrokeWidth = lengthMM(v)
	}
	if v := attrs["fill"]; v != "" {
		col := b.resolveColor(cmd, v)
		c.FillColor = &col
	}
	return c, true
}

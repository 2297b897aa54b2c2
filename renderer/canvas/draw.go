package canvasrenderer

import (
	"errors"
	"image/color"
	"strings"

	"github.com/tdewolff/canvas"

	"github.com/electratype/electra/layout"
)

// defaultStrokeWidth 是未指定线宽时使用的描边宽度（mm）。
const defaultStrokeWidth = 0.2

func (r *Renderer) drawPage(ctx *canvas.Context, page layout.Page) error {
	// 页眉、主体、页脚依次绘制；每个区域先画形状作为背景，再画文本
	for _, area := range []layout.HeaderFooter{
		page.Header,
		{Texts: page.Texts, Lines: page.Lines, Rects: page.Rects, Circles: page.Circles},
		page.Footer,
	} {
		r.drawLines(ctx, area.Lines)
		r.drawRects(ctx, area.Rects)
		r.drawCircles(ctx, area.Circles)
		for _, tb := range area.Texts {
			if err := r.drawTextBox(ctx, tb); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Renderer) drawTextBox(ctx *canvas.Context, tb layout.TextBox) error {
	// TextBox 的坐标/字号/行高均为 mm；创建字体面需要 pt，这里做一次 mm→pt。
	face, err := r.fontFace(tb.FontIndex, toPt(tb.FontSize), tb.Color)
	if errors.Is(err, ErrNoFont) {
		// 布局阶段已对此给出警告
		return nil
	}
	if err != nil {
		return err
	}

	lines := tb.Lines
	if len(lines) == 0 {
		lines = []layout.TextLine{{Content: tb.Content, Width: tb.Width, Height: tb.LineHeight}}
	}

	// 处理水平对齐：left（默认）/center/right。
	var textAlign canvas.TextAlign
	var anchorX float64
	switch strings.ToLower(tb.Align) {
	case "center":
		textAlign = canvas.Center
		anchorX = tb.X + tb.Width/2
	case "right", "end":
		textAlign = canvas.Right
		anchorX = tb.X + tb.Width
	default:
		textAlign = canvas.Left
		anchorX = tb.X
	}

	ascent := face.Metrics().Ascent
	cursorY := tb.Y
	for _, line := range lines {
		cursorY += line.GapBefore
		lineHeight := line.Height
		if lineHeight <= 0 {
			if tb.FontSize > 0 {
				lineHeight = tb.FontSize
			} else {
				lineHeight = tb.LineHeight
			}
		}
		// 基线位置：行顶部加上字体上升部
		ctx.DrawText(anchorX, cursorY+ascent, canvas.NewTextLine(face, line.Content, textAlign))
		cursorY += lineHeight
	}
	return nil
}

// drawLines 绘制直线列表（毫米单位）
func (r *Renderer) drawLines(ctx *canvas.Context, lines []layout.Line) {
	for _, ln := range lines {
		w := ln.Width
		if w <= 0 {
			w = defaultStrokeWidth
		}
		ctx.SetStrokeColor(colorFromLayout(ln.Color))
		ctx.SetStrokeWidth(w)
		p := &canvas.Path{}
		p.MoveTo(0, 0)
		p.LineTo(ln.X2-ln.X1, ln.Y2-ln.Y1)
		ctx.DrawPath(ln.X1, ln.Y1, p)
	}
}

// drawRects 绘制矩形
func (r *Renderer) drawRects(ctx *canvas.Context, rects []layout.Rect) {
	for _, rc := range rects {
		setShapeStyle(ctx, rc.StrokeColor, rc.StrokeWidth, rc.FillColor)
		ctx.DrawPath(rc.X, rc.Y, canvas.Rectangle(rc.Width, rc.Height))
	}
}

// drawCircles 绘制圆形
func (r *Renderer) drawCircles(ctx *canvas.Context, circles []layout.Circle) {
	for _, c := range circles {
		setShapeStyle(ctx, c.StrokeColor, c.StrokeWidth, c.FillColor)
		ctx.DrawPath(c.CX-c.R, c.CY-c.R, canvas.Circle(c.R))
	}
}

func setShapeStyle(ctx *canvas.Context, stroke layout.Color, width float64, fill *layout.Color) {
	if width <= 0 {
		width = defaultStrokeWidth
	}
	if fill != nil {
		ctx.SetFillColor(colorFromLayout(*fill))
	} else {
		ctx.SetFillColor(color.RGBA{0, 0, 0, 0})
	}
	ctx.SetStrokeColor(colorFromLayout(stroke))
	ctx.SetStrokeWidth(width)
}

func colorFromLayout(c layout.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, 1.0)
}

// toPt 将毫米(mm)转换为点(pt)。
func toPt(mm float64) float64 { return mm * layout.MmToPt }

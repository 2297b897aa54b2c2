package fonts

import (
	"fmt"
	"image/color"

	"github.com/tdewolff/canvas"
)

// Font is a materialized font face, ready for shaping and drawing.
type Font struct {
	Info   Info
	family *canvas.FontFamily
	style  canvas.FontStyle
}

// NewFont wraps an already loaded canvas family.
func NewFont(info Info, family *canvas.FontFamily, style canvas.FontStyle) *Font {
	return &Font{Info: info, family: family, style: style}
}

// Family returns the canvas font family holding this face.
func (f *Font) Family() *canvas.FontFamily { return f.family }

// Style returns the style the face was registered under in its family.
func (f *Font) Style() canvas.FontStyle { return f.style }

// Face 以 pt 为单位的字号创建可用于测量与绘制的字体面。
func (f *Font) Face(sizePt float64, col color.Color) *canvas.FontFace {
	return f.family.Face(sizePt, col, f.style, canvas.FontNormal)
}

// Loader materializes the face described by info from a font buffer.
type Loader func(data []byte, info Info) (*Font, error)

// CanvasLoader is the default Loader. Each face gets its own canvas family
// so faces from one collection never shadow each other.
func CanvasLoader(data []byte, info Info) (*Font, error) {
	family := canvas.NewFontFamily(fmt.Sprintf("%s#%d", info.Family, info.Index))
	if err := family.LoadFont(data, info.Index, info.Style); err != nil {
		return nil, fmt.Errorf("加载字体 %s 失败: %w", info, err)
	}
	return NewFont(info, family, info.Style), nil
}

package fonts

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tdewolff/canvas"
	"golang.org/x/image/font/sfnt"
)

// Info describes one font face found in a font file buffer.
type Info struct {
	Family    string           `json:"family"`
	Subfamily string           `json:"subfamily"`
	FullName  string           `json:"fullName"`
	Style     canvas.FontStyle `json:"style"`
	// Index is the face index inside its buffer (non-zero only for collections).
	Index int `json:"index"`
}

// Italic reports whether the face is italic or oblique.
func (i Info) Italic() bool { return i.Style&canvas.FontItalic != 0 }

// Weight returns the CSS weight (100..900) of the face.
func (i Info) Weight() int { return cssWeight(i.Style) }

func (i Info) String() string {
	if i.FullName != "" {
		return i.FullName
	}
	return strings.TrimSpace(i.Family + " " + i.Subfamily)
}

// minFontSize is the size of an sfnt offset table header; anything shorter
// cannot be a font file.
const minFontSize = 12

var (
	// ErrTruncated reports a buffer too short to hold a font header.
	ErrTruncated = errors.New("font data truncated")
	// ErrNoFaces reports a buffer whose faces all failed to parse.
	ErrNoFaces = errors.New("font data has no readable faces")
)

// Parse enumerates the faces in a font buffer. TrueType/OpenType
// collections yield one Info per face, single fonts yield one. Faces whose
// tables cannot be read are skipped; their index is not reused.
func Parse(data []byte) (infos []Info, err error) {
	if len(data) < minFontSize {
		return nil, fmt.Errorf("解析字体数据失败: %w", ErrTruncated)
	}
	// sfnt 对构造的畸形数据可能 panic，这里统一转为错误。
	defer func() {
		if r := recover(); r != nil {
			infos, err = nil, fmt.Errorf("解析字体数据失败: %v", r)
		}
	}()
	coll, err := sfnt.ParseCollection(data)
	if err != nil {
		return nil, fmt.Errorf("解析字体数据失败: %w", err)
	}
	var buf sfnt.Buffer
	infos = make([]Info, 0, coll.NumFonts())
	for i := 0; i < coll.NumFonts(); i++ {
		f, err := coll.Font(i)
		if err != nil {
			continue
		}
		family := nameOf(f, &buf, sfnt.NameIDTypographicFamily, sfnt.NameIDFamily)
		if family == "" {
			continue
		}
		sub := nameOf(f, &buf, sfnt.NameIDTypographicSubfamily, sfnt.NameIDSubfamily)
		infos = append(infos, Info{
			Family:    family,
			Subfamily: sub,
			FullName:  nameOf(f, &buf, sfnt.NameIDFull),
			Style:     ParseStyle(sub),
			Index:     i,
		})
	}
	if len(infos) == 0 {
		return nil, fmt.Errorf("解析字体数据失败: %w", ErrNoFaces)
	}
	return infos, nil
}

func nameOf(f *sfnt.Font, buf *sfnt.Buffer, ids ...sfnt.NameID) string {
	for _, id := range ids {
		if name, err := f.Name(buf, id); err == nil && strings.TrimSpace(name) != "" {
			return strings.TrimSpace(name)
		}
	}
	return ""
}

// ParseStyle 将样式描述（如 "Bold Italic"、"semibold"、"B"）解析为 canvas.FontStyle。
func ParseStyle(style string) canvas.FontStyle {
	if style == "" {
		return canvas.FontRegular
	}
	s := strings.ToLower(style)
	result := canvas.FontRegular
	switch {
	case strings.Contains(s, "black"), strings.Contains(s, "heavy"):
		result = canvas.FontBlack
	case strings.Contains(s, "extrabold"), strings.Contains(s, "extra bold"), strings.Contains(s, "ultrabold"):
		result = canvas.FontExtraBold
	case strings.Contains(s, "semibold"), strings.Contains(s, "semi bold"), strings.Contains(s, "demibold"):
		result = canvas.FontSemiBold
	case strings.Contains(s, "bold"):
		result = canvas.FontBold
	case strings.Contains(s, "medium"):
		result = canvas.FontMedium
	case strings.Contains(s, "extralight"), strings.Contains(s, "extra light"), strings.Contains(s, "ultralight"):
		result = canvas.FontExtraLight
	case strings.Contains(s, "light"):
		result = canvas.FontLight
	case strings.Contains(s, "thin"), strings.Contains(s, "hairline"):
		result = canvas.FontThin
	}
	if strings.Contains(s, "italic") || strings.Contains(s, "oblique") {
		result |= canvas.FontItalic
	}
	// 兼容 "B"、"I"、"BI" 这类简写
	if len(style) <= 2 {
		if strings.Contains(style, "I") {
			result |= canvas.FontItalic
		}
		if strings.Contains(style, "B") {
			result = canvas.FontBold | (result & canvas.FontItalic)
		}
	}
	return result
}

func cssWeight(style canvas.FontStyle) int {
	switch style &^ canvas.FontItalic {
	case canvas.FontThin:
		return 100
	case canvas.FontExtraLight:
		return 200
	case canvas.FontLight:
		return 300
	case canvas.FontMedium:
		return 500
	case canvas.FontSemiBold:
		return 600
	case canvas.FontBold:
		return 700
	case canvas.FontExtraBold:
		return 800
	case canvas.FontBlack:
		return 900
	default:
		return 400
	}
}

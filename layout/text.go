package layout

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/electratype/electra/dsl"
)

// deferredNames 是分页后才能确定的占位符，只在页眉/页脚中有效。
var deferredNames = map[string]bool{"page": true, "pages": true}

// interpolate 替换占位符，并为无法解析的占位符产生警告。
func (b *builder) interpolate(cmd *dsl.Command, content string, deferred bool) string {
	for _, path := range b.opts.Scope.Unresolved(content) {
		if deferred && deferredNames[path] {
			continue
		}
		b.warn(warningAt(cmd, "无法解析占位符 ${%s}", path))
	}
	return b.opts.Scope.Interpolate(content)
}

func (b *builder) composeTextBox(cmd *dsl.Command, style string, attrs map[string]string, content string, x, y, width float64, wrap string, deferred bool) (TextBox, float64, error) {
	fontRes, err := b.resolveTextFont(cmd, style, attrs)
	if err != nil {
		return TextBox{}, 0, err
	}

	content = b.interpolate(cmd, content, deferred)

	fontSize, lineHeight := b.textMetrics(attrs)
	color := b.resolveColor(cmd, attrs["color"])

	lines, err := b.layoutLines(content, width, fontRes, fontSize, lineHeight, wrap)
	switch {
	case errors.Is(err, ErrFontUnavailable):
		// 字体无法构建时按估算宽度占位，渲染阶段跳过该文本
		b.warn(warningAt(cmd, "字体 %s 无法构建，文本将被跳过", fontRes.Name))
		lines = estimateLines(content, fontSize)
	case err != nil:
		return TextBox{}, 0, errorAt(cmd, "排版失败: %v", err)
	}

	totalHeight := 0.0
	defaultLeading := math.Max(lineHeight-fontSize, 0)
	for i := range lines {
		if lines[i].Height <= 0 {
			lines[i].Height = fontSize
		}
		if i == 0 {
			lines[i].GapBefore = 0
		} else if lines[i].GapBefore <= 0 {
			lines[i].GapBefore = defaultLeading
		}
		totalHeight += lines[i].GapBefore + lines[i].Height
	}

	tb := TextBox{
		Content:    content,
		X:          x,
		Y:          y,
		Width:      width,
		LineHeight: lineHeight,
		Font:       fontRes.Name,
		FontIndex:  fontRes.Index,
		FontSize:   fontSize,
		Color:      color,
		Lines:      lines,
		Height:     totalHeight,
		Wrap:       wrap,
		Align:      normalizeAlign(attrs["align"]),
	}
	if b.opts.Debug.RawUnits {
		tb.Debug = b.rawUnits(attrs)
	}
	return tb, totalHeight, nil
}

// textMetrics 返回以 mm 为单位的字号与行高。
func (b *builder) textMetrics(attrs map[string]string) (float64, float64) {
	fontSize := lengthMM(attrs["size"])
	if fontSize <= 0 {
		fontSize = b.lib.FontSize * PtToMm
	}
	lineHeight := fontSize * b.lib.LineHeight
	if spec, ok := ParseLineHeight(attrs["line-height"]); ok {
		lineHeight = spec.Resolve(fontSize)
	}
	return fontSize, lineHeight
}

func (b *builder) rawUnits(attrs map[string]string) *TextBoxDebug {
	sizeRaw := RawLengthJSON{Value: b.lib.FontSize, Unit: UnitPT.String()}
	if sz := ParseLength(attrs["size"]); sz.Value > 0 {
		sizeRaw = sz.raw()
	}
	lhRaw := LineHeightSpec{Kind: LineHeightFactor, Factor: b.lib.LineHeight}.raw()
	if spec, ok := ParseLineHeight(attrs["line-height"]); ok {
		lhRaw = spec.raw()
	}
	return &TextBoxDebug{RawUnits: &RawUnits{FontSize: &sizeRaw, LineHeight: &lhRaw}}
}

// resolveTextFont 确定 text 使用的字体资源：显式 font 属性优先，其次是与样式同名的字体，最后是默认字体。
func (b *builder) resolveTextFont(cmd *dsl.Command, style string, attrs map[string]string) (FontResource, error) {
	name := strings.TrimSpace(attrs["font"])
	if name != "" {
		font, ok := b.res.Fonts[name]
		if !ok {
			return FontResource{}, errorAt(cmd, "字体 %s 未定义", name)
		}
		return b.usable(cmd, font)
	}
	if font, ok := b.res.Fonts[style]; ok && style != "" {
		return b.usable(cmd, font)
	}
	return b.usable(cmd, b.res.Fonts[defaultFontName])
}

func (b *builder) usable(cmd *dsl.Command, font FontResource) (FontResource, error) {
	if font.Index < 0 {
		return font, errorAt(cmd, "没有可用的字体，请先提供字体数据")
	}
	return font, nil
}

func (b *builder) layoutLines(content string, width float64, font FontResource, fontSize, lineHeight float64, wrap string) ([]TextLine, error) {
	lines, err := b.opts.Typesetter.LayoutLines(content, width, font, fontSize, lineHeight, wrap)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		height := fontSize
		if height <= 0 {
			height = lineHeight
		}
		lines = []TextLine{{Content: "", Width: width, Height: height}}
	}
	lines[0].GapBefore = 0
	return lines, nil
}

// resolveColor 解析颜色名或 #RRGGBB；无法识别时使用默认文本颜色并产生警告。
func (b *builder) resolveColor(cmd *dsl.Command, value string) Color {
	def, err := parseColor(b.lib.TextColor)
	if err != nil {
		def = Color{R: 30, G: 30, B: 30}
	}
	if value == "" {
		return def
	}
	if c, ok := lookupColor(value, b.res); ok {
		return c
	}
	b.warn(warningAt(cmd, "颜色 %s 未定义，使用默认颜色", value))
	return def
}

func lookupColor(value string, res ResourceSet) (Color, bool) {
	if c, ok := res.Colors[value]; ok {
		return c, true
	}
	if strings.HasPrefix(value, "#") {
		if c, err := parseColor(value); err == nil {
			return c, true
		}
	}
	return Color{}, false
}

func parseColor(value string) (Color, error) {
	raw := strings.TrimPrefix(value, "#")
	for _, r := range raw {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return Color{}, fmt.Errorf("颜色值 %s 无法解析", value)
		}
	}
	switch len(raw) {
	case 3:
		return Color{
			R: mustHex(strings.Repeat(raw[0:1], 2)),
			G: mustHex(strings.Repeat(raw[1:2], 2)),
			B: mustHex(strings.Repeat(raw[2:3], 2)),
		}, nil
	case 6, 8:
		return Color{
			R: mustHex(raw[0:2]),
			G: mustHex(raw[2:4]),
			B: mustHex(raw[4:6]),
		}, nil
	default:
		return Color{}, fmt.Errorf("颜色值 %s 无法解析", value)
	}
}

func mustHex(s string) int {
	v, _ := strconv.ParseInt(s, 16, 64)
	return int(v)
}

// inferFlowWidth 测量 flow 内容的自然宽度，用于未指定宽度的居中/右对齐 flow。
func (b *builder) inferFlowWidth(block *dsl.Block, maxWidth float64) float64 {
	if block == nil {
		return 0
	}
	var width float64
	for _, stmt := range block.Statements {
		if stmt.Command == nil {
			continue
		}
		switch strings.ToLower(stmt.Command.Name) {
		case "text":
			if w := b.inferTextWidth(stmt.Command, maxWidth); w > width {
				width = w
			}
		case "flow":
			if w := b.inferFlowWidth(stmt.Command.Block, maxWidth); w > width {
				width = w
			}
		}
	}
	return width
}

func (b *builder) inferTextWidth(cmd *dsl.Command, maxWidth float64) float64 {
	if cmd.Block == nil {
		return 0
	}
	styleName, attrs := parseArgs(cmd.Args, true)
	attrs = mergeStyleAttributes(styleName, attrs, b.res.Styles)
	if v := attrs["width"]; v != "" {
		return parseDimension(v, maxWidth)
	}
	content := extractText(cmd.Block)
	if content == "" {
		return 0
	}
	content = b.opts.Scope.Interpolate(content)
	fontSize, lineHeight := b.textMetrics(attrs)

	// 测量失败时退回按字符数估算，避免影响其他内容
	fontRes, err := b.resolveTextFont(cmd, styleName, attrs)
	if err != nil {
		return estimateTextWidth(content, fontSize)
	}
	// 使用极大宽度避免换行，获取每行实际宽度，取最大值
	lines, err := b.layoutLines(content, math.MaxFloat64, fontRes, fontSize, lineHeight, "nowrap")
	if err != nil {
		return estimateTextWidth(content, fontSize)
	}
	maxW := 0.0
	for _, ln := range lines {
		maxW = math.Max(maxW, ln.Width)
	}
	if maxW <= 0 {
		return estimateTextWidth(content, fontSize)
	}
	return maxW
}

// estimateLines 按换行符拆分文本，逐行估算宽度，不做自动换行。
func estimateLines(content string, fontSize float64) []TextLine {
	parts := strings.Split(content, "\n")
	lines := make([]TextLine, len(parts))
	for i, part := range parts {
		lines[i] = TextLine{Content: part, Width: estimateTextWidth(part, fontSize), Height: fontSize}
	}
	return lines
}

// estimateTextWidth 以字号（mm）粗略估计文本宽度。
func estimateTextWidth(content string, fontSize float64) float64 {
	maxChars := 0
	for _, line := range strings.Split(content, "\n") {
		if count := utf8.RuneCountInString(line); count > maxChars {
			maxChars = count
		}
	}
	return fontSize * 0.55 * float64(maxChars+1)
}

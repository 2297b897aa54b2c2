package canvasrenderer

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/gzip"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
	"github.com/tdewolff/canvas/renderers/svg"

	"github.com/electratype/electra/fonts"
	"github.com/electratype/electra/internal/logging"
	"github.com/electratype/electra/layout"
	"github.com/electratype/electra/renderer"
)

// ErrNoFont is returned when no catalog entry can be materialized.
var ErrNoFont = layout.ErrFontUnavailable

// FontSource 提供按目录索引取得的字体；fonts.Registry 实现了该接口。
type FontSource interface {
	Font(index int) *fonts.Font
	Book() *fonts.Book
}

// Renderer draws layout results via github.com/tdewolff/canvas.
type Renderer struct {
	fonts  FontSource
	format renderer.Format
	logger *log.Logger

	fontMu sync.Mutex
	// resolved 记录请求索引到实际使用索引的映射，-1 表示没有可用字体
	resolved map[int]int
}

var (
	_ renderer.Renderer     = (*Renderer)(nil)
	_ renderer.PageExporter = (*Renderer)(nil)
	_ layout.Typesetter     = (*Renderer)(nil)
)

// Options configures the canvas renderer.
type Options struct {
	// Format 是 ExportPage 的输出格式，默认 svg。
	Format renderer.Format
	Logger *log.Logger
}

// NewRenderer creates a renderer that takes faces from src.
func NewRenderer(src FontSource, opts Options) *Renderer {
	format := opts.Format
	if format == "" {
		format = renderer.FormatSVG
	}
	return &Renderer{
		fonts:    src,
		format:   format,
		logger:   logging.OrDefault(opts.Logger),
		resolved: map[int]int{},
	}
}

// Format returns the page export format.
func (r *Renderer) Format() renderer.Format { return r.format }

// Render renders the result into a PDF byte slice.
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	if len(result.Pages) == 0 {
		return nil, fmt.Errorf("缺少可渲染的页面")
	}

	var buf bytes.Buffer
	writer := pdf.New(&buf, result.Pages[0].Width, result.Pages[0].Height, nil)
	r.applyMeta(writer, result.Meta)
	for i, page := range result.Pages {
		if i > 0 {
			writer.NewPage(page.Width, page.Height)
		}
		c, err := r.drawCanvas(page)
		if err != nil {
			return nil, fmt.Errorf("第 %d 页: %w", i+1, err)
		}
		c.RenderTo(writer)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportPage 将单页序列化为 svg、svgz 或单页 pdf。
func (r *Renderer) ExportPage(page layout.Page) ([]byte, error) {
	c, err := r.drawCanvas(page)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	switch r.format {
	case renderer.FormatSVG:
		if err := writeSVG(&buf, c, page); err != nil {
			return nil, err
		}
	case renderer.FormatSVGZ:
		gz := gzip.NewWriter(&buf)
		if err := writeSVG(gz, c, page); err != nil {
			return nil, err
		}
		if err := gz.Close(); err != nil {
			return nil, fmt.Errorf("压缩 SVG 失败: %w", err)
		}
	case renderer.FormatPDF:
		writer := pdf.New(&buf, page.Width, page.Height, nil)
		c.RenderTo(writer)
		if err := writer.Close(); err != nil {
			return nil, fmt.Errorf("写入 PDF 失败: %w", err)
		}
	default:
		return nil, fmt.Errorf("不支持的导出格式 %q", r.format)
	}
	return buf.Bytes(), nil
}

func writeSVG(w io.Writer, c *canvas.Canvas, page layout.Page) error {
	s := svg.New(w, page.Width, page.Height, nil)
	c.RenderTo(s)
	if err := s.Close(); err != nil {
		return fmt.Errorf("写入 SVG 失败: %w", err)
	}
	return nil
}

func (r *Renderer) drawCanvas(page layout.Page) (*canvas.Canvas, error) {
	c := canvas.New(page.Width, page.Height)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点
	if err := r.drawPage(ctx, page); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *Renderer) applyMeta(writer *pdf.PDF, meta layout.DocumentMeta) {
	if writer == nil {
		return
	}
	keywords := strings.Join(meta.Keywords, ", ")
	writer.SetInfo(meta.Title, meta.Subject, keywords, meta.Author, meta.Creator)
}

// LayoutLines 实现 layout.Typesetter 接口，使用贪心换行算法。
// 约定：fontSize/lineHeight 入参均为毫米（mm）。渲染器内部与字体系统交互使用 pt，并在边界做 mm↔pt 换算。
func (r *Renderer) LayoutLines(content string, width float64, font layout.FontResource, fontSize, lineHeight float64, wrap string) ([]layout.TextLine, error) {
	face, err := r.fontFace(font.Index, toPt(fontSize), layout.Color{R: 30, G: 30, B: 30})
	if err != nil {
		return nil, err
	}

	// 在贪心换行中，所有宽度比较与累计均使用 mm
	if wrap == "" {
		wrap = "anywhere"
	}
	lines := greedyWrapTokens(content, width, face, wrap)
	textHeight := face.Metrics().LineHeight
	if textHeight <= 0 {
		textHeight = lineHeight
	}
	leading := math.Max(lineHeight-textHeight, 0)
	if len(lines) == 0 {
		lines = []layout.TextLine{{Content: "", Height: textHeight}}
	}
	for i := range lines {
		if lines[i].Height <= 0 {
			lines[i].Height = textHeight
		}
		if i == 0 {
			lines[i].GapBefore = 0
		} else {
			lines[i].GapBefore = leading
		}
	}
	return lines, nil
}

func (r *Renderer) fontFace(index int, sizePt float64, col layout.Color) (*canvas.FontFace, error) {
	font := r.resolveFont(index)
	if font == nil {
		return nil, fmt.Errorf("字体索引 %d: %w", index, ErrNoFont)
	}
	return font.Face(sizePt, colorFromLayout(col)), nil
}

// resolveFont 返回索引对应的字体；无法构建时依次退回同一字体族的其他字体、
// 目录中任意可构建的字体。结果按请求索引缓存。
func (r *Renderer) resolveFont(index int) *fonts.Font {
	if r.fonts == nil {
		return nil
	}
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	if i, ok := r.resolved[index]; ok {
		if i < 0 {
			return nil
		}
		return r.fonts.Font(i)
	}

	i := r.fallbackIndex(index)
	r.resolved[index] = i
	if i < 0 {
		r.logger.Warn("no constructible font", logging.FieldIndex, index)
		return nil
	}
	if i != index {
		r.logger.Debug("font substituted", logging.FieldIndex, index, "substitute", i)
	}
	return r.fonts.Font(i)
}

func (r *Renderer) fallbackIndex(index int) int {
	if r.fonts.Font(index) != nil {
		return index
	}
	book := r.fonts.Book()
	if want, ok := book.Info(index); ok {
		for i, info := range book.Infos() {
			if i != index && strings.EqualFold(info.Family, want.Family) && r.fonts.Font(i) != nil {
				return i
			}
		}
	}
	for i := 0; i < book.Len(); i++ {
		if i != index && r.fonts.Font(i) != nil {
			return i
		}
	}
	return -1
}

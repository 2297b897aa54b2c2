package layout

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/electratype/electra/binding"
	"github.com/electratype/electra/diag"
	"github.com/electratype/electra/dsl"
	"github.com/electratype/electra/fonts"
)

// stubTypesetter 是一个最小实现，仅用于测试，避免引入 renderer 造成循环依赖。
type stubTypesetter struct{}

func (s *stubTypesetter) LayoutLines(content string, width float64, font FontResource, fontSize float64, lineHeight float64, wrap string) ([]TextLine, error) {
	// 极简策略：按空格分词，分成最多三行：1/3、1/3、其余；不依赖具体宽度。
	parts := strings.Fields(content)
	if len(parts) == 0 {
		return []TextLine{{Content: "", Width: 0, Height: fontSize}}, nil
	}
	n := len(parts)
	cut1 := n / 3
	if cut1 == 0 {
		cut1 = 1
	}
	cut2 := 2 * n / 3
	if cut2 <= cut1 {
		cut2 = cut1 + 1
	}
	if cut2 > n {
		cut2 = n
	}

	lines := []TextLine{}
	mk := func(seg []string) {
		if len(seg) == 0 {
			return
		}
		lines = append(lines, TextLine{Content: strings.Join(seg, " "), Width: float64(len(seg)) * 5, Height: fontSize})
	}
	mk(parts[:cut1])
	if cut1 < n {
		mk(parts[cut1:cut2])
	}
	if cut2 < n {
		mk(parts[cut2:])
	}
	// 不设置 GapBefore（保持 0），由 composeTextBox 根据默认 leading 回填。
	return lines, nil
}

func testBook(t *testing.T) *fonts.Book {
	t.Helper()
	book := fonts.NewBook()
	for _, data := range [][]byte{goregular.TTF, gobold.TTF} {
		infos, err := fonts.Parse(data)
		if err != nil {
			t.Fatalf("解析测试字体失败: %v", err)
		}
		for _, info := range infos {
			book.Push(info)
		}
	}
	return book
}

func build(t *testing.T, dslText string, opts BuildOptions) (*Result, error) {
	t.Helper()
	doc, err := dsl.Parse(strings.NewReader(dslText))
	if err != nil {
		t.Fatalf("解析 DSL 失败: %v", err)
	}
	if opts.Typesetter == nil {
		opts.Typesetter = &stubTypesetter{}
	}
	if opts.Book == nil {
		opts.Book = testBook(t)
	}
	return Build(doc, opts)
}

// buildWithRenderer 是测试辅助：用给定 DSL 文本构建布局结果。
func buildWithRenderer(t *testing.T, dslText string, debugRaw bool) *Result {
	t.Helper()
	res, err := build(t, dslText, BuildOptions{Debug: DebugOptions{RawUnits: debugRaw}})
	if err != nil {
		t.Fatalf("布局计算失败: %v", err)
	}
	return res
}

func buildError(t *testing.T, dslText string) *Error {
	t.Helper()
	_, err := build(t, dslText, BuildOptions{})
	if err == nil {
		t.Fatalf("期望布局失败")
	}
	var lerr *Error
	if !errors.As(err, &lerr) {
		t.Fatalf("期望 *layout.Error，实际 %T: %v", err, err)
	}
	return lerr
}

// TestTextBoxTotalHeightInvariant 断言：TextBox.Height == Σ(line.Height + line.GapBefore)。
func TestTextBoxTotalHeightInvariant(t *testing.T) {
	dslText := `doc T v1 {
  resources {
    font Body { family: "Go" }
    style Body {
      font: Body
      size: 12pt
      line-height: 1.2x
    }
  }
  page A4 portrait margin 10mm { flow { text Body { "long long long long long long long long long long long long long" } } }
}`
	res := buildWithRenderer(t, dslText, false)
	if len(res.Pages) == 0 {
		t.Fatalf("无页面输出")
	}
	found := false
	for _, tb := range res.Pages[0].Texts {
		if len(tb.Lines) == 0 {
			continue
		}
		total := 0.0
		for _, ln := range tb.Lines {
			total += ln.GapBefore + ln.Height
		}
		if diff := abs(total - tb.Height); diff > 1e-6 {
			t.Fatalf("TextBox.Height 不变式不成立: got=%g want=%g diff=%g", tb.Height, total, diff)
		}
		found = true
	}
	if !found {
		t.Fatalf("未找到文本框进行校验")
	}
}

// TestDebugRawUnitsOutput 验证在开启 Debug.RawUnits 后，JSON 里会输出 debug.rawUnits，且语义正确。
func TestDebugRawUnitsOutput(t *testing.T) {
	// 文档 A：使用倍数行高 1.2x
	dslFactor := `doc D1 v1 {
  resources {
    style S1 { size: 12pt; line-height: 1.2x }
  }
  page A4 portrait margin 10mm { flow { text S1 { "aaaa bbbb" } } }
}`
	res1 := buildWithRenderer(t, dslFactor, true)
	if len(res1.Pages) == 0 || len(res1.Pages[0].Texts) == 0 {
		t.Fatalf("文档 D1 未生成文本")
	}
	tb1 := res1.Pages[0].Texts[0]
	if tb1.Debug == nil || tb1.Debug.RawUnits == nil || tb1.Debug.RawUnits.LineHeight == nil {
		t.Fatalf("D1 缺少 debug.rawUnits.lineHeight")
	}
	if tb1.Debug.RawUnits.LineHeight.Kind != "factor" || tb1.Debug.RawUnits.LineHeight.Factor != 1.2 {
		t.Fatalf("D1 行高应为 1.2x，实际: %#v", tb1.Debug.RawUnits.LineHeight)
	}
	if tb1.Debug.RawUnits.FontSize == nil || tb1.Debug.RawUnits.FontSize.Unit != "pt" || tb1.Debug.RawUnits.FontSize.Value != 12 {
		t.Fatalf("D1 字号应为 12pt，实际: %#v", tb1.Debug.RawUnits.FontSize)
	}

	// 文档 B：使用绝对行高 6mm
	dslAbs := `doc D2 v1 {
  resources {
    style Base { size: 12pt }
  }
  page A4 portrait margin 10mm { flow { text Base line-height 6mm { "cccc dddd" } } }
}`
	res2 := buildWithRenderer(t, dslAbs, true)
	if len(res2.Pages) == 0 || len(res2.Pages[0].Texts) == 0 {
		t.Fatalf("文档 D2 未生成文本")
	}
	tb2 := res2.Pages[0].Texts[0]
	if tb2.Debug == nil || tb2.Debug.RawUnits == nil || tb2.Debug.RawUnits.LineHeight == nil {
		t.Fatalf("D2 缺少 debug.rawUnits.lineHeight")
	}
	if tb2.Debug.RawUnits.LineHeight.Kind != "absolute" || tb2.Debug.RawUnits.LineHeight.Unit != "mm" || tb2.Debug.RawUnits.LineHeight.Value != 6 {
		t.Fatalf("D2 行高应为 6mm 绝对值，实际: %#v", tb2.Debug.RawUnits.LineHeight)
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// TestResolveMarginVariants 验证 margin 参数支持 1、2、3、4+ 个值的语义。
func TestResolveMarginVariants(t *testing.T) {
	get := func(spec string) Margin {
		dslText := "doc T v1 { page " + spec + " { flow { text { \"x\" } } } }"
		res := buildWithRenderer(t, dslText, false)
		if len(res.Pages) == 0 {
			t.Fatalf("未生成页面")
		}
		return res.Pages[0].Margin
	}

	// 未指定时使用语言定义的默认边距
	m0 := get("A4")
	if !(eq(m0.Top, 20) && eq(m0.Left, 20)) {
		t.Fatalf("默认边距错误: %+v", m0)
	}

	// 1 个参数：四边相同
	m1 := get("A4 portrait margin 10mm")
	if !(eq(m1.Top, 10) && eq(m1.Right, 10) && eq(m1.Bottom, 10) && eq(m1.Left, 10)) {
		t.Fatalf("1 值语义错误: %+v", m1)
	}

	// 2 个参数：上下，左右
	m2 := get("A4 portrait margin 10mm 5mm")
	if !(eq(m2.Top, 10) && eq(m2.Bottom, 10) && eq(m2.Left, 5) && eq(m2.Right, 5)) {
		t.Fatalf("2 值语义错误: %+v", m2)
	}

	// 3 个参数：上 右 下 左=0
	m3 := get("A4 portrait margin 12mm 8mm 6mm")
	if !(eq(m3.Top, 12) && eq(m3.Right, 8) && eq(m3.Bottom, 6) && eq(m3.Left, 0)) {
		t.Fatalf("3 值语义错误: %+v", m3)
	}

	// 4 个参数：上 右 下 左（含不同单位）
	m4 := get("A4 portrait margin 1cm 5mm 2cm 3mm")
	if !(eq(m4.Top, 10) && eq(m4.Right, 5) && eq(m4.Bottom, 20) && eq(m4.Left, 3)) {
		t.Fatalf("4 值语义错误: %+v", m4)
	}

	// >4 个参数：只取前四个
	m5 := get("A4 portrait margin 1mm 2mm 3mm 4mm 999mm 888mm")
	if !(eq(m5.Top, 1) && eq(m5.Right, 2) && eq(m5.Bottom, 3) && eq(m5.Left, 4)) {
		t.Fatalf(">4 值应忽略多余: %+v", m5)
	}
}

func eq(a, b float64) bool { return abs(a-b) < 1e-6 }

// TestTextAlignExplicit 验证在普通 flow 中显式声明 align 生效
func TestTextAlignExplicit(t *testing.T) {
	res := buildWithRenderer(t, `doc T v1 { page A4 { flow { text align right { "Hello" } } } }`, false)
	if tb := res.Pages[0].Texts[0]; tb.Align != "right" {
		t.Fatalf("显式 align 未生效: got=%q want=\"right\"", tb.Align)
	}
}

// TestTextAlignInheritFlow 验证未显式声明时从父 flow 继承对齐
func TestTextAlignInheritFlow(t *testing.T) {
	res := buildWithRenderer(t, `doc T v1 { page A4 { flow align center { text { "Hello" } } } }`, false)
	if tb := res.Pages[0].Texts[0]; tb.Align != "center" {
		t.Fatalf("flow 继承对齐未生效: got=%q want=\"center\"", tb.Align)
	}
}

// TestTextAlignAliases 验证 start/end 别名映射
func TestTextAlignAliases(t *testing.T) {
	res := buildWithRenderer(t, `doc T v1 { page A4 { flow { text align end { "Hello" } } } }`, false)
	if tb := res.Pages[0].Texts[0]; tb.Align != "right" {
		t.Fatalf("align end 未映射为 right: got=%q want=\"right\"", tb.Align)
	}
}

func TestFontResolvesToBookIndex(t *testing.T) {
	dslText := `doc T {
  resources {
    font Heading { family: "go"; style: "bold" }
  }
  page A4 {
    text Heading { "Title" }
    text { "Body" }
  }
}`
	res := buildWithRenderer(t, dslText, false)
	texts := res.Pages[0].Texts
	if len(texts) != 2 {
		t.Fatalf("期望 2 个文本框，实际 %d", len(texts))
	}
	if texts[0].Font != "Heading" || texts[0].FontIndex != 1 {
		t.Fatalf("Heading 应解析为粗体（索引 1）: %+v", texts[0])
	}
	if texts[1].Font != "Body" || texts[1].FontIndex != 0 {
		t.Fatalf("默认字体应为常规体（索引 0）: %+v", texts[1])
	}
}

func TestMultiplePageSections(t *testing.T) {
	dslText := `doc T {
  page A4 { text { "first" } }
  page A5 landscape { text { "second" } }
}`
	res := buildWithRenderer(t, dslText, false)
	if len(res.Pages) != 2 {
		t.Fatalf("期望 2 页，实际 %d", len(res.Pages))
	}
	if !eq(res.Pages[0].Width, 210) || !eq(res.Pages[1].Width, 210) || !eq(res.Pages[1].Height, 148) {
		t.Fatalf("页面尺寸错误: %+v / %+v", res.Pages[0], res.Pages[1])
	}
	if res.Pages[1].Texts[0].Content != "second" {
		t.Fatalf("第二页内容错误: %q", res.Pages[1].Texts[0].Content)
	}
}

func TestPageBreak(t *testing.T) {
	dslText := `doc T {
  page A4 {
    text { "one" }
    pagebreak
    flow {
      text { "two" }
      pagebreak
      text { "three" }
    }
  }
}`
	res := buildWithRenderer(t, dslText, false)
	if len(res.Pages) != 3 {
		t.Fatalf("期望 3 页，实际 %d", len(res.Pages))
	}
	for i, want := range []string{"one", "two", "three"} {
		texts := res.Pages[i].Texts
		if len(texts) != 1 || texts[0].Content != want {
			t.Fatalf("第 %d 页内容错误: %+v", i, texts)
		}
		if !eq(texts[0].Y, 20) {
			t.Fatalf("第 %d 页文本应从内容区顶部开始，实际 Y=%g", i, texts[0].Y)
		}
	}
}

func TestAutomaticPageBreak(t *testing.T) {
	var b strings.Builder
	b.WriteString("doc T {\n  page A5 {\n")
	for i := 0; i < 40; i++ {
		b.WriteString("    text { \"alpha beta gamma delta epsilon\" }\n")
	}
	b.WriteString("  }\n}\n")

	res := buildWithRenderer(t, b.String(), false)
	if len(res.Pages) < 2 {
		t.Fatalf("期望自动分页，实际 %d 页", len(res.Pages))
	}
	total := 0
	for i, page := range res.Pages {
		bottom := page.Height - page.Margin.Bottom
		for _, tb := range page.Texts {
			if tb.Y+tb.Height > bottom+1e-6 {
				t.Fatalf("第 %d 页文本越过内容区底部: y=%g h=%g bottom=%g", i, tb.Y, tb.Height, bottom)
			}
		}
		total += len(page.Texts)
	}
	if total != 40 {
		t.Fatalf("文本数量不应改变: %d", total)
	}
}

func TestHeaderFooterPageNumbers(t *testing.T) {
	dslText := `doc T {
  page A4 {
    header height 15mm { text { "Report" } }
    footer { text align right { "${page} / ${pages}" } }
    text { "a" }
    pagebreak
    text { "b" }
  }
}`
	res := buildWithRenderer(t, dslText, false)
	if len(res.Pages) != 2 {
		t.Fatalf("期望 2 页，实际 %d", len(res.Pages))
	}
	for i, want := range []string{"1 / 2", "2 / 2"} {
		footer := res.Pages[i].Footer
		if len(footer.Texts) != 1 || footer.Texts[0].Content != want {
			t.Fatalf("第 %d 页页脚错误: %+v", i, footer.Texts)
		}
		var parts []string
		for _, ln := range footer.Texts[0].Lines {
			parts = append(parts, ln.Content)
		}
		if got := strings.Join(parts, " "); got != want {
			t.Fatalf("第 %d 页页脚行内容错误: %q", i, got)
		}
	}
	header := res.Pages[0].Header
	if !eq(header.Height, 15) || header.Texts[0].Align != "center" {
		t.Fatalf("页眉错误: %+v", header)
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("页码占位符不应产生警告: %v", res.Warnings)
	}
}

// runeTypesetter 按字符数测量：每个字符 1mm，只按换行符拆行。
type runeTypesetter struct{}

func (runeTypesetter) LayoutLines(content string, width float64, font FontResource, fontSize float64, lineHeight float64, wrap string) ([]TextLine, error) {
	var lines []TextLine
	for _, part := range strings.Split(content, "\n") {
		lines = append(lines, TextLine{Content: part, Width: float64(len([]rune(part))), Height: fontSize})
	}
	return lines, nil
}

func TestPageNumbersRemeasured(t *testing.T) {
	dslText := `doc T {
  page A4 {
    footer { text { "${page} / ${pages}" } }
    text { "a" }
    pagebreak
    text { "b" }
  }
}`
	res, err := build(t, dslText, BuildOptions{Typesetter: runeTypesetter{}})
	if err != nil {
		t.Fatalf("布局计算失败: %v", err)
	}
	for i, page := range res.Pages {
		ln := page.Footer.Texts[0].Lines[0]
		if ln.Content != fmt.Sprintf("%d / 2", i+1) {
			t.Fatalf("第 %d 页页码错误: %q", i+1, ln.Content)
		}
		if !eq(ln.Width, 5) {
			t.Fatalf("第 %d 页页码行宽应按替换后的文本测量，实际 %g", i+1, ln.Width)
		}
	}
}

// noFontTypesetter 模拟字体目录中所有字体都无法构建。
type noFontTypesetter struct{}

func (noFontTypesetter) LayoutLines(string, float64, FontResource, float64, float64, string) ([]TextLine, error) {
	return nil, fmt.Errorf("字体索引 0: %w", ErrFontUnavailable)
}

func TestUnavailableFontSkipsText(t *testing.T) {
	res, err := build(t, `doc T { page A4 { text { "first\nsecond line" } } }`, BuildOptions{Typesetter: noFontTypesetter{}})
	if err != nil {
		t.Fatalf("字体无法构建不应使布局失败: %v", err)
	}
	tb := res.Pages[0].Texts[0]
	if len(tb.Lines) != 2 || tb.Lines[1].Content != "second line" || tb.Lines[1].Width <= tb.Lines[0].Width {
		t.Fatalf("应按估算宽度逐行占位: %+v", tb.Lines)
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Severity != diag.SeverityWarning || !strings.Contains(res.Warnings[0].Message, "无法构建") {
		t.Fatalf("期望 1 条字体警告，实际: %v", res.Warnings)
	}
}

func TestBuildKeepsWarningsOnError(t *testing.T) {
	dslText := `doc T {
  page A4 {
    video clip
    text { "ok" }
  }
  page Tabloid { text { "x" } }
}`
	res, err := build(t, dslText, BuildOptions{})
	var lerr *Error
	if !errors.As(err, &lerr) || lerr.Pos.Line != 6 {
		t.Fatalf("期望第 6 行的布局错误，实际: %v", err)
	}
	if res == nil || len(res.Pages) != 0 {
		t.Fatalf("出错时结果只应携带警告: %+v", res)
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Line != 3 {
		t.Fatalf("出错前的警告应保留，实际: %v", res.Warnings)
	}
}

func TestScopeInterpolation(t *testing.T) {
	scope := binding.NewScope(map[string]any{"user": map[string]any{"name": "Ada"}}).
		Define("today", "1970-01-01")
	res, err := build(t, `doc T { page A4 { text { "${user.name} ${today} ${nope}" } } }`, BuildOptions{Scope: scope})
	if err != nil {
		t.Fatalf("布局计算失败: %v", err)
	}
	if got := res.Pages[0].Texts[0].Content; got != "Ada 1970-01-01 ${nope}" {
		t.Fatalf("占位符替换错误: %q", got)
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0].Message, "nope") {
		t.Fatalf("期望 1 条占位符警告，实际: %v", res.Warnings)
	}
}

func TestUnknownCommandWarns(t *testing.T) {
	dslText := `doc T {
  page A4 {
    image logo
    flow {
      header { text { "nested" } }
      text { "ok" }
    }
  }
}`
	res := buildWithRenderer(t, dslText, false)
	if len(res.Warnings) != 2 {
		t.Fatalf("期望 2 条警告，实际: %v", res.Warnings)
	}
	w := res.Warnings[0]
	if w.Severity != diag.SeverityWarning || w.Line != 3 || w.Column != 5 {
		t.Fatalf("警告位置错误: %+v", w)
	}
	if w.Span.End-w.Span.Start != len("image logo") {
		t.Fatalf("警告范围错误: %+v", w.Span)
	}
	if len(res.Pages[0].Texts) != 1 {
		t.Fatalf("已知命令应照常排版")
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line int
		msg  string
	}{
		{"missing page", "doc T {\n  meta { title: \"x\" }\n}", 1, "page"},
		{"unknown size", "doc T {\n  page B9 { text { \"x\" } }\n}", 2, "B9"},
		{"unknown family", "doc T {\n  resources {\n    font X { family: \"Inter\" }\n  }\n  page A4 { text { \"x\" } }\n}", 3, "Inter"},
		{"undefined font", "doc T {\n  page A4 {\n    text font Missing { \"x\" }\n  }\n}", 3, "Missing"},
		{"undefined style", "doc T {\n  page A4 {\n    text Fancy { \"x\" }\n  }\n}", 3, "Fancy"},
		{"style cycle", "doc T {\n  resources {\n    style A extends B { size: 10pt }\n    style B extends A { size: 11pt }\n  }\n  page A4 { text { \"x\" } }\n}", 3, "循环"},
		{"empty text", "doc T {\n  page A4 {\n    text { }\n  }\n}", 3, "文本内容"},
		{"bad color", "doc T {\n  resources {\n    color Brand = red\n  }\n  page A4 { text { \"x\" } }\n}", 3, "red"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lerr := buildError(t, tt.src)
			if lerr.Pos.Line != tt.line {
				t.Fatalf("错误行号: got=%d want=%d (%v)", lerr.Pos.Line, tt.line, lerr)
			}
			if !strings.Contains(lerr.Msg, tt.msg) {
				t.Fatalf("错误信息应包含 %q: %v", tt.msg, lerr)
			}
			if d := lerr.Diagnostic(); d.Severity != diag.SeverityError || d.Span.End <= d.Span.Start {
				t.Fatalf("诊断转换错误: %+v", d)
			}
		})
	}
}

func TestNoFontsAvailable(t *testing.T) {
	doc, err := dsl.ParseString(`doc T { page A4 { rect x 10mm y 10mm width 5mm height 5mm } }`)
	if err != nil {
		t.Fatalf("解析 DSL 失败: %v", err)
	}
	// 只有图形的文档不需要字体
	res, err := Build(doc, BuildOptions{Typesetter: &stubTypesetter{}})
	if err != nil {
		t.Fatalf("布局计算失败: %v", err)
	}
	if len(res.Pages[0].Rects) != 1 {
		t.Fatalf("矩形缺失: %+v", res.Pages[0])
	}

	doc, err = dsl.ParseString(`doc T { page A4 { text { "x" } } }`)
	if err != nil {
		t.Fatalf("解析 DSL 失败: %v", err)
	}
	_, err = Build(doc, BuildOptions{Typesetter: &stubTypesetter{}})
	var lerr *Error
	if !errors.As(err, &lerr) || !strings.Contains(lerr.Msg, "字体") {
		t.Fatalf("期望缺少字体的错误，实际: %v", err)
	}
}

func TestBuildRequiresTypesetter(t *testing.T) {
	doc, err := dsl.ParseString(`doc T { page A4 { text { "x" } } }`)
	if err != nil {
		t.Fatalf("解析 DSL 失败: %v", err)
	}
	if _, err := Build(doc, BuildOptions{}); !errors.Is(err, ErrNoTypesetter) {
		t.Fatalf("期望 ErrNoTypesetter，实际: %v", err)
	}
}

func TestShapes(t *testing.T) {
	dslText := `doc T {
  resources { color Accent = #0F62FE }
  page A4 {
    line x 10mm y 20mm length 50mm color Accent
    rect x 5mm y 5mm width 20mm height 10mm fill #eee
    circle cx 50mm cy 50mm r 0mm
    footer { line x1 10mm y1 280mm x2 200mm y2 280mm }
  }
}`
	res := buildWithRenderer(t, dslText, false)
	page := res.Pages[0]
	if len(page.Lines) != 1 || !eq(page.Lines[0].X2, 60) || page.Lines[0].Color != (Color{R: 15, G: 98, B: 254}) {
		t.Fatalf("直线错误: %+v", page.Lines)
	}
	if len(page.Rects) != 1 || page.Rects[0].FillColor == nil || page.Rects[0].FillColor.R != 0xee {
		t.Fatalf("矩形错误: %+v", page.Rects)
	}
	if len(page.Circles) != 0 {
		t.Fatalf("半径为 0 的圆应被忽略")
	}
	if len(page.Footer.Lines) != 1 {
		t.Fatalf("页脚直线缺失")
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0].Message, "circle") {
		t.Fatalf("期望 circle 警告，实际: %v", res.Warnings)
	}
}

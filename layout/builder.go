package layout

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/electratype/electra/binding"
	"github.com/electratype/electra/diag"
	"github.com/electratype/electra/dsl"
	"github.com/electratype/electra/world"
)

const blockSpacing = 3.0

// Build 根据 DSL AST 生成页面、文本与图形的布局结果。
//
// 多个 page 段落按源码顺序排版，每个段落从新页开始。页眉/页脚中的
// ${page} 与 ${pages} 在分页完成后替换为页码与总页数。
// 出错时返回的 Result 只携带出错前已收集的警告。
func Build(doc *dsl.Document, opts BuildOptions) (*Result, error) {
	if doc == nil {
		return nil, fmt.Errorf("文档为空")
	}
	if opts.Typesetter == nil {
		return nil, ErrNoTypesetter
	}
	if opts.Library == nil {
		opts.Library = world.StandardLibrary()
	}
	if opts.Scope == nil {
		opts.Scope = binding.NewScope(nil)
	}

	b := &builder{opts: opts, lib: opts.Library}
	res, err := b.build(doc)
	if err != nil {
		return &Result{Warnings: b.warnings}, err
	}
	return res, nil
}

func (b *builder) build(doc *dsl.Document) (*Result, error) {
	res, err := b.collectResources(doc)
	if err != nil {
		return nil, err
	}
	b.res = res
	meta := collectMeta(doc)

	sections := doc.Pages()
	if len(sections) == 0 {
		return nil, &Error{Pos: doc.Pos, Width: len("doc"), Msg: "文档中缺少 page 段落"}
	}
	var pages []Page
	for _, section := range sections {
		ps, err := b.buildPages(section)
		if err != nil {
			return nil, err
		}
		pages = append(pages, ps...)
	}
	b.numberPages(pages)

	return &Result{
		Pages:     pages,
		Resources: res,
		Meta:      meta,
		Warnings:  b.warnings,
	}, nil
}

// builder 保存一次 Build 过程中的共享状态。
type builder struct {
	opts     BuildOptions
	lib      *world.Library
	res      ResourceSet
	warnings diag.List
}

func (b *builder) warn(d diag.Diagnostic) {
	b.warnings = append(b.warnings, d)
}

func (b *builder) buildPages(section *dsl.PageSection) ([]Page, error) {
	width, height, err := b.resolvePageSize(section)
	if err != nil {
		return nil, err
	}

	margin := b.resolveMargin(section.Spec.Params)
	collector := newPageCollector(width, height, margin)

	// 先扫描页眉/页脚定义，计算其高度与元素，更新内容区域。
	if section.Block == nil {
		return nil, &Error{Pos: section.Pos, Width: len("page"), Msg: "page 段落缺少内容"}
	}
	var headerDef, footerDef *dsl.Command
	for _, st := range section.Block.Statements {
		if st.Command == nil {
			continue
		}
		switch strings.ToLower(st.Command.Name) {
		case "header":
			headerDef = st.Command
		case "footer":
			footerDef = st.Command
		}
	}
	if headerDef != nil {
		hf, err := b.buildHeaderFooter(headerDef, width, height, margin, "header")
		if err != nil {
			return nil, err
		}
		collector.header = hf
	}
	if footerDef != nil {
		hf, err := b.buildHeaderFooter(footerDef, width, height, margin, "footer")
		if err != nil {
			return nil, err
		}
		collector.footer = hf
	}

	// 根上下文从内容区域顶部开始排版。
	root := &flowContext{
		b:              b,
		baseX:          margin.Left,
		baseY:          collector.contentTop(),
		width:          width - margin.Left - margin.Right,
		cursorY:        collector.contentTop(),
		parent:         nil,
		collector:      collector,
		margin:         margin,
		allowPageBreak: true,
		textWrap:       "anywhere",
	}

	if err := b.processBlock(section.Block, root); err != nil {
		return nil, err
	}

	return collector.pages(), nil
}

// processBlock 会依次处理 block 内的命令。语言定义中不存在的命令产生警告并被跳过。
func (b *builder) processBlock(block *dsl.Block, ctx *flowContext) error {
	scope := world.ContextBody
	if ctx.parent == nil {
		scope = world.ContextPage
	}
	for _, stmt := range block.Statements {
		if stmt.Command == nil {
			continue
		}
		cmd := stmt.Command
		name := strings.ToLower(cmd.Name)
		if !b.lib.Knows(scope, name) {
			b.warn(warningAt(cmd, "未知命令 %s，已忽略", cmd.Name))
			continue
		}
		switch name {
		case "header", "footer":
			// 已在 buildPages 中处理
			continue
		case "flow":
			if err := b.handleFlow(cmd, ctx); err != nil {
				return err
			}
		case "absolute":
			if err := b.handleAbsolute(cmd, ctx); err != nil {
				return err
			}
		case "text":
			if err := b.handleText(cmd, ctx); err != nil {
				return err
			}
		case "pagebreak":
			if !ctx.allowPageBreak {
				b.warn(warningAt(cmd, "absolute 区域内不能分页，pagebreak 已忽略"))
				continue
			}
			ctx.pageBreak()
		case "line", "rect", "circle":
			// 形状命令（page-level 背景图形，坐标为页面坐标，允许在任意层级声明）
			acc := ctx.acc()
			b.addShape(cmd, &acc.lines, &acc.rects, &acc.circles)
		default:
			b.warn(warningAt(cmd, "命令 %s 暂不支持，已忽略", cmd.Name))
		}
	}
	return nil
}

func normalizeWrap(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	switch v {
	case "", "auto", "anywhere", "overflow-wrap:anywhere", "overflow-anywhere":
		return "anywhere"
	case "break-word", "word-break:break-word":
		return "break-word"
	case "nowrap", "no-wrap":
		return "nowrap"
	case "normal":
		return "normal"
	default:
		return "anywhere"
	}
}

func normalizeAlign(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	switch v {
	case "start":
		return "left"
	case "end":
		return "right"
	case "left", "center", "right":
		return v
	default:
		return ""
	}
}

func (b *builder) handleFlow(cmd *dsl.Command, parent *flowContext) error {
	if cmd.Block == nil {
		return errorAt(cmd, "flow 语句缺少子内容")
	}
	styleName, attrs := parseArgs(cmd.Args, false)
	attrs = mergeStyleAttributes(styleName, attrs, b.res.Styles)
	width := parent.width
	if v := attrs["width"]; v != "" {
		if w := parseDimension(v, parent.width); w > 0 && w <= parent.width {
			width = w
		}
	} else if a := strings.ToLower(attrs["align"]); a == "center" || a == "right" || a == "end" {
		if inferred := b.inferFlowWidth(cmd.Block, parent.width); inferred > 0 {
			width = math.Min(inferred, parent.width)
		}
	}

	offset := alignOffset(parent.width, width, attrs["align"])

	// 规范化本 flow 的折行策略，供子 text 继承（默认 anywhere）
	flowWrap := parent.textWrap
	if v, ok := attrs["wrap"]; ok && strings.TrimSpace(v) != "" {
		flowWrap = normalizeWrap(v)
	}

	child := &flowContext{
		b:              b,
		baseX:          parent.baseX + offset,
		baseY:          parent.cursorY,
		width:          width,
		cursorY:        parent.cursorY,
		parent:         parent,
		collector:      parent.collector,
		margin:         parent.margin,
		allowPageBreak: parent.allowPageBreak,
		textAlign:      normalizeAlign(attrs["align"]),
		textWrap:       flowWrap,
	}

	if err := b.processBlock(cmd.Block, child); err != nil {
		return err
	}

	if child.cursorY > parent.cursorY {
		parent.cursorY = child.cursorY + blockSpacing
	}
	return nil
}

func (b *builder) handleAbsolute(cmd *dsl.Command, parent *flowContext) error {
	if cmd.Block == nil {
		return errorAt(cmd, "absolute 语句缺少子内容")
	}
	styleName, attrs := parseArgs(cmd.Args, false)
	attrs = mergeStyleAttributes(styleName, attrs, b.res.Styles)
	width := parent.width
	if v := attrs["width"]; v != "" {
		if w := parseDimension(v, parent.width); w > 0 {
			width = w
		}
	}
	offsetX := parseDimension(attrs["x"], parent.width)
	offsetY := parseDimension(attrs["y"], parent.width)

	child := &flowContext{
		b:              b,
		baseX:          parent.baseX + offsetX,
		baseY:          parent.baseY + offsetY,
		width:          width,
		cursorY:        parent.baseY + offsetY,
		parent:         parent,
		collector:      parent.collector,
		margin:         parent.margin,
		allowPageBreak: false,
		textWrap:       parent.textWrap,
	}
	return b.processBlock(cmd.Block, child)
}

func (b *builder) handleText(cmd *dsl.Command, ctx *flowContext) error {
	if cmd.Block == nil {
		return errorAt(cmd, "text 语句缺少文本块")
	}
	styleName, attrs := parseArgs(cmd.Args, true)
	if err := b.checkStyle(cmd, styleName); err != nil {
		return err
	}
	attrs = mergeStyleAttributes(styleName, attrs, b.res.Styles)
	// 若未显式设置 align，则继承自父 flow
	if strings.TrimSpace(attrs["align"]) == "" && ctx.textAlign != "" {
		attrs["align"] = ctx.textAlign
	}
	content := extractText(cmd.Block)
	if content == "" {
		return errorAt(cmd, "text 语句缺少文本内容")
	}

	// 计算折行策略：text 覆盖 flow，默认 anywhere
	effWrap := ctx.textWrap
	if v, ok := attrs["wrap"]; ok && strings.TrimSpace(v) != "" {
		effWrap = normalizeWrap(v)
	}
	tb, height, err := b.composeTextBox(cmd, styleName, attrs, content, ctx.baseX, ctx.cursorY, ctx.width, effWrap, false)
	if err != nil {
		return err
	}
	ctx.ensureSpace(height)
	tb.X = ctx.baseX
	tb.Y = ctx.cursorY
	ctx.acc().texts = append(ctx.acc().texts, tb)
	ctx.cursorY += height + blockSpacing
	return nil
}

type pageAccumulator struct {
	texts   []TextBox
	lines   []Line
	rects   []Rect
	circles []Circle
}

type pageCollector struct {
	width   float64
	height  float64
	margin  Margin
	accs    []*pageAccumulator
	current int
	// 页眉/页脚布局结果，应用于本段落的所有页面
	header HeaderFooter
	footer HeaderFooter
}

func newPageCollector(width, height float64, margin Margin) *pageCollector {
	pc := &pageCollector{
		width:  width,
		height: height,
		margin: margin,
	}
	pc.newPage()
	return pc
}

func (pc *pageCollector) newPage() *pageAccumulator {
	acc := &pageAccumulator{}
	pc.accs = append(pc.accs, acc)
	pc.current = len(pc.accs) - 1
	return acc
}

func (pc *pageCollector) curr() *pageAccumulator {
	if len(pc.accs) == 0 {
		return pc.newPage()
	}
	return pc.accs[pc.current]
}

func (pc *pageCollector) contentTop() float64 {
	// Word 逻辑：内容区域顶部 = max(上边距, 页眉高度)
	return math.Max(pc.margin.Top, pc.header.Height)
}

func (pc *pageCollector) contentBottom() float64 {
	// Word 逻辑：内容区域底部 = 页面高度 - max(下边距, 页脚高度)
	return pc.height - math.Max(pc.margin.Bottom, pc.footer.Height)
}

func (pc *pageCollector) pages() []Page {
	out := make([]Page, len(pc.accs))
	for i, acc := range pc.accs {
		out[i] = Page{
			Width:   pc.width,
			Height:  pc.height,
			Margin:  pc.margin,
			Texts:   acc.texts,
			Lines:   acc.lines,
			Rects:   acc.rects,
			Circles: acc.circles,
			Header:  pc.header,
			Footer:  pc.footer,
		}
	}
	return out
}

type flowContext struct {
	b              *builder
	baseX          float64
	baseY          float64
	width          float64
	cursorY        float64
	parent         *flowContext
	collector      *pageCollector
	margin         Margin
	allowPageBreak bool
	// textAlign 继承自父 flow 的对齐方式（left/center/right），用于未显式声明 align 的子 text。
	textAlign string
	// textWrap 继承自父 flow 的折行方式（anywhere(默认)/break-word/nowrap）。
	textWrap string
}

func (ctx *flowContext) ensureSpace(height float64) {
	if !ctx.allowPageBreak {
		return
	}
	if ctx.cursorY+height <= ctx.collector.contentBottom() {
		return
	}
	// 空页上放不下的内容直接溢出，避免无限分页
	if ctx.cursorY <= ctx.collector.contentTop() {
		return
	}
	ctx.pageBreak()
}

func (ctx *flowContext) pageBreak() {
	if ctx.parent != nil {
		ctx.parent.pageBreak()
		ctx.baseY = ctx.parent.cursorY
		ctx.cursorY = ctx.baseY
		return
	}
	ctx.collector.newPage()
	ctx.baseX = ctx.margin.Left
	// 新页从内容区域顶部开始（考虑页眉高度）
	ctx.baseY = ctx.collector.contentTop()
	ctx.cursorY = ctx.baseY
}

func (ctx *flowContext) acc() *pageAccumulator {
	return ctx.collector.curr()
}

// buildHeaderFooter 负责解析与布局页眉/页脚内容（支持 text 与形状）。
// kind 取值 "header" 或 "footer"，用于计算纵向基准。
func (b *builder) buildHeaderFooter(cmd *dsl.Command, pageW, pageH float64, margin Margin, kind string) (HeaderFooter, error) {
	var hf HeaderFooter
	if cmd.Block == nil {
		return hf, nil
	}
	_, attrs := parseArgs(cmd.Args, false)
	contentWidth := pageW - margin.Left - margin.Right

	cursorY := 0.0
	// 布局内部的 text/shape，按顺序自上而下堆叠（shape 不参与内容高度计算）
	for _, st := range cmd.Block.Statements {
		if st.Command == nil {
			continue
		}
		name := strings.ToLower(st.Command.Name)
		switch name {
		case "text":
			if st.Command.Block == nil {
				return hf, errorAt(st.Command, "text 语句缺少文本块")
			}
			styleName, tattrs := parseArgs(st.Command.Args, true)
			if err := b.checkStyle(st.Command, styleName); err != nil {
				return hf, err
			}
			all := mergeStyleAttributes(styleName, tattrs, b.res.Styles)
			content := extractText(st.Command.Block)
			tb, h, err := b.composeTextBox(st.Command, styleName, all, content, margin.Left, 0, contentWidth, normalizeWrap(all["wrap"]), true)
			if err != nil {
				return hf, err
			}
			// 页眉文本默认居中，可被 align 属性覆盖
			if kind == "header" && tb.Align == "" {
				tb.Align = "center"
			}
			tb.Y = cursorY
			hf.Texts = append(hf.Texts, tb)
			cursorY += h + blockSpacing
		case "line", "rect", "circle":
			// 形状不改变内容游标
			b.addShape(st.Command, &hf.Lines, &hf.Rects, &hf.Circles)
		default:
			b.warn(warningAt(st.Command, "%s 中不支持命令 %s，已忽略", kind, st.Command.Name))
		}
	}
	if cursorY > 0 {
		cursorY -= blockSpacing // 去掉最后一项后的额外间距
	}

	// areaHeight 表示占用的区域高度：显式给定则使用之，否则等于内容高度
	contentHeight := cursorY
	areaHeight := contentHeight
	if v := attrs["height"]; v != "" {
		if h := parseDimension(v, contentWidth); h > 0 {
			areaHeight = h
		}
	}

	// 将相对 Y 转换为绝对页面坐标：页眉内容底部贴合区域底边，页脚区域从页面底部向上占用
	baseY := 0.0
	if kind == "header" {
		baseY = math.Max(areaHeight-contentHeight, 0)
	} else {
		baseY = pageH - areaHeight
	}
	for i := range hf.Texts {
		hf.Texts[i].Y += baseY
	}
	hf.Height = areaHeight
	return hf, nil
}

// numberPages 替换页眉/页脚中的 ${page} 与 ${pages}，并重新测量替换后的行宽。
// 页眉/页脚在同一段落的页面之间共享底层切片，因此替换前先复制。
func (b *builder) numberPages(pages []Page) {
	total := strconv.Itoa(len(pages))
	for i := range pages {
		r := strings.NewReplacer("${page}", strconv.Itoa(i+1), "${pages}", total)
		pages[i].Header = b.withPageNumbers(pages[i].Header, r)
		pages[i].Footer = b.withPageNumbers(pages[i].Footer, r)
	}
}

func (b *builder) withPageNumbers(hf HeaderFooter, r *strings.Replacer) HeaderFooter {
	if len(hf.Texts) == 0 {
		return hf
	}
	texts := make([]TextBox, len(hf.Texts))
	for i, tb := range hf.Texts {
		tb.Content = r.Replace(tb.Content)
		lines := make([]TextLine, len(tb.Lines))
		for j, ln := range tb.Lines {
			if replaced := r.Replace(ln.Content); replaced != ln.Content {
				ln.Content = replaced
				ln.Width = b.measureLine(tb, replaced)
			}
			lines[j] = ln
		}
		tb.Lines = lines
		texts[i] = tb
	}
	hf.Texts = texts
	return hf
}

// measureLine 测量单行文本的宽度；字体不可用时退回估算。
func (b *builder) measureLine(tb TextBox, content string) float64 {
	font, ok := b.res.Fonts[tb.Font]
	if !ok {
		font = FontResource{Name: tb.Font, Index: tb.FontIndex}
	}
	lines, err := b.opts.Typesetter.LayoutLines(content, math.MaxFloat64, font, tb.FontSize, tb.LineHeight, "nowrap")
	if err != nil || len(lines) == 0 {
		return estimateTextWidth(content, tb.FontSize)
	}
	width := 0.0
	for _, ln := range lines {
		width = math.Max(width, ln.Width)
	}
	return width
}

func parseArgs(args []*dsl.Lexeme, allowStyle bool) (string, map[string]string) {
	result := map[string]string{}
	if len(args) == 0 {
		return "", result
	}

	// 样式名只能出现在首位，其后是成对的 key value；参数个数为奇数时首个标识符才是样式名
	cursor := 0
	var style string
	if allowStyle && len(args)%2 == 1 && args[0].Type == "Ident" {
		style = args[0].Value
		cursor = 1
	}

	for cursor < len(args)-1 {
		key := args[cursor].Value
		val := args[cursor+1].Value
		result[key] = val
		cursor += 2
	}

	return style, result
}

func mergeStyleAttributes(style string, inline map[string]string, styles map[string]Style) map[string]string {
	out := make(map[string]string)
	if style != "" {
		if s, ok := styles[style]; ok {
			for k, v := range s.Props {
				out[k] = v
			}
		}
	}
	for k, v := range inline {
		out[k] = v
	}
	return out
}

func extractText(block *dsl.Block) string {
	if block == nil {
		return ""
	}
	var builder strings.Builder
	for _, stmt := range block.Statements {
		if stmt.Text != nil {
			builder.WriteString(string(stmt.Text.Value))
		}
	}
	return builder.String()
}

func alignOffset(container, width float64, align string) float64 {
	if container <= width {
		return 0
	}
	switch strings.ToLower(align) {
	case "center", "middle":
		return (container - width) / 2
	case "right", "end":
		return container - width
	default:
		return 0
	}
}

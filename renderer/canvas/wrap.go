package canvasrenderer

import (
	"math"
	"strings"
	"unicode"

	"github.com/tdewolff/canvas"

	"github.com/electratype/electra/layout"
)

// measurer 返回文本宽度（mm）；*canvas.FontFace 满足该接口。
type measurer interface {
	TextWidth(s string) float64
}

var _ measurer = (*canvas.FontFace)(nil)

// lineBuilder 累积当前行的内容与宽度。
type lineBuilder struct {
	lines []layout.TextLine
	sb    strings.Builder
	width float64
}

func (lb *lineBuilder) add(s string, w float64) {
	lb.sb.WriteString(s)
	lb.width += w
}

// emit 结束当前行；force 为 true 时即使当前行为空也产出一行（显式换行）。
func (lb *lineBuilder) emit(force bool) {
	if lb.sb.Len() == 0 {
		if force {
			lb.lines = append(lb.lines, layout.TextLine{})
		}
		return
	}
	lb.lines = append(lb.lines, layout.TextLine{Content: lb.sb.String(), Width: lb.width})
	lb.sb.Reset()
	lb.width = 0
}

// fit 在放不下 w 宽度的内容时先换行。
func (lb *lineBuilder) fit(w, limit float64) {
	if lb.width > 0 && lb.width+w > limit {
		lb.emit(false)
	}
}

func greedyWrapTokens(content string, width float64, face measurer, wrap string) []layout.TextLine {
	limit := width
	if limit <= 0 {
		limit = math.MaxFloat64
	}

	switch wrap {
	case "nowrap":
		// 仅按显式换行划分，不基于宽度折行
		parts := strings.Split(content, "\n")
		lines := make([]layout.TextLine, 0, len(parts))
		for _, p := range parts {
			lines = append(lines, layout.TextLine{Content: p, Width: face.TextWidth(p)})
		}
		return lines
	case "break-word":
		// 忽略空白机会，纯按宽度逐字切分（仍然尊重显式换行）
		var lb lineBuilder
		for _, r := range content {
			if r == '\r' {
				continue
			}
			if r == '\n' {
				lb.emit(true)
				continue
			}
			s := string(r)
			cw := face.TextWidth(s)
			lb.fit(cw, limit)
			lb.add(s, cw)
			if lb.width > limit {
				lb.emit(false)
			}
		}
		lb.emit(true)
		return lb.lines
	}

	// 默认（anywhere/normal 等）：优先在空白处分割，超过限制时在词内拆分
	var lb lineBuilder
	place := func(token string, w float64) {
		lb.fit(w, limit)
		lb.add(token, w)
		if lb.width > limit {
			lb.emit(false)
		}
	}
	for _, token := range tokenizeContent(content) {
		if token == "\n" {
			lb.emit(true)
			continue
		}
		tokenWidth := face.TextWidth(token)
		if tokenWidth <= limit {
			place(token, tokenWidth)
			continue
		}
		for _, chunk := range splitTokenByWidth(token, limit, face) {
			place(chunk, face.TextWidth(chunk))
		}
	}
	lb.emit(true)
	return lb.lines
}

// tokenizeContent 将文本切分为交替的空白/非空白片段，显式换行单独成为 "\n"。
func tokenizeContent(s string) []string {
	var tokens []string
	var sb strings.Builder
	lastWasSpace := false
	flush := func() {
		if sb.Len() == 0 {
			return
		}
		tokens = append(tokens, sb.String())
		sb.Reset()
	}

	for _, r := range s {
		if r == '\r' {
			continue
		}
		if r == '\n' {
			flush()
			tokens = append(tokens, "\n")
			lastWasSpace = false
			continue
		}
		isSpace := unicode.IsSpace(r)
		if sb.Len() == 0 {
			lastWasSpace = isSpace
		} else if lastWasSpace != isSpace {
			flush()
			lastWasSpace = isSpace
		}
		sb.WriteRune(r)
	}
	flush()
	return tokens
}

func splitTokenByWidth(token string, limit float64, face measurer) []string {
	if limit <= 0 || limit == math.MaxFloat64 {
		return []string{token}
	}
	var parts []string
	var runes []rune
	for _, r := range token {
		runes = append(runes, r)
		if len(runes) > 1 && face.TextWidth(string(runes)) > limit {
			parts = append(parts, string(runes[:len(runes)-1]))
			runes = runes[len(runes)-1:]
		}
	}
	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}
	return parts
}

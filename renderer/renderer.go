// Package renderer 定义布局结果的输出接口。
package renderer

import (
	"fmt"
	"strings"

	"github.com/electratype/electra/layout"
)

// Format 是单页导出的产物格式。
type Format string

const (
	FormatSVG  Format = "svg"
	FormatSVGZ Format = "svgz"
	FormatPDF  Format = "pdf"
)

// ParseFormat 解析格式名，大小写不敏感；空字符串视为 svg。
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatSVG, nil
	case FormatSVG, FormatSVGZ, FormatPDF:
		return f, nil
	default:
		return "", fmt.Errorf("不支持的导出格式 %q（可选 svg、svgz、pdf）", s)
	}
}

// Ext 返回该格式的文件扩展名（含点号）。
func (f Format) Ext() string { return "." + string(f) }

// Renderer 将布局结果输出为最终文件，例如 PDF 或图像。
// Render 返回生成的二进制数据（例如 PDF 字节切片）以及可能的错误。
type Renderer interface {
	Render(result *layout.Result) ([]byte, error)
}

// PageExporter 将单个页面序列化为独立的产物，页面之间互不依赖。
type PageExporter interface {
	ExportPage(page layout.Page) ([]byte, error)
	Format() Format
}

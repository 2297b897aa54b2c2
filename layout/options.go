package layout

import (
	"github.com/electratype/electra/binding"
	"github.com/electratype/electra/fonts"
	"github.com/electratype/electra/world"
)

// BuildOptions 配置布局阶段所需的依赖，例如排版后端、语言定义与字体库。
type BuildOptions struct {
	Typesetter Typesetter
	// Library 为空时使用 world.StandardLibrary()。
	Library *world.Library
	// Book 用于把字体资源解析为字体库索引。
	Book *fonts.Book
	// Scope 提供 ${path} 占位符的取值，可以为空。
	Scope *binding.Scope
	Debug DebugOptions
}

// DebugOptions 控制调试相关输出。
type DebugOptions struct {
	RawUnits bool // 在调试 JSON 中输出 debug.rawUnits 影子字段
}

// Typesetter 负责根据字体与宽度约束将文本拆成可绘制的行。
type Typesetter interface {
	LayoutLines(content string, width float64, font FontResource, fontSize float64, lineHeight float64, wrap string) ([]TextLine, error)
}

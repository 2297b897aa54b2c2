package fonts

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

// builtinFonts 内置的 Go 字体，供宿主未提供字体或测试时使用。
var builtinFonts = map[string][]byte{
	"Go-Regular":    goregular.TTF,
	"Go-Bold":       gobold.TTF,
	"Go-Italic":     goitalic.TTF,
	"Go-BoldItalic": gobolditalic.TTF,
	"Go-Medium":     gomedium.TTF,
	"Go-Mono":       gomono.TTF,
}

// Load 返回内置字体的字节数据，name 可写为 "builtin:Go-Bold" 或直接 "Go-Bold"。
func Load(name string) ([]byte, error) {
	name = strings.TrimPrefix(strings.TrimPrefix(name, "builtin:"), "built-in:")
	data, ok := builtinFonts[name]
	if !ok {
		return nil, fmt.Errorf("内置字体 %s 不存在", name)
	}
	return data, nil
}

// BuiltinNames 按名称排序返回全部内置字体名。
func BuiltinNames() []string {
	names := make([]string, 0, len(builtinFonts))
	for name := range builtinFonts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builtin 按 BuiltinNames 的顺序返回全部内置字体缓冲区。
func Builtin() [][]byte {
	names := BuiltinNames()
	out := make([][]byte, 0, len(names))
	for _, name := range names {
		out = append(out, builtinFonts[name])
	}
	return out
}

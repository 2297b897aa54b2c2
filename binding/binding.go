// Package binding 负责把文本中的 ${path} 占位符替换为作用域中的值。
package binding

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var exprPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Scope 保存可被占位符引用的值：内置名称（例如 today）优先于宿主数据。
type Scope struct {
	builtins map[string]any
	data     any
}

// NewScope 以宿主数据创建作用域，data 可以为 nil。
func NewScope(data any) *Scope {
	return &Scope{builtins: map[string]any{}, data: data}
}

// Define 注册一个内置名称，返回 s 以便链式调用。
func (s *Scope) Define(name string, value any) *Scope {
	s.builtins[name] = value
	return s
}

// Lookup 解析形如 a.b[0].c 的路径。
func (s *Scope) Lookup(path string) (any, bool) {
	if s == nil {
		return nil, false
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, false
	}
	head, _, _ := strings.Cut(path, ".")
	name, _ := parseSegment(head)
	if v, ok := s.builtins[name]; ok {
		if head == path {
			return v, true
		}
		return resolvePath(map[string]any{name: v}, path)
	}
	if s.data == nil {
		return nil, false
	}
	return resolvePath(s.data, path)
}

// Interpolate 将文本中的占位符替换为作用域中的值；无法解析的占位符原样保留。
func (s *Scope) Interpolate(text string) string {
	return exprPattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := exprPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		if val, ok := s.Lookup(groups[1]); ok {
			return fmt.Sprint(val)
		}
		return match
	})
}

// Unresolved 返回文本中无法解析的占位符路径，按出现顺序排列。
func (s *Scope) Unresolved(text string) []string {
	var out []string
	for _, groups := range exprPattern.FindAllStringSubmatch(text, -1) {
		if _, ok := s.Lookup(groups[1]); !ok {
			out = append(out, strings.TrimSpace(groups[1]))
		}
	}
	return out
}

// Interpolate 将文本中的 ${path.to.value} 替换为 data 中的值。
// 若 data 为空或路径不存在，则返回原占位符。
func Interpolate(text string, data any) string {
	if data == nil {
		return text
	}
	return NewScope(data).Interpolate(text)
}

func resolvePath(data any, path string) (any, bool) {
	current := data
	segments := strings.Split(path, ".")
	for _, segment := range segments {
		name, indexes := parseSegment(strings.TrimSpace(segment))
		if name != "" {
			var ok bool
			current, ok = descendMap(current, name)
			if !ok {
				return nil, false
			}
		}
		for _, idxStr := range indexes {
			idx, err := strconv.Atoi(idxStr)
			if err != nil {
				return nil, false
			}
			var ok bool
			current, ok = descendArray(current, idx)
			if !ok {
				return nil, false
			}
		}
	}
	return current, true
}

func parseSegment(segment string) (string, []string) {
	name := segment
	indexes := []string{}
	if i := strings.Index(segment, "["); i != -1 {
		name = segment[:i]
		rest := segment[i:]
		for len(rest) > 0 {
			if rest[0] != '[' {
				break
			}
			end := strings.IndexByte(rest, ']')
			if end == -1 {
				break
			}
			indexes = append(indexes, rest[1:end])
			rest = rest[end+1:]
		}
	}
	return name, indexes
}

func descendMap(current any, key string) (any, bool) {
	switch c := current.(type) {
	case map[string]any:
		val, ok := c[key]
		return val, ok
	case map[string]string:
		val, ok := c[key]
		return val, ok
	case map[any]any:
		val, ok := c[key]
		return val, ok
	default:
		return nil, false
	}
}

func descendArray(current any, idx int) (any, bool) {
	switch c := current.(type) {
	case []any:
		if idx < 0 || idx >= len(c) {
			return nil, false
		}
		return c[idx], true
	case []string:
		if idx < 0 || idx >= len(c) {
			return nil, false
		}
		return c[idx], true
	default:
		return nil, false
	}
}

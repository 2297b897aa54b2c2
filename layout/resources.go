package layout

import (
	"sort"
	"strconv"
	"strings"

	"github.com/electratype/electra/dsl"
	"github.com/electratype/electra/world"
)

// defaultFontName 是未指定字体的文本使用的资源名。
const defaultFontName = "Body"

func (b *builder) collectResources(doc *dsl.Document) (ResourceSet, error) {
	res := ResourceSet{
		Fonts:  map[string]FontResource{},
		Colors: map[string]Color{},
		Styles: map[string]Style{},
	}
	rawStyles := map[string]Style{}
	styleCmds := map[string]*dsl.Command{}

	for _, section := range doc.Sections {
		if section.Resources == nil || section.Resources.Block == nil {
			continue
		}
		for _, stmt := range section.Resources.Block.Statements {
			if stmt.Command == nil {
				continue
			}
			cmd := stmt.Command
			name := strings.ToLower(cmd.Name)
			if !b.lib.Knows(world.ContextResources, name) {
				b.warn(warningAt(cmd, "未知资源类型 %s，已忽略", cmd.Name))
				continue
			}
			switch name {
			case "font":
				font, err := b.parseFontResource(cmd)
				if err != nil {
					return res, err
				}
				res.Fonts[font.Name] = font
			case "color":
				colorName, value := parseColorResource(cmd)
				if colorName == "" || value == "" {
					return res, errorAt(cmd, "color 资源缺少名称或取值")
				}
				c, err := parseColor(value)
				if err != nil {
					return res, errorAt(cmd, "%s", err.Error())
				}
				res.Colors[colorName] = c
			case "style":
				style := parseStyleResource(cmd)
				if style.Name == "" {
					return res, errorAt(cmd, "style 资源缺少名称")
				}
				rawStyles[style.Name] = style
				styleCmds[style.Name] = cmd
			}
		}
	}

	if _, ok := res.Fonts[defaultFontName]; !ok {
		res.Fonts[defaultFontName] = b.defaultFont()
	}

	resolved, err := resolveStyles(rawStyles, styleCmds)
	if err != nil {
		return res, err
	}
	res.Styles = resolved
	return res, nil
}

// defaultFont 在字体库中选择语言定义的默认字体族，找不到时退回第一个字体。
func (b *builder) defaultFont() FontResource {
	font := FontResource{Name: defaultFontName, Family: b.lib.FontFamily, Style: "regular", Index: -1}
	if idx, ok := b.opts.Book.Select(font.Family, font.Style); ok {
		font.Index = idx
	} else if b.opts.Book.Len() > 0 {
		font.Index = 0
	}
	if info, ok := b.opts.Book.Info(font.Index); ok {
		font.Family = info.Family
	}
	return font
}

// parseFontResource 解析 `font Name { family: "..." style: "..." }`，并在字体库中选出最匹配的字体。
func (b *builder) parseFontResource(cmd *dsl.Command) (FontResource, error) {
	if len(cmd.Args) == 0 {
		return FontResource{}, errorAt(cmd, "font 资源缺少名称")
	}
	font := FontResource{
		Name:   cmd.Args[0].Value,
		Family: b.lib.FontFamily,
		Style:  "regular",
		Index:  -1,
	}
	if cmd.Block != nil {
		for _, stmt := range cmd.Block.Statements {
			if stmt.Assignment == nil {
				continue
			}
			switch strings.ToLower(stmt.Assignment.Key) {
			case "family":
				if v := stmt.Assignment.Value.Text(); v != "" {
					font.Family = v
				}
			case "style":
				if v := stmt.Assignment.Value.Text(); v != "" {
					font.Style = v
				}
			}
		}
	}
	idx, ok := b.opts.Book.Select(font.Family, font.Style)
	if !ok {
		return font, errorAt(cmd, "字体 %s：字体库中没有 family %q", font.Name, font.Family)
	}
	font.Index = idx
	return font, nil
}

func collectMeta(doc *dsl.Document) DocumentMeta {
	meta := DocumentMeta{
		Creator: "Electra",
	}
	for _, section := range doc.Sections {
		if section.Meta == nil || section.Meta.Block == nil {
			continue
		}
		for _, stmt := range section.Meta.Block.Statements {
			if stmt.Assignment == nil {
				continue
			}
			key := strings.ToLower(stmt.Assignment.Key)
			switch key {
			case "title":
				meta.Title = stmt.Assignment.Value.Text()
			case "author":
				meta.Author = stmt.Assignment.Value.Text()
			case "subject":
				meta.Subject = stmt.Assignment.Value.Text()
			case "creator":
				meta.Creator = stmt.Assignment.Value.Text()
			case "keywords":
				meta.Keywords = stmt.Assignment.Value.List()
			}
		}
	}
	return meta
}

func parseStyleResource(cmd *dsl.Command) Style {
	if len(cmd.Args) == 0 {
		return Style{}
	}
	style := Style{
		Name:  cmd.Args[0].Value,
		Props: map[string]string{},
	}
	if len(cmd.Args) >= 3 && strings.EqualFold(cmd.Args[1].Value, "extends") {
		style.Extends = cmd.Args[2].Value
	}

	if cmd.Block == nil {
		return style
	}

	for _, stmt := range cmd.Block.Statements {
		if stmt.Assignment == nil {
			continue
		}
		val := stmt.Assignment.Value.Text()
		if val == "" {
			continue
		}
		style.Props[stmt.Assignment.Key] = val
	}
	return style
}

// resolveStyles 展开 extends 继承链；未定义的父样式与循环继承报告在声明处。
func resolveStyles(styles map[string]Style, cmds map[string]*dsl.Command) (map[string]Style, error) {
	resolved := map[string]Style{}
	visiting := map[string]bool{}

	var dfs func(name string, from *dsl.Command) (Style, error)
	dfs = func(name string, from *dsl.Command) (Style, error) {
		if style, ok := resolved[name]; ok {
			return style, nil
		}
		style, ok := styles[name]
		if !ok {
			return Style{}, errorAt(from, "style %s 未定义", name)
		}
		if visiting[name] {
			return Style{}, errorAt(cmds[name], "style 继承存在循环：%s", name)
		}
		visiting[name] = true

		props := map[string]string{}
		if style.Extends != "" {
			parent, err := dfs(style.Extends, cmds[name])
			if err != nil {
				return Style{}, err
			}
			for k, v := range parent.Props {
				props[k] = v
			}
		}
		for k, v := range style.Props {
			props[k] = v
		}
		style.Props = props
		resolved[name] = style
		delete(visiting, name)
		return style, nil
	}

	names := make([]string, 0, len(styles))
	for name := range styles {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, err := dfs(name, cmds[name]); err != nil {
			return nil, err
		}
	}
	return resolved, nil
}

// checkStyle 校验 text 引用的样式名：必须是已声明的样式或字体。
func (b *builder) checkStyle(cmd *dsl.Command, name string) error {
	if name == "" {
		return nil
	}
	if _, ok := b.res.Styles[name]; ok {
		return nil
	}
	if _, ok := b.res.Fonts[name]; ok {
		return nil
	}
	return errorAt(cmd, "样式 %s 未定义", name)
}

func parseColorResource(cmd *dsl.Command) (string, string) {
	if len(cmd.Args) == 0 {
		return "", ""
	}
	name := cmd.Args[0].Value
	value := ""
	if len(cmd.Args) > 1 {
		value = cmd.Args[len(cmd.Args)-1].Value
	}
	return name, value
}

func (b *builder) resolvePageSize(section *dsl.PageSection) (float64, float64, error) {
	size, ok := b.lib.PageSize(section.Spec.Size)
	if !ok {
		return 0, 0, &Error{
			Pos:   section.Pos,
			Width: len("page ") + len(section.Spec.Size),
			Msg:   "暂不支持的纸张尺寸：" + section.Spec.Size,
		}
	}

	width, height := size.Width, size.Height
	for _, token := range section.Spec.Params {
		if token.Value == "landscape" {
			width, height = height, width
		}
	}
	return width, height, nil
}

func (b *builder) resolveMargin(params []*dsl.Lexeme) Margin {
	d := b.lib.Margin
	margin := Margin{Top: d, Right: d, Bottom: d, Left: d}
	for i := 0; i < len(params); i++ {
		if params[i].Value != "margin" {
			continue
		}
		// 最多收集 margin 之后的 4 个数值，遇到非数值（如 portrait）即停止
		vals := []float64{}
		for j := i + 1; j < len(params) && len(vals) < 4; j++ {
			if _, err := strconv.ParseFloat(trimUnit(params[j].Value), 64); err != nil {
				break
			}
			vals = append(vals, lengthMM(params[j].Value))
		}
		// CSS 类语义：1 值四边相同；2 值上下/左右；3 值上/右/下且左为 0；4 值上/右/下/左
		switch len(vals) {
		case 1:
			v := vals[0]
			margin = Margin{Top: v, Right: v, Bottom: v, Left: v}
		case 2:
			margin = Margin{Top: vals[0], Right: vals[1], Bottom: vals[0], Left: vals[1]}
		case 3:
			margin = Margin{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: 0}
		case 4:
			margin = Margin{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: vals[3]}
		}
	}
	return margin
}

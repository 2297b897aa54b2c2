package world

import (
	"sort"
	"strings"
)

// PageSize is a paper size in millimetres, portrait orientation.
type PageSize struct {
	Width  float64
	Height float64
}

// CommandContext tells where a command may appear.
type CommandContext int

const (
	ContextBody CommandContext = iota
	ContextResources
	ContextPage
)

// Library is the language definition table: which commands exist and the
// defaults applied when a document leaves something unspecified.
type Library struct {
	commands  map[CommandContext]map[string]bool
	PageSizes map[string]PageSize

	// FontSize is the default font size in pt.
	FontSize float64
	// LineHeight is the default line height as a multiple of the font size.
	LineHeight float64
	// Margin is the default page margin in mm, applied to all sides.
	Margin float64
	// TextColor is the default text colour as #RRGGBB.
	TextColor string
	// FontFamily is used for text that names no font.
	FontFamily string
}

// StandardLibrary returns the built-in definition table.
func StandardLibrary() *Library {
	lib := &Library{
		commands: map[CommandContext]map[string]bool{},
		PageSizes: map[string]PageSize{
			"A3":     {297, 420},
			"A4":     {210, 297},
			"A5":     {148, 210},
			"LETTER": {215.9, 279.4},
			"LEGAL":  {215.9, 355.6},
		},
		FontSize:   12,
		LineHeight: 1.4,
		Margin:     20,
		TextColor:  "#1E1E1E",
		FontFamily: "Go",
	}
	lib.Define(ContextBody, "flow", "absolute", "text", "line", "rect", "circle", "pagebreak")
	lib.Define(ContextPage, "header", "footer")
	lib.Define(ContextResources, "font", "color", "style")
	return lib
}

// Define registers commands for a context.
func (l *Library) Define(ctx CommandContext, names ...string) {
	if l.commands == nil {
		l.commands = map[CommandContext]map[string]bool{}
	}
	set := l.commands[ctx]
	if set == nil {
		set = map[string]bool{}
		l.commands[ctx] = set
	}
	for _, name := range names {
		set[strings.ToLower(name)] = true
	}
}

// Knows reports whether name is a command in ctx. Page-level commands are
// a superset of body commands.
func (l *Library) Knows(ctx CommandContext, name string) bool {
	name = strings.ToLower(name)
	if l.commands[ctx][name] {
		return true
	}
	return ctx == ContextPage && l.commands[ContextBody][name]
}

// Commands lists the commands of ctx in sorted order.
func (l *Library) Commands(ctx CommandContext) []string {
	out := make([]string, 0, len(l.commands[ctx]))
	for name := range l.commands[ctx] {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// PageSize looks up a preset by name, ignoring case.
func (l *Library) PageSize(name string) (PageSize, bool) {
	size, ok := l.PageSizes[strings.ToUpper(name)]
	return size, ok
}

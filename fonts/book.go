package fonts

import (
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
)

// Book is the ordered font catalog the layout engine selects from. Entry i
// describes the font Registry.Font(i) materializes. It is safe for
// concurrent use.
type Book struct {
	mu    sync.RWMutex
	infos []Info
}

// NewBook returns an empty catalog.
func NewBook() *Book { return &Book{} }

// Push appends an entry and returns its catalog index.
func (b *Book) Push(info Info) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.infos = append(b.infos, info)
	return len(b.infos) - 1
}

// Len returns the number of entries.
func (b *Book) Len() int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.infos)
}

// Info returns entry i.
func (b *Book) Info(i int) (Info, bool) {
	if b == nil {
		return Info{}, false
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if i < 0 || i >= len(b.infos) {
		return Info{}, false
	}
	return b.infos[i], true
}

// Infos returns a copy of all entries in catalog order.
func (b *Book) Infos() []Info {
	if b == nil {
		return nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]Info(nil), b.infos...)
}

// Families lists distinct family names in first-seen order.
func (b *Book) Families() []string {
	var out []string
	seen := map[string]bool{}
	for _, info := range b.Infos() {
		key := strings.ToLower(info.Family)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, info.Family)
	}
	return out
}

// Select returns the index of the entry in family that best matches style.
// Family comparison ignores case. Italic mismatches cost more than weight
// distance; ties go to the lowest index.
func (b *Book) Select(family, style string) (int, bool) {
	want := ParseStyle(style)
	wantItalic := want&canvas.FontItalic != 0
	wantWeight := cssWeight(want)

	best, bestCost := -1, 0
	for i, info := range b.Infos() {
		if !strings.EqualFold(info.Family, strings.TrimSpace(family)) {
			continue
		}
		cost := abs(info.Weight() - wantWeight)
		if info.Italic() != wantItalic {
			cost += 1000
		}
		if best == -1 || cost < bestCost {
			best, bestCost = i, cost
		}
	}
	return best, best >= 0
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

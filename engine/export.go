package engine

import (
	"github.com/electratype/electra/diag"
	"github.com/electratype/electra/renderer"
)

// Page is one serialized page and its zero-based position.
type Page struct {
	Index   int
	Content []byte
}

// Export is the outcome of one successful CompileToExport call.
type Export struct {
	// Count is the total number of pages, exported or not.
	Count int
	// Pages holds only the pages that changed since the previous export,
	// in ascending position order.
	Pages  []Page
	Format renderer.Format
	// Warnings never fail a compile; they are handed back for display.
	Warnings diag.List
}

// Values flattens the export into the host boundary sequence:
// the page count, then position and content for each changed page.
func (x *Export) Values() []any {
	out := make([]any, 0, 1+2*len(x.Pages))
	out = append(out, x.Count)
	for _, p := range x.Pages {
		out = append(out, p.Index, p.Content)
	}
	return out
}

// Indexes returns the positions of the exported pages.
func (x *Export) Indexes() []int {
	out := make([]int, len(x.Pages))
	for i, p := range x.Pages {
		out[i] = p.Index
	}
	return out
}

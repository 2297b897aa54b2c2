package engine

import (
	"github.com/electratype/electra/fonts"
	"github.com/electratype/electra/vfs"
	"github.com/electratype/electra/world"
)

// host answers the compiler's queries by delegating to the document and
// the font registry. It exposes no mutation; the Engine owns those.
//
// File resolution is collapsed to the one embedded document: every file id
// reads the same text and no packages exist. Supporting several files means
// widening File, Source and Packages here; the compiler is unaffected.
type host struct {
	doc     *vfs.Document
	fonts   *fonts.Registry
	library *world.Library
	clock   world.Clock
}

var _ world.World = (*host)(nil)

func (h *host) Library() *world.Library { return h.library }

func (h *host) Book() *fonts.Book { return h.fonts.Book() }

func (h *host) Main() vfs.FileID { return h.doc.ID() }

func (h *host) File(id vfs.FileID) ([]byte, error) { return h.doc.File(id) }

func (h *host) Source(id vfs.FileID) (*vfs.Source, error) { return h.doc.Source(id) }

func (h *host) Font(index int) *fonts.Font { return h.fonts.Font(index) }

func (h *host) Packages() []world.PackageSpec { return nil }

func (h *host) Today(offset *int) (world.Datetime, bool) { return h.clock.Today(offset) }

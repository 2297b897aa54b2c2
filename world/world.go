// Package world 定义编译器可见的只读能力接口。
//
// 编译器只通过 World 访问文档、字体、语言定义与日期；所有修改操作都留在
// engine 包中，不属于该接口。
package world

import (
	"github.com/electratype/electra/fonts"
	"github.com/electratype/electra/vfs"
)

// World is the read-only surface a compilation runs against.
//
// File resolution is collapsed to a single document: File and Source return
// the embedded document for every id, and Packages is always empty.
// Multi-file support would widen these two methods without touching callers.
type World interface {
	// Library returns the language definition table.
	Library() *Library
	// Book returns the font catalog used for font selection.
	Book() *fonts.Book
	// Main returns the id of the document being compiled.
	Main() vfs.FileID
	File(id vfs.FileID) ([]byte, error)
	Source(id vfs.FileID) (*vfs.Source, error)
	// Font returns the materialized font for a catalog index, or nil.
	Font(index int) *fonts.Font
	Packages() []PackageSpec
	// Today returns the current date, shifted by offset hours when given.
	Today(offset *int) (Datetime, bool)
}

// PackageSpec names an external package. No resolver exists yet, so
// worlds in this module report none.
type PackageSpec struct {
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
	Version   string `json:"version"`
}

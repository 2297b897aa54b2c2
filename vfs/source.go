package vfs

import (
	"path"
	"strings"

	"github.com/npillmayer/cords"
)

// MainPath is the virtual path of the embedded document.
const MainPath = "main.electra"

// FileID identifies a file inside the virtual file system.
type FileID struct {
	pkg  string
	path string
}

// NewFileID returns the id for a virtual path. The path is cleaned and
// made absolute ("/main.electra").
func NewFileID(p string) FileID {
	return FileID{path: path.Clean("/" + p)}
}

// Path returns the cleaned virtual path.
func (id FileID) Path() string { return id.path }

// Package returns the package the file belongs to; empty for the document.
func (id FileID) Package() string { return id.pkg }

func (id FileID) String() string {
	if id.pkg != "" {
		return "@" + id.pkg + id.path
	}
	return id.path
}

// Span is a half-open byte range [Start, End).
type Span struct {
	Start int
	End   int
}

// Source is the compiler-facing view of the document. Its mutators are
// unexported: only Document changes it.
type Source struct {
	id       FileID
	text     cords.Cord
	size     int
	revision uint64
	lastEdit Span
	edited   bool
}

func newSource(id FileID, text string) *Source {
	s := &Source{id: id}
	s.replace(text)
	return s
}

// ID returns the file identity.
func (s *Source) ID() FileID { return s.id }

// Text returns the current text.
func (s *Source) Text() string {
	if s.size == 0 {
		return ""
	}
	return s.text.String()
}

// Bytes returns a fresh copy of the text as bytes.
func (s *Source) Bytes() []byte { return []byte(s.Text()) }

// Len returns the text length in bytes.
func (s *Source) Len() int { return s.size }

// Revision increases by one on every replace or edit.
func (s *Source) Revision() uint64 { return s.revision }

// LastEdit returns the range the most recent range edit inserted. It reports
// false after a full replace.
func (s *Source) LastEdit() (Span, bool) { return s.lastEdit, s.edited }

// Position converts a byte offset into 1-based line and column numbers.
// Offsets past the end clamp to the end of the text.
func (s *Source) Position(offset int) (line, col int) {
	text := s.Text()
	if offset > len(text) {
		offset = len(text)
	}
	if offset < 0 {
		offset = 0
	}
	prefix := text[:offset]
	line = strings.Count(prefix, "\n") + 1
	col = offset - strings.LastIndexByte(prefix, '\n')
	return line, col
}

func (s *Source) replace(text string) {
	s.text = fromString(text)
	s.size = len(text)
	s.revision++
	s.lastEdit = Span{}
	s.edited = false
}

// edit replaces [start, end) with `with`. Bounds are checked by the caller.
func (s *Source) edit(start, end int, with string) error {
	left, rest, err := split(s.text, s.size, start)
	if err != nil {
		return err
	}
	_, right, err := split(rest, s.size-start, end-start)
	if err != nil {
		return err
	}
	s.text = concat(left, fromString(with), right)
	s.size = s.size - (end - start) + len(with)
	s.revision++
	s.lastEdit = Span{Start: start, End: start + len(with)}
	s.edited = true
	return nil
}

// fromString avoids building ropes for empty text; cords represents empty
// text as the void cord.
func fromString(text string) cords.Cord {
	if text == "" {
		return cords.Cord{}
	}
	return cords.FromString(text)
}

// split cuts c (of byte length n) at i. Splitting at either end never
// touches the rope.
func split(c cords.Cord, n, i int) (cords.Cord, cords.Cord, error) {
	switch {
	case i == 0:
		return cords.Cord{}, c, nil
	case i == n:
		return c, cords.Cord{}, nil
	}
	return cords.Split(c, uint64(i))
}

func concat(parts ...cords.Cord) cords.Cord {
	nonEmpty := make([]cords.Cord, 0, len(parts))
	for _, p := range parts {
		if p.IsVoid() {
			continue
		}
		nonEmpty = append(nonEmpty, p)
	}
	switch len(nonEmpty) {
	case 0:
		return cords.Cord{}
	case 1:
		return nonEmpty[0]
	}
	return cords.Concat(nonEmpty[0], nonEmpty[1:]...)
}

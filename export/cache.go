package export

import (
	"github.com/charmbracelet/log"

	"github.com/electratype/electra/internal/logging"
	"github.com/electratype/electra/layout"
)

// entry is the remembered digest for one page position. An invalid entry
// stands for a page that could not be hashed and never compares equal.
type entry struct {
	hash  Hash
	valid bool
}

// Cache remembers the digest of the page last exported at each position.
// It never shrinks: positions beyond the current document keep their old
// digests, which is harmless because they are only compared again if the
// document grows back to that length. Hosts that drop trailing pages call
// Truncate.
//
// A Cache is not safe for concurrent use.
type Cache struct {
	entries []entry
	hash    func(layout.Page) (Hash, error)
	logger  *log.Logger
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{hash: HashPage, logger: logging.Default()}
}

// WithLogger sets the logger used to report pages that cannot be hashed.
func (c *Cache) WithLogger(logger *log.Logger) *Cache {
	c.logger = logging.OrDefault(logger)
	return c
}

// IsCached reports whether page is identical to the page last seen at
// position, and records page as the new baseline either way.
//
// A position past the end of the cache is appended and reported as not
// cached. Pages that cannot be hashed are recorded as invalid and always
// reported as not cached, so a failure leads to an extra export rather
// than a missing one.
func (c *Cache) IsCached(position int, page layout.Page) bool {
	e := entry{valid: true}
	var err error
	if e.hash, err = c.hash(page); err != nil {
		c.logger.Warn("page cannot be hashed", logging.FieldIndex, position, logging.FieldError, err)
		e = entry{}
	}

	if position >= len(c.entries) {
		for len(c.entries) < position {
			c.entries = append(c.entries, entry{})
		}
		c.entries = append(c.entries, e)
		return false
	}
	prev := c.entries[position]
	c.entries[position] = e
	return prev.valid && e.valid && prev.hash == e.hash
}

// Invalidate forgets the digest at position, so the page there is exported
// on the next pass whatever it contains.
func (c *Cache) Invalidate(position int) {
	if position >= 0 && position < len(c.entries) {
		c.entries[position] = entry{}
	}
}

// Truncate forgets every position from n on. Hosts that discard their
// copies of trailing pages truncate so those positions export again.
func (c *Cache) Truncate(n int) {
	if n < 0 {
		n = 0
	}
	if n < len(c.entries) {
		c.entries = c.entries[:n:n]
	}
}

// Len returns the number of remembered positions.
func (c *Cache) Len() int { return len(c.entries) }

// Reset forgets every digest, so the next export emits every page.
func (c *Cache) Reset() { c.entries = nil }

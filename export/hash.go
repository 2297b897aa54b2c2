// Package export decides which laid-out pages must be serialized again.
//
// Every page frame is reduced to a 128-bit content digest. A page whose
// digest at the same position is unchanged since the previous export is
// skipped by the engine.
package export

import (
	"encoding/hex"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/blake3"

	"github.com/electratype/electra/layout"
)

// HashSize is the digest length in bytes.
const HashSize = 16

// Hash is a truncated BLAKE3 digest of a page frame.
type Hash [HashSize]byte

// String returns the lowercase hex form of the digest.
func (h Hash) String() string { return hex.EncodeToString(h[:]) }

// pageDomainKey separates page digests from any other BLAKE3 use of the
// same bytes. ASCII, zero-padded to 32 bytes.
var pageDomainKey = [32]byte{
	'e', 'l', 'e', 'c', 't', 'r', 'a', '.', 'e', 'x', 'p', 'o', 'r', 't', '.',
	'p', 'a', 'g', 'e',
}

// encMode uses Core Deterministic Encoding (RFC 8949 §4.2), so equal
// frames always encode to identical bytes.
var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("export: CBOR encoder initialization failed: " + err.Error())
	}
}

// HashPage digests page. Two frames hash equal exactly when their
// deterministic encodings are equal, so any change to content, geometry,
// styling or element order changes the digest.
func HashPage(page layout.Page) (Hash, error) {
	var h Hash
	hasher, err := blake3.NewKeyed(pageDomainKey[:])
	if err != nil {
		return h, fmt.Errorf("export: hasher: %w", err)
	}
	if err := encMode.NewEncoder(hasher).Encode(page); err != nil {
		return h, fmt.Errorf("export: encode page: %w", err)
	}
	copy(h[:], hasher.Sum(nil))
	return h, nil
}

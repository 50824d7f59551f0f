package buildcache

import (
	"encoding/base64"
	"encoding/binary"
	"hash/adler32"
	"strings"

	"github.com/alnah/go-md2slides"
)

// NewKey derives the cache name for code built with meta.
//
// The checksum is adler32 over code followed by the sorted metadata pairs,
// encoded as four big-endian bytes in standard base64 with '=', '/' and '+'
// removed. When meta names a file, that name prefixes the key so artifacts
// of one deck sort together. Collisions are possible and not detected.
func NewKey(code string, meta md2slides.Metadata) string {
	sum := adler32.Checksum([]byte(code + meta.SortedPairs()))

	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], sum)
	encoded := base64.StdEncoding.EncodeToString(buf[:])
	encoded = strings.NewReplacer("=", "", "/", "", "+", "").Replace(encoded)

	return meta[md2slides.MetaFilename] + encoded
}

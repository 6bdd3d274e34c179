// Package gameid generates sortable game identifiers: UUIDv7 encoded
// as 26-character Crockford base32. Lexicographic order follows
// creation time, which keeps lobby listings naturally ordered.
package gameid

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"
)

const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// RandSource supplies the random tail of an id. Tests inject a
// deterministic source; production uses crypto/rand.
type RandSource interface {
	Intn(n int) int
}

// Generator produces game ids with configurable randomness
type Generator struct {
	randSource RandSource
}

// NewGenerator creates a generator. A nil RandSource selects crypto/rand.
func NewGenerator(randSource RandSource) *Generator {
	return &Generator{randSource: randSource}
}

// Generate creates a new game id with the default generator
func Generate() string {
	return NewGenerator(nil).Generate()
}

// Generate creates a new game id
func (g *Generator) Generate() string {
	return encodeBase32(g.uuidv7())
}

func (g *Generator) uuidv7() [16]byte {
	var uuid [16]byte

	now := time.Now().UnixMilli()
	uuid[0] = byte(now >> 40)
	uuid[1] = byte(now >> 32)
	uuid[2] = byte(now >> 24)
	uuid[3] = byte(now >> 16)
	uuid[4] = byte(now >> 8)
	uuid[5] = byte(now)

	if g.randSource != nil {
		for i := 6; i < 16; i++ {
			uuid[i] = byte(g.randSource.Intn(256))
		}
	} else {
		if _, err := rand.Read(uuid[6:]); err != nil {
			panic("failed to generate random bytes: " + err.Error())
		}
	}

	// version 7, variant 10
	uuid[6] = (uuid[6] & 0x0f) | 0x70
	uuid[8] = (uuid[8] & 0x3f) | 0x80

	return uuid
}

// encodeBase32 streams the 128 bits out in 5-bit groups, high bits
// first. The last group carries only 3 data bits; the low 2 bits of
// the final character are zero padding.
func encodeBase32(data [16]byte) string {
	var out [26]byte
	var acc uint32
	bits, pos := 0, 0
	for _, b := range data {
		acc = acc<<8 | uint32(b)
		bits += 8
		for bits >= 5 {
			bits -= 5
			out[pos] = alphabet[(acc>>bits)&0x1f]
			pos++
		}
	}
	out[pos] = alphabet[(acc<<(5-bits))&0x1f]
	return string(out[:])
}

// Validate checks that an id is 26 characters of valid base32
func Validate(id string) error {
	if len(id) != 26 {
		return fmt.Errorf("game id must be 26 characters, got %d", len(id))
	}
	// 130 encoded bits hold only 128 of data, so the leading character
	// never exceeds '7'.
	if id[0] > '7' {
		return fmt.Errorf("game id starts with %c, want 0-7", id[0])
	}
	for i := 0; i < len(id); i++ {
		if strings.IndexByte(alphabet, id[i]) < 0 {
			return fmt.Errorf("game id has %q at position %d", id[i], i)
		}
	}
	return nil
}

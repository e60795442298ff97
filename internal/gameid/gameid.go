// Package gameid generates sortable identifiers for rooms, rounds and
// anonymous players: a UUIDv7 rendered as 26 characters of Crockford base32.
package gameid

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/coder/quartz"
)

// Crockford's base32 alphabet, lower case
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// Length is the size of every encoded id
const Length = 26

// RandSource interface for dependency injection of randomness
type RandSource interface {
	IntN(n int) int
}

// Generator produces ids from a clock and a source of random bytes
type Generator struct {
	clock      quartz.Clock
	randSource RandSource
}

// NewGenerator creates a generator. A nil clock uses the real clock and a
// nil randSource uses crypto/rand.
func NewGenerator(clock quartz.Clock, randSource RandSource) *Generator {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Generator{clock: clock, randSource: randSource}
}

var defaultGenerator = NewGenerator(nil, nil)

// Generate creates a new id using the real clock and crypto/rand
func Generate() string {
	return defaultGenerator.Generate()
}

// Generate creates a new id
func (g *Generator) Generate() string {
	return encode(g.uuidV7())
}

func (g *Generator) uuidV7() [16]byte {
	var u [16]byte

	ms := uint64(g.clock.Now().UnixMilli())
	for i := 5; i >= 0; i-- {
		u[i] = byte(ms)
		ms >>= 8
	}

	if g.randSource != nil {
		for i := 6; i < 16; i++ {
			u[i] = byte(g.randSource.IntN(256))
		}
	} else if _, err := rand.Read(u[6:]); err != nil {
		panic("gameid: crypto/rand failed: " + err.Error())
	}

	u[6] = (u[6] & 0x0f) | 0x70 // version 7
	u[8] = (u[8] & 0x3f) | 0x80 // RFC 4122 variant
	return u
}

// encode writes 128 bits as 26 base32 digits. The value is treated as 130
// bits with two leading zeros, so the first digit is always 0-7.
func encode(u [16]byte) string {
	var out [Length]byte
	var acc uint32
	bits := 2 // leading zero pad
	pos := 0

	for _, b := range u {
		acc = acc<<8 | uint32(b)
		bits += 8
		for bits >= 5 {
			bits -= 5
			out[pos] = alphabet[(acc>>bits)&0x1f]
			pos++
		}
	}
	return string(out[:])
}

func decode(id string) ([16]byte, error) {
	var u [16]byte
	if err := Validate(id); err != nil {
		return u, err
	}

	var acc uint32
	bits := -2 // drop the leading zero pad
	pos := 0
	for i := 0; i < len(id); i++ {
		acc = acc<<5 | uint32(strings.IndexByte(alphabet, id[i]))
		bits += 5
		if bits >= 8 {
			bits -= 8
			u[pos] = byte(acc >> bits)
			pos++
		}
	}
	return u, nil
}

// Timestamp extracts the creation time embedded in an id
func Timestamp(id string) (time.Time, error) {
	u, err := decode(id)
	if err != nil {
		return time.Time{}, err
	}
	var ms int64
	for i := 0; i < 6; i++ {
		ms = ms<<8 | int64(u[i])
	}
	return time.UnixMilli(ms), nil
}

// Validate checks that id is 26 characters of lower case base32 whose first
// digit fits in 3 bits.
func Validate(id string) error {
	if len(id) != Length {
		return fmt.Errorf("id must be exactly %d characters, got %d", Length, len(id))
	}
	if id[0] > '7' {
		return fmt.Errorf("id first character must be 0-7, got %c", id[0])
	}
	for i := 0; i < len(id); i++ {
		if strings.IndexByte(alphabet, id[i]) < 0 {
			return fmt.Errorf("invalid character %c at position %d", id[i], i)
		}
	}
	return nil
}

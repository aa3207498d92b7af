package sig

import (
	"github.com/funvibe/funbit"
)

// bitCursor wraps funbit's bit-pattern matcher to pull the variable-width
// tag bits out of a compressed integer's lead byte (ECMA-335 §II.23.2)
// without hand-rolled shifting. funbit exists in the ambient stack for
// exactly this job — declarative bit-field extraction over an immutable
// []byte — so the signature decoder is the one place in this module that
// exercises it, the same role it plays for Erlang-style binary pattern
// matching elsewhere in the funxy ecosystem.
type bitCursor struct {
	ctx *funbit.Context
	pos int
	end int
}

func newBitCursor(blob []byte) *bitCursor {
	return &bitCursor{ctx: funbit.NewContext(blob), pos: 0, end: len(blob)}
}

func (c *bitCursor) byteAt(off int) (byte, error) {
	if off < 0 || off >= c.end {
		return 0, badFormat("sig: blob truncated at offset %d", off)
	}
	bits, err := funbit.MatchBits(c.ctx, off*8, 8)
	if err != nil {
		return 0, badFormat("sig: bit match failed at offset %d: %w", off, err)
	}
	return byte(bits), nil
}

// readCompressedUint decodes one ECMA-335 §II.23.2 compressed unsigned
// integer starting at *pos, advancing *pos past it.
func readCompressedUint(blob []byte, pos *int) (uint32, error) {
	c := newBitCursor(blob)
	b0, err := c.byteAt(*pos)
	if err != nil {
		return 0, err
	}

	switch {
	case b0&0x80 == 0:
		*pos++
		return uint32(b0), nil

	case b0&0xC0 == 0x80:
		b1, err := c.byteAt(*pos + 1)
		if err != nil {
			return 0, err
		}
		*pos += 2
		return uint32(b0&0x3F)<<8 | uint32(b1), nil

	case b0&0xE0 == 0xC0:
		b1, err := c.byteAt(*pos + 1)
		if err != nil {
			return 0, err
		}
		b2, err := c.byteAt(*pos + 2)
		if err != nil {
			return 0, err
		}
		b3, err := c.byteAt(*pos + 3)
		if err != nil {
			return 0, err
		}
		*pos += 4
		return uint32(b0&0x1F)<<24 | uint32(b1)<<16 | uint32(b2)<<8 | uint32(b3), nil

	default:
		return 0, badFormat("sig: illegal compressed-integer tag 0x%02x at offset %d", b0, *pos)
	}
}

// readCompressedInt decodes a compressed *signed* integer (ECMA-335
// §II.23.2.2): the compressed unsigned payload is rotated right by one bit,
// with bit 0 as the sign flag.
func readCompressedInt(blob []byte, pos *int) (int32, error) {
	start := *pos
	u, err := readCompressedUint(blob, pos)
	if err != nil {
		return 0, err
	}
	negative := u&1 != 0
	u >>= 1
	if negative {
		// Sign-extend depending on how many bytes the unsigned form used:
		// 6, 13 or 28 payload bits for the three compressed widths.
		switch *pos - start {
		case 1:
			return int32(u) - 0x40, nil
		case 2:
			return int32(u) - 0x2000, nil
		default:
			return int32(u) - 0x10000000, nil
		}
	}
	return int32(u), nil
}

func readByte(blob []byte, pos *int) (byte, error) {
	if *pos >= len(blob) {
		return 0, badFormat("sig: blob truncated at offset %d", *pos)
	}
	b := blob[*pos]
	*pos++
	return b, nil
}

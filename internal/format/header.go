package format

import (
	"bytes"
	"fmt"
)

// Header is the decoded form of the in-band block record:
//
//	Offset  Size  Field
//	0x00    4     'b' 'l' 'k' 0x00
//	0x04    4     Flags (bit 0 = free)
//	0x08    8     Size of the data region that follows the header
//	0x10    4     Slot index in the allocator's block table
//	0x14    4     Slot generation
//	0x18    8     Reserved
type Header struct {
	Size uint64
	Free bool
	Slot uint32
	Gen  uint32
}

// PutHeader encodes h at off within b. The reserved tail is zeroed.
func PutHeader(b []byte, off int, h Header) error {
	if off < 0 || off+HeaderSize > len(b) {
		return fmt.Errorf("%w: header at %#x (len %d)", ErrTruncated, off, len(b))
	}
	rec := b[off : off+HeaderSize]
	copy(rec[HeaderMagicOffset:], BlockMagic)
	var flags uint32
	if h.Free {
		flags |= FlagFree
	}
	PutU32(rec, HeaderFlagsOffset, flags)
	PutU64(rec, HeaderSizeOffset, h.Size)
	PutU32(rec, HeaderSlotOffset, h.Slot)
	PutU32(rec, HeaderGenOffset, h.Gen)
	clear(rec[HeaderGenOffset+4:])
	return nil
}

// ReadHeader decodes the header at off within b.
func ReadHeader(b []byte, off int) (Header, error) {
	if off < 0 || off+HeaderSize > len(b) {
		return Header{}, fmt.Errorf("%w: header at %#x (len %d)", ErrTruncated, off, len(b))
	}
	rec := b[off : off+HeaderSize]
	if !bytes.Equal(rec[HeaderMagicOffset:HeaderMagicOffset+len(BlockMagic)], BlockMagic) {
		return Header{}, fmt.Errorf("%w: header at %#x", ErrSignatureMismatch, off)
	}
	return Header{
		Size: ReadU64(rec, HeaderSizeOffset),
		Free: ReadU32(rec, HeaderFlagsOffset)&FlagFree != 0,
		Slot: ReadU32(rec, HeaderSlotOffset),
		Gen:  ReadU32(rec, HeaderGenOffset),
	}, nil
}

// Package endian converts fixed-width unsigned integers to and from their
// byte representations inside caller-owned buffers. Byte order is picked by
// holding either BigEndian or LittleEndian, so mixed-order use is visible at
// the call site rather than behind a runtime flag.
package endian

import (
	"fmt"
)

// ByteOrder reads and writes 16, 32, and 64-bit unsigned integers at a given
// offset of a byte buffer. Buffers are never resized; an operation that would
// fall outside the buffer fails with *BoundsError.
type ByteOrder interface {
	// Uint16 reconstructs the integer stored at b[offset:offset+2].
	Uint16(b []byte, offset int) (uint16, error)

	// Uint32 reconstructs the integer stored at b[offset:offset+4].
	Uint32(b []byte, offset int) (uint32, error)

	// Uint64 reconstructs the integer stored at b[offset:offset+8].
	Uint64(b []byte, offset int) (uint64, error)

	// PutUint16 writes the 2-byte encoding of v into b at offset.
	PutUint16(b []byte, offset int, v uint16) error

	// PutUint32 writes the 4-byte encoding of v into b at offset.
	PutUint32(b []byte, offset int, v uint32) error

	// PutUint64 writes the 8-byte encoding of v into b at offset.
	PutUint64(b []byte, offset int, v uint64) error

	// EncodeUint16 returns the 2-byte encoding of v in a fresh buffer.
	EncodeUint16(v uint16) []byte

	// EncodeUint32 returns the 4-byte encoding of v in a fresh buffer.
	EncodeUint32(v uint32) []byte

	// EncodeUint64 returns the 8-byte encoding of v in a fresh buffer.
	EncodeUint64(v uint64) []byte

	String() string
}

// BigEndian stores the most significant byte first.
var BigEndian bigEndian

// LittleEndian stores the least significant byte first.
var LittleEndian littleEndian

var _ ByteOrder = BigEndian
var _ ByteOrder = LittleEndian

// BoundsError reports a read or write whose offset and width do not fit the
// supplied buffer. It signals a caller error; the codec never grows buffers.
type BoundsError struct {
	Op     string // "read" or "write"
	Offset int
	Width  int
	Len    int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("endian: %v of %v bytes at offset %v exceeds buffer length %v", e.Op, e.Width, e.Offset, e.Len)
}

const (
	opRead  = "read"
	opWrite = "write"
)

// checkBounds validates that b[offset:offset+width] lies inside the buffer.
func checkBounds(op string, b []byte, offset, width int) error {
	if offset < 0 || offset > len(b)-width {
		return &BoundsError{Op: op, Offset: offset, Width: width, Len: len(b)}
	}
	return nil
}

// uintBE combines the window's bytes most-significant first.
func uintBE(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}

// uintLE combines the window's bytes least-significant first.
func uintLE(b []byte) uint64 {
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

// putUintBE spreads the low-order bytes of v over the window, most
// significant byte first. The byte conversion truncates to the 0-255 range.
func putUintBE(b []byte, v uint64) {
	for i := range b {
		b[i] = byte(v >> (8 * (len(b) - 1 - i)))
	}
}

// putUintLE spreads the low-order bytes of v over the window, least
// significant byte first.
func putUintLE(b []byte, v uint64) {
	for i := range b {
		b[i] = byte(v >> (8 * i))
	}
}

type bigEndian struct{}

func (bigEndian) Uint16(b []byte, offset int) (uint16, error) {
	if err := checkBounds(opRead, b, offset, 2); err != nil {
		return 0, err
	}
	return uint16(uintBE(b[offset : offset+2])), nil
}

func (bigEndian) Uint32(b []byte, offset int) (uint32, error) {
	if err := checkBounds(opRead, b, offset, 4); err != nil {
		return 0, err
	}
	return uint32(uintBE(b[offset : offset+4])), nil
}

func (bigEndian) Uint64(b []byte, offset int) (uint64, error) {
	if err := checkBounds(opRead, b, offset, 8); err != nil {
		return 0, err
	}
	return uintBE(b[offset : offset+8]), nil
}

func (bigEndian) PutUint16(b []byte, offset int, v uint16) error {
	if err := checkBounds(opWrite, b, offset, 2); err != nil {
		return err
	}
	putUintBE(b[offset:offset+2], uint64(v))
	return nil
}

func (bigEndian) PutUint32(b []byte, offset int, v uint32) error {
	if err := checkBounds(opWrite, b, offset, 4); err != nil {
		return err
	}
	putUintBE(b[offset:offset+4], uint64(v))
	return nil
}

func (bigEndian) PutUint64(b []byte, offset int, v uint64) error {
	if err := checkBounds(opWrite, b, offset, 8); err != nil {
		return err
	}
	putUintBE(b[offset:offset+8], v)
	return nil
}

func (bigEndian) EncodeUint16(v uint16) []byte {
	b := make([]byte, 2)
	putUintBE(b, uint64(v))
	return b
}

func (bigEndian) EncodeUint32(v uint32) []byte {
	b := make([]byte, 4)
	putUintBE(b, uint64(v))
	return b
}

func (bigEndian) EncodeUint64(v uint64) []byte {
	b := make([]byte, 8)
	putUintBE(b, v)
	return b
}

func (bigEndian) String() string {
	return "BigEndian"
}

type littleEndian struct{}

func (littleEndian) Uint16(b []byte, offset int) (uint16, error) {
	if err := checkBounds(opRead, b, offset, 2); err != nil {
		return 0, err
	}
	return uint16(uintLE(b[offset : offset+2])), nil
}

func (littleEndian) Uint32(b []byte, offset int) (uint32, error) {
	if err := checkBounds(opRead, b, offset, 4); err != nil {
		return 0, err
	}
	return uint32(uintLE(b[offset : offset+4])), nil
}

func (littleEndian) Uint64(b []byte, offset int) (uint64, error) {
	if err := checkBounds(opRead, b, offset, 8); err != nil {
		return 0, err
	}
	return uintLE(b[offset : offset+8]), nil
}

func (littleEndian) PutUint16(b []byte, offset int, v uint16) error {
	if err := checkBounds(opWrite, b, offset, 2); err != nil {
		return err
	}
	putUintLE(b[offset:offset+2], uint64(v))
	return nil
}

func (littleEndian) PutUint32(b []byte, offset int, v uint32) error {
	if err := checkBounds(opWrite, b, offset, 4); err != nil {
		return err
	}
	putUintLE(b[offset:offset+4], uint64(v))
	return nil
}

func (littleEndian) PutUint64(b []byte, offset int, v uint64) error {
	if err := checkBounds(opWrite, b, offset, 8); err != nil {
		return err
	}
	putUintLE(b[offset:offset+8], v)
	return nil
}

func (littleEndian) EncodeUint16(v uint16) []byte {
	b := make([]byte, 2)
	putUintLE(b, uint64(v))
	return b
}

func (littleEndian) EncodeUint32(v uint32) []byte {
	b := make([]byte, 4)
	putUintLE(b, uint64(v))
	return b
}

func (littleEndian) EncodeUint64(v uint64) []byte {
	b := make([]byte, 8)
	putUintLE(b, v)
	return b
}

func (littleEndian) String() string {
	return "LittleEndian"
}

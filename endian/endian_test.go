package endian

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

var orders = []ByteOrder{BigEndian, LittleEndian}

func TestUint16RoundTrip(t *testing.T) {
	t.Parallel()

	// every 16-bit value must survive a write-then-read in both orders
	for _, order := range orders {
		buf := make([]byte, 2)
		for v := 0; v <= math.MaxUint16; v++ {
			err := order.PutUint16(buf, 0, uint16(v))
			assert.Nil(t, err, "unexpected write error")

			got, err := order.Uint16(buf, 0)
			assert.Nil(t, err, "unexpected read error")
			if got != uint16(v) {
				t.Fatalf("%v: round trip of %#x returned %#x", order, v, got)
			}
		}
	}
}

func TestUint32RoundTrip(t *testing.T) {
	t.Parallel()

	values := []uint32{0, 1, 0xFF, 0x100, 0x12345678, 0x80000000, math.MaxUint32}
	for _, order := range orders {
		buf := make([]byte, 8)
		for _, v := range values {
			// write at a non-zero offset to cover offset arithmetic
			err := order.PutUint32(buf, 3, v)
			assert.Nil(t, err, "unexpected write error")

			got, err := order.Uint32(buf, 3)
			assert.Nil(t, err, "unexpected read error")
			assert.Equal(t, v, got, "round trip mismatch for %v", order)
		}
	}
}

func TestUint64RoundTrip(t *testing.T) {
	t.Parallel()

	values := []uint64{0, 1, 0x1122334455667788, math.MaxUint64}
	for _, order := range orders {
		buf := make([]byte, 8)
		for _, v := range values {
			err := order.PutUint64(buf, 0, v)
			assert.Nil(t, err, "unexpected write error")

			got, err := order.Uint64(buf, 0)
			assert.Nil(t, err, "unexpected read error")
			assert.Equal(t, v, got, "round trip mismatch for %v", order)
		}
	}
}

func TestEncodeUint32(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []byte{0x12, 0x34, 0x56, 0x78}, BigEndian.EncodeUint32(0x12345678))
	assert.Equal(t, []byte{0x78, 0x56, 0x34, 0x12}, LittleEndian.EncodeUint32(0x12345678))

	assert.Equal(t, []byte{0xAB, 0xCD}, BigEndian.EncodeUint16(0xABCD))
	assert.Equal(t, []byte{0xCD, 0xAB}, LittleEndian.EncodeUint16(0xABCD))
}

func TestByteOrdersMirror(t *testing.T) {
	t.Parallel()

	// big-endian and little-endian encodings are byte reversals of each other
	values := []uint32{0x12345678, 0x01020304, 0xDEADBEEF}
	for _, v := range values {
		be := BigEndian.EncodeUint32(v)
		le := LittleEndian.EncodeUint32(v)
		for i := range be {
			assert.Equal(t, be[i], le[3-i], "byte %v of %#x", i, v)
		}
	}
}

func TestBoundsEnforcement(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		bufLen int
		offset int
	}{
		{0, 0},
		{3, 0},
		{4, 1},
		{8, 5},
		{8, 8},
		{8, -1},
	}

	for _, order := range orders {
		for _, tc := range testCases {
			buf := make([]byte, tc.bufLen)

			err := order.PutUint32(buf, tc.offset, 0xCAFEBABE)
			var bounds *BoundsError
			assert.ErrorAs(t, err, &bounds, "write len=%v offset=%v", tc.bufLen, tc.offset)

			_, err = order.Uint32(buf, tc.offset)
			assert.ErrorAs(t, err, &bounds, "read len=%v offset=%v", tc.bufLen, tc.offset)
		}
	}
}

func TestBoundsErrorMessage(t *testing.T) {
	t.Parallel()

	err := BigEndian.PutUint16(make([]byte, 1), 0, 7)
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "write")
	assert.Contains(t, err.Error(), "offset 0")
}

func TestWriteDoesNotTouchNeighbors(t *testing.T) {
	t.Parallel()

	for _, order := range orders {
		buf := []byte{0xEE, 0xEE, 0xEE, 0xEE, 0xEE, 0xEE}
		err := order.PutUint32(buf, 1, 0x01020304)
		assert.Nil(t, err)
		assert.Equal(t, byte(0xEE), buf[0], "byte before window changed")
		assert.Equal(t, byte(0xEE), buf[5], "byte after window changed")
	}
}

package network

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yinyihanbing/gconn/endian"
)

func TestMsgParserDefaults(t *testing.T) {
	t.Parallel()

	p := NewMsgParser()

	msg, err := p.Pack([]byte("hello"))
	require.NoError(t, err, "pack should succeed")
	assert.Equal(t, []byte{0x00, 0x05}, msg[:2], "default prefix is 2-byte big endian")
	assert.Equal(t, []byte("hello"), msg[2:], "body follows the prefix")
}

func TestMsgParserRoundTrip(t *testing.T) {
	t.Parallel()

	orders := []endian.ByteOrder{endian.BigEndian, endian.LittleEndian}
	widths := []int{1, 2, 4}

	for _, order := range orders {
		for _, width := range widths {
			p := NewMsgParser()
			p.SetMsgLen(width, 1, 4096)
			p.SetByteOrder(order)

			body := []byte("the quick brown fox")
			msg, err := p.Pack(body)
			require.NoError(t, err, "pack width=%v order=%v", width, order)

			got, err := p.Read(bytes.NewReader(msg))
			require.NoError(t, err, "read width=%v order=%v", width, order)
			assert.Equal(t, body, got, "body must survive the round trip")
		}
	}
}

func TestMsgParserPrefixByteOrder(t *testing.T) {
	t.Parallel()

	body := make([]byte, 0x0102)

	be := NewMsgParser()
	be.SetByteOrder(endian.BigEndian)
	msg, err := be.Pack(body)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02}, msg[:2], "big endian prefix")

	le := NewMsgParser()
	le.SetByteOrder(endian.LittleEndian)
	msg, err = le.Pack(body)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x02, 0x01}, msg[:2], "little endian prefix")
}

func TestMsgParserPackMultipleParts(t *testing.T) {
	t.Parallel()

	p := NewMsgParser()

	msg, err := p.Pack([]byte("ab"), []byte("cd"), []byte("ef"))
	require.NoError(t, err)
	assert.Equal(t, []byte("abcdef"), msg[2:], "parts are concatenated in order")

	got, err := p.Read(bytes.NewReader(msg))
	require.NoError(t, err)
	assert.Equal(t, []byte("abcdef"), got)
}

func TestMsgParserLengthLimits(t *testing.T) {
	t.Parallel()

	p := NewMsgParser()
	p.SetMsgLen(2, 2, 4)

	_, err := p.Pack([]byte("hello"))
	assert.ErrorIs(t, err, ErrMsgTooLong, "body above the maximum is rejected")

	_, err = p.Pack([]byte("x"))
	assert.ErrorIs(t, err, ErrMsgTooShort, "body below the minimum is rejected")

	// the same limits hold on the read side
	ok := NewMsgParser()
	tooLong, err := ok.Pack([]byte("hello"))
	require.NoError(t, err)
	_, err = p.Read(bytes.NewReader(tooLong))
	assert.ErrorIs(t, err, ErrMsgTooLong)

	tooShort, err := ok.Pack([]byte("x"))
	require.NoError(t, err)
	_, err = p.Read(bytes.NewReader(tooShort))
	assert.ErrorIs(t, err, ErrMsgTooShort)
}

func TestMsgParserClampsLimitsToPrefixWidth(t *testing.T) {
	t.Parallel()

	p := NewMsgParser()
	p.SetMsgLen(1, 1, 5000)

	// a 1-byte prefix cannot express 5000, so the cap falls to 255
	_, err := p.Pack(make([]byte, 256))
	assert.ErrorIs(t, err, ErrMsgTooLong)

	msg, err := p.Pack(make([]byte, 255))
	require.NoError(t, err)
	assert.Equal(t, byte(255), msg[0])
}

func TestMsgParserReadShortStream(t *testing.T) {
	t.Parallel()

	p := NewMsgParser()
	msg, err := p.Pack([]byte("hello"))
	require.NoError(t, err)

	// truncate mid-body
	_, err = p.Read(bytes.NewReader(msg[:4]))
	assert.Error(t, err, "truncated body must not parse")

	// truncate mid-prefix
	_, err = p.Read(bytes.NewReader(msg[:1]))
	assert.Error(t, err, "truncated prefix must not parse")
}

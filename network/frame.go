package network

import (
	"errors"
	"io"
	"math"

	"github.com/yinyihanbing/gconn/endian"
)

var (
	// ErrMsgTooLong reports a message body longer than the parser allows.
	ErrMsgTooLong = errors.New("message too long")
	// ErrMsgTooShort reports a message body shorter than the parser allows.
	ErrMsgTooShort = errors.New("message too short")
)

// MsgParser frames messages with a length prefix. The prefix width, its
// byte order, and the accepted body size range are configurable.
type MsgParser struct {
	lenMsgLen int              // Width of the length prefix (1, 2, or 4 bytes).
	minMsgLen uint32           // Minimum allowed message length.
	maxMsgLen uint32           // Maximum allowed message length.
	order     endian.ByteOrder // Byte order of the length prefix.
}

// NewMsgParser creates a new MsgParser with default settings.
func NewMsgParser() *MsgParser {
	p := new(MsgParser)
	p.lenMsgLen = 2
	p.minMsgLen = 1
	p.maxMsgLen = 4096
	p.order = endian.BigEndian

	return p
}

// SetMsgLen configures the length prefix width and the body size range.
// lenMsgLen: Width of the length prefix (1, 2, or 4 bytes).
// minMsgLen: Minimum allowed message length.
// maxMsgLen: Maximum allowed message length.
func (p *MsgParser) SetMsgLen(lenMsgLen int, minMsgLen uint32, maxMsgLen uint32) {
	if lenMsgLen == 1 || lenMsgLen == 2 || lenMsgLen == 4 {
		p.lenMsgLen = lenMsgLen
	}
	if minMsgLen != 0 {
		p.minMsgLen = minMsgLen
	}
	if maxMsgLen != 0 {
		p.maxMsgLen = maxMsgLen
	}

	var max uint32
	switch p.lenMsgLen {
	case 1:
		max = math.MaxUint8
	case 2:
		max = math.MaxUint16
	case 4:
		max = math.MaxUint32
	}
	if p.minMsgLen > max {
		p.minMsgLen = max
	}
	if p.maxMsgLen > max {
		p.maxMsgLen = max
	}
}

// SetByteOrder sets the byte order of the length prefix.
func (p *MsgParser) SetByteOrder(order endian.ByteOrder) {
	if order != nil {
		p.order = order
	}
}

// Read reads one framed message from r and returns its body.
func (p *MsgParser) Read(r io.Reader) ([]byte, error) {
	var b [4]byte
	bufMsgLen := b[:p.lenMsgLen]

	// read len
	if _, err := io.ReadFull(r, bufMsgLen); err != nil {
		return nil, err
	}

	// parse len
	var msgLen uint32
	switch p.lenMsgLen {
	case 1:
		msgLen = uint32(bufMsgLen[0])
	case 2:
		v, err := p.order.Uint16(bufMsgLen, 0)
		if err != nil {
			return nil, err
		}
		msgLen = uint32(v)
	case 4:
		v, err := p.order.Uint32(bufMsgLen, 0)
		if err != nil {
			return nil, err
		}
		msgLen = v
	}

	// check len
	if msgLen > p.maxMsgLen {
		return nil, ErrMsgTooLong
	} else if msgLen < p.minMsgLen {
		return nil, ErrMsgTooShort
	}

	// data
	msgData := make([]byte, msgLen)
	if _, err := io.ReadFull(r, msgData); err != nil {
		return nil, err
	}

	return msgData, nil
}

// Pack concatenates the message parts behind a length prefix and returns
// the framed message ready for the wire.
func (p *MsgParser) Pack(args ...[]byte) ([]byte, error) {
	// get len
	var msgLen uint32
	for _, arg := range args {
		msgLen += uint32(len(arg))
	}

	// check len
	if msgLen > p.maxMsgLen {
		return nil, ErrMsgTooLong
	} else if msgLen < p.minMsgLen {
		return nil, ErrMsgTooShort
	}

	msg := make([]byte, uint32(p.lenMsgLen)+msgLen)

	// write len
	switch p.lenMsgLen {
	case 1:
		msg[0] = byte(msgLen)
	case 2:
		if err := p.order.PutUint16(msg, 0, uint16(msgLen)); err != nil {
			return nil, err
		}
	case 4:
		if err := p.order.PutUint32(msg, 0, msgLen); err != nil {
			return nil, err
		}
	}

	// write data
	l := p.lenMsgLen
	for _, arg := range args {
		copy(msg[l:], arg)
		l += len(arg)
	}

	return msg, nil
}

// Write frames the message parts and queues them on the connection.
func (p *MsgParser) Write(conn *StreamConn, args ...[]byte) error {
	msg, err := p.Pack(args...)
	if err != nil {
		return err
	}

	conn.Write(msg)

	return nil
}

package protobuf

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"sync"

	"github.com/yinyihanbing/gconn/endian"
	"github.com/yinyihanbing/gutils/logs"
	"google.golang.org/protobuf/proto"
)

// Processor handles the registration, routing, and marshaling of protobuf
// messages. Each frame body carries a 16-bit message ID followed by the
// protobuf payload.
type Processor struct {
	order   endian.ByteOrder        // Byte order of the message ID prefix
	msgInfo []*MsgInfo              // Stores metadata about registered messages
	msgID   map[reflect.Type]uint16 // Maps message types to their IDs
	mu      sync.RWMutex            // Ensures thread-safe access to msgInfo and msgID
}

// MsgInfo contains metadata about a registered message type.
type MsgInfo struct {
	msgType       reflect.Type
	msgDispatcher Dispatcher
	msgHandler    MsgHandler
	msgRawHandler MsgHandler
}

// MsgHandler defines the function signature for message handlers.
type MsgHandler func([]any)

// Dispatcher runs a handler invocation on another goroutine, typically a
// module's own. A module skeleton satisfies it.
type Dispatcher interface {
	Dispatch(f func())
}

// MsgRaw represents a raw protobuf message with its ID and raw data.
type MsgRaw struct {
	msgID      uint16
	msgRawData []byte
}

// NewProcessor creates a new Processor instance with default settings.
func NewProcessor() *Processor {
	return &Processor{
		order: endian.BigEndian,
		msgID: make(map[reflect.Type]uint16),
	}
}

// SetByteOrder sets the byte order of the message ID prefix.
func (p *Processor) SetByteOrder(order endian.ByteOrder) {
	if order != nil {
		p.order = order
	}
}

// Register registers a new message type with the processor. IDs are
// assigned sequentially in registration order.
// Panics if the message is already registered or exceeds the maximum limit.
func (p *Processor) Register(msg proto.Message) uint16 {
	msgType := reflect.TypeOf(msg)
	if err := p.validateMsgType(msgType); err != nil {
		logs.Error("invalid message type: %s", err.Error())
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.msgID[msgType]; ok {
		logs.Error("message type %s is already registered", msgType)
	}
	if len(p.msgInfo) >= math.MaxUint16 {
		logs.Error("exceeded maximum number of protobuf messages (max = %v)", math.MaxUint16)
	}

	i := &MsgInfo{msgType: msgType}
	p.msgInfo = append(p.msgInfo, i)
	id := uint16(len(p.msgInfo) - 1)
	p.msgID[msgType] = id
	return id
}

// SetDispatcher routes a message type's handler invocations through the
// given dispatcher instead of running them on the reader goroutine.
// Panics if the message is not registered.
func (p *Processor) SetDispatcher(msg proto.Message, d Dispatcher) {
	msgType := reflect.TypeOf(msg)
	id := p.getMsgID(msgType)
	p.msgInfo[id].msgDispatcher = d
}

// SetHandler sets a handler function for a specific message type.
// Panics if the message is not registered.
func (p *Processor) SetHandler(msg proto.Message, msgHandler MsgHandler) {
	msgType := reflect.TypeOf(msg)
	id := p.getMsgID(msgType)
	p.msgInfo[id].msgHandler = msgHandler
}

// SetRawHandler sets a raw handler function for a specific message ID.
// Panics if the message ID is not registered.
func (p *Processor) SetRawHandler(id uint16, msgRawHandler MsgHandler) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if id >= uint16(len(p.msgInfo)) {
		logs.Fatal("message ID %v is not registered", id)
	}
	p.msgInfo[id].msgRawHandler = msgRawHandler
}

// Route routes a message to its registered handler. With a dispatcher set,
// the handler runs on the dispatcher's goroutine; otherwise it runs inline.
func (p *Processor) Route(msg any, userData any) error {
	// raw
	if msgRaw, ok := msg.(MsgRaw); ok {
		if msgRaw.msgID >= uint16(len(p.msgInfo)) {
			return fmt.Errorf("message ID %v is not registered", msgRaw.msgID)
		}
		i := p.msgInfo[msgRaw.msgID]
		if i.msgRawHandler != nil {
			i.msgRawHandler([]any{msgRaw.msgID, msgRaw.msgRawData, userData})
		}
		return nil
	}

	// protobuf
	msgType := reflect.TypeOf(msg)
	id, ok := p.msgID[msgType]
	if !ok {
		return fmt.Errorf("message type %s is not registered", msgType)
	}
	i := p.msgInfo[id]
	if i.msgHandler != nil {
		if i.msgDispatcher != nil {
			i.msgDispatcher.Dispatch(func() {
				i.msgHandler([]any{msg, userData})
			})
		} else {
			i.msgHandler([]any{msg, userData})
		}
	}
	return nil
}

// Unmarshal decodes the message ID prefix, then unmarshals the remaining
// bytes into the registered message type. A frame too short to carry the ID
// fails the decode.
func (p *Processor) Unmarshal(data []byte) (any, error) {
	// id
	id, err := p.order.Uint16(data, 0)
	if err != nil {
		return nil, err
	}
	if id >= uint16(len(p.msgInfo)) {
		return nil, fmt.Errorf("message ID %v is not registered", id)
	}

	// msgInfo
	i := p.msgInfo[id]
	if i.msgRawHandler != nil {
		return MsgRaw{id, data[2:]}, nil
	}

	// protobuf message
	msg := reflect.New(i.msgType.Elem()).Interface()
	if err := proto.Unmarshal(data[2:], msg.(proto.Message)); err != nil {
		return nil, err
	}

	return msg, nil
}

// Marshal encodes the message ID prefix and the protobuf payload as
// separate parts for the framing layer to concatenate.
func (p *Processor) Marshal(msg any) ([][]byte, error) {
	msgType := reflect.TypeOf(msg)

	// id
	_id, ok := p.msgID[msgType]
	if !ok {
		err := fmt.Errorf("message type %s is not registered", msgType)
		return nil, err
	}

	id := p.order.EncodeUint16(_id)

	// data
	data, err := proto.Marshal(msg.(proto.Message))
	return [][]byte{id, data}, err
}

// Range iterates over all registered message types and their IDs.
func (p *Processor) Range(f func(id uint16, t reflect.Type)) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for id, i := range p.msgInfo {
		f(uint16(id), i.msgType)
	}
}

// validateMsgType validates that the message type is a pointer.
func (p *Processor) validateMsgType(msgType reflect.Type) error {
	if msgType == nil || msgType.Kind() != reflect.Ptr {
		return errors.New("protobuf message pointer required")
	}
	return nil
}

// getMsgID retrieves the ID for a given message type.
// Panics if the message type is not registered.
func (p *Processor) getMsgID(msgType reflect.Type) uint16 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	id, ok := p.msgID[msgType]
	if !ok {
		logs.Fatal("message type %s is not registered", msgType)
	}
	return id
}

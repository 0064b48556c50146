package json

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/yinyihanbing/gutils/logs"
)

// Processor handles the registration, routing, and marshaling of JSON messages.
type Processor struct {
	msgInfo map[string]*MsgInfo // Stores metadata about registered messages
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

// MsgRaw represents a raw JSON message with its ID and raw data.
type MsgRaw struct {
	msgID      string
	msgRawData json.RawMessage
}

// NewProcessor creates a new Processor instance with an initialized msgInfo map.
func NewProcessor() *Processor {
	p := new(Processor)
	p.msgInfo = make(map[string]*MsgInfo)
	return p
}

// getMsgInfo retrieves message metadata and ID for a given message.
// Panics if the message is not registered or is not a pointer.
func (p *Processor) getMsgInfo(msg any) (*MsgInfo, string) {
	msgType := reflect.TypeOf(msg)
	if msgType == nil || msgType.Kind() != reflect.Ptr {
		logs.Fatal("json message pointer is required")
	}
	msgID := msgType.Elem().Name()
	i, ok := p.msgInfo[msgID]
	if !ok {
		logs.Fatal("message %v is not registered", msgID)
	}
	return i, msgID
}

// Register registers a new message type with the processor. The message
// must be a named struct pointer; its type name becomes the message ID.
// Panics if the message is already registered or invalid.
func (p *Processor) Register(msg any) string {
	msgType := reflect.TypeOf(msg)
	if msgType == nil || msgType.Kind() != reflect.Ptr {
		logs.Fatal("json message pointer is required")
	}
	msgID := msgType.Elem().Name()
	if msgID == "" {
		logs.Fatal("json message must have a name")
	}
	if _, ok := p.msgInfo[msgID]; ok {
		logs.Fatal("message %v is already registered", msgID)
	}

	i := &MsgInfo{msgType: msgType}
	p.msgInfo[msgID] = i
	return msgID
}

// SetDispatcher routes a message type's handler invocations through the
// given dispatcher instead of running them on the reader goroutine.
// Panics if the message is not registered.
func (p *Processor) SetDispatcher(msg any, d Dispatcher) {
	i, _ := p.getMsgInfo(msg)
	i.msgDispatcher = d
}

// SetHandler sets a handler function for a specific message type.
// Panics if the message is not registered.
func (p *Processor) SetHandler(msg any, msgHandler MsgHandler) {
	i, _ := p.getMsgInfo(msg)
	i.msgHandler = msgHandler
}

// SetRawHandler sets a raw handler function for a specific message ID.
// Panics if the message is not registered.
func (p *Processor) SetRawHandler(msgID string, msgRawHandler MsgHandler) {
	i, ok := p.msgInfo[msgID]
	if !ok {
		logs.Fatal("message %v is not registered", msgID)
	}
	i.msgRawHandler = msgRawHandler
}

// Route routes a message to its registered handler. With a dispatcher set,
// the handler runs on the dispatcher's goroutine; otherwise it runs inline.
func (p *Processor) Route(msg any, userData any) error {
	// raw
	if msgRaw, ok := msg.(MsgRaw); ok {
		i, ok := p.msgInfo[msgRaw.msgID]
		if !ok {
			return fmt.Errorf("message %v is not registered", msgRaw.msgID)
		}
		if i.msgRawHandler != nil {
			i.msgRawHandler([]any{msgRaw.msgID, msgRaw.msgRawData, userData})
		}
		return nil
	}

	// json
	msgType := reflect.TypeOf(msg)
	if msgType == nil || msgType.Kind() != reflect.Ptr {
		return errors.New("json message pointer is required")
	}
	msgID := msgType.Elem().Name()
	i, ok := p.msgInfo[msgID]
	if !ok {
		return fmt.Errorf("message %v is not registered", msgID)
	}
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

// Unmarshal unmarshals JSON data into a message object. The data must be a
// single-key object mapping the message ID to its body.
func (p *Processor) Unmarshal(data []byte) (any, error) {
	var m map[string]json.RawMessage
	err := json.Unmarshal(data, &m)
	if err != nil {
		return nil, err
	}
	if len(m) != 1 {
		return nil, errors.New("invalid json data")
	}

	for msgID, data := range m {
		i, ok := p.msgInfo[msgID]
		if !ok {
			return nil, fmt.Errorf("message %v is not registered", msgID)
		}

		// msg
		if i.msgRawHandler != nil {
			return MsgRaw{msgID, data}, nil
		} else {
			msg := reflect.New(i.msgType.Elem()).Interface()
			return msg, json.Unmarshal(data, msg)
		}
	}

	panic("unreachable code")
}

// Marshal marshals a message object into JSON data keyed by its message ID.
func (p *Processor) Marshal(msg any) ([][]byte, error) {
	msgType := reflect.TypeOf(msg)
	if msgType == nil || msgType.Kind() != reflect.Ptr {
		return nil, errors.New("json message pointer is required")
	}
	msgID := msgType.Elem().Name()
	if _, ok := p.msgInfo[msgID]; !ok {
		return nil, fmt.Errorf("message %v is not registered", msgID)
	}

	// data
	m := map[string]any{msgID: msg}
	data, err := json.Marshal(m)
	return [][]byte{data}, err
}

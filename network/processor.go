package network

// Processor turns frame bodies into registered message values and
// dispatches them to their handlers.
type Processor interface {
	// Route dispatches a decoded message to its registered handler.
	// Must be goroutine-safe.
	Route(msg any, userData any) error

	// Unmarshal decodes a frame body into a registered message value.
	// Must be goroutine-safe.
	Unmarshal(data []byte) (any, error)

	// Marshal encodes a message into frame body parts.
	// Must be goroutine-safe.
	Marshal(msg any) ([][]byte, error)
}

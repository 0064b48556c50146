package gate

import (
	"net"
)

// Agent is one connected peer as seen by message handlers. It carries the
// connection plus a slot for user data such as a session or player binding.
type Agent interface {
	// WriteMsg marshals msg with the gate's processor and sends it.
	WriteMsg(msg any)

	// LocalAddr returns the local network address of the agent.
	LocalAddr() net.Addr

	// RemoteAddr returns the remote network address of the agent.
	RemoteAddr() net.Addr

	// Close gracefully closes the connection.
	Close()

	// Destroy forcefully terminates the connection and cleans up resources.
	Destroy()

	// UserData retrieves the user-defined data associated with the agent.
	UserData() any

	// SetUserData sets user-defined data for the agent.
	SetUserData(data any)
}

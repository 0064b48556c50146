package network

// Agent handles one connection. A transport calls Run on its own goroutine
// once the connection is established and OnClose after it goes away.
type Agent interface {
	// Run starts the agent's read loop. Returning ends the connection.
	Run()

	// OnClose is called when the connection is closed.
	// Used for cleanup or releasing resources.
	OnClose()
}

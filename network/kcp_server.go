package network

import (
	"net"
	"sync"

	kcp "github.com/xtaci/kcp-go/v5"
	"github.com/yinyihanbing/gconn/endian"
	"github.com/yinyihanbing/gutils/logs"
)

// KCPServer accepts KCP sessions over UDP and runs them through the same
// stream connection and framing pipeline as TCP.
type KCPServer struct {
	// Address to listen on
	Addr string
	// Forward error correction shards. Zero disables FEC.
	DataShards   int
	ParityShards int
	// Maximum number of concurrent connections
	MaxConnNum int
	// Maximum number of pending writes per connection
	PendingWriteNum int
	// Callback to create a new agent for each connection
	NewAgent func(*StreamConn) Agent
	ln       *kcp.Listener
	conns    ConnSet
	// Mutex to protect access to the connection set
	mutexConns sync.Mutex
	wgLn       sync.WaitGroup
	wgConns    sync.WaitGroup

	// Message parser configuration
	LenMsgLen int
	MinMsgLen uint32
	MaxMsgLen uint32
	ByteOrder endian.ByteOrder
	msgParser *MsgParser
}

// Start initializes the server and starts accepting sessions.
func (server *KCPServer) Start() {
	server.init()
	go server.run()
}

// init initializes the server configuration and message parser.
func (server *KCPServer) init() {
	ln, err := kcp.ListenWithOptions(server.Addr, nil, server.DataShards, server.ParityShards)
	if err != nil {
		logs.Fatal("failed to start kcp listener: %v", err)
	}

	if server.MaxConnNum <= 0 {
		server.MaxConnNum = 100
		logs.Info("invalid maxconnnum. resetting to default value: %v", server.MaxConnNum)
	}
	if server.PendingWriteNum <= 0 {
		server.PendingWriteNum = 100
		logs.Info("invalid pendingwritenum. resetting to default value: %v", server.PendingWriteNum)
	}
	if server.NewAgent == nil {
		logs.Fatal("newagent callback must not be nil. please provide a valid function.")
	}

	server.ln = ln
	server.conns = make(ConnSet)

	msgParser := NewMsgParser()
	msgParser.SetMsgLen(server.LenMsgLen, server.MinMsgLen, server.MaxMsgLen)
	msgParser.SetByteOrder(server.ByteOrder)
	server.msgParser = msgParser
}

// ListenAddr returns the address the server is listening on. Useful when
// the configured address picked an ephemeral port.
func (server *KCPServer) ListenAddr() net.Addr {
	if server.ln == nil {
		return nil
	}
	return server.ln.Addr()
}

// run accepts sessions and handles them.
func (server *KCPServer) run() {
	server.wgLn.Add(1)
	defer server.wgLn.Done()

	for {
		session, err := server.ln.AcceptKCP()
		if err != nil {
			logs.Error("accept failed: %v", err)
			return
		}
		session.SetStreamMode(true)

		server.mutexConns.Lock()
		if len(server.conns) >= server.MaxConnNum {
			server.mutexConns.Unlock()
			session.Close()
			logs.Error("too many connections. conn num=%v, limit=%v", len(server.conns), server.MaxConnNum)
			continue
		}
		server.conns[session] = struct{}{}
		server.mutexConns.Unlock()

		server.wgConns.Add(1)

		streamConn := newStreamConn(session, server.PendingWriteNum, server.msgParser)
		agent := server.NewAgent(streamConn)
		go func() {
			agent.Run()

			// Cleanup after connection is closed
			streamConn.Close()
			server.mutexConns.Lock()
			delete(server.conns, session)
			server.mutexConns.Unlock()
			agent.OnClose()

			server.wgConns.Done()
		}()
	}
}

// Close gracefully shuts down the server and closes all active sessions.
func (server *KCPServer) Close() {
	server.ln.Close()
	server.wgLn.Wait()

	server.mutexConns.Lock()
	for conn := range server.conns {
		conn.Close()
	}
	server.conns = nil
	server.mutexConns.Unlock()

	server.wgConns.Wait()
}

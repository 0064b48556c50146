package network

import (
	"net"
	"sync"
	"time"

	"github.com/yinyihanbing/gconn/endian"
	"github.com/yinyihanbing/gutils/logs"
)

// TCPClient maintains outbound connections to a host and service. Each
// connection is established through a Dialer, framed with a MsgParser, and
// handed to an Agent.
type TCPClient struct {
	sync.Mutex
	Host            string
	Service         string
	ConnNum         int
	ConnectInterval time.Duration
	PendingWriteNum int
	AutoReconnect   bool
	NewAgent        func(*StreamConn) Agent
	Dialer          *Dialer
	conns           ConnSet
	wg              sync.WaitGroup
	closeFlag       bool

	// msg parser
	LenMsgLen int
	MinMsgLen uint32
	MaxMsgLen uint32
	ByteOrder endian.ByteOrder
	msgParser *MsgParser
}

// Start initializes the client and starts the connection goroutines.
func (client *TCPClient) Start() {
	client.init()

	for i := 0; i < client.ConnNum; i++ {
		client.wg.Add(1)
		go client.connect()
	}
}

// init initializes the client configuration and message parser.
func (client *TCPClient) init() {
	client.Lock()
	defer client.Unlock()

	client.validateConfig()

	if client.conns != nil {
		logs.Fatal("tcpclient is already running. duplicate start() calls are not allowed.")
	}

	client.conns = make(ConnSet)
	client.closeFlag = false

	client.initMsgParser()
}

// validateConfig validates and adjusts the client configuration.
func (client *TCPClient) validateConfig() {
	if client.ConnNum <= 0 {
		client.ConnNum = 1
		logs.Info("invalid connnum. resetting to default value: %v", client.ConnNum)
	}
	if client.ConnectInterval <= 0 {
		client.ConnectInterval = 3 * time.Second
		logs.Info("invalid connectinterval. resetting to default value: %v", client.ConnectInterval)
	}
	if client.PendingWriteNum <= 0 {
		client.PendingWriteNum = 100
		logs.Info("invalid pendingwritenum. resetting to default value: %v", client.PendingWriteNum)
	}
	if client.NewAgent == nil {
		logs.Fatal("newagent callback must not be nil. please provide a valid function.")
	}
	if client.Dialer == nil {
		client.Dialer = &Dialer{}
	}
}

// initMsgParser initializes the message parser with the configured parameters.
func (client *TCPClient) initMsgParser() {
	msgParser := NewMsgParser()
	msgParser.SetMsgLen(client.LenMsgLen, client.MinMsgLen, client.MaxMsgLen)
	msgParser.SetByteOrder(client.ByteOrder)
	client.msgParser = msgParser
}

// dial attempts to establish a connection to the configured host and
// service. Each attempt resolves and connects once; failed attempts are
// retried after the connect interval until the client is closed.
func (client *TCPClient) dial() net.Conn {
	for {
		conn, err := client.Dialer.DialConn(client.Host, client.Service)
		if err == nil || client.closeFlag {
			return conn
		}

		logs.Info("failed to connect to %v:%v. error: %v. retrying in %v...", client.Host, client.Service, err, client.ConnectInterval)
		time.Sleep(client.ConnectInterval)
	}
}

// connect handles the connection lifecycle, including reconnection logic.
func (client *TCPClient) connect() {
	defer client.wg.Done()

	for {
		conn := client.dial()
		if conn == nil {
			return
		}

		if !client.handleConnection(conn) {
			return
		}

		if !client.AutoReconnect {
			break
		}
		time.Sleep(client.ConnectInterval)
	}
}

// handleConnection manages a single connection, including agent lifecycle and cleanup.
func (client *TCPClient) handleConnection(conn net.Conn) bool {
	client.Lock()
	if client.closeFlag {
		client.Unlock()
		conn.Close()
		return false
	}
	client.conns[conn] = struct{}{}
	client.Unlock()

	streamConn := newStreamConn(conn, client.PendingWriteNum, client.msgParser)
	agent := client.NewAgent(streamConn)
	agent.Run()

	// Cleanup after connection is closed
	streamConn.Close()
	client.Lock()
	delete(client.conns, conn)
	client.Unlock()
	agent.OnClose()

	return true
}

// Close gracefully shuts down the client, closing all active connections.
func (client *TCPClient) Close() {
	client.Lock()
	client.closeFlag = true
	for conn := range client.conns {
		conn.Close()
	}
	client.conns = nil
	client.Unlock()

	client.wg.Wait()
}

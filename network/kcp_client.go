package network

import (
	"sync"
	"time"

	kcp "github.com/xtaci/kcp-go/v5"
	"github.com/yinyihanbing/gconn/endian"
	"github.com/yinyihanbing/gutils/logs"
)

// KCPClient maintains outbound KCP sessions to an address. Sessions share
// the stream connection and framing pipeline with TCP.
type KCPClient struct {
	sync.Mutex
	Addr string
	// Forward error correction shards. Zero disables FEC.
	DataShards      int
	ParityShards    int
	ConnNum         int
	ConnectInterval time.Duration
	PendingWriteNum int
	AutoReconnect   bool
	NewAgent        func(*StreamConn) Agent
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

// Start initializes the client and starts the session goroutines.
func (client *KCPClient) Start() {
	client.init()

	for i := 0; i < client.ConnNum; i++ {
		client.wg.Add(1)
		go client.connect()
	}
}

func (client *KCPClient) init() {
	client.Lock()
	defer client.Unlock()

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

	if client.conns != nil {
		logs.Fatal("kcpclient is already running. duplicate start() calls are not allowed.")
	}

	client.conns = make(ConnSet)
	client.closeFlag = false

	msgParser := NewMsgParser()
	msgParser.SetMsgLen(client.LenMsgLen, client.MinMsgLen, client.MaxMsgLen)
	msgParser.SetByteOrder(client.ByteOrder)
	client.msgParser = msgParser
}

// dial attempts to establish a session to the configured address.
func (client *KCPClient) dial() *kcp.UDPSession {
	for {
		session, err := kcp.DialWithOptions(client.Addr, nil, client.DataShards, client.ParityShards)
		if err == nil || client.closeFlag {
			if session != nil {
				session.SetStreamMode(true)
			}
			return session
		}

		logs.Info("failed to connect to %v. error: %v. retrying in %v...", client.Addr, err, client.ConnectInterval)
		time.Sleep(client.ConnectInterval)
	}
}

// connect handles the session lifecycle, including reconnection logic.
func (client *KCPClient) connect() {
	defer client.wg.Done()

	for {
		session := client.dial()
		if session == nil {
			return
		}

		client.Lock()
		if client.closeFlag {
			client.Unlock()
			session.Close()
			return
		}
		client.conns[session] = struct{}{}
		client.Unlock()

		streamConn := newStreamConn(session, client.PendingWriteNum, client.msgParser)
		agent := client.NewAgent(streamConn)
		agent.Run()

		// Cleanup after session is closed
		streamConn.Close()
		client.Lock()
		delete(client.conns, session)
		client.Unlock()
		agent.OnClose()

		if !client.AutoReconnect {
			break
		}
		time.Sleep(client.ConnectInterval)
	}
}

// Close gracefully shuts down the client, closing all active sessions.
func (client *KCPClient) Close() {
	client.Lock()
	client.closeFlag = true
	for conn := range client.conns {
		conn.Close()
	}
	client.conns = nil
	client.Unlock()

	client.wg.Wait()
}

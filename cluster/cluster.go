package cluster

import (
	"math"
	"net"
	"reflect"
	"time"

	"github.com/yinyihanbing/gconn/conf"
	"github.com/yinyihanbing/gconn/network"
	"github.com/yinyihanbing/gconn/network/protobuf"
	"github.com/yinyihanbing/gutils/logs"
)

var (
	server  *network.TCPServer
	clients []*network.TCPClient

	// Processor decodes and routes messages on cluster connections.
	// Set it before Init. Defaults to a protobuf processor.
	Processor network.Processor

	// OnAgentNew and OnAgentClose observe the cluster connection lifecycle.
	// Set them before Init.
	OnAgentNew   func(*Agent)
	OnAgentClose func(*Agent)
)

// Init starts the cluster listener and the outbound connections configured
// in conf.
func Init() {
	if Processor == nil {
		Processor = protobuf.NewProcessor()
	}

	if conf.ListenAddr != "" {
		server = new(network.TCPServer)
		server.Addr = conf.ListenAddr
		server.MaxConnNum = int(math.MaxInt32)
		server.PendingWriteNum = conf.PendingWriteNum
		server.LenMsgLen = 2
		server.MaxMsgLen = math.MaxUint32
		server.NewAgent = newAgent

		server.Start()

		logs.Info("cluster service startup: %v", conf.ListenAddr)
	}

	dialer := &network.Dialer{Resolver: resolver()}

	for _, addr := range conf.ConnAddrs {
		host, service, err := net.SplitHostPort(addr)
		if err != nil {
			logs.Fatal("invalid cluster address %v: %v", addr, err)
		}

		client := new(network.TCPClient)
		client.Host = host
		client.Service = service
		client.Dialer = dialer
		client.ConnNum = 1
		client.ConnectInterval = 3 * time.Second
		client.PendingWriteNum = conf.PendingWriteNum
		client.LenMsgLen = 2
		client.MaxMsgLen = math.MaxUint32
		client.NewAgent = newAgent
		client.AutoReconnect = true

		client.Start()
		clients = append(clients, client)

		logs.Info("cluster client startup: %v", addr)
	}
}

// Destroy stops the cluster listener and all outbound connections.
func Destroy() {
	if server != nil {
		server.Close()
	}

	for _, client := range clients {
		client.Close()
	}
}

// resolver returns the address resolver for outbound cluster connections.
func resolver() network.Resolver {
	if conf.EnableIPv6 {
		return &network.IPResolver{Network: "ip"}
	}
	return &network.IPResolver{}
}

// Agent is one cluster peer connection.
type Agent struct {
	conn *network.StreamConn
}

func newAgent(conn *network.StreamConn) network.Agent {
	a := new(Agent)
	a.conn = conn
	if OnAgentNew != nil {
		OnAgentNew(a)
	}
	return a
}

// Run reads and routes messages until the connection goes away.
func (a *Agent) Run() {
	for {
		data, err := a.conn.ReadMsg()
		if err != nil {
			break
		}

		msg, err := Processor.Unmarshal(data)
		if err != nil {
			logs.Error("unmarshal message error: %v", err)
			break
		}

		err = Processor.Route(msg, a)
		if err != nil {
			logs.Error("route message error: %v", err)
			break
		}
	}
}

// OnClose notifies the close hook if configured.
func (a *Agent) OnClose() {
	if OnAgentClose != nil {
		OnAgentClose(a)
	}
}

// WriteMsg marshals the message with the cluster processor and sends it.
func (a *Agent) WriteMsg(msg any) {
	data, err := Processor.Marshal(msg)
	if err != nil {
		logs.Error("marshal message %v error: %v", reflect.TypeOf(msg), err)
		return
	}
	err = a.conn.WriteMsg(data...)
	if err != nil {
		logs.Error("write message %v error: %v", reflect.TypeOf(msg), err)
	}
}

// LocalAddr returns the local address of the connection.
func (a *Agent) LocalAddr() net.Addr {
	return a.conn.LocalAddr()
}

// RemoteAddr returns the remote address of the connection.
func (a *Agent) RemoteAddr() net.Addr {
	return a.conn.RemoteAddr()
}

// Close closes the connection gracefully.
func (a *Agent) Close() {
	a.conn.Close()
}

// Destroy forcefully closes the connection.
func (a *Agent) Destroy() {
	a.conn.Destroy()
}

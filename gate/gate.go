package gate

import (
	"net"
	"reflect"
	"time"

	"github.com/yinyihanbing/gconn/endian"
	"github.com/yinyihanbing/gconn/network"
	"github.com/yinyihanbing/gutils/logs"
)

// Gate fronts the configured transports and hands every connection to the
// shared processor as an Agent. It runs as a module.
type Gate struct {
	MaxConnNum      int
	PendingWriteNum int
	MaxMsgLen       uint32
	Processor       network.Processor

	// OnAgentNew is called for every new agent before its read loop starts.
	OnAgentNew func(Agent)
	// OnAgentClose is called after an agent's connection goes away.
	OnAgentClose func(Agent)

	// websocket
	WSAddr      string
	HTTPTimeout time.Duration
	CertFile    string
	KeyFile     string

	// tcp
	TCPAddr   string
	LenMsgLen int
	ByteOrder endian.ByteOrder

	// kcp
	KCPAddr      string
	DataShards   int
	ParityShards int
}

// Run starts the configured servers and waits for a close signal.
func (gate *Gate) Run(closeSig chan bool) {
	newStreamAgent := func(conn *network.StreamConn) network.Agent {
		a := &agent{conn: conn, gate: gate}
		if gate.OnAgentNew != nil {
			gate.OnAgentNew(a)
		}
		return a
	}

	var wsServer *network.WSServer
	if gate.WSAddr != "" {
		// initialize websocket server
		wsServer = new(network.WSServer)
		wsServer.Addr = gate.WSAddr
		wsServer.MaxConnNum = gate.MaxConnNum
		wsServer.PendingWriteNum = gate.PendingWriteNum
		wsServer.MaxMsgLen = gate.MaxMsgLen
		wsServer.HTTPTimeout = gate.HTTPTimeout
		wsServer.CertFile = gate.CertFile
		wsServer.KeyFile = gate.KeyFile
		wsServer.NewAgent = func(conn *network.WSConn) network.Agent {
			a := &agent{conn: conn, gate: gate}
			if gate.OnAgentNew != nil {
				gate.OnAgentNew(a)
			}
			return a
		}
	}

	var tcpServer *network.TCPServer
	if gate.TCPAddr != "" {
		// initialize tcp server
		tcpServer = new(network.TCPServer)
		tcpServer.Addr = gate.TCPAddr
		tcpServer.MaxConnNum = gate.MaxConnNum
		tcpServer.PendingWriteNum = gate.PendingWriteNum
		tcpServer.LenMsgLen = gate.LenMsgLen
		tcpServer.MaxMsgLen = gate.MaxMsgLen
		tcpServer.ByteOrder = gate.ByteOrder
		tcpServer.NewAgent = newStreamAgent
	}

	var kcpServer *network.KCPServer
	if gate.KCPAddr != "" {
		// initialize kcp server
		kcpServer = new(network.KCPServer)
		kcpServer.Addr = gate.KCPAddr
		kcpServer.DataShards = gate.DataShards
		kcpServer.ParityShards = gate.ParityShards
		kcpServer.MaxConnNum = gate.MaxConnNum
		kcpServer.PendingWriteNum = gate.PendingWriteNum
		kcpServer.LenMsgLen = gate.LenMsgLen
		kcpServer.MaxMsgLen = gate.MaxMsgLen
		kcpServer.ByteOrder = gate.ByteOrder
		kcpServer.NewAgent = newStreamAgent
	}

	// start websocket server if configured
	if wsServer != nil {
		wsServer.Start()
		logs.Info("gate ws service startup: %v", wsServer.Addr)
	}
	// start tcp server if configured
	if tcpServer != nil {
		tcpServer.Start()
		logs.Info("gate tcp service startup: %v", tcpServer.Addr)
	}
	// start kcp server if configured
	if kcpServer != nil {
		kcpServer.Start()
		logs.Info("gate kcp service startup: %v", kcpServer.Addr)
	}
	// wait for close signal
	<-closeSig
	// stop websocket server if running
	if wsServer != nil {
		wsServer.Close()
		logs.Info("gate ws service stopped: %v", wsServer.Addr)
	}
	// stop tcp server if running
	if tcpServer != nil {
		tcpServer.Close()
		logs.Info("gate tcp service stopped: %v", tcpServer.Addr)
	}
	// stop kcp server if running
	if kcpServer != nil {
		kcpServer.Close()
		logs.Info("gate kcp service stopped: %v", kcpServer.Addr)
	}
}

// OnInit is a placeholder so a bare gate satisfies the module interface.
func (gate *Gate) OnInit() {}

// OnDestroy is a placeholder for cleanup logic when the gate is destroyed.
func (gate *Gate) OnDestroy() {}

type agent struct {
	conn     network.Conn
	gate     *Gate
	userData any
}

// Run is the main loop for reading and processing messages from the connection.
func (a *agent) Run() {
	for {
		data, err := a.conn.ReadMsg()
		if err != nil {
			break
		}
		if a.gate.Processor != nil {
			// unmarshal and route the message
			msg, err := a.gate.Processor.Unmarshal(data)
			if err != nil {
				logs.Debug("unmarshal message error: %v", err)
				break
			}
			err = a.gate.Processor.Route(msg, a)
			if err != nil {
				logs.Debug("route message error: %v", err)
				break
			}
		}
	}
}

// OnClose notifies the close hook if configured.
func (a *agent) OnClose() {
	if a.gate.OnAgentClose != nil {
		a.gate.OnAgentClose(a)
	}
}

// WriteMsg marshals the message and writes it to the connection.
func (a *agent) WriteMsg(msg any) {
	if a.gate.Processor != nil {
		data, err := a.gate.Processor.Marshal(msg)
		if err != nil {
			logs.Error("marshal message %v error: %v", reflect.TypeOf(msg), err)
			return
		}
		err = a.conn.WriteMsg(data...)
		if err != nil {
			logs.Error("write message %v error: %v", reflect.TypeOf(msg), err)
		}
	}
}

// LocalAddr returns the local address of the connection.
func (a *agent) LocalAddr() net.Addr {
	return a.conn.LocalAddr()
}

// RemoteAddr returns the remote address of the connection.
func (a *agent) RemoteAddr() net.Addr {
	return a.conn.RemoteAddr()
}

// Close closes the connection.
func (a *agent) Close() {
	a.conn.Close()
}

// Destroy destroys the connection.
func (a *agent) Destroy() {
	a.conn.Destroy()
}

// UserData returns the user data associated with the agent.
func (a *agent) UserData() any {
	return a.userData
}

// SetUserData sets the user data associated with the agent.
func (a *agent) SetUserData(data any) {
	a.userData = data
}

package network

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yinyihanbing/gconn/endian"
)

// echoAgent writes every framed message straight back.
type echoAgent struct {
	conn Conn
}

func (a *echoAgent) Run() {
	for {
		data, err := a.conn.ReadMsg()
		if err != nil {
			return
		}
		if err := a.conn.WriteMsg(data); err != nil {
			return
		}
	}
}

func (a *echoAgent) OnClose() {}

// pushAgent writes one message, then delivers every reply to a channel.
type pushAgent struct {
	conn    Conn
	payload []byte
	replies chan []byte
}

func (a *pushAgent) Run() {
	if err := a.conn.WriteMsg(a.payload); err != nil {
		return
	}
	for {
		data, err := a.conn.ReadMsg()
		if err != nil {
			return
		}
		a.replies <- data
	}
}

func (a *pushAgent) OnClose() {}

func startEchoTCPServer(t *testing.T, order endian.ByteOrder) *TCPServer {
	t.Helper()

	server := &TCPServer{
		Addr:      "127.0.0.1:0",
		ByteOrder: order,
		NewAgent: func(conn *StreamConn) Agent {
			return &echoAgent{conn: conn}
		},
	}
	server.Start()
	t.Cleanup(server.Close)
	return server
}

func TestTCPServerEcho(t *testing.T) {
	t.Parallel()

	for _, order := range []endian.ByteOrder{endian.BigEndian, endian.LittleEndian} {
		server := startEchoTCPServer(t, order)

		conn, err := net.Dial("tcp", server.ListenAddr().String())
		require.NoError(t, err)

		parser := NewMsgParser()
		parser.SetByteOrder(order)

		msg, err := parser.Pack([]byte("ping"))
		require.NoError(t, err)
		_, err = conn.Write(msg)
		require.NoError(t, err)

		reply, err := parser.Read(conn)
		require.NoError(t, err, "order %v", order)
		assert.Equal(t, []byte("ping"), reply, "order %v", order)

		conn.Close()
	}
}

func TestTCPClientServerEcho(t *testing.T) {
	t.Parallel()

	server := startEchoTCPServer(t, endian.BigEndian)

	_, service, err := net.SplitHostPort(server.ListenAddr().String())
	require.NoError(t, err)

	replies := make(chan []byte, 1)
	client := &TCPClient{
		Host:    "127.0.0.1",
		Service: service,
		NewAgent: func(conn *StreamConn) Agent {
			return &pushAgent{conn: conn, payload: []byte("over the wire"), replies: replies}
		},
	}
	client.Start()
	defer client.Close()

	select {
	case reply := <-replies:
		assert.Equal(t, []byte("over the wire"), reply)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the echo reply")
	}
}

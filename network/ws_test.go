package network

import (
	"fmt"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWSServerEcho(t *testing.T) {
	t.Parallel()

	server := &WSServer{
		Addr:        "127.0.0.1:0",
		HTTPTimeout: 5 * time.Second,
		NewAgent: func(conn *WSConn) Agent {
			return &echoAgent{conn: conn}
		},
	}
	server.Start()
	defer server.Close()

	url := fmt.Sprintf("ws://%v/", server.ListenAddr())
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err, "websocket handshake")
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte("ws ping")))

	mt, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, mt)
	assert.Equal(t, []byte("ws ping"), data)
}

func TestWSConnRejectsOversizedWrite(t *testing.T) {
	t.Parallel()

	got := make(chan *WSConn, 1)
	server := &WSServer{
		Addr:        "127.0.0.1:0",
		MaxMsgLen:   8,
		HTTPTimeout: 5 * time.Second,
		NewAgent: func(conn *WSConn) Agent {
			got <- conn
			return &echoAgent{conn: conn}
		},
	}
	server.Start()
	defer server.Close()

	url := fmt.Sprintf("ws://%v/", server.ListenAddr())
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	wsConn := <-got
	assert.ErrorIs(t, wsConn.WriteMsg(make([]byte, 9)), ErrMsgTooLong)
	assert.ErrorIs(t, wsConn.WriteMsg(), ErrMsgTooShort)
}

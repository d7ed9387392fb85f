package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_SendToClient(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub(logrus.NewEntry(log))
	go hub.Run(ctx)

	router := gin.New()
	router.GET("/ws/optimization-progress/:client_id", hub.HandleWebSocket)
	server := httptest.NewServer(router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/optimization-progress/client-42"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.IsConnected("client-42") }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, hub.GetConnectionCount())

	hub.SendToClient("other-client", "optimization_progress", map[string]int{"completed": 9})
	hub.SendToClient("client-42", "optimization_progress", map[string]int{"completed": 1})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Type string         `json:"type"`
		Data map[string]int `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "optimization_progress", msg.Type)
	assert.Equal(t, 1, msg.Data["completed"])

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.GetConnectionCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_BroadcastToAll(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(logrus.NewEntry(log))
	go hub.Run(ctx)

	router := gin.New()
	router.GET("/ws/optimization-progress/:client_id", hub.HandleWebSocket)
	server := httptest.NewServer(router)
	defer server.Close()

	base := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/optimization-progress/"
	first, _, err := websocket.DefaultDialer.Dial(base+"a", nil)
	require.NoError(t, err)
	defer first.Close()
	second, _, err := websocket.DefaultDialer.Dial(base+"b", nil)
	require.NoError(t, err)
	defer second.Close()

	require.Eventually(t, func() bool { return hub.GetConnectionCount() == 2 }, 2*time.Second, 10*time.Millisecond)

	hub.BroadcastToAll(MessageServerShutdown, nil)
	for _, conn := range []*websocket.Conn{first, second} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, MessageServerShutdown, msg.Type)
	}

	// Broadcasting after the hub stops must not block
	cancel()
	require.Eventually(t, func() bool { return hub.GetConnectionCount() == 0 }, 2*time.Second, 10*time.Millisecond)
	hub.BroadcastToAll(MessageServerShutdown, nil)
}

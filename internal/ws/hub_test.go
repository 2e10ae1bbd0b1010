package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/kanishkadharmarathne/sk-electrical-new-sub001/internal/model"
)

// newServerConn dials a throwaway HTTP server and hands back the
// server-side websocket connection, the half the hub actually manages.
func newServerConn(t *testing.T) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{}
	serverConns := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		serverConns <- conn
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	clientConn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { clientConn.Close() })

	conn := <-serverConns
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_RegisterAndSendToActor(t *testing.T) {
	req := require.New(t)
	hub := NewHub(10)
	actor := ActorKey(model.RoleTechnician, "tech-1")
	c := NewClient(hub, newServerConn(t), actor)

	hub.addClient(c)
	req.Equal(1, hub.total)

	hub.SendToActor(model.RoleTechnician, "tech-1", OutgoingMessage{Type: EventNotificationUpdate})
	req.Len(c.send, 1)

	// other actors see nothing
	hub.SendToActor(model.RoleTechnician, "tech-2", OutgoingMessage{Type: EventNotificationUpdate})
	req.Len(c.send, 1)

	hub.removeClient(c)
	req.Zero(hub.total)
	req.Empty(hub.clients)
}

func TestHub_UnregisterBeforeRegisterLeavesNoGhost(t *testing.T) {
	req := require.New(t)
	hub := NewHub(10)
	actor := ActorKey(model.RoleTechnician, "tech-1")
	c := NewClient(hub, newServerConn(t), actor)

	// A connection that dies immediately can have its unregister drained
	// ahead of its register. The late register must not admit it.
	hub.removeClient(c)
	hub.addClient(c)

	req.Zero(hub.total)
	req.Empty(hub.clients)

	select {
	case <-c.done:
	default:
		t.Fatal("client should be closed after early unregister")
	}
}

func TestHub_ClosedClientNotAdmitted(t *testing.T) {
	req := require.New(t)
	hub := NewHub(10)
	c := NewClient(hub, newServerConn(t), ActorKey(model.RoleCustomer, "cust-1"))

	c.Close()
	hub.addClient(c)

	req.Zero(hub.total)
	req.Empty(hub.clients)
}

func TestHub_MaxConnsRejectsOverflow(t *testing.T) {
	req := require.New(t)
	hub := NewHub(1)
	first := NewClient(hub, newServerConn(t), ActorKey(model.RoleTechnician, "tech-1"))
	second := NewClient(hub, newServerConn(t), ActorKey(model.RoleTechnician, "tech-2"))

	hub.addClient(first)
	hub.addClient(second)

	req.Equal(1, hub.total)
	select {
	case <-second.done:
	default:
		t.Fatal("rejected client should be closed")
	}
}

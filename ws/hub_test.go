package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()

	hub := NewHub(zap.NewNop())
	go hub.Run()

	identity := func(r *http.Request) (string, string, bool) {
		id := r.URL.Query().Get("user")
		return id, r.URL.Query().Get("session"), id != ""
	}
	srv := httptest.NewServer(http.HandlerFunc(NewHandler(hub, identity, nil).HandleConnection))

	t.Cleanup(func() {
		hub.Shutdown()
		srv.Close()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, user string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?user=" + user
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", user, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

type frame struct {
	Op   string          `json:"op"`
	Data json.RawMessage `json:"d"`
	Seq  int64           `json:"seq"`
}

// readOp reads frames until one with op arrives.
func readOp(t *testing.T, conn *websocket.Conn, op string) frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			t.Fatalf("waiting for %s: %v", op, err)
		}
		if f.Op == op {
			return f
		}
	}
}

func waitOnline(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for len(hub.GetOnlineUserIDs()) != n {
		if time.Now().After(deadline) {
			t.Fatalf("online = %v, want %d users", hub.GetOnlineUserIDs(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestReadyFrame(t *testing.T) {
	_, srv := startHub(t)
	conn := dial(t, srv, "u1")

	f := readOp(t, conn, OpReady)
	var ready ReadyData
	if err := json.Unmarshal(f.Data, &ready); err != nil {
		t.Fatal(err)
	}
	if ready.UserID != "u1" || len(ready.Online) != 1 {
		t.Fatalf("ready = %+v", ready)
	}
}

func TestHeartbeatAck(t *testing.T) {
	_, srv := startHub(t)
	conn := dial(t, srv, "u1")
	readOp(t, conn, OpReady)

	if err := conn.WriteJSON(Event{Op: OpHeartbeat}); err != nil {
		t.Fatal(err)
	}
	readOp(t, conn, OpHeartbeatAck)
}

func TestBroadcastExcept(t *testing.T) {
	hub, srv := startHub(t)
	a := dial(t, srv, "a")
	readOp(t, a, OpReady)
	b := dial(t, srv, "b")
	readOp(t, b, OpReady)
	waitOnline(t, hub, 2)

	hub.BroadcastToAllExcept("a", Event{Op: OpChange, Data: ChangeData{Resource: ResourcePosts, Action: ActionDelete, ID: "p1"}})
	hub.BroadcastToAll(Event{Op: OpChange, Data: ChangeData{Resource: ResourceHirings, Action: ActionCreate}})

	f := readOp(t, b, OpChange)
	var change ChangeData
	json.Unmarshal(f.Data, &change)
	if change.Resource != ResourcePosts || change.ID != "p1" {
		t.Fatalf("b got %+v", change)
	}

	// a skips the posts event and sees the hirings one first.
	f = readOp(t, a, OpChange)
	json.Unmarshal(f.Data, &change)
	if change.Resource != ResourceHirings {
		t.Fatalf("a got %+v", change)
	}
}

func TestPresenceOffline(t *testing.T) {
	hub, srv := startHub(t)
	a := dial(t, srv, "a")
	readOp(t, a, OpReady)
	b := dial(t, srv, "b")
	readOp(t, b, OpReady)
	waitOnline(t, hub, 2)

	b.Close()
	waitOnline(t, hub, 1)

	for {
		f := readOp(t, a, OpPresence)
		var p PresenceData
		json.Unmarshal(f.Data, &p)
		if p.UserID == "b" && p.Status == "offline" {
			return
		}
	}
}

func TestUnauthenticatedRejected(t *testing.T) {
	_, srv := startHub(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("dial without identity succeeded")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("resp = %v", resp)
	}
}

func dialSession(t *testing.T, srv *httptest.Server, user, session string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?user=" + user + "&session=" + session
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s/%s: %v", user, session, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestDisconnectSessionClosesOnlyThatSession(t *testing.T) {
	hub, srv := startHub(t)

	loggedOut := dialSession(t, srv, "u1", "s1")
	readOp(t, loggedOut, OpReady)
	otherBrowser := dialSession(t, srv, "u1", "s2")
	readOp(t, otherBrowser, OpReady)
	waitOnline(t, hub, 1)

	hub.DisconnectSession("s1")

	loggedOut.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		_, _, err := loggedOut.ReadMessage()
		if err == nil {
			continue
		}
		if _, ok := err.(*websocket.CloseError); !ok {
			t.Fatalf("logged out socket: got %v, want a close frame", err)
		}
		break
	}

	hub.BroadcastToAll(Event{Op: OpChange, Data: ChangeData{Resource: ResourcePosts, Action: ActionCreate}})
	readOp(t, otherBrowser, OpChange)

	if online := hub.GetOnlineUserIDs(); len(online) != 1 || online[0] != "u1" {
		t.Fatalf("online = %v, want u1 still connected", online)
	}
}

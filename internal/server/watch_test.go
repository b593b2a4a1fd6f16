package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialWatch(t *testing.T, ts *httptest.Server, path, identity string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + path
	header := http.Header{}
	header.Set(identityHeader, identity)
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	if resp != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readSnapshot(t *testing.T, conn *websocket.Conn, out any) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(out))
}

func TestWatchTasks_DeliversFullSnapshots(t *testing.T) {
	srv := newTestServer(t)
	roomID := createRoom(t, srv, "lead@x.com", "Room")
	projectID := createProject(t, srv, roomID, "lead@x.com", true)
	createTask(t, srv, roomID, projectID, "lead@x.com", "lead@x.com", nil)

	ts := httptest.NewServer(srv.Engine())
	defer ts.Close()

	conn := dialWatch(t, ts, "/api/rooms/"+roomID+"/projects/"+projectID+"/tasks/watch", "lead@x.com")

	// One snapshot arrives immediately on subscribe, before any change.
	var snapshot struct {
		Tasks []map[string]any `json:"tasks"`
	}
	readSnapshot(t, conn, &snapshot)
	require.Len(t, snapshot.Tasks, 1)

	// A mutation triggers another snapshot carrying the whole working set,
	// never just the changed task.
	createTask(t, srv, roomID, projectID, "lead@x.com", "lead@x.com", map[string]any{"title": "Second"})

	readSnapshot(t, conn, &snapshot)
	require.Len(t, snapshot.Tasks, 2)
	titles := []string{snapshot.Tasks[0]["title"].(string), snapshot.Tasks[1]["title"].(string)}
	assert.Contains(t, titles, "Ship it")
	assert.Contains(t, titles, "Second")
}

func TestWatchTasks_RequiresProjectAccess(t *testing.T) {
	srv := newTestServer(t)
	roomID := createRoom(t, srv, "lead@x.com", "Room")
	projectID := createProject(t, srv, roomID, "lead@x.com", true)

	ts := httptest.NewServer(srv.Engine())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/rooms/" + roomID + "/projects/" + projectID + "/tasks/watch"
	header := http.Header{}
	header.Set(identityHeader, "stranger@x.com")
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if conn != nil {
		_ = conn.Close()
	}
	require.Error(t, err, "handshake is refused before upgrading")
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestWatchChat_DeliversFullSnapshots(t *testing.T) {
	srv := newTestServer(t)
	roomID := createRoom(t, srv, "a@x.com", "Room")

	rec := do(t, srv, http.MethodPost, "/api/rooms/"+roomID+"/tasks/t1/chat", "a@x.com", map[string]any{"text": "hello"})
	require.Equal(t, http.StatusCreated, rec.Code)

	ts := httptest.NewServer(srv.Engine())
	defer ts.Close()

	conn := dialWatch(t, ts, "/api/rooms/"+roomID+"/tasks/t1/chat/watch", "a@x.com")

	var snapshot struct {
		Messages []map[string]any `json:"messages"`
	}
	readSnapshot(t, conn, &snapshot)
	require.Len(t, snapshot.Messages, 1)

	rec = do(t, srv, http.MethodPost, "/api/rooms/"+roomID+"/tasks/t1/chat", "a@x.com", map[string]any{"text": "again"})
	require.Equal(t, http.StatusCreated, rec.Code)

	readSnapshot(t, conn, &snapshot)
	require.Len(t, snapshot.Messages, 2)
	assert.Equal(t, "again", snapshot.Messages[1]["text"])
}

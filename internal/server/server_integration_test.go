package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/airvoxel/internal/detector"
	"github.com/ayusman/airvoxel/internal/session"
	"github.com/ayusman/airvoxel/internal/store"
)

func TestAPI_VoxelWorkflow(t *testing.T) {
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	sess := session.New(session.DefaultConfig())
	srv := New(Config{Store: s, Voxels: sess, Tuner: sess})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	// 1. Pinch stamps a cell
	sess.Process([]detector.HandLandmarks{detector.PinchLandmarks()}, time.Now())

	resp, err := client.Get(ts.URL + "/api/voxels")
	if err != nil {
		t.Fatalf("GET /api/voxels error = %v", err)
	}
	var listed struct {
		Count  int `json:"count"`
		Voxels []struct {
			X int `json:"x"`
			Y int `json:"y"`
		} `json:"voxels"`
	}
	json.NewDecoder(resp.Body).Decode(&listed)
	resp.Body.Close()

	if listed.Count != 1 || len(listed.Voxels) != 1 || listed.Voxels[0].X != 16 || listed.Voxels[0].Y != 9 {
		t.Fatalf("voxels = %+v, want one at (16,9)", listed)
	}

	// 2. Tighten the dwell
	body := `{"dwell_ms": 500}`
	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/settings", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err = client.Do(req)
	if err != nil {
		t.Fatalf("PUT /api/settings error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if got := sess.Tuning().Dwell; got != 500*time.Millisecond {
		t.Errorf("Dwell = %v, want 500ms", got)
	}

	// 3. Clear
	req, _ = http.NewRequest(http.MethodDelete, ts.URL+"/api/voxels", nil)
	resp, err = client.Do(req)
	if err != nil {
		t.Fatalf("DELETE /api/voxels error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("DELETE status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}
	if n := len(sess.Voxels()); n != 0 {
		t.Errorf("voxels after clear = %d, want 0", n)
	}

	// 4. Sessions list is served from the store
	resp, err = client.Get(ts.URL + "/api/sessions")
	if err != nil {
		t.Fatalf("GET /api/sessions error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /api/sessions status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}

func TestAPI_StateWebSocket(t *testing.T) {
	sess := session.New(session.DefaultConfig())
	srv := New(Config{Voxels: sess})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	// A snapshot rendered before the client connects is replayed on connect.
	if err := srv.State().Render(sess.Snapshot()); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/state"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var msg struct {
		Type     string           `json:"type"`
		Snapshot session.Snapshot `json:"snapshot"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() replay error = %v", err)
	}
	if msg.Type != "state" || len(msg.Snapshot.Voxels) != 0 {
		t.Errorf("replayed message = %+v, want empty state", msg)
	}

	// The replay is sent after registration, so the next render reaches us.
	snap := sess.Process([]detector.HandLandmarks{detector.PinchLandmarks()}, time.Now())
	if err := srv.State().Render(snap); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON() broadcast error = %v", err)
	}
	if len(msg.Snapshot.Voxels) != 1 || msg.Snapshot.Voxels[0].X != 16 {
		t.Errorf("broadcast voxels = %v, want [(16,9)]", msg.Snapshot.Voxels)
	}
	if len(msg.Snapshot.Hands) != 1 || !msg.Snapshot.Hands[0].Pinching {
		t.Errorf("broadcast hands = %+v, want one pinching hand", msg.Snapshot.Hands)
	}
}

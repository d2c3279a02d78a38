package relay

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
	"github.com/gorilla/websocket"
)

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startRelay(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New("", quiet()).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func dialRoom(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", u, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, frame string) {
	t.Helper()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func readFrame(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return string(data)
}

// expectSilence corrupts the connection's read side on timeout, so it
// must be the last read a test does on conn.
func expectSilence(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(150 * time.Millisecond))
	if _, data, err := conn.ReadMessage(); err == nil {
		t.Fatalf("expected no frame, got %q", data)
	}
}

// waitClients blocks until the room shows the expected client count,
// so a test can be sure everyone joined before frames start flying.
func waitClients(t *testing.T, srv *httptest.Server, room string, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err := http.Get(srv.URL + "/rooms")
		if err != nil {
			t.Fatalf("list rooms: %v", err)
		}
		var payload struct {
			Rooms []struct {
				Name    string `json:"name"`
				Clients int    `json:"clients"`
			} `json:"rooms"`
		}
		err = json.NewDecoder(resp.Body).Decode(&payload)
		resp.Body.Close()
		if err != nil {
			t.Fatalf("decode rooms: %v", err)
		}
		for _, rm := range payload.Rooms {
			if rm.Name == room && rm.Clients == n {
				return
			}
		}
		if time.Now().After(deadline) {
			t.Fatalf("room %s never reached %d clients", room, n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

const drawFrame = `{"type":"Draw","data":{"prev":[10,10],"cur":[20,15],"color":"black","brush_size":16}}`

func TestBroadcastSkipsSender(t *testing.T) {
	srv := startRelay(t)
	a := dialRoom(t, srv, "/room")
	b := dialRoom(t, srv, "/room")
	c := dialRoom(t, srv, "/room")
	waitClients(t, srv, DefaultRoom, 3)

	send(t, a, drawFrame)
	assert.Equal(t, readFrame(t, b), drawFrame)
	assert.Equal(t, readFrame(t, c), drawFrame)

	// The first thing a ever receives is b's erase, proving a's own
	// draw was not echoed back.
	erase := `{"type":"Erase","data":{"prev":[0,0],"cur":[5,5],"brush_size":10}}`
	send(t, b, erase)
	assert.Equal(t, readFrame(t, a), erase)
	assert.Equal(t, readFrame(t, c), erase)
}

func TestMalformedFramesAreNotForwarded(t *testing.T) {
	srv := startRelay(t)
	a := dialRoom(t, srv, "/room")
	b := dialRoom(t, srv, "/room")
	waitClients(t, srv, DefaultRoom, 2)

	send(t, a, `{"type":"Draw","data":{"prev":[1],"cur":[2,2]}}`)
	send(t, a, `not even json`)
	send(t, a, `{"type":"Clear"}`)

	// Only the valid command makes it through, in order.
	assert.Equal(t, readFrame(t, b), `{"type":"Clear"}`)
}

func TestUnknownKindsAreNotForwarded(t *testing.T) {
	srv := startRelay(t)
	a := dialRoom(t, srv, "/room")
	b := dialRoom(t, srv, "/room")
	waitClients(t, srv, DefaultRoom, 2)

	send(t, a, `{"type":"Sticker","data":{"prev":[1,1],"cur":[2,2],"brush_size":4}}`)
	send(t, a, `{"type":"Clear"}`)

	assert.Equal(t, readFrame(t, b), `{"type":"Clear"}`)
}

func TestRelayReencodesCanonically(t *testing.T) {
	srv := startRelay(t)
	a := dialRoom(t, srv, "/room")
	b := dialRoom(t, srv, "/room")
	waitClients(t, srv, DefaultRoom, 2)

	// Shuffled keys and a junk field on the way in.
	send(t, a, `{"data":{"junk":true,"brush_size":16,"cur":[20,15],"color":"black","prev":[10,10]},"type":"Draw"}`)
	assert.Equal(t, readFrame(t, b), drawFrame)
}

func TestRoomsAreIsolated(t *testing.T) {
	srv := startRelay(t)
	a := dialRoom(t, srv, "/room/alpha")
	b := dialRoom(t, srv, "/room/beta")
	c := dialRoom(t, srv, "/room/alpha")
	waitClients(t, srv, "alpha", 2)
	waitClients(t, srv, "beta", 1)

	send(t, a, drawFrame)
	assert.Equal(t, readFrame(t, c), drawFrame)
	expectSilence(t, b)
}

func TestBareRoomPathIsTheDefaultRoom(t *testing.T) {
	srv := startRelay(t)
	a := dialRoom(t, srv, "/room")
	b := dialRoom(t, srv, "/room/"+DefaultRoom)
	waitClients(t, srv, DefaultRoom, 2)

	send(t, a, `{"type":"Clear"}`)
	assert.Equal(t, readFrame(t, b), `{"type":"Clear"}`)
}

func TestRoomListing(t *testing.T) {
	srv := startRelay(t)
	dialRoom(t, srv, "/room")
	dialRoom(t, srv, "/room/team")
	dialRoom(t, srv, "/room/team")

	want := map[string]int{DefaultRoom: 1, "team": 2}
	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err := http.Get(srv.URL + "/rooms")
		assert.Equal(t, err, nil)
		var payload struct {
			Rooms []struct {
				Name    string `json:"name"`
				Clients int    `json:"clients"`
			} `json:"rooms"`
		}
		err = json.NewDecoder(resp.Body).Decode(&payload)
		resp.Body.Close()
		assert.Equal(t, err, nil)

		got := make(map[string]int)
		for _, rm := range payload.Rooms {
			got[rm.Name] = rm.Clients
		}
		if len(got) == len(want) && got[DefaultRoom] == want[DefaultRoom] && got["team"] == want["team"] {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("room listing never settled, last seen %v", got)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestDisconnectEmptiesRoom(t *testing.T) {
	srv := startRelay(t)
	a := dialRoom(t, srv, "/room/solo")
	a.Close()

	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err := http.Get(srv.URL + "/rooms")
		assert.Equal(t, err, nil)
		var payload struct {
			Rooms []struct {
				Name string `json:"name"`
			} `json:"rooms"`
		}
		err = json.NewDecoder(resp.Body).Decode(&payload)
		resp.Body.Close()
		assert.Equal(t, err, nil)

		gone := true
		for _, rm := range payload.Rooms {
			if rm.Name == "solo" {
				gone = false
			}
		}
		if gone {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("room survived its last client")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

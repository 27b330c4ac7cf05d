package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/veilchat/veil/internal/database"
	"github.com/veilchat/veil/internal/password"
	"github.com/veilchat/veil/internal/rooms"
	"github.com/veilchat/veil/pkg/auth"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRouter(t *testing.T) (*gin.Engine, *rooms.Registry, *auth.TicketManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry := rooms.NewRegistry(testLogger(), database.NewMemory(), password.NewBcryptVerifier(), rooms.Options{})
	t.Cleanup(registry.Close)
	tickets := auth.NewTicketManager("test-secret", 10*time.Minute)

	h := NewRoomHandler(testLogger(), registry, tickets)
	r := gin.New()
	r.POST("/api/rooms", h.CreateRoom)
	r.POST("/api/rooms/join", h.JoinRoom)
	r.GET("/api/rooms/:id", h.GetRoom)
	r.DELETE("/api/rooms/:id", h.DeleteRoom)
	return r, registry, tickets
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var parsed map[string]interface{}
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &parsed); err != nil {
			t.Fatalf("decode response %q: %v", w.Body.String(), err)
		}
	}
	return w, parsed
}

func createRoom(t *testing.T, r *gin.Engine, name, pass string, minutes int) string {
	t.Helper()
	w, resp := doJSON(t, r, http.MethodPost, "/api/rooms", map[string]interface{}{
		"roomName":          name,
		"password":          pass,
		"expirationMinutes": minutes,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create room: status %d, body %s", w.Code, w.Body.String())
	}
	id, _ := resp["roomId"].(string)
	if id == "" {
		t.Fatal("create room: no roomId in response")
	}
	return id
}

func TestCreateRoomReturnsIDAndExpiry(t *testing.T) {
	r, registry, _ := newTestRouter(t)

	w, resp := doJSON(t, r, http.MethodPost, "/api/rooms", map[string]interface{}{
		"roomName":          "standup",
		"password":          "hunter2",
		"expirationMinutes": 30,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}
	if resp["success"] != true || resp["roomName"] != "standup" {
		t.Errorf("unexpected response: %v", resp)
	}

	expiry, err := time.Parse(time.RFC3339Nano, resp["expirationTime"].(string))
	if err != nil {
		t.Fatalf("parse expirationTime: %v", err)
	}
	want := time.Now().Add(30 * time.Minute)
	if diff := expiry.Sub(want); diff < -time.Minute || diff > time.Minute {
		t.Errorf("expiry %v not near %v", expiry, want)
	}

	if _, ok := registry.Get(mustParseID(t, resp["roomId"])); !ok {
		t.Error("created room not retrievable")
	}
}

func TestCreateRoomNonNumericDurationUsesDefault(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w, resp := doJSON(t, r, http.MethodPost, "/api/rooms", map[string]interface{}{
		"roomName":          "standup",
		"expirationMinutes": "soon",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	expiry, err := time.Parse(time.RFC3339Nano, resp["expirationTime"].(string))
	if err != nil {
		t.Fatalf("parse expirationTime: %v", err)
	}
	want := time.Now().Add(time.Hour)
	if diff := expiry.Sub(want); diff < -time.Minute || diff > time.Minute {
		t.Errorf("expiry %v not near default %v", expiry, want)
	}
}

func TestJoinRoomIssuesTicket(t *testing.T) {
	r, _, tickets := newTestRouter(t)
	id := createRoom(t, r, "standup", "hunter2", 30)

	w, resp := doJSON(t, r, http.MethodPost, "/api/rooms/join", map[string]interface{}{
		"roomId":   id,
		"password": "hunter2",
		"nickname": "alice",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	ticket, _ := resp["ticket"].(string)
	claims, err := tickets.Verify(ticket)
	if err != nil {
		t.Fatalf("Verify(ticket) error: %v", err)
	}
	if claims.RoomID != id || claims.Nickname != "alice" {
		t.Errorf("claims = %+v, want room %s / alice", claims, id)
	}
}

func TestJoinRoomRejections(t *testing.T) {
	r, _, _ := newTestRouter(t)
	id := createRoom(t, r, "standup", "hunter2", 30)

	tests := []struct {
		name string
		body map[string]interface{}
		code int
	}{
		{"wrong password", map[string]interface{}{"roomId": id, "password": "nope", "nickname": "alice"}, http.StatusUnauthorized},
		{"missing nickname", map[string]interface{}{"roomId": id, "password": "hunter2"}, http.StatusBadRequest},
		{"malformed id", map[string]interface{}{"roomId": "not-a-uuid", "password": "hunter2", "nickname": "alice"}, http.StatusNotFound},
		{"unknown room", map[string]interface{}{"roomId": "6f0b2a52-0000-4000-8000-000000000000", "password": "hunter2", "nickname": "alice"}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := doJSON(t, r, http.MethodPost, "/api/rooms/join", tt.body)
			if w.Code != tt.code {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.code, w.Body.String())
			}
			if resp["success"] != false {
				t.Errorf("success = %v, want false", resp["success"])
			}
		})
	}
}

func TestJoinPasswordlessRoomWithAnyPassword(t *testing.T) {
	r, _, _ := newTestRouter(t)
	id := createRoom(t, r, "open", "", 30)

	for _, pass := range []string{"", "anything"} {
		w, _ := doJSON(t, r, http.MethodPost, "/api/rooms/join", map[string]interface{}{
			"roomId":   id,
			"password": pass,
			"nickname": "alice",
		})
		if w.Code != http.StatusOK {
			t.Errorf("join with password %q: status = %d, want 200", pass, w.Code)
		}
	}
}

func TestGetRoomInfo(t *testing.T) {
	r, _, _ := newTestRouter(t)
	id := createRoom(t, r, "standup", "hunter2", 30)

	w, resp := doJSON(t, r, http.MethodGet, "/api/rooms/"+id, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	room := resp["room"].(map[string]interface{})
	if room["roomId"] != id || room["roomName"] != "standup" {
		t.Errorf("unexpected room info: %v", room)
	}
	if room["participantCount"].(float64) != 0 {
		t.Errorf("participantCount = %v, want 0", room["participantCount"])
	}

	w, _ = doJSON(t, r, http.MethodGet, "/api/rooms/6f0b2a52-0000-4000-8000-000000000000", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown room: status = %d, want 404", w.Code)
	}
}

func TestDeleteRoom(t *testing.T) {
	r, _, _ := newTestRouter(t)
	id := createRoom(t, r, "standup", "hunter2", 30)

	w, _ := doJSON(t, r, http.MethodDelete, "/api/rooms/"+id, map[string]interface{}{"password": "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: status = %d, want 401", w.Code)
	}

	w, _ = doJSON(t, r, http.MethodDelete, "/api/rooms/"+id, map[string]interface{}{"password": "hunter2"})
	if w.Code != http.StatusOK {
		t.Fatalf("delete: status = %d, body %s", w.Code, w.Body.String())
	}

	w, _ = doJSON(t, r, http.MethodGet, "/api/rooms/"+id, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("after delete: status = %d, want 404", w.Code)
	}
}

func mustParseID(t *testing.T, v interface{}) uuid.UUID {
	t.Helper()
	s, _ := v.(string)
	id, err := uuid.Parse(s)
	if err != nil {
		t.Fatalf("parse room id %q: %v", s, err)
	}
	return id
}

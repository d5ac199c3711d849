package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"golang.org/x/crypto/bcrypt"

	"secret_santa/internal/repository"
	"secret_santa/internal/service"
)

func newTestRouter(t *testing.T) (*gin.Engine, *service.Services) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	services := service.NewServices(repository.NewMemoryStore(), service.Options{AdminKeyCost: bcrypt.MinCost})
	r := gin.New()
	SetupRoutes(r, services, "")
	return r, services
}

func doRequest(r http.Handler, method, path, key string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Expected JSON body, but got %q: %v", w.Body.String(), err)
	}
	return body
}

func createRoom(t *testing.T, r http.Handler, code string) (string, string) {
	t.Helper()
	w := doRequest(r, http.MethodPost, "/api/rooms", "", gin.H{"code": code})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status %d, but got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	return body["code"].(string), body["adminKey"].(string)
}

func addParticipant(t *testing.T, r http.Handler, code, adminKey, name, desc string) map[string]any {
	t.Helper()
	w := doRequest(r, http.MethodPost, "/api/rooms/"+code+"/participants", adminKey, gin.H{"name": name, "desc": desc})
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected status %d, but got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}
	return decodeBody(t, w)
}

func TestHealthAndUnknownRoutes(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doRequest(r, http.MethodGet, "/api/health", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, but got %d", http.StatusOK, w.Code)
	}

	w = doRequest(r, http.MethodGet, "/api/nothing-here", "", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status %d, but got %d", http.StatusNotFound, w.Code)
	}
	if body := decodeBody(t, w); body["error"] == nil {
		t.Errorf("Expected an error field, but got %v", body)
	}
}

func TestCreateRoom(t *testing.T) {
	r, _ := newTestRouter(t)

	t.Run("Generated code without body", func(t *testing.T) {
		w := doRequest(r, http.MethodPost, "/api/rooms", "", nil)
		if w.Code != http.StatusCreated {
			t.Fatalf("Expected status %d, but got %d: %s", http.StatusCreated, w.Code, w.Body.String())
		}
		body := decodeBody(t, w)
		code, _ := body["code"].(string)
		if !strings.HasPrefix(code, "SS-") {
			t.Errorf("Expected code with SS- prefix, but got %q", code)
		}
		if body["adminKey"] == "" || body["adminUrl"] == "" {
			t.Errorf("Expected adminKey and adminUrl, but got %v", body)
		}
	})

	t.Run("Duplicate code", func(t *testing.T) {
		createRoom(t, r, "xmas")

		w := doRequest(r, http.MethodPost, "/api/rooms", "", gin.H{"code": "XMAS"})
		if w.Code != http.StatusConflict {
			t.Fatalf("Expected status %d, but got %d", http.StatusConflict, w.Code)
		}
		if body := decodeBody(t, w); body["code"] != "XMAS" {
			t.Errorf("Expected code XMAS in conflict body, but got %v", body["code"])
		}
	})

	t.Run("Malformed JSON", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/rooms", strings.NewReader("{"))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status %d, but got %d", http.StatusBadRequest, w.Code)
		}
	})
}

func TestAdminGate(t *testing.T) {
	r, _ := newTestRouter(t)
	code, adminKey := createRoom(t, r, "GATE")
	participant := addParticipant(t, r, code, adminKey, "Alice", "books")

	t.Run("Wrong key changes nothing", func(t *testing.T) {
		w := doRequest(r, http.MethodPost, "/api/rooms/GATE/participants", "wrong", gin.H{"name": "Mallory", "desc": "x"})
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("Expected status %d, but got %d", http.StatusUnauthorized, w.Code)
		}

		w = doRequest(r, http.MethodGet, "/api/rooms/GATE/links", adminKey, nil)
		participants := decodeBody(t, w)["participants"].([]any)
		if len(participants) != 1 {
			t.Errorf("Expected 1 participant, but got %d", len(participants))
		}
	})

	t.Run("Missing key", func(t *testing.T) {
		w := doRequest(r, http.MethodPost, "/api/rooms/GATE/draw", "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("Expected status %d, but got %d", http.StatusUnauthorized, w.Code)
		}
	})

	t.Run("Participant key is not an admin key", func(t *testing.T) {
		w := doRequest(r, http.MethodGet, "/api/rooms/GATE/links", participant["participantKey"].(string), nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("Expected status %d, but got %d", http.StatusUnauthorized, w.Code)
		}
	})

	t.Run("Unknown room", func(t *testing.T) {
		w := doRequest(r, http.MethodGet, "/api/rooms/NOPE/links", adminKey, nil)
		if w.Code != http.StatusNotFound {
			t.Errorf("Expected status %d, but got %d", http.StatusNotFound, w.Code)
		}
	})

	t.Run("Lowercase code in path", func(t *testing.T) {
		w := doRequest(r, http.MethodGet, "/api/rooms/gate/links", adminKey, nil)
		if w.Code != http.StatusOK {
			t.Errorf("Expected status %d, but got %d", http.StatusOK, w.Code)
		}
	})
}

func TestAddParticipantErrors(t *testing.T) {
	r, _ := newTestRouter(t)
	code, adminKey := createRoom(t, r, "ADD")
	addParticipant(t, r, code, adminKey, "Alice", "books")

	w := doRequest(r, http.MethodPost, "/api/rooms/ADD/participants", adminKey, gin.H{"name": " alice ", "desc": "again"})
	if w.Code != http.StatusConflict {
		t.Errorf("Expected status %d for duplicate name, but got %d", http.StatusConflict, w.Code)
	}

	w = doRequest(r, http.MethodPost, "/api/rooms/ADD/participants", adminKey, gin.H{"name": "Bob", "desc": "  "})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d for blank desc, but got %d", http.StatusBadRequest, w.Code)
	}
}

func TestImportParticipants(t *testing.T) {
	r, _ := newTestRouter(t)
	_, adminKey := createRoom(t, r, "IMPORT")

	lines := []any{
		"Alice - books - signed copies",
		"alice - dup",
		gin.H{"name": "Bob", "desc": "socks"},
		"Carol",
		42,
	}
	w := doRequest(r, http.MethodPost, "/api/rooms/IMPORT/import", adminKey, gin.H{"lines": lines})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, but got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var result service.ImportResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("Failed to decode import result: %v", err)
	}
	if result.CreatedCount != 2 {
		t.Errorf("Expected createdCount 2, but got %d", result.CreatedCount)
	}
	if len(result.Skipped) != 3 {
		t.Fatalf("Expected 3 skipped lines, but got %d", len(result.Skipped))
	}
	if result.Skipped[0].Line != 1 || result.Skipped[0].Reason != service.SkipReasonDuplicateName {
		t.Errorf("Expected line 1 skipped as duplicate, but got %+v", result.Skipped[0])
	}
	if result.Skipped[1].Reason != service.SkipReasonMissingFields {
		t.Errorf("Expected line 3 skipped for missing fields, but got %+v", result.Skipped[1])
	}

	w = doRequest(r, http.MethodGet, "/api/rooms/IMPORT/links", adminKey, nil)
	var links service.RoomLinks
	if err := json.Unmarshal(w.Body.Bytes(), &links); err != nil {
		t.Fatalf("Failed to decode links: %v", err)
	}
	if len(links.Participants) != 2 || links.Participants[0].Desc != "books - signed copies" {
		t.Errorf("Expected Alice with full description first, but got %+v", links.Participants)
	}

	t.Run("Missing lines field", func(t *testing.T) {
		w := doRequest(r, http.MethodPost, "/api/rooms/IMPORT/import", adminKey, gin.H{})
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status %d, but got %d", http.StatusBadRequest, w.Code)
		}
	})

	t.Run("Empty lines", func(t *testing.T) {
		w := doRequest(r, http.MethodPost, "/api/rooms/IMPORT/import", adminKey, gin.H{"lines": []string{}})
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status %d, but got %d", http.StatusBadRequest, w.Code)
		}
	})
}

func TestRequestBodyLimit(t *testing.T) {
	r, _ := newTestRouter(t)
	_, adminKey := createRoom(t, r, "BIG")

	lines := make([]string, 0, 40000)
	for i := 0; i < 40000; i++ {
		lines = append(lines, fmt.Sprintf("Guest %05d - %s", i, strings.Repeat("x", 20)))
	}
	w := doRequest(r, http.MethodPost, "/api/rooms/BIG/import", adminKey, gin.H{"lines": lines})
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("Expected status %d, but got %d", http.StatusRequestEntityTooLarge, w.Code)
	}
	if body := decodeBody(t, w); body["error"] == nil {
		t.Errorf("Expected an error field, but got %v", body)
	}

	w = doRequest(r, http.MethodGet, "/api/rooms/BIG/links", adminKey, nil)
	if participants := decodeBody(t, w)["participants"].([]any); len(participants) != 0 {
		t.Errorf("Expected no participants after rejected import, but got %d", len(participants))
	}

	t.Run("Body under the limit is accepted", func(t *testing.T) {
		w := doRequest(r, http.MethodPost, "/api/rooms/BIG/import", adminKey, gin.H{"lines": lines[:100]})
		if w.Code != http.StatusOK {
			t.Errorf("Expected status %d, but got %d", http.StatusOK, w.Code)
		}
	})
}

func TestDrawAndReveal(t *testing.T) {
	r, _ := newTestRouter(t)
	code, adminKey := createRoom(t, r, "FLOW")

	alice := addParticipant(t, r, code, adminKey, "Alice", "books")
	addParticipant(t, r, code, adminKey, "Bob", "socks")

	t.Run("Too few participants", func(t *testing.T) {
		w := doRequest(r, http.MethodPost, "/api/rooms/FLOW/draw", adminKey, nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status %d, but got %d", http.StatusBadRequest, w.Code)
		}
	})

	addParticipant(t, r, code, adminKey, "Carol", "tea")
	aliceKey := alice["participantKey"].(string)

	t.Run("Not drawn yet", func(t *testing.T) {
		w := doRequest(r, http.MethodGet, "/api/rooms/FLOW/me", aliceKey, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status %d, but got %d", http.StatusOK, w.Code)
		}
		body := decodeBody(t, w)
		if body["message"] != "Not drawn yet" || body["status"] != "OPEN" {
			t.Errorf("Expected OPEN with message, but got %v", body)
		}
		if _, ok := body["receiverName"]; ok {
			t.Errorf("Expected no receiverName before draw, but got %v", body["receiverName"])
		}
	})

	t.Run("First draw", func(t *testing.T) {
		w := doRequest(r, http.MethodPost, "/api/rooms/FLOW/draw", adminKey, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("Expected status %d, but got %d: %s", http.StatusOK, w.Code, w.Body.String())
		}
		body := decodeBody(t, w)
		if body["status"] != "DRAWN" || body["count"] != float64(3) {
			t.Errorf("Expected DRAWN with count 3, but got %v", body)
		}
		if _, ok := body["message"]; ok {
			t.Errorf("Expected no message on first draw, but got %v", body["message"])
		}
	})

	t.Run("Second draw is idempotent", func(t *testing.T) {
		w := doRequest(r, http.MethodPost, "/api/rooms/FLOW/draw", adminKey, nil)
		body := decodeBody(t, w)
		if body["message"] != "Already drawn" || body["count"] != float64(3) {
			t.Errorf("Expected Already drawn with count 3, but got %v", body)
		}
	})

	t.Run("Reveal", func(t *testing.T) {
		w := doRequest(r, http.MethodGet, "/api/rooms/FLOW/me", aliceKey, nil)
		body := decodeBody(t, w)
		receiver, _ := body["receiverName"].(string)
		if receiver == "" || receiver == "Alice" {
			t.Errorf("Expected a receiver other than Alice, but got %q", receiver)
		}
		if body["receiverDesc"] == "" {
			t.Errorf("Expected receiverDesc, but got %v", body)
		}
	})

	t.Run("Participant key cannot read another room", func(t *testing.T) {
		createRoom(t, r, "OTHER")
		w := doRequest(r, http.MethodGet, "/api/rooms/OTHER/me", aliceKey, nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("Expected status %d, but got %d", http.StatusUnauthorized, w.Code)
		}
	})

	t.Run("Closed to new participants", func(t *testing.T) {
		w := doRequest(r, http.MethodPost, "/api/rooms/FLOW/participants", adminKey, gin.H{"name": "Dave", "desc": "cards"})
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected status %d, but got %d", http.StatusBadRequest, w.Code)
		}
	})
}

func TestParticipantQR(t *testing.T) {
	r, _ := newTestRouter(t)
	code, adminKey := createRoom(t, r, "QR")
	alice := addParticipant(t, r, code, adminKey, "Alice", "books")

	w := doRequest(r, http.MethodGet, "/api/rooms/QR/participants/"+alice["id"].(string)+"/qr", adminKey, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, but got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Expected image/png, but got %q", ct)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")) {
		t.Errorf("Expected PNG signature")
	}

	w = doRequest(r, http.MethodGet, "/api/rooms/QR/participants/missing/qr", adminKey, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status %d, but got %d", http.StatusNotFound, w.Code)
	}
}

func TestRoomEvents(t *testing.T) {
	r, services := newTestRouter(t)
	server := httptest.NewServer(r)
	defer server.Close()

	code, adminKey := createRoom(t, r, "LIVE")

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/rooms/" + code + "/ws?key=" + adminKey
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to dial websocket: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for services.WebSocketService.GetRoomClients(code) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Expected subscriber to be registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	addParticipant(t, r, code, adminKey, "Alice", "books")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event service.RoomEvent
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("Failed to read event: %v", err)
	}
	if event.Type != service.EventParticipantAdded || event.Name != "Alice" || event.Room != code {
		t.Errorf("Expected participant_added for Alice, but got %+v", event)
	}

	t.Run("Rejected without admin key", func(t *testing.T) {
		_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/api/rooms/"+code+"/ws?key=wrong", nil)
		if err == nil {
			t.Fatal("Expected dial to fail")
		}
		if resp == nil || resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("Expected status %d, but got %v", http.StatusUnauthorized, resp)
		}
	})
}

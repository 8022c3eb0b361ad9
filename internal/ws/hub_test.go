package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

func waitMessage(t *testing.T, ch chan []byte) []byte {
	t.Helper()
	select {
	case data := <-ch:
		return data
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for push message")
		return nil
	}
}

func registerSync(t *testing.T, h *Hub, conn *Connection) {
	t.Helper()
	h.Register(conn)
	// Register is channel-based; wait until the hub has picked it up
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		h.mu.RLock()
		_, ok := h.connections[conn.AccountID][conn]
		h.mu.RUnlock()
		if ok {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("connection was not registered in time")
}

func TestHubLocalDelivery(t *testing.T) {
	h := NewHub(nil)
	go h.Run()
	defer h.Stop()

	accountID := uuid.New()
	conn := &Connection{AccountID: accountID, Send: make(chan []byte, 8)}
	registerSync(t, h, conn)

	if err := h.SendToAccountJSON(accountID, map[string]string{"type": "test"}); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	var payload map[string]string
	if err := json.Unmarshal(waitMessage(t, conn.Send), &payload); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if payload["type"] != "test" {
		t.Fatalf("expected type=test, got %q", payload["type"])
	}

	// Other accounts receive nothing
	if err := h.SendToAccountJSON(uuid.New(), map[string]string{"type": "other"}); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	select {
	case data := <-conn.Send:
		t.Fatalf("unexpected message for foreign account: %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubAdminRoom(t *testing.T) {
	h := NewHub(nil)
	go h.Run()
	defer h.Stop()

	admin := &Connection{AccountID: uuid.New(), Admin: true, Send: make(chan []byte, 8)}
	client := &Connection{AccountID: uuid.New(), Send: make(chan []byte, 8)}
	registerSync(t, h, admin)
	registerSync(t, h, client)

	if err := h.SendToAdminsJSON(map[string]string{"type": "topup_submitted"}); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	var payload map[string]string
	if err := json.Unmarshal(waitMessage(t, admin.Send), &payload); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if payload["type"] != "topup_submitted" {
		t.Fatalf("expected admin event, got %q", payload["type"])
	}

	select {
	case data := <-client.Send:
		t.Fatalf("client must not receive admin events, got: %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubMultipleConnectionsPerAccount(t *testing.T) {
	h := NewHub(nil)
	go h.Run()
	defer h.Stop()

	accountID := uuid.New()
	first := &Connection{AccountID: accountID, Send: make(chan []byte, 8)}
	second := &Connection{AccountID: accountID, Send: make(chan []byte, 8)}
	registerSync(t, h, first)
	registerSync(t, h, second)

	if err := h.SendToAccountJSON(accountID, map[string]string{"type": "fanout"}); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	waitMessage(t, first.Send)
	waitMessage(t, second.Send)
}

func TestHubSendDuringConnectionChurn(t *testing.T) {
	h := NewHub(nil)
	go h.Run()
	defer h.Stop()

	accountID := uuid.New()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			conn := &Connection{AccountID: accountID, Send: make(chan []byte, 8)}
			h.Register(conn)
			h.Unregister(conn)
		}
	}()

	// Delivery must stay safe while connections come and go
	for i := 0; i < 500; i++ {
		if err := h.SendToAccountJSON(accountID, map[string]int{"seq": i}); err != nil {
			t.Fatalf("send failed: %v", err)
		}
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("connection churn did not finish")
	}
}

func TestHubIsOnlineWithoutRedis(t *testing.T) {
	h := NewHub(nil)
	go h.Run()
	defer h.Stop()

	accountID := uuid.New()
	if h.IsOnline(accountID) {
		t.Fatal("expected offline before registration")
	}

	conn := &Connection{AccountID: accountID, Send: make(chan []byte, 8)}
	registerSync(t, h, conn)

	if !h.IsOnline(accountID) {
		t.Fatal("expected online after registration")
	}
}

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/qrqwqeqt/GoF-Patt/internal/device"
	"github.com/qrqwqeqt/GoF-Patt/internal/infrastructure/config"
	"github.com/qrqwqeqt/GoF-Patt/internal/infrastructure/logging"
)

func testHub() *Hub {
	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")
	return NewHub(config.WebSocketConfig{MaxMessageSize: 8192, PingInterval: 30, PongTimeout: 10}, log)
}

// dialEvents connects to the device event stream and waits until the hub
// has registered the client.
func dialEvents(t *testing.T, env *testEnv, query string) *websocket.Conn {
	t.Helper()

	ts := httptest.NewServer(env.router)
	t.Cleanup(ts.Close)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/devices/events" + query
	ws, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v (resp: %v)", err, resp)
	}
	t.Cleanup(func() { ws.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for env.srv.Hub().ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client was never registered with the hub")
		}
		time.Sleep(10 * time.Millisecond)
	}
	return ws
}

func readWS(t *testing.T, ws *websocket.Conn) WSMessage {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg WSMessage
	if err := ws.ReadJSON(&msg); err != nil {
		t.Fatalf("read websocket message: %v", err)
	}
	return msg
}

func TestHub_BroadcastToSubscribed(t *testing.T) {
	hub := testHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	client := &WSClient{
		hub:           hub,
		send:          make(chan []byte, wsSendBufferSize),
		subscriptions: map[string]struct{}{string(device.EventDeleted): {}},
	}
	hub.Register(client)

	if err := hub.HandleDeviceEvent(ctx, device.Event{Type: device.EventDeleted, DeviceID: "dev-1"}); err != nil {
		t.Fatalf("HandleDeviceEvent() error = %v", err)
	}

	select {
	case data := <-client.send:
		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if msg.Type != WSTypeEvent || msg.EventType != string(device.EventDeleted) {
			t.Errorf("message = %+v", msg)
		}
	case <-time.After(time.Second):
		t.Error("timed out waiting for broadcast message")
	}

	hub.Broadcast(string(device.EventCreated), map[string]any{"deviceId": "dev-2"})
	select {
	case <-client.send:
		t.Error("client received an event it is not subscribed to")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHub_ClientCount(t *testing.T) {
	hub := testHub()

	client := newWSClient(hub, nil, deviceChannels)
	hub.Register(client)
	if hub.ClientCount() != 1 {
		t.Errorf("after register count = %d, want 1", hub.ClientCount())
	}

	hub.Unregister(client)
	hub.Unregister(client)
	if hub.ClientCount() != 0 {
		t.Errorf("after unregister count = %d, want 0", hub.ClientCount())
	}
}

func TestNewWSClient_Channels(t *testing.T) {
	hub := testHub()

	all := newWSClient(hub, nil, deviceChannels)
	for _, ch := range deviceChannels {
		if !all.isSubscribed(ch) {
			t.Errorf("default client not subscribed to %s", ch)
		}
	}

	narrow := newWSClient(hub, nil, []string{" device.deleted ", ""})
	if !narrow.isSubscribed("device.deleted") || narrow.isSubscribed("device.created") {
		t.Errorf("subscriptions = %v", narrow.subscriptions)
	}
	if len(narrow.subscriptions) != 1 {
		t.Errorf("blank channel names must be skipped: %v", narrow.subscriptions)
	}
}

func TestWebSocket_ReceivesDeviceEvents(t *testing.T) {
	env := newTestEnv(t)
	ws := dialEvents(t, env, "")
	ownerID, token := env.register(t, "owner@example.com")

	d := env.createDevice(t, token)

	msg := readWS(t, ws)
	if msg.Type != WSTypeEvent || msg.EventType != string(device.EventCreated) {
		t.Fatalf("message = %+v", msg)
	}
	payload, ok := msg.Payload.(map[string]any)
	if !ok {
		t.Fatalf("payload = %T", msg.Payload)
	}
	if payload["deviceId"] != d.ID || payload["ownerId"] != ownerID {
		t.Errorf("payload = %v", payload)
	}

	w := env.do(jsonRequest(t, http.MethodDelete, "/api/devices/deleteDevice/"+d.ID, token, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d", w.Code)
	}
	if msg := readWS(t, ws); msg.EventType != string(device.EventDeleted) {
		t.Errorf("event_type = %q, want %q", msg.EventType, device.EventDeleted)
	}
}

func TestWebSocket_ChannelsQuery(t *testing.T) {
	env := newTestEnv(t)
	ws := dialEvents(t, env, "?channels="+string(device.EventDeleted))
	_, token := env.register(t, "owner@example.com")

	d := env.createDevice(t, token)
	env.do(jsonRequest(t, http.MethodDelete, "/api/devices/deleteDevice/"+d.ID, token, nil))

	// The created event was filtered, so the first frame is the deletion.
	msg := readWS(t, ws)
	if msg.EventType != string(device.EventDeleted) {
		t.Errorf("event_type = %q, want %q", msg.EventType, device.EventDeleted)
	}
}

func TestWebSocket_SubscribeUnsubscribe(t *testing.T) {
	env := newTestEnv(t)
	ws := dialEvents(t, env, "?channels="+string(device.EventDeleted))

	if err := ws.WriteJSON(WSMessage{
		Type:    WSTypeUnsubscribe,
		ID:      "unsub-1",
		Payload: WSSubscribePayload{Channels: []string{string(device.EventDeleted)}},
	}); err != nil {
		t.Fatalf("write unsubscribe: %v", err)
	}
	if resp := readWS(t, ws); resp.Type != WSTypeResponse || resp.ID != "unsub-1" {
		t.Errorf("unsubscribe response = %+v", resp)
	}

	if err := ws.WriteJSON(WSMessage{
		Type:    WSTypeSubscribe,
		ID:      "sub-1",
		Payload: WSSubscribePayload{Channels: []string{string(device.EventUpdated)}},
	}); err != nil {
		t.Fatalf("write subscribe: %v", err)
	}
	if resp := readWS(t, ws); resp.Type != WSTypeResponse || resp.ID != "sub-1" {
		t.Errorf("subscribe response = %+v", resp)
	}

	_, token := env.register(t, "owner@example.com")
	d := env.createDevice(t, token)
	env.do(jsonRequest(t, http.MethodPut, "/api/devices/updateDevice/"+d.ID, token, map[string]any{"price": 600}))

	if msg := readWS(t, ws); msg.EventType != string(device.EventUpdated) {
		t.Errorf("event_type = %q, want %q", msg.EventType, device.EventUpdated)
	}
}

func TestWebSocket_ControlMessages(t *testing.T) {
	env := newTestEnv(t)
	ws := dialEvents(t, env, "")

	tests := []struct {
		name     string
		frame    []byte
		wantType string
		wantID   string
	}{
		{"ping", []byte(`{"type":"ping","id":"ping-1"}`), WSTypePong, "ping-1"},
		{"invalid JSON", []byte("not json"), WSTypeError, ""},
		{"unknown type", []byte(`{"type":"unknown_type","id":"x-1"}`), WSTypeError, "x-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ws.WriteMessage(websocket.TextMessage, tt.frame); err != nil {
				t.Fatalf("write: %v", err)
			}
			resp := readWS(t, ws)
			if resp.Type != tt.wantType || resp.ID != tt.wantID {
				t.Errorf("response = %+v, want type %s id %q", resp, tt.wantType, tt.wantID)
			}
		})
	}
}

package hub

import "testing"

func newTestClient(id, category string) *Client {
	return &Client{ID: id, Send: make(chan []byte, 4), Category: category}
}

func TestBroadcastReachesAllClients(t *testing.T) {
	h := New()
	first := newTestClient("first", "")
	second := newTestClient("second", "")
	h.Register(first)
	h.Register(second)

	h.Broadcast([]byte(`{"type":"ticket_created"}`), "")

	for _, client := range []*Client{first, second} {
		select {
		case payload := <-client.Send:
			if string(payload) != `{"type":"ticket_created"}` {
				t.Fatalf("client %s got unexpected payload %s", client.ID, payload)
			}
		default:
			t.Fatalf("client %s did not receive broadcast", client.ID)
		}
	}
}

func TestBroadcastFiltersByCategory(t *testing.T) {
	h := New()
	counter := newTestClient("counter-display", "ventanilla")
	lobby := newTestClient("lobby-display", "")
	h.Register(counter)
	h.Register(lobby)

	h.Broadcast([]byte("caja frame"), "caja")

	select {
	case payload := <-counter.Send:
		t.Fatalf("counter display should not receive caja frame, got %s", payload)
	default:
	}
	select {
	case <-lobby.Send:
	default:
		t.Fatal("lobby display should receive every category")
	}
}

func TestBroadcastDropsWhenBufferFull(t *testing.T) {
	h := New()
	slow := &Client{ID: "slow", Send: make(chan []byte, 1)}
	h.Register(slow)

	h.Broadcast([]byte("one"), "")
	h.Broadcast([]byte("two"), "")

	if got := <-slow.Send; string(got) != "one" {
		t.Fatalf("expected first frame, got %s", got)
	}
	select {
	case got := <-slow.Send:
		t.Fatalf("second frame should have been dropped, got %s", got)
	default:
	}
}

func TestUnregisterClosesSendChannel(t *testing.T) {
	h := New()
	client := newTestClient("viewer", "")
	h.Register(client)
	if h.ClientCount() != 1 {
		t.Fatalf("expected 1 client, got %d", h.ClientCount())
	}

	h.Unregister(client)
	h.Unregister(client)

	if h.ClientCount() != 0 {
		t.Fatalf("expected 0 clients, got %d", h.ClientCount())
	}
	if _, open := <-client.Send; open {
		t.Fatal("send channel should be closed after unregister")
	}
}

func TestUpdateSubscription(t *testing.T) {
	h := New()
	client := newTestClient("display", "")
	h.Register(client)
	h.UpdateSubscription(client, "asesoria")

	h.Broadcast([]byte("ventanilla frame"), "ventanilla")
	select {
	case <-client.Send:
		t.Fatal("subscribed display should skip other categories")
	default:
	}

	h.Broadcast([]byte("asesoria frame"), "asesoria")
	select {
	case <-client.Send:
	default:
		t.Fatal("subscribed display should receive its category")
	}
}

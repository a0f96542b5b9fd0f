package notify

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cv-status/internal/config"
)

func TestHub_PublishDoesNotBlockOnSlowSubscriber(t *testing.T) {
	h := NewHub(config.DiscardLogger())
	slow, cancelSlow := h.Subscribe()
	defer cancelSlow()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*3; i++ {
			h.Publish(Notification{Type: "opened"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked")
	}
	assert.Len(t, slow, subscriberBuffer)
}

func TestHub_CancelUnsubscribes(t *testing.T) {
	h := NewHub(config.DiscardLogger())
	ch, cancel := h.Subscribe()
	assert.Equal(t, 1, h.Subscribers())

	cancel()
	cancel()
	assert.Equal(t, 0, h.Subscribers())
	_, open := <-ch
	assert.False(t, open)

	h.Publish(Notification{Type: "sent"})
}

func TestHub_ServeWS(t *testing.T) {
	h := NewHub(config.DiscardLogger())
	srv := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return h.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)
	h.Publish(Notification{Type: "replied", CandidateID: "c1", Status: "REPLIED"})

	var got Notification
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "replied", got.Type)
	assert.Equal(t, "c1", got.CandidateID)
	assert.False(t, got.At.IsZero())
}

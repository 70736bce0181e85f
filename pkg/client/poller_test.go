package client

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollerDeliversBatches(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, true, map[string]interface{}{
			"count": 1,
			"notifications": []Notification{
				{ID: 1, Type: "REQUEST_STATUS", Title: "Request approved"},
			},
		}, "")
	}))
	t.Cleanup(server.Close)

	session, store := newTestSession(t, server)
	require.NoError(t, store.Set(AccessTokenKey, "good-access"))
	session.state = StateAuthenticated
	session.user = &User{ID: 7}
	session.loaded = true

	batches := make(chan []Notification, 1)
	poller := NewPoller(session.client, session, 10*time.Millisecond, func(batch []Notification) {
		select {
		case batches <- batch:
		default:
		}
	})
	poller.Start()
	defer poller.Stop()

	select {
	case batch := <-batches:
		require.Len(t, batch, 1)
		assert.Equal(t, "Request approved", batch[0].Title)
	case <-time.After(2 * time.Second):
		t.Fatal("no notification batch delivered")
	}
}

func TestPollerSkipsWhileNotAuthenticated(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeEnvelope(w, http.StatusOK, true, nil, "")
	}))
	t.Cleanup(server.Close)

	session, _ := newTestSession(t, server)
	session.state = StateAnonymous
	session.loaded = true

	poller := NewPoller(session.client, session, 5*time.Millisecond, func([]Notification) {
		t.Error("callback fired for an anonymous session")
	})
	poller.Start()
	time.Sleep(50 * time.Millisecond)
	poller.Stop()

	assert.Zero(t, hits.Load())
}

func TestPollerStopWaitsForExit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, true, nil, "")
	}))
	t.Cleanup(server.Close)

	session, _ := newTestSession(t, server)
	poller := NewPoller(session.client, session, time.Millisecond, nil)
	poller.Start()

	done := make(chan struct{})
	go func() {
		poller.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
}

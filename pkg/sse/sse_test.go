package sse

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/events/:id", func(c *gin.Context) {
		hub.Serve(c, c.Query("client"), c.Param("id"))
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func openStream(t *testing.T, ctx context.Context, url string) *http.Response {
	t.Helper()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestServeDeliversGroupEvents(t *testing.T) {
	hub := NewHub(time.Minute)
	srv := newTestServer(t, hub)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp := openStream(t, ctx, srv.URL+"/events/alert-a?client=client_1")
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	// publish only once the handler has joined the group
	require.Eventually(t, func() bool {
		return hub.GroupSize("alert-a") == 1
	}, 2*time.Second, 10*time.Millisecond)
	hub.SendToGroupJSON("alert-a", map[string]string{"type": "location_update"})

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data: ") {
			assert.Contains(t, line, "location_update")
			return
		}
	}
	t.Fatal("stream closed before any event arrived")
}

func TestServeScopesEventsToGroup(t *testing.T) {
	hub := NewHub(time.Minute)
	srv := newTestServer(t, hub)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp := openStream(t, ctx, srv.URL+"/events/alert-b?client=client_1")

	require.Eventually(t, func() bool {
		return hub.GroupSize("alert-b") == 1
	}, 2*time.Second, 10*time.Millisecond)
	hub.SendToGroupJSON("alert-a", map[string]string{"seq": "other"})
	hub.SendToGroupJSON("alert-b", map[string]string{"seq": "mine"})

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data: ") {
			assert.Contains(t, line, "mine")
			assert.NotContains(t, line, "other")
			return
		}
	}
	t.Fatal("stream closed before any event arrived")
}

func TestServeEndsWhenClientGone(t *testing.T) {
	hub := NewHub(time.Minute)
	srv := newTestServer(t, hub)

	ctx, cancel := context.WithCancel(context.Background())
	openStream(t, ctx, srv.URL+"/events/alert-c?client=client_1")

	require.Eventually(t, func() bool {
		return hub.GroupSize("alert-c") == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.Eventually(t, func() bool {
		return hub.GroupSize("alert-c") == 0
	}, 2*time.Second, 10*time.Millisecond)
}

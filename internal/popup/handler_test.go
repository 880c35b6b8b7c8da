package popup

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acesoft/ace-crm-site/internal/observability/metrics"
	"github.com/acesoft/ace-crm-site/pkg/logging"
)

func dialPopup(t *testing.T, h *Handler) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readState(t *testing.T, conn *websocket.Conn) StateMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg StateMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestHandler_StreamsSequence(t *testing.T) {
	clock := NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	h := NewHandler(clock, DefaultDelays(), nil, logging.Discard(), metrics.NewPopupMetrics(prometheus.NewRegistry()))
	conn := dialPopup(t, h)

	require.Equal(t, StateMessage{State: "idle", Overlay: OverlayNone}, readState(t, conn))
	require.Eventually(t, func() bool { return clock.Pending() == 1 }, time.Second, 5*time.Millisecond)

	clock.Advance(10 * time.Second)
	require.Equal(t, StateMessage{State: "trial_shown", Overlay: OverlayTrial}, readState(t, conn))

	require.NoError(t, conn.WriteJSON(ClientMessage{Dismiss: OverlayTrial}))
	require.Equal(t, "trial_dismissed", readState(t, conn).State)

	clock.Advance(20 * time.Second)
	require.Equal(t, StateMessage{State: "demo_shown", Overlay: OverlayDemoForm}, readState(t, conn))

	// Dismissing something that is not visible changes nothing.
	require.NoError(t, conn.WriteJSON(ClientMessage{Dismiss: OverlayCallback}))
	require.NoError(t, conn.WriteJSON(ClientMessage{Dismiss: OverlayDemoForm}))
	require.Equal(t, "demo_dismissed", readState(t, conn).State)
}

func TestHandler_CloseUnmounts(t *testing.T) {
	clock := NewFakeClock(time.Unix(0, 0))
	h := NewHandler(clock, DefaultDelays(), nil, logging.Discard(), nil)
	conn := dialPopup(t, h)

	readState(t, conn)
	require.Eventually(t, func() bool { return clock.Pending() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")))
	require.Eventually(t, func() bool { return clock.Pending() == 0 }, time.Second, 5*time.Millisecond,
		"closing the page view must cancel the trial timer")
}

func TestHandler_ChecksOrigin(t *testing.T) {
	clock := NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	h := NewHandler(clock, DefaultDelays(), []string{"https://acesoft.in"}, logging.Discard(), nil)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://acesoft.in"}})
	require.NoError(t, err, "the configured marketing site may connect")
	t.Cleanup(func() { conn.Close() })
	require.Equal(t, "idle", readState(t, conn).State)

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

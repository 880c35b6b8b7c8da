package popup

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/acesoft/ace-crm-site/internal/http/middleware"
	"github.com/acesoft/ace-crm-site/internal/observability/metrics"
	"github.com/acesoft/ace-crm-site/pkg/logging"
)

const writeWait = 10 * time.Second

// StateMessage is pushed to the page on connect and after every transition.
type StateMessage struct {
	State   string  `json:"state"`
	Overlay Overlay `json:"overlay"`
}

// ClientMessage is what the page sends; only dismissals are understood.
type ClientMessage struct {
	Dismiss Overlay `json:"dismiss"`
}

// Handler hosts one sequencer per websocket connection. The connection is the
// page view: closing it unmounts the sequencer.
type Handler struct {
	clock    Clock
	delays   Delays
	logger   *logging.Logger
	metrics  *metrics.PopupMetrics
	upgrader websocket.Upgrader
}

// NewHandler creates a popup websocket handler. allowedOrigins lists the
// cross-origin pages that may connect, with the same rules as the CORS
// middleware.
func NewHandler(clock Clock, delays Delays, allowedOrigins []string, logger *logging.Logger, m *metrics.PopupMetrics) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if clock == nil {
		clock = RealClock()
	}
	return &Handler{
		clock:   clock,
		delays:  delays,
		logger:  logger,
		metrics: m,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     middleware.NewOriginAllowlist(allowedOrigins).CheckOrigin,
		},
	}
}

// ServeHTTP handles GET /ws/popup.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("popup websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	h.metrics.ViewOpened()
	defer h.metrics.ViewClosed()

	// Seven transitions at most per page view, so the buffer never fills.
	updates := make(chan State, 8)
	seq := New(h.clock,
		WithDelays(h.delays),
		WithLogger(h.logger),
		WithMetrics(h.metrics),
		WithListener(func(c Change) {
			select {
			case updates <- c.To:
			default:
				h.logger.Warn("popup update dropped", "state", c.To.String())
			}
		}),
	)

	if err := h.write(conn, seq.State()); err != nil {
		return
	}

	done := make(chan struct{})
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.writeLoop(conn, updates, done)
	}()

	seq.Mount()
	h.readLoop(conn, seq)

	seq.Unmount()
	close(done)
	<-writerDone
}

func (h *Handler) readLoop(conn *websocket.Conn, seq *Sequencer) {
	for {
		var msg ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("popup websocket read ended", "error", err)
			}
			return
		}
		if msg.Dismiss == "" {
			continue
		}
		if !seq.Dismiss(msg.Dismiss) {
			h.logger.Debug("popup dismiss ignored", "overlay", string(msg.Dismiss), "state", seq.State().String())
		}
	}
}

func (h *Handler) writeLoop(conn *websocket.Conn, updates <-chan State, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case s := <-updates:
			if err := h.write(conn, s); err != nil {
				return
			}
		}
	}
}

func (h *Handler) write(conn *websocket.Conn, s State) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	err := conn.WriteJSON(StateMessage{State: s.String(), Overlay: s.Overlay()})
	if err != nil {
		h.logger.Debug("popup websocket write failed", "error", err)
	}
	return err
}

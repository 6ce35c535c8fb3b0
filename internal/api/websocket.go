package api

import (
	"sync"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/alwaisy/keyinsights-backend/internal/hub"
)

// jsonWriter is the write surface the pump needs from a session.
type jsonWriter interface {
	writeJSON(v any) error
}

// wsSession serializes writes: the hub pump and the ping reader both write
// to the connection.
type wsSession struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (w *wsSession) writeJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteJSON(v)
}

func (w *wsSession) writeText(msg string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteMessage(websocket.TextMessage, []byte(msg))
}

// handleSubscribe upgrades to a WebSocket and streams status transitions for
// one request_id. On attach the client gets the current status from a fresh
// store read; there is no history replay. A "ping" message elicits "pong"
// plus a re-send of the current status without mutating any state.
func (s *Server) handleSubscribe(c echo.Context) error {
	id := c.Param("id")

	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	ws := &wsSession{conn: conn}
	log := s.logger.With(zap.String("request_id", id))
	log.Debug("subscriber attached")

	if err := s.sendCurrentStatus(c, ws, id); err != nil {
		log.Debug("initial status send failed", zap.Error(err))
		return nil
	}

	sub := s.hub.Subscribe(id)
	defer s.hub.Unsubscribe(id, sub)

	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if string(msg) == "ping" {
				if err := ws.writeText("pong"); err != nil {
					return
				}
				// Liveness probes refresh the client's view but touch no
				// job or counter state.
				if err := s.sendCurrentStatus(c, ws, id); err != nil {
					return
				}
			}
		}
	}()

	s.pump(ws, sub, readerDone, log)
	return nil
}

// pump forwards hub updates to the connection until the client disconnects,
// a write fails, or the hub detaches the subscriber (e.g. dropped as slow).
// Returning closes the socket via the handler's deferred Close.
func (s *Server) pump(ws jsonWriter, sub *hub.Subscriber, readerDone <-chan struct{}, log *zap.Logger) {
	for {
		select {
		case <-readerDone:
			log.Debug("subscriber disconnected")
			return
		case <-sub.Done():
			log.Debug("subscriber detached by hub")
			return
		case job := <-sub.Updates():
			if err := ws.writeJSON(job); err != nil {
				log.Debug("push failed, detaching subscriber", zap.Error(err))
				return
			}
		}
	}
}

func (s *Server) sendCurrentStatus(c echo.Context, ws *wsSession, id string) error {
	job, err := s.statuses.ReadStatus(c.Request().Context(), id)
	if err != nil {
		s.logger.Warn("status read failed", zap.String("request_id", id), zap.Error(err))
	}
	if job == nil {
		return ws.writeJSON(errorResponse{
			Error:     "request not found",
			ErrorCode: "request_not_found",
		})
	}
	return ws.writeJSON(job)
}

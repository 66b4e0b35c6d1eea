package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/muhammadchandra19/market-gateway/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pingPeriod     = 30 * time.Second
	subscriberSize = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The gateway serves local dashboards; origin checks are left to the
	// fronting proxy.
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleWS upgrades the connection and streams hub events as JSON frames
// until the client disconnects.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error(err, logger.Field{Key: "operation", Value: "Upgrade"})
		return
	}
	defer conn.Close()

	sub := s.session.Hub().Subscribe(subscriberSize)
	defer s.session.Hub().Unsubscribe(sub)

	remote := conn.RemoteAddr().String()
	s.logger.Info("websocket client connected", logger.Field{Key: "remote", Value: remote})

	// Drain reads so close frames and pongs are processed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			s.logger.Info("websocket client disconnected", logger.Field{Key: "remote", Value: remote})
			return
		case event, ok := <-sub.C:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(event); err != nil {
				s.logger.Error(err,
					logger.Field{Key: "operation", Value: "WriteJSON"},
					logger.Field{Key: "remote", Value: remote},
				)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/muhammadchandra19/market-gateway/internal/app/session"
	"github.com/muhammadchandra19/market-gateway/pkg/config"
	"github.com/muhammadchandra19/market-gateway/pkg/logger"
)

// Server is the presentation-facing HTTP surface: REST queries over the
// session's market state, order entry, and a websocket event stream.
type Server struct {
	addr    string
	session *session.Session
	logger  logger.Interface

	httpServer *http.Server
}

// NewServer creates the HTTP server bound to one session.
func NewServer(cfg config.ServerConfig, sess *session.Session, log logger.Interface) *Server {
	s := &Server{
		addr:    cfg.Addr,
		session: sess,
		logger:  log,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/book", s.handleBook)
	mux.HandleFunc("/prices", s.handlePrices)
	mux.HandleFunc("/candles", s.handleCandles)
	mux.HandleFunc("/orders", s.handleOrders)
	mux.HandleFunc("/orders/", s.handleOrderByID)
	mux.HandleFunc("/ws", s.handleWS)

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Run serves until ctx is done, then drains with a short shutdown grace
// period.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http listening", logger.Field{Key: "addr", Value: s.addr})
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleBook reports the current book summary and depth.
func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	body := map[string]any{
		"productId": s.session.ProductID(),
		"bidVolume": s.session.BidVolume(),
		"askVolume": s.session.AskVolume(),
		"bids":      s.session.BidDepth(),
		"asks":      s.session.AskDepth(),
	}
	if bid, ok := s.session.BestBid(); ok {
		body["bestBid"] = bid
	}
	if ask, ok := s.session.BestAsk(); ok {
		body["bestAsk"] = ask
	}
	s.writeJSON(w, http.StatusOK, body)
}

// handlePrices reports the retained trade-price history, oldest first.
func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	body := map[string]any{
		"productId": s.session.ProductID(),
		"prices":    s.session.RecentPrices(),
	}
	if last, ok := s.session.LastPrice(); ok {
		body["last"] = last
	}
	s.writeJSON(w, http.StatusOK, body)
}

// handleCandles reports the candle history plus the live revision of the
// newest bucket.
func (s *Server) handleCandles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	body := map[string]any{
		"productId": s.session.ProductID(),
		"candles":   s.session.CandleHistory(),
	}
	if latest, ok := s.session.LatestCandle(); ok {
		body["latest"] = latest
	}
	s.writeJSON(w, http.StatusOK, body)
}

// handleOrders accepts one order submission and reports the match outcome.
func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req session.PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, result, err := s.session.SubmitOrder(r.Context(), req)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"orderId":   id,
		"posted":    result.Posted,
		"filled":    result.Filled,
		"remaining": result.Remaining,
		"fills":     result.Fills,
	})
}

// handleOrderByID cancels one resting order. Unknown ids report 404.
func (s *Server) handleOrderByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	raw := strings.TrimPrefix(r.URL.Path, "/orders/")
	orderID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	if !s.session.CancelOrder(orderID) {
		s.writeError(w, http.StatusNotFound, "order not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"orderId": orderID, "cancelled": true})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error(err, logger.Field{Key: "operation", Value: "writeJSON"})
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

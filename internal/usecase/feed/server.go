package feed

import (
	"context"
	"errors"
	"io"
	"net"

	marketdatav1 "github.com/muhammadchandra19/market-gateway/internal/domain/marketdata/v1"
	"github.com/muhammadchandra19/market-gateway/pkg/config"
	pkgerrors "github.com/muhammadchandra19/market-gateway/pkg/errors"
	"github.com/muhammadchandra19/market-gateway/pkg/logger"
)

// Sink consumes decoded market-data messages. The session implements it.
//
//go:generate mockgen -source server.go -destination=mock/server_mock.go -package=feed_mock
type Sink interface {
	ApplyBook(ctx context.Context, book marketdatav1.Book)
	ApplyCandle(ctx context.Context, tick marketdatav1.CandleTick)
	ApplyTrade(ctx context.Context, trade marketdatav1.Trade)
}

// Server accepts market-data producers over TCP and streams their framed
// binary messages into the sink. Decode errors skip the message; framing
// errors terminate the connection. Core state is never touched by a message
// that failed to decode.
type Server struct {
	addr   string
	sink   Sink
	logger logger.Interface
}

// NewServer creates a feed server listening on the configured address.
func NewServer(cfg config.FeedConfig, sink Sink, log logger.Interface) *Server {
	return &Server{
		addr:   cfg.Addr,
		sink:   sink,
		logger: log,
	}
}

// Run listens and serves connections until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return pkgerrors.NewTracer("feed listen failed").Wrap(err)
	}
	defer listener.Close()

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	s.logger.Info("feed listening", logger.Field{Key: "addr", Value: s.addr})

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Error(err, logger.Field{Key: "operation", Value: "Accept"})
			continue
		}
		go s.serveConn(ctx, conn)
	}
}

// serveConn reads framed messages from one producer until the stream ends.
func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	remote := conn.RemoteAddr().String()
	s.logger.Info("feed client connected", logger.Field{Key: "remote", Value: remote})

	for {
		if ctx.Err() != nil {
			return
		}

		tag, payload, err := marketdatav1.ReadFrame(conn)
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.logger.Info("feed client disconnected", logger.Field{Key: "remote", Value: remote})
			} else {
				s.logger.Error(err,
					logger.Field{Key: "operation", Value: "ReadFrame"},
					logger.Field{Key: "remote", Value: remote},
				)
			}
			return
		}

		msg, err := marketdatav1.Decode(tag, payload)
		if err != nil {
			// Non-fatal per message: skip and keep the stream alive.
			s.logger.Warn("skipping undecodable message",
				logger.Field{Key: "tag", Value: string(tag)},
				logger.Field{Key: "payloadBytes", Value: len(payload)},
				logger.Field{Key: "error", Value: err.Error()},
			)
			continue
		}

		s.dispatch(ctx, msg)
	}
}

func (s *Server) dispatch(ctx context.Context, msg marketdatav1.Message) {
	switch m := msg.(type) {
	case marketdatav1.Snapshot:
		s.sink.ApplyBook(ctx, m.Book)
	case marketdatav1.Update:
		s.sink.ApplyBook(ctx, m.Book)
	case marketdatav1.CandleTick:
		s.sink.ApplyCandle(ctx, m)
	case marketdatav1.Trade:
		s.sink.ApplyTrade(ctx, m)
	}
}

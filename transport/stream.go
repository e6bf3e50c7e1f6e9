package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"

	"github.com/wirerpc/wirerpc/dispatch"
	"github.com/wirerpc/wirerpc/wire"
)

// StreamServer serves the protocol over byte streams. Requests arrive as a
// sequence of JSON values; responses go out one per line. Messages on one
// connection dispatch sequentially in arrival order.
type StreamServer struct {
	dispatcher *dispatch.Dispatcher
	opts       options
}

// NewStreamServer builds a stream server dispatching to d.
func NewStreamServer(d *dispatch.Dispatcher, opts ...Option) *StreamServer {
	return &StreamServer{dispatcher: d, opts: newOptions(opts)}
}

// Serve accepts connections from ln until ctx is done or Accept fails,
// serving each connection on its own goroutine.
func (s *StreamServer) Serve(ctx context.Context, ln net.Listener) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			ln.Close()
		case <-done:
		}
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		go s.ServeConn(ctx, conn)
	}
}

// ServeConn serves a single connection until it closes, ctx is done, or a
// malformed message poisons the stream. A payload that is not well-formed
// JSON is answered with one invalid request failure and the connection is
// dropped, since the decoder cannot resynchronize past it.
func (s *StreamServer) ServeConn(ctx context.Context, conn io.ReadWriteCloser) {
	defer conn.Close()

	dec := json.NewDecoder(conn)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return
			}
			s.opts.log.Debug().Err(err).Msg("stream decode failed")
			s.write(conn, invalidRequestJSON())
			return
		}

		if resp := s.dispatcher.HandleRaw(ctx, raw); resp != nil {
			if err := s.write(conn, resp); err != nil {
				return
			}
		}
	}
}

func (s *StreamServer) write(w io.Writer, payload []byte) error {
	if _, err := w.Write(append(payload, '\n')); err != nil {
		s.opts.log.Debug().Err(err).Msg("stream write failed")
		return err
	}
	return nil
}

func invalidRequestJSON() []byte {
	out, err := json.Marshal(wire.Response{
		Outputs: []wire.Output{wire.Failure(nil, wire.InvalidRequestError())},
	})
	if err != nil {
		panic("transport: invalid request response failed to encode: " + err.Error())
	}
	return out
}

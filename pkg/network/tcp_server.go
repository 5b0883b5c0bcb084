package network

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net"
	"sync"
	"triedb/pkg/core"
	"triedb/pkg/protocol"
	"triedb/pkg/trie"
)

type TCPServer struct {
	store *core.Store

	mu       sync.Mutex
	listener net.Listener
}

func NewTCPServer(store *core.Store) *TCPServer {
	return &TCPServer{store: store}
}

func (s *TCPServer) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(listener)
}

// Serve accepts connections on l until Close is called.
func (s *TCPServer) Serve(l net.Listener) error {
	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()

	slog.Info("TCP listening", "addr", l.Addr().String())

	for {
		conn, err := l.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			slog.Warn("TCP accept failed", "error", err)
			continue
		}
		go s.handleConn(conn)
	}
}

func (s *TCPServer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}

func (s *TCPServer) handleConn(conn net.Conn) {
	defer conn.Close()
	ctx := context.Background()

	for {
		req, err := protocol.Decode(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				slog.Debug("TCP decode failed", "remote", conn.RemoteAddr().String(), "error", err)
			}
			return
		}

		op, val, err := s.dispatch(ctx, req)
		if err != nil {
			op, val = protocol.RespErr, []byte(err.Error())
		}
		if err := protocol.Encode(conn, op, nil, val); err != nil {
			slog.Debug("TCP write failed", "remote", conn.RemoteAddr().String(), "error", err)
			return
		}
	}
}

func (s *TCPServer) dispatch(ctx context.Context, req *protocol.Packet) (byte, []byte, error) {
	field := string(req.Key)

	switch req.Op {
	case protocol.OpPut:
		doc, v, err := protocol.ParsePut(req.Value)
		if err != nil {
			return 0, nil, err
		}
		if err := s.store.Put(ctx, doc, field, v); err != nil {
			return 0, nil, err
		}
		return protocol.RespOK, nil, nil

	case protocol.OpDel:
		doc, err := protocol.ParseDel(req.Value)
		if err != nil {
			return 0, nil, err
		}
		if err := s.store.Delete(ctx, doc, field); err != nil {
			return 0, nil, err
		}
		return protocol.RespOK, nil, nil

	case protocol.OpRange:
		lower, upper, err := protocol.ParseRange(req.Value)
		if err != nil {
			return 0, nil, err
		}
		docs, err := s.store.Range(field, lower, upper)
		if err != nil {
			return 0, nil, err
		}
		return protocol.RespVal, protocol.EncodeDocs(docs), nil

	case protocol.OpSplit:
		subs, err := split(req.Value)
		if err != nil {
			return 0, nil, err
		}
		return protocol.RespVal, protocol.EncodeSubranges(subs), nil
	}

	return 0, nil, fmt.Errorf("unknown op 0x%02x", req.Op)
}

func split(payload []byte) ([]trie.Subrange, error) {
	width, step, lower, upper, err := protocol.ParseSplit(payload)
	if err != nil {
		return nil, err
	}

	switch width {
	case trie.Width64:
		return trie.CollectInt64Range(lower, upper, step)
	case trie.Width32:
		if !fitsInt32(lower) || !fitsInt32(upper) {
			return nil, fmt.Errorf("bounds [%d, %d] exceed 32 bits", lower, upper)
		}
		return trie.CollectInt32Range(int32(lower), int32(upper), step)
	}
	return nil, fmt.Errorf("unsupported width %d", width)
}

func fitsInt32(v int64) bool {
	return v >= math.MinInt32 && v <= math.MaxInt32
}

package client

import (
	"context"
	"net"
	"testing"
	"time"

	"triedb/pkg/common"
	"triedb/pkg/config"
	"triedb/pkg/core"
	"triedb/pkg/network"
	"triedb/pkg/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialInvalidAddr(t *testing.T) {
	_, err := Dial("invalid:invalid:invalid")
	if err == nil {
		t.Fatal("expected error for invalid address")
	}
}

func startServer(t *testing.T) (string, *network.TCPServer) {
	t.Helper()

	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.Storage.Path = dir
	backend, err := storage.NewSQLiteBackend(dir + "/test.db")
	require.NoError(t, err)
	store, err := core.NewStoreWithBackend(cfg, backend)
	require.NoError(t, err)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := network.NewTCPServer(store)
	go srv.Serve(l)

	t.Cleanup(func() {
		srv.Close()
		store.Close()
	})
	return l.Addr().String(), srv
}

func TestClientRoundTrip(t *testing.T) {
	addr, _ := startServer(t)
	c, err := Dial(addr)
	require.NoError(t, err)
	defer c.Close()

	for i := 0; i < 50; i++ {
		require.NoError(t, c.Put("temp", common.DocID(i), common.Float64Value(float64(i)-25.5)))
	}

	docs, err := c.Range("temp", common.Float64Value(-1), common.Float64Value(1))
	require.NoError(t, err)
	assert.Equal(t, []common.DocID{25, 26}, docs)

	require.NoError(t, c.Delete("temp", 25))
	docs, err = c.Range("temp", common.Float64Value(-1), common.Float64Value(1))
	require.NoError(t, err)
	assert.Equal(t, []common.DocID{26}, docs)

	docs, err = c.Range("temp", common.Float64Value(1), common.Float64Value(-1))
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestClientServerErrors(t *testing.T) {
	addr, _ := startServer(t)
	c, err := Dial(addr)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Range("missing", common.Int64Value(0), common.Int64Value(1))
	assert.ErrorIs(t, err, ErrServer)

	require.NoError(t, c.Put("n", 1, common.Int64Value(1)))
	err = c.Put("n", 2, common.Float64Value(1))
	assert.ErrorIs(t, err, ErrServer)

	_, err = c.Split(64, 0, 0, 10)
	assert.ErrorIs(t, err, ErrServer)
	_, err = c.Split(16, 4, 0, 10)
	assert.ErrorIs(t, err, ErrServer)

	_, err = c.Range("n", common.Int64Value(0), common.Int32Value(1))
	assert.Error(t, err)

	// the connection survives error replies
	docs, err := c.Range("n", common.Int64Value(0), common.Int64Value(1))
	require.NoError(t, err)
	assert.Equal(t, []common.DocID{1}, docs)
}

func TestClientSplit(t *testing.T) {
	addr, _ := startServer(t)
	c, err := Dial(addr)
	require.NoError(t, err)
	defer c.Close()

	subs, err := c.Split(32, 8, -5000, 9500)
	require.NoError(t, err)
	require.NotEmpty(t, subs)
	assert.Equal(t, int64(-5000), subs[0].Min)
	assert.Equal(t, uint(0), subs[0].Shift)

	var covered int64
	for _, s := range subs {
		covered += s.Max - s.Min + 1
	}
	assert.Equal(t, int64(9500+5000+1), covered)
}

func TestClientReconnects(t *testing.T) {
	addr, _ := startServer(t)
	c, err := Dial(addr)
	require.NoError(t, err)
	defer c.Close()

	// break the current connection; the next call must redial
	c.conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- c.Put("x", 1, common.Int32Value(3)) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-ctx.Done():
		t.Fatal("put after reconnect timed out")
	}

	docs, err := c.Range("x", common.Int32Value(0), common.Int32Value(5))
	require.NoError(t, err)
	assert.Equal(t, []common.DocID{1}, docs)
}

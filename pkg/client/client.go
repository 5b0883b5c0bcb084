package client

import (
	"errors"
	"fmt"
	"net"
	"time"
	"triedb/pkg/common"
	"triedb/pkg/protocol"
	"triedb/pkg/trie"
)

// ErrServer wraps the message of a RespErr reply.
var ErrServer = errors.New("server error")

const dialTimeout = 5 * time.Second

type Client struct {
	conn net.Conn
	addr string
}

func Dial(addr string) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return nil, err
	}
	return &Client{
		conn: conn,
		addr: addr,
	}, nil
}

func (c *Client) Put(field string, doc common.DocID, v common.Value) error {
	_, err := c.call(protocol.OpPut, []byte(field), protocol.PutPayload(doc, v))
	return err
}

func (c *Client) Delete(field string, doc common.DocID) error {
	_, err := c.call(protocol.OpDel, []byte(field), protocol.DelPayload(doc))
	return err
}

// Range returns the sorted documents of field with a value in [lower, upper].
func (c *Client) Range(field string, lower, upper common.Value) ([]common.DocID, error) {
	if lower.Kind != upper.Kind {
		return nil, fmt.Errorf("bounds differ in kind: %s and %s", lower.Kind, upper.Kind)
	}
	data, err := c.call(protocol.OpRange, []byte(field), protocol.RangePayload(lower, upper))
	if err != nil {
		return nil, err
	}
	return protocol.DecodeDocs(data)
}

// Split asks the server to decompose [lower, upper] into trie subranges.
func (c *Client) Split(width, step uint, lower, upper int64) ([]trie.Subrange, error) {
	data, err := c.call(protocol.OpSplit, nil, protocol.SplitPayload(width, step, lower, upper))
	if err != nil {
		return nil, err
	}
	return protocol.DecodeSubranges(data)
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// call sends one request and reads its reply. A transport failure triggers one
// reconnect and resend; a RespErr reply does not.
func (c *Client) call(op byte, key, val []byte) ([]byte, error) {
	resp, err := c.roundTrip(op, key, val)
	if err != nil {
		if err := c.reconnect(); err != nil {
			return nil, err
		}
		if resp, err = c.roundTrip(op, key, val); err != nil {
			return nil, err
		}
	}

	switch resp.Op {
	case protocol.RespOK, protocol.RespVal:
		return resp.Value, nil
	case protocol.RespErr:
		return nil, fmt.Errorf("%w: %s", ErrServer, resp.Value)
	}
	return nil, fmt.Errorf("unknown response 0x%02x", resp.Op)
}

func (c *Client) roundTrip(op byte, key, val []byte) (*protocol.Packet, error) {
	if err := protocol.Encode(c.conn, op, key, val); err != nil {
		return nil, err
	}
	return protocol.Decode(c.conn)
}

func (c *Client) reconnect() error {
	c.conn.Close()
	conn, err := net.DialTimeout("tcp", c.addr, dialTimeout)
	if err != nil {
		return err
	}
	c.conn = conn
	return nil
}

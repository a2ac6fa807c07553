// Package client provides a producer-side client for the beacon collector.
//
// The client holds one persistent connection. Samples are fire-and-forget;
// statistics requests are the only request/response exchange on the wire.
package client

import (
	"fmt"
	"net"
	"time"

	"github.com/xtxerr/beacon/internal/wire"
)

// Client is one producer connection to the collector.
//
// Client is not safe for concurrent use; each producer owns its own
// connection, matching one session on the server side.
type Client struct {
	conn net.Conn
	w    *wire.Conn
}

// Dial connects to the collector at addr ("host:port").
func Dial(addr string, timeout time.Duration) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", addr, err)
	}
	return &Client{
		conn: conn,
		w:    wire.NewConn(conn),
	}, nil
}

// SendSample streams one telemetry sample. No response is expected.
func (c *Client) SendSample(uuid string, timestamp int64, x, y float64) error {
	return c.w.WritePacket(&wire.Packet{
		Type: wire.TypeData,
		Data: &wire.Data{
			UUID:      uuid,
			Timestamp: timestamp,
			X:         x,
			Y:         y,
		},
	})
}

// Statistics requests the rolling-window statistics and blocks for the
// response.
func (c *Client) Statistics() (*wire.Statistics, error) {
	if err := c.w.WritePacket(&wire.Packet{Type: wire.TypeStatistics}); err != nil {
		return nil, err
	}
	return c.w.ReadStatistics()
}

// Send writes a raw packet. Used to exercise unknown discriminants.
func (c *Client) Send(p *wire.Packet) error {
	return c.w.WritePacket(p)
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

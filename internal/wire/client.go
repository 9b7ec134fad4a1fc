package wire

import (
	"fmt"
	"net"
	"time"
)

// Client dials the daemon's unix socket and exchanges one command per
// connection: write command, optionally wait for one result, close.
type Client struct {
	socketPath string
	timeout    time.Duration
}

func NewClient(socketPath string, timeout time.Duration) *Client {
	return &Client{socketPath: socketPath, timeout: timeout}
}

// Alive reports whether something is accepting connections on the socket.
func (c *Client) Alive() bool {
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// Call sends a command that expects a reply and waits for the result.
func (c *Client) Call(cmd *Command) (*Result, error) {
	if !cmd.Type.ExpectsReply() {
		return nil, fmt.Errorf("wire: %s is fire-and-forget, use Send", cmd.Type)
	}

	conn, err := c.dialAndSend(cmd)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	frame, err := ReadFrame(conn, c.timeout)
	if err != nil {
		return nil, err
	}
	return UnmarshalResult(frame)
}

// Send sends a fire-and-forget command and returns without waiting.
func (c *Client) Send(cmd *Command) error {
	conn, err := c.dialAndSend(cmd)
	if err != nil {
		return err
	}
	return conn.Close()
}

func (c *Client) dialAndSend(cmd *Command) (net.Conn, error) {
	data, err := MarshalCommand(cmd)
	if err != nil {
		return nil, err
	}

	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("wire: dial %q: %w", c.socketPath, err)
	}

	if err := WriteFrame(conn, data, c.timeout); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

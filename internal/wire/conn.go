package wire

import (
	"fmt"
	"io"
	"net"
	"time"
)

// closeWriter is satisfied by *net.UnixConn and *net.TCPConn. Closing the
// write half signals end-of-frame to the peer, which reads until EOF.
type closeWriter interface {
	CloseWrite() error
}

// ReadFrame reads one frame (everything until EOF on the read side) with a
// bounded deadline.
func ReadFrame(conn net.Conn, timeout time.Duration) ([]byte, error) {
	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(conn)
	if err != nil {
		return nil, fmt.Errorf("wire: read frame: %w", err)
	}
	return data, nil
}

// WriteFrame writes one frame with a bounded deadline and, when the
// connection supports it, closes the write half so the peer sees EOF.
func WriteFrame(conn net.Conn, data []byte, timeout time.Duration) error {
	if err := conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
		return err
	}
	if _, err := conn.Write(data); err != nil {
		return fmt.Errorf("wire: write frame: %w", err)
	}
	if cw, ok := conn.(closeWriter); ok {
		if err := cw.CloseWrite(); err != nil {
			return fmt.Errorf("wire: close write: %w", err)
		}
	}
	return nil
}

package wire

import (
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serveOnce accepts one connection, decodes the command and answers with the
// given result. Runs in the background so the client under test can dial.
func serveOnce(t *testing.T, socketPath string, reply *Result) <-chan *Command {
	t.Helper()

	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)
	t.Cleanup(func() { listener.Close() })

	got := make(chan *Command, 1)
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		frame, err := ReadFrame(conn, time.Second)
		if err != nil {
			return
		}
		cmd, err := UnmarshalCommand(frame)
		if err != nil {
			return
		}
		got <- cmd

		if reply != nil {
			data, err := MarshalResult(reply)
			if err != nil {
				return
			}
			_ = WriteFrame(conn, data, time.Second)
		}
	}()
	return got
}

func testSocketPath(t *testing.T) string {
	t.Helper()
	// Unix socket paths are length limited, keep the temp dir short.
	dir, err := os.MkdirTemp("", "rgw")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "d.sock")
}

func TestClientAlive(t *testing.T) {
	socketPath := testSocketPath(t)
	client := NewClient(socketPath, time.Second)

	assert.False(t, client.Alive())

	listener, err := net.Listen("unix", socketPath)
	require.NoError(t, err)
	defer listener.Close()

	assert.True(t, client.Alive())
}

func TestClientCallRoundTrip(t *testing.T) {
	socketPath := testSocketPath(t)
	got := serveOnce(t, socketPath, Ok("pong"))

	res, err := NewClient(socketPath, time.Second).Call(NewPing())
	require.NoError(t, err)
	assert.True(t, res.IsOk())
	assert.Equal(t, "pong", res.Message)

	cmd := <-got
	assert.Equal(t, CmdPing, cmd.Type)
}

func TestClientCallRejectsFireAndForget(t *testing.T) {
	client := NewClient(testSocketPath(t), time.Second)

	_, err := client.Call(NewMessage("hi"))
	require.ErrorContains(t, err, "fire-and-forget")
}

func TestClientSendDeliversWithoutReply(t *testing.T) {
	socketPath := testSocketPath(t)
	got := serveOnce(t, socketPath, nil)

	require.NoError(t, NewClient(socketPath, time.Second).Send(NewMessage("note")))

	cmd := <-got
	require.Equal(t, CmdMessage, cmd.Type)
	msg, ok := cmd.Data.(Message)
	require.True(t, ok)
	assert.Equal(t, "note", msg.Text)
}

func TestClientCallDialFailure(t *testing.T) {
	client := NewClient(testSocketPath(t), 200*time.Millisecond)

	_, err := client.Call(NewPing())
	require.Error(t, err)
}

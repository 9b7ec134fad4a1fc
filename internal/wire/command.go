// Package wire defines the command/result messages exchanged between the
// rgdrive CLI and the rgdrived daemon, and their framing over the local unix
// socket.
package wire

import "fmt"

type CommandType uint16

const (
	CmdNone CommandType = iota
	CmdMessage
	CmdPing
	CmdPush
	CmdPull
	CmdSync
	CmdUnsync
	CmdQuit
)

func (t CommandType) String() string {
	switch t {
	case CmdNone:
		return "NONE"
	case CmdMessage:
		return "MESSAGE"
	case CmdPing:
		return "PING"
	case CmdPush:
		return "PUSH"
	case CmdPull:
		return "PULL"
	case CmdSync:
		return "SYNC"
	case CmdUnsync:
		return "UNSYNC"
	case CmdQuit:
		return "QUIT"
	default:
		return fmt.Sprintf("???(%d)", uint16(t))
	}
}

// ExpectsReply reports whether a command of this type is answered with a
// Result. This is a property of the command type itself, not of its payload:
// fire-and-forget commands never produce a response, all others always do.
func (t CommandType) ExpectsReply() bool {
	switch t {
	case CmdNone, CmdMessage:
		return false
	default:
		return true
	}
}

// Command is one decoded client request. Commands are built once, at decode
// time, and never mutated.
type Command struct {
	Type CommandType
	Data any
}

// Pull downloads a remote file to Dest and starts tracking it.
type Pull struct {
	RemoteID  string `msgpack:"rid"`
	Dest      string `msgpack:"dst"`
	Overwrite bool   `msgpack:"ow"`
}

// Push uploads a local file (or every file under a directory) and starts
// tracking each uploaded path.
type Push struct {
	Path string `msgpack:"pth"`
}

// Sync binds an existing local path to a remote id without transferring
// anything.
type Sync struct {
	Path     string `msgpack:"pth"`
	RemoteID string `msgpack:"rid"`
}

// Unsync removes every tracking entry for a local path.
type Unsync struct {
	Path string `msgpack:"pth"`
}

// Message is an informational, fire-and-forget note to the daemon log.
type Message struct {
	Text string `msgpack:"txt"`
}

func NewPull(remoteID, dest string, overwrite bool) *Command {
	return &Command{Type: CmdPull, Data: Pull{RemoteID: remoteID, Dest: dest, Overwrite: overwrite}}
}

func NewPush(path string) *Command {
	return &Command{Type: CmdPush, Data: Push{Path: path}}
}

func NewSync(path, remoteID string) *Command {
	return &Command{Type: CmdSync, Data: Sync{Path: path, RemoteID: remoteID}}
}

func NewUnsync(path string) *Command {
	return &Command{Type: CmdUnsync, Data: Unsync{Path: path}}
}

func NewMessage(text string) *Command {
	return &Command{Type: CmdMessage, Data: Message{Text: text}}
}

func NewPing() *Command {
	return &Command{Type: CmdPing}
}

func NewQuit() *Command {
	return &Command{Type: CmdQuit}
}

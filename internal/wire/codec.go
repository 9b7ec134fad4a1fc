package wire

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Encoding indicates which payload encoding follows the envelope.
type Encoding uint8

const (
	EncodingMsgPack Encoding = iota
)

const (
	magic0  = byte('R')
	magic1  = byte('G')
	version = byte(1)

	envelopeSize = 4
)

var (
	// ErrBadEnvelope is returned for a non-empty frame that does not start
	// with a valid envelope.
	ErrBadEnvelope = errors.New("wire: frame missing RG envelope")
)

// wireCommand is the on-the-wire shape of a Command: the type tag plus the
// msgpack-encoded payload for types that carry one.
type wireCommand struct {
	Type CommandType `msgpack:"typ"`
	Data []byte      `msgpack:"dat"`
}

// MarshalCommand encodes a command as [magic][version][encoding][payload].
func MarshalCommand(cmd *Command) ([]byte, error) {
	var dat []byte
	var err error

	switch cmd.Type {
	case CmdNone, CmdPing, CmdQuit:
		// no payload
	case CmdPull:
		dat, err = marshalPayload[Pull](cmd.Data)
	case CmdPush:
		dat, err = marshalPayload[Push](cmd.Data)
	case CmdSync:
		dat, err = marshalPayload[Sync](cmd.Data)
	case CmdUnsync:
		dat, err = marshalPayload[Unsync](cmd.Data)
	case CmdMessage:
		dat, err = marshalPayload[Message](cmd.Data)
	default:
		return nil, fmt.Errorf("wire: unknown command type: %d", cmd.Type)
	}
	if err != nil {
		return nil, err
	}

	payload, err := msgpack.Marshal(&wireCommand{Type: cmd.Type, Data: dat})
	if err != nil {
		return nil, err
	}
	return envelope(payload), nil
}

// UnmarshalCommand decodes a frame into a Command. An empty frame decodes to
// CmdNone: spurious zero-length reads happen on unix sockets and are not an
// error.
func UnmarshalCommand(data []byte) (*Command, error) {
	if len(data) == 0 {
		return &Command{Type: CmdNone}, nil
	}

	payload, err := unwrap(data)
	if err != nil {
		return nil, err
	}

	var w wireCommand
	dec := msgpack.NewDecoder(bytes.NewReader(payload))
	dec.SetCustomStructTag("msgpack")
	if err := dec.Decode(&w); err != nil {
		return nil, fmt.Errorf("wire: decode command: %w", err)
	}

	cmd := &Command{Type: w.Type}
	switch w.Type {
	case CmdNone, CmdPing, CmdQuit:
		// no payload
	case CmdPull:
		cmd.Data, err = unmarshalPayload[Pull](w.Data)
	case CmdPush:
		cmd.Data, err = unmarshalPayload[Push](w.Data)
	case CmdSync:
		cmd.Data, err = unmarshalPayload[Sync](w.Data)
	case CmdUnsync:
		cmd.Data, err = unmarshalPayload[Unsync](w.Data)
	case CmdMessage:
		cmd.Data, err = unmarshalPayload[Message](w.Data)
	default:
		return nil, fmt.Errorf("wire: unknown command type: %d", w.Type)
	}
	if err != nil {
		return nil, err
	}
	return cmd, nil
}

// MarshalResult encodes a result with the same envelope as commands.
func MarshalResult(r *Result) ([]byte, error) {
	payload, err := msgpack.Marshal(r)
	if err != nil {
		return nil, err
	}
	return envelope(payload), nil
}

// UnmarshalResult decodes a frame into a Result. Unlike commands, an empty
// frame is an error: callers only read a result when one is owed.
func UnmarshalResult(data []byte) (*Result, error) {
	if len(data) == 0 {
		return nil, errors.New("wire: empty result frame")
	}

	payload, err := unwrap(data)
	if err != nil {
		return nil, err
	}

	var r Result
	dec := msgpack.NewDecoder(bytes.NewReader(payload))
	dec.SetCustomStructTag("msgpack")
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("wire: decode result: %w", err)
	}
	return &r, nil
}

func envelope(payload []byte) []byte {
	buf := make([]byte, envelopeSize+len(payload))
	buf[0], buf[1], buf[2], buf[3] = magic0, magic1, version, byte(EncodingMsgPack)
	copy(buf[envelopeSize:], payload)
	return buf
}

func unwrap(data []byte) ([]byte, error) {
	if len(data) < envelopeSize || data[0] != magic0 || data[1] != magic1 {
		return nil, ErrBadEnvelope
	}
	if data[2] != version {
		return nil, fmt.Errorf("wire: unsupported envelope version: %d", data[2])
	}
	if Encoding(data[3]) != EncodingMsgPack {
		return nil, fmt.Errorf("wire: unknown encoding: %d", data[3])
	}
	return data[envelopeSize:], nil
}

func marshalPayload[T any](data any) ([]byte, error) {
	switch v := data.(type) {
	case T:
		return msgpack.Marshal(&v)
	case *T:
		return msgpack.Marshal(v)
	default:
		return nil, fmt.Errorf("wire: invalid payload type: %T", data)
	}
}

func unmarshalPayload[T any](data []byte) (T, error) {
	var v T
	if err := msgpack.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("wire: decode payload: %w", err)
	}
	return v, nil
}

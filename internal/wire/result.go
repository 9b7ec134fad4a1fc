package wire

import "fmt"

type Status uint8

const (
	StatusOk Status = iota
	StatusErr
)

func (s Status) String() string {
	if s == StatusOk {
		return "OK"
	}
	return "ERR"
}

// Result is the daemon's answer to one command: either Ok or Err, each
// carrying a human-readable message.
type Result struct {
	Status  Status `msgpack:"sts"`
	Message string `msgpack:"msg"`
}

func (r *Result) IsOk() bool {
	return r.Status == StatusOk
}

func Ok(format string, args ...any) *Result {
	return &Result{Status: StatusOk, Message: fmt.Sprintf(format, args...)}
}

func Err(format string, args ...any) *Result {
	return &Result{Status: StatusErr, Message: fmt.Sprintf(format, args...)}
}

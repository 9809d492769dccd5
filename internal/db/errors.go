package db

import (
	"errors"
	"fmt"
)

// ErrKeyNotFound is returned when a requested key does not exist.
var ErrKeyNotFound = errors.New("key not found")

// Operation names for error reporting.
const (
	OpGet     = "GET"
	OpSet     = "SET"
	OpDel     = "DEL"
	OpExists  = "EXISTS"
	OpExpire  = "EXPIRE"
	OpScan    = "SCAN"
	OpJSONSet = "JSON.SET"
	OpJSONGet = "JSON.GET"
	OpLPush   = "LPUSH"
	OpLRange  = "LRANGE"
	OpLTrim   = "LTRIM"
	OpLLen    = "LLEN"
	OpPing    = "PING"
)

// Error wraps a database error with the operation that produced it.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("db %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

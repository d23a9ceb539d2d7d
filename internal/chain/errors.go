package chain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the node has no record of a block or transaction.
	ErrNotFound = errors.New("not found")

	// ErrConfirmationTimeout is returned when a submitted transaction is not mined
	// within the configured wait.
	ErrConfirmationTimeout = errors.New("timed out waiting for confirmation")
)

// RPCError wraps a failed call against the remote node.
type RPCError struct {
	Method string
	Err    error
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc %s failed: %v", e.Method, e.Err)
}

func (e *RPCError) Unwrap() error { return e.Err }

// ContractCallError reports a read-only contract call that reverted, hit an
// address without code, or returned data that does not decode.
type ContractCallError struct {
	Address string
	Method  string
	Err     error
}

func (e *ContractCallError) Error() string {
	return fmt.Sprintf("contract call %s on %s failed: %v", e.Method, e.Address, e.Err)
}

func (e *ContractCallError) Unwrap() error { return e.Err }

func rpcErr(method string, err error) error {
	if err == nil {
		return nil
	}
	return &RPCError{Method: method, Err: err}
}

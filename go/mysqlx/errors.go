/*
Copyright 2025 The MySQLX Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package mysqlx

import (
	"context"
	"errors"
	"fmt"
	"net"

	"mysqlx.io/mysqlx/go/mysqlx/xproto"
)

// Error is a server-reported failure: MySQL error number, SQLSTATE and
// message.
type Error struct {
	Num     uint16
	State   string
	Message string
}

// NewError creates an Error. An empty sqlState defaults to "HY000".
func NewError(num uint16, sqlState string, format string, args ...any) *Error {
	if sqlState == "" {
		sqlState = SSUnknownSQLState
	}
	return &Error{
		Num:     num,
		State:   sqlState,
		Message: fmt.Sprintf(format, args...),
	}
}

func newServerError(m *xproto.Error) *Error {
	return NewError(m.Code, m.SQLState, "%s", m.Msg)
}

// Error implements the error interface. The errno/sqlstate suffix format is
// stable and may be parsed back on RPC boundaries.
func (e *Error) Error() string {
	return fmt.Sprintf("%s (errno %v) (sqlstate %v)", e.Message, e.Num, e.State)
}

// Number returns the MySQL error number.
func (e *Error) Number() uint16 { return e.Num }

// SQLState returns the SQLSTATE value.
func (e *Error) SQLState() string { return e.State }

// PrepareError marks a server error raised by the prepare step of a
// prepare-and-execute pipeline, so callers can tell "failed to prepare"
// from "prepared but failed to execute".
type PrepareError struct {
	Err *Error
}

func (e *PrepareError) Error() string { return e.Err.Error() }

func (e *PrepareError) Unwrap() error { return e.Err }

// Usage errors: programmer misuse, always detectable client-side.
var (
	// ErrReplyBlocked is returned when a statement's reply is waited on
	// while an earlier statement still has an unconsumed reply.
	ErrReplyBlocked = errors.New("reply blocked by a previous one")

	// ErrCursorOpen is returned when a second cursor is opened over a
	// statement whose current result set already has one.
	ErrCursorOpen = errors.New("cursor already open for this statement")

	// ErrCursorAttached is returned when a reply is discarded while a
	// cursor is still attached to it.
	ErrCursorAttached = errors.New("cannot discard a reply with an open cursor")

	// ErrNoResult is returned when a cursor is opened but the statement
	// has no result set to bind to.
	ErrNoResult = errors.New("no result set available")

	// ErrCursorClosed is returned when rows are fetched through a closed
	// cursor.
	ErrCursorClosed = errors.New("cursor is closed")

	// ErrNoMetadata is returned when a row field position has no
	// corresponding column metadata.
	ErrNoMetadata = errors.New("no meta-data for requested column")

	// ErrAuthInProgress is returned when an authentication round is
	// restarted before the previous one completed.
	ErrAuthInProgress = errors.New("authentication round already in progress")

	// ErrMixedPriorities is returned when prioritized and non-prioritized
	// entries are mixed in one MultiSource.
	ErrMixedPriorities = errors.New("mixing prioritized and non-prioritized data sources")

	// ErrNotFinished is returned when execution statistics are read
	// before the statement finished.
	ErrNotFinished = errors.New("statement has not finished executing")

	// ErrSessionInvalid is returned for operations on a session that
	// failed construction or was closed.
	ErrSessionInvalid = errors.New("session is not valid")

	// ErrNoDataSources is returned when connecting with an empty
	// MultiSource.
	ErrNoDataSources = errors.New("no data sources to try")

	// ErrNoCodec is returned when no codec factory was supplied.
	ErrNoCodec = errors.New("no protocol codec configured")
)

// Capability preconditions rejected before anything reaches the server.
var (
	ErrRowLockingUnsupported = errors.New("row locking is not supported by this server version")
	ErrUpsertUnsupported     = errors.New("upsert is not supported by this server version")
	ErrPrepareUnsupported    = errors.New("prepared statements are not supported by this server version")
)

// errAuthFailed is the terminal error of the automatic mechanism fallback.
var errAuthFailed = NewError(ERAccessDeniedError, SSAccessDeniedError,
	"authentication failed, check the credentials or try a secure connection")

// protocolError marks a malformed or out-of-order server reply. Fatal to
// the current operation and not retryable.
func protocolError(format string, args ...any) error {
	return fmt.Errorf("protocol error: "+format, args...)
}

// asError reports whether err carries a server *Error and stores it.
func asError(err error, target **Error) bool {
	return errors.As(err, target)
}

// isFatalConnectError classifies a failed connection attempt for the
// failover layer. Server errors (authentication, protocol) and TLS errors
// stop the failover walk; plain network-level failures move on to the next
// candidate.
func isFatalConnectError(err error) bool {
	var se *Error
	if errors.As(err, &se) {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return false
	}
	var de *net.DNSError
	if errors.As(err, &de) {
		return false
	}
	var oe *net.OpError
	if errors.As(err, &oe) {
		return false
	}
	// Unclassified errors (TLS handshake, malformed replies) are fatal.
	return true
}

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

	"mysqlx.io/mysqlx/go/mysqlx/xproto"
)

// stmtState labels the reply processing of one statement:
//
//	WAIT -> SEND -> OK ----------------------------> DONE
//	                 \
//	                  MDATA -> ROWS|DISCARD -> NEXT -> MDATA ...
//	                      \            \
//	                       \            FINISH -> DONE
//	                        FINISH -> DONE
//
// Any severity-ERROR server diagnostic forces ERROR from any state.
type stmtState int

const (
	stmtWait stmtState = iota
	stmtSend
	stmtOK
	stmtMData
	stmtRows
	stmtDiscard
	stmtNext
	stmtFinish
	stmtDone
	stmtError
)

func (s stmtState) String() string {
	switch s {
	case stmtWait:
		return "WAIT"
	case stmtSend:
		return "SEND"
	case stmtOK:
		return "OK"
	case stmtMData:
		return "MDATA"
	case stmtRows:
		return "ROWS"
	case stmtDiscard:
		return "DISCARD"
	case stmtNext:
		return "NEXT"
	case stmtFinish:
		return "FINISH"
	case stmtDone:
		return "DONE"
	case stmtError:
		return "ERROR"
	default:
		return fmt.Sprintf("stmtState(%d)", int(s))
	}
}

// Stats are the per-statement execution statistics reported via notices.
type Stats struct {
	RowsAffected uint64
	RowsFound    uint64
	RowsMatched  uint64
	LastInsertID uint64
	GeneratedIDs []string
	Message      string
}

// Stmt is one command issued on a session and the processing of its reply.
// Statements are issued in order; their replies must be consumed in the
// same order, or ErrReplyBlocked is raised.
//
// A Stmt is not safe for concurrent use.
type Stmt struct {
	sess  *Session
	state stmtState
	err   error
	diag  diagnostics

	// queryShape statements expect result sets; the rest expect a bare
	// acknowledgement.
	queryShape bool

	stats Stats
	cols  []*xproto.ColumnMeta

	// pendingRow holds the first row of a result set, consumed while
	// detecting the end of the metadata block.
	pendingRow  *xproto.Row
	eos         bool
	moreResults bool

	// discard latches discard mode: every remaining and future result
	// set is consumed and thrown away.
	discard bool

	cursor *Cursor

	// Prepare-and-execute pipeline bookkeeping.
	prep             *Prepared
	expectPrepareAck bool
	prepFailed       bool
}

func (st *Stmt) terminal() bool {
	return st.state == stmtDone || st.state == stmtError
}

func (st *Stmt) setDone() {
	st.state = stmtDone
	st.sess.deregister(st)
}

func (st *Stmt) fail(err error) error {
	st.err = err
	st.state = stmtError
	st.diag.add(xproto.SeverityError, err)
	st.sess.diag.add(xproto.SeverityError, err)
	st.sess.deregister(st)
	return err
}

// failRecv classifies a receive failure: the head-of-line guard is
// transient and leaves the statement intact so its reply can still be read
// once the earlier ones complete, anything else is terminal.
func (st *Stmt) failRecv(err error) error {
	if errors.Is(err, ErrReplyBlocked) {
		return err
	}
	return st.fail(err)
}

func (st *Stmt) resetMeta() {
	st.cols = nil
	st.pendingRow = nil
	st.eos = false
	st.moreResults = false
}

// step receives and dispatches one server message. Rows are not consumed
// here; they flow through fetchRow.
func (st *Stmt) step(ctx context.Context) error {
	switch st.state {
	case stmtDone:
		return nil
	case stmtError:
		return st.err
	case stmtOK:
		return st.stepOK(ctx)
	case stmtMData:
		return st.stepMData(ctx)
	case stmtFinish:
		return st.stepFinish(ctx)
	default:
		// ROWS/DISCARD/NEXT advance via fetchRow and NextResult.
		return nil
	}
}

func (st *Stmt) stepOK(ctx context.Context) error {
	msg, err := st.sess.recvFor(ctx, st)
	if err != nil {
		return st.failRecv(err)
	}
	switch m := msg.(type) {
	case *xproto.StmtExecuteOk, *xproto.Ok:
		st.setDone()
		return nil
	case *xproto.Error:
		return st.fail(newServerError(m))
	default:
		return st.fail(protocolError("unexpected %T while expecting an acknowledgement", msg))
	}
}

func (st *Stmt) stepMData(ctx context.Context) error {
	msg, err := st.sess.recvFor(ctx, st)
	if err != nil {
		return st.failRecv(err)
	}

	if st.expectPrepareAck {
		// First reply of a prepare-and-execute pipeline.
		switch m := msg.(type) {
		case *xproto.Ok:
			st.expectPrepareAck = false
			if st.prep != nil {
				st.prep.prepared = true
			}
			return nil
		case *xproto.Error:
			// Tag the prepare failure distinctly; the pipelined
			// execute fails next and its error is suppressed.
			st.expectPrepareAck = false
			st.prepFailed = true
			st.err = &PrepareError{Err: newServerError(m)}
			return nil
		default:
			return st.fail(protocolError("unexpected %T while expecting a prepare acknowledgement", msg))
		}
	}
	if st.prepFailed {
		// Drain the pipelined execute's error and surface the stored
		// prepare failure.
		if _, ok := msg.(*xproto.Error); ok {
			err := st.err
			st.state = stmtError
			st.diag.add(xproto.SeverityError, err)
			st.sess.diag.add(xproto.SeverityError, err)
			st.sess.deregister(st)
			return err
		}
		return st.fail(protocolError("unexpected %T after a failed prepare", msg))
	}

	switch m := msg.(type) {
	case *xproto.ColumnMetaData:
		meta := m.Meta
		st.cols = append(st.cols, &meta)
		return nil
	case *xproto.Row:
		if len(st.cols) == 0 {
			return st.fail(protocolError("row received before column metadata"))
		}
		st.pendingRow = m
		if st.discard {
			st.state = stmtDiscard
		} else {
			st.state = stmtRows
		}
		return nil
	case *xproto.RowsDone:
		if len(st.cols) == 0 {
			return st.fail(protocolError("end of rows without column metadata"))
		}
		// Empty result set: still a result set, bindable by a cursor.
		st.eos = true
		st.moreResults = m.MoreResults
		if st.discard {
			st.state = stmtDiscard
		} else {
			st.state = stmtRows
		}
		return nil
	case *xproto.StmtExecuteOk:
		// Zero columns: no result set at all.
		st.setDone()
		return nil
	case *xproto.Error:
		return st.fail(newServerError(m))
	default:
		return st.fail(protocolError("unexpected %T while expecting metadata", msg))
	}
}

func (st *Stmt) stepFinish(ctx context.Context) error {
	msg, err := st.sess.recvFor(ctx, st)
	if err != nil {
		return st.failRecv(err)
	}
	switch m := msg.(type) {
	case *xproto.StmtExecuteOk:
		st.setDone()
		return nil
	case *xproto.Error:
		return st.fail(newServerError(m))
	default:
		return st.fail(protocolError("unexpected %T while expecting the reply trailer", msg))
	}
}

// fetchRow returns the next row of the current result set, or nil at its
// end. At the end it also advances the state: NEXT when another result set
// follows, DONE after consuming the trailer otherwise.
func (st *Stmt) fetchRow(ctx context.Context) (*xproto.Row, error) {
	if st.state != stmtRows && st.state != stmtDiscard {
		if st.state == stmtError {
			return nil, st.err
		}
		return nil, nil
	}
	if st.pendingRow != nil {
		row := st.pendingRow
		st.pendingRow = nil
		return row, nil
	}
	if st.eos {
		return nil, st.finishSet(ctx)
	}
	msg, err := st.sess.recvFor(ctx, st)
	if err != nil {
		return nil, st.failRecv(err)
	}
	switch m := msg.(type) {
	case *xproto.Row:
		return m, nil
	case *xproto.RowsDone:
		st.eos = true
		st.moreResults = m.MoreResults
		return nil, st.finishSet(ctx)
	case *xproto.Error:
		return nil, st.fail(newServerError(m))
	default:
		return nil, st.fail(protocolError("unexpected %T while expecting rows", msg))
	}
}

// finishSet leaves a fully consumed result set: NEXT when more result sets
// follow (or straight back to MDATA in discard mode), otherwise drive the
// FINISH trailer to DONE.
func (st *Stmt) finishSet(ctx context.Context) error {
	st.eos = false
	st.pendingRow = nil
	if st.moreResults {
		st.moreResults = false
		if st.discard {
			st.resetMeta()
			st.state = stmtMData
			return nil
		}
		st.state = stmtNext
		return nil
	}
	st.state = stmtFinish
	for st.state == stmtFinish {
		if err := st.step(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (st *Stmt) drainSet(ctx context.Context) error {
	for {
		row, err := st.fetchRow(ctx)
		if err != nil {
			return err
		}
		if row == nil {
			return nil
		}
	}
}

// Wait drives the reply forward until the current step completes: metadata
// loaded (ROWS), a pending result boundary (NEXT), or a terminal state.
// In discard mode it consumes everything.
func (st *Stmt) Wait(ctx context.Context) error {
	for {
		switch st.state {
		case stmtOK, stmtMData, stmtFinish:
			if err := st.step(ctx); err != nil {
				return err
			}
		case stmtDiscard:
			if err := st.drainSet(ctx); err != nil {
				return err
			}
		case stmtNext:
			if !st.discard {
				return nil
			}
			st.resetMeta()
			st.state = stmtMData
		case stmtRows:
			if !st.discard {
				return nil
			}
			st.state = stmtDiscard
		case stmtDone:
			return nil
		case stmtError:
			return st.err
		default:
			return protocolError("statement stuck in state %v", st.state)
		}
	}
}

// CheckResults completes the current step and reports whether a result set
// is available (current or not yet advanced to).
func (st *Stmt) CheckResults(ctx context.Context) (bool, error) {
	if err := st.Wait(ctx); err != nil {
		return false, err
	}
	return st.state == stmtRows || st.state == stmtNext, nil
}

// NextResult advances to the next result set. Only valid in state NEXT,
// i.e. after the current result set was fully consumed and the server
// announced another one.
func (st *Stmt) NextResult(ctx context.Context) error {
	if st.state != stmtNext {
		if st.state == stmtError {
			return st.err
		}
		return fmt.Errorf("no next result set to advance to (state %v)", st.state)
	}
	st.resetMeta()
	st.state = stmtMData
	for st.state == stmtMData {
		if err := st.step(ctx); err != nil {
			return err
		}
	}
	return nil
}

// DiscardResult switches the current result set into discard mode: its
// remaining rows are thrown away on the next progress step. Discarded and
// terminal statements are a no-op.
func (st *Stmt) DiscardResult() error {
	if st.state == stmtDiscard || st.terminal() {
		return nil
	}
	if st.state == stmtRows && st.cursor == nil {
		st.state = stmtDiscard
		return nil
	}
	if st.cursor != nil {
		return ErrCursorAttached
	}
	return fmt.Errorf("cannot discard result in state %v", st.state)
}

// Discard latches discard mode and consumes the whole remaining reply.
// Server errors already recorded are kept but not returned; transport
// errors are.
func (st *Stmt) Discard(ctx context.Context) error {
	if st.terminal() {
		return nil
	}
	if st.cursor != nil {
		return ErrCursorAttached
	}
	st.discard = true
	if err := st.Wait(ctx); err != nil {
		var serr *Error
		if asError(err, &serr) {
			return nil
		}
		return err
	}
	return nil
}

// Cancel aborts the statement client-side by discarding its reply and
// deregistering it. Mid-flight wire cancellation is not supported by the
// protocol.
func (st *Stmt) Cancel(ctx context.Context) error {
	if st.cursor != nil {
		if err := st.cursor.Close(ctx); err != nil {
			return err
		}
	}
	return st.Discard(ctx)
}

// Stats returns the execution statistics. Only valid once the statement
// finished.
func (st *Stmt) Stats() (Stats, error) {
	switch st.state {
	case stmtDone:
		return st.stats, nil
	case stmtError:
		return Stats{}, st.err
	default:
		return Stats{}, ErrNotFinished
	}
}

// AffectedRows returns the affected-row count of a finished statement.
func (st *Stmt) AffectedRows() (uint64, error) {
	s, err := st.Stats()
	return s.RowsAffected, err
}

// LastInsertID returns the last generated auto-increment id of a finished
// statement.
func (st *Stmt) LastInsertID() (uint64, error) {
	s, err := st.Stats()
	return s.LastInsertID, err
}

// GeneratedIDs returns the document ids generated for inserted documents
// lacking one.
func (st *Stmt) GeneratedIDs() ([]string, error) {
	s, err := st.Stats()
	return s.GeneratedIDs, err
}

// Columns returns the metadata of the current result set.
func (st *Stmt) Columns() []*xproto.ColumnMeta { return st.cols }

// EntryCount counts accumulated diagnostics at or above min severity.
func (st *Stmt) EntryCount(min xproto.Severity) int { return st.diag.count(min) }

// GetEntries returns accumulated diagnostics at or above min severity.
func (st *Stmt) GetEntries(min xproto.Severity) []Diagnostic { return st.diag.get(min) }

// GetError returns the first severity-ERROR diagnostic, if any.
func (st *Stmt) GetError() error { return st.diag.firstError() }

// ClearErrors drops the accumulated diagnostics.
func (st *Stmt) ClearErrors() { st.diag.clear() }

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

// Package mysqlx implements the session, statement and cursor layer of a
// MySQL X protocol client: an ordered statement pipeline over one protocol
// connection, a multi-mechanism authentication handshake, capability and
// compression negotiation, and weighted multi-host failover.
//
// The wire codec itself is consumed through the xproto.Codec boundary; see
// package xproto.
package mysqlx

import (
	"context"
	"fmt"
	"strings"

	"mysqlx.io/mysqlx/go/log"
	"mysqlx.io/mysqlx/go/mysqlx/xproto"
)

// Session is one authenticated connection. It owns the codec and is the
// factory for all statement operations. At most one statement at a time
// reads from the wire; the rest wait in issue order.
//
// A Session is not safe for concurrent use.
type Session struct {
	codec xproto.Codec
	opts  *Options

	valid       bool
	schema      string
	clientID    uint64
	expired     bool
	compression string
	caps        ServerCapabilities

	diag diagnostics
	auth *authenticator

	// stmts is the issue-ordered list of in-flight statements; terminal
	// statements are spliced out.
	stmts []*Stmt

	nextPrepID uint32
}

// newSession runs the setup sequence over a connected (and possibly
// TLS-upgraded) codec: compression negotiation, connection attributes,
// authentication, capability probes.
func newSession(ctx context.Context, codec xproto.Codec, opts *Options) (*Session, error) {
	s := &Session{codec: codec, opts: opts, schema: opts.Schema}

	if opts.Compression != CompressionDisabled {
		if err := s.negotiateCompression(ctx); err != nil {
			return nil, err
		}
	}
	if !opts.DisableConnectAttrs {
		if err := s.sendConnectAttrs(ctx); err != nil {
			return nil, err
		}
	}
	if err := s.authenticate(ctx); err != nil {
		return nil, err
	}
	if err := s.probeCapabilities(ctx); err != nil {
		return nil, err
	}
	s.valid = true
	log.V(2).Infof("session established (client id %d)", s.clientID)
	return s, nil
}

// sendConnectAttrs announces the client attributes. Older servers reject
// the capability; that is tolerated silently.
func (s *Session) sendConnectAttrs(ctx context.Context) error {
	attrs := s.opts.connectAttrs()
	values := make(map[string]any, len(attrs))
	for k, v := range attrs {
		values[k] = v
	}
	if err := s.codec.SendCapabilitiesSet(ctx, map[string]any{capSessionConnectAttrs: values}); err != nil {
		return err
	}
	msg, err := s.recvSetup(ctx)
	if err != nil {
		return err
	}
	switch msg.(type) {
	case *xproto.Ok, *xproto.Error:
		return nil
	default:
		return protocolError("unexpected %T setting connection attributes", msg)
	}
}

// recvSetup receives the next non-notice message during session setup,
// before any statement exists. Notices and low-severity diagnostics are
// accumulated on the session.
func (s *Session) recvSetup(ctx context.Context) (xproto.ServerMessage, error) {
	for {
		msg, err := s.codec.Recv(ctx)
		if err != nil {
			s.valid = false
			return nil, err
		}
		switch m := msg.(type) {
		case *xproto.Notice:
			s.routeNotice(nil, m)
		case *xproto.Error:
			if m.Severity != xproto.SeverityError {
				s.diag.add(m.Severity, newServerError(m))
				continue
			}
			return msg, nil
		default:
			return msg, nil
		}
	}
}

// recvAuth is recvSetup under a different guard; the authenticator owns the
// wire for the duration of the handshake.
func (s *Session) recvAuth(ctx context.Context) (xproto.ServerMessage, error) {
	return s.recvSetup(ctx)
}

// recvFor receives the next non-notice message on behalf of st. Replies are
// read strictly in statement issue order: waiting on a later statement
// while an earlier one still has an unconsumed reply raises ErrReplyBlocked
// instead of deadlocking.
func (s *Session) recvFor(ctx context.Context, st *Stmt) (xproto.ServerMessage, error) {
	for _, other := range s.stmts {
		if other == st {
			break
		}
		if !other.terminal() {
			return nil, ErrReplyBlocked
		}
	}
	for {
		msg, err := s.codec.Recv(ctx)
		if err != nil {
			s.valid = false
			return nil, err
		}
		switch m := msg.(type) {
		case *xproto.Notice:
			s.routeNotice(st, m)
		case *xproto.Error:
			if m.Severity != xproto.SeverityError {
				d := newServerError(m)
				s.diag.add(m.Severity, d)
				st.diag.add(m.Severity, d)
				continue
			}
			return msg, nil
		default:
			return msg, nil
		}
	}
}

// routeNotice applies an out-of-band notice: session state lands on the
// session, per-statement statistics on the statement whose reply is being
// processed.
func (s *Session) routeNotice(st *Stmt, n *xproto.Notice) {
	switch {
	case n.Warning != nil:
		d := NewError(n.Warning.Code, "", "%s", n.Warning.Msg)
		s.diag.add(n.Warning.Level, d)
		if st != nil {
			st.diag.add(n.Warning.Level, d)
		}
	case n.SessionState != nil:
		sc := n.SessionState
		switch sc.Param {
		case xproto.StateClientIDAssigned:
			s.clientID = sc.Uint
		case xproto.StateCurrentSchema:
			s.schema = sc.Str
		case xproto.StateAccountExpired:
			s.expired = true
		case xproto.StateRowsAffected:
			if st != nil {
				st.stats.RowsAffected = sc.Uint
			}
		case xproto.StateRowsFound:
			if st != nil {
				st.stats.RowsFound = sc.Uint
			}
		case xproto.StateRowsMatched:
			if st != nil {
				st.stats.RowsMatched = sc.Uint
			}
		case xproto.StateGeneratedInsertID:
			if st != nil {
				st.stats.LastInsertID = sc.Uint
			}
		case xproto.StateGeneratedDocumentIDs:
			if st != nil {
				st.stats.GeneratedIDs = append(st.stats.GeneratedIDs, sc.Strs...)
			}
		case xproto.StateProducedMessage:
			if st != nil {
				st.stats.Message = sc.Str
			}
		}
	case n.VariableNames != nil:
		// Session variable changes are not tracked.
	}
}

// issue registers a new statement and transmits its command. Transmission
// is synchronous, so issue order equals send order.
func (s *Session) issue(ctx context.Context, queryShape bool, send func(context.Context) error) (*Stmt, error) {
	if !s.valid {
		return nil, ErrSessionInvalid
	}
	st := &Stmt{sess: s, queryShape: queryShape, state: stmtWait}
	s.stmts = append(s.stmts, st)
	st.state = stmtSend
	if err := send(ctx); err != nil {
		st.fail(err)
		s.valid = false
		return nil, err
	}
	if queryShape {
		st.state = stmtMData
	} else {
		st.state = stmtOK
	}
	return st, nil
}

func (s *Session) deregister(st *Stmt) {
	for i, other := range s.stmts {
		if other == st {
			s.stmts = append(s.stmts[:i], s.stmts[i+1:]...)
			return
		}
	}
}

// IsValid reports whether the session completed setup and was not closed.
func (s *Session) IsValid() bool { return s.valid }

// CurrentSchema returns the schema last reported by the server.
func (s *Session) CurrentSchema() string { return s.schema }

// ClientID returns the server-assigned client id.
func (s *Session) ClientID() uint64 { return s.clientID }

// Expired reports whether the server flagged the account as expired.
func (s *Session) Expired() bool { return s.expired }

// Compression returns the negotiated compression algorithm, or "".
func (s *Session) Compression() string { return s.compression }

// Capabilities returns the probed server capabilities.
func (s *Session) Capabilities() ServerCapabilities { return s.caps }

// EntryCount counts accumulated diagnostics at or above min severity.
func (s *Session) EntryCount(min xproto.Severity) int { return s.diag.count(min) }

// GetEntries returns accumulated diagnostics at or above min severity.
func (s *Session) GetEntries(min xproto.Severity) []Diagnostic { return s.diag.get(min) }

// GetError returns the first severity-ERROR diagnostic, if any.
func (s *Session) GetError() error { return s.diag.firstError() }

// ClearErrors drops the accumulated diagnostics.
func (s *Session) ClearErrors() { s.diag.clear() }

// execSimple issues a SQL statement and drives it to completion.
func (s *Session) execSimple(ctx context.Context, sql string) error {
	st, err := s.SQL(ctx, sql)
	if err != nil {
		return err
	}
	return st.Wait(ctx)
}

// Begin starts a transaction.
func (s *Session) Begin(ctx context.Context) error { return s.execSimple(ctx, "BEGIN") }

// Commit commits the active transaction.
func (s *Session) Commit(ctx context.Context) error { return s.execSimple(ctx, "COMMIT") }

// Rollback rolls back the active transaction.
func (s *Session) Rollback(ctx context.Context) error { return s.execSimple(ctx, "ROLLBACK") }

func quoteSavepoint(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("savepoint name cannot be empty")
	}
	return "`" + strings.ReplaceAll(name, "`", "``") + "`", nil
}

// SavepointSet creates a savepoint. Name validity beyond non-emptiness is
// enforced server-side.
func (s *Session) SavepointSet(ctx context.Context, name string) error {
	q, err := quoteSavepoint(name)
	if err != nil {
		return err
	}
	return s.execSimple(ctx, "SAVEPOINT "+q)
}

// SavepointRemove releases a savepoint; removing an unknown one is a
// server-side error.
func (s *Session) SavepointRemove(ctx context.Context, name string) error {
	q, err := quoteSavepoint(name)
	if err != nil {
		return err
	}
	return s.execSimple(ctx, "RELEASE SAVEPOINT "+q)
}

// SavepointRollback rolls back to a savepoint.
func (s *Session) SavepointRollback(ctx context.Context, name string) error {
	q, err := quoteSavepoint(name)
	if err != nil {
		return err
	}
	return s.execSimple(ctx, "ROLLBACK TO SAVEPOINT "+q)
}

// Reset resets the server-side session state. With keepOpen the session
// stays usable without re-authentication.
func (s *Session) Reset(ctx context.Context, keepOpen bool) error {
	if !s.valid {
		return ErrSessionInvalid
	}
	if keepOpen && !s.caps.KeepOpen {
		keepOpen = false
	}
	if err := s.codec.SendSessionReset(ctx, keepOpen); err != nil {
		return err
	}
	msg, err := s.recvSetup(ctx)
	if err != nil {
		return err
	}
	switch m := msg.(type) {
	case *xproto.Ok:
		return nil
	case *xproto.Error:
		return newServerError(m)
	default:
		return protocolError("unexpected %T resetting session", msg)
	}
}

// Close discards all pending statement replies in issue order, rolls back
// any open transaction and closes the connection. Safe to call on an
// already-invalid session.
func (s *Session) Close(ctx context.Context) error {
	if s.codec == nil {
		return nil
	}
	if s.valid {
		for len(s.stmts) > 0 {
			st := s.stmts[0]
			if st.cursor != nil {
				st.cursor.Close(ctx)
			}
			if err := st.Discard(ctx); err != nil {
				// Transport is gone; nothing further to flush.
				break
			}
		}
		// Unconditional rollback; "no active transaction" is a no-op
		// server-side.
		if err := s.execSimple(ctx, "ROLLBACK"); err != nil {
			log.V(2).Infof("rollback on close: %v", err)
		}
		if s.valid {
			if err := s.codec.SendConnectionClose(ctx); err == nil {
				if _, err := s.recvSetup(ctx); err != nil {
					log.V(2).Infof("connection close: %v", err)
				}
			}
		}
	}
	s.valid = false
	return s.codec.Close()
}

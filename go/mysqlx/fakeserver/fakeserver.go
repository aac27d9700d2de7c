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

// Package fakeserver provides a scripted xproto.Codec for tests. It answers
// session setup (capabilities, authentication, expectation probes) from
// configurable policy and statement traffic from an explicit reply queue,
// while recording everything the client sent.
package fakeserver

import (
	"context"
	"crypto/tls"
	"fmt"
	"sync"

	"mysqlx.io/mysqlx/go/mysqlx/xproto"
	"mysqlx.io/mysqlx/go/xtypes"
)

// AuthStart records one AuthenticateStart sent by the client.
type AuthStart struct {
	Mechanism string
	Data      []byte
}

// Server is a fake protocol endpoint. The zero value accepts TLS, all
// compression algorithms, every capability probe and any credentials.
//
// All fields must be configured before the first use.
type Server struct {
	mu    sync.Mutex
	queue []xproto.ServerMessage

	// ConnectErr fails Connect; TLSErr fails StartTLS.
	ConnectErr error
	TLSErr     error

	// Secure is reported by IsSecure and flips to true after a
	// successful StartTLS.
	Secure bool

	// RejectTLS refuses the tls capability; RejectConnectAttrs refuses
	// session_connect_attrs. CompressionAlgs, when non-nil, limits the
	// accepted compression algorithms.
	RejectTLS          bool
	RejectConnectAttrs bool
	CompressionAlgs    map[string]bool

	// SupportedFields drives the expectation probes: a probe succeeds
	// when every probed field is present. Nil means everything is
	// supported.
	SupportedFields map[string]bool

	// Challenge is sent in AuthenticateContinue for challenge-response
	// mechanisms. Defaults to 20 zero bytes.
	Challenge []byte

	// CheckAuth, when set, inspects the final authentication payload and
	// returns a server error to reject it. round is 0 for payloads
	// carried by AuthenticateStart and 1 for challenge responses.
	CheckAuth func(mechanism string, round int, data []byte) *xproto.Error

	// OnStmt, when set, produces the reply for a StmtExecute instead of
	// the scripted queue.
	OnStmt func(stmt *xproto.StmtExecute) []xproto.ServerMessage

	// Recorded client traffic.
	Connected   bool
	Closed      bool
	Ops         []string
	CapSets     []map[string]any
	Stmts       []*xproto.StmtExecute
	Finds       []*xproto.Find
	Inserts     []*xproto.Insert
	Updates     []*xproto.Update
	Deletes     []*xproto.Delete
	Prepares    []uint32
	Executes    []uint32
	Deallocs    []uint32
	AuthStarts  []AuthStart
	AuthConts   [][]byte
	Compression string

	authMech string
}

// New returns a Server that lets a default session setup succeed.
func New() *Server {
	return &Server{}
}

// AddReply queues messages for subsequent Recv calls.
func (f *Server) AddReply(msgs ...xproto.ServerMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, msgs...)
}

func (f *Server) record(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Ops = append(f.Ops, op)
}

// Connect implements xproto.Codec.
func (f *Server) Connect(context.Context) error {
	if f.ConnectErr != nil {
		return f.ConnectErr
	}
	f.Connected = true
	return nil
}

// IsSecure implements xproto.Codec.
func (f *Server) IsSecure() bool { return f.Secure }

// StartTLS implements xproto.Codec.
func (f *Server) StartTLS(_ context.Context, _ *tls.Config) error {
	if f.TLSErr != nil {
		return f.TLSErr
	}
	f.Secure = true
	return nil
}

// EnableCompression implements xproto.Codec.
func (f *Server) EnableCompression(c xproto.Compressor) error {
	f.Compression = c.Name()
	return nil
}

// Close implements xproto.Codec.
func (f *Server) Close() error {
	f.Closed = true
	return nil
}

func capabilityError(msg string) *xproto.Error {
	return &xproto.Error{
		Severity: xproto.SeverityError,
		Code:     5001,
		SQLState: "HY000",
		Msg:      msg,
	}
}

// SendCapabilitiesGet implements xproto.Codec.
func (f *Server) SendCapabilitiesGet(context.Context) error {
	f.record("CapabilitiesGet")
	f.AddReply(&xproto.Capabilities{Values: map[string]any{}})
	return nil
}

// SendCapabilitiesSet implements xproto.Codec. TLS, compression and
// connection attribute requests are answered from policy.
func (f *Server) SendCapabilitiesSet(_ context.Context, caps map[string]any) error {
	f.record("CapabilitiesSet")
	f.CapSets = append(f.CapSets, caps)
	for key, value := range caps {
		switch key {
		case "tls":
			if f.RejectTLS {
				f.AddReply(capabilityError("capability prepare failed for 'tls'"))
			} else {
				f.AddReply(&xproto.Ok{})
			}
		case "compression":
			alg := ""
			if m, ok := value.(map[string]any); ok {
				alg, _ = m["algorithm"].(string)
			}
			if f.CompressionAlgs != nil && !f.CompressionAlgs[alg] {
				f.AddReply(capabilityError("unsupported compression algorithm"))
			} else {
				f.AddReply(&xproto.Ok{})
			}
		case "session_connect_attrs":
			if f.RejectConnectAttrs {
				f.AddReply(capabilityError("capability 'session_connect_attrs' not supported"))
			} else {
				f.AddReply(&xproto.Ok{})
			}
		default:
			f.AddReply(capabilityError(fmt.Sprintf("unknown capability %q", key)))
		}
	}
	return nil
}

// SendAuthenticateStart implements xproto.Codec.
func (f *Server) SendAuthenticateStart(_ context.Context, mechanism string, data []byte) error {
	f.record("AuthenticateStart")
	f.AuthStarts = append(f.AuthStarts, AuthStart{Mechanism: mechanism, Data: data})
	f.authMech = mechanism

	switch mechanism {
	case "MYSQL41", "SHA256_MEMORY":
		challenge := f.Challenge
		if challenge == nil {
			challenge = make([]byte, 20)
		}
		f.AddReply(&xproto.AuthContinue{Data: challenge})
		return nil
	default:
		if f.CheckAuth != nil {
			if serr := f.CheckAuth(mechanism, 0, data); serr != nil {
				f.AddReply(serr)
				return nil
			}
		}
		f.AddReply(&xproto.AuthOk{})
		return nil
	}
}

// SendAuthenticateContinue implements xproto.Codec.
func (f *Server) SendAuthenticateContinue(_ context.Context, data []byte) error {
	f.record("AuthenticateContinue")
	f.AuthConts = append(f.AuthConts, data)
	if f.CheckAuth != nil {
		if serr := f.CheckAuth(f.authMech, 1, data); serr != nil {
			f.AddReply(serr)
			return nil
		}
	}
	f.AddReply(&xproto.AuthOk{})
	return nil
}

// SendStmtExecute implements xproto.Codec.
func (f *Server) SendStmtExecute(_ context.Context, stmt *xproto.StmtExecute) error {
	f.record("StmtExecute")
	f.Stmts = append(f.Stmts, stmt)
	if f.OnStmt != nil {
		f.AddReply(f.OnStmt(stmt)...)
	}
	return nil
}

// SendFind implements xproto.Codec.
func (f *Server) SendFind(_ context.Context, find *xproto.Find) error {
	f.record("Find")
	f.Finds = append(f.Finds, find)
	return nil
}

// SendInsert implements xproto.Codec.
func (f *Server) SendInsert(_ context.Context, insert *xproto.Insert) error {
	f.record("Insert")
	f.Inserts = append(f.Inserts, insert)
	return nil
}

// SendUpdate implements xproto.Codec.
func (f *Server) SendUpdate(_ context.Context, update *xproto.Update) error {
	f.record("Update")
	f.Updates = append(f.Updates, update)
	return nil
}

// SendDelete implements xproto.Codec.
func (f *Server) SendDelete(_ context.Context, del *xproto.Delete) error {
	f.record("Delete")
	f.Deletes = append(f.Deletes, del)
	return nil
}

// SendViewCreate implements xproto.Codec.
func (f *Server) SendViewCreate(_ context.Context, _ *xproto.ViewCreate) error {
	f.record("ViewCreate")
	return nil
}

// SendViewModify implements xproto.Codec.
func (f *Server) SendViewModify(_ context.Context, _ *xproto.ViewModify) error {
	f.record("ViewModify")
	return nil
}

// SendViewDrop implements xproto.Codec.
func (f *Server) SendViewDrop(_ context.Context, _ *xproto.ViewDrop) error {
	f.record("ViewDrop")
	return nil
}

// SendPrepare implements xproto.Codec.
func (f *Server) SendPrepare(_ context.Context, id uint32, _ xproto.Preparable) error {
	f.record("Prepare")
	f.Prepares = append(f.Prepares, id)
	return nil
}

// SendPrepareExecute implements xproto.Codec.
func (f *Server) SendPrepareExecute(_ context.Context, id uint32, _ []xproto.Scalar) error {
	f.record("PrepareExecute")
	f.Executes = append(f.Executes, id)
	return nil
}

// SendPrepareDeallocate implements xproto.Codec.
func (f *Server) SendPrepareDeallocate(_ context.Context, id uint32) error {
	f.record("PrepareDeallocate")
	f.Deallocs = append(f.Deallocs, id)
	return nil
}

// SendExpectOpen implements xproto.Codec; it answers field-existence probes
// from SupportedFields.
func (f *Server) SendExpectOpen(_ context.Context, conds []xproto.ExpectCondition) error {
	f.record("ExpectOpen")
	for _, c := range conds {
		if c.Key != xproto.ExpectFieldExists {
			continue
		}
		if f.SupportedFields != nil && !f.SupportedFields[string(c.Value)] {
			f.AddReply(&xproto.Error{
				Severity: xproto.SeverityError,
				Code:     5160,
				SQLState: "HY000",
				Msg:      fmt.Sprintf("unknown field %q in expectation", c.Value),
			})
			return nil
		}
	}
	f.AddReply(&xproto.Ok{})
	return nil
}

// SendExpectClose implements xproto.Codec.
func (f *Server) SendExpectClose(context.Context) error {
	f.record("ExpectClose")
	f.AddReply(&xproto.Ok{})
	return nil
}

// SendSessionReset implements xproto.Codec.
func (f *Server) SendSessionReset(_ context.Context, _ bool) error {
	f.record("SessionReset")
	f.AddReply(&xproto.Ok{})
	return nil
}

// SendSessionClose implements xproto.Codec.
func (f *Server) SendSessionClose(context.Context) error {
	f.record("SessionClose")
	f.AddReply(&xproto.Ok{})
	return nil
}

// SendConnectionClose implements xproto.Codec.
func (f *Server) SendConnectionClose(context.Context) error {
	f.record("ConnectionClose")
	f.AddReply(&xproto.Ok{})
	return nil
}

// Recv implements xproto.Codec. Running out of scripted replies is a test
// bug and fails loudly.
func (f *Server) Recv(ctx context.Context) (xproto.ServerMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queue) == 0 {
		return nil, fmt.Errorf("fakeserver: no scripted reply for %q", lastOp(f.Ops))
	}
	msg := f.queue[0]
	f.queue = f.queue[1:]
	return msg, nil
}

func lastOp(ops []string) string {
	if len(ops) == 0 {
		return "<none>"
	}
	return ops[len(ops)-1]
}

// ResultSet builds the reply messages of one result set: metadata, rows,
// the end-of-rows marker and, unless more result sets follow, the
// execution-ok trailer. Row values are encoded with the column metadata.
func ResultSet(cols []*xproto.ColumnMeta, rows []xtypes.Row, more bool) ([]xproto.ServerMessage, error) {
	var msgs []xproto.ServerMessage
	for _, col := range cols {
		msgs = append(msgs, &xproto.ColumnMetaData{Meta: *col})
	}
	for _, row := range rows {
		fields := make([][]byte, len(row))
		for i, v := range row {
			raw, err := xtypes.EncodeColumn(v, cols[i])
			if err != nil {
				return nil, err
			}
			fields[i] = raw
		}
		msgs = append(msgs, &xproto.Row{Fields: fields})
	}
	msgs = append(msgs, &xproto.RowsDone{MoreResults: more})
	if !more {
		msgs = append(msgs, &xproto.StmtExecuteOk{})
	}
	return msgs, nil
}

// StmtOK is the reply of a statement without result sets, with an optional
// rows-affected notice.
func StmtOK(rowsAffected uint64) []xproto.ServerMessage {
	var msgs []xproto.ServerMessage
	if rowsAffected > 0 {
		msgs = append(msgs, &xproto.Notice{
			SessionState: &xproto.SessionStateChange{
				Param: xproto.StateRowsAffected,
				Uint:  rowsAffected,
			},
		})
	}
	return append(msgs, &xproto.StmtExecuteOk{})
}

// ServerError builds a severity-ERROR reply.
func ServerError(code uint16, sqlState, msg string) *xproto.Error {
	return &xproto.Error{
		Severity: xproto.SeverityError,
		Code:     code,
		SQLState: sqlState,
		Msg:      msg,
	}
}

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

package xproto

import (
	"context"
	"crypto/tls"
)

// ExpectCondition is one condition of an expectation block.
type ExpectCondition struct {
	Key   uint32
	Value []byte
	// Unset removes the condition instead of setting it.
	Unset bool
}

// Expectation condition keys.
const (
	ExpectNoError        uint32 = 1
	ExpectFieldExists    uint32 = 2
	ExpectDocidGenerated uint32 = 3
)

// Compressor compresses and decompresses message payloads once a
// compression algorithm has been negotiated. Implementations live above
// this package; the codec only applies them.
type Compressor interface {
	Name() string
	Compress(src []byte) ([]byte, error)
	Decompress(src []byte) ([]byte, error)
}

// Codec is the protocol boundary the session core drives. One Codec wraps
// one transport connection. All methods block; cancellation and deadlines
// come from the caller's context. Send methods queue exactly one protocol
// message; Recv returns the next server message in wire order, including
// notices.
//
// A Codec is not safe for concurrent use. The session serializes access
// through its statement chain discipline.
type Codec interface {
	// Connect establishes the underlying transport.
	Connect(ctx context.Context) error
	// IsSecure reports whether the transport is TLS-wrapped (or a Unix
	// socket, which is treated as secure for auth mechanism selection).
	IsSecure() bool
	// StartTLS upgrades the plain transport in place.
	StartTLS(ctx context.Context, cfg *tls.Config) error
	// EnableCompression installs a negotiated payload compressor.
	EnableCompression(c Compressor) error
	// Close tears down the transport.
	Close() error

	// Session setup.
	SendCapabilitiesGet(ctx context.Context) error
	SendCapabilitiesSet(ctx context.Context, caps map[string]any) error
	SendAuthenticateStart(ctx context.Context, mechanism string, data []byte) error
	SendAuthenticateContinue(ctx context.Context, data []byte) error

	// Statements.
	SendStmtExecute(ctx context.Context, stmt *StmtExecute) error
	SendFind(ctx context.Context, find *Find) error
	SendInsert(ctx context.Context, insert *Insert) error
	SendUpdate(ctx context.Context, update *Update) error
	SendDelete(ctx context.Context, del *Delete) error
	SendViewCreate(ctx context.Context, v *ViewCreate) error
	SendViewModify(ctx context.Context, v *ViewModify) error
	SendViewDrop(ctx context.Context, v *ViewDrop) error

	// Prepared statements.
	SendPrepare(ctx context.Context, id uint32, msg Preparable) error
	SendPrepareExecute(ctx context.Context, id uint32, args []Scalar) error
	SendPrepareDeallocate(ctx context.Context, id uint32) error

	// Expectation blocks and session control.
	SendExpectOpen(ctx context.Context, conds []ExpectCondition) error
	SendExpectClose(ctx context.Context) error
	SendSessionReset(ctx context.Context, keepOpen bool) error
	SendSessionClose(ctx context.Context) error
	SendConnectionClose(ctx context.Context) error

	// Recv returns the next server message. It suspends only on transport
	// reads; ctx cancels the read.
	Recv(ctx context.Context) (ServerMessage, error)
}

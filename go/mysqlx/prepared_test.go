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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mysqlx.io/mysqlx/go/mysqlx/fakeserver"
	"mysqlx.io/mysqlx/go/mysqlx/xproto"
)

func TestPreparePipelinesFirstExecute(t *testing.T) {
	ctx := context.Background()
	f := fakeserver.New()
	sess := newTestSession(t, f)

	p, err := sess.Prepare(&xproto.StmtExecute{Namespace: "sql", Stmt: "select ?"})
	require.NoError(t, err)
	assert.False(t, p.Prepared())

	// First execute: Prepare and Execute leave together, the prepare ack
	// arrives first.
	f.AddReply(&xproto.Ok{})
	f.AddReply(resultReply(t, testCols("a"), intRows(1), false)...)

	st, err := p.Execute(ctx, xproto.Int64Scalar(1))
	require.NoError(t, err)
	require.NoError(t, st.Discard(ctx))
	assert.True(t, p.Prepared())
	assert.Equal(t, []uint32{1}, f.Prepares)
	assert.Equal(t, []uint32{1}, f.Executes)

	// Second execute: no Prepare, no ack expected.
	f.AddReply(resultReply(t, testCols("a"), intRows(2), false)...)
	st, err = p.Execute(ctx, xproto.Int64Scalar(2))
	require.NoError(t, err)
	require.NoError(t, st.Discard(ctx))
	assert.Equal(t, []uint32{1}, f.Prepares)
	assert.Equal(t, []uint32{1, 1}, f.Executes)
}

func TestPrepareFailureSurfacesOnFirstExecute(t *testing.T) {
	ctx := context.Background()
	f := fakeserver.New()
	sess := newTestSession(t, f)

	p, err := sess.Prepare(&xproto.StmtExecute{Namespace: "sql", Stmt: "bogus ?"})
	require.NoError(t, err)

	// Prepare fails; the pipelined execute fails too, but its error is
	// drained and only the prepare failure surfaces.
	f.AddReply(fakeserver.ServerError(1064, "42000", "syntax error in prepare"))
	f.AddReply(fakeserver.ServerError(ERXBadStatementID, SSUnknownSQLState, "no such statement"))

	st, err := p.Execute(ctx)
	require.NoError(t, err)
	err = st.Wait(ctx)
	require.Error(t, err)

	var perr *PrepareError
	require.ErrorAs(t, err, &perr)
	assert.EqualValues(t, 1064, perr.Err.Number())
	assert.Contains(t, perr.Error(), "syntax error in prepare")

	// The wrapped server error stays reachable through errors.As.
	var serr *Error
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "42000", serr.SQLState())
	assert.False(t, p.Prepared())
}

func TestPrepareDistinctIDs(t *testing.T) {
	f := fakeserver.New()
	sess := newTestSession(t, f)

	p1, err := sess.Prepare(&xproto.StmtExecute{Namespace: "sql", Stmt: "select 1"})
	require.NoError(t, err)
	p2, err := sess.Prepare(&xproto.StmtExecute{Namespace: "sql", Stmt: "select 2"})
	require.NoError(t, err)
	assert.NotEqual(t, p1.id, p2.id)
}

func TestPrepareDeallocate(t *testing.T) {
	ctx := context.Background()
	f := fakeserver.New()
	sess := newTestSession(t, f)

	p, err := sess.Prepare(&xproto.StmtExecute{Namespace: "sql", Stmt: "select 1"})
	require.NoError(t, err)

	// Deallocating before any execute is a no-op.
	require.NoError(t, p.Deallocate(ctx))
	assert.Empty(t, f.Deallocs)

	f.AddReply(&xproto.Ok{})
	f.AddReply(resultReply(t, testCols("a"), intRows(1), false)...)
	st, err := p.Execute(ctx)
	require.NoError(t, err)
	require.NoError(t, st.Discard(ctx))

	f.AddReply(&xproto.Ok{})
	require.NoError(t, p.Deallocate(ctx))
	assert.Equal(t, []uint32{1}, f.Deallocs)
	assert.False(t, p.Prepared())
}

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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mysqlx.io/mysqlx/go/mysqlx/fakeserver"
	"mysqlx.io/mysqlx/go/mysqlx/xproto"
	"mysqlx.io/mysqlx/go/xtypes"
)

func TestCursorSinglePerStatement(t *testing.T) {
	ctx := context.Background()
	f := fakeserver.New()
	f.OnStmt = func(*xproto.StmtExecute) []xproto.ServerMessage {
		return resultReply(t, testCols("a"), intRows(1), false)
	}
	sess := newTestSession(t, f)

	st, err := sess.SQL(ctx, "select a from t")
	require.NoError(t, err)
	c, err := st.OpenCursor(ctx)
	require.NoError(t, err)

	_, err = st.OpenCursor(ctx)
	require.ErrorIs(t, err, ErrCursorOpen)

	// After closing, a fresh result set can be bound again; here the set
	// is exhausted so there is nothing left.
	require.NoError(t, c.Close(ctx))
	_, err = st.OpenCursor(ctx)
	require.ErrorIs(t, err, ErrNoResult)
}

func TestCursorNoResultSet(t *testing.T) {
	ctx := context.Background()
	f := fakeserver.New()
	f.OnStmt = func(*xproto.StmtExecute) []xproto.ServerMessage {
		return fakeserver.StmtOK(2)
	}
	sess := newTestSession(t, f)

	st, err := sess.SQL(ctx, "delete from t")
	require.NoError(t, err)
	_, err = st.OpenCursor(ctx)
	require.ErrorIs(t, err, ErrNoResult)
}

func TestCursorBoundedFetch(t *testing.T) {
	ctx := context.Background()
	f := fakeserver.New()
	f.OnStmt = func(*xproto.StmtExecute) []xproto.ServerMessage {
		return resultReply(t, testCols("a"), intRows(10, 20, 30), false)
	}
	sess := newTestSession(t, f)

	st, err := sess.SQL(ctx, "select a from t")
	require.NoError(t, err)
	c, err := st.OpenCursor(ctx)
	require.NoError(t, err)

	var got []int64
	collect := func(row xtypes.Row) error {
		v, err := row[0].ToInt64()
		if err != nil {
			return err
		}
		got = append(got, v)
		return nil
	}

	n, err := c.GetRows(ctx, collect, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.True(t, c.HasMoreRows())

	n, err = c.GetRows(ctx, collect, -1)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Equal(t, []int64{10, 20, 30}, got)
	assert.False(t, c.HasMoreRows())
}

func TestCursorConsumerError(t *testing.T) {
	ctx := context.Background()
	f := fakeserver.New()
	f.OnStmt = func(*xproto.StmtExecute) []xproto.ServerMessage {
		return resultReply(t, testCols("a"), intRows(1, 2), false)
	}
	sess := newTestSession(t, f)

	st, err := sess.SQL(ctx, "select a from t")
	require.NoError(t, err)
	c, err := st.OpenCursor(ctx)
	require.NoError(t, err)

	boom := errors.New("boom")
	n, err := c.GetRows(ctx, func(xtypes.Row) error { return boom }, -1)
	require.ErrorIs(t, err, boom)
	assert.EqualValues(t, 0, n)

	// The statement is still healthy; the rest can be drained.
	require.NoError(t, c.Close(ctx))
	require.NoError(t, st.Wait(ctx))
}

func TestCursorCloseIdempotent(t *testing.T) {
	ctx := context.Background()
	f := fakeserver.New()
	f.OnStmt = func(*xproto.StmtExecute) []xproto.ServerMessage {
		return resultReply(t, testCols("a"), intRows(1, 2), false)
	}
	sess := newTestSession(t, f)

	st, err := sess.SQL(ctx, "select a from t")
	require.NoError(t, err)
	c, err := st.OpenCursor(ctx)
	require.NoError(t, err)

	require.NoError(t, c.Close(ctx))
	require.NoError(t, c.Close(ctx))

	_, err = c.GetRow(ctx)
	require.ErrorIs(t, err, ErrCursorClosed)

	// Close drained the set; the statement completed.
	_, err = st.Stats()
	require.NoError(t, err)
}

func TestCursorDecodesColumnTypes(t *testing.T) {
	ctx := context.Background()
	cols := []*xproto.ColumnMeta{
		{Type: xproto.TypeSint, Name: "id"},
		{Type: xproto.TypeBytes, Name: "name", Collation: 255},
		{Type: xproto.TypeDouble, Name: "score"},
		{Type: xproto.TypeDatetime, Name: "created", Flags: xproto.FlagDatetimeTimestamp},
		{Type: xproto.TypeBytes, Name: "doc", ContentType: xproto.ContentTypeJSON},
	}
	row := xtypes.Row{
		xtypes.NewInt64(-7),
		xtypes.NewText("ada"),
		xtypes.NewFloat64(2.5),
		xtypes.NewTimestamp("2024-06-01 10:30:00"),
		xtypes.NewJSON(`{"a":1}`),
	}

	f := fakeserver.New()
	f.OnStmt = func(*xproto.StmtExecute) []xproto.ServerMessage {
		return resultReply(t, cols, []xtypes.Row{row}, false)
	}
	sess := newTestSession(t, f)

	st, err := sess.SQL(ctx, "select * from t")
	require.NoError(t, err)
	c, err := st.OpenCursor(ctx)
	require.NoError(t, err)

	got, err := c.GetRow(ctx)
	require.NoError(t, err)
	require.Len(t, got, 5)

	id, err := got[0].ToInt64()
	require.NoError(t, err)
	assert.EqualValues(t, -7, id)
	assert.Equal(t, xtypes.Text, got[1].Type())
	assert.Equal(t, "ada", got[1].ToString())
	score, err := got[2].ToFloat64()
	require.NoError(t, err)
	assert.Equal(t, 2.5, score)
	assert.Equal(t, xtypes.Timestamp, got[3].Type())
	assert.Equal(t, "2024-06-01 10:30:00", got[3].ToString())
	assert.Equal(t, xtypes.JSON, got[4].Type())
	assert.Equal(t, `{"a":1}`, got[4].ToString())
}

func TestCursorNullField(t *testing.T) {
	ctx := context.Background()
	cols := testCols("a")
	f := fakeserver.New()
	f.OnStmt = func(*xproto.StmtExecute) []xproto.ServerMessage {
		return []xproto.ServerMessage{
			&xproto.ColumnMetaData{Meta: *cols[0]},
			&xproto.Row{Fields: [][]byte{nil}},
			&xproto.RowsDone{},
			&xproto.StmtExecuteOk{},
		}
	}
	sess := newTestSession(t, f)

	st, err := sess.SQL(ctx, "select a from t")
	require.NoError(t, err)
	c, err := st.OpenCursor(ctx)
	require.NoError(t, err)
	row, err := c.GetRow(ctx)
	require.NoError(t, err)
	require.Len(t, row, 1)
	assert.True(t, row[0].IsNull())
}

func TestCursorFetchCanceledContext(t *testing.T) {
	ctx := context.Background()
	f := fakeserver.New()
	f.OnStmt = func(*xproto.StmtExecute) []xproto.ServerMessage {
		// Metadata and the first row only; the rest never arrives.
		return resultReply(t, testCols("n"), intRows(1, 2), false)[:2]
	}
	sess := newTestSession(t, f)

	st, err := sess.SQL(ctx, "select n from t")
	require.NoError(t, err)
	cur, err := st.OpenCursor(ctx)
	require.NoError(t, err)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	n, err := cur.GetRows(canceled, func(xtypes.Row) error { return nil }, -1)
	require.ErrorIs(t, err, context.Canceled)
	// The buffered first row was already in hand.
	assert.EqualValues(t, 1, n)

	// A canceled read kills the transport and with it the session, but
	// the cursor still closes cleanly.
	assert.False(t, sess.IsValid())
	require.NoError(t, cur.Close(ctx))
	require.NoError(t, cur.Close(ctx))
}

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

	"mysqlx.io/mysqlx/go/mysqlx/xproto"
	"mysqlx.io/mysqlx/go/xtypes"
)

// Cursor streams the rows of one result set, decoding wire fields into
// xtypes values using the set's column metadata. At most one cursor may be
// attached to a statement at a time.
type Cursor struct {
	stmt     *Stmt
	cols     []*xproto.ColumnMeta
	closed   bool
	moreRows bool
}

// OpenCursor binds a cursor to the statement's current result set, driving
// the reply forward as needed. ErrNoResult is returned when the statement
// produced no result set, ErrCursorOpen when a cursor is already attached.
func (st *Stmt) OpenCursor(ctx context.Context) (*Cursor, error) {
	if st.cursor != nil {
		return nil, ErrCursorOpen
	}
	if err := st.Wait(ctx); err != nil {
		return nil, err
	}
	switch st.state {
	case stmtRows:
	case stmtNext:
		if err := st.NextResult(ctx); err != nil {
			return nil, err
		}
		if st.state != stmtRows {
			return nil, ErrNoResult
		}
	default:
		return nil, ErrNoResult
	}
	c := &Cursor{stmt: st, cols: st.cols, moreRows: true}
	st.cursor = c
	return c, nil
}

// Columns returns the metadata the cursor decodes against.
func (c *Cursor) Columns() []*xproto.ColumnMeta { return c.cols }

// HasMoreRows reports whether the result set may still yield rows. It turns
// false once the end of the set was observed.
func (c *Cursor) HasMoreRows() bool { return !c.closed && c.moreRows }

// GetRows fetches up to limit rows (limit < 0 means all remaining) and
// hands each decoded row to consume. It returns the number of rows
// consumed. A consume error stops the fetch and is returned as-is; the
// unconsumed remainder stays on the wire.
func (c *Cursor) GetRows(ctx context.Context, consume func(xtypes.Row) error, limit int64) (int64, error) {
	if c.closed {
		return 0, ErrCursorClosed
	}
	var n int64
	for limit < 0 || n < limit {
		if !c.moreRows {
			return n, nil
		}
		raw, err := c.stmt.fetchRow(ctx)
		if err != nil {
			return n, err
		}
		if raw == nil {
			c.moreRows = false
			return n, nil
		}
		row, err := c.decodeRow(raw)
		if err != nil {
			return n, c.stmt.fail(err)
		}
		if err := consume(row); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// GetRow fetches and decodes a single row, or returns (nil, nil) at the end
// of the result set.
func (c *Cursor) GetRow(ctx context.Context) (xtypes.Row, error) {
	var got xtypes.Row
	n, err := c.GetRows(ctx, func(row xtypes.Row) error {
		got = row
		return nil
	}, 1)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return got, nil
}

func (c *Cursor) decodeRow(raw *xproto.Row) (xtypes.Row, error) {
	if len(raw.Fields) > len(c.cols) {
		return nil, ErrNoMetadata
	}
	row := make(xtypes.Row, len(raw.Fields))
	for i, field := range raw.Fields {
		v, err := xtypes.DecodeColumn(field, c.cols[i])
		if err != nil {
			return nil, err
		}
		row[i] = v
	}
	return row, nil
}

// Close detaches the cursor, draining the rest of its result set so the
// statement can progress. Idempotent.
func (c *Cursor) Close(ctx context.Context) error {
	if c.closed {
		return nil
	}
	c.closed = true
	st := c.stmt
	if st.cursor == c {
		st.cursor = nil
	}
	if st.state == stmtRows || st.state == stmtDiscard {
		if err := st.drainSet(ctx); err != nil {
			return err
		}
	}
	return nil
}

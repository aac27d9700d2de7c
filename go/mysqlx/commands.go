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
)

// SQL issues a plain SQL statement.
func (s *Session) SQL(ctx context.Context, sql string, args ...xproto.Scalar) (*Stmt, error) {
	return s.issue(ctx, true, func(ctx context.Context) error {
		return s.codec.SendStmtExecute(ctx, &xproto.StmtExecute{
			Namespace: namespaceSQL,
			Stmt:      sql,
			Args:      args,
		})
	})
}

// Admin issues an administrative command in the mysqlx namespace, such as
// create_collection or list_objects.
func (s *Session) Admin(ctx context.Context, cmd string, args ...xproto.Scalar) (*Stmt, error) {
	return s.issue(ctx, true, func(ctx context.Context) error {
		return s.codec.SendStmtExecute(ctx, &xproto.StmtExecute{
			Namespace: namespaceAdmin,
			Stmt:      cmd,
			Args:      args,
		})
	})
}

// checkFind validates optional Find features against the probed server
// capabilities before anything hits the wire.
func (s *Session) checkFind(find *xproto.Find) error {
	if find.Locking != xproto.LockNone && !s.caps.RowLocking {
		return ErrRowLockingUnsupported
	}
	return nil
}

// CollFind issues a document find.
func (s *Session) CollFind(ctx context.Context, find *xproto.Find) (*Stmt, error) {
	find.DataModel = xproto.DocumentModel
	if err := s.checkFind(find); err != nil {
		return nil, err
	}
	return s.issue(ctx, true, func(ctx context.Context) error {
		return s.codec.SendFind(ctx, find)
	})
}

// CollAdd inserts documents into a collection. Documents given as JSON
// literals without an _id member get a generated one; the generated ids are
// reported through the statement's GeneratedIDs.
func (s *Session) CollAdd(ctx context.Context, coll xproto.Collection, docs []xproto.Expr, upsert bool) (*Stmt, error) {
	if upsert && !s.caps.Upsert {
		return nil, ErrUpsertUnsupported
	}
	rows := make([][]xproto.Expr, 0, len(docs))
	for _, doc := range docs {
		withID, err := ensureDocID(doc)
		if err != nil {
			return nil, err
		}
		rows = append(rows, []xproto.Expr{withID})
	}
	return s.issue(ctx, true, func(ctx context.Context) error {
		return s.codec.SendInsert(ctx, &xproto.Insert{
			Collection: coll,
			DataModel:  xproto.DocumentModel,
			Rows:       rows,
			Upsert:     upsert,
		})
	})
}

// CollUpdate issues a document update.
func (s *Session) CollUpdate(ctx context.Context, update *xproto.Update) (*Stmt, error) {
	update.DataModel = xproto.DocumentModel
	return s.issue(ctx, true, func(ctx context.Context) error {
		return s.codec.SendUpdate(ctx, update)
	})
}

// CollRemove issues a document delete.
func (s *Session) CollRemove(ctx context.Context, del *xproto.Delete) (*Stmt, error) {
	del.DataModel = xproto.DocumentModel
	return s.issue(ctx, true, func(ctx context.Context) error {
		return s.codec.SendDelete(ctx, del)
	})
}

// TableSelect issues a relational find.
func (s *Session) TableSelect(ctx context.Context, find *xproto.Find) (*Stmt, error) {
	find.DataModel = xproto.TableModel
	if err := s.checkFind(find); err != nil {
		return nil, err
	}
	return s.issue(ctx, true, func(ctx context.Context) error {
		return s.codec.SendFind(ctx, find)
	})
}

// TableInsert issues a relational insert.
func (s *Session) TableInsert(ctx context.Context, insert *xproto.Insert) (*Stmt, error) {
	if insert.Upsert {
		return nil, ErrUpsertUnsupported
	}
	insert.DataModel = xproto.TableModel
	return s.issue(ctx, true, func(ctx context.Context) error {
		return s.codec.SendInsert(ctx, insert)
	})
}

// TableUpdate issues a relational update.
func (s *Session) TableUpdate(ctx context.Context, update *xproto.Update) (*Stmt, error) {
	update.DataModel = xproto.TableModel
	return s.issue(ctx, true, func(ctx context.Context) error {
		return s.codec.SendUpdate(ctx, update)
	})
}

// TableDelete issues a relational delete.
func (s *Session) TableDelete(ctx context.Context, del *xproto.Delete) (*Stmt, error) {
	del.DataModel = xproto.TableModel
	return s.issue(ctx, true, func(ctx context.Context) error {
		return s.codec.SendDelete(ctx, del)
	})
}

// ViewCreate creates or replaces a view. The reply is a bare
// acknowledgement.
func (s *Session) ViewCreate(ctx context.Context, v *xproto.ViewCreate) (*Stmt, error) {
	return s.issue(ctx, false, func(ctx context.Context) error {
		return s.codec.SendViewCreate(ctx, v)
	})
}

// ViewModify alters an existing view.
func (s *Session) ViewModify(ctx context.Context, v *xproto.ViewModify) (*Stmt, error) {
	return s.issue(ctx, false, func(ctx context.Context) error {
		return s.codec.SendViewModify(ctx, v)
	})
}

// ViewDrop drops a view.
func (s *Session) ViewDrop(ctx context.Context, v *xproto.ViewDrop) (*Stmt, error) {
	return s.issue(ctx, false, func(ctx context.Context) error {
		return s.codec.SendViewDrop(ctx, v)
	})
}

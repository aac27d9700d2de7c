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

// DataModel selects document or relational addressing for a CRUD message.
type DataModel int

const (
	DocumentModel DataModel = 1
	TableModel    DataModel = 2
)

// RowLock is the locking mode of a Find.
type RowLock int

const (
	LockNone RowLock = iota
	LockShared
	LockExclusive
)

// RowLockOptions refines RowLock.
type RowLockOptions int

const (
	LockDefault RowLockOptions = iota
	LockNowait
	LockSkipLocked
)

// Collection addresses a collection or table.
type Collection struct {
	Schema string
	Name   string
}

// Projection is one output column/member of a Find.
type Projection struct {
	Source Expr
	Alias  string
}

// OrderDirection is the sort direction of an Order spec.
type OrderDirection int

const (
	OrderAsc OrderDirection = iota + 1
	OrderDesc
)

// Order is one sort key.
type Order struct {
	Expr      Expr
	Direction OrderDirection
}

// Limit bounds the rows affected or returned by a CRUD message.
type Limit struct {
	RowCount uint64
	Offset   uint64
	// HasOffset distinguishes "offset 0" from "no offset"; offsets are
	// only valid on Find.
	HasOffset bool
}

// Find is the crud read message, shared by document find and table select.
type Find struct {
	Collection       Collection
	DataModel        DataModel
	Projection       []Projection
	Criteria         *Expr
	Args             []Scalar
	Order            []Order
	Grouping         []Expr
	GroupingCriteria *Expr
	Limit            *Limit
	Locking          RowLock
	LockingOptions   RowLockOptions
}

// Insert is the crud write message for both document add and row insert.
type Insert struct {
	Collection Collection
	DataModel  DataModel
	// Columns names the target columns in table model; empty in document
	// model.
	Columns []string
	// Rows holds one expression list per inserted row; in document model
	// each row is a single document expression.
	Rows   [][]Expr
	Args   []Scalar
	Upsert bool
}

// UpdateOpKind is the kind of one update operation.
type UpdateOpKind int

const (
	UpdateSet UpdateOpKind = iota + 1
	UpdateItemRemove
	UpdateItemSet
	UpdateItemReplace
	UpdateItemMerge
	UpdateArrayInsert
	UpdateArrayAppend
	UpdateMergePatch
)

// UpdateOp is one mutation of an Update message.
type UpdateOp struct {
	Source Expr // target column or document path
	Op     UpdateOpKind
	Value  *Expr // nil for UpdateItemRemove
}

// Update is the crud modify message.
type Update struct {
	Collection Collection
	DataModel  DataModel
	Criteria   *Expr
	Args       []Scalar
	Order      []Order
	Limit      *Limit
	Operations []UpdateOp
}

// Delete is the crud remove message.
type Delete struct {
	Collection Collection
	DataModel  DataModel
	Criteria   *Expr
	Args       []Scalar
	Order      []Order
	Limit      *Limit
}

// ViewAlgorithm, ViewSecurity and ViewCheckOption mirror the SQL view
// attributes carried by the view DDL messages.
type ViewAlgorithm int

const (
	ViewAlgorithmUndefined ViewAlgorithm = iota
	ViewAlgorithmMerge
	ViewAlgorithmTemptable
)

type ViewSecurity int

const (
	ViewSecurityDefiner ViewSecurity = iota
	ViewSecurityInvoker
)

type ViewCheckOption int

const (
	ViewCheckNone ViewCheckOption = iota
	ViewCheckLocal
	ViewCheckCascaded
)

// ViewCreate creates or replaces a view defined by a Find.
type ViewCreate struct {
	View            Collection
	Columns         []string
	Definition      *Find
	Algorithm       ViewAlgorithm
	Security        ViewSecurity
	Check           ViewCheckOption
	Definer         string
	ReplaceExisting bool
}

// ViewModify alters an existing view.
type ViewModify struct {
	View       Collection
	Columns    []string
	Definition *Find
	Algorithm  ViewAlgorithm
	Security   ViewSecurity
	Check      ViewCheckOption
	Definer    string
}

// ViewDrop drops a view.
type ViewDrop struct {
	View     Collection
	IfExists bool
}

// StmtExecute is a namespaced statement: plain SQL in the "sql" namespace or
// an admin command in the "mysqlx" namespace.
type StmtExecute struct {
	Namespace string
	Stmt      string
	Args      []Scalar
}

// Preparable is implemented by every message that can be prepared server
// side and later executed by statement id.
type Preparable interface {
	isPreparable()
}

func (*Find) isPreparable()        {}
func (*Insert) isPreparable()      {}
func (*Update) isPreparable()      {}
func (*Delete) isPreparable()      {}
func (*StmtExecute) isPreparable() {}

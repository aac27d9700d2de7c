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

import "fmt"

// The expression tree used in CRUD criteria, projections and update
// operations. Expressions arrive here already parsed; this package only
// defines the closed node set and validates shape before a message is
// lowered to the wire.

// ScalarType tags a Scalar literal.
type ScalarType int

const (
	ScalarNull ScalarType = iota
	ScalarSint
	ScalarUint
	ScalarDouble
	ScalarFloat
	ScalarBool
	ScalarString
	ScalarBytes
)

// Scalar is a literal value inside an expression or a bound parameter.
type Scalar struct {
	Type   ScalarType
	Sint   int64
	Uint   uint64
	Double float64
	Float  float32
	Bool   bool
	Str    string
	Bytes  []byte
}

// Convenience constructors for the common literal kinds.

func NullScalar() Scalar            { return Scalar{Type: ScalarNull} }
func Int64Scalar(v int64) Scalar    { return Scalar{Type: ScalarSint, Sint: v} }
func Uint64Scalar(v uint64) Scalar  { return Scalar{Type: ScalarUint, Uint: v} }
func DoubleScalar(v float64) Scalar { return Scalar{Type: ScalarDouble, Double: v} }
func BoolScalar(v bool) Scalar      { return Scalar{Type: ScalarBool, Bool: v} }
func StringScalar(v string) Scalar  { return Scalar{Type: ScalarString, Str: v} }
func BytesScalar(v []byte) Scalar   { return Scalar{Type: ScalarBytes, Bytes: v} }

// PathSegmentKind discriminates document path segments.
type PathSegmentKind int

const (
	PathMember PathSegmentKind = iota
	PathMemberWildcard
	PathArrayIndex
	PathArrayWildcard
	PathDoubleWildcard
)

// PathSegment is one step of a document path ("$.a[2].*.b" style).
type PathSegment struct {
	Kind   PathSegmentKind
	Member string
	Index  uint32
}

// ExprKind discriminates expression nodes.
type ExprKind int

const (
	ExprLiteral ExprKind = iota
	ExprIdent
	ExprVariable
	ExprFuncCall
	ExprOperator
	ExprPlaceholder
	ExprObject
	ExprArray
)

// ObjectField is one key/value pair of an ExprObject, order-preserving.
type ObjectField struct {
	Key   string
	Value Expr
}

// Expr is one node of the expression tree. Which fields are meaningful
// depends on Kind.
type Expr struct {
	Kind ExprKind

	Literal Scalar // ExprLiteral

	// ExprIdent: optional schema/table qualification plus document path.
	Schema string
	Table  string
	Name   string // also the function or operator name
	Path   []PathSegment

	Position uint32 // ExprPlaceholder: 0-based parameter position

	Args   []Expr        // ExprFuncCall, ExprOperator
	Object []ObjectField // ExprObject
	Array  []Expr        // ExprArray
}

// Literal wraps a Scalar into an expression node.
func Literal(s Scalar) Expr { return Expr{Kind: ExprLiteral, Literal: s} }

// Ident references a column or document member.
func Ident(name string, path ...PathSegment) Expr {
	return Expr{Kind: ExprIdent, Name: name, Path: path}
}

// Op builds an operator application.
func Op(name string, args ...Expr) Expr {
	return Expr{Kind: ExprOperator, Name: name, Args: args}
}

// Func builds a function call.
func Func(name string, args ...Expr) Expr {
	return Expr{Kind: ExprFuncCall, Name: name, Args: args}
}

// Placeholder references a bound parameter by position.
func Placeholder(pos uint32) Expr { return Expr{Kind: ExprPlaceholder, Position: pos} }

// Validate walks the tree and rejects malformed nodes before anything is
// sent.
func (e *Expr) Validate() error {
	switch e.Kind {
	case ExprLiteral:
		return nil
	case ExprIdent:
		if e.Name == "" && len(e.Path) == 0 {
			return fmt.Errorf("identifier expression with neither name nor document path")
		}
		for _, seg := range e.Path {
			if seg.Kind == PathMember && seg.Member == "" {
				return fmt.Errorf("empty member name in document path")
			}
		}
		return nil
	case ExprVariable:
		if e.Name == "" {
			return fmt.Errorf("variable expression without a name")
		}
		return nil
	case ExprFuncCall, ExprOperator:
		if e.Name == "" {
			return fmt.Errorf("call expression without a name")
		}
		for i := range e.Args {
			if err := e.Args[i].Validate(); err != nil {
				return err
			}
		}
		return nil
	case ExprPlaceholder:
		return nil
	case ExprObject:
		for i := range e.Object {
			if e.Object[i].Key == "" {
				return fmt.Errorf("object expression with empty key")
			}
			if err := e.Object[i].Value.Validate(); err != nil {
				return err
			}
		}
		return nil
	case ExprArray:
		for i := range e.Array {
			if err := e.Array[i].Validate(); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown expression kind %d", e.Kind)
	}
}

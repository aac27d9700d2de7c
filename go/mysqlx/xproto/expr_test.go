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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExprValidate(t *testing.T) {
	ok := Op("==", Ident("age"), Literal(Int64Scalar(30)))
	require.NoError(t, ok.Validate())

	// Operators need a name.
	bad := Expr{Kind: ExprOperator, Args: []Expr{Literal(NullScalar())}}
	require.Error(t, bad.Validate())

	// Identifiers need a name or a document path.
	require.Error(t, (&Expr{Kind: ExprIdent}).Validate())
	withPath := Ident("", PathSegment{Kind: PathMember, Member: "name"})
	require.NoError(t, withPath.Validate())
	emptyMember := Ident("doc", PathSegment{Kind: PathMember})
	require.Error(t, emptyMember.Validate())

	// Object keys must be non-empty; errors propagate from nested nodes.
	obj := Expr{Kind: ExprObject, Object: []ObjectField{
		{Key: "", Value: Literal(NullScalar())},
	}}
	require.Error(t, obj.Validate())
	nested := Expr{Kind: ExprArray, Array: []Expr{
		{Kind: ExprFuncCall}, // no name
	}}
	require.Error(t, nested.Validate())
}

func TestScalarConstructors(t *testing.T) {
	assert.Equal(t, ScalarNull, NullScalar().Type)
	assert.Equal(t, int64(-5), Int64Scalar(-5).Sint)
	assert.Equal(t, uint64(5), Uint64Scalar(5).Uint)
	assert.Equal(t, 1.5, DoubleScalar(1.5).Double)
	assert.True(t, BoolScalar(true).Bool)
	assert.Equal(t, "s", StringScalar("s").Str)
	assert.Equal(t, []byte("b"), BytesScalar([]byte("b")).Bytes)
}

func TestColumnMetaFlags(t *testing.T) {
	ts := &ColumnMeta{Type: TypeDatetime, Flags: FlagDatetimeTimestamp}
	assert.True(t, ts.IsTimestamp())
	dt := &ColumnMeta{Type: TypeDatetime}
	assert.False(t, dt.IsTimestamp())
	// The same bit means something else on other types.
	u := &ColumnMeta{Type: TypeUint, Flags: FlagUintZerofill}
	assert.False(t, u.IsTimestamp())

	pad := &ColumnMeta{Type: TypeBytes, Flags: FlagBytesRightpad}
	assert.True(t, pad.IsRightpad())
}

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
	"encoding/hex"
	"fmt"

	"github.com/buger/jsonparser"
	"github.com/google/uuid"

	"mysqlx.io/mysqlx/go/mysqlx/xproto"
)

// generateDocID produces a 32-char hex document id. V7 UUIDs keep ids of
// one session roughly time-ordered, which helps InnoDB page locality on
// the _id primary key.
func generateDocID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(id[:]), nil
}

// ensureDocID returns doc with an _id member present. JSON string literals
// are inspected with jsonparser and patched in place; object expressions
// get an extra field. Other expression kinds (placeholders, function
// calls) pass through untouched, the server generates the id then.
func ensureDocID(doc xproto.Expr) (xproto.Expr, error) {
	switch doc.Kind {
	case xproto.ExprLiteral:
		if doc.Literal.Type != xproto.ScalarString {
			return doc, nil
		}
		raw := []byte(doc.Literal.Str)
		_, _, _, err := jsonparser.Get(raw, "_id")
		switch err {
		case nil:
			return doc, nil
		case jsonparser.KeyPathNotFoundError:
		default:
			return doc, fmt.Errorf("invalid document: %v", err)
		}
		id, err := generateDocID()
		if err != nil {
			return doc, err
		}
		patched, err := jsonparser.Set(raw, []byte(`"`+id+`"`), "_id")
		if err != nil {
			return doc, err
		}
		doc.Literal = xproto.StringScalar(string(patched))
		return doc, nil
	case xproto.ExprObject:
		for _, f := range doc.Object {
			if f.Key == "_id" {
				return doc, nil
			}
		}
		id, err := generateDocID()
		if err != nil {
			return doc, err
		}
		doc.Object = append(doc.Object[:len(doc.Object):len(doc.Object)], xproto.ObjectField{
			Key:   "_id",
			Value: xproto.Literal(xproto.StringScalar(id)),
		})
		return doc, nil
	default:
		return doc, nil
	}
}

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

// ServerCapabilities records which optional protocol features the connected
// server accepts. Probed once after authentication.
type ServerCapabilities struct {
	RowLocking         bool
	Upsert             bool
	PreparedStatements bool
	KeepOpen           bool
	Compression        string
}

// probeCapabilities checks optional message fields via Expect blocks: the
// server acknowledges an expectation on a field it knows and errors on one
// it does not. Both outcomes are valid answers.
func (s *Session) probeCapabilities(ctx context.Context) error {
	probes := []struct {
		fields []string
		found  func(bool)
	}{
		{[]string{fieldFindRowLocking, fieldFindRowLockingOpt}, func(ok bool) { s.caps.RowLocking = ok }},
		{[]string{fieldInsertUpsert}, func(ok bool) { s.caps.Upsert = ok }},
		{[]string{fieldPrepareExecute}, func(ok bool) { s.caps.PreparedStatements = ok }},
		{[]string{fieldSessionKeepOpen}, func(ok bool) { s.caps.KeepOpen = ok }},
	}
	for _, p := range probes {
		ok, err := s.probeFields(ctx, p.fields)
		if err != nil {
			return err
		}
		p.found(ok)
	}
	s.caps.Compression = s.compression
	return nil
}

// probeFields opens and closes an empty Expect block conditioned on the
// given message fields existing.
func (s *Session) probeFields(ctx context.Context, fields []string) (bool, error) {
	conds := make([]xproto.ExpectCondition, 0, len(fields))
	for _, f := range fields {
		conds = append(conds, xproto.ExpectCondition{
			Key:   xproto.ExpectFieldExists,
			Value: []byte(f),
		})
	}
	if err := s.codec.SendExpectOpen(ctx, conds); err != nil {
		return false, err
	}
	msg, err := s.recvSetup(ctx)
	if err != nil {
		return false, err
	}
	supported := false
	switch msg.(type) {
	case *xproto.Ok:
		supported = true
	case *xproto.Error:
		// Unknown field (or Expect itself unsupported on very old
		// servers): the feature is unavailable.
	default:
		return false, protocolError("unexpected %T probing capabilities", msg)
	}
	if !supported {
		return false, nil
	}
	if err := s.codec.SendExpectClose(ctx); err != nil {
		return false, err
	}
	msg, err = s.recvSetup(ctx)
	if err != nil {
		return false, err
	}
	switch m := msg.(type) {
	case *xproto.Ok:
		return true, nil
	case *xproto.Error:
		return false, newServerError(m)
	default:
		return false, protocolError("unexpected %T closing an expectation block", msg)
	}
}

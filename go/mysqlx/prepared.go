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

// Prepared is a server-side prepared statement. The Prepare message is
// pipelined with the first Execute, so preparation errors surface on the
// first execution as a *PrepareError.
type Prepared struct {
	sess     *Session
	id       uint32
	msg      xproto.Preparable
	prepared bool
}

// Prepare registers msg for prepared execution. Nothing is sent until the
// first Execute.
func (s *Session) Prepare(msg xproto.Preparable) (*Prepared, error) {
	if !s.valid {
		return nil, ErrSessionInvalid
	}
	if !s.caps.PreparedStatements {
		return nil, ErrPrepareUnsupported
	}
	s.nextPrepID++
	return &Prepared{sess: s, id: s.nextPrepID, msg: msg}, nil
}

// Prepared reports whether the server acknowledged the prepare.
func (p *Prepared) Prepared() bool { return p.prepared }

// Execute runs the prepared statement with the given placeholder values.
// The first call pipelines Prepare with Execute; later calls send Execute
// alone.
func (p *Prepared) Execute(ctx context.Context, args ...xproto.Scalar) (*Stmt, error) {
	s := p.sess
	if !s.valid {
		return nil, ErrSessionInvalid
	}
	pipeline := !p.prepared
	st, err := s.issue(ctx, true, func(ctx context.Context) error {
		if pipeline {
			if err := s.codec.SendPrepare(ctx, p.id, p.msg); err != nil {
				return err
			}
		}
		return s.codec.SendPrepareExecute(ctx, p.id, args)
	})
	if err != nil {
		return nil, err
	}
	if pipeline {
		st.prep = p
		st.expectPrepareAck = true
	}
	return st, nil
}

// Deallocate releases the server-side statement. A never-executed or
// failed-to-prepare statement has nothing to release.
func (p *Prepared) Deallocate(ctx context.Context) error {
	if !p.prepared {
		return nil
	}
	s := p.sess
	if !s.valid {
		return ErrSessionInvalid
	}
	st, err := s.issue(ctx, false, func(ctx context.Context) error {
		return s.codec.SendPrepareDeallocate(ctx, p.id)
	})
	if err != nil {
		return err
	}
	if err := st.Wait(ctx); err != nil {
		return err
	}
	p.prepared = false
	return nil
}

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
	"fmt"

	"mysqlx.io/mysqlx/go/log"
	"mysqlx.io/mysqlx/go/mysqlx/xproto"
)

// AuthMethod selects the authentication mechanism. AuthAuto picks PLAIN on
// secure transports and MYSQL41 (with SHA256_MEMORY fallback) otherwise.
type AuthMethod int

const (
	AuthAuto AuthMethod = iota
	AuthPlain
	AuthMySQL41
	AuthSHA256Memory
	AuthExternal
)

func (m AuthMethod) String() string {
	switch m {
	case AuthAuto:
		return "AUTO"
	case AuthPlain:
		return mechPlain
	case AuthMySQL41:
		return mechMySQL41
	case AuthSHA256Memory:
		return mechSHA256Memory
	case AuthExternal:
		return mechExternal
	default:
		return fmt.Sprintf("AuthMethod(%d)", int(m))
	}
}

// mechanism supplies the two per-mechanism primitives of the handshake: the
// initial payload and the per-round challenge response.
type mechanism interface {
	name() string
	initialData(schema, user, password string) []byte
	// continueData computes the response for round n (1-based) to the
	// given server challenge.
	continueData(round int, challenge []byte, schema, user, password string) ([]byte, error)
}

// plainMech sends the whole payload up front; any continuation round is a
// protocol error.
type plainMech struct{}

func (plainMech) name() string { return mechPlain }

func (plainMech) initialData(schema, user, password string) []byte {
	return authPayload(schema, user, password)
}

func (plainMech) continueData(int, []byte, string, string, string) ([]byte, error) {
	return nil, protocolError("unexpected challenge during PLAIN authentication")
}

// externalMech delegates identification to the transport layer.
type externalMech struct{}

func (externalMech) name() string { return mechExternal }

func (externalMech) initialData(string, string, string) []byte { return []byte{} }

func (externalMech) continueData(int, []byte, string, string, string) ([]byte, error) {
	return nil, protocolError("unexpected challenge during EXTERNAL authentication")
}

// mysql41Mech answers the single 20-byte scramble round with the salted
// SHA1 double hash.
type mysql41Mech struct{}

func (mysql41Mech) name() string { return mechMySQL41 }

func (mysql41Mech) initialData(string, string, string) []byte { return nil }

func (mysql41Mech) continueData(round int, challenge []byte, schema, user, password string) ([]byte, error) {
	if round != 1 {
		return nil, protocolError("unexpected authentication round %d for MYSQL41", round)
	}
	hash, err := scrambleMySQL41(password, challenge)
	if err != nil {
		return nil, err
	}
	return authPayload(schema, user, hash), nil
}

// sha256MemMech is the SHA256 cache-based variant of the same shape.
type sha256MemMech struct{}

func (sha256MemMech) name() string { return mechSHA256Memory }

func (sha256MemMech) initialData(string, string, string) []byte { return nil }

func (sha256MemMech) continueData(round int, challenge []byte, schema, user, password string) ([]byte, error) {
	if round != 1 {
		return nil, protocolError("unexpected authentication round %d for SHA256_MEMORY", round)
	}
	hash, err := scrambleSHA256Memory(password, challenge)
	if err != nil {
		return nil, err
	}
	return authPayload(schema, user, hash), nil
}

func mechanismFor(m AuthMethod) mechanism {
	switch m {
	case AuthPlain:
		return plainMech{}
	case AuthMySQL41:
		return mysql41Mech{}
	case AuthSHA256Memory:
		return sha256MemMech{}
	case AuthExternal:
		return externalMech{}
	default:
		return nil
	}
}

// authState tracks the handshake: INIT -> START -> CONT* -> DONE|ERROR.
type authState int

const (
	authInit authState = iota
	authStart
	authCont
	authDone
	authError
)

// authenticator drives one authentication handshake over the session's
// codec.
type authenticator struct {
	sess  *Session
	mech  mechanism
	state authState
	round int
}

// run performs the whole handshake. Restarting while a round is in
// progress is a usage error.
func (a *authenticator) run(ctx context.Context) error {
	if a.state == authStart || a.state == authCont {
		return ErrAuthInProgress
	}
	a.state = authStart
	a.round = 0

	opts := a.sess.opts
	data := a.mech.initialData(opts.Schema, opts.User, opts.Password)
	if err := a.sess.codec.SendAuthenticateStart(ctx, a.mech.name(), data); err != nil {
		a.state = authError
		return err
	}

	for {
		msg, err := a.sess.recvAuth(ctx)
		if err != nil {
			a.state = authError
			return err
		}
		switch m := msg.(type) {
		case *xproto.AuthContinue:
			a.round++
			a.state = authCont
			resp, err := a.mech.continueData(a.round, m.Data, opts.Schema, opts.User, opts.Password)
			if err != nil {
				a.state = authError
				return err
			}
			if err := a.sess.codec.SendAuthenticateContinue(ctx, resp); err != nil {
				a.state = authError
				return err
			}
		case *xproto.AuthOk:
			a.state = authDone
			return nil
		case *xproto.Error:
			a.state = authError
			serr := newServerError(m)
			a.sess.diag.add(xproto.SeverityError, serr)
			return serr
		default:
			a.state = authError
			return protocolError("unexpected %T during authentication", msg)
		}
	}
}

// authenticate runs the mechanism selection and fallback policy: an
// explicit method is used as-is; otherwise PLAIN over secure transports,
// MYSQL41 over insecure ones with one automatic SHA256_MEMORY retry before
// giving up.
func (s *Session) authenticate(ctx context.Context) error {
	if s.opts.Auth != AuthAuto {
		mech := mechanismFor(s.opts.Auth)
		if mech == nil {
			return fmt.Errorf("unknown authentication method %v", s.opts.Auth)
		}
		return s.runAuth(ctx, mech)
	}

	if s.codec.IsSecure() {
		return s.runAuth(ctx, plainMech{})
	}

	err := s.runAuth(ctx, mysql41Mech{})
	if err == nil {
		return nil
	}
	var serr *Error
	if !asError(err, &serr) {
		// Transport or protocol failure, not a credential problem.
		return err
	}
	log.Infof("MYSQL41 authentication failed (%v), retrying with SHA256_MEMORY", serr.Num)
	s.diag.clear()
	if err := s.runAuth(ctx, sha256MemMech{}); err != nil {
		if asError(err, &serr) {
			return errAuthFailed
		}
		return err
	}
	return nil
}

func (s *Session) runAuth(ctx context.Context, mech mechanism) error {
	a := &authenticator{sess: s, mech: mech}
	s.auth = a
	defer func() { s.auth = nil }()
	return a.run(ctx)
}

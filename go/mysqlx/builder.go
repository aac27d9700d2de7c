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

// CodecFactory builds an unconnected protocol codec for one data source.
// The wire implementation lives outside this module; tests plug in a fake.
type CodecFactory func(ds DataSource) (xproto.Codec, error)

// Connect establishes a session against a single data source: dial,
// optional TLS upgrade, capability negotiation, authentication.
func Connect(ctx context.Context, ds DataSource, opts *Options) (*Session, error) {
	if opts == nil || opts.NewCodec == nil {
		return nil, ErrNoCodec
	}
	if err := opts.TLS.Validate(); err != nil {
		return nil, err
	}
	codec, err := opts.NewCodec(ds)
	if err != nil {
		return nil, err
	}
	if err := codec.Connect(ctx); err != nil {
		return nil, err
	}
	ok := false
	defer func() {
		if !ok {
			codec.Close()
		}
	}()

	if opts.TLS.Mode != SSLDisabled {
		if err := upgradeTLS(ctx, codec, ds, opts); err != nil {
			return nil, err
		}
	}
	sess, err := newSession(ctx, codec, opts)
	if err != nil {
		return nil, err
	}
	ok = true
	return sess, nil
}

// upgradeTLS advertises the tls capability and wraps the connection on
// acceptance. A "capability not supported" rejection is tolerated in
// preferred mode only.
func upgradeTLS(ctx context.Context, codec xproto.Codec, ds DataSource, opts *Options) error {
	if err := codec.SendCapabilitiesSet(ctx, map[string]any{capTLS: true}); err != nil {
		return err
	}
	for {
		msg, err := codec.Recv(ctx)
		if err != nil {
			return err
		}
		switch m := msg.(type) {
		case *xproto.Notice:
			continue
		case *xproto.Ok:
			cfg, err := opts.TLS.Config(ds.Host)
			if err != nil {
				return err
			}
			return codec.StartTLS(ctx, cfg)
		case *xproto.Error:
			if m.Code == ERXCapabilitiesPrepareFailed && opts.TLS.Mode == SSLPreferred {
				log.Warningf("server at %s does not support TLS, continuing unencrypted", ds.Addr())
				return nil
			}
			return newServerError(m)
		default:
			return protocolError("unexpected %T during TLS negotiation", msg)
		}
	}
}

// ConnectMulti walks a MultiSource in priority/weight order and returns the
// first session that can be established. Network-level failures move on to
// the next candidate; authentication, protocol and TLS failures abort the
// walk immediately.
func ConnectMulti(ctx context.Context, ms *MultiSource, defaults *Options) (*Session, error) {
	if ms.Size() == 0 {
		return nil, ErrNoDataSources
	}

	var (
		sess   *Session
		fatal  error
		failed []error
		tried  int
	)
	ms.visit(func(ds DataSource, opts *Options) visitAction {
		if opts == nil {
			opts = defaults
		}
		tried++
		s, err := Connect(ctx, ds, opts)
		if err == nil {
			sess = s
			return visitStop
		}
		if isFatalConnectError(err) {
			fatal = err
			return visitStop
		}
		log.Warningf("connection to %s failed: %v", ds.Addr(), err)
		failed = append(failed, fmt.Errorf("%s: %w", ds.Addr(), err))
		return visitContinue
	})

	switch {
	case sess != nil:
		return sess, nil
	case fatal != nil:
		return nil, fatal
	case tried == 1:
		return nil, failed[0]
	default:
		return nil, fmt.Errorf("could not connect to any of the %d given data sources", tried)
	}
}

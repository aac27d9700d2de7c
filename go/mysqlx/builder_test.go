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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mysqlx.io/mysqlx/go/mysqlx/fakeserver"
)

func TestConnectRequiresCodec(t *testing.T) {
	_, err := Connect(context.Background(), DataSource{Host: "db1"}, nil)
	require.ErrorIs(t, err, ErrNoCodec)

	_, err = Connect(context.Background(), DataSource{Host: "db1"}, &Options{})
	require.ErrorIs(t, err, ErrNoCodec)
}

func TestConnectUpgradesTLS(t *testing.T) {
	f := fakeserver.New()
	opts := testOptions(f)
	opts.TLS.Mode = SSLRequired

	sess, err := Connect(context.Background(), DataSource{Host: "db1"}, opts)
	require.NoError(t, err)
	assert.True(t, f.Secure)

	// With the transport secured, AUTO picks PLAIN.
	require.Len(t, f.AuthStarts, 1)
	assert.Equal(t, "PLAIN", f.AuthStarts[0].Mechanism)
	assert.True(t, sess.IsValid())
}

func TestConnectTLSPreferredFallsBackToPlain(t *testing.T) {
	f := fakeserver.New()
	f.RejectTLS = true
	opts := testOptions(f)
	opts.TLS.Mode = SSLPreferred

	sess, err := Connect(context.Background(), DataSource{Host: "db1"}, opts)
	require.NoError(t, err)
	assert.False(t, f.Secure)
	assert.True(t, sess.IsValid())

	// The insecure transport forces the challenge-response mechanism.
	require.Len(t, f.AuthStarts, 1)
	assert.Equal(t, "MYSQL41", f.AuthStarts[0].Mechanism)
}

func TestConnectTLSRequiredFailsOnReject(t *testing.T) {
	f := fakeserver.New()
	f.RejectTLS = true
	opts := testOptions(f)
	opts.TLS.Mode = SSLRequired

	_, err := Connect(context.Background(), DataSource{Host: "db1"}, opts)
	require.Error(t, err)
	assert.True(t, f.Closed)
}

func TestConnectTLSHandshakeFailure(t *testing.T) {
	f := fakeserver.New()
	f.TLSErr = errors.New("handshake failed")
	opts := testOptions(f)
	opts.TLS.Mode = SSLRequired

	_, err := Connect(context.Background(), DataSource{Host: "db1"}, opts)
	require.ErrorContains(t, err, "handshake failed")
	assert.True(t, f.Closed)
}

func TestConnectValidatesTLSOptions(t *testing.T) {
	f := fakeserver.New()
	opts := testOptions(f)
	opts.TLS = TLSOptions{Mode: SSLVerifyCA} // missing CA

	_, err := Connect(context.Background(), DataSource{Host: "db1"}, opts)
	require.Error(t, err)
	assert.False(t, f.Connected)
}

func TestConnectDialFailure(t *testing.T) {
	f := fakeserver.New()
	f.ConnectErr = errors.New("refused")
	_, err := Connect(context.Background(), DataSource{Host: "db1"}, testOptions(f))
	require.ErrorContains(t, err, "refused")
}

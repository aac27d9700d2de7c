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
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mysqlx.io/mysqlx/go/mysqlx/fakeserver"
	"mysqlx.io/mysqlx/go/mysqlx/xproto"
)

func ds(host string) DataSource { return DataSource{Host: host, Port: 33060} }

func TestMultiSourceMixedPriorities(t *testing.T) {
	ms := &MultiSource{}
	require.NoError(t, ms.Add(ds("a"), nil, 0))
	require.ErrorIs(t, ms.AddPrio(ds("b"), nil, 1, 0), ErrMixedPriorities)

	ms.Clear()
	require.NoError(t, ms.AddPrio(ds("a"), nil, 1, 0))
	require.ErrorIs(t, ms.Add(ds("b"), nil, 0), ErrMixedPriorities)

	// Clear resets the mode entirely.
	ms.Clear()
	assert.Equal(t, 0, ms.Size())
	require.NoError(t, ms.Add(ds("a"), nil, 0))
}

func TestVisitOrderWithoutPriorities(t *testing.T) {
	// Entries added without priorities keep insertion order.
	ms := &MultiSource{}
	require.NoError(t, ms.Add(ds("a"), nil, 0))
	require.NoError(t, ms.Add(ds("b"), nil, 0))
	require.NoError(t, ms.Add(ds("c"), nil, 0))

	var order []string
	ms.visit(func(d DataSource, _ *Options) visitAction {
		order = append(order, d.Host)
		return visitContinue
	})
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestVisitPriorityGroups(t *testing.T) {
	ms := &MultiSource{}
	require.NoError(t, ms.AddPrio(ds("low1"), nil, 10, 0))
	require.NoError(t, ms.AddPrio(ds("high"), nil, 0, 0))
	require.NoError(t, ms.AddPrio(ds("low2"), nil, 10, 0))

	var order []string
	ms.visit(func(d DataSource, _ *Options) visitAction {
		order = append(order, d.Host)
		return visitContinue
	})
	require.Len(t, order, 3)
	assert.Equal(t, "high", order[0])
	assert.ElementsMatch(t, []string{"low1", "low2"}, order[1:])
}

func TestVisitEachEntryOnce(t *testing.T) {
	ms := &MultiSource{}
	hosts := []string{"a", "b", "c", "d", "e"}
	for i, h := range hosts {
		require.NoError(t, ms.AddPrio(ds(h), nil, 1, uint16(i*10)))
	}
	seen := map[string]int{}
	ms.visit(func(d DataSource, _ *Options) visitAction {
		seen[d.Host]++
		return visitContinue
	})
	require.Len(t, seen, len(hosts))
	for _, h := range hosts {
		assert.Equal(t, 1, seen[h])
	}
}

func TestVisitStopsOnDemand(t *testing.T) {
	ms := &MultiSource{}
	require.NoError(t, ms.Add(ds("a"), nil, 0))
	require.NoError(t, ms.Add(ds("b"), nil, 0))

	visits := 0
	ms.visit(func(DataSource, *Options) visitAction {
		visits++
		return visitStop
	})
	assert.Equal(t, 1, visits)
}

func TestVisitWeightPreference(t *testing.T) {
	// With weights 99 vs 1 the heavy entry should be picked first almost
	// always; over 300 trials a majority is a safe bet.
	heavyFirst := 0
	for i := 0; i < 300; i++ {
		ms := &MultiSource{}
		require.NoError(t, ms.AddPrio(ds("heavy"), nil, 0, 99))
		require.NoError(t, ms.AddPrio(ds("light"), nil, 0, 1))
		var first string
		ms.visit(func(d DataSource, _ *Options) visitAction {
			first = d.Host
			return visitStop
		})
		if first == "heavy" {
			heavyFirst++
		}
	}
	assert.Greater(t, heavyFirst, 150)
}

// multiFactory hands out one fake per host.
func multiFactory(fakes map[string]*fakeserver.Server) CodecFactory {
	return func(d DataSource) (xproto.Codec, error) {
		f, ok := fakes[d.Host]
		if !ok {
			return nil, errors.New("unexpected host " + d.Host)
		}
		return f, nil
	}
}

func multiOptions(fakes map[string]*fakeserver.Server) *Options {
	return &Options{
		User:                "tester",
		Password:            "secret",
		Schema:              "app",
		TLS:                 TLSOptions{Mode: SSLDisabled},
		Compression:         CompressionDisabled,
		DisableConnectAttrs: true,
		NewCodec:            multiFactory(fakes),
	}
}

func TestConnectMultiFailsOver(t *testing.T) {
	bad := fakeserver.New()
	bad.ConnectErr = &net.OpError{Op: "dial", Err: errors.New("connection refused")}
	good := fakeserver.New()
	good.Secure = true
	fakes := map[string]*fakeserver.Server{"bad": bad, "good": good}

	ms := &MultiSource{}
	require.NoError(t, ms.AddPrio(ds("bad"), nil, 0, 0))
	require.NoError(t, ms.AddPrio(ds("good"), nil, 1, 0))

	sess, err := ConnectMulti(context.Background(), ms, multiOptions(fakes))
	require.NoError(t, err)
	assert.True(t, sess.IsValid())
	assert.True(t, good.Connected)
}

func TestConnectMultiAuthFailureIsFatal(t *testing.T) {
	bad := fakeserver.New()
	bad.Secure = true
	bad.CheckAuth = func(string, int, []byte) *xproto.Error {
		return fakeserver.ServerError(ERAccessDeniedError, SSAccessDeniedError, "nope")
	}
	good := fakeserver.New()
	good.Secure = true
	fakes := map[string]*fakeserver.Server{"bad": bad, "good": good}

	ms := &MultiSource{}
	require.NoError(t, ms.AddPrio(ds("bad"), nil, 0, 0))
	require.NoError(t, ms.AddPrio(ds("good"), nil, 1, 0))

	// Credentials rejected on the first source: the walk stops instead of
	// hammering the remaining servers.
	_, err := ConnectMulti(context.Background(), ms, multiOptions(fakes))
	var serr *Error
	require.ErrorAs(t, err, &serr)
	assert.False(t, good.Connected)
}

func TestConnectMultiSingleSourceError(t *testing.T) {
	bad := fakeserver.New()
	bad.ConnectErr = &net.OpError{Op: "dial", Err: errors.New("connection refused")}
	fakes := map[string]*fakeserver.Server{"bad": bad}

	ms := &MultiSource{}
	require.NoError(t, ms.Add(ds("bad"), nil, 0))

	_, err := ConnectMulti(context.Background(), ms, multiOptions(fakes))
	require.Error(t, err)
	// A single candidate reports its own failure, not the generic one.
	assert.Contains(t, err.Error(), "bad:33060")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestConnectMultiAllFail(t *testing.T) {
	mk := func() *fakeserver.Server {
		f := fakeserver.New()
		f.ConnectErr = &net.OpError{Op: "dial", Err: errors.New("connection refused")}
		return f
	}
	fakes := map[string]*fakeserver.Server{"a": mk(), "b": mk()}

	ms := &MultiSource{}
	require.NoError(t, ms.Add(ds("a"), nil, 0))
	require.NoError(t, ms.Add(ds("b"), nil, 0))

	_, err := ConnectMulti(context.Background(), ms, multiOptions(fakes))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 given data sources")
}

func TestConnectMultiEmpty(t *testing.T) {
	_, err := ConnectMulti(context.Background(), &MultiSource{}, nil)
	require.ErrorIs(t, err, ErrNoDataSources)
}

func TestDataSourceAddr(t *testing.T) {
	assert.Equal(t, "db1:33060", ds("db1").Addr())
	assert.Equal(t, "tcp", ds("db1").Network())

	sock := DataSource{UnixSocket: "/tmp/mysqlx.sock"}
	assert.Equal(t, "/tmp/mysqlx.sock", sock.Addr())
	assert.Equal(t, "unix", sock.Network())
}

func TestVisitAllZeroWeightsIsUniform(t *testing.T) {
	// A priority group whose weights are all zero falls back to a
	// uniform pick; no entry may be starved.
	first := map[string]int{}
	for i := 0; i < 300; i++ {
		ms := &MultiSource{}
		require.NoError(t, ms.AddPrio(ds("a"), nil, 1, 0))
		require.NoError(t, ms.AddPrio(ds("b"), nil, 1, 0))
		require.NoError(t, ms.AddPrio(ds("c"), nil, 1, 0))

		var order []string
		ms.visit(func(d DataSource, _ *Options) visitAction {
			order = append(order, d.Host)
			return visitContinue
		})
		require.Len(t, order, 3)
		first[order[0]]++
	}
	assert.Positive(t, first["a"])
	assert.Positive(t, first["b"])
	assert.Positive(t, first["c"])
}

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

package netutil

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortRfc2782PriorityOrder(t *testing.T) {
	srvs := []*net.SRV{
		{Target: "c.", Priority: 20, Weight: 0},
		{Target: "a.", Priority: 0, Weight: 0},
		{Target: "b.", Priority: 10, Weight: 0},
	}
	SortRfc2782(srvs)
	assert.Equal(t, "a.", srvs[0].Target)
	assert.Equal(t, "b.", srvs[1].Target)
	assert.Equal(t, "c.", srvs[2].Target)
}

func TestSortRfc2782KeepsPriorityGroupsIntact(t *testing.T) {
	srvs := []*net.SRV{
		{Target: "b1.", Priority: 10, Weight: 5},
		{Target: "a.", Priority: 0, Weight: 0},
		{Target: "b2.", Priority: 10, Weight: 100},
	}
	SortRfc2782(srvs)
	assert.Equal(t, "a.", srvs[0].Target)
	assert.ElementsMatch(t,
		[]string{"b1.", "b2."},
		[]string{srvs[1].Target, srvs[2].Target})
	assert.Equal(t, uint16(10), srvs[1].Priority)
	assert.Equal(t, uint16(10), srvs[2].Priority)
}

func TestSortRfc2782WeightPreference(t *testing.T) {
	first := map[string]int{}
	for i := 0; i < 300; i++ {
		srvs := []*net.SRV{
			{Target: "light.", Priority: 0, Weight: 1},
			{Target: "heavy.", Priority: 0, Weight: 99},
		}
		SortRfc2782(srvs)
		first[srvs[0].Target]++
	}
	assert.Greater(t, first["heavy."], first["light."])
}

func TestSplitHostPort(t *testing.T) {
	host, port, err := SplitHostPort("host:33060")
	require.NoError(t, err)
	assert.Equal(t, "host", host)
	assert.Equal(t, 33060, port)

	// Tolerates unbracketed IPv6.
	host, port, err = SplitHostPort("::1:456")
	require.NoError(t, err)
	assert.Equal(t, "::1", host)
	assert.Equal(t, 456, port)

	_, _, err = SplitHostPort("hostonly")
	require.Error(t, err)
	_, _, err = SplitHostPort("host:notaport")
	require.Error(t, err)
}

func TestJoinHostPort(t *testing.T) {
	assert.Equal(t, "host:33060", JoinHostPort("host", 33060))
	assert.Equal(t, "[::1]:33060", JoinHostPort("::1", 33060))
}

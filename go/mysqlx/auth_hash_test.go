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
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testScramble() []byte {
	scramble := make([]byte, scrambleLen)
	for i := range scramble {
		scramble[i] = byte(i + 1)
	}
	return scramble
}

func TestScrambleMySQL41(t *testing.T) {
	scramble := testScramble()
	got, err := scrambleMySQL41("sakila", scramble)
	require.NoError(t, err)

	// '*' marker plus 40 uppercase hex chars.
	require.Len(t, got, 41)
	assert.Equal(t, byte('*'), got[0])
	assert.Equal(t, strings.ToUpper(got), got)
	_, err = hex.DecodeString(got[1:])
	require.NoError(t, err)

	// stage1 = SHA1(pw), stage2 = SHA1(stage1),
	// reply = SHA1(scramble || stage2) XOR stage1.
	stage1 := sha1.Sum([]byte("sakila"))
	stage2 := sha1.Sum(stage1[:])
	h := sha1.New()
	h.Write(scramble)
	h.Write(stage2[:])
	want := h.Sum(nil)
	for i := range want {
		want[i] ^= stage1[i]
	}
	assert.Equal(t, "*"+strings.ToUpper(hex.EncodeToString(want)), got)
}

func TestScrambleSHA256Memory(t *testing.T) {
	scramble := testScramble()
	got, err := scrambleSHA256Memory("sakila", scramble)
	require.NoError(t, err)

	// 64 uppercase hex chars, no marker.
	require.Len(t, got, 64)
	assert.Equal(t, strings.ToUpper(got), got)
	_, err = hex.DecodeString(got)
	require.NoError(t, err)

	// Hash argument order is swapped relative to MYSQL41.
	stage1 := sha256.Sum256([]byte("sakila"))
	stage2 := sha256.Sum256(stage1[:])
	h := sha256.New()
	h.Write(stage2[:])
	h.Write(scramble)
	want := h.Sum(nil)
	for i := range want {
		want[i] ^= stage1[i]
	}
	assert.Equal(t, strings.ToUpper(hex.EncodeToString(want)), got)
}

func TestScrambleEmptyPassword(t *testing.T) {
	got, err := scrambleMySQL41("", testScramble())
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = scrambleSHA256Memory("", testScramble())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestScrambleBadLength(t *testing.T) {
	_, err := scrambleMySQL41("pw", []byte{1, 2, 3})
	assert.Error(t, err)
	_, err = scrambleSHA256Memory("pw", nil)
	assert.Error(t, err)
}

func TestScrambleDependsOnChallenge(t *testing.T) {
	a, err := scrambleMySQL41("pw", testScramble())
	require.NoError(t, err)
	other := testScramble()
	other[0] ^= 0xff
	b, err := scrambleMySQL41("pw", other)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestAuthPayload(t *testing.T) {
	assert.Equal(t, []byte("db\x00user\x00hash"), authPayload("db", "user", "hash"))
	assert.Equal(t, []byte("\x00user\x00"), authPayload("", "user", ""))
}

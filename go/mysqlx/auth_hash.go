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
	"fmt"
	"strings"
)

// Salted double-hash challenge responses for the MYSQL41 and SHA256_MEMORY
// mechanisms:
//
//	stage1 = H(password)
//	stage2 = H(stage1)
//	MYSQL41:        result = H(scramble || stage2)
//	SHA256_MEMORY:  result = H(stage2 || scramble)
//	response = result XOR stage1, hex encoded
//
// MYSQL41 prefixes the hex with '*'. An empty password skips hashing and
// sends an empty response field.

// scrambleLen is the server scramble size for both hash mechanisms.
const scrambleLen = 20

// scrambleMySQL41 computes the MYSQL41 password hash for a 20-byte server
// scramble.
func scrambleMySQL41(password string, scramble []byte) (string, error) {
	if len(scramble) != scrambleLen {
		return "", protocolError("bad scramble length %d, want %d", len(scramble), scrambleLen)
	}
	if password == "" {
		return "", nil
	}
	stage1 := sha1.Sum([]byte(password))
	stage2 := sha1.Sum(stage1[:])

	h := sha1.New()
	h.Write(scramble)
	h.Write(stage2[:])
	result := h.Sum(nil)

	for i := range result {
		result[i] ^= stage1[i]
	}
	return "*" + strings.ToUpper(hex.EncodeToString(result)), nil
}

// scrambleSHA256Memory computes the SHA256_MEMORY password hash. Note the
// swapped argument order relative to MYSQL41, and no leading marker.
func scrambleSHA256Memory(password string, scramble []byte) (string, error) {
	if len(scramble) != scrambleLen {
		return "", protocolError("bad scramble length %d, want %d", len(scramble), scrambleLen)
	}
	if password == "" {
		return "", nil
	}
	stage1 := sha256.Sum256([]byte(password))
	stage2 := sha256.Sum256(stage1[:])

	h := sha256.New()
	h.Write(stage2[:])
	h.Write(scramble)
	result := h.Sum(nil)

	for i := range result {
		result[i] ^= stage1[i]
	}
	return strings.ToUpper(hex.EncodeToString(result)), nil
}

// authPayload assembles the "schema NUL user NUL response" authentication
// payload shared by every mechanism.
func authPayload(schema, user, response string) []byte {
	return fmt.Appendf(nil, "%s\x00%s\x00%s", schema, user, response)
}

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

// Statement namespaces.
const (
	namespaceSQL   = "sql"
	namespaceAdmin = "mysqlx"
)

// Authentication mechanism names as sent in AuthenticateStart.
const (
	mechPlain        = "PLAIN"
	mechMySQL41      = "MYSQL41"
	mechSHA256Memory = "SHA256_MEMORY"
	mechExternal     = "EXTERNAL"
)

// Capability names used during negotiation.
const (
	capTLS                 = "tls"
	capCompression         = "compression"
	capSessionConnectAttrs = "session_connect_attrs"
)

// Compression algorithm names, in increasing negotiation priority.
const (
	compressionDeflate = "deflate_stream"
	compressionLZ4     = "lz4_message"
	compressionZstd    = "zstd_stream"
)

// MySQL server error numbers this client inspects or raises.
const (
	ERAccessDeniedError = 1045
	ERUnknownError      = 1105
	// X plugin error numbers (50xx range).
	ERXCapabilitiesPrepareFailed = 5001
	ERXBadSchema                 = 5113
	ERXCmdNumArguments           = 5015
	ERXExpectNoError             = 5159
	ERXExpectBadCondition        = 5160
	ERXBadStatementID            = 5110
)

// SQLSTATE values.
const (
	SSUnknownSQLState   = "HY000"
	SSAccessDeniedError = "28000"
	SSNetError          = "08S01"
)

// Mysqlx.Expect condition values probed at session setup. Each is a field
// path inside the protocol message tree; a server that knows the field
// accepts the expectation block, an older one rejects it.
const (
	fieldFindRowLocking    = "6.1"  // Find.locking
	fieldFindRowLockingOpt = "6.2"  // Find.locking_options
	fieldInsertUpsert      = "6.3"  // Insert.upsert
	fieldPrepareExecute    = "28.1" // Prepare.stmt
	fieldSessionKeepOpen   = "6.7"  // Reset.keep_open
)

// Version is the client version reported in connection attributes.
const Version = "1.0.0-dev"

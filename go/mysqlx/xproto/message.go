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

// Package xproto defines the boundary between the session/statement core and
// the X protocol codec. The core never touches wire bytes: it sends typed
// client messages through the Codec interface and receives the typed server
// messages declared here. The protobuf framing behind the Codec is an
// implementation detail of whichever codec is plugged in.
package xproto

// FieldType is the column type tag reported in ColumnMetaData.
type FieldType uint32

// Column types as reported by the server. The values match the X protocol
// ColumnMetaData.FieldType enumeration.
const (
	TypeSint     FieldType = 1
	TypeUint     FieldType = 2
	TypeDouble   FieldType = 5
	TypeFloat    FieldType = 6
	TypeBytes    FieldType = 7
	TypeTime     FieldType = 10
	TypeDatetime FieldType = 12
	TypeSet      FieldType = 15
	TypeEnum     FieldType = 16
	TypeBit      FieldType = 17
	TypeDecimal  FieldType = 18
)

// ContentType refines TypeBytes columns.
type ContentType uint32

const (
	ContentTypeNone     ContentType = 0
	ContentTypeGeometry ContentType = 1
	ContentTypeJSON     ContentType = 2
	ContentTypeXML      ContentType = 3
)

// Column flags. The low bit is overloaded per column type.
const (
	// FlagNotNull through FlagAutoIncrement apply to every column type.
	FlagNotNull       = 0x0010
	FlagPrimaryKey    = 0x0020
	FlagUniqueKey     = 0x0040
	FlagMultipleKey   = 0x0080
	FlagAutoIncrement = 0x0100

	// Type-specific reuses of bit 0.
	FlagUintZerofill      = 0x0001 // TypeUint
	FlagDoubleUnsigned    = 0x0001 // TypeDouble
	FlagFloatUnsigned     = 0x0001 // TypeFloat
	FlagDecimalUnsigned   = 0x0001 // TypeDecimal
	FlagBytesRightpad     = 0x0001 // TypeBytes
	FlagDatetimeTimestamp = 0x0001 // TypeDatetime: TIMESTAMP, not DATETIME
)

// ColumnMeta describes one column of a result set. A full set of these,
// ordered by column position, precedes the rows of every result set.
type ColumnMeta struct {
	Type             FieldType
	ContentType      ContentType
	Name             string
	OriginalName     string
	Table            string
	OriginalTable    string
	Schema           string
	Catalog          string
	Collation        uint64
	FractionalDigits uint32
	Length           uint32
	Flags            uint32
}

// IsTimestamp reports whether a TypeDatetime column is a TIMESTAMP.
func (c *ColumnMeta) IsTimestamp() bool {
	return c.Type == TypeDatetime && c.Flags&FlagDatetimeTimestamp != 0
}

// IsRightpad reports whether a TypeBytes column pads to Length.
func (c *ColumnMeta) IsRightpad() bool {
	return c.Type == TypeBytes && c.Flags&FlagBytesRightpad != 0
}

// Severity of a server diagnostic.
type Severity int

const (
	SeverityNote Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityNote:
		return "NOTE"
	case SeverityWarning:
		return "WARNING"
	default:
		return "ERROR"
	}
}

// ServerMessage is the closed set of messages a Codec can deliver to the
// core. Exactly one concrete type below is returned per Recv call.
type ServerMessage interface {
	isServerMessage()
}

// Ok acknowledges a simple request (capability set, expectation block,
// session reset).
type Ok struct {
	Msg string
}

// Error is a server-reported failure. Severity below SeverityError is
// recorded as a diagnostic and does not abort the current reply.
type Error struct {
	Severity Severity
	Code     uint16
	SQLState string
	Msg      string
}

// Capabilities is the reply to a capabilities get.
type Capabilities struct {
	Values map[string]any
}

// AuthContinue carries a server challenge for the next authentication round.
type AuthContinue struct {
	Data []byte
}

// AuthOk terminates a successful authentication handshake.
type AuthOk struct {
	Data []byte
}

// ColumnMetaData carries metadata for one column of the current result set.
type ColumnMetaData struct {
	Meta ColumnMeta
}

// Row carries one row; fields are raw bytes to be decoded against the
// corresponding ColumnMeta. A nil field is SQL NULL.
type Row struct {
	Fields [][]byte
}

// RowsDone ends the rows of the current result set. MoreResults reports that
// another result set's metadata follows on the wire.
type RowsDone struct {
	MoreResults bool
	// OutParams is set when the following result set carries stored
	// procedure OUT parameters.
	OutParams bool
}

// StmtExecuteOk is the final trailer of a statement reply, after all result
// sets have been delivered.
type StmtExecuteOk struct{}

// Notice is an out-of-band message piggybacked on any reply.
type Notice struct {
	// Exactly one of the following is set.
	Warning       *Warning
	SessionState  *SessionStateChange
	VariableNames *SessionVariableChanged
}

// Warning is a non-fatal server diagnostic delivered as a notice.
type Warning struct {
	Level Severity
	Code  uint16
	Msg   string
}

// SessionStateParam identifies which piece of session state changed.
type SessionStateParam int

const (
	StateCurrentSchema SessionStateParam = iota + 1
	StateAccountExpired
	StateGeneratedInsertID
	StateRowsAffected
	StateRowsFound
	StateRowsMatched
	StateClientIDAssigned
	StateGeneratedDocumentIDs
	StateProducedMessage
)

// SessionStateChange reports a server-side session state transition.
// Statement statistics (rows affected/found/matched, generated ids) are
// routed to the statement whose reply is being processed; the rest update
// the owning session.
type SessionStateChange struct {
	Param SessionStateParam
	// Value holds the scalar payload: a string for schema/message params,
	// a uint64 for counters and ids.
	Str  string
	Uint uint64
	// Strs holds multi-valued payloads (generated document ids).
	Strs []string
}

// SessionVariableChanged reports a changed session variable.
type SessionVariableChanged struct {
	Name  string
	Value string
}

func (*Ok) isServerMessage()             {}
func (*Error) isServerMessage()          {}
func (*Capabilities) isServerMessage()   {}
func (*AuthContinue) isServerMessage()   {}
func (*AuthOk) isServerMessage()         {}
func (*ColumnMetaData) isServerMessage() {}
func (*Row) isServerMessage()            {}
func (*RowsDone) isServerMessage()       {}
func (*StmtExecuteOk) isServerMessage()  {}
func (*Notice) isServerMessage()         {}

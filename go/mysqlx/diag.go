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

import "mysqlx.io/mysqlx/go/mysqlx/xproto"

// Diagnostic is one accumulated server-reported condition.
type Diagnostic struct {
	Severity xproto.Severity
	Err      error
}

// diagnostics accumulates conditions since the last clear. Severity ERROR
// entries abort processing; lower severities are informational.
type diagnostics struct {
	entries []Diagnostic
}

func (d *diagnostics) add(sev xproto.Severity, err error) {
	d.entries = append(d.entries, Diagnostic{Severity: sev, Err: err})
}

func (d *diagnostics) clear() {
	d.entries = nil
}

func (d *diagnostics) count(min xproto.Severity) int {
	n := 0
	for _, e := range d.entries {
		if e.Severity >= min {
			n++
		}
	}
	return n
}

func (d *diagnostics) get(min xproto.Severity) []Diagnostic {
	var out []Diagnostic
	for _, e := range d.entries {
		if e.Severity >= min {
			out = append(out, e)
		}
	}
	return out
}

func (d *diagnostics) firstError() error {
	for _, e := range d.entries {
		if e.Severity == xproto.SeverityError {
			return e.Err
		}
	}
	return nil
}

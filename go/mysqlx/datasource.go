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
	"math/rand"

	"mysqlx.io/mysqlx/go/netutil"
)

// DataSource is one place to attempt a connection.
type DataSource struct {
	Host string
	Port int
	// UnixSocket, when set, takes precedence over Host/Port.
	UnixSocket string
}

// Addr formats the target for dialing and logging.
func (ds DataSource) Addr() string {
	if ds.UnixSocket != "" {
		return ds.UnixSocket
	}
	return netutil.JoinHostPort(ds.Host, ds.Port)
}

// Network returns the dial network of the target.
func (ds DataSource) Network() string {
	if ds.UnixSocket != "" {
		return "unix"
	}
	return "tcp"
}

type msEntry struct {
	ds     DataSource
	opts   *Options
	prio   uint16
	weight uint16
}

// MultiSource is a prioritized, weighted list of data sources. Entries are
// added either all with explicit priorities or all without; mixing the two
// is rejected. Lower priority values are visited first; ties are broken by
// weight-proportional random selection.
type MultiSource struct {
	entries     []msEntry
	prioritized bool
	counter     uint16
}

// Add appends an entry without an explicit priority; insertion order
// becomes its priority rank.
func (ms *MultiSource) Add(ds DataSource, opts *Options, weight uint16) error {
	if len(ms.entries) > 0 && ms.prioritized {
		return ErrMixedPriorities
	}
	ms.prioritized = false
	ms.entries = append(ms.entries, msEntry{ds: ds, opts: opts, prio: ms.counter, weight: weight})
	ms.counter++
	return nil
}

// AddPrio appends an entry with an explicit priority.
func (ms *MultiSource) AddPrio(ds DataSource, opts *Options, prio, weight uint16) error {
	if len(ms.entries) > 0 && !ms.prioritized {
		return ErrMixedPriorities
	}
	ms.prioritized = true
	ms.entries = append(ms.entries, msEntry{ds: ds, opts: opts, prio: prio, weight: weight})
	return nil
}

// Clear empties the list and resets the prioritization mode.
func (ms *MultiSource) Clear() {
	ms.entries = nil
	ms.prioritized = false
	ms.counter = 0
}

// Size returns the number of entries.
func (ms *MultiSource) Size() int { return len(ms.entries) }

// Candidate is the inspection view of one entry.
type Candidate struct {
	Source   DataSource
	Priority uint16
	Weight   uint16
}

// Candidates lists the entries in insertion order, for inspection and
// logging; the visiting order is decided by visit.
func (ms *MultiSource) Candidates() []Candidate {
	out := make([]Candidate, 0, len(ms.entries))
	for _, e := range ms.entries {
		out = append(out, Candidate{Source: e.ds, Priority: e.prio, Weight: e.weight})
	}
	return out
}

// visitAction is the visitor's verdict on one entry.
type visitAction int

const (
	visitContinue visitAction = iota
	visitStop
)

// visit walks entries in ascending-priority groups, weight-randomly within
// each group, until the visitor stops it or the list is exhausted. A group
// whose weights are all zero is treated as uniformly weighted.
func (ms *MultiSource) visit(visitor func(DataSource, *Options) visitAction) {
	remaining := append([]msEntry(nil), ms.entries...)
	for len(remaining) > 0 {
		// Collect the group with the lowest remaining priority.
		lowest := remaining[0].prio
		for _, e := range remaining[1:] {
			if e.prio < lowest {
				lowest = e.prio
			}
		}
		var group, rest []msEntry
		for _, e := range remaining {
			if e.prio == lowest {
				group = append(group, e)
			} else {
				rest = append(rest, e)
			}
		}
		remaining = rest

		allZero := true
		for _, e := range group {
			if e.weight != 0 {
				allZero = false
				break
			}
		}

		for len(group) > 0 {
			total := 0
			for _, e := range group {
				if allZero {
					total++
				} else {
					total += int(e.weight)
				}
			}
			if total == 0 {
				// Only zero-weight entries remain; fall back to uniform.
				allZero = true
				total = len(group)
			}
			n := rand.Intn(total)
			idx := 0
			acc := 0
			for i, e := range group {
				if allZero {
					acc++
				} else {
					acc += int(e.weight)
				}
				if acc > n {
					idx = i
					break
				}
			}
			picked := group[idx]
			group = append(group[:idx], group[idx+1:]...)
			if visitor(picked.ds, picked.opts) == visitStop {
				return
			}
		}
	}
}

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

// Package log is a thin adapter around glog so the rest of the codebase
// never imports it directly. Binaries register the glog flags on their
// pflag set via RegisterFlags.
package log

import (
	goflag "flag"
	"sync/atomic"

	"github.com/golang/glog"
	"github.com/spf13/pflag"
)

var (
	// V quickly checks if logging verbosity meets a threshold.
	V = glog.V
	// Flush ensures any pending I/O is written.
	Flush = glog.Flush

	// Info formats arguments like fmt.Print.
	Info = glog.Info
	// Infof formats arguments like fmt.Printf.
	Infof = glog.Infof
	// Warning formats arguments like fmt.Print.
	Warning = glog.Warning
	// Warningf formats arguments like fmt.Printf.
	Warningf = glog.Warningf
	// Error formats arguments like fmt.Print.
	Error = glog.Error
	// Errorf formats arguments like fmt.Printf.
	Errorf = glog.Errorf
	// Exitf formats arguments like fmt.Printf and exits.
	Exitf = glog.Exitf
)

// Level is the glog verbosity level.
type Level = glog.Level

var registered atomic.Bool

// RegisterFlags installs the glog flags on the given pflag FlagSet. glog
// registers them on the process-wide flag set in its init, so they are
// copied over from there. Safe to call once per process.
func RegisterFlags(fs *pflag.FlagSet) {
	if !registered.CompareAndSwap(false, true) {
		return
	}
	fs.AddGoFlagSet(goflag.CommandLine)
}

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
	"strings"

	"mysqlx.io/mysqlx/go/netutil"
)

// srvService is the SRV service label of the X protocol.
const srvService = "mysqlx"

// SRVSource resolves the _mysqlx._tcp SRV records of domain into a
// MultiSource carrying the records' priorities and weights.
func SRVSource(ctx context.Context, domain string, opts *Options) (*MultiSource, error) {
	srvs, err := netutil.LookupSRV(ctx, srvService, domain)
	if err != nil {
		return nil, err
	}
	ms := &MultiSource{}
	for _, srv := range srvs {
		ds := DataSource{Host: strings.TrimSuffix(srv.Target, "."), Port: int(srv.Port)}
		if err := ms.AddPrio(ds, opts, srv.Priority, srv.Weight); err != nil {
			return nil, err
		}
	}
	return ms, nil
}

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

// mysqlxcli inspects X protocol connection URIs: it parses a URI, reports
// the resulting options and resolves the failover plan (including SRV
// lookups) without opening a connection.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"mysqlx.io/mysqlx/go/log"
	"mysqlx.io/mysqlx/go/mysqlx"
)

var (
	uri     string
	timeout time.Duration

	rootCmd = &cobra.Command{
		Use:   "mysqlxcli",
		Short: "Inspect MySQL X protocol connection URIs",
		Long: "mysqlxcli parses a mysqlx:// or mysqlx+srv:// connection URI and " +
			"prints the options and the failover plan it describes.",
		Args:    cobra.NoArgs,
		Version: mysqlx.Version,
		RunE:    run,
	}
)

func init() {
	rootCmd.Flags().StringVar(&uri, "uri", "", "connection URI to inspect")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "SRV resolution timeout")
	rootCmd.MarkFlagRequired("uri")
	log.RegisterFlags(rootCmd.PersistentFlags())

	viper.SetEnvPrefix("mysqlx")
	viper.AutomaticEnv()
	viper.BindPFlag("uri", rootCmd.Flags().Lookup("uri"))
}

func run(cmd *cobra.Command, _ []string) error {
	if uri == "" {
		uri = viper.GetString("uri")
	}
	parsed, err := mysqlx.ParseURI(uri)
	if err != nil {
		return fmt.Errorf("cannot parse URI: %w", err)
	}

	opts := parsed.Options
	fmt.Printf("user:        %s\n", opts.User)
	fmt.Printf("schema:      %s\n", opts.Schema)
	fmt.Printf("ssl-mode:    %v\n", opts.TLS.Mode)
	fmt.Printf("auth:        %v\n", opts.Auth)
	fmt.Printf("compression: %v\n", compressionName(opts.Compression))

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()
	ms, err := parsed.MultiSource(ctx)
	if err != nil {
		return fmt.Errorf("cannot resolve data sources: %w", err)
	}
	fmt.Printf("sources:     %d\n", ms.Size())
	for i, c := range ms.Candidates() {
		fmt.Printf("  %d. %s (priority %d, weight %d)\n", i+1, c.Source.Addr(), c.Priority, c.Weight)
	}
	return nil
}

func compressionName(m mysqlx.CompressionMode) string {
	switch m {
	case mysqlx.CompressionDisabled:
		return "disabled"
	case mysqlx.CompressionRequired:
		return "required"
	default:
		return "preferred"
	}
}

func main() {
	defer log.Flush()
	if err := rootCmd.Execute(); err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}

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
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"runtime"
	"strconv"

	"github.com/google/uuid"
)

// SSLMode mirrors the ssl-mode connection option.
type SSLMode int

const (
	// SSLPreferred upgrades to TLS when the server supports it and
	// continues unencrypted otherwise.
	SSLPreferred SSLMode = iota
	SSLDisabled
	SSLRequired
	SSLVerifyCA
	SSLVerifyIdentity
)

func (m SSLMode) String() string {
	switch m {
	case SSLDisabled:
		return "disabled"
	case SSLPreferred:
		return "preferred"
	case SSLRequired:
		return "required"
	case SSLVerifyCA:
		return "verify-ca"
	case SSLVerifyIdentity:
		return "verify-identity"
	default:
		return fmt.Sprintf("SSLMode(%d)", int(m))
	}
}

// ParseSSLMode parses the textual ssl-mode option.
func ParseSSLMode(s string) (SSLMode, error) {
	switch s {
	case "disabled":
		return SSLDisabled, nil
	case "preferred":
		return SSLPreferred, nil
	case "required":
		return SSLRequired, nil
	case "verify-ca":
		return SSLVerifyCA, nil
	case "verify-identity":
		return SSLVerifyIdentity, nil
	default:
		return 0, fmt.Errorf("unknown ssl-mode %q", s)
	}
}

// TLSOptions describe the optional TLS upgrade of a plain connection.
type TLSOptions struct {
	Mode SSLMode
	// CAFile pins the server CA; only valid with SSLVerifyCA or
	// SSLVerifyIdentity.
	CAFile string
	// ServerName overrides the host name used for SNI and identity
	// verification.
	ServerName string
}

// Validate enforces option consistency before any network activity: a CA
// needs a verifying mode, and a verifying mode needs a CA.
func (t *TLSOptions) Validate() error {
	if t.CAFile != "" && t.Mode != SSLVerifyCA && t.Mode != SSLVerifyIdentity {
		return fmt.Errorf("ssl-ca set but ssl-mode %v does not verify the CA", t.Mode)
	}
	if (t.Mode == SSLVerifyCA || t.Mode == SSLVerifyIdentity) && t.CAFile == "" {
		return fmt.Errorf("ssl-mode %v requires ssl-ca", t.Mode)
	}
	return nil
}

// Config builds the tls.Config for the upgrade, with host as the default
// verification name.
func (t *TLSOptions) Config(host string) (*tls.Config, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	name := t.ServerName
	if name == "" {
		name = host
	}
	cfg := &tls.Config{ServerName: name}
	switch t.Mode {
	case SSLRequired, SSLPreferred:
		cfg.InsecureSkipVerify = true
	case SSLVerifyCA:
		// Verify the chain against the pinned CA but not the host name.
		cfg.InsecureSkipVerify = true
		cfg.VerifyPeerCertificate = verifyChainOnly(t.CAFile)
	case SSLVerifyIdentity:
	}
	if t.CAFile != "" {
		pem, err := os.ReadFile(t.CAFile)
		if err != nil {
			return nil, err
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %s", t.CAFile)
		}
		cfg.RootCAs = pool
	}
	return cfg, nil
}

func verifyChainOnly(caFile string) func([][]byte, [][]*x509.Certificate) error {
	return func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
		pem, err := os.ReadFile(caFile)
		if err != nil {
			return err
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return fmt.Errorf("no certificates found in %s", caFile)
		}
		certs := make([]*x509.Certificate, 0, len(rawCerts))
		for _, raw := range rawCerts {
			c, err := x509.ParseCertificate(raw)
			if err != nil {
				return err
			}
			certs = append(certs, c)
		}
		if len(certs) == 0 {
			return fmt.Errorf("server presented no certificate")
		}
		opts := x509.VerifyOptions{Roots: pool, Intermediates: x509.NewCertPool()}
		for _, c := range certs[1:] {
			opts.Intermediates.AddCert(c)
		}
		_, err = certs[0].Verify(opts)
		return err
	}
}

// Options hold the per-connection settings consumed by session
// construction.
type Options struct {
	User     string
	Password string
	// Schema is the default schema; it is sent in the authentication
	// payload.
	Schema string

	TLS         TLSOptions
	Auth        AuthMethod
	Compression CompressionMode

	// ConnectAttrs are extra session connection attributes merged over
	// the client defaults. DisableConnectAttrs suppresses sending any.
	ConnectAttrs        map[string]string
	DisableConnectAttrs bool

	// NewCodec builds the protocol codec for a data source. Required.
	NewCodec CodecFactory
}

// connectAttrs assembles the attributes announced at session setup.
func (o *Options) connectAttrs() map[string]string {
	attrs := map[string]string{
		"_client_name":    "mysqlx-go",
		"_client_version": Version,
		"_os":             runtime.GOOS,
		"_platform":       runtime.GOARCH,
		"_pid":            strconv.Itoa(os.Getpid()),
		"_session_id":     uuid.NewString(),
	}
	for k, v := range o.ConnectAttrs {
		attrs[k] = v
	}
	return attrs
}

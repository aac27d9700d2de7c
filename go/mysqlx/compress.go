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
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4"

	"mysqlx.io/mysqlx/go/log"
	"mysqlx.io/mysqlx/go/mysqlx/xproto"
)

// CompressionMode controls whether compression is negotiated at session
// setup.
type CompressionMode int

const (
	// CompressionPreferred negotiates compression and silently proceeds
	// uncompressed when the server supports none of the algorithms.
	CompressionPreferred CompressionMode = iota
	// CompressionDisabled skips negotiation entirely.
	CompressionDisabled
	// CompressionRequired fails session setup when no algorithm is
	// accepted.
	CompressionRequired
)

// compressionAlgorithms in increasing negotiation priority; the last one
// the server acknowledges wins.
var compressionAlgorithms = []string{compressionDeflate, compressionLZ4, compressionZstd}

// newCompressor builds the payload compressor for a negotiated algorithm.
func newCompressor(alg string) (xproto.Compressor, error) {
	switch alg {
	case compressionDeflate:
		return deflateCompressor{}, nil
	case compressionLZ4:
		return lz4Compressor{}, nil
	case compressionZstd:
		return newZstdCompressor()
	default:
		return nil, fmt.Errorf("unknown compression algorithm %q", alg)
	}
}

type deflateCompressor struct{}

func (deflateCompressor) Name() string { return compressionDeflate }

func (deflateCompressor) Compress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(src); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (deflateCompressor) Decompress(src []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(src))
	defer r.Close()
	return io.ReadAll(r)
}

type lz4Compressor struct{}

func (lz4Compressor) Name() string { return compressionLZ4 }

func (lz4Compressor) Compress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(src); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (lz4Compressor) Decompress(src []byte) ([]byte, error) {
	return io.ReadAll(lz4.NewReader(bytes.NewReader(src)))
}

type zstdCompressor struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func newZstdCompressor() (xproto.Compressor, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	return &zstdCompressor{enc: enc, dec: dec}, nil
}

func (c *zstdCompressor) Name() string { return compressionZstd }

func (c *zstdCompressor) Compress(src []byte) ([]byte, error) {
	return c.enc.EncodeAll(src, nil), nil
}

func (c *zstdCompressor) Decompress(src []byte) ([]byte, error) {
	return c.dec.DecodeAll(src, nil)
}

// negotiateCompression tries every algorithm in priority order and keeps
// the last one the server acknowledges. Rejections are expected from older
// servers and are not diagnostics.
func (s *Session) negotiateCompression(ctx context.Context) error {
	chosen := ""
	for _, alg := range compressionAlgorithms {
		caps := map[string]any{
			capCompression: map[string]any{"algorithm": alg},
		}
		if err := s.codec.SendCapabilitiesSet(ctx, caps); err != nil {
			return err
		}
		msg, err := s.recvSetup(ctx)
		if err != nil {
			return err
		}
		switch msg.(type) {
		case *xproto.Ok:
			chosen = alg
		case *xproto.Error:
			// Unsupported algorithm; try the next one.
		default:
			return protocolError("unexpected %T negotiating compression", msg)
		}
	}
	if chosen == "" {
		if s.opts.Compression == CompressionRequired {
			return fmt.Errorf("server accepted no compression algorithm")
		}
		return nil
	}
	comp, err := newCompressor(chosen)
	if err != nil {
		return err
	}
	if err := s.codec.EnableCompression(comp); err != nil {
		return err
	}
	s.compression = chosen
	log.V(2).Infof("negotiated %s compression", chosen)
	return nil
}

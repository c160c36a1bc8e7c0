// Package compressor handles the HTTP content codings the Demiurge
// node speaks: gzip, deflate and brotli. A Manager keeps per-coding
// reader/writer pools so hot call paths do not reallocate.
package compressor

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/andybalholm/brotli"
)

// Encoding is an HTTP content-coding token.
type Encoding string

const (
	EncodingIdentity Encoding = "identity"
	EncodingGzip     Encoding = "gzip"
	EncodingDeflate  Encoding = "deflate"
	EncodingBrotli   Encoding = "br"
)

var ErrUnknownEncoding = errors.New("[DRPC] unknown content encoding")

// FromHeader maps a Content-Encoding header value to an Encoding.
// An empty header means identity.
func FromHeader(value string) (Encoding, error) {
	switch Encoding(strings.ToLower(strings.TrimSpace(value))) {
	case "", EncodingIdentity:
		return EncodingIdentity, nil
	case EncodingGzip:
		return EncodingGzip, nil
	case EncodingDeflate:
		return EncodingDeflate, nil
	case EncodingBrotli:
		return EncodingBrotli, nil
	default:
		return EncodingIdentity, ErrUnknownEncoding
	}
}

// AcceptHeader renders the Accept-Encoding value for the given codings.
func AcceptHeader(encodings []Encoding) string {
	tokens := make([]string, 0, len(encodings))
	for _, e := range encodings {
		tokens = append(tokens, string(e))
	}
	return strings.Join(tokens, ", ")
}

type Manager struct {
	byteReaderPool   sync.Pool
	bufferPool       sync.Pool
	gzipWriterPool   sync.Pool
	zlibWriterPool   sync.Pool
	brotliWriterPool sync.Pool
}

func NewManager() *Manager {
	return &Manager{
		byteReaderPool: sync.Pool{
			New: func() interface{} {
				return bytes.NewReader(nil)
			},
		},
		bufferPool: sync.Pool{
			New: func() interface{} {
				return new(bytes.Buffer)
			},
		},
		gzipWriterPool: sync.Pool{
			New: func() interface{} {
				return gzip.NewWriter(nil)
			},
		},
		zlibWriterPool: sync.Pool{
			New: func() interface{} {
				return zlib.NewWriter(nil)
			},
		},
		brotliWriterPool: sync.Pool{
			New: func() interface{} {
				return brotli.NewWriter(nil)
			},
		},
	}
}

// Compress encodes data with the given coding. Identity returns the
// input unchanged.
func (m *Manager) Compress(enc Encoding, data []byte) ([]byte, error) {
	if data == nil {
		return nil, nil
	}

	switch enc {
	case EncodingIdentity:
		return data, nil
	case EncodingGzip:
		w := m.gzipWriterPool.Get().(*gzip.Writer)
		defer m.gzipWriterPool.Put(w)
		return m.compress(w, data)
	case EncodingDeflate:
		w := m.zlibWriterPool.Get().(*zlib.Writer)
		defer m.zlibWriterPool.Put(w)
		return m.compress(w, data)
	case EncodingBrotli:
		w := m.brotliWriterPool.Get().(*brotli.Writer)
		defer m.brotliWriterPool.Put(w)
		return m.compress(w, data)
	default:
		return nil, ErrUnknownEncoding
	}
}

// Decompress decodes data that arrived with the given coding.
func (m *Manager) Decompress(enc Encoding, data []byte) ([]byte, error) {
	if data == nil {
		return nil, nil
	}

	switch enc {
	case EncodingIdentity:
		return data, nil
	case EncodingGzip:
		return m.decompress(data, func(r io.Reader) (io.Reader, error) {
			return gzip.NewReader(r)
		})
	case EncodingDeflate:
		return m.decompress(data, func(r io.Reader) (io.Reader, error) {
			return zlib.NewReader(r)
		})
	case EncodingBrotli:
		return m.decompress(data, func(r io.Reader) (io.Reader, error) {
			return brotli.NewReader(r), nil
		})
	default:
		return nil, ErrUnknownEncoding
	}
}

type resetWriter interface {
	io.WriteCloser
	Reset(w io.Writer)
}

func (m *Manager) compress(w resetWriter, data []byte) ([]byte, error) {
	buf := m.bufferPool.Get().(*bytes.Buffer)
	defer m.bufferPool.Put(buf)

	buf.Reset()
	w.Reset(buf)

	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}

func (m *Manager) decompress(data []byte, open func(io.Reader) (io.Reader, error)) ([]byte, error) {
	byteReader := m.byteReaderPool.Get().(*bytes.Reader)
	defer m.byteReaderPool.Put(byteReader)
	byteReader.Reset(data)

	r, err := open(byteReader)
	if err != nil {
		return nil, err
	}
	if closer, ok := r.(io.Closer); ok {
		defer closer.Close()
	}

	return io.ReadAll(r)
}

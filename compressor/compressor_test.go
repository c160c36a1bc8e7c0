package compressor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManager_RoundTrip(t *testing.T) {
	manager := NewManager()
	payload := []byte(`{"jsonrpc":"2.0","result":{"height":42},"id":1}`)

	for _, enc := range []Encoding{EncodingGzip, EncodingDeflate, EncodingBrotli} {
		compressed, err := manager.Compress(enc, payload)
		assert.NoError(t, err)
		assert.NotEqual(t, payload, compressed)

		decompressed, err := manager.Decompress(enc, compressed)
		assert.NoError(t, err)
		assert.Equal(t, payload, decompressed)
	}
}

func TestManager_Identity(t *testing.T) {
	manager := NewManager()
	payload := []byte("plain data")

	compressed, err := manager.Compress(EncodingIdentity, payload)
	assert.NoError(t, err)
	assert.Equal(t, payload, compressed)

	decompressed, err := manager.Decompress(EncodingIdentity, payload)
	assert.NoError(t, err)
	assert.Equal(t, payload, decompressed)
}

func TestManager_UnknownEncoding(t *testing.T) {
	manager := NewManager()

	_, err := manager.Compress(Encoding("zstd"), []byte("data"))
	assert.Equal(t, ErrUnknownEncoding, err)

	_, err = manager.Decompress(Encoding("zstd"), []byte("data"))
	assert.Equal(t, ErrUnknownEncoding, err)
}

func TestManager_NilData(t *testing.T) {
	manager := NewManager()

	compressed, err := manager.Compress(EncodingGzip, nil)
	assert.NoError(t, err)
	assert.Nil(t, compressed)

	decompressed, err := manager.Decompress(EncodingBrotli, nil)
	assert.NoError(t, err)
	assert.Nil(t, decompressed)
}

func TestFromHeader(t *testing.T) {
	cases := []struct {
		header string
		want   Encoding
		err    error
	}{
		{"", EncodingIdentity, nil},
		{"identity", EncodingIdentity, nil},
		{"gzip", EncodingGzip, nil},
		{"GZIP", EncodingGzip, nil},
		{" deflate ", EncodingDeflate, nil},
		{"br", EncodingBrotli, nil},
		{"zstd", EncodingIdentity, ErrUnknownEncoding},
	}

	for _, c := range cases {
		got, err := FromHeader(c.header)
		assert.Equal(t, c.want, got, "header %q", c.header)
		assert.Equal(t, c.err, err, "header %q", c.header)
	}
}

func TestAcceptHeader(t *testing.T) {
	assert.Equal(t, "br, gzip, deflate", AcceptHeader([]Encoding{EncodingBrotli, EncodingGzip, EncodingDeflate}))
	assert.Equal(t, "", AcceptHeader(nil))
}

// Package codec implements the batch compression codecs a Kafka-style
// broker protocol supports, purely as a home for the teacher's
// wire-protocol dependencies inside this module's reference inner
// consumer (internal/refconsumer). Assignment and coordination never
// touch this package.
package codec

import (
	"bytes"
	"fmt"
	"io/ioutil"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4"
)

// Codec identifies the compression applied to a fetched record batch, one
// byte as carried in the batch attributes field of the wire protocol.
type Codec int8

const (
	None Codec = iota
	Snappy
	LZ4
	ZSTD
)

func (c Codec) String() string {
	switch c {
	case None:
		return "none"
	case Snappy:
		return "snappy"
	case LZ4:
		return "lz4"
	case ZSTD:
		return "zstd"
	default:
		return "unknown"
	}
}

// Decompress returns the uncompressed batch bytes for the given codec.
func Decompress(c Codec, compressed []byte) ([]byte, error) {
	switch c {
	case None:
		return compressed, nil
	case Snappy:
		return snappy.Decode(nil, compressed)
	case LZ4:
		r := lz4.NewReader(bytes.NewReader(compressed))
		return ioutil.ReadAll(r)
	case ZSTD:
		dec, err := zstd.NewReader(bytes.NewReader(compressed))
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		return ioutil.ReadAll(dec)
	default:
		return nil, fmt.Errorf("codec: unknown codec %d", c)
	}
}

// Compress encodes uncompressed into the given codec's wire form. Used by
// the reference inner consumer's fetch loop to build its synthetic batches.
func Compress(c Codec, uncompressed []byte) ([]byte, error) {
	switch c {
	case None:
		return uncompressed, nil
	case Snappy:
		return snappy.Encode(nil, uncompressed), nil
	case LZ4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(uncompressed); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case ZSTD:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}
		defer enc.Close()
		return enc.EncodeAll(uncompressed, nil), nil
	default:
		return nil, fmt.Errorf("codec: unknown codec %d", c)
	}
}

// Package upload unwraps compressed uploads and turns them into datasets.
package upload

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"
)

// ErrTooLarge is returned when an upload exceeds the size limit once
// decompressed.
var ErrTooLarge = errors.New("file exceeds the size limit")

// Encoding names a supported compression wrapper.
type Encoding string

const (
	EncodingNone Encoding = ""
	EncodingGzip Encoding = "gzip"
	EncodingXZ   Encoding = "xz"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	xzMagic   = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
)

// DetectEncoding picks the wrapper from the file name suffix.
func DetectEncoding(fileName string) Encoding {
	lower := strings.ToLower(fileName)
	switch {
	case strings.HasSuffix(lower, ".gz"):
		return EncodingGzip
	case strings.HasSuffix(lower, ".xz"):
		return EncodingXZ
	}
	return EncodingNone
}

// Decompress unwraps a .gz or .xz upload. It returns the inner file name
// (the suffix stripped) and its bytes. Plain files pass through unchanged.
// limit <= 0 disables the size check.
func Decompress(fileName string, data []byte, limit int64) (string, []byte, error) {
	enc := DetectEncoding(fileName)

	var (
		r   io.Reader
		err error
	)
	switch enc {
	case EncodingGzip:
		if !bytes.HasPrefix(data, gzipMagic) {
			return "", nil, fmt.Errorf("%s: not a gzip file", fileName)
		}
		var zr *gzip.Reader
		zr, err = gzip.NewReader(bytes.NewReader(data))
		if err == nil {
			defer zr.Close()
			r = zr
		}
	case EncodingXZ:
		if !bytes.HasPrefix(data, xzMagic) {
			return "", nil, fmt.Errorf("%s: not an xz file", fileName)
		}
		r, err = xz.NewReader(bytes.NewReader(data))
	default:
		if limit > 0 && int64(len(data)) > limit {
			return "", nil, ErrTooLarge
		}
		return fileName, data, nil
	}
	if err != nil {
		return "", nil, fmt.Errorf("open %s: %w", fileName, err)
	}

	out, err := readLimited(r, limit)
	if err != nil {
		return "", nil, fmt.Errorf("decompress %s: %w", fileName, err)
	}
	return fileName[:len(fileName)-len(innerSuffix(enc))], out, nil
}

func innerSuffix(enc Encoding) string {
	if enc == EncodingXZ {
		return ".xz"
	}
	return ".gz"
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	out, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(out)) > limit {
		return nil, ErrTooLarge
	}
	return out, nil
}

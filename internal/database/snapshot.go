package database

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
	"lukechampine.com/blake3"
)

// ErrChecksumMismatch is returned when a stored snapshot does not hash to
// its recorded checksum.
var ErrChecksumMismatch = errors.New("snapshot checksum mismatch")

func compress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	if _, err := zw.Write(src); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, lz4.NewReader(bytes.NewReader(src))); err != nil {
		return nil, fmt.Errorf("failed to decompress snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// Checksum is the blake3 hash of raw snapshot bytes, hex encoded.
func Checksum(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

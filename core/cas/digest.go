// Package cas computes content digests of database pages and files.
//
// Every digest carries both a SHA-256 and a BLAKE3 hash, hex encoded.
package cas

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/zeebo/blake3"
)

// HashResult contains both SHA-256 and BLAKE3 hashes of some content.
type HashResult struct {
	SHA256 string `json:"sha256"`
	BLAKE3 string `json:"blake3"`
	Size   int64  `json:"size"`
}

// Hash computes the SHA-256 hash of the given data.
func Hash(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Blake3Hash computes the BLAKE3 hash of the given data.
func Blake3Hash(data []byte) string {
	h := blake3.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Sum hashes data with both algorithms.
func Sum(data []byte) *HashResult {
	return &HashResult{
		SHA256: Hash(data),
		BLAKE3: Blake3Hash(data),
		Size:   int64(len(data)),
	}
}

// SumReader hashes everything read from r with both algorithms in one pass.
func SumReader(r io.Reader) (*HashResult, error) {
	s := sha256.New()
	b := blake3.New()
	n, err := io.Copy(io.MultiWriter(s, b), r)
	if err != nil {
		return nil, fmt.Errorf("failed to hash content: %w", err)
	}
	return &HashResult{
		SHA256: hex.EncodeToString(s.Sum(nil)),
		BLAKE3: hex.EncodeToString(b.Sum(nil)),
		Size:   n,
	}, nil
}

// Short returns the first 16 hex digits of the BLAKE3 hash.
func (r *HashResult) Short() string {
	if len(r.BLAKE3) < 16 {
		return r.BLAKE3
	}
	return r.BLAKE3[:16]
}

package util

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
)

// SHA256 digests r and returns:
//   - the hex-encoded digest
//   - the number of bytes read
func SHA256(r io.Reader) (sum string, size int64, err error) {
	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

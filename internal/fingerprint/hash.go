package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// Hash is the content digest of a file at snapshot time. Two snapshots with
// equal hashes are treated as content-equal regardless of timestamps or
// permissions.
type Hash string

// HashContent returns the digest of the given bytes.
func HashContent(content []byte) Hash {
	sum := sha256.Sum256(content)
	return Hash(hex.EncodeToString(sum[:]))
}

// HashFile returns the digest of the file at path, streaming the content
// rather than loading it into memory.
func HashFile(path string) (Hash, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing file: %w", err)
	}
	return Hash(hex.EncodeToString(h.Sum(nil))), nil
}

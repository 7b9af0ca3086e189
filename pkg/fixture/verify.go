package fixture

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/blake2b"
)

// ErrMismatch is returned by Verify when a file differs from the payload.
var ErrMismatch = errors.New("fixture mismatch")

// Fingerprint returns the hex BLAKE2b-256 digest of data.
func Fingerprint(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// PayloadFingerprint returns the fingerprint of the encoded payload.
func PayloadFingerprint() (string, error) {
	data, err := Encode()
	if err != nil {
		return "", err
	}
	return Fingerprint(data), nil
}

// Compare reports whether data is the encoded payload. When it is not,
// offset is the first differing byte.
func Compare(data []byte) (offset int, ok bool, err error) {
	want, err := Encode()
	if err != nil {
		return 0, false, err
	}
	n := min(len(data), len(want))
	for i := 0; i < n; i++ {
		if data[i] != want[i] {
			return i, false, nil
		}
	}
	if len(data) != len(want) {
		return n, false, nil
	}
	return 0, true, nil
}

// Verify checks that the file at path holds exactly the payload.
func Verify(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	offset, ok, err := Compare(data)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s differs at byte %d (size %d, want %d)",
			ErrMismatch, path, offset, len(data), PayloadSize)
	}
	return nil
}

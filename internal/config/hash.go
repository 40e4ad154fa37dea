package config

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/zeebo/blake3"
)

// ComputeBlake3Hash computes the BLAKE3 hash of a file's contents, hex-encoded.
// Used to stamp a digest alongside a packaged log tarball so a downstream
// consumer can detect corruption introduced after staging it out.
func ComputeBlake3Hash(filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("read file for hashing: %w", err)
	}

	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// VerifyFileHash recomputes a file's BLAKE3 hash and compares it to expected.
func VerifyFileHash(filePath, expected string) error {
	actual, err := ComputeBlake3Hash(filePath)
	if err != nil {
		return err
	}
	if actual != expected {
		return fmt.Errorf("hash mismatch for %s: expected %s, got %s", filePath, expected, actual)
	}
	return nil
}

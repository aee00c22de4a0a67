package watcher

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

const hashBlockSize = 8192

// fileHash returns the hex MD5 of the file's bytes, read in fixed-size blocks.
// The hash only detects content changes.
func fileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	h := md5.New()
	if _, err := io.CopyBuffer(h, f, make([]byte, hashBlockSize)); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

package utils

import (
	"crypto/sha1"
	"encoding/hex"
	"io"
	"os"
)

func BytesSHA1(data []byte) string {
	h := sha1.New()
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// FileSHA1 streams the file at path through SHA-1. Returns "" when the
// file cannot be read, so a missing file never matches a manifest digest.
func FileSHA1(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	h := sha1.New()
	if _, err := io.Copy(h, f); err != nil {
		return ""
	}
	return hex.EncodeToString(h.Sum(nil))
}

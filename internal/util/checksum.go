package util

import (
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
)

func Checksum(r io.Reader) (uint64, error) {
	h := xxhash.New()
	if _, err := io.Copy(h, r); err != nil {
		return 0, err
	}

	return h.Sum64(), nil
}

func FileChecksum(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}

	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	return Checksum(f)
}

package internal

import (
	"crypto/sha1"
	"fmt"
)

func Checksum(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	return fmt.Sprintf("%x", sha1.Sum(data))
}

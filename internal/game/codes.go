package game

import (
	"crypto/rand"
	"encoding/binary"
	"strconv"
)

const (
	codeMin      = 100000
	codeMax      = 999999
	codeAttempts = 64
)

// CodeFunc produces a candidate join code.
type CodeFunc func() string

// RandomCode returns a six digit code in [100000, 999999].
func RandomCode() string {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return strconv.Itoa(codeMin)
	}
	n := binary.BigEndian.Uint64(buf[:]) % uint64(codeMax-codeMin+1)
	return strconv.Itoa(codeMin + int(n))
}

// ValidCode reports whether code has the join code shape.
func ValidCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	n, err := strconv.Atoi(code)
	return err == nil && n >= codeMin && n <= codeMax
}

package verification

import (
	"crypto/rand"
	"fmt"
	"time"
)

const tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const tokenLength = 8

// NewToken returns an 8-character verification identifier drawn from the
// uppercase alphanumeric alphabet. Falls back to a timestamp-derived value
// if the system randomness source fails.
func NewToken() string {
	buf := make([]byte, tokenLength)
	if _, err := rand.Read(buf); err != nil {
		seed := fmt.Sprintf("%d", time.Now().UnixNano())
		out := make([]byte, tokenLength)
		for i := range out {
			out[i] = tokenAlphabet[int(seed[i%len(seed)])%len(tokenAlphabet)]
		}
		return string(out)
	}
	out := make([]byte, tokenLength)
	for i, b := range buf {
		out[i] = tokenAlphabet[int(b)%len(tokenAlphabet)]
	}
	return string(out)
}

package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// TokenHex returns a random hex string of 2*nbytes characters.
func TokenHex(nbytes int) string {
	buf := make([]byte, nbytes)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}

package utils

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenHex(t *testing.T) {
	tok := TokenHex(4)
	assert.Len(t, tok, 8)

	_, err := hex.DecodeString(tok)
	require.NoError(t, err)

	assert.NotEqual(t, tok, TokenHex(4))
}

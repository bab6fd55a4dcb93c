package utils

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
)

const idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// idLength is the number of random characters after the prefix.
const idLength = 16

// GenerateID returns a prefixed public identifier, e.g. GenerateID("pay_")
// -> "pay_Xy3kQ9zR1mTfA2bW". Prefixes in use: order_, pay_, rfnd_, mrch_, whl_.
func GenerateID(prefix string) string {
	buf := make([]byte, idLength)
	max := big.NewInt(int64(len(idAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand failing is unrecoverable for id generation
			panic(err)
		}
		buf[i] = idAlphabet[n.Int64()]
	}
	return prefix + string(buf)
}

// GenerateSecret returns a hex-encoded random secret of n bytes, used for
// API secrets and webhook signing secrets.
func GenerateSecret(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}

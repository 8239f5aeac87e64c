package generator

import (
	"crypto/rand"
	"math/big"
)

const (
	alphanumericChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	AliasLength       = 50
)

// GenerateAlias returns a random alphanumeric alias of AliasLength characters.
func GenerateAlias() (string, error) {
	return GenerateString(AliasLength)
}

func GenerateString(length int) (string, error) {
	b := make([]byte, length)
	max := big.NewInt(int64(len(alphanumericChars)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)

		if err != nil {
			return "", err
		}

		b[i] = alphanumericChars[n.Int64()]
	}

	return string(b), nil
}

package cryptox

import "encoding/base32"

// SeedBytes yields an 8-character base-32 seed (5 bytes = 40 bits).
const SeedBytes = 5

// RandomBase32 encodes size random bytes as unpadded standard base-32.
func RandomBase32(size int) (string, error) {
	b, err := MakeRandBytes(size)
	if err != nil {
		return "", err
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(b), nil
}

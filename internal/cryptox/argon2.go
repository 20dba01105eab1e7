// Package cryptox holds the password hashing engine and random helpers.
package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	algorithmID = "argon2id"

	minMemoryKiB   uint32 = 8 * 1024
	minIterations  uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16
)

var errMalformedDigest = errors.New("malformed password digest")

// Argon2Params are the cost parameters baked into every new digest.
type Argon2Params struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2Params returns the production cost parameters.
func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		MemoryKiB:   64 * 1024,
		Iterations:  1,
		Parallelism: 4,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func (p Argon2Params) validate() error {
	switch {
	case p.MemoryKiB < minMemoryKiB:
		return fmt.Errorf("argon2 memory must be >= %d KiB", minMemoryKiB)
	case p.Iterations < minIterations:
		return fmt.Errorf("argon2 iterations must be >= %d", minIterations)
	case p.Parallelism < minParallelism:
		return fmt.Errorf("argon2 parallelism must be >= %d", minParallelism)
	case p.SaltLength < minSaltLength:
		return fmt.Errorf("argon2 salt length must be >= %d", minSaltLength)
	case p.KeyLength < minKeyLength:
		return fmt.Errorf("argon2 key length must be >= %d", minKeyLength)
	}
	return nil
}

// Argon2 hashes and verifies passwords as PHC strings:
//
//	$argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
//
// It is safe for concurrent use.
type Argon2 struct {
	params Argon2Params
	dummy  *phc
}

// NewArgon2 validates params and precomputes the dummy digest used by
// VerifyAbsent.
func NewArgon2(params Argon2Params) (*Argon2, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	a := &Argon2{params: params}

	filler, err := MakeRandBytes(32)
	if err != nil {
		return nil, err
	}
	encoded, err := a.Hash(base64.RawStdEncoding.EncodeToString(filler))
	if err != nil {
		return nil, err
	}
	a.dummy, err = parsePHC(encoded)
	if err != nil {
		return nil, err
	}

	return a, nil
}

// Hash derives a digest with a fresh random salt.
func (a *Argon2) Hash(password string) (string, error) {
	salt, err := MakeRandBytes(int(a.params.SaltLength))
	if err != nil {
		return "", err
	}

	key := argon2.IDKey([]byte(password), salt, a.params.Iterations, a.params.MemoryKiB, a.params.Parallelism, a.params.KeyLength)

	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		a.params.MemoryKiB,
		a.params.Iterations,
		a.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether password matches digest. An empty or unparsable
// digest never matches, but still costs one full derivation.
func (a *Argon2) Verify(password, digest string) bool {
	parsed, err := parsePHC(digest)
	if err != nil {
		a.derive(password, a.dummy)
		return false
	}
	computed := a.derive(password, parsed)
	return subtle.ConstantTimeCompare(computed, parsed.key) == 1
}

// VerifyAbsent always returns false after spending the same work as a real
// verification. Call it when no user exists for the presented identity.
func (a *Argon2) VerifyAbsent() bool {
	computed := a.derive("", a.dummy)
	_ = subtle.ConstantTimeCompare(computed, a.dummy.key)
	return false
}

func (a *Argon2) derive(password string, p *phc) []byte {
	return argon2.IDKey([]byte(password), p.salt, p.iterations, p.memory, p.parallelism, uint32(len(p.key)))
}

type phc struct {
	memory      uint32
	iterations  uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

func parsePHC(encoded string) (*phc, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != algorithmID {
		return nil, errMalformedDigest
	}
	if parts[2] != "v="+strconv.Itoa(argon2.Version) {
		return nil, errMalformedDigest
	}

	out := &phc{}
	for _, kv := range strings.Split(parts[3], ",") {
		name, value, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, errMalformedDigest
		}
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return nil, errMalformedDigest
		}
		switch name {
		case "m":
			out.memory = uint32(n)
		case "t":
			out.iterations = uint32(n)
		case "p":
			if n > 255 {
				return nil, errMalformedDigest
			}
			out.parallelism = uint8(n)
		default:
			return nil, errMalformedDigest
		}
	}
	if out.memory < minMemoryKiB || out.iterations < minIterations || out.parallelism < minParallelism {
		return nil, errMalformedDigest
	}

	var err error
	if out.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil || len(out.salt) < int(minSaltLength) {
		return nil, errMalformedDigest
	}
	if out.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(out.key) < int(minKeyLength) {
		return nil, errMalformedDigest
	}
	return out, nil
}

// MakeRandBytes returns size bytes from crypto/rand.
func MakeRandBytes(size int) ([]byte, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

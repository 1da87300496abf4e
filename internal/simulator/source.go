package simulator

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	mathrand "math/rand"
	"strings"
	"time"
)

type randomSource interface {
	Float64() (float64, error)
}

// sourceFunc adapts a plain function to randomSource.
type sourceFunc func() (float64, error)

func (f sourceFunc) Float64() (float64, error) { return f() }

type sourceKind int

const (
	kindPseudo sourceKind = iota
	kindSecure
)

var sourceAliases = map[string]sourceKind{
	"":         kindPseudo,
	"pseudo":   kindPseudo,
	"mersenne": kindPseudo,
	"math":     kindPseudo,
	"secure":   kindSecure,
	"crypto":   kindSecure,
}

// newRandomSource picks the draw generator. A seed only affects the pseudo kind.
func newRandomSource(name string, seed *int64) (randomSource, error) {
	kind, ok := sourceAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown random source %q", name)
	}
	if kind == kindSecure {
		return sourceFunc(cryptoFloat64), nil
	}
	s := time.Now().UnixNano()
	if seed != nil {
		s = *seed
	}
	rng := mathrand.New(mathrand.NewSource(s))
	return sourceFunc(func() (float64, error) { return rng.Float64(), nil }), nil
}

// cryptoFloat64 maps 53 random bits onto [0,1).
func cryptoFloat64() (float64, error) {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0, fmt.Errorf("secure source: %w", err)
	}
	return float64(binary.BigEndian.Uint64(buf[:])>>11) / (1 << 53), nil
}

// randomBool is true with the given probability. 0 and 1 never consume a draw.
func randomBool(src randomSource, probability float64) (bool, error) {
	switch {
	case probability <= 0:
		return false, nil
	case probability >= 1:
		return true, nil
	}
	u, err := src.Float64()
	if err != nil {
		return false, err
	}
	return u < probability, nil
}

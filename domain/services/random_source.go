package services

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"

	"fittrack/drawing-engine/domain/entities"
	"fittrack/drawing-engine/domain/interfaces"
)

const (
	// denseThreshold is the pool size below which exclusion picks always
	// enumerate the remaining numbers. 65536 (2^16) keeps enumeration fast
	// and memory-bounded even when most numbers are already taken.
	denseThreshold = 1 << 16

	// auditTokenBytes gives a 256-bit token
	auditTokenBytes = 32
)

// cryptoRandomSource implements RandomSource on crypto/rand. rand.Int performs
// rejection sampling internally, so picks are uniform with no modulo bias.
// There is deliberately no fallback path: if the secure source fails, the
// error surfaces and the draw attempt aborts.
type cryptoRandomSource struct{}

// NewCryptoRandomSource creates the production randomness source
func NewCryptoRandomSource() interfaces.RandomSource {
	return &cryptoRandomSource{}
}

// Pick returns a uniform random integer in [1, upper]
func (s *cryptoRandomSource) Pick(upper int64) (int64, error) {
	if upper <= 0 {
		return 0, &entities.ValidationError{Field: "upper", Reason: "must be positive"}
	}
	n, err := rand.Int(rand.Reader, big.NewInt(upper))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", entities.ErrSecureRandomUnavailable, err)
	}
	return n.Int64() + 1, nil
}

// PickExcluding returns a uniform random integer in [1, upper] not present in
// used. Calling it repeatedly while adding each result to used is sampling
// without replacement, which is how multi-prize draws avoid double-wins.
//
// Two strategies, depending on how crowded the pool is:
//   - dense enumeration for small pools or high usage ratios, where retrying
//     blind picks would thrash
//   - retry sampling for large, mostly-free pools, where a collision is rare
func (s *cryptoRandomSource) PickExcluding(upper int64, used map[int64]bool) (int64, error) {
	if upper <= 0 {
		return 0, &entities.ValidationError{Field: "upper", Reason: "must be positive"}
	}
	if int64(len(used)) >= upper {
		return 0, &entities.ValidationError{Field: "used", Reason: "no numbers left to pick"}
	}
	if len(used) == 0 {
		return s.Pick(upper)
	}

	usedRatio := float64(len(used)) / float64(upper)
	if usedRatio > 0.5 || upper <= denseThreshold {
		return s.pickFromRemaining(upper, used)
	}
	return s.pickWithRetry(upper, used)
}

// pickFromRemaining enumerates the free numbers and picks one index uniformly
func (s *cryptoRandomSource) pickFromRemaining(upper int64, used map[int64]bool) (int64, error) {
	remaining := make([]int64, 0, upper-int64(len(used)))
	for i := int64(1); i <= upper; i++ {
		if !used[i] {
			remaining = append(remaining, i)
		}
	}
	idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(remaining))))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", entities.ErrSecureRandomUnavailable, err)
	}
	return remaining[idx.Int64()], nil
}

// pickWithRetry samples until it hits a free number. Collision probability is
// below one half by construction, so the expected retry count is small.
func (s *cryptoRandomSource) pickWithRetry(upper int64, used map[int64]bool) (int64, error) {
	for {
		n, err := s.Pick(upper)
		if err != nil {
			return 0, err
		}
		if !used[n] {
			return n, nil
		}
	}
}

// NewAuditToken returns a hex-encoded 256-bit random token. The token is
// published as evidence that a secure source was invoked; it is not a seed
// and replaying it does not reproduce the draw.
func (s *cryptoRandomSource) NewAuditToken() (string, error) {
	buf := make([]byte, auditTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("%w: %v", entities.ErrSecureRandomUnavailable, err)
	}
	return hex.EncodeToString(buf), nil
}

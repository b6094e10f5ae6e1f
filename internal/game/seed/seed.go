// Package seed provides reproducible, seed-driven permutations. Duels need
// two players who never connect simultaneously to see the identical ordered
// location set, so all duel randomness derives from one shared seed instead
// of per-player queries.
package seed

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// New returns an opaque random seed for cases where reproducibility is not
// required (normal ranked play).
func New() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
	}
	return hex.EncodeToString(buf)
}

// stream yields a deterministic byte sequence keyed by a seed string.
// Each 32-byte round is HMAC-SHA256(seed, round counter).
type stream struct {
	key    []byte
	round  uint64
	cursor int
	buffer [sha256.Size]byte
}

func newStream(s string) *stream {
	st := &stream{key: []byte(s), cursor: sha256.Size}
	return st
}

func (s *stream) next() byte {
	if s.cursor >= sha256.Size {
		h := hmac.New(sha256.New, s.key)
		var msg [8]byte
		binary.BigEndian.PutUint64(msg[:], s.round)
		h.Write(msg[:])
		copy(s.buffer[:], h.Sum(nil))
		s.round++
		s.cursor = 0
	}
	b := s.buffer[s.cursor]
	s.cursor++
	return b
}

func (s *stream) uint64() uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v = v<<8 | uint64(s.next())
	}
	return v
}

// intn returns an unbiased value in [0, n) via rejection sampling.
func (s *stream) intn(n int) int {
	if n <= 1 {
		return 0
	}
	limit := ^uint64(0) - ^uint64(0)%uint64(n)
	for {
		if v := s.uint64(); v < limit {
			return int(v % uint64(n))
		}
	}
}

// Perm returns the permutation of [0, n) determined by seed. The same seed
// and n always produce the same order, and every ordering is equally likely
// conditioned on the seed.
func Perm(n int, seed string) []int {
	st := newStream(seed)
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	// Fisher-Yates driven by the seeded stream.
	for i := n - 1; i > 0; i-- {
		j := st.intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Pick returns the first k indices of the seeded permutation of [0, n).
// k is clamped to n.
func Pick(n, k int, seed string) []int {
	if k > n {
		k = n
	}
	return Perm(n, seed)[:k]
}

// Float64 returns the i-th deterministic float in [0, 1) for the seed.
// Used for seeded geometric placement (hint circles).
func Float64(seed string, i int) float64 {
	st := newStream(fmt.Sprintf("%s:%d", seed, i))
	return float64(st.uint64()>>11) / (1 << 53)
}

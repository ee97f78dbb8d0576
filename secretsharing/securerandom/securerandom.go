// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package securerandom provides the cryptographically secure randomness used to build
// sharing polynomials and evaluation points.
//
// A Source is a ChaCha20 keystream generator keyed from an entropy reader. The key is
// replaced after every draw with keystream output, so a compromised key does not reveal
// earlier output. A Source is safe for concurrent use; callers that need reproducible
// output (tests) use NewSeeded.
package securerandom

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"math/big"
	"math/bits"
	"sort"
	"sync"

	"github.com/google/tink/go/subtle/random"
	"golang.org/x/crypto/chacha20"
	"golang.org/x/crypto/hkdf"

	"github.com/GoogleCloudPlatform/sharekeeper/secretsharing/secrets"
)

const (
	keySize    = chacha20.KeySize
	reseedInfo = "sharekeeper securerandom reseed v1"
)

// Source is a process-wide or per-caller CSPRNG.
type Source struct {
	mu      sync.Mutex
	entropy io.Reader
	key     [keySize]byte
	keyed   bool
}

// tinkEntropy reads from Tink's random byte generator.
type tinkEntropy struct{}

func (tinkEntropy) Read(p []byte) (int, error) {
	copy(p, random.GetRandomBytes(uint32(len(p))))
	return len(p), nil
}

// New returns a Source keyed from the operating system entropy pool.
func New() *Source {
	return &Source{entropy: tinkEntropy{}}
}

// NewFromReader returns a Source that draws its keys from r, for example a TPM.
func NewFromReader(r io.Reader) *Source {
	return &Source{entropy: r}
}

// NewSeeded returns a deterministic Source. Two Sources created with the same seed produce
// the same sequence. It must only be used in tests.
func NewSeeded(seed []byte) *Source {
	return &Source{entropy: newKeystream(sha256.Sum256(seed))}
}

var (
	defaultOnce   sync.Once
	defaultSource *Source
)

// Default returns the shared process-wide Source.
func Default() *Source {
	defaultOnce.Do(func() { defaultSource = New() })
	return defaultSource
}

// keystream is an endless ChaCha20 keystream, used as deterministic entropy.
type keystream struct {
	c *chacha20.Cipher
}

func newKeystream(key [keySize]byte) *keystream {
	c, err := chacha20.NewUnauthenticatedCipher(key[:], make([]byte, chacha20.NonceSize))
	if err != nil {
		// Only possible with a wrong key or nonce size.
		panic(fmt.Sprintf("chacha20.NewUnauthenticatedCipher failed: %v", err))
	}
	return &keystream{c: c}
}

func (k *keystream) Read(p []byte) (int, error) {
	clear(p)
	k.c.XORKeyStream(p, p)
	return len(p), nil
}

func (s *Source) rekey() error {
	if _, err := io.ReadFull(s.entropy, s.key[:]); err != nil {
		return fmt.Errorf("reading entropy failed: %v", err)
	}
	s.keyed = true
	return nil
}

// fill writes len(p) random bytes to p. The caller must hold s.mu.
func (s *Source) fill(p []byte) error {
	if !s.keyed {
		if err := s.rekey(); err != nil {
			return err
		}
	}
	c, err := chacha20.NewUnauthenticatedCipher(s.key[:], make([]byte, chacha20.NonceSize))
	if err != nil {
		return fmt.Errorf("chacha20.NewUnauthenticatedCipher failed: %v", err)
	}
	clear(p)
	c.XORKeyStream(p, p)
	// Fast key erasure: the next key is the keystream block after the output.
	var next [keySize]byte
	c.XORKeyStream(next[:], next[:])
	s.key = next
	clear(next[:])
	return nil
}

// Read fills p with random bytes. It implements io.Reader.
func (s *Source) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fill(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// NextByte returns a uniformly random byte.
func (s *Source) NextByte() (byte, error) {
	var b [1]byte
	if _, err := s.Read(b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// NextBytes returns n random bytes.
func (s *Source) NextBytes(n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: byte count must be positive, got %d", secrets.ErrInvalidInput, n)
	}
	b := make([]byte, n)
	if _, err := s.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// nextInt draws from [0, max) by rejection sampling against the smallest covering bit
// mask, so the result is never modulo-biased. The caller must hold s.mu.
func (s *Source) nextInt(max int) (int, error) {
	if max == 1 {
		return 0, nil
	}
	mask := uint64(1)<<uint(bits.Len64(uint64(max-1))) - 1
	var buf [8]byte
	for {
		if err := s.fill(buf[:]); err != nil {
			return 0, err
		}
		if v := binary.LittleEndian.Uint64(buf[:]) & mask; v < uint64(max) {
			return int(v), nil
		}
	}
}

// NextInt returns a uniformly random integer in [0, max).
func (s *Source) NextInt(max int) (int, error) {
	if max <= 0 {
		return 0, fmt.Errorf("%w: max must be positive, got %d", secrets.ErrInvalidInput, max)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextInt(max)
}

// NextBigInt returns a uniformly random non-negative integer below 2^bitCount.
func (s *Source) NextBigInt(bitCount int) (*big.Int, error) {
	if bitCount <= 0 {
		return nil, fmt.Errorf("%w: bit count must be positive, got %d", secrets.ErrInvalidInput, bitCount)
	}
	b := make([]byte, (bitCount+7)/8)
	if _, err := s.Read(b); err != nil {
		return nil, err
	}
	// Clear the excess high bits of the big endian leading byte.
	if extra := len(b)*8 - bitCount; extra > 0 {
		b[0] &= 0xFF >> uint(extra)
	}
	return new(big.Int).SetBytes(b), nil
}

// NextDouble returns a uniformly random float64 in [0, 1).
func (s *Source) NextDouble() (float64, error) {
	var buf [8]byte
	if _, err := s.Read(buf[:]); err != nil {
		return 0, err
	}
	return float64(binary.LittleEndian.Uint64(buf[:])>>11) / (1 << 53), nil
}

// NextBool returns a uniformly random bool.
func (s *Source) NextBool() (bool, error) {
	b, err := s.NextByte()
	if err != nil {
		return false, err
	}
	return b&1 == 1, nil
}

// NextGF256Element returns a uniformly random field element in [0, 255].
func (s *Source) NextGF256Element() (byte, error) {
	return s.NextByte()
}

// NextNonZeroGF256Element returns a uniformly random field element in [1, 255].
func (s *Source) NextNonZeroGF256Element() (byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var b [1]byte
	for {
		if err := s.fill(b[:]); err != nil {
			return 0, err
		}
		if b[0] != 0 {
			return b[0], nil
		}
	}
}

// NextGF256Elements returns count uniformly random field elements.
func (s *Source) NextGF256Elements(count int) ([]byte, error) {
	return s.NextBytes(count)
}

// UniqueIntegers samples count distinct integers from [0, max) without replacement and
// returns them in ascending order.
func (s *Source) UniqueIntegers(count, max int) ([]int, error) {
	if count <= 0 || max <= 0 {
		return nil, fmt.Errorf("%w: count and max must be positive, got count=%d max=%d", secrets.ErrInvalidInput, count, max)
	}
	if count > max {
		return nil, fmt.Errorf("%w: cannot draw %d unique integers below %d", secrets.ErrInvalidInput, count, max)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[int]struct{}, count)
	out := make([]int, 0, count)
	for len(out) < count {
		v, err := s.nextInt(max)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Ints(out)
	return out, nil
}

// Shuffle pseudo-randomizes the order of n elements with Fisher-Yates. swap swaps the
// elements with indexes i and j. swap runs after the source is unlocked, so it may draw
// from s itself.
func (s *Source) Shuffle(n int, swap func(i, j int)) error {
	if n < 0 || n > math.MaxInt32 {
		return fmt.Errorf("%w: invalid shuffle length %d", secrets.ErrInvalidInput, n)
	}
	js, err := s.shuffleIndexes(n)
	if err != nil {
		return err
	}
	for k, j := range js {
		swap(n-1-k, j)
	}
	return nil
}

// shuffleIndexes draws the Fisher-Yates swap partner for i = n-1 down to 1.
func (s *Source) shuffleIndexes(n int) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	js := make([]int, 0, max(n-1, 0))
	for i := n - 1; i > 0; i-- {
		j, err := s.nextInt(i + 1)
		if err != nil {
			return nil, err
		}
		js = append(js, j)
	}
	return js, nil
}

// Reseed mixes fresh entropy into the current key with HKDF-SHA256.
func (s *Source) Reseed() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.keyed {
		return s.rekey()
	}
	fresh := make([]byte, keySize)
	defer clear(fresh)
	if _, err := io.ReadFull(s.entropy, fresh); err != nil {
		return fmt.Errorf("reading entropy failed: %v", err)
	}
	kdf := hkdf.New(sha256.New, fresh, s.key[:], []byte(reseedInfo))
	if _, err := io.ReadFull(kdf, s.key[:]); err != nil {
		return fmt.Errorf("hkdf failed: %v", err)
	}
	return nil
}

// SecureClear zeroes the key. The next draw rekeys from the entropy reader. This is best
// effort: the Go runtime may have copied the key elsewhere.
func (s *Source) SecureClear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.key[:])
	s.keyed = false
}

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

package shamir

import (
	"fmt"
	"unicode/utf8"

	"github.com/GoogleCloudPlatform/sharekeeper/secretsharing/secretkind"
	"github.com/GoogleCloudPlatform/sharekeeper/secretsharing/secrets"
	jsoniter "github.com/json-iterator/go"
)

// SplitResult is the output of one split. Single-byte splits fill Shares; multi-byte and
// string splits fill ShareSets. Both are ordered by participant.
type SplitResult struct {
	Shares      []secrets.Share
	ShareSets   []secrets.ShareSet
	Threshold   int
	TotalShares int
	// Descriptor records what kind of secret was split.
	Descriptor secretkind.Descriptor
}

// CreateDistributionPackages pairs each share or share set with its 1-based participant
// number.
func (r *SplitResult) CreateDistributionPackages() []ParticipantPackage {
	var pkgs []ParticipantPackage
	newPackage := func(i int) ParticipantPackage {
		return ParticipantPackage{
			ParticipantNumber: i + 1,
			Threshold:         r.Threshold,
			TotalParticipants: r.TotalShares,
			Descriptor:        r.Descriptor,
		}
	}
	for i := range r.ShareSets {
		p := newPackage(i)
		set := r.ShareSets[i]
		p.ShareSet = &set
		pkgs = append(pkgs, p)
	}
	for i := range r.Shares {
		p := newPackage(i)
		share := r.Shares[i]
		p.Share = &share
		pkgs = append(pkgs, p)
	}
	return pkgs
}

type splitResultJSON struct {
	Shares      []secrets.Share     `json:"shares,omitempty"`
	ShareSets   []secrets.ShareSet  `json:"shareSets,omitempty"`
	Threshold   int                 `json:"threshold"`
	TotalShares int                 `json:"totalShares"`
	Secret      jsoniter.RawMessage `json:"secret,omitempty"`
}

// MarshalJSON implements json.Marshaler. The descriptor is written in its tagged form.
func (r SplitResult) MarshalJSON() ([]byte, error) {
	w := splitResultJSON{
		Shares:      r.Shares,
		ShareSets:   r.ShareSets,
		Threshold:   r.Threshold,
		TotalShares: r.TotalShares,
	}
	if r.Descriptor != nil {
		d, err := secretkind.Marshal(r.Descriptor)
		if err != nil {
			return nil, err
		}
		w.Secret = d
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *SplitResult) UnmarshalJSON(b []byte) error {
	var w splitResultJSON
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*r = SplitResult{
		Shares:      w.Shares,
		ShareSets:   w.ShareSets,
		Threshold:   w.Threshold,
		TotalShares: w.TotalShares,
	}
	if len(w.Secret) > 0 {
		d, err := secretkind.Unmarshal(w.Secret)
		if err != nil {
			return err
		}
		r.Descriptor = d
	}
	return nil
}

// Validate checks the split parameters and that every share or share set is valid.
func (r SplitResult) Validate() error {
	if err := validateParameters(r.Threshold, r.TotalShares); err != nil {
		return err
	}
	if err := secrets.ValidateShares(r.Shares); err != nil {
		return err
	}
	for _, set := range r.ShareSets {
		if err := set.Validate(); err != nil {
			return err
		}
	}
	if n := len(r.Shares) + len(r.ShareSets); n != r.TotalShares {
		return fmt.Errorf("%w: split of %d holds %d shares", secrets.ErrInconsistentParameters, r.TotalShares, n)
	}
	return nil
}

// ToJSON encodes the whole split, including the secret descriptor.
func (r SplitResult) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

// SplitResultFromJSON decodes and validates the output of ToJSON.
func SplitResultFromJSON(b []byte) (*SplitResult, error) {
	r := &SplitResult{}
	if err := json.Unmarshal(b, r); err != nil {
		return nil, fmt.Errorf("%w: malformed split result: %v", secrets.ErrInvalidInput, err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

type splitOptions struct {
	description string
}

// SplitOption configures SplitBytes and SplitString.
type SplitOption func(*splitOptions)

// WithDescription attaches a human-readable description to every share set.
func WithDescription(description string) SplitOption {
	return func(o *splitOptions) { o.description = description }
}

// Shamir is the high level split and combine API.
type Shamir struct {
	gen *ShareGenerator
}

// New returns a Shamir drawing all randomness from r.
func New(r Random) *Shamir {
	return &Shamir{gen: NewShareGenerator(r)}
}

// SplitByte splits a single byte.
func (s *Shamir) SplitByte(secret byte, threshold, totalShares int) (*SplitResult, error) {
	shares, err := s.gen.GenerateShares(int(secret), threshold, totalShares)
	if err != nil {
		return nil, err
	}
	return &SplitResult{
		Shares:      shares,
		Threshold:   threshold,
		TotalShares: totalShares,
		Descriptor:  secretkind.ByteSecret{},
	}, nil
}

// CombineByte reconstructs a byte split by SplitByte.
func (s *Shamir) CombineByte(shares []secrets.Share) (byte, error) {
	return ReconstructSecret(shares)
}

// SplitBytes splits a non-empty byte string.
func (s *Shamir) SplitBytes(secret []byte, threshold, totalShares int, opts ...SplitOption) (*SplitResult, error) {
	return s.splitBytes(secret, threshold, totalShares, secretkind.BytesSecret{Length: len(secret)}, opts)
}

func (s *Shamir) splitBytes(secret []byte, threshold, totalShares int, d secretkind.Descriptor, opts []SplitOption) (*SplitResult, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("%w: secret must not be empty", secrets.ErrInvalidInput)
	}
	var o splitOptions
	for _, opt := range opts {
		opt(&o)
	}
	sets, err := s.gen.GenerateShareSets(secret, threshold, totalShares, o.description)
	if err != nil {
		return nil, err
	}
	return &SplitResult{
		ShareSets:   sets,
		Threshold:   threshold,
		TotalShares: totalShares,
		Descriptor:  d,
	}, nil
}

// CombineBytes reconstructs a secret split by SplitBytes.
func (s *Shamir) CombineBytes(sets []secrets.ShareSet) ([]byte, error) {
	return ReconstructFromShareSets(sets)
}

// SplitString splits the UTF-8 encoding of a non-empty string.
func (s *Shamir) SplitString(secret string, threshold, totalShares int, opts ...SplitOption) (*SplitResult, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: secret must not be empty", secrets.ErrInvalidInput)
	}
	if !utf8.ValidString(secret) {
		return nil, fmt.Errorf("%w: secret is not valid UTF-8", secrets.ErrInvalidInput)
	}
	b := []byte(secret)
	defer secrets.Wipe(b)
	return s.splitBytes(b, threshold, totalShares, secretkind.StringSecret{Length: len(b)}, opts)
}

// CombineString reconstructs a string split by SplitString.
func (s *Shamir) CombineString(sets []secrets.ShareSet) (string, error) {
	b, err := ReconstructFromShareSets(sets)
	if err != nil {
		return "", err
	}
	defer secrets.Wipe(b)
	return DecodeString(b)
}

// DecodeString returns b as a string if it is valid UTF-8.
func DecodeString(b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%w: reconstructed secret is not valid UTF-8", secrets.ErrInvalidInput)
	}
	return string(b), nil
}

// VerifyShares reports whether shares are enough to reconstruct without reconstructing.
func (s *Shamir) VerifyShares(shares []secrets.Share, threshold int) bool {
	return CanReconstruct(shares, threshold)
}

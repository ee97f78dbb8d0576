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

package secrets

import (
	"fmt"
	"time"
)

// ShareSetMetadata identifies one participant's bundle of a multi-byte split.
type ShareSetMetadata struct {
	// ID is shared by every ShareSet of the same split.
	ID string `json:"id"`
	// ShareIndex is the participant's 1-based ordinal.
	ShareIndex   int       `json:"shareIndex"`
	Threshold    int       `json:"threshold"`
	TotalShares  int       `json:"totalShares"`
	SecretLength int       `json:"secretLength"`
	CreatedAt    time.Time `json:"createdAt"`
	Description  string    `json:"description,omitempty"`
}

// ShareSet holds one Share per secret byte, all at the same x-coordinate.
type ShareSet struct {
	Shares   []Share          `json:"shares"`
	Metadata ShareSetMetadata `json:"metadata"`
}

// ShareAt returns the share for byte position i. ok is false if i is out of range.
func (s ShareSet) ShareAt(i int) (share Share, ok bool) {
	if i < 0 || i >= len(s.Shares) {
		return Share{}, false
	}
	return s.Shares[i], true
}

// X returns the participant's x-coordinate, or 0 for an empty set.
func (s ShareSet) X() int {
	if len(s.Shares) == 0 {
		return 0
	}
	return s.Shares[0].X
}

// Validate checks the ShareSet invariants: one valid share per secret byte, all sharing
// one x-coordinate, and sane parameters.
func (s ShareSet) Validate() error {
	md := s.Metadata
	if md.Threshold < 2 || md.TotalShares < md.Threshold || md.TotalShares > 255 {
		return fmt.Errorf("%w: share set %d has threshold %d of %d shares", ErrInvalidInput, md.ShareIndex, md.Threshold, md.TotalShares)
	}
	if md.SecretLength < 1 || len(s.Shares) != md.SecretLength {
		return fmt.Errorf("%w: share set %d holds %d shares for a %d byte secret", ErrInvalidShare, md.ShareIndex, len(s.Shares), md.SecretLength)
	}
	x := s.X()
	for i, sh := range s.Shares {
		if err := sh.Validate(); err != nil {
			return fmt.Errorf("share set %d, byte %d: %w", md.ShareIndex, i, err)
		}
		if sh.X != x {
			return fmt.Errorf("%w: share set %d mixes x-coordinates %d and %d", ErrInvalidShare, md.ShareIndex, x, sh.X)
		}
	}
	return nil
}

// ToJSON encodes the set as {shares, metadata}.
func (s ShareSet) ToJSON() ([]byte, error) {
	return json.Marshal(s)
}

// ShareSetFromJSON decodes and validates the output of ToJSON.
func ShareSetFromJSON(b []byte) (ShareSet, error) {
	var s ShareSet
	if err := json.Unmarshal(b, &s); err != nil {
		return ShareSet{}, fmt.Errorf("%w: malformed share set: %v", ErrInvalidInput, err)
	}
	return s, s.Validate()
}

// ToBase64 encodes the set's JSON as base64.
func (s ShareSet) ToBase64() (string, error) {
	return MarshalBase64(s)
}

// ShareSetFromBase64 decodes the output of ToBase64.
func ShareSetFromBase64(str string) (ShareSet, error) {
	b, err := decodeBase64(str)
	if err != nil {
		return ShareSet{}, err
	}
	return ShareSetFromJSON(b)
}

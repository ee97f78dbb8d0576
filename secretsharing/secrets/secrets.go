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

// Package secrets contains the share types exchanged by dealers and participants. A single
// byte secret is split into flat `Share`s; a multi-byte secret is split into one `ShareSet`
// per participant, holding one `Share` per byte at that participant's x-coordinate.
package secrets

import (
	"encoding/base64"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/multierr"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Share is one point (X, Y) on a sharing polynomial. X is never 0; that point is the secret.
type Share struct {
	X int `json:"x"`
	Y int `json:"y"`
	// Metadata is carried verbatim and ignored by Equal.
	Metadata jsoniter.RawMessage `json:"metadata,omitempty"`
}

// Valid reports whether 1 <= X <= 255 and 0 <= Y <= 255.
func (s Share) Valid() bool {
	return s.X >= 1 && s.X <= 255 && s.Y >= 0 && s.Y <= 255
}

// Validate returns an error wrapping ErrInvalidShare if the share is not Valid.
func (s Share) Validate() error {
	if !s.Valid() {
		return fmt.Errorf("%w: (x=%d, y=%d) is outside the field or uses x=0", ErrInvalidShare, s.X, s.Y)
	}
	return nil
}

// Equal compares coordinates only.
func (s Share) Equal(o Share) bool {
	return s.X == o.X && s.Y == o.Y
}

func (s Share) String() string {
	return fmt.Sprintf("Share(x=%d)", s.X)
}

// ToJSON encodes the share as {x, y, metadata?}.
func (s Share) ToJSON() ([]byte, error) {
	return json.Marshal(s)
}

// ShareFromJSON decodes and validates the output of ToJSON.
func ShareFromJSON(b []byte) (Share, error) {
	var s Share
	if err := json.Unmarshal(b, &s); err != nil {
		return Share{}, fmt.Errorf("%w: malformed share: %v", ErrInvalidInput, err)
	}
	return s, s.Validate()
}

// ToBase64 encodes the share's JSON as base64.
func (s Share) ToBase64() (string, error) {
	return MarshalBase64(s)
}

// ShareFromBase64 decodes the output of ToBase64.
func ShareFromBase64(str string) (Share, error) {
	b, err := decodeBase64(str)
	if err != nil {
		return Share{}, err
	}
	return ShareFromJSON(b)
}

// MarshalBase64 returns the base64 of v's JSON encoding. It is the envelope used for copy and
// paste and file export of every share type.
func MarshalBase64(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("%w: cannot encode %T: %v", ErrInvalidInput, v, err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// UnmarshalBase64 decodes the output of MarshalBase64 into v.
func UnmarshalBase64(str string, v any) error {
	b, err := decodeBase64(str)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("%w: malformed %T: %v", ErrInvalidInput, v, err)
	}
	return nil
}

func decodeBase64(str string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(str)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64: %v", ErrInvalidInput, err)
	}
	return b, nil
}

// ValidateShares checks every share and reports all invalid or duplicated x-coordinates
// together.
func ValidateShares(shares []Share) error {
	var errs error
	seen := make(map[int]int, len(shares))
	for i, s := range shares {
		if err := s.Validate(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("share %d: %w", i, err))
			continue
		}
		if j, ok := seen[s.X]; ok {
			errs = multierr.Append(errs, fmt.Errorf("shares %d and %d: %w: x = %d", j, i, ErrDuplicateShare, s.X))
			continue
		}
		seen[s.X] = i
	}
	return errs
}

// Wipe zeroes b. This is best effort: copies made by the runtime or by callers are not
// reached.
func Wipe(b []byte) {
	clear(b)
}

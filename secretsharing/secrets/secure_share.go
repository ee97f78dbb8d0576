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
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"fmt"
)

// DefaultVersion is the SecureShare format version written when none is given.
const DefaultVersion = 1

// SecureShare is a Share bound to the parameters of the split that produced it.
//
// Checksum is an unkeyed SHA-256 over public fields. It catches shares mixed up between
// splits and accidental edits, but anyone can recompute it, so it does not authenticate a
// share against a malicious holder.
type SecureShare struct {
	Share
	Version     int    `json:"version"`
	Threshold   int    `json:"threshold"`
	TotalShares int    `json:"totalShares"`
	Identifier  string `json:"identifier,omitempty"`
	Checksum    []byte `json:"checksum,omitempty"`
}

// NewSecureShare wraps s and computes its checksum. A zero version becomes DefaultVersion.
func NewSecureShare(s Share, version, threshold, totalShares int, identifier string) SecureShare {
	if version == 0 {
		version = DefaultVersion
	}
	ss := SecureShare{
		Share:       s,
		Version:     version,
		Threshold:   threshold,
		TotalShares: totalShares,
		Identifier:  identifier,
	}
	ss.Checksum = ss.ComputeChecksum()
	return ss
}

// ComputeChecksum hashes a length-prefixed serialization of
// {x, y, threshold, totalShares, version, identifier}.
func (s SecureShare) ComputeChecksum() []byte {
	buf := make([]byte, 0, 6*8+len(s.Identifier))
	for _, v := range []int{s.X, s.Y, s.Threshold, s.TotalShares, s.Version} {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(v))
	}
	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(s.Identifier)))
	buf = append(buf, s.Identifier...)
	sum := sha256.Sum256(buf)
	return sum[:]
}

// HasValidChecksum recomputes the checksum and compares it in constant time. Shares without
// a checksum are accepted.
func (s SecureShare) HasValidChecksum() bool {
	if len(s.Checksum) == 0 {
		return true
	}
	return subtle.ConstantTimeCompare(s.Checksum, s.ComputeChecksum()) == 1
}

// Verify checks the share coordinates, parameters and checksum.
func (s SecureShare) Verify() error {
	if err := s.Share.Validate(); err != nil {
		return err
	}
	if s.Threshold < 2 || s.TotalShares < s.Threshold || s.TotalShares > 255 {
		return fmt.Errorf("%w: threshold %d of %d shares", ErrInvalidInput, s.Threshold, s.TotalShares)
	}
	if !s.HasValidChecksum() {
		return fmt.Errorf("%w: share x=%d", ErrChecksumMismatch, s.X)
	}
	return nil
}

// ToJSON encodes the share with its parameters; the checksum is base64.
func (s SecureShare) ToJSON() ([]byte, error) {
	return json.Marshal(s)
}

// SecureShareFromJSON decodes the output of ToJSON.
func SecureShareFromJSON(b []byte) (SecureShare, error) {
	var s SecureShare
	if err := json.Unmarshal(b, &s); err != nil {
		return SecureShare{}, fmt.Errorf("%w: malformed secure share: %v", ErrInvalidInput, err)
	}
	return s, s.Share.Validate()
}

// ToBase64 encodes the share's JSON as base64.
func (s SecureShare) ToBase64() (string, error) {
	return MarshalBase64(s)
}

// SecureShareFromBase64 decodes the output of ToBase64.
func SecureShareFromBase64(str string) (SecureShare, error) {
	b, err := decodeBase64(str)
	if err != nil {
		return SecureShare{}, err
	}
	return SecureShareFromJSON(b)
}

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
	"strings"

	"github.com/GoogleCloudPlatform/sharekeeper/secretsharing/secretkind"
	"github.com/GoogleCloudPlatform/sharekeeper/secretsharing/secrets"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ParticipantPackage is everything one participant needs to take part in a reconstruction.
// Exactly one of ShareSet and Share is set.
type ParticipantPackage struct {
	// ParticipantNumber is 1-based.
	ParticipantNumber int
	Threshold         int
	TotalParticipants int
	ShareSet          *secrets.ShareSet
	Share             *secrets.Share
	// Descriptor records how the reconstructed bytes are to be interpreted. It may be nil
	// for packages written by callers that do not track it.
	Descriptor secretkind.Descriptor
}

type packageJSON struct {
	ParticipantNumber int                 `json:"participantNumber"`
	Threshold         int                 `json:"threshold"`
	TotalParticipants int                 `json:"totalParticipants"`
	ShareSet          *secrets.ShareSet   `json:"shareSet,omitempty"`
	Share             *secrets.Share      `json:"share,omitempty"`
	Secret            jsoniter.RawMessage `json:"secret,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (p ParticipantPackage) MarshalJSON() ([]byte, error) {
	w := packageJSON{
		ParticipantNumber: p.ParticipantNumber,
		Threshold:         p.Threshold,
		TotalParticipants: p.TotalParticipants,
		ShareSet:          p.ShareSet,
		Share:             p.Share,
	}
	if p.Descriptor != nil {
		d, err := secretkind.Marshal(p.Descriptor)
		if err != nil {
			return nil, err
		}
		w.Secret = d
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *ParticipantPackage) UnmarshalJSON(b []byte) error {
	var w packageJSON
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*p = ParticipantPackage{
		ParticipantNumber: w.ParticipantNumber,
		Threshold:         w.Threshold,
		TotalParticipants: w.TotalParticipants,
		ShareSet:          w.ShareSet,
		Share:             w.Share,
	}
	if len(w.Secret) > 0 {
		d, err := secretkind.Unmarshal(w.Secret)
		if err != nil {
			return err
		}
		p.Descriptor = d
	}
	return nil
}

// Validate checks that the package is self-consistent.
func (p ParticipantPackage) Validate() error {
	if err := validateParameters(p.Threshold, p.TotalParticipants); err != nil {
		return err
	}
	if p.ParticipantNumber < 1 || p.ParticipantNumber > p.TotalParticipants {
		return fmt.Errorf("%w: participant %d of %d", secrets.ErrInvalidInput, p.ParticipantNumber, p.TotalParticipants)
	}
	switch {
	case p.ShareSet != nil && p.Share != nil:
		return fmt.Errorf("%w: package holds both a share and a share set", secrets.ErrInvalidInput)
	case p.ShareSet != nil:
		if err := p.ShareSet.Validate(); err != nil {
			return err
		}
		md := p.ShareSet.Metadata
		if md.ShareIndex != p.ParticipantNumber || md.Threshold != p.Threshold || md.TotalShares != p.TotalParticipants {
			return fmt.Errorf("%w: package for participant %d holds share set %d of a %d of %d split",
				secrets.ErrInconsistentParameters, p.ParticipantNumber, md.ShareIndex, md.Threshold, md.TotalShares)
		}
	case p.Share != nil:
		if err := p.Share.Validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: package holds no share", secrets.ErrInvalidInput)
	}
	return nil
}

// Instructions returns text telling the participant how to use their package.
func (p ParticipantPackage) Instructions() string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are participant %d of %d in a secret sharing scheme.\n", p.ParticipantNumber, p.TotalParticipants)
	if p.ShareSet != nil && p.ShareSet.Metadata.Description != "" {
		fmt.Fprintf(&b, "Secret: %s\n", p.ShareSet.Metadata.Description)
	}
	fmt.Fprintf(&b, "\nAt least %d of the %d participants must bring their shares together to recover the secret.\n", p.Threshold, p.TotalParticipants)
	fmt.Fprintf(&b, "Any %d or fewer shares reveal nothing about it.\n\n", p.Threshold-1)
	b.WriteString("Store this package somewhere only you can reach, apart from the other participants' packages.\n")
	b.WriteString("Do not send it over channels the other participants can read, and do not combine it with another participant's share unless a reconstruction has been agreed.\n")
	return b.String()
}

// ToJSON encodes the whole package.
func (p ParticipantPackage) ToJSON() ([]byte, error) {
	return json.Marshal(p)
}

// PackageFromJSON decodes and validates the output of ToJSON.
func PackageFromJSON(b []byte) (ParticipantPackage, error) {
	var p ParticipantPackage
	if err := json.Unmarshal(b, &p); err != nil {
		return ParticipantPackage{}, fmt.Errorf("%w: malformed participant package: %v", secrets.ErrInvalidInput, err)
	}
	return p, p.Validate()
}

// ToBase64 encodes the whole package, including the participant number and the split
// parameters, as base64 JSON.
func (p ParticipantPackage) ToBase64() (string, error) {
	return secrets.MarshalBase64(p)
}

// PackageFromBase64 decodes and validates the output of ToBase64.
func PackageFromBase64(str string) (ParticipantPackage, error) {
	var p ParticipantPackage
	if err := secrets.UnmarshalBase64(str, &p); err != nil {
		return ParticipantPackage{}, err
	}
	return p, p.Validate()
}

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
	"sort"

	"github.com/GoogleCloudPlatform/sharekeeper/secretsharing/internal/polynomial"
	"github.com/GoogleCloudPlatform/sharekeeper/secretsharing/secrets"
)

// ProgressiveReconstructor collects shares one at a time and reconstructs the secret as
// soon as threshold distinct shares are present. It is not safe for concurrent use.
type ProgressiveReconstructor struct {
	threshold int
	shares    map[int]secrets.Share
	secret    byte
	complete  bool
}

// NewProgressiveReconstructor returns an empty reconstructor for a threshold-of-n split.
func NewProgressiveReconstructor(threshold int) (*ProgressiveReconstructor, error) {
	if threshold < polynomial.MinThreshold || threshold > polynomial.MaxPoints {
		return nil, fmt.Errorf("%w: threshold must be in [%d, %d], got %d", secrets.ErrInvalidInput, polynomial.MinThreshold, polynomial.MaxPoints, threshold)
	}
	return &ProgressiveReconstructor{
		threshold: threshold,
		shares:    make(map[int]secrets.Share, threshold),
	}, nil
}

// AddShare records s. It returns true only on the call that brings the number of distinct
// x-coordinates to the threshold, after which the secret is available. A share whose x is
// already present is ignored and AddShare returns false.
func (p *ProgressiveReconstructor) AddShare(s secrets.Share) (bool, error) {
	if err := s.Validate(); err != nil {
		return false, err
	}
	if _, ok := p.shares[s.X]; ok {
		return false, nil
	}
	p.shares[s.X] = s
	if p.complete || len(p.shares) < p.threshold {
		return false, nil
	}
	secret, err := ReconstructSecret(p.Shares())
	if err != nil {
		delete(p.shares, s.X)
		return false, err
	}
	p.secret = secret
	p.complete = true
	return true, nil
}

// IsComplete reports whether the secret has been reconstructed.
func (p *ProgressiveReconstructor) IsComplete() bool {
	return p.complete
}

// Secret returns the reconstructed secret. ok is false until the reconstructor is complete.
func (p *ProgressiveReconstructor) Secret() (secret byte, ok bool) {
	return p.secret, p.complete
}

// Progress is the fraction of the threshold collected so far, capped at 1.
func (p *ProgressiveReconstructor) Progress() float64 {
	if len(p.shares) >= p.threshold {
		return 1
	}
	return float64(len(p.shares)) / float64(p.threshold)
}

// Threshold returns the number of shares needed.
func (p *ProgressiveReconstructor) Threshold() int {
	return p.threshold
}

// Shares returns a copy of the collected shares ordered by x.
func (p *ProgressiveReconstructor) Shares() []secrets.Share {
	out := make([]secrets.Share, 0, len(p.shares))
	for _, s := range p.shares {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].X < out[j].X })
	return out
}

// Reset discards collected shares and the cached secret.
func (p *ProgressiveReconstructor) Reset() {
	clear(p.shares)
	p.secret = 0
	p.complete = false
}

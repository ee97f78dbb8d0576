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

// Package shamir implements Shamir's secret sharing over GF(2^8).
//
// A secret byte is the constant term of a random polynomial of degree threshold-1; each
// participant receives the polynomial's value at a distinct random nonzero x-coordinate.
// Multi-byte secrets use one independent polynomial per byte and one x-coordinate per
// participant across all bytes.
package shamir

import (
	"fmt"
	"time"

	"github.com/GoogleCloudPlatform/sharekeeper/secretsharing/internal/polynomial"
	"github.com/GoogleCloudPlatform/sharekeeper/secretsharing/secrets"
	glog "github.com/golang/glog"
	"github.com/google/uuid"
)

// Random is the randomness used to build polynomials and pick evaluation points.
// *securerandom.Source satisfies it.
type Random interface {
	NextGF256Element() (byte, error)
	NextNonZeroGF256Element() (byte, error)
	UniqueIntegers(count, max int) ([]int, error)
}

// ShareGenerator is the dealer side of the scheme.
type ShareGenerator struct {
	poly  *polynomial.Generator
	now   func() time.Time
	newID func() string
}

// NewShareGenerator returns a generator drawing all randomness from r.
func NewShareGenerator(r Random) *ShareGenerator {
	return &ShareGenerator{
		poly:  polynomial.NewGenerator(r),
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

func validateParameters(threshold, totalShares int) error {
	if threshold < polynomial.MinThreshold {
		return fmt.Errorf("%w: threshold must be at least %d, got %d", secrets.ErrInvalidInput, polynomial.MinThreshold, threshold)
	}
	if totalShares < threshold {
		return fmt.Errorf("%w: total shares %d is less than threshold %d", secrets.ErrInvalidInput, totalShares, threshold)
	}
	if totalShares > polynomial.MaxPoints {
		return fmt.Errorf("%w: total shares must be at most %d, got %d", secrets.ErrInvalidInput, polynomial.MaxPoints, totalShares)
	}
	return nil
}

// GenerateShares splits secret, a field element, into totalShares shares, any threshold of
// which reconstruct it.
func (g *ShareGenerator) GenerateShares(secret, threshold, totalShares int) ([]secrets.Share, error) {
	if err := validateParameters(threshold, totalShares); err != nil {
		return nil, err
	}
	coefficients, err := g.poly.Generate(secret, threshold)
	if err != nil {
		return nil, err
	}
	defer secrets.Wipe(coefficients)
	xs, err := g.poly.EvaluationPoints(totalShares)
	if err != nil {
		return nil, err
	}
	shares := make([]secrets.Share, totalShares)
	for i, x := range xs {
		y, err := polynomial.Evaluate(coefficients, int(x))
		if err != nil {
			return nil, err
		}
		shares[i] = secrets.Share{X: int(x), Y: int(y)}
	}
	glog.V(2).Infof("Generated %d shares with threshold %d", totalShares, threshold)
	return shares, nil
}

// GenerateSecureShares is GenerateShares with every share bound to the split parameters by
// a checksum. A zero version selects secrets.DefaultVersion.
func (g *ShareGenerator) GenerateSecureShares(secret, threshold, totalShares, version int, identifier string) ([]secrets.SecureShare, error) {
	shares, err := g.GenerateShares(secret, threshold, totalShares)
	if err != nil {
		return nil, err
	}
	out := make([]secrets.SecureShare, len(shares))
	for i, s := range shares {
		out[i] = secrets.NewSecureShare(s, version, threshold, totalShares, identifier)
	}
	return out, nil
}

// GenerateShareSets splits a multi-byte secret into one ShareSet per participant. Every
// byte gets its own polynomial, but all polynomials are evaluated at the same x-coordinates
// so that one x identifies one participant for the whole secret.
func (g *ShareGenerator) GenerateShareSets(secret []byte, threshold, totalShares int, description string) ([]secrets.ShareSet, error) {
	if err := validateParameters(threshold, totalShares); err != nil {
		return nil, err
	}
	polys, err := g.poly.GenerateForBytes(secret, threshold)
	if err != nil {
		return nil, err
	}
	defer func() {
		for _, p := range polys {
			secrets.Wipe(p)
		}
	}()
	xs, err := g.poly.EvaluationPoints(totalShares)
	if err != nil {
		return nil, err
	}

	id := g.newID()
	created := g.now()
	sets := make([]secrets.ShareSet, totalShares)
	for i, x := range xs {
		shares := make([]secrets.Share, len(secret))
		for j, coefficients := range polys {
			y, err := polynomial.Evaluate(coefficients, int(x))
			if err != nil {
				return nil, err
			}
			shares[j] = secrets.Share{X: int(x), Y: int(y)}
		}
		sets[i] = secrets.ShareSet{
			Shares: shares,
			Metadata: secrets.ShareSetMetadata{
				ID:           id,
				ShareIndex:   i + 1,
				Threshold:    threshold,
				TotalShares:  totalShares,
				SecretLength: len(secret),
				CreatedAt:    created,
				Description:  description,
			},
		}
	}
	glog.V(1).Infof("Split %d-byte secret %s into %d share sets with threshold %d", len(secret), id, totalShares, threshold)
	return sets, nil
}

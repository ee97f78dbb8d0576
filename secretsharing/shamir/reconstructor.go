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

	"github.com/GoogleCloudPlatform/sharekeeper/secretsharing/internal/field/gf256"
	"github.com/GoogleCloudPlatform/sharekeeper/secretsharing/internal/polynomial"
	"github.com/GoogleCloudPlatform/sharekeeper/secretsharing/secrets"
	glog "github.com/golang/glog"
	"go.uber.org/multierr"
)

// ErrInconsistentReconstruction is reported when extra shares do not lie on the polynomial
// recovered from the baseline shares.
var ErrInconsistentReconstruction = fmt.Errorf("%w: inconsistent reconstruction", secrets.ErrIntegrity)

// CanReconstruct reports whether shares hold at least threshold valid shares with distinct
// x-coordinates. It never interpolates, so it reveals nothing about the secret.
func CanReconstruct(shares []secrets.Share, threshold int) bool {
	return len(shares) >= threshold && secrets.ValidateShares(shares) == nil
}

func coordinates(shares []secrets.Share) (xs, ys []byte) {
	xs = make([]byte, len(shares))
	ys = make([]byte, len(shares))
	for i, s := range shares {
		xs[i], ys[i] = byte(s.X), byte(s.Y)
	}
	return xs, ys
}

// ReconstructSecret interpolates the secret from all of shares. The caller is responsible
// for supplying at least the threshold number of shares: fewer shares interpolate a
// different polynomial and yield an unrelated value.
func ReconstructSecret(shares []secrets.Share) (byte, error) {
	if len(shares) == 0 {
		return 0, fmt.Errorf("%w: no shares supplied", secrets.ErrInsufficientShares)
	}
	if err := secrets.ValidateShares(shares); err != nil {
		return 0, err
	}
	xs, ys := coordinates(shares)
	defer secrets.Wipe(ys)
	return gf256.LagrangeInterpolate(xs, ys, 0)
}

// ReconstructFromSecureShares checks that the shares verify, come from one split and meet
// its threshold before interpolating.
func ReconstructFromSecureShares(shares []secrets.SecureShare) (byte, error) {
	if len(shares) == 0 {
		return 0, fmt.Errorf("%w: no shares supplied", secrets.ErrInsufficientShares)
	}
	first := shares[0]
	plain := make([]secrets.Share, len(shares))
	for i, s := range shares {
		if err := s.Verify(); err != nil {
			return 0, fmt.Errorf("share %d: %w", i, err)
		}
		if s.Threshold != first.Threshold || s.TotalShares != first.TotalShares || s.Identifier != first.Identifier {
			return 0, fmt.Errorf("%w: share %d is from a %d of %d split %q, share 0 from a %d of %d split %q",
				secrets.ErrInconsistentParameters, i, s.Threshold, s.TotalShares, s.Identifier, first.Threshold, first.TotalShares, first.Identifier)
		}
		plain[i] = s.Share
	}
	if len(shares) < first.Threshold {
		return 0, fmt.Errorf("%w: have %d, need %d", secrets.ErrInsufficientShares, len(shares), first.Threshold)
	}
	return ReconstructSecret(plain)
}

func sameSplit(a, b secrets.ShareSetMetadata) bool {
	return a.ID == b.ID && a.Threshold == b.Threshold && a.TotalShares == b.TotalShares && a.SecretLength == b.SecretLength
}

// checkShareSets validates every set and checks they belong to one split and hold distinct
// participants.
func checkShareSets(sets []secrets.ShareSet) error {
	if len(sets) == 0 {
		return fmt.Errorf("%w: no share sets supplied", secrets.ErrInsufficientShares)
	}
	first := sets[0].Metadata
	seen := make(map[int]int, len(sets))
	for i, set := range sets {
		if err := set.Validate(); err != nil {
			return err
		}
		if !sameSplit(first, set.Metadata) {
			return fmt.Errorf("%w: share set %d does not belong to split %s", secrets.ErrInconsistentParameters, set.Metadata.ShareIndex, first.ID)
		}
		if j, ok := seen[set.X()]; ok {
			return fmt.Errorf("%w: share sets %d and %d both hold x = %d", secrets.ErrDuplicateShare, j, i, set.X())
		}
		seen[set.X()] = i
	}
	return nil
}

// ReconstructFromShareSets rebuilds a multi-byte secret. The sets must come from one split
// and number at least its threshold; the first threshold sets are used.
func ReconstructFromShareSets(sets []secrets.ShareSet) ([]byte, error) {
	if err := checkShareSets(sets); err != nil {
		return nil, err
	}
	md := sets[0].Metadata
	if len(sets) < md.Threshold {
		return nil, fmt.Errorf("%w: have %d share sets, need %d", secrets.ErrInsufficientShares, len(sets), md.Threshold)
	}
	chosen := sets[:md.Threshold]
	xs := make([]byte, len(chosen))
	for i, set := range chosen {
		xs[i] = byte(set.X())
	}
	ys := make([]byte, len(chosen))
	defer secrets.Wipe(ys)
	secret := make([]byte, md.SecretLength)
	for pos := range secret {
		for i, set := range chosen {
			ys[i] = byte(set.Shares[pos].Y)
		}
		b, err := gf256.LagrangeInterpolate(xs, ys, 0)
		if err != nil {
			secrets.Wipe(secret)
			return nil, fmt.Errorf("byte %d: %w", pos, err)
		}
		secret[pos] = b
	}
	glog.V(1).Infof("Reconstructed %d-byte secret %s from %d share sets", md.SecretLength, md.ID, len(chosen))
	return secret, nil
}

// VerificationResult is the outcome of ReconstructWithVerification.
type VerificationResult struct {
	Success bool
	// Secret is only meaningful when Success is true.
	Secret byte
	// Err says why verification failed.
	Err error
}

// ReconstructWithVerification reconstructs from the first threshold shares and checks that
// every remaining share lies on the same polynomial. Problems are reported in the result
// rather than as an error, so the function can be run on untrusted share collections.
func ReconstructWithVerification(shares []secrets.Share, threshold int) VerificationResult {
	res := verify(shares, threshold)
	if !res.Success {
		glog.Warningf("Share verification failed: %v", res.Err)
	}
	return res
}

func verify(shares []secrets.Share, threshold int) VerificationResult {
	if threshold < polynomial.MinThreshold || threshold > polynomial.MaxPoints {
		return VerificationResult{Err: fmt.Errorf("%w: threshold must be in [%d, %d], got %d", secrets.ErrInvalidInput, polynomial.MinThreshold, polynomial.MaxPoints, threshold)}
	}
	if len(shares) < threshold {
		return VerificationResult{Err: fmt.Errorf("%w: have %d, need %d", secrets.ErrInsufficientShares, len(shares), threshold)}
	}
	if err := secrets.ValidateShares(shares); err != nil {
		return VerificationResult{Err: err}
	}
	xs, ys := coordinates(shares[:threshold])
	defer secrets.Wipe(ys)
	secret, err := gf256.LagrangeInterpolate(xs, ys, 0)
	if err != nil {
		return VerificationResult{Err: err}
	}
	var errs error
	for _, s := range shares[threshold:] {
		want, err := gf256.LagrangeInterpolate(xs, ys, byte(s.X))
		if err != nil {
			return VerificationResult{Err: err}
		}
		if int(want) != s.Y {
			errs = multierr.Append(errs, fmt.Errorf("%w: share x=%d is not on the polynomial of the first %d shares", ErrInconsistentReconstruction, s.X, threshold))
		}
	}
	if errs != nil {
		return VerificationResult{Err: errs}
	}
	return VerificationResult{Success: true, Secret: secret}
}

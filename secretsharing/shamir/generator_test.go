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

package shamir_test

import (
	"errors"
	"testing"
	"time"

	"github.com/GoogleCloudPlatform/sharekeeper/secretsharing/secrets"
	"github.com/GoogleCloudPlatform/sharekeeper/secretsharing/shamir"
	"github.com/GoogleCloudPlatform/sharekeeper/testutil"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestGenerateSharesScenario(t *testing.T) {
	gen := shamir.NewShareGenerator(testutil.SeededSource(t))
	shares, err := gen.GenerateShares(42, 3, 5)
	if err != nil {
		t.Fatalf("GenerateShares(42, 3, 5) err = %v, want nil", err)
	}
	for _, indices := range [][]int{{0, 2, 4}, {1, 3, 4}} {
		got, err := shamir.ReconstructSecret(testutil.PickShares(shares, indices...))
		if err != nil {
			t.Fatalf("ReconstructSecret(%v) err = %v, want nil", indices, err)
		}
		if got != 42 {
			t.Errorf("ReconstructSecret(%v) = %d, want 42", indices, got)
		}
	}
}

func TestAnyThresholdSubsetReconstructs(t *testing.T) {
	gen := shamir.NewShareGenerator(testutil.SeededSource(t))
	for _, tc := range []struct {
		threshold, total int
	}{
		{threshold: 2, total: 2},
		{threshold: 2, total: 4},
		{threshold: 3, total: 5},
		{threshold: 5, total: 7},
	} {
		for _, secret := range []int{0, 1, 42, 128, 255} {
			shares, err := gen.GenerateShares(secret, tc.threshold, tc.total)
			if err != nil {
				t.Fatalf("GenerateShares(%d, %d, %d) err = %v", secret, tc.threshold, tc.total, err)
			}
			for _, subset := range testutil.Combinations(tc.total, tc.threshold) {
				got, err := shamir.ReconstructSecret(testutil.PickShares(shares, subset...))
				if err != nil {
					t.Fatalf("ReconstructSecret(%v) err = %v", subset, err)
				}
				if int(got) != secret {
					t.Errorf("%d of %d split of %d: ReconstructSecret(%v) = %d", tc.threshold, tc.total, secret, subset, got)
				}
			}
			all, err := shamir.ReconstructSecret(shares)
			if err != nil || int(all) != secret {
				t.Errorf("ReconstructSecret(all %d shares) = %d, %v, want %d, nil", tc.total, all, err, secret)
			}
		}
	}
}

func TestGenerateSharesCoordinates(t *testing.T) {
	gen := shamir.NewShareGenerator(testutil.SeededSource(t))
	shares, err := gen.GenerateShares(7, 2, 255)
	if err != nil {
		t.Fatal(err)
	}
	for i, s := range shares {
		if !s.Valid() {
			t.Errorf("share %d = (%d, %d) is invalid", i, s.X, s.Y)
		}
		if i > 0 && s.X <= shares[i-1].X {
			t.Errorf("x-coordinates not strictly ascending at %d: %d after %d", i, s.X, shares[i-1].X)
		}
	}
}

func TestSharesAreIndependent(t *testing.T) {
	gen := shamir.NewShareGenerator(testutil.SeededSource(t))
	a, err := gen.GenerateShares(99, 3, 5)
	if err != nil {
		t.Fatal(err)
	}
	b, err := gen.GenerateShares(99, 3, 5)
	if err != nil {
		t.Fatal(err)
	}
	same := true
	for i := range a {
		if a[i].X != b[i].X || a[i].Y != b[i].Y {
			same = false
		}
	}
	if same {
		t.Errorf("two splits of the same secret produced identical shares %v", a)
	}
}

func TestGenerateSharesInvalidParameters(t *testing.T) {
	gen := shamir.NewShareGenerator(testutil.SeededSource(t))
	for _, tc := range []struct {
		name                     string
		secret, threshold, total int
	}{
		{name: "threshold too small", secret: 1, threshold: 1, total: 3},
		{name: "total below threshold", secret: 1, threshold: 4, total: 3},
		{name: "too many shares", secret: 1, threshold: 2, total: 256},
		{name: "negative secret", secret: -1, threshold: 2, total: 3},
		{name: "secret too large", secret: 256, threshold: 2, total: 3},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := gen.GenerateShares(tc.secret, tc.threshold, tc.total); !errors.Is(err, secrets.ErrValidation) {
				t.Errorf("GenerateShares(%d, %d, %d) err = %v, want %v", tc.secret, tc.threshold, tc.total, err, secrets.ErrValidation)
			}
		})
	}
}

func TestGenerateSecureShares(t *testing.T) {
	gen := shamir.NewShareGenerator(testutil.SeededSource(t))
	shares, err := gen.GenerateSecureShares(200, 3, 4, 0, "split-a")
	if err != nil {
		t.Fatal(err)
	}
	for i, s := range shares {
		if s.Version != secrets.DefaultVersion || s.Threshold != 3 || s.TotalShares != 4 || s.Identifier != "split-a" {
			t.Errorf("share %d parameters = (v%d, %d of %d, %q), want (v%d, 3 of 4, %q)", i, s.Version, s.Threshold, s.TotalShares, s.Identifier, secrets.DefaultVersion, "split-a")
		}
		if err := s.Verify(); err != nil {
			t.Errorf("share %d Verify() err = %v, want nil", i, err)
		}
	}
	got, err := shamir.ReconstructFromSecureShares(shares[1:])
	if err != nil || got != 200 {
		t.Errorf("ReconstructFromSecureShares() = %d, %v, want 200, nil", got, err)
	}
}

func TestGenerateShareSets(t *testing.T) {
	gen := shamir.NewShareGenerator(testutil.SeededSource(t))
	sets, err := gen.GenerateShareSets(testutil.TestSecret, 3, 5, testutil.TestDescription)
	if err != nil {
		t.Fatal(err)
	}
	if len(sets) != 5 {
		t.Fatalf("GenerateShareSets() returned %d sets, want 5", len(sets))
	}
	xs := map[int]bool{}
	for i, set := range sets {
		if err := set.Validate(); err != nil {
			t.Errorf("set %d Validate() err = %v", i, err)
		}
		md := set.Metadata
		want := secrets.ShareSetMetadata{
			ID:           sets[0].Metadata.ID,
			ShareIndex:   i + 1,
			Threshold:    3,
			TotalShares:  5,
			SecretLength: len(testutil.TestSecret),
			CreatedAt:    time.Now(),
			Description:  testutil.TestDescription,
		}
		if diff := cmp.Diff(want, md, cmpopts.EquateApproxTime(time.Minute)); diff != "" {
			t.Errorf("set %d metadata mismatch (-want +got):\n%s", i, diff)
		}
		if md.ID == "" || md.CreatedAt.Location() != time.UTC {
			t.Errorf("set %d id = %q, created at %v, want an id and a UTC time", i, md.ID, md.CreatedAt)
		}
		xs[set.X()] = true
	}
	if len(xs) != 5 {
		t.Errorf("share sets use %d distinct x-coordinates, want 5", len(xs))
	}
}

func TestGenerateShareSetsEmptySecret(t *testing.T) {
	gen := shamir.NewShareGenerator(testutil.SeededSource(t))
	if _, err := gen.GenerateShareSets(nil, 2, 3, ""); !errors.Is(err, secrets.ErrInvalidInput) {
		t.Errorf("GenerateShareSets(nil) err = %v, want %v", err, secrets.ErrInvalidInput)
	}
}

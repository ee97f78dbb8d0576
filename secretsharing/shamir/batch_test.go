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
	"context"
	"errors"
	"testing"

	"github.com/GoogleCloudPlatform/sharekeeper/secretsharing/secrets"
	"github.com/GoogleCloudPlatform/sharekeeper/secretsharing/shamir"
	"github.com/GoogleCloudPlatform/sharekeeper/testutil"
	"github.com/google/go-cmp/cmp"
)

func batchGroups(t *testing.T, values []int, threshold, total int) [][]secrets.Share {
	t.Helper()
	gen := shamir.NewShareGenerator(testutil.SeededSource(t))
	groups := make([][]secrets.Share, len(values))
	for i, v := range values {
		shares, err := gen.GenerateShares(v, threshold, total)
		if err != nil {
			t.Fatal(err)
		}
		groups[i] = shares[total-threshold:]
	}
	return groups
}

func TestBatchReconstructor(t *testing.T) {
	values := []int{0, 9, 255, 31, 31, 200, 1, 64, 128, 7}
	groups := batchGroups(t, values, 3, 5)
	want := make([]byte, len(values))
	for i, v := range values {
		want[i] = byte(v)
	}

	b := &shamir.BatchReconstructor{Parallelism: 3}
	got, err := b.ReconstructMultiple(groups, 3)
	if err != nil {
		t.Fatalf("ReconstructMultiple() err = %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ReconstructMultiple() mismatch (-want +got):\n%s", diff)
	}
	got, err = b.ReconstructParallel(context.Background(), groups, 3)
	if err != nil {
		t.Fatalf("ReconstructParallel() err = %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ReconstructParallel() mismatch (-want +got):\n%s", diff)
	}
}

func TestBatchReconstructorFailsOnInvalidGroup(t *testing.T) {
	groups := batchGroups(t, []int{1, 2, 3}, 2, 3)
	groups[1] = groups[1][:1]
	var b shamir.BatchReconstructor
	if _, err := b.ReconstructMultiple(groups, 2); !errors.Is(err, secrets.ErrInsufficientShares) {
		t.Errorf("ReconstructMultiple() err = %v, want %v", err, secrets.ErrInsufficientShares)
	}
	if _, err := b.ReconstructParallel(context.Background(), groups, 2); !errors.Is(err, secrets.ErrInsufficientShares) {
		t.Errorf("ReconstructParallel() err = %v, want %v", err, secrets.ErrInsufficientShares)
	}

	groups = batchGroups(t, []int{1, 2, 3}, 2, 3)
	groups[2] = []secrets.Share{groups[2][0], groups[2][0]}
	if _, err := b.ReconstructMultiple(groups, 2); !errors.Is(err, secrets.ErrDuplicateShare) {
		t.Errorf("ReconstructMultiple() err = %v, want %v", err, secrets.ErrDuplicateShare)
	}
}

func TestBatchReconstructorEmpty(t *testing.T) {
	var b shamir.BatchReconstructor
	got, err := b.ReconstructParallel(context.Background(), nil, 2)
	if err != nil || len(got) != 0 {
		t.Errorf("ReconstructParallel(nil) = %v, %v, want empty, nil", got, err)
	}
}

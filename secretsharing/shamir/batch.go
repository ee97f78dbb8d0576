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
	"context"
	"fmt"
	"runtime"

	"github.com/GoogleCloudPlatform/sharekeeper/secretsharing/secrets"
	glog "github.com/golang/glog"
	"golang.org/x/sync/errgroup"
)

// BatchReconstructor reconstructs many independent single-byte secrets.
type BatchReconstructor struct {
	// Parallelism bounds the goroutines used by ReconstructParallel. Zero means GOMAXPROCS.
	Parallelism int
}

func reconstructGroup(i int, group []secrets.Share, threshold int) (byte, error) {
	if len(group) < threshold {
		return 0, fmt.Errorf("group %d: %w: have %d, need %d", i, secrets.ErrInsufficientShares, len(group), threshold)
	}
	secret, err := ReconstructSecret(group)
	if err != nil {
		return 0, fmt.Errorf("group %d: %w", i, err)
	}
	return secret, nil
}

// ReconstructMultiple reconstructs each group in order and stops at the first group that
// fails validation.
func (b *BatchReconstructor) ReconstructMultiple(groups [][]secrets.Share, threshold int) ([]byte, error) {
	out := make([]byte, len(groups))
	for i, group := range groups {
		secret, err := reconstructGroup(i, group, threshold)
		if err != nil {
			return nil, err
		}
		out[i] = secret
	}
	return out, nil
}

// ReconstructParallel returns the same result as ReconstructMultiple but reconstructs
// groups concurrently. Results are in input order. If any group fails, one of the failures
// is returned.
func (b *BatchReconstructor) ReconstructParallel(ctx context.Context, groups [][]secrets.Share, threshold int) ([]byte, error) {
	limit := b.Parallelism
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	out := make([]byte, len(groups))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, group := range groups {
		i, group := i, group
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			secret, err := reconstructGroup(i, group, threshold)
			if err != nil {
				return err
			}
			out[i] = secret
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	glog.V(2).Infof("Reconstructed %d groups with parallelism %d", len(groups), limit)
	return out, nil
}

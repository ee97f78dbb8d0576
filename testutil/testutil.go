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

// Package testutil contains utilities for unit tests.
package testutil

import (
	"testing"

	"github.com/GoogleCloudPlatform/sharekeeper/secretsharing/secrets"
	"github.com/GoogleCloudPlatform/sharekeeper/secretsharing/securerandom"
)

var (
	// TestSecret is a short multi-byte secret.
	TestSecret = []byte("correct horse battery staple")
	// TestString is a secret containing multi-byte UTF-8 sequences.
	TestString = "Hello 世界 🌍"
	// TestDescription is attached to share sets created in tests.
	TestDescription = "test backup key"
)

// SeededSource returns a deterministic source keyed by the test's name, so reruns of the
// same test see the same values.
func SeededSource(t testing.TB) *securerandom.Source {
	t.Helper()
	return securerandom.NewSeeded([]byte(t.Name()))
}

// Combinations returns every k-element subset of {0, ..., n-1} in lexicographic order.
func Combinations(n, k int) [][]int {
	if k < 0 || k > n {
		return nil
	}
	var out [][]int
	cur := make([]int, 0, k)
	var walk func(start int)
	walk = func(start int) {
		if len(cur) == k {
			out = append(out, append([]int(nil), cur...))
			return
		}
		for i := start; i <= n-(k-len(cur)); i++ {
			cur = append(cur, i)
			walk(i + 1)
			cur = cur[:len(cur)-1]
		}
	}
	walk(0)
	return out
}

// PickShares returns the shares at the given indices.
func PickShares(shares []secrets.Share, indices ...int) []secrets.Share {
	out := make([]secrets.Share, len(indices))
	for i, idx := range indices {
		out[i] = shares[idx]
	}
	return out
}

// PickShareSets returns the share sets at the given indices.
func PickShareSets(sets []secrets.ShareSet, indices ...int) []secrets.ShareSet {
	out := make([]secrets.ShareSet, len(indices))
	for i, idx := range indices {
		out[i] = sets[idx]
	}
	return out
}

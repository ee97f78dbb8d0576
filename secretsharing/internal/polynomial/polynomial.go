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

// Package polynomial builds the random polynomials that encode secret bytes and picks the
// evaluation points handed to participants.
package polynomial

import (
	"fmt"

	"github.com/GoogleCloudPlatform/sharekeeper/secretsharing/internal/field/gf256"
	"github.com/GoogleCloudPlatform/sharekeeper/secretsharing/secrets"
)

const (
	// MinThreshold is the smallest threshold that hides the secret from a single holder.
	MinThreshold = 2
	// MaxPoints is the number of nonzero field elements available as x-coordinates.
	MaxPoints = 255
)

// Random is the randomness a Generator needs.
type Random interface {
	NextGF256Element() (byte, error)
	NextNonZeroGF256Element() (byte, error)
	UniqueIntegers(count, max int) ([]int, error)
}

// Generator creates sharing polynomials. It is safe for concurrent use if its Random is.
type Generator struct {
	rand Random
}

// NewGenerator returns a Generator drawing coefficients from r.
func NewGenerator(r Random) *Generator {
	return &Generator{rand: r}
}

// Generate returns coefficients of a polynomial of degree exactly threshold-1 whose constant
// term is secret:
// secret + R_1 * x^1 + R_2 * X^2 + ... + R_(t-1) * X^(t-1)
// The leading coefficient is never zero; a zero there would lower the threshold.
func (g *Generator) Generate(secret, threshold int) ([]byte, error) {
	if !gf256.IsValidElement(secret) {
		return nil, fmt.Errorf("%w: secret %d is not a field element", secrets.ErrInvalidInput, secret)
	}
	if threshold < MinThreshold || threshold > MaxPoints {
		return nil, fmt.Errorf("%w: threshold must be in [%d, %d], got %d", secrets.ErrInvalidInput, MinThreshold, MaxPoints, threshold)
	}
	coefficients := make([]byte, threshold)
	coefficients[0] = byte(secret)
	for i := 1; i < threshold-1; i++ {
		c, err := g.rand.NextGF256Element()
		if err != nil {
			return nil, err
		}
		coefficients[i] = c
	}
	lead, err := g.rand.NextNonZeroGF256Element()
	if err != nil {
		return nil, err
	}
	coefficients[threshold-1] = lead
	return coefficients, nil
}

// GenerateMultiple returns one independent polynomial per secret.
func (g *Generator) GenerateMultiple(secretValues []int, threshold int) ([][]byte, error) {
	out := make([][]byte, len(secretValues))
	for i, s := range secretValues {
		p, err := g.Generate(s, threshold)
		if err != nil {
			return nil, fmt.Errorf("polynomial %d: %w", i, err)
		}
		out[i] = p
	}
	return out, nil
}

// GenerateForBytes returns one independent polynomial per byte of secret.
func (g *Generator) GenerateForBytes(secret []byte, threshold int) ([][]byte, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("%w: secret must not be empty", secrets.ErrInvalidInput)
	}
	values := make([]int, len(secret))
	for i, b := range secret {
		values[i] = int(b)
	}
	return g.GenerateMultiple(values, threshold)
}

// EvaluationPoints returns n distinct nonzero field elements in ascending order.
func (g *Generator) EvaluationPoints(n int) ([]byte, error) {
	if n < 1 || n > MaxPoints {
		return nil, fmt.Errorf("%w: number of points must be in [1, %d], got %d", secrets.ErrInvalidInput, MaxPoints, n)
	}
	ints, err := g.rand.UniqueIntegers(n, MaxPoints)
	if err != nil {
		return nil, err
	}
	points := make([]byte, n)
	for i, v := range ints {
		points[i] = byte(v + 1)
	}
	return points, nil
}

// Evaluate returns the polynomial's value at x.
func Evaluate(coefficients []byte, x int) (byte, error) {
	return gf256.EvaluatePolynomial(coefficients, x)
}

// Validate checks that coefficients describe a polynomial of its full length's degree that
// a threshold scheme can use.
func Validate(coefficients []byte) error {
	if len(coefficients) == 0 {
		return fmt.Errorf("%w: polynomial has no coefficients", secrets.ErrInvalidInput)
	}
	if len(coefficients) > MaxPoints {
		return fmt.Errorf("%w: polynomial has %d coefficients, at most %d are usable", secrets.ErrInvalidInput, len(coefficients), MaxPoints)
	}
	if coefficients[len(coefficients)-1] == 0 {
		return fmt.Errorf("%w: leading coefficient is zero", secrets.ErrInvalidInput)
	}
	return nil
}

// Degree returns the index of the highest nonzero coefficient, -1 for an empty polynomial
// and 0 for the zero polynomial.
func Degree(coefficients []byte) int {
	if len(coefficients) == 0 {
		return -1
	}
	for i := len(coefficients) - 1; i > 0; i-- {
		if coefficients[i] != 0 {
			return i
		}
	}
	return 0
}

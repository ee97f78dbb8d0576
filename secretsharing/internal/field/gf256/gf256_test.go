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

package gf256_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/GoogleCloudPlatform/sharekeeper/secretsharing/internal/field/gf256"
	"github.com/GoogleCloudPlatform/sharekeeper/secretsharing/secrets"
)

func TestAdditionIsCommutativeAndSelfInverse(t *testing.T) {
	for a := 0; a < 256; a++ {
		for b := 0; b < 256; b++ {
			if gf256.Add(byte(a), byte(b)) != gf256.Add(byte(b), byte(a)) {
				t.Fatalf("Add(%d, %d) != Add(%d, %d)", a, b, b, a)
			}
		}
		if got := gf256.Add(byte(a), byte(a)); got != 0 {
			t.Fatalf("Add(%d, %d) = %d, want 0", a, a, got)
		}
	}
}

func TestSubtractionEqualsAddition(t *testing.T) {
	for _, tc := range [][2]byte{{0, 0}, {1, 2}, {0x53, 0xCA}, {255, 254}} {
		if got, want := gf256.Subtract(tc[0], tc[1]), tc[0]^tc[1]; got != want {
			t.Errorf("Subtract(%d, %d) = %d, want %d", tc[0], tc[1], got, want)
		}
	}
}

func TestMultiplication(t *testing.T) {
	for _, tc := range []struct {
		a    byte
		b    byte
		want byte
	}{
		// AES finite field examples:
		// https://en.wikipedia.org/wiki/Finite_field_arithmetic#Rijndael's_(AES)_finite_field
		{a: 0x53, b: 0xCA, want: 0x01},
		{a: 0x02, b: 0x87, want: 0x15},
		{a: 0x03, b: 0x6E, want: 0xB2},
		{a: 161, b: 56, want: 102},
		{a: 51, b: 82, want: 15},
		{a: 15, b: 30, want: 170},
		{a: 105, b: 27, want: 20},
		{a: 178, b: 160, want: 67},
		{a: 244, b: 118, want: 55},
		{a: 250, b: 221, want: 160},
		{a: 244, b: 34, want: 90},
		{a: 0, b: 34, want: 0},
		{a: 34, b: 0, want: 0},
		{a: 1, b: 77, want: 77},
	} {
		t.Run(fmt.Sprintf("%d * %d", tc.a, tc.b), func(t *testing.T) {
			if got := gf256.Multiply(tc.a, tc.b); got != tc.want {
				t.Errorf("Multiply(%d, %d) = %d, want %d", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestMultiplyByInverseIsOne(t *testing.T) {
	for a := 1; a < 256; a++ {
		inv, err := gf256.Divide(1, byte(a))
		if err != nil {
			t.Fatalf("Divide(1, %d) err = %v, want nil", a, err)
		}
		if got := gf256.Multiply(byte(a), inv); got != 1 {
			t.Fatalf("Multiply(%d, Divide(1, %d)) = %d, want 1", a, a, got)
		}
	}
}

func TestInverse(t *testing.T) {
	for _, tc := range []struct {
		a    byte
		want byte
	}{
		{a: 0x53, want: 0xCA},
		{a: 29, want: 64},
		{a: 180, want: 17},
		{a: 249, want: 156},
		{a: 186, want: 118},
		{a: 209, want: 7},
		{a: 233, want: 78},
		{a: 242, want: 56},
		{a: 1, want: 1},
	} {
		t.Run(fmt.Sprintf("inverse(%d)", tc.a), func(t *testing.T) {
			got, err := gf256.Inverse(tc.a)
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Errorf("Inverse(%d) = %d, want %d", tc.a, got, tc.want)
			}
		})
	}
}

func TestDivisionByZeroFails(t *testing.T) {
	if _, err := gf256.Divide(7, 0); !errors.Is(err, secrets.ErrDivisionByZero) {
		t.Errorf("Divide(7, 0) err = %v, want %v", err, secrets.ErrDivisionByZero)
	}
	if _, err := gf256.Inverse(0); !errors.Is(err, secrets.ErrValidation) {
		t.Errorf("Inverse(0) err = %v, want %v", err, secrets.ErrValidation)
	}
}

func TestDivideZeroNumerator(t *testing.T) {
	got, err := gf256.Divide(0, 9)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0 {
		t.Errorf("Divide(0, 9) = %d, want 0", got)
	}
}

func TestPower(t *testing.T) {
	for _, tc := range []struct {
		a    byte
		n    int
		want byte
	}{
		{a: 3, n: 0, want: 1},
		{a: 0, n: 0, want: 1},
		{a: 0, n: 5, want: 0},
		{a: 3, n: 1, want: 3},
		{a: 3, n: 3, want: 15},
		{a: 0x53, n: 255, want: 1},
		{a: 0x53, n: 254, want: 0xCA},
		{a: 0x53, n: -1, want: 0xCA},
		{a: 0x53, n: -255, want: 1},
		{a: 3, n: -3, want: gf256.Power(0xF6, 3)},
		{a: 0, n: -1, want: 0},
	} {
		if got := gf256.Power(tc.a, tc.n); got != tc.want {
			t.Errorf("Power(%d, %d) = %d, want %d", tc.a, tc.n, got, tc.want)
		}
	}
}

func TestNegativePowerIsInverse(t *testing.T) {
	for a := 1; a <= 255; a++ {
		inv, err := gf256.Inverse(byte(a))
		if err != nil {
			t.Fatalf("Inverse(%d) err = %v, want nil", a, err)
		}
		if got := gf256.Power(byte(a), -1); got != inv {
			t.Errorf("Power(%d, -1) = %d, want Inverse(%d) = %d", a, got, a, inv)
		}
		if got := gf256.Multiply(gf256.Power(byte(a), -7), gf256.Power(byte(a), 7)); got != 1 {
			t.Errorf("Power(%d, -7) * Power(%d, 7) = %d, want 1", a, a, got)
		}
	}
}

func TestEvaluatePolynomial(t *testing.T) {
	// f(x) = 42 + 3x
	coefficients := []byte{42, 3}
	for _, tc := range []struct {
		x    int
		want byte
	}{
		{x: 0, want: 42},
		{x: 1, want: 42 ^ 3},
		{x: 2, want: 42 ^ 6},
	} {
		got, err := gf256.EvaluatePolynomial(coefficients, tc.x)
		if err != nil {
			t.Fatalf("EvaluatePolynomial(%v, %d) err = %v, want nil", coefficients, tc.x, err)
		}
		if got != tc.want {
			t.Errorf("EvaluatePolynomial(%v, %d) = %d, want %d", coefficients, tc.x, got, tc.want)
		}
	}
}

func TestEvaluatePolynomialOutOfRangeFails(t *testing.T) {
	for _, x := range []int{-1, 256} {
		if _, err := gf256.EvaluatePolynomial([]byte{1, 2}, x); !errors.Is(err, secrets.ErrInvalidInput) {
			t.Errorf("EvaluatePolynomial(x=%d) err = %v, want %v", x, err, secrets.ErrInvalidInput)
		}
	}
}

func TestLagrangeInterpolateRecoversConstantTerm(t *testing.T) {
	coefficients := []byte{0xAB, 0x17, 0xC3}
	xs := []byte{7, 19, 200}
	ys := make([]byte, len(xs))
	for i, x := range xs {
		y, err := gf256.EvaluatePolynomial(coefficients, int(x))
		if err != nil {
			t.Fatal(err)
		}
		ys[i] = y
	}
	got, err := gf256.LagrangeInterpolate(xs, ys, 0)
	if err != nil {
		t.Fatal(err)
	}
	if got != coefficients[0] {
		t.Errorf("LagrangeInterpolate(at=0) = %d, want %d", got, coefficients[0])
	}

	want, err := gf256.EvaluatePolynomial(coefficients, 55)
	if err != nil {
		t.Fatal(err)
	}
	if got, err := gf256.LagrangeInterpolate(xs, ys, 55); err != nil || got != want {
		t.Errorf("LagrangeInterpolate(at=55) = %d, %v, want %d, nil", got, err, want)
	}
}

func TestLagrangeInterpolateOffLinePoint(t *testing.T) {
	got, err := gf256.LagrangeInterpolate([]byte{1, 2}, []byte{100, 150}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if got != 49 {
		t.Errorf("LagrangeInterpolate((1,100),(2,150), at=3) = %d, want 49", got)
	}
}

func TestLagrangeInterpolateFailures(t *testing.T) {
	for _, tc := range []struct {
		name    string
		xs, ys  []byte
		wantErr error
	}{
		{name: "duplicate x", xs: []byte{1, 1}, ys: []byte{3, 4}, wantErr: secrets.ErrDuplicateShare},
		{name: "length mismatch", xs: []byte{1, 2}, ys: []byte{3}, wantErr: secrets.ErrInvalidInput},
		{name: "empty", wantErr: secrets.ErrInvalidInput},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := gf256.LagrangeInterpolate(tc.xs, tc.ys, 0); !errors.Is(err, tc.wantErr) {
				t.Errorf("LagrangeInterpolate() err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestIsValidElement(t *testing.T) {
	for _, tc := range []struct {
		v    int
		want bool
	}{
		{v: -1, want: false},
		{v: 0, want: true},
		{v: 255, want: true},
		{v: 256, want: false},
	} {
		if got := gf256.IsValidElement(tc.v); got != tc.want {
			t.Errorf("IsValidElement(%d) = %v, want %v", tc.v, got, tc.want)
		}
	}
}

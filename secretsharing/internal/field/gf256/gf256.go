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

// Package gf256 implements arithmetic over GF(2^8) with the AES irreducible polynomial
// (x^8 + x^4 + x^3 + x + 1). Field elements are bytes; every operation stays inside [0, 255].
package gf256

import (
	"fmt"

	"github.com/GoogleCloudPlatform/sharekeeper/secretsharing/secrets"
)

// irreducible polynomial (x^8 + x^4 + x^3 + x + 1)
// (x^8 + x^4 + x^3 + x + 1) = {0x01 0x1B}
// we deal with uint8 so we only need 0x1B
const irreduciblePolynomial = 0x1B

// generator of the multiplicative group used to build the log tables.
const generator = 0x03

// Order is the number of elements in the multiplicative group.
const Order = 255

var (
	logTable [256]byte
	expTable [Order]byte
)

func init() {
	var x byte = 1
	for i := 0; i < Order; i++ {
		expTable[i] = x
		logTable[x] = byte(i)
		x = multiplyNoTable(x, generator)
	}
}

// multiplyNoTable multiplies without table lookups or data dependent branches. It is only
// used to build the log tables.
func multiplyNoTable(x, y byte) byte {
	var product uint8

	// Similar steps to:
	// https://en.wikipedia.org/wiki/Finite_field_arithmetic#Multiplication
	// Negating values produces a mask of either all zeros or ones.
	for i := 7; i >= 0; i-- {
		// if MSB in current product is set, mod is irreduciblePolynomial, else 0
		mod := (-(product >> 7)) & irreduciblePolynomial

		// multiply coefficient x[i] with every coefficient in y
		xiTimesY := -((x >> i) & 1) & y

		product = xiTimesY ^ mod ^ (product << 1)
	}
	return product
}

// IsValidElement reports whether v is an element of the field.
func IsValidElement(v int) bool {
	return v >= 0 && v <= 255
}

// Add returns a + b. Addition is XOR.
func Add(a, b byte) byte {
	return a ^ b
}

// Subtract returns a - b, which in characteristic 2 is the same as Add.
func Subtract(a, b byte) byte {
	return a ^ b
}

// Multiply returns a * b.
func Multiply(a, b byte) byte {
	if a == 0 || b == 0 {
		return 0
	}
	return expTable[(int(logTable[a])+int(logTable[b]))%Order]
}

// Divide returns a / b. Dividing by zero returns an error wrapping secrets.ErrDivisionByZero.
func Divide(a, b byte) (byte, error) {
	if b == 0 {
		return 0, fmt.Errorf("%w: %d / 0", secrets.ErrDivisionByZero, a)
	}
	if a == 0 {
		return 0, nil
	}
	return expTable[(int(logTable[a])-int(logTable[b])+Order)%Order], nil
}

// Inverse returns the multiplicative inverse of a.
func Inverse(a byte) (byte, error) {
	if a == 0 {
		return 0, fmt.Errorf("%w: inverse of zero is not defined", secrets.ErrDivisionByZero)
	}
	return Divide(1, a)
}

// Power returns a^n. Negative exponents are powers of the inverse, so Power(a, -1) is
// Inverse(a). 0^0 is 1 and 0 to any other power is 0.
func Power(a byte, n int) byte {
	if n == 0 {
		return 1
	}
	if a == 0 {
		return 0
	}
	e := (int(logTable[a]) * (n % Order)) % Order
	if e < 0 {
		e += Order
	}
	return expTable[e]
}

// EvaluatePolynomial evaluates the polynomial with coefficients c[0] + c[1]x + ... at x using
// Horner's method.
func EvaluatePolynomial(coefficients []byte, x int) (byte, error) {
	if !IsValidElement(x) {
		return 0, fmt.Errorf("%w: x = %d is not a field element", secrets.ErrInvalidInput, x)
	}
	var sum byte
	for i := len(coefficients) - 1; i >= 0; i-- {
		sum = Add(Multiply(sum, byte(x)), coefficients[i])
	}
	return sum, nil
}

// LagrangeInterpolate returns the value at `at` of the unique polynomial of degree
// len(xs)-1 passing through the points (xs[i], ys[i]):
// ∑i y[i] * ∏j≠i (x[j] - at) / (x[j] - x[i])
func LagrangeInterpolate(xs, ys []byte, at byte) (byte, error) {
	if len(xs) != len(ys) {
		return 0, fmt.Errorf("%w: got %d x values and %d y values", secrets.ErrInvalidInput, len(xs), len(ys))
	}
	if len(xs) == 0 {
		return 0, fmt.Errorf("%w: no points to interpolate", secrets.ErrInvalidInput)
	}
	var sum byte
	for i := range xs {
		var num, den byte = 1, 1
		for j := range xs {
			if i == j {
				continue
			}
			if xs[i] == xs[j] {
				return 0, fmt.Errorf("%w: x = %d appears more than once", secrets.ErrDuplicateShare, xs[i])
			}
			num = Multiply(num, Subtract(xs[j], at))
			den = Multiply(den, Subtract(xs[j], xs[i]))
		}
		basis, err := Divide(num, den)
		if err != nil {
			return 0, err
		}
		sum = Add(sum, Multiply(ys[i], basis))
	}
	return sum, nil
}

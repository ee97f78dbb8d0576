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

package secrets

import (
	"errors"
	"fmt"
)

// Error classes. Every error returned by the secret sharing packages wraps exactly one of
// these, so callers can branch with errors.Is.
var (
	// ErrValidation is returned for malformed parameters or inputs.
	ErrValidation = errors.New("validation error")
	// ErrIntegrity is returned when shares disagree with each other or with their checksums.
	ErrIntegrity = errors.New("integrity error")
	// ErrInsufficientShares is returned when fewer than threshold distinct valid shares are supplied.
	ErrInsufficientShares = errors.New("insufficient shares")
)

// Narrower errors, each wrapping one of the classes above.
var (
	ErrInvalidInput   = fmt.Errorf("%w: invalid input", ErrValidation)
	ErrInvalidShare   = fmt.Errorf("%w: invalid share", ErrValidation)
	ErrDivisionByZero = fmt.Errorf("%w: division by zero", ErrValidation)

	ErrDuplicateShare         = fmt.Errorf("%w: duplicate share x-coordinate", ErrIntegrity)
	ErrInconsistentParameters = fmt.Errorf("%w: inconsistent parameters", ErrIntegrity)
	ErrChecksumMismatch       = fmt.Errorf("%w: checksum mismatch", ErrIntegrity)
)

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

// Package shares reads and writes participant packages as files and fingerprints them for
// out-of-band confirmation.
package shares

import (
	"bytes"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/GoogleCloudPlatform/sharekeeper/constants"
	"github.com/GoogleCloudPlatform/sharekeeper/secretsharing/secrets"
	"github.com/GoogleCloudPlatform/sharekeeper/secretsharing/shamir"
	glog "github.com/golang/glog"
)

// PackageFileName returns the file name used for participant n.
func PackageFileName(n int) string {
	return fmt.Sprintf("%s%d%s", constants.ShareFilePrefix, n, constants.ShareFileSuffix)
}

// HashPackage performs a SHA-256 hash on the base64 envelope of a package.
func HashPackage(envelope []byte) []byte {
	hash := sha256.Sum256(bytes.TrimSpace(envelope))
	return hash[:]
}

// Fingerprint returns the hex SHA-256 of the package's base64 envelope. Participants can
// read it to each other to confirm they hold the package the dealer wrote.
func Fingerprint(pkg shamir.ParticipantPackage) (string, error) {
	enc, err := pkg.ToBase64()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(HashPackage([]byte(enc))), nil
}

// ValidateFingerprint reports whether fingerprint matches pkg. The comparison is constant
// time and ignores case.
func ValidateFingerprint(pkg shamir.ParticipantPackage, fingerprint string) bool {
	want, err := hex.DecodeString(strings.TrimSpace(fingerprint))
	if err != nil {
		return false
	}
	enc, err := pkg.ToBase64()
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(HashPackage([]byte(enc)), want) == 1
}

// WritePackages writes one file per package into dir, creating dir if needed, and returns
// the paths in package order. Existing files are not overwritten.
func WritePackages(dir string, pkgs []shamir.ParticipantPackage) ([]string, error) {
	if err := os.MkdirAll(dir, constants.ShareDirMode); err != nil {
		return nil, fmt.Errorf("failed to create share directory: %w", err)
	}
	paths := make([]string, 0, len(pkgs))
	for _, pkg := range pkgs {
		enc, err := pkg.ToBase64()
		if err != nil {
			return nil, err
		}
		path := filepath.Join(dir, PackageFileName(pkg.ParticipantNumber))
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, constants.ShareFileMode)
		if err != nil {
			return nil, fmt.Errorf("failed to create package file: %w", err)
		}
		if _, err := f.WriteString(enc + "\n"); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write package file %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return nil, fmt.Errorf("failed to close package file %s: %w", path, err)
		}
		glog.V(1).Infof("Wrote package for participant %d to %s", pkg.ParticipantNumber, path)
		paths = append(paths, path)
	}
	return paths, nil
}

// ReadPackage reads and validates a package file written by WritePackages.
func ReadPackage(path string) (shamir.ParticipantPackage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return shamir.ParticipantPackage{}, fmt.Errorf("failed to read package file: %w", err)
	}
	pkg, err := shamir.PackageFromBase64(string(bytes.TrimSpace(data)))
	if err != nil {
		return shamir.ParticipantPackage{}, fmt.Errorf("package file %s: %w", path, err)
	}
	return pkg, nil
}

// ReadPackages reads every file in paths.
func ReadPackages(paths []string) ([]shamir.ParticipantPackage, error) {
	pkgs := make([]shamir.ParticipantPackage, 0, len(paths))
	for _, path := range paths {
		pkg, err := ReadPackage(path)
		if err != nil {
			return nil, err
		}
		pkgs = append(pkgs, pkg)
	}
	return pkgs, nil
}

// ReadShareSets reads package files holding multi-byte share sets.
func ReadShareSets(paths []string) ([]secrets.ShareSet, error) {
	pkgs, err := ReadPackages(paths)
	if err != nil {
		return nil, err
	}
	sets := make([]secrets.ShareSet, 0, len(pkgs))
	for i, pkg := range pkgs {
		if pkg.ShareSet == nil {
			return nil, fmt.Errorf("%w: %s holds a single-byte share, not a share set", secrets.ErrInvalidInput, paths[i])
		}
		sets = append(sets, *pkg.ShareSet)
	}
	return sets, nil
}

// FindPackages returns the package files in dir, ordered by name.
func FindPackages(dir string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, constants.ShareFilePrefix+"*"+constants.ShareFileSuffix))
	if err != nil {
		return nil, err
	}
	return paths, nil
}

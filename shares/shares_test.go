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

package shares

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/GoogleCloudPlatform/sharekeeper/secretsharing/secrets"
	"github.com/GoogleCloudPlatform/sharekeeper/secretsharing/shamir"
	"github.com/GoogleCloudPlatform/sharekeeper/testutil"
	"github.com/google/go-cmp/cmp"
)

func testPackages(t *testing.T) []shamir.ParticipantPackage {
	t.Helper()
	res, err := shamir.New(testutil.SeededSource(t)).SplitString(testutil.TestString, 2, 3, shamir.WithDescription(testutil.TestDescription))
	if err != nil {
		t.Fatal(err)
	}
	return res.CreateDistributionPackages()
}

func TestWriteAndReadPackages(t *testing.T) {
	pkgs := testPackages(t)
	dir := filepath.Join(t.TempDir(), "out")

	paths, err := WritePackages(dir, pkgs)
	if err != nil {
		t.Fatalf("WritePackages() err = %v", err)
	}
	wantPaths := []string{
		filepath.Join(dir, "participant-1.share"),
		filepath.Join(dir, "participant-2.share"),
		filepath.Join(dir, "participant-3.share"),
	}
	if diff := cmp.Diff(wantPaths, paths); diff != "" {
		t.Errorf("WritePackages() paths mismatch (-want +got):\n%s", diff)
	}
	found, err := FindPackages(dir)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(wantPaths, found); diff != "" {
		t.Errorf("FindPackages() mismatch (-want +got):\n%s", diff)
	}

	info, err := os.Stat(paths[0])
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("package file mode = %o, want 600", perm)
	}

	got, err := ReadPackages(paths)
	if err != nil {
		t.Fatalf("ReadPackages() err = %v", err)
	}
	if diff := cmp.Diff(pkgs, got); diff != "" {
		t.Errorf("ReadPackages() mismatch (-want +got):\n%s", diff)
	}

	sets, err := ReadShareSets(paths[1:])
	if err != nil {
		t.Fatalf("ReadShareSets() err = %v", err)
	}
	secret, err := shamir.New(testutil.SeededSource(t)).CombineString(sets)
	if err != nil || secret != testutil.TestString {
		t.Errorf("CombineString(read sets) = %q, %v, want %q, nil", secret, err, testutil.TestString)
	}
}

func TestWritePackagesDoesNotOverwrite(t *testing.T) {
	pkgs := testPackages(t)
	dir := t.TempDir()
	if _, err := WritePackages(dir, pkgs); err != nil {
		t.Fatal(err)
	}
	if _, err := WritePackages(dir, pkgs); !errors.Is(err, os.ErrExist) {
		t.Errorf("second WritePackages() err = %v, want %v", err, os.ErrExist)
	}
}

func TestReadPackageFailures(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.share")
	if err := os.WriteFile(garbage, []byte("not a package"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadPackage(garbage); !errors.Is(err, secrets.ErrInvalidInput) {
		t.Errorf("ReadPackage(garbage) err = %v, want %v", err, secrets.ErrInvalidInput)
	}
	if _, err := ReadPackage(filepath.Join(dir, "missing.share")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("ReadPackage(missing) err = %v, want %v", err, os.ErrNotExist)
	}

	res, err := shamir.New(testutil.SeededSource(t)).SplitByte(1, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	paths, err := WritePackages(filepath.Join(dir, "byte"), res.CreateDistributionPackages())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ReadShareSets(paths); !errors.Is(err, secrets.ErrInvalidInput) {
		t.Errorf("ReadShareSets(single-byte packages) err = %v, want %v", err, secrets.ErrInvalidInput)
	}
}

func TestFingerprintIsVerifiedByValidateFingerprint(t *testing.T) {
	pkgs := testPackages(t)
	fp, err := Fingerprint(pkgs[0])
	if err != nil {
		t.Fatal(err)
	}
	if len(fp) != 64 {
		t.Errorf("Fingerprint() = %q, want 64 hex characters", fp)
	}
	if !ValidateFingerprint(pkgs[0], fp) {
		t.Errorf("ValidateFingerprint(pkg, Fingerprint(pkg)) = false, want true")
	}
	if !ValidateFingerprint(pkgs[0], strings.ToUpper(fp)) {
		t.Errorf("ValidateFingerprint() is case sensitive")
	}
}

func TestValidateFingerprintFailsForOtherPackage(t *testing.T) {
	pkgs := testPackages(t)
	fp0, err := Fingerprint(pkgs[0])
	if err != nil {
		t.Fatal(err)
	}
	fp1, err := Fingerprint(pkgs[1])
	if err != nil {
		t.Fatal(err)
	}
	if fp0 == fp1 {
		t.Fatalf("different packages share fingerprint %s", fp0)
	}
	if ValidateFingerprint(pkgs[0], fp1) {
		t.Errorf("ValidateFingerprint(pkg0, Fingerprint(pkg1)) = true, want false")
	}
	if ValidateFingerprint(pkgs[0], "zz") {
		t.Errorf("ValidateFingerprint(non-hex) = true, want false")
	}
}

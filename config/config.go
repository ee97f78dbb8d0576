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

// Package config loads the sharekeeper YAML configuration.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/GoogleCloudPlatform/sharekeeper/constants"
	"github.com/GoogleCloudPlatform/sharekeeper/secretsharing/secrets"
	"github.com/GoogleCloudPlatform/sharekeeper/secretsharing/securerandom"
	glog "github.com/golang/glog"
	"sigs.k8s.io/yaml"
)

// Entropy sources accepted in the `entropy` field.
const (
	EntropySoftware = "software"
	EntropyTPM      = "tpm"
)

// Config holds defaults for the sharekeeper CLI. Flags override every field.
type Config struct {
	Threshold   int    `json:"threshold"`
	TotalShares int    `json:"totalShares"`
	ShareDir    string `json:"shareDir,omitempty"`
	Description string `json:"description,omitempty"`
	Entropy     string `json:"entropy,omitempty"`
	TPMDevice   string `json:"tpmDevice,omitempty"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Threshold:   constants.DefaultThreshold,
		TotalShares: constants.DefaultTotalShares,
		ShareDir:    ".",
		Entropy:     EntropySoftware,
		TPMDevice:   securerandom.DefaultTPMDevice,
	}
}

// DefaultPath returns <UserConfigDir>/sharekeeper.yaml.
func DefaultPath() string {
	cfgDir, err := os.UserConfigDir()
	if err != nil {
		glog.Errorf("Failed to get config directory location: %v", err.Error())
	}
	return filepath.Join(cfgDir, constants.DefaultConfigName)
}

// Parse reads YAML on top of Default and validates the result.
func Parse(yamlBytes []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.UnmarshalStrict(yamlBytes, cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", secrets.ErrInvalidInput, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads the file at path. A missing file yields Default.
func Load(path string) (*Config, error) {
	yamlBytes, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		glog.V(1).Infof("No config file at %s, using defaults", path)
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(yamlBytes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks 2 <= threshold <= totalShares <= 255 and the entropy source.
func (c *Config) Validate() error {
	if c.Threshold < 2 || c.TotalShares < c.Threshold || c.TotalShares > 255 {
		return fmt.Errorf("%w: threshold %d of %d shares", secrets.ErrInvalidInput, c.Threshold, c.TotalShares)
	}
	switch c.Entropy {
	case EntropySoftware:
	case EntropyTPM:
		if c.TPMDevice == "" {
			return fmt.Errorf("%w: entropy %q needs tpmDevice", secrets.ErrInvalidInput, c.Entropy)
		}
	default:
		return fmt.Errorf("%w: unknown entropy source %q", secrets.ErrInvalidInput, c.Entropy)
	}
	return nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// RandomSource returns the source selected by Entropy. The returned Closer releases the
// TPM, if one was opened, and must be called once the source is no longer used.
func (c *Config) RandomSource() (*securerandom.Source, io.Closer, error) {
	if c.Entropy != EntropyTPM {
		return securerandom.New(), nopCloser{}, nil
	}
	tpm, err := securerandom.OpenTPMEntropy(c.TPMDevice)
	if err != nil {
		return nil, nil, err
	}
	glog.V(1).Infof("Using TPM entropy from %s", c.TPMDevice)
	return securerandom.NewFromReader(tpm), tpm, nil
}

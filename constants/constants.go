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

// Package constants contains constants shared by the library, the CLI and the share files.
package constants

// Version is displayed by the `version` subcommand.
const Version = "0.1.0"

// DefaultConfigName is the name of the configuration file in the user config directory.
const DefaultConfigName = "sharekeeper.yaml"

// ShareFileSuffix is appended to participant package files.
const ShareFileSuffix = ".share"

// ShareFilePrefix starts every participant package file name, followed by the 1-based
// participant number.
const ShareFilePrefix = "participant-"

// ShareFileMode restricts package files to their owner.
const ShareFileMode = 0o600

// ShareDirMode is used when the output directory has to be created.
const ShareDirMode = 0o700

// DefaultThreshold and DefaultTotalShares are used when neither flags nor configuration
// set them.
const (
	DefaultThreshold   = 2
	DefaultTotalShares = 3
)

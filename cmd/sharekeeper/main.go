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

// This binary is the main entrypoint for the sharekeeper command line tool.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"flag"
	"github.com/GoogleCloudPlatform/sharekeeper/config"
	"github.com/GoogleCloudPlatform/sharekeeper/constants"
	"github.com/GoogleCloudPlatform/sharekeeper/secretsharing/secretkind"
	"github.com/GoogleCloudPlatform/sharekeeper/secretsharing/secrets"
	"github.com/GoogleCloudPlatform/sharekeeper/secretsharing/shamir"
	"github.com/GoogleCloudPlatform/sharekeeper/shares"
	"github.com/alecthomas/colour"
	glog "github.com/golang/glog"
	"github.com/google/subcommands"
)

var (
	stdin  io.Reader = os.Stdin
	stdout io.Writer = os.Stdout
)

func readInput(name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(name)
}

// packagePaths returns the files named on the command line, or every package file in dir.
func packagePaths(f *flag.FlagSet, dir string) ([]string, error) {
	if f.NArg() > 0 {
		return f.Args(), nil
	}
	paths, err := shares.FindPackages(dir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no package files given and none found in %s", dir)
	}
	return paths, nil
}

// splitCmd handles CLI options for the split command.
type splitCmd struct {
	configFile  string
	threshold   int
	totalShares int
	description string
	outDir      string
	asString    bool
	quiet       bool
}

func (*splitCmd) Name() string { return "split" }
func (*splitCmd) Synopsis() string {
	return "splits a secret into participant package files"
}
func (*splitCmd) Usage() string {
	return fmt.Sprintf(`Usage: sharekeeper split [--config-file=<config_file>] [--threshold=<k>] [--shares=<n>] [--description=<text>] [--out-dir=<dir>] [--string] <secret_file>

Splits the contents of <secret_file> into n participant packages, any k of which recover it.
Settings not given as flags are read from %s.

Example:
  Split a key into 5 packages, 3 of which are needed to recover it:
    $ sharekeeper split --threshold=3 --shares=5 --out-dir=packages key.bin
    Wrote packages/participant-1.share  fingerprint 3f9a...
    ...

  Split a passphrase read from stdin:
    $ echo -n "correct horse" | sharekeeper split --string -

Flags:
`, config.DefaultPath())
}
func (s *splitCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&s.configFile, "config-file", config.DefaultPath(), "Path to a sharekeeper YAML file. Optional.")
	f.IntVar(&s.threshold, "threshold", 0, "Number of packages needed to recover the secret. Overrides the config file.")
	f.IntVar(&s.totalShares, "shares", 0, "Number of packages to create. Overrides the config file.")
	f.StringVar(&s.description, "description", "", "Description stored in every package. Overrides the config file.")
	f.StringVar(&s.outDir, "out-dir", "", "Directory for the package files. Overrides the config file.")
	f.BoolVar(&s.asString, "string", false, "Treat the secret as UTF-8 text; a single trailing newline is dropped.")
	f.BoolVar(&s.quiet, "quiet", false, "Suppress output other than errors.")
}

func (s *splitCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := config.Load(s.configFile)
	if err != nil {
		glog.Errorf("Failed to load config: %v", err.Error())
		return subcommands.ExitFailure
	}
	if s.threshold != 0 {
		cfg.Threshold = s.threshold
	}
	if s.totalShares != 0 {
		cfg.TotalShares = s.totalShares
	}
	if s.description != "" {
		cfg.Description = s.description
	}
	if s.outDir != "" {
		cfg.ShareDir = s.outDir
	}
	if err := cfg.Validate(); err != nil {
		glog.Errorf("Invalid settings: %v", err.Error())
		return subcommands.ExitFailure
	}

	if f.NArg() != 1 {
		glog.Errorf("Expected exactly one secret file argument, got %d", f.NArg())
		return subcommands.ExitUsageError
	}
	secret, err := readInput(f.Arg(0))
	if err != nil {
		glog.Errorf("Failed to read secret: %v", err.Error())
		return subcommands.ExitFailure
	}
	defer secrets.Wipe(secret)

	src, closer, err := cfg.RandomSource()
	if err != nil {
		glog.Errorf("Failed to open entropy source: %v", err.Error())
		return subcommands.ExitFailure
	}
	defer closer.Close()
	defer src.SecureClear()

	sk := shamir.New(src)
	var res *shamir.SplitResult
	if s.asString {
		res, err = sk.SplitString(strings.TrimSuffix(string(secret), "\n"), cfg.Threshold, cfg.TotalShares, shamir.WithDescription(cfg.Description))
	} else {
		res, err = sk.SplitBytes(secret, cfg.Threshold, cfg.TotalShares, shamir.WithDescription(cfg.Description))
	}
	if err != nil {
		glog.Errorf("Failed to split secret: %v", err.Error())
		return subcommands.ExitFailure
	}

	pkgs := res.CreateDistributionPackages()
	paths, err := shares.WritePackages(cfg.ShareDir, pkgs)
	if err != nil {
		glog.Errorf("Failed to write packages: %v", err.Error())
		return subcommands.ExitFailure
	}
	if s.quiet {
		return subcommands.ExitSuccess
	}
	for i, path := range paths {
		fp, err := shares.Fingerprint(pkgs[i])
		if err != nil {
			glog.Errorf("Failed to fingerprint package %d: %v", pkgs[i].ParticipantNumber, err.Error())
			return subcommands.ExitFailure
		}
		colour.Fprintf(stdout, "^2Wrote^R %s  fingerprint %s\n", path, fp)
	}
	fmt.Fprintf(stdout, "Any %d of the %d packages recover the secret.\n", cfg.Threshold, cfg.TotalShares)
	return subcommands.ExitSuccess
}

// combineCmd handles CLI options for the combine command.
type combineCmd struct {
	configFile string
	outFile    string
	asString   bool
}

func (*combineCmd) Name() string { return "combine" }
func (*combineCmd) Synopsis() string {
	return "recovers a secret from participant package files"
}
func (*combineCmd) Usage() string {
	return `Usage: sharekeeper combine [--config-file=<config_file>] [--out=<file>] [--string] [<package_file>...]

Recovers the secret from at least threshold package files. Without arguments, every package
file in the configured share directory is used.

Example:
    $ sharekeeper combine --out=key.bin participant-1.share participant-4.share participant-5.share

Flags:
`
}
func (c *combineCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.configFile, "config-file", config.DefaultPath(), "Path to a sharekeeper YAML file. Optional.")
	f.StringVar(&c.outFile, "out", "-", "File to write the secret to, or - for stdout.")
	f.BoolVar(&c.asString, "string", false, "Print the secret as UTF-8 text even if it was not split as a string.")
}

func combinePackages(pkgs []shamir.ParticipantPackage) ([]byte, error) {
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("%w: no packages", secrets.ErrInsufficientShares)
	}
	first := pkgs[0]
	if first.Share != nil {
		flat := make([]secrets.Share, 0, len(pkgs))
		for _, p := range pkgs {
			if p.Share == nil {
				return nil, fmt.Errorf("%w: participant %d holds a share set, participant %d a single share", secrets.ErrInconsistentParameters, p.ParticipantNumber, first.ParticipantNumber)
			}
			flat = append(flat, *p.Share)
		}
		if len(flat) < first.Threshold {
			return nil, fmt.Errorf("%w: have %d, need %d", secrets.ErrInsufficientShares, len(flat), first.Threshold)
		}
		b, err := shamir.ReconstructSecret(flat)
		if err != nil {
			return nil, err
		}
		return []byte{b}, nil
	}

	session, err := shamir.NewSession(first.Threshold)
	if err != nil {
		return nil, err
	}
	for _, p := range pkgs {
		if p.ShareSet == nil {
			return nil, fmt.Errorf("%w: participant %d holds a single share, participant %d a share set", secrets.ErrInconsistentParameters, p.ParticipantNumber, first.ParticipantNumber)
		}
		if err := session.AddShareSet(*p.ShareSet); err != nil {
			return nil, fmt.Errorf("participant %d: %w", p.ParticipantNumber, err)
		}
	}
	return session.Secret()
}

func (c *combineCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := config.Load(c.configFile)
	if err != nil {
		glog.Errorf("Failed to load config: %v", err.Error())
		return subcommands.ExitFailure
	}
	paths, err := packagePaths(f, cfg.ShareDir)
	if err != nil {
		glog.Errorf("Failed to find packages: %v", err.Error())
		return subcommands.ExitUsageError
	}
	pkgs, err := shares.ReadPackages(paths)
	if err != nil {
		glog.Errorf("Failed to read packages: %v", err.Error())
		return subcommands.ExitFailure
	}
	secret, err := combinePackages(pkgs)
	if err != nil {
		glog.Errorf("Failed to recover secret: %v", err.Error())
		return subcommands.ExitFailure
	}
	defer secrets.Wipe(secret)

	_, isString := pkgs[0].Descriptor.(secretkind.StringSecret)
	out := secret
	if c.asString || isString {
		text, err := shamir.DecodeString(secret)
		if err != nil {
			glog.Errorf("Failed to decode secret: %v", err.Error())
			return subcommands.ExitFailure
		}
		out = []byte(text + "\n")
		defer secrets.Wipe(out)
	}

	if c.outFile == "-" {
		if _, err := stdout.Write(out); err != nil {
			glog.Errorf("Failed to write secret: %v", err.Error())
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}
	if err := os.WriteFile(c.outFile, out, constants.ShareFileMode); err != nil {
		glog.Errorf("Failed to write secret: %v", err.Error())
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// verifyCmd handles CLI options for the verify command.
type verifyCmd struct {
	configFile string
}

func (*verifyCmd) Name() string { return "verify" }
func (*verifyCmd) Synopsis() string {
	return "checks that package files are enough to recover a secret, without recovering it"
}
func (*verifyCmd) Usage() string {
	return `Usage: sharekeeper verify [--config-file=<config_file>] [<package_file>...]

Reads the package files and reports whether they are valid, belong to one split and number at
least the threshold. The secret is never reconstructed.

Flags:
`
}
func (v *verifyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&v.configFile, "config-file", config.DefaultPath(), "Path to a sharekeeper YAML file. Optional.")
}

func (v *verifyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := config.Load(v.configFile)
	if err != nil {
		glog.Errorf("Failed to load config: %v", err.Error())
		return subcommands.ExitFailure
	}
	paths, err := packagePaths(f, cfg.ShareDir)
	if err != nil {
		glog.Errorf("Failed to find packages: %v", err.Error())
		return subcommands.ExitUsageError
	}
	ok := true
	var flat []secrets.Share
	var session *shamir.Session
	threshold := 0
	for _, path := range paths {
		pkg, err := shares.ReadPackage(path)
		if err != nil {
			colour.Fprintf(stdout, "^1 - %s: %v^R\n", path, err)
			ok = false
			continue
		}
		if threshold == 0 {
			threshold = pkg.Threshold
		}
		if pkg.Share != nil {
			flat = append(flat, *pkg.Share)
		} else {
			if session == nil {
				if session, err = shamir.NewSession(pkg.Threshold); err != nil {
					colour.Fprintf(stdout, "^1 - %s: %v^R\n", path, err)
					ok = false
					continue
				}
			}
			if err := session.AddShareSet(*pkg.ShareSet); err != nil {
				colour.Fprintf(stdout, "^1 - %s: %v^R\n", path, err)
				ok = false
				continue
			}
		}
		colour.Fprintf(stdout, "^2 - %s: participant %d of %d^R\n", path, pkg.ParticipantNumber, pkg.TotalParticipants)
	}

	switch {
	case session != nil && len(flat) > 0:
		colour.Fprintf(stdout, "^1Packages mix single-byte shares and share sets^R\n")
		ok = false
	case session != nil:
		st := session.Status()
		if st.CanReconstruct {
			colour.Fprintf(stdout, "^2Participants %v of split %s can recover the secret (threshold %d)^R\n", st.ShareIndices, st.ID, st.Threshold)
		} else {
			colour.Fprintf(stdout, "^1Need %d more of split %s (threshold %d)^R\n", st.SharesNeeded, st.ID, st.Threshold)
			ok = false
		}
	case len(flat) > 0:
		if shamir.CanReconstruct(flat, threshold) {
			colour.Fprintf(stdout, "^2%d shares can recover the secret (threshold %d)^R\n", len(flat), threshold)
		} else {
			colour.Fprintf(stdout, "^1%d shares cannot recover the secret (threshold %d)^R\n", len(flat), threshold)
			ok = false
		}
	default:
		ok = false
	}
	if !ok {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// instructionsCmd handles CLI options for the instructions command.
type instructionsCmd struct{}

func (*instructionsCmd) Name() string { return "instructions" }
func (*instructionsCmd) Synopsis() string {
	return "prints the instructions for a participant package"
}
func (*instructionsCmd) Usage() string {
	return "Usage: sharekeeper instructions <package_file>\n"
}
func (*instructionsCmd) SetFlags(*flag.FlagSet) {}
func (*instructionsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		glog.Errorf("Expected exactly one package file argument, got %d", f.NArg())
		return subcommands.ExitUsageError
	}
	pkg, err := shares.ReadPackage(f.Arg(0))
	if err != nil {
		glog.Errorf("Failed to read package: %v", err.Error())
		return subcommands.ExitFailure
	}
	fp, err := shares.Fingerprint(pkg)
	if err != nil {
		glog.Errorf("Failed to fingerprint package: %v", err.Error())
		return subcommands.ExitFailure
	}
	fmt.Fprint(stdout, pkg.Instructions())
	fmt.Fprintf(stdout, "\nPackage fingerprint: %s\n", fp)
	return subcommands.ExitSuccess
}

// versionCmd handles CLI options for the version command.
type versionCmd struct{}

func (*versionCmd) Name() string           { return "version" }
func (*versionCmd) Synopsis() string       { return "prints the current version" }
func (*versionCmd) Usage() string          { return "Usage: sharekeeper version" }
func (*versionCmd) SetFlags(*flag.FlagSet) {}
func (*versionCmd) Execute(context.Context, *flag.FlagSet, ...interface{}) subcommands.ExitStatus {
	fmt.Fprintf(stdout, "sharekeeper version %s\n", constants.Version)
	return subcommands.ExitSuccess
}

func main() {
	flag.Parse()

	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(&splitCmd{}, "")
	subcommands.Register(&combineCmd{}, "")
	subcommands.Register(&verifyCmd{}, "")
	subcommands.Register(&instructionsCmd{}, "")
	subcommands.Register(&versionCmd{}, "")

	ctx := context.Background()
	os.Exit(int(subcommands.Execute(ctx)))
}

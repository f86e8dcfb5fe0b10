/*
Package config defines the storage engine's construction-time settings: a
plain Config struct holding every knob named in SPEC_FULL.md §6, a Default
constructor, a Validate that enforces the invalid-configuration failures
fast at construction, and a convenience YAML file loader.

This mirrors the teacher's manifest-loading convention (decode a file into
a typed struct with gopkg.in/yaml.v3) and pkg/manager's plain-struct-of-knobs
shape, scaled down to a single process with no cluster topology to describe.

# Usage

Defaults:

	cfg := config.Default()

Loading a file on top of the defaults:

	cfg, err := config.LoadFile("nebulastore.yaml")
	if err != nil {
		// err is a *types.StorageError with Kind storage-initialization
		// (file unreadable) or invalid-configuration (bad value or failed
		// Validate).
	}

Validating a hand-built Config before passing it to the storage manager:

	cfg := config.Default()
	cfg.ChannelCount = 16
	if err := cfg.Validate(); err != nil {
		log.Fatal(err.Error())
	}

# What Validate checks

  - ChannelCount is a power of two
  - DataFileMinSize < DataFileMaxSize, both positive
  - MinimumUseRatio is in [0, 1]
  - HousekeepingTimeBudgetNS is positive and does not exceed MaximumTimeBudgetNS
  - StorageDir is non-empty
  - DistributionStrategy is one of the five recognized strategies

# Non-goals

This package loads one file into one struct. Environment variable overlays,
secrets injection, and hot reload are explicitly out of scope per SPEC_FULL.md
§4.12 — a host application wanting those wraps this package, it does not
ask this package to grow them.
*/
package config

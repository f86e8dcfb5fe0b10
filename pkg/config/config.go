package config

import (
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/nebulastore/store/pkg/types"
)

// Config holds every construction-time knob recognized by the storage
// engine, per SPEC_FULL.md §6. There is no environment-overlay, secrets
// injection, or hot-reload layer here — loading a file is a convenience,
// not a configuration-management system.
type Config struct {
	// ChannelCount is the fan-out of storage channels. Must be a power of
	// two. Default: the number of logical CPUs, rounded up to a power of two.
	ChannelCount int `yaml:"channel_count"`

	// StorageDir is the root of the on-disk layout (§6).
	StorageDir string `yaml:"storage_dir"`

	// ChannelDirPrefix names each channel's subdirectory: "<prefix><i>".
	ChannelDirPrefix string `yaml:"channel_dir_prefix"`

	// HousekeepingIntervalMS is how often the housekeeping scheduler wakes.
	HousekeepingIntervalMS int64 `yaml:"housekeeping_interval_ms"`

	// HousekeepingTimeBudgetNS is the baseline time budget per housekeeping
	// cycle, split across GC / file check / cache check.
	HousekeepingTimeBudgetNS int64 `yaml:"housekeeping_time_budget_ns"`

	// MaximumTimeBudgetNS caps the adaptive growth of the housekeeping budget.
	MaximumTimeBudgetNS int64 `yaml:"maximum_time_budget_ns"`

	// IncreaseThreshold is how many consecutive under-budget cycles trigger
	// a budget increase.
	IncreaseThreshold int `yaml:"increase_threshold"`

	// IncreaseAmountNS is added to the budget each time IncreaseThreshold is hit.
	IncreaseAmountNS int64 `yaml:"increase_amount_ns"`

	// DataFileMinSize / DataFileMaxSize bound rollover and cleanup eligibility.
	DataFileMinSize int64 `yaml:"data_file_min_size"`
	DataFileMaxSize int64 `yaml:"data_file_max_size"`

	// TransactionFileMaxSize bounds a channel's transaction log file.
	TransactionFileMaxSize int64 `yaml:"transaction_file_max_size"`

	// MinimumUseRatio below which a data file becomes a cleanup candidate.
	MinimumUseRatio float64 `yaml:"minimum_use_ratio"`

	// EntityCacheTimeoutMS and EntityCacheThreshold parameterize the default
	// eviction policy: evict when age_ms > timeout_ms, or
	// entity.length * age_ms > threshold * current_cache_bytes.
	EntityCacheTimeoutMS int64 `yaml:"entity_cache_timeout_ms"`
	EntityCacheThreshold int64 `yaml:"entity_cache_threshold"`

	// BackupDir is where CreateBackup writes archives. Empty disables backups.
	BackupDir string `yaml:"backup_dir"`

	// CleanupHeadFile allows the active head file to be an incremental
	// file-cleanup candidate. Default false.
	CleanupHeadFile bool `yaml:"cleanup_head_file"`

	// DistributionStrategy picks which channel a new entity lands on.
	DistributionStrategy types.DistributionStrategy `yaml:"distribution_strategy"`
}

// Default returns a Config with the defaults named in SPEC_FULL.md §6.
func Default() Config {
	return Config{
		ChannelCount:             nextPowerOfTwo(runtime.NumCPU()),
		StorageDir:               "./storage",
		ChannelDirPrefix:         "channel_",
		HousekeepingIntervalMS:   1000,
		HousekeepingTimeBudgetNS: 10_000_000,
		MaximumTimeBudgetNS:      100_000_000,
		IncreaseThreshold:        5,
		IncreaseAmountNS:         5_000_000,
		DataFileMinSize:          1 << 20, // 1 MiB
		DataFileMaxSize:          8 << 20, // 8 MiB
		TransactionFileMaxSize:   64 << 20,
		MinimumUseRatio:          0.75,
		EntityCacheTimeoutMS:     86_400_000,
		EntityCacheThreshold:     1000,
		CleanupHeadFile:          false,
		DistributionStrategy:     types.StrategyLeastLoaded,
	}
}

// Validate enforces the invalid-configuration failures named in §7: these
// are programmer errors that must fail fast at construction, not surface
// later as a runtime I/O error.
func (c Config) Validate() error {
	if c.ChannelCount <= 0 || c.ChannelCount&(c.ChannelCount-1) != 0 {
		return types.NewError(types.ErrKindInvalidConfig, "config.Validate", errNotPowerOfTwo)
	}
	if c.DataFileMinSize <= 0 || c.DataFileMaxSize <= 0 || c.DataFileMinSize >= c.DataFileMaxSize {
		return types.NewError(types.ErrKindInvalidConfig, "config.Validate", errDataFileBounds)
	}
	if c.MinimumUseRatio < 0 || c.MinimumUseRatio > 1 {
		return types.NewError(types.ErrKindInvalidConfig, "config.Validate", errUseRatioRange)
	}
	if c.HousekeepingTimeBudgetNS <= 0 || c.MaximumTimeBudgetNS < c.HousekeepingTimeBudgetNS {
		return types.NewError(types.ErrKindInvalidConfig, "config.Validate", errBudgetBounds)
	}
	if c.StorageDir == "" {
		return types.NewError(types.ErrKindInvalidConfig, "config.Validate", errEmptyStorageDir)
	}
	switch c.DistributionStrategy {
	case types.StrategyRoundRobin, types.StrategyLeastLoaded, types.StrategyHashByType,
		types.StrategyHashByOID, types.StrategyWeightedCapacity:
	default:
		return types.NewError(types.ErrKindInvalidConfig, "config.Validate", errUnknownStrategy)
	}
	return nil
}

// LoadFile reads a YAML config file on top of Default() and validates it,
// mirroring the teacher's manifest-loading convention.
func LoadFile(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, types.NewError(types.ErrKindStorageInit, "config.LoadFile", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, types.NewError(types.ErrKindInvalidConfig, "config.LoadFile", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

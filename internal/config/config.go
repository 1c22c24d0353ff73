// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/blinklabs-io/stakedao/account"
	"github.com/blinklabs-io/stakedao/database/plugin"
	"github.com/blinklabs-io/stakedao/governance"
	"github.com/blinklabs-io/stakedao/staking"
)

type ctxKey string

const configContextKey ctxKey = "stakedao.config"

const (
	DefaultShutdownTimeout = "30s"
	DefaultEngineAccount   = "0x000000000000000000000000000000000000da00"
)

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

const (
	DefaultBlobPlugin     = "badger"
	DefaultMetadataPlugin = "sqlite"
)

type tempConfig struct {
	Config   yaml.Node                 `yaml:"config,omitempty"`
	Database *databaseConfig           `yaml:"database,omitempty"`
	Blob     map[string]map[string]any `yaml:"blob,omitempty"`
	Metadata map[string]map[string]any `yaml:"metadata,omitempty"`
}

type databaseConfig struct {
	Blob     map[string]any `yaml:"blob,omitempty"`
	Metadata map[string]any `yaml:"metadata,omitempty"`
}

type GovernanceConfig struct {
	// Account holds deposits in custody and calls the staking target
	Account            string        `yaml:"account"`
	Admin              string        `yaml:"admin"`
	FinishLockTime     time.Duration `yaml:"finishLockTime"     split_words:"true"`
	PayloadMode        string        `yaml:"payloadMode"        split_words:"true"`
	MaxStakeLockTime   time.Duration `yaml:"maxStakeLockTime"   split_words:"true"`
	MaxUnstakeLockTime time.Duration `yaml:"maxUnstakeLockTime" split_words:"true"`
}

type StakingConfig struct {
	// Owner assigns the staking admin. It defaults to the governance admin
	Owner           string        `yaml:"owner"`
	RewardRate      uint64        `yaml:"rewardRate"      split_words:"true"`
	StakeLockTime   time.Duration `yaml:"stakeLockTime"   split_words:"true"`
	UnstakeLockTime time.Duration `yaml:"unstakeLockTime" split_words:"true"`
}

// GenesisConfig funds accounts on the vote token ledger at startup
type GenesisConfig struct {
	Symbol   string            `yaml:"symbol"`
	Balances map[string]uint64 `yaml:"balances"`
	// ApproveCustodian lets the engine pull any amount from funded accounts
	ApproveCustodian bool `yaml:"approveCustodian" split_words:"true"`
}

type Config struct {
	BlobPlugin      string           `yaml:"blobPlugin"      envconfig:"STAKEDAO_DATABASE_BLOB_PLUGIN"`
	MetadataPlugin  string           `yaml:"metadataPlugin"  envconfig:"STAKEDAO_DATABASE_METADATA_PLUGIN"`
	DatabasePath    string           `yaml:"databasePath"                                                 split_words:"true"`
	BindAddr        string           `yaml:"bindAddr"                                                     split_words:"true"`
	ApiPort         uint             `yaml:"apiPort"                                                      split_words:"true"`
	MetricsPort     uint             `yaml:"metricsPort"                                                  split_words:"true"`
	ShutdownTimeout string           `yaml:"shutdownTimeout"                                              split_words:"true"`
	Tracing         bool             `yaml:"tracing"`
	TracingStdout   bool             `yaml:"tracingStdout"                                                split_words:"true"`
	Governance      GovernanceConfig `yaml:"governance"`
	Staking         StakingConfig    `yaml:"staking"`
	Genesis         GenesisConfig    `yaml:"genesis"`
}

func defaultConfig() *Config {
	return &Config{
		BlobPlugin:      DefaultBlobPlugin,
		MetadataPlugin:  DefaultMetadataPlugin,
		DatabasePath:    ".stakedao",
		BindAddr:        "0.0.0.0",
		ApiPort:         8080,
		MetricsPort:     12799,
		ShutdownTimeout: DefaultShutdownTimeout,
		Governance: GovernanceConfig{
			Account:        DefaultEngineAccount,
			FinishLockTime: governance.DefaultFinishLockTime,
			PayloadMode:    governance.PayloadModeGeneric.String(),
		},
		Staking: StakingConfig{
			RewardRate:      staking.DefaultRewardRate,
			StakeLockTime:   staking.DefaultStakeLockTime,
			UnstakeLockTime: staking.DefaultUnstakeLockTime,
		},
		Genesis: GenesisConfig{
			Symbol: "VT",
		},
	}
}

var globalConfig = defaultConfig()

func LoadConfig(configFile string) (*Config, error) {
	// Load config file as YAML if provided
	if configFile == "" {
		// Check for config file in this path: ~/.stakedao/stakedao.yaml
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(homeDir, ".stakedao", "stakedao.yaml")
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}
		if configFile == "" {
			systemPath := "/etc/stakedao/stakedao.yaml"
			if _, err := os.Stat(systemPath); err == nil {
				configFile = systemPath
			}
		}
	}
	if configFile != "" {
		if err := loadConfigFile(configFile); err != nil {
			return nil, err
		}
	}
	if err := envconfig.Process("stakedao", globalConfig); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	if err := plugin.ProcessEnvVars(); err != nil {
		return nil, fmt.Errorf(
			"error processing plugin environment variables: %w",
			err,
		)
	}
	if err := globalConfig.Validate(); err != nil {
		return nil, err
	}
	return globalConfig, nil
}

func loadConfigFile(configFile string) error {
	buf, err := os.ReadFile(configFile)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	// First unmarshal into temp config to handle plugin sections
	var tempCfg tempConfig
	if err := yaml.Unmarshal(buf, &tempCfg); err != nil {
		return fmt.Errorf("error parsing config file: %w", err)
	}
	if !tempCfg.Config.IsZero() {
		// Decode the section directly so unset keys keep their defaults
		if err := tempCfg.Config.Decode(globalConfig); err != nil {
			return fmt.Errorf("error parsing config section: %w", err)
		}
	} else if err := yaml.Unmarshal(buf, globalConfig); err != nil {
		return fmt.Errorf("error parsing config file: %w", err)
	}
	pluginConfig := make(map[string]map[string]map[string]any)
	if tempCfg.Blob != nil {
		pluginConfig["blob"] = tempCfg.Blob
	}
	if tempCfg.Metadata != nil {
		pluginConfig["metadata"] = tempCfg.Metadata
	}
	if tempCfg.Database != nil {
		if tempCfg.Database.Blob != nil {
			name, section := splitPluginSection("blob", tempCfg.Database.Blob)
			if name != "" {
				globalConfig.BlobPlugin = name
			}
			mergePluginSection(pluginConfig, "blob", section)
		}
		if tempCfg.Database.Metadata != nil {
			name, section := splitPluginSection(
				"metadata",
				tempCfg.Database.Metadata,
			)
			if name != "" {
				globalConfig.MetadataPlugin = name
			}
			mergePluginSection(pluginConfig, "metadata", section)
		}
	}
	if len(pluginConfig) > 0 {
		if err := plugin.ProcessConfig(pluginConfig); err != nil {
			return fmt.Errorf("error processing plugin config: %w", err)
		}
	}
	return nil
}

// splitPluginSection extracts the selected plugin name and the per-plugin
// option maps from a database.blob or database.metadata section
func splitPluginSection(
	kind string,
	section map[string]any,
) (string, map[string]map[string]any) {
	var name string
	if pluginVal, exists := section["plugin"]; exists {
		if pluginName, ok := pluginVal.(string); ok {
			name = pluginName
		}
	}
	ret := make(map[string]map[string]any)
	for k, v := range section {
		if k == "plugin" {
			continue
		}
		switch val := v.(type) {
		case map[string]any:
			ret[k] = val
		case map[any]any:
			stringAnyMap := make(map[string]any)
			for vk, vv := range val {
				if keyStr, ok := vk.(string); ok {
					stringAnyMap[keyStr] = vv
				}
			}
			ret[k] = stringAnyMap
		default:
			fmt.Fprintf(
				os.Stderr,
				"warning: skipping %s config entry %q: expected map, got %T\n",
				kind,
				k,
				v,
			)
		}
	}
	return name, ret
}

func mergePluginSection(
	pluginConfig map[string]map[string]map[string]any,
	kind string,
	section map[string]map[string]any,
) {
	if pluginConfig[kind] == nil {
		pluginConfig[kind] = section
		return
	}
	maps.Copy(pluginConfig[kind], section)
}

// Validate checks values that cannot be checked by the parsers
func (c *Config) Validate() error {
	var errs []error
	if _, err := account.Parse(c.Governance.Account); err != nil {
		errs = append(errs, fmt.Errorf("governance.account: %w", err))
	}
	if c.Governance.Admin == "" {
		errs = append(errs, errors.New("governance.admin must be set"))
	} else if _, err := account.Parse(c.Governance.Admin); err != nil {
		errs = append(errs, fmt.Errorf("governance.admin: %w", err))
	}
	if c.Staking.Owner != "" {
		if _, err := account.Parse(c.Staking.Owner); err != nil {
			errs = append(errs, fmt.Errorf("staking.owner: %w", err))
		}
	}
	if _, err := governance.ParsePayloadMode(c.Governance.PayloadMode); err != nil {
		errs = append(errs, fmt.Errorf("governance.payloadMode: %w", err))
	}
	if c.Governance.FinishLockTime < 0 {
		errs = append(errs, errors.New("governance.finishLockTime must not be negative"))
	}
	if c.Staking.RewardRate > staking.MaxRewardRate {
		errs = append(
			errs,
			fmt.Errorf("staking.rewardRate must not exceed %d", staking.MaxRewardRate),
		)
	}
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		errs = append(errs, fmt.Errorf("shutdownTimeout: %w", err))
	}
	for addr := range c.Genesis.Balances {
		if _, err := account.Parse(addr); err != nil {
			errs = append(errs, fmt.Errorf("genesis.balances: %w", err))
		}
	}
	return errors.Join(errs...)
}

func GetConfig() *Config {
	return globalConfig
}

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

// Package staking holds the mutable parameters of the staking subsystem that
// governance proposals change. Reward arithmetic is not modeled here.
package staking

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/blinklabs-io/stakedao/account"
)

const (
	DefaultRewardRate      = 10
	DefaultStakeLockTime   = 24 * time.Hour
	DefaultUnstakeLockTime = 48 * time.Hour
	MaxRewardRate          = 100
)

var (
	ErrNotOwner          = errors.New("caller is not the owner")
	ErrNotAdmin          = errors.New("caller is not the admin")
	ErrAdminAlreadySet   = errors.New("admin already set")
	ErrInvalidRewardRate = errors.New("invalid reward rate")
	ErrInvalidLockTime   = errors.New("invalid lock time")
	ErrUnknownMethod     = errors.New("unknown method")
	ErrMalformedCall     = errors.New("malformed call")
)

// Params are the governable staking parameters
type Params struct {
	RewardRate      uint64        `json:"rewardRate"`
	StakeLockTime   time.Duration `json:"stakeLockTime"`
	UnstakeLockTime time.Duration `json:"unstakeLockTime"`
}

// DefaultParams returns the parameters used when none are configured
func DefaultParams() Params {
	return Params{
		RewardRate:      DefaultRewardRate,
		StakeLockTime:   DefaultStakeLockTime,
		UnstakeLockTime: DefaultUnstakeLockTime,
	}
}

type StakingConfig struct {
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
	Owner        account.Account
	Params       *Params
	// Upper bounds for lock times. Zero means unbounded
	MaxStakeLockTime   time.Duration
	MaxUnstakeLockTime time.Duration
}

type Staking struct {
	mu      sync.RWMutex
	config  StakingConfig
	logger  *slog.Logger
	admin   account.Account
	params  Params
	metrics stakingMetrics
}

func NewStaking(cfg StakingConfig) *Staking {
	s := &Staking{
		config: cfg,
		logger: cfg.Logger,
		params: DefaultParams(),
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.Params != nil {
		s.params = *cfg.Params
	}
	s.metrics.init(cfg.PromRegistry)
	s.updateMetrics()
	return s
}

// Owner returns the account that may assign the admin
func (s *Staking) Owner() account.Account {
	return s.config.Owner
}

// Admin returns the account allowed to change parameters, if set
func (s *Staking) Admin() account.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.admin
}

// SetAdmin assigns the admin. Only the owner may call it, and only once
func (s *Staking) SetAdmin(caller, admin account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if caller != s.config.Owner {
		return ErrNotOwner
	}
	if s.admin != "" {
		// Repeating the same assignment is harmless
		if s.admin == admin {
			return nil
		}
		return ErrAdminAlreadySet
	}
	s.admin = admin
	s.logger.Info(
		"staking admin set",
		"component", "staking",
		"admin", admin.String(),
	)
	return nil
}

// Params returns a snapshot of the current parameters
func (s *Staking) Params() Params {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.params
}

func (s *Staking) SetRewardRate(caller account.Account, rate uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkAdmin(caller); err != nil {
		return err
	}
	if rate > MaxRewardRate {
		return fmt.Errorf(
			"%w: %d exceeds %d",
			ErrInvalidRewardRate,
			rate,
			MaxRewardRate,
		)
	}
	s.params.RewardRate = rate
	s.changed("reward rate", rate)
	return nil
}

func (s *Staking) SetStakeLockTime(
	caller account.Account,
	d time.Duration,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkAdmin(caller); err != nil {
		return err
	}
	if err := checkLockTime(d, s.config.MaxStakeLockTime); err != nil {
		return err
	}
	s.params.StakeLockTime = d
	s.changed("stake lock time", d)
	return nil
}

func (s *Staking) SetUnstakeLockTime(
	caller account.Account,
	d time.Duration,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkAdmin(caller); err != nil {
		return err
	}
	if err := checkLockTime(d, s.config.MaxUnstakeLockTime); err != nil {
		return err
	}
	s.params.UnstakeLockTime = d
	s.changed("unstake lock time", d)
	return nil
}

// Apply decodes and executes a generic call produced by EncodeCall
func (s *Staking) Apply(caller account.Account, data []byte) error {
	call, err := DecodeCall(data)
	if err != nil {
		return err
	}
	switch call.Method {
	case MethodSetRewardRate:
		v, err := call.singleArg()
		if err != nil {
			return err
		}
		return s.SetRewardRate(caller, v)
	case MethodSetStakeLockTime, MethodSetUnstakeLockTime:
		v, err := call.singleArg()
		if err != nil {
			return err
		}
		d, err := SecondsToDuration(v)
		if err != nil {
			return err
		}
		if call.Method == MethodSetStakeLockTime {
			return s.SetStakeLockTime(caller, d)
		}
		return s.SetUnstakeLockTime(caller, d)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMethod, call.Method)
	}
}

func (s *Staking) checkAdmin(caller account.Account) error {
	if s.admin == "" || caller != s.admin {
		return ErrNotAdmin
	}
	return nil
}

func checkLockTime(d, maxLockTime time.Duration) error {
	if d < 0 {
		return fmt.Errorf("%w: negative duration %s", ErrInvalidLockTime, d)
	}
	if maxLockTime > 0 && d > maxLockTime {
		return fmt.Errorf(
			"%w: %s exceeds %s",
			ErrInvalidLockTime,
			d,
			maxLockTime,
		)
	}
	return nil
}

// changed must be called with the lock held
func (s *Staking) changed(name string, value any) {
	s.updateMetrics()
	s.logger.Info(
		fmt.Sprintf("staking %s changed to %v", name, value),
		"component", "staking",
	)
}

func (s *Staking) updateMetrics() {
	s.metrics.rewardRate.Set(float64(s.params.RewardRate))
	s.metrics.stakeLockTime.Set(s.params.StakeLockTime.Seconds())
	s.metrics.unstakeLockTime.Set(s.params.UnstakeLockTime.Seconds())
}

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

package staking

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type stakingMetrics struct {
	rewardRate      prometheus.Gauge
	stakeLockTime   prometheus.Gauge
	unstakeLockTime prometheus.Gauge
}

func (m *stakingMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.rewardRate = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "stakedao_staking_reward_rate",
		Help: "current staking reward rate",
	})
	m.stakeLockTime = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "stakedao_staking_stake_lock_time_seconds",
		Help: "current stake lock time",
	})
	m.unstakeLockTime = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "stakedao_staking_unstake_lock_time_seconds",
		Help: "current unstake lock time",
	})
}

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

package governance

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type engineMetrics struct {
	proposals        prometheus.Counter
	votes            *prometheus.CounterVec
	voteWeight       *prometheus.CounterVec
	finalizations    *prometheus.CounterVec
	dispatchFailures prometheus.Counter
	depositedStake   prometheus.Gauge
	depositors       prometheus.Gauge
}

func (m *engineMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.proposals = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "stakedao_governance_proposals_total",
		Help: "proposals submitted",
	})
	m.votes = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stakedao_governance_votes_total",
			Help: "votes cast by support",
		},
		[]string{"support"},
	)
	m.voteWeight = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stakedao_governance_vote_weight_total",
			Help: "stake weight of votes cast by support",
		},
		[]string{"support"},
	)
	m.finalizations = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stakedao_governance_finalizations_total",
			Help: "proposals finalized by outcome",
		},
		[]string{"outcome"},
	)
	m.dispatchFailures = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "stakedao_governance_dispatch_failures_total",
		Help: "passed proposals the parameter target rejected",
	})
	m.depositedStake = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "stakedao_governance_deposited_stake",
		Help: "stake currently held in custody",
	})
	m.depositors = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "stakedao_governance_depositors",
		Help: "accounts with a non-zero deposit",
	})
}

func supportLabel(support bool) string {
	if support {
		return "for"
	}
	return "against"
}

func outcomeLabel(passed bool) string {
	if passed {
		return "passed"
	}
	return "rejected"
}

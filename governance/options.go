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
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
)

type EngineOptionFunc func(*Engine)

// WithClock specifies the time source used for proposal timestamps and
// timelock checks
func WithClock(clock func() time.Time) EngineOptionFunc {
	return func(e *Engine) {
		e.clock = clock
	}
}

// WithLogger specifies the logger object to use for logging messages
func WithLogger(logger *slog.Logger) EngineOptionFunc {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithPromRegistry specifies the prometheus registry to use for metrics
func WithPromRegistry(
	registry prometheus.Registerer,
) EngineOptionFunc {
	return func(e *Engine) {
		e.promRegistry = registry
	}
}

// WithTracerProvider specifies the OpenTelemetry tracer provider used for
// operation spans. The global provider is used by default
func WithTracerProvider(tp trace.TracerProvider) EngineOptionFunc {
	return func(e *Engine) {
		e.tracerProvider = tp
	}
}

// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package workflow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var stepOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "issuedesk_workflow_step_outcomes_total",
	Help: "Workflow step results by workflow, step and outcome token",
}, []string{"workflow", "step", "outcome"})

// Observe records the outcome of a step and returns r unchanged.
func Observe(workflow, step string, r Result) Result {
	stepOutcomes.WithLabelValues(workflow, step, string(r.Outcome)).Inc()
	return r
}

/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

package controller

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

var (
	cellsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kais_cells_total",
			Help: "Total Cell objects created, by namespace.",
		},
		[]string{"namespace"},
	)

	cellsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "kais_cells_active",
			Help: "Cells currently in phase Running, by namespace.",
		},
		[]string{"namespace"},
	)

	formationBudgetExceededTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kais_formation_budget_exceeded_total",
			Help: "Formations that tripped their budget cap.",
		},
		[]string{"namespace", "formation"},
	)

	missionAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kais_mission_attempts_total",
			Help: "Mission attempts, by outcome.",
		},
		[]string{"namespace", "outcome"},
	)

	missionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kais_mission_duration_seconds",
			Help:    "Wall-clock time from Mission Pending to a terminal phase.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 15),
		},
	)

	missionCostUsd = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kais_mission_cost_usd",
			Help:    "Final cost of a terminal Mission, in US dollars.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 16),
		},
	)

	ledgerOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kais_ledger_operations_total",
			Help: "Budget ledger operations, by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	spawnDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kais_spawn_decisions_total",
			Help: "Recursion validator decisions, by outcome.",
		},
		[]string{"outcome"},
	)
)

var tracer = otel.Tracer("kais.io/operator")

func init() {
	metrics.Registry.MustRegister(
		cellsTotal,
		cellsActive,
		formationBudgetExceededTotal,
		missionAttemptsTotal,
		missionDuration,
		missionCostUsd,
		ledgerOperations,
		spawnDecisions,
	)
}

// emitEvent records a span event on the current trace, the same
// span-as-event pattern the teacher uses to surface reconcile-loop
// milestones without creating a dedicated child span per step.
func emitEvent(ctx context.Context, eventName string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		_, span = tracer.Start(ctx, eventName)
		defer span.End()
	}
	span.AddEvent(eventName, trace.WithAttributes(attrs...))
}

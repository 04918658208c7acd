/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

// Package config holds the control plane's ambient configuration: cluster
// defaults read from a ConfigMap with a TTL cache, and process configuration
// loaded by viper with hot-reload via fsnotify.
package config

import (
	"context"
	"strconv"
	"sync"
	"time"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

const defaultCacheTTL = 30 * time.Second

// ClusterDefaults holds cluster-wide defaults read from the kais-defaults
// ConfigMap, used when a resource omits an optional field.
type ClusterDefaults struct {
	DefaultTimeout             string
	DefaultImage               string
	DefaultRequestsCPU         string
	DefaultRequestsMemory      string
	DefaultLimitsCPU           string
	DefaultLimitsMemory        string
	DefaultMaxAttempts         int
	ReconcileDeadlineCell      time.Duration
	ReconcileDeadlineFormation time.Duration
	MissionAttemptDeadline     time.Duration
	StuckStaleAfterMinutes     int
	MaxTotalCells              int
}

func builtinDefaults() ClusterDefaults {
	return ClusterDefaults{
		DefaultTimeout:             "10m",
		DefaultImage:               "ghcr.io/kais-io/cell:latest",
		DefaultRequestsCPU:         "100m",
		DefaultRequestsMemory:      "128Mi",
		DefaultLimitsCPU:           "500m",
		DefaultLimitsMemory:        "512Mi",
		DefaultMaxAttempts:         1,
		ReconcileDeadlineCell:      30 * time.Second,
		ReconcileDeadlineFormation: 30 * time.Second,
		MissionAttemptDeadline:     10 * time.Minute,
		StuckStaleAfterMinutes:     30,
		MaxTotalCells:              0, // 0 = unbounded
	}
}

// Store caches ClusterDefaults loaded from a ConfigMap with a TTL, mirroring
// the teacher's refreshDefaultsIfStale/loadClusterDefaults pattern.
type Store struct {
	client.Client
	Namespace string
	TTL       time.Duration

	mu       sync.RWMutex
	defaults ClusterDefaults
	loadedAt time.Time
}

// GetDefaults returns the cached defaults, refreshing from the cluster first if stale.
func (s *Store) GetDefaults(ctx context.Context) ClusterDefaults {
	s.refreshIfStale(ctx)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defaults
}

func (s *Store) refreshIfStale(ctx context.Context) {
	ttl := s.TTL
	if ttl == 0 {
		ttl = defaultCacheTTL
	}
	s.mu.RLock()
	fresh := time.Since(s.loadedAt) < ttl && !s.loadedAt.IsZero()
	s.mu.RUnlock()
	if fresh {
		return
	}
	s.load(ctx)
}

func (s *Store) load(ctx context.Context) {
	d := builtinDefaults()

	ns := s.Namespace
	if ns == "" {
		ns = "kais-system"
	}

	cm := &corev1.ConfigMap{}
	if s.Client != nil {
		if err := s.Client.Get(ctx, types.NamespacedName{Namespace: ns, Name: "kais-defaults"}, cm); err == nil {
			applyOverrides(&d, cm.Data)
		}
	}

	s.mu.Lock()
	s.defaults = d
	s.loadedAt = time.Now()
	s.mu.Unlock()
}

func applyOverrides(d *ClusterDefaults, data map[string]string) {
	if v, ok := data["defaultTimeout"]; ok && v != "" {
		d.DefaultTimeout = v
	}
	if v, ok := data["defaultImage"]; ok && v != "" {
		d.DefaultImage = v
	}
	if v, ok := data["defaultRequestsCPU"]; ok && v != "" {
		d.DefaultRequestsCPU = v
	}
	if v, ok := data["defaultRequestsMemory"]; ok && v != "" {
		d.DefaultRequestsMemory = v
	}
	if v, ok := data["defaultLimitsCPU"]; ok && v != "" {
		d.DefaultLimitsCPU = v
	}
	if v, ok := data["defaultLimitsMemory"]; ok && v != "" {
		d.DefaultLimitsMemory = v
	}
	if v, ok := data["defaultMaxAttempts"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			d.DefaultMaxAttempts = n
		}
	}
	if v, ok := data["stuckStaleAfterMinutes"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			d.StuckStaleAfterMinutes = n
		}
	}
	if v, ok := data["maxTotalCells"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			d.MaxTotalCells = n
		}
	}
}

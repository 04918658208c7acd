/*
Copyright (c) 2026 hortator-ai
SPDX-License-Identifier: MIT
*/

// Command manager runs the kais control plane: the Cell/Formation/Mission
// reconcilers, the budget ledger and cell-tree services, and the spawn
// approval sidecar, as one operator process.
package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/healthz"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
	metricsserver "sigs.k8s.io/controller-runtime/pkg/metrics/server"

	corev1alpha1 "github.com/kais-io/kais/api/v1alpha1"
	"github.com/kais-io/kais/internal/bus"
	"github.com/kais-io/kais/internal/celltree"
	"github.com/kais-io/kais/internal/checks"
	"github.com/kais-io/kais/internal/config"
	"github.com/kais-io/kais/internal/controller"
	"github.com/kais-io/kais/internal/ledger"
	"github.com/kais-io/kais/internal/spawn"
	"github.com/kais-io/kais/internal/spawnapi"
	"github.com/kais-io/kais/internal/storage"
	"github.com/kais-io/kais/internal/webhook"
)

func buildScheme() *runtime.Scheme {
	s := runtime.NewScheme()
	utilruntime.Must(clientgoscheme.AddToScheme(s))
	utilruntime.Must(corev1.AddToScheme(s))
	utilruntime.Must(corev1alpha1.AddToScheme(s))
	return s
}

func main() {
	var configFile string
	root := &cobra.Command{Use: "manager", Short: "kais control plane"}
	serve := &cobra.Command{
		Use:   "serve",
		Short: "run the operator manager and spawn approval sidecar",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configFile)
		},
	}
	serve.Flags().StringVar(&configFile, "config", "", "path to a YAML config file")
	root.AddCommand(serve)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(configFile string) error {
	ctrl.SetLogger(zap.New(zap.UseDevMode(false)))
	log := ctrl.Log.WithName("manager")

	cfg, _, err := config.Load(configFile)
	if err != nil {
		return err
	}

	mgr, err := ctrl.NewManager(ctrl.GetConfigOrDie(), ctrl.Options{
		Scheme:                 buildScheme(),
		Metrics:                metricsserver.Options{BindAddress: cfg.MetricsAddr},
		HealthProbeBindAddress: cfg.HealthProbeAddr,
		LeaderElection:         cfg.LeaderElect,
		LeaderElectionID:       "kais-operator-leader",
	})
	if err != nil {
		log.Error(err, "unable to start manager")
		return err
	}

	if err := mgr.AddHealthzCheck("healthz", healthz.Ping); err != nil {
		return err
	}
	if err := mgr.AddReadyzCheck("readyz", healthz.Ping); err != nil {
		return err
	}

	db := storage.NewDB(storage.DefaultConfig(cfg.PostgresDSN))
	tree := &celltree.Service{DB: db}
	ledgerSvc := &ledger.Service{DB: db}

	ctx := ctrl.SetupSignalHandler()
	redisBus, err := bus.NewRedisBus(ctx, cfg.RedisAddr)
	if err != nil {
		log.Error(err, "unable to connect to redis")
		return err
	}
	defer redisBus.Close()

	defaults := &config.Store{Client: mgr.GetClient(), Namespace: "kais-system"}

	notifier := spawnapi.SlackNotifier{WebhookURL: cfg.SlackWebhookURL}
	queue := spawn.NewQueue(func(req spawn.PendingRequest) {
		if err := notifier.NotifySpawnPending(req); err != nil {
			log.Error(err, "posting spawn-pending notification")
		}
	})
	validator := &spawn.Validator{Tree: tree, Ledger: ledgerSvc, Queue: queue}
	if _, err := config.WatchSpawnPolicy("/etc/kais/spawn-policy.yaml", func(d config.SpawnPolicyDefaults) {
		validator.MaxTotalCells = d.MaxTotalCells
	}); err != nil {
		log.Info("spawn-policy hot-reload disabled", "reason", err.Error())
	}

	if err := (&controller.CellReconciler{
		Client:   mgr.GetClient(),
		Scheme:   mgr.GetScheme(),
		Recorder: mgr.GetEventRecorderFor("cell-controller"),
		Defaults: defaults,
	}).SetupWithManager(mgr); err != nil {
		log.Error(err, "unable to create Cell controller")
		return err
	}

	if err := (&controller.FormationReconciler{
		Client:   mgr.GetClient(),
		Scheme:   mgr.GetScheme(),
		Recorder: mgr.GetEventRecorderFor("formation-controller"),
		Defaults: defaults,
	}).SetupWithManager(mgr); err != nil {
		log.Error(err, "unable to create Formation controller")
		return err
	}

	hub := spawnapi.NewHub()

	if err := (&controller.MissionReconciler{
		Client:   mgr.GetClient(),
		Scheme:   mgr.GetScheme(),
		Recorder: mgr.GetEventRecorderFor("mission-controller"),
		Bus:      redisBus,
		Checks:   &checks.Runner{Bus: redisBus},
		Notifier: notifier,
		Stream:   hub,
	}).SetupWithManager(mgr); err != nil {
		log.Error(err, "unable to create Mission controller")
		return err
	}

	if err := (&webhook.CellValidator{}).SetupWebhookWithManager(mgr); err != nil {
		log.Error(err, "unable to create Cell webhook")
		return err
	}
	if err := (&webhook.FormationValidator{}).SetupWebhookWithManager(mgr); err != nil {
		log.Error(err, "unable to create Formation webhook")
		return err
	}
	if err := (&webhook.MissionValidator{}).SetupWebhookWithManager(mgr); err != nil {
		log.Error(err, "unable to create Mission webhook")
		return err
	}

	api := &spawnapi.Server{
		Queue:     queue,
		Validator: validator,
		Tree:      tree,
		Ledger:    ledgerSvc,
		CellCounter: func(ctx context.Context) (int, error) {
			var list corev1alpha1.CellList
			if err := mgr.GetClient().List(ctx, &list); err != nil {
				return 0, err
			}
			return len(list.Items), nil
		},
		Addr:                cfg.SpawnAPIAddr,
		OIDCIssuerURL:       cfg.OIDCIssuerURL,
		OIDCClientID:        cfg.OIDCClientID,
		StaticApprovalToken: cfg.StaticApprovalToken,
		Hub:                 hub,
	}
	go func() {
		if err := api.Run(ctx); err != nil {
			log.Error(err, "spawn approval API exited")
		}
	}()

	log.Info("starting manager")
	return mgr.Start(ctx)
}

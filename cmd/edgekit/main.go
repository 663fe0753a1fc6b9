package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"edgekit/internal/balancer"
	"edgekit/internal/breaker"
	"edgekit/internal/cache"
	"edgekit/internal/config"
	"edgekit/internal/consistency"
	"edgekit/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "edgekit",
	Short: "Edge cache and routing daemon",

	Run: func(cmd *cobra.Command, args []string) {
		run()
	},
}

func init() {
	configFlags := pflag.NewFlagSet("", pflag.ContinueOnError)
	configFlags.String("log-level", "info", "the log level to run at")
	configFlags.String("listen-address", config.DefaultListenAddress, "the address to serve the HTTP API on")
	configFlags.String("nodes", "", "the cluster nodes as id=region:capacity, comma separated")
	configFlags.Int("virtual-nodes", config.DefaultVirtualNodes, "virtual nodes per physical node on the hash ring")
	configFlags.Int("replication-factor", config.DefaultReplicationFactor, "number of nodes holding each key")
	configFlags.Int("failure-threshold", config.DefaultFailureThreshold, "consecutive failures before the write circuit opens")
	configFlags.Duration("recovery-timeout", config.DefaultRecoveryTimeout, "cooldown before an open circuit allows a trial call")
	rootCmd.Flags().AddFlagSet(configFlags)

	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.SetEnvPrefix("edgekit")
	viper.AutomaticEnv()

	_ = viper.BindPFlags(configFlags)
}

func getLogger() (zap.AtomicLevel, *zap.Logger) {
	logLevel := zap.NewAtomicLevel()
	logConfig := zap.NewProductionEncoderConfig()
	logConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(logConfig), zapcore.AddSync(os.Stdout), logLevel)
	logger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))

	return logLevel, logger
}

func readConfig(logger *zap.Logger) *config.Config {
	nodes, err := config.ParseNodeSpecs(viper.GetString("nodes"))
	if err != nil {
		logger.Fatal("failed to parse node list", zap.Error(err))
	}

	cfg := &config.Config{
		ListenAddress:     viper.GetString("listen-address"),
		Nodes:             nodes,
		VirtualNodes:      viper.GetInt("virtual-nodes"),
		ReplicationFactor: viper.GetInt("replication-factor"),
		FailureThreshold:  viper.GetInt("failure-threshold"),
		RecoveryTimeout:   viper.GetDuration("recovery-timeout"),
		LogLevel:          viper.GetString("log-level"),
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	logger.Info("parsed configuration",
		zap.String("listenAddress", cfg.ListenAddress),
		zap.Int("nodes", len(cfg.Nodes)),
		zap.Int("virtualNodes", cfg.VirtualNodes),
		zap.Int("replicationFactor", cfg.ReplicationFactor),
		zap.Int("failureThreshold", cfg.FailureThreshold),
		zap.Duration("recoveryTimeout", cfg.RecoveryTimeout))

	return cfg
}

func run() {
	logLevel, logger := getLogger()
	defer func() { _ = logger.Sync() }()

	cfg := readConfig(logger)

	parsedLevel, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Warn("invalid log level, using info", zap.String("level", cfg.LogLevel))
		parsedLevel = zapcore.InfoLevel
	}
	logLevel.SetLevel(parsedLevel)

	nodes := cfg.BuildNodes()

	cacheLayer, err := cache.New(nodes, cfg.ReplicationFactor, cfg.VirtualNodes, logger.Named("cache"))
	if err != nil {
		logger.Fatal("failed to build cache", zap.Error(err))
	}

	routeBalancer, err := balancer.New(nodes, logger.Named("balancer"))
	if err != nil {
		logger.Fatal("failed to build balancer", zap.Error(err))
	}

	srv := server.New(server.Options{
		Logger:        logger.Named("server"),
		ListenAddress: cfg.ListenAddress,
		Cache:         cacheLayer,
		Balancer:      routeBalancer,
		Consistency:   consistency.NewManager(logger.Named("consistency")),
		Breaker:       breaker.New(cfg.FailureThreshold, cfg.RecoveryTimeout),
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving", zap.String("address", cfg.ListenAddress))
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("shutdown failed", zap.Error(err))
		}
	case err := <-errCh:
		if err != nil {
			logger.Fatal("server failed", zap.Error(err))
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

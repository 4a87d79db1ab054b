package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"

	grpchandler "github.com/ogurasousui/nomina/internal/adapters/grpc/handler"
	"github.com/ogurasousui/nomina/internal/adapters/http/handler"
	"github.com/ogurasousui/nomina/internal/adapters/repository/memory"
	pgrepo "github.com/ogurasousui/nomina/internal/adapters/repository/postgres"
	"github.com/ogurasousui/nomina/internal/core/bank"
	"github.com/ogurasousui/nomina/internal/core/division"
	"github.com/ogurasousui/nomina/internal/core/domain"
	"github.com/ogurasousui/nomina/internal/core/employee"
	"github.com/ogurasousui/nomina/internal/core/job"
	"github.com/ogurasousui/nomina/internal/core/organization"
	"github.com/ogurasousui/nomina/internal/core/payroll"
	"github.com/ogurasousui/nomina/internal/platform/config"
	pg "github.com/ogurasousui/nomina/internal/platform/db/postgres"
	"github.com/ogurasousui/nomina/internal/platform/logging"
	"github.com/ogurasousui/nomina/internal/platform/metrics"
	"github.com/ogurasousui/nomina/internal/platform/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	boot := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load(config.Path())
	if err != nil {
		boot.Fatal().Err(err).Msg("failed to load config")
	}

	logger, closer, err := logging.New(cfg.Log, os.Stdout)
	if err != nil {
		boot.Fatal().Err(err).Msg("failed to build logger")
	}
	defer closer.Close()

	if err := run(logger.WithContext(ctx), cfg, logger); err != nil {
		logger.Error().Err(err).Msg("server stopped with error")
		closer.Close()
		os.Exit(1)
	}
	logger.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	m := metrics.New()

	var (
		repos domain.Repositories
		tx    domain.TransactionManager
		probe server.Probe
	)

	switch cfg.Store.Driver {
	case config.DriverMemory:
		logger.Warn().Msg("using in-memory store; data is lost on restart")
		repos = memory.NewRepositories()
	default:
		pool, err := pg.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return err
		}
		defer pool.Close()

		repos = pgrepo.NewRepositories(pool)
		tx = pg.NewTransactionManager(pool)
		probe = pool.Ping
		m.RegisterPoolStats(func() metrics.PoolStats {
			stat := pool.Stat()
			return metrics.PoolStats{Total: stat.TotalConns(), Idle: stat.IdleConns(), Acquired: stat.AcquiredConns()}
		})
	}

	svc := handler.Services{
		Organizations: organization.NewService(repos, nil, tx),
		Payrolls:      payroll.NewService(repos, nil, tx),
		Divisions:     division.NewService(repos, nil, tx),
		Jobs:          job.NewService(repos, nil, tx),
		Banks:         bank.NewService(repos, nil, tx),
		Employees:     employee.NewService(repos, nil, tx),
	}

	router := handler.NewRouter(svc, logger, m)
	divisions := grpchandler.NewDivisionServer(svc.Divisions)
	return server.New(cfg.Server, router, probe, logger, func(r grpc.ServiceRegistrar) {
		grpchandler.RegisterDivisionServer(r, divisions)
	}).Run(ctx)
}

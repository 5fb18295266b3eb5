package cli

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/api"
	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/config"
	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/db"
	dbmodel "github.com/tcoinlabs-io/tcoin-accounting-engine/internal/db/model"
	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/observability/metrics"
	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/observability/tracing"
	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/queue"
	"github.com/tcoinlabs-io/tcoin-accounting-engine/internal/services"
)

func StartServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start-server",
		Short: "Starts the accounting engine server",
		Args:  cobra.ExactArgs(0),
		RunE:  startServer,
	}

	return cmd
}

func startServer(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	ctx = tracing.InjectTraceID(ctx)
	log := log.Ctx(ctx)

	// load config
	cfgPath := GetConfigPath()
	cfg, err := config.New(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg(fmt.Sprintf("error while loading config file: %s", cfgPath))
	}

	err = dbmodel.Setup(ctx, &cfg.Db)
	if err != nil {
		log.Fatal().Err(err).Msg("error while setting up accounting db model")
	}

	// create new db client
	var dbClient db.DbInterface
	dbClient, err = db.New(ctx, cfg.Db)
	if err != nil {
		log.Fatal().Err(err).Msg("error while creating db client")
	}
	dbClient = db.NewDbWithMetrics(dbClient)

	qm, err := queue.NewQueueManager(&cfg.Queue)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize transfer event consumer")
	}
	defer qm.Shutdown()

	service, err := services.NewService(cfg, dbClient, qm)
	if err != nil {
		log.Fatal().Err(err).Msg("error while creating service")
	}

	// initialize metrics with the metrics port from config
	metricsPort := cfg.Metrics.GetMetricsPort()
	metrics.Init(metricsPort)

	apiServer := api.New(&cfg.Api, service)
	go func() {
		if err := apiServer.Start(); err != nil {
			log.Fatal().Err(err).Msg("error while starting api server")
		}
	}()

	if err := service.StartAccountingSync(ctx); err != nil {
		log.Fatal().Err(err).Msg("error while starting accounting sync")
	}

	<-ctx.Done()
	return nil
}

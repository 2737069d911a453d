package app

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/scratchpool/ticket-api/internal/api"
	"github.com/scratchpool/ticket-api/internal/config"
	"github.com/scratchpool/ticket-api/internal/db"
	"github.com/scratchpool/ticket-api/internal/logger"
	"github.com/scratchpool/ticket-api/internal/repository"
	"github.com/scratchpool/ticket-api/internal/repository/dao"
	"github.com/scratchpool/ticket-api/internal/service"
	"github.com/scratchpool/ticket-api/internal/worker"
)

func Start() error {
	conf, err := config.Load("./cmd/app/config.yml")
	if err != nil {
		return fmt.Errorf("failed to initialize config -> %w", err)
	}

	if err = logger.Init(conf.API.Environment); err != nil {
		return fmt.Errorf("failed to initialize logger -> %w", err)
	}

	dbURL := os.Getenv("DATABASE_URL")
	var postgresDB *gorm.DB
	if dbURL != "" {
		postgresDB, err = db.OpenPostgresWithURL(dbURL)
	} else {
		postgresDB, err = db.OpenPostgres(conf.Postgres)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database -> %w", err)
	}

	if err = dao.InitTables(postgresDB); err != nil {
		return fmt.Errorf("failed to migrate tables -> %w", err)
	}

	draw := conf.DrawSettings()

	ticketRepo := repository.NewTicketRepository(dao.NewTicketDAO(postgresDB))
	purchaseRepo := repository.NewPurchaseRepository(dao.NewPurchaseDAO(postgresDB))

	generator := service.NewCodeGenerator(ticketRepo, draw.CodePrefix, draw.CodeMaxAttempts)
	oracle := service.NewPrizeOracle(func() service.PrizeProfile {
		return prizeProfile(conf.DrawSettings())
	}, nil)
	replenisher := service.NewReplenisher(ticketRepo, generator, oracle, func() service.ReplenishSettings {
		return replenishSettings(conf.DrawSettings())
	})
	cleanup := service.NewCleanupService(ticketRepo)
	fulfillment := service.NewFulfillmentService(ticketRepo, purchaseRepo, draw.ClaimTimeout)

	pool := worker.NewPool(draw.QueueSize, draw.WorkerCount)
	pool.Start()
	defer pool.Stop()

	queue := worker.NewFulfillmentQueue(pool, fulfillment)

	scheduler := worker.NewScheduler(pool)
	scheduler.Every("replenish", draw.ReplenishInterval, replenisher.Replenish)
	scheduler.Every("cleanup-sold", draw.CleanupInterval, cleanup.CleanupSold)
	defer scheduler.Stop()

	s := api.NewServer(conf, postgresDB, queue)

	addr := ":" + s.Config.API.Port
	zap.L().Info(fmt.Sprintf("starting server at %v", addr))
	if err = s.Router.Run(addr); err != nil {
		return fmt.Errorf("failed to start the server -> %w", err)
	}

	return nil
}

func prizeProfile(draw config.DrawConfig) service.PrizeProfile {
	tiers := make([]decimal.Decimal, len(draw.PrizeTiers))
	for i, tier := range draw.PrizeTiers {
		tiers[i] = decimal.NewFromFloat(tier)
	}

	return service.PrizeProfile{
		OddsDenominator: draw.WinnerOdds,
		Tiers:           tiers,
	}
}

func replenishSettings(draw config.DrawConfig) service.ReplenishSettings {
	winners := make([]service.GuaranteedWinners, len(draw.GuaranteedWinners))
	for i, tier := range draw.GuaranteedWinners {
		winners[i] = service.GuaranteedWinners{
			Count: tier.Count,
			Prize: decimal.NewFromFloat(tier.Prize),
		}
	}

	return service.ReplenishSettings{
		LowWaterMark:      draw.LowWaterMark,
		Batches:           draw.ReplenishBatches,
		BatchSize:         draw.ReplenishBatchSize,
		GuaranteedWinners: winners,
	}
}

package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"payledger/internal/domain/directory"
	"payledger/internal/platform/config"
)

const (
	seedWorkerName  = "Demo Worker"
	seedGrossSalary = 30000
	seedDailyWage   = 1000
)

// Seed creates a demo company with one employed worker. It is a no-op when
// the company already exists.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	var existing string
	err := pool.QueryRow(ctx, "SELECT id FROM companies WHERE name = $1", cfg.SeedCompanyName).Scan(&existing)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	store := directory.NewStore(pool)
	svc := directory.NewService(store)

	company, err := store.CreateCompany(ctx, directory.Company{Name: cfg.SeedCompanyName})
	if err != nil {
		return err
	}
	worker, err := store.CreateWorker(ctx, directory.Worker{Name: seedWorkerName, Designation: "Cook"})
	if err != nil {
		return err
	}
	offer, err := svc.OfferContract(ctx, directory.OfferInput{
		CompanyID:   company.ID,
		WorkerID:    worker.ID,
		GrossSalary: decimal.NewFromInt(seedGrossSalary),
		DailyWage:   decimal.NewFromInt(seedDailyWage),
	})
	if err != nil {
		return err
	}
	if _, err := svc.AcceptContract(ctx, offer.ID); err != nil {
		return err
	}

	zap.L().Info("seeded demo data",
		zap.String("companyId", company.ID),
		zap.String("workerId", worker.ID),
	)
	return nil
}

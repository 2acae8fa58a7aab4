package main

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/fablab-print-api/internal/config"
	"github.com/noah-isme/fablab-print-api/internal/database"
	"github.com/noah-isme/fablab-print-api/internal/repository"
	"github.com/noah-isme/fablab-print-api/internal/service"
	"github.com/noah-isme/fablab-print-api/internal/storage"
)

const cliWorkstation = "fablabctl"

type cliEnv struct {
	db    *gorm.DB
	audit service.AuditService
	staff service.StaffService
}

func openEnv() (*cliEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}

	layout, err := storage.NewLayout(cfg.StoragePath)
	if err != nil {
		return nil, err
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	jobRepo := repository.NewJobRepository(db)
	events := service.NewEventService(repository.NewEventRepository(db), logger)
	staff := service.NewStaffService(repository.NewStaffRepository(db), validate, logger)

	return &cliEnv{
		db:    db,
		audit: service.NewAuditService(layout, jobRepo, events, staff, nil, logger),
		staff: staff,
	}, nil
}

func (e *cliEnv) Close() {
	if sqlDB, err := e.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func cliActor(staffName string) service.Actor {
	return service.Actor{StaffName: staffName, WorkstationID: cliWorkstation}
}

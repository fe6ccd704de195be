package main

import (
	"github.com/sirupsen/logrus"

	"lending-marketplace/internal/config"
	"lending-marketplace/internal/infrastructure/db"
	"lending-marketplace/internal/infrastructure/logging"
)

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.IsProd())
	if err := cfg.Validate(); err != nil {
		logrus.WithError(err).Fatal("invalid config")
	}

	gdb, err := db.OpenGorm(cfg.MySQLDSN())
	if err != nil {
		logrus.WithError(err).Fatal("open mysql")
	}
	if err := db.Migrate(gdb); err != nil {
		logrus.WithError(err).Fatal("migrate")
	}
	logrus.WithField("tables", len(db.Models())).Info("schema up to date")
}

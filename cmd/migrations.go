package cmd

import (
	"context"
	"fmt"

	"github.com/hublens/hublens-backend/repositories"
	"github.com/hublens/hublens-backend/utils"
)

func RunMigrations() error {
	config := loadConfiguration()

	logger := utils.NewLogger(config.loggingFormat)
	ctx := utils.StoreLoggerInContext(context.Background(), logger)

	migrater := repositories.NewMigrater(config.pgConfig)
	if err := migrater.Run(ctx); err != nil {
		logger.ErrorContext(ctx, fmt.Sprintf("error running migrations: %v", err))
		return err
	}

	return nil
}

package logger

import (
	"crm-gateway/internal/config"
	"crm-gateway/internal/database"

	"go.uber.org/zap"
)

// NewLogger builds the application logger. With MongoDB enabled, warnings and
// errors are also persisted through the DB writer.
func NewLogger(cfg *config.Config, mongodb *database.MongodbDB) (*zap.Logger, error) {
	var zapConfig zap.Config
	if cfg.IsProduction() {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	// Caller must be enabled for the DB core to record the function name
	zapConfig.EncoderConfig.FunctionKey = "func"

	baseLogger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}

	if !mongodb.Enabled() {
		return baseLogger.With(zap.String("app_id", cfg.AppId)), nil
	}

	dbWriter := NewDBLogWriter(mongodb.Collection("logs"), cfg.AppId)
	finalCore := NewDBCore(baseLogger.Core(), dbWriter)

	return zap.New(finalCore, zap.AddCaller()).With(zap.String("app_id", cfg.AppId)), nil
}

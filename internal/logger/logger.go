package logger

import (
	"go.uber.org/zap"
)

// New returns a development logger for the dev environment and a JSON
// production logger everywhere else.
func New(env string) (*zap.Logger, error) {
	if env == "dev" || env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

package logger

import "go.uber.org/zap"

// New builds the application logger: JSON production logging in production,
// human-readable development logging everywhere else.
func New(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

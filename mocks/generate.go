package mocks

//go:generate mockgen -destination=./mock_datasource.go -package=mocks github.com/quantmill/meanrev/internal/backtest/engine/engine_v1/datasource DataSource
//go:generate mockgen -destination=./mock_provider.go -package=mocks github.com/quantmill/meanrev/pkg/marketdata Provider

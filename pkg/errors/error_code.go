package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidSeries        ErrorCode = 102
	ErrCodeInvalidPeriod        ErrorCode = 103
	ErrCodeInvalidThreshold     ErrorCode = 104
	ErrCodeInsufficientData     ErrorCode = 105
	ErrCodeInvalidVersion       ErrorCode = 106

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeNoDataFound           ErrorCode = 203

	// Indicator errors (300-399)
	ErrCodeIndicatorCalculation ErrorCode = 300

	// Strategy errors (400-499)
	ErrCodeStrategyConfigError ErrorCode = 400
	ErrCodeVersionMismatch     ErrorCode = 401

	// Backtest errors (500-599)
	ErrCodeBacktestStateNil     ErrorCode = 500
	ErrCodeBacktestInitFailed   ErrorCode = 501
	ErrCodeBacktestConfigError  ErrorCode = 502
	ErrCodeBacktestNoDatasource ErrorCode = 503
	ErrCodeLedgerWriteFailed    ErrorCode = 504

	// Market data errors (600-699)
	ErrCodeMarketDataFetchFailed ErrorCode = 600
	ErrCodeMarketDataWriteFailed ErrorCode = 601
	ErrCodeInvalidProvider       ErrorCode = 602
)

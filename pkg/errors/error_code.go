package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidBar           ErrorCode = 102
	ErrCodeInsufficientData     ErrorCode = 103
	ErrCodeInvalidPeriod        ErrorCode = 104
	ErrCodeInvalidThreshold     ErrorCode = 105
	ErrCodeInvalidVersion       ErrorCode = 106

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeNonMonotonicSeries    ErrorCode = 203
	ErrCodeDuplicateDate         ErrorCode = 204

	// Backtest errors (300-399)
	ErrCodeBacktestInitFailed   ErrorCode = 300
	ErrCodeBacktestConfigError  ErrorCode = 301
	ErrCodeBacktestNoDataPaths  ErrorCode = 302
	ErrCodeBacktestNoResultsDir ErrorCode = 303
	ErrCodeBacktestNoDatasource ErrorCode = 304

	// Market data errors (400-499)
	ErrCodeMarketDataFetchFailed ErrorCode = 400
	ErrCodeMarketDataWriteFailed ErrorCode = 401
	ErrCodeInvalidProvider       ErrorCode = 402
)

package collector

import "errors"

// Provider failures. None of them are retried.
var (
	ErrInvalidSymbol     = errors.New("invalid stock symbol")
	ErrRateLimited       = errors.New("rate limit exceeded")
	ErrEmptySeries       = errors.New("empty price series")
	ErrMalformedResponse = errors.New("malformed provider response")
)

// UserMessage returns the human-readable text shown for err.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidSymbol):
		return "Invalid stock symbol. Please check the symbol and try again."
	case errors.Is(err, ErrRateLimited):
		return "API call frequency limit reached. Please wait a minute before trying again."
	case errors.Is(err, ErrEmptySeries):
		return "No trading data available for this stock symbol."
	case errors.Is(err, ErrMalformedResponse):
		return "Invalid stock symbol or no data available for this ticker."
	default:
		return "Failed to fetch stock data. Please try again."
	}
}

// ErrorKind returns a short label for err, used in metrics and the journal.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidSymbol):
		return "invalid_symbol"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrEmptySeries):
		return "empty_series"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed"
	default:
		return "other"
	}
}

package bybit

import "fmt"

// Bybit retCodes that mean "slow down".
const (
	RetCodeTooManyVisits = 10006
	RetCodeIPRateLimit   = 10018
)

// APIError is a non-success answer from Bybit, either an HTTP status or a non-zero retCode.
type APIError struct {
	StatusCode int
	RetCode    int
	Message    string
}

func (e *APIError) Error() string {
	if e.RetCode != 0 {
		return fmt.Sprintf("bybit error (http %d, retCode %d): %s", e.StatusCode, e.RetCode, e.Message)
	}
	return fmt.Sprintf("bybit error (http %d): %s", e.StatusCode, e.Message)
}

// IsRateLimited reports whether Bybit asked the caller to back off.
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == 429 || e.RetCode == RetCodeTooManyVisits || e.RetCode == RetCodeIPRateLimit
}

// IsServerError reports a 5xx answer.
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500
}

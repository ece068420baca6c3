package kingdto

// DomainError is the body of every non-2xx API response.
type DomainError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "kingcapture error"
}

const (
	CodeBadRequest  = "bad_request"
	CodeIllegalMove = "illegal_move"
	CodeNotYourTurn = "not_your_turn"
	CodeNotFound    = "not_found"
	CodeInternal    = "internal"
	CodeNoMoves     = "no_moves"
	CodeUnavailable = "unavailable"
)

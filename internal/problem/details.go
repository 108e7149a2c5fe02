package problem

// Details is the RFC 7807 ProblemDetails body returned for every
// surfaced error, per spec.md section 6.
type Details struct {
	Title         string `json:"title"`
	Status        int    `json:"status"`
	Detail        string `json:"detail"`
	CorrelationID string `json:"correlationId"`
}

var titles = map[Kind]string{
	KindValidation:         "Validation Failed",
	KindTokenLimitExceeded: "Token Limit Exceeded",
	KindModelUnknown:       "Model Unknown",
	KindAllProvidersFailed: "All Providers Failed",
	KindUpstreamTerminal:   "Upstream Rejected Request",
	KindInternal:           "Internal Server Error",
}

// ToDetails renders an *Error into its ProblemDetails wire form.
func ToDetails(err *Error, correlationID string) Details {
	title, ok := titles[err.Kind]
	if !ok {
		title = "Internal Server Error"
	}
	return Details{
		Title:         title,
		Status:        err.Kind.HTTPStatus(),
		Detail:        err.Message,
		CorrelationID: correlationID,
	}
}

// FromError classifies an arbitrary error into a ProblemDetails body,
// treating anything that is not already a *Error as KindInternal.
func FromError(err error, correlationID string) Details {
	if perr, ok := err.(*Error); ok {
		return ToDetails(perr, correlationID)
	}
	return Details{
		Title:         titles[KindInternal],
		Status:        KindInternal.HTTPStatus(),
		Detail:        err.Error(),
		CorrelationID: correlationID,
	}
}

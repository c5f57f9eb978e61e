package errors

// Logger is the subset of logger.Logger the handler needs.
type Logger interface {
	Error(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
}

// ErrorHandler normalizes and logs errors raised on a user-facing path.
type ErrorHandler struct {
	logger Logger
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle normalizes err to a StandardError and logs it with the operation
// name. Rejected concurrent submissions are logged at warn level.
func (h *ErrorHandler) Handle(operation string, err error, fields map[string]interface{}) *StandardError {
	stdErr := Normalize(err)
	if stdErr == nil {
		return nil
	}

	logFields := map[string]interface{}{
		"operation":     operation,
		"errorCode":     string(stdErr.Code),
		"errorCategory": GetErrorCategory(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
	}
	for k, v := range fields {
		logFields[k] = v
	}

	if stdErr.Code == ErrCodeSubmissionInFlight {
		h.logger.Warn("operation rejected", logFields)
		return stdErr
	}
	h.logger.Error("operation failed", logFields)
	return stdErr
}

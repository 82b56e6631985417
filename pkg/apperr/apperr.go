// Package apperr defines the typed error codes the HTTP surface reports, a
// small taxonomy shared between pkg/supervisor (which raises them) and
// pkg/httpapi (which translates them to status codes and JSON bodies).
package apperr

import "fmt"

// Code is a machine-readable error identifier returned alongside a
// human-readable message.
type Code string

const (
	MissingFEN           Code = "MISSING_FEN"
	InvalidMovesUCI      Code = "INVALID_MOVES_UCI"
	InvalidMovetime      Code = "INVALID_MOVETIME"
	EngineTimeout        Code = "ENGINE_TIMEOUT"
	EngineError          Code = "ENGINE_ERROR"
	StockfishUnavailable Code = "STOCKFISH_UNAVAILABLE"
	UnknownRequestID     Code = "unknown request id"
)

// Error is an apperr-coded failure, carrying the HTTP status its caller
// should translate it to.
type Error struct {
	Code    Code
	Status  int
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("%v: %v", e.Code, e.Message) }

func newf(code Code, status int, format string, args ...any) *Error {
	return &Error{Code: code, Status: status, Message: fmt.Sprintf(format, args...)}
}

func MissingFENError() *Error {
	return newf(MissingFEN, 400, "fen is required")
}

func InvalidMovesUCIError() *Error {
	return newf(InvalidMovesUCI, 400, "moves_uci must be an array of strings")
}

func InvalidMovetimeError() *Error {
	return newf(InvalidMovetime, 400, "movetime_ms must be a positive integer")
}

func EngineTimeoutError(requestID string) *Error {
	return newf(EngineTimeout, 500, "engine did not respond in time for request %v", requestID)
}

func EngineErrorf(format string, args ...any) *Error {
	return newf(EngineError, 500, format, args...)
}

func StockfishUnavailableError() *Error {
	return newf(StockfishUnavailable, 503, "secondary engine is not available")
}

func UnknownRequestIDError(id string) *Error {
	return newf(UnknownRequestID, 404, "unknown request id %v", id)
}

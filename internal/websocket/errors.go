package websocket

import "errors"

// Connection-related errors.
var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrWriteTimeout     = errors.New("write timeout")
	ErrInvalidJSON      = errors.New("invalid JSON data")
)

// Close reasons sent with a policy-violation (1008) close frame during
// connection authentication. The wording is part of the wire contract.
const (
	CloseReasonTokenRequired = "Token required"
	CloseReasonInvalidToken  = "Invalid token"
	CloseReasonStudentsOnly  = "Only students can mark attendance"
)

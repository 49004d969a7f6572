package usecases

import "errors"

// Auth gate failures. Both are recoverable: the operator may retry at once.
var (
	ErrCredentialNotFound = errors.New("no admin account for that email")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// Dashboard failures.
var (
	ErrNoDashboardSession = errors.New("dashboard session not started")
	ErrUnknownPageOp      = errors.New("unknown page operation")
	ErrNothingSelected    = errors.New("no subscribers selected on this page")
)

// Chat failures.
var (
	ErrEmptyMessage  = errors.New("message is empty")
	ErrBotResponding = errors.New("assistant is still responding")
	ErrChatClosed    = errors.New("chat is closed")
	ErrChatNotFound  = errors.New("chat session not found")
	ErrUnknownFAQ    = errors.New("unknown faq")
	ErrFAQHidden     = errors.New("faq panel is not shown")
)

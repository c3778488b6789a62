// Package services defines the business logic for apps, chats, messages, and
// favorites. This file centralizes common service-level error values so that
// they can be consistently returned by service methods and checked by
// callers.
//
// These errors are intended for internal use by the service layer;
// translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import "errors"

var (
	// ErrAppNotFound indicates that the requested app does not exist or is
	// not owned by the current user.
	ErrAppNotFound = errors.New("app not found")

	// ErrChatNotFound indicates that the requested chat does not exist or is
	// not accessible to the current user.
	ErrChatNotFound = errors.New("chat not found")

	// ErrMessageNotFound indicates that the requested message does not exist
	// or is not accessible to the current user.
	ErrMessageNotFound = errors.New("message not found")

	// ErrEmptyPrompt is returned when a request to create a message contains
	// an empty prompt.
	ErrEmptyPrompt = errors.New("prompt is empty")

	// ErrTooLong is returned when a request to create a message exceeds the
	// maximum configured length limit.
	ErrTooLong = errors.New("prompt too long")

	// ErrNoAssistantMessage is returned by redo when a chat has no prior
	// assistant reply to discard and regenerate.
	ErrNoAssistantMessage = errors.New("no assistant message to redo")

	// ErrEmailTaken is returned when registering with an email already in use.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials is returned when login credentials do not match
	// any known account.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

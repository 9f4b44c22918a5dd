// Package util contains helpers shared by the API controllers.
package util

import "fmt"

// Error is an error which is rendered to HTTP clients as a structured JSON
// body. The InternalMessage is logged but never sent to the client.
type Error struct {
	Message         string `json:"error"`
	Code            string `json:"code"`
	Status          int    `json:"-"`
	InternalMessage string `json:"-"`
}

func NewError(status int, code string, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

func (e *Error) Error() string {
	if e.InternalMessage != "" {
		return fmt.Sprintf("%s (%s): %s", e.Code, e.Message, e.InternalMessage)
	}

	return fmt.Sprintf("%s (%s)", e.Code, e.Message)
}

// WithInternal returns a copy of the error which carries the cause provided
// as its internal message.
func (e *Error) WithInternal(cause error) *Error {
	cp := *e
	cp.InternalMessage = cause.Error()
	return &cp
}

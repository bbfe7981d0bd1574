package handler

import "fmt"

// UserError is an error type that is used to represent
// an error that should be displayed to the user.
type UserError struct {
	Message string
}

func (e *UserError) Error() string {
	return e.Message
}

var _ error = (*UserError)(nil)

// InvalidOptionError means a command option had the wrong type or range.
type InvalidOptionError struct {
	Name   string
	Reason string
}

func (e *InvalidOptionError) Error() string {
	return fmt.Sprintf("invalid %s option: %s", e.Name, e.Reason)
}

// UserMessage is shown to the user who sent the command.
func (e *InvalidOptionError) UserMessage() string {
	return fmt.Sprintf("The %s option %s.", e.Name, e.Reason)
}

var _ error = (*InvalidOptionError)(nil)

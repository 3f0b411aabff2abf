/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cli

import (
	"fmt"
	"os"
	"strings"
)

// CLIError is a user-facing error with optional follow-up suggestions.
// It satisfies the error interface so command handlers can return it
// like any other error; the suggestions are folded into the message.
type CLIError struct {
	Message     string
	Suggestions []string
}

// NewCLIError creates a CLIError with the given message.
func NewCLIError(message string) *CLIError {
	return &CLIError{Message: message}
}

// WithSuggestion appends a suggestion line and returns the error for chaining.
func (e *CLIError) WithSuggestion(suggestion string) *CLIError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// Error returns the message with suggestions on indented follow-up lines.
func (e *CLIError) Error() string {
	if len(e.Suggestions) == 0 {
		return e.Message
	}
	var b strings.Builder
	b.WriteString(e.Message)
	for _, s := range e.Suggestions {
		b.WriteString("\n  → ")
		b.WriteString(s)
	}
	return b.String()
}

// Display writes the error to stderr with the standard error styling.
func (e *CLIError) Display() {
	fmt.Fprintf(os.Stderr, "%s %s\n", ErrorIcon(), Error(e.Message))
	for _, s := range e.Suggestions {
		fmt.Fprintf(os.Stderr, "  %s %s\n", Dimmed("→"), s)
	}
}

// Exit displays the error and terminates the process with status 1.
func (e *CLIError) Exit() {
	e.Display()
	os.Exit(1)
}

// ErrMissingArgument builds the standard error for a command invoked
// without a required argument.
func ErrMissingArgument(arg, usage string) *CLIError {
	return NewCLIError(fmt.Sprintf("Missing required argument: %s", arg)).
		WithSuggestion(fmt.Sprintf("Usage: %s", usage))
}

// ErrInvalidCommand builds the standard error for an unrecognized command.
func ErrInvalidCommand(cmd string) *CLIError {
	return NewCLIError(fmt.Sprintf("Unknown command: %s", cmd)).
		WithSuggestion("Type 'help' to list available commands")
}

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

// Package cli provides terminal output helpers shared by the command-line
// tools: ANSI color decorators, status icons, aligned key/value printing
// and structured error reporting.
package cli

import (
	"fmt"
	"os"
	"strings"
)

// ANSI escape sequences. These are plain strings so callers can embed
// them directly in format strings or concatenate them (Bold+Cyan).
const (
	Reset = "\033[0m"
	Bold  = "\033[1m"
	Dim   = "\033[2m"

	Red         = "\033[31m"
	Green       = "\033[32m"
	Yellow      = "\033[33m"
	Cyan        = "\033[36m"
	BrightGreen = "\033[92m"
)

var colorsEnabled = true

// SetColorsEnabled toggles ANSI color output globally. Tools call this with
// false when stdout is not a terminal or when NO_COLOR is set.
func SetColorsEnabled(enabled bool) {
	colorsEnabled = enabled
}

// ColorsEnabled reports whether ANSI color output is currently enabled.
func ColorsEnabled() bool {
	return colorsEnabled
}

func colorize(code, s string) string {
	if !colorsEnabled {
		return s
	}
	return code + s + Reset
}

// Dimmed renders s in a muted tone, used for secondary detail.
func Dimmed(s string) string {
	return colorize(Dim, s)
}

// Info renders s in the informational accent color.
func Info(s string) string {
	return colorize(Cyan, s)
}

// Highlight renders s emphasized, used for values the user asked about.
func Highlight(s string) string {
	return colorize(Bold+Cyan, s)
}

// Success renders s in the success color.
func Success(s string) string {
	return colorize(Green, s)
}

// Warning renders s in the warning color.
func Warning(s string) string {
	return colorize(Yellow, s)
}

// Error renders s in the error color.
func Error(s string) string {
	return colorize(Red, s)
}

// InfoIcon returns the informational status marker.
func InfoIcon() string {
	return colorize(Cyan, "ℹ")
}

// SuccessIcon returns the success status marker.
func SuccessIcon() string {
	return colorize(Green, "✓")
}

// WarningIcon returns the warning status marker.
func WarningIcon() string {
	return colorize(Yellow, "⚠")
}

// ErrorIcon returns the failure status marker.
func ErrorIcon() string {
	return colorize(Red, "✗")
}

// PrintInfo writes an informational line to stdout.
func PrintInfo(format string, args ...interface{}) {
	fmt.Fprintf(os.Stdout, "%s %s\n", InfoIcon(), fmt.Sprintf(format, args...))
}

// PrintSuccess writes a success line to stdout.
func PrintSuccess(format string, args ...interface{}) {
	fmt.Fprintf(os.Stdout, "%s %s\n", SuccessIcon(), fmt.Sprintf(format, args...))
}

// PrintWarning writes a warning line to stderr.
func PrintWarning(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s %s\n", WarningIcon(), fmt.Sprintf(format, args...))
}

// PrintError writes an error line to stderr.
func PrintError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s %s\n", ErrorIcon(), fmt.Sprintf(format, args...))
}

// KeyValue prints an aligned "key: value" line, with the key padded to
// width characters so consecutive calls line up in a column.
func KeyValue(key, value string, width int) {
	fmt.Printf("  %s %s\n", Dimmed(fmt.Sprintf("%-*s", width, key+":")), value)
}

// Separator returns a horizontal rule of n characters.
func Separator(n int) string {
	if n <= 0 {
		return ""
	}
	return Dimmed(strings.Repeat("─", n))
}

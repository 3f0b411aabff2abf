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

/*
Package banner provides the startup banner display for FlyRec.

Banner Display Overview:
========================

This package handles the visual branding displayed when FlyRec tools start.
It uses Go's embed directive to include the ASCII art banner at compile time,
ensuring the banner file is always available without external dependencies.

Go Embed Directive:
===================

The //go:embed directive is a Go 1.16+ feature that embeds file contents
directly into the compiled binary. This approach has several benefits:

  1. No external file dependencies at runtime
  2. Faster startup (no file I/O needed)
  3. Simpler deployment (single binary)
  4. Guaranteed file availability

ANSI Color Codes:
=================

The package uses ANSI escape sequences for terminal colors. These codes
are widely supported in modern terminals (Linux, macOS, Windows 10+).

Format: \033[<code>m

Common codes used:
  - 31: Red foreground
  - 32: Green foreground
  - 33: Yellow foreground
  - 0:  Reset all attributes
  - 1:  Bold text

Example: "\033[31mRed Text\033[0m" prints "Red Text" in red.

Usage:
======

Simply call banner.Print() at application startup:

	func main() {
	    banner.Print()
	    // ... rest of initialization
	}

Tools that load configuration can use banner.PrintWithConfig(cfg) instead
to show the banner together with a compact summary of the active settings.
*/
package banner

import (
	_ "embed" // Required for the //go:embed directive
	"fmt"
	"io"
	"os"
	"strings"

	"flyrec/internal/config"
)

// banner contains the ASCII art logo loaded from banner.txt at compile time.
// The //go:embed directive instructs the Go compiler to read banner.txt
// and store its contents in this variable as a string.
//
//go:embed banner.txt
var banner string

// ANSI escape codes for terminal text formatting.
// These constants provide readable names for common ANSI codes,
// making the code more maintainable and self-documenting.
const (
	// AnsiRed sets the foreground color to red.
	// Used for the main banner logo to create visual impact.
	AnsiRed = "\033[31m"

	// AnsiGreen sets the foreground color to green.
	// Used for copyright and license information.
	AnsiGreen = "\033[32m"

	// AnsiYellow sets the foreground color to yellow.
	// Available for warning messages or highlights.
	AnsiYellow = "\033[33m"

	// AnsiCyan sets the foreground color to cyan.
	// Used for section headers and informational text.
	AnsiCyan = "\033[36m"

	// AnsiReset clears all text formatting and returns to default.
	// Always use this after colored text to prevent color bleeding.
	AnsiReset = "\033[0m"

	// AnsiBold enables bold text rendering.
	// Combined with colors for emphasis on important text.
	AnsiBold = "\033[1m"

	// AnsiDim enables dim/faint text rendering.
	// Used for less important information.
	AnsiDim = "\033[2m"
)

// Version information for the FlyRec application.
// These constants are used in the banner display and can be
// referenced elsewhere in the application for version reporting.
const (
	Version   = "01.26.14"
	Copyright = "(c)2026 Firefly Software Solutions Inc"
	License   = "Licensed under Apache 2.0"
)

// Print displays the startup banner with version and copyright information.
// This function should be called once at application startup to provide
// visual branding and version information to the user.
//
// The banner includes:
//   - ASCII art logo (from banner.txt)
//   - Application name and version
//   - Copyright notice
//   - License information
//
// Colors are applied using ANSI escape codes for visual appeal.
// The function prints to stdout and does not return any value.
func Print() {
	// Print the ASCII art logo in red for visual impact.
	fmt.Println(AnsiRed + banner + AnsiReset)

	// Print the application name and version in bold red.
	fmt.Println(AnsiRed + AnsiBold + ":: FlyRec ::                    (v" + Version + ")" + AnsiReset)

	// Print copyright and license in bold green.
	fmt.Println(AnsiGreen + AnsiBold + Copyright + AnsiReset)
	fmt.Println(AnsiGreen + AnsiBold + License + AnsiReset)

	// Print a blank line for visual separation from subsequent output.
	fmt.Println()
}

// PrintLogSeparator prints a visual separator before logs start.
// This helps users distinguish between configuration display and log output.
func PrintLogSeparator() {
	printLogSeparator(os.Stdout)
}

func printLogSeparator(w io.Writer) {
	const lineWidth = 78
	arrow := "v"
	text := " LOGS START HERE "
	padding := (lineWidth - len(text) - 4) / 2 // 4 for arrows on each side
	if padding < 0 {
		padding = 0
	}
	line := strings.Repeat("-", padding)
	fmt.Fprintf(w, "  %s%s %s%s%s %s%s%s\n",
		AnsiYellow, arrow+arrow+line,
		AnsiBold, text, AnsiReset+AnsiYellow,
		line+arrow+arrow, AnsiReset, "")
	fmt.Fprintln(w)
}

// PrintWithConfig prints the banner with a compact overview of the active
// storage, string handling, and logging configuration.
func PrintWithConfig(cfg *config.Config) {
	PrintWithConfigTo(os.Stdout, cfg)
}

// PrintWithConfigTo writes the banner with configuration to the specified writer.
func PrintWithConfigTo(w io.Writer, cfg *config.Config) {
	// Print ASCII banner
	fmt.Fprintln(w)
	fmt.Fprintln(w, AnsiRed+banner+AnsiReset)
	fmt.Fprintln(w, AnsiRed+AnsiBold+":: FlyRec ::                    (v"+Version+")"+AnsiReset)
	fmt.Fprintln(w, AnsiDim+"  Embedded Record Storage Engine"+AnsiReset)
	fmt.Fprintln(w)

	// Configuration source
	printConfigSource(w, cfg)

	// Print compact configuration
	printCompactConfig(w, cfg)

	// Footer
	fmt.Fprintln(w, AnsiDim+"  "+Copyright+AnsiReset)
	fmt.Fprintln(w)
}

// Helper functions for configuration display

func printConfigSource(w io.Writer, cfg *config.Config) {
	fmt.Fprint(w, "  "+AnsiDim+"Config: "+AnsiReset)
	if cfg.ConfigFile != "" {
		fmt.Fprintln(w, AnsiYellow+cfg.ConfigFile+AnsiReset)
	} else {
		fmt.Fprintln(w, AnsiDim+"defaults + environment"+AnsiReset)
	}
	fmt.Fprintln(w)
}

func printCompactConfig(w io.Writer, cfg *config.Config) {
	const lineWidth = 78

	// === STORAGE ===
	printSectionHeader(w, "Storage", lineWidth)

	col1 := fmtKV("Data", cfg.DataDir)
	col2 := fmtKV("Pool", fmt.Sprintf("%s%d frames%s", AnsiGreen, cfg.BufferPoolSize, AnsiReset))
	col3 := fmtKV("Policy", strings.ToUpper(cfg.BufferPolicy))
	printRow3(w, col1, col2, col3)

	fmt.Fprintln(w)

	// === STRINGS ===
	printSectionHeader(w, "Strings", lineWidth)

	collation := cfg.CollationLocale
	if collation == "" {
		collation = AnsiDim + "binary" + AnsiReset
	}
	col1 = fmtKV("Encoding", cfg.StringEncoding)
	col2 = fmtKV("Collation", collation)
	printRow2(w, col1, col2)

	fmt.Fprintln(w)

	// === LOGGING ===
	printSectionHeader(w, "Logging", lineWidth)

	logFormat := "text"
	if cfg.LogJSON {
		logFormat = "json"
	}
	col1 = fmtKV("Level", cfg.LogLevel)
	col2 = fmtKV("Format", logFormat)
	printRow2(w, col1, col2)

	fmt.Fprintln(w)
}

func printSectionHeader(w io.Writer, title string, width int) {
	titleLen := len(title) + 4 // "[ title ]"
	leftPad := 2
	rightPad := width - leftPad - titleLen
	if rightPad < 0 {
		rightPad = 0
	}
	fmt.Fprintf(w, "  %s[ %s%s%s ]%s%s\n",
		AnsiDim+strings.Repeat("-", leftPad),
		AnsiReset+AnsiCyan+AnsiBold, title, AnsiReset+AnsiDim,
		strings.Repeat("-", rightPad),
		AnsiReset)
}

func fmtKV(key, value string) string {
	return fmt.Sprintf("%s%s:%s %s", AnsiDim, key, AnsiReset, value)
}

func printRow3(w io.Writer, col1, col2, col3 string) {
	fmt.Fprintf(w, "  %-32s %-26s %s\n", col1, col2, col3)
}

func printRow2(w io.Writer, col1, col2 string) {
	fmt.Fprintf(w, "  %-40s %s\n", col1, col2)
}

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
Package main is the entry point for the FlyRec interactive shell.

FlyRec Shell Overview:
======================

The flyrec-shell (frec) is an interactive REPL (Read-Eval-Print Loop) that
operates directly on FlyRec table files through the embedded storage engine.
There is no server process: the shell opens a table file, drives the buffer
pool and record store in-process, and renders results in the terminal.

Architecture:
=============

The shell follows a simple synchronous read-execute-render model:

 1. Read user input from stdin
 2. Parse the statement into an engine operation
 3. Execute it against the open table
 4. Render the result (table, json, csv, or plain)
 5. Repeat

Command Types:
==============

The shell supports two types of commands:

 1. Local Commands (prefixed with \):
    - \q or \quit : Exit the shell
    - \h or \help : Display help information

 2. Engine Statements:
    - CREATE TABLE : Create a new table file
    - OPEN / USE   : Open a table file
    - INSERT       : Insert a record
    - SCAN         : Scan records, optionally filtered by a condition

Statements (CREATE, INSERT, UPDATE, DELETE, SCAN, COUNT, DROP) are
terminated with a semicolon and may span multiple lines; quick commands
(OPEN, CLOSE, GET, STATS, ...) execute as soon as the line is entered.

Usage Examples:
===============

	Start in the default data directory:
	  frec

	Work against a specific directory:
	  frec -D /var/lib/flyrec

	Example session:
	  flyrec[no table]> CREATE TABLE users (id INT KEY, name STRING(20), age INT);
	  flyrec[no table]> OPEN users
	  flyrec:users> INSERT VALUES (1, 'alice', 30);
	  flyrec:users> SCAN WHERE age > 20;
*/
package main

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/chzyer/readline"
	"golang.org/x/term"

	"flyrec/internal/banner"
	"flyrec/internal/config"
	"flyrec/internal/errors"
	"flyrec/internal/expr"
	"flyrec/internal/logging"
	"flyrec/internal/storage"
	"flyrec/internal/storage/disk"
	"flyrec/pkg/cli"
)

// isTerminal returns true if stdin is a terminal.
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// tableFileExt is the extension given to table files in the data directory.
const tableFileExt = ".tbl"

// CLIConfig holds the configuration for the shell session.
// This struct encapsulates all startup parameters, making it easy
// to pass configuration between functions and extend in the future.
type CLIConfig struct {
	DataDir   string           // Directory holding the table files
	Table     string           // Table to open on startup (empty = none)
	Verbose   bool             // Enable verbose output
	Format    cli.OutputFormat // Output format (table, json, csv, plain)
	Execute   string           // Statement to execute and exit
	Options   *disk.Options    // Buffer pool options for opened tables
	Collation string           // Collation for WHERE conditions (empty = bytewise)
}

// REPLState holds the runtime state for the REPL session.
// These are toggleable options that can be changed during the session.
type REPLState struct {
	Timing         bool   // Show statement execution time
	ExpandedOutput bool   // Use expanded (vertical) output format
	OutputFile     string // File to write output to (empty = stdout)
	outputWriter   *os.File
}

// Global REPL state
var replState = &REPLState{}

// sessionCollator is applied to every WHERE predicate. Nil means bytewise
// string comparison.
var sessionCollator storage.Collator

// collatorFor maps a collation name to a collator: "binary" and "nocase"
// select the fixed rulesets, anything else is treated as a locale tag
// (en, de, sv, ...). An empty name keeps bytewise comparison.
func collatorFor(name string) storage.Collator {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return nil
	case "binary":
		return storage.GetCollator(storage.CollationBinary, "")
	case "nocase":
		return storage.GetCollator(storage.CollationCaseInsensitive, "")
	default:
		return storage.GetCollator(storage.CollationUnicode, name)
	}
}

// Session is the shell's handle on the engine: the data directory, the
// pool options applied when tables are opened, and the currently open
// table (at most one at a time).
type Session struct {
	dataDir string
	opts    *disk.Options
	table   *disk.Table
	name    string
}

// tablePath maps a table name to its file in the data directory.
func (s *Session) tablePath(name string) string {
	return filepath.Join(s.dataDir, name+tableFileExt)
}

// open opens the named table, closing any previously open one first.
func (s *Session) open(name string) error {
	if err := s.close(); err != nil {
		return err
	}
	tbl, err := disk.OpenTable(s.tablePath(name), s.opts)
	if err != nil {
		return err
	}
	s.table = tbl
	s.name = name
	return nil
}

// close closes the current table if one is open.
func (s *Session) close() error {
	if s.table == nil {
		return nil
	}
	err := s.table.Close()
	s.table = nil
	s.name = ""
	return err
}

// require returns the open table or an instructive error.
func (s *Session) require() (*disk.Table, error) {
	if s.table == nil {
		return nil, cli.NewCLIError("No table is open").
			WithSuggestion("Use 'OPEN <name>' to open a table").
			WithSuggestion("Use 'TABLES' to list tables in the data directory")
	}
	return s.table, nil
}

// statementKeywords defines the keywords that start a semicolon-terminated
// statement. Input beginning with one of these enters multi-line mode
// until a terminating semicolon is read.
var statementKeywords = []string{
	"CREATE", "INSERT", "UPDATE", "DELETE", "SCAN", "COUNT", "DROP",
}

// allCompletions contains all completable commands and keywords for tab completion.
var allCompletions = []string{
	// Local commands
	"\\q", "\\quit", "\\h", "\\help", "\\clear", "\\s", "\\status", "\\v", "\\version",
	"\\timing", "\\x", "\\o", "\\!", "\\dt", "\\d",
	// Statements
	"CREATE TABLE", "DROP TABLE", "INSERT VALUES", "UPDATE", "DELETE",
	"SCAN", "SCAN WHERE", "COUNT", "COUNT WHERE", "GET",
	// Quick commands
	"OPEN", "USE", "CLOSE", "TABLES", "DESCRIBE", "SCHEMA", "PAGES", "STATS", "FLUSH",
	// Clause keywords
	"WHERE", "LIMIT", "SET", "VALUES", "AND", "OR", "NOT", "KEY",
	// Data types
	"INT", "STRING", "FLOAT", "BOOL",
}

// getHistoryFilePath returns the path to the history file.
func getHistoryFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".flyrec_history")
}

// createCompleter creates a readline completer for tab completion.
func createCompleter() *readline.PrefixCompleter {
	// Build completion items
	items := make([]readline.PrefixCompleterInterface, 0, len(allCompletions))
	for _, cmd := range allCompletions {
		items = append(items, readline.PcItem(cmd))
	}
	return readline.NewPrefixCompleter(items...)
}

// createReadlineInstance creates a configured readline instance.
func createReadlineInstance() (*readline.Instance, error) {
	historyFile := getHistoryFilePath()

	config := &readline.Config{
		Prompt:          cli.Info("flyrec") + cli.Dimmed(">") + " ",
		HistoryFile:     historyFile,
		AutoComplete:    createCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	}

	return readline.NewEx(config)
}

// filterInput filters input runes for readline.
func filterInput(r rune) (rune, bool) {
	switch r {
	case readline.CharCtrlZ:
		return r, false // Disable Ctrl+Z
	}
	return r, true
}

// requiresSemicolon checks whether the input starts a statement that must
// be terminated with a semicolon. Quick commands and local commands
// execute immediately.
func requiresSemicolon(input string) bool {
	upper := strings.ToUpper(strings.TrimSpace(input))
	for _, kw := range statementKeywords {
		if upper == kw || strings.HasPrefix(upper, kw+" ") || strings.HasPrefix(upper, kw+"(") {
			return true
		}
	}
	return false
}

// isCompleteInput reports whether accumulated multi-line input is ready to
// execute: either it is not a statement at all, or it ends in a semicolon.
func isCompleteInput(input string) bool {
	if input == "" {
		return true
	}
	if strings.HasPrefix(input, "\\") {
		return true
	}
	if !requiresSemicolon(input) {
		return true
	}
	return strings.HasSuffix(input, ";")
}

// Result is the outcome of a statement: either tabular data (Columns plus
// Rows) or a status message, optionally both. All cells are rendered
// strings; typed export lives in flyrec-dump.
type Result struct {
	Columns []string
	Rows    [][]string
	Message string
}

// CLIFlags holds the parsed command-line flags.
type CLIFlags struct {
	DataDir    string
	Table      string
	Version    bool
	Help       bool
	Verbose    bool
	Format     string
	NoColor    bool
	Execute    string
	ConfigFile string
	PoolSize   int
	Policy     string
	Collate    string
}

// parseFlags parses command-line flags and returns the configuration.
func parseFlags() CLIFlags {
	flags := CLIFlags{}

	flag.StringVar(&flags.DataDir, "datadir", "", "Directory holding table files (default: configured data dir)")
	flag.StringVar(&flags.DataDir, "D", "", "Directory holding table files (shorthand)")
	flag.StringVar(&flags.Table, "table", "", "Table to open on startup")
	flag.StringVar(&flags.Table, "t", "", "Table to open on startup (shorthand)")
	flag.BoolVar(&flags.Version, "version", false, "Print version information and exit")
	flag.BoolVar(&flags.Version, "v", false, "Print version information (shorthand)")
	flag.BoolVar(&flags.Help, "help", false, "Show help information")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose output with engine debug logs")
	flag.StringVar(&flags.Format, "format", "table", "Output format: table, json, csv, plain")
	flag.StringVar(&flags.Format, "f", "table", "Output format (shorthand)")
	flag.BoolVar(&flags.NoColor, "no-color", false, "Disable colored output")
	flag.StringVar(&flags.Execute, "execute", "", "Execute a statement and exit")
	flag.StringVar(&flags.Execute, "e", "", "Execute a statement and exit (shorthand)")
	flag.StringVar(&flags.ConfigFile, "config", "", "Path to configuration file")
	flag.StringVar(&flags.ConfigFile, "c", "", "Path to configuration file (shorthand)")
	flag.IntVar(&flags.PoolSize, "pool", 0, "Buffer pool capacity in frames (0 = configured default)")
	flag.StringVar(&flags.Policy, "policy", "", "Page replacement policy: fifo, lru, clock, lfu")
	flag.StringVar(&flags.Collate, "collate", "", "String collation: binary, nocase, or a locale tag")

	// Custom usage function
	flag.Usage = printUsage

	flag.Parse()
	return flags
}

// printUsage prints comprehensive help information.
func printUsage() {
	banner.Print()

	fmt.Println("    frec [flags]")
	fmt.Println("    frec -e \"<statement>\"")
	fmt.Println()

	fmt.Println("  " + cli.Highlight("Flags"))
	fmt.Println()
	fmt.Printf("    %s, %s <dir>    Directory holding table files\n", cli.Info("-D"), cli.Info("--datadir"))
	fmt.Printf("    %s, %s <name>     Table to open on startup\n", cli.Info("-t"), cli.Info("--table"))
	fmt.Printf("    %s, %s          Print version information and exit\n", cli.Info("-v"), cli.Info("--version"))
	fmt.Printf("        %s             Show this help message\n", cli.Info("--help"))
	fmt.Printf("        %s          Enable verbose output with engine debug logs\n", cli.Info("--verbose"))
	fmt.Printf("    %s, %s <format>  Output format: table, json, csv, plain\n", cli.Info("-f"), cli.Info("--format"))
	fmt.Printf("        %s         Disable colored output\n", cli.Info("--no-color"))
	fmt.Printf("    %s, %s <stmt>   Execute a statement and exit\n", cli.Info("-e"), cli.Info("--execute"))
	fmt.Printf("    %s, %s <file>    Path to configuration file\n", cli.Info("-c"), cli.Info("--config"))
	fmt.Printf("        %s <n>          Buffer pool capacity in frames\n", cli.Info("--pool"))
	fmt.Printf("        %s <name>     Page replacement policy: fifo, lru, clock, lfu\n", cli.Info("--policy"))
	fmt.Printf("        %s <name>    String collation: binary, nocase, or a locale tag\n", cli.Info("--collate"))
	fmt.Println()

	fmt.Println("  " + cli.Highlight("Examples"))
	fmt.Println()
	fmt.Println("    " + cli.Dimmed("# Start in the configured data directory"))
	fmt.Println("    " + cli.Success("frec"))
	fmt.Println()
	fmt.Println("    " + cli.Dimmed("# Open a table right away"))
	fmt.Println("    " + cli.Success("frec -D /var/lib/flyrec -t users"))
	fmt.Println()
	fmt.Println("    " + cli.Dimmed("# Run one statement and exit"))
	fmt.Println("    " + cli.Success("frec -t users -e \"SCAN WHERE age > 30\""))
	fmt.Println()
	fmt.Println("    " + cli.Dimmed("# Try a different eviction policy"))
	fmt.Println("    " + cli.Success("frec --pool 128 --policy clock"))
	fmt.Println()
	fmt.Println("    " + cli.Dimmed("# Export a scan as JSON"))
	fmt.Println("    " + cli.Success("frec -t users -f json -e \"SCAN\""))
	fmt.Println()

	fmt.Println("  " + cli.Highlight("Interactive Commands"))
	fmt.Println()
	fmt.Printf("    %s, %s         Exit the shell\n", cli.Info("\\q"), cli.Info("\\quit"))
	fmt.Printf("    %s, %s         Display help information\n", cli.Info("\\h"), cli.Info("\\help"))
	fmt.Printf("    %s            Clear the screen\n", cli.Info("\\clear"))
	fmt.Printf("    %s, %s       Show engine status\n", cli.Info("\\s"), cli.Info("\\status"))
	fmt.Println()

	fmt.Println("  " + cli.Highlight("Environment Variables"))
	fmt.Println()
	fmt.Printf("    %s        Default data directory\n", cli.Info("FLYREC_DATA_DIR"))
	fmt.Printf("    %s  Buffer pool capacity in frames\n", cli.Info("FLYREC_BUFFER_POOL_SIZE"))
	fmt.Printf("    %s   Page replacement policy\n", cli.Info("FLYREC_BUFFER_POLICY"))
	fmt.Printf("    %s  Locale for collated comparisons\n", cli.Info("FLYREC_COLLATION_LOCALE"))
	fmt.Printf("    %s               Disable colored output\n", cli.Info("NO_COLOR"))
	fmt.Println()

	fmt.Println("  " + cli.Dimmed("For more information, visit: https://github.com/firefly-oss/flyrec"))
	fmt.Println()
}

// main is the entry point for the flyrec-shell (frec) application.
// It parses command-line flags, loads configuration, and starts the REPL.
func main() {
	flags := parseFlags()

	// Handle --no-color flag (also check NO_COLOR env var and terminal detection)
	if flags.NoColor || os.Getenv("NO_COLOR") != "" || !isTerminal() {
		cli.SetColorsEnabled(false)
	}

	// Handle --version flag
	if flags.Version {
		fmt.Printf("frec version %s\n", banner.Version)
		fmt.Printf("%s\n", banner.Copyright)
		os.Exit(0)
	}

	// Handle --help flag
	if flags.Help {
		printUsage()
		os.Exit(0)
	}

	// Load configuration: defaults, then file, then environment
	mgr := config.Global()
	if flags.ConfigFile != "" {
		if err := mgr.LoadFromFile(flags.ConfigFile); err != nil {
			cli.PrintError("Failed to load config file: %v", err)
			os.Exit(1)
		}
		mgr.LoadFromEnv()
	} else if err := mgr.Load(); err != nil {
		cli.PrintError("Failed to load configuration: %v", err)
		os.Exit(1)
	}
	cfg := mgr.Get()

	// Route engine logs to stderr so result output stays clean
	level := logging.ParseLevel(cfg.LogLevel)
	if flags.Verbose {
		level = logging.DEBUG
	}
	logging.SetGlobalLevel(level)
	logging.SetJSONMode(cfg.LogJSON)
	logging.SetGlobalOutput(os.Stderr)

	// Pool options: configured defaults, overridden by flags
	opts := disk.DefaultOptions()
	if flags.PoolSize > 0 {
		opts.PoolSize = flags.PoolSize
	}
	if flags.Policy != "" {
		policy, err := disk.ParsePolicy(flags.Policy)
		if err != nil {
			cli.NewCLIError(fmt.Sprintf("Invalid replacement policy: %s", flags.Policy)).
				WithSuggestion("Valid policies: fifo, lru, clock, lfu").
				Exit()
		}
		opts.Policy = policy
	}

	dataDir := cfg.DataDir
	if flags.DataDir != "" {
		dataDir = flags.DataDir
	}

	// Collation for WHERE conditions: flag overrides configuration
	collation := cfg.CollationLocale
	if flags.Collate != "" {
		collation = flags.Collate
	}
	sessionCollator = collatorFor(collation)

	// Display the startup banner unless output is piped or a single
	// statement is being executed. Verbose mode shows the resolved
	// configuration and marks where the debug logs begin.
	if flags.Execute == "" && isTerminal() {
		if flags.Verbose {
			banner.PrintWithConfig(cfg)
			banner.PrintLogSeparator()
		} else {
			banner.Print()
		}
	}

	// Create configuration struct and start the REPL.
	config := CLIConfig{
		DataDir:   dataDir,
		Table:     flags.Table,
		Verbose:   flags.Verbose,
		Format:    cli.ParseOutputFormat(flags.Format),
		Execute:   flags.Execute,
		Options:   opts,
		Collation: collation,
	}

	startREPL(config)
}

// buildPrompt renders the REPL prompt from the session state.
func buildPrompt(session *Session, inMultiLine bool) string {
	if inMultiLine {
		return cli.Dimmed("      -> ")
	}
	if session.name == "" {
		return cli.Info("flyrec") + cli.Dimmed("[no table]>") + " "
	}
	return cli.Info("flyrec") + cli.Dimmed(":") + cli.Success(session.name) + cli.Dimmed(">") + " "
}

// startREPL opens the session and runs the interactive loop.
func startREPL(config CLIConfig) {
	// The data directory must exist before tables can be created in it
	if err := os.MkdirAll(config.DataDir, 0o755); err != nil {
		cli.PrintError("Cannot create data directory %s: %v", config.DataDir, err)
		os.Exit(1)
	}

	session := &Session{dataDir: config.DataDir, opts: config.Options}

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Handle signals in a goroutine
	go func() {
		<-sigChan
		fmt.Println()
		cli.PrintInfo("Interrupted. Closing table...")
		if err := session.close(); err != nil {
			cli.PrintError("Close failed: %v", err)
			os.Exit(1)
		}
		os.Exit(0)
	}()

	// Open the startup table, with a spinner in interactive mode
	if config.Table != "" {
		var spinner *cli.Spinner
		if config.Execute == "" && isTerminal() {
			spinner = cli.NewSpinner(fmt.Sprintf("Opening table %s...", config.Table))
			spinner.Start()
		} else if config.Verbose {
			fmt.Fprintf(os.Stderr, "Opening table %s...\n", config.Table)
		}

		if err := session.open(config.Table); err != nil {
			if spinner != nil {
				spinner.StopWithError("Open failed")
			}
			cli.PrintError("Failed to open table %s: %v", config.Table, err)
			os.Exit(1)
		}

		if spinner != nil {
			info := session.table.Info()
			spinner.StopWithSuccess(fmt.Sprintf("Opened table %s (%d pages, %d records)",
				config.Table, info.TotalPages, info.LiveRecords))
		}
	}

	// If executing a single statement, do it and exit
	if config.Execute != "" {
		input := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(config.Execute), ";"))
		res, err := executeStatement(session, input, config)
		exitCode := 0
		if err != nil {
			printErrorMessage(err.Error())
			exitCode = 1
		} else {
			printResult(res, config.Format)
		}
		if err := session.close(); err != nil {
			cli.PrintError("Close failed: %v", err)
			exitCode = 1
		}
		os.Exit(exitCode)
	}

	fmt.Println()
	// If not running in a terminal (piped input), use the simple REPL
	if !isTerminal() {
		runSimpleREPL(config, session)
		return
	}

	fmt.Println(cli.Success("✓ FlyRec engine ready"))
	fmt.Println()
	cli.KeyValue("Data directory", config.DataDir, 16)
	cli.KeyValue("Buffer pool", fmt.Sprintf("%d frames, %s", config.Options.PoolSize, config.Options.Policy), 16)
	if session.name != "" {
		cli.KeyValue("Open table", session.name, 16)
	}
	fmt.Println()
	fmt.Printf("  Use %s to create a table, %s to open one\n",
		cli.Highlight("CREATE TABLE"), cli.Highlight("OPEN <name>"))
	fmt.Printf("  Type %s to quit, %s for help, %s for completion\n",
		cli.Highlight("\\q"),
		cli.Highlight("\\h"),
		cli.Highlight("Tab"))
	fmt.Println()

	// Create readline instance for advanced line editing
	rl, err := createReadlineInstance()
	if err != nil {
		// Fall back to simple scanner if readline fails
		cli.PrintWarning("Advanced line editing unavailable: %v", err)
		runSimpleREPL(config, session)
		return
	}
	defer rl.Close()

	// Multi-line input buffer
	var multiLineBuffer strings.Builder
	inMultiLine := false

	// Main REPL loop: continuously read, execute, and render.
	for {
		rl.SetPrompt(buildPrompt(session, inMultiLine))

		// Read user input with readline (supports history, completion, editing)
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				// Ctrl+C pressed
				if inMultiLine {
					// Cancel multi-line input
					multiLineBuffer.Reset()
					inMultiLine = false
					fmt.Println()
					continue
				}
				fmt.Println()
				fmt.Println(cli.Dimmed("(Use \\q to quit or Ctrl+D to exit)"))
				continue
			}
			if err == io.EOF {
				// Ctrl+D pressed - exit gracefully
				fmt.Println()
				cli.PrintInfo("Goodbye!")
				break
			}
			// Other error - exit
			fmt.Println()
			cli.PrintInfo("Goodbye!")
			break
		}

		// Trim whitespace from input for clean processing.
		input := strings.TrimSpace(line)

		// Handle explicit multi-line continuation (lines ending with \)
		if strings.HasSuffix(input, "\\") && input != "\\" {
			multiLineBuffer.WriteString(strings.TrimSuffix(input, "\\"))
			multiLineBuffer.WriteString(" ")
			inMultiLine = true
			continue
		}

		// If in multi-line mode, append this line
		if inMultiLine {
			multiLineBuffer.WriteString(input)
			// Check if the statement is complete (ends with semicolon)
			accumulated := strings.TrimSpace(multiLineBuffer.String())
			if !isCompleteInput(accumulated) {
				// Still incomplete, continue reading
				multiLineBuffer.WriteString(" ")
				continue
			}
			// Statement is complete
			input = accumulated
			multiLineBuffer.Reset()
			inMultiLine = false
		} else {
			// Check if this is a statement that needs semicolon termination
			if input != "" && requiresSemicolon(input) && !strings.HasSuffix(input, ";") {
				// Start multi-line mode for incomplete statements
				multiLineBuffer.WriteString(input)
				multiLineBuffer.WriteString(" ")
				inMultiLine = true
				continue
			}
		}

		// Strip the trailing semicolon for statement processing
		input = strings.TrimSuffix(input, ";")
		input = strings.TrimSpace(input)

		// Skip empty lines
		if input == "" {
			continue
		}

		// Handle local commands (prefixed with backslash).
		// These commands are processed without touching the engine.
		if strings.HasPrefix(input, "\\") {
			handleLocalCommand(input, config, session)
			continue
		}

		// Execute the statement against the engine
		start := time.Now()
		res, err := executeStatement(session, input, config)
		elapsed := time.Since(start)
		if err != nil {
			printErrorMessage(err.Error())
			continue
		}

		printResult(res, config.Format)
		if replState.Timing {
			fmt.Println(cli.Dimmed(fmt.Sprintf("Time: %.3f ms", float64(elapsed.Microseconds())/1000.0)))
		}
	}

	if err := session.close(); err != nil {
		cli.PrintError("Close failed: %v", err)
		os.Exit(1)
	}
}

// runSimpleREPL is the fallback loop for piped input or terminals where
// readline is unavailable.
func runSimpleREPL(config CLIConfig, session *Session) {
	scanner := bufio.NewScanner(os.Stdin)
	interactive := isTerminal()

	// Multi-line input buffer for the simple REPL
	var multiLineBuffer strings.Builder
	inMultiLine := false

	for {
		// Only show a prompt in interactive mode
		if interactive {
			fmt.Print(buildPrompt(session, inMultiLine))
		}
		if !scanner.Scan() {
			if interactive {
				fmt.Println()
				cli.PrintInfo("Goodbye!")
			}
			break
		}

		input := strings.TrimSpace(scanner.Text())

		// Handle explicit multi-line continuation (lines ending with \)
		if strings.HasSuffix(input, "\\") && input != "\\" {
			multiLineBuffer.WriteString(strings.TrimSuffix(input, "\\"))
			multiLineBuffer.WriteString(" ")
			inMultiLine = true
			continue
		}

		// If in multi-line mode, append this line
		if inMultiLine {
			multiLineBuffer.WriteString(input)
			accumulated := strings.TrimSpace(multiLineBuffer.String())
			if !isCompleteInput(accumulated) {
				multiLineBuffer.WriteString(" ")
				continue
			}
			input = accumulated
			multiLineBuffer.Reset()
			inMultiLine = false
		} else {
			if input != "" && requiresSemicolon(input) && !strings.HasSuffix(input, ";") {
				multiLineBuffer.WriteString(input)
				multiLineBuffer.WriteString(" ")
				inMultiLine = true
				continue
			}
		}

		input = strings.TrimSuffix(input, ";")
		input = strings.TrimSpace(input)

		if input == "" {
			continue
		}

		// Skip most local commands in piped mode (except quit)
		if strings.HasPrefix(input, "\\") {
			if !interactive && input != "\\q" && input != "\\quit" {
				continue
			}
			handleLocalCommand(input, config, session)
			continue
		}

		res, err := executeStatement(session, input, config)
		if err != nil {
			printErrorMessage(err.Error())
			continue
		}
		printResult(res, config.Format)
	}

	if err := session.close(); err != nil {
		cli.PrintError("Close failed: %v", err)
		os.Exit(1)
	}
}

// executeStatement parses and runs one statement against the session.
func executeStatement(session *Session, input string, config CLIConfig) (*Result, error) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return nil, nil
	}
	cmd := strings.ToUpper(fields[0])
	rest := strings.TrimSpace(input[len(fields[0]):])

	switch cmd {
	case "CREATE":
		return cmdCreateTable(session, rest, config)
	case "DROP":
		return cmdDropTable(session, rest)
	case "OPEN", "USE":
		return cmdOpenTable(session, rest)
	case "CLOSE":
		return cmdCloseTable(session)
	case "TABLES":
		return cmdTables(session)
	case "DESCRIBE", "SCHEMA":
		return cmdDescribe(session)
	case "INSERT":
		return cmdInsert(session, rest)
	case "GET":
		return cmdGet(session, rest)
	case "UPDATE":
		return cmdUpdate(session, rest)
	case "DELETE":
		return cmdDelete(session, rest)
	case "SCAN":
		return cmdScan(session, rest)
	case "COUNT":
		return cmdCount(session, rest)
	case "PAGES":
		return cmdPages(session)
	case "STATS":
		return cmdStats(session)
	case "FLUSH":
		return cmdFlush(session)
	default:
		return nil, cli.ErrInvalidCommand(fields[0])
	}
}

// ============================================================================
// Statement handlers
// ============================================================================

func cmdCreateTable(session *Session, rest string, config CLIConfig) (*Result, error) {
	toks, err := tokenize(rest)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	if !p.matchWord("TABLE") {
		return nil, cli.NewCLIError("Expected TABLE after CREATE").
			WithSuggestion("Usage: CREATE TABLE <name> (attr TYPE [KEY], ...)")
	}
	name, ok := p.word()
	if !ok {
		return nil, cli.ErrMissingArgument("table name", "CREATE TABLE <name> (attr TYPE [KEY], ...)")
	}

	schema, err := p.parseSchemaDef()
	if err != nil {
		return nil, err
	}
	if err := p.expectEnd(); err != nil {
		return nil, err
	}

	path := session.tablePath(name)
	if err := disk.CreateTable(path, schema); err != nil {
		return nil, err
	}
	if config.Verbose {
		cli.PrintInfo("Created %s", path)
	}
	return &Result{Message: fmt.Sprintf("Created table %s %s, record size %d bytes",
		name, schema.String(), schema.RecordSize())}, nil
}

func cmdDropTable(session *Session, rest string) (*Result, error) {
	toks, err := tokenize(rest)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	if !p.matchWord("TABLE") {
		return nil, cli.NewCLIError("Expected TABLE after DROP").
			WithSuggestion("Usage: DROP TABLE <name>")
	}
	name, ok := p.word()
	if !ok {
		return nil, cli.ErrMissingArgument("table name", "DROP TABLE <name>")
	}
	if err := p.expectEnd(); err != nil {
		return nil, err
	}

	// Dropping the open table closes it first
	if session.name == name {
		if err := session.close(); err != nil {
			return nil, err
		}
	}
	if err := disk.DestroyTable(session.tablePath(name)); err != nil {
		return nil, err
	}
	return &Result{Message: fmt.Sprintf("Dropped table %s", name)}, nil
}

func cmdOpenTable(session *Session, rest string) (*Result, error) {
	name := strings.TrimSpace(rest)
	if name == "" {
		return nil, cli.ErrMissingArgument("table name", "OPEN <name>")
	}
	if len(strings.Fields(name)) != 1 {
		return nil, cli.NewCLIError("Table names cannot contain spaces").
			WithSuggestion("Usage: OPEN <name>")
	}
	if err := session.open(name); err != nil {
		return nil, err
	}
	info := session.table.Info()
	return &Result{Message: fmt.Sprintf("Opened table %s (%d pages, %d records)",
		name, info.TotalPages, info.LiveRecords)}, nil
}

func cmdCloseTable(session *Session) (*Result, error) {
	if session.table == nil {
		return nil, cli.NewCLIError("No table is open")
	}
	name := session.name
	if err := session.close(); err != nil {
		return nil, err
	}
	return &Result{Message: fmt.Sprintf("Closed table %s", name)}, nil
}

func cmdTables(session *Session) (*Result, error) {
	pattern := filepath.Join(session.dataDir, "*"+tableFileExt)
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}

	res := &Result{Columns: []string{"table", "size", "modified"}}
	for _, path := range matches {
		fi, err := os.Stat(path)
		if err != nil {
			continue
		}
		name := strings.TrimSuffix(filepath.Base(path), tableFileExt)
		res.Rows = append(res.Rows, []string{
			name,
			fmt.Sprintf("%d KB", fi.Size()/1024),
			fi.ModTime().Format("2006-01-02 15:04:05"),
		})
	}
	if len(res.Rows) == 0 {
		return &Result{Message: fmt.Sprintf("No tables in %s", session.dataDir)}, nil
	}
	return res, nil
}

func cmdDescribe(session *Session) (*Result, error) {
	tbl, err := session.require()
	if err != nil {
		return nil, err
	}

	schema := tbl.Schema()
	keySet := make(map[int]bool, len(schema.Keys))
	for _, k := range schema.Keys {
		keySet[k] = true
	}

	res := &Result{Columns: []string{"#", "attribute", "type", "width", "key"}}
	for i, a := range schema.Attributes {
		typeName := a.Type.String()
		if a.Type == storage.TypeString {
			typeName = fmt.Sprintf("%s[%d]", typeName, a.Length)
		}
		key := ""
		if keySet[i] {
			key = "yes"
		}
		res.Rows = append(res.Rows, []string{
			strconv.Itoa(i), a.Name, typeName, strconv.FormatInt(int64(a.Width()), 10), key,
		})
	}

	info := tbl.Info()
	res.Message = fmt.Sprintf("%d byte records, %d data pages, %d directory pages, %d live records",
		info.RecordSize, info.TotalPages, info.DirPages, info.LiveRecords)
	return res, nil
}

func cmdInsert(session *Session, rest string) (*Result, error) {
	tbl, err := session.require()
	if err != nil {
		return nil, err
	}

	toks, err := tokenize(rest)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	p.matchWord("VALUES") // optional
	literals, err := p.parseValueList()
	if err != nil {
		return nil, err
	}
	if err := p.expectEnd(); err != nil {
		return nil, err
	}

	schema := tbl.Schema()
	if len(literals) != len(schema.Attributes) {
		return nil, cli.NewCLIError(fmt.Sprintf("Expected %d values, got %d",
			len(schema.Attributes), len(literals))).
			WithSuggestion(fmt.Sprintf("Table schema: %s", schema.String()))
	}

	rec, err := tbl.NewRecord()
	if err != nil {
		return nil, err
	}
	for i, lit := range literals {
		v, err := literalValue(lit, schema.Attributes[i].Type, schema.Attributes[i].Name)
		if err != nil {
			return nil, err
		}
		if err := rec.SetValue(schema, i, v); err != nil {
			return nil, err
		}
	}

	if err := tbl.Insert(rec); err != nil {
		return nil, err
	}
	return &Result{Message: fmt.Sprintf("Inserted record %s", rec.ID)}, nil
}

func cmdGet(session *Session, rest string) (*Result, error) {
	tbl, err := session.require()
	if err != nil {
		return nil, err
	}

	rid, err := parseRID(strings.TrimSpace(rest))
	if err != nil {
		return nil, err
	}
	rec, err := tbl.Get(rid)
	if err != nil {
		return nil, err
	}

	row, err := recordRow(tbl.Schema(), rec)
	if err != nil {
		return nil, err
	}
	return &Result{
		Columns: recordColumns(tbl.Schema()),
		Rows:    [][]string{row},
	}, nil
}

func cmdUpdate(session *Session, rest string) (*Result, error) {
	tbl, err := session.require()
	if err != nil {
		return nil, err
	}

	toks, err := tokenize(rest)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}

	ridTok, ok := p.next()
	if !ok {
		return nil, cli.ErrMissingArgument("record id", "UPDATE <page>.<slot> SET attr = value, ...")
	}
	rid, err := parseRID(ridTok.text)
	if err != nil {
		return nil, err
	}
	if !p.matchWord("SET") {
		return nil, cli.NewCLIError("Expected SET after the record id").
			WithSuggestion("Usage: UPDATE <page>.<slot> SET attr = value, ...")
	}

	assignments, err := p.parseAssignments()
	if err != nil {
		return nil, err
	}
	if err := p.expectEnd(); err != nil {
		return nil, err
	}

	// Read-modify-write: fetch the record, apply assignments, write back
	rec, err := tbl.Get(rid)
	if err != nil {
		return nil, err
	}
	schema := tbl.Schema()
	for _, a := range assignments {
		idx, err := schema.AttrIndex(a.attr)
		if err != nil {
			return nil, err
		}
		v, err := literalValue(a.value, schema.Attributes[idx].Type, a.attr)
		if err != nil {
			return nil, err
		}
		if err := rec.SetValue(schema, idx, v); err != nil {
			return nil, err
		}
	}
	if err := tbl.Update(rec); err != nil {
		return nil, err
	}
	return &Result{Message: fmt.Sprintf("Updated record %s", rec.ID)}, nil
}

func cmdDelete(session *Session, rest string) (*Result, error) {
	tbl, err := session.require()
	if err != nil {
		return nil, err
	}

	rid, err := parseRID(strings.TrimSpace(rest))
	if err != nil {
		return nil, err
	}
	if err := tbl.Delete(rid); err != nil {
		return nil, err
	}
	return &Result{Message: fmt.Sprintf("Deleted record %s", rid)}, nil
}

func cmdScan(session *Session, rest string) (*Result, error) {
	tbl, err := session.require()
	if err != nil {
		return nil, err
	}

	pred, limit, err := parseScanClauses(rest)
	if err != nil {
		return nil, err
	}

	scan, err := tbl.OpenScan(pred)
	if err != nil {
		return nil, err
	}
	defer scan.Close()

	schema := tbl.Schema()
	res := &Result{Columns: recordColumns(schema)}
	for limit == 0 || int64(len(res.Rows)) < limit {
		rec, err := scan.Next()
		if err != nil {
			if errors.IsNoMoreRecords(err) {
				break
			}
			return nil, err
		}
		row, err := recordRow(schema, rec)
		if err != nil {
			return nil, err
		}
		res.Rows = append(res.Rows, row)
	}
	return res, nil
}

func cmdCount(session *Session, rest string) (*Result, error) {
	tbl, err := session.require()
	if err != nil {
		return nil, err
	}

	pred, _, err := parseScanClauses(rest)
	if err != nil {
		return nil, err
	}

	// Unfiltered counts come straight from the directory
	if pred == nil {
		return &Result{Message: fmt.Sprintf("%d records", tbl.Count())}, nil
	}

	scan, err := tbl.OpenScan(pred)
	if err != nil {
		return nil, err
	}
	defer scan.Close()

	var n int64
	for {
		_, err := scan.Next()
		if err != nil {
			if errors.IsNoMoreRecords(err) {
				break
			}
			return nil, err
		}
		n++
	}
	return &Result{Message: fmt.Sprintf("%d records", n)}, nil
}

func cmdPages(session *Session) (*Result, error) {
	tbl, err := session.require()
	if err != nil {
		return nil, err
	}

	info := tbl.Info()
	res := &Result{Columns: []string{"page", "records", "free_space", "has_free_slot"}}
	for _, e := range info.Entries {
		res.Rows = append(res.Rows, []string{
			strconv.FormatInt(int64(e.PageID), 10),
			strconv.FormatInt(int64(e.RecordCount), 10),
			strconv.FormatInt(int64(e.FreeSpace), 10),
			strconv.FormatBool(e.HasFreeSlot),
		})
	}
	res.Message = fmt.Sprintf("%d data pages, %d directory pages",
		info.TotalPages, info.DirPages)
	return res, nil
}

func cmdStats(session *Session) (*Result, error) {
	tbl, err := session.require()
	if err != nil {
		return nil, err
	}

	s := tbl.PoolStats()
	res := &Result{
		Columns: []string{"metric", "value"},
		Rows: [][]string{
			{"policy", session.opts.Policy.String()},
			{"capacity", strconv.Itoa(s.Capacity)},
			{"resident", strconv.Itoa(s.Resident)},
			{"pinned", strconv.Itoa(s.Pinned)},
			{"dirty", strconv.Itoa(s.Dirty)},
			{"hits", strconv.FormatInt(s.Hits, 10)},
			{"misses", strconv.FormatInt(s.Misses, 10)},
			{"hit_rate", fmt.Sprintf("%.2f%%", s.HitRate)},
			{"evictions", strconv.FormatInt(s.Evictions, 10)},
			{"disk_reads", strconv.FormatInt(s.DiskReads, 10)},
			{"disk_writes", strconv.FormatInt(s.DiskWrites, 10)},
		},
	}
	return res, nil
}

func cmdFlush(session *Session) (*Result, error) {
	tbl, err := session.require()
	if err != nil {
		return nil, err
	}
	if err := tbl.Flush(); err != nil {
		return nil, err
	}
	return &Result{Message: fmt.Sprintf("Flushed table %s", session.name)}, nil
}

// recordColumns builds the result header for record rows: the RID column
// followed by the schema's attribute names.
func recordColumns(schema *storage.Schema) []string {
	cols := make([]string, 0, len(schema.Attributes)+1)
	cols = append(cols, "rid")
	for _, a := range schema.Attributes {
		cols = append(cols, a.Name)
	}
	return cols
}

// recordRow renders one record as result cells.
func recordRow(schema *storage.Schema, rec *storage.Record) ([]string, error) {
	values, err := rec.Values(schema)
	if err != nil {
		return nil, err
	}
	row := make([]string, 0, len(values)+1)
	row = append(row, rec.ID.String())
	for _, v := range values {
		row = append(row, v.String())
	}
	return row, nil
}

// ============================================================================
// Statement parsing
// ============================================================================

type tokenKind int

const (
	tokWord tokenKind = iota
	tokNumber
	tokString
	tokPunct
)

type token struct {
	kind tokenKind
	text string
}

// tokenize splits a statement body into words, numbers, quoted strings,
// and punctuation. Quoted strings keep their content verbatim; everything
// else is case-preserved (keyword matching upcases on comparison).
func tokenize(input string) ([]token, error) {
	var toks []token
	runes := []rune(input)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case r == ' ' || r == '\t':
			i++

		case r == '\'' || r == '"':
			quote := r
			j := i + 1
			for j < len(runes) && runes[j] != quote {
				j++
			}
			if j >= len(runes) {
				return nil, cli.NewCLIError("Unterminated string literal").
					WithSuggestion("String values are quoted: 'alice'")
			}
			toks = append(toks, token{tokString, string(runes[i+1 : j])})
			i = j + 1

		case r == '(' || r == ')' || r == ',':
			toks = append(toks, token{tokPunct, string(r)})
			i++

		case r == '=' || r == '<' || r == '>' || r == '!':
			op := string(r)
			if i+1 < len(runes) {
				switch op + string(runes[i+1]) {
				case "<=", ">=", "!=", "<>":
					op += string(runes[i+1])
				}
			}
			if op == "!" {
				return nil, cli.NewCLIError("Unexpected '!'").
					WithSuggestion("The inequality operator is != or <>")
			}
			toks = append(toks, token{tokPunct, op})
			i += len(op)

		case r == '-' || (r >= '0' && r <= '9'):
			j := i
			if runes[j] == '-' {
				j++
				if j >= len(runes) || runes[j] < '0' || runes[j] > '9' {
					return nil, cli.NewCLIError("Expected digits after '-'")
				}
			}
			for j < len(runes) && (isDigit(runes[j]) || runes[j] == '.') {
				j++
			}
			toks = append(toks, token{tokNumber, string(runes[i:j])})
			i = j

		case isWordRune(r):
			j := i
			for j < len(runes) && isWordRune(runes[j]) {
				j++
			}
			toks = append(toks, token{tokWord, string(runes[i:j])})
			i = j

		default:
			return nil, cli.NewCLIError(fmt.Sprintf("Unexpected character %q", string(r)))
		}
	}
	return toks, nil
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isWordRune(r rune) bool {
	return r == '_' || isDigit(r) ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// parser walks a token stream. Statement handlers own the grammar; the
// parser provides the primitives.
type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() (token, bool) {
	if p.pos >= len(p.toks) {
		return token{}, false
	}
	return p.toks[p.pos], true
}

func (p *parser) next() (token, bool) {
	tok, ok := p.peek()
	if ok {
		p.pos++
	}
	return tok, ok
}

// matchWord consumes the next token when it is the given keyword
// (case-insensitive).
func (p *parser) matchWord(word string) bool {
	tok, ok := p.peek()
	if !ok || tok.kind != tokWord || !strings.EqualFold(tok.text, word) {
		return false
	}
	p.pos++
	return true
}

// matchPunct consumes the next token when it is the given punctuation.
func (p *parser) matchPunct(punct string) bool {
	tok, ok := p.peek()
	if !ok || tok.kind != tokPunct || tok.text != punct {
		return false
	}
	p.pos++
	return true
}

// word consumes and returns the next word token.
func (p *parser) word() (string, bool) {
	tok, ok := p.peek()
	if !ok || tok.kind != tokWord {
		return "", false
	}
	p.pos++
	return tok.text, true
}

// expectEnd fails when unconsumed tokens remain.
func (p *parser) expectEnd() error {
	tok, ok := p.peek()
	if !ok {
		return nil
	}
	return cli.NewCLIError(fmt.Sprintf("Unexpected input starting at %q", tok.text))
}

// parseSchemaDef parses "(attr TYPE [KEY], ...)" into a schema.
// STRING attributes carry their byte length: STRING(20).
func (p *parser) parseSchemaDef() (*storage.Schema, error) {
	if !p.matchPunct("(") {
		return nil, cli.NewCLIError("Expected '(' to start the attribute list").
			WithSuggestion("Usage: CREATE TABLE <name> (id INT KEY, name STRING(20), ...)")
	}

	var names []string
	var types []storage.DataType
	var lengths []int32
	var keys []int

	for {
		attrName, ok := p.word()
		if !ok {
			return nil, cli.NewCLIError("Expected an attribute name")
		}
		typeName, ok := p.word()
		if !ok {
			return nil, cli.NewCLIError(fmt.Sprintf("Expected a type for attribute %q", attrName)).
				WithSuggestion("Types: INT, STRING(n), FLOAT, BOOL")
		}

		var dt storage.DataType
		var length int32
		switch strings.ToUpper(typeName) {
		case "INT":
			dt = storage.TypeInt
		case "FLOAT":
			dt = storage.TypeFloat
		case "BOOL":
			dt = storage.TypeBool
		case "STRING":
			dt = storage.TypeString
			if !p.matchPunct("(") {
				return nil, cli.NewCLIError(fmt.Sprintf("STRING attribute %q needs a length", attrName)).
					WithSuggestion("Example: name STRING(20)")
			}
			lenTok, ok := p.next()
			if !ok || lenTok.kind != tokNumber {
				return nil, cli.NewCLIError(fmt.Sprintf("Expected a length for STRING attribute %q", attrName))
			}
			n, err := strconv.ParseInt(lenTok.text, 10, 32)
			if err != nil || n < 1 {
				return nil, cli.NewCLIError(fmt.Sprintf("Invalid STRING length %q", lenTok.text))
			}
			length = int32(n)
			if !p.matchPunct(")") {
				return nil, cli.NewCLIError("Expected ')' after the STRING length")
			}
		default:
			return nil, cli.NewCLIError(fmt.Sprintf("Unknown type %q for attribute %q", typeName, attrName)).
				WithSuggestion("Types: INT, STRING(n), FLOAT, BOOL")
		}

		if p.matchWord("KEY") {
			keys = append(keys, len(names))
		}

		names = append(names, attrName)
		types = append(types, dt)
		lengths = append(lengths, length)

		if p.matchPunct(",") {
			continue
		}
		if p.matchPunct(")") {
			break
		}
		return nil, cli.NewCLIError("Expected ',' or ')' in the attribute list")
	}

	return storage.NewSchema(names, types, lengths, keys)
}

// parseValueList parses "(literal, literal, ...)" and returns the literal
// tokens in order.
func (p *parser) parseValueList() ([]token, error) {
	if !p.matchPunct("(") {
		return nil, cli.NewCLIError("Expected '(' to start the value list").
			WithSuggestion("Usage: INSERT VALUES (1, 'alice', 30)")
	}

	var literals []token
	for {
		tok, ok := p.next()
		if !ok {
			return nil, cli.NewCLIError("Unterminated value list")
		}
		switch tok.kind {
		case tokNumber, tokString:
			literals = append(literals, tok)
		case tokWord:
			// Bare words are only valid as boolean literals
			if !strings.EqualFold(tok.text, "true") && !strings.EqualFold(tok.text, "false") {
				return nil, cli.NewCLIError(fmt.Sprintf("Unquoted value %q", tok.text)).
					WithSuggestion("String values are quoted: 'alice'")
			}
			literals = append(literals, tok)
		default:
			return nil, cli.NewCLIError(fmt.Sprintf("Unexpected %q in the value list", tok.text))
		}

		if p.matchPunct(",") {
			continue
		}
		if p.matchPunct(")") {
			return literals, nil
		}
		return nil, cli.NewCLIError("Expected ',' or ')' in the value list")
	}
}

// assignment is one "attr = literal" pair from an UPDATE statement.
type assignment struct {
	attr  string
	value token
}

// parseAssignments parses "attr = literal [, attr = literal]...".
func (p *parser) parseAssignments() ([]assignment, error) {
	var out []assignment
	for {
		attr, ok := p.word()
		if !ok {
			return nil, cli.NewCLIError("Expected an attribute name in SET")
		}
		if !p.matchPunct("=") {
			return nil, cli.NewCLIError(fmt.Sprintf("Expected '=' after %q", attr))
		}
		tok, ok := p.next()
		if !ok {
			return nil, cli.NewCLIError(fmt.Sprintf("Expected a value for %q", attr))
		}
		if tok.kind == tokPunct {
			return nil, cli.NewCLIError(fmt.Sprintf("Expected a value for %q, got %q", attr, tok.text))
		}
		out = append(out, assignment{attr: attr, value: tok})

		if p.matchPunct(",") {
			continue
		}
		return out, nil
	}
}

// parseScanClauses parses the optional "WHERE <condition>" and "LIMIT <n>"
// clauses shared by SCAN and COUNT. A nil predicate matches everything.
func parseScanClauses(rest string) (*expr.Predicate, int64, error) {
	toks, err := tokenize(rest)
	if err != nil {
		return nil, 0, err
	}
	p := &parser{toks: toks}

	var pred *expr.Predicate
	if p.matchWord("WHERE") {
		e, err := p.parseOr()
		if err != nil {
			return nil, 0, err
		}
		pred = expr.NewPredicate(e)
		pred.Collator = sessionCollator
	}

	var limit int64
	if p.matchWord("LIMIT") {
		tok, ok := p.next()
		if !ok || tok.kind != tokNumber {
			return nil, 0, cli.NewCLIError("Expected a number after LIMIT")
		}
		n, err := strconv.ParseInt(tok.text, 10, 64)
		if err != nil || n < 1 {
			return nil, 0, cli.NewCLIError(fmt.Sprintf("Invalid LIMIT %q", tok.text))
		}
		limit = n
	}

	if err := p.expectEnd(); err != nil {
		return nil, 0, err
	}
	return pred, limit, nil
}

// Condition grammar, lowest precedence first:
//
//	condition  := conjunction { OR conjunction }
//	conjunction := unary { AND unary }
//	unary      := NOT unary | '(' condition ')' | comparison
//	comparison := operand op operand
func (p *parser) parseOr() (expr.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.matchWord("OR") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = expr.Or(left, right)
	}
	return left, nil
}

func (p *parser) parseAnd() (expr.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.matchWord("AND") {
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = expr.And(left, right)
	}
	return left, nil
}

func (p *parser) parseUnary() (expr.Expr, error) {
	if p.matchWord("NOT") {
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return expr.Not(operand), nil
	}
	if p.matchPunct("(") {
		e, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if !p.matchPunct(")") {
			return nil, cli.NewCLIError("Expected ')' to close the condition group")
		}
		return e, nil
	}
	return p.parseComparison()
}

func (p *parser) parseComparison() (expr.Expr, error) {
	left, err := p.operand()
	if err != nil {
		return nil, err
	}
	opTok, ok := p.next()
	if !ok || opTok.kind != tokPunct {
		return nil, cli.NewCLIError("Expected a comparison operator").
			WithSuggestion("Operators: = != <> < <= > >=")
	}
	right, err := p.operand()
	if err != nil {
		return nil, err
	}

	switch opTok.text {
	case "=":
		return expr.Eq(left, right), nil
	case "!=", "<>":
		return expr.Ne(left, right), nil
	case "<":
		return expr.Lt(left, right), nil
	case "<=":
		return expr.Le(left, right), nil
	case ">":
		return expr.Gt(left, right), nil
	case ">=":
		return expr.Ge(left, right), nil
	default:
		return nil, cli.NewCLIError(fmt.Sprintf("Unknown operator %q", opTok.text)).
			WithSuggestion("Operators: = != <> < <= > >=")
	}
}

// operand parses one side of a comparison: an attribute reference or a
// literal. Bare words true/false are booleans, every other word is an
// attribute name.
func (p *parser) operand() (expr.Expr, error) {
	tok, ok := p.next()
	if !ok {
		return nil, cli.NewCLIError("Expected an attribute or value")
	}
	switch tok.kind {
	case tokWord:
		if strings.EqualFold(tok.text, "true") {
			return expr.Bool(true), nil
		}
		if strings.EqualFold(tok.text, "false") {
			return expr.Bool(false), nil
		}
		return expr.AttrNamed(tok.text), nil
	case tokString:
		return expr.Str(tok.text), nil
	case tokNumber:
		if strings.Contains(tok.text, ".") {
			f, err := strconv.ParseFloat(tok.text, 32)
			if err != nil {
				return nil, cli.NewCLIError(fmt.Sprintf("Invalid number %q", tok.text))
			}
			return expr.Float(float32(f)), nil
		}
		n, err := strconv.ParseInt(tok.text, 10, 32)
		if err != nil {
			return nil, cli.NewCLIError(fmt.Sprintf("Invalid number %q", tok.text))
		}
		return expr.Int(int32(n)), nil
	default:
		return nil, cli.NewCLIError(fmt.Sprintf("Unexpected %q in condition", tok.text))
	}
}

// literalValue converts a literal token to a typed value for the given
// attribute.
func literalValue(tok token, dt storage.DataType, attr string) (storage.Value, error) {
	switch dt {
	case storage.TypeInt:
		if tok.kind != tokNumber || strings.Contains(tok.text, ".") {
			return storage.Value{}, cli.NewCLIError(
				fmt.Sprintf("Attribute %q takes an INT, got %q", attr, tok.text))
		}
		n, err := strconv.ParseInt(tok.text, 10, 32)
		if err != nil {
			return storage.Value{}, cli.NewCLIError(
				fmt.Sprintf("Invalid INT %q for attribute %q", tok.text, attr))
		}
		return storage.IntValue(int32(n)), nil

	case storage.TypeFloat:
		if tok.kind != tokNumber {
			return storage.Value{}, cli.NewCLIError(
				fmt.Sprintf("Attribute %q takes a FLOAT, got %q", attr, tok.text))
		}
		f, err := strconv.ParseFloat(tok.text, 32)
		if err != nil {
			return storage.Value{}, cli.NewCLIError(
				fmt.Sprintf("Invalid FLOAT %q for attribute %q", tok.text, attr))
		}
		return storage.FloatValue(float32(f)), nil

	case storage.TypeBool:
		if tok.kind != tokWord {
			return storage.Value{}, cli.NewCLIError(
				fmt.Sprintf("Attribute %q takes a BOOL (true or false)", attr))
		}
		b, err := strconv.ParseBool(strings.ToLower(tok.text))
		if err != nil {
			return storage.Value{}, cli.NewCLIError(
				fmt.Sprintf("Invalid BOOL %q for attribute %q", tok.text, attr))
		}
		return storage.BoolValue(b), nil

	case storage.TypeString:
		if tok.kind != tokString {
			return storage.Value{}, cli.NewCLIError(
				fmt.Sprintf("Attribute %q takes a quoted STRING, got %q", attr, tok.text)).
				WithSuggestion("String values are quoted: 'alice'")
		}
		return storage.StringValue(tok.text), nil

	default:
		return storage.Value{}, cli.NewCLIError(fmt.Sprintf("Unknown type for attribute %q", attr))
	}
}

// parseRID parses a record identifier in the "page.slot" form that the
// engine prints, e.g. 0.3.
func parseRID(s string) (storage.RID, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 2 {
		return storage.RID{}, cli.NewCLIError(fmt.Sprintf("Invalid record id %q", s)).
			WithSuggestion("Record ids look like <page>.<slot>, e.g. 0.3")
	}
	page, err1 := strconv.ParseInt(parts[0], 10, 32)
	slot, err2 := strconv.ParseInt(parts[1], 10, 32)
	if err1 != nil || err2 != nil {
		return storage.RID{}, cli.NewCLIError(fmt.Sprintf("Invalid record id %q", s)).
			WithSuggestion("Record ids look like <page>.<slot>, e.g. 0.3")
	}
	return storage.RID{Page: int32(page), Slot: int32(slot)}, nil
}

// ============================================================================
// Local commands
// ============================================================================

func handleLocalCommand(cmd string, config CLIConfig, session *Session) {
	// Handle commands with arguments
	parts := strings.SplitN(cmd, " ", 2)
	baseCmd := parts[0]
	arg := ""
	if len(parts) > 1 {
		arg = strings.TrimSpace(parts[1])
	}

	switch baseCmd {
	case "\\q", "\\quit":
		// Exit the shell gracefully.
		if err := session.close(); err != nil {
			cli.PrintError("Close failed: %v", err)
			os.Exit(1)
		}
		cli.PrintInfo("Goodbye!")
		os.Exit(0)

	case "\\h", "\\help":
		// Display help information about available commands.
		printHelp()

	case "\\clear":
		// Clear the screen
		fmt.Print("\033[H\033[2J")

	case "\\s", "\\status":
		// Show engine status
		printStatus(config, session)

	case "\\v", "\\version":
		// Show version
		fmt.Printf("frec version %s\n", banner.Version)

	case "\\timing":
		// Toggle timing display
		replState.Timing = !replState.Timing
		if replState.Timing {
			cli.PrintSuccess("Timing is on.")
		} else {
			cli.PrintInfo("Timing is off.")
		}

	case "\\x":
		// Toggle expanded output
		replState.ExpandedOutput = !replState.ExpandedOutput
		if replState.ExpandedOutput {
			cli.PrintSuccess("Expanded display is on.")
		} else {
			cli.PrintInfo("Expanded display is off.")
		}

	case "\\o":
		// Set output file
		if arg == "" {
			// Close the current output file and reset to stdout
			if replState.outputWriter != nil {
				replState.outputWriter.Close()
				replState.outputWriter = nil
				replState.OutputFile = ""
				cli.PrintInfo("Output reset to stdout.")
			} else {
				cli.PrintInfo("Output is currently to stdout.")
			}
		} else {
			// Open a new output file
			f, err := os.Create(arg)
			if err != nil {
				cli.PrintError("Cannot open file: %v", err)
				return
			}
			if replState.outputWriter != nil {
				replState.outputWriter.Close()
			}
			replState.outputWriter = f
			replState.OutputFile = arg
			cli.PrintSuccess("Output set to file: %s", arg)
		}

	case "\\!":
		// Execute shell command
		if arg == "" {
			cli.PrintWarning("Usage: \\! <shell command>")
			return
		}
		executeShellCommand(arg)

	case "\\dt":
		// List tables (shortcut for TABLES)
		res, err := cmdTables(session)
		if err != nil {
			printErrorMessage(err.Error())
			return
		}
		printResult(res, config.Format)

	case "\\d":
		// Describe the open table (shortcut for DESCRIBE)
		res, err := cmdDescribe(session)
		if err != nil {
			printErrorMessage(err.Error())
			return
		}
		printResult(res, config.Format)

	default:
		cli.PrintWarning("Unknown command: %s", baseCmd)
		fmt.Println(cli.Dimmed("  Type '\\h' for help on available commands"))
	}
}

// executeShellCommand runs a shell command and prints its output.
func executeShellCommand(cmd string) {
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}
	out, err := exec.Command(shell, "-c", cmd).CombinedOutput()
	fmt.Print(string(out))
	if err != nil {
		cli.PrintError("Command failed: %v", err)
	}
}

// printStatus shows the engine and session state.
func printStatus(config CLIConfig, session *Session) {
	fmt.Println()
	fmt.Println("  " + cli.Highlight("Engine Status"))
	fmt.Println("  " + cli.Separator(30))
	fmt.Println()

	var statusIcon, statusText string
	if session.table != nil {
		statusIcon = cli.Success("●")
		statusText = cli.Success("Table open")
	} else {
		statusIcon = cli.Dimmed("●")
		statusText = cli.Dimmed("No table open")
	}

	fmt.Printf("    %s %s %s\n", cli.Dimmed("Status:"), statusIcon, statusText)
	fmt.Printf("    %s %s\n", cli.Dimmed("Data dir:"), config.DataDir)
	if session.table != nil {
		info := session.table.Info()
		stats := session.table.PoolStats()
		fmt.Printf("    %s %s\n", cli.Dimmed("Table:"), cli.Success(session.name))
		fmt.Printf("    %s %s\n", cli.Dimmed("Schema:"), info.Schema.String())
		fmt.Printf("    %s %d\n", cli.Dimmed("Records:"), info.LiveRecords)
		fmt.Printf("    %s %d data + %d directory\n", cli.Dimmed("Pages:"), info.TotalPages, info.DirPages)
		fmt.Printf("    %s %d frames, %s\n", cli.Dimmed("Pool:"), stats.Capacity, config.Options.Policy)
		fmt.Printf("    %s %.2f%%\n", cli.Dimmed("Hit rate:"), stats.HitRate)
	} else {
		fmt.Printf("    %s %d frames, %s\n", cli.Dimmed("Pool:"), config.Options.PoolSize, config.Options.Policy)
	}
	fmt.Printf("    %s %s\n", cli.Dimmed("Format:"), string(config.Format))
	collation := config.Collation
	if collation == "" {
		collation = "bytewise"
	}
	fmt.Printf("    %s %s\n", cli.Dimmed("Collation:"), collation)

	// Show session settings
	fmt.Println()
	fmt.Println("  " + cli.Highlight("Session Settings"))
	fmt.Println("  " + cli.Separator(30))
	fmt.Println()

	timingStatus := cli.Dimmed("off")
	if replState.Timing {
		timingStatus = cli.Success("on")
	}
	expandedStatus := cli.Dimmed("off")
	if replState.ExpandedOutput {
		expandedStatus = cli.Success("on")
	}
	outputDest := "stdout"
	if replState.OutputFile != "" {
		outputDest = replState.OutputFile
	}

	fmt.Printf("    %s %s\n", cli.Dimmed("Timing:"), timingStatus)
	fmt.Printf("    %s %s\n", cli.Dimmed("Expanded:"), expandedStatus)
	fmt.Printf("    %s %s\n", cli.Dimmed("Output:"), outputDest)
	fmt.Println()
}

// printHelp displays comprehensive help information about shell usage.
// This function provides users with a quick reference for available commands.
func printHelp() {
	fmt.Println()
	fmt.Println("  " + cli.Highlight("FlyRec Shell Help") + " " + cli.Dimmed("(v"+banner.Version+")"))
	fmt.Println("  " + cli.Separator(50))
	fmt.Println()

	// Local Commands
	fmt.Println("  " + cli.Highlight("Local Commands"))
	fmt.Println()
	fmt.Printf("    %s, %s         Exit the shell\n", cli.Info("\\q"), cli.Info("\\quit"))
	fmt.Printf("    %s, %s         Display this help message\n", cli.Info("\\h"), cli.Info("\\help"))
	fmt.Printf("    %s            Clear the screen\n", cli.Info("\\clear"))
	fmt.Printf("    %s, %s       Show engine status\n", cli.Info("\\s"), cli.Info("\\status"))
	fmt.Printf("    %s, %s      Show version information\n", cli.Info("\\v"), cli.Info("\\version"))
	fmt.Printf("    %s              Toggle statement timing display\n", cli.Info("\\timing"))
	fmt.Printf("    %s                  Toggle expanded output mode\n", cli.Info("\\x"))
	fmt.Printf("    %s [file]          Set output to file (no arg = stdout)\n", cli.Info("\\o"))
	fmt.Printf("    %s <cmd>           Execute shell command\n", cli.Info("\\!"))
	fmt.Printf("    %s                 List tables (shortcut)\n", cli.Info("\\dt"))
	fmt.Printf("    %s                  Describe the open table (shortcut)\n", cli.Info("\\d"))
	fmt.Println()

	// Table Management
	fmt.Println("  " + cli.Highlight("Table Management"))
	fmt.Println()
	fmt.Printf("    %s <name> (...)  Create a table file\n", cli.Info("CREATE TABLE"))
	fmt.Printf("    %s <name>           Open a table (USE works too)\n", cli.Info("OPEN"))
	fmt.Printf("    %s                     Close the open table\n", cli.Info("CLOSE"))
	fmt.Printf("    %s <name>     Delete a table file\n", cli.Info("DROP TABLE"))
	fmt.Printf("    %s                    List tables in the data directory\n", cli.Info("TABLES"))
	fmt.Printf("    %s                  Show the open table's schema\n", cli.Info("DESCRIBE"))
	fmt.Println()

	// Record Operations
	fmt.Println("  " + cli.Highlight("Record Operations"))
	fmt.Println()
	fmt.Printf("    %s (v1, v2, ...)  Insert a record\n", cli.Info("INSERT VALUES"))
	fmt.Printf("    %s <page>.<slot>            Fetch one record by id\n", cli.Info("GET"))
	fmt.Printf("    %s <page>.<slot> SET a = v  Update attributes in place\n", cli.Info("UPDATE"))
	fmt.Printf("    %s <page>.<slot>         Delete a record\n", cli.Info("DELETE"))
	fmt.Println()

	// Queries
	fmt.Println("  " + cli.Highlight("Queries"))
	fmt.Println()
	fmt.Printf("    %s                       Scan all live records\n", cli.Info("SCAN"))
	fmt.Printf("    %s WHERE <condition>     Scan records matching a condition\n", cli.Info("SCAN"))
	fmt.Printf("    %s ... LIMIT <n>         Stop after n matches\n", cli.Info("SCAN"))
	fmt.Printf("    %s [WHERE <condition>]  Count records\n", cli.Info("COUNT"))
	fmt.Println()
	fmt.Println("    " + cli.Dimmed("Conditions compare attributes with literals:"))
	fmt.Println("    " + cli.Dimmed("  age > 30, name = 'alice', active = true"))
	fmt.Println("    " + cli.Dimmed("combined with AND, OR, NOT, and parentheses."))
	fmt.Println()

	// Inspection
	fmt.Println("  " + cli.Highlight("Inspection"))
	fmt.Println()
	fmt.Printf("    %s                     Show the page directory\n", cli.Info("PAGES"))
	fmt.Printf("    %s                     Show buffer pool statistics\n", cli.Info("STATS"))
	fmt.Printf("    %s                     Write dirty pages to disk\n", cli.Info("FLUSH"))
	fmt.Println()

	// Quick Examples
	fmt.Println("  " + cli.Highlight("Quick Examples"))
	fmt.Println()
	fmt.Println("    " + cli.Dimmed("# Create and open a table"))
	fmt.Println("    " + cli.Success("CREATE TABLE users (id INT KEY, name STRING(20), age INT);"))
	fmt.Println("    " + cli.Success("OPEN users"))
	fmt.Println()
	fmt.Println("    " + cli.Dimmed("# Insert and query"))
	fmt.Println("    " + cli.Success("INSERT VALUES (1, 'alice', 30);"))
	fmt.Println("    " + cli.Success("SCAN WHERE age >= 18 AND name != 'bob';"))
	fmt.Println()
	fmt.Println("    " + cli.Dimmed("# Point operations use record ids (page.slot)"))
	fmt.Println("    " + cli.Success("GET 0.0"))
	fmt.Println("    " + cli.Success("UPDATE 0.0 SET age = 31;"))
	fmt.Println("    " + cli.Success("DELETE 0.0;"))
	fmt.Println()

	// Multi-line Editing
	fmt.Println("  " + cli.Highlight("Multi-line Editing"))
	fmt.Println()
	fmt.Println("    " + cli.Dimmed("Statements (CREATE, INSERT, UPDATE, DELETE, SCAN, COUNT, DROP)"))
	fmt.Println("    " + cli.Dimmed("require a semicolon (;) to execute. Without one, the prompt"))
	fmt.Println("    " + cli.Dimmed("changes to '->' for continuation."))
	fmt.Println()
	fmt.Println("    " + cli.Dimmed("Tips:"))
	fmt.Println("    " + cli.Dimmed("  • Press Ctrl+C to cancel multi-line input"))
	fmt.Println("    " + cli.Dimmed("  • Use \\ at end of line for explicit continuation"))
	fmt.Println("    " + cli.Dimmed("  • Quick commands (OPEN, GET, STATS, ...) need no semicolon"))
	fmt.Println()
}

// ============================================================================
// Result rendering
// ============================================================================

// resultWriter returns the destination for result output, honoring \o.
func resultWriter() io.Writer {
	if replState.outputWriter != nil {
		return replState.outputWriter
	}
	return os.Stdout
}

// printErrorMessage displays an error message with standard styling.
func printErrorMessage(msg string) {
	for i, line := range strings.Split(msg, "\n") {
		if i == 0 {
			cli.PrintError("%s", line)
		} else {
			fmt.Fprintf(os.Stderr, "  %s\n", cli.Dimmed(strings.TrimSpace(line)))
		}
	}
}

// printResult renders a statement result in the session's output format.
func printResult(res *Result, format cli.OutputFormat) {
	if res == nil {
		return
	}
	w := resultWriter()

	// Message-only results
	if len(res.Columns) == 0 {
		if res.Message != "" {
			if replState.outputWriter == nil {
				cli.PrintSuccess("%s", res.Message)
			} else {
				fmt.Fprintln(w, res.Message)
			}
		}
		return
	}

	switch format {
	case cli.FormatJSON:
		printResultJSON(w, res)
	case cli.FormatCSV:
		printResultCSV(w, res)
	case cli.FormatPlain:
		printResultPlain(w, res)
	default:
		if replState.ExpandedOutput {
			printResultExpanded(w, res)
		} else {
			printResultTable(w, res)
		}
		if res.Message != "" {
			fmt.Fprintln(w, cli.Dimmed("  "+res.Message))
		} else {
			fmt.Fprintln(w, cli.Dimmed(fmt.Sprintf("  (%d rows)", len(res.Rows))))
		}
		fmt.Fprintln(w)
	}
}

// printResultTable renders the result as a box-drawn grid with the header
// row emphasized.
func printResultTable(w io.Writer, res *Result) {
	numCols := len(res.Columns)

	// Calculate maximum width for each column (minimum width of 3 for aesthetics)
	colWidths := make([]int, numCols)
	for i, col := range res.Columns {
		colWidths[i] = 3
		if len(col) > colWidths[i] {
			colWidths[i] = len(col)
		}
	}
	for _, row := range res.Rows {
		for i, cell := range row {
			if i < numCols && len(cell) > colWidths[i] {
				colWidths[i] = len(cell)
			}
		}
	}

	// Unicode box-drawing characters for the grid
	const (
		topLeft     = "┌"
		topRight    = "┐"
		bottomLeft  = "└"
		bottomRight = "┘"
		horizontal  = "─"
		vertical    = "│"
		topT        = "┬"
		bottomT     = "┴"
		leftT       = "├"
		rightT      = "┤"
		cross       = "┼"
	)

	// Build border strings
	var parts []string
	for _, width := range colWidths {
		parts = append(parts, strings.Repeat(horizontal, width+2))
	}
	topBorder := topLeft + strings.Join(parts, topT) + topRight
	separator := leftT + strings.Join(parts, cross) + rightT
	bottomBorder := bottomLeft + strings.Join(parts, bottomT) + bottomRight

	fmt.Fprintln(w)
	fmt.Fprintln(w, cli.Dimmed(topBorder))

	// Header row
	var headerParts []string
	for i, col := range res.Columns {
		headerParts = append(headerParts, cli.Highlight(fmt.Sprintf(" %-*s ", colWidths[i], col)))
	}
	fmt.Fprintln(w, cli.Dimmed(vertical)+strings.Join(headerParts, cli.Dimmed(vertical))+cli.Dimmed(vertical))
	if len(res.Rows) > 0 {
		fmt.Fprintln(w, cli.Dimmed(separator))
	}

	// Data rows
	for _, row := range res.Rows {
		var rowParts []string
		for i := 0; i < numCols; i++ {
			val := ""
			if i < len(row) {
				val = row[i]
			}
			rowParts = append(rowParts, fmt.Sprintf(" %-*s ", colWidths[i], val))
		}
		fmt.Fprintln(w, cli.Dimmed(vertical)+strings.Join(rowParts, cli.Dimmed(vertical))+cli.Dimmed(vertical))
	}

	fmt.Fprintln(w, cli.Dimmed(bottomBorder))
}

// printResultExpanded renders each row vertically, one attribute per line.
func printResultExpanded(w io.Writer, res *Result) {
	width := 0
	for _, col := range res.Columns {
		if len(col) > width {
			width = len(col)
		}
	}

	fmt.Fprintln(w)
	for i, row := range res.Rows {
		fmt.Fprintln(w, cli.Dimmed(fmt.Sprintf("-[ RECORD %d ]%s", i+1, strings.Repeat("-", 24))))
		for j, col := range res.Columns {
			val := ""
			if j < len(row) {
				val = row[j]
			}
			fmt.Fprintf(w, "%s %s\n", cli.Dimmed(fmt.Sprintf("%-*s |", width, col)), val)
		}
	}
}

// printResultJSON renders the result as an indented JSON document with
// the column order preserved.
func printResultJSON(w io.Writer, res *Result) {
	doc := struct {
		Columns []string   `json:"columns"`
		Rows    [][]string `json:"rows"`
	}{Columns: res.Columns, Rows: res.Rows}
	if doc.Rows == nil {
		doc.Rows = [][]string{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		cli.PrintError("JSON encoding failed: %v", err)
	}
}

// printResultCSV renders the result as CSV with a header row.
func printResultCSV(w io.Writer, res *Result) {
	cw := csv.NewWriter(w)
	if err := cw.Write(res.Columns); err != nil {
		cli.PrintError("CSV encoding failed: %v", err)
		return
	}
	if err := cw.WriteAll(res.Rows); err != nil {
		cli.PrintError("CSV encoding failed: %v", err)
		return
	}
	cw.Flush()
}

// printResultPlain renders the result as tab-separated lines.
func printResultPlain(w io.Writer, res *Result) {
	fmt.Fprintln(w, strings.Join(res.Columns, "\t"))
	for _, row := range res.Rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
}

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
Package main is the entry point for the FlyRec dump utility (frecdump).

FlyRec Dump Utility exports table files to various formats for backup,
migration, and data analysis purposes, and loads records back from CSV.

Features:
  - Full table dumps with schema, page map, and records
  - Schema-only exports (no records)
  - Record-only exports (no schema)
  - Multiple output formats: text, JSON, CSV
  - CSV import with per-row validation
  - Compression support (gzip)

Usage:

	frecdump [options] <table-file>

Options:

	-o <file>           Output file path (default: stdout)
	-f <format>         Output format: text, json, csv (default: text)
	--schema-only       Dump schema and page map only, no records
	--data-only         Dump records only, no schema
	--limit <n>         Stop after n records (0 = all)
	-z                  Compress output with gzip
	--import <file>     Import records from a CSV file
	--pool <n>          Buffer pool capacity in frames
	--policy <name>     Page replacement policy: fifo, lru, clock, lfu
	-v                  Verbose output
	--version           Show version information
	-h                  Show help

Environment Variables:

	FLYREC_BUFFER_POOL_SIZE  Buffer pool capacity in frames
	FLYREC_BUFFER_POLICY     Page replacement policy

Examples:

	# Human-readable report to stdout
	frecdump users.tbl

	# Export as JSON
	frecdump -f json -o users.json users.tbl

	# Records as CSV
	frecdump -f csv -o users.csv users.tbl

	# Schema and page map only
	frecdump --schema-only users.tbl

	# Compressed dump
	frecdump -z -f json -o backup.json.gz users.tbl

	# Load records from a CSV file (header names the attributes)
	frecdump --import rows.csv users.tbl
*/
package main

import (
	"compress/gzip"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"flyrec/internal/errors"
	"flyrec/internal/storage"
	"flyrec/internal/storage/disk"
	"flyrec/pkg/cli"
)

// Version information
const (
	Version   = "1.1.0"
	BuildDate = "2026-02-17"
)

// Command-line flags
var (
	outputFile  = flag.String("o", "", "Output file path (default: stdout)")
	format      = flag.String("f", "text", "Output format: text, json, csv")
	schemaOnly  = flag.Bool("schema-only", false, "Dump schema and page map only, no records")
	dataOnly    = flag.Bool("data-only", false, "Dump records only, no schema")
	limit       = flag.Int64("limit", 0, "Stop after this many records (0 = all)")
	compress    = flag.Bool("z", false, "Compress output with gzip")
	importFile  = flag.String("import", "", "Import records from a CSV file")
	poolSize    = flag.Int("pool", 0, "Buffer pool capacity in frames (0 = configured default)")
	policyName  = flag.String("policy", "", "Page replacement policy: fifo, lru, clock, lfu")
	verbose     = flag.Bool("v", false, "Verbose output")
	showVersion = flag.Bool("version", false, "Show version information")
	help        = flag.Bool("h", false, "Show help")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("flyrec-dump version %s (built %s)\n", Version, BuildDate)
		os.Exit(0)
	}

	if *help {
		printUsage()
		os.Exit(0)
	}

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "%s A table file is required\n", cli.ErrorIcon())
		fmt.Fprintf(os.Stderr, "   %s frecdump [options] <table-file>\n", cli.Dimmed("Usage:"))
		os.Exit(1)
	}
	tablePath := flag.Arg(0)

	// Handle import mode
	if *importFile != "" {
		if err := runImport(tablePath); err != nil {
			fmt.Fprintf(os.Stderr, "%s Import failed: %v\n", cli.ErrorIcon(), err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Run export
	if err := runExport(tablePath); err != nil {
		fmt.Fprintf(os.Stderr, "%s Export failed: %v\n", cli.ErrorIcon(), err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("FlyRec Dump Utility - Table export and import tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  frecdump [options] <table-file>")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  frecdump users.tbl                               # Text report to stdout")
	fmt.Println("  frecdump -f json -o users.json users.tbl         # Export as JSON")
	fmt.Println("  frecdump -f csv -o users.csv users.tbl           # Records as CSV")
	fmt.Println("  frecdump --schema-only users.tbl                 # Schema and page map only")
	fmt.Println("  frecdump -z -f json -o backup.json.gz users.tbl  # Compressed dump")
	fmt.Println("  frecdump --import rows.csv users.tbl             # Load records from CSV")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  FLYREC_BUFFER_POOL_SIZE  Buffer pool capacity in frames")
	fmt.Println("  FLYREC_BUFFER_POLICY     Page replacement policy")
}

// openOptions builds the buffer pool options from configuration and flags.
func openOptions() (*disk.Options, error) {
	opts := disk.DefaultOptions()
	if *poolSize > 0 {
		opts.PoolSize = *poolSize
	}
	if *policyName != "" {
		policy, err := disk.ParsePolicy(*policyName)
		if err != nil {
			return nil, err
		}
		opts.Policy = policy
	}
	return opts, nil
}

// Dumper handles table export operations
type Dumper struct {
	table       *disk.Table
	path        string
	format      string
	writer      io.Writer
	verbose     bool
	recordCount int
	startTime   time.Time
}

// runExport performs the table export
func runExport(tablePath string) error {
	startTime := time.Now()

	// Show what we're doing (only if not outputting to stdout)
	toStdout := *outputFile == "" || *outputFile == "-"
	if !toStdout {
		fmt.Fprintf(os.Stderr, "%s Exporting table '%s'...\n", cli.InfoIcon(), tablePath)
	}

	if _, err := os.Stat(tablePath); os.IsNotExist(err) {
		return fmt.Errorf("table file not found: %s", tablePath)
	}

	opts, err := openOptions()
	if err != nil {
		return err
	}
	table, err := disk.OpenTable(tablePath, opts)
	if err != nil {
		return fmt.Errorf("failed to open table: %w", err)
	}
	defer table.Close()

	if *verbose {
		info := table.Info()
		fmt.Fprintf(os.Stderr, "Opened table: %d data pages, %d directory pages, %d records\n",
			info.TotalPages, info.DirPages, info.LiveRecords)
	}

	// Create dumper
	dumper := &Dumper{
		table:     table,
		path:      tablePath,
		format:    *format,
		verbose:   *verbose,
		startTime: startTime,
	}

	// Set up output writer
	var output io.WriteCloser
	if toStdout {
		output = os.Stdout
	} else {
		f, err := os.Create(*outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	// Apply compression if requested
	if *compress {
		gzWriter := gzip.NewWriter(output)
		defer gzWriter.Close()
		dumper.writer = gzWriter
	} else {
		dumper.writer = output
	}

	// Perform the dump based on format
	var dumpErr error
	switch dumper.format {
	case "text":
		dumpErr = dumper.dumpText()
	case "json":
		dumpErr = dumper.dumpJSON()
	case "csv":
		dumpErr = dumper.dumpCSV()
	default:
		return fmt.Errorf("unsupported format: %s", dumper.format)
	}

	if dumpErr != nil {
		return dumpErr
	}

	// Print summary (only if not outputting to stdout)
	if !toStdout {
		elapsed := time.Since(startTime)
		fmt.Fprintf(os.Stderr, "%s Export completed successfully\n", cli.SuccessIcon())
		fmt.Fprintf(os.Stderr, "   %s %d records\n", cli.Dimmed("Exported:"), dumper.recordCount)
		fmt.Fprintf(os.Stderr, "   %s %s\n", cli.Dimmed("Output:"), *outputFile)
		fmt.Fprintf(os.Stderr, "   %s %v\n", cli.Dimmed("Duration:"), elapsed.Round(time.Millisecond))
	}

	return nil
}

// scanRecords walks every live record in storage order, honoring the
// record limit when one is set.
func (d *Dumper) scanRecords(fn func(rec *storage.Record) error) error {
	scan, err := d.table.OpenScan(nil)
	if err != nil {
		return err
	}
	defer scan.Close()

	var n int64
	for *limit == 0 || n < *limit {
		rec, err := scan.Next()
		if err != nil {
			if errors.IsNoMoreRecords(err) {
				return nil
			}
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
		n++
	}
	return nil
}

// dumpText writes a human-readable report of the table
func (d *Dumper) dumpText() error {
	schema := d.table.Schema()
	info := d.table.Info()

	fmt.Fprintf(d.writer, "-- FlyRec Table Dump\n")
	fmt.Fprintf(d.writer, "-- Generated: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(d.writer, "-- Table: %s\n", d.path)
	fmt.Fprintf(d.writer, "--\n\n")

	if !*dataOnly {
		keySet := make(map[int]bool, len(schema.Keys))
		for _, k := range schema.Keys {
			keySet[k] = true
		}

		fmt.Fprintf(d.writer, "-- Schema\n\n")
		for i, attr := range schema.Attributes {
			typeName := attr.Type.String()
			if attr.Type == storage.TypeString {
				typeName = fmt.Sprintf("%s[%d]", typeName, attr.Length)
			}
			marker := ""
			if keySet[i] {
				marker = "  KEY"
			}
			fmt.Fprintf(d.writer, "    %-3d %-20s %-12s %4d bytes%s\n",
				i, attr.Name, typeName, attr.Width(), marker)
		}
		fmt.Fprintf(d.writer, "\n    record size: %d bytes\n", info.RecordSize)
		fmt.Fprintf(d.writer, "    encoding:    %s\n", schema.Encoding)

		fmt.Fprintf(d.writer, "\n-- Page Directory\n\n")
		fmt.Fprintf(d.writer, "    %-8s %-10s %-12s %s\n", "page", "records", "free", "open slots")
		for _, e := range info.Entries {
			fmt.Fprintf(d.writer, "    %-8d %-10d %-12d %t\n",
				e.PageID, e.RecordCount, e.FreeSpace, e.HasFreeSlot)
		}
		fmt.Fprintf(d.writer, "\n    %d data pages, %d directory pages, %d live records\n",
			info.TotalPages, info.DirPages, info.LiveRecords)
	}

	if !*schemaOnly {
		fmt.Fprintf(d.writer, "\n-- Records\n\n")
		err := d.scanRecords(func(rec *storage.Record) error {
			values, err := rec.Values(schema)
			if err != nil {
				return err
			}
			cells := make([]string, len(values))
			for i, v := range values {
				cells[i] = v.String()
			}
			fmt.Fprintf(d.writer, "    %-8s %s\n", rec.ID, strings.Join(cells, " | "))
			d.recordCount++
			return nil
		})
		if err != nil {
			return err
		}
	}

	fmt.Fprintf(d.writer, "\n-- Dump completed\n")
	if d.verbose {
		fmt.Fprintf(os.Stderr, "  %s Dumped %d records\n", cli.SuccessIcon(), d.recordCount)
	}
	return nil
}

// dumpJSON exports the table in JSON format
func (d *Dumper) dumpJSON() error {
	schema := d.table.Schema()
	info := d.table.Info()

	result := make(map[string]interface{})
	result["table"] = d.path
	result["generated"] = time.Now().Format(time.RFC3339)

	if !*dataOnly {
		keySet := make(map[int]bool, len(schema.Keys))
		for _, k := range schema.Keys {
			keySet[k] = true
		}

		attrs := make([]map[string]interface{}, len(schema.Attributes))
		for i, attr := range schema.Attributes {
			attrs[i] = map[string]interface{}{
				"name":  attr.Name,
				"type":  attr.Type.String(),
				"width": attr.Width(),
				"key":   keySet[i],
			}
		}
		result["schema"] = map[string]interface{}{
			"attributes":  attrs,
			"record_size": info.RecordSize,
			"encoding":    string(schema.Encoding),
		}

		pages := make([]map[string]interface{}, len(info.Entries))
		for i, e := range info.Entries {
			pages[i] = map[string]interface{}{
				"page":          e.PageID,
				"records":       e.RecordCount,
				"free_space":    e.FreeSpace,
				"has_free_slot": e.HasFreeSlot,
			}
		}
		result["pages"] = pages
	}

	if !*schemaOnly {
		records := make([]map[string]interface{}, 0, info.LiveRecords)
		err := d.scanRecords(func(rec *storage.Record) error {
			values, err := rec.Values(schema)
			if err != nil {
				return err
			}
			row := make(map[string]interface{}, len(values)+1)
			row["rid"] = rec.ID.String()
			for i, v := range values {
				row[schema.Attributes[i].Name] = jsonValue(v)
			}
			records = append(records, row)
			d.recordCount++
			return nil
		})
		if err != nil {
			return err
		}
		result["records"] = records
	}

	encoder := json.NewEncoder(d.writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		return err
	}

	if d.verbose {
		fmt.Fprintf(os.Stderr, "  %s Dumped %d records\n", cli.SuccessIcon(), d.recordCount)
	}
	return nil
}

// jsonValue maps a typed value to its native JSON representation.
func jsonValue(v storage.Value) interface{} {
	switch v.Type {
	case storage.TypeInt:
		return v.Int
	case storage.TypeString:
		return v.Str
	case storage.TypeFloat:
		return v.Float
	case storage.TypeBool:
		return v.Bool
	default:
		return v.String()
	}
}

// dumpCSV exports the records as CSV with a header row
func (d *Dumper) dumpCSV() error {
	schema := d.table.Schema()
	writer := csv.NewWriter(d.writer)

	// Write header
	header := make([]string, 0, len(schema.Attributes)+1)
	header = append(header, "rid")
	for _, attr := range schema.Attributes {
		header = append(header, attr.Name)
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	// Write record rows
	err := d.scanRecords(func(rec *storage.Record) error {
		values, err := rec.Values(schema)
		if err != nil {
			return err
		}
		row := make([]string, 0, len(values)+1)
		row = append(row, rec.ID.String())
		for _, v := range values {
			row = append(row, v.String())
		}
		if err := writer.Write(row); err != nil {
			return err
		}
		d.recordCount++
		return nil
	})
	if err != nil {
		return err
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}

	if d.verbose {
		fmt.Fprintf(os.Stderr, "  %s Dumped %d records\n", cli.SuccessIcon(), d.recordCount)
	}
	return nil
}

// runImport loads records into the table from a CSV file
func runImport(tablePath string) error {
	startTime := time.Now()

	fmt.Fprintf(os.Stderr, "%s Importing from '%s' into '%s'...\n",
		cli.InfoIcon(), *importFile, tablePath)

	opts, err := openOptions()
	if err != nil {
		return err
	}
	table, err := disk.OpenTable(tablePath, opts)
	if err != nil {
		return fmt.Errorf("failed to open table: %w", err)
	}
	defer table.Close()

	// Open import file
	f, err := os.Open(*importFile)
	if err != nil {
		return fmt.Errorf("failed to open import file: %w", err)
	}
	defer f.Close()

	// Check if file is gzipped
	var reader io.Reader = f
	if strings.HasSuffix(*importFile, ".gz") {
		gzReader, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("failed to decompress file: %w", err)
		}
		defer gzReader.Close()
		reader = gzReader
	}

	schema := table.Schema()
	cr := csv.NewReader(reader)
	cr.FieldsPerRecord = -1

	// Map CSV columns to schema attributes by header name. A leading rid
	// column, as written by the CSV export, is skipped.
	header, err := cr.Read()
	if err != nil {
		return fmt.Errorf("failed to read CSV header: %w", err)
	}
	cols := make([]int, len(header))
	for i, name := range header {
		if i == 0 && strings.EqualFold(strings.TrimSpace(name), "rid") {
			cols[i] = -1
			continue
		}
		idx, err := schema.AttrIndex(strings.TrimSpace(name))
		if err != nil {
			return fmt.Errorf("CSV column %q does not match a schema attribute", name)
		}
		cols[i] = idx
	}

	rowCount := 0
	errorCount := 0
	line := 1

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("error reading import file: %w", err)
		}
		line++

		rec, err := table.NewRecord()
		if err != nil {
			return err
		}

		ok := true
		for i, cell := range row {
			if i >= len(cols) || cols[i] < 0 {
				continue
			}
			idx := cols[i]
			v, err := parseCell(cell, schema.Attributes[idx].Type)
			if err == nil {
				err = rec.SetValue(schema, idx, v)
			}
			if err != nil {
				ok = false
				errorCount++
				if *verbose {
					fmt.Fprintf(os.Stderr, "  %s Line %d: %v\n", cli.WarningIcon(), line, err)
				}
				break
			}
		}
		if !ok {
			continue
		}

		if err := table.Insert(rec); err != nil {
			return fmt.Errorf("insert failed at line %d: %w", line, err)
		}
		rowCount++

		if *verbose && rowCount%1000 == 0 {
			fmt.Fprintf(os.Stderr, "  %s Imported %d records...\n", cli.InfoIcon(), rowCount)
		}
	}

	elapsed := time.Since(startTime)

	// Print summary
	fmt.Fprintf(os.Stderr, "%s Import completed successfully\n", cli.SuccessIcon())
	fmt.Fprintf(os.Stderr, "   %s %d records inserted\n", cli.Dimmed("Imported:"), rowCount)
	if errorCount > 0 {
		fmt.Fprintf(os.Stderr, "   %s %d rows skipped (errors)\n", cli.Dimmed("Skipped:"), errorCount)
	}
	fmt.Fprintf(os.Stderr, "   %s %v\n", cli.Dimmed("Duration:"), elapsed.Round(time.Millisecond))

	return nil
}

// parseCell converts one CSV cell to a typed value for the target attribute.
func parseCell(cell string, dt storage.DataType) (storage.Value, error) {
	cell = strings.TrimSpace(cell)
	switch dt {
	case storage.TypeInt:
		n, err := strconv.ParseInt(cell, 10, 32)
		if err != nil {
			return storage.Value{}, fmt.Errorf("invalid INT %q", cell)
		}
		return storage.IntValue(int32(n)), nil
	case storage.TypeFloat:
		f, err := strconv.ParseFloat(cell, 32)
		if err != nil {
			return storage.Value{}, fmt.Errorf("invalid FLOAT %q", cell)
		}
		return storage.FloatValue(float32(f)), nil
	case storage.TypeBool:
		b, err := strconv.ParseBool(strings.ToLower(cell))
		if err != nil {
			return storage.Value{}, fmt.Errorf("invalid BOOL %q", cell)
		}
		return storage.BoolValue(b), nil
	case storage.TypeString:
		return storage.StringValue(cell), nil
	default:
		return storage.Value{}, fmt.Errorf("unsupported attribute type")
	}
}

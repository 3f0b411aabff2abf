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

import "strings"

// OutputFormat selects how tools render result sets.
type OutputFormat string

const (
	// FormatTable renders results as an aligned text table (the default).
	FormatTable OutputFormat = "table"
	// FormatJSON renders results as indented JSON.
	FormatJSON OutputFormat = "json"
	// FormatCSV renders results as comma-separated values.
	FormatCSV OutputFormat = "csv"
	// FormatPlain renders results as unadorned lines.
	FormatPlain OutputFormat = "plain"
)

// ParseOutputFormat maps a user-supplied format name to an OutputFormat.
// Unrecognized names fall back to FormatTable.
func ParseOutputFormat(s string) OutputFormat {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON
	case "csv":
		return FormatCSV
	case "plain":
		return FormatPlain
	default:
		return FormatTable
	}
}

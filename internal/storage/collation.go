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

package storage

import (
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Collator defines how two STRING attribute values are ordered. Scan
// predicates route string comparisons through a Collator, so a table can
// be filtered with locale-aware ordering while the stored bytes stay
// exactly as written.
type Collator interface {
	// Compare returns -1, 0, or 1 as a sorts before, equal to, or after b.
	Compare(a, b string) int

	// Equal reports whether a and b are equivalent under the collation.
	Equal(a, b string) bool
}

// GetCollator returns the Collator for a collation type. The locale is
// consulted only for CollationUnicode; unrecognized types fall back to
// byte-wise ordering.
func GetCollator(collationType Collation, locale string) Collator {
	switch collationType {
	case CollationBinary:
		return &BinaryCollator{}
	case CollationCaseInsensitive:
		return &NocaseCollator{}
	case CollationUnicode:
		return NewUnicodeCollator(locale)
	default:
		return &DefaultCollator{}
	}
}

// DefaultCollator orders strings by raw byte value. This matches the
// ordering of the padded bytes inside a record, so comparisons agree
// with a byte-level view of the page.
type DefaultCollator struct{}

func (*DefaultCollator) Compare(a, b string) int { return strings.Compare(a, b) }

func (*DefaultCollator) Equal(a, b string) bool { return a == b }

// BinaryCollator is the explicit spelling of byte-wise ordering, for
// callers that want binary semantics regardless of the configured
// default.
type BinaryCollator struct {
	DefaultCollator
}

// NocaseCollator ignores letter case when comparing.
type NocaseCollator struct{}

func (*NocaseCollator) Compare(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

func (*NocaseCollator) Equal(a, b string) bool { return strings.EqualFold(a, b) }

// UnicodeCollator compares strings with the Unicode collation algorithm
// for a specific locale, using loose matching (case and width folded).
// A UnicodeCollator buffers state between calls and must not be shared
// across goroutines without external locking.
type UnicodeCollator struct {
	collator *collate.Collator
	locale   string
}

// NewUnicodeCollator builds a collator for the given locale tag
// ("en_US", "de-DE", "sv"). Unrecognized locales fall back to English
// rather than an undefined ordering.
func NewUnicodeCollator(locale string) *UnicodeCollator {
	tag := language.Make(locale)
	if tag == language.Und {
		tag = language.English
	}
	return &UnicodeCollator{
		collator: collate.New(tag, collate.Loose),
		locale:   locale,
	}
}

// Locale returns the locale tag the collator was built with.
func (c *UnicodeCollator) Locale() string { return c.locale }

func (c *UnicodeCollator) Compare(a, b string) int { return c.collator.CompareString(a, b) }

func (c *UnicodeCollator) Equal(a, b string) bool { return c.collator.CompareString(a, b) == 0 }

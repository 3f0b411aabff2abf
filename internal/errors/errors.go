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
Package errors provides structured error handling for FlyRec.

The errors package implements a structured error system with:
  - Error categories aligned with the engine's failure kinds
  - Error codes for programmatic handling
  - User-friendly error messages
  - Contextual information for debugging
  - Error wrapping for root cause analysis

Error Categories:
  - InputError: invalid or out-of-range arguments, rejected before any
    resource is touched
  - ResourceError: exhaustion failures (page full, no evictable frame,
    pinned frames at shutdown)
  - NotFoundError: a record, slot, or table file that does not exist
  - ReferenceError: malformed record identifiers or attribute indices
  - TypeError: a value whose declared type disagrees with the schema
  - IOError: failures reading or writing the underlying page file
  - ScanError: scan lifecycle signals; note that ErrNoMoreRecords is a
    normal terminal condition, not a fault
*/
package errors

import (
	"fmt"
)

// ErrorCode represents a unique error identifier.
type ErrorCode int

const (
	// Input validation errors (1000-1999)
	ErrCodeInvalidInput   ErrorCode = 1000
	ErrCodeNilArgument    ErrorCode = 1001
	ErrCodeInvalidSchema  ErrorCode = 1002
	ErrCodeInvalidConfig  ErrorCode = 1003
	ErrCodeValueTooLarge  ErrorCode = 1004
	ErrCodeInvalidEncoded ErrorCode = 1005

	// Resource exhaustion errors (2000-2999)
	ErrCodeResource       ErrorCode = 2000
	ErrCodeNoFreeFrame    ErrorCode = 2001
	ErrCodePinnedFrames   ErrorCode = 2002
	ErrCodePageFull       ErrorCode = 2003
	ErrCodePoolShutDown   ErrorCode = 2004
	ErrCodeUnpinnedFrame  ErrorCode = 2005
	ErrCodeDirectoryLimit ErrorCode = 2006

	// Not-found errors (3000-3999)
	ErrCodeNotFound       ErrorCode = 3000
	ErrCodeRecordNotFound ErrorCode = 3001
	ErrCodeTableNotFound  ErrorCode = 3002
	ErrCodePageNotFound   ErrorCode = 3003

	// Invalid reference errors (4000-4999)
	ErrCodeReference        ErrorCode = 4000
	ErrCodeInvalidRID       ErrorCode = 4001
	ErrCodeInvalidAttribute ErrorCode = 4002
	ErrCodeInvalidPageNum   ErrorCode = 4003

	// Type errors (5000-5999)
	ErrCodeType         ErrorCode = 5000
	ErrCodeTypeMismatch ErrorCode = 5001
	ErrCodeUnknownType  ErrorCode = 5002

	// Storage I/O errors (6000-6999)
	ErrCodeIO            ErrorCode = 6000
	ErrCodeReadFailed    ErrorCode = 6001
	ErrCodeWriteFailed   ErrorCode = 6002
	ErrCodeFileExists    ErrorCode = 6003
	ErrCodeCorruptHeader ErrorCode = 6004
	ErrCodeCorruptSchema ErrorCode = 6005

	// Scan errors and signals (7000-7999)
	ErrCodeScan          ErrorCode = 7000
	ErrCodeNoMoreRecords ErrorCode = 7001
	ErrCodeScanClosed    ErrorCode = 7002
)

// Category represents the error category.
type Category string

const (
	CategoryInput     Category = "INPUT"
	CategoryResource  Category = "RESOURCE"
	CategoryNotFound  Category = "NOT_FOUND"
	CategoryReference Category = "REFERENCE"
	CategoryType      Category = "TYPE"
	CategoryIO        Category = "IO"
	CategoryScan      Category = "SCAN"
)

// FlyRecError represents a structured error in FlyRec.
type FlyRecError struct {
	Code     ErrorCode
	Category Category
	Message  string
	Detail   string
	Hint     string
	Cause    error
}

// Error implements the error interface.
func (e *FlyRecError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("ERROR %d (%s): %s - %s", e.Code, e.Category, e.Message, e.Detail)
	}
	return fmt.Sprintf("ERROR %d (%s): %s", e.Code, e.Category, e.Message)
}

// Unwrap returns the underlying cause.
func (e *FlyRecError) Unwrap() error {
	return e.Cause
}

// UserMessage returns a user-friendly error message.
func (e *FlyRecError) UserMessage() string {
	msg := fmt.Sprintf("ERROR: %s", e.Message)
	if e.Detail != "" {
		msg += fmt.Sprintf(" (%s)", e.Detail)
	}
	if e.Hint != "" {
		msg += fmt.Sprintf("\nHINT: %s", e.Hint)
	}
	return msg
}

// WithDetail adds detail to the error.
func (e *FlyRecError) WithDetail(detail string) *FlyRecError {
	e.Detail = detail
	return e
}

// WithHint adds a hint to the error.
func (e *FlyRecError) WithHint(hint string) *FlyRecError {
	e.Hint = hint
	return e
}

// WithCause adds a cause to the error.
func (e *FlyRecError) WithCause(cause error) *FlyRecError {
	e.Cause = cause
	return e
}

// ErrNoMoreRecords is the terminal signal returned by a scan once every
// page has been visited. It is a singleton so callers can test for it
// with errors.Is; it reports the end of a result sequence, not a fault.
var ErrNoMoreRecords = &FlyRecError{
	Code:     ErrCodeNoMoreRecords,
	Category: CategoryScan,
	Message:  "no more records",
}

// ============================================================================
// Input Error Constructors
// ============================================================================

// NewInvalidInputError creates a new input validation error.
func NewInvalidInputError(message string) *FlyRecError {
	return &FlyRecError{
		Code:     ErrCodeInvalidInput,
		Category: CategoryInput,
		Message:  message,
	}
}

// NilArgument creates an error for a nil required argument.
func NilArgument(name string) *FlyRecError {
	return &FlyRecError{
		Code:     ErrCodeNilArgument,
		Category: CategoryInput,
		Message:  fmt.Sprintf("argument '%s' must not be nil", name),
	}
}

// InvalidSchema creates an error for a schema that fails validation.
func InvalidSchema(reason string) *FlyRecError {
	return &FlyRecError{
		Code:     ErrCodeInvalidSchema,
		Category: CategoryInput,
		Message:  "invalid schema",
		Detail:   reason,
	}
}

// InvalidConfig creates an error for a rejected configuration value.
func InvalidConfig(field, reason string) *FlyRecError {
	return &FlyRecError{
		Code:     ErrCodeInvalidConfig,
		Category: CategoryInput,
		Message:  fmt.Sprintf("invalid configuration for '%s'", field),
		Detail:   reason,
	}
}

// ValueTooLarge creates an error for a value that exceeds its declared width.
func ValueTooLarge(attribute string, max, got int) *FlyRecError {
	return &FlyRecError{
		Code:     ErrCodeValueTooLarge,
		Category: CategoryInput,
		Message:  fmt.Sprintf("value too large for attribute '%s'", attribute),
		Detail:   fmt.Sprintf("declared width %d bytes, value needs %d", max, got),
	}
}

// InvalidEncodedString creates an error for a string rejected by the
// table's character encoding.
func InvalidEncodedString(encoding, reason string) *FlyRecError {
	return &FlyRecError{
		Code:     ErrCodeInvalidEncoded,
		Category: CategoryInput,
		Message:  fmt.Sprintf("string not valid in %s encoding", encoding),
		Detail:   reason,
	}
}

// ============================================================================
// Resource Error Constructors
// ============================================================================

// NewResourceError creates a new resource exhaustion error.
func NewResourceError(message string) *FlyRecError {
	return &FlyRecError{
		Code:     ErrCodeResource,
		Category: CategoryResource,
		Message:  message,
	}
}

// NoFreeFrame creates an error for a buffer pool with every frame pinned.
func NoFreeFrame(capacity int) *FlyRecError {
	return &FlyRecError{
		Code:     ErrCodeNoFreeFrame,
		Category: CategoryResource,
		Message:  "no evictable frame in buffer pool",
		Detail:   fmt.Sprintf("all %d frames are pinned", capacity),
		Hint:     "Unpin pages before requesting new ones",
	}
}

// PinnedFrames creates an error for shutting down a pool with live pins.
func PinnedFrames(count int) *FlyRecError {
	return &FlyRecError{
		Code:     ErrCodePinnedFrames,
		Category: CategoryResource,
		Message:  "buffer pool has pinned pages",
		Detail:   fmt.Sprintf("%d frame(s) still pinned", count),
		Hint:     "Unpin all pages before shutting the pool down",
	}
}

// PageFull creates an error for a page or block that cannot hold more data.
func PageFull(detail string) *FlyRecError {
	return &FlyRecError{
		Code:     ErrCodePageFull,
		Category: CategoryResource,
		Message:  "page full",
		Detail:   detail,
	}
}

// PoolShutDown creates an error for operations on a released pool.
func PoolShutDown() *FlyRecError {
	return &FlyRecError{
		Code:     ErrCodePoolShutDown,
		Category: CategoryResource,
		Message:  "buffer pool has been shut down",
	}
}

// UnpinnedFrame creates an error for unpinning a frame with no pins.
func UnpinnedFrame(pageNum int32) *FlyRecError {
	return &FlyRecError{
		Code:     ErrCodeUnpinnedFrame,
		Category: CategoryResource,
		Message:  "unpin of a frame that is not pinned",
		Detail:   fmt.Sprintf("page %d has pin count 0", pageNum),
	}
}

// ============================================================================
// Not-Found Error Constructors
// ============================================================================

// NewNotFoundError creates a new not-found error.
func NewNotFoundError(message string) *FlyRecError {
	return &FlyRecError{
		Code:     ErrCodeNotFound,
		Category: CategoryNotFound,
		Message:  message,
	}
}

// RecordNotFound creates an error for a missing or deleted record.
func RecordNotFound(page, slot int32) *FlyRecError {
	return &FlyRecError{
		Code:     ErrCodeRecordNotFound,
		Category: CategoryNotFound,
		Message:  "record not found",
		Detail:   fmt.Sprintf("page %d, slot %d", page, slot),
	}
}

// TableNotFound creates an error for a missing table file.
func TableNotFound(path string) *FlyRecError {
	return &FlyRecError{
		Code:     ErrCodeTableNotFound,
		Category: CategoryNotFound,
		Message:  "table not found",
		Detail:   path,
	}
}

// PageNotFound creates an error for a block number past the end of the file.
func PageNotFound(pageNum int32, pageCount int) *FlyRecError {
	return &FlyRecError{
		Code:     ErrCodePageNotFound,
		Category: CategoryNotFound,
		Message:  "page not found",
		Detail:   fmt.Sprintf("page %d, file holds %d page(s)", pageNum, pageCount),
	}
}

// ============================================================================
// Reference Error Constructors
// ============================================================================

// InvalidRID creates an error for a malformed record identifier.
func InvalidRID(page, slot int32) *FlyRecError {
	return &FlyRecError{
		Code:     ErrCodeInvalidRID,
		Category: CategoryReference,
		Message:  "invalid record identifier",
		Detail:   fmt.Sprintf("page %d, slot %d", page, slot),
	}
}

// InvalidAttribute creates an error for an out-of-range attribute index.
func InvalidAttribute(index, count int) *FlyRecError {
	return &FlyRecError{
		Code:     ErrCodeInvalidAttribute,
		Category: CategoryReference,
		Message:  "invalid attribute index",
		Detail:   fmt.Sprintf("index %d, schema has %d attribute(s)", index, count),
	}
}

// InvalidPageNum creates an error for a negative or out-of-range page number.
func InvalidPageNum(pageNum int32) *FlyRecError {
	return &FlyRecError{
		Code:     ErrCodeInvalidPageNum,
		Category: CategoryReference,
		Message:  "invalid page number",
		Detail:   fmt.Sprintf("page %d", pageNum),
	}
}

// ============================================================================
// Type Error Constructors
// ============================================================================

// TypeMismatch creates an error for a value/schema type disagreement.
func TypeMismatch(expected, got string) *FlyRecError {
	return &FlyRecError{
		Code:     ErrCodeTypeMismatch,
		Category: CategoryType,
		Message:  fmt.Sprintf("type mismatch: expected %s, got %s", expected, got),
	}
}

// UnknownType creates an error for an unrecognized data type tag.
func UnknownType(tag int) *FlyRecError {
	return &FlyRecError{
		Code:     ErrCodeUnknownType,
		Category: CategoryType,
		Message:  "unknown data type",
		Detail:   fmt.Sprintf("type tag %d", tag),
	}
}

// ============================================================================
// I/O Error Constructors
// ============================================================================

// NewIOError creates a new storage I/O error wrapping its cause.
func NewIOError(op string, cause error) *FlyRecError {
	return &FlyRecError{
		Code:     ErrCodeIO,
		Category: CategoryIO,
		Message:  fmt.Sprintf("storage %s failed", op),
		Cause:    cause,
	}
}

// ReadFailed creates an error for a failed page read.
func ReadFailed(pageNum int32, cause error) *FlyRecError {
	return &FlyRecError{
		Code:     ErrCodeReadFailed,
		Category: CategoryIO,
		Message:  "page read failed",
		Detail:   fmt.Sprintf("page %d", pageNum),
		Cause:    cause,
	}
}

// WriteFailed creates an error for a failed page write.
func WriteFailed(pageNum int32, cause error) *FlyRecError {
	return &FlyRecError{
		Code:     ErrCodeWriteFailed,
		Category: CategoryIO,
		Message:  "page write failed",
		Detail:   fmt.Sprintf("page %d", pageNum),
		Cause:    cause,
	}
}

// FileExists creates an error for creating a table over an existing file.
func FileExists(path string) *FlyRecError {
	return &FlyRecError{
		Code:     ErrCodeFileExists,
		Category: CategoryIO,
		Message:  "file already exists",
		Detail:   path,
		Hint:     "Destroy the existing table first or choose another name",
	}
}

// CorruptHeader creates an error for directory metadata that fails the
// consistency arithmetic on load.
func CorruptHeader(reason string) *FlyRecError {
	return &FlyRecError{
		Code:     ErrCodeCorruptHeader,
		Category: CategoryIO,
		Message:  "page directory header is inconsistent",
		Detail:   reason,
	}
}

// CorruptSchema creates an error for an unreadable schema block.
func CorruptSchema(reason string) *FlyRecError {
	return &FlyRecError{
		Code:     ErrCodeCorruptSchema,
		Category: CategoryIO,
		Message:  "schema block is unreadable",
		Detail:   reason,
	}
}

// ============================================================================
// Scan Error Constructors
// ============================================================================

// ScanClosed creates an error for advancing a closed scan.
func ScanClosed() *FlyRecError {
	return &FlyRecError{
		Code:     ErrCodeScanClosed,
		Category: CategoryScan,
		Message:  "scan is closed",
	}
}

// ============================================================================
// Helper Functions
// ============================================================================

// IsInputError checks if an error is an input validation error.
func IsInputError(err error) bool {
	if e, ok := err.(*FlyRecError); ok {
		return e.Category == CategoryInput
	}
	return false
}

// IsResourceError checks if an error is a resource exhaustion error.
func IsResourceError(err error) bool {
	if e, ok := err.(*FlyRecError); ok {
		return e.Category == CategoryResource
	}
	return false
}

// IsNotFound checks if an error is a not-found error.
func IsNotFound(err error) bool {
	if e, ok := err.(*FlyRecError); ok {
		return e.Category == CategoryNotFound
	}
	return false
}

// IsReferenceError checks if an error is an invalid-reference error.
func IsReferenceError(err error) bool {
	if e, ok := err.(*FlyRecError); ok {
		return e.Category == CategoryReference
	}
	return false
}

// IsTypeError checks if an error is a type mismatch error.
func IsTypeError(err error) bool {
	if e, ok := err.(*FlyRecError); ok {
		return e.Category == CategoryType
	}
	return false
}

// IsIOError checks if an error is a storage I/O error.
func IsIOError(err error) bool {
	if e, ok := err.(*FlyRecError); ok {
		return e.Category == CategoryIO
	}
	return false
}

// IsNoMoreRecords checks if an error is the end-of-scan signal.
func IsNoMoreRecords(err error) bool {
	if e, ok := err.(*FlyRecError); ok {
		return e.Code == ErrCodeNoMoreRecords
	}
	return false
}

// GetCode returns the error code if it's a FlyRecError, or 0 otherwise.
func GetCode(err error) ErrorCode {
	if e, ok := err.(*FlyRecError); ok {
		return e.Code
	}
	return 0
}

// FormatError formats an error for user display.
func FormatError(err error) string {
	if e, ok := err.(*FlyRecError); ok {
		return e.UserMessage()
	}
	return fmt.Sprintf("ERROR: %v", err)
}

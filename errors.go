// Copyright (c) 2019-2024 Paradigm4, Inc. All rights reserved.

package goscidb

import (
	"fmt"
)

// SciDBError is an error type carrying SciDB and Shim specific information.
// For errors reported by Shim, Number holds the HTTP status code and Message
// holds the response body, which is the SciDB error text.
type SciDBError struct {
	Number      int
	SessionID   string
	QueryID     string
	Message     string
	MessageArgs []interface{}
}

func (se *SciDBError) Error() string {
	message := se.Message
	if len(se.MessageArgs) > 0 {
		message = fmt.Sprintf(se.Message, se.MessageArgs...)
	}
	if se.QueryID != "" {
		return fmt.Sprintf("%06d: query %v: %s", se.Number, se.QueryID, message)
	}
	return fmt.Sprintf("%06d: %s", se.Number, message)
}

const (
	// connection & configuration

	// ErrCodeInvalidDSN is an error code for the case where a DSN cannot be parsed.
	ErrCodeInvalidDSN = 300001
	// ErrCodeFailedToParsePort is an error code for the case where a DSN includes an invalid port number.
	ErrCodeFailedToParsePort = 300002
	// ErrCodeInsecureSciDBAuth is an error code for the case where SciDB credentials would be sent over plain HTTP.
	ErrCodeInsecureSciDBAuth = 300003
	// ErrCodeTomlFileParsingFailed is an error code for the case where the connections.toml file cannot be parsed.
	ErrCodeTomlFileParsingFailed = 300004
	// ErrCodeFailedToFindProfileInToml is an error code for the case where the requested connection profile is missing.
	ErrCodeFailedToFindProfileInToml = 300005
	// ErrCodeInvalidConn is an error code for the case where a DB handle is closed or in invalid state.
	ErrCodeInvalidConn = 300006

	// query layer

	// ErrCodeUnknownDataType is an error code for the case where a schema names a type the client cannot decode.
	ErrCodeUnknownDataType = 301001
	// ErrCodeSchemaParseFailed is an error code for the case where a schema string cannot be parsed.
	ErrCodeSchemaParseFailed = 301002
	// ErrCodeUploadFailed is an error code for the case where Shim rejects an upload.
	ErrCodeUploadFailed = 301003
)

const (
	errMsgFailedToParsePort          = "failed to parse a port number. port: %v"
	errMsgFailedToParseTomlFile      = "failed to parse connections.toml. key: %v, value: %v"
	errMsgFailedToFindProfileInToml  = "failed to find the connection profile in connections.toml"
	errMsgUnknownDataType            = "unknown SciDB data type: %v"
	errMsgSchemaParseFailed          = "failed to parse schema: %v"
	errMsgUploadReturnedNoPath       = "upload returned no server path. file: %v"
	errMsgQueryTemplateMissingMarker = "query template has no {fn} placeholder: %v"
)

var (
	// preformatted errors

	// ErrInvalidConn is returned if a DB handle is closed or in invalid state.
	ErrInvalidConn = &SciDBError{
		Number:  ErrCodeInvalidConn,
		Message: "invalid connection",
	}
	// ErrInsecureSciDBAuth is returned if SciDBUser or SciDBPassword is set
	// on a plain HTTP configuration. Database credentials travel as URL
	// parameters and must only be sent over TLS.
	ErrInsecureSciDBAuth = &SciDBError{
		Number:  ErrCodeInsecureSciDBAuth,
		Message: "SciDB credentials require a https connection",
	}
)

// DecodeErrorKind classifies failures of the binary result decoder.
type DecodeErrorKind int

const (
	// TruncatedBuffer indicates the buffer ended in the middle of a field.
	TruncatedBuffer DecodeErrorKind = iota + 1
	// MalformedField indicates a variable-width field whose framing could
	// not be read.
	MalformedField
	// SchemaMismatch indicates the buffer contradicts the schema it is
	// claimed to follow.
	SchemaMismatch
)

func (k DecodeErrorKind) String() string {
	switch k {
	case TruncatedBuffer:
		return "truncated buffer"
	case MalformedField:
		return "malformed field"
	case SchemaMismatch:
		return "schema mismatch"
	}
	return fmt.Sprintf("decode error kind %d", int(k))
}

// DecodeError reports a failure while decoding a binary result buffer.
// The decoder stops at the first failure; no partial records are returned.
type DecodeError struct {
	Kind    DecodeErrorKind
	Record  int    // index of the record being decoded
	Field   string // name of the attribute being decoded
	Offset  int    // byte offset into the buffer
	Message string
}

func (e *DecodeError) Error() string {
	if e.Field == "" && e.Message == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%v: record %d, field %q, offset %d: %s",
		e.Kind, e.Record, e.Field, e.Offset, e.Message)
}

// Is supports errors.Is by matching any *DecodeError target of the same
// Kind. A target with zero Kind matches every DecodeError.
func (e *DecodeError) Is(target error) bool {
	t, ok := target.(*DecodeError)
	if !ok {
		return false
	}
	return t.Kind == 0 || t.Kind == e.Kind
}

var (
	// ErrTruncatedBuffer is a sentinel for use with errors.Is to check
	// whether an error is a DecodeError of kind TruncatedBuffer.
	ErrTruncatedBuffer = &DecodeError{Kind: TruncatedBuffer}
	// ErrMalformedField is a sentinel for use with errors.Is to check
	// whether an error is a DecodeError of kind MalformedField.
	ErrMalformedField = &DecodeError{Kind: MalformedField}
	// ErrSchemaMismatch is a sentinel for use with errors.Is to check
	// whether an error is a DecodeError of kind SchemaMismatch.
	ErrSchemaMismatch = &DecodeError{Kind: SchemaMismatch}
)

package common

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Request
// --------------------------------------------------------------------------

// Request is one command sent by a client. Which fields are used depends on the verb.
type Request struct {
	// Verb of the command
	Verb Verb
	// Name of the remote file. Used for: Get, Upload, Delete
	Name string
	// Payload holds the raw (not encoded) file content. Used for: Upload
	Payload []byte
}

// NewListRequest creates a new List request
func NewListRequest() *Request {
	return &Request{Verb: VerbList}
}

// NewGetRequest creates a new Get request
func NewGetRequest(name string) *Request {
	return &Request{Verb: VerbGet, Name: name}
}

// NewUploadRequest creates a new Upload request
func NewUploadRequest(name string, payload []byte) *Request {
	return &Request{Verb: VerbUpload, Name: name, Payload: payload}
}

// NewDeleteRequest creates a new Delete request
func NewDeleteRequest(name string) *Request {
	return &Request{Verb: VerbDelete, Name: name}
}

// --------------------------------------------------------------------------
// Response
// --------------------------------------------------------------------------

// Status of a response or an outcome
type Status string

const (
	StatusOK    Status = "OK"
	StatusError Status = "ERROR"
)

// File is the payload of a successful Get response
type File struct {
	Name string
	Data []byte
}

// Response is the answer to exactly one request.
// An OK response never carries an error description and an ERROR response never carries
// a payload. Use the factory functions below to keep it that way.
type Response struct {
	Status Status
	// Names is set for successful List responses (never nil, may be empty)
	Names []string
	// File is set for successful Get responses
	File *File
	// Message holds the acknowledgement of Upload/Delete or the error description
	Message string
}

// NewListResponse creates a successful List response
func NewListResponse(names []string) *Response {
	if names == nil {
		names = []string{}
	}
	return &Response{Status: StatusOK, Names: names}
}

// NewGetResponse creates a successful Get response
func NewGetResponse(name string, data []byte) *Response {
	return &Response{Status: StatusOK, File: &File{Name: name, Data: data}}
}

// NewAckResponse creates a successful Upload/Delete response with a human-readable message
func NewAckResponse(msg string) *Response {
	return &Response{Status: StatusOK, Message: msg}
}

// NewErrorResponse creates an ERROR response
func NewErrorResponse(msg string) *Response {
	return &Response{Status: StatusError, Message: msg}
}

// IsOK reports whether the response has status OK
func (r *Response) IsOK() bool {
	return r != nil && r.Status == StatusOK
}

// --------------------------------------------------------------------------
// Outcome
// --------------------------------------------------------------------------

// Outcome describes how one client operation went. It is produced by the client
// driver, consumed by the load harness and never modified afterwards.
type Outcome struct {
	Verb   Verb
	Status Status
	// Filename is the file the operation was about
	Filename string
	// SizeBytes is the number of payload bytes moved, 0 on failure
	SizeBytes int64
	// Elapsed covers the full operation including local file I/O and encoding
	Elapsed time.Duration
	// Error is the failure description, empty on success
	Error string
}

// NewSuccessOutcome creates an OK outcome
func NewSuccessOutcome(verb Verb, filename string, size int64, elapsed time.Duration) Outcome {
	return Outcome{
		Verb:      verb,
		Status:    StatusOK,
		Filename:  filename,
		SizeBytes: size,
		Elapsed:   elapsed,
	}
}

// NewErrorOutcome creates an ERROR outcome, the size is always 0
func NewErrorOutcome(verb Verb, filename string, elapsed time.Duration, msg string) Outcome {
	return Outcome{
		Verb:     verb,
		Status:   StatusError,
		Filename: filename,
		Elapsed:  elapsed,
		Error:    msg,
	}
}

// Ok reports whether the outcome is successful
func (o Outcome) Ok() bool {
	return o.Status == StatusOK
}

// ElapsedSeconds returns the elapsed time in (fractional) seconds
func (o Outcome) ElapsedSeconds() float64 {
	return o.Elapsed.Seconds()
}

func (o Outcome) String() string {
	if o.Ok() {
		return fmt.Sprintf("%s %s: OK (%d bytes in %s)", o.Verb, o.Filename, o.SizeBytes, o.Elapsed)
	}
	return fmt.Sprintf("%s %s: ERROR %s (after %s)", o.Verb, o.Filename, o.Error, o.Elapsed)
}

// --------------------------------------------------------------------------
// Verb Type
// --------------------------------------------------------------------------

// Verb is the command of a request
type Verb uint8

const (
	VerbUnknown Verb = iota
	VerbList
	VerbGet
	VerbUpload
	VerbDelete
)

// String returns the wire representation of a verb
func (v Verb) String() string {
	switch v {
	case VerbList:
		return "LIST"
	case VerbGet:
		return "GET"
	case VerbUpload:
		return "UPLOAD"
	case VerbDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// ParseVerb parses a verb case-insensitively, VerbUnknown is returned for anything else
func ParseVerb(s string) Verb {
	switch strings.ToUpper(s) {
	case "LIST":
		return VerbList
	case "GET":
		return VerbGet
	case "UPLOAD":
		return VerbUpload
	case "DELETE":
		return VerbDelete
	default:
		return VerbUnknown
	}
}

// MarshalJSON serializes the verb by name
func (v Verb) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

// UnmarshalJSON parses a verb from its name
func (v *Verb) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*v = ParseVerb(s)
	return nil
}

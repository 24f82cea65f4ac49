// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package rgwadmin

import (
	"errors"
	"fmt"
	"net/http"

	json "github.com/goccy/go-json"
)

// Known API error reasons
const (
	ErrNoSuchUser            errorReason = "NoSuchUser"
	ErrInvalidAccessKey      errorReason = "InvalidAccessKey"
	ErrAccessDenied          errorReason = "AccessDenied"
	ErrInvalidArgument       errorReason = "InvalidArgument"
	ErrInternalError         errorReason = "InternalError"
	ErrSignatureDoesNotMatch errorReason = "SignatureDoesNotMatch"
	ErrUnknown               errorReason = "Unknown"

	unmarshalError = "failed to unmarshal RGW response"

	// longer bodies are cut in error messages, RequestError.Body keeps all of it
	maxErrorBody = 512
)

var (
	// ErrMalformedResponse is returned when a 200 response cannot be decoded
	// or lacks a required field.
	ErrMalformedResponse = errors.New("malformed RGW response")

	// ErrNotFound matches a RequestError for a user that does not exist
	// (anymore).
	ErrNotFound = errors.New("not found")

	errMissingUserID = errors.New("missing user ID")
)

// errorReason represents an API error reason.
type errorReason string

// Error implements the error interface for `errorReason`.
func (e errorReason) Error() string { return string(e) }

// statusError is the error document RGW sends along with a failure status.
type statusError struct {
	Code      string `json:"Code,omitempty"`
	RequestID string `json:"RequestId,omitempty"`
	HostID    string `json:"HostId,omitempty"`
}

// RequestError is returned for every response with a status other than 200.
type RequestError struct {
	StatusCode int
	Body       string
	// Code is the RGW error code, empty if the body was not an RGW error document.
	Code      string
	RequestID string
}

func newRequestError(status int, body []byte) *RequestError {
	reqErr := &RequestError{StatusCode: status, Body: string(body)}

	var doc statusError
	if err := json.Unmarshal(body, &doc); err == nil {
		reqErr.Code = doc.Code
		reqErr.RequestID = doc.RequestID
	}
	return reqErr
}

func (e *RequestError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("RGW request failed: status=%d code=%s request_id=%s", e.StatusCode, e.Code, e.RequestID)
	}
	body := e.Body
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody] + "..."
	}
	return fmt.Sprintf("RGW request failed: status=%d body=%q", e.StatusCode, body)
}

// Is allows `RequestError` to be compared against known `errorReason` values
// and ErrNotFound.
func (e *RequestError) Is(target error) bool {
	if target == ErrNotFound {
		return e.StatusCode == http.StatusNotFound || e.Code == string(ErrNoSuchUser)
	}
	if reason, ok := target.(errorReason); ok {
		return e.Code == string(reason)
	}
	return false
}

// TransportError wraps DNS, connection, timeout and body read failures.
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("failed to execute HTTP request: %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func malformed(body []byte, err error) error {
	return fmt.Errorf("%w: %s: %v. Response: %s", ErrMalformedResponse, unmarshalError, err, string(body))
}

func missingField(body []byte, field string) error {
	return fmt.Errorf("%w: missing field %q. Response: %s", ErrMalformedResponse, field, string(body))
}

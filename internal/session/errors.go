package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aws/smithy-go"
)

// RequestError is a failed provider call: permissions, throttling, network.
type RequestError struct {
	Operation string
	Resource  string
	Err       error
}

// Wrap returns nil for a nil err, otherwise a *RequestError.
func Wrap(operation, resource string, err error) error {
	if err == nil {
		return nil
	}
	return &RequestError{Operation: operation, Resource: resource, Err: err}
}

func (e *RequestError) Error() string {
	if e.Resource == "" {
		return fmt.Sprintf("%s: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Operation, e.Resource, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// Code returns the provider error code, e.g. "AccessDenied", or "".
func (e *RequestError) Code() string {
	var apiErr smithy.APIError
	if errors.As(e.Err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

// Describe renders the error for an operator, with a hint for common causes.
func (e *RequestError) Describe() string {
	code := e.Code()
	msg := e.Err.Error()
	target := e.Resource
	if target == "" {
		target = "account"
	}

	switch {
	case code == "AccessDenied" || code == "AccessDeniedException" || strings.Contains(msg, "Access Denied"):
		return fmt.Sprintf("%s failed for %s: Access Denied - check IAM permissions", e.Operation, target)
	case code == "NoSuchBucket" || code == "RepositoryNotFoundException":
		return fmt.Sprintf("%s failed for %s: resource does not exist or is in a different region", e.Operation, target)
	case isThrottle(code, msg):
		return fmt.Sprintf("%s failed for %s: Rate limit exceeded - wait and run again", e.Operation, target)
	}
	return fmt.Sprintf("%s failed for %s: %s", e.Operation, target, msg)
}

func isThrottle(code, msg string) bool {
	for _, s := range []string{"Throttling", "ThrottlingException", "SlowDown", "RequestLimitExceeded", "TooManyRequests"} {
		if code == s || strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

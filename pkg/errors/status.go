/*
 * Copyright 2026 The Coedit Authors. All rights reserved.
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

// Package errors provides errors that carry a status and a stable code so
// that the session gateway can turn them into rejections for clients.
package errors

import "fmt"

// StatusCode represents the coarse classes of failure used throughout the
// server. The numeric values follow the gRPC code space.
type StatusCode int

const (
	// ErrCodeInvalidArgument indicates that the client sent a malformed or
	// inconsistent request.
	ErrCodeInvalidArgument StatusCode = 3

	// ErrCodeNotFound indicates that the referenced participant, comment or
	// session does not exist.
	ErrCodeNotFound StatusCode = 5

	// ErrCodeAlreadyExists indicates that the requested state is already in
	// place, e.g. resolving a comment twice.
	ErrCodeAlreadyExists StatusCode = 6

	// ErrCodePermissionDenied indicates that the caller's role does not allow
	// the operation.
	ErrCodePermissionDenied StatusCode = 7

	// ErrCodeResourceExhausted indicates that a bounded queue or rate limit
	// was exceeded.
	ErrCodeResourceExhausted StatusCode = 8

	// ErrCodeFailedPrecondition indicates that the session is not in the
	// state required by the operation, e.g. the sender is offline.
	ErrCodeFailedPrecondition StatusCode = 9

	// ErrCodeOutOfRange indicates that a requested position lies outside of
	// what is retained, e.g. an activity sequence that was evicted.
	ErrCodeOutOfRange StatusCode = 11

	// ErrCodeInternal indicates a broken invariant on the server.
	ErrCodeInternal StatusCode = 13

	// ErrCodeUnavailable indicates that the session or a downstream service
	// is temporarily unavailable.
	ErrCodeUnavailable StatusCode = 14
)

// String returns the snake case name of the status that is sent to clients.
func (c StatusCode) String() string {
	switch c {
	case ErrCodeInvalidArgument:
		return "invalid_argument"
	case ErrCodeNotFound:
		return "not_found"
	case ErrCodeAlreadyExists:
		return "already_exists"
	case ErrCodePermissionDenied:
		return "permission_denied"
	case ErrCodeResourceExhausted:
		return "resource_exhausted"
	case ErrCodeFailedPrecondition:
		return "failed_precondition"
	case ErrCodeOutOfRange:
		return "out_of_range"
	case ErrCodeInternal:
		return "internal"
	case ErrCodeUnavailable:
		return "unavailable"
	default:
		return fmt.Sprintf("code_%d", int(c))
	}
}

// IsClientError returns true if the status was caused by the request itself.
func (c StatusCode) IsClientError() bool {
	switch c {
	case ErrCodeInvalidArgument, ErrCodeNotFound, ErrCodeAlreadyExists,
		ErrCodePermissionDenied, ErrCodeResourceExhausted, ErrCodeFailedPrecondition,
		ErrCodeOutOfRange:
		return true
	default:
		return false
	}
}

// IsServerError returns true if the status was caused by the server.
func (c StatusCode) IsServerError() bool {
	return c == ErrCodeInternal || c == ErrCodeUnavailable
}

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

package rpc

import (
	"encoding/json"
	"net/http"

	"github.com/edu-tutor/coedit/pkg/errors"
	"github.com/edu-tutor/coedit/server/logging"
)

// statusToHTTPCode maps a status to the HTTP status code of a response.
var statusToHTTPCode = map[errors.StatusCode]int{
	errors.ErrCodeInvalidArgument:    http.StatusBadRequest,
	errors.ErrCodeNotFound:           http.StatusNotFound,
	errors.ErrCodeAlreadyExists:      http.StatusConflict,
	errors.ErrCodePermissionDenied:   http.StatusForbidden,
	errors.ErrCodeResourceExhausted:  http.StatusTooManyRequests,
	errors.ErrCodeFailedPrecondition: http.StatusPreconditionFailed,
	errors.ErrCodeOutOfRange:         http.StatusBadRequest,
	errors.ErrCodeInternal:           http.StatusInternalServerError,
	errors.ErrCodeUnavailable:        http.StatusServiceUnavailable,
}

// ErrorResponse is the body of a failed HTTP request.
type ErrorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// writeError writes the error as a JSON response.
func writeError(w http.ResponseWriter, err error) {
	status := errors.StatusOf(err)
	httpCode, ok := statusToHTTPCode[status]
	if !ok {
		status = errors.ErrCodeInternal
		httpCode = http.StatusInternalServerError
		logging.DefaultLogger().Error(err)
	}

	writeJSON(w, httpCode, ErrorResponse{
		Status:  status.String(),
		Code:    errors.CodeOf(err),
		Message: err.Error(),
	})
}

// writeJSON writes the value as a JSON response.
func writeJSON(w http.ResponseWriter, httpCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.DefaultLogger().Warnf("write response: %v", err)
	}
}

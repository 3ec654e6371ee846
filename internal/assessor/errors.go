/*
 * Copyright 2025 Google LLC
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *    https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */
package assessor

import (
	"context"
	"errors"
	"fmt"

	"github.com/GoogleCloudPlatform/db-quality-scorer/internal/source"
)

// ErrDatabaseConnection represents errors that occur during database connection attempts
type ErrDatabaseConnection struct {
	Msg string
	Err error
}

// ErrQueryExecution represents errors that occur while reading a table
type ErrQueryExecution struct {
	Msg string
	Err error
}

// ErrInvalidInput represents errors related to invalid input parameters or unreadable files
type ErrInvalidInput struct {
	Msg string
	Err error
}

// ErrTimeout represents timeout errors during operations
type ErrTimeout struct {
	Msg string
	Err error
}

// ErrCancelled represents errors when an operation is cancelled
type ErrCancelled struct {
	Msg string
	Err error
}

func (e *ErrDatabaseConnection) Error() string {
	return fmt.Sprintf("database connection error: %s: %v", e.Msg, e.Err)
}

func (e *ErrDatabaseConnection) Unwrap() error { return e.Err }

func (e *ErrQueryExecution) Error() string {
	return fmt.Sprintf("query execution error: %s: %v", e.Msg, e.Err)
}

func (e *ErrQueryExecution) Unwrap() error { return e.Err }

func (e *ErrInvalidInput) Error() string {
	return fmt.Sprintf("invalid input error: %s: %v", e.Msg, e.Err)
}

func (e *ErrInvalidInput) Unwrap() error { return e.Err }

func (e *ErrTimeout) Error() string {
	return fmt.Sprintf("timeout error: %s: %v", e.Msg, e.Err)
}

func (e *ErrTimeout) Unwrap() error { return e.Err }

func (e *ErrCancelled) Error() string {
	return fmt.Sprintf("operation cancelled: %s: %v", e.Msg, e.Err)
}

func (e *ErrCancelled) Unwrap() error { return e.Err }

// classifyLoadError wraps an error from loading uri in the typed error that
// decides whether the load is retried.
func classifyLoadError(uri string, err error) error {
	msg := fmt.Sprintf("loading %s", uri)
	switch {
	case errors.Is(err, context.Canceled):
		return &ErrCancelled{Msg: msg, Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &ErrTimeout{Msg: msg, Err: err}
	case errors.Is(err, source.ErrEmptyDataset), errors.Is(err, source.ErrUnsupportedSource):
		return &ErrInvalidInput{Msg: msg, Err: err}
	case source.IsTableURI(uri):
		return &ErrQueryExecution{Msg: msg, Err: err}
	default:
		return &ErrInvalidInput{Msg: msg, Err: err}
	}
}

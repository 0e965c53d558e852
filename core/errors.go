// Copyright 2026 Cobalt Ash
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import "errors"

// Domain validation errors
var (
	// ErrUnsupportedModality indicates content whose MIME type maps to no known modality.
	ErrUnsupportedModality = errors.New("unsupported modality")

	// ErrMissingOption indicates a required option was not provided.
	ErrMissingOption = errors.New("missing required option")

	// ErrEmptyInput indicates the submitted content is empty.
	ErrEmptyInput = errors.New("input content is empty")

	// ErrInvalidThresholds indicates quota thresholds that are out of range
	// or not strictly increasing.
	ErrInvalidThresholds = errors.New("invalid quota thresholds")

	// ErrJobCancelled indicates a job was cancelled before or while processing.
	ErrJobCancelled = errors.New("job cancelled")

	// ErrJobNotFound indicates the job id is unknown or already swept.
	ErrJobNotFound = errors.New("job not found")

	// ErrJobTerminal indicates a stage transition was attempted on a job that
	// already reached a terminal status.
	ErrJobTerminal = errors.New("job already in terminal status")
)

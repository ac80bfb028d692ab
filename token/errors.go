// Copyright 2025 Blink Labs Software
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

// Package token decodes SPL token accounts and mints and Metaplex token
// metadata accounts as stored in a snapshot.
package token

import "errors"

var (
	// ErrInvalidAccountData is returned when account data does not match the
	// expected layout
	ErrInvalidAccountData = errors.New("invalid token account data")

	// ErrUninitialized is returned for token accounts and mints that were
	// never initialized
	ErrUninitialized = errors.New("uninitialized token account")

	// ErrNotMetadata is returned for metadata program accounts that do not
	// hold token metadata, such as editions and records
	ErrNotMetadata = errors.New("not a token metadata account")
)

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

// Package filters loads the account filters file produced alongside a
// snapshot.
package filters

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/blinklabs-io/snapvote/solana"
	"github.com/blinklabs-io/snapvote/vsr"
)

var ErrNoRegistrarData = errors.New("filters: no registrar data")

type filtersFile struct {
	AccountOwners    string `json:"account_owners"`
	AccountMints     string `json:"account_mints"`
	VsrRegistrarData string `json:"vsr_registrar_data"`
}

// Filters selects the accounts of interest in a snapshot and carries the
// raw registrar account used to evaluate voters
type Filters struct {
	AccountOwners    []solana.PublicKey
	AccountMints     []solana.PublicKey
	VsrRegistrarData []byte
}

// Load reads a filters file
func Load(path string) (*Filters, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading filters file: %w", err)
	}
	return Parse(data)
}

// Parse decodes the JSON contents of a filters file
func Parse(data []byte) (*Filters, error) {
	var raw filtersFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding filters: %w", err)
	}
	owners, err := splitPublicKeys(raw.AccountOwners, "account_owners")
	if err != nil {
		return nil, err
	}
	mints, err := splitPublicKeys(raw.AccountMints, "account_mints")
	if err != nil {
		return nil, err
	}
	registrarData, err := base64.StdEncoding.DecodeString(raw.VsrRegistrarData)
	if err != nil {
		return nil, fmt.Errorf("decoding vsr_registrar_data: %w", err)
	}
	return &Filters{
		AccountOwners:    owners,
		AccountMints:     mints,
		VsrRegistrarData: registrarData,
	}, nil
}

func splitPublicKeys(s string, name string) ([]solana.PublicKey, error) {
	ret := []solana.PublicKey{}
	if strings.TrimSpace(s) == "" {
		return ret, nil
	}
	for _, part := range strings.Split(s, ",") {
		key, err := solana.ParsePublicKey(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		ret = append(ret, key)
	}
	return ret, nil
}

// Registrar decodes the registrar account carried by the filters
func (f *Filters) Registrar() (*vsr.Registrar, error) {
	if len(f.VsrRegistrarData) == 0 {
		return nil, ErrNoRegistrarData
	}
	return vsr.DecodeRegistrar(f.VsrRegistrarData)
}

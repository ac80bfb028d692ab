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

package processor

import (
	"context"
	"fmt"

	"github.com/blinklabs-io/snapvote/database/models"
	"github.com/blinklabs-io/snapvote/database/types"
	"github.com/blinklabs-io/snapvote/snapshot"
	"github.com/blinklabs-io/snapvote/solana"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// AccountOwners writes the metadata of every account owned by one of the
// selected owners
type AccountOwners struct {
	options
	*rowCounter
	source snapshot.AccountSource
	sink   Sink
	owners []solana.PublicKey
}

func NewAccountOwners(
	source snapshot.AccountSource,
	sink Sink,
	owners []solana.PublicKey,
	opts ...OptionFunc,
) *AccountOwners {
	return &AccountOwners{
		options:    newOptions(opts),
		rowCounter: newRowCounter(models.AccountTable),
		source:     source,
		sink:       sink,
		owners:     owners,
	}
}

func (p *AccountOwners) Run(ctx context.Context) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "AccountOwners.Run")
	defer span.End()
	span.SetAttributes(attribute.Int("owners", len(p.owners)))
	for _, owner := range p.owners {
		p.logger.Debug(
			fmt.Sprintf("loading accounts of owner %s", owner),
			"component", "processor",
		)
		err := p.source.ScanProgramAccounts(
			ctx,
			owner,
			nil,
			func(acct solana.Account) error {
				if err := p.sink.Write(ctx, accountRow(acct)); err != nil {
					return fmt.Errorf("write account %s: %w", acct.Pubkey, err)
				}
				p.inc()
				return nil
			},
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
	}
	return nil
}

func accountRow(acct solana.Account) *models.Account {
	return &models.Account{
		Pubkey:     acct.Pubkey.String(),
		DataLen:    len(acct.Data),
		Owner:      acct.Owner.String(),
		Lamports:   types.Uint64(acct.Lamports),
		Executable: acct.Executable,
		RentEpoch:  types.Uint64(acct.RentEpoch),
	}
}

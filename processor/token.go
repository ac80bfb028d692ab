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
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/blinklabs-io/snapvote/database/models"
	"github.com/blinklabs-io/snapvote/database/types"
	"github.com/blinklabs-io/snapvote/snapshot"
	"github.com/blinklabs-io/snapvote/solana"
	"github.com/blinklabs-io/snapvote/token"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Token writes every SPL token account holding one of the selected mints,
// along with its account metadata
type Token struct {
	options
	*rowCounter
	accounts *rowCounter
	source   snapshot.AccountSource
	sink     Sink
	mints    map[solana.PublicKey]struct{}
	skipped  atomic.Uint64
}

func NewToken(
	source snapshot.AccountSource,
	sink Sink,
	mints []solana.PublicKey,
	opts ...OptionFunc,
) *Token {
	p := &Token{
		options:    newOptions(opts),
		rowCounter: newRowCounter(models.TokenAccountTable),
		accounts:   newRowCounter(models.AccountTable),
		source:     source,
		sink:       sink,
		mints:      make(map[solana.PublicKey]struct{}, len(mints)),
	}
	for _, mint := range mints {
		p.mints[mint] = struct{}{}
	}
	return p
}

// AccountRows counts the account metadata rows written for token accounts
func (p *Token) AccountRows() Counter {
	return p.accounts
}

// Skipped returns the number of token accounts that could not be decoded
func (p *Token) Skipped() uint64 {
	return p.skipped.Load()
}

func (p *Token) Run(ctx context.Context) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Token.Run")
	defer span.End()
	span.SetAttributes(attribute.Int("mints", len(p.mints)))
	if len(p.mints) == 0 {
		return nil
	}
	p.logger.Debug(
		fmt.Sprintf("loading token accounts for %d mints", len(p.mints)),
		"component", "processor",
	)
	err := p.source.ScanProgramAccounts(
		ctx,
		token.Program,
		snapshot.DataSize(token.AccountLen),
		func(acct solana.Account) error {
			return p.processAccount(ctx, acct)
		},
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	p.logger.Debug(
		fmt.Sprintf(
			"processed %d token accounts (%d skipped)",
			p.Count(),
			p.Skipped(),
		),
		"component", "processor",
	)
	return nil
}

func (p *Token) processAccount(ctx context.Context, acct solana.Account) error {
	tokenAcct, err := token.DecodeAccount(acct.Data)
	if err != nil {
		if !errors.Is(err, token.ErrUninitialized) {
			p.skipped.Add(1)
			p.logger.Debug(
				fmt.Sprintf("failed to unpack token account %s: %s", acct.Pubkey, err),
				"component", "processor",
			)
		}
		return nil
	}
	if _, ok := p.mints[tokenAcct.Mint]; !ok {
		return nil
	}
	if err := p.sink.Write(ctx, accountRow(acct)); err != nil {
		return fmt.Errorf("write account %s: %w", acct.Pubkey, err)
	}
	p.accounts.inc()
	row := &models.TokenAccount{
		Pubkey:          acct.Pubkey.String(),
		Mint:            tokenAcct.Mint.String(),
		Owner:           tokenAcct.Owner.String(),
		Amount:          types.Uint64(tokenAcct.Amount),
		Delegate:        optionalKey(tokenAcct.Delegate),
		State:           uint8(tokenAcct.State),
		DelegatedAmount: types.Uint64(tokenAcct.DelegatedAmount),
		CloseAuthority:  optionalKey(tokenAcct.CloseAuthority),
	}
	if tokenAcct.IsNative != nil {
		v := types.Uint64(*tokenAcct.IsNative)
		row.IsNative = &v
	}
	if err := p.sink.Write(ctx, row); err != nil {
		return fmt.Errorf("write token account %s: %w", acct.Pubkey, err)
	}
	p.inc()
	return nil
}

// TokenMints writes the mint account of every selected mint
type TokenMints struct {
	options
	*rowCounter
	source snapshot.AccountSource
	sink   Sink
	mints  []solana.PublicKey
	failed atomic.Uint64
}

func NewTokenMints(
	source snapshot.AccountSource,
	sink Sink,
	mints []solana.PublicKey,
	opts ...OptionFunc,
) *TokenMints {
	return &TokenMints{
		options:    newOptions(opts),
		rowCounter: newRowCounter(models.TokenMintTable),
		source:     source,
		sink:       sink,
		mints:      mints,
	}
}

// Failed returns the number of mints missing from the snapshot or not
// decodable as a mint
func (p *TokenMints) Failed() uint64 {
	return p.failed.Load()
}

// Run loads each selected mint. A missing or undecodable mint is logged and
// counted; it does not stop the run.
func (p *TokenMints) Run(ctx context.Context) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "TokenMints.Run")
	defer span.End()
	span.SetAttributes(attribute.Int("mints", len(p.mints)))
	for _, key := range p.mints {
		mint, err := p.loadMint(ctx, key)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			p.failed.Add(1)
			p.logger.Error(
				fmt.Sprintf("failed to load token mint %s: %s", key, err),
				"component", "processor",
			)
			continue
		}
		row := &models.TokenMint{
			Pubkey:          key.String(),
			MintAuthority:   optionalKey(mint.MintAuthority),
			Supply:          types.Uint64(mint.Supply),
			Decimals:        mint.Decimals,
			IsInitialized:   mint.IsInitialized,
			FreezeAuthority: optionalKey(mint.FreezeAuthority),
		}
		if err := p.sink.Write(ctx, row); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("write token mint %s: %w", key, err)
		}
		p.inc()
	}
	return nil
}

func (p *TokenMints) loadMint(
	ctx context.Context,
	key solana.PublicKey,
) (*token.Mint, error) {
	acct, err := p.source.GetAccount(ctx, key)
	if err != nil {
		return nil, err
	}
	return token.DecodeMint(acct.Data)
}

// TokenMetadata writes every Metaplex metadata account in the snapshot
type TokenMetadata struct {
	options
	*rowCounter
	source  snapshot.AccountSource
	sink    Sink
	skipped atomic.Uint64
}

func NewTokenMetadata(
	source snapshot.AccountSource,
	sink Sink,
	opts ...OptionFunc,
) *TokenMetadata {
	return &TokenMetadata{
		options:    newOptions(opts),
		rowCounter: newRowCounter(models.TokenMetadataTable),
		source:     source,
		sink:       sink,
	}
}

// Skipped returns the number of metadata accounts that could not be decoded
func (p *TokenMetadata) Skipped() uint64 {
	return p.skipped.Load()
}

func (p *TokenMetadata) Run(ctx context.Context) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "TokenMetadata.Run")
	defer span.End()
	p.logger.Debug(
		fmt.Sprintf("loading token metadata accounts of program %s", token.MetadataProgram),
		"component", "processor",
	)
	err := p.source.ScanProgramAccounts(
		ctx,
		token.MetadataProgram,
		nil,
		func(acct solana.Account) error {
			return p.processAccount(ctx, acct)
		},
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (p *TokenMetadata) processAccount(ctx context.Context, acct solana.Account) error {
	md, err := token.DecodeMetadata(acct.Data)
	if err != nil {
		// Editions and other account types share the program
		if !errors.Is(err, token.ErrNotMetadata) {
			p.skipped.Add(1)
			p.logger.Debug(
				fmt.Sprintf("failed to unpack token metadata account %s: %s", acct.Pubkey, err),
				"component", "processor",
			)
		}
		return nil
	}
	row := &models.TokenMetadata{
		Pubkey:               acct.Pubkey.String(),
		Mint:                 md.Mint.String(),
		UpdateAuthority:      md.UpdateAuthority.String(),
		Name:                 md.Name,
		Symbol:               md.Symbol,
		Uri:                  md.Uri,
		DataLength:           len(acct.Data),
		SellerFeeBasisPoints: md.SellerFeeBasisPoints,
		PrimarySaleHappened:  md.PrimarySaleHappened,
		IsMutable:            md.IsMutable,
		EditionNonce:         md.EditionNonce,
	}
	if md.Collection != nil {
		verified := md.Collection.Verified
		key := md.Collection.Key.String()
		row.CollectionVerified = &verified
		row.CollectionKey = &key
	}
	if err := p.sink.Write(ctx, row); err != nil {
		return fmt.Errorf("write token metadata %s: %w", acct.Pubkey, err)
	}
	p.inc()
	return nil
}

func optionalKey(key *solana.PublicKey) *string {
	if key == nil {
		return nil
	}
	s := key.String()
	return &s
}

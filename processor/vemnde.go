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

// Package processor evaluates the voting power of every VSR voter account
// in a snapshot and hands the results to an output sink.
package processor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/blinklabs-io/snapvote/database/models"
	"github.com/blinklabs-io/snapvote/database/types"
	"github.com/blinklabs-io/snapvote/snapshot"
	"github.com/blinklabs-io/snapvote/solana"
	"github.com/blinklabs-io/snapvote/vsr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const (
	VsrProgramAddress = "VoteMBhDCqGLRgYpp9o7DGyq81KNmwjXQRAHStjtJsS"
	DefaultQueueSize  = 1024

	tracerName = "github.com/blinklabs-io/snapvote/processor"
)

var DefaultVsrProgram = solana.MustParsePublicKey(VsrProgramAddress)

// VeMnde computes the voting power of VSR voter accounts
type VeMnde struct {
	options
	source         snapshot.AccountSource
	sink           Sink
	metrics        *veMndeMetrics
	registrars     sync.Map
	registrarLoads singleflight.Group
	processed      atomic.Uint64
	failed         atomic.Uint64
	skipped        atomic.Uint64
}

type veMndeMetrics struct {
	votersProcessed  prometheus.Counter
	votersFailed     prometheus.Counter
	accountsSkipped  prometheus.Counter
	votingPowerTotal prometheus.Gauge
}

// NewVeMnde creates a processor reading voter accounts from source and
// writing rows to sink
func NewVeMnde(
	source snapshot.AccountSource,
	sink Sink,
	opts ...OptionFunc,
) *VeMnde {
	p := &VeMnde{
		options: newOptions(opts),
		source:  source,
		sink:    sink,
	}
	p.metrics = p.registerMetrics()
	return p
}

func (p *VeMnde) registerMetrics() *veMndeMetrics {
	factory := promauto.With(p.promRegistry)
	return &veMndeMetrics{
		votersProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "snapvote_voters_processed_total",
			Help: "number of voter accounts with computed voting power",
		}),
		votersFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "snapvote_voters_failed_total",
			Help: "number of voter accounts whose voting power could not be computed",
		}),
		accountsSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "snapvote_accounts_skipped_total",
			Help: "number of program accounts that failed to decode as voters",
		}),
		votingPowerTotal: factory.NewGauge(prometheus.GaugeOpts{
			Name: "snapvote_voting_power_total",
			Help: "sum of the voting power of all processed voters",
		}),
	}
}

// Name returns the output table the processor fills
func (p *VeMnde) Name() string {
	return models.VeMndeAccountTable
}

// Count returns the number of voters processed so far
func (p *VeMnde) Count() uint64 {
	return p.processed.Load()
}

// Failed returns the number of voters whose power could not be computed
func (p *VeMnde) Failed() uint64 {
	return p.failed.Load()
}

// Skipped returns the number of accounts that could not be decoded
func (p *VeMnde) Skipped() uint64 {
	return p.skipped.Load()
}

// Run scans every voter account owned by the VSR program and evaluates it.
// Per-account failures are logged and counted; Run only fails when the scan
// or the sink fails or ctx is cancelled.
func (p *VeMnde) Run(ctx context.Context) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "VeMnde.Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("program", p.program.String()),
		attribute.Int64("timestamp", p.timestamp),
	)
	p.logger.Debug(
		fmt.Sprintf(
			"loading voter accounts of program %s at timestamp %d",
			p.program,
			p.timestamp,
		),
		"component", "processor",
	)
	g, gctx := errgroup.WithContext(ctx)
	accounts := make(chan solana.Account, p.queueSize)
	g.Go(func() error {
		defer close(accounts)
		return p.source.ScanProgramAccounts(
			gctx,
			p.program,
			snapshot.DataSize(vsr.VoterAccountLen),
			func(acct solana.Account) error {
				select {
				case accounts <- acct:
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			},
		)
	})
	for range p.workers {
		g.Go(func() error {
			for acct := range accounts {
				if err := p.processAccount(gctx, acct); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetAttributes(
		attribute.Int64("voters.processed", int64(p.Count())),   //nolint:gosec
		attribute.Int64("voters.failed", int64(p.Failed())),     //nolint:gosec
		attribute.Int64("accounts.skipped", int64(p.Skipped())), //nolint:gosec
	)
	p.logger.Debug(
		fmt.Sprintf(
			"processed %d voter accounts (%d failed, %d skipped)",
			p.Count(),
			p.Failed(),
			p.Skipped(),
		),
		"component", "processor",
	)
	return nil
}

func (p *VeMnde) processAccount(ctx context.Context, acct solana.Account) error {
	voter, err := vsr.DecodeVoter(acct.Data)
	if err != nil {
		p.skipped.Add(1)
		p.metrics.accountsSkipped.Inc()
		p.logger.Warn(
			fmt.Sprintf("failed to unpack voter account %s: %s", acct.Pubkey, err),
			"component", "processor",
		)
		return nil
	}
	power, err := p.votingPower(ctx, voter)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		p.failed.Add(1)
		p.metrics.votersFailed.Inc()
		p.logger.Error(
			fmt.Sprintf("failed to evaluate voter account %s: %s", acct.Pubkey, err),
			"component", "processor",
		)
		return nil
	}
	row := &models.VeMndeAccount{
		Pubkey:         acct.Pubkey.String(),
		VoterAuthority: voter.VoterAuthority.String(),
		VotingPower:    types.Uint64(power),
		Owner:          acct.Owner.String(),
	}
	if err := p.sink.Write(ctx, row); err != nil {
		return fmt.Errorf("write voter account %s: %w", acct.Pubkey, err)
	}
	p.processed.Add(1)
	p.metrics.votersProcessed.Inc()
	p.metrics.votingPowerTotal.Add(float64(power))
	return nil
}

func (p *VeMnde) votingPower(ctx context.Context, voter *vsr.Voter) (uint64, error) {
	registrar, err := p.registrarFor(ctx, voter.Registrar)
	if err != nil {
		return 0, err
	}
	return vsr.ComputeVotingPower(registrar, voter, p.timestamp)
}

// ErrRegistrarNotFound is returned when a voter references a registrar
// account missing from the snapshot
var ErrRegistrarNotFound = errors.New("registrar account not found")

func (p *VeMnde) registrarFor(
	ctx context.Context,
	key solana.PublicKey,
) (*vsr.Registrar, error) {
	if p.registrar != nil {
		return p.registrar, nil
	}
	if reg, ok := p.registrars.Load(key); ok {
		return reg.(*vsr.Registrar), nil
	}
	// Concurrent misses for the same registrar share one load
	ret, err, _ := p.registrarLoads.Do(key.String(), func() (any, error) {
		if reg, ok := p.registrars.Load(key); ok {
			return reg, nil
		}
		reg, err := p.loadRegistrar(ctx, key)
		if err != nil {
			return nil, err
		}
		p.registrars.Store(key, reg)
		return reg, nil
	})
	if err != nil {
		return nil, err
	}
	return ret.(*vsr.Registrar), nil
}

func (p *VeMnde) loadRegistrar(
	ctx context.Context,
	key solana.PublicKey,
) (*vsr.Registrar, error) {
	acct, err := p.source.GetAccount(ctx, key)
	if err != nil {
		if errors.Is(err, snapshot.ErrAccountNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrRegistrarNotFound, key)
		}
		return nil, err
	}
	reg, err := vsr.DecodeRegistrar(acct.Data)
	if err != nil {
		return nil, fmt.Errorf("registrar %s: %w", key, err)
	}
	return reg, nil
}

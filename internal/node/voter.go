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

package node

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/blinklabs-io/snapvote/internal/config"
	"github.com/blinklabs-io/snapvote/snapshot"
	"github.com/blinklabs-io/snapvote/solana"
	"github.com/blinklabs-io/snapvote/vsr"
	"github.com/prometheus/client_golang/prometheus"
)

// Voter writes the voting power breakdown of a single voter account to w
func Voter(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	voterAddress string,
	w io.Writer,
) error {
	pubkey, err := solana.ParsePublicKey(voterAddress)
	if err != nil {
		return err
	}
	f, err := loadFilters(cfg)
	if err != nil {
		return err
	}
	reg, err := registrar(cfg, f)
	if err != nil {
		return err
	}
	store, err := openStore(cfg, logger, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	defer store.Close()
	return writeVoter(ctx, store, reg, pubkey, timestamp(cfg), w)
}

func writeVoter(
	ctx context.Context,
	source snapshot.AccountSource,
	reg *vsr.Registrar,
	pubkey solana.PublicKey,
	now int64,
	w io.Writer,
) error {
	acct, err := source.GetAccount(ctx, pubkey)
	if err != nil {
		return fmt.Errorf("voter %s: %w", pubkey, err)
	}
	voter, err := vsr.DecodeVoter(acct.Data)
	if err != nil {
		return fmt.Errorf("voter %s: %w", pubkey, err)
	}
	if reg == nil {
		regAcct, err := source.GetAccount(ctx, voter.Registrar)
		if err != nil {
			if errors.Is(err, snapshot.ErrAccountNotFound) {
				return fmt.Errorf("registrar %s: %w", voter.Registrar, err)
			}
			return err
		}
		reg, err = vsr.DecodeRegistrar(regAcct.Data)
		if err != nil {
			return fmt.Errorf("registrar %s: %w", voter.Registrar, err)
		}
	}
	powers, err := voter.DepositPowers(reg, now)
	if err != nil {
		return err
	}
	total, err := vsr.ComputeVotingPower(reg, voter, now)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "voter:           %s\n", pubkey)
	fmt.Fprintf(w, "voter authority: %s\n", voter.VoterAuthority)
	fmt.Fprintf(w, "registrar:       %s\n", voter.Registrar)
	fmt.Fprintf(w, "timestamp:       %d\n\n", now)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DEPOSIT\tKIND\tMINT\tMINT ADDRESS\tDEPOSITED\tLOCKED\tEND\tBASELINE\tLOCKUP BONUS\tPOWER")
	for _, p := range powers {
		d := p.Deposit
		fmt.Fprintf(
			tw,
			"%d\t%s\t%d\t%s\t%d\t%d\t%d\t%d\t%d\t%d\n",
			p.Index,
			d.Lockup.Kind,
			d.VotingMintConfigIdx,
			mintAddress(reg, d.VotingMintConfigIdx),
			d.AmountDepositedNative,
			d.AmountInitiallyLockedNative,
			d.Lockup.EndTs,
			p.Baseline,
			p.Locked,
			p.Total,
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "\ntotal voting power: %d\n", total)
	return err
}

// mintAddress returns the mint configured in a registrar slot, or "-" for an
// unused slot
func mintAddress(reg *vsr.Registrar, idx uint8) string {
	cfg, err := reg.VotingMint(idx)
	if err != nil || !cfg.InUse() {
		return "-"
	}
	return cfg.Mint.String()
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"jetwallet/internal/adapter/http/dto"
	"jetwallet/internal/core/domain"
	"jetwallet/internal/core/engine"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// step is one scripted command. Params holds the same JSON body the
// /wallet/:command endpoint accepts.
type step struct {
	Command string          `json:"command"`
	Params  json.RawMessage `json:"params"`
}

// simulation is the outcome of replaying a script against a fresh wallet.
type simulation struct {
	Accepted int                `json:"accepted"`
	Rejected []rejection        `json:"rejected"`
	State    domain.WalletState `json:"state"`
}

type rejection struct {
	Step    int    `json:"step"`
	Command string `json:"command"`
	Error   string `json:"error"`
}

func simulateCmd() *cobra.Command {
	var (
		minimum string
		empty   bool
	)

	cmd := &cobra.Command{
		Use:   "simulate <script.json|->",
		Short: "Replay a command script against a fresh in-memory wallet.",
		Long: `Replays a JSON array of {"command": "...", "params": {...}} steps against
a new wallet seeded with the default holdings and prints the final state.
Rejected steps are reported and leave the wallet unchanged.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			minValue, err := decimal.NewFromString(minimum)
			if err != nil {
				return fmt.Errorf("parse --minimum: %w", err)
			}

			var in io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open script: %w", err)
				}
				defer f.Close()
				in = f
			}

			var steps []step
			if err := json.NewDecoder(in).Decode(&steps); err != nil {
				return fmt.Errorf("decode script: %w", err)
			}

			log := zerolog.New(cmd.ErrOrStderr()).With().Timestamp().Logger()
			initial := domain.NewWalletState()
			if !empty {
				initial.Wallets = domain.InitialWallets()
			}
			result := simulate(engine.New(engine.WithMinimumValue(minValue)), initial, steps, log)
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().BoolVar(&empty, "empty", false, "start from an empty wallet instead of the sign-up holdings")
	cmd.Flags().StringVar(&minimum, "minimum", engine.DefaultMinimumValue.String(), "minimum USD value per priced command")
	return cmd
}

func simulate(eng *engine.Engine, initial domain.WalletState, steps []step, log zerolog.Logger) simulation {
	wallet := engine.NewWallet(eng, initial)
	out := simulation{Rejected: []rejection{}}

	for i, s := range steps {
		cmd, err := decodeStep(s)
		if err == nil {
			_, err = wallet.Dispatch(cmd)
		}
		if err != nil {
			log.Warn().Err(err).Int("step", i).Str("command", s.Command).Msg("command rejected")
			out.Rejected = append(out.Rejected, rejection{Step: i, Command: s.Command, Error: err.Error()})
			continue
		}
		out.Accepted++
	}

	out.State = wallet.State()
	return out
}

func decodeStep(s step) (engine.Command, error) {
	if s.Command == dto.CommandSwap {
		var req dto.SwapRequest
		if err := json.Unmarshal(s.Params, &req); err != nil {
			return nil, fmt.Errorf("decode swap params: %w", err)
		}
		return req.Command(), nil
	}

	var req dto.CommandRequest
	if err := json.Unmarshal(s.Params, &req); err != nil {
		return nil, fmt.Errorf("decode %s params: %w", s.Command, err)
	}
	return req.Command(s.Command)
}

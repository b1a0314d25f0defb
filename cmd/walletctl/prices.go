package main

import (
	"encoding/json"
	"fmt"
	"io"

	"jetwallet/config"
	"jetwallet/internal/adapter/market"
	"jetwallet/internal/core/ports"
	"jetwallet/internal/service"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func pricesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prices",
		Short: "Fetch current prices from the configured providers.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(cmd)
			if err != nil {
				return err
			}

			priceSvc := service.NewPriceService(priceProviders(cfg.Prices, log), nil, nil, cfg.Prices.CacheTTL, log)
			snap, err := priceSvc.Refresh(cmd.Context())
			if err != nil {
				log.Warn().Err(err).Str("source", snap.Source).Msg("providers failed, showing last known prices")
			}
			return writeJSON(cmd.OutOrStdout(), snap)
		},
	}
}

func priceProviders(cfg config.PricesConfig, log zerolog.Logger) []ports.PriceProvider {
	var providers []ports.PriceProvider
	if cfg.CoinGeckoURL != "" {
		providers = append(providers, market.NewCoinGecko(cfg.CoinGeckoURL, cfg.Timeout, log))
	}
	if cfg.CoinCapURL != "" {
		providers = append(providers, market.NewCoinCap(cfg.CoinCapURL, cfg.Timeout, log))
	}
	if cfg.CryptoCompareURL != "" {
		providers = append(providers, market.NewCryptoCompare(cfg.CryptoCompareURL, cfg.Timeout, log))
	}
	return providers
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

package engine

import (
	"strings"

	"jetwallet/internal/core/domain"

	"github.com/shopspring/decimal"
)

// check runs every rejection rule in a fixed order: asset and destination
// validity, numeric validity, balance sufficiency, then the minimum value.
func (e *Engine) check(state domain.WalletState, cmd Command) error {
	kind := cmd.Kind()
	switch c := cmd.(type) {
	case Buy:
		return e.checkPriced(state, kind, c.Coin, c.Amount, c.USDValue, false)
	case Sell:
		return e.checkPriced(state, kind, c.Coin, c.Amount, c.USDValue, true)
	case Send:
		if !c.Coin.IsValid() {
			return reject(kind, string(c.Coin), ErrInvalidAsset)
		}
		if strings.TrimSpace(c.To) == "" {
			return reject(kind, string(c.Coin), ErrMissingDestination)
		}
		return e.checkPriced(state, kind, c.Coin, c.Amount, c.USDValue, true)
	case Receive:
		return e.checkPriced(state, kind, c.Coin, c.Amount, c.USDValue, false)
	case Swap:
		return e.checkSwap(state, c)
	case Stake:
		if err := checkUnpriced(kind, c.Coin, c.Amount, c.USDValue); err != nil {
			return err
		}
		if state.CoinBalance(c.Coin).LessThan(c.Amount) {
			return reject(kind, string(c.Coin), ErrInsufficientBalance)
		}
		return nil
	case Unstake:
		if err := checkUnpriced(kind, c.Coin, c.Amount, c.USDValue); err != nil {
			return err
		}
		if state.StakedAmount(c.Coin).LessThan(c.Amount) {
			return reject(kind, string(c.Coin), ErrInsufficientBalance)
		}
		return nil
	case Deposit:
		code := normalizeAsset(c.Asset)
		if domain.ClassifyAsset(code) == domain.AssetUnknown {
			return reject(kind, code, ErrInvalidAsset)
		}
		if err := checkNumbers(kind, code, c.Amount, c.USDValue); err != nil {
			return err
		}
		return e.checkMinimum(kind, code, c.USDValue)
	case Withdraw:
		return e.checkWithdraw(state, c)
	}
	return reject(kind, "", ErrInvalidCommand)
}

func (e *Engine) checkPriced(state domain.WalletState, kind domain.TransactionType, coin domain.CoinID, amount, usdValue decimal.Decimal, debit bool) error {
	if !coin.IsValid() {
		return reject(kind, string(coin), ErrInvalidAsset)
	}
	if err := checkNumbers(kind, string(coin), amount, usdValue); err != nil {
		return err
	}
	if debit && state.CoinBalance(coin).LessThan(amount) {
		return reject(kind, string(coin), ErrInsufficientBalance)
	}
	return e.checkMinimum(kind, string(coin), usdValue)
}

func (e *Engine) checkSwap(state domain.WalletState, c Swap) error {
	kind := c.Kind()
	if !c.From.Coin.IsValid() {
		return reject(kind, string(c.From.Coin), ErrInvalidAsset)
	}
	if !c.To.Coin.IsValid() {
		return reject(kind, string(c.To.Coin), ErrInvalidAsset)
	}
	if err := checkNumbers(kind, string(c.From.Coin), c.From.Amount, c.From.USDValue); err != nil {
		return err
	}
	if err := checkNumbers(kind, string(c.To.Coin), c.To.Amount, c.To.USDValue); err != nil {
		return err
	}
	if state.CoinBalance(c.From.Coin).LessThan(c.From.Amount) {
		return reject(kind, string(c.From.Coin), ErrInsufficientBalance)
	}
	if err := e.checkMinimum(kind, string(c.From.Coin), c.From.USDValue); err != nil {
		return err
	}
	return e.checkMinimum(kind, string(c.To.Coin), c.To.USDValue)
}

func (e *Engine) checkWithdraw(state domain.WalletState, c Withdraw) error {
	kind := c.Kind()
	code := normalizeAsset(c.Asset)
	assetKind := domain.ClassifyAsset(code)
	switch assetKind {
	case domain.AssetUnknown:
		return reject(kind, code, ErrInvalidAsset)
	case domain.AssetCoin:
		if strings.TrimSpace(c.Address) == "" {
			return reject(kind, code, ErrMissingDestination)
		}
	case domain.AssetFiat:
		if strings.TrimSpace(c.PaymentMethodID) == "" {
			return reject(kind, code, ErrMissingDestination)
		}
	}
	if err := checkNumbers(kind, code, c.Amount, c.USDValue); err != nil {
		return err
	}

	var available decimal.Decimal
	if assetKind == domain.AssetFiat {
		available = state.CashBalance(domain.FiatID(code))
	} else {
		available = state.CoinBalance(domain.CoinID(code))
	}
	if available.LessThan(c.Amount) {
		return reject(kind, code, ErrInsufficientBalance)
	}
	return e.checkMinimum(kind, code, c.USDValue)
}

// checkNumbers requires a positive amount and a positive caller-supplied
// USD value.
func checkNumbers(kind domain.TransactionType, asset string, amount, usdValue decimal.Decimal) error {
	if !amount.IsPositive() {
		return reject(kind, asset, ErrInvalidAmount)
	}
	if !usdValue.IsPositive() {
		return reject(kind, asset, ErrInvalidUSDValue)
	}
	return nil
}

// checkUnpriced covers STAKE and UNSTAKE, whose USD value comes from the
// price oracle and may be zero when no quote is available.
func checkUnpriced(kind domain.TransactionType, coin domain.CoinID, amount, usdValue decimal.Decimal) error {
	if !coin.IsValid() {
		return reject(kind, string(coin), ErrInvalidAsset)
	}
	if !amount.IsPositive() {
		return reject(kind, string(coin), ErrInvalidAmount)
	}
	if usdValue.IsNegative() {
		return reject(kind, string(coin), ErrInvalidUSDValue)
	}
	return nil
}

func (e *Engine) checkMinimum(kind domain.TransactionType, asset string, usdValue decimal.Decimal) error {
	if e.minValue.IsPositive() && usdValue.LessThan(e.minValue) {
		return reject(kind, asset, ErrBelowMinimum)
	}
	return nil
}

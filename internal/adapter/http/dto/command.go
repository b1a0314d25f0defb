package dto

import (
	"jetwallet/internal/core/domain"
	"jetwallet/internal/core/engine"
	"jetwallet/pkg/apperror"
)

// Command names accepted in the /wallet/:command path.
const (
	CommandBuy      = "buy"
	CommandSell     = "sell"
	CommandSend     = "send"
	CommandReceive  = "receive"
	CommandSwap     = "swap"
	CommandStake    = "stake"
	CommandUnstake  = "unstake"
	CommandDeposit  = "deposit"
	CommandWithdraw = "withdraw"
)

// Command converts a single-asset request into the engine command named kind.
// Swaps have their own body and are built by SwapRequest.Command.
func (r CommandRequest) Command(kind string) (engine.Command, error) {
	coin := domain.CoinID(NormalizeCode(r.Coin))
	switch kind {
	case CommandBuy:
		return engine.Buy{Coin: coin, Amount: r.Amount, USDValue: r.USDValue}, nil
	case CommandSell:
		return engine.Sell{Coin: coin, Amount: r.Amount, USDValue: r.USDValue}, nil
	case CommandSend:
		return engine.Send{Coin: coin, Amount: r.Amount, USDValue: r.USDValue, To: r.To}, nil
	case CommandReceive:
		return engine.Receive{Coin: coin, Amount: r.Amount, USDValue: r.USDValue, From: r.From}, nil
	case CommandStake:
		return engine.Stake{Coin: coin, Amount: r.Amount, USDValue: r.USDValue}, nil
	case CommandUnstake:
		return engine.Unstake{Coin: coin, Amount: r.Amount, USDValue: r.USDValue}, nil
	case CommandDeposit:
		return engine.Deposit{
			Asset:    NormalizeCode(r.Asset),
			Amount:   r.Amount,
			USDValue: r.USDValue,
			Source:   r.Source,
		}, nil
	case CommandWithdraw:
		return engine.Withdraw{
			Asset:           NormalizeCode(r.Asset),
			Amount:          r.Amount,
			USDValue:        r.USDValue,
			Address:         r.Address,
			PaymentMethodID: r.PaymentMethodID,
		}, nil
	}
	return nil, apperror.ErrInvalidTransactionType()
}

// Command converts the request into an engine swap.
func (r SwapRequest) Command() engine.Command {
	return engine.Swap{From: r.From.leg(), To: r.To.leg()}
}

func (l LegRequest) leg() engine.Leg {
	return engine.Leg{
		Coin:     domain.CoinID(NormalizeCode(l.Coin)),
		Amount:   l.Amount,
		USDValue: l.USDValue,
	}
}

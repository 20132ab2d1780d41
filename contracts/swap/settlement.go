package swap

import "golang.org/x/xerrors"

// Settlement error kinds.
var (
	// ErrCoinMismatch is returned when no coins of the recognized
	// denomination are attached to a buy.
	ErrCoinMismatch = xerrors.New("coin mismatch")

	// ErrInvalidPrice is returned when the oracle price cannot be used as a
	// divisor.
	ErrInvalidPrice = xerrors.New("invalid price")

	// ErrInsufficientCoins is returned when the payout exceeds the token
	// balance custodied by the contract.
	ErrInsufficientCoins = xerrors.New("insufficient coins in contract")
)

// settle computes the token payout of a buy. The payout is the floor of the
// received amount divided by the price: any remainder of the native coin is
// retained by the contract, never refunded. The payout must be covered by the
// token balance the contract custodies, so that the transfer requested
// afterwards can never exceed it.
func settle(price, received, balance uint64) (uint64, error) {
	if received == 0 {
		return 0, xerrors.Errorf("no '%s' coins attached: %w", NativeDenom, ErrCoinMismatch)
	}

	// The oracle does not forbid a zero price, so it must be rejected here
	// before it becomes a division by zero.
	if price == 0 {
		return 0, xerrors.Errorf("price is zero: %w", ErrInvalidPrice)
	}

	payout := received / price

	if balance < payout {
		return 0, xerrors.Errorf("payout of %d exceeds the %d custodied: %w",
			payout, balance, ErrInsufficientCoins)
	}

	return payout, nil
}

package vm

import (
	"math"
	"strconv"

	"golang.org/x/xerrors"

	"go.dedis.ch/swapvm/core/store"
)

// bank tracks the native coin balances of accounts and contracts. It operates
// on the snapshot of the current unit of work so that coin movements are
// committed or discarded together with the contract state writes.
type bank struct {
	snap store.Snapshot
}

func newBank(snap store.Snapshot) bank {
	return bank{snap: snap}
}

func balanceKey(addr Address, denom string) []byte {
	return []byte(denom + "/" + string(addr))
}

func (b bank) balance(addr Address, denom string) (uint64, error) {
	buffer, err := b.snap.Get(balanceKey(addr, denom))
	if err != nil {
		return 0, xerrors.Errorf("failed to read balance: %v", err)
	}

	if buffer == nil {
		return 0, nil
	}

	value, err := strconv.ParseUint(string(buffer), 10, 64)
	if err != nil {
		return 0, xerrors.Errorf("failed to decode balance: %v", err)
	}

	return value, nil
}

func (b bank) setBalance(addr Address, denom string, value uint64) error {
	err := b.snap.Set(balanceKey(addr, denom), []byte(strconv.FormatUint(value, 10)))
	if err != nil {
		return xerrors.Errorf("failed to write balance: %v", err)
	}

	return nil
}

// deposit credits the coins to the address.
func (b bank) deposit(addr Address, coins []Coin) error {
	for _, coin := range coins {
		current, err := b.balance(addr, coin.Denom)
		if err != nil {
			return err
		}

		if coin.Amount > math.MaxUint64-current {
			return xerrors.Errorf("balance overflow for '%s'", addr)
		}

		err = b.setBalance(addr, coin.Denom, current+coin.Amount)
		if err != nil {
			return err
		}
	}

	return nil
}

// move transfers the coins from one address to another. It fails with
// ErrInsufficientFunds when the sender does not hold enough of any of the
// denominations, in which case the snapshot may be partially written and must
// be discarded by the caller.
func (b bank) move(from, to Address, coins []Coin) error {
	for _, coin := range coins {
		current, err := b.balance(from, coin.Denom)
		if err != nil {
			return err
		}

		if current < coin.Amount {
			return xerrors.Errorf("failed to move %d %s from '%s': %w",
				coin.Amount, coin.Denom, from, ErrInsufficientFunds)
		}

		err = b.setBalance(from, coin.Denom, current-coin.Amount)
		if err != nil {
			return err
		}

		err = b.deposit(to, []Coin{coin})
		if err != nil {
			return err
		}
	}

	return nil
}

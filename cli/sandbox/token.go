package sandbox

import (
	"encoding/json"
	"math"
	"strconv"

	"golang.org/x/xerrors"

	"go.dedis.ch/swapvm/contracts/swap"
	"go.dedis.ch/swapvm/core/store"
	"go.dedis.ch/swapvm/core/vm"
)

// TokenContractName is the name of the token ledger stand-in.
const TokenContractName = "go.dedis.ch/swapvm.Token"

// balancePrefix is the key prefix of the per-address balances.
const balancePrefix = "token:balance:"

// TokenMintMsg is the message to credit an address with new tokens.
type TokenMintMsg struct {
	Mint *MintMsg `json:"mint,omitempty"`
}

// MintMsg is the body of a mint message.
type MintMsg struct {
	Recipient vm.Address `json:"recipient"`
	Amount    uint64     `json:"amount,string"`
}

// RegisterTokenContract registers the token ledger to the given host service.
func RegisterTokenContract(exec *vm.Service, c TokenContract) {
	exec.Register(TokenContractName, c)
}

// TokenContract is a fungible token ledger good enough for the sandbox. It
// understands the transfer and balance messages the swap contract emits, plus
// a mint command to seed balances.
//
// - implements vm.Contract
type TokenContract struct{}

// Instantiate implements vm.Contract. It creates an empty ledger.
func (c TokenContract) Instantiate(snap store.Snapshot, ctx vm.Context, msg []byte) (*vm.Response, error) {
	return vm.NewResponse().AddAttribute("method", "instantiate"), nil
}

// Execute implements vm.Contract. It dispatches the mint and transfer
// commands.
func (c TokenContract) Execute(snap store.Snapshot, ctx vm.Context, msg []byte) (*vm.Response, error) {
	var mint TokenMintMsg

	err := json.Unmarshal(msg, &mint)
	if err == nil && mint.Mint != nil {
		err = c.add(snap, mint.Mint.Recipient, mint.Mint.Amount)
		if err != nil {
			return nil, xerrors.Errorf("failed to MINT: %v", err)
		}

		return vm.NewResponse().AddAttribute("method", "mint"), nil
	}

	var input swap.TokenExecuteMsg

	err = json.Unmarshal(msg, &input)
	if err != nil {
		return nil, xerrors.Errorf("failed to decode message: %v", err)
	}

	if input.Transfer == nil {
		return nil, xerrors.New("unknown command")
	}

	err = c.transfer(snap, ctx.Info.Sender, input.Transfer.Recipient, input.Transfer.Amount)
	if err != nil {
		return nil, xerrors.Errorf("failed to TRANSFER: %v", err)
	}

	return vm.NewResponse().AddAttribute("method", "transfer"), nil
}

// Query implements vm.Contract. It answers balance requests.
func (c TokenContract) Query(snap store.Readable, q vm.Querier, req []byte) ([]byte, error) {
	var input swap.TokenQueryMsg

	err := json.Unmarshal(req, &input)
	if err != nil {
		return nil, xerrors.Errorf("failed to decode request: %v", err)
	}

	if input.Balance == nil {
		return nil, xerrors.New("unknown request")
	}

	balance, err := c.balanceOf(snap, input.Balance.Address)
	if err != nil {
		return nil, xerrors.Errorf("failed to read balance: %v", err)
	}

	return json.Marshal(swap.BalanceResponse{Balance: balance})
}

// Migrate implements vm.Contract. It does nothing.
func (c TokenContract) Migrate(snap store.Snapshot, ctx vm.Context, msg []byte) (*vm.Response, error) {
	return vm.NewResponse(), nil
}

func (c TokenContract) balanceOf(snap store.Readable, addr vm.Address) (uint64, error) {
	buffer, err := snap.Get([]byte(balancePrefix + string(addr)))
	if err != nil {
		return 0, xerrors.Errorf("failed to read key: %v", err)
	}

	if len(buffer) == 0 {
		return 0, nil
	}

	balance, err := strconv.ParseUint(string(buffer), 10, 64)
	if err != nil {
		return 0, xerrors.Errorf("malformed balance: %v", err)
	}

	return balance, nil
}

func (c TokenContract) add(snap store.Snapshot, addr vm.Address, amount uint64) error {
	balance, err := c.balanceOf(snap, addr)
	if err != nil {
		return err
	}

	if amount > math.MaxUint64-balance {
		return xerrors.Errorf("balance overflow for '%s'", addr)
	}

	value := strconv.FormatUint(balance+amount, 10)

	err = snap.Set([]byte(balancePrefix+string(addr)), []byte(value))
	if err != nil {
		return xerrors.Errorf("failed to write key: %v", err)
	}

	return nil
}

func (c TokenContract) transfer(snap store.Snapshot, from, to vm.Address, amount uint64) error {
	balance, err := c.balanceOf(snap, from)
	if err != nil {
		return err
	}

	if balance < amount {
		return xerrors.Errorf("balance of '%s' is %d, below %d", from, balance, amount)
	}

	value := strconv.FormatUint(balance-amount, 10)

	err = snap.Set([]byte(balancePrefix+string(from)), []byte(value))
	if err != nil {
		return xerrors.Errorf("failed to write key: %v", err)
	}

	return c.add(snap, to, amount)
}

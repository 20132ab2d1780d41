// Package swap implements a native contract that sells a token custodied by
// the contract against the native coin, at the price read from an oracle
// contract.
//
// The contract never mutates the token ledger directly: it requests a
// transfer message that the host relays to the ledger contract within the
// same atomic unit of work.
package swap

import (
	"encoding/json"
	"strconv"

	"golang.org/x/xerrors"

	"go.dedis.ch/swapvm"
	"go.dedis.ch/swapvm/core/state"
	"go.dedis.ch/swapvm/core/store"
	"go.dedis.ch/swapvm/core/vm"
)

// ContractName is the name of the contract.
const ContractName = "go.dedis.ch/swapvm.Swap"

// NativeDenom is the native coin denomination recognized by the buy and
// withdraw paths.
const NativeDenom = "uluna"

// stateKey is the storage key of the single persisted record.
const stateKey = "swap:state"

// commands defines the commands of the swap contract. This interface helps in
// testing the contract.
type commands interface {
	buy(snap store.Snapshot, ctx vm.Context) (*vm.Response, error)
	withdraw(snap store.Snapshot, ctx vm.Context, amount int32) (*vm.Response, error)
}

// RegisterContract registers the swap contract to the given host service.
func RegisterContract(exec *vm.Service, c Contract) {
	exec.Register(ContractName, c)
}

// Contract is the token swap.
//
// - implements vm.Contract
type Contract struct {
	// store reads and writes the single persisted record
	store state.Store[State]

	// cmd provides the commands that can be executed by this smart contract
	cmd commands
}

// NewContract creates a new swap contract.
func NewContract() Contract {
	contract := Contract{
		store: state.NewStore[State](stateKey),
	}

	contract.cmd = swapCommand{Contract: &contract}

	return contract
}

// Instantiate implements vm.Contract. It records the sender as the owner and
// stores the addresses of the token ledger and of the oracle.
func (c Contract) Instantiate(snap store.Snapshot, ctx vm.Context, msg []byte) (*vm.Response, error) {
	var input InstantiateMsg

	err := json.Unmarshal(msg, &input)
	if err != nil {
		return nil, xerrors.Errorf("failed to decode message: %v", err)
	}

	err = c.store.Save(snap, State{
		Owner:         ctx.Info.Sender,
		TokenAddress:  input.TokenAddress,
		OracleAddress: input.OracleAddress,
	})
	if err != nil {
		return nil, xerrors.Errorf("failed to save state: %v", err)
	}

	swapvm.Logger.Info().
		Str("contract", ContractName).
		Str("token", string(input.TokenAddress)).
		Str("oracle", string(input.OracleAddress)).
		Msgf("swap instantiated for %s", ctx.Info.Sender)

	return vm.NewResponse().AddAttribute("method", "instantiate"), nil
}

// Execute implements vm.Contract. It runs the appropriate command.
func (c Contract) Execute(snap store.Snapshot, ctx vm.Context, msg []byte) (*vm.Response, error) {
	var input ExecuteMsg

	err := json.Unmarshal(msg, &input)
	if err != nil {
		return nil, xerrors.Errorf("failed to decode message: %v", err)
	}

	switch {
	case input.Buy != nil:
		resp, err := c.cmd.buy(snap, ctx)
		if err != nil {
			return nil, xerrors.Errorf("failed to BUY: %v", err)
		}

		return resp, nil
	case input.Withdraw != nil:
		resp, err := c.cmd.withdraw(snap, ctx, input.Withdraw.Amount)
		if err != nil {
			return nil, xerrors.Errorf("failed to WITHDRAW: %v", err)
		}

		return resp, nil
	default:
		return nil, xerrors.New("unknown command")
	}
}

// Query implements vm.Contract. The swap exposes no query so far, the entry
// point is a deliberate stub.
func (c Contract) Query(snap store.Readable, q vm.Querier, req []byte) ([]byte, error) {
	return nil, vm.ErrNotImplemented
}

// Migrate implements vm.Contract. It is a no-op.
func (c Contract) Migrate(snap store.Snapshot, ctx vm.Context, msg []byte) (*vm.Response, error) {
	return vm.NewResponse(), nil
}

// swapCommand implements the commands of the swap contract.
//
// - implements commands
type swapCommand struct {
	*Contract
}

// buy implements commands. It queries the oracle price and the token balance
// custodied by the contract, settles the payout and requests the transfer to
// the buyer.
func (c swapCommand) buy(snap store.Snapshot, ctx vm.Context) (*vm.Response, error) {
	record, err := c.store.Load(snap)
	if err != nil {
		return nil, xerrors.Errorf("failed to load state: %v", err)
	}

	price, err := priceClient{querier: ctx.Querier, oracle: record.OracleAddress}.price()
	if err != nil {
		return nil, xerrors.Errorf("failed to read price: %v", err)
	}

	received := coinAmount(ctx.Info.Funds, NativeDenom)

	balance, err := ledgerClient{querier: ctx.Querier, token: record.TokenAddress}.
		balanceOf(ctx.Env.Contract)
	if err != nil {
		return nil, xerrors.Errorf("failed to read balance: %v", err)
	}

	payout, err := settle(price, received, balance)
	if err != nil {
		return nil, err
	}

	transfer, err := json.Marshal(TokenExecuteMsg{Transfer: &TransferMsg{
		Recipient: ctx.Info.Sender,
		Amount:    payout,
	}})
	if err != nil {
		return nil, xerrors.Errorf("failed to encode transfer: %v", err)
	}

	swapvm.Logger.Info().
		Str("contract", ContractName).
		Uint64("price", price).
		Uint64("received", received).
		Uint64("payout", payout).
		Msgf("selling to %s", ctx.Info.Sender)

	resp := vm.NewResponse().
		AddAttribute("price", strconv.FormatUint(price, 10)).
		AddAttribute("luna_received", strconv.FormatUint(received, 10)).
		AddAttribute("coins_sent", strconv.FormatUint(payout, 10)).
		AddMessage(vm.Message{Wasm: &vm.WasmExecute{
			ContractAddr: record.TokenAddress,
			Msg:          transfer,
			Funds:        []vm.Coin{},
		}})

	return resp, nil
}

// withdraw implements commands. It requests a native coin transfer of exactly
// the given amount to the owner. The amount is deliberately not checked
// against the balance the contract actually holds.
func (c swapCommand) withdraw(snap store.Snapshot, ctx vm.Context, amount int32) (*vm.Response, error) {
	record, err := c.store.Load(snap)
	if err != nil {
		return nil, xerrors.Errorf("failed to load state: %v", err)
	}

	if record.Owner != ctx.Info.Sender {
		return nil, xerrors.Errorf("sender '%s' is not the owner: %w",
			ctx.Info.Sender, vm.ErrUnauthorized)
	}

	if amount < 0 {
		return nil, xerrors.Errorf("negative amount %d", amount)
	}

	swapvm.Logger.Info().
		Str("contract", ContractName).
		Int32("amount", amount).
		Msgf("withdrawing to %s", ctx.Info.Sender)

	resp := vm.NewResponse().
		AddMessage(vm.Message{Bank: &vm.BankSend{
			ToAddress: ctx.Info.Sender,
			Amount:    []vm.Coin{vm.NewCoin(uint64(amount), NativeDenom)},
		}})

	return resp, nil
}

func coinAmount(funds []vm.Coin, denom string) uint64 {
	for _, coin := range funds {
		if coin.Denom == denom {
			return coin.Amount
		}
	}

	return 0
}

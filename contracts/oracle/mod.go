// Package oracle implements a native contract that stores a single price
// value. The price can be overwritten by the owner and read by anyone,
// typically by other contracts through a cross-contract query.
package oracle

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
const ContractName = "go.dedis.ch/swapvm.Oracle"

// stateKey is the storage key of the single persisted record.
const stateKey = "oracle:state"

// commands defines the commands of the oracle contract. This interface helps
// in testing the contract.
type commands interface {
	updatePrice(snap store.Snapshot, ctx vm.Context, price uint64) (*vm.Response, error)
}

// RegisterContract registers the oracle contract to the given host service.
func RegisterContract(exec *vm.Service, c Contract) {
	exec.Register(ContractName, c)
}

// Contract is the price oracle.
//
// - implements vm.Contract
type Contract struct {
	// store reads and writes the single persisted record
	store state.Store[State]

	// cmd provides the commands that can be executed by this smart contract
	cmd commands
}

// NewContract creates a new oracle contract.
func NewContract() Contract {
	contract := Contract{
		store: state.NewStore[State](stateKey),
	}

	contract.cmd = oracleCommand{Contract: &contract}

	return contract
}

// Instantiate implements vm.Contract. It stores the initial price and records
// the sender as the owner.
func (c Contract) Instantiate(snap store.Snapshot, ctx vm.Context, msg []byte) (*vm.Response, error) {
	var input InstantiateMsg

	err := json.Unmarshal(msg, &input)
	if err != nil {
		return nil, xerrors.Errorf("failed to decode message: %v", err)
	}

	err = c.store.Save(snap, State{
		Owner: ctx.Info.Sender,
		Price: input.Price,
	})
	if err != nil {
		return nil, xerrors.Errorf("failed to save state: %v", err)
	}

	swapvm.Logger.Info().
		Str("contract", ContractName).
		Uint64("price", input.Price).
		Msgf("oracle instantiated for %s", ctx.Info.Sender)

	resp := vm.NewResponse().
		AddAttribute("method", "instantiate").
		AddAttribute("owner", string(ctx.Info.Sender)).
		AddAttribute("price", strconv.FormatUint(input.Price, 10))

	return resp, nil
}

// Execute implements vm.Contract. It runs the appropriate command.
func (c Contract) Execute(snap store.Snapshot, ctx vm.Context, msg []byte) (*vm.Response, error) {
	var input ExecuteMsg

	err := json.Unmarshal(msg, &input)
	if err != nil {
		return nil, xerrors.Errorf("failed to decode message: %v", err)
	}

	switch {
	case input.UpdatePrice != nil:
		resp, err := c.cmd.updatePrice(snap, ctx, input.UpdatePrice.Price)
		if err != nil {
			return nil, xerrors.Errorf("failed to UPDATE_PRICE: %v", err)
		}

		return resp, nil
	default:
		return nil, xerrors.New("unknown command")
	}
}

// Query implements vm.Contract. It answers the read-only requests.
func (c Contract) Query(snap store.Readable, q vm.Querier, req []byte) ([]byte, error) {
	var input QueryMsg

	err := json.Unmarshal(req, &input)
	if err != nil {
		return nil, xerrors.Errorf("failed to decode request: %v", err)
	}

	switch {
	case input.QueryPrice != nil:
		record, err := c.store.Load(snap)
		if err != nil {
			return nil, xerrors.Errorf("failed to load state: %v", err)
		}

		// The payload is the bare price, which is the wire format expected
		// by consumers of query_price.
		return json.Marshal(record.Price)
	default:
		return nil, xerrors.New("unknown request")
	}
}

// Migrate implements vm.Contract. It is a no-op.
func (c Contract) Migrate(snap store.Snapshot, ctx vm.Context, msg []byte) (*vm.Response, error) {
	return vm.NewResponse(), nil
}

// oracleCommand implements the commands of the oracle contract.
//
// - implements commands
type oracleCommand struct {
	*Contract
}

// updatePrice implements commands. It overwrites the price if the sender is
// the owner, otherwise nothing is written.
func (c oracleCommand) updatePrice(snap store.Snapshot, ctx vm.Context, price uint64) (*vm.Response, error) {
	record, err := c.store.Update(snap, func(record State) (State, error) {
		if record.Owner != ctx.Info.Sender {
			return State{}, xerrors.Errorf("sender '%s' is not the owner: %w",
				ctx.Info.Sender, vm.ErrUnauthorized)
		}

		record.Price = price

		return record, nil
	})
	if err != nil {
		return nil, err
	}

	swapvm.Logger.Info().
		Str("contract", ContractName).
		Uint64("price", record.Price).
		Msg("price updated")

	resp := vm.NewResponse().
		AddAttribute("method", "update_price").
		AddAttribute("price", strconv.FormatUint(record.Price, 10))

	return resp, nil
}

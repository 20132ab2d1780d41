package sandbox

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"go.dedis.ch/swapvm/contracts/swap"
	"go.dedis.ch/swapvm/core/store"
	"go.dedis.ch/swapvm/core/vm"
	"go.dedis.ch/swapvm/internal/testing/fake"
)

func TestToken_MintAndTransfer(t *testing.T) {
	contract := TokenContract{}

	snap := fake.NewSnapshot()
	ctx := vm.Context{Info: vm.MessageInfo{Sender: "alice"}}

	resp, err := contract.Instantiate(snap, ctx, []byte("{}"))
	require.NoError(t, err)
	require.Equal(t, []vm.Attribute{{Key: "method", Value: "instantiate"}}, resp.Attributes)

	mint, err := json.Marshal(TokenMintMsg{Mint: &MintMsg{Recipient: "alice", Amount: 100}})
	require.NoError(t, err)

	_, err = contract.Execute(snap, ctx, mint)
	require.NoError(t, err)

	transfer, err := json.Marshal(swap.TokenExecuteMsg{
		Transfer: &swap.TransferMsg{Recipient: "bob", Amount: 40},
	})
	require.NoError(t, err)

	_, err = contract.Execute(snap, ctx, transfer)
	require.NoError(t, err)

	require.Equal(t, uint64(60), queryBalance(t, contract, snap, "alice"))
	require.Equal(t, uint64(40), queryBalance(t, contract, snap, "bob"))

	// spending more than the balance is refused
	_, err = contract.Execute(snap, ctx, transfer)
	require.NoError(t, err)
	_, err = contract.Execute(snap, ctx, transfer)
	require.EqualError(t, err,
		"failed to TRANSFER: balance of 'alice' is 20, below 40")
}

func TestToken_Mint_Overflow(t *testing.T) {
	contract := TokenContract{}

	snap := fake.NewSnapshot()
	ctx := vm.Context{Info: vm.MessageInfo{Sender: "alice"}}

	mint, err := json.Marshal(TokenMintMsg{Mint: &MintMsg{
		Recipient: "alice",
		Amount:    math.MaxUint64,
	}})
	require.NoError(t, err)

	_, err = contract.Execute(snap, ctx, mint)
	require.NoError(t, err)

	small, err := json.Marshal(TokenMintMsg{Mint: &MintMsg{Recipient: "alice", Amount: 1}})
	require.NoError(t, err)

	_, err = contract.Execute(snap, ctx, small)
	require.EqualError(t, err, "failed to MINT: balance overflow for 'alice'")

	require.Equal(t, uint64(math.MaxUint64), queryBalance(t, contract, snap, "alice"))
}

func TestToken_Execute_Malformed(t *testing.T) {
	contract := TokenContract{}

	snap := fake.NewSnapshot()
	ctx := vm.Context{Info: vm.MessageInfo{Sender: "alice"}}

	_, err := contract.Execute(snap, ctx, []byte("not json"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to decode message")

	_, err = contract.Execute(snap, ctx, []byte("{}"))
	require.EqualError(t, err, "unknown command")
}

func TestToken_Query(t *testing.T) {
	contract := TokenContract{}

	snap := fake.NewSnapshot()

	_, err := contract.Query(snap, nil, []byte("not json"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to decode request")

	_, err = contract.Query(snap, nil, []byte("{}"))
	require.EqualError(t, err, "unknown request")

	require.Equal(t, uint64(0), queryBalance(t, contract, snap, "nobody"))
}

func queryBalance(t *testing.T, contract TokenContract, snap store.Readable, addr vm.Address) uint64 {
	req, err := json.Marshal(swap.TokenQueryMsg{
		Balance: &swap.BalanceMsg{Address: addr},
	})
	require.NoError(t, err)

	resp, err := contract.Query(snap, nil, req)
	require.NoError(t, err)

	var balance swap.BalanceResponse

	err = json.Unmarshal(resp, &balance)
	require.NoError(t, err)

	return balance.Balance
}

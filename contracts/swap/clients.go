package swap

import (
	"encoding/json"

	"golang.org/x/xerrors"

	"go.dedis.ch/swapvm/contracts/oracle"
	"go.dedis.ch/swapvm/core/vm"
)

// priceClient reads the current price from the oracle contract. A dispatch
// failure and a malformed response are both surfaced as a query failure, with
// the underlying error kept as is.
type priceClient struct {
	querier vm.Querier
	oracle  vm.Address
}

func (c priceClient) price() (uint64, error) {
	req, err := json.Marshal(oracle.QueryMsg{QueryPrice: &oracle.QueryPriceMsg{}})
	if err != nil {
		return 0, xerrors.Errorf("failed to encode request: %v", err)
	}

	resp, err := c.querier.Query(c.oracle, req)
	if err != nil {
		return 0, xerrors.Errorf("query failed: %v", err)
	}

	var price uint64

	err = json.Unmarshal(resp, &price)
	if err != nil {
		return 0, xerrors.Errorf("query failed: malformed response: %v", err)
	}

	return price, nil
}

// ledgerClient reads token balances from the external token ledger contract.
type ledgerClient struct {
	querier vm.Querier
	token   vm.Address
}

func (c ledgerClient) balanceOf(addr vm.Address) (uint64, error) {
	req, err := json.Marshal(TokenQueryMsg{Balance: &BalanceMsg{Address: addr}})
	if err != nil {
		return 0, xerrors.Errorf("failed to encode request: %v", err)
	}

	resp, err := c.querier.Query(c.token, req)
	if err != nil {
		return 0, xerrors.Errorf("query failed: %v", err)
	}

	var balance BalanceResponse

	err = json.Unmarshal(resp, &balance)
	if err != nil {
		return 0, xerrors.Errorf("query failed: malformed response: %v", err)
	}

	return balance.Balance, nil
}

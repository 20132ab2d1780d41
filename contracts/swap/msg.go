package swap

import "go.dedis.ch/swapvm/core/vm"

// InstantiateMsg initializes a swap instance. The sender of the instantiation
// becomes the owner allowed to withdraw.
type InstantiateMsg struct {
	TokenAddress  vm.Address `json:"token_address"`
	OracleAddress vm.Address `json:"oracle_address"`
}

// ExecuteMsg is the tagged union of the swap execute messages. Exactly one
// member is set.
type ExecuteMsg struct {
	Buy      *BuyMsg      `json:"buy,omitempty"`
	Withdraw *WithdrawMsg `json:"withdraw,omitempty"`
}

// BuyMsg exchanges the attached native coins for tokens at the price read
// from the oracle.
type BuyMsg struct{}

// WithdrawMsg sends native coins held by the contract back to the owner.
type WithdrawMsg struct {
	Amount int32 `json:"amount"`
}

// State is the persisted record of a swap instance. All three fields are
// immutable after instantiation.
type State struct {
	Owner         vm.Address `json:"owner"`
	TokenAddress  vm.Address `json:"token_address"`
	OracleAddress vm.Address `json:"oracle_address"`
}

// TokenExecuteMsg is the subset of the messages understood by the external
// token ledger that this contract emits.
type TokenExecuteMsg struct {
	Transfer *TransferMsg `json:"transfer,omitempty"`
}

// TransferMsg moves tokens from the running contract to the recipient.
type TransferMsg struct {
	Recipient vm.Address `json:"recipient"`
	Amount    uint64     `json:"amount,string"`
}

// TokenQueryMsg is the subset of the queries understood by the external token
// ledger that this contract sends.
type TokenQueryMsg struct {
	Balance *BalanceMsg `json:"balance,omitempty"`
}

// BalanceMsg requests the token balance of an account.
type BalanceMsg struct {
	Address vm.Address `json:"address"`
}

// BalanceResponse is the response of the token balance query.
type BalanceResponse struct {
	Balance uint64 `json:"balance,string"`
}

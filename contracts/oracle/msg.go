package oracle

import "go.dedis.ch/swapvm/core/vm"

// InstantiateMsg initializes an oracle instance. The sender of the
// instantiation becomes the owner.
type InstantiateMsg struct {
	Price uint64 `json:"price"`
}

// ExecuteMsg is the tagged union of the oracle execute messages. Exactly one
// member is set.
type ExecuteMsg struct {
	UpdatePrice *UpdatePriceMsg `json:"update_price,omitempty"`
}

// UpdatePriceMsg overwrites the stored price. Only the owner can send it.
type UpdatePriceMsg struct {
	Price uint64 `json:"price"`
}

// QueryMsg is the tagged union of the oracle query messages.
type QueryMsg struct {
	QueryPrice *QueryPriceMsg `json:"query_price,omitempty"`
}

// QueryPriceMsg requests the current price. The response payload is the bare
// price serialized as a JSON number.
type QueryPriceMsg struct{}

// State is the persisted record of an oracle instance. The owner is set once
// at instantiation and never changes.
type State struct {
	Owner vm.Address `json:"owner"`
	Price uint64     `json:"price"`
}

// Package vm defines the boundary between the deterministic host and the
// smart contracts, and implements the host itself.
//
// A contract only ever sees three capabilities: the snapshot of its own
// key/value namespace, the identity and funds attached to the invocation, and
// a querier to read other contracts. Side effects are requested, not
// executed: a contract returns the outbound messages and the host performs
// them after the call returns, within the same atomic unit of work.
package vm

import (
	"encoding/json"

	"golang.org/x/xerrors"

	"go.dedis.ch/swapvm/core/store"
)

// Shared contract error kinds. Contracts wrap them with context so that a
// caller can still test the kind with xerrors.Is.
var (
	// ErrUnauthorized is returned when the sender is not the recorded owner
	// of a mutating operation.
	ErrUnauthorized = xerrors.New("unauthorized")

	// ErrNotImplemented is returned by deliberately stubbed entry points.
	ErrNotImplemented = xerrors.New("not implemented")

	// ErrInsufficientFunds is returned when a native coin movement exceeds
	// the sender's balance.
	ErrInsufficientFunds = xerrors.New("insufficient funds")
)

// Address is the identity of an account or a contract instance.
type Address string

// String implements fmt.Stringer.
func (a Address) String() string {
	return string(a)
}

// Coin is an amount of a native denomination.
type Coin struct {
	Denom  string `json:"denom"`
	Amount uint64 `json:"amount,string"`
}

// NewCoin creates a coin of the given denomination.
func NewCoin(amount uint64, denom string) Coin {
	return Coin{Denom: denom, Amount: amount}
}

// MessageInfo describes who triggered the invocation and the native funds
// attached to it.
type MessageInfo struct {
	Sender Address `json:"sender"`
	Funds  []Coin  `json:"funds"`
}

// Env describes the environment of the running contract.
type Env struct {
	Contract Address `json:"contract"`
}

// Querier gives read access to other contracts. It dispatches the request to
// the target contract and returns the raw response.
type Querier interface {
	Query(target Address, req []byte) ([]byte, error)
}

// Context carries the invocation environment handed to a contract entry
// point.
type Context struct {
	Env     Env
	Info    MessageInfo
	Querier Querier
}

// Attribute is an observability key/value attached to a response.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// WasmExecute requests the execution of another contract. The embedded
// message is the raw payload understood by the target.
type WasmExecute struct {
	ContractAddr Address         `json:"contract_addr"`
	Msg          json.RawMessage `json:"msg"`
	Funds        []Coin          `json:"funds"`
}

// BankSend requests a native coin transfer out of the running contract.
type BankSend struct {
	ToAddress Address `json:"to_address"`
	Amount    []Coin  `json:"amount"`
}

// Message is the tagged union of the outbound messages a contract can
// request. Exactly one member is set.
type Message struct {
	Wasm *WasmExecute `json:"wasm,omitempty"`
	Bank *BankSend    `json:"bank,omitempty"`
}

// Response is what a contract entry point returns on success.
type Response struct {
	Attributes []Attribute
	Messages   []Message
}

// NewResponse creates an empty response.
func NewResponse() *Response {
	return &Response{}
}

// AddAttribute appends an observability attribute to the response.
func (r *Response) AddAttribute(key, value string) *Response {
	r.Attributes = append(r.Attributes, Attribute{Key: key, Value: value})

	return r
}

// AddMessage appends an outbound message to the response.
func (r *Response) AddMessage(msg Message) *Response {
	r.Messages = append(r.Messages, msg)

	return r
}

// Contract is the interface to implement to register a smart contract that
// will be executed natively by the host.
type Contract interface {
	// Instantiate initializes the state of a new instance. It is called
	// exactly once per instance.
	Instantiate(snap store.Snapshot, ctx Context, msg []byte) (*Response, error)

	// Execute applies a state-mutating message.
	Execute(snap store.Snapshot, ctx Context, msg []byte) (*Response, error)

	// Query answers a read-only request. It must not mutate any state nor
	// request outbound messages.
	Query(snap store.Readable, q Querier, req []byte) ([]byte, error)

	// Migrate runs the migration entry point.
	Migrate(snap store.Snapshot, ctx Context, msg []byte) (*Response, error)
}

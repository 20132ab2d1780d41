package vm

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"golang.org/x/xerrors"

	"go.dedis.ch/swapvm"
	"go.dedis.ch/swapvm/core/store"
	"go.dedis.ch/swapvm/core/store/delta"
	"go.dedis.ch/swapvm/core/store/kv"
	"go.dedis.ch/swapvm/core/store/prefixed"
)

// bucketName is the bucket holding the whole committed state: contract
// records, instance table and bank balances, told apart by key prefixes.
var bucketName = []byte("swapvm")

const (
	// prefixInstance namespaces the instance table (address to code name).
	prefixInstance = "instance"

	// prefixBank namespaces the native coin balances.
	prefixBank = "bank"

	// prefixContract namespaces the records of a contract instance. The
	// instance address is appended to it.
	prefixContract = "contract:"
)

// defines prometheus metrics
var (
	promInvocations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "swapvm_invocations_total",
		Help: "total number of committed invocations",
	}, []string{"code"})

	promRejected = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "swapvm_invocations_rejected_total",
		Help: "total number of invocations discarded because of an error",
	})
)

func init() {
	swapvm.PromCollectors = append(swapvm.PromCollectors, promInvocations, promRejected)
}

// Service hosts the registered contract codes and executes invocations
// against a durable key/value database.
//
// Invocations are strictly sequential. Each one runs on a staging snapshot of
// the committed state: contract writes, bank movements and relayed outbound
// messages all land in the snapshot, which is committed in a single database
// transaction when the whole unit of work succeeded, and dropped otherwise.
type Service struct {
	db     kv.DB
	codes  map[string]Contract
	logger zerolog.Logger
}

// NewService creates a host service on top of the given database.
func NewService(db kv.DB) *Service {
	return &Service{
		db:     db,
		codes:  map[string]Contract{},
		logger: swapvm.Logger.With().Str("service", "vm").Logger(),
	}
}

// Register stores the contract code under the name. An instance created from
// this name will dispatch its invocations to the contract.
func (s *Service) Register(name string, code Contract) {
	s.codes[name] = code
}

// Instantiate creates a new instance of the code and runs its initialization
// entry point. It returns the address assigned to the instance.
func (s *Service) Instantiate(code string, info MessageInfo, msg []byte) (Address, *Result, error) {
	contract := s.codes[code]
	if contract == nil {
		return "", nil, xerrors.Errorf("unknown code '%s'", code)
	}

	addr := Address(xid.New().String())

	unit := s.newUnit()

	err := unit.instances().Set([]byte(addr), []byte(code))
	if err != nil {
		promRejected.Inc()
		return "", nil, xerrors.Errorf("failed to record instance: %v", err)
	}

	res, err := unit.call(addr, info, msg, entryInstantiate)
	if err != nil {
		promRejected.Inc()
		return "", nil, err
	}

	err = s.commit(unit)
	if err != nil {
		return "", nil, err
	}

	promInvocations.WithLabelValues(code).Inc()

	s.logger.Info().
		Str("code", code).
		Str("contract", string(addr)).
		Msg("contract instantiated")

	return addr, res, nil
}

// Execute runs the execute entry point of the instance living at the address.
func (s *Service) Execute(addr Address, info MessageInfo, msg []byte) (*Result, error) {
	return s.run(addr, info, msg, entryExecute)
}

// Migrate runs the migration entry point of the instance living at the
// address.
func (s *Service) Migrate(addr Address, info MessageInfo, msg []byte) (*Result, error) {
	return s.run(addr, info, msg, entryMigrate)
}

func (s *Service) run(addr Address, info MessageInfo, msg []byte, entry entryPoint) (*Result, error) {
	unit := s.newUnit()

	res, err := unit.call(addr, info, msg, entry)
	if err != nil {
		promRejected.Inc()
		return nil, err
	}

	err = s.commit(unit)
	if err != nil {
		return nil, err
	}

	promInvocations.WithLabelValues(unit.entryCode).Inc()

	return res, nil
}

// Query answers a read-only request against the committed state. No state can
// be mutated and no outbound message can be requested.
func (s *Service) Query(addr Address, req []byte) ([]byte, error) {
	querier := stateQuerier{
		service: s,
		state:   dbReadable{db: s.db},
	}

	return querier.Query(addr, req)
}

// Mint credits native coins to an address, bypassing the contracts. It is
// meant for genesis allocations and sandboxing.
func (s *Service) Mint(addr Address, coins []Coin) error {
	unit := s.newUnit()

	err := newBank(unit.bank()).deposit(addr, coins)
	if err != nil {
		return xerrors.Errorf("failed to mint: %v", err)
	}

	return s.commit(unit)
}

// Balance returns the committed native coin balance of an address.
func (s *Service) Balance(addr Address, denom string) (uint64, error) {
	snap := delta.New(dbReadable{db: s.db})

	return newBank(prefixed.NewSnapshot(prefixBank, snap)).balance(addr, denom)
}

func (s *Service) newUnit() *unit {
	return &unit{
		service: s,
		snap:    delta.New(dbReadable{db: s.db}),
		logger:  s.logger.With().Stringer("invocation", xid.New()).Logger(),
	}
}

func (s *Service) commit(unit *unit) error {
	err := s.db.Update(func(tx kv.WritableTx) error {
		bucket, err := tx.GetBucketOrCreate(bucketName)
		if err != nil {
			return err
		}

		return unit.snap.Commit(bucketAdapter{bucket: bucket})
	})
	if err != nil {
		promRejected.Inc()
		return xerrors.Errorf("failed to commit: %v", err)
	}

	return nil
}

// Result aggregates the observability attributes of an invocation, including
// those of the outbound messages relayed within the same unit of work.
type Result struct {
	Attributes []Attribute
}

type entryPoint int

const (
	entryInstantiate entryPoint = iota
	entryExecute
	entryMigrate
)

// unit is a single atomic unit of work: the entry invocation plus every
// outbound message it requested, all running on the same staging snapshot.
type unit struct {
	service   *Service
	snap      *delta.Snapshot
	logger    zerolog.Logger
	entryCode string
}

func (u *unit) instances() store.Snapshot {
	return prefixed.NewSnapshot(prefixInstance, u.snap)
}

func (u *unit) bank() store.Snapshot {
	return prefixed.NewSnapshot(prefixBank, u.snap)
}

func (u *unit) contractOf(addr Address) (Contract, string, error) {
	name, err := u.instances().Get([]byte(addr))
	if err != nil {
		return nil, "", xerrors.Errorf("failed to read instance: %v", err)
	}

	if name == nil {
		return nil, "", xerrors.Errorf("unknown contract '%s'", addr)
	}

	contract := u.service.codes[string(name)]
	if contract == nil {
		return nil, "", xerrors.Errorf("unknown code '%s'", name)
	}

	return contract, string(name), nil
}

// call runs the entry point of the instance at the address and then relays
// the outbound messages it requested, depth first in emission order. Any
// error aborts the whole unit.
func (u *unit) call(addr Address, info MessageInfo, msg []byte, entry entryPoint) (*Result, error) {
	contract, code, err := u.contractOf(addr)
	if err != nil {
		return nil, err
	}

	// relayed sub-calls must not overwrite the code of the entry invocation
	if u.entryCode == "" {
		u.entryCode = code
	}

	if len(info.Funds) > 0 {
		err = newBank(u.bank()).move(info.Sender, addr, info.Funds)
		if err != nil {
			return nil, xerrors.Errorf("failed to attach funds: %v", err)
		}
	}

	ctx := Context{
		Env:     Env{Contract: addr},
		Info:    info,
		Querier: stateQuerier{service: u.service, state: u.snap},
	}

	snap := prefixed.NewSnapshot(prefixContract+string(addr), u.snap)

	var resp *Response

	switch entry {
	case entryInstantiate:
		resp, err = contract.Instantiate(snap, ctx, msg)
	case entryMigrate:
		resp, err = contract.Migrate(snap, ctx, msg)
	default:
		resp, err = contract.Execute(snap, ctx, msg)
	}

	if err != nil {
		return nil, xerrors.Errorf("contract '%s' refused the call: %v", addr, err)
	}

	if resp == nil {
		return nil, xerrors.Errorf("contract '%s' returned an empty response", addr)
	}

	res := &Result{Attributes: resp.Attributes}

	for _, out := range resp.Messages {
		sub, err := u.relay(addr, out)
		if err != nil {
			return nil, err
		}

		res.Attributes = append(res.Attributes, sub.Attributes...)
	}

	u.logger.Trace().
		Str("contract", string(addr)).
		Int("messages", len(resp.Messages)).
		Msg("call succeeded")

	return res, nil
}

func (u *unit) relay(from Address, msg Message) (*Result, error) {
	switch {
	case msg.Bank != nil:
		err := newBank(u.bank()).move(from, msg.Bank.ToAddress, msg.Bank.Amount)
		if err != nil {
			return nil, xerrors.Errorf("failed to send coins: %v", err)
		}

		return &Result{}, nil

	case msg.Wasm != nil:
		info := MessageInfo{Sender: from, Funds: msg.Wasm.Funds}

		res, err := u.call(msg.Wasm.ContractAddr, info, msg.Wasm.Msg, entryExecute)
		if err != nil {
			return nil, xerrors.Errorf("failed to relay message: %v", err)
		}

		return res, nil

	default:
		return nil, xerrors.New("empty outbound message")
	}
}

// stateQuerier resolves cross-contract queries against a view of the state.
// During an execution the view is the staging snapshot, so a query observes
// the writes already made by the running unit.
//
// - implements vm.Querier
type stateQuerier struct {
	service *Service
	state   store.Readable
}

// Query implements vm.Querier. It dispatches the request to the target
// contract over a read-only view of its namespace.
func (q stateQuerier) Query(target Address, req []byte) ([]byte, error) {
	name, err := prefixed.NewReadable(prefixInstance, q.state).Get([]byte(target))
	if err != nil {
		return nil, xerrors.Errorf("failed to read instance: %v", err)
	}

	if name == nil {
		return nil, xerrors.Errorf("unknown contract '%s'", target)
	}

	contract := q.service.codes[string(name)]
	if contract == nil {
		return nil, xerrors.Errorf("unknown code '%s'", name)
	}

	snap := prefixed.NewReadable(prefixContract+string(target), q.state)

	resp, err := contract.Query(snap, q, req)
	if err != nil {
		return nil, xerrors.Errorf("contract '%s' refused the query: %v", target, err)
	}

	return resp, nil
}

// dbReadable exposes the committed state bucket as a read-only store.
//
// - implements store.Readable
type dbReadable struct {
	db kv.DB
}

// Get implements store.Readable. It reads the key from the committed state.
func (r dbReadable) Get(key []byte) ([]byte, error) {
	var value []byte

	err := r.db.View(func(tx kv.ReadableTx) error {
		bucket := tx.GetBucket(bucketName)
		if bucket == nil {
			return nil
		}

		buffer := bucket.Get(key)
		if buffer != nil {
			value = append([]byte{}, buffer...)
		}

		return nil
	})
	if err != nil {
		return nil, xerrors.Errorf("failed to read db: %v", err)
	}

	return value, nil
}

// bucketAdapter exposes a database bucket as a writable store so that a
// staging snapshot can be replayed onto it.
//
// - implements store.Writable
type bucketAdapter struct {
	bucket kv.Bucket
}

// Set implements store.Writable.
func (a bucketAdapter) Set(key, value []byte) error {
	return a.bucket.Set(key, value)
}

// Delete implements store.Writable.
func (a bucketAdapter) Delete(key []byte) error {
	return a.bucket.Delete(key)
}

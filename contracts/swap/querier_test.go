package swap

import (
	"golang.org/x/xerrors"

	"go.dedis.ch/swapvm/core/vm"
	"go.dedis.ch/swapvm/internal/testing/fake"
)

// fakeQuerier serves a canned response per target address.
//
// - implements vm.Querier
type fakeQuerier struct {
	responses map[vm.Address][]byte
	err       error
}

func newFakeQuerier() *fakeQuerier {
	return &fakeQuerier{
		responses: make(map[vm.Address][]byte),
	}
}

func newBadQuerier() *fakeQuerier {
	return &fakeQuerier{err: fake.GetError()}
}

func (q *fakeQuerier) setResponse(target vm.Address, resp []byte) {
	q.responses[target] = resp
}

// Query implements vm.Querier.
func (q *fakeQuerier) Query(target vm.Address, req []byte) ([]byte, error) {
	if q.err != nil {
		return nil, q.err
	}

	resp, found := q.responses[target]
	if !found {
		return nil, xerrors.Errorf("unknown contract '%s'", target)
	}

	return resp, nil
}

// Package sandbox provides a command line playground for the contracts: a
// local host backed by a database file, with commands mirroring the usual
// deployment scripts (deploy the contracts, set the price, buy, withdraw,
// inspect balances).
package sandbox

import (
	"os"

	"golang.org/x/xerrors"
	"gopkg.in/yaml.v2"

	"go.dedis.ch/swapvm/contracts/oracle"
	"go.dedis.ch/swapvm/contracts/swap"
	"go.dedis.ch/swapvm/core/store/kv"
	"go.dedis.ch/swapvm/core/vm"
)

// Config is the configuration of a sandbox chain.
type Config struct {
	// Database is the path of the database file holding the committed state.
	Database string `yaml:"database"`

	// Genesis maps addresses to their initial native coin balance.
	Genesis map[string]uint64 `yaml:"genesis"`
}

// LoadConfig reads the configuration from a YAML file.
func LoadConfig(path string) (Config, error) {
	buffer, err := os.ReadFile(path)
	if err != nil {
		return Config{}, xerrors.Errorf("failed to read config: %v", err)
	}

	config := Config{Database: "swapvm.db"}

	err = yaml.Unmarshal(buffer, &config)
	if err != nil {
		return Config{}, xerrors.Errorf("failed to decode config: %v", err)
	}

	return config, nil
}

// Sandbox is a local host with the contract codes registered.
type Sandbox struct {
	db   kv.DB
	srvc *vm.Service
}

// Open opens the sandbox database and registers the contract codes: the
// oracle, the swap and the token ledger stand-in.
func Open(config Config) (*Sandbox, error) {
	db, err := kv.New(config.Database)
	if err != nil {
		return nil, xerrors.Errorf("failed to open database: %v", err)
	}

	srvc := vm.NewService(db)

	oracle.RegisterContract(srvc, oracle.NewContract())
	swap.RegisterContract(srvc, swap.NewContract())
	RegisterTokenContract(srvc, TokenContract{})

	return &Sandbox{db: db, srvc: srvc}, nil
}

// Service returns the host service.
func (s *Sandbox) Service() *vm.Service {
	return s.srvc
}

// Seed credits the genesis balances. It is meant to be run once, when the
// database is created.
func (s *Sandbox) Seed(config Config) error {
	for addr, amount := range config.Genesis {
		err := s.srvc.Mint(vm.Address(addr), []vm.Coin{vm.NewCoin(amount, swap.NativeDenom)})
		if err != nil {
			return xerrors.Errorf("failed to seed '%s': %v", addr, err)
		}
	}

	return nil
}

// Close closes the sandbox database.
func (s *Sandbox) Close() error {
	return s.db.Close()
}

package sandbox

import (
	"encoding/json"
	"fmt"
	"os"

	urfave "github.com/urfave/cli/v2"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v2"

	"go.dedis.ch/swapvm/contracts/oracle"
	"go.dedis.ch/swapvm/contracts/swap"
	"go.dedis.ch/swapvm/core/vm"
)

// NewApp creates the sandbox command line application.
func NewApp() *urfave.App {
	return &urfave.App{
		Name:  "swapvm",
		Usage: "local sandbox for the oracle and swap contracts",
		Flags: []urfave.Flag{
			&urfave.StringFlag{
				Name:  "config",
				Usage: "path of the sandbox configuration",
				Value: "swapvm.yml",
			},
		},
		Commands: []*urfave.Command{
			{
				Name:   "init",
				Usage:  "create the database and credit the genesis balances",
				Action: initAction,
			},
			{
				Name:  "oracle",
				Usage: "manage the price oracle",
				Subcommands: []*urfave.Command{
					{
						Name:   "deploy",
						Usage:  "instantiate the oracle contract",
						Action: oracleDeployAction,
						Flags: []urfave.Flag{
							senderFlag(),
							&urfave.Uint64Flag{
								Name:     "price",
								Usage:    "initial price of the token in native coins",
								Required: true,
							},
						},
					},
					{
						Name:   "set-price",
						Usage:  "update the price",
						Action: oracleSetPriceAction,
						Flags: []urfave.Flag{
							senderFlag(),
							addressFlag("address of the oracle contract"),
							&urfave.Uint64Flag{
								Name:     "price",
								Usage:    "new price of the token in native coins",
								Required: true,
							},
						},
					},
					{
						Name:   "price",
						Usage:  "print the current price",
						Action: oraclePriceAction,
						Flags: []urfave.Flag{
							addressFlag("address of the oracle contract"),
						},
					},
				},
			},
			{
				Name:  "swap",
				Usage: "manage the swap contract",
				Subcommands: []*urfave.Command{
					{
						Name:   "deploy",
						Usage:  "instantiate the swap contract",
						Action: swapDeployAction,
						Flags: []urfave.Flag{
							senderFlag(),
							&urfave.StringFlag{
								Name:     "token",
								Usage:    "address of the token contract",
								Required: true,
							},
							&urfave.StringFlag{
								Name:     "oracle",
								Usage:    "address of the oracle contract",
								Required: true,
							},
						},
					},
					{
						Name:   "buy",
						Usage:  "buy tokens by attaching native coins",
						Action: swapBuyAction,
						Flags: []urfave.Flag{
							senderFlag(),
							addressFlag("address of the swap contract"),
							&urfave.Uint64Flag{
								Name:     "coins",
								Usage:    "amount of native coins to attach",
								Required: true,
							},
						},
					},
					{
						Name:   "withdraw",
						Usage:  "withdraw native coins from the swap contract",
						Action: swapWithdrawAction,
						Flags: []urfave.Flag{
							senderFlag(),
							addressFlag("address of the swap contract"),
							&urfave.IntFlag{
								Name:     "amount",
								Usage:    "amount of native coins to withdraw",
								Required: true,
							},
						},
					},
				},
			},
			{
				Name:  "token",
				Usage: "manage the token ledger",
				Subcommands: []*urfave.Command{
					{
						Name:   "deploy",
						Usage:  "instantiate the token ledger",
						Action: tokenDeployAction,
						Flags:  []urfave.Flag{senderFlag()},
					},
					{
						Name:   "mint",
						Usage:  "credit an address with new tokens",
						Action: tokenMintAction,
						Flags: []urfave.Flag{
							senderFlag(),
							addressFlag("address of the token contract"),
							&urfave.StringFlag{
								Name:     "recipient",
								Usage:    "address to credit",
								Required: true,
							},
							&urfave.Uint64Flag{
								Name:     "amount",
								Usage:    "amount of tokens to mint",
								Required: true,
							},
						},
					},
					{
						Name:   "balance",
						Usage:  "print the token balance of an address",
						Action: tokenBalanceAction,
						Flags: []urfave.Flag{
							addressFlag("address of the token contract"),
							&urfave.StringFlag{
								Name:     "of",
								Usage:    "address to look up",
								Required: true,
							},
						},
					},
				},
			},
			{
				Name:   "balance",
				Usage:  "print the native coin balance of an address",
				Action: balanceAction,
				Flags: []urfave.Flag{
					&urfave.StringFlag{
						Name:     "of",
						Usage:    "address to look up",
						Required: true,
					},
				},
			},
		},
	}
}

func senderFlag() urfave.Flag {
	return &urfave.StringFlag{
		Name:     "sender",
		Usage:    "address sending the transaction",
		Required: true,
	}
}

func addressFlag(usage string) urfave.Flag {
	return &urfave.StringFlag{
		Name:     "address",
		Usage:    usage,
		Required: true,
	}
}

func open(c *urfave.Context) (*Sandbox, error) {
	config, err := LoadConfig(c.String("config"))
	if err != nil {
		return nil, err
	}

	return Open(config)
}

func initAction(c *urfave.Context) error {
	path := c.String("config")

	_, err := os.Stat(path)
	if os.IsNotExist(err) {
		buffer, err := yaml.Marshal(Config{Database: "swapvm.db"})
		if err != nil {
			return xerrors.Errorf("failed to encode config: %v", err)
		}

		err = os.WriteFile(path, buffer, 0644)
		if err != nil {
			return xerrors.Errorf("failed to write config: %v", err)
		}
	}

	config, err := LoadConfig(path)
	if err != nil {
		return err
	}

	sb, err := Open(config)
	if err != nil {
		return err
	}

	defer sb.Close()

	err = sb.Seed(config)
	if err != nil {
		return err
	}

	fmt.Fprintln(c.App.Writer, "sandbox initialized")

	return nil
}

func oracleDeployAction(c *urfave.Context) error {
	sb, err := open(c)
	if err != nil {
		return err
	}

	defer sb.Close()

	msg, err := json.Marshal(oracle.InstantiateMsg{Price: c.Uint64("price")})
	if err != nil {
		return xerrors.Errorf("failed to encode message: %v", err)
	}

	info := vm.MessageInfo{Sender: vm.Address(c.String("sender"))}

	addr, _, err := sb.Service().Instantiate(oracle.ContractName, info, msg)
	if err != nil {
		return xerrors.Errorf("failed to deploy: %v", err)
	}

	fmt.Fprintln(c.App.Writer, addr)

	return nil
}

func oracleSetPriceAction(c *urfave.Context) error {
	sb, err := open(c)
	if err != nil {
		return err
	}

	defer sb.Close()

	price := c.Uint64("price")

	msg, err := json.Marshal(oracle.ExecuteMsg{
		UpdatePrice: &oracle.UpdatePriceMsg{Price: price},
	})
	if err != nil {
		return xerrors.Errorf("failed to encode message: %v", err)
	}

	info := vm.MessageInfo{Sender: vm.Address(c.String("sender"))}

	_, err = sb.Service().Execute(vm.Address(c.String("address")), info, msg)
	if err != nil {
		return xerrors.Errorf("failed to execute: %v", err)
	}

	fmt.Fprintf(c.App.Writer, "price set to %d\n", price)

	return nil
}

func oraclePriceAction(c *urfave.Context) error {
	sb, err := open(c)
	if err != nil {
		return err
	}

	defer sb.Close()

	req, err := json.Marshal(oracle.QueryMsg{QueryPrice: &oracle.QueryPriceMsg{}})
	if err != nil {
		return xerrors.Errorf("failed to encode request: %v", err)
	}

	resp, err := sb.Service().Query(vm.Address(c.String("address")), req)
	if err != nil {
		return xerrors.Errorf("failed to query: %v", err)
	}

	fmt.Fprintln(c.App.Writer, string(resp))

	return nil
}

func swapDeployAction(c *urfave.Context) error {
	sb, err := open(c)
	if err != nil {
		return err
	}

	defer sb.Close()

	msg, err := json.Marshal(swap.InstantiateMsg{
		TokenAddress:  vm.Address(c.String("token")),
		OracleAddress: vm.Address(c.String("oracle")),
	})
	if err != nil {
		return xerrors.Errorf("failed to encode message: %v", err)
	}

	info := vm.MessageInfo{Sender: vm.Address(c.String("sender"))}

	addr, _, err := sb.Service().Instantiate(swap.ContractName, info, msg)
	if err != nil {
		return xerrors.Errorf("failed to deploy: %v", err)
	}

	fmt.Fprintln(c.App.Writer, addr)

	return nil
}

func swapBuyAction(c *urfave.Context) error {
	sb, err := open(c)
	if err != nil {
		return err
	}

	defer sb.Close()

	msg, err := json.Marshal(swap.ExecuteMsg{Buy: &swap.BuyMsg{}})
	if err != nil {
		return xerrors.Errorf("failed to encode message: %v", err)
	}

	info := vm.MessageInfo{
		Sender: vm.Address(c.String("sender")),
		Funds:  []vm.Coin{vm.NewCoin(c.Uint64("coins"), swap.NativeDenom)},
	}

	res, err := sb.Service().Execute(vm.Address(c.String("address")), info, msg)
	if err != nil {
		return xerrors.Errorf("failed to execute: %v", err)
	}

	for _, attr := range res.Attributes {
		fmt.Fprintf(c.App.Writer, "%s: %s\n", attr.Key, attr.Value)
	}

	return nil
}

func swapWithdrawAction(c *urfave.Context) error {
	sb, err := open(c)
	if err != nil {
		return err
	}

	defer sb.Close()

	amount := c.Int("amount")

	msg, err := json.Marshal(swap.ExecuteMsg{
		Withdraw: &swap.WithdrawMsg{Amount: int32(amount)},
	})
	if err != nil {
		return xerrors.Errorf("failed to encode message: %v", err)
	}

	info := vm.MessageInfo{Sender: vm.Address(c.String("sender"))}

	_, err = sb.Service().Execute(vm.Address(c.String("address")), info, msg)
	if err != nil {
		return xerrors.Errorf("failed to execute: %v", err)
	}

	fmt.Fprintf(c.App.Writer, "withdrew %d %s\n", amount, swap.NativeDenom)

	return nil
}

func tokenDeployAction(c *urfave.Context) error {
	sb, err := open(c)
	if err != nil {
		return err
	}

	defer sb.Close()

	info := vm.MessageInfo{Sender: vm.Address(c.String("sender"))}

	addr, _, err := sb.Service().Instantiate(TokenContractName, info, []byte("{}"))
	if err != nil {
		return xerrors.Errorf("failed to deploy: %v", err)
	}

	fmt.Fprintln(c.App.Writer, addr)

	return nil
}

func tokenMintAction(c *urfave.Context) error {
	sb, err := open(c)
	if err != nil {
		return err
	}

	defer sb.Close()

	msg, err := json.Marshal(TokenMintMsg{Mint: &MintMsg{
		Recipient: vm.Address(c.String("recipient")),
		Amount:    c.Uint64("amount"),
	}})
	if err != nil {
		return xerrors.Errorf("failed to encode message: %v", err)
	}

	info := vm.MessageInfo{Sender: vm.Address(c.String("sender"))}

	_, err = sb.Service().Execute(vm.Address(c.String("address")), info, msg)
	if err != nil {
		return xerrors.Errorf("failed to execute: %v", err)
	}

	fmt.Fprintln(c.App.Writer, "minted")

	return nil
}

func tokenBalanceAction(c *urfave.Context) error {
	sb, err := open(c)
	if err != nil {
		return err
	}

	defer sb.Close()

	req, err := json.Marshal(swap.TokenQueryMsg{
		Balance: &swap.BalanceMsg{Address: vm.Address(c.String("of"))},
	})
	if err != nil {
		return xerrors.Errorf("failed to encode request: %v", err)
	}

	resp, err := sb.Service().Query(vm.Address(c.String("address")), req)
	if err != nil {
		return xerrors.Errorf("failed to query: %v", err)
	}

	var balance swap.BalanceResponse

	err = json.Unmarshal(resp, &balance)
	if err != nil {
		return xerrors.Errorf("failed to decode response: %v", err)
	}

	fmt.Fprintln(c.App.Writer, balance.Balance)

	return nil
}

func balanceAction(c *urfave.Context) error {
	sb, err := open(c)
	if err != nil {
		return err
	}

	defer sb.Close()

	balance, err := sb.Service().Balance(vm.Address(c.String("of")), swap.NativeDenom)
	if err != nil {
		return xerrors.Errorf("failed to read balance: %v", err)
	}

	fmt.Fprintln(c.App.Writer, balance)

	return nil
}

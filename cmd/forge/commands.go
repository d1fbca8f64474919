package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/urfave/cli/v2"

	"github.com/clydemeng/evmforge/core"
	"github.com/clydemeng/evmforge/miner"
)

var (
	callCommand = &cli.Command{
		Name:   "call",
		Usage:  "Execute a call without changing state",
		Flags:  requestFlags,
		Action: withForge(runCall),
	}
	sendCommand = &cli.Command{
		Name:   "send",
		Usage:  "Fill, execute and commit a transaction, then print its receipt",
		Flags:  requestFlags,
		Action: withForge(runSend),
	}
	estimateCommand = &cli.Command{
		Name:   "estimate",
		Usage:  "Estimate the gas of a transaction",
		Flags:  requestFlags,
		Action: withForge(runEstimate),
	}
	accessListCommand = &cli.Command{
		Name:   "accesslist",
		Usage:  "Generate the access list of a transaction",
		Flags:  requestFlags,
		Action: withForge(runAccessList),
	}
	balanceCommand = &cli.Command{
		Name:      "balance",
		Usage:     "Print the balance of an account",
		ArgsUsage: "<address|name>",
		Flags:     []cli.Flag{blockFlag},
		Action:    withForge(runBalance),
	}
	blockCommand = &cli.Command{
		Name:      "block",
		Usage:     "Print a block",
		ArgsUsage: "<number|hash|tag>",
		Action:    withForge(runBlock),
	}
	runCommand = &cli.Command{
		Name:      "run",
		Usage:     "Send every transaction of a JSON script in order and seal a block",
		ArgsUsage: "<script.json>",
		Action:    withForge(runScript),
	}
	devCommand = &cli.Command{
		Name:   "dev",
		Usage:  "Seal blocks periodically until interrupted",
		Action: withForge(runDev),
	}
	dumpConfigCommand = &cli.Command{
		Name:   "dumpconfig",
		Usage:  "Print the effective configuration",
		Action: dumpConfig,
	}
)

type forgeAction func(ctx *cli.Context, forge *core.Forge, cfg forgeConfig) error

func withForge(action forgeAction) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		forge, cfg, release, err := makeForge(ctx)
		if err != nil {
			return err
		}
		defer release()
		return action(ctx, forge, cfg)
	}
}

// parseBlock accepts decimal or hex numbers, block hashes and the usual tags.
func parseBlock(s string) (*rpc.BlockNumberOrHash, error) {
	if s == "" {
		return nil, nil
	}
	if n, err := strconv.ParseUint(s, 10, 63); err == nil {
		id := rpc.BlockNumberOrHashWithNumber(rpc.BlockNumber(n))
		return &id, nil
	}
	var id rpc.BlockNumberOrHash
	if err := id.UnmarshalJSON([]byte(strconv.Quote(s))); err != nil {
		return nil, fmt.Errorf("invalid block %q: %w", s, err)
	}
	return &id, nil
}

func parseAccount(s string) (*core.NameOrAddress, error) {
	switch {
	case strings.HasPrefix(s, "0x"):
		if !common.IsHexAddress(s) {
			return nil, fmt.Errorf("invalid address %q", s)
		}
		return core.Addr(common.HexToAddress(s)), nil
	case s == "":
		return nil, errors.New("missing account")
	}
	return core.Name(s), nil
}

// parseRequest builds a transaction request from the per-request flags.
func parseRequest(ctx *cli.Context) (*core.TxRequest, *rpc.BlockNumberOrHash, error) {
	txType := hexutil.Uint64(ctx.Uint64(txTypeFlag.Name))
	tx := &core.TxRequest{Type: &txType}
	if err := tx.Validate(); err != nil {
		return nil, nil, err
	}
	if s := ctx.String(fromFlag.Name); s != "" {
		if !common.IsHexAddress(s) {
			return nil, nil, fmt.Errorf("invalid sender %q", s)
		}
		from := common.HexToAddress(s)
		tx.From = &from
	}
	if s := ctx.String(toFlag.Name); s != "" {
		to, err := parseAccount(s)
		if err != nil {
			return nil, nil, err
		}
		tx.To = to
	}
	if s := ctx.String(dataFlag.Name); s != "" {
		data, err := hexutil.Decode(s)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid data: %w", err)
		}
		tx.SetData(data)
	}
	if s := ctx.String(valueFlag.Name); s != "" {
		v, ok := new(big.Int).SetString(s, 0)
		if !ok || v.Sign() < 0 {
			return nil, nil, fmt.Errorf("invalid value %q", s)
		}
		tx.SetValue(v)
	}
	if ctx.IsSet(gasFlag.Name) {
		tx.SetGas(ctx.Uint64(gasFlag.Name))
	}
	block, err := parseBlock(ctx.String(blockFlag.Name))
	if err != nil {
		return nil, nil, err
	}
	return tx, block, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runCall(ctx *cli.Context, forge *core.Forge, _ forgeConfig) error {
	tx, block, err := parseRequest(ctx)
	if err != nil {
		return err
	}
	out, err := forge.Call(ctx.Context, tx, block)
	if err != nil {
		return err
	}
	fmt.Println(hexutil.Encode(out))
	return nil
}

func runSend(ctx *cli.Context, forge *core.Forge, _ forgeConfig) error {
	tx, block, err := parseRequest(ctx)
	if err != nil {
		return err
	}
	pending, err := forge.SendTransaction(ctx.Context, tx, block)
	if err != nil {
		return err
	}
	receipt, err := pending.Wait(ctx.Context)
	if err != nil {
		return err
	}
	return printJSON(receipt)
}

func runEstimate(ctx *cli.Context, forge *core.Forge, _ forgeConfig) error {
	tx, block, err := parseRequest(ctx)
	if err != nil {
		return err
	}
	gas, err := forge.EstimateGas(ctx.Context, tx, block)
	if err != nil {
		return err
	}
	fmt.Println(gas)
	return nil
}

func runAccessList(ctx *cli.Context, forge *core.Forge, _ forgeConfig) error {
	tx, block, err := parseRequest(ctx)
	if err != nil {
		return err
	}
	res, err := forge.CreateAccessList(ctx.Context, tx, block)
	if err != nil {
		return err
	}
	return printJSON(res)
}

func runBalance(ctx *cli.Context, forge *core.Forge, _ forgeConfig) error {
	who, err := parseAccount(ctx.Args().First())
	if err != nil {
		return err
	}
	block, err := parseBlock(ctx.String(blockFlag.Name))
	if err != nil {
		return err
	}
	bal, err := forge.Balance(ctx.Context, *who, block)
	if err != nil {
		return err
	}
	fmt.Println(bal)
	return nil
}

func runBlock(ctx *cli.Context, forge *core.Forge, _ forgeConfig) error {
	arg := ctx.Args().First()
	if arg == "" {
		arg = "latest"
	}
	id, err := parseBlock(arg)
	if err != nil {
		return err
	}
	b, err := forge.Block(ctx.Context, *id)
	if err != nil {
		return err
	}
	return printJSON(b)
}

// runScript reads a JSON array of transaction requests and sends them in order.
func runScript(ctx *cli.Context, forge *core.Forge, _ forgeConfig) error {
	if ctx.Args().Len() != 1 {
		return errors.New("expected exactly one script file")
	}
	blob, err := os.ReadFile(ctx.Args().First())
	if err != nil {
		return err
	}
	var txs []*core.TxRequest
	if err := json.Unmarshal(blob, &txs); err != nil {
		return fmt.Errorf("parse script: %w", err)
	}
	for i, tx := range txs {
		pending, err := forge.SendTransaction(ctx.Context, tx, nil)
		if err != nil {
			return fmt.Errorf("transaction %d: %w", i, err)
		}
		receipt := pending.Receipt()
		log.Info("Executed script transaction", "index", i, "hash", pending.Hash(), "status", receipt.Status, "gas", receipt.GasUsed)
		if err := printJSON(receipt); err != nil {
			return err
		}
	}
	hash, err := forge.Mine(ctx.Context)
	if err != nil {
		return err
	}
	log.Info("Sealed script block", "txs", len(txs), "hash", hash)
	return nil
}

func runDev(ctx *cli.Context, forge *core.Forge, cfg forgeConfig) error {
	sigctx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := miner.New(forge, cfg.Miner).Run(sigctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

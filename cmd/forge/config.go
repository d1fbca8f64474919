package main

import (
	"bufio"
	"errors"
	"fmt"
	"math/big"
	"os"
	"reflect"
	"unicode"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/params"
	"github.com/naoina/toml"
	"github.com/urfave/cli/v2"

	"github.com/clydemeng/evmforge/core"
	"github.com/clydemeng/evmforge/core/vm"
	"github.com/clydemeng/evmforge/miner"
	"github.com/clydemeng/evmforge/remote"
)

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		var link string
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(", see https://godoc.org/%s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field '%s' is not defined in %s%s", field, rt.String(), link)
	},
}

type allocConfig struct {
	Address common.Address
	Balance *big.Int `toml:",omitempty"`
	Code    hexutil.Bytes
}

type engineConfig struct {
	ChainID  uint64
	GasLimit uint64
	GasPrice *big.Int `toml:",omitempty"`
	Coinbase common.Address
	Time     uint64
	Alloc    []allocConfig
}

type remoteConfig struct {
	URL string
}

type frontConfig struct {
	DefaultSender common.Address // zero leaves requests without a sender untouched
}

type forgeConfig struct {
	Engine engineConfig
	Remote remoteConfig
	Forge  frontConfig
	Miner  miner.Config
}

func defaultConfig() forgeConfig {
	return forgeConfig{
		Engine: engineConfig{
			ChainID:  params.AllDevChainProtocolChanges.ChainID.Uint64(),
			GasLimit: vm.DefaultGasLimit,
		},
		Miner: miner.DefaultConfig,
	}
}

func loadConfig(file string, cfg *forgeConfig) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

// engine converts the file section into the engine's own configuration.
func (c *engineConfig) engine() vm.Config {
	chainConfig := *params.AllDevChainProtocolChanges
	chainConfig.ChainID = new(big.Int).SetUint64(c.ChainID)

	alloc := make(types.GenesisAlloc, len(c.Alloc))
	for _, a := range c.Alloc {
		balance := new(big.Int)
		if a.Balance != nil {
			balance.Set(a.Balance)
		}
		alloc[a.Address] = types.Account{Balance: balance, Code: a.Code}
	}
	return vm.Config{
		ChainConfig: &chainConfig,
		GasLimit:    c.GasLimit,
		GasPrice:    c.GasPrice,
		Coinbase:    c.Coinbase,
		Time:        c.Time,
		Alloc:       alloc,
	}
}

// makeConfig loads the config file, if any, and applies command line flags.
func makeConfig(ctx *cli.Context) (forgeConfig, error) {
	cfg := defaultConfig()
	if file := ctx.String(configFileFlag.Name); file != "" {
		if err := loadConfig(file, &cfg); err != nil {
			return cfg, err
		}
	}
	if ctx.IsSet(remoteURLFlag.Name) {
		cfg.Remote.URL = ctx.String(remoteURLFlag.Name)
	}
	if ctx.IsSet(chainIDFlag.Name) {
		cfg.Engine.ChainID = ctx.Uint64(chainIDFlag.Name)
	}
	if ctx.IsSet(senderFlag.Name) {
		s := ctx.String(senderFlag.Name)
		if !common.IsHexAddress(s) {
			return cfg, fmt.Errorf("invalid sender address %q", s)
		}
		cfg.Forge.DefaultSender = common.HexToAddress(s)
	}
	if ctx.IsSet(periodFlag.Name) {
		cfg.Miner.Period = ctx.Duration(periodFlag.Name)
	}
	return cfg, nil
}

// makeForge builds the engine and, when a remote URL is configured, dials
// the remote node. The returned function releases the connection.
func makeForge(ctx *cli.Context) (*core.Forge, forgeConfig, func(), error) {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return nil, cfg, nil, err
	}
	engine, err := vm.NewGethEngine(cfg.Engine.engine())
	if err != nil {
		return nil, cfg, nil, err
	}
	var opts []core.Option
	if cfg.Forge.DefaultSender != (common.Address{}) {
		opts = append(opts, core.WithDefaultSender(cfg.Forge.DefaultSender))
	}
	if cfg.Remote.URL == "" {
		return core.New(engine, opts...), cfg, func() {}, nil
	}
	client, err := remote.Dial(ctx.Context, cfg.Remote.URL)
	if err != nil {
		return nil, cfg, nil, fmt.Errorf("dial remote %s: %w", cfg.Remote.URL, err)
	}
	log.Info("Connected to remote node", "url", cfg.Remote.URL)
	return core.NewWithProvider(engine, client, opts...), cfg, client.Close, nil
}

func dumpConfig(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	out, err := tomlSettings.Marshal(&cfg)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(out)
	return err
}

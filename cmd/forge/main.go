// forge runs transactions against a local in-memory chain and, when a remote
// node is configured, answers historical queries from that node.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	configFileFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
	remoteURLFlag = &cli.StringFlag{
		Name:    "rpc",
		Aliases: []string{"remote"},
		Usage:   "URL of the remote node serving non-head queries",
	}
	chainIDFlag = &cli.Uint64Flag{
		Name:  "chainid",
		Usage: "Chain id of the local chain",
	}
	senderFlag = &cli.StringFlag{
		Name:  "sender",
		Usage: "Sender filled into requests that do not name one",
	}
	periodFlag = &cli.DurationFlag{
		Name:  "period",
		Usage: "Block sealing period of the dev command",
	}
	logFileFlag = &cli.StringFlag{
		Name:  "log.file",
		Usage: "Write logs to a rotated file instead of stderr",
	}
	verbosityFlag = &cli.IntFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity: 0=silent, 1=error, 2=warn, 3=info, 4=debug, 5=detail",
		Value: 3,
	}

	// Per-request flags.
	fromFlag = &cli.StringFlag{
		Name:  "from",
		Usage: "Sender address",
	}
	toFlag = &cli.StringFlag{
		Name:  "to",
		Usage: "Recipient address or ENS name; empty deploys a contract",
	}
	dataFlag = &cli.StringFlag{
		Name:  "data",
		Usage: "Hex encoded calldata or init code",
	}
	valueFlag = &cli.StringFlag{
		Name:  "value",
		Usage: "Value in wei",
	}
	gasFlag = &cli.Uint64Flag{
		Name:  "gas",
		Usage: "Gas limit; estimated when omitted",
	}
	txTypeFlag = &cli.Uint64Flag{
		Name:  "type",
		Usage: "Transaction type: 0=legacy, 1=access list, 2=dynamic fee",
	}
	blockFlag = &cli.StringFlag{
		Name:  "block",
		Usage: "Block number, hash or tag; defaults to latest",
	}
)

var requestFlags = []cli.Flag{fromFlag, toFlag, dataFlag, valueFlag, gasFlag, txTypeFlag, blockFlag}

func newApp() *cli.App {
	return &cli.App{
		Name:  "forge",
		Usage: "local EVM execution with remote fallback",
		Flags: []cli.Flag{
			configFileFlag,
			remoteURLFlag,
			chainIDFlag,
			senderFlag,
			periodFlag,
			logFileFlag,
			verbosityFlag,
		},
		Before: func(ctx *cli.Context) error {
			verbosity := ctx.Int(verbosityFlag.Name)
			if file := ctx.String(logFileFlag.Name); file != "" {
				setupFileLogging(file, verbosity)
				return nil
			}
			setupLogging(os.Stderr, verbosity)
			return nil
		},
		Commands: []*cli.Command{
			callCommand,
			sendCommand,
			estimateCommand,
			accessListCommand,
			balanceCommand,
			blockCommand,
			runCommand,
			devCommand,
			dumpConfigCommand,
		},
	}
}

// setupLogging installs a terminal handler, colored when w is a terminal.
func setupLogging(w *os.File, verbosity int) {
	var (
		output   io.Writer = w
		usecolor           = (isatty.IsTerminal(w.Fd()) || isatty.IsCygwinTerminal(w.Fd())) && os.Getenv("TERM") != "dumb"
	)
	if usecolor {
		output = colorable.NewColorable(w)
	}
	log.SetDefault(log.NewLogger(log.NewTerminalHandlerWithLevel(output, log.FromLegacyLevel(verbosity), usecolor)))
}

// setupFileLogging writes plain logs to file, rotating it at 100MB.
func setupFileLogging(file string, verbosity int) {
	output := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    100,
		MaxBackups: 10,
		MaxAge:     30,
		Compress:   true,
	}
	log.SetDefault(log.NewLogger(log.NewTerminalHandlerWithLevel(output, log.FromLegacyLevel(verbosity), false)))
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package main

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/require"
)

var testAccount = common.HexToAddress("0xEA674fdDe714fd979de3EdF0F56AA9716B898ec8")

const testConfig = `
[Engine]
ChainID = 7
GasLimit = 8000000
GasPrice = "2000000000"
Coinbase = "0x0000000000000000000000000000000000000042"

[[Engine.Alloc]]
Address = "0xEA674fdDe714fd979de3EdF0F56AA9716B898ec8"
Balance = "100000000000000000000"

[[Engine.Alloc]]
Address = "0x1000000000000000000000000000000000000001"
Code = "0x60006000f3"

[Forge]
DefaultSender = "0xEA674fdDe714fd979de3EdF0F56AA9716B898ec8"

[Miner]
Period = 2000000000
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg := defaultConfig()
	require.NoError(t, loadConfig(writeFile(t, "forge.toml", testConfig), &cfg))

	require.Equal(t, uint64(7), cfg.Engine.ChainID)
	require.Equal(t, uint64(8_000_000), cfg.Engine.GasLimit)
	require.Equal(t, big.NewInt(2_000_000_000), cfg.Engine.GasPrice)
	require.Equal(t, common.HexToAddress("0x42"), cfg.Engine.Coinbase)
	require.Len(t, cfg.Engine.Alloc, 2)
	require.Equal(t, testAccount, cfg.Forge.DefaultSender)
	require.Equal(t, 2*time.Second, cfg.Miner.Period)

	ec := cfg.Engine.engine()
	require.Equal(t, big.NewInt(7), ec.ChainConfig.ChainID)
	require.Equal(t, "100000000000000000000", ec.Alloc[testAccount].Balance.String())
	code := ec.Alloc[common.HexToAddress("0x1000000000000000000000000000000000000001")]
	require.Equal(t, []byte{0x60, 0x00, 0x60, 0x00, 0xf3}, code.Code)
	require.Zero(t, code.Balance.Sign())
}

func TestLoadConfigRejectsUnknownFields(t *testing.T) {
	path := writeFile(t, "forge.toml", "[Engine]\nChainID = 1\nBogus = 2\n")
	cfg := defaultConfig()
	err := loadConfig(path, &cfg)
	require.Error(t, err)
	require.ErrorContains(t, err, "Bogus")
	require.ErrorContains(t, err, path)
}

func TestEngineConfigKeepsDevChainConfig(t *testing.T) {
	cfg := defaultConfig()
	cfg.Engine.ChainID = 99
	ec := cfg.Engine.engine()
	require.Equal(t, big.NewInt(99), ec.ChainConfig.ChainID)
	// The shared dev chain config must stay untouched.
	require.Equal(t, int64(1337), params.AllDevChainProtocolChanges.ChainID.Int64())
}

func TestParseBlock(t *testing.T) {
	tests := []struct {
		in   string
		want rpc.BlockNumberOrHash
	}{
		{"12", rpc.BlockNumberOrHashWithNumber(12)},
		{"0x10", rpc.BlockNumberOrHashWithNumber(16)},
		{"latest", rpc.BlockNumberOrHashWithNumber(rpc.LatestBlockNumber)},
		{"pending", rpc.BlockNumberOrHashWithNumber(rpc.PendingBlockNumber)},
		{"0xdeadbeef00000000000000000000000000000000000000000000000000000000",
			rpc.BlockNumberOrHashWithHash(common.HexToHash("0xdeadbeef00000000000000000000000000000000000000000000000000000000"), false)},
	}
	for _, tt := range tests {
		got, err := parseBlock(tt.in)
		require.NoError(t, err, tt.in)
		require.Equal(t, tt.want.String(), got.String(), tt.in)
	}
	got, err := parseBlock("")
	require.NoError(t, err)
	require.Nil(t, got)

	_, err = parseBlock("tomorrow")
	require.Error(t, err)
}

func TestParseAccount(t *testing.T) {
	who, err := parseAccount(testAccount.Hex())
	require.NoError(t, err)
	require.False(t, who.IsName())
	require.Equal(t, testAccount, who.Address)

	who, err = parseAccount("vitalik.eth")
	require.NoError(t, err)
	require.True(t, who.IsName())

	_, err = parseAccount("0x1234")
	require.Error(t, err)
	_, err = parseAccount("")
	require.Error(t, err)
}

// TestRunScript drives the whole command: config, engine, script execution
// and sealing.
func TestRunScript(t *testing.T) {
	config := writeFile(t, "forge.toml", testConfig)
	script := writeFile(t, "script.json", `[
		{"to": "0x0000000000000000000000000000000000000007", "value": "0x64"},
		{"to": "0x0000000000000000000000000000000000000007", "value": "0x64", "gas": "0x5208"}
	]`)
	require.NoError(t, newApp().Run([]string{"forge", "--verbosity", "1", "--config", config, "run", script}))
}

func TestRunScriptRejectsBadInput(t *testing.T) {
	config := writeFile(t, "forge.toml", testConfig)
	script := writeFile(t, "script.json", `{"to": 1}`)
	require.Error(t, newApp().Run([]string{"forge", "--verbosity", "1", "--config", config, "run", script}))
}

func TestFileLogging(t *testing.T) {
	config := writeFile(t, "forge.toml", testConfig)
	logFile := filepath.Join(t.TempDir(), "forge.log")
	require.NoError(t, newApp().Run([]string{"forge", "--log.file", logFile, "--config", config, "balance", testAccount.Hex()}))

	blob, err := os.ReadFile(logFile)
	require.NoError(t, err)
	require.Contains(t, string(blob), "Initialised execution engine")
}

package tracing

import (
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// FormatLog renders an EVM log as a single line:
//
//	<address> [topic0 topic1 ...] <data>
func FormatLog(l *types.Log) string {
	var b strings.Builder
	b.WriteString(l.Address.Hex())
	b.WriteString(" [")
	for i, topic := range l.Topics {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(topic.Hex())
	}
	b.WriteString("] ")
	b.WriteString(hexutil.Encode(l.Data))
	return b.String()
}

// FormatLogs renders logs in emission order.
func FormatLogs(logs []*types.Log) []string {
	if len(logs) == 0 {
		return nil
	}
	lines := make([]string, len(logs))
	for i, l := range logs {
		lines[i] = FormatLog(l)
	}
	return lines
}

package formats

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ajitpratap0/formatbench/pkg/logger"
)

func TestSinkSet_LogsCarryTableAndFormat(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger.Set(zap.New(core))
	t.Cleanup(func() { logger.Set(nil) })

	mem := memory.NewGoAllocator()
	table := priceTable(t)
	set, err := OpenSinkSet(table, t.TempDir(), nil)
	require.NoError(t, err)

	chunk := buildChunk(t, mem, table, 0, [][]string{{"ASIA", "3.50"}})
	require.NoError(t, set.WriteChunk(chunk))
	chunk.Release()
	require.NoError(t, set.Close())

	closed := logs.FilterMessage("sink closed").All()
	require.Len(t, closed, len(All()))
	for i, f := range All() {
		fields := closed[i].ContextMap()
		assert.Equal(t, "prices", fields["table"])
		assert.Equal(t, string(f), fields["format"])
		assert.EqualValues(t, 1, fields["rows"])
	}

	opened := logs.FilterMessage("sinks opened").All()
	require.Len(t, opened, 1)
	assert.Equal(t, "prices", opened[0].ContextMap()["table"])
	assert.NotContains(t, opened[0].ContextMap(), "format")
}

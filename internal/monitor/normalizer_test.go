package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	sampleMint = "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU"
	samplePool = "58oQChx4yWmvKdwLLZzBi4ChoCc2fqCUWBkwMihLYQo2"
)

func TestMarkerNormalizerRaydiumInitialize(t *testing.T) {
	logs := []string{
		"Program 675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8 invoke [1]",
		"Program log: initialize2: InitializeInstruction2",
		"Program log: Mint: " + sampleMint,
		"Program log: Pool: " + samplePool,
	}

	event, ok := MarkerNormalizer{}.Normalize(PlatformRaydium, "sig-1", 42, logs)
	require.True(t, ok)

	assert.Equal(t, PlatformRaydium, event.Platform)
	assert.Equal(t, sampleMint, event.TokenAddress)
	assert.Equal(t, samplePool, event.PoolAddress)
	assert.Equal(t, "sig-1", event.Signature)
	assert.Equal(t, uint64(42), event.Slot)
}

func TestMarkerNormalizerPumpFunCreate(t *testing.T) {
	logs := []string{
		"Program log: Instruction: Create",
		"Program log: Mint: " + sampleMint,
	}

	event, ok := MarkerNormalizer{}.Normalize(PlatformPumpFun, "sig-2", 7, logs)
	require.True(t, ok)
	assert.Equal(t, sampleMint, event.TokenAddress)
	assert.Empty(t, event.PoolAddress)
}

func TestMarkerNormalizerDropsWithoutInitMarker(t *testing.T) {
	logs := []string{
		"Program log: Instruction: Swap",
		"Program log: Mint: " + sampleMint,
	}

	_, ok := MarkerNormalizer{}.Normalize(PlatformRaydium, "sig", 1, logs)
	assert.False(t, ok)
}

func TestMarkerNormalizerDropsWithoutMint(t *testing.T) {
	logs := []string{
		"Program log: Instruction: Create",
		"Program log: something else entirely",
	}

	_, ok := MarkerNormalizer{}.Normalize(PlatformPumpFun, "sig", 1, logs)
	assert.False(t, ok)
}

func TestMarkerNormalizerDropsUnknownPlatform(t *testing.T) {
	logs := []string{
		"Program log: Instruction: Create",
		"Program log: Mint: " + sampleMint,
	}

	_, ok := MarkerNormalizer{}.Normalize("unknown", "sig", 1, logs)
	assert.False(t, ok)
}

func TestMarkerNormalizerIgnoresMalformedMintValues(t *testing.T) {
	logs := []string{
		"Program log: Instruction: Create",
		"Program log: Mint: short",
	}

	_, ok := MarkerNormalizer{}.Normalize(PlatformPumpFun, "sig", 1, logs)
	assert.False(t, ok)
}

func TestDefaultPlatformsPriorityOrder(t *testing.T) {
	platforms := DefaultPlatforms()
	require.Len(t, platforms, 3)

	assert.Equal(t, PlatformRaydium, platforms[0].Name)
	assert.Equal(t, PlatformPumpFun, platforms[1].Name)
	assert.Equal(t, PlatformOrca, platforms[2].Name)

	for _, p := range platforms {
		assert.NotEmpty(t, p.ProgramID)
	}
}

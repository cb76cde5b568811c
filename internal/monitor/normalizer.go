package monitor

import (
	"strings"
)

// Pool-initialization log markers per platform. A notification without its
// platform marker is not a pool creation and is dropped.
var initMarkers = map[string][]string{
	PlatformRaydium: {"initialize2", "InitializeInstruction2"},
	PlatformPumpFun: {"Instruction: Create"},
	PlatformOrca:    {"Instruction: InitializePool"},
}

// MarkerNormalizer is the shipped log normalizer. It recognizes pool
// initialization by instruction markers and extracts the token mint from
// "Mint:" program log lines. Notifications it cannot attribute to a concrete
// mint are dropped rather than guessed; richer platform-specific decoders
// plug in through the Normalizer interface.
type MarkerNormalizer struct{}

func (MarkerNormalizer) Normalize(platform, signature string, slot uint64, logs []string) (PoolEvent, bool) {
	markers, ok := initMarkers[platform]
	if !ok {
		return PoolEvent{}, false
	}

	matched := false
	for _, line := range logs {
		for _, marker := range markers {
			if strings.Contains(line, marker) {
				matched = true
				break
			}
		}
		if matched {
			break
		}
	}
	if !matched {
		return PoolEvent{}, false
	}

	mint := extractField(logs, "Mint:")
	if mint == "" {
		return PoolEvent{}, false
	}

	return PoolEvent{
		Platform:     platform,
		TokenAddress: mint,
		PoolAddress:  extractField(logs, "Pool:"),
		Signature:    signature,
		Slot:         slot,
	}, true
}

// extractField returns the base58-looking token after a "Key:" marker in any
// program log line.
func extractField(logs []string, key string) string {
	for _, line := range logs {
		idx := strings.Index(line, key)
		if idx < 0 {
			continue
		}
		rest := strings.TrimSpace(line[idx+len(key):])
		if rest == "" {
			continue
		}
		value := strings.Fields(rest)[0]
		if len(value) >= 32 && len(value) <= 44 {
			return value
		}
	}
	return ""
}

var _ Normalizer = MarkerNormalizer{}

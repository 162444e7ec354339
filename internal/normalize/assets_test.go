package normalize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssetMatcherMatchesSymbol(t *testing.T) {
	m := NewAssetMatcher(nil)

	match := m.Match("Ethereum upgrade ships", "vitalik announced the ethereum fork")
	require.NotNil(t, match)
	assert.Equal(t, "ETH", match.Symbol)
	assert.Greater(t, match.Confidence, 0.0)
	assert.LessOrEqual(t, match.Confidence, 1.0)
}

func TestAssetMatcherTitleWeighsDouble(t *testing.T) {
	m := NewAssetMatcher([]Instrument{
		{Symbol: "BTC", Keywords: []string{"bitcoin"}},
		{Symbol: "ETH", Keywords: []string{"ethereum"}},
	})

	// One title hit must outrank one description hit.
	match := m.Match("Bitcoin steadies", "analysts compare it to ethereum")
	require.NotNil(t, match)
	assert.Equal(t, "BTC", match.Symbol)
}

func TestAssetMatcherWordBoundaries(t *testing.T) {
	m := NewAssetMatcher(nil)

	match := m.Match("A new solution for cloud billing", "enterprise software news")
	assert.Nil(t, match, "'sol' must not fire on 'solution'")
}

func TestAssetMatcherNoMatch(t *testing.T) {
	m := NewAssetMatcher(nil)

	assert.Nil(t, m.Match("Weather outlook for the weekend", "sunny spells"))
	assert.Nil(t, m.Match("", ""))
}

func TestAssetMatcherConfidenceSaturates(t *testing.T) {
	m := NewAssetMatcher([]Instrument{
		{Symbol: "BTC", Keywords: []string{"bitcoin", "btc", "satoshi", "halving"}},
	})

	match := m.Match("bitcoin btc satoshi halving", "bitcoin btc satoshi halving")
	require.NotNil(t, match)
	assert.Equal(t, 1.0, match.Confidence)
}

func TestYAMLInstrumentsLoader(t *testing.T) {
	yaml := `
instruments:
  - symbol: BTC
    keywords: [bitcoin, btc]
  - symbol: ETH
    keywords: [ethereum]
`
	cfg, err := NewYAMLInstrumentsLoader(strings.NewReader(yaml)).Load()
	require.NoError(t, err)
	require.Len(t, cfg.Instruments, 2)
	assert.Equal(t, "BTC", cfg.Instruments[0].Symbol)
	assert.Equal(t, []string{"ethereum"}, cfg.Instruments[1].Keywords)
}

func TestYAMLInstrumentsLoaderRejectsMissingSymbol(t *testing.T) {
	yaml := `
instruments:
  - keywords: [bitcoin]
`
	_, err := NewYAMLInstrumentsLoader(strings.NewReader(yaml)).Load()
	require.Error(t, err)
}

func TestYAMLInstrumentsLoaderRejectsEmptyKeywords(t *testing.T) {
	yaml := `
instruments:
  - symbol: BTC
    keywords: []
`
	_, err := NewYAMLInstrumentsLoader(strings.NewReader(yaml)).Load()
	require.Error(t, err)
}

func TestLoadInstrumentsFileDefaults(t *testing.T) {
	instruments, err := LoadInstrumentsFile("")
	require.NoError(t, err)
	assert.NotEmpty(t, instruments)
}

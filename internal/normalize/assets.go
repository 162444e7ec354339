package normalize

import (
	"sort"
	"strings"

	"github.com/swipetrader/newsfeed/internal/domain"
)

// Instrument is one entry of the known tradable instrument list.
type Instrument struct {
	Symbol   string   `yaml:"symbol"`
	Keywords []string `yaml:"keywords"`
}

// AssetMatcher infers the primary instrument an article is about, by keyword
// scoring over title and description. Best effort: a miss returns nil and
// never blocks inclusion.
type AssetMatcher struct {
	instruments []Instrument
}

func NewAssetMatcher(instruments []Instrument) *AssetMatcher {
	if len(instruments) == 0 {
		instruments = DefaultInstruments()
	}
	return &AssetMatcher{instruments: instruments}
}

// Match scores each instrument's keywords against the article text. Title
// hits weigh double. Confidence saturates at 1.0.
func (m *AssetMatcher) Match(title, description string) *domain.AssetMatch {
	titleLower := strings.ToLower(title)
	descLower := strings.ToLower(description)

	bestSymbol := ""
	bestScore := 0

	for _, inst := range m.instruments {
		score := 0
		for _, kw := range inst.Keywords {
			if containsWord(titleLower, kw) {
				score += 2
			}
			if containsWord(descLower, kw) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			bestSymbol = inst.Symbol
		}
	}

	if bestScore == 0 {
		return nil
	}

	confidence := float64(bestScore) / 6.0
	if confidence > 1.0 {
		confidence = 1.0
	}

	return &domain.AssetMatch{
		Symbol:     bestSymbol,
		Confidence: roundDecimal(confidence, 2),
	}
}

// containsWord matches kw on token boundaries so "sol" does not fire on
// "solution". Multi-word keywords fall back to substring matching.
func containsWord(text, kw string) bool {
	if kw == "" {
		return false
	}
	if strings.Contains(kw, " ") {
		return strings.Contains(text, kw)
	}
	for _, token := range strings.FieldsFunc(text, func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	}) {
		if token == kw {
			return true
		}
	}
	return false
}

func roundDecimal(value float64, decimals int) float64 {
	pow := 1.0
	for i := 0; i < decimals; i++ {
		pow *= 10
	}
	return float64(int(value*pow+0.5)) / pow
}

// DefaultInstruments is the built-in instrument list, overridable via the
// ASSETS_CONFIG YAML file.
func DefaultInstruments() []Instrument {
	return []Instrument{
		{Symbol: "BTC", Keywords: []string{"bitcoin", "btc", "satoshi", "bitcoin etf"}},
		{Symbol: "ETH", Keywords: []string{"ethereum", "eth", "ether", "vitalik", "ethereum etf"}},
		{Symbol: "SOL", Keywords: []string{"solana", "sol"}},
		{Symbol: "XRP", Keywords: []string{"xrp", "ripple"}},
		{Symbol: "DOGE", Keywords: []string{"dogecoin", "doge"}},
		{Symbol: "ADA", Keywords: []string{"cardano", "ada"}},
		{Symbol: "AVAX", Keywords: []string{"avalanche", "avax"}},
		{Symbol: "LINK", Keywords: []string{"chainlink", "link oracle"}},
		{Symbol: "BNB", Keywords: []string{"bnb", "binance coin"}},
		{Symbol: "ARB", Keywords: []string{"arbitrum", "arb"}},
		{Symbol: "OP", Keywords: []string{"optimism", "op mainnet"}},
	}
}

// Symbols lists known symbols in canonical order, for category validation.
func (m *AssetMatcher) Symbols() []string {
	symbols := make([]string, 0, len(m.instruments))
	for _, inst := range m.instruments {
		symbols = append(symbols, inst.Symbol)
	}
	sort.Strings(symbols)
	return symbols
}

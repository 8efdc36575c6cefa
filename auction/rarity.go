package auction

// Rarity pairs the tier symbol shown in captions with its human name.
type Rarity struct {
	Symbol string
	Name   string
}

// Rarities lists the supported tiers in display order.
var Rarities = []Rarity{
	{Symbol: "🔵", Name: "Common"},
	{Symbol: "🔴", Name: "Medium"},
	{Symbol: "🟠", Name: "Rare"},
	{Symbol: "🟡", Name: "Legendary"},
	{Symbol: "💮", Name: "Exclusive"},
	{Symbol: "🔮", Name: "Limited"},
	{Symbol: "🎐", Name: "Celestial"},
}

// RarityName resolves a tier symbol to its human name.
func RarityName(symbol string) (string, bool) {
	for _, r := range Rarities {
		if r.Symbol == symbol {
			return r.Name, true
		}
	}
	return "", false
}

// ValidRarity reports whether the symbol names a known tier.
func ValidRarity(symbol string) bool {
	_, ok := RarityName(symbol)
	return ok
}

package settings

// defaultSnapshot is the seed configuration written on first run and used
// whenever the settings file cannot be read.
func defaultSnapshot() *Snapshot {
	rarities := []Rarity{
		{Key: "common", Name: "Common", Color: "#c4aaff", Weight: 48.0},
		{Key: "rare", Name: "Rare", Color: "#9f7aea", Weight: 28.0},
		{Key: "epic", Name: "Epic", Color: "#7c3aed", Weight: 15.0},
		{Key: "legendary", Name: "Legendary", Color: "#b794f4", Weight: 6.5},
		{Key: "godlike", Name: "Godlike", Color: "#a78bdb", Weight: 2.0},
		{Key: "impossible", Name: "Impossible", Color: "#7c3aed", Weight: 0.5},
	}
	items := []Item{
		{Name: "P250 | Crimson Kimono", Rarity: "common"},
		{Name: "Glock-18 | Candy Apple", Rarity: "common"},
		{Name: "USP-S | Torque", Rarity: "rare"},
		{Name: "M4A4 | Neo-Noir", Rarity: "rare"},
		{Name: "AK-47 | Redline", Rarity: "rare"},
		{Name: "Desert Eagle | Printstream", Rarity: "epic"},
		{Name: "AWP | Asiimov", Rarity: "epic"},
		{Name: "Karambit | Doppler", Rarity: "legendary"},
		{Name: "Butterfly Knife | Fade", Rarity: "legendary"},
		{Name: "AWP | Dragon Lore", Rarity: "legendary"},
		{Name: "Karambit | Gamma Doppler", Rarity: "godlike"},
		{Name: "Skeleton Knife | Fade", Rarity: "godlike"},
		{Name: "Butterfly Knife | Crimson Web", Rarity: "impossible"},
		{Name: "Bayonet | Sapphire", Rarity: "impossible"},
	}
	return build("", "", rarities, items)
}

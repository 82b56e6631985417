package book

// Default is a small built-in repertoire of well-known main lines, enough to
// take the engine out of the opening with sane moves when no book file is
// configured. It is the only repertoire cmd/chessd-engine loads.
var Default = []Line{
	{"e2e4", "e7e5", "g1f3", "b8c6", "f1b5"},                 // Ruy Lopez
	{"e2e4", "e7e5", "g1f3", "b8c6", "f1c4"},                 // Italian Game
	{"e2e4", "c7c5", "g1f3", "d7d6", "d2d4", "c5d4", "f3d4"}, // Sicilian Najdorf setup
	{"e2e4", "e7e6", "d2d4", "d7d5"},                         // French Defense
	{"e2e4", "c7c6", "d2d4", "d7d5"},                         // Caro-Kann
	{"d2d4", "d7d5", "c2c4", "e7e6"},                         // Queen's Gambit Declined
	{"d2d4", "g8f6", "c2c4", "g7g6", "b1c3", "f8g7"},         // King's Indian setup
	{"d2d4", "g8f6", "c2c4", "e7e6", "b1c3", "f8b4"},         // Nimzo-Indian
	{"g1f3", "d7d5", "c2c4"},                                 // Reti Opening
	{"c2c4", "e7e5", "b1c3", "g8f6"},                         // English Opening
}

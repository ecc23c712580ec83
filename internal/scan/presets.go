package scan

// Presets are the curated scans shipped with the engine. They are ensured at
// startup: new ones inserted, changed descriptions and rules rewritten,
// retired ones removed.
var Presets = []Scan{
	{
		Name:        "Banger Stud",
		Description: "Shots, hits, and blocks over the last 20 games",
		IsPreset:    true,
		Rules: []Rule{
			{Stat: "shots", Comparator: CmpGT, Value: 2, Window: "L20"},
			{Stat: "hits", Comparator: CmpGT, Value: 2, Window: "L20"},
			{Stat: "blocks", Comparator: CmpGT, Value: 2, Window: "L20"},
		},
	},
	{
		Name:        "Buy Low Shooters",
		Description: "High shot volume with low shooting percentage",
		IsPreset:    true,
		Rules: []Rule{
			{Stat: "shots", Comparator: CmpGT, Value: 3, Window: "L10"},
			{Stat: "shooting_percentage", Comparator: CmpLT, Value: 0.08, Window: "L10"},
		},
	},
	{
		Name:        "Sell High Shooters",
		Description: "Low shot volume with high shooting percentage",
		IsPreset:    true,
		Rules: []Rule{
			{Stat: "shots", Comparator: CmpLT, Value: 2.5, Window: "L10"},
			{Stat: "shooting_percentage", Comparator: CmpGT, Value: 0.20, Window: "L10"},
		},
	},
	{
		Name:        "Deployment Bump",
		Description: "TOI up 1.5+ minutes over L5 vs Season",
		IsPreset:    true,
		Rules: []Rule{
			{Stat: "time_on_ice_delta", Comparator: CmpGE, Value: 1.5, Window: "L5", CompareWindow: "Season"},
		},
	},
	{
		Name:        "Volume Starters",
		Description: "Goalies starting 4+ of their last 5 games",
		IsPreset:    true,
		Rules: []Rule{
			{Stat: "goalie_starts", Comparator: CmpGE, Value: 4, Window: "L5"},
		},
	},
	{
		Name:        "High Volume Saves",
		Description: "Goalies averaging 28+ saves over L10",
		IsPreset:    true,
		Rules: []Rule{
			{Stat: "saves_per_game", Comparator: CmpGT, Value: 28, Window: "L10"},
		},
	},
	{
		Name:           "Power Play QB",
		Description:    "Defensemen with strong power play production",
		PositionFilter: "D",
		IsPreset:       true,
		Rules: []Rule{
			{Stat: "power_play_points", Comparator: CmpGE, Value: 0.3, Window: "L10"},
		},
	},
	{
		Name:        "Hot Goalies",
		Description: "Goalies starting 2+ games with elite save percentage",
		IsPreset:    true,
		Rules: []Rule{
			{Stat: "goalie_starts", Comparator: CmpGE, Value: 2, Window: "L5"},
			{Stat: "save_percentage", Comparator: CmpGE, Value: 0.920, Window: "L5"},
		},
	},
	{
		Name:        "B2B Spot Start",
		Description: "Goalies with L5 SV% > .910, under half of L10 starts, and a back-to-back coming up",
		IsPreset:    true,
		Rules: []Rule{
			{Stat: "b2b_start_opportunity", Comparator: CmpGE, Value: 1, Window: "L5"},
		},
	},
}

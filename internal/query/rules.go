package query

// Rule maps title keywords to search queries. Category is optional; when it
// is set, the rule wins ties against rules for other categories for entries
// in that category.
type Rule struct {
	Category string
	Keywords []string
	Queries  []string
}

// DefaultRules returns the built-in keyword table. Callers receive a fresh
// copy and may extend or replace it.
func DefaultRules() []Rule {
	return []Rule{
		{Category: "Crime", Keywords: []string{"trial", "court", "judge", "verdict", "jury", "lawsuit", "supreme court"}, Queries: []string{"courtroom empty wooden benches", "judge gavel courthouse"}},
		{Category: "Crime", Keywords: []string{"arrest", "police", "indicted", "charged", "prison"}, Queries: []string{"police car lights night", "prison bars corridor"}},
		{Category: "Politics", Keywords: []string{"election", "president", "senate", "congress", "vote", "trump", "biden", "parliament", "prime minister"}, Queries: []string{"capitol building dome", "voting ballot box"}},
		{Category: "Politics", Keywords: []string{"immigration", "border", "deport"}, Queries: []string{"border fence landscape", "customs checkpoint"}},
		{Category: "Economics", Keywords: []string{"fed", "inflation", "interest rate", "recession", "gdp", "unemployment"}, Queries: []string{"federal reserve building", "wall street stock exchange"}},
		{Category: "Economics", Keywords: []string{"stock", "s&p", "nasdaq", "dow", "market cap"}, Queries: []string{"wall street stock exchange", "stock market ticker screen"}},
		{Category: "Economics", Keywords: []string{"tariff", "trade", "shipping", "exports"}, Queries: []string{"cargo shipping containers port"}},
		{Category: "Crypto", Keywords: []string{"bitcoin", "btc", "ethereum", "eth", "crypto", "solana", "blockchain", "etf"}, Queries: []string{"bitcoin coin closeup", "cryptocurrency trading screen"}},
		{Category: "Technology", Keywords: []string{"openai", "chatgpt", "artificial intelligence", "gpt", "llm"}, Queries: []string{"artificial intelligence robot", "neural network abstract"}},
		{Category: "Technology", Keywords: []string{"apple", "iphone", "google", "microsoft", "nvidia", "chip", "semiconductor"}, Queries: []string{"computer chip circuit board", "smartphone on desk"}},
		{Category: "Technology", Keywords: []string{"spacex", "rocket", "launch", "mars", "nasa"}, Queries: []string{"rocket launch night sky"}},
		{Category: "Sports", Keywords: []string{"nba", "basketball", "lakers", "celtics"}, Queries: []string{"basketball hoop arena", "basketball court"}},
		{Category: "Sports", Keywords: []string{"nhl", "hockey", "stanley cup"}, Queries: []string{"hockey ice", "hockey puck stick"}},
		{Category: "Sports", Keywords: []string{"nfl", "super bowl", "quarterback", "touchdown"}, Queries: []string{"american football stadium", "football field lights"}},
		{Category: "Sports", Keywords: []string{"soccer", "premier league", "world cup", "fifa", "champions league"}, Queries: []string{"soccer ball stadium", "soccer goal net"}},
		{Category: "Sports", Keywords: []string{"tennis", "wimbledon", "djokovic", "grand slam"}, Queries: []string{"tennis court clay", "tennis ball racket"}},
		{Category: "Entertainment", Keywords: []string{"oscar", "movie", "film", "box office", "netflix", "barbie"}, Queries: []string{"cinema theater seats", "film reel camera"}},
		{Category: "Entertainment", Keywords: []string{"album", "grammy", "concert", "tour", "taylor swift", "billboard"}, Queries: []string{"concert crowd stage lights", "microphone on stage"}},
		{Category: "Entertainment", Keywords: []string{"game", "gaming", "nintendo", "playstation", "xbox"}, Queries: []string{"video game controller"}},
		{Category: "Culture", Keywords: []string{"pope", "church", "religion", "vatican"}, Queries: []string{"cathedral interior light"}},
		{Category: "Culture", Keywords: []string{"fashion", "museum", "art", "festival"}, Queries: []string{"art gallery interior", "festival crowd colorful"}},
		{Category: "World", Keywords: []string{"war", "ceasefire", "military", "israel", "iran", "ukraine", "russia", "china", "taiwan"}, Queries: []string{"world map globe", "diplomatic flags row"}},
		{Category: "World", Keywords: []string{"treaty", "united nations", "summit", "nato"}, Queries: []string{"united nations assembly hall"}},
		{Category: "Weather", Keywords: []string{"hurricane", "storm", "temperature", "heat", "snow", "climate"}, Queries: []string{"storm clouds dramatic sky", "hurricane satellite view"}},
	}
}

// DefaultCategoryQueries returns the last-resort query per category key.
func DefaultCategoryQueries() map[string]string {
	return map[string]string{
		"crime":         "courthouse exterior columns",
		"politics":      "government building flag",
		"economics":     "city financial district skyline",
		"crypto":        "cryptocurrency coins",
		"technology":    "technology abstract circuit",
		"sports":        "stadium crowd",
		"entertainment": "stage spotlight",
		"culture":       "city street culture",
		"world":         "world map globe",
		"weather":       "dramatic sky landscape",
	}
}

// Package lexicon provides the curated default keyword lists used by the
// classification pipeline when no user rule matches.
package lexicon

import "strings"

// Entry maps a root category label to its curated merchant and keyword list.
// The first canonicalCount keywords are the category's canonical merchants; a
// hit on one of those earns the boosted confidence.
type Entry struct {
	Category string
	Keywords []string
}

// Number of leading keywords treated as canonical merchants per entry.
const canonicalCount = 5

// Confidence bands for lexicon matches.
const (
	// MatchConfidence is returned for an ordinary keyword hit.
	MatchConfidence = 0.8
	// CanonicalConfidence is returned when a canonical merchant appears in
	// the description.
	CanonicalConfidence = 0.85
)

// Default returns the default lexicon entries in scan order. Keywords are
// uppercase; callers match against an uppercased description.
func Default() []Entry {
	return []Entry{
		{
			Category: "Dining Out",
			Keywords: []string{
				"STARBUCKS", "MCDONALDS", "TIM HORTONS", "WENDYS", "BURGER KING",
				"PIZZA HUT", "SUBWAY", "KFC", "POPEYES", "PANERA", "A&W",
				"HARVEY", "SWISS CHALET", "BOSTON PIZZA", "KELSEY", "MONTANA",
				"RESTAURANT", "CAFE", "COFFEE", "BISTRO", "GRILL", "PUB",
				"DOORDASH", "UBER EATS", "SKIP THE DISHES", "FOODORA", "GRUBHUB",
				"BANGKOK", "THAI", "CHINESE", "INDIAN", "MEXICAN", "ITALIAN",
			},
		},
		{
			Category: "Groceries",
			Keywords: []string{
				"WALMART", "COSTCO", "SUPERSTORE", "SOBEYS", "LOBLAWS",
				"METRO", "FOOD BASICS", "NO FRILLS", "FRESHCO", "FARM BOY",
				"INDEPENDENT", "VALUMART", "ZEHRS", "FORTINOS", "DOMINION",
			},
		},
		{
			Category: "Gas & Fuel",
			Keywords: []string{
				"PETRO", "SHELL", "ESSO", "MOBIL", "CANADIAN TIRE GAS",
				"ULTRAMAR", "HUSKY", "PIONEER", "CHEVRON", "SUNOCO",
				"GAS STATION", "FUEL", "PETROLEUM",
			},
		},
		{
			Category: "Transportation",
			Keywords: []string{
				"TTC", "UBER", "LYFT", "VIA RAIL", "GO TRANSIT", "OC TRANSPO",
				"TAXI", "CAB", "TRANSIT", "BUS", "TRAIN", "PARKING",
				"PRESTO", "FARE", "METRO", "SUBWAY",
			},
		},
		{
			Category: "Shopping",
			Keywords: []string{
				"AMAZON", "CANADIAN TIRE", "HOME DEPOT", "LOWES", "IKEA",
				"BEST BUY", "STAPLES", "WALMART", "TARGET", "DOLLARAMA",
				"WINNERS", "MARSHALLS", "HUDSON BAY",
			},
		},
		{
			Category: "Convenience",
			Keywords: []string{
				"7-ELEVEN", "CIRCLE K", "MAC", "COUGAR", "QUICK MART",
				"CONVENIENCE", "CORNER STORE", "GAS STATION", "FUEL",
				"SNACK", "DRINK", "CIGARETTE", "TOBACCO", "LOTTERY",
			},
		},
		{
			Category: "Utilities",
			Keywords: []string{
				"HYDRO", "BELL", "ROGERS", "TELUS", "FIDO", "VIRGIN MOBILE",
				"SHAW", "COGECO", "VIDEOTRON", "ENBRIDGE", "UNION GAS",
				"ELECTRIC", "WATER", "INTERNET", "PHONE", "CABLE",
			},
		},
		{
			Category: "Banking & Fees",
			Keywords: []string{
				"BANK FEE", "SERVICE CHARGE", "OVERDRAFT", "ATM FEE",
				"MONTHLY FEE", "ANNUAL FEE", "INTEREST CHARGE",
			},
		},
		{
			Category: "Healthcare",
			Keywords: []string{
				"PHARMACY", "SHOPPERS", "REXALL", "MEDICAL", "DENTAL",
				"CLINIC", "HOSPITAL", "DOCTOR", "PHYSIOTHERAPY",
			},
		},
		{
			Category: "Entertainment",
			Keywords: []string{
				"NETFLIX", "SPOTIFY", "AMAZON PRIME", "DISNEY", "APPLE MUSIC",
				"CINEPLEX", "LANDMARK", "MOVIE", "THEATRE", "CONCERT",
				"STUBHUB", "TICKETMASTER", "LEGENDS MUSIC", "MUSIC",
			},
		},
		{
			Category: "Events",
			Keywords: []string{
				"TICKETMASTER", "STUBHUB", "EVENTBRITE", "CONCERT", "FESTIVAL",
				"CONFERENCE", "EXPO", "SHOW", "PERFORMANCE", "THEATRE",
				"SPORTS EVENT", "GAME", "MATCH", "TOURNAMENT", "EVENT",
			},
		},
		{
			Category: "Nightlife",
			Keywords: []string{
				"BAR", "CLUB", "NIGHTCLUB", "LOUNGE", "PUB", "TAVERN",
				"COCKTAIL", "DANCE", "NIGHTLIFE", "DRINK", "ALCOHOL",
				"WINE", "BEER", "SPIRITS", "NIGHT OUT",
			},
		},
		{
			Category: "Subscriptions",
			Keywords: []string{
				"APPLE.COM", "APPLE MUSIC", "APPLE TV", "APPLE STORE",
				"GOOGLE", "MICROSOFT", "ADOBE", "SUBSCRIPTION",
			},
		},
		{
			Category: "Alcohol",
			Keywords: []string{
				"LCBO", "BEER STORE", "SAQ", "BC LIQUOR", "ALBERTA LIQUOR",
				"WINE", "BEER", "SPIRITS", "LIQUOR", "ALCOHOL", "VODKA",
				"WHISKEY", "RUM", "GIN", "TEQUILA", "CHAMPAGNE", "COCKTAIL",
				"BAR", "PUB", "TAVERN", "BREWERY", "WINERY", "DISTILLERY",
			},
		},
		{
			Category: "Cannabis",
			Keywords: []string{
				"OCS", "CANNABIS", "MARIJUANA", "WEED", "POT", "DISPENSARY",
				"CANNABIS STORE", "CANNABIS RETAIL", "CANNABIS CO",
				"CANNABIS CORP", "CANNABIS INC", "CANNABIS LTD",
				"CANNABIS SHOP", "CANNABIS OUTLET", "CANNABIS MARKET",
				"CANNABIS SUPPLY", "CANNABIS EXPRESS", "CANNABIS CLUB",
				"CANNABIS CAFE", "CANNABIS LOUNGE",
			},
		},
		{
			Category: "Vaping",
			Keywords: []string{
				"VAPE", "VAPING", "E-CIGARETTE", "E-CIG", "VAPOR", "VAPORIZER",
				"VAPE SHOP", "VAPE STORE", "VAPE OUTLET", "VAPE SUPPLY",
				"VAPE EXPRESS", "VAPE MARKET", "VAPE CORNER", "VAPE LOUNGE",
				"VAPE CAFE", "VAPE BAR", "VAPE CLUB", "VAPE WORLD",
			},
		},
	}
}

// SubcategoryFor resolves a root category label to the conventional
// subcategory name the pipeline assigns for it. Most labels map to
// themselves; a few general roots default to a specific subcategory.
func SubcategoryFor(category string) string {
	switch category {
	case "Transportation":
		return "Public Transit"
	case "Shopping":
		return "Online Shopping"
	case "Utilities":
		return "Miscellaneous"
	case "Healthcare":
		return "Personal Care"
	case "Entertainment":
		return "Subscriptions"
	default:
		return category
	}
}

// IsCanonical reports whether any of the entry's canonical merchants appears
// in the uppercased description.
func (e Entry) IsCanonical(description string) bool {
	limit := canonicalCount
	if limit > len(e.Keywords) {
		limit = len(e.Keywords)
	}
	for _, keyword := range e.Keywords[:limit] {
		if strings.Contains(description, keyword) {
			return true
		}
	}
	return false
}

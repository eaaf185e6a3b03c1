package classify

import (
	"regexp"
	"strings"
)

// usHints are substrings that immediately mark a location as U.S.-based.
var usHints = []string{
	"united states",
	"u.s.",
	"u.s.a",
	"usa",
	"us-based",
	"us only",
	"remote - us",
	"remote, us",
	"remote within the us",
	"remote in the us",
}

// nonUSRemoteHints disqualify an otherwise-remote location from counting as US.
var nonUSRemoteHints = []string{
	"canada", "emea", "europe", "apac", "asia", "uk", "ireland",
	"australia", "new zealand", "latam", "global", "worldwide",
}

var stateAbbreviations = map[string]bool{
	"AL": true, "AK": true, "AZ": true, "AR": true, "CA": true, "CO": true,
	"CT": true, "DE": true, "FL": true, "GA": true, "HI": true, "ID": true,
	"IL": true, "IN": true, "IA": true, "KS": true, "KY": true, "LA": true,
	"ME": true, "MD": true, "MA": true, "MI": true, "MN": true, "MS": true,
	"MO": true, "MT": true, "NE": true, "NV": true, "NH": true, "NJ": true,
	"NM": true, "NY": true, "NC": true, "ND": true, "OH": true, "OK": true,
	"OR": true, "PA": true, "RI": true, "SC": true, "SD": true, "TN": true,
	"TX": true, "UT": true, "VT": true, "VA": true, "WA": true, "WV": true,
	"WI": true, "WY": true, "DC": true,
}

var stateNames = map[string]bool{
	"alabama": true, "alaska": true, "arizona": true, "arkansas": true,
	"california": true, "colorado": true, "connecticut": true, "delaware": true,
	"florida": true, "georgia": true, "hawaii": true, "idaho": true,
	"illinois": true, "indiana": true, "iowa": true, "kansas": true,
	"kentucky": true, "louisiana": true, "maine": true, "maryland": true,
	"massachusetts": true, "michigan": true, "minnesota": true,
	"mississippi": true, "missouri": true, "montana": true, "nebraska": true,
	"nevada": true, "new hampshire": true, "new jersey": true,
	"new mexico": true, "new york": true, "north carolina": true,
	"north dakota": true, "ohio": true, "oklahoma": true, "oregon": true,
	"pennsylvania": true, "rhode island": true, "south carolina": true,
	"south dakota": true, "tennessee": true, "texas": true, "utah": true,
	"vermont": true, "virginia": true, "washington": true,
	"west virginia": true, "wisconsin": true, "wyoming": true,
	"district of columbia": true,
}

var (
	locationTokenSplit = regexp.MustCompile(`[/;|]`)
	parenthetical      = regexp.MustCompile(`\([^)]*\)`)
)

// IsUS reports whether the free-text location resolves to the United States.
// A missing or ambiguous location fails closed.
func IsUS(location string) bool {
	if location == "" {
		return false
	}
	normalized := strings.ToLower(location)

	for _, hint := range usHints {
		if strings.Contains(normalized, hint) {
			return true
		}
	}

	// Bare "remote" counts as US unless a non-US region is named alongside.
	if strings.Contains(normalized, "remote") {
		nonUS := false
		for _, hint := range nonUSRemoteHints {
			if strings.Contains(normalized, hint) {
				nonUS = true
				break
			}
		}
		if !nonUS {
			return true
		}
	}

	// Multi-location strings like "Austin, TX / London, UK": any token whose
	// trailing comma parts name a state qualifies.
	for _, token := range locationTokenSplit.Split(location, -1) {
		parts := strings.Split(token, ",")
		for i := len(parts) - 1; i >= 0; i-- {
			candidate := strings.TrimSpace(parenthetical.ReplaceAllString(parts[i], ""))
			if candidate == "" {
				continue
			}
			if stateNames[strings.ToLower(candidate)] {
				return true
			}
			if stateAbbreviations[strings.ToUpper(candidate)] {
				return true
			}
		}
	}

	return false
}

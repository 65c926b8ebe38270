package docs

// BlackList names the generic providers that are not listed per country
var BlackList = map[string]struct{}{
	"ics":     {},
	"static":  {},
	"example": {},
}

// CountryCodes maps the country code of a provider to its country name
var CountryCodes = map[string]string{
	"au":      "Australia",
	"at":      "Austria",
	"be":      "Belgium",
	"ca":      "Canada",
	"de":      "Germany",
	"hamburg": "Germany",
	"lt":      "Lithuania",
	"nl":      "Netherlands",
	"nz":      "New Zealand",
	"no":      "Norway",
	"pl":      "Poland",
	"se":      "Sweden",
	"ch":      "Switzerland",
	"us":      "United States of America",
	"uk":      "United Kingdom",
}

// Classify groups the infos by country name. Infos with an unknown country
// code are returned as zombies.
func Classify(infos []Info) (map[string][]Info, []Info) {
	countries := make(map[string][]Info)
	var zombies []Info
	for _, info := range infos {
		if _, skip := BlackList[info.Filename]; skip {
			continue
		}
		name, ok := CountryCodes[info.Country]
		if !ok {
			zombies = append(zombies, info)
			continue
		}
		countries[name] = append(countries[name], info)
	}
	return countries, zombies
}

package medication

import (
	"strings"
)

// Class is a recognised cardiovascular drug class.
type Class string

const (
	Statin                Class = "statin"
	BetaBlocker           Class = "beta_blocker"
	ACEInhibitor          Class = "ace_inhibitor"
	Aspirin               Class = "aspirin"
	Diuretic              Class = "diuretic"
	CalciumChannelBlocker Class = "calcium_channel_blocker"
)

// Classes lists every class in declaration order. Ties in the combiner are
// broken by this order.
var Classes = []Class{Statin, BetaBlocker, ACEInhibitor, Aspirin, Diuretic, CalciumChannelBlocker}

var (
	statinTerms      = []string{"statin", "atorvastatin", "rosuvastatin", "simvastatin", "pravastatin", "lovastatin", "fluvastatin", "pitavastatin", "lipitor", "crestor", "zocor"}
	betaBlockerTerms = []string{"metoprolol", "atenolol", "bisoprolol", "carvedilol", "propranolol", "nebivolol", "labetalol", "betablocker", "beta-blocker"}
	aceTerms         = []string{"lisinopril", "enalapril", "ramipril", "captopril", "perindopril", "benazepril", "quinapril", "fosinopril"}
	aspirinTerms     = []string{"aspirin", "asa", "acetylsalicylic", "ecotrin", "bayer"}
	diureticTerms    = []string{"diuretic", "hydrochlorothiazide", "hctz", "chlorthalidone", "indapamide", "furosemide", "lasix", "torsemide", "bumetanide", "spironolactone", "eplerenone"}
	ccbTerms         = []string{"amlodipine", "nifedipine", "felodipine", "diltiazem", "verapamil", "norvasc"}

	classTerms = map[Class][]string{
		Statin:                statinTerms,
		BetaBlocker:           betaBlockerTerms,
		ACEInhibitor:          aceTerms,
		Aspirin:               aspirinTerms,
		Diuretic:              diureticTerms,
		CalciumChannelBlocker: ccbTerms,
	}
	classSuffixes = map[Class][]string{
		Statin:                {"statin"},
		BetaBlocker:           {"olol", "ilol"},
		ACEInhibitor:          {"pril"},
		CalciumChannelBlocker: {"dipine"},
	}
	// classPhrases are matched against a whole entry with its words joined by
	// single spaces.
	classPhrases = map[Class][]string{
		BetaBlocker:           {"beta blocker", "beta blockers"},
		ACEInhibitor:          {"ace inhibitor", "ace inhibitors"},
		Diuretic:              {"water pill", "water pills"},
		CalciumChannelBlocker: {"calcium channel blocker", "calcium channel blockers", "calcium blocker", "calcium blockers"},
	}
	// notDrugs end in a class suffix but belong to no class.
	notDrugs = map[string]bool{
		"nystatin":     true,
		"cilastatin":   true,
		"pentostatin":  true,
		"somatostatin": true,
		"ecostatin":    true,
	}
)

// minStem is the shortest prefix a suffix match needs in front of the suffix.
const minStem = 3

// Profile is the set of drug classes found in a free-text medication list.
type Profile struct {
	Statin                bool `json:"statin"`
	BetaBlocker           bool `json:"betaBlocker"`
	ACEInhibitor          bool `json:"aceInhibitor"`
	Aspirin               bool `json:"aspirin"`
	Diuretic              bool `json:"diuretic"`
	CalciumChannelBlocker bool `json:"calciumChannelBlocker"`
	// Matched holds the recognised words per class, lower-cased.
	Matched map[Class][]string `json:"matched,omitempty"`
	// Residue holds list entries that matched no class.
	Residue []string `json:"residue,omitempty"`
}

// Has reports whether the class is active.
func (p Profile) Has(c Class) bool {
	switch c {
	case Statin:
		return p.Statin
	case BetaBlocker:
		return p.BetaBlocker
	case ACEInhibitor:
		return p.ACEInhibitor
	case Aspirin:
		return p.Aspirin
	case Diuretic:
		return p.Diuretic
	case CalciumChannelBlocker:
		return p.CalciumChannelBlocker
	}
	return false
}

// Active returns the active classes in declaration order.
func (p Profile) Active() []Class {
	var active []Class
	for _, c := range Classes {
		if p.Has(c) {
			active = append(active, c)
		}
	}
	return active
}

// Any reports whether at least one class is active.
func (p Profile) Any() bool {
	return len(p.Active()) > 0
}

// Uses reports whether any of the given drug names was matched for the class.
func (p Profile) Uses(c Class, names ...string) bool {
	for _, m := range p.Matched[c] {
		for _, n := range names {
			if m == n {
				return true
			}
		}
	}
	return false
}

func (p *Profile) set(c Class) {
	switch c {
	case Statin:
		p.Statin = true
	case BetaBlocker:
		p.BetaBlocker = true
	case ACEInhibitor:
		p.ACEInhibitor = true
	case Aspirin:
		p.Aspirin = true
	case Diuretic:
		p.Diuretic = true
	case CalciumChannelBlocker:
		p.CalciumChannelBlocker = true
	}
}

// Parse splits a free-text medication list on commas, semicolons, slashes,
// plus signs, newlines and the word "and". Each entry is matched as a whole
// against the class phrases, then word by word against the keyword tables and
// suffixes.
func Parse(text string) Profile {
	p := Profile{Matched: map[Class][]string{}}
	for _, item := range splitItems(text) {
		words := strings.FieldsFunc(strings.ToLower(item), isWordBreak)
		joined := " " + strings.Join(words, " ") + " "
		matched := false
		for _, c := range Classes {
			for _, phrase := range classPhrases[c] {
				if strings.Contains(joined, " "+phrase+" ") {
					p.set(c)
					p.Matched[c] = appendUnique(p.Matched[c], phrase)
					matched = true
				}
			}
		}
		for _, word := range words {
			for _, c := range Classes {
				if matchesClass(c, word) {
					p.set(c)
					p.Matched[c] = appendUnique(p.Matched[c], word)
					matched = true
				}
			}
		}
		if !matched {
			p.Residue = append(p.Residue, item)
		}
	}
	return p
}

func splitItems(text string) []string {
	text = strings.NewReplacer(" and ", ",", " AND ", ",", " And ", ",").Replace(text)
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ';' || r == '/' || r == '+' || r == '\n' || r == '\r'
	})
	items := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			items = append(items, f)
		}
	}
	return items
}

func isWordBreak(r rune) bool {
	return !(r >= 'a' && r <= 'z') && r != '-'
}

func matchesClass(c Class, word string) bool {
	for _, t := range classTerms[c] {
		if word == t {
			return true
		}
	}
	if notDrugs[word] {
		return false
	}
	for _, s := range classSuffixes[c] {
		if len(word) >= len(s)+minStem && strings.HasSuffix(word, s) {
			return true
		}
	}
	return false
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}

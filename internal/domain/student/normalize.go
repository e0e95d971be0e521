package student

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Field aliases in priority order. Matching is exact first, then
// case-insensitive and accent-tolerant.
var (
	aliasIndex     = []string{"index", "Index", "idx"}
	aliasLastName  = []string{"nom", "Nom", "NOM", "nom de famille", "lastname", "last_name", "surname"}
	aliasFirstName = []string{"prenom", "prénom", "Prenom", "Prénom", "PRENOM", "firstname", "first_name"}
	aliasGender    = []string{"sexe", "Sexe", "SEXE", "gender", "Genre"}
	aliasClass     = []string{"classe", "Classe", "CLASS", "class", "groupe"}
	aliasNotes     = []string{"notes", "Notes", "Remarques", "Commentaire"}
	aliasBehavior  = []string{"comportement", "Comportement", "behavior", "behaviour"}
	aliasDetails   = []string{"comportement_details", "Comportement details", "behavior_details"}
	aliasComment   = []string{"comportement_commentaire", "Comportement commentaire", "behavior_comment"}
	aliasDate      = []string{"date", "Date", "DATE"}
	aliasSkills    = [6][]string{
		{"ecriture", "Écriture", "Ecriture", "ECRITURE", "writing"},
		{"lecture", "Lecture", "LECTURE", "reading"},
		{"vocabulaire", "Vocabulaire", "VOCABULAIRE", "vocabulary"},
		{"grammaire", "Grammaire", "GRAMMAIRE", "grammar"},
		{"conjugaison", "Conjugaison", "CONJUGAISON", "conjugation"},
		{"orthographe", "Orthographe", "ORTHOGRAPHE", "spelling"},
	}
)

// Normalize maps a loosely-keyed row into a canonical Record.
// position is used as Index when the row carries no index of its own.
// PRE: none; row may be nil or malformed
// POST: every score lies in [0,MaxScore]; Gender is H or F; Date is non-empty
// INVARIANT: never fails; unknown or malformed values degrade to defaults
func Normalize(row map[string]any, position int) Record {
	l := newLookup(row)

	rec := Record{
		Index:     position,
		LastName:  strings.TrimSpace(asString(l.find(aliasLastName))),
		FirstName: strings.TrimSpace(asString(l.find(aliasFirstName))),
		Gender:    NormalizeGender(asString(l.find(aliasGender))),
		ClassName: strings.TrimSpace(asString(l.find(aliasClass))),
		Notes:     asString(l.find(aliasNotes)),
		Date:      strings.TrimSpace(asString(l.find(aliasDate))),
	}
	if v, ok := l.lookup(aliasIndex); ok {
		if n, ok := parseNumber(v); ok && n >= 0 {
			rec.Index = int(n)
		}
	}
	for i, aliases := range aliasSkills {
		rec.Scores[i] = ClampValue(l.find(aliases))
	}
	rec.Behavior = Behavior{
		Score:   behaviorScore(l.find(aliasBehavior)),
		Details: asString(l.find(aliasDetails)),
		Comment: asString(l.find(aliasComment)),
	}
	if rec.Date == "" {
		rec.Date = Today()
	}
	return rec
}

// ClampValue coerces an arbitrary input to an int score in [0,MaxScore].
// Non-numeric input counts as 0.
func ClampValue(v any) int {
	n, ok := parseNumber(v)
	if !ok || n < 0 {
		return 0
	}
	if n > MaxScore {
		return MaxScore
	}
	return int(n)
}

// NormalizeGender maps any input onto H or F; only an F prefix selects F.
func NormalizeGender(s string) string {
	if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(s)), GenderFemale) {
		return GenderFemale
	}
	return GenderMale
}

// ParseBehaviorScore interprets a raw behavior value; empty means unset.
func ParseBehaviorScore(raw string) BehaviorScore {
	return behaviorScore(raw)
}

func behaviorScore(v any) BehaviorScore {
	if v == nil {
		return UnsetBehavior
	}
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return UnsetBehavior
	}
	return NewBehaviorScore(ClampValue(v))
}

// lookup resolves alias lists against one row.
type lookup struct {
	row    map[string]any
	folded map[string]string
}

func newLookup(row map[string]any) lookup {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	folded := make(map[string]string, len(keys))
	for _, k := range keys {
		f := FoldKey(k)
		if _, taken := folded[f]; !taken {
			folded[f] = k
		}
	}
	return lookup{row: row, folded: folded}
}

func (l lookup) lookup(aliases []string) (any, bool) {
	for _, a := range aliases {
		if v, ok := l.row[a]; ok {
			return v, true
		}
	}
	for _, a := range aliases {
		if k, ok := l.folded[FoldKey(a)]; ok {
			return l.row[k], true
		}
	}
	return nil, false
}

func (l lookup) find(aliases []string) any {
	v, _ := l.lookup(aliases)
	return v
}

// FoldKey lowercases s, strips accents and drops everything that is not a
// letter or digit, so "Prénom", "PRENOM" and "pre_nom" all fold to "prenom".
func FoldKey(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	var b strings.Builder
	for _, r := range strings.ToLower(stripped) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func asString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	default:
		return ""
	}
}

func parseNumber(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(x), ",", ".")
		if s == "" {
			return 0, false
		}
		p, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = p
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return math.Trunc(f), true
}

package student

import "strconv"

// WireKeys lists the store columns in sheet order.
var WireKeys = []string{
	"nom", "prenom", "sexe", "classe",
	"ecriture", "lecture", "vocabulaire", "grammaire", "conjugaison", "orthographe",
	"comportement", "comportement_details", "comportement_commentaire",
	"notes", "date",
}

// Fields returns the record in the store's wire shape (French keys).
// Index is not included; callers add it for update and delete.
// INVARIANT: an unset behavior score is written as the empty string
func (r Record) Fields() map[string]string {
	f := map[string]string{
		"nom":                      r.LastName,
		"prenom":                   r.FirstName,
		"sexe":                     NormalizeGender(r.Gender),
		"classe":                   r.ClassName,
		"notes":                    r.Notes,
		"comportement":             "",
		"comportement_details":     r.Behavior.Details,
		"comportement_commentaire": r.Behavior.Comment,
		"date":                     r.Date,
	}
	for i, k := range SkillKeys {
		f[k] = strconv.Itoa(Clamp(r.Scores[i]))
	}
	if r.Behavior.Score.IsSet() {
		f["comportement"] = strconv.Itoa(r.Behavior.Score.Value())
	}
	return f
}

package scoring

import (
	"fmt"
	"strconv"
	"strings"
)

// adviceBank holds the fixed advisory text per skill and tier.
var adviceBank = map[string]map[string]string{
	"Écriture": {
		TierLow:  "acquis fragiles ; travailler la production de phrases courtes et guidées.",
		TierMid:  "niveau satisfaisant ; enrichir les textes par des consignes d'écriture régulières.",
		TierHigh: "très bon niveau ; proposer des projets d'écriture longs et créatifs.",
	},
	"Lecture": {
		TierLow:  "acquis fragiles ; renforcer le décodage et la lecture à voix haute accompagnée.",
		TierMid:  "niveau satisfaisant ; consolider la compréhension par des questionnaires réguliers.",
		TierHigh: "très bon niveau ; ouvrir à des lectures plus longues et plus variées.",
	},
	"Vocabulaire": {
		TierLow:  "acquis fragiles ; constituer un lexique personnel et le réviser souvent.",
		TierMid:  "niveau satisfaisant ; réinvestir les mots nouveaux à l'oral comme à l'écrit.",
		TierHigh: "très bon niveau ; travailler les nuances, synonymes et registres de langue.",
	},
	"Grammaire": {
		TierLow:  "acquis fragiles ; reprendre les bases par des exercices guidés.",
		TierMid:  "niveau satisfaisant ; consolider par une pratique régulière.",
		TierHigh: "très bon niveau ; proposer des activités d'enrichissement.",
	},
	"Conjugaison": {
		TierLow:  "acquis fragiles ; revoir les temps simples des verbes fréquents.",
		TierMid:  "niveau satisfaisant ; automatiser les temps composés par des rituels.",
		TierHigh: "très bon niveau ; aborder les temps plus rares et leurs emplois.",
	},
	"Orthographe": {
		TierLow:  "acquis fragiles ; pratiquer des dictées courtes et la relecture guidée.",
		TierMid:  "niveau satisfaisant ; renforcer l'autocorrection et les accords.",
		TierHigh: "très bon niveau ; viser l'orthographe d'usage des mots rares.",
	},
}

var tierFallback = map[string]string{
	TierLow:  "acquis fragiles ; renforcer les bases par des exercices guidés.",
	TierMid:  "niveau satisfaisant ; consolider par une pratique régulière.",
	TierHigh: "très bon niveau ; proposer des activités d'enrichissement.",
}

// Advice returns the advisory text of a skill for a tier.
func Advice(skill, tier string) string {
	if bank, ok := adviceBank[skill]; ok {
		if text, ok := bank[tier]; ok {
			return text
		}
	}
	return tierFallback[tier]
}

// Narrative is the rendered pedagogical analysis.
type Narrative struct {
	Summary string
	Focus   string
	Profile string
	Lines   []string
}

// Text joins the narrative into a single plain-text block.
func (n Narrative) Text() string {
	parts := []string{n.Summary, n.Focus, n.Profile}
	parts = append(parts, n.Lines...)
	return strings.Join(parts, "\n")
}

// NarrativeFor renders the deterministic narrative of an Analysis.
func NarrativeFor(a Analysis) Narrative {
	n := Narrative{
		Summary: fmt.Sprintf("L'élève présente un niveau %s (moyenne %s/20, %d%%).", a.Level, formatScore(a.Mean), a.Percent),
		Focus: fmt.Sprintf("Point fort : %s (%d/20) ; axe prioritaire : %s (%d/20).",
			a.Best.Skill, a.Best.Score, a.Worst.Skill, a.Worst.Score),
		Profile: fmt.Sprintf("Profil %s (écart-type %s).", a.SpreadBand, formatScore(a.Spread)),
	}
	for _, adv := range a.Advice {
		n.Lines = append(n.Lines, fmt.Sprintf("%s (%d/20) : %s", adv.Skill, adv.Score, adv.Text))
	}
	return n
}

func formatScore(v float64) string {
	return strings.Replace(strconv.FormatFloat(v, 'f', -1, 64), ".", ",", 1)
}

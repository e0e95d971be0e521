package behavior

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gradebook/internal/domain/student"
)

// Base is the starting score of an evaluation.
const Base = 20

// Fixed deltas of the weighted rule.
const (
	DeltaChatter       = -2
	DeltaDisrespect    = -4
	DeltaHomework      = -2
	DeltaPerTardy      = -1
	DeltaPerMissing    = -1
	DeltaParticipation = 2
	DeltaHelp          = 1
)

// Labels used in the stored details summary.
const (
	LabelChatter       = "Bavardage"
	LabelDisrespect    = "Manque de respect"
	LabelHomework      = "Devoir non remis"
	LabelTardies       = "Retards"
	LabelMissing       = "Oubli matériel"
	LabelParticipation = "Participation active (+)"
	LabelHelp          = "Aide aux camarades (+)"
)

// Checklist is one behavior evaluation.
type Checklist struct {
	Chatter       bool
	Disrespect    bool
	Homework      bool
	Tardies       int
	Missing       int
	Participation bool
	Help          bool
	Comment       string
}

// IsEmpty reports whether nothing at all was recorded.
func (c Checklist) IsEmpty() bool {
	return !c.Chatter && !c.Disrespect && !c.Homework && c.Tardies <= 0 && c.Missing <= 0 &&
		!c.Participation && !c.Help && strings.TrimSpace(c.Comment) == ""
}

// Score applies the weighted rule.
// POST: 0 <= result <= 20
func (c Checklist) Score() int {
	s := Base
	if c.Chatter {
		s += DeltaChatter
	}
	if c.Disrespect {
		s += DeltaDisrespect
	}
	if c.Homework {
		s += DeltaHomework
	}
	s += max(0, c.Tardies) * DeltaPerTardy
	s += max(0, c.Missing) * DeltaPerMissing
	if c.Participation {
		s += DeltaParticipation
	}
	if c.Help {
		s += DeltaHelp
	}
	return student.Clamp(s)
}

// Details renders the comma-separated summary stored with the record.
func (c Checklist) Details() string {
	var parts []string
	if c.Chatter {
		parts = append(parts, LabelChatter)
	}
	if c.Disrespect {
		parts = append(parts, LabelDisrespect)
	}
	if c.Homework {
		parts = append(parts, LabelHomework)
	}
	if c.Tardies > 0 {
		parts = append(parts, fmt.Sprintf("%s x%d", LabelTardies, c.Tardies))
	}
	if c.Missing > 0 {
		parts = append(parts, fmt.Sprintf("%s x%d", LabelMissing, c.Missing))
	}
	if c.Participation {
		parts = append(parts, LabelParticipation)
	}
	if c.Help {
		parts = append(parts, LabelHelp)
	}
	return strings.Join(parts, ", ")
}

// Apply returns the behavior block for an evaluation. An evaluation with
// nothing checked, no counts and no comment leaves the score unset.
func (c Checklist) Apply() student.Behavior {
	if c.IsEmpty() {
		return student.Behavior{Score: student.UnsetBehavior}
	}
	return student.Behavior{
		Score:   student.NewBehaviorScore(c.Score()),
		Details: c.Details(),
		Comment: strings.TrimSpace(c.Comment),
	}
}

var (
	tardiesRe = regexp.MustCompile(`(?i)retards?\s*x\s*(\d+)`)
	missingRe = regexp.MustCompile(`(?i)oublis?\s+mat[ée]riel\s*x\s*(\d+)`)
)

// ParseDetails recovers a checklist from a stored summary. Best effort:
// unknown fragments are ignored.
func ParseDetails(details, comment string) Checklist {
	low := strings.ToLower(details)
	c := Checklist{
		Chatter:       strings.Contains(low, strings.ToLower(LabelChatter)),
		Disrespect:    strings.Contains(low, "manque de respect"),
		Homework:      strings.Contains(low, "devoir non remis"),
		Participation: strings.Contains(low, "participation"),
		Help:          strings.Contains(low, "aide aux camarades"),
		Comment:       comment,
	}
	if m := tardiesRe.FindStringSubmatch(details); m != nil {
		c.Tardies, _ = strconv.Atoi(m[1])
	}
	if m := missingRe.FindStringSubmatch(details); m != nil {
		c.Missing, _ = strconv.Atoi(m[1])
	}
	return c
}

// Rule keys shared by the evaluation form and the JSON submission.
const (
	RuleChatter       = "bavardage"
	RuleDisrespect    = "irrespect"
	RuleHomework      = "devoir"
	RuleTardies       = "retards"
	RuleMissing       = "oubli"
	RuleParticipation = "participation"
	RuleHelp          = "aide"
)

// Rules returns the delta of each rule key. Counted rules apply their delta
// once per unit.
func Rules() map[string]int {
	return map[string]int{
		RuleChatter:       DeltaChatter,
		RuleDisrespect:    DeltaDisrespect,
		RuleHomework:      DeltaHomework,
		RuleTardies:       DeltaPerTardy,
		RuleMissing:       DeltaPerMissing,
		RuleParticipation: DeltaParticipation,
		RuleHelp:          DeltaHelp,
	}
}

// Submission is the JSON body posted by the evaluation form.
type Submission struct {
	Chatter       bool   `json:"bavardage"`
	Disrespect    bool   `json:"irrespect"`
	Homework      bool   `json:"devoir"`
	Tardies       int    `json:"retards"`
	Missing       int    `json:"oubli"`
	Participation bool   `json:"participation"`
	Help          bool   `json:"aide"`
	Comment       string `json:"commentaire"`
}

// Checklist converts the submission; negative counts become zero.
func (s Submission) Checklist() Checklist {
	return Checklist{
		Chatter:       s.Chatter,
		Disrespect:    s.Disrespect,
		Homework:      s.Homework,
		Tardies:       max(0, s.Tardies),
		Missing:       max(0, s.Missing),
		Participation: s.Participation,
		Help:          s.Help,
		Comment:       s.Comment,
	}
}

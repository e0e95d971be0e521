package student

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// MaxScore is the upper bound of every skill and behavior score.
const MaxScore = 20

// DateLayout is the locale layout used for the record date (French, day first).
const DateLayout = "02/01/2006"

// Gender values.
const (
	GenderMale   = "H"
	GenderFemale = "F"
)

// Skill names in display order. The order is the order of Scores.
var Skills = [6]string{"Écriture", "Lecture", "Vocabulaire", "Grammaire", "Conjugaison", "Orthographe"}

// SkillKeys are the store field names of the six skills, aligned with Skills.
var SkillKeys = [6]string{"ecriture", "lecture", "vocabulaire", "grammaire", "conjugaison", "orthographe"}

// ErrNotFound is returned when an index is absent from a loaded set.
var ErrNotFound = errors.New("student not found")

// Scores holds the six skill scores in Skills order.
type Scores [6]int

// Values returns the scores as float64 for aggregation.
func (s Scores) Values() []float64 {
	out := make([]float64, len(s))
	for i, v := range s {
		out[i] = float64(v)
	}
	return out
}

// BehaviorScore is an optional 0-20 rating. The zero value is unset.
type BehaviorScore struct {
	value int
	set   bool
}

// NewBehaviorScore returns a set score clamped to [0,20].
func NewBehaviorScore(v int) BehaviorScore {
	return BehaviorScore{value: Clamp(v), set: true}
}

// UnsetBehavior is the "not yet evaluated" score.
var UnsetBehavior = BehaviorScore{}

// IsSet reports whether the student has been evaluated.
func (b BehaviorScore) IsSet() bool { return b.set }

// Value returns the score; it is 0 when unset, check IsSet first.
func (b BehaviorScore) Value() int { return b.value }

// Behavior is the optional behavior block of a record.
type Behavior struct {
	Score   BehaviorScore
	Details string
	Comment string
}

// Record is the canonical student record.
type Record struct {
	Index     int
	LastName  string
	FirstName string
	Gender    string
	ClassName string
	Scores    Scores
	Notes     string
	Behavior  Behavior
	Date      string
}

// FullName returns "LastName FirstName", the string used for search and sort.
func (r Record) FullName() string {
	return strings.TrimSpace(r.LastName + " " + r.FirstName)
}

// Clamp bounds v to [0,MaxScore].
// POST: 0 <= result <= MaxScore
// INVARIANT: Clamp(Clamp(v)) == Clamp(v)
func Clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}

// Today returns the current date in DateLayout.
func Today() string {
	return timeNow().Format(DateLayout)
}

// timeNow is a variable for testability.
var timeNow = time.Now

// Draft is the user-submitted part of a record, checked before any write.
type Draft struct {
	LastName  string `validate:"required,max=100"`
	FirstName string `validate:"required,max=100"`
	Gender    string `validate:"omitempty,oneof=H F"`
	ClassName string `validate:"max=50"`
	Notes     string `validate:"max=5000"`
}

var validate = validator.New()

// ValidationError lists the fields that failed validation.
type ValidationError struct {
	Fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return "champs invalides: " + strings.Join(e.Fields, ", ")
}

// Validate checks the required identity fields of a record about to be written.
// PRE: r has been normalized
// POST: Returns *ValidationError naming every failing field, nil otherwise
func (r Record) Validate() error {
	d := Draft{
		LastName:  strings.TrimSpace(r.LastName),
		FirstName: strings.TrimSpace(r.FirstName),
		Gender:    r.Gender,
		ClassName: r.ClassName,
		Notes:     r.Notes,
	}
	err := validate.Struct(d)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	ve := &ValidationError{}
	for _, fe := range verrs {
		ve.Fields = append(ve.Fields, fieldLabels[fe.Field()])
	}
	return ve
}

var fieldLabels = map[string]string{
	"LastName":  "nom",
	"FirstName": "prénom",
	"Gender":    "sexe",
	"ClassName": "classe",
	"Notes":     "notes",
}

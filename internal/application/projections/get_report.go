package projections

import (
	"context"

	"gradebook/internal/domain/behavior"
	"gradebook/internal/domain/scoring"
	"gradebook/internal/domain/student"
)

// Comparison scopes.
const (
	ScopeClass = "classe"
	ScopeAll   = "ensemble"
)

// MinClassSize is the smallest class whose own average is used.
const MinClassSize = 2

// Comparison is the average series a report compares the student against.
type Comparison struct {
	Scope  string
	Label  string
	Count  int
	Scores [6]float64
}

// SkillRow is one line of the competency table.
type SkillRow struct {
	Skill      string
	Score      int
	Average    float64
	HasAverage bool
	Tier       string
	Advice     string
}

// GetReportQuery carries query parameters.
type GetReportQuery struct {
	Index int
}

// GetReportDeps holds dependencies for GetReport.
type GetReportDeps struct {
	Records RecordSource
}

// GetReportResult is everything a report document shows.
type GetReportResult struct {
	Record     student.Record
	Analysis   scoring.Analysis
	Narrative  scoring.Narrative
	Rows       []SkillRow
	Comparison *Comparison
	Behavior   *behavior.Checklist
}

// QueryGetReport assembles the report of one student.
// PRE: query.Index names a loaded record
// POST: Comparison is nil only when no population is loaded;
// Behavior is nil when no evaluation has been recorded
func QueryGetReport(ctx context.Context, query GetReportQuery, deps GetReportDeps) (GetReportResult, error) {
	rec, err := deps.Records.Get(query.Index)
	if err != nil {
		return GetReportResult{}, err
	}

	a := scoring.Analyze(rec.Scores)
	res := GetReportResult{
		Record:    rec,
		Analysis:  a,
		Narrative: scoring.NarrativeFor(a),
	}
	if cmp, ok := ClassAverage(deps.Records.All(), rec.ClassName); ok {
		res.Comparison = &cmp
	}
	for i, adv := range a.Advice {
		row := SkillRow{
			Skill:  adv.Skill,
			Score:  adv.Score,
			Tier:   adv.Tier,
			Advice: adv.Text,
		}
		if res.Comparison != nil {
			row.Average = res.Comparison.Scores[i]
			row.HasAverage = true
		}
		res.Rows = append(res.Rows, row)
	}
	if rec.Behavior.Score.IsSet() {
		c := behavior.ParseDetails(rec.Behavior.Details, rec.Behavior.Comment)
		res.Behavior = &c
	}
	return res, nil
}

// ClassAverage returns the per-skill average of the records in className.
// With fewer than MinClassSize records in that class it falls back to the
// whole population.
// POST: ok is false only when records is empty
func ClassAverage(records []student.Record, className string) (Comparison, bool) {
	var inClass []student.Record
	for _, r := range records {
		if r.ClassName == className {
			inClass = append(inClass, r)
		}
	}

	cmp := Comparison{Scope: ScopeClass, Label: "Moyenne de la classe " + className}
	if className == "" {
		cmp.Label = "Moyenne des élèves sans classe"
	}
	pool := inClass
	if len(inClass) < MinClassSize {
		cmp = Comparison{Scope: ScopeAll, Label: "Moyenne de l'ensemble"}
		pool = records
	}
	avg, ok := scoring.Averages(pool)
	if !ok {
		return Comparison{}, false
	}
	cmp.Count = len(pool)
	cmp.Scores = avg
	return cmp, true
}

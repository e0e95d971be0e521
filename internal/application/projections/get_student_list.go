package projections

import (
	"context"

	"gradebook/internal/application/listutil"
	"gradebook/internal/application/roster"
	"gradebook/internal/domain/scoring"
	"gradebook/internal/domain/student"
)

// StudentRow is one entry of the screen list.
type StudentRow struct {
	Index       int
	FullName    string
	ClassName   string
	Gender      string
	Mean        float64
	Percent     int
	HasBehavior bool
	Behavior    int
}

// GetStudentListQuery carries query parameters.
type GetStudentListQuery struct {
	Params listutil.ListParams
}

// GetStudentListDeps holds dependencies for GetStudentList.
type GetStudentListDeps struct {
	Records RecordSource
	View    *roster.View
}

// GetStudentListResult carries the query result.
type GetStudentListResult struct {
	Rows         []StudentRow
	ClassOptions []roster.ClassOption
	Params       listutil.ListParams
	PageInfo     listutil.PageInfo
	Total        int
}

// QueryGetStudentList filters, sorts and paginates the loaded records.
// POST: Params.View.Class names an existing class or roster.AllClasses
// INVARIANT: Total counts every loaded record, PageInfo.Total the matching ones
func QueryGetStudentList(ctx context.Context, query GetStudentListQuery, deps GetStudentListDeps) (GetStudentListResult, error) {
	params := query.Params
	options, selected := deps.View.ClassOptions(deps.Records.Classes(), params.View.Class)
	params.View.Class = selected

	all := deps.Records.All()
	matching := roster.Apply(all, params.View)
	info := listutil.NewPageInfo(params.Page, params.PerPage, len(matching))
	params.Page = info.Page

	res := GetStudentListResult{
		ClassOptions: options,
		Params:       params,
		PageInfo:     info,
		Total:        len(all),
	}
	for _, rec := range listutil.Paginate(matching, info) {
		res.Rows = append(res.Rows, toRow(rec))
	}
	return res, nil
}

func toRow(rec student.Record) StudentRow {
	return StudentRow{
		Index:       rec.Index,
		FullName:    rec.FullName(),
		ClassName:   rec.ClassName,
		Gender:      rec.Gender,
		Mean:        scoring.Mean(rec.Scores),
		Percent:     scoring.Percent(rec.Scores),
		HasBehavior: rec.Behavior.Score.IsSet(),
		Behavior:    rec.Behavior.Score.Value(),
	}
}

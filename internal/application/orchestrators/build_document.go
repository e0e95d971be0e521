package orchestrators

import (
	"context"
	"fmt"

	"gradebook/internal/adapters/document"
	"gradebook/internal/application/projections"
)

// BuildDocumentInput selects the document to build.
type BuildDocumentInput struct {
	Index  int
	Kind   document.Kind
	Report document.ReportOptions
}

// BuildDocumentDeps holds dependencies for BuildDocument.
type BuildDocumentDeps struct {
	Records projections.RecordSource
}

// SaveURL returns the JSON endpoint a document of kind posts to.
func SaveURL(kind document.Kind, index int) string {
	switch kind {
	case document.KindBehavior:
		return fmt.Sprintf("/api/students/%d/behavior", index)
	default:
		return fmt.Sprintf("/api/students/%d", index)
	}
}

// ExecuteBuildDocument renders one document for the record at Index.
// PRE: Index names a loaded record
// POST: Returns a self-contained HTML document
func ExecuteBuildDocument(ctx context.Context, input BuildDocumentInput, deps BuildDocumentDeps) ([]byte, error) {
	switch input.Kind {
	case document.KindReport:
		res, err := projections.QueryGetReport(ctx, projections.GetReportQuery{Index: input.Index},
			projections.GetReportDeps{Records: deps.Records})
		if err != nil {
			return nil, err
		}
		return document.Report(res, input.Report)
	case document.KindEdit, document.KindBehavior:
		rec, err := deps.Records.Get(input.Index)
		if err != nil {
			return nil, err
		}
		if input.Kind == document.KindEdit {
			return document.Edit(rec, SaveURL(input.Kind, input.Index))
		}
		return document.Behavior(rec, SaveURL(input.Kind, input.Index))
	}
	return nil, fmt.Errorf("document: unknown kind %q", input.Kind)
}

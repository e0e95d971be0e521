package orchestrators

import (
	"context"

	"gradebook/internal/adapters/document"
	"gradebook/internal/adapters/present"
	"gradebook/internal/application/projections"
)

// DocumentPresenter opens documents in independent browsing contexts.
type DocumentPresenter interface {
	Present(ctx context.Context, html []byte) (*present.Handle, error)
	PresentBlob(ctx context.Context, html []byte) (*present.Handle, error)
}

// PresentDocumentInput selects the document to present.
type PresentDocumentInput struct {
	Index  int
	Kind   document.Kind
	Report document.ReportOptions
}

// PresentDocumentDeps holds dependencies for PresentDocument.
type PresentDocumentDeps struct {
	Records   projections.RecordSource
	Presenter DocumentPresenter
}

// ExecutePresentDocument builds a document and presents it. Reports go
// through the write ladder; edit and behavior documents post back to the
// server, so they are served from a same-origin temporary URL instead.
// POST: the caller owns the returned Handle and must Close it
func ExecutePresentDocument(ctx context.Context, input PresentDocumentInput, deps PresentDocumentDeps) (*present.Handle, error) {
	html, err := ExecuteBuildDocument(ctx, BuildDocumentInput{
		Index:  input.Index,
		Kind:   input.Kind,
		Report: input.Report,
	}, BuildDocumentDeps{Records: deps.Records})
	if err != nil {
		return nil, err
	}
	if input.Kind == document.KindReport {
		return deps.Presenter.Present(ctx, html)
	}
	return deps.Presenter.PresentBlob(ctx, html)
}

package orchestrators

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/mail"
	"strings"
	"unicode"

	"gradebook/internal/adapters/document"
	emailAdapter "gradebook/internal/adapters/email"
	"gradebook/internal/application/projections"
	"gradebook/internal/domain/student"
)

// ErrInvalidRecipient is returned for a missing or malformed address.
var ErrInvalidRecipient = errors.New("adresse e-mail invalide")

// EmailReportInput names the report and its recipient.
type EmailReportInput struct {
	Index int
	To    string
}

// EmailReportResult describes the sent message.
type EmailReportResult struct {
	MessageID  string
	Attachment string
}

// EmailReportDeps holds dependencies for EmailReport.
type EmailReportDeps struct {
	Records projections.RecordSource
	Sender  emailAdapter.Sender
	// Presenter prints the report to PDF. When nil, the HTML report is attached instead.
	Presenter   DocumentPresenter
	FromAddress string
}

var emailBody = template.Must(template.New("email").Parse(`<p>Bonjour,</p>
<p>Veuillez trouver ci-joint le bulletin de <strong>{{.Name}}</strong>{{if .Class}} ({{.Class}}){{end}}.</p>
<p>{{.Summary}}</p>
<p>{{.Focus}}</p>`))

// ExecuteEmailReport sends the report of one student as an attachment.
// PRE: Index names a loaded record; To is a valid address
// POST: one message is handed to the sender
func ExecuteEmailReport(ctx context.Context, input EmailReportInput, deps EmailReportDeps) (EmailReportResult, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(input.To))
	if err != nil {
		return EmailReportResult{}, ErrInvalidRecipient
	}

	res, err := projections.QueryGetReport(ctx, projections.GetReportQuery{Index: input.Index},
		projections.GetReportDeps{Records: deps.Records})
	if err != nil {
		return EmailReportResult{}, err
	}
	html, err := document.Report(res, document.ReportOptions{})
	if err != nil {
		return EmailReportResult{}, err
	}

	base := ReportBaseName(res.Record)
	attachment := emailAdapter.Attachment{Filename: base + ".html", ContentType: "text/html", Content: html}
	if deps.Presenter != nil {
		if pdf, err := printPDF(ctx, deps.Presenter, html); err == nil {
			attachment = emailAdapter.Attachment{Filename: base + ".pdf", ContentType: "application/pdf", Content: pdf}
		} else {
			slog.Warn("report_pdf_failed", "index", input.Index, "error", err)
		}
	}

	var body bytes.Buffer
	if err := emailBody.Execute(&body, map[string]string{
		"Name":    res.Record.FullName(),
		"Class":   res.Record.ClassName,
		"Summary": res.Narrative.Summary,
		"Focus":   res.Narrative.Focus,
	}); err != nil {
		return EmailReportResult{}, err
	}

	sent, err := deps.Sender.Send(ctx, emailAdapter.SendRequest{
		To:          []string{addr.Address},
		From:        deps.FromAddress,
		Subject:     "Bulletin de " + res.Record.FullName(),
		HTML:        body.String(),
		Attachments: []emailAdapter.Attachment{attachment},
	})
	if err != nil {
		return EmailReportResult{}, fmt.Errorf("envoi du bulletin: %w", err)
	}
	slog.Info("report_emailed", "index", input.Index, "to", addr.Address, "attachment", attachment.Filename)
	return EmailReportResult{MessageID: sent.MessageID, Attachment: attachment.Filename}, nil
}

func printPDF(ctx context.Context, p DocumentPresenter, html []byte) ([]byte, error) {
	h, err := p.Present(ctx, html)
	if err != nil {
		return nil, err
	}
	defer h.Close()
	return h.PDF(ctx)
}

// ReportBaseName is the file name, without extension, of rec's report.
func ReportBaseName(rec student.Record) string {
	return attachmentName(rec.LastName, rec.FirstName)
}

// attachmentName builds "bulletin-nom-prenom" from ASCII letters and digits.
func attachmentName(parts ...string) string {
	name := "bulletin"
	for _, p := range parts {
		word := strings.Map(func(r rune) rune {
			if r > unicode.MaxASCII {
				return -1
			}
			return r
		}, student.FoldKey(p))
		if word != "" {
			name += "-" + word
		}
	}
	return name
}

package handlers

import (
	"encoding/json"
	"time"

	"formflow/internal/models"
)

// isoLayout renders timestamps as UTC ISO-8601 with millisecond precision.
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

func iso(t time.Time) string { return t.UTC().Format(isoLayout) }

type formDetailsView struct {
	InternalTitle string  `json:"internalTitle"`
	PublicTitle   *string `json:"publicTitle"`
	Description   *string `json:"description"`
	Slug          *string `json:"slug"`
	IsPublished   bool    `json:"isPublished"`
}

type formView struct {
	FormID      string          `json:"formId"`
	FormDetails formDetailsView `json:"formDetails"`
	FormFields  json.RawMessage `json:"formFields"`
	CreatedAt   string          `json:"createdAt"`
	UpdatedAt   string          `json:"updatedAt"`
}

func newFormView(f *models.Form) formView {
	fields := json.RawMessage(f.Fields)
	if len(fields) == 0 {
		fields = json.RawMessage("[]")
	}
	return formView{
		FormID: f.ID,
		FormDetails: formDetailsView{
			InternalTitle: f.InternalTitle,
			PublicTitle:   f.PublicTitle,
			Description:   f.Description,
			Slug:          f.Slug,
			IsPublished:   f.IsPublished,
		},
		FormFields: fields,
		CreatedAt:  iso(f.CreatedAt),
		UpdatedAt:  iso(f.UpdatedAt),
	}
}

type submissionView struct {
	SubmissionID string          `json:"submissionId"`
	FormID       string          `json:"formId"`
	Data         json.RawMessage `json:"data"`
	SubmittedAt  string          `json:"submittedAt"`
}

func newSubmissionViews(subs []models.Submission) []submissionView {
	out := make([]submissionView, 0, len(subs))
	for _, s := range subs {
		data := json.RawMessage(s.Data)
		if len(data) == 0 {
			data = json.RawMessage("{}")
		}
		out = append(out, submissionView{
			SubmissionID: s.ID,
			FormID:       s.FormID,
			Data:         data,
			SubmittedAt:  iso(s.SubmittedAt),
		})
	}
	return out
}

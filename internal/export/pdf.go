// Package export renders the deliverable a data subject receives for an
// access or portability request: a PDF summary of the request, its
// remediation tasks and its activity trail.
package export

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/braddown/pii-compliance-tool-sub001/internal/domain/requests"
	"github.com/braddown/pii-compliance-tool-sub001/internal/domain/tasks"
)

type Service struct {
	requests *requests.Service
	tasks    *tasks.Service
}

func NewService(reqSvc *requests.Service, taskSvc *tasks.Service) *Service {
	return &Service{requests: reqSvc, tasks: taskSvc}
}

// RequestReport renders the PDF for one request.
func (s *Service) RequestReport(ctx context.Context, tenantID, requestID string) ([]byte, error) {
	req, err := s.requests.Get(ctx, tenantID, requestID)
	if err != nil {
		return nil, err
	}
	taskList, _, err := s.tasks.List(ctx, tenantID, tasks.Filter{RequestID: requestID})
	if err != nil {
		return nil, err
	}
	activities, err := s.requests.Activities(ctx, tenantID, requestID)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Data Subject Request Report")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Request: %s (%s)", req.ID, req.RequestType))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Requester: %s <%s>", req.RequesterName, req.RequesterEmail))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Status: %s", req.Status))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Due: %s", formatDate(req.DueDate)))
	pdf.Ln(7)
	if req.CompletedAt != nil {
		pdf.Cell(0, 8, fmt.Sprintf("Completed: %s", formatDate(req.CompletedAt)))
		pdf.Ln(7)
	}
	pdf.Ln(5)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, "Remediation tasks")
	pdf.Ln(9)
	pdf.SetFont("Helvetica", "", 11)
	if len(taskList) == 0 {
		pdf.Cell(0, 7, "No tasks recorded.")
		pdf.Ln(7)
	}
	for _, task := range taskList {
		pdf.Cell(0, 7, fmt.Sprintf("- %s: %s (attempts %d/%d)", task.LocationID, task.Status, task.AttemptCount, task.MaxAttempts))
		pdf.Ln(6)
	}
	pdf.Ln(5)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, "Activity trail")
	pdf.Ln(9)
	pdf.SetFont("Helvetica", "", 11)
	for _, act := range activities {
		line := fmt.Sprintf("%s  %s -> %s", act.CreatedAt.Format("2006-01-02 15:04"), emptyDash(act.PreviousStatus), act.NewStatus)
		if act.Details != "" {
			line += " (" + act.Details + ")"
		}
		pdf.Cell(0, 7, line)
		pdf.Ln(6)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}

func emptyDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

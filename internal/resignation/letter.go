package resignation

import (
	"bytes"
	"context"
	"text/template"

	id "peopleops/pkg/domain"
	dErrors "peopleops/pkg/domain-errors"
	"peopleops/pkg/requestcontext"
)

// Letter is the generated document for a record, returned as plain text.
type Letter struct {
	EmployeeID  id.EmployeeID `json:"employeeId"`
	GeneratedAt string        `json:"generatedAt"`
	Body        string        `json:"body"`
}

var letterTemplate = template.Must(template.New("letter").Parse(
	`RESIGNATION RECORD

Employee:        {{.EmployeeID}}
Type:            {{.ResignationType}}
Resignation date: {{.ResignationDate.Format "02 January 2006"}}
Last working day: {{.LastWorkingDay.Format "02 January 2006"}}
Status:          {{.Status}}
{{- if .Penalties}}

Penalties:
{{- range .Penalties}}
  - {{.Description}}: {{printf "%.2f" .Amount}} {{.Currency}} (added by {{.AddedBy}})
{{- end}}
Total penalties: {{printf "%.2f" .TotalPenalties}}
{{- end}}

Recorded by {{.CreatedBy}} on {{.CreatedAt.Format "02 January 2006"}}.
`))

// GenerateLetter renders the letter for an existing record.
func (s *Service) GenerateLetter(ctx context.Context, employeeID id.EmployeeID) (*Letter, error) {
	record, err := s.Get(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := letterTemplate.Execute(&buf, record); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to render resignation letter")
	}
	return &Letter{
		EmployeeID:  record.EmployeeID,
		GeneratedAt: requestcontext.Now(ctx).Format("2006-01-02"),
		Body:        buf.String(),
	}, nil
}

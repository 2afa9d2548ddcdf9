package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"peopleops/internal/survey"
	id "peopleops/pkg/domain"
	"peopleops/pkg/platform/sentinel"
)

// Postgres stores surveys; questions live in a JSONB column.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const surveyColumns = `
	id, tenant_id, title, description, questions, status, created_by, created_at, updated_at`

func (st *Postgres) Create(ctx context.Context, s *survey.Survey) error {
	questions, err := json.Marshal(s.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}
	query := `INSERT INTO surveys (` + surveyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err = st.db.ExecContext(ctx, query,
		uuid.UUID(s.ID), s.TenantID, s.Title, s.Description, questions,
		string(s.Status), s.CreatedBy, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert survey: %w", err)
	}
	return nil
}

func scanSurvey(row interface{ Scan(...any) error }) (*survey.Survey, error) {
	var (
		s         survey.Survey
		sid       uuid.UUID
		questions []byte
		status    string
	)
	err := row.Scan(&sid, &s.TenantID, &s.Title, &s.Description, &questions,
		&status, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(questions, &s.Questions); err != nil {
		return nil, fmt.Errorf("unmarshal questions: %w", err)
	}
	s.ID = id.SurveyID(sid)
	s.Status = survey.Status(status)
	return &s, nil
}

func (st *Postgres) Get(ctx context.Context, surveyID id.SurveyID) (*survey.Survey, error) {
	query := `SELECT ` + surveyColumns + ` FROM surveys WHERE id = $1`
	s, err := scanSurvey(st.db.QueryRowContext(ctx, query, uuid.UUID(surveyID)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query survey: %w", err)
	}
	return s, nil
}

func (st *Postgres) Update(ctx context.Context, s *survey.Survey) error {
	questions, err := json.Marshal(s.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}
	query := `UPDATE surveys SET title = $2, description = $3, questions = $4,
		status = $5, updated_at = $6 WHERE id = $1`
	res, err := st.db.ExecContext(ctx, query, uuid.UUID(s.ID), s.Title,
		s.Description, questions, string(s.Status), s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update survey: %w", err)
	}
	return requireRow(res)
}

func (st *Postgres) Delete(ctx context.Context, surveyID id.SurveyID) error {
	res, err := st.db.ExecContext(ctx, `DELETE FROM surveys WHERE id = $1`, uuid.UUID(surveyID))
	if err != nil {
		return fmt.Errorf("delete survey: %w", err)
	}
	return requireRow(res)
}

func (st *Postgres) List(ctx context.Context, tenantID string) ([]survey.Survey, error) {
	query := `SELECT ` + surveyColumns + ` FROM surveys
		WHERE tenant_id = $1 ORDER BY created_at DESC`
	rows, err := st.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list surveys: %w", err)
	}
	defer rows.Close()

	var out []survey.Survey
	for rows.Next() {
		s, err := scanSurvey(rows)
		if err != nil {
			return nil, fmt.Errorf("scan survey: %w", err)
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

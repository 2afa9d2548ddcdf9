package store

import (
	"context"
	"sort"
	"sync"

	"peopleops/internal/survey"
	id "peopleops/pkg/domain"
	"peopleops/pkg/platform/sentinel"
)

// InMemory keeps surveys in process, used by tests and the dev server.
type InMemory struct {
	mu      sync.RWMutex
	surveys map[id.SurveyID]survey.Survey
}

func NewInMemory() *InMemory {
	return &InMemory{surveys: make(map[id.SurveyID]survey.Survey)}
}

func cloneSurvey(s survey.Survey) survey.Survey {
	s.Questions = append([]survey.Question(nil), s.Questions...)
	return s
}

func (st *InMemory) Create(_ context.Context, s *survey.Survey) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.surveys[s.ID]; ok {
		return sentinel.ErrConflict
	}
	st.surveys[s.ID] = cloneSurvey(*s)
	return nil
}

func (st *InMemory) Get(_ context.Context, surveyID id.SurveyID) (*survey.Survey, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.surveys[surveyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	s = cloneSurvey(s)
	return &s, nil
}

func (st *InMemory) Update(_ context.Context, s *survey.Survey) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.surveys[s.ID]; !ok {
		return sentinel.ErrNotFound
	}
	st.surveys[s.ID] = cloneSurvey(*s)
	return nil
}

func (st *InMemory) Delete(_ context.Context, surveyID id.SurveyID) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.surveys[surveyID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(st.surveys, surveyID)
	return nil
}

func (st *InMemory) List(_ context.Context, tenantID string) ([]survey.Survey, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	var out []survey.Survey
	for _, s := range st.surveys {
		if s.TenantID == tenantID {
			out = append(out, cloneSurvey(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

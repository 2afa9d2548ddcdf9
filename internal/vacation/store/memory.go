// Package store persists vacation balances, leave requests, mixed-vacation
// policies and policy applications. Implementations satisfy the interfaces
// declared in the vacation package.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"peopleops/internal/vacation"
	id "peopleops/pkg/domain"
	"peopleops/pkg/platform/sentinel"
)

// InMemoryBalances keys balances by (employee, year).
type InMemoryBalances struct {
	mu       sync.RWMutex
	balances map[string]vacation.Balance
}

func NewInMemoryBalances() *InMemoryBalances {
	return &InMemoryBalances{balances: make(map[string]vacation.Balance)}
}

func balanceKey(employeeID id.EmployeeID, year int) string {
	return fmt.Sprintf("%s/%d", employeeID, year)
}

func (s *InMemoryBalances) Get(_ context.Context, employeeID id.EmployeeID, year int) (*vacation.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.balances[balanceKey(employeeID, year)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &b, nil
}

func (s *InMemoryBalances) Save(_ context.Context, balance *vacation.Balance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[balanceKey(balance.EmployeeID, balance.Year)] = *balance
	return nil
}

func (s *InMemoryBalances) ListByTenantYear(_ context.Context, tenantID string, year int) ([]vacation.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []vacation.Balance
	for _, b := range s.balances {
		if b.TenantID == tenantID && b.Year == year {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].EmployeeID.String() < out[j].EmployeeID.String()
	})
	return out, nil
}

// InMemoryPolicies stores policies with a coarse lock; Execute runs its
// validate/mutate callbacks under that lock, mirroring what the postgres
// store does with SELECT ... FOR UPDATE.
type InMemoryPolicies struct {
	mu       sync.RWMutex
	policies map[id.PolicyID]vacation.Policy
}

func NewInMemoryPolicies() *InMemoryPolicies {
	return &InMemoryPolicies{policies: make(map[id.PolicyID]vacation.Policy)}
}

func (s *InMemoryPolicies) Create(_ context.Context, policy *vacation.Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.policies[policy.ID]; exists {
		return sentinel.ErrConflict
	}
	s.policies[policy.ID] = *policy
	return nil
}

func (s *InMemoryPolicies) FindByID(_ context.Context, policyID id.PolicyID) (*vacation.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.policies[policyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &p, nil
}

func (s *InMemoryPolicies) Update(_ context.Context, policy *vacation.Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.policies[policy.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.policies[policy.ID] = *policy
	return nil
}

func (s *InMemoryPolicies) Delete(_ context.Context, policyID id.PolicyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.policies[policyID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.policies, policyID)
	return nil
}

func (s *InMemoryPolicies) List(_ context.Context, tenantID string) ([]vacation.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []vacation.Policy
	for _, p := range s.policies {
		if p.TenantID == tenantID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryPolicies) FindActive(_ context.Context, tenantID string, now time.Time) ([]vacation.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []vacation.Policy
	for _, p := range s.policies {
		if p.TenantID != tenantID || p.Status != vacation.PolicyActive {
			continue
		}
		if now.Before(p.StartDate) || now.After(p.EndDate) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

func (s *InMemoryPolicies) Execute(_ context.Context, policyID id.PolicyID, validate func(*vacation.Policy) error, mutate func(*vacation.Policy)) (*vacation.Policy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.policies[policyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(&p); err != nil {
		return nil, err
	}
	mutate(&p)
	s.policies[policyID] = p
	return &p, nil
}

// InMemoryRequests stores leave requests.
type InMemoryRequests struct {
	mu       sync.RWMutex
	requests map[id.LeaveRequestID]vacation.LeaveRequest
}

func NewInMemoryRequests() *InMemoryRequests {
	return &InMemoryRequests{requests: make(map[id.LeaveRequestID]vacation.LeaveRequest)}
}

func (s *InMemoryRequests) Create(_ context.Context, req *vacation.LeaveRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.requests[req.ID]; exists {
		return sentinel.ErrConflict
	}
	s.requests[req.ID] = *req
	return nil
}

func (s *InMemoryRequests) FindByID(_ context.Context, requestID id.LeaveRequestID) (*vacation.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[requestID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &r, nil
}

func (s *InMemoryRequests) Update(_ context.Context, req *vacation.LeaveRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[req.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.requests[req.ID] = *req
	return nil
}

func (s *InMemoryRequests) Delete(_ context.Context, requestID id.LeaveRequestID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[requestID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.requests, requestID)
	return nil
}

func (s *InMemoryRequests) List(_ context.Context, tenantID string) ([]vacation.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(r vacation.LeaveRequest) bool { return r.TenantID == tenantID }), nil
}

func (s *InMemoryRequests) ListByEmployee(_ context.Context, employeeID id.EmployeeID) ([]vacation.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(r vacation.LeaveRequest) bool { return r.EmployeeID == employeeID }), nil
}

func (s *InMemoryRequests) collect(match func(vacation.LeaveRequest) bool) []vacation.LeaveRequest {
	var out []vacation.LeaveRequest
	for _, r := range s.requests {
		if match(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// InMemoryApplications enforces one application per (policy, employee).
type InMemoryApplications struct {
	mu   sync.RWMutex
	apps map[string]vacation.Application
}

func NewInMemoryApplications() *InMemoryApplications {
	return &InMemoryApplications{apps: make(map[string]vacation.Application)}
}

func (s *InMemoryApplications) Record(_ context.Context, app *vacation.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.apps[app.Key()]; exists {
		return sentinel.ErrConflict
	}
	s.apps[app.Key()] = *app
	return nil
}

func (s *InMemoryApplications) Exists(_ context.Context, policyID id.PolicyID, employeeID id.EmployeeID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.apps[vacation.Application{PolicyID: policyID, EmployeeID: employeeID}.Key()]
	return ok, nil
}

func (s *InMemoryApplications) ListByPolicy(_ context.Context, policyID id.PolicyID) ([]vacation.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []vacation.Application
	for _, a := range s.apps {
		if a.PolicyID == policyID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AppliedAt.Before(out[j].AppliedAt) })
	return out, nil
}

// Package testutil provides an in-memory api.Service for tests.
package testutil

import (
	"context"
	"errors"
	"sync"

	"guildboard-cli/internal/api"
	"guildboard-cli/internal/model"
)

// FakeService is an in-memory implementation of api.Service with per-call
// error injection and call counting.
type FakeService struct {
	mu       sync.Mutex
	tenants  []model.Tenant
	projects map[string][]model.Project // tenantID -> projects
	tasks    map[string][]model.Task    // tenantID -> tasks
	statuses map[string][]model.Status  // projectID -> statuses
	orders   map[string][]string        // scope -> ordered ids
	docs     map[string]model.Document

	// Error injection.
	ListTenantsErr      error
	ListProjectsErr     error
	ListTasksErr        error
	ListStatusesErr     map[string]error // projectID -> error
	UpdateTaskStatusErr error
	SaveOrderErr        error
	SwitchTenantErr     error
	GetDocumentErr      error

	// Call counters.
	StatusFetchCalls map[string]int // projectID -> fetch count
	SaveOrderCalls   int
	SwitchCalls      int

	// SwitchHook, when set, runs inside SwitchTenant before it returns.
	// Tests use it to hold a switch open while issuing concurrent calls.
	SwitchHook func(tenantID string)
}

func NewFakeService() *FakeService {
	return &FakeService{
		projects:         map[string][]model.Project{},
		tasks:            map[string][]model.Task{},
		statuses:         map[string][]model.Status{},
		orders:           map[string][]string{},
		docs:             map[string]model.Document{},
		ListStatusesErr:  map[string]error{},
		StatusFetchCalls: map[string]int{},
	}
}

func (f *FakeService) AddTenant(id, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tenants = append(f.tenants, model.Tenant{ID: id, Name: name})
}

func (f *FakeService) AddProject(p model.Project) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.projects[p.OwnerTenantID] = append(f.projects[p.OwnerTenantID], p)
}

func (f *FakeService) AddTask(t model.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks[t.OwnerTenantID] = append(f.tasks[t.OwnerTenantID], t)
}

func (f *FakeService) SetStatuses(projectID string, sts ...model.Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[projectID] = sts
}

func (f *FakeService) AddDocument(d model.Document) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[d.ID] = d
}

// SavedOrder returns the last persisted order for a scope.
func (f *FakeService) SavedOrder(scope string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.orders[scope]...)
}

func (f *FakeService) ListTenants(ctx context.Context) ([]model.Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ListTenantsErr != nil {
		return nil, f.ListTenantsErr
	}
	return append([]model.Tenant{}, f.tenants...), nil
}

func (f *FakeService) ListProjects(ctx context.Context, tenantID string) ([]model.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ListProjectsErr != nil {
		return nil, f.ListProjectsErr
	}
	return append([]model.Project{}, f.projects[tenantID]...), nil
}

func (f *FakeService) ListTasks(ctx context.Context, tenantID, projectID string) ([]model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ListTasksErr != nil {
		return nil, f.ListTasksErr
	}
	var out []model.Task
	for _, t := range f.tasks[tenantID] {
		if projectID != "" && t.ProjectID != projectID {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (f *FakeService) ListStatuses(ctx context.Context, tenantID, projectID string) ([]model.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.StatusFetchCalls[projectID]++
	if err := f.ListStatusesErr[projectID]; err != nil {
		return nil, err
	}
	return append([]model.Status{}, f.statuses[projectID]...), nil
}

func (f *FakeService) UpdateTaskStatus(ctx context.Context, tenantID, taskID, statusID string) (model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.UpdateTaskStatusErr != nil {
		return model.Task{}, f.UpdateTaskStatusErr
	}
	for ti, ts := range f.tasks {
		for i := range ts {
			if ts[i].ID != taskID {
				continue
			}
			for _, st := range f.statuses[ts[i].ProjectID] {
				if st.ID == statusID {
					st := st
					f.tasks[ti][i].StatusID = st.ID
					f.tasks[ti][i].StatusCategory = st.Category
					f.tasks[ti][i].Status = &st
					return f.tasks[ti][i], nil
				}
			}
			return model.Task{}, errors.New("unknown status id")
		}
	}
	return model.Task{}, api.ErrNotFound
}

func (f *FakeService) SaveOrder(ctx context.Context, tenantID, scope string, orderedIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SaveOrderCalls++
	if f.SaveOrderErr != nil {
		return f.SaveOrderErr
	}
	f.orders[scope] = append([]string{}, orderedIDs...)
	return nil
}

func (f *FakeService) SwitchTenant(ctx context.Context, tenantID string) error {
	f.mu.Lock()
	f.SwitchCalls++
	hook := f.SwitchHook
	err := f.SwitchTenantErr
	f.mu.Unlock()
	if hook != nil {
		hook(tenantID)
	}
	return err
}

func (f *FakeService) GetDocument(ctx context.Context, tenantID, documentID string) (model.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.GetDocumentErr != nil {
		return model.Document{}, f.GetDocumentErr
	}
	d, ok := f.docs[documentID]
	if !ok {
		return model.Document{}, api.ErrNotFound
	}
	return d, nil
}

var _ api.Service = (*FakeService)(nil)

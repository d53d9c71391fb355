package exercises

import (
	"context"
	"sort"
	"sync"
	"time"
)

var _ templatesRepo = (*RepoMock)(nil)

// RepoMock is an in-memory templatesRepo used by this package's handler
// tests and by the workout resolution tests.
type RepoMock struct {
	Templates   map[int]*Template
	UsageCounts map[int]int
	nextID      int
	mutex       sync.Mutex
}

func NewRepoMock() *RepoMock {
	return &RepoMock{
		Templates:   make(map[int]*Template),
		UsageCounts: make(map[int]int),
		nextID:      1,
	}
}

func (r *RepoMock) ListVisible(_ context.Context, userID, muscleGroupID int) ([]Template, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	templates := make([]Template, 0)
	for _, t := range r.Templates {
		if t.UserID != userID && !t.IsPublic {
			continue
		}
		if muscleGroupID > 0 && t.MuscleGroupID != muscleGroupID {
			continue
		}
		templates = append(templates, *t)
	}
	sort.Slice(templates, func(i, j int) bool {
		iOwn := templates[i].UserID == userID
		jOwn := templates[j].UserID == userID
		if iOwn != jOwn {
			return iOwn
		}
		return templates[i].Name < templates[j].Name
	})
	return templates, nil
}

func (r *RepoMock) Get(_ context.Context, id int) (*Template, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	t, ok := r.Templates[id]
	if !ok {
		return nil, ErrTemplateNotFound
	}
	templateCopy := *t
	return &templateCopy, nil
}

func (r *RepoMock) GetOwnByName(_ context.Context, userID int, name string) (*Template, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, t := range r.Templates {
		if t.UserID == userID && t.Name == name {
			templateCopy := *t
			return &templateCopy, nil
		}
	}
	return nil, ErrTemplateNotFound
}

func (r *RepoMock) FindVisibleByName(_ context.Context, userID int, name string) (*Template, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var publicMatch *Template
	for _, t := range r.Templates {
		if t.Name != name {
			continue
		}
		if t.UserID == userID {
			templateCopy := *t
			return &templateCopy, nil
		}
		if t.IsPublic {
			publicMatch = t
		}
	}
	if publicMatch != nil {
		templateCopy := *publicMatch
		return &templateCopy, nil
	}
	return nil, ErrTemplateNotFound
}

func (r *RepoMock) Add(_ context.Context, template Template) (*Template, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	template.ID = r.nextID
	r.nextID++
	template.CreatedAt = time.Now()
	template.UpdatedAt = template.CreatedAt
	r.Templates[template.ID] = &template

	templateCopy := template
	return &templateCopy, nil
}

func (r *RepoMock) Update(_ context.Context, template *Template) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.Templates[template.ID]; !ok {
		return ErrTemplateNotFound
	}
	templateCopy := *template
	templateCopy.UpdatedAt = time.Now()
	r.Templates[template.ID] = &templateCopy
	return nil
}

func (r *RepoMock) Delete(_ context.Context, id int) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.Templates[id]; !ok {
		return ErrTemplateNotFound
	}
	delete(r.Templates, id)
	return nil
}

func (r *RepoMock) UsageCount(_ context.Context, templateID int) (int, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return r.UsageCounts[templateID], nil
}

package musclegroups

import (
	"context"
	"sort"
	"sync"
	"time"
)

var _ groupsRepo = (*RepoMock)(nil)

// RepoMock is an in-memory groupsRepo used by this package's handler tests
// and by the workout resolution tests.
type RepoMock struct {
	Groups         map[int]*MuscleGroup
	TemplateCounts map[int]int
	nextID         int
	mutex          sync.Mutex
}

func NewRepoMock() *RepoMock {
	return &RepoMock{
		Groups:         make(map[int]*MuscleGroup),
		TemplateCounts: make(map[int]int),
		nextID:         1,
	}
}

func (r *RepoMock) ListVisible(_ context.Context, userID int) ([]MuscleGroup, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	groups := make([]MuscleGroup, 0)
	for _, g := range r.Groups {
		if g.UserID == userID || g.IsPublic {
			groups = append(groups, *g)
		}
	}
	sort.Slice(groups, func(i, j int) bool {
		iOwn := groups[i].UserID == userID
		jOwn := groups[j].UserID == userID
		if iOwn != jOwn {
			return iOwn
		}
		return groups[i].Name < groups[j].Name
	})
	return groups, nil
}

func (r *RepoMock) Get(_ context.Context, id int) (*MuscleGroup, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	g, ok := r.Groups[id]
	if !ok {
		return nil, ErrGroupNotFound
	}
	groupCopy := *g
	return &groupCopy, nil
}

func (r *RepoMock) GetOwnByName(_ context.Context, userID int, name string) (*MuscleGroup, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, g := range r.Groups {
		if g.UserID == userID && g.Name == name {
			groupCopy := *g
			return &groupCopy, nil
		}
	}
	return nil, ErrGroupNotFound
}

func (r *RepoMock) Add(_ context.Context, group MuscleGroup) (*MuscleGroup, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	group.ID = r.nextID
	r.nextID++
	group.CreatedAt = time.Now()
	group.UpdatedAt = group.CreatedAt
	r.Groups[group.ID] = &group

	groupCopy := group
	return &groupCopy, nil
}

func (r *RepoMock) Update(_ context.Context, group *MuscleGroup) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.Groups[group.ID]; !ok {
		return ErrGroupNotFound
	}
	groupCopy := *group
	groupCopy.UpdatedAt = time.Now()
	r.Groups[group.ID] = &groupCopy
	return nil
}

func (r *RepoMock) Delete(_ context.Context, id int) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.Groups[id]; !ok {
		return ErrGroupNotFound
	}
	delete(r.Groups, id)
	return nil
}

func (r *RepoMock) TemplatesCount(_ context.Context, groupID int) (int, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return r.TemplateCounts[groupID], nil
}

package users

import (
	"context"
	"sync"
)

var _ usersRepo = (*repoMock)(nil)

type repoMock struct {
	Users       map[int]*User
	SeededUsers []int
	nextID      int
	mutex       sync.Mutex
}

func newRepoMock() *repoMock {
	return &repoMock{
		Users:  make(map[int]*User),
		nextID: 1,
	}
}

func (r *repoMock) GetByEmail(_ context.Context, email string) (*User, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, u := range r.Users {
		if u.Email == email {
			userCopy := *u
			return &userCopy, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *repoMock) GetByID(_ context.Context, id int) (*User, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	u, ok := r.Users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	userCopy := *u
	return &userCopy, nil
}

func (r *repoMock) Add(_ context.Context, user User) (*User, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	user.ID = r.nextID
	r.nextID++
	r.Users[user.ID] = &user

	userCopy := user
	return &userCopy, nil
}

func (r *repoMock) SeedDefaultTaxonomy(_ context.Context, userID int) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.SeededUsers = append(r.SeededUsers, userID)
	return nil
}

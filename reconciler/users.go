package reconciler

import (
	"context"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/arkantrust/dealership-admin/backend/models"
)

// Users returns the admin user accounts in id order.
func (r *Reconciler) Users() []models.User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedUsers(r.users)
}

// User returns ErrUserNotFound for an unknown id.
func (r *Reconciler) User(id int64) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	return u, nil
}

// CreateUser stores u under the next unused id. User changes never touch stock.
func (r *Reconciler) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	if err := u.Validate(); err != nil {
		return models.User{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	u.ID = nextID(r.users)
	tx := &txn{}
	r.editUsers(tx)[u.ID] = u
	r.record(tx, UserCreated, strconv.FormatInt(u.ID, 10))
	if err := r.commit(ctx, tx); err != nil {
		return models.User{}, err
	}
	log.Info().Int64("userId", u.ID).Str("role", u.Role).Msg("User created")
	return u, nil
}

// UpdateUser replaces every field of user id except the id.
func (r *Reconciler) UpdateUser(ctx context.Context, id int64, u models.User) (models.User, error) {
	if err := u.Validate(); err != nil {
		return models.User{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return models.User{}, ErrUserNotFound
	}
	u.ID = id
	tx := &txn{}
	r.editUsers(tx)[id] = u
	r.record(tx, UserUpdated, strconv.FormatInt(id, 10))
	if err := r.commit(ctx, tx); err != nil {
		return models.User{}, err
	}
	log.Info().Int64("userId", id).Msg("User updated")
	return u, nil
}

// DeleteUser is a no-op for unknown ids.
func (r *Reconciler) DeleteUser(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return nil
	}
	tx := &txn{}
	delete(r.editUsers(tx), id)
	r.record(tx, UserDeleted, strconv.FormatInt(id, 10))
	if err := r.commit(ctx, tx); err != nil {
		return err
	}
	log.Info().Int64("userId", id).Msg("User deleted")
	return nil
}

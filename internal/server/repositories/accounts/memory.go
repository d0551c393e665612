package accounts

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/shopauth/internal/common"
	"github.com/dmitrijs2005/shopauth/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps accounts in process memory. It is meant for local
// runs and tests; data is lost on restart.
type MemoryRepository struct {
	mu       sync.RWMutex
	byID     map[string]models.Account
	byEmail  map[string]string
	byMobile map[string]string
	now      func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:     make(map[string]models.Account),
		byEmail:  make(map[string]string),
		byMobile: make(map[string]string),
		now:      time.Now,
	}
}

func (r *MemoryRepository) Create(_ context.Context, account *models.Account) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[account.Email]; ok {
		return nil, common.ErrEmailTaken
	}
	if account.Mobile != "" {
		if _, ok := r.byMobile[account.Mobile]; ok {
			return nil, common.ErrMobileTaken
		}
	}

	now := r.now()
	account.ID = uuid.New().String()
	account.CreatedAt = now
	account.UpdatedAt = now

	r.byID[account.ID] = clone(*account)
	r.byEmail[account.Email] = account.ID
	if account.Mobile != "" {
		r.byMobile[account.Mobile] = account.ID
	}
	return account, nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.get(id)
}

func (r *MemoryRepository) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.get(r.byEmail[email])
}

func (r *MemoryRepository) GetByMobile(_ context.Context, mobile string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if mobile == "" {
		return nil, common.ErrorNotFound
	}
	return r.get(r.byMobile[mobile])
}

func (r *MemoryRepository) UpdatePassword(_ context.Context, id string, passwordHash []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	a.PasswordHash = append([]byte(nil), passwordHash...)
	a.UpdatedAt = r.now()
	r.byID[id] = a
	return nil
}

func (r *MemoryRepository) UpdateRole(_ context.Context, id string, role models.Role, passwordHash []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	a.Role = role
	a.PasswordHash = append([]byte(nil), passwordHash...)
	a.UpdatedAt = r.now()
	r.byID[id] = a
	return nil
}

func (r *MemoryRepository) get(id string) (*models.Account, error) {
	a, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := clone(a)
	return &c, nil
}

func clone(a models.Account) models.Account {
	if a.PasswordHash != nil {
		a.PasswordHash = append([]byte(nil), a.PasswordHash...)
	}
	return a
}

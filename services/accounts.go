package services

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tuanhandsomes/web-upload-image/models"
	"github.com/tuanhandsomes/web-upload-image/store"
)

const (
	defaultAccountsPerPage = 10
	maxAccountsPerPage     = 100
)

// AccountService manages login accounts.
type AccountService struct {
	accounts store.Collection[models.Account]
	hasher   PasswordHasher
	now      func() time.Time
}

func NewAccountService(ds store.DataStore, hasher PasswordHasher) *AccountService {
	return &AccountService{
		accounts: ds.Accounts(),
		hasher:   hasher,
		now:      time.Now,
	}
}

// Create stores a new account with a hashed password. Username and email are
// checked for case-insensitive uniqueness independently.
func (s *AccountService) Create(ctx context.Context, req models.CreateAccountRequest) (*models.Account, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)

	all, err := s.accounts.List(ctx, nil)
	if err != nil {
		return nil, storeError(err, ErrAccountNotFound)
	}
	if err := checkAccountUnique(all, "", username, email); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	account := models.Account{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         req.Role,
		Status:       req.Status,
		CreatedAt:    s.now().UTC(),
	}
	if account.Role == "" {
		account.Role = models.RoleUser
	}
	if account.Status == "" {
		account.Status = models.AccountActive
	}

	stored, err := s.accounts.Create(ctx, account)
	if err != nil {
		return nil, accountConflict(storeError(err, ErrAccountNotFound))
	}

	log.Printf("Created account: %s (ID: %s, role=%s)", stored.Username, stored.ID, stored.Role)
	pub := stored.Public()
	return &pub, nil
}

// Update merges the supplied fields into the account. Admin accounts cannot be
// moved to inactive, whoever performs the edit.
func (s *AccountService) Update(ctx context.Context, id string, req models.UpdateAccountRequest) (*models.Account, error) {
	current, err := s.accounts.Get(ctx, id)
	if err != nil {
		return nil, storeError(err, ErrAccountNotFound)
	}

	updated := current
	if req.Username != nil {
		updated.Username = strings.TrimSpace(*req.Username)
	}
	if req.Email != nil {
		updated.Email = strings.TrimSpace(*req.Email)
	}
	if req.Role != nil {
		updated.Role = *req.Role
	}
	if req.Status != nil {
		updated.Status = *req.Status
	}

	if req.Status != nil && *req.Status == models.AccountInactive &&
		(current.Role == models.RoleAdmin || updated.Role == models.RoleAdmin) {
		return nil, ErrSelfDeactivation
	}

	if !strings.EqualFold(updated.Username, current.Username) || !strings.EqualFold(updated.Email, current.Email) {
		all, err := s.accounts.List(ctx, nil)
		if err != nil {
			return nil, storeError(err, ErrAccountNotFound)
		}
		if err := checkAccountUnique(all, id, updated.Username, updated.Email); err != nil {
			return nil, err
		}
	}

	// The edit form sends the stored hash back when the password is untouched.
	if req.Password != nil && *req.Password != "" && *req.Password != current.PasswordHash {
		hash, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, err
		}
		updated.PasswordHash = hash
	}

	stored, err := s.accounts.Replace(ctx, id, updated)
	if err != nil {
		return nil, accountConflict(storeError(err, ErrAccountNotFound))
	}

	log.Printf("Updated account: %s (ID: %s)", stored.Username, stored.ID)
	pub := stored.Public()
	return &pub, nil
}

// Delete removes an account. The caller can never delete itself.
func (s *AccountService) Delete(ctx context.Context, id string, session Session) error {
	if id == session.UserID {
		return ErrSelfDelete
	}

	if err := s.accounts.Delete(ctx, id); err != nil {
		return storeError(err, ErrAccountNotFound)
	}

	log.Printf("Deleted account: %s (by %s)", id, session.UserID)
	return nil
}

func (s *AccountService) Get(ctx context.Context, id string) (*models.Account, error) {
	account, err := s.accounts.Get(ctx, id)
	if err != nil {
		return nil, storeError(err, ErrAccountNotFound)
	}
	pub := account.Public()
	return &pub, nil
}

// Authenticate finds an active account with the required role by username or
// email and checks its password. Every failure reports ErrInvalidCredentials.
func (s *AccountService) Authenticate(ctx context.Context, identifier, password string, role models.Role) (*models.Account, error) {
	identifier = strings.TrimSpace(identifier)

	candidates, err := s.accounts.List(ctx, store.Eq("username", identifier))
	if err != nil {
		return nil, storeError(err, ErrInvalidCredentials)
	}
	if len(candidates) == 0 {
		candidates, err = s.accounts.List(ctx, store.Eq("email", identifier))
		if err != nil {
			return nil, storeError(err, ErrInvalidCredentials)
		}
	}

	for _, account := range candidates {
		if account.Role != role || account.Status != models.AccountActive {
			continue
		}
		ok, legacy := s.hasher.Verify(account.PasswordHash, password)
		if !ok {
			continue
		}
		if legacy {
			s.upgradeLegacyPassword(ctx, account, password)
		}
		pub := account.Public()
		return &pub, nil
	}

	return nil, ErrInvalidCredentials
}

func (s *AccountService) upgradeLegacyPassword(ctx context.Context, account models.Account, password string) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		log.Printf("Authenticate: failed to hash legacy password for %s: %v", account.ID, err)
		return
	}
	account.PasswordHash = hash
	if _, err := s.accounts.Replace(ctx, account.ID, account); err != nil {
		log.Printf("Authenticate: failed to upgrade legacy password for %s: %v", account.ID, err)
		return
	}
	log.Printf("Authenticate: upgraded legacy password for %s", account.ID)
}

// List returns one page of accounts, newest first.
func (s *AccountService) List(ctx context.Context, q models.AccountQuery) (*models.AccountsResponse, error) {
	all, err := s.accounts.List(ctx, nil)
	if err != nil {
		return nil, storeError(err, ErrAccountNotFound)
	}

	search := strings.ToLower(strings.TrimSpace(q.Search))
	matched := []models.Account{}
	for _, a := range all {
		if q.Role != "" && a.Role != q.Role {
			continue
		}
		if q.Status != "" && a.Status != q.Status {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(a.Username), search) &&
			!strings.Contains(strings.ToLower(a.Email), search) {
			continue
		}
		matched = append(matched, a.Public())
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	perPage := validateLimit(q.PerPage, defaultAccountsPerPage, maxAccountsPerPage)
	p := paginate(len(matched), q.Page, perPage)

	return &models.AccountsResponse{
		Accounts:   matched[p.start:p.end],
		Total:      len(matched),
		Page:       p.page,
		PerPage:    perPage,
		TotalPages: p.totalPages,
	}, nil
}

// EnsureAdmin creates an admin account unless one with the same username
// already exists. It reports whether an account was created.
func (s *AccountService) EnsureAdmin(ctx context.Context, username, email, password string) (bool, error) {
	all, err := s.accounts.List(ctx, nil)
	if err != nil {
		return false, storeError(err, ErrAccountNotFound)
	}
	for _, a := range all {
		if strings.EqualFold(a.Username, username) {
			return false, nil
		}
	}

	_, err = s.Create(ctx, models.CreateAccountRequest{
		Username: username,
		Email:    email,
		Password: password,
		Role:     models.RoleAdmin,
		Status:   models.AccountActive,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func checkAccountUnique(all []models.Account, selfID, username, email string) error {
	for _, a := range all {
		if a.ID != selfID && strings.EqualFold(a.Username, username) {
			return ErrDuplicateUsername
		}
	}
	for _, a := range all {
		if a.ID != selfID && strings.EqualFold(a.Email, email) {
			return ErrDuplicateEmail
		}
	}
	return nil
}

func accountConflict(err error) error {
	var conflict *store.ConflictError
	if !errors.As(err, &conflict) {
		return err
	}
	switch conflict.Field {
	case "username":
		return ErrDuplicateUsername.wrap(err)
	case "email":
		return ErrDuplicateEmail.wrap(err)
	}
	return err
}

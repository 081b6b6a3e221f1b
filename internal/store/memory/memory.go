package memory

import (
	"context"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"staffledger/backend/internal/domain"
	"staffledger/backend/internal/store"
	"staffledger/backend/internal/xid"
)

type Store struct {
	mu                  sync.RWMutex
	staffByID           map[string]domain.StaffMember
	entitlementsByStaff map[string][]domain.SalaryEntitlement
	transactionsByStaff map[string][]domain.SalaryTransaction
	auditLogs           []domain.AuditLog
	usersByUsername     map[string]domain.UserAccount
}

// seedUsers builds the initial in-memory operator accounts for dev/demo mode.
// The password is read from SEED_ADMIN_PASSWORD; a hardcoded dev default is
// used with a warning when unset. Production deployments use PostgreSQL.
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD to override.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPwd), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("[memory-store] failed to hash seed password: %v", err)
	}

	return map[string]domain.UserAccount{
		"admin": {
			Username:  "admin",
			Password:  string(hash),
			Role:      domain.RoleAdmin,
			Active:    true,
			CreatedAt: time.Now().UTC(),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func NewSeeded() *Store {
	now := time.Now().UTC()
	staff := []domain.StaffMember{
		{ID: "staff-budi", Name: "Budi Hartono", Role: domain.RoleStaff, Active: true, CreatedAt: now},
		{ID: "staff-sari", Name: "Sari Wulandari", Role: domain.RoleStaff, Active: true, CreatedAt: now},
		{ID: "staff-agus", Name: "Agus Prasetyo", Role: domain.RoleAdmin, Active: true, CreatedAt: now},
		{ID: "staff-owner", Name: "Pak Owner", Role: domain.RoleSuper, Active: true, CreatedAt: now},
	}

	staffMap := make(map[string]domain.StaffMember, len(staff))
	for _, member := range staff {
		staffMap[member.ID] = member
	}

	firstOfLastMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	entitlements := map[string][]domain.SalaryEntitlement{
		"staff-budi": {{
			ID:            "ent-budi",
			StaffID:       "staff-budi",
			MonthlySalary: decimal.NewFromInt(2500000),
			EffectiveDate: firstOfLastMonth,
			CreatedAt:     now,
		}},
		"staff-sari": {{
			ID:            "ent-sari",
			StaffID:       "staff-sari",
			MonthlySalary: decimal.NewFromInt(2200000),
			EffectiveDate: firstOfLastMonth,
			CreatedAt:     now,
		}},
	}

	return &Store{
		staffByID:           staffMap,
		entitlementsByStaff: entitlements,
		transactionsByStaff: make(map[string][]domain.SalaryTransaction),
		auditLogs:           make([]domain.AuditLog, 0, 128),
		usersByUsername:     seedUsers(),
	}
}

func New() *Store {
	return &Store{
		staffByID:           make(map[string]domain.StaffMember),
		entitlementsByStaff: make(map[string][]domain.SalaryEntitlement),
		transactionsByStaff: make(map[string][]domain.SalaryTransaction),
		auditLogs:           make([]domain.AuditLog, 0, 128),
		usersByUsername:     make(map[string]domain.UserAccount),
	}
}

func (s *Store) CreateStaff(_ context.Context, staff domain.StaffMember) (*domain.StaffMember, error) {
	if staff.ID == "" || staff.Name == "" {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.staffByID[staff.ID]; exists {
		return nil, store.ErrInvalidInput
	}
	s.staffByID[staff.ID] = staff
	created := staff
	return &created, nil
}

func (s *Store) GetStaffByID(_ context.Context, id string) (*domain.StaffMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	staff, exists := s.staffByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	found := staff
	return &found, nil
}

func (s *Store) UpdateStaff(_ context.Context, staff domain.StaffMember) (*domain.StaffMember, error) {
	if staff.ID == "" || staff.Name == "" {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.staffByID[staff.ID]; !exists {
		return nil, store.ErrNotFound
	}
	s.staffByID[staff.ID] = staff
	updated := staff
	return &updated, nil
}

func (s *Store) ListStaff(_ context.Context) ([]domain.StaffMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.StaffMember, 0, len(s.staffByID))
	for _, staff := range s.staffByID {
		result = append(result, staff)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}

func (s *Store) SetEntitlement(_ context.Context, ent domain.SalaryEntitlement) (*domain.SalaryEntitlement, error) {
	if ent.StaffID == "" || ent.MonthlySalary.IsNegative() {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.staffByID[ent.StaffID]; !exists {
		return nil, store.ErrNotFound
	}
	// Append keeps the superseded history; the last record is active.
	s.entitlementsByStaff[ent.StaffID] = append(s.entitlementsByStaff[ent.StaffID], ent)
	created := ent
	return &created, nil
}

func (s *Store) GetActiveEntitlement(_ context.Context, staffID string) (*domain.SalaryEntitlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.entitlementsByStaff[staffID]
	if len(history) == 0 {
		return nil, store.ErrNotFound
	}
	active := history[len(history)-1]
	return &active, nil
}

func (s *Store) AppendTransaction(_ context.Context, tx domain.SalaryTransaction) (*domain.SalaryTransaction, error) {
	if tx.ID == "" || tx.StaffID == "" {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.staffByID[tx.StaffID]; !exists {
		return nil, store.ErrNotFound
	}
	s.transactionsByStaff[tx.StaffID] = append(s.transactionsByStaff[tx.StaffID], tx)
	created := tx
	return &created, nil
}

func (s *Store) ListTransactionsByStaff(_ context.Context, staffID string) ([]domain.SalaryTransaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	txs := s.transactionsByStaff[staffID]
	result := make([]domain.SalaryTransaction, len(txs))
	copy(result, txs)
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})
	return result, nil
}

func (s *Store) CreateAuditLog(_ context.Context, entry domain.AuditLog) error {
	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.auditLogs = append(s.auditLogs, entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.AuditLog, 0, limit)
	for i := len(s.auditLogs) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, s.auditLogs[i])
	}
	return result, nil
}

func (s *Store) CreateUser(_ context.Context, user domain.UserAccount) error {
	username := strings.ToLower(strings.TrimSpace(user.Username))
	if username == "" || user.Password == "" {
		return store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByUsername[username]; exists {
		return store.ErrInvalidInput
	}
	user.Username = username
	s.usersByUsername[username] = user
	return nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		result = append(result, user)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Username < result[j].Username
	})
	return result, nil
}

func (s *Store) UpdateUserPassword(_ context.Context, username string, password string) error {
	username = strings.ToLower(strings.TrimSpace(username))

	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.usersByUsername[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	return nil
}

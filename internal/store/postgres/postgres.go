package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"staffledger/backend/internal/domain"
	"staffledger/backend/internal/store"
	"staffledger/backend/internal/xid"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS staff (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			role TEXT NOT NULL,
			active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS salary_entitlements (
			id TEXT PRIMARY KEY,
			staff_id TEXT NOT NULL REFERENCES staff(id),
			monthly_salary NUMERIC(14,2) NOT NULL,
			effective_date DATE,
			note TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_entitlements_staff ON salary_entitlements (staff_id, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS salary_transactions (
			id TEXT PRIMARY KEY,
			staff_id TEXT NOT NULL REFERENCES staff(id),
			amount NUMERIC(14,2) NOT NULL,
			type TEXT NOT NULL,
			tx_date DATE,
			overtime_hours NUMERIC(8,2) NOT NULL DEFAULT 0,
			overtime_rate NUMERIC(14,2) NOT NULL DEFAULT 0,
			note TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_staff_date ON salary_transactions (staff_id, tx_date)`,
		`CREATE TABLE IF NOT EXISTS audit_logs (
			id TEXT PRIMARY KEY,
			actor_username TEXT NOT NULL,
			actor_role TEXT NOT NULL,
			action TEXT NOT NULL,
			entity_type TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			detail TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			username TEXT PRIMARY KEY,
			password TEXT NOT NULL,
			role TEXT NOT NULL,
			active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) CreateStaff(ctx context.Context, staff domain.StaffMember) (*domain.StaffMember, error) {
	if staff.ID == "" || staff.Name == "" {
		return nil, store.ErrInvalidInput
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO staff (id, name, role, active, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, staff.ID, staff.Name, staff.Role, staff.Active, staff.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidInput
		}
		return nil, err
	}

	created := staff
	return &created, nil
}

func (s *Store) GetStaffByID(ctx context.Context, id string) (*domain.StaffMember, error) {
	var staff domain.StaffMember
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, role, active, created_at
		FROM staff
		WHERE id = $1
	`, id).Scan(&staff.ID, &staff.Name, &staff.Role, &staff.Active, &staff.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	staff.CreatedAt = staff.CreatedAt.UTC()
	return &staff, nil
}

func (s *Store) UpdateStaff(ctx context.Context, staff domain.StaffMember) (*domain.StaffMember, error) {
	if staff.ID == "" || staff.Name == "" {
		return nil, store.ErrInvalidInput
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE staff
		SET name = $2, role = $3, active = $4
		WHERE id = $1
	`, staff.ID, staff.Name, staff.Role, staff.Active)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}

	updated := staff
	return &updated, nil
}

func (s *Store) ListStaff(ctx context.Context) ([]domain.StaffMember, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, role, active, created_at
		FROM staff
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	staff := make([]domain.StaffMember, 0, 32)
	for rows.Next() {
		var member domain.StaffMember
		if err := rows.Scan(&member.ID, &member.Name, &member.Role, &member.Active, &member.CreatedAt); err != nil {
			return nil, err
		}
		member.CreatedAt = member.CreatedAt.UTC()
		staff = append(staff, member)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return staff, nil
}

func (s *Store) SetEntitlement(ctx context.Context, ent domain.SalaryEntitlement) (*domain.SalaryEntitlement, error) {
	if ent.StaffID == "" || ent.MonthlySalary.IsNegative() {
		return nil, store.ErrInvalidInput
	}
	if ent.ID == "" {
		ent.ID = xid.New("ent")
	}

	var effectiveDate any
	if !ent.EffectiveDate.IsZero() {
		effectiveDate = ent.EffectiveDate
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO salary_entitlements (id, staff_id, monthly_salary, effective_date, note, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, ent.ID, ent.StaffID, ent.MonthlySalary, effectiveDate, ent.Note, ent.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	created := ent
	return &created, nil
}

func (s *Store) GetActiveEntitlement(ctx context.Context, staffID string) (*domain.SalaryEntitlement, error) {
	var ent domain.SalaryEntitlement
	var effectiveDate sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT id, staff_id, monthly_salary, effective_date, note, created_at
		FROM salary_entitlements
		WHERE staff_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, staffID).Scan(&ent.ID, &ent.StaffID, &ent.MonthlySalary, &effectiveDate, &ent.Note, &ent.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if effectiveDate.Valid {
		ent.EffectiveDate = effectiveDate.Time.UTC()
	}
	ent.CreatedAt = ent.CreatedAt.UTC()
	return &ent, nil
}

func (s *Store) AppendTransaction(ctx context.Context, tx domain.SalaryTransaction) (*domain.SalaryTransaction, error) {
	if tx.ID == "" || tx.StaffID == "" {
		return nil, store.ErrInvalidInput
	}

	var txDate any
	if !tx.Date.IsZero() {
		txDate = tx.Date
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO salary_transactions (id, staff_id, amount, type, tx_date, overtime_hours, overtime_rate, note, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, tx.ID, tx.StaffID, tx.Amount, tx.Type, txDate, tx.OvertimeHours, tx.OvertimeRate, tx.Note, tx.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, store.ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidInput
		}
		return nil, err
	}

	created := tx
	return &created, nil
}

func (s *Store) ListTransactionsByStaff(ctx context.Context, staffID string) ([]domain.SalaryTransaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, staff_id, amount, type, tx_date, overtime_hours, overtime_rate, note, created_at
		FROM salary_transactions
		WHERE staff_id = $1
		ORDER BY tx_date NULLS FIRST, created_at
	`, staffID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txs := make([]domain.SalaryTransaction, 0, 64)
	for rows.Next() {
		var tx domain.SalaryTransaction
		var txDate sql.NullTime
		if err := rows.Scan(&tx.ID, &tx.StaffID, &tx.Amount, &tx.Type, &txDate, &tx.OvertimeHours, &tx.OvertimeRate, &tx.Note, &tx.CreatedAt); err != nil {
			return nil, err
		}
		if txDate.Valid {
			tx.Date = txDate.Time.UTC()
		}
		tx.CreatedAt = tx.CreatedAt.UTC()
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return txs, nil
}

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	if entry.ID == "" {
		entry.ID = xid.New("audit")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, entry.ID, entry.ActorUsername, entry.ActorRole, entry.Action, entry.EntityType, entry.EntityID, entry.Detail, entry.CreatedAt)
	return err
}

func (s *Store) ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, actor_username, actor_role, action, entity_type, entity_id, detail, created_at
		FROM audit_logs
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]domain.AuditLog, 0, limit)
	for rows.Next() {
		var entry domain.AuditLog
		if err := rows.Scan(&entry.ID, &entry.ActorUsername, &entry.ActorRole, &entry.Action, &entry.EntityType, &entry.EntityID, &entry.Detail, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.CreatedAt = entry.CreatedAt.UTC()
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	if user.Username == "" || user.Password == "" {
		return store.ErrInvalidInput
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password, role, active, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, user.Username, user.Password, user.Role, user.Active, user.CreatedAt)
	if err != nil && isUniqueViolation(err) {
		return store.ErrInvalidInput
	}
	return err
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM users
		ORDER BY username
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		user.CreatedAt = user.CreatedAt.UTC()
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET password = $2 WHERE username = $1
	`, username, password)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

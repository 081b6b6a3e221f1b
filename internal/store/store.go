package store

import (
	"context"
	"errors"

	"staffledger/backend/internal/domain"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
)

type Repository interface {
	CreateStaff(ctx context.Context, staff domain.StaffMember) (*domain.StaffMember, error)
	GetStaffByID(ctx context.Context, id string) (*domain.StaffMember, error)
	UpdateStaff(ctx context.Context, staff domain.StaffMember) (*domain.StaffMember, error)
	ListStaff(ctx context.Context) ([]domain.StaffMember, error)

	SetEntitlement(ctx context.Context, ent domain.SalaryEntitlement) (*domain.SalaryEntitlement, error)
	GetActiveEntitlement(ctx context.Context, staffID string) (*domain.SalaryEntitlement, error)

	AppendTransaction(ctx context.Context, tx domain.SalaryTransaction) (*domain.SalaryTransaction, error)
	ListTransactionsByStaff(ctx context.Context, staffID string) ([]domain.SalaryTransaction, error)

	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error)

	CreateUser(ctx context.Context, user domain.UserAccount) error
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error
}

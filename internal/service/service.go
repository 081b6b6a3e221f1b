package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"staffledger/backend/internal/cache"
	"staffledger/backend/internal/domain"
	"staffledger/backend/internal/events"
	"staffledger/backend/internal/payroll"
	"staffledger/backend/internal/store"
	"staffledger/backend/internal/xid"
)

const dashboardCacheKey = "dashboard:salary"

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo      store.Repository
	dashboard cache.DashboardCache
	publisher events.Publisher
	cacheTTL  time.Duration
	refresher *refresher
}

func New(repo store.Repository, dashboardCache cache.DashboardCache, publisher events.Publisher, cacheTTL time.Duration, recomputeDebounce time.Duration) *Service {
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if dashboardCache == nil {
		dashboardCache = cache.NoopDashboardCache{}
	}

	s := &Service{
		repo:      repo,
		dashboard: dashboardCache,
		publisher: publisher,
		cacheTTL:  cacheTTL,
	}
	s.refresher = newRefresher(recomputeDebounce, s.refreshDashboard)
	return s
}

func (s *Service) CreateStaff(ctx context.Context, req domain.StaffCreateRequest) (domain.StaffMember, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return domain.StaffMember{}, fmt.Errorf("admin role required")
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Role = strings.ToLower(strings.TrimSpace(req.Role))
	if req.Role == "" {
		req.Role = domain.RoleStaff
	}
	if req.Name == "" || !domain.IsValidStaffRole(req.Role) {
		return domain.StaffMember{}, store.ErrInvalidInput
	}

	member := domain.StaffMember{
		ID:        xid.New("staff"),
		Name:      req.Name,
		Role:      req.Role,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	created, err := s.repo.CreateStaff(ctx, member)
	if err != nil {
		return domain.StaffMember{}, err
	}

	s.logAudit(ctx, "staff_create", "staff", created.ID, fmt.Sprintf("name=%s,role=%s", created.Name, created.Role))
	s.refresher.Trigger()
	return *created, nil
}

func (s *Service) UpdateStaff(ctx context.Context, staffID string, req domain.StaffUpdateRequest) (domain.StaffMember, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return domain.StaffMember{}, fmt.Errorf("admin role required")
	}

	staffID = strings.TrimSpace(staffID)
	if staffID == "" {
		return domain.StaffMember{}, store.ErrInvalidInput
	}

	existing, err := s.repo.GetStaffByID(ctx, staffID)
	if err != nil {
		return domain.StaffMember{}, err
	}

	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.StaffMember{}, store.ErrInvalidInput
		}
		updated.Name = name
	}
	if req.Role != nil {
		role := strings.ToLower(strings.TrimSpace(*req.Role))
		if !domain.IsValidStaffRole(role) {
			return domain.StaffMember{}, store.ErrInvalidInput
		}
		updated.Role = role
	}
	if req.Active != nil {
		updated.Active = *req.Active
	}

	saved, err := s.repo.UpdateStaff(ctx, updated)
	if err != nil {
		return domain.StaffMember{}, err
	}

	s.logAudit(ctx, "staff_update", "staff", saved.ID, fmt.Sprintf("role=%s,active=%t", saved.Role, saved.Active))
	s.refresher.Trigger()
	return *saved, nil
}

func (s *Service) ListStaff(ctx context.Context) (domain.StaffListResponse, error) {
	staff, err := s.repo.ListStaff(ctx)
	if err != nil {
		return domain.StaffListResponse{}, err
	}
	return domain.StaffListResponse{Staff: staff}, nil
}

func (s *Service) SetEntitlement(ctx context.Context, staffID string, req domain.EntitlementSetRequest) (domain.EntitlementResponse, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return domain.EntitlementResponse{}, fmt.Errorf("admin role required")
	}

	staffID = strings.TrimSpace(staffID)
	if staffID == "" || req.MonthlySalary.IsNegative() {
		return domain.EntitlementResponse{}, store.ErrInvalidInput
	}

	// A blank effective date is stored as zero; the reconciler substitutes
	// "now" at read time, so no retroactive carryover accrues.
	var effectiveDate time.Time
	if trimmed := strings.TrimSpace(req.EffectiveDate); trimmed != "" {
		parsed, err := time.Parse("2006-01-02", trimmed)
		if err != nil {
			return domain.EntitlementResponse{}, store.ErrInvalidInput
		}
		effectiveDate = parsed.UTC()
	}

	ent := domain.SalaryEntitlement{
		ID:            xid.New("ent"),
		StaffID:       staffID,
		MonthlySalary: req.MonthlySalary,
		EffectiveDate: effectiveDate,
		Note:          strings.TrimSpace(req.Note),
		CreatedAt:     time.Now().UTC(),
	}
	saved, err := s.repo.SetEntitlement(ctx, ent)
	if err != nil {
		return domain.EntitlementResponse{}, err
	}

	s.logAudit(ctx, "entitlement_set", "entitlement", saved.ID, fmt.Sprintf("staff=%s,salary=%s,effective=%s", staffID, saved.MonthlySalary, req.EffectiveDate))
	s.refresher.Trigger()
	return domain.EntitlementResponse{Entitlement: *saved}, nil
}

func (s *Service) GetEntitlement(ctx context.Context, staffID string) (domain.EntitlementResponse, error) {
	staffID = strings.TrimSpace(staffID)
	if staffID == "" {
		return domain.EntitlementResponse{}, store.ErrInvalidInput
	}

	ent, err := s.repo.GetActiveEntitlement(ctx, staffID)
	if err != nil {
		return domain.EntitlementResponse{}, err
	}
	return domain.EntitlementResponse{Entitlement: *ent}, nil
}

// RecordPayment appends a salary transaction. The caller supplies a positive
// magnitude; repayment and fine are negated here before they reach the ledger
// so every downstream consumer sees the signed convention.
func (s *Service) RecordPayment(ctx context.Context, staffID string, req domain.PaymentRecordRequest) (domain.PaymentRecordResponse, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return domain.PaymentRecordResponse{}, fmt.Errorf("admin role required")
	}

	staffID = strings.TrimSpace(staffID)
	req.Type = strings.ToLower(strings.TrimSpace(req.Type))
	if staffID == "" || !domain.IsValidTxType(req.Type) {
		return domain.PaymentRecordResponse{}, store.ErrInvalidInput
	}
	if !req.Amount.IsPositive() {
		return domain.PaymentRecordResponse{}, store.ErrInvalidInput
	}
	if req.OvertimeHours.IsNegative() || req.OvertimeRate.IsNegative() {
		return domain.PaymentRecordResponse{}, store.ErrInvalidInput
	}

	txDate := time.Now().UTC()
	if trimmed := strings.TrimSpace(req.Date); trimmed != "" {
		parsed, err := time.Parse("2006-01-02", trimmed)
		if err != nil {
			return domain.PaymentRecordResponse{}, store.ErrInvalidInput
		}
		txDate = parsed.UTC()
	}

	amount := req.Amount
	if domain.IsDeduction(req.Type) {
		amount = amount.Neg()
	}

	overtimeHours := decimal.Zero
	overtimeRate := decimal.Zero
	if req.Type == domain.TxTypeOvertime {
		overtimeHours = req.OvertimeHours
		overtimeRate = req.OvertimeRate
	}

	tx := domain.SalaryTransaction{
		ID:            xid.New("tx"),
		StaffID:       staffID,
		Amount:        amount,
		Type:          req.Type,
		Date:          txDate,
		OvertimeHours: overtimeHours,
		OvertimeRate:  overtimeRate,
		Note:          strings.TrimSpace(req.Note),
		CreatedAt:     time.Now().UTC(),
	}
	created, err := s.repo.AppendTransaction(ctx, tx)
	if err != nil {
		return domain.PaymentRecordResponse{}, err
	}

	if err := s.publisher.PublishPaymentRecorded(domain.PaymentRecordedEvent{
		TransactionID: created.ID,
		StaffID:       created.StaffID,
		Amount:        created.Amount,
		Type:          created.Type,
		Date:          created.Date.Format("2006-01-02"),
		RecordedAt:    created.CreatedAt.Format(time.RFC3339),
	}); err != nil {
		log.Printf("[service] WARN: failed to publish payment event tx=%s: %v", created.ID, err)
	}

	s.logAudit(ctx, "payment_record", "transaction", created.ID, fmt.Sprintf("staff=%s,type=%s,amount=%s", staffID, created.Type, created.Amount))
	s.refresher.Trigger()
	return domain.PaymentRecordResponse{Transaction: *created}, nil
}

func (s *Service) ListPayments(ctx context.Context, staffID string) (domain.PaymentListResponse, error) {
	staffID = strings.TrimSpace(staffID)
	if staffID == "" {
		return domain.PaymentListResponse{}, store.ErrInvalidInput
	}

	txs, err := s.repo.ListTransactionsByStaff(ctx, staffID)
	if err != nil {
		return domain.PaymentListResponse{}, err
	}
	return domain.PaymentListResponse{Transactions: txs}, nil
}

// GetStaffCalculation reconciles one staff member against the current wall
// clock. A missing entitlement reconciles at zero salary: any payment in a
// completed month becomes a surplus.
func (s *Service) GetStaffCalculation(ctx context.Context, staffID string) (domain.CalculationResponse, error) {
	staffID = strings.TrimSpace(staffID)
	if staffID == "" {
		return domain.CalculationResponse{}, store.ErrInvalidInput
	}
	if _, err := s.repo.GetStaffByID(ctx, staffID); err != nil {
		return domain.CalculationResponse{}, err
	}

	calc, err := s.reconcileStaff(ctx, staffID, time.Now().UTC())
	if err != nil {
		return domain.CalculationResponse{}, err
	}
	return domain.CalculationResponse{Calculation: calc}, nil
}

func (s *Service) reconcileStaff(ctx context.Context, staffID string, now time.Time) (domain.StaffCalculation, error) {
	ent := domain.SalaryEntitlement{StaffID: staffID}
	if active, err := s.repo.GetActiveEntitlement(ctx, staffID); err == nil {
		ent = *active
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.StaffCalculation{}, err
	}

	txs, err := s.repo.ListTransactionsByStaff(ctx, staffID)
	if err != nil {
		return domain.StaffCalculation{}, err
	}

	return payroll.Reconcile(ent, txs, now), nil
}

// Dashboard serves the cached salary snapshot when present and rebuilds it
// synchronously on a miss. Stale reads between a mutation and the debounced
// refresh are acceptable; the next rebuild wins.
func (s *Service) Dashboard(ctx context.Context) (domain.SalaryDashboard, error) {
	if cached, found, err := s.dashboard.Get(ctx, dashboardCacheKey); err == nil && found {
		return *cached, nil
	} else if err != nil {
		log.Printf("[service] WARN: dashboard cache read failed: %v", err)
	}

	dashboard, err := s.buildDashboard(ctx, time.Now().UTC())
	if err != nil {
		return domain.SalaryDashboard{}, err
	}

	if err := s.dashboard.Set(ctx, dashboardCacheKey, &dashboard, s.cacheTTL); err != nil {
		log.Printf("[service] WARN: dashboard cache write failed: %v", err)
	}
	return dashboard, nil
}

func (s *Service) buildDashboard(ctx context.Context, now time.Time) (domain.SalaryDashboard, error) {
	staff, err := s.repo.ListStaff(ctx)
	if err != nil {
		return domain.SalaryDashboard{}, err
	}

	rows := make([]domain.StaffDashboardRow, 0, len(staff))
	calcs := make([]domain.StaffCalculation, 0, len(staff))
	for _, member := range staff {
		// Owners and other super accounts are not on payroll.
		if member.Role == domain.RoleSuper || !member.Active {
			continue
		}
		calc, err := s.reconcileStaff(ctx, member.ID, now)
		if err != nil {
			return domain.SalaryDashboard{}, err
		}
		rows = append(rows, domain.StaffDashboardRow{Staff: member, Calculation: calc})
		calcs = append(calcs, calc)
	}

	return domain.SalaryDashboard{
		Rows:         rows,
		Summary:      payroll.BuildFleetSummary(calcs),
		PayCycleWeek: payroll.PayCycleWeek(now),
		GeneratedAt:  now.Format(time.RFC3339),
	}, nil
}

// refreshDashboard is the debounced recompute target: it rebuilds the
// snapshot off the request path and replaces the cached copy.
func (s *Service) refreshDashboard() {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	dashboard, err := s.buildDashboard(ctx, time.Now().UTC())
	if err != nil {
		log.Printf("[service] WARN: dashboard refresh failed: %v", err)
		return
	}
	if err := s.dashboard.Set(ctx, dashboardCacheKey, &dashboard, s.cacheTTL); err != nil {
		log.Printf("[service] WARN: dashboard cache write failed: %v", err)
	}
}

func (s *Service) ListAuditLogs(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}
	return s.repo.ListAuditLogs(ctx, limit)
}

func (s *Service) logAudit(ctx context.Context, action string, entityType string, entityID string, detail string) {
	actor, _ := ActorFromContext(ctx)
	err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ID:            xid.New("audit"),
		ActorUsername: actor.Username,
		ActorRole:     actor.Role,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		Detail:        detail,
		CreatedAt:     time.Now().UTC(),
	})
	if err != nil {
		log.Printf("[service] WARN: failed to write audit log action=%s: %v", action, err)
	}
}

package service

import (
	"context"
	"fmt"
	"time"

	"crustalyst/internal/common/events"
	"crustalyst/internal/common/logger"
	"crustalyst/internal/common/metrics"
	"crustalyst/internal/domain"
	"crustalyst/internal/microservices/tables/repository"
)

type TablesServiceInterface interface {
	List(ctx context.Context) ([]domain.Table, error)
	Get(ctx context.Context, id int) (domain.Table, error)
	Claim(ctx context.Context, id int) (domain.Table, error)
	UpdateStatus(ctx context.Context, id int, status string) (domain.Table, error)
	Reset(ctx context.Context, id int) (domain.Table, error)
	SetCleaning(ctx context.Context, id int) (domain.Table, error)
	SetCallingStaff(ctx context.Context, id int) (domain.Table, error)
	Exit(ctx context.Context, id int, password string) (domain.CleanupReport, error)
	ReleaseExpired(ctx context.Context) (int, error)
}

// PasswordChecker verifies the shared staff password.
type PasswordChecker interface {
	CheckStaffPassword(password string) error
}

type Options struct {
	CleaningDelay time.Duration
	Metrics       *metrics.Metrics
	Logger        *logger.Logger
}

type TablesService struct {
	repo          repository.TablesRepositoryInterface
	emitter       *events.Emitter
	passwords     PasswordChecker
	cleaningDelay time.Duration
	m             *metrics.Metrics
	lg            *logger.Logger
	now           func() time.Time
}

func NewTablesService(repo repository.TablesRepositoryInterface, emitter *events.Emitter, passwords PasswordChecker, opts Options) *TablesService {
	if opts.CleaningDelay <= 0 {
		opts.CleaningDelay = 5 * time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = logger.New("tables")
	}
	return &TablesService{
		repo:          repo,
		emitter:       emitter,
		passwords:     passwords,
		cleaningDelay: opts.CleaningDelay,
		m:             opts.Metrics,
		lg:            opts.Logger,
		now:           time.Now,
	}
}

func (s *TablesService) List(ctx context.Context) ([]domain.Table, error) {
	return s.repo.List(ctx)
}

func (s *TablesService) Get(ctx context.Context, id int) (domain.Table, error) {
	return s.repo.Get(ctx, id)
}

// Claim succeeds only for an empty table; anything else is ErrTableUnavailable.
func (s *TablesService) Claim(ctx context.Context, id int) (domain.Table, error) {
	t, err := s.repo.Claim(ctx, id)
	if err != nil {
		return domain.Table{}, err
	}
	s.written(ctx, t)
	s.lg.WithContext(ctx).Info("table_claimed", map[string]any{"table_id": t.ID, "number": t.Number})
	return t, nil
}

// UpdateStatus accepts any enum value from any prior state.
func (s *TablesService) UpdateStatus(ctx context.Context, id int, status string) (domain.Table, error) {
	st, err := domain.ParseTableStatus(status)
	if err != nil {
		return domain.Table{}, fmt.Errorf("table status %q: %w", status, err)
	}
	return s.setStatus(ctx, id, st)
}

func (s *TablesService) Reset(ctx context.Context, id int) (domain.Table, error) {
	return s.setStatus(ctx, id, domain.TableEmpty)
}

func (s *TablesService) SetCleaning(ctx context.Context, id int) (domain.Table, error) {
	return s.setStatus(ctx, id, domain.TableCleaning)
}

func (s *TablesService) SetCallingStaff(ctx context.Context, id int) (domain.Table, error) {
	return s.setStatus(ctx, id, domain.TableCallingStaff)
}

func (s *TablesService) setStatus(ctx context.Context, id int, st domain.TableStatus) (domain.Table, error) {
	var until *time.Time
	if st == domain.TableCleaning {
		u := s.now().UTC().Add(s.cleaningDelay)
		until = &u
	}
	t, err := s.repo.SetStatus(ctx, id, st, until)
	if err != nil {
		return domain.Table{}, err
	}
	s.written(ctx, t)
	return t, nil
}

// Exit clears the table's orders and hands it to cleaning. Delete failures are
// collected as warnings; only the final status write can fail the call.
func (s *TablesService) Exit(ctx context.Context, id int, password string) (domain.CleanupReport, error) {
	if err := s.passwords.CheckStaffPassword(password); err != nil {
		return domain.CleanupReport{}, err
	}
	lg := s.lg.WithContext(ctx)
	report := domain.CleanupReport{TableID: id}
	warn := func(step string, err error) {
		report.Warnings = append(report.Warnings, fmt.Sprintf("%s: %v", step, err))
		lg.Warn("exit_cleanup_step_failed", map[string]any{"table_id": id, "step": step, "error": err.Error()})
	}

	if total, err := s.repo.SessionTotal(ctx, id); err != nil {
		warn("session_total", err)
	} else {
		report.SessionTotal = total
	}

	ids, err := s.repo.OrderIDs(ctx, id)
	if err != nil {
		warn("fetch_orders", err)
	}
	if len(ids) > 0 {
		if n, err := s.repo.DeleteOrderItems(ctx, ids); err != nil {
			warn("delete_order_items", err)
		} else {
			report.ItemsDeleted = n
			for _, oid := range ids {
				s.emitter.Emit(ctx, domain.OrderItemsTable, domain.EventDelete, nil, map[string]any{"order_id": oid, "table_id": id})
			}
		}
		if n, err := s.repo.DeleteOrders(ctx, ids); err != nil {
			warn("delete_orders", err)
		} else {
			report.OrdersDeleted = n
			for _, oid := range ids {
				s.emitter.Emit(ctx, domain.OrdersTable, domain.EventDelete, nil, map[string]any{"id": oid, "table_id": id})
			}
		}
	}

	if _, err := s.SetCleaning(ctx, id); err != nil {
		return report, fmt.Errorf("set table %d to cleaning: %w", id, err)
	}
	lg.Info("table_exit_completed", map[string]any{
		"table_id":       id,
		"orders_deleted": report.OrdersDeleted,
		"items_deleted":  report.ItemsDeleted,
		"session_total":  report.SessionTotal.StringFixed(2),
		"warnings":       len(report.Warnings),
	})
	return report, nil
}

// ReleaseExpired moves tables whose cleaning window elapsed back to empty.
func (s *TablesService) ReleaseExpired(ctx context.Context) (int, error) {
	released, err := s.repo.ReleaseExpiredCleaning(ctx)
	if err != nil {
		return 0, err
	}
	for _, t := range released {
		s.written(ctx, t)
		s.lg.Info("table_released", map[string]any{"table_id": t.ID, "number": t.Number})
	}
	s.m.TablesReleased(len(released))
	return len(released), nil
}

func (s *TablesService) written(ctx context.Context, t domain.Table) {
	s.m.TableTransition(string(t.Status))
	s.emitter.Emit(ctx, domain.TableStatusTable, domain.EventUpdate, t, nil)
}

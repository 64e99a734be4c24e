package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"depot-hub/constant"
	"depot-hub/entities"
	"depot-hub/repository"
)

var (
	ErrAlreadyCheckedIn      = errors.New("already checked in")
	ErrNotCheckedIn          = errors.New("not checked in")
	ErrDuplicateRegistration = errors.New("already registered")
	ErrAlreadyCheckedOut     = errors.New("already checked out")
	ErrRecordNotFound        = errors.New("check-in record not found")
)

// CheckInService drives both presence flows. Employee records follow a per-day
// NONE -> CHECKED_IN -> CHECKED_OUT state machine keyed by employee id; depot
// visitor records are keyed by the (company, name, reason) triple for the whole
// lifetime of the table.
type CheckInService interface {
	CheckIn(ctx context.Context, employeeID, name string) (*entities.CheckInRecord, error)
	CheckOut(ctx context.Context, employeeID string) (*entities.CheckInRecord, error)
	TodayRecords(ctx context.Context) ([]entities.CheckInRecord, error)
	StatusSnapshot(ctx context.Context) ([]entities.CheckInRecord, error)

	DepotCheckIn(ctx context.Context, company, name, reason string) (*entities.CheckInRecord, error)
	DepotCheckOut(ctx context.Context, recordID uint) (*entities.CheckInRecord, error)
	DepotReCheckIn(ctx context.Context, recordID uint) (*entities.CheckInRecord, error)
	ListAll(ctx context.Context) ([]entities.CheckInRecord, error)
}

type checkInService struct {
	repo repository.Repository
	now  func() time.Time
}

type CheckInOption func(*checkInService)

// WithCheckInClock overrides the clock, for tests.
func WithCheckInClock(now func() time.Time) CheckInOption {
	return func(s *checkInService) {
		s.now = now
	}
}

func NewCheckInService(repo repository.Repository, opts ...CheckInOption) CheckInService {
	s := &checkInService{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// dayBounds returns [start, end) of the calendar day containing t.
func dayBounds(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.Add(24 * time.Hour)
}

// checkInRetries bounds how often a lost serialization race is retried before
// the error is surfaced.
const checkInRetries = 3

// isSerializationFailure reports whether Postgres aborted the transaction
// because two serializable transactions raced on the same rows (SQLSTATE
// 40001). The losing transaction is safe to retry.
func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "40001"
}

func (s *checkInService) CheckIn(ctx context.Context, employeeID, name string) (*entities.CheckInRecord, error) {
	now := s.now()
	dayStart, dayEnd := dayBounds(now)

	// The existence check and the insert must commit as one atomic unit, or two
	// concurrent check-ins both pass the check and both insert. There is no
	// unique index covering "active per day" (the day is derived from
	// created_at), so serializable isolation is the backstop here.
	var record *entities.CheckInRecord
	var err error
	for attempt := 0; attempt < checkInRetries; attempt++ {
		record = nil
		err = s.repo.Transaction(ctx, func(r repository.Repository) error {
			existing, err := r.FindActiveEmployeeRecord(ctx, employeeID, dayStart, dayEnd)
			if err != nil {
				return err
			}
			if existing != nil {
				return fmt.Errorf("employee %s is already checked in: %w", employeeID, ErrAlreadyCheckedIn)
			}

			record = entities.NewEmployeeCheckIn(employeeID, name, now)
			return r.CreateCheckInRecord(ctx, record)
		}, &sql.TxOptions{Isolation: sql.LevelSerializable})
		if !isSerializationFailure(err) {
			break
		}
		zerolog.Ctx(ctx).Warn().
			Err(err).
			Str("employee_id", employeeID).
			Msg("serialization conflict on check-in, retrying")
	}
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Str("employee_id", employeeID).
		Uint("record_id", record.ID).
		Msg("employee checked in")
	return record, nil
}

func (s *checkInService) CheckOut(ctx context.Context, employeeID string) (*entities.CheckInRecord, error) {
	now := s.now()
	dayStart, dayEnd := dayBounds(now)

	var record *entities.CheckInRecord
	err := s.repo.Transaction(ctx, func(r repository.Repository) error {
		existing, err := r.FindActiveEmployeeRecord(ctx, employeeID, dayStart, dayEnd)
		if err != nil {
			return err
		}
		if existing == nil {
			return fmt.Errorf("employee %s is not currently checked in: %w", employeeID, ErrNotCheckedIn)
		}

		existing.CheckOutTime = &now
		existing.Status = constant.StatusCheckedOut
		record = existing
		return r.SaveCheckInRecord(ctx, existing)
	})
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Str("employee_id", employeeID).
		Uint("record_id", record.ID).
		Msg("employee checked out")
	return record, nil
}

func (s *checkInService) TodayRecords(ctx context.Context) ([]entities.CheckInRecord, error) {
	dayStart, dayEnd := dayBounds(s.now())
	return s.repo.EmployeeRecordsBetween(ctx, dayStart, dayEnd)
}

// StatusSnapshot keeps only the most recently created record per employee seen
// today. Creation order decides, not the check-in/out time fields.
func (s *checkInService) StatusSnapshot(ctx context.Context) ([]entities.CheckInRecord, error) {
	records, err := s.TodayRecords(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(records))
	snapshot := make([]entities.CheckInRecord, 0, len(records))
	for _, record := range records {
		if seen[record.EmployeeID] {
			continue
		}
		seen[record.EmployeeID] = true
		snapshot = append(snapshot, record)
	}
	return snapshot, nil
}

func (s *checkInService) DepotCheckIn(ctx context.Context, company, name, reason string) (*entities.CheckInRecord, error) {
	now := s.now()

	var record *entities.CheckInRecord
	err := s.repo.Transaction(ctx, func(r repository.Repository) error {
		existing, err := r.FindVisitorByIdentity(ctx, company, name, reason)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("visitor %s (%s) already registered for %q: %w", name, company, reason, ErrDuplicateRegistration)
		}

		record = entities.NewVisitorCheckIn(company, name, reason, now)
		return r.CreateCheckInRecord(ctx, record)
	})
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Str("company", company).
		Str("name", name).
		Uint("record_id", record.ID).
		Msg("depot visitor checked in")
	return record, nil
}

func (s *checkInService) DepotCheckOut(ctx context.Context, recordID uint) (*entities.CheckInRecord, error) {
	now := s.now()

	record, err := s.repo.FindCheckInRecordByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrRecordNotFound
	}
	if record.Status == constant.StatusCheckedOut {
		return nil, fmt.Errorf("visitor %s is already checked out: %w", record.Name, ErrAlreadyCheckedOut)
	}

	record.CheckOutTime = &now
	record.Status = constant.StatusCheckedOut
	if err := s.repo.SaveCheckInRecord(ctx, record); err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().Uint("record_id", record.ID).Msg("depot visitor checked out")
	return record, nil
}

// DepotReCheckIn flips a checked-out visitor record back to checked-in. The
// check_out_time of the prior cycle is deliberately left in place.
func (s *checkInService) DepotReCheckIn(ctx context.Context, recordID uint) (*entities.CheckInRecord, error) {
	now := s.now()

	record, err := s.repo.FindCheckInRecordByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrRecordNotFound
	}
	if record.Status == constant.StatusCheckedIn {
		return nil, fmt.Errorf("visitor %s is already checked in: %w", record.Name, ErrAlreadyCheckedIn)
	}

	record.CheckInTime = &now
	record.Status = constant.StatusCheckedIn
	if err := s.repo.SaveCheckInRecord(ctx, record); err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().Uint("record_id", record.ID).Msg("depot visitor re-checked in")
	return record, nil
}

func (s *checkInService) ListAll(ctx context.Context) ([]entities.CheckInRecord, error) {
	return s.repo.AllCheckInRecords(ctx)
}

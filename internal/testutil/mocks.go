package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/khatapro/khata-backend/internal/domain"
	"github.com/khatapro/khata-backend/internal/util"
)

// MockBusinessDayRepository is an in-memory implementation of
// domain.BusinessDayRepository. Transitions enforce the same state machine
// as the SQL implementation.
type MockBusinessDayRepository struct {
	mu   sync.Mutex
	Days map[uuid.UUID]*domain.BusinessDay

	// Transactions is shared with MockTransactionRepository so EnsureDay,
	// Submit and the rollup see one consistent store.
	Transactions map[uuid.UUID]*domain.Transaction
}

// NewMockBusinessDayRepository creates a new MockBusinessDayRepository
func NewMockBusinessDayRepository() *MockBusinessDayRepository {
	return &MockBusinessDayRepository{
		Days:         make(map[uuid.UUID]*domain.BusinessDay),
		Transactions: make(map[uuid.UUID]*domain.Transaction),
	}
}

// AddDay seeds a day row
func (m *MockBusinessDayRepository) AddDay(day *domain.BusinessDay) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if day.ID == uuid.Nil {
		day.ID = uuid.New()
	}
	m.Days[day.ID] = day
}

// GetByID retrieves a day by id
func (m *MockBusinessDayRepository) GetByID(id uuid.UUID) (*domain.BusinessDay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if day, ok := m.Days[id]; ok {
		return day, nil
	}
	return nil, domain.ErrDayNotFound
}

// GetByOutletDate retrieves a day by outlet and date
func (m *MockBusinessDayRepository) GetByOutletDate(outletID uuid.UUID, date time.Time) (*domain.BusinessDay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.findByOutletDate(outletID, util.DateOf(date))
}

func (m *MockBusinessDayRepository) findByOutletDate(outletID uuid.UUID, date time.Time) (*domain.BusinessDay, error) {
	for _, day := range m.Days {
		if day.OutletID == outletID && day.Date.Equal(date) {
			return day, nil
		}
	}
	return nil, domain.ErrDayNotFound
}

// EnsureDay finds or creates the day, carrying opening balances from the
// most recent prior day.
func (m *MockBusinessDayRepository) EnsureDay(outletID uuid.UUID, date time.Time) (*domain.BusinessDay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	date = util.DateOf(date)

	if day, err := m.findByOutletDate(outletID, date); err == nil {
		return day, nil
	}

	openingCash, openingUPI := decimal.Zero, decimal.Zero
	var prev *domain.BusinessDay
	for _, day := range m.Days {
		if day.OutletID != outletID || !day.Date.Before(date) {
			continue
		}
		if prev == nil || day.Date.After(prev.Date) {
			prev = day
		}
	}
	if prev != nil {
		openingCash, openingUPI = prev.ClosingCash, prev.ClosingUPI
	}

	now := time.Now()
	day := &domain.BusinessDay{
		ID:          uuid.New(),
		OutletID:    outletID,
		Date:        date,
		OpeningCash: openingCash,
		OpeningUPI:  openingUPI,
		ClosingCash: openingCash,
		ClosingUPI:  openingUPI,
		Status:      domain.DayStatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.Days[day.ID] = day
	return day, nil
}

// Submit transitions draft -> submitted
func (m *MockBusinessDayRepository) Submit(id, submittedBy uuid.UUID) (*domain.BusinessDay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	day, ok := m.Days[id]
	if !ok {
		return nil, domain.ErrDayNotFound
	}
	if day.Status != domain.DayStatusDraft {
		return nil, domain.ErrInvalidTransition
	}
	empty := true
	for _, t := range m.Transactions {
		if t.DailyRecordID == id {
			empty = false
			break
		}
	}
	if empty {
		return nil, domain.ErrEmptyDay
	}
	now := time.Now()
	day.Status = domain.DayStatusSubmitted
	day.SubmittedBy = &submittedBy
	day.SubmittedAt = &now
	return day, nil
}

// Lock transitions submitted -> locked
func (m *MockBusinessDayRepository) Lock(id, lockedBy uuid.UUID, reason *string) (*domain.BusinessDay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	day, ok := m.Days[id]
	if !ok {
		return nil, domain.ErrDayNotFound
	}
	if day.Status != domain.DayStatusSubmitted {
		return nil, domain.ErrInvalidTransition
	}
	now := time.Now()
	day.Status = domain.DayStatusLocked
	day.LockedBy = &lockedBy
	day.LockedAt = &now
	day.LockReason = reason
	return day, nil
}

// Unlock transitions locked -> submitted
func (m *MockBusinessDayRepository) Unlock(id, unlockedBy uuid.UUID, reason string) (*domain.BusinessDay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	day, ok := m.Days[id]
	if !ok {
		return nil, domain.ErrDayNotFound
	}
	if day.Status != domain.DayStatusLocked {
		return nil, domain.ErrInvalidTransition
	}
	now := time.Now()
	day.Status = domain.DayStatusSubmitted
	day.UnlockedBy = &unlockedBy
	day.UnlockedAt = &now
	day.UnlockReason = &reason
	return day, nil
}

// UpdateTotals writes a rollup back to the day
func (m *MockBusinessDayRepository) UpdateTotals(id uuid.UUID, totals domain.DayTotals) (*domain.BusinessDay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	day, ok := m.Days[id]
	if !ok {
		return nil, domain.ErrDayNotFound
	}
	day.TotalIncome = totals.TotalIncome
	day.TotalExpense = totals.TotalExpense
	day.ClosingCash = totals.ClosingCash
	day.ClosingUPI = totals.ClosingUPI
	return day, nil
}

// ListByOutletRange retrieves days within [from, to], ascending by date
func (m *MockBusinessDayRepository) ListByOutletRange(outletID uuid.UUID, from, to time.Time) ([]*domain.BusinessDay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	from, to = util.DateOf(from), util.DateOf(to)

	var days []*domain.BusinessDay
	for _, day := range m.Days {
		if day.OutletID == outletID && !day.Date.Before(from) && !day.Date.After(to) {
			days = append(days, day)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
	return days, nil
}

// MockTransactionRepository is an in-memory implementation of
// domain.TransactionRepository. It shares its store with a
// MockBusinessDayRepository so locked-day rejection, idempotency dedupe and
// rollup recomputation behave like the SQL implementation.
type MockTransactionRepository struct {
	dayRepo *MockBusinessDayRepository
	seq     int

	// Customers receives the balance deltas applied alongside creates and
	// deletes; nil when the test involves no customer credit.
	Customers *MockCustomerRepository

	// CreateErr fails the next CreateInDay before any state changes,
	// simulating a rolled-back transaction.
	CreateErr error
}

// NewMockTransactionRepository creates a MockTransactionRepository wired to
// the given day repository.
func NewMockTransactionRepository(dayRepo *MockBusinessDayRepository) *MockTransactionRepository {
	return &MockTransactionRepository{dayRepo: dayRepo}
}

// CreateInDay inserts the transaction, applies the customer balance delta
// and recomputes the day's rollup, all or nothing
func (m *MockTransactionRepository) CreateInDay(t *domain.Transaction, customerDelta decimal.Decimal) (*domain.Transaction, error) {
	m.dayRepo.mu.Lock()
	defer m.dayRepo.mu.Unlock()

	if m.CreateErr != nil {
		err := m.CreateErr
		m.CreateErr = nil
		return nil, err
	}

	day, ok := m.dayRepo.Days[t.DailyRecordID]
	if !ok {
		return nil, domain.ErrDayNotFound
	}
	if !day.Mutable() {
		return nil, domain.ErrDayLocked
	}

	if t.IdempotencyKey != nil {
		for _, existing := range m.dayRepo.Transactions {
			if existing.IdempotencyKey != nil && *existing.IdempotencyKey == *t.IdempotencyKey {
				return existing, nil
			}
		}
	}

	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		m.seq++
		t.CreatedAt = time.Now().Add(time.Duration(m.seq) * time.Microsecond)
	}
	if err := m.applyCustomerDelta(t.CustomerID, customerDelta); err != nil {
		return nil, err
	}
	m.dayRepo.Transactions[t.ID] = t
	m.recompute(day)
	return t, nil
}

func (m *MockTransactionRepository) applyCustomerDelta(customerID *uuid.UUID, delta decimal.Decimal) error {
	if customerID == nil || delta.IsZero() || m.Customers == nil {
		return nil
	}
	return m.Customers.adjustOutstanding(*customerID, delta)
}

// GetByID retrieves a transaction by id
func (m *MockTransactionRepository) GetByID(id uuid.UUID) (*domain.Transaction, error) {
	m.dayRepo.mu.Lock()
	defer m.dayRepo.mu.Unlock()
	if t, ok := m.dayRepo.Transactions[id]; ok {
		return t, nil
	}
	return nil, domain.ErrTransactionNotFound
}

// ListByDay retrieves a day's transactions in creation order
func (m *MockTransactionRepository) ListByDay(dailyRecordID uuid.UUID) ([]*domain.Transaction, error) {
	m.dayRepo.mu.Lock()
	defer m.dayRepo.mu.Unlock()
	return m.listByDay(dailyRecordID), nil
}

func (m *MockTransactionRepository) listByDay(dailyRecordID uuid.UUID) []*domain.Transaction {
	var out []*domain.Transaction
	for _, t := range m.dayRepo.Transactions {
		if t.DailyRecordID == dailyRecordID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// CountByDay counts a day's transactions
func (m *MockTransactionRepository) CountByDay(dailyRecordID uuid.UUID) (int64, error) {
	m.dayRepo.mu.Lock()
	defer m.dayRepo.mu.Unlock()
	return int64(len(m.listByDay(dailyRecordID))), nil
}

// DeleteDraft removes a transaction while its day is still draft, applying
// the customer balance delta with the delete
func (m *MockTransactionRepository) DeleteDraft(id uuid.UUID, customerDelta decimal.Decimal) error {
	m.dayRepo.mu.Lock()
	defer m.dayRepo.mu.Unlock()

	t, ok := m.dayRepo.Transactions[id]
	if !ok {
		return domain.ErrTransactionNotFound
	}
	day, ok := m.dayRepo.Days[t.DailyRecordID]
	if !ok {
		return domain.ErrDayNotFound
	}
	if day.Status != domain.DayStatusDraft {
		return domain.ErrDayLocked
	}
	if err := m.applyCustomerDelta(t.CustomerID, customerDelta); err != nil {
		return err
	}
	delete(m.dayRepo.Transactions, id)
	m.recompute(day)
	return nil
}

// RecomputeDay re-derives the day's totals and writes them back
func (m *MockTransactionRepository) RecomputeDay(dailyRecordID uuid.UUID) (*domain.BusinessDay, error) {
	m.dayRepo.mu.Lock()
	defer m.dayRepo.mu.Unlock()

	day, ok := m.dayRepo.Days[dailyRecordID]
	if !ok {
		return nil, domain.ErrDayNotFound
	}
	m.recompute(day)
	return day, nil
}

func (m *MockTransactionRepository) recompute(day *domain.BusinessDay) {
	totals := domain.ComputeDayTotals(day, m.listByDay(day.ID))
	day.TotalIncome = totals.TotalIncome
	day.TotalExpense = totals.TotalExpense
	day.ClosingCash = totals.ClosingCash
	day.ClosingUPI = totals.ClosingUPI
}

// MockLedgerAccountRepository is an in-memory implementation of
// domain.LedgerAccountRepository
type MockLedgerAccountRepository struct {
	mu         sync.Mutex
	Accounts   map[uuid.UUID]*domain.LedgerAccount
	Referenced map[uuid.UUID]bool
}

// NewMockLedgerAccountRepository creates a new MockLedgerAccountRepository
func NewMockLedgerAccountRepository() *MockLedgerAccountRepository {
	return &MockLedgerAccountRepository{
		Accounts:   make(map[uuid.UUID]*domain.LedgerAccount),
		Referenced: make(map[uuid.UUID]bool),
	}
}

// AddAccount seeds an account
func (m *MockLedgerAccountRepository) AddAccount(account *domain.LedgerAccount) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	m.Accounts[account.ID] = account
}

// GetByID retrieves an account by id
func (m *MockLedgerAccountRepository) GetByID(id uuid.UUID) (*domain.LedgerAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if account, ok := m.Accounts[id]; ok {
		return account, nil
	}
	return nil, domain.ErrUnknownAccount
}

// GetByCode retrieves an account by code
func (m *MockLedgerAccountRepository) GetByCode(code string) (*domain.LedgerAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, account := range m.Accounts {
		if account.Code == code {
			return account, nil
		}
	}
	return nil, domain.ErrUnknownAccount
}

// GetAll retrieves every account ordered by code
func (m *MockLedgerAccountRepository) GetAll() ([]*domain.LedgerAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var accounts []*domain.LedgerAccount
	for _, account := range m.Accounts {
		accounts = append(accounts, account)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Code < accounts[j].Code })
	return accounts, nil
}

// Create inserts a new account, rejecting duplicate codes
func (m *MockLedgerAccountRepository) Create(account *domain.LedgerAccount) (*domain.LedgerAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.Accounts {
		if existing.Code == account.Code {
			return nil, domain.ErrAlreadyExists
		}
	}
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	m.Accounts[account.ID] = account
	return account, nil
}

// Update rewrites an account's mutable fields
func (m *MockLedgerAccountRepository) Update(account *domain.LedgerAccount) (*domain.LedgerAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Accounts[account.ID]; !ok {
		return nil, domain.ErrUnknownAccount
	}
	m.Accounts[account.ID] = account
	return account, nil
}

// SetStatus flips an account between active and disabled
func (m *MockLedgerAccountRepository) SetStatus(id uuid.UUID, status domain.AccountStatus) (*domain.LedgerAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.Accounts[id]
	if !ok {
		return nil, domain.ErrUnknownAccount
	}
	account.Status = status
	return account, nil
}

// HasTransactions reports whether the account was marked as referenced
func (m *MockLedgerAccountRepository) HasTransactions(id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Referenced[id], nil
}

// Delete removes an account
func (m *MockLedgerAccountRepository) Delete(id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Accounts[id]; !ok {
		return domain.ErrUnknownAccount
	}
	delete(m.Accounts, id)
	return nil
}

// MockMonthlyClosureRepository is an in-memory implementation of
// domain.MonthlyClosureRepository. Snapshot versions increment exactly like
// the SQL implementation.
type MockMonthlyClosureRepository struct {
	mu        sync.Mutex
	Closures  map[string]*domain.MonthlyClosure
	Snapshots map[string][]*domain.MonthlyClosureSnapshot

	// SnapshotConflicts makes the next N AppendSnapshot calls fail with
	// ErrConcurrencyConflict, simulating a lost version race.
	SnapshotConflicts int
}

// NewMockMonthlyClosureRepository creates a new MockMonthlyClosureRepository
func NewMockMonthlyClosureRepository() *MockMonthlyClosureRepository {
	return &MockMonthlyClosureRepository{
		Closures:  make(map[string]*domain.MonthlyClosure),
		Snapshots: make(map[string][]*domain.MonthlyClosureSnapshot),
	}
}

func closureKey(outletID uuid.UUID, monthDate time.Time) string {
	return fmt.Sprintf("%s/%s", outletID, util.MonthStart(monthDate).Format("2006-01"))
}

// GetByOutletMonth retrieves a closure by outlet and month
func (m *MockMonthlyClosureRepository) GetByOutletMonth(outletID uuid.UUID, monthDate time.Time) (*domain.MonthlyClosure, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if closure, ok := m.Closures[closureKey(outletID, monthDate)]; ok {
		return closure, nil
	}
	return nil, domain.ErrClosureNotFound
}

// Upsert writes a closure keyed on (outlet, month)
func (m *MockMonthlyClosureRepository) Upsert(closure *domain.MonthlyClosure) (*domain.MonthlyClosure, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if closure.ID == uuid.Nil {
		closure.ID = uuid.New()
	}
	closure.MonthDate = util.MonthStart(closure.MonthDate)
	m.Closures[closureKey(closure.OutletID, closure.MonthDate)] = closure
	return closure, nil
}

// AppendSnapshot inserts the snapshot with the next version number
func (m *MockMonthlyClosureRepository) AppendSnapshot(snapshot *domain.MonthlyClosureSnapshot) (*domain.MonthlyClosureSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SnapshotConflicts > 0 {
		m.SnapshotConflicts--
		return nil, domain.ErrConcurrencyConflict
	}
	if snapshot.ID == uuid.Nil {
		snapshot.ID = uuid.New()
	}
	snapshot.MonthDate = util.MonthStart(snapshot.MonthDate)
	key := closureKey(snapshot.OutletID, snapshot.MonthDate)
	snapshot.Version = len(m.Snapshots[key]) + 1
	snapshot.CreatedAt = time.Now()
	m.Snapshots[key] = append(m.Snapshots[key], snapshot)
	return snapshot, nil
}

// ListSnapshots retrieves every snapshot version, oldest first
func (m *MockMonthlyClosureRepository) ListSnapshots(outletID uuid.UUID, monthDate time.Time) ([]*domain.MonthlyClosureSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Snapshots[closureKey(outletID, monthDate)], nil
}

// LatestSnapshot retrieves the highest-versioned snapshot
func (m *MockMonthlyClosureRepository) LatestSnapshot(outletID uuid.UUID, monthDate time.Time) (*domain.MonthlyClosureSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshots := m.Snapshots[closureKey(outletID, monthDate)]
	if len(snapshots) == 0 {
		return nil, domain.ErrSnapshotNotFound
	}
	return snapshots[len(snapshots)-1], nil
}

// MockCustomerRepository is an in-memory implementation of
// domain.CustomerRepository and domain.CustomerResolver
type MockCustomerRepository struct {
	mu        sync.Mutex
	Customers map[uuid.UUID]*domain.Customer
}

// NewMockCustomerRepository creates a new MockCustomerRepository
func NewMockCustomerRepository() *MockCustomerRepository {
	return &MockCustomerRepository{Customers: make(map[uuid.UUID]*domain.Customer)}
}

// AddCustomer seeds a customer
func (m *MockCustomerRepository) AddCustomer(customer *domain.Customer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if customer.ID == uuid.Nil {
		customer.ID = uuid.New()
	}
	m.Customers[customer.ID] = customer
}

// GetByID retrieves a customer by id
func (m *MockCustomerRepository) GetByID(id uuid.UUID) (*domain.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if customer, ok := m.Customers[id]; ok {
		return customer, nil
	}
	return nil, domain.ErrCustomerNotFound
}

// GetByPhone retrieves a customer by phone within an outlet
func (m *MockCustomerRepository) GetByPhone(outletID uuid.UUID, phone string) (*domain.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, customer := range m.Customers {
		if customer.OutletID == outletID && customer.Phone == phone {
			return customer, nil
		}
	}
	return nil, domain.ErrCustomerNotFound
}

// Create inserts a new customer
func (m *MockCustomerRepository) Create(customer *domain.Customer) (*domain.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.Customers {
		if existing.OutletID == customer.OutletID && existing.Phone == customer.Phone {
			return nil, domain.ErrAlreadyExists
		}
	}
	if customer.ID == uuid.Nil {
		customer.ID = uuid.New()
	}
	m.Customers[customer.ID] = customer
	return customer, nil
}

// adjustOutstanding adds delta to the customer's outstanding balance. Only
// MockTransactionRepository calls this, mirroring how the SQL ledger moves
// the receivable inside its own transaction.
func (m *MockCustomerRepository) adjustOutstanding(id uuid.UUID, delta decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	customer, ok := m.Customers[id]
	if !ok {
		return domain.ErrCustomerNotFound
	}
	customer.OutstandingBalance = customer.OutstandingBalance.Add(delta)
	return nil
}

// ResolveOrCreate looks up a customer by phone, creating one when unknown
func (m *MockCustomerRepository) ResolveOrCreate(outletID uuid.UUID, phone, name string) (*domain.Customer, error) {
	if customer, err := m.GetByPhone(outletID, phone); err == nil {
		return customer, nil
	}
	return m.Create(&domain.Customer{
		OutletID:           outletID,
		Phone:              phone,
		Name:               name,
		OutstandingBalance: decimal.Zero,
	})
}

// MockOutletRepository is an in-memory implementation of domain.OutletRepository
type MockOutletRepository struct {
	mu      sync.Mutex
	Outlets map[uuid.UUID]*domain.Outlet
}

// NewMockOutletRepository creates a new MockOutletRepository
func NewMockOutletRepository() *MockOutletRepository {
	return &MockOutletRepository{Outlets: make(map[uuid.UUID]*domain.Outlet)}
}

// AddOutlet seeds an outlet
func (m *MockOutletRepository) AddOutlet(outlet *domain.Outlet) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if outlet.ID == uuid.Nil {
		outlet.ID = uuid.New()
	}
	m.Outlets[outlet.ID] = outlet
}

// GetByID retrieves an outlet by id
func (m *MockOutletRepository) GetByID(id uuid.UUID) (*domain.Outlet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if outlet, ok := m.Outlets[id]; ok {
		return outlet, nil
	}
	return nil, domain.ErrOutletNotFound
}

// GetAll retrieves every outlet
func (m *MockOutletRepository) GetAll() ([]*domain.Outlet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var outlets []*domain.Outlet
	for _, outlet := range m.Outlets {
		outlets = append(outlets, outlet)
	}
	sort.Slice(outlets, func(i, j int) bool { return outlets[i].Name < outlets[j].Name })
	return outlets, nil
}

// MockUserRepository is an in-memory implementation of domain.UserRepository
type MockUserRepository struct {
	mu    sync.Mutex
	Users map[uuid.UUID]*domain.User
}

// NewMockUserRepository creates a new MockUserRepository
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{Users: make(map[uuid.UUID]*domain.User)}
}

// AddUser seeds a user
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	m.Users[user.ID] = user
}

// GetBySubject retrieves a user by identity-provider subject
func (m *MockUserRepository) GetBySubject(subject string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.Users {
		if user.Subject == subject {
			return user, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// GetByID retrieves a user by id
func (m *MockUserRepository) GetByID(id uuid.UUID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user, ok := m.Users[id]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

// MockSnapshotArchive records archive calls without touching storage
type MockSnapshotArchive struct {
	mu          sync.Mutex
	DayKeys     []string
	ClosureKeys []string
	Err         error
}

// NewMockSnapshotArchive creates a new MockSnapshotArchive
func NewMockSnapshotArchive() *MockSnapshotArchive {
	return &MockSnapshotArchive{}
}

// ArchiveDay records the archive call and returns a synthetic key
func (m *MockSnapshotArchive) ArchiveDay(_ context.Context, day *domain.BusinessDay, _ []*domain.Transaction) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	key := fmt.Sprintf("days/%s/%s.json", day.OutletID, day.Date.Format("2006-01-02"))
	m.DayKeys = append(m.DayKeys, key)
	return key, nil
}

// ArchiveClosure records the archive call and returns a synthetic key
func (m *MockSnapshotArchive) ArchiveClosure(_ context.Context, snapshot *domain.MonthlyClosureSnapshot) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	key := fmt.Sprintf("closures/%s/%s/v%d.json",
		snapshot.OutletID, snapshot.MonthDate.Format("2006-01"), snapshot.Version)
	m.ClosureKeys = append(m.ClosureKeys, key)
	return key, nil
}

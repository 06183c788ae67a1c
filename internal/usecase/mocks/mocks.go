package mocks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/harborbank/bankcore/internal/domain"
	"github.com/harborbank/bankcore/internal/usecase"
)

// MemLedger is an in-memory stand-in for the postgres-backed account
// store, transaction journal and idempotency registry. It mimics the
// properties the orchestrator relies on: per-account row locks held until
// commit or rollback, all-or-nothing visibility of staged writes, and
// blocking claims on in-flight idempotency keys.
type MemLedger struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
	txns     map[string]*domain.Transaction
	idemKeys map[string]string
	locks    map[string]*sync.Mutex
	inFlight map[string]chan struct{}

	// ApplyDeltaHook, when set, runs before a delta is staged and can
	// inject a failure mid-unit.
	ApplyDeltaHook func(accountID string, delta decimal.Decimal) error
}

// NewMemLedger creates an empty ledger.
func NewMemLedger() *MemLedger {
	return &MemLedger{
		accounts: make(map[string]*domain.Account),
		txns:     make(map[string]*domain.Transaction),
		idemKeys: make(map[string]string),
		locks:    make(map[string]*sync.Mutex),
		inFlight: make(map[string]chan struct{}),
	}
}

// AddAccount seeds a committed account.
func (l *MemLedger) AddAccount(account *domain.Account) {
	l.mu.Lock()
	defer l.mu.Unlock()

	copied := *account
	l.accounts[account.ID] = &copied
	l.locks[account.ID] = &sync.Mutex{}
}

// MemTx is an atomic unit over the MemLedger.
type MemTx struct {
	ledger *MemLedger

	lockedIDs    []string
	deltas       []stagedDelta
	newTxns      []*domain.Transaction
	statusWrites []stagedStatus
	claimedKey   *stagedClaim
	done         bool
}

type stagedDelta struct {
	accountID  string
	newBalance decimal.Decimal
}

type stagedStatus struct {
	txnID  string
	from   []domain.TransactionStatus
	status domain.TransactionStatus
	reason *string
}

type stagedClaim struct {
	key   string
	txnID string
	ch    chan struct{}
}

// Begin starts an atomic unit.
func (l *MemLedger) Begin(ctx context.Context) (usecase.Transaction, error) {
	return &MemTx{ledger: l}, nil
}

// Commit makes all staged writes visible at once and releases locks.
// Status transitions are re-validated against the committed state, the
// way the store's guarded UPDATE re-checks its WHERE clause: if another
// unit committed a conflicting transition first, the whole commit aborts.
func (t *MemTx) Commit(ctx context.Context) error {
	if t.done {
		return errors.New("transaction already closed")
	}
	t.done = true

	l := t.ledger
	l.mu.Lock()

	if err := t.checkTransitions(); err != nil {
		if t.claimedKey != nil {
			close(t.claimedKey.ch)
			delete(l.inFlight, t.claimedKey.key)
		}
		l.mu.Unlock()
		t.releaseLocks()
		return err
	}

	for _, txn := range t.newTxns {
		copied := *txn
		l.txns[txn.ID] = &copied
	}

	for _, w := range t.statusWrites {
		txn := l.txns[w.txnID]
		txn.Status = w.status
		txn.FailureReason = w.reason
		txn.UpdatedAt = time.Now().UTC()
	}

	for _, d := range t.deltas {
		l.accounts[d.accountID].Balance = d.newBalance
	}

	if t.claimedKey != nil {
		l.idemKeys[t.claimedKey.key] = t.claimedKey.txnID
		close(t.claimedKey.ch)
		delete(l.inFlight, t.claimedKey.key)
	}

	l.mu.Unlock()

	t.releaseLocks()
	return nil
}

// Rollback discards staged writes and releases locks.
func (t *MemTx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true

	if t.claimedKey != nil {
		l := t.ledger
		l.mu.Lock()
		close(t.claimedKey.ch)
		delete(l.inFlight, t.claimedKey.key)
		l.mu.Unlock()
	}

	t.releaseLocks()
	return nil
}

// checkTransitions replays staged status writes against the committed
// journal. Caller holds l.mu.
func (t *MemTx) checkTransitions() error {
	sim := make(map[string]domain.TransactionStatus)

	current := func(id string) (domain.TransactionStatus, bool) {
		if s, ok := sim[id]; ok {
			return s, true
		}
		if txn, ok := t.ledger.txns[id]; ok {
			return txn.Status, true
		}
		for _, txn := range t.newTxns {
			if txn.ID == id {
				return txn.Status, true
			}
		}
		return "", false
	}

	for _, w := range t.statusWrites {
		status, ok := current(w.txnID)
		if !ok {
			return domain.ErrTransactionNotFound
		}

		allowed := false
		for _, f := range w.from {
			if status == f {
				allowed = true
				break
			}
		}

		if !allowed || !status.CanTransitionTo(w.status) {
			return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, status, w.status)
		}

		sim[w.txnID] = w.status
	}

	return nil
}

func (t *MemTx) releaseLocks() {
	// Release in reverse acquisition order.
	for i := len(t.lockedIDs) - 1; i >= 0; i-- {
		t.ledger.locks[t.lockedIDs[i]].Unlock()
	}
	t.lockedIDs = nil
}

func asMemTx(tx usecase.Transaction) (*MemTx, error) {
	memTx, ok := tx.(*MemTx)
	if !ok || memTx == nil {
		return nil, errors.New("operation requires a MemTx")
	}
	return memTx, nil
}

// --- usecase.AccountRepository ---

func (l *MemLedger) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	account, ok := l.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	copied := *account
	return &copied, nil
}

func (l *MemLedger) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*domain.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []*domain.Account
	for _, account := range l.accounts {
		if account.OwnerID == ownerID {
			copied := *account
			out = append(out, &copied)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return paginate(out, limit, offset), nil
}

func (l *MemLedger) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	memTx, err := asMemTx(tx)
	if err != nil {
		return nil, err
	}

	// Blocking per-account locks, acquired in caller order. The caller is
	// responsible for sorting ids, exactly as with SELECT ... FOR UPDATE.
	for _, id := range ids {
		l.mu.Lock()
		lock, ok := l.locks[id]
		l.mu.Unlock()

		if !ok {
			continue
		}

		lock.Lock()
		memTx.lockedIDs = append(memTx.lockedIDs, id)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var out []*domain.Account
	for _, id := range ids {
		if account, ok := l.accounts[id]; ok {
			copied := *account
			out = append(out, &copied)
		}
	}

	return out, nil
}

func (l *MemLedger) ApplyDelta(ctx context.Context, tx usecase.Transaction, id string, delta decimal.Decimal) (decimal.Decimal, error) {
	memTx, err := asMemTx(tx)
	if err != nil {
		return decimal.Zero, err
	}

	if l.ApplyDeltaHook != nil {
		if err := l.ApplyDeltaHook(id, delta); err != nil {
			return decimal.Zero, err
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	account, ok := l.accounts[id]
	if !ok {
		return decimal.Zero, domain.ErrAccountNotFound
	}

	if account.Status != domain.AccountStatusActive {
		return decimal.Zero, domain.ErrAccountNotActive
	}

	balance := account.Balance
	for _, d := range memTx.deltas {
		if d.accountID == id {
			balance = d.newBalance
		}
	}

	newBalance := balance.Add(delta)
	if newBalance.IsNegative() {
		return decimal.Zero, domain.ErrInsufficientFunds
	}

	memTx.deltas = append(memTx.deltas, stagedDelta{accountID: id, newBalance: newBalance})

	return newBalance, nil
}

// --- usecase.TransactionRepository ---

func (l *MemLedger) CreatePending(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
	memTx, err := asMemTx(tx)
	if err != nil {
		return err
	}

	// Keyed entries are guarded by a partial unique index in the real
	// journal. Model it: block on a concurrent in-flight claim, error on
	// a committed one.
	if txn.IdempotencyKey != nil {
		if err := l.claimKey(memTx, *txn.IdempotencyKey, txn.ID); err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	txn.Status = domain.TransactionStatusPending
	txn.CreatedAt = now
	txn.UpdatedAt = now

	copied := *txn
	memTx.newTxns = append(memTx.newTxns, &copied)

	return nil
}

func (l *MemLedger) Transition(ctx context.Context, tx usecase.Transaction, id string, from []domain.TransactionStatus, to domain.TransactionStatus, reason *string) error {
	memTx, err := asMemTx(tx)
	if err != nil {
		return err
	}

	current, err := l.currentStatus(memTx, id)
	if err != nil {
		return err
	}

	allowed := false
	for _, f := range from {
		if current == f {
			allowed = true
			break
		}
	}

	if !allowed || !current.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, current, to)
	}

	memTx.statusWrites = append(memTx.statusWrites, stagedStatus{txnID: id, from: from, status: to, reason: reason})

	return nil
}

func (l *MemLedger) currentStatus(memTx *MemTx, id string) (domain.TransactionStatus, error) {
	for i := len(memTx.statusWrites) - 1; i >= 0; i-- {
		if memTx.statusWrites[i].txnID == id {
			return memTx.statusWrites[i].status, nil
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if txn, ok := l.txns[id]; ok {
		return txn.Status, nil
	}

	for _, txn := range memTx.newTxns {
		if txn.ID == id {
			return txn.Status, nil
		}
	}

	return "", domain.ErrTransactionNotFound
}

func (l *MemLedger) GetTransactionByID(ctx context.Context, id string) (*domain.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	txn, ok := l.txns[id]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}

	copied := *txn
	return &copied, nil
}

func (l *MemLedger) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, txn := range l.txns {
		if txn.IdempotencyKey != nil && *txn.IdempotencyKey == key {
			copied := *txn
			return &copied, nil
		}
	}

	return nil, domain.ErrTransactionNotFound
}

func (l *MemLedger) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []*domain.Transaction
	for _, txn := range l.txns {
		if txn.SourceAccountID == accountID || (txn.DestAccountID != nil && *txn.DestAccountID == accountID) {
			copied := *txn
			out = append(out, &copied)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return paginate(out, limit, offset), nil
}

// CompletedCount reports how many committed journal entries are completed.
func (l *MemLedger) CompletedCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	count := 0
	for _, txn := range l.txns {
		if txn.Status == domain.TransactionStatusCompleted {
			count++
		}
	}
	return count
}

// TransactionCount reports the number of committed journal entries.
func (l *MemLedger) TransactionCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.txns)
}

// --- usecase.IdempotencyRepository ---

func (l *MemLedger) RecordIfAbsent(ctx context.Context, tx usecase.Transaction, key, transactionID string) (string, bool, error) {
	memTx, err := asMemTx(tx)
	if err != nil {
		return "", false, err
	}

	if err := l.claimKey(memTx, key, transactionID); err != nil {
		l.mu.Lock()
		existing := l.idemKeys[key]
		l.mu.Unlock()
		return existing, false, nil
	}

	return "", true, nil
}

// claimKey takes the in-flight claim for key on behalf of memTx, unless
// memTx already holds it. A concurrent unit's claim blocks until that
// unit commits or aborts, the way a unique-index insert would; a
// committed claim is a duplicate.
func (l *MemLedger) claimKey(memTx *MemTx, key, txnID string) error {
	for {
		l.mu.Lock()

		if memTx.claimedKey != nil && memTx.claimedKey.key == key {
			memTx.claimedKey.txnID = txnID
			l.mu.Unlock()
			return nil
		}

		if _, ok := l.idemKeys[key]; ok {
			l.mu.Unlock()
			return domain.ErrDuplicateIdempotencyKey
		}

		ch, inflight := l.inFlight[key]
		if !inflight {
			claim := &stagedClaim{key: key, txnID: txnID, ch: make(chan struct{})}
			l.inFlight[key] = claim.ch
			memTx.claimedKey = claim
			l.mu.Unlock()
			return nil
		}

		l.mu.Unlock()
		<-ch
	}
}

func (l *MemLedger) Get(ctx context.Context, key string) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	transactionID, ok := l.idemKeys[key]
	return transactionID, ok, nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}

	end := offset + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}

	return items[offset:end]
}

// TxnRepo adapts the ledger to usecase.TransactionRepository, whose
// GetByID name collides with the account-side method.
type TxnRepo struct {
	*MemLedger
}

func (r TxnRepo) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	return r.GetTransactionByID(ctx, id)
}

// PassRetrier runs the operation once without retrying.
type PassRetrier struct{}

func (PassRetrier) Retry(ctx context.Context, operation func() error) error {
	return operation()
}

// SeqIDGenerator generates deterministic sequential IDs.
type SeqIDGenerator struct {
	mu sync.Mutex
	n  int
}

func (g *SeqIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.n++
	return fmt.Sprintf("id-%04d", g.n)
}

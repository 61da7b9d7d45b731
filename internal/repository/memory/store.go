// Package memory is an in-memory implementation of repository.Store. It backs
// unit tests and local development without postgres. A single mutex spans each
// unit of work, which trivially gives the serializable isolation the ledger
// requires; rollback restores a snapshot taken at the start of the unit.
package memory

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"finance-service/internal/domain"
	"finance-service/internal/repository"
	"finance-service/pkg/sequence"
	"finance-service/pkg/xerrors"
)

type state struct {
	accounts    map[string]*domain.Account
	txns        map[string]*domain.Transaction
	txnOrder    []string
	receivables map[string]*domain.Receivable
	sequences   map[domain.SequenceScope]string
}

func newState() *state {
	return &state{
		accounts:    make(map[string]*domain.Account),
		txns:        make(map[string]*domain.Transaction),
		receivables: make(map[string]*domain.Receivable),
		sequences:   make(map[domain.SequenceScope]string),
	}
}

func (s *state) clone() *state {
	cp := newState()
	for id, a := range s.accounts {
		cp.accounts[id] = cloneAccount(a)
	}
	for id, t := range s.txns {
		cp.txns[id] = cloneTransaction(t)
	}
	cp.txnOrder = append([]string(nil), s.txnOrder...)
	for id, r := range s.receivables {
		cp.receivables[id] = cloneReceivable(r)
	}
	for scope, last := range s.sequences {
		cp.sequences[scope] = last
	}
	return cp
}

func cloneAccount(a *domain.Account) *domain.Account {
	cp := *a
	return &cp
}

func cloneTransaction(t *domain.Transaction) *domain.Transaction {
	cp := *t
	return &cp
}

func cloneReceivable(r *domain.Receivable) *domain.Receivable {
	cp := *r
	if r.RejectReason != nil {
		reason := *r.RejectReason
		cp.RejectReason = &reason
	}
	if r.Fixed != nil {
		fixed := *r.Fixed
		if r.Fixed.PaymentType != nil {
			pt := *r.Fixed.PaymentType
			fixed.PaymentType = &pt
		}
		if r.Fixed.PaymentDate != nil {
			d := *r.Fixed.PaymentDate
			fixed.PaymentDate = &d
		}
		if r.Fixed.AccountID != nil {
			id := *r.Fixed.AccountID
			fixed.AccountID = &id
		}
		if r.Fixed.TransactionID != nil {
			id := *r.Fixed.TransactionID
			fixed.TransactionID = &id
		}
		cp.Fixed = &fixed
	}
	if r.Installment != nil {
		inst := *r.Installment
		inst.Payments = append([]domain.InstallmentPayment(nil), r.Installment.Payments...)
		cp.Installment = &inst
	}
	return &cp
}

// Store is the in-memory repository.Store.
type Store struct {
	mu    sync.Mutex
	state *state
}

func NewStore() *Store {
	return &Store{state: newState()}
}

// Compile-time check: Store implements the persistence boundary.
var _ repository.Store = (*Store)(nil)

// WithinTx holds the store lock for the whole unit of work and restores the
// pre-unit snapshot if fn fails, so partial application is never observable.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, uow repository.UnitOfWork) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	if err := fn(ctx, uow{s: s.state}); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

func (s *Store) Accounts() repository.AccountRepository {
	return lockedAccounts{s}
}

func (s *Store) Transactions() repository.TransactionRepository {
	return lockedTransactions{s}
}

func (s *Store) Receivables() repository.ReceivableRepository {
	return lockedReceivables{s}
}

func (s *Store) Sequences() repository.SequenceRepository {
	return lockedSequences{s}
}

// uow binds repositories directly to the live state; the surrounding WithinTx
// already holds the store lock.
type uow struct {
	s *state
}

func (u uow) Accounts() repository.AccountRepository         { return accountRepo{u.s} }
func (u uow) Transactions() repository.TransactionRepository { return transactionRepo{u.s} }
func (u uow) Receivables() repository.ReceivableRepository   { return receivableRepo{u.s} }
func (u uow) Sequences() repository.SequenceRepository       { return sequenceRepo{u.s} }

// ---- accounts ----

type accountRepo struct{ s *state }

func (r accountRepo) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	a, ok := r.s.accounts[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return cloneAccount(a), nil
}

func (r accountRepo) GetForUpdate(ctx context.Context, id string) (*domain.Account, error) {
	return r.GetByID(ctx, id)
}

func (r accountRepo) GetPrimary(ctx context.Context) (*domain.Account, error) {
	for _, a := range r.s.accounts {
		if a.IsPrimary {
			return cloneAccount(a), nil
		}
	}
	return nil, xerrors.ErrNotFound
}

func (r accountRepo) List(ctx context.Context, f *domain.AccountFilter) ([]*domain.Account, error) {
	var out []*domain.Account
	for _, a := range r.s.accounts {
		if f != nil && f.Type != nil && a.Type != *f.Type {
			continue
		}
		if f != nil && f.IsPrimary != nil && a.IsPrimary != *f.IsPrimary {
			continue
		}
		out = append(out, cloneAccount(a))
	}
	return out, nil
}

func (r accountRepo) Create(ctx context.Context, a *domain.Account) error {
	r.s.accounts[a.ID] = cloneAccount(a)
	return nil
}

func (r accountRepo) UpdateBalance(ctx context.Context, id string, balance decimal.Decimal) error {
	a, ok := r.s.accounts[id]
	if !ok {
		return xerrors.ErrNotFound
	}
	a.Balance = balance
	return nil
}

func (r accountRepo) SetPrimary(ctx context.Context, id string) error {
	target, ok := r.s.accounts[id]
	if !ok {
		return xerrors.ErrNotFound
	}
	for _, a := range r.s.accounts {
		a.IsPrimary = false
	}
	target.IsPrimary = true
	return nil
}

// ---- transactions ----

type transactionRepo struct{ s *state }

func (r transactionRepo) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	t, ok := r.s.txns[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return cloneTransaction(t), nil
}

func (r transactionRepo) Create(ctx context.Context, t *domain.Transaction) error {
	r.s.txns[t.ID] = cloneTransaction(t)
	r.s.txnOrder = append(r.s.txnOrder, t.ID)
	return nil
}

func (r transactionRepo) Update(ctx context.Context, t *domain.Transaction) error {
	if _, ok := r.s.txns[t.ID]; !ok {
		return xerrors.ErrNotFound
	}
	r.s.txns[t.ID] = cloneTransaction(t)
	return nil
}

func (r transactionRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.s.txns[id]; !ok {
		return xerrors.ErrNotFound
	}
	delete(r.s.txns, id)
	for i, tid := range r.s.txnOrder {
		if tid == id {
			r.s.txnOrder = append(r.s.txnOrder[:i], r.s.txnOrder[i+1:]...)
			break
		}
	}
	return nil
}

func (r transactionRepo) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []*domain.Transaction
	skipped := 0
	for _, id := range r.s.txnOrder {
		t := r.s.txns[id]
		if t.AccountID != accountID {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		if len(out) == limit {
			break
		}
		out = append(out, cloneTransaction(t))
	}
	return out, nil
}

// ---- receivables ----

type receivableRepo struct{ s *state }

func (r receivableRepo) GetByID(ctx context.Context, id string) (*domain.Receivable, error) {
	rec, ok := r.s.receivables[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return cloneReceivable(rec), nil
}

func (r receivableRepo) GetForUpdate(ctx context.Context, id string) (*domain.Receivable, error) {
	return r.GetByID(ctx, id)
}

func (r receivableRepo) GetByReceiptNumber(ctx context.Context, receiptNumber string) (*domain.Receivable, error) {
	for _, rec := range r.s.receivables {
		if rec.ReceiptNumber == receiptNumber {
			return cloneReceivable(rec), nil
		}
	}
	return nil, xerrors.ErrNotFound
}

func (r receivableRepo) GetByReceiptNumberForUpdate(ctx context.Context, receiptNumber string) (*domain.Receivable, error) {
	return r.GetByReceiptNumber(ctx, receiptNumber)
}

func (r receivableRepo) Create(ctx context.Context, rec *domain.Receivable) error {
	r.s.receivables[rec.ID] = cloneReceivable(rec)
	return nil
}

func (r receivableRepo) Update(ctx context.Context, rec *domain.Receivable) error {
	if _, ok := r.s.receivables[rec.ID]; !ok {
		return xerrors.ErrNotFound
	}
	r.s.receivables[rec.ID] = cloneReceivable(rec)
	return nil
}

func (r receivableRepo) ListByStatus(ctx context.Context, status domain.ReceivableStatus, limit, offset int) ([]*domain.Receivable, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []*domain.Receivable
	for _, rec := range r.s.receivables {
		if rec.Status != status {
			continue
		}
		out = append(out, cloneReceivable(rec))
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ---- sequences ----

type sequenceRepo struct{ s *state }

func (r sequenceRepo) Next(ctx context.Context, scope domain.SequenceScope) (string, error) {
	last, ok := r.s.sequences[scope]
	if !ok {
		return "", xerrors.ErrNotFound
	}
	next, err := sequence.Next(last)
	if err != nil {
		return "", err
	}
	r.s.sequences[scope] = next
	return next, nil
}

func (r sequenceRepo) Seed(ctx context.Context, scope domain.SequenceScope, initial string) error {
	if _, ok := r.s.sequences[scope]; !ok {
		r.s.sequences[scope] = initial
	}
	return nil
}

func (r sequenceRepo) Get(ctx context.Context, scope domain.SequenceScope) (*domain.SequenceCounter, error) {
	last, ok := r.s.sequences[scope]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return &domain.SequenceCounter{Scope: scope, LastNumber: last}, nil
}

// ---- locked variants used outside a unit of work ----

type lockedAccounts struct{ st *Store }

func (l lockedAccounts) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	l.st.mu.Lock()
	defer l.st.mu.Unlock()
	return accountRepo{l.st.state}.GetByID(ctx, id)
}

func (l lockedAccounts) GetForUpdate(ctx context.Context, id string) (*domain.Account, error) {
	l.st.mu.Lock()
	defer l.st.mu.Unlock()
	return accountRepo{l.st.state}.GetForUpdate(ctx, id)
}

func (l lockedAccounts) GetPrimary(ctx context.Context) (*domain.Account, error) {
	l.st.mu.Lock()
	defer l.st.mu.Unlock()
	return accountRepo{l.st.state}.GetPrimary(ctx)
}

func (l lockedAccounts) List(ctx context.Context, f *domain.AccountFilter) ([]*domain.Account, error) {
	l.st.mu.Lock()
	defer l.st.mu.Unlock()
	return accountRepo{l.st.state}.List(ctx, f)
}

func (l lockedAccounts) Create(ctx context.Context, a *domain.Account) error {
	l.st.mu.Lock()
	defer l.st.mu.Unlock()
	return accountRepo{l.st.state}.Create(ctx, a)
}

func (l lockedAccounts) UpdateBalance(ctx context.Context, id string, balance decimal.Decimal) error {
	l.st.mu.Lock()
	defer l.st.mu.Unlock()
	return accountRepo{l.st.state}.UpdateBalance(ctx, id, balance)
}

func (l lockedAccounts) SetPrimary(ctx context.Context, id string) error {
	l.st.mu.Lock()
	defer l.st.mu.Unlock()
	return accountRepo{l.st.state}.SetPrimary(ctx, id)
}

type lockedTransactions struct{ st *Store }

func (l lockedTransactions) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	l.st.mu.Lock()
	defer l.st.mu.Unlock()
	return transactionRepo{l.st.state}.GetByID(ctx, id)
}

func (l lockedTransactions) Create(ctx context.Context, t *domain.Transaction) error {
	l.st.mu.Lock()
	defer l.st.mu.Unlock()
	return transactionRepo{l.st.state}.Create(ctx, t)
}

func (l lockedTransactions) Update(ctx context.Context, t *domain.Transaction) error {
	l.st.mu.Lock()
	defer l.st.mu.Unlock()
	return transactionRepo{l.st.state}.Update(ctx, t)
}

func (l lockedTransactions) Delete(ctx context.Context, id string) error {
	l.st.mu.Lock()
	defer l.st.mu.Unlock()
	return transactionRepo{l.st.state}.Delete(ctx, id)
}

func (l lockedTransactions) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Transaction, error) {
	l.st.mu.Lock()
	defer l.st.mu.Unlock()
	return transactionRepo{l.st.state}.ListByAccount(ctx, accountID, limit, offset)
}

type lockedReceivables struct{ st *Store }

func (l lockedReceivables) GetByID(ctx context.Context, id string) (*domain.Receivable, error) {
	l.st.mu.Lock()
	defer l.st.mu.Unlock()
	return receivableRepo{l.st.state}.GetByID(ctx, id)
}

func (l lockedReceivables) GetForUpdate(ctx context.Context, id string) (*domain.Receivable, error) {
	l.st.mu.Lock()
	defer l.st.mu.Unlock()
	return receivableRepo{l.st.state}.GetForUpdate(ctx, id)
}

func (l lockedReceivables) GetByReceiptNumber(ctx context.Context, n string) (*domain.Receivable, error) {
	l.st.mu.Lock()
	defer l.st.mu.Unlock()
	return receivableRepo{l.st.state}.GetByReceiptNumber(ctx, n)
}

func (l lockedReceivables) GetByReceiptNumberForUpdate(ctx context.Context, n string) (*domain.Receivable, error) {
	l.st.mu.Lock()
	defer l.st.mu.Unlock()
	return receivableRepo{l.st.state}.GetByReceiptNumberForUpdate(ctx, n)
}

func (l lockedReceivables) Create(ctx context.Context, rec *domain.Receivable) error {
	l.st.mu.Lock()
	defer l.st.mu.Unlock()
	return receivableRepo{l.st.state}.Create(ctx, rec)
}

func (l lockedReceivables) Update(ctx context.Context, rec *domain.Receivable) error {
	l.st.mu.Lock()
	defer l.st.mu.Unlock()
	return receivableRepo{l.st.state}.Update(ctx, rec)
}

func (l lockedReceivables) ListByStatus(ctx context.Context, status domain.ReceivableStatus, limit, offset int) ([]*domain.Receivable, error) {
	l.st.mu.Lock()
	defer l.st.mu.Unlock()
	return receivableRepo{l.st.state}.ListByStatus(ctx, status, limit, offset)
}

type lockedSequences struct{ st *Store }

func (l lockedSequences) Next(ctx context.Context, scope domain.SequenceScope) (string, error) {
	l.st.mu.Lock()
	defer l.st.mu.Unlock()
	return sequenceRepo{l.st.state}.Next(ctx, scope)
}

func (l lockedSequences) Seed(ctx context.Context, scope domain.SequenceScope, initial string) error {
	l.st.mu.Lock()
	defer l.st.mu.Unlock()
	return sequenceRepo{l.st.state}.Seed(ctx, scope, initial)
}

func (l lockedSequences) Get(ctx context.Context, scope domain.SequenceScope) (*domain.SequenceCounter, error) {
	l.st.mu.Lock()
	defer l.st.mu.Unlock()
	return sequenceRepo{l.st.state}.Get(ctx, scope)
}

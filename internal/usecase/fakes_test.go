package usecase

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/jurix/jurix/internal/domain"
)

type txKey struct{}

// fakeStore is an in-memory contract and audit store. Transactions are
// serialized and roll back every write, audit rows included, on error.
type fakeStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	contracts map[string]domain.Contract
	versions  map[string][]domain.ContractVersion
	audit     []domain.AuditEntry

	failUpdate        error
	failCreateVersion error
	failDelete        error
	recordErr         error
	commits           int
	rollbacks         int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		contracts: make(map[string]domain.Contract),
		versions:  make(map[string][]domain.ContractVersion),
	}
}

func (s *fakeStore) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	contracts, versions, audit := s.cloneLocked()
	s.mu.Unlock()

	err := fn(context.WithValue(ctx, txKey{}, true))

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.contracts, s.versions, s.audit = contracts, versions, audit
		s.rollbacks++
		return err
	}
	s.commits++
	return nil
}

func (s *fakeStore) cloneLocked() (map[string]domain.Contract, map[string][]domain.ContractVersion, []domain.AuditEntry) {
	contracts := make(map[string]domain.Contract, len(s.contracts))
	for k, v := range s.contracts {
		contracts[k] = v
	}
	versions := make(map[string][]domain.ContractVersion, len(s.versions))
	for k, v := range s.versions {
		versions[k] = append([]domain.ContractVersion(nil), v...)
	}
	audit := append([]domain.AuditEntry(nil), s.audit...)
	return contracts, versions, audit
}

func (s *fakeStore) Create(ctx context.Context, contract *domain.Contract) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contracts[contract.ID]; ok {
		return domain.NewConflictError("contract already exists", nil)
	}
	s.contracts[contract.ID] = *contract
	return nil
}

func (s *fakeStore) FindByID(ctx context.Context, id string) (*domain.Contract, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contracts[id]
	if !ok {
		return nil, domain.NewNotFoundError("contract", id)
	}
	return &c, nil
}

func (s *fakeStore) FindByIDForUpdate(ctx context.Context, id string) (*domain.Contract, error) {
	return s.FindByID(ctx, id)
}

func (s *fakeStore) Update(ctx context.Context, contract *domain.Contract) error {
	if s.failUpdate != nil {
		return s.failUpdate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contracts[contract.ID]; !ok {
		return domain.NewNotFoundError("contract", contract.ID)
	}
	s.contracts[contract.ID] = *contract
	return nil
}

func (s *fakeStore) Delete(ctx context.Context, id string) error {
	if s.failDelete != nil {
		return s.failDelete
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.contracts[id]; !ok {
		return domain.NewNotFoundError("contract", id)
	}
	delete(s.contracts, id)
	delete(s.versions, id)
	return nil
}

func (s *fakeStore) List(ctx context.Context, filter domain.ContractFilter) ([]*domain.Contract, error) {
	s.mu.Lock()
	matched := s.matchLocked(filter)
	s.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool {
		var less bool
		switch filter.SortBy {
		case domain.SortByTitle:
			less = matched[i].Title < matched[j].Title
		case domain.SortByStatus:
			less = matched[i].Status < matched[j].Status
		case domain.SortByUpdatedAt:
			less = matched[i].UpdatedAt.Before(matched[j].UpdatedAt)
		default:
			less = matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		if filter.SortOrder == domain.SortDesc {
			return !less
		}
		return less
	})

	start := filter.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], nil
}

func (s *fakeStore) Count(ctx context.Context, filter domain.ContractFilter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.matchLocked(filter)), nil
}

func (s *fakeStore) matchLocked(filter domain.ContractFilter) []*domain.Contract {
	var out []*domain.Contract
	for _, c := range s.contracts {
		c := c
		if filter.Status != nil && c.Status != *filter.Status {
			continue
		}
		if filter.CreatedByID != nil && c.CreatedByID != *filter.CreatedByID {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(c.Title), strings.ToLower(filter.Search)) {
			continue
		}
		excluded := false
		for _, hidden := range filter.ExcludeStatuses {
			if c.Status == hidden {
				excluded = true
			}
		}
		if excluded {
			continue
		}
		out = append(out, &c)
	}
	return out
}

func (s *fakeStore) CreateVersion(ctx context.Context, version *domain.ContractVersion) error {
	if s.failCreateVersion != nil {
		return s.failCreateVersion
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.versions[version.ContractID] {
		if v.Version == version.Version {
			return domain.NewConflictError("duplicate contract version", nil)
		}
	}
	s.versions[version.ContractID] = append(s.versions[version.ContractID], *version)
	return nil
}

func (s *fakeStore) ListVersions(ctx context.Context, contractID string) ([]*domain.ContractVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := s.versions[contractID]
	out := make([]*domain.ContractVersion, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		v := stored[i]
		out = append(out, &v)
	}
	return out, nil
}

func (s *fakeStore) Record(ctx context.Context, entry *domain.AuditEntry) error {
	if s.recordErr != nil {
		return s.recordErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.audit {
		if e.ID == entry.ID {
			return domain.NewConflictError("audit entry already exists", nil)
		}
	}
	s.audit = append(s.audit, *entry)
	return nil
}

func (s *fakeStore) versionCount(contractID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.versions[contractID])
}

func (s *fakeStore) auditEntries() []domain.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.AuditEntry(nil), s.audit...)
}

// fakeAuditRepo adapts fakeStore to ports.AuditRepository
type fakeAuditRepo struct {
	*fakeStore
}

func (r fakeAuditRepo) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditEntry, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*domain.AuditEntry
	for i := len(r.audit) - 1; i >= 0; i-- {
		e := r.audit[i]
		if filter.UserID != nil && e.UserID != *filter.UserID {
			continue
		}
		if filter.Action != nil && e.Action != *filter.Action {
			continue
		}
		if filter.EntityType != nil && e.EntityType != *filter.EntityType {
			continue
		}
		if filter.EntityID != nil && (e.EntityID == nil || *e.EntityID != *filter.EntityID) {
			continue
		}
		if filter.StartDate != nil && e.CreatedAt.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && e.CreatedAt.After(*filter.EndDate) {
			continue
		}
		matched = append(matched, &e)
	}

	start := filter.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], len(matched), nil
}

func (r fakeAuditRepo) ListByEntity(ctx context.Context, entityType domain.EntityType, entityID string) ([]*domain.AuditEntry, error) {
	entries, _, err := r.List(ctx, domain.AuditFilter{EntityType: &entityType, EntityID: &entityID, Page: 1, Limit: 1 << 20})
	return entries, err
}

type fakeRetryQueue struct {
	mu         sync.Mutex
	entries    []*domain.AuditEntry
	enqueueErr error
}

func (q *fakeRetryQueue) Enqueue(ctx context.Context, entry *domain.AuditEntry) error {
	if q.enqueueErr != nil {
		return q.enqueueErr
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = append(q.entries, entry)
	return nil
}

func (q *fakeRetryQueue) Dequeue(ctx context.Context) (*domain.AuditEntry, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.entries) == 0 {
		return nil, nil
	}
	entry := q.entries[0]
	q.entries = q.entries[1:]
	return entry, nil
}

func (q *fakeRetryQueue) Len(ctx context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.entries)), nil
}

type fakeMetrics struct {
	mu            sync.Mutex
	versions      map[domain.AuditAction]int
	transitions   map[string]int
	auditFailures int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{
		versions:    make(map[domain.AuditAction]int),
		transitions: make(map[string]int),
	}
}

func (m *fakeMetrics) VersionCreated(action domain.AuditAction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.versions[action]++
}

func (m *fakeMetrics) StatusChanged(from, to domain.ContractStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions[string(from)+"->"+string(to)]++
}

func (m *fakeMetrics) AuditRecordFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.auditFailures++
}

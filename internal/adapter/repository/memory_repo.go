package repository

import (
	"context"
	"sync"
	"time"

	"github-repo-grader/internal/common"
	"github-repo-grader/internal/domain"
)

const (
	DefaultTTL        = 24 * time.Hour
	DefaultMaxRecords = 10000
)

type entry struct {
	record   *domain.AnalysisRecord
	storedAt time.Time
}

// MemoryRepo 实现了 port.AnalysisStore 接口，进程重启即丢失
type MemoryRepo struct {
	mu         sync.RWMutex
	records    map[string]entry
	ttl        time.Duration
	maxRecords int
	now        func() time.Time
}

type Option func(*MemoryRepo)

// WithTTL 记录的存活时间，0 表示永不过期
func WithTTL(ttl time.Duration) Option {
	return func(r *MemoryRepo) {
		if ttl >= 0 {
			r.ttl = ttl
		}
	}
}

// WithMaxRecords 记录数上限，0 表示不限制
func WithMaxRecords(n int) Option {
	return func(r *MemoryRepo) {
		if n >= 0 {
			r.maxRecords = n
		}
	}
}

func withClock(now func() time.Time) Option {
	return func(r *MemoryRepo) { r.now = now }
}

func NewMemoryRepo(opts ...Option) *MemoryRepo {
	r := &MemoryRepo{
		records:    make(map[string]entry),
		ttl:        DefaultTTL,
		maxRecords: DefaultMaxRecords,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Save 只插入，id 已存在时返回 CONFLICT
func (r *MemoryRepo) Save(ctx context.Context, record *domain.AnalysisRecord) error {
	if record == nil || record.ID == "" {
		return common.NewError(common.ErrCodeInvalidInput, "record id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if e, ok := r.records[record.ID]; ok && !r.expired(e, now) {
		return common.NewError(common.ErrCodeConflict, "analysis "+record.ID+" already exists")
	}

	if r.maxRecords > 0 && len(r.records) >= r.maxRecords {
		r.evict(now)
	}

	r.records[record.ID] = entry{record: record.Clone(), storedAt: now}
	return nil
}

// Get 过期的记录视为不存在，顺手删除
func (r *MemoryRepo) Get(ctx context.Context, id string) (*domain.AnalysisRecord, error) {
	r.mu.RLock()
	e, ok := r.records[id]
	r.mu.RUnlock()

	if ok && r.expired(e, r.now()) {
		r.mu.Lock()
		// 加写锁期间可能已被替换
		if cur, still := r.records[id]; still && cur.storedAt.Equal(e.storedAt) {
			delete(r.records, id)
		}
		r.mu.Unlock()
		ok = false
	}

	if !ok {
		return nil, common.NewError(common.ErrCodeNotFound, "Analysis not found")
	}
	return e.record.Clone(), nil
}

// Len 当前保存的记录数，包括尚未清理的过期记录
func (r *MemoryRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

func (r *MemoryRepo) expired(e entry, now time.Time) bool {
	return r.ttl > 0 && now.Sub(e.storedAt) >= r.ttl
}

// evict 先清过期记录，仍然满了就淘汰最早的一条，调用方需持有写锁
func (r *MemoryRepo) evict(now time.Time) {
	for id, e := range r.records {
		if r.expired(e, now) {
			delete(r.records, id)
		}
	}
	if len(r.records) < r.maxRecords {
		return
	}

	var oldestID string
	var oldest time.Time
	for id, e := range r.records {
		if oldestID == "" || e.storedAt.Before(oldest) {
			oldestID, oldest = id, e.storedAt
		}
	}
	delete(r.records, oldestID)
}

// Package audit records mutating API calls into activity_logs.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/technosupport/vms-inventory/internal/apperr"
	"github.com/technosupport/vms-inventory/internal/data"
	"github.com/technosupport/vms-inventory/internal/paging"
)

type Store interface {
	Insert(ctx context.Context, l *data.ActivityLog) error
	Page(ctx context.Context, limit, offset int) ([]*data.ActivityLog, int, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Entry is what the middleware hands over for one request.
type Entry struct {
	UserID     *int64
	ModuleName string
	Action     string
	Data       map[string]any
}

type PageResult struct {
	TotalCount int                 `json:"TotalCount"`
	PageNumber int                 `json:"PageNumber"`
	PageSize   int                 `json:"PageSize"`
	Logs       []*data.ActivityLog `json:"Logs"`
}

type Service struct {
	store       Store
	spool       *Spool
	log         *zap.Logger
	maxPageSize int
}

// NewService builds the writer. spool may be nil, in which case failed writes are only logged.
func NewService(store Store, spool *Spool, log *zap.Logger, maxPageSize int) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, spool: spool, log: log.Named("audit"), maxPageSize: maxPageSize}
}

func (e Entry) record() *data.ActivityLog {
	l := &data.ActivityLog{UserID: e.UserID, ModuleName: e.ModuleName, Action: e.Action}
	if len(e.Data) > 0 {
		if b, err := json.Marshal(e.Data); err == nil {
			l.Data = b
		}
	}
	return l
}

// Write never fails the caller: a storage error falls back to the spool, then to the log.
func (s *Service) Write(ctx context.Context, e Entry) {
	l := e.record()
	err := s.store.Insert(ctx, l)
	if err == nil {
		return
	}
	if s.spool == nil {
		s.log.Error("activity log write failed",
			zap.String("module", l.ModuleName), zap.String("action", l.Action), zap.Error(err))
		return
	}

	s.log.Warn("activity log write failed, spooling", zap.Error(err))
	if err := s.spool.Append(l); err != nil {
		s.log.Error("activity log spool failed",
			zap.String("module", l.ModuleName), zap.String("action", l.Action), zap.Error(err))
	}
}

func (s *Service) Page(ctx context.Context, pageNumber, pageSize int) (*PageResult, error) {
	p, err := paging.New(pageNumber, pageSize, s.maxPageSize)
	if err != nil {
		return nil, err
	}
	logs, total, err := s.store.Page(ctx, p.Limit(), p.Offset())
	if err != nil {
		return nil, apperr.FromStorage("activity log page", err)
	}
	return &PageResult{TotalCount: total, PageNumber: p.Number, PageSize: p.Size, Logs: logs}, nil
}

// Replay flushes spooled entries back into the store.
func (s *Service) Replay(ctx context.Context) {
	if s.spool == nil {
		return
	}
	n, err := s.spool.Replay(func(l *data.ActivityLog) error {
		return s.store.Insert(ctx, l)
	})
	if err != nil {
		s.log.Error("activity log replay failed", zap.Error(err))
	}
	if n > 0 {
		s.log.Info("activity log replay flushed", zap.Int("entries", n))
	}
}

// StartReplayer replays the spool every interval until ctx ends.
func (s *Service) StartReplayer(ctx context.Context, interval time.Duration) {
	if s.spool == nil {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Replay(ctx)
			}
		}
	}()
}

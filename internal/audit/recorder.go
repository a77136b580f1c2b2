package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/dmreyes/milasset-backend/pkg/config"
	"github.com/dmreyes/milasset-backend/pkg/db/models"
	"github.com/dmreyes/milasset-backend/pkg/logger"
)

type logWriter interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

// Recorder accepts audit entries without blocking the caller and writes them
// from a background goroutine. A full buffer drops the entry with a warning;
// the primary operation is never failed by audit.
type Recorder struct {
	logg         *logger.Logger
	repo         logWriter
	entries      chan models.AuditLog
	flushTimeout time.Duration
	done         chan struct{}
}

// NewRecorder builds a recorder with the configured buffer size.
func NewRecorder(cfg config.AuditConfig, repo logWriter, logg *logger.Logger) (*Recorder, error) {
	if repo == nil {
		return nil, fmt.Errorf("audit repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	size := cfg.BufferSize
	if size <= 0 {
		size = 256
	}
	flush := cfg.FlushTimeout
	if flush <= 0 {
		flush = 5 * time.Second
	}
	return &Recorder{
		logg:         logg,
		repo:         repo,
		entries:      make(chan models.AuditLog, size),
		flushTimeout: flush,
		done:         make(chan struct{}),
	}, nil
}

// Record enqueues one entry. Snapshots are marshaled immediately so later
// mutations of the passed values cannot alter the recorded state.
func (r *Recorder) Record(ctx context.Context, entry Entry) {
	row := models.AuditLog{
		ActorID:    entry.ActorID,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
	}
	if entry.Before != nil {
		data, err := json.Marshal(entry.Before)
		if err != nil {
			r.logg.Error(ctx, "audit before-state marshal failed", err)
		} else {
			row.BeforeState = data
		}
	}
	if entry.After != nil {
		data, err := json.Marshal(entry.After)
		if err != nil {
			r.logg.Error(ctx, "audit after-state marshal failed", err)
		} else {
			row.AfterState = data
		}
	}

	select {
	case r.entries <- row:
	default:
		r.logg.Warn(ctx, fmt.Sprintf("audit buffer full, dropping %s %s", entry.Action, entry.EntityType))
	}
}

// Run drains the buffer until the context is canceled, then flushes what
// remains within the flush timeout.
func (r *Recorder) Run(ctx context.Context) error {
	defer close(r.done)
	for {
		select {
		case <-ctx.Done():
			return r.flush()
		case row := <-r.entries:
			if err := r.repo.Create(context.WithoutCancel(ctx), &row); err != nil {
				r.logg.Error(ctx, "audit write failed", err)
			}
		}
	}
}

// Wait blocks until the background writer has exited.
func (r *Recorder) Wait() {
	<-r.done
}

func (r *Recorder) flush() error {
	ctx, cancel := context.WithTimeout(context.Background(), r.flushTimeout)
	defer cancel()

	var errs error
	for {
		select {
		case row := <-r.entries:
			if err := r.repo.Create(ctx, &row); err != nil {
				errs = multierr.Append(errs, err)
			}
		default:
			return errs
		}
	}
}

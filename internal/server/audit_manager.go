package server

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// AuditManager batches audit entries and writes them to the audit logger
// from a small worker pool, off the request path.
type AuditManager struct {
	workerCount int
	batchSize   int
	timeout     time.Duration
	logger      *zap.Logger

	inputChan  chan AuditLogEntry
	batchChan  chan []AuditLogEntry
	shutdownCh chan struct{}
	once       sync.Once

	wg           sync.WaitGroup
	pendingMu    sync.Mutex
	pendingCount int
}

func NewAuditManager(workerCount, batchSize int, timeout time.Duration, logger *zap.Logger) *AuditManager {
	return &AuditManager{
		workerCount: workerCount,
		batchSize:   batchSize,
		timeout:     timeout,
		logger:      logger.Named("audit"),
		inputChan:   make(chan AuditLogEntry, workerCount*batchSize*2),
		batchChan:   make(chan []AuditLogEntry, workerCount*2),
		shutdownCh:  make(chan struct{}),
	}
}

func (m *AuditManager) Shutdown(ctx context.Context) {
	m.once.Do(func() {
		m.logger.Info("audit manager shutting down", zap.Int("pending", m.Pending()))
		close(m.shutdownCh)

		done := make(chan struct{})
		go func() {
			m.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			m.logger.Info("audit manager shutdown completed")
		case <-ctx.Done():
			m.logger.Warn("audit manager shutdown interrupted", zap.Int("pending", m.Pending()))
		}
	})
}

func (m *AuditManager) monitorShutdown(ctx context.Context) {
	<-ctx.Done()
	m.Shutdown(context.Background())
}

func (m *AuditManager) Start(ctx context.Context) {
	m.logger.Info("audit manager starting", zap.Int("workers", m.workerCount), zap.Int("batch_size", m.batchSize))
	m.wg.Add(1)
	go m.runAggregator(ctx)

	for i := 0; i < m.workerCount; i++ {
		m.wg.Add(1)
		go m.runWorker(ctx, i)
	}

	go m.monitorShutdown(ctx)
}

// LogEntry queues entry. Once the manager is stopping, or ctx ends first,
// the entry is written straight away.
func (m *AuditManager) LogEntry(ctx context.Context, entry AuditLogEntry) {
	m.updatePendingCount(1)

	select {
	case <-m.shutdownCh:
		m.emergencyLog(entry)
		return
	default:
	}

	select {
	case m.inputChan <- entry:
	case <-ctx.Done():
		m.emergencyLog(entry)
	case <-m.shutdownCh:
		m.emergencyLog(entry)
	}
}

func (m *AuditManager) runAggregator(ctx context.Context) {
	defer m.wg.Done()

	var (
		batch    []AuditLogEntry
		timer    *time.Timer
		timeoutC <-chan time.Time
	)

	defer func() {
		if timer != nil {
			timer.Stop()
		}
		// Entries that were queued but not batched yet.
		for {
			select {
			case entry := <-m.inputChan:
				batch = append(batch, entry)
				continue
			default:
			}
			break
		}
		if len(batch) > 0 {
			m.dispatchBatch(batch)
		}
		close(m.batchChan)
	}()

	for {
		select {
		case entry, ok := <-m.inputChan:
			if !ok {
				return
			}

			batch = append(batch, entry)
			if len(batch) >= m.batchSize {
				m.dispatchBatch(batch)
				batch = nil
				timeoutC = nil
			} else if len(batch) == 1 {
				timer = time.NewTimer(m.timeout)
				timeoutC = timer.C
			}

		case <-timeoutC:
			m.dispatchBatch(batch)
			batch = nil
			timeoutC = nil

		case <-ctx.Done():
			return

		case <-m.shutdownCh:
			return
		}
	}
}

func (m *AuditManager) dispatchBatch(batch []AuditLogEntry) {
	batchCopy := make([]AuditLogEntry, len(batch))
	copy(batchCopy, batch)

	select {
	case m.batchChan <- batchCopy:
	default:
		m.writeBatch(-1, batchCopy)
	}
}

func (m *AuditManager) runWorker(ctx context.Context, id int) {
	defer m.wg.Done()

	for {
		select {
		case batch, ok := <-m.batchChan:
			if !ok {
				return
			}
			m.writeBatch(id, batch)
		case <-ctx.Done():
			for {
				select {
				case batch, ok := <-m.batchChan:
					if !ok {
						return
					}
					m.writeBatch(id, batch)
				default:
					return
				}
			}
		}
	}
}

func (m *AuditManager) emergencyLog(entry AuditLogEntry) {
	m.write(-1, entry)
	m.updatePendingCount(-1)
}

func (m *AuditManager) writeBatch(workerID int, batch []AuditLogEntry) {
	for _, entry := range batch {
		m.write(workerID, entry)
	}
	m.updatePendingCount(-len(batch))
}

func (m *AuditManager) write(workerID int, entry AuditLogEntry) {
	m.logger.Info("api call",
		zap.Int("worker", workerID),
		zap.Time("timestamp", entry.Timestamp),
		zap.String("handler", entry.Handler),
		zap.String("method", entry.Method),
		zap.String("path", entry.Path),
		zap.Int("status_code", entry.StatusCode),
		zap.String("actor_id", entry.ActorID),
		zap.String("actor_role", entry.ActorRole),
		zap.Any("resources", entry.Resources),
		zap.Duration("duration", entry.Duration),
		zap.String("request", entry.Request),
		zap.String("response", entry.Response),
	)
}

func (m *AuditManager) updatePendingCount(delta int) {
	m.pendingMu.Lock()
	defer m.pendingMu.Unlock()
	m.pendingCount += delta
}

// Pending is the number of entries accepted but not yet written.
func (m *AuditManager) Pending() int {
	m.pendingMu.Lock()
	defer m.pendingMu.Unlock()
	return m.pendingCount
}

package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/docsync/internal/core/domain"
	"github.com/custodia-labs/docsync/internal/core/ports/driven"
	"github.com/custodia-labs/docsync/internal/core/ports/driving"
	"github.com/custodia-labs/docsync/internal/logger"
)

// Ensure IngestOrchestrator implements the interface.
var _ driving.Ingestor = (*IngestOrchestrator)(nil)

// DefaultCallTimeout bounds each embedding and upsert call.
const DefaultCallTimeout = 60 * time.Second

// IngestOrchestrator rebuilds a vector collection from a document set.
// Every run deletes and recreates the collection, then upserts one record
// per chunk. The first failure aborts the run.
type IngestOrchestrator struct {
	segmenter  driven.Segmenter
	embedder   driven.EmbeddingService
	index      driven.VectorIndex
	collection domain.CollectionSpec

	source       driven.DocumentSource
	runs         driven.RunStore
	workers      int
	callTimeout  time.Duration
	storeContent bool
	now          func() time.Time

	mu     sync.RWMutex
	status driving.IngestStatus
}

// IngestOption configures an IngestOrchestrator.
type IngestOption func(*IngestOrchestrator)

// WithWorkers sets how many documents are processed at once.
// Values below 1 are ignored.
func WithWorkers(n int) IngestOption {
	return func(o *IngestOrchestrator) {
		if n >= 1 {
			o.workers = n
		}
	}
}

// WithCallTimeout bounds each embedding and upsert call. Zero disables it.
func WithCallTimeout(d time.Duration) IngestOption {
	return func(o *IngestOrchestrator) {
		if d >= 0 {
			o.callTimeout = d
		}
	}
}

// WithRunStore records every run in the ledger.
func WithRunStore(store driven.RunStore) IngestOption {
	return func(o *IngestOrchestrator) {
		o.runs = store
	}
}

// WithDocumentSource sets the source used by IngestAll and Watch.
func WithDocumentSource(source driven.DocumentSource) IngestOption {
	return func(o *IngestOrchestrator) {
		o.source = source
	}
}

// WithStoreContent controls whether chunk text is stored in the payload.
func WithStoreContent(store bool) IngestOption {
	return func(o *IngestOrchestrator) {
		o.storeContent = store
	}
}

// NewIngestOrchestrator creates an orchestrator writing to the collection
// described by spec.
func NewIngestOrchestrator(
	segmenter driven.Segmenter,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	spec domain.CollectionSpec,
	opts ...IngestOption,
) *IngestOrchestrator {
	o := &IngestOrchestrator{
		segmenter:    segmenter,
		embedder:     embedder,
		index:        index,
		collection:   spec,
		workers:      1,
		callTimeout:  DefaultCallTimeout,
		storeContent: true,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ingestRun holds the state scoped to one run.
type ingestRun struct {
	run      *domain.Run
	parallel bool
	next     uint64
	ids      atomic.Uint64
	chunks   atomic.Int64
}

// withID hands the next identifier to upsert. Sequential runs advance the
// counter only after a successful upsert; parallel runs reserve it first.
func (r *ingestRun) withID(upsert func(id uint64) error) error {
	if r.parallel {
		return upsert(r.ids.Add(1) - 1)
	}
	if err := upsert(r.next); err != nil {
		return err
	}
	r.next++
	return nil
}

// Run resets the collection and indexes docs in the order given.
func (o *IngestOrchestrator) Run(ctx context.Context, docs []domain.Document) (*domain.Run, error) {
	run := &domain.Run{
		ID:         uuid.NewString(),
		Collection: o.collection.Name,
		Status:     domain.RunStatusRunning,
		StartedAt:  o.now(),
	}
	if err := o.begin(run.ID, len(docs)); err != nil {
		return nil, err
	}
	defer o.end()

	log := logger.L().Named("ingest").With(zap.String("run_id", run.ID))
	log.Info("run started",
		zap.String("collection", run.Collection),
		zap.Int("documents", len(docs)),
		zap.Int("workers", o.workers))

	if o.runs != nil {
		if err := o.runs.Save(ctx, *run); err != nil {
			return nil, fmt.Errorf("save run: %w", err)
		}
	}

	r := &ingestRun{run: run, parallel: o.workers > 1}
	err := o.execute(ctx, r, docs)

	o.mu.RLock()
	run.Documents = o.status.DocumentsProcessed
	run.Records = o.status.RecordsUpserted
	o.mu.RUnlock()
	run.Chunks = int(r.chunks.Load())
	run.EndedAt = o.now()

	if err != nil {
		run.Status = domain.RunStatusFailed
		run.Error = err.Error()
		var stageErr *domain.StageError
		if errors.As(err, &stageErr) {
			run.FailedStage = stageErr.Stage
			run.FailedDocument = stageErr.Path
		}
		log.Error("run failed",
			zap.String("stage", string(run.FailedStage)),
			zap.String("path", run.FailedDocument),
			zap.Error(err))
	} else {
		run.Status = domain.RunStatusSucceeded
		log.Info("run complete",
			zap.Int("documents", run.Documents),
			zap.Int("records", run.Records),
			zap.Duration("duration", run.Duration()))
	}

	if o.runs != nil {
		// The index is already in its final state; a ledger failure only
		// loses the record of it.
		if saveErr := o.runs.Save(context.WithoutCancel(ctx), *run); saveErr != nil {
			log.Warn("save run result", zap.Error(saveErr))
		}
	}

	return run, err
}

// IngestAll discovers documents from the configured source, then runs.
func (o *IngestOrchestrator) IngestAll(ctx context.Context) (*domain.Run, error) {
	if o.source == nil {
		return nil, fmt.Errorf("%w: no document source configured", domain.ErrConfiguration)
	}

	docs, err := o.source.Discover(ctx)
	if err != nil {
		return nil, domain.NewStageError(domain.StageDiscovery, "", err)
	}
	return o.Run(ctx, docs)
}

// Watch runs IngestAll once, then again after every change signal.
// It returns nil when ctx is done; individual run failures go to report.
func (o *IngestOrchestrator) Watch(ctx context.Context, report func(*domain.Run, error)) error {
	if o.source == nil {
		return fmt.Errorf("%w: no document source configured", domain.ErrConfiguration)
	}
	if report == nil {
		report = func(*domain.Run, error) {}
	}

	signals, err := o.source.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch source: %w", err)
	}

	report(o.IngestAll(ctx))
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-signals:
			if !ok {
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			report(o.IngestAll(ctx))
		}
	}
}

// Status returns a snapshot of the current or most recent run.
func (o *IngestOrchestrator) Status() driving.IngestStatus {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.status
}

func (o *IngestOrchestrator) begin(runID string, total int) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.status.Running {
		return domain.ErrRunInProgress
	}
	o.status = driving.IngestStatus{
		RunID:          runID,
		Running:        true,
		DocumentsTotal: total,
	}
	return nil
}

func (o *IngestOrchestrator) end() {
	o.mu.Lock()
	o.status.Running = false
	o.status.CurrentDocument = ""
	o.mu.Unlock()
}

func (o *IngestOrchestrator) update(fn func(s *driving.IngestStatus)) {
	o.mu.Lock()
	fn(&o.status)
	o.mu.Unlock()
}

func (o *IngestOrchestrator) execute(ctx context.Context, r *ingestRun, docs []domain.Document) error {
	if err := o.reset(ctx); err != nil {
		return err
	}

	if !r.parallel {
		for _, doc := range docs {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("run cancelled: %w", err)
			}
			if err := o.ingestDocument(ctx, r, doc); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for _, doc := range docs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return fmt.Errorf("run cancelled: %w", err)
			}
			return o.ingestDocument(gctx, r, doc)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("run cancelled: %w", err)
	}
	return nil
}

// reset drops the collection and creates it empty.
func (o *IngestOrchestrator) reset(ctx context.Context) error {
	callCtx, cancel := o.callContext(ctx)
	err := o.index.DeleteCollection(callCtx, o.collection.Name)
	cancel()
	if err != nil {
		return domain.NewStageError(domain.StageReset, "", fmt.Errorf("delete collection %s: %w", o.collection.Name, err))
	}

	callCtx, cancel = o.callContext(ctx)
	err = o.index.CreateCollection(callCtx, o.collection)
	cancel()
	if err != nil {
		return domain.NewStageError(domain.StageReset, "", fmt.Errorf("create collection %s: %w", o.collection.Name, err))
	}
	return nil
}

func (o *IngestOrchestrator) ingestDocument(ctx context.Context, r *ingestRun, doc domain.Document) error {
	o.update(func(s *driving.IngestStatus) {
		s.CurrentDocument = doc.Path
	})

	chunks := o.segmenter.Segment(doc.Content)
	r.chunks.Add(int64(len(chunks)))
	if len(chunks) == 0 {
		logger.Debug("skipping %s: no chunks", doc.Path)
		o.update(func(s *driving.IngestStatus) {
			s.DocumentsProcessed++
		})
		return nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	callCtx, cancel := o.callContext(ctx)
	vectors, err := o.embedder.EmbedBatch(callCtx, texts)
	cancel()
	if err != nil {
		return domain.NewStageError(domain.StageEmbedding, doc.Path, err)
	}
	if len(vectors) != len(chunks) {
		return domain.NewStageError(domain.StageEmbedding, doc.Path,
			fmt.Errorf("got %d vectors for %d chunks: %w", len(vectors), len(chunks), domain.ErrEmbeddingMismatch))
	}

	title := doc.Title()
	for i, chunk := range chunks {
		payload := o.payload(r.run.ID, doc.Path, title, chunk)
		err := r.withID(func(id uint64) error {
			callCtx, cancel := o.callContext(ctx)
			defer cancel()
			return o.index.Upsert(callCtx, o.collection.Name, domain.IndexRecord{
				ID:      id,
				Vector:  vectors[i],
				Payload: payload,
			})
		})
		if err != nil {
			return domain.NewStageError(domain.StageUpsert, doc.Path, err)
		}
		o.update(func(s *driving.IngestStatus) {
			s.RecordsUpserted++
		})
	}

	o.update(func(s *driving.IngestStatus) {
		s.DocumentsProcessed++
	})
	logger.Debug("indexed %s: %d chunks", doc.Path, len(chunks))
	return nil
}

func (o *IngestOrchestrator) payload(runID, path, title string, chunk domain.Chunk) map[string]any {
	payload := map[string]any{
		domain.PayloadKeyPath:     path,
		domain.PayloadKeyKind:     chunk.Kind.String(),
		domain.PayloadKeyPosition: chunk.Position,
		domain.PayloadKeyRun:      runID,
	}
	if o.storeContent {
		payload[domain.PayloadKeyContent] = chunk.Text
	}
	if title != "" {
		payload[domain.PayloadKeyTitle] = title
	}
	return payload
}

func (o *IngestOrchestrator) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.callTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, o.callTimeout)
}

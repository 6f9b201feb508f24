package ingestion_engine

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/markdave123-py/policyrag/internal/models"
)

// Start runs a single worker goroutine reading from the jobs channel, so
// uploaded documents are persisted in submission order.
func (i *DocumentIngestor) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				log.Println("DocumentIngestor: Worker shutting down.")
				return
			case q := <-i.jobs:
				log.Printf("DocumentIngestor: Processing job %s (%s)", q.jobID, q.doc.Name)
				i.setStatus(q.jobID, func(j *models.Job) { j.Status = models.JobProcessing })

				fs, err := i.IngestDocument(ctx, q.doc)
				i.setStatus(q.jobID, func(j *models.Job) {
					j.Chunks = fs.Chunks
					if err != nil {
						j.Status = models.JobFailed
						j.Error = err.Error()
						return
					}
					j.Status = models.JobReady
				})
				if err != nil {
					log.Printf("DocumentIngestor: Error processing job %s: %v", q.jobID, err)
				}
			}
		}
	}()
}

// Enqueue schedules a document for ingestion and returns its job.
// If the queue is full, this call blocks until space frees up or ctx ends.
func (i *DocumentIngestor) Enqueue(ctx context.Context, doc models.Document) (models.Job, error) {
	now := i.now()
	job := &models.Job{
		ID:        uuid.NewString(),
		FileName:  doc.Name,
		Status:    models.JobQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}

	i.mu.Lock()
	i.pruneFinished(now)
	i.status[job.ID] = job
	i.mu.Unlock()

	select {
	case i.jobs <- queuedDocument{jobID: job.ID, doc: doc}:
		return *job, nil
	case <-ctx.Done():
		i.mu.Lock()
		delete(i.status, job.ID)
		i.mu.Unlock()
		return models.Job{}, ctx.Err()
	}
}

// Status returns a snapshot of a job.
func (i *DocumentIngestor) Status(jobID string) (models.Job, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	j, ok := i.status[jobID]
	if !ok {
		return models.Job{}, false
	}
	return *j, true
}

func (i *DocumentIngestor) setStatus(jobID string, update func(*models.Job)) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if j, ok := i.status[jobID]; ok {
		update(j)
		j.UpdatedAt = i.now()
	}
}

// pruneFinished drops ready and failed jobs older than the TTL. Callers hold mu.
func (i *DocumentIngestor) pruneFinished(now time.Time) {
	for id, j := range i.status {
		if j.Status != models.JobReady && j.Status != models.JobFailed {
			continue
		}
		if now.Sub(j.UpdatedAt) > i.cfg.JobTTL {
			delete(i.status, id)
		}
	}
}

package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/andrab0/scenegraph/pkg/scene"
	"github.com/andrab0/scenegraph/pkg/scene/metrics"
)

// Job is one entry of a batch run. Graph and Err are filled in by
// BatchProcess.
type Job struct {
	Request Request
	Source  string
	Graph   *scene.SceneGraph
	Err     error
}

// BatchProcess processes jobs concurrently, batchSize at a time. Every job
// records its own outcome; the returned error reports how many failed.
func (c *Coordinator) BatchProcess(ctx context.Context, jobs []*Job) error {
	c.logger.WithField("document_count", len(jobs)).Info("Starting batch processing")
	metrics.BatchQueueLength.Set(float64(len(jobs)))
	defer metrics.BatchQueueLength.Set(0)

	failed := 0
	for i := 0; i < len(jobs); i += c.batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := i + c.batchSize
		if end > len(jobs) {
			end = len(jobs)
		}

		batch := jobs[i:end]
		errs := make(chan error, len(batch))
		var wg sync.WaitGroup

		for _, job := range batch {
			wg.Add(1)
			go func(j *Job) {
				defer wg.Done()

				j.Graph, j.Err = c.Process(ctx, j.Request)
				if j.Err != nil {
					c.logger.WithError(j.Err).WithField("source", j.Source).Error("Failed to process document")
					errs <- j.Err
				}
			}(job)
		}

		wg.Wait()
		close(errs)
		for range errs {
			failed++
		}
		metrics.BatchQueueLength.Set(float64(len(jobs) - end))
	}

	if failed > 0 {
		return fmt.Errorf("batch processing failed for %d of %d documents", failed, len(jobs))
	}
	c.logger.Info("Batch processing completed successfully")
	return nil
}

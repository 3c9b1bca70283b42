package ingestion_engine

// IngestConfig tunes the ingestion pipeline.
//
// PreviewChars: how much extracted text to keep in summary.preview.
// QueueSize:    capacity of the in-memory job queue.
// JobTimeoutSec: wall-clock budget for one full pipeline run.
type IngestConfig struct {
	PreviewChars  int
	QueueSize     int
	JobTimeoutSec int
}

func (c *IngestConfig) defaults() {
	if c.PreviewChars <= 0 {
		c.PreviewChars = 500
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 64
	}
	if c.JobTimeoutSec <= 0 {
		c.JobTimeoutSec = 300
	}
}

// IngestJob identifies one queued document. The worker refetches the
// bytes from object storage so the queue stays small.
type IngestJob struct {
	ReportID string
	Bucket   string
	Key      string
	Filename string
}

// Package weights manages the recognition model's weight files: local cache
// checks and a one-time download from object storage before the first
// inference.
package weights

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"scorelib/observability"
)

// downloadFunc fetches one object into a local file. Tests substitute it to
// avoid hitting S3.
type downloadFunc func(ctx context.Context, bucket, key, dest string) error

// Manager downloads and caches model weight files. EnsureReady runs the
// download at most once per process; every caller after the first observes
// the first attempt's outcome.
type Manager struct {
	bucket   string
	dir      string
	files    []string
	logger   observability.Logger
	download downloadFunc

	once sync.Once
	err  error
}

// NewManager builds a Manager that mirrors the named objects from bucket
// into dir. A nil logger disables logging.
func NewManager(bucket, dir string, files []string, logger observability.Logger) *Manager {
	if logger == nil {
		logger = observability.NopLogger{}
	}
	return &Manager{
		bucket:   bucket,
		dir:      dir,
		files:    files,
		logger:   logger,
		download: s3Download,
	}
}

// Path returns the local path of a named weight file.
func (m *Manager) Path(name string) string {
	return filepath.Join(m.dir, name)
}

// EnsureReady makes every weight file available locally, downloading the
// ones missing from the cache directory. The first call does the work;
// later calls return its result.
func (m *Manager) EnsureReady(ctx context.Context) error {
	m.once.Do(func() {
		m.err = m.ensure(ctx)
	})
	return m.err
}

func (m *Manager) ensure(ctx context.Context) error {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return fmt.Errorf("create weight directory: %w", err)
	}
	for _, name := range m.files {
		dest := m.Path(name)
		if info, err := os.Stat(dest); err == nil && info.Size() > 0 {
			m.logger.Debug("weight file cached", observability.String("file", name))
			continue
		}
		m.logger.Info("downloading weight file",
			observability.String("bucket", m.bucket),
			observability.String("file", name))
		if err := m.download(ctx, m.bucket, name, dest); err != nil {
			return fmt.Errorf("download %s: %w", name, err)
		}
	}
	return nil
}

func s3Download(ctx context.Context, bucket, key, dest string) error {
	sess, err := session.NewSession(&aws.Config{})
	if err != nil {
		return fmt.Errorf("create AWS session: %w", err)
	}

	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer f.Close()

	downloader := s3manager.NewDownloader(sess)
	_, err = downloader.DownloadWithContext(ctx, f, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		// Leave no truncated file behind: a partial download would pass the
		// cache check on the next run.
		os.Remove(dest)
		return err
	}
	return nil
}

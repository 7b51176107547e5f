// Package ingest syncs catalog input files from object storage into the
// local data directory the planner reads from.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/replenit/purchase-planner/internal/dataio"
	"github.com/replenit/purchase-planner/internal/storage"
)

// catalogBasenames are the dataset names worth pulling from the bucket.
var catalogBasenames = map[string]bool{
	dataio.FileSalesHistory:     true,
	dataio.FileItemParameters:   true,
	dataio.FileCurrentInventory: true,
	dataio.FileSalesForecasts:   true,
}

// Status reports the outcome of the most recent sync.
type Status struct {
	LastSync  time.Time `json:"last_sync"`
	Files     []string  `json:"files"`
	LastError string    `json:"last_error,omitempty"`
}

type Service struct {
	store   storage.ObjectStorage
	prefix  string
	dataDir string

	mu     sync.Mutex
	status Status
}

// NewService wires the bucket prefix to the local catalog directory.
func NewService(store storage.ObjectStorage, prefix, dataDir string) *Service {
	return &Service{
		store:   store,
		prefix:  prefix,
		dataDir: dataDir,
	}
}

// Sync downloads all recognized catalog files under the prefix into the data
// directory and returns the local paths. XLSX objects are converted to CSV so
// the loader sees a uniform directory.
func (s *Service) Sync(ctx context.Context) ([]string, error) {
	paths, err := s.sync(ctx)

	s.mu.Lock()
	s.status.LastSync = time.Now()
	s.status.Files = paths
	if err != nil {
		s.status.LastError = err.Error()
	} else {
		s.status.LastError = ""
	}
	s.mu.Unlock()

	return paths, err
}

func (s *Service) sync(ctx context.Context) ([]string, error) {
	if err := os.MkdirAll(s.dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	objects, err := s.store.ListObjects(ctx, s.prefix)
	if err != nil {
		return nil, err
	}

	var localPaths []string
	for _, obj := range objects {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		name := filepath.Base(obj.Key)
		ext := strings.ToLower(filepath.Ext(name))
		base := strings.TrimSuffix(name, filepath.Ext(name))
		if !catalogBasenames[base] {
			continue
		}
		if ext != ".csv" && ext != ".json" && ext != ".xlsx" {
			continue
		}

		localPath := filepath.Join(s.dataDir, name)
		if err := s.store.DownloadObject(ctx, obj.Key, localPath); err != nil {
			return nil, err
		}

		if ext == ".xlsx" {
			csvPath := filepath.Join(s.dataDir, base+".csv")
			if err := convertXLSXToCSV(localPath, csvPath); err != nil {
				return nil, fmt.Errorf("failed to convert %s to csv: %w", name, err)
			}
			// Best-effort remove the downloaded XLSX
			_ = os.Remove(localPath)
			localPath = csvPath
		}

		log.Debug().Str("key", obj.Key).Str("path", localPath).Msg("catalog file synced")
		localPaths = append(localPaths, localPath)
	}

	return localPaths, nil
}

// LastStatus returns a copy of the most recent sync status.
func (s *Service) LastStatus() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	status := s.status
	status.Files = append([]string(nil), s.status.Files...)
	return status
}

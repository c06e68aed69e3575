package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joseph-ayodele/order-tracker/constants"
)

// DescribeFile resolves, hashes and stats a single document.
func DescribeFile(path string) (DocumentFile, error) {
	var out DocumentFile

	abs, err := filepath.Abs(path)
	if err != nil {
		return out, fmt.Errorf("abs path: %w", err)
	}
	ext := constants.NormalizeExt(filepath.Ext(abs))
	if ext == "" || !AllowedExt(ext) {
		return out, fmt.Errorf("unsupported or missing extension %q", ext)
	}

	f, err := os.Open(abs)
	if err != nil {
		return out, err
	}
	defer func(f *os.File) {
		if err := f.Close(); err != nil {
			slog.Warn("close file error", "path", abs, "error", err)
		}
	}(f)

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return out, fmt.Errorf("hash %s: %w", abs, err)
	}

	return DocumentFile{
		Path:    abs,
		Name:    filepath.Base(abs),
		Ext:     ext,
		Size:    n,
		HashHex: hex.EncodeToString(h.Sum(nil)),
	}, nil
}

// ScanDirectory lists the documents under root in path order. Unreadable
// entries are counted as failures and skipped; only a missing or
// unusable root is an error.
func ScanDirectory(ctx context.Context, root string, opts ScanOptions, logger *slog.Logger) ([]DocumentFile, DirStats, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, DirStats{}, fmt.Errorf("stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, DirStats{}, fmt.Errorf("%s is not a directory", root)
	}

	var (
		files []DocumentFile
		stats DirStats
	)
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == root {
			return nil
		}
		stats.Scanned++
		if walkErr != nil {
			logger.Warn("scan entry failed", "path", path, "error", walkErr)
			stats.Failed++
			return nil
		}
		if opts.SkipHidden && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if !opts.Recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		f, err := DescribeFile(path)
		if err != nil {
			logger.Warn("describe document failed", "path", path, "error", err)
			stats.Failed++
			return nil
		}
		files = append(files, f)
		return nil
	})
	if err != nil {
		return files, stats, fmt.Errorf("walk: %w", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	logger.Info("document directory scanned",
		"root", root,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"failed", stats.Failed,
	)
	return files, stats, nil
}

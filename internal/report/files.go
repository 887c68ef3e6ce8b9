package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"famtree/internal/model"
)

// ErrNoReports is returned when a report path holds no CSV files.
var ErrNoReports = errors.New("no report files found")

const reportExt = ".csv"

// Discover resolves a report path to the CSV files to read. A file path is
// returned as is. A directory yields its own .csv files, sorted by name;
// subdirectories are not searched.
func Discover(path string) ([]string, error) {
	path = model.ExpandHome(path)
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("report path: %w", err)
	}

	if !info.IsDir() {
		if !isReport(path) {
			return nil, fmt.Errorf("report path %s: not a %s file", path, reportExt)
		}
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read report directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !isReport(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(path, e.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoReports, path)
	}
	sort.Strings(files)
	return files, nil
}

// RowContext returns a report line with radius lines around it.
func RowContext(file string, line, radius int) model.RowContext {
	return model.GetRowContext(file, line, radius)
}

func isReport(name string) bool {
	return strings.EqualFold(filepath.Ext(name), reportExt)
}

package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"famtree/internal/model"
)

// FileName is the export file name for one data type.
func FileName(d model.DataType) string {
	return d.String() + reportExt
}

// WriteCSV writes the header and every record of one data type held by the
// containers, in container order.
func WriteCSV(w io.Writer, d model.DataType, containers []*model.FamilyDataContainer) error {
	header := model.Columns(d)
	if header == nil {
		return &model.UnsupportedVariantError{DataType: d.String()}
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, c := range containers {
		for _, r := range c.Records() {
			if r.Type() != d {
				continue
			}
			if err := writer.Write(r.Values()); err != nil {
				return err
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteContainersCSV writes one report file per data type into dir, in the
// same shape the reader accepts. It returns the files written.
func WriteContainersCSV(dir string, containers []*model.FamilyDataContainer) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}

	var written []string
	for _, d := range model.DataTypes {
		path := filepath.Join(dir, FileName(d))
		if err := writeFile(path, d, containers); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func writeFile(path string, d model.DataType, containers []*model.FamilyDataContainer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteCSV(f, d, containers); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

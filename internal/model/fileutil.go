package model

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RowContext is a report line with the lines around it, used to show
// where a rejected row sits in its file.
type RowContext struct {
	FilePath   string   `json:"file_path"`
	LineNumber int      `json:"line_number"` // 1-based line of the target row
	Before     []string `json:"before"`      // up to radius lines, nearest last
	Target     string   `json:"target"`
	After      []string `json:"after"` // up to radius lines, nearest first
	ErrorMsg   string   `json:"error,omitempty"`
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

// GetRowContext reads a report file and returns the target line with up to
// radius lines on either side.
func GetRowContext(filePath string, lineNumber, radius int) RowContext {
	result := RowContext{
		FilePath:   filePath,
		LineNumber: lineNumber,
	}

	file, err := os.Open(ExpandHome(filePath))
	if err != nil {
		result.ErrorMsg = fmt.Sprintf("could not read file: %v", err)
		return result
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	// used_by columns can be long
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		result.ErrorMsg = fmt.Sprintf("error reading file: %v", err)
		return result
	}

	if lineNumber < 1 || lineNumber > len(lines) {
		result.ErrorMsg = fmt.Sprintf("line %d out of range (file has %d lines)", lineNumber, len(lines))
		return result
	}

	idx := lineNumber - 1
	result.Target = lines[idx]
	result.Before = append([]string(nil), lines[max(0, idx-radius):idx]...)
	result.After = append([]string(nil), lines[idx+1:min(len(lines), idx+1+radius)]...)
	return result
}

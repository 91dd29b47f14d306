package reporting

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteFiles writes session-<id>.md and session-<id>.csv into dir, creating
// it if needed, and returns the written paths.
func WriteFiles(dir string, r *Report) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}

	csvData, err := RenderCSV(r.Trades)
	if err != nil {
		return nil, fmt.Errorf("render csv: %w", err)
	}

	base := filepath.Join(dir, "session-"+r.SessionID)
	files := []struct {
		path string
		data string
	}{
		{base + ".md", RenderMarkdown(r)},
		{base + ".csv", csvData},
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		if err := os.WriteFile(f.path, []byte(f.data), 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", f.path, err)
		}
		paths = append(paths, f.path)
	}
	return paths, nil
}

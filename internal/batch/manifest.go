package batch

import (
	"encoding/json"
	"os"
)

// Manifest is the report written after a batch run.
type Manifest struct {
	Total   int      `json:"total"`
	OK      int      `json:"ok"`
	Failed  int      `json:"failed"`
	Results []Result `json:"results"`
}

// WriteManifest writes a JSON report of results to path.
func WriteManifest(path string, results []Result) error {
	ok, failed := Summary(results)
	m := Manifest{
		Total:   len(results),
		OK:      ok,
		Failed:  failed,
		Results: results,
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Package dataset reads training samples and numeric series from disk.
package dataset

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"strings"

	"github.com/pkg/errors"

	"goldennet/internal/trainer"
)

// Sample is a labeled training example as stored on disk.
type Sample = trainer.Sample

// maxLineSize bounds a single JSON-lines record.
const maxLineSize = 16 << 20

// LoadSamples reads samples from a JSON array file or, for .jsonl files, one
// JSON object per line. Blank lines are skipped.
func LoadSamples(path string) ([]Sample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read samples %q", path)
	}
	if strings.HasSuffix(path, ".jsonl") {
		return parseJSONLines(path, data)
	}
	var samples []Sample
	if err := json.Unmarshal(data, &samples); err != nil {
		return nil, errors.Wrapf(err, "parse samples %q", path)
	}
	return samples, nil
}

func parseJSONLines(path string, data []byte) ([]Sample, error) {
	var samples []Sample
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var s Sample
		if err := json.Unmarshal(line, &s); err != nil {
			return nil, errors.Wrapf(err, "%s line %d", path, lineNo)
		}
		samples = append(samples, s)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "scan %q", path)
	}
	return samples, nil
}

// LoadSeries reads a JSON array of numbers.
func LoadSeries(path string) ([]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read series %q", path)
	}
	var series []float64
	if err := json.Unmarshal(data, &series); err != nil {
		return nil, errors.Wrapf(err, "parse series %q", path)
	}
	return series, nil
}

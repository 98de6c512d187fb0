package dataset

import (
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/pkg/errors"
)

var sampleFileRegexp = regexp.MustCompile(`\.jsonl?$`)

// DiscoverSampleFiles returns the paths of .json and .jsonl files beneath root,
// sorted.
func DiscoverSampleFiles(root string) ([]string, error) {
	entries := make([]string, 0)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if sampleFileRegexp.MatchString(d.Name()) {
			entries = append(entries, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "discover sample files under %q", root)
	}
	sort.Strings(entries)
	return entries, nil
}

// LoadDir loads and concatenates every sample file beneath root.
func LoadDir(root string) ([]Sample, error) {
	files, err := DiscoverSampleFiles(root)
	if err != nil {
		return nil, err
	}
	var all []Sample
	for _, f := range files {
		samples, err := LoadSamples(f)
		if err != nil {
			return nil, err
		}
		all = append(all, samples...)
	}
	return all, nil
}

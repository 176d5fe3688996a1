package playlist

import (
	"fmt"

	"github.com/spf13/afero"
)

// LoadFile parses the playlist stored at path on fs.
func LoadFile(fs afero.Fs, path string, opts ParseOptions) (*Result, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open playlist: %w", err)
	}
	defer f.Close()

	res, err := Parse(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}

// LoadConfigFile parses the standalone config document stored at path on fs.
func LoadConfigFile(fs afero.Fs, path string) (*ConfigSection, []Warning, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, warnings, err := ParseConfig(f)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, warnings, nil
}

// DanglingReferences lists branch targets that name no subject. Targets
// using the url: scheme and the back() token are not subject references.
func (d *Document) DanglingReferences() []string {
	seen := make(map[string]bool)
	var out []string
	check := func(rules []BranchRule) {
		for _, r := range rules {
			if r.Subject == "" || IsURLTarget(r.Subject) || r.Subject == BackTarget {
				continue
			}
			if _, ok := d.Subjects[r.Subject]; !ok && !seen[r.Subject] {
				seen[r.Subject] = true
				out = append(out, r.Subject)
			}
		}
	}

	for _, s := range d.Subjects {
		check(s.LeadsTo)
		for _, r := range s.Swipe {
			check([]BranchRule{r})
		}
	}
	for _, m := range d.Media {
		check(m.LeadsTo)
		for _, o := range m.Overlays {
			check(o.LeadsTo)
		}
	}
	return out
}

package bootstrap

import (
	"fmt"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// Progress records the states a previous run finished.
type Progress struct {
	Completed []State   `yaml:"completed"`
	UpdatedAt time.Time `yaml:"updated_at"`
}

func loadProgress(sys System, path string) (*Progress, error) {
	data, err := sys.ReadFile(path)
	if err != nil {
		if isNotExist(err) {
			return &Progress{}, nil
		}
		return nil, fmt.Errorf("failed to read progress file: %w", err)
	}
	var p Progress
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse progress file %s: %w", path, err)
	}
	return &p, nil
}

// Done reports whether s completed in an earlier run.
func (p *Progress) Done(s State) bool {
	return slices.Contains(p.Completed, s)
}

func (p *Progress) mark(s State, now time.Time) {
	if !p.Done(s) {
		p.Completed = append(p.Completed, s)
	}
	p.UpdatedAt = now.UTC()
}

func (p *Progress) save(sys System, path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal progress: %w", err)
	}
	if err := sys.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write progress file: %w", err)
	}
	return nil
}

package volumebackup

import (
	"context"
	"fmt"
	"slices"

	"github.com/Chapsvision-dev/volume-backup-client/pkg/rest"
)

// FindAll lists the detailed collection and keeps backups whose attributes
// equal every entry of match. Values compare by their printed form, so
// match{"size": 10} matches a size of json.Number("10").
func (m *BackupManager) FindAll(ctx context.Context, match map[string]any) ([]Backup, error) {
	all, err := m.List(ctx, true)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(match))
	for k := range match {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]Backup, 0, len(all))
	for _, b := range all {
		if matches(b, keys, match) {
			out = append(out, b)
		}
	}
	return out, nil
}

// Find returns the single backup matching. No match wraps rest.ErrNotFound,
// several wrap ErrNoUniqueMatch.
func (m *BackupManager) Find(ctx context.Context, match map[string]any) (Backup, error) {
	found, err := m.FindAll(ctx, match)
	if err != nil {
		return Backup{}, err
	}
	switch len(found) {
	case 0:
		return Backup{}, fmt.Errorf("find backup %v: %w", match, rest.ErrNotFound)
	case 1:
		return found[0], nil
	default:
		return Backup{}, fmt.Errorf("find backup %v: %w (%d)", match, ErrNoUniqueMatch, len(found))
	}
}

func matches(b Backup, keys []string, match map[string]any) bool {
	for _, k := range keys {
		got, ok := b.Get(k)
		if !ok {
			return false
		}
		want := match[k]
		if got == nil || want == nil {
			if got != want {
				return false
			}
			continue
		}
		if fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

package library

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/innerlight-hq/distill/internal/extractor"
)

// Stats are derived from the pattern collection on demand, never maintained
// as independent mutable state.
type Stats struct {
	Total  int            `json:"total"`
	ByType map[string]int `json:"by_type"`
}

// persisted is the on-disk form: the full pattern collection plus stats.
type persisted struct {
	Patterns []extractor.TransformationPattern `json:"patterns"`
	Stats    Stats                             `json:"stats"`
	SavedAt  time.Time                         `json:"saved_at"`
}

// Library is the append-only wisdom corpus. Patterns are deduplicated by
// (pattern_type, normalized description). One writer at a time owns the file.
type Library struct {
	path     string
	patterns map[string]extractor.TransformationPattern

	// persistedCount guards against accidental wholesale replacement: Save
	// refuses to shrink the corpus unless Reset was explicitly requested.
	persistedCount int
	resetRequested bool
}

// Load reconstructs the library from its persisted form. A missing file is a
// normal startup state and yields an empty library, not an error.
func Load(path string) (*Library, error) {
	lib := &Library{
		path:     path,
		patterns: make(map[string]extractor.TransformationPattern),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return lib, nil
		}
		return nil, fmt.Errorf("read library: %w", err)
	}

	var p persisted
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse library: %w", err)
	}

	for _, pat := range p.Patterns {
		lib.patterns[pat.DedupKey()] = pat
	}
	lib.persistedCount = len(lib.patterns)
	return lib, nil
}

// AddPatterns merges new patterns into the collection, applying the dedup
// rule. Returns the number actually added (duplicates merge silently).
func (l *Library) AddPatterns(patterns []extractor.TransformationPattern) int {
	added := 0
	for _, p := range patterns {
		key := p.DedupKey()
		if _, exists := l.patterns[key]; exists {
			continue
		}
		l.patterns[key] = p
		added++
	}
	return added
}

// Save atomically persists the full current state: write to a temp file in
// the same directory, then rename over the durable copy.
func (l *Library) Save() error {
	if len(l.patterns) < l.persistedCount && !l.resetRequested {
		return fmt.Errorf("refusing to save library with %d patterns over persisted %d without an explicit reset",
			len(l.patterns), l.persistedCount)
	}

	p := persisted{
		Patterns: l.sorted(),
		Stats:    l.Stats(),
		SavedAt:  time.Now().UTC(),
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal library: %w", err)
	}

	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".library-*.json")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp: %w", err)
	}

	if err := os.Rename(tmpName, l.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace library: %w", err)
	}

	l.persistedCount = len(l.patterns)
	l.resetRequested = false
	return nil
}

// Reset permits the next Save to shrink the persisted corpus. Callers use it
// only for deliberate, operator-requested rebuilds.
func (l *Library) Reset() {
	l.resetRequested = true
}

// Stats recomputes the aggregate counts from the collection.
func (l *Library) Stats() Stats {
	s := Stats{
		Total:  len(l.patterns),
		ByType: make(map[string]int),
	}
	for _, p := range l.patterns {
		s.ByType[string(p.PatternType)]++
	}
	return s
}

// Len reports the deduplicated pattern count.
func (l *Library) Len() int {
	return len(l.patterns)
}

// Path returns the configured persisted-form location.
func (l *Library) Path() string {
	return l.path
}

// sorted returns the patterns in stable key order so the persisted file is
// deterministic for a given collection.
func (l *Library) sorted() []extractor.TransformationPattern {
	keys := make([]string, 0, len(l.patterns))
	for k := range l.patterns {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]extractor.TransformationPattern, 0, len(keys))
	for _, k := range keys {
		out = append(out, l.patterns[k])
	}
	return out
}

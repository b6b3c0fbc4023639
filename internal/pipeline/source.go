package pipeline

import (
	"context"
	"fmt"
	"os"
)

// SourceStore gives the orchestrator its only access to raw transcript
// originals. Deletion is a capability handed in, not a direct filesystem
// call, so tests can observe exactly when and for what it is invoked.
type SourceStore interface {
	Fetch(ctx context.Context, locator string) (string, error)
	Delete(ctx context.Context, locator string) error
}

// FileSource is a SourceStore over the local filesystem; the locator is a
// file path.
type FileSource struct{}

func (FileSource) Fetch(_ context.Context, locator string) (string, error) {
	data, err := os.ReadFile(locator)
	if err != nil {
		return "", fmt.Errorf("read original %s: %w", locator, err)
	}
	return string(data), nil
}

func (FileSource) Delete(_ context.Context, locator string) error {
	if err := os.Remove(locator); err != nil {
		return fmt.Errorf("remove original %s: %w", locator, err)
	}
	return nil
}

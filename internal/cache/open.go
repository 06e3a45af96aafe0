package cache

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/julianstephens/bloomup/internal/constants"
)

// Open builds a Store from a backend spec:
//
//	file              <configDir>/cache.json
//	file:<path>       JSON file at path
//	memory            process-local, discarded on exit
//	redis://...       Redis server
func Open(ctx context.Context, spec, configDir string) (*Store, error) {
	switch {
	case spec == "" || spec == "file":
		return New(NewFileStore(filepath.Join(configDir, "cache.json"))), nil
	case strings.HasPrefix(spec, "file:"):
		return New(NewFileStore(strings.TrimPrefix(spec, "file:"))), nil
	case spec == "memory":
		return New(NewMemoryStore()), nil
	case strings.HasPrefix(spec, "redis://"), strings.HasPrefix(spec, "rediss://"):
		rs, err := NewRedisStore(ctx, spec, constants.CacheNamespace+":")
		if err != nil {
			return nil, err
		}
		return New(rs), nil
	}
	return nil, fmt.Errorf("unknown cache backend %q (want file, file:<path>, memory or redis://)", spec)
}

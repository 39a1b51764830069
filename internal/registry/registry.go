package registry

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
)

// Registry holds the disposable-domain set. Immutable after load, so
// lookups need no locking.
type Registry struct {
	domains map[string]struct{}
	logger  *zap.Logger
}

// Load reads a newline-delimited domain list from path. Blank lines and
// lines starting with '#' are ignored; domains are matched
// case-insensitively. An unreadable list is a startup failure.
func Load(path string, logger *zap.Logger) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open disposable domain list: %w", err)
	}
	defer f.Close()

	reg, err := Parse(f, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to read disposable domain list %s: %w", path, err)
	}
	return reg, nil
}

// Parse builds a registry from a newline-delimited reader.
func Parse(r io.Reader, logger *zap.Logger) (*Registry, error) {
	domains := make(map[string]struct{})

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		domains[line] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Info("Loaded disposable domain registry", zap.Int("domains", len(domains)))
	}

	return &Registry{domains: domains, logger: logger}, nil
}

// IsDisposable reports whether the address's domain (substring after
// the last '@') is on the disposable list. Addresses without an '@'
// return false rather than failing.
func (r *Registry) IsDisposable(email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return false
	}
	domain := strings.ToLower(email[at+1:])
	_, ok := r.domains[domain]
	return ok
}

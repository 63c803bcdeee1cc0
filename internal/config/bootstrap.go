package config

import (
	"errors"
	"io"
	"os"
	"path/filepath"
)

// defaultYAML is written on first launch when no bundled default exists.
const defaultYAML = `app:
  port: 8787
  data_dir: ""
  env: dev

schedule:
  daily_at: "03:30"
  retry_max: 3
  unit_timeout_seconds: 120

limits:
  per_unit: 50

sources:
  twogis:
    enabled: true
    rps: 2
    concurrency: 2
  yandex:
    enabled: true
    rps: 2
    concurrency: 2
  egr:
    enabled: true
    rps: 1
    concurrency: 1
  onliner:
    enabled: true
    rps: 1
    concurrency: 1
  dealby:
    enabled: true
    rps: 1
    concurrency: 1
  instagram:
    enabled: false
    rps: 1
    concurrency: 1

categories:
  - all

cities:
  - минск
`

// EnsureUserConfig guarantees a config.yml exists under dataDir and
// returns its path. A missing user file is seeded from defaultPath,
// or from the built-in default when no bundled file ships either.
func EnsureUserConfig(dataDir string, defaultPath string) (string, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", err
	}
	userPath := filepath.Join(dataDir, "config.yml")

	_, err := os.Stat(userPath)
	if err == nil {
		return userPath, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	src, err := os.Open(defaultPath)
	if errors.Is(err, os.ErrNotExist) {
		if werr := os.WriteFile(userPath, []byte(defaultYAML), 0o644); werr != nil {
			return "", werr
		}
		return userPath, nil
	}
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.Create(userPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return userPath, nil
}

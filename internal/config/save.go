package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SaveAtomic validates, then writes via tmp+rename keeping one .bak of the
// previous config.
func SaveAtomic(path string, cfg Config) error {
	if _, vr := NormalizeAndValidate(cfg); !vr.OK() {
		return &ValidationError{Validation: vr}
	}

	b, err := yaml.Marshal(&cfg)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp := path + ".tmp"
	bak := path + ".bak"

	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}

	_ = os.Remove(bak)
	_ = os.Rename(path, bak)

	return os.Rename(tmp, path)
}

// ValidationError carries structured validation output across the save path.
type ValidationError struct {
	Validation Validation
}

func (e *ValidationError) Error() string {
	out := "config validation failed:"
	for _, s := range e.Validation.Errors {
		out += "\n- " + s
	}
	return out
}

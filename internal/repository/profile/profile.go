// Package profile persists configuration profiles to disk. A profile is a
// directory containing config.json with the calibration blocks and an
// optional reference.png captured from the board extractor.
package profile

import (
	"encoding/json"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/kendfrey/saigo/internal/domain/config"
	saigoerr "github.com/kendfrey/saigo/internal/errors"
)

const (
	configFile    = "config.json"
	referenceFile = "reference.png"
)

type Repository struct {
	root string
	log  *zap.SugaredLogger
}

func NewRepository(root string, log *zap.SugaredLogger) *Repository {
	return &Repository{root: root, log: log}
}

// List returns the names of all saved profiles, sorted.
func (r *Repository) List() ([]string, error) {
	entries, err := os.ReadDir(r.root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Save writes the configuration and its reference image under the profile
// name, replacing any previous contents.
func (r *Repository) Save(name string, cfg config.Config) error {
	if err := validateName(name); err != nil {
		return err
	}
	dir := filepath.Join(r.root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", saigoerr.ErrProfileWriteFailed, err)
	}

	payload, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", saigoerr.ErrProfileWriteFailed, err)
	}
	if err := os.WriteFile(filepath.Join(dir, configFile), payload, 0o644); err != nil {
		return fmt.Errorf("%w: %v", saigoerr.ErrProfileWriteFailed, err)
	}

	refPath := filepath.Join(dir, referenceFile)
	if cfg.Reference == nil {
		if err := os.Remove(refPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("%w: %v", saigoerr.ErrProfileWriteFailed, err)
		}
		return nil
	}
	f, err := os.Create(refPath)
	if err != nil {
		return fmt.Errorf("%w: %v", saigoerr.ErrProfileWriteFailed, err)
	}
	defer f.Close()
	if err := png.Encode(f, cfg.Reference); err != nil {
		return fmt.Errorf("%w: %v", saigoerr.ErrProfileWriteFailed, err)
	}

	r.log.Infow("profile saved", "profile", name)
	return nil
}

// Load reads a profile back. A missing reference image is not an error.
func (r *Repository) Load(name string) (config.Config, error) {
	var cfg config.Config
	if err := validateName(name); err != nil {
		return cfg, err
	}
	dir := filepath.Join(r.root, name)
	payload, err := os.ReadFile(filepath.Join(dir, configFile))
	if os.IsNotExist(err) {
		return cfg, fmt.Errorf("%w: %s", saigoerr.ErrProfileNotFound, name)
	}
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(payload, &cfg); err != nil {
		return cfg, fmt.Errorf("profile %s: %w", name, err)
	}

	if ref, err := loadReference(filepath.Join(dir, referenceFile)); err == nil {
		// Reject a stale reference whose resolution no longer matches the
		// extractor output.
		w, h := cfg.Board.ExtractorSize()
		if ref.Rect.Dx() == w && ref.Rect.Dy() == h {
			cfg.Reference = ref
		} else {
			r.log.Warnw("discarding mismatched reference image", "profile", name)
		}
	}

	return cfg, nil
}

// Delete removes a profile directory.
func (r *Repository) Delete(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	dir := filepath.Join(r.root, name)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", saigoerr.ErrProfileNotFound, name)
	}
	return os.RemoveAll(dir)
}

func loadReference(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, err
	}
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba, nil
	}
	out := image.NewRGBA(image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy()))
	draw.Draw(out, out.Rect, img, img.Bounds().Min, draw.Src)
	return out, nil
}

func validateName(name string) error {
	if name == "" || strings.ContainsAny(name, "/\\") || name == "." || name == ".." {
		return fmt.Errorf("%w: invalid profile name %q", saigoerr.ErrBadConfiguration, name)
	}
	return nil
}

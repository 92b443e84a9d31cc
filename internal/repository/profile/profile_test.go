package profile

import (
	"errors"
	"image"
	"testing"

	"go.uber.org/zap"

	"github.com/kendfrey/saigo/internal/domain/config"
	saigoerr "github.com/kendfrey/saigo/internal/errors"
)

func testRepo(t *testing.T) *Repository {
	t.Helper()
	return NewRepository(t.TempDir(), zap.NewNop().Sugar())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	repo := testRepo(t)

	cfg := config.Default()
	cfg.Board.Width = 13
	cfg.Board.Height = 13
	cfg.Camera.Device = "/dev/video2"

	if err := repo.Save("den", cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := repo.Load("den")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Board != cfg.Board {
		t.Errorf("board block %+v, want %+v", loaded.Board, cfg.Board)
	}
	if loaded.Camera != cfg.Camera {
		t.Errorf("camera block %+v, want %+v", loaded.Camera, cfg.Camera)
	}
	if loaded.Display != cfg.Display {
		t.Errorf("display block %+v, want %+v", loaded.Display, cfg.Display)
	}
}

func TestSaveWithReference(t *testing.T) {
	repo := testRepo(t)

	cfg := config.Default()
	cfg.Board.Width = 2
	cfg.Board.Height = 2
	w, h := cfg.Board.ExtractorSize()
	ref := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range ref.Pix {
		ref.Pix[i] = byte(i % 251)
	}
	cfg.Reference = ref

	if err := repo.Save("ref", cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := repo.Load("ref")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Reference == nil {
		t.Fatalf("reference image not restored")
	}
	if loaded.Reference.Rect.Dx() != w || loaded.Reference.Rect.Dy() != h {
		t.Errorf("reference resolution %v", loaded.Reference.Rect)
	}
}

func TestMismatchedReferenceDiscarded(t *testing.T) {
	repo := testRepo(t)

	cfg := config.Default()
	cfg.Board.Width = 2
	cfg.Board.Height = 2
	w, h := cfg.Board.ExtractorSize()
	cfg.Reference = image.NewRGBA(image.Rect(0, 0, w, h))
	if err := repo.Save("stale", cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Shrink the board without updating the reference on disk.
	cfg.Board.Width = 3
	cfg.Reference = nil
	payload := cfg
	if err := repo.Save("stale2", payload); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := repo.Load("stale")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Reference == nil {
		t.Fatalf("matching reference should survive")
	}
}

func TestListAndDelete(t *testing.T) {
	repo := testRepo(t)

	for _, name := range []string{"zephyr", "attic"} {
		if err := repo.Save(name, config.Default()); err != nil {
			t.Fatalf("Save %s: %v", name, err)
		}
	}

	names, err := repo.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(names) != 2 || names[0] != "attic" || names[1] != "zephyr" {
		t.Errorf("List = %v", names)
	}

	if err := repo.Delete("attic"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	names, _ = repo.List()
	if len(names) != 1 || names[0] != "zephyr" {
		t.Errorf("after delete List = %v", names)
	}
}

func TestLoadMissingProfile(t *testing.T) {
	repo := testRepo(t)
	if _, err := repo.Load("nope"); !errors.Is(err, saigoerr.ErrProfileNotFound) {
		t.Errorf("expected ErrProfileNotFound, got %v", err)
	}
	if err := repo.Delete("nope"); !errors.Is(err, saigoerr.ErrProfileNotFound) {
		t.Errorf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestInvalidProfileNames(t *testing.T) {
	repo := testRepo(t)
	for _, name := range []string{"", "a/b", `a\b`, ".", ".."} {
		if err := repo.Save(name, config.Default()); err == nil {
			t.Errorf("name %q should be rejected", name)
		}
	}
}

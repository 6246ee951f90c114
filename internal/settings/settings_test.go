package settings

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNormalizedClampsNumericFields(t *testing.T) {
	s := Settings{
		Audio:    AudioSettings{Master: 1.7, Music: -0.4, SFX: 0.5},
		Graphics: GraphicsSettings{Quality: "Insane"},
		Gameplay: GameplaySettings{Sensitivity: 400},
	}

	normalized := s.Normalized()
	if normalized.Audio.Master != 1 {
		t.Fatalf("expected master volume clamped to 1, got %f", normalized.Audio.Master)
	}
	if normalized.Audio.Music != 0 {
		t.Fatalf("expected music volume clamped to 0, got %f", normalized.Audio.Music)
	}
	if normalized.Graphics.Quality != QualityHigh {
		t.Fatalf("expected unknown quality to fall back to High, got %s", normalized.Graphics.Quality)
	}
	if normalized.Gameplay.Sensitivity != 100 {
		t.Fatalf("expected sensitivity clamped to 100, got %f", normalized.Gameplay.Sensitivity)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	loaded, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("expected missing file to be tolerated, got %v", err)
	}
	if loaded != Default() {
		t.Fatalf("expected defaults for missing file, got %+v", loaded)
	}
}

func TestLoadMergesAndClampsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	payload := `{"audio":{"master":2.5},"gameplay":{"sensitivity":0.2,"invertY":true}}`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write settings fixture: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if loaded.Audio.Master != 1 {
		t.Fatalf("expected master clamped to 1, got %f", loaded.Audio.Master)
	}
	if loaded.Gameplay.Sensitivity != 1 {
		t.Fatalf("expected sensitivity clamped to 1, got %f", loaded.Gameplay.Sensitivity)
	}
	if !loaded.Gameplay.InvertY {
		t.Fatalf("expected invertY from file to be honored")
	}
}

package services

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/desertthunder/xbr/internal/models"
)

func testArtifact() *models.TokenArtifact {
	return &models.TokenArtifact{
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		UserToken:    "user-token",
		XSTSToken:    "xsts-token",
		UserHash:     "1234567890",
		XUID:         "2533274810000000",
		Gamertag:     "MajorNelson",
		ExpiresAt:    time.Now().Add(8 * time.Hour).UTC(),
	}
}

func TestFileTokenStore(t *testing.T) {
	t.Run("round trips an artifact", func(t *testing.T) {
		store := NewFileTokenStore(t.TempDir())
		artifact := testArtifact()

		if store.Exists() {
			t.Fatal("expected no token file before save")
		}
		if err := store.Save(artifact); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		if !store.Exists() {
			t.Fatal("expected token file after save")
		}

		loaded, err := store.Load()
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if loaded.XSTSToken != artifact.XSTSToken {
			t.Errorf("expected XSTS token %q, got %q", artifact.XSTSToken, loaded.XSTSToken)
		}
		if loaded.Gamertag != artifact.Gamertag {
			t.Errorf("expected gamertag %q, got %q", artifact.Gamertag, loaded.Gamertag)
		}
		if !loaded.ExpiresAt.Equal(artifact.ExpiresAt) {
			t.Errorf("expected expiry %v, got %v", artifact.ExpiresAt, loaded.ExpiresAt)
		}
	})

	t.Run("creates missing parent directories", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "tokens")
		store := NewFileTokenStore(dir)

		if err := store.Save(testArtifact()); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	})

	t.Run("restricts file permissions", func(t *testing.T) {
		store := NewFileTokenStore(t.TempDir())
		if err := store.Save(testArtifact()); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		info, err := os.Stat(store.Path())
		if err != nil {
			t.Fatalf("Stat failed: %v", err)
		}
		if perm := info.Mode().Perm(); perm != 0600 {
			t.Errorf("expected permissions 0600, got %o", perm)
		}
	})

	t.Run("fails to load a missing file", func(t *testing.T) {
		store := NewFileTokenStore(t.TempDir())
		if _, err := store.Load(); err == nil {
			t.Fatal("expected error loading missing token file")
		}
	})

	t.Run("fails to load corrupt JSON", func(t *testing.T) {
		dir := t.TempDir()
		store := NewFileTokenStore(dir)
		if err := os.WriteFile(store.Path(), []byte("{not json"), 0600); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}

		if _, err := store.Load(); err == nil {
			t.Fatal("expected error loading corrupt token file")
		}
	})
}

func TestTokenArtifactState(t *testing.T) {
	t.Run("reports expiry", func(t *testing.T) {
		artifact := testArtifact()
		if artifact.Expired() {
			t.Error("expected fresh artifact to not be expired")
		}

		artifact.ExpiresAt = time.Now().Add(-time.Minute)
		if !artifact.Expired() {
			t.Error("expected past-expiry artifact to be expired")
		}
	})

	t.Run("reports completeness", func(t *testing.T) {
		artifact := testArtifact()
		if !artifact.Complete() {
			t.Error("expected full artifact to be complete")
		}

		artifact.XSTSToken = ""
		if artifact.Complete() {
			t.Error("expected artifact without XSTS token to be incomplete")
		}
	})

	t.Run("builds the authorization header", func(t *testing.T) {
		artifact := testArtifact()
		want := "XBL3.0 x=1234567890;xsts-token"
		if got := artifact.AuthHeader(); got != want {
			t.Errorf("expected header %q, got %q", want, got)
		}
	})
}

func TestFileTokenStoreLoadWrapsIOErrors(t *testing.T) {
	store := NewFileTokenStore(t.TempDir())
	_, err := store.Load()
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected wrapped os.ErrNotExist, got %v", err)
	}
}

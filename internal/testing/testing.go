// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"

	"github.com/desertthunder/xbr/internal/models"
)

// MockXboxClient is a configurable test double for [services.XboxClient].
// Nil function fields return empty values without error.
type MockXboxClient struct {
	ProfileFunc      func(ctx context.Context, xuid string) (*models.Profile, error)
	ResolveFunc      func(ctx context.Context, gamertag string) (string, error)
	TitlesFunc       func(ctx context.Context, xuid string) ([]models.Title, error)
	StatsFunc        func(ctx context.Context, xuid string, titleIDs []string) (map[string]int, error)
	AchievementsFunc func(ctx context.Context, xuid, titleID string) ([]models.Achievement, error)
}

func (m *MockXboxClient) GetProfile(ctx context.Context, xuid string) (*models.Profile, error) {
	if m.ProfileFunc != nil {
		return m.ProfileFunc(ctx, xuid)
	}
	return &models.Profile{XUID: xuid, Gamertag: "MockPlayer"}, nil
}

func (m *MockXboxClient) ResolveXUID(ctx context.Context, gamertag string) (string, error) {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, gamertag)
	}
	return "", nil
}

func (m *MockXboxClient) GetTitleHistory(ctx context.Context, xuid string) ([]models.Title, error) {
	if m.TitlesFunc != nil {
		return m.TitlesFunc(ctx, xuid)
	}
	return []models.Title{}, nil
}

func (m *MockXboxClient) GetStats(ctx context.Context, xuid string, titleIDs []string) (map[string]int, error) {
	if m.StatsFunc != nil {
		return m.StatsFunc(ctx, xuid, titleIDs)
	}
	return map[string]int{}, nil
}

func (m *MockXboxClient) GetAchievements(ctx context.Context, xuid, titleID string) ([]models.Achievement, error) {
	if m.AchievementsFunc != nil {
		return m.AchievementsFunc(ctx, xuid, titleID)
	}
	return []models.Achievement{}, nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

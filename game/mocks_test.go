package game

import (
	"context"
	"fmt"

	"github.com/stretchr/testify/mock"

	"github.com/The1Divider/Bathbot/chat"
	"github.com/The1Divider/Bathbot/domain"
)

// --- Catalog ---

type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) ListEligible(ctx context.Context, included, excluded domain.Tags) ([]domain.PlayableItem, error) {
	args := m.Called(ctx, included, excluded)
	return args.Get(0).([]domain.PlayableItem), args.Error(1)
}

// --- ScoreStore ---

type MockScoreStore struct {
	mock.Mock
}

func (m *MockScoreStore) IncrementScore(ctx context.Context, playerID string, amount int) error {
	args := m.Called(ctx, playerID, amount)
	return args.Error(0)
}

func (m *MockScoreStore) TopScores(ctx context.Context, limit int) ([]domain.ScoreEntry, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.ScoreEntry), args.Error(1)
}

// --- Renderer ---

// stubRenderer encodes its inputs into the output so tests can tell which
// source and reveal level produced a given image.
type stubRenderer struct{}

func (stubRenderer) Render(source string, level int, effects domain.Effects) ([]byte, error) {
	return []byte(fmt.Sprintf("%s@%d", source, level)), nil
}

// --- Transport ---

// fakeTransport is an in-memory transport: tests feed guesses into msgs and
// observe announcements on texts and images.
type fakeTransport struct {
	msgs   chan chat.Message
	texts  chan string
	images chan []byte
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		msgs:   make(chan chat.Message, 64),
		texts:  make(chan string, 64),
		images: make(chan []byte, 64),
	}
}

func (f *fakeTransport) Subscribe(channel string) (<-chan chat.Message, func()) {
	return f.msgs, func() {}
}

func (f *fakeTransport) SendText(ctx context.Context, channel, text string) error {
	f.texts <- text
	return nil
}

func (f *fakeTransport) SendImage(ctx context.Context, channel, name string, data []byte) error {
	f.images <- data
	return nil
}

func (f *fakeTransport) SelfID() string { return "bathbot" }

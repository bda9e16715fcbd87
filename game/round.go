package game

import (
	"math/rand"
	"strings"

	"github.com/The1Divider/Bathbot/domain"
	"github.com/The1Divider/Bathbot/similarity"
)

// history is a bounded FIFO of recently played item ids, used to avoid
// repeats across rounds.
type history struct {
	capacity int
	ids      []int64
}

func newHistory(capacity int) *history {
	return &history{capacity: capacity, ids: make([]int64, 0, capacity)}
}

func (h *history) contains(id int64) bool {
	for _, v := range h.ids {
		if v == id {
			return true
		}
	}
	return false
}

// push appends id, evicting the oldest entry when full.
func (h *history) push(id int64) {
	if len(h.ids) >= h.capacity {
		h.ids = h.ids[1:]
	}
	h.ids = append(h.ids, id)
}

func (h *history) clear() {
	h.ids = h.ids[:0]
}

// round is the state of one "guess this item" iteration. It is owned
// exclusively by the session loop; nothing here needs locking.
type round struct {
	item       domain.PlayableItem
	answer     string
	reveal     int
	maxReveal  int
	hintLevel  int
	effects    domain.Effects
	thresholds similarity.Thresholds
}

// newRound draws a random eligible item that is not in hist and records it
// there. Returns ErrExhaustedCatalog when every item has been played
// recently; the caller is expected to clear the history and redraw rather
// than loop forever.
func newRound(items []domain.PlayableItem, hist *history, rng *rand.Rand, setup Setup, settings Settings) (*round, error) {
	candidates := make([]domain.PlayableItem, 0, len(items))
	for _, item := range items {
		if !hist.contains(item.ID) {
			candidates = append(candidates, item)
		}
	}

	if len(candidates) == 0 {
		return nil, domain.ErrExhaustedCatalog
	}

	item := candidates[rng.Intn(len(candidates))]
	hist.push(item.ID)

	return &round{
		item:       item,
		answer:     sanitizeAnswer(item.Title),
		maxReveal:  settings.MaxReveal,
		effects:    setup.Effects,
		thresholds: settings.Thresholds.Scale(setup.Difficulty.Factor()),
	}, nil
}

// sanitizeAnswer strips the first parenthesized group and everything from a
// case-insensitive "ft." or "feat." marker onward, then trims the result.
func sanitizeAnswer(title string) string {
	if open := strings.Index(title, "("); open >= 0 {
		if end := strings.Index(title[open:], ")"); end >= 0 {
			title = title[:open] + title[open+end+1:]
		}
	}

	lower := strings.ToLower(title)
	cut := len(title)
	if i := strings.Index(lower, "feat."); i >= 0 && i < cut {
		cut = i
	}
	if i := strings.Index(lower, "ft."); i >= 0 && i < cut {
		cut = i
	}

	return strings.TrimSpace(title[:cut])
}

func (r *round) checkGuess(text string) bool {
	return similarity.Match(text, r.answer, r.thresholds)
}

// revealMore raises the reveal level by one step. Requests beyond the cap
// are no-ops, not errors.
func (r *round) revealMore() {
	if r.reveal < r.maxReveal {
		r.reveal++
	}
}

func (r *round) image(renderer Renderer) ([]byte, error) {
	return renderer.Render(r.item.ImageSource, r.reveal, r.effects)
}

// hint discloses one more leading character of the answer per call, keeping
// the remaining letters as blanks so word lengths stay visible.
func (r *round) hint() string {
	runes := []rune(r.answer)

	revealed := 0
	for _, c := range runes {
		if c != ' ' {
			revealed++
		}
	}
	if r.hintLevel < revealed {
		r.hintLevel++
	}

	var b strings.Builder
	shown := 0
	for _, c := range runes {
		switch {
		case c == ' ':
			b.WriteRune(' ')
		case shown < r.hintLevel:
			b.WriteRune(c)
			shown++
		default:
			b.WriteRune('_')
			shown++
		}
	}

	return b.String()
}

package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/The1Divider/Bathbot/chat"
	"github.com/The1Divider/Bathbot/domain"
)

type resultKind int

const (
	resultWinner resultKind = iota
	resultTimeout
	resultRestart
	resultStop
)

type roundResult struct {
	kind       resultKind
	winnerID   string
	winnerName string
}

// Loop supervises the rounds of one channel's session. It exclusively owns
// the round state and the score ledger; the only way in from outside is the
// Handle returned by Start.
type Loop struct {
	channel  string
	setup    Setup
	items    []domain.PlayableItem
	settings Settings

	registry  *Registry
	transport chat.Transport
	scores    ScoreStore
	renderer  Renderer

	handle  *Handle
	hist    *history
	ledger  map[string]int
	current *round
	rng     *rand.Rand
	log     zerolog.Logger
}

// Start spawns the loop goroutine for a session that just left setup and
// returns the handle external callers use to reach it.
func Start(channel string, setup Setup, items []domain.PlayableItem, settings Settings,
	registry *Registry, transport chat.Transport, scores ScoreStore, renderer Renderer,
	rng *rand.Rand, log zerolog.Logger) *Handle {

	l := &Loop{
		channel:   channel,
		setup:     setup,
		items:     items,
		settings:  settings,
		registry:  registry,
		transport: transport,
		scores:    scores,
		renderer:  renderer,
		handle:    newHandle(settings.RequestTimeout),
		hist:      newHistory(settings.HistorySize),
		ledger:    make(map[string]int),
		rng:       rng,
		log: log.With().
			Str("channel", channel).
			Logger(),
	}

	go l.run()

	return l.handle
}

func (l *Loop) run() {
	msgs, cancel := l.transport.Subscribe(l.channel)
	defer cancel()

	l.log.Info().
		Str("included", l.setup.Included.Join(",")).
		Str("excluded", l.setup.Excluded.Join(",")).
		Int("items", len(l.items)).
		Msg("game started")

	for {
		if err := l.nextRound(); err != nil {
			l.announce("Something went wrong while picking the next item, ending the game.")
			break
		}

		l.announceRound()

		result := l.playRound(msgs)
		l.resolve(result)

		if result.kind == resultStop {
			break
		}

		if result.kind == resultWinner && len(l.items) >= l.settings.MinScoredCatalog {
			l.ledger[result.winnerID]++
		}
	}

	// The flush happens exactly once, synchronously, before the registry
	// entry disappears; a session can never be resumed from here.
	l.flushScores()
	l.registry.RemoveRunning(l.channel, l.handle)

	l.log.Info().Msg("game finished")
}

// nextRound draws the next item. When the recent history swallows the whole
// catalog it is cleared and the draw retried once.
func (l *Loop) nextRound() error {
	r, err := newRound(l.items, l.hist, l.rng, l.setup, l.settings)
	if errors.Is(err, domain.ErrExhaustedCatalog) {
		l.hist.clear()
		r, err = newRound(l.items, l.hist, l.rng, l.setup, l.settings)
	}
	if err != nil {
		l.log.Error().Err(err).Msg("failed to start round")
		return err
	}

	l.current = r

	return nil
}

func (l *Loop) announceRound() {
	ctx, cancelCtx := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelCtx()

	img, err := l.current.image(l.renderer)
	if err != nil {
		l.log.Warn().Err(err).Msg("failed to render round image")
		if err := l.transport.SendText(ctx, l.channel, "Here's the next one:"); err != nil {
			l.log.Warn().Err(err).Msg("failed to send round start message")
		}
		return
	}

	if err := l.transport.SendImage(ctx, l.channel, "guess_img.png", img); err != nil {
		l.log.Warn().Err(err).Msg("failed to send round start image")
	}
}

// playRound races the channel's message stream against control signals and
// the round timer, first ready wins. Image and hint requests are served in
// between so bounded external reads never touch loop-owned state directly.
func (l *Loop) playRound(msgs <-chan chat.Message) roundResult {
	timer := time.NewTimer(l.settings.RoundTimeout)
	defer timer.Stop()

	for {
		select {
		case sig := <-l.handle.ctrl:
			if sig == SignalRestart {
				return roundResult{kind: resultRestart}
			}
			return roundResult{kind: resultStop}

		case msg, ok := <-msgs:
			if !ok {
				// Stream closed under us, treat as an implicit stop.
				return roundResult{kind: resultStop}
			}
			if msg.Sender == l.transport.SelfID() {
				continue
			}
			if l.current.checkGuess(msg.Text) {
				return roundResult{kind: resultWinner, winnerID: msg.Sender, winnerName: msg.Name}
			}

		case <-timer.C:
			return roundResult{kind: resultTimeout}

		case req := <-l.handle.imgReqs:
			l.current.revealMore()
			data, err := l.current.image(l.renderer)
			req.reply <- imageReply{data: data, err: err}

		case req := <-l.handle.hintReqs:
			req.reply <- l.current.hint()
		}
	}
}

// resolve announces the round's outcome. Every round resolution produces
// exactly one announcement; a failed send is logged and nothing else.
func (l *Loop) resolve(result roundResult) {
	reveal := fmt.Sprintf("The answer was: %s\nFull image: %s", l.current.item.Title, l.current.item.ImageSource)

	var content string
	switch result.kind {
	case resultWinner:
		content = fmt.Sprintf("%s got it!\n%s", result.winnerName, reveal)
	case resultTimeout:
		content = "Time's up!\n" + reveal
	case resultRestart:
		content = "Round skipped.\n" + reveal
	case resultStop:
		content = reveal + "\nEnd of game, see you next time o/"
	}

	l.announce(content)
}

func (l *Loop) announce(content string) {
	ctx, cancelCtx := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelCtx()

	if err := l.transport.SendText(ctx, l.channel, content); err != nil {
		l.log.Warn().Err(err).Msg("failed to send announcement")
	}
}

// flushScores writes every nonzero ledger entry to the score store, fire and
// forget: failures are logged, not retried, and never block shutdown.
func (l *Loop) flushScores() {
	ctx, cancelCtx := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelCtx()

	for playerID, wins := range l.ledger {
		if wins == 0 {
			continue
		}
		if err := l.scores.IncrementScore(ctx, playerID, wins); err != nil {
			l.log.Warn().Err(err).Str("player", playerID).Msg("failed to persist score")
		}
	}
}

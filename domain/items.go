package domain

import "strings"

// PlayableItem is one entry of the guessing catalog: the thing players
// try to name from its progressively revealed image.
type PlayableItem struct {
	ID          int64
	Title       string
	ImageSource string
}

// Tags is a bitflag set used to filter the catalog when configuring a session.
type Tags uint32

const (
	TagEasy Tags = 1 << iota
	TagHard
	TagMeme
	TagWeeb
	TagKpop
	TagEnglish
	TagStreams
	TagOld
	TagTech
	TagAlt
)

var tagNames = []struct {
	tag  Tags
	name string
}{
	{TagEasy, "easy"},
	{TagHard, "hard"},
	{TagMeme, "meme"},
	{TagWeeb, "weeb"},
	{TagKpop, "kpop"},
	{TagEnglish, "english"},
	{TagStreams, "streams"},
	{TagOld, "old"},
	{TagTech, "tech"},
	{TagAlt, "alt"},
}

// ParseTags folds a list of tag names into a Tags set, ignoring unknown names.
func ParseTags(values []string) Tags {
	var tags Tags
	for _, v := range values {
		for _, tn := range tagNames {
			if tn.name == strings.ToLower(strings.TrimSpace(v)) {
				tags |= tn.tag
				break
			}
		}
	}
	return tags
}

func (t Tags) Has(flag Tags) bool { return t&flag == flag }

// Join renders the set as a comma separated list, "None" when empty.
func (t Tags) Join(sep string) string {
	if t == 0 {
		return "None"
	}
	parts := make([]string, 0, len(tagNames))
	for _, tn := range tagNames {
		if t.Has(tn.tag) {
			parts = append(parts, tn.name)
		}
	}
	return strings.Join(parts, sep)
}

// Effects is a bitflag set of visual distortions applied when rendering
// the reveal image of a round.
type Effects uint32

const (
	EffectBlur Effects = 1 << iota
	EffectContrast
	EffectFlipHorizontal
	EffectFlipVertical
	EffectGrayscale
	EffectInvert
)

var effectNames = []struct {
	effect Effects
	name   string
}{
	{EffectBlur, "blur"},
	{EffectContrast, "contrast"},
	{EffectFlipHorizontal, "flip_h"},
	{EffectFlipVertical, "flip_v"},
	{EffectGrayscale, "grayscale"},
	{EffectInvert, "invert"},
}

// ParseEffects folds a list of effect names into an Effects set, ignoring
// unknown names.
func ParseEffects(values []string) Effects {
	var effects Effects
	for _, v := range values {
		for _, en := range effectNames {
			if en.name == strings.ToLower(strings.TrimSpace(v)) {
				effects |= en.effect
				break
			}
		}
	}
	return effects
}

func (e Effects) Has(flag Effects) bool { return e&flag == flag }

func (e Effects) Join(sep string) string {
	if e == 0 {
		return "None"
	}
	parts := make([]string, 0, len(effectNames))
	for _, en := range effectNames {
		if e.Has(en.effect) {
			parts = append(parts, en.name)
		}
	}
	return strings.Join(parts, sep)
}

// Difficulty tightens the similarity thresholds a guess has to clear.
type Difficulty string

const (
	DifficultyNormal     Difficulty = "normal"
	DifficultyHard       Difficulty = "hard"
	DifficultyImpossible Difficulty = "impossible"
)

// Factor is the multiplier applied to the configured base thresholds.
func (d Difficulty) Factor() float64 {
	switch d {
	case DifficultyHard:
		return 1.4
	case DifficultyImpossible:
		return 1.8
	default:
		return 1.0
	}
}

// ParseDifficulty returns the difficulty matching s, defaulting to normal.
func ParseDifficulty(s string) Difficulty {
	switch Difficulty(strings.ToLower(strings.TrimSpace(s))) {
	case DifficultyHard:
		return DifficultyHard
	case DifficultyImpossible:
		return DifficultyImpossible
	default:
		return DifficultyNormal
	}
}

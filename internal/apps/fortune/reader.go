package fortune

import (
	"fmt"
	"maps"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/fortune-backend/internal/zodiac"
)

// Picker chooses an index in [0, n). *rand.Rand satisfies it.
type Picker interface {
	IntN(n int) int
}

type globalPicker struct{}

func (globalPicker) IntN(n int) int { return rand.IntN(n) }

// Reading is the generated content of a fortune.
type Reading struct {
	Title       string
	Description string
	Result      string
}

// Subject is what a reading is about.
type Subject struct {
	Type     string
	Question string
	Sign     zodiac.Sign // empty when the account has no birth date
	Day      time.Time
}

var majorArcana = []string{
	"The Fool", "The Magician", "The High Priestess", "The Empress", "The Emperor",
	"The Hierophant", "The Lovers", "The Chariot", "Strength", "The Hermit",
	"Wheel of Fortune", "Justice", "The Hanged Man", "Death", "Temperance",
	"The Devil", "The Tower", "The Star", "The Moon", "The Sun",
	"Judgement", "The World",
}

var tarotSpread = []string{"Past", "Present", "Future"}

var coffeeShapes = map[string]string{
	"bird":     "news is on its way to you",
	"fish":     "an unexpected gain is near",
	"key":      "a door that was closed will open",
	"ring":     "a promise will be made",
	"road":     "a journey is ahead",
	"tree":     "steady growth in your plans",
	"heart":    "someone thinks of you warmly",
	"mountain": "an obstacle you will climb over",
	"moon":     "a secret comes to light",
	"snake":    "be careful whom you trust this week",
}

var omens = []string{
	"Trust the small signs today.",
	"A patient step brings more than a hurried one.",
	"An old friend holds the answer you are looking for.",
	"Let go of what no longer fits you.",
	"Say yes to the invitation you are unsure about.",
	"Money matters settle in your favour.",
	"Rest is the work today.",
	"Your words carry weight; choose them kindly.",
}

var loveOmens = []string{
	"A conversation you have been avoiding will bring you closer.",
	"Someone new notices you more than you think.",
	"Give the relationship room and it will come back stronger.",
	"Old feelings resurface; look at them honestly.",
	"Romance favours the bold this week.",
	"Love shows up in small practical gestures now.",
}

var palmLines = []string{"heart line", "head line", "life line", "fate line"}

var lineTraits = []string{
	"is long and clear, a sign of endurance",
	"branches near the end, a sign of a new direction",
	"is deep, a sign of strong conviction",
	"is faint in places, a sign of a phase of doubt you will outgrow",
}

var faceTraits = []string{
	"Your brow speaks of a thinker who plans before acting.",
	"Your eyes show warmth that people trust quickly.",
	"Your smile lines tell of resilience through hard times.",
	"Your jaw suggests determination once your mind is made up.",
}

var dreamThemes = []string{
	"unfinished business asking for attention",
	"a wish you have not said out loud",
	"change you are already preparing for",
	"a worry that is smaller than it looks",
}

var elementAdvice = map[string]string{
	"fire":  "Channel your energy into one goal instead of many.",
	"earth": "Build slowly; the foundation matters more than speed.",
	"air":   "Share your ideas, the right listener is close.",
	"water": "Follow your intuition, it is sharper than usual.",
}

func pick[T any](p Picker, items []T) T {
	return items[p.IntN(len(items))]
}

// Generate composes a reading for subject.
func Generate(p Picker, s Subject) Reading {
	if p == nil {
		p = globalPicker{}
	}
	switch s.Type {
	case TypeTarot:
		return tarot(p, s)
	case TypeCoffee:
		return coffee(p, s)
	case TypeAstrology:
		return astrology(p, s)
	case TypeLove:
		return Reading{
			Title:       "Love reading",
			Description: questionLine(s) + pick(p, loveOmens),
			Result:      pick(p, omens),
		}
	case TypeDream:
		return Reading{
			Title:       "Dream reading",
			Description: questionLine(s) + "Your dream points to " + pick(p, dreamThemes) + ".",
			Result:      pick(p, omens),
		}
	case TypePalm:
		line := pick(p, palmLines)
		return Reading{
			Title:       "Palm reading",
			Description: "Your " + line + " " + pick(p, lineTraits) + ".",
			Result:      pick(p, omens),
		}
	case TypeFace:
		return Reading{
			Title:       "Face reading",
			Description: pick(p, faceTraits),
			Result:      pick(p, omens),
		}
	}
	return Reading{
		Title:       "Daily fortune for " + s.Day.Format("January 2"),
		Description: pick(p, omens),
		Result:      pick(p, omens),
	}
}

func tarot(p Picker, s Subject) Reading {
	deck := make([]string, len(majorArcana))
	copy(deck, majorArcana)
	var b strings.Builder
	b.WriteString(questionLine(s))
	var drawn []string
	for i, pos := range tarotSpread {
		j := i + p.IntN(len(deck)-i)
		deck[i], deck[j] = deck[j], deck[i]
		card := deck[i]
		reversed := p.IntN(2) == 1
		if reversed {
			card += " (reversed)"
		}
		drawn = append(drawn, card)
		fmt.Fprintf(&b, "%s: %s. ", pos, card)
	}
	return Reading{
		Title:       "Tarot: " + strings.Join(drawn, ", "),
		Description: strings.TrimSpace(b.String()),
		Result:      pick(p, omens),
	}
}

func coffee(p Picker, s Subject) Reading {
	// Sorted so a seeded picker draws the same shapes every time.
	shapes := slices.Sorted(maps.Keys(coffeeShapes))
	first := pick(p, shapes)
	second := pick(p, shapes)
	desc := fmt.Sprintf("%sA %s near the rim: %s.", questionLine(s), first, coffeeShapes[first])
	if second != first {
		desc += fmt.Sprintf(" A %s at the bottom: %s.", second, coffeeShapes[second])
	}
	return Reading{Title: "Coffee cup reading", Description: desc, Result: pick(p, omens)}
}

func astrology(p Picker, s Subject) Reading {
	if s.Sign == "" {
		return Reading{
			Title:       "Horoscope",
			Description: "Add your birth date to get a reading for your sign. " + pick(p, omens),
			Result:      pick(p, omens),
		}
	}
	prof, err := zodiac.ProfileOf(s.Sign)
	if err != nil {
		return Reading{Title: "Horoscope", Description: pick(p, omens), Result: pick(p, omens)}
	}
	return Reading{
		Title: fmt.Sprintf("%s %s horoscope", prof.Symbol, prof.Name),
		Description: fmt.Sprintf("With %s ruling your sign, %s %s",
			prof.Ruler, strings.ToLower(pick(p, omens)), elementAdvice[prof.Element]),
		Result: pick(p, omens),
	}
}

func questionLine(s Subject) string {
	if q := strings.TrimSpace(s.Question); q != "" {
		return "You asked: \"" + q + "\". "
	}
	return ""
}

package dream

import (
	"fmt"
	"slices"
	"strings"
	"unicode"
)

// Symbol is a dream image and what it stands for.
type Symbol struct {
	Name    string `json:"name"`
	Meaning string `json:"meaning"`
}

type entry struct {
	name     string
	meaning  string
	keywords []string
}

// dictionary is matched against whole words of the dream text, in order.
var dictionary = []entry{
	{"water", "emotions moving beneath the surface", []string{"water", "sea", "ocean", "river", "lake", "rain", "swim", "swimming", "waves"}},
	{"falling", "a fear of losing control", []string{"fall", "falling", "fell", "drop", "dropping"}},
	{"flying", "freedom and rising above a problem", []string{"fly", "flying", "flew", "float", "floating", "wings"}},
	{"teeth", "worry about how others see you", []string{"teeth", "tooth"}},
	{"chase", "something you are avoiding", []string{"chase", "chased", "chasing", "run", "running", "ran", "escape"}},
	{"house", "your inner self and its rooms", []string{"house", "home", "room", "rooms", "door", "doors"}},
	{"snake", "hidden fears or healing", []string{"snake", "snakes", "serpent"}},
	{"death", "an ending that makes room for a beginning", []string{"death", "dead", "die", "dying", "funeral"}},
	{"baby", "a new idea or responsibility", []string{"baby", "babies", "pregnant", "birth"}},
	{"exam", "feeling tested or unprepared", []string{"exam", "test", "school", "class"}},
	{"fire", "passion or anger that needs an outlet", []string{"fire", "flames", "burning", "burn"}},
	{"money", "self-worth and what you value", []string{"money", "gold", "coins", "rich", "wallet"}},
	{"lost", "searching for direction", []string{"lost", "maze", "searching", "wander"}},
	{"animal", "instincts asking to be heard", []string{"dog", "cat", "horse", "wolf", "bird", "lion"}},
	{"wedding", "commitment and union", []string{"wedding", "marry", "married", "bride", "ring"}},
	{"car", "the direction your life is taking", []string{"car", "drive", "driving", "road", "crash"}},
}

var moodNotes = map[string]string{
	"calm":     "The calm you felt suggests you are at peace with this change.",
	"happy":    "The joy in the dream is a good omen.",
	"anxious":  "Your anxiety points to a decision you keep postponing.",
	"scared":   "Fear in a dream often marks the place where growth starts.",
	"sad":      "Sadness here is grief for something you are ready to release.",
	"confused": "Confusion means the answer is not fully formed yet; give it time.",
}

const maxSymbols = 5

// Extract returns the symbols found in text in order of first appearance,
// each at most once.
func Extract(text string) []Symbol {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})

	var out []Symbol
	seen := map[string]bool{}
	for _, w := range words {
		for _, e := range dictionary {
			if seen[e.name] || !slices.Contains(e.keywords, w) {
				continue
			}
			seen[e.name] = true
			out = append(out, Symbol{Name: e.name, Meaning: e.meaning})
			if len(out) == maxSymbols {
				return out
			}
		}
	}
	return out
}

// Interpret composes a reading from the extracted symbols and mood.
func Interpret(symbols []Symbol, mood string) string {
	var b strings.Builder
	if len(symbols) == 0 {
		b.WriteString("Your dream carries no classic symbols; it likely replays the events of your day. ")
	} else {
		b.WriteString("Your dream speaks through ")
		for i, s := range symbols {
			switch {
			case i == 0:
			case i == len(symbols)-1:
				b.WriteString(" and ")
			default:
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s (%s)", s.Name, s.Meaning)
		}
		b.WriteString(". ")
	}
	if note, ok := moodNotes[mood]; ok {
		b.WriteString(note)
	}
	return strings.TrimSpace(b.String())
}

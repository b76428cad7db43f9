// Package zodiac maps birth dates to western sun signs.
package zodiac

import (
	"errors"
	"strings"
	"time"
)

type Sign string

const (
	Aries       Sign = "aries"
	Taurus      Sign = "taurus"
	Gemini      Sign = "gemini"
	Cancer      Sign = "cancer"
	Leo         Sign = "leo"
	Virgo       Sign = "virgo"
	Libra       Sign = "libra"
	Scorpio     Sign = "scorpio"
	Sagittarius Sign = "sagittarius"
	Capricorn   Sign = "capricorn"
	Aquarius    Sign = "aquarius"
	Pisces      Sign = "pisces"
)

var ErrUnknownSign = errors.New("unknown zodiac sign")

// Profile is the static description of a sign.
type Profile struct {
	Sign     Sign   `json:"sign"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Element  string `json:"element"`
	Modality string `json:"modality"`
	Ruler    string `json:"ruling_planet"`
	Start    string `json:"start"` // MM-DD, inclusive
	End      string `json:"end"`   // MM-DD, inclusive
}

// Capricorn first: it is the only sign spanning the new year.
var profiles = []Profile{
	{Capricorn, "Capricorn", "♑", "earth", "cardinal", "Saturn", "12-22", "01-19"},
	{Aquarius, "Aquarius", "♒", "air", "fixed", "Uranus", "01-20", "02-18"},
	{Pisces, "Pisces", "♓", "water", "mutable", "Neptune", "02-19", "03-20"},
	{Aries, "Aries", "♈", "fire", "cardinal", "Mars", "03-21", "04-19"},
	{Taurus, "Taurus", "♉", "earth", "fixed", "Venus", "04-20", "05-20"},
	{Gemini, "Gemini", "♊", "air", "mutable", "Mercury", "05-21", "06-20"},
	{Cancer, "Cancer", "♋", "water", "cardinal", "Moon", "06-21", "07-22"},
	{Leo, "Leo", "♌", "fire", "fixed", "Sun", "07-23", "08-22"},
	{Virgo, "Virgo", "♍", "earth", "mutable", "Mercury", "08-23", "09-22"},
	{Libra, "Libra", "♎", "air", "cardinal", "Venus", "09-23", "10-22"},
	{Scorpio, "Scorpio", "♏", "water", "fixed", "Pluto", "10-23", "11-21"},
	{Sagittarius, "Sagittarius", "♐", "fire", "mutable", "Jupiter", "11-22", "12-21"},
}

// SignFor returns the sun sign for the calendar date of t.
func SignFor(t time.Time) Sign {
	md := t.Format("01-02")
	if md >= profiles[0].Start {
		return Capricorn
	}
	for i := len(profiles) - 1; i >= 1; i-- {
		if md >= profiles[i].Start {
			return profiles[i].Sign
		}
	}
	return Capricorn
}

// Parse accepts a sign name in any case.
func Parse(s string) (Sign, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, p := range profiles {
		if string(p.Sign) == s {
			return p.Sign, nil
		}
	}
	return "", ErrUnknownSign
}

func ProfileOf(sign Sign) (Profile, error) {
	for _, p := range profiles {
		if p.Sign == sign {
			return p, nil
		}
	}
	return Profile{}, ErrUnknownSign
}

// All returns every profile in calendar order starting with Aries.
func All() []Profile {
	out := make([]Profile, 0, len(profiles))
	out = append(out, profiles[3:]...)
	return append(out, profiles[:3]...)
}

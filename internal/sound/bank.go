// Package sound maps keystrokes to short synthesized tones.
package sound

import (
	"math"
	"time"
	"unicode"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
)

// SampleRate is the rate every sound is rendered at.
const SampleRate = beep.SampleRate(44100)

// Sound lengths.
const (
	NoteDuration  = 90 * time.Millisecond
	PingDuration  = 60 * time.Millisecond
	ErrorDuration = 150 * time.Millisecond
	ChimeDuration = 220 * time.Millisecond
)

const (
	baseFreq  = 261.63 // C4
	pingFreq  = 1318.5 // E6
	errorFreq = 110.0
	noteGain  = 0.35
)

// major pentatonic degrees in semitones
var pentatonic = []int{0, 2, 4, 7, 9}

// Factory builds a fresh streamer each time a sound plays.
type Factory func() beep.Streamer

// Bank maps runes to sounds. Runes without a mapping play the ping.
type Bank struct {
	rate  beep.SampleRate
	tones map[rune]Factory
	ping  Factory
	err   Factory
	chime Factory
}

// NewBank returns a bank with one pentatonic note per letter a to z.
func NewBank(rate beep.SampleRate) *Bank {
	b := &Bank{rate: rate, tones: make(map[rune]Factory, 26)}
	for i, r := 0, 'a'; r <= 'z'; i, r = i+1, r+1 {
		freq := NoteFrequency(i)
		b.tones[r] = func() beep.Streamer { return Tone(rate, freq, NoteDuration, noteGain) }
	}
	b.ping = func() beep.Streamer { return Tone(rate, pingFreq, PingDuration, noteGain/2) }
	b.err = func() beep.Streamer {
		// two close low tones beat against each other
		return beep.Mix(
			Tone(rate, errorFreq, ErrorDuration, noteGain),
			Tone(rate, errorFreq*1.06, ErrorDuration, noteGain),
		)
	}
	b.chime = func() beep.Streamer {
		first := Tone(rate, baseFreq*2, ChimeDuration/2, noteGain)
		second := Tone(rate, baseFreq*3, ChimeDuration/2, noteGain)
		return beep.Seq(first, second)
	}
	return b
}

// NoteFrequency returns the frequency of the i-th pentatonic step above C4.
func NoteFrequency(i int) float64 {
	octave := i / len(pentatonic)
	semis := octave*12 + pentatonic[i%len(pentatonic)]
	return baseFreq * math.Pow(2, float64(semis)/12)
}

// Lookup returns the sound mapped to r, ignoring case.
func (b *Bank) Lookup(r rune) (Factory, bool) {
	f, ok := b.tones[unicode.ToLower(r)]
	return f, ok
}

// ForRune returns the sound for r, or the ping when r is unmapped.
func (b *Bank) ForRune(r rune) beep.Streamer {
	if f, ok := b.Lookup(r); ok {
		return f()
	}
	return b.ping()
}

// Error returns the mistake sound.
func (b *Bank) Error() beep.Streamer { return b.err() }

// Chime returns the word completion sound.
func (b *Bank) Chime() beep.Streamer { return b.chime() }

// Tone renders a sine at freq for d, scaled by gain.
func Tone(rate beep.SampleRate, freq float64, d time.Duration, gain float64) beep.Streamer {
	n := rate.N(d)
	sine, err := generators.SineTone(rate, freq)
	if err != nil {
		return beep.Silence(n)
	}
	return volume(beep.Take(n, sine), gain)
}

func volume(s beep.Streamer, gain float64) beep.Streamer {
	if gain <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(gain)}
}

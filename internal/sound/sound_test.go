package sound

import (
	"testing"

	"github.com/gopxl/beep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(s beep.Streamer) (int, float64) {
	buf := make([][2]float64, 512)
	total := 0
	peak := 0.0
	for {
		n, ok := s.Stream(buf)
		for i := 0; i < n; i++ {
			if v := buf[i][0]; v > peak {
				peak = v
			} else if -v > peak {
				peak = -v
			}
		}
		total += n
		if !ok {
			return total, peak
		}
	}
}

type recordingPlayer struct{ played []beep.Streamer }

func (p *recordingPlayer) Play(s beep.Streamer) { p.played = append(p.played, s) }
func (p *recordingPlayer) Close() error         { return nil }

func TestLettersAreMapped(t *testing.T) {
	b := NewBank(SampleRate)
	for r := 'a'; r <= 'z'; r++ {
		_, ok := b.Lookup(r)
		assert.True(t, ok, "letter %q", r)
	}
	_, ok := b.Lookup('Q')
	assert.True(t, ok, "uppercase uses the same mapping")
	_, ok = b.Lookup('7')
	assert.False(t, ok)
}

func TestUnmappedRuneFallsBackToPing(t *testing.T) {
	b := NewBank(SampleRate)
	n, peak := drain(b.ForRune('!'))
	assert.Equal(t, SampleRate.N(PingDuration), n)
	assert.Greater(t, peak, 0.0)

	n, _ = drain(b.ForRune('a'))
	assert.Equal(t, SampleRate.N(NoteDuration), n)
}

func TestToneStaysInRange(t *testing.T) {
	n, peak := drain(Tone(SampleRate, 440, NoteDuration, 0.5))
	assert.Equal(t, SampleRate.N(NoteDuration), n)
	assert.LessOrEqual(t, peak, 0.5+1e-9)

	_, peak = drain(Tone(SampleRate, 440, NoteDuration, 0))
	assert.Zero(t, peak)
}

func TestNoteFrequencyRises(t *testing.T) {
	assert.InDelta(t, baseFreq, NoteFrequency(0), 1e-9)
	assert.InDelta(t, baseFreq*2, NoteFrequency(5), 1e-6)
	for i := 1; i < 26; i++ {
		assert.Greater(t, NoteFrequency(i), NoteFrequency(i-1))
	}
}

func TestEffectsRouting(t *testing.T) {
	p := &recordingPlayer{}
	e := NewEffects(NewBank(SampleRate), p)
	e.Key('a', true)
	e.Key('a', false)
	e.Complete()
	require.Len(t, p.played, 3)

	n, _ := drain(p.played[1])
	assert.Equal(t, SampleRate.N(ErrorDuration), n)
	n, _ = drain(p.played[2])
	assert.Equal(t, 2*SampleRate.N(ChimeDuration/2), n)
	assert.NoError(t, e.Close())
}

func TestNilPlayerIsSilent(t *testing.T) {
	e := NewEffects(NewBank(SampleRate), nil)
	e.Key('x', true)
	assert.NoError(t, e.Close())
}

package sound

import (
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

// Player plays streamers.
type Player interface {
	Play(s beep.Streamer)
	Close() error
}

// NopPlayer discards every sound.
type NopPlayer struct{}

// Play implements Player.
func (NopPlayer) Play(beep.Streamer) {}

// Close implements Player.
func (NopPlayer) Close() error { return nil }

// SpeakerPlayer mixes sounds onto the system speaker.
type SpeakerPlayer struct {
	mu     sync.Mutex
	mixer  *beep.Mixer
	closed bool
}

// NewSpeakerPlayer opens the speaker at rate.
func NewSpeakerPlayer(rate beep.SampleRate) (*SpeakerPlayer, error) {
	if err := speaker.Init(rate, rate.N(100*time.Millisecond)); err != nil {
		return nil, fmt.Errorf("failed to init speaker: %w", err)
	}
	p := &SpeakerPlayer{mixer: &beep.Mixer{}}
	speaker.Play(p.mixer)
	return p, nil
}

// Play adds s to the mix.
func (p *SpeakerPlayer) Play(s beep.Streamer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	speaker.Lock()
	p.mixer.Add(s)
	speaker.Unlock()
}

// Close silences the mix and releases the speaker.
func (p *SpeakerPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	speaker.Lock()
	p.mixer.Clear()
	speaker.Unlock()
	speaker.Close()
	return nil
}

// Effects plays game feedback through a bank and a player.
type Effects struct {
	bank   *Bank
	player Player
}

// NewEffects pairs a bank with a player. A nil player is silent.
func NewEffects(bank *Bank, player Player) *Effects {
	if player == nil {
		player = NopPlayer{}
	}
	return &Effects{bank: bank, player: player}
}

// Key plays the note for a judged keystroke, or the error sound.
func (e *Effects) Key(r rune, ok bool) {
	if !ok {
		e.player.Play(e.bank.Error())
		return
	}
	e.player.Play(e.bank.ForRune(r))
}

// Complete plays the completion chime.
func (e *Effects) Complete() {
	e.player.Play(e.bank.Chime())
}

// Close releases the player.
func (e *Effects) Close() error {
	return e.player.Close()
}

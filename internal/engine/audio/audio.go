// Package audio plays background music and looped positional sounds whose
// gain and pan follow the listener.
package audio

import (
	"bytes"
	"fmt"
	"io"
	gomath "math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/wav"
)

// DefaultSampleRate is the default sample rate for audio playback.
const DefaultSampleRate = beep.SampleRate(44100)

// Listener receives the listening position once per tick.
type Listener interface {
	SetListener(pos, forward mgl32.Vec3)
}

// Manager handles audio playback for a scene.
//
// Lock order is mu, then the speaker lock. The speaker goroutine never takes
// mu: the end-of-music callback only touches bgmToken.
type Manager struct {
	mu sync.RWMutex

	// State
	initialized bool
	sampleRate  beep.SampleRate

	// BGM
	bgmStreamer beep.StreamSeekCloser
	bgmCtrl     *beep.Ctrl
	bgmVolume   *effects.Volume
	bgmPath     string
	bgmSerial   uint64
	bgmToken    atomic.Uint64 // serial of the playing track, 0 when stopped

	// Volume settings (0.0 to 1.0)
	masterVolume float64
	bgmVolLevel  float64
	sfxVolLevel  float64
	muted        bool

	// Positional emitters share one mixer
	sfxMixer *beep.Mixer
	emitters map[string]*Emitter

	listenerPos     mgl32.Vec3
	listenerForward mgl32.Vec3
}

// Emitter is a looped sound placed in the world.
type Emitter struct {
	Name        string
	Position    mgl32.Vec3
	MinDistance float32
	MaxDistance float32

	stream beep.StreamSeekCloser
	volume *effects.Volume
	pan    *effects.Pan

	gain    float64
	panning float64
}

// Gain returns the distance gain from the last listener update.
func (e *Emitter) Gain() float64 {
	return e.gain
}

// New creates a new audio manager.
func New() *Manager {
	return &Manager{
		masterVolume:    1.0,
		bgmVolLevel:     0.7,
		sfxVolLevel:     1.0,
		sfxMixer:        &beep.Mixer{},
		emitters:        make(map[string]*Emitter),
		listenerForward: mgl32.Vec3{0, 0, -1},
	}
}

// Init initializes the audio system.
func (m *Manager) Init() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}

	m.sampleRate = DefaultSampleRate
	err := speaker.Init(m.sampleRate, m.sampleRate.N(time.Second/30))
	if err != nil {
		return fmt.Errorf("init speaker: %w", err)
	}

	speaker.Play(m.sfxMixer)

	m.initialized = true
	return nil
}

// Close shuts down the audio system.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopBGMInternal()
	if m.initialized {
		speaker.Clear()
	}
	for name, e := range m.emitters {
		_ = e.stream.Close()
		delete(m.emitters, name)
	}
	m.sfxMixer = &beep.Mixer{}
	m.initialized = false
}

// IsInitialized returns whether the audio system is initialized.
func (m *Manager) IsInitialized() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.initialized
}

// SetMasterVolume sets the master volume (0.0 to 1.0).
func (m *Manager) SetMasterVolume(vol float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.masterVolume = clamp(vol, 0, 1)
	m.updateBGMVolume()
	m.updateEmitters()
}

// SetBGMVolume sets the BGM volume (0.0 to 1.0).
func (m *Manager) SetBGMVolume(vol float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bgmVolLevel = clamp(vol, 0, 1)
	m.updateBGMVolume()
}

// SetSFXVolume sets the positional sound volume (0.0 to 1.0).
func (m *Manager) SetSFXVolume(vol float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sfxVolLevel = clamp(vol, 0, 1)
	m.updateEmitters()
}

// SetMuted silences all output without losing the volume levels.
func (m *Manager) SetMuted(muted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.muted = muted
	m.updateBGMVolume()
	m.updateEmitters()
}

// GetMasterVolume returns the master volume.
func (m *Manager) GetMasterVolume() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.masterVolume
}

// GetBGMVolume returns the BGM volume.
func (m *Manager) GetBGMVolume() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bgmVolLevel
}

// GetSFXVolume returns the positional sound volume.
func (m *Manager) GetSFXVolume() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sfxVolLevel
}

func (m *Manager) level(v float64) float64 {
	if m.muted {
		return 0
	}
	return m.masterVolume * v
}

func (m *Manager) updateBGMVolume() {
	if m.bgmVolume == nil {
		return
	}
	m.lockSpeaker()
	defer m.unlockSpeaker()
	setVolume(m.bgmVolume, m.level(m.bgmVolLevel))
}

func setVolume(v *effects.Volume, level float64) {
	if level <= 0 {
		v.Silent = true
		return
	}
	v.Silent = false
	v.Volume = volumeToDb(level)
}

// volumeToDb converts a 0-1 volume to the base-2 exponent effects.Volume expects:
// vol=1 -> 0, vol=0.5 -> -1.
func volumeToDb(vol float64) float64 {
	if vol <= 0 {
		return -100 // Effectively silent
	}
	return gomath.Log2(vol)
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// The speaker goroutine reads streamer fields; edits while it runs must hold
// the speaker lock.
func (m *Manager) lockSpeaker() {
	if m.initialized {
		speaker.Lock()
	}
}

func (m *Manager) unlockSpeaker() {
	if m.initialized {
		speaker.Unlock()
	}
}

func (m *Manager) decode(data []byte) (beep.StreamSeekCloser, beep.Streamer, error) {
	streamer, format, err := wav.Decode(io.NopCloser(bytes.NewReader(data)))
	if err != nil {
		return nil, nil, fmt.Errorf("decode wav: %w", err)
	}
	if format.SampleRate != m.sampleRate {
		return streamer, beep.Resample(4, format.SampleRate, m.sampleRate, streamer), nil
	}
	return streamer, streamer, nil
}

// PlayBGM plays background music from WAV data.
// If loop is true, the music will loop indefinitely.
func (m *Manager) PlayBGM(data []byte, path string, loop bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return fmt.Errorf("audio not initialized")
	}

	m.stopBGMInternal()

	streamer, resampled, err := m.decode(data)
	if err != nil {
		return err
	}

	var final beep.Streamer = resampled
	if loop {
		final = &loopStreamer{streamer: streamer, resampled: resampled}
	}

	m.bgmCtrl = &beep.Ctrl{Streamer: final, Paused: false}
	m.bgmVolume = &effects.Volume{Streamer: m.bgmCtrl, Base: 2}
	setVolume(m.bgmVolume, m.level(m.bgmVolLevel))

	m.bgmStreamer = streamer
	m.bgmPath = path
	m.bgmSerial++
	token := m.bgmSerial
	m.bgmToken.Store(token)

	speaker.Play(beep.Seq(m.bgmVolume, beep.Callback(func() {
		m.bgmFinished(token)
	})))

	return nil
}

// bgmFinished runs on the speaker goroutine with the speaker lock held. It
// must not take mu. A token from an earlier track is ignored.
func (m *Manager) bgmFinished(token uint64) {
	m.bgmToken.CompareAndSwap(token, 0)
}

// StopBGM stops the current background music.
func (m *Manager) StopBGM() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopBGMInternal()
}

func (m *Manager) stopBGMInternal() {
	if m.bgmCtrl != nil {
		m.lockSpeaker()
		m.bgmCtrl.Paused = true
		m.bgmCtrl.Streamer = nil
		m.unlockSpeaker()
	}
	m.bgmToken.Store(0)
	if m.bgmStreamer != nil {
		_ = m.bgmStreamer.Close()
		m.bgmStreamer = nil
	}
	m.bgmCtrl = nil
	m.bgmVolume = nil
	m.bgmPath = ""
}

// IsBGMPlaying returns whether BGM is currently playing.
func (m *Manager) IsBGMPlaying() bool {
	return m.bgmToken.Load() != 0
}

// GetBGMPath returns the path of the currently playing BGM.
func (m *Manager) GetBGMPath() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bgmPath
}

// AddEmitter starts a looped positional sound from WAV data. The sound is at
// full gain within minDist of the listener and silent beyond maxDist.
func (m *Manager) AddEmitter(name string, data []byte, pos mgl32.Vec3, minDist, maxDist float32) (*Emitter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return nil, fmt.Errorf("audio not initialized")
	}
	if _, ok := m.emitters[name]; ok {
		return nil, fmt.Errorf("emitter %q already playing", name)
	}

	streamer, resampled, err := m.decode(data)
	if err != nil {
		return nil, fmt.Errorf("emitter %q: %w", name, err)
	}

	e := &Emitter{
		Name:        name,
		Position:    pos,
		MinDistance: minDist,
		MaxDistance: maxDist,
		stream:      streamer,
	}
	e.pan = &effects.Pan{Streamer: &loopStreamer{streamer: streamer, resampled: resampled}}
	e.volume = &effects.Volume{Streamer: e.pan, Base: 2}
	m.mixEmitter(e)

	m.emitters[name] = e
	m.lockSpeaker()
	m.sfxMixer.Add(e.volume)
	m.unlockSpeaker()
	return e, nil
}

// MoveEmitter updates an emitter's world position.
func (m *Manager) MoveEmitter(name string, pos mgl32.Vec3) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.emitters[name]
	if !ok {
		return
	}
	e.Position = pos
	m.lockSpeaker()
	m.mixEmitter(e)
	m.unlockSpeaker()
}

// SetListener moves the listener and re-mixes every emitter.
func (m *Manager) SetListener(pos, forward mgl32.Vec3) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listenerPos = pos
	if forward.Len() > 0 {
		m.listenerForward = forward.Normalize()
	}
	m.updateEmitters()
}

// ListenerPosition returns the position from the last SetListener.
func (m *Manager) ListenerPosition() mgl32.Vec3 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listenerPos
}

func (m *Manager) updateEmitters() {
	if len(m.emitters) == 0 {
		return
	}
	m.lockSpeaker()
	defer m.unlockSpeaker()
	for _, e := range m.emitters {
		m.mixEmitter(e)
	}
}

func (m *Manager) mixEmitter(e *Emitter) {
	e.gain = distanceGain(m.listenerPos.Sub(e.Position).Len(), e.MinDistance, e.MaxDistance)
	e.panning = panFor(m.listenerPos, m.listenerForward, e.Position)
	setVolume(e.volume, m.level(m.sfxVolLevel)*e.gain)
	e.pan.Pan = e.panning
}

// distanceGain falls off linearly from 1 at minDist to 0 at maxDist.
func distanceGain(dist, minDist, maxDist float32) float64 {
	if dist <= minDist {
		return 1
	}
	if dist >= maxDist {
		return 0
	}
	return float64((maxDist - dist) / (maxDist - minDist))
}

// panFor returns -1 (hard left) to 1 (hard right) for a source heard by a
// listener at pos facing forward with +Y up.
func panFor(pos, forward, source mgl32.Vec3) float64 {
	d := source.Sub(pos)
	if d.Len() == 0 {
		return 0
	}
	right := forward.Cross(mgl32.Vec3{0, 1, 0})
	if right.Len() == 0 {
		return 0
	}
	return clamp(float64(d.Normalize().Dot(right.Normalize())), -1, 1)
}

// loopStreamer wraps a streamer to make it loop.
type loopStreamer struct {
	streamer  beep.StreamSeekCloser
	resampled beep.Streamer
}

func (l *loopStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	filled := 0
	for filled < len(samples) {
		n, ok := l.resampled.Stream(samples[filled:])
		filled += n
		if !ok {
			if err := l.streamer.Seek(0); err != nil {
				return filled, false
			}
			if n == 0 && l.streamer.Len() == 0 {
				return filled, false
			}
		}
	}
	return filled, true
}

func (l *loopStreamer) Err() error {
	return l.streamer.Err()
}

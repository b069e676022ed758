package audio

import (
	gomath "math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

func TestVolumeConversion(t *testing.T) {
	tests := []struct {
		vol  float64
		want float64
	}{
		{1.0, 0},
		{0.5, -1},
		{0.25, -2},
		{0.0, -100},
	}

	for _, tt := range tests {
		got := volumeToDb(tt.vol)
		if gomath.Abs(got-tt.want) > 1e-9 {
			t.Errorf("volumeToDb(%f) = %f, want %f", tt.vol, got, tt.want)
		}
		// effects.Volume with Base 2 scales samples by 2^Volume.
		if tt.vol > 0 {
			if g := gomath.Pow(2, got); gomath.Abs(g-tt.vol) > 1e-9 {
				t.Errorf("2^volumeToDb(%f) = %f, want %f", tt.vol, g, tt.vol)
			}
		}
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		v, min, max, want float64
	}{
		{0.5, 0, 1, 0.5},
		{-1, 0, 1, 0},
		{2, 0, 1, 1},
		{0, 0, 1, 0},
		{1, 0, 1, 1},
	}

	for _, tt := range tests {
		got := clamp(tt.v, tt.min, tt.max)
		if got != tt.want {
			t.Errorf("clamp(%f, %f, %f) = %f, want %f", tt.v, tt.min, tt.max, got, tt.want)
		}
	}
}

func TestDistanceGain(t *testing.T) {
	tests := []struct {
		dist, min, max float32
		want           float64
	}{
		{0, 0, 20, 1},
		{10, 0, 20, 0.5},
		{20, 0, 20, 0},
		{35, 0, 20, 0},
		{3, 5, 20, 1},
	}
	for _, tt := range tests {
		got := distanceGain(tt.dist, tt.min, tt.max)
		if gomath.Abs(got-tt.want) > 1e-6 {
			t.Errorf("distanceGain(%v, %v, %v) = %v, want %v", tt.dist, tt.min, tt.max, got, tt.want)
		}
	}
}

func TestPanFor(t *testing.T) {
	forward := mgl32.Vec3{0, 0, -1}
	tests := []struct {
		name   string
		source mgl32.Vec3
		want   float64
	}{
		{"right", mgl32.Vec3{5, 0, 0}, 1},
		{"left", mgl32.Vec3{-5, 0, 0}, -1},
		{"ahead", mgl32.Vec3{0, 0, -5}, 0},
		{"on listener", mgl32.Vec3{}, 0},
	}
	for _, tt := range tests {
		got := panFor(mgl32.Vec3{}, forward, tt.source)
		if gomath.Abs(got-tt.want) > 1e-6 {
			t.Errorf("%s: pan = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestNewManager(t *testing.T) {
	m := New()
	if m == nil {
		t.Fatal("New() returned nil")
	}

	if m.GetMasterVolume() != 1.0 {
		t.Errorf("default master volume = %f, want 1.0", m.GetMasterVolume())
	}
	if m.GetBGMVolume() != 0.7 {
		t.Errorf("default BGM volume = %f, want 0.7", m.GetBGMVolume())
	}
	if m.GetSFXVolume() != 1.0 {
		t.Errorf("default SFX volume = %f, want 1.0", m.GetSFXVolume())
	}
	if m.IsInitialized() {
		t.Error("manager should not be initialized before Init")
	}
}

func TestSetVolume(t *testing.T) {
	m := New()

	m.SetMasterVolume(0.5)
	if m.GetMasterVolume() != 0.5 {
		t.Errorf("master volume = %f, want 0.5", m.GetMasterVolume())
	}

	m.SetMasterVolume(2.0)
	if m.GetMasterVolume() != 1.0 {
		t.Errorf("master volume = %f, want 1.0 (clamped)", m.GetMasterVolume())
	}

	m.SetMasterVolume(-1.0)
	if m.GetMasterVolume() != 0.0 {
		t.Errorf("master volume = %f, want 0.0 (clamped)", m.GetMasterVolume())
	}
}

func TestUninitializedManager(t *testing.T) {
	m := New()
	if err := m.PlayBGM(nil, "bgm.wav", true); err == nil {
		t.Error("PlayBGM before Init should fail")
	}
	if _, err := m.AddEmitter("fire", nil, mgl32.Vec3{}, 0, 20); err == nil {
		t.Error("AddEmitter before Init should fail")
	}

	var l Listener = m
	l.SetListener(mgl32.Vec3{1, 2, 3}, mgl32.Vec3{0, 0, -1})
	if got := m.ListenerPosition(); got != (mgl32.Vec3{1, 2, 3}) {
		t.Errorf("listener position = %v, want (1,2,3)", got)
	}
	m.MoveEmitter("missing", mgl32.Vec3{})
}

func TestBGMFinishedDoesNotTakeLock(t *testing.T) {
	m := New()
	m.bgmSerial = 2
	m.bgmToken.Store(2)

	// The speaker goroutine calls back while the main thread may hold mu.
	m.mu.Lock()
	done := make(chan struct{})
	go func() {
		m.bgmFinished(2)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("bgmFinished blocked on the manager lock")
	}
	m.mu.Unlock()

	if m.IsBGMPlaying() {
		t.Error("music should be stopped after its callback")
	}
}

func TestBGMFinishedIgnoresEarlierTrack(t *testing.T) {
	m := New()
	m.bgmToken.Store(3)

	m.bgmFinished(2)
	if !m.IsBGMPlaying() {
		t.Error("callback of a replaced track stopped the current one")
	}
	m.bgmFinished(3)
	if m.IsBGMPlaying() {
		t.Error("callback of the current track should stop it")
	}
}

func TestCloseUninitialized(t *testing.T) {
	m := New()
	m.bgmToken.Store(1)
	m.Close()
	if m.IsBGMPlaying() || m.IsInitialized() {
		t.Error("Close should leave the manager stopped")
	}
}

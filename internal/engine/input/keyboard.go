package input

import "github.com/veandco/go-sdl2/sdl"

// Key identifies a key the engine reacts to.
type Key uint8

const (
	KeyUnknown Key = iota
	KeyW
	KeyA
	KeyS
	KeyD
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeySpace
	KeyX
	KeyEscape
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	Key9
	KeyF12

	keyCount
)

var keyNames = [keyCount]string{
	KeyUnknown: "unknown",
	KeyW:       "w",
	KeyA:       "a",
	KeyS:       "s",
	KeyD:       "d",
	KeyUp:      "up",
	KeyDown:    "down",
	KeyLeft:    "left",
	KeyRight:   "right",
	KeySpace:   "space",
	KeyX:       "x",
	KeyEscape:  "escape",
	Key1:       "1",
	Key2:       "2",
	Key3:       "3",
	Key4:       "4",
	Key5:       "5",
	Key6:       "6",
	Key7:       "7",
	Key8:       "8",
	Key9:       "9",
	KeyF12:     "f12",
}

func (k Key) String() string {
	if k >= keyCount {
		return "unknown"
	}
	return keyNames[k]
}

// ParseKey looks a key up by its name.
func ParseKey(name string) (Key, bool) {
	for k, n := range keyNames {
		if n == name && Key(k) != KeyUnknown {
			return Key(k), true
		}
	}
	return KeyUnknown, false
}

// Keyboard reports whether keys are currently held.
type Keyboard interface {
	Down(k Key) bool
}

var scancodes = map[Key]sdl.Scancode{
	KeyW:      sdl.SCANCODE_W,
	KeyA:      sdl.SCANCODE_A,
	KeyS:      sdl.SCANCODE_S,
	KeyD:      sdl.SCANCODE_D,
	KeyUp:     sdl.SCANCODE_UP,
	KeyDown:   sdl.SCANCODE_DOWN,
	KeyLeft:   sdl.SCANCODE_LEFT,
	KeyRight:  sdl.SCANCODE_RIGHT,
	KeySpace:  sdl.SCANCODE_SPACE,
	KeyX:      sdl.SCANCODE_X,
	KeyEscape: sdl.SCANCODE_ESCAPE,
	Key1:      sdl.SCANCODE_1,
	Key2:      sdl.SCANCODE_2,
	Key3:      sdl.SCANCODE_3,
	Key4:      sdl.SCANCODE_4,
	Key5:      sdl.SCANCODE_5,
	Key6:      sdl.SCANCODE_6,
	Key7:      sdl.SCANCODE_7,
	Key8:      sdl.SCANCODE_8,
	Key9:      sdl.SCANCODE_9,
	KeyF12:    sdl.SCANCODE_F12,
}

func keyFromScancode(sc sdl.Scancode) (Key, bool) {
	for k, s := range scancodes {
		if s == sc {
			return k, true
		}
	}
	return KeyUnknown, false
}

// SDLKeyboard reads SDL's keyboard state array. The array is refreshed by
// sdl.PollEvent, so Input.Update must run before the keyboard is queried.
type SDLKeyboard struct{}

// NewSDLKeyboard returns a keyboard backed by SDL.
func NewSDLKeyboard() *SDLKeyboard {
	return &SDLKeyboard{}
}

// Down reports whether k is held.
func (kb *SDLKeyboard) Down(k Key) bool {
	sc, ok := scancodes[k]
	if !ok {
		return false
	}
	state := sdl.GetKeyboardState()
	if int(sc) >= len(state) {
		return false
	}
	return state[sc] != 0
}

// StateKeyboard is a Keyboard driven by explicit Press/Release calls, used for
// replays and tests.
type StateKeyboard struct {
	held [keyCount]bool
}

// Press marks k as held.
func (kb *StateKeyboard) Press(k Key) {
	if k < keyCount {
		kb.held[k] = true
	}
}

// Release marks k as released.
func (kb *StateKeyboard) Release(k Key) {
	if k < keyCount {
		kb.held[k] = false
	}
}

// Down reports whether k is held.
func (kb *StateKeyboard) Down(k Key) bool {
	return k < keyCount && kb.held[k]
}

// Tracker derives edge-triggered presses from a level-triggered Keyboard.
// Call Update exactly once per tick.
type Tracker struct {
	kb   Keyboard
	prev [keyCount]bool
	cur  [keyCount]bool
}

// NewTracker wraps kb.
func NewTracker(kb Keyboard) *Tracker {
	return &Tracker{kb: kb}
}

// Update samples the keyboard for this tick.
func (t *Tracker) Update() {
	t.prev = t.cur
	if t.kb == nil {
		t.cur = [keyCount]bool{}
		return
	}
	for k := Key(1); k < keyCount; k++ {
		t.cur[k] = t.kb.Down(k)
	}
}

// Down reports whether k was held at the last Update.
func (t *Tracker) Down(k Key) bool {
	return k < keyCount && t.cur[k]
}

// Pressed reports whether k went down between the last two updates.
func (t *Tracker) Pressed(k Key) bool {
	return k < keyCount && t.cur[k] && !t.prev[k]
}

// Released reports whether k went up between the last two updates.
func (t *Tracker) Released(k Key) bool {
	return k < keyCount && !t.cur[k] && t.prev[k]
}

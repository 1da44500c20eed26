package locale

import (
	"sync"
)

// Switcher owns the process-wide active locale. The feed and detail components read it; only the language menu
// writes it.
type Switcher struct {
	mu     sync.RWMutex
	active Locale
	subs   map[int]func(Locale)
	nextID int
}

// NewSwitcher creates a [Switcher] starting at initial, resolved to a supported locale.
func NewSwitcher(initial Locale) *Switcher {
	return &Switcher{active: Parse(string(initial)), subs: make(map[int]func(Locale))}
}

// Active returns the current locale.
func (s *Switcher) Active() Locale {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Set changes the active locale and notifies subscribers. Returns false, without notifying, when l resolves to
// the locale already active.
func (s *Switcher) Set(l Locale) bool {
	l = Parse(string(l))

	s.mu.Lock()
	if l == s.active {
		s.mu.Unlock()
		return false
	}
	s.active = l
	subs := make([]func(Locale), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(l)
	}
	return true
}

// Subscribe registers fn to be called after every change. The returned func removes it.
func (s *Switcher) Subscribe(fn func(Locale)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Menu is the language popover. It closes on selection, on Escape, and on a click outside it.
type Menu struct {
	switcher *Switcher
	open     bool
	cursor   int
}

// NewMenu creates a closed [Menu] bound to s.
func NewMenu(s *Switcher) *Menu {
	return &Menu{switcher: s}
}

func (m *Menu) IsOpen() bool    { return m.open }
func (m *Menu) Items() []Locale { return Supported() }
func (m *Menu) Cursor() int     { return m.cursor }
func (m *Menu) Close()          { m.open = false }
func (m *Menu) ClickOutside()   { m.Close() }
func (m *Menu) Current() Locale { return supported[m.cursor] }

// Open shows the menu with the cursor on the active locale.
func (m *Menu) Open() {
	m.open = true
	active := m.switcher.Active()
	for i, l := range supported {
		if l == active {
			m.cursor = i
		}
	}
}

// Toggle opens a closed menu and closes an open one.
func (m *Menu) Toggle() {
	if m.open {
		m.Close()
		return
	}
	m.Open()
}

// Move shifts the cursor by delta, wrapping around.
func (m *Menu) Move(delta int) {
	n := len(supported)
	m.cursor = ((m.cursor+delta)%n + n) % n
}

// Select makes l active and closes the menu. Reports whether the active locale changed.
func (m *Menu) Select(l Locale) bool {
	m.Close()
	return m.switcher.Set(l)
}

// HandleKey applies a key press to an open menu: "esc" closes, "up"/"down" move, "enter" selects the entry under
// the cursor. Reports whether the active locale changed.
func (m *Menu) HandleKey(key string) bool {
	if !m.open {
		return false
	}

	switch key {
	case "esc":
		m.Close()
	case "up", "k":
		m.Move(-1)
	case "down", "j":
		m.Move(1)
	case "enter":
		return m.Select(m.Current())
	}
	return false
}

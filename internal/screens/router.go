package screens

import (
	"sync"

	"github.com/parley-app/parley/internal/logger"
)

// Screen identifies one of the application's top-level views.
type Screen string

const (
	ScreenWelcome      Screen = "welcome"
	ScreenSignIn       Screen = "sign_in"
	ScreenSignUp       Screen = "sign_up"
	ScreenDashboard    Screen = "dashboard"
	ScreenProfile      Screen = "profile"
	ScreenConversation Screen = "conversation"
	ScreenChat         Screen = "chat"
	ScreenSettings     Screen = "settings"
)

// ChangeListener is notified when the active screen changes.
type ChangeListener func(from, to Screen)

// Router tracks the active screen and notifies listeners on transitions.
// Showing the already-active screen is a no-op.
type Router struct {
	logger *logger.Logger

	mu        sync.Mutex
	current   Screen
	listeners map[int]ChangeListener
	nextID    int
}

func NewRouter(l *logger.Logger) *Router {
	return &Router{
		logger:    l,
		current:   ScreenWelcome,
		listeners: map[int]ChangeListener{},
	}
}

// Current returns the active screen.
func (r *Router) Current() Screen {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.current
}

// Show makes screen active and notifies listeners.
func (r *Router) Show(screen Screen) {
	r.mu.Lock()
	if screen == r.current {
		r.mu.Unlock()
		return
	}

	from := r.current
	r.current = screen

	listeners := make([]ChangeListener, 0, len(r.listeners))
	for _, fn := range r.listeners {
		listeners = append(listeners, fn)
	}
	r.mu.Unlock()

	r.logger.Debug("Router: screen change", "from", from, "to", screen)

	for _, fn := range listeners {
		fn(from, screen)
	}
}

// OnChange registers a listener and returns an unsubscribe function.
func (r *Router) OnChange(fn ChangeListener) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	r.nextID++
	r.listeners[id] = fn

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.listeners, id)
	}
}

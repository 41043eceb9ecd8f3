package screens

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/parley-app/parley/internal/testutil"
)

func TestRouter_StartsOnWelcome(t *testing.T) {
	r := NewRouter(testutil.MakeNoopLogger())

	assert.Equal(t, ScreenWelcome, r.Current())
}

func TestRouter_ShowChangesScreen(t *testing.T) {
	r := NewRouter(testutil.MakeNoopLogger())

	r.Show(ScreenSignIn)

	assert.Equal(t, ScreenSignIn, r.Current())
}

func TestRouter_NotifiesListeners(t *testing.T) {
	r := NewRouter(testutil.MakeNoopLogger())

	var gotFrom, gotTo Screen
	r.OnChange(func(from, to Screen) {
		gotFrom = from
		gotTo = to
	})

	r.Show(ScreenDashboard)

	assert.Equal(t, ScreenWelcome, gotFrom)
	assert.Equal(t, ScreenDashboard, gotTo)
}

func TestRouter_ShowSameScreenNoNotify(t *testing.T) {
	r := NewRouter(testutil.MakeNoopLogger())

	calls := 0
	r.OnChange(func(from, to Screen) {
		calls++
	})

	r.Show(ScreenWelcome)

	assert.Zero(t, calls)
}

func TestRouter_Unsubscribe(t *testing.T) {
	r := NewRouter(testutil.MakeNoopLogger())

	calls := 0
	unsubscribe := r.OnChange(func(from, to Screen) {
		calls++
	})

	r.Show(ScreenSignIn)
	unsubscribe()
	r.Show(ScreenDashboard)

	assert.Equal(t, 1, calls)
}

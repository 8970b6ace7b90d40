package cli

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/dmitrijs2005/sessionkeeper/internal/client/models"
	"github.com/dmitrijs2005/sessionkeeper/internal/client/services"
	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
	"github.com/stretchr/testify/assert"
)

// ---- getStatus ----

func TestGetStatus_Empty(t *testing.T) {
	a, _ := newTestApp(t, &fakeSession{}, &fakePinger{}, "")
	assert.Equal(t, "", a.getStatus())
}

func TestGetStatus_WithUserOnly(t *testing.T) {
	s := &fakeSession{state: services.State{IsAuthenticated: true, User: &models.User{Email: "alice@x.io"}}}
	a, _ := newTestApp(t, s, &fakePinger{}, "")
	assert.Equal(t, "(alice@x.io )", a.getStatus())
}

func TestGetStatus_WithUserAndMode(t *testing.T) {
	s := &fakeSession{state: services.State{IsAuthenticated: true, User: &models.User{Email: "alice@x.io"}}}
	a, _ := newTestApp(t, s, &fakePinger{}, "")
	a.setMode(ModeOnline)
	assert.Equal(t, "(alice@x.io online)", a.getStatus())
}

// ---- Run ----

func TestRun_RestoresSessionAndQuits(t *testing.T) {
	s := &fakeSession{checkUser: &models.User{Email: "alice@x.io"}}
	c := &fakeCloser{}
	a, out := newTestApp(t, s, &fakePinger{}, "status\nquit\n")
	a.closers = []io.Closer{c}

	a.Run(context.Background())

	assert.Equal(t, 1, s.checkCalls)
	assert.True(t, c.closed)
	assert.Equal(t, ModeOnline, a.Mode())

	got := out.String()
	assert.Contains(t, got, "Signed in as alice@x.io")
	assert.Contains(t, got, "Server: online")
	assert.Contains(t, got, "Bye!")
}

func TestRun_OfflineAndNoSession(t *testing.T) {
	s := &fakeSession{}
	a := newApp(testConfig(), s, &fakePinger{err: errors.New("down")}, logging.Discard(), strings.NewReader(""), io.Discard)

	a.Run(context.Background())

	assert.Equal(t, 1, s.checkCalls)
	assert.False(t, a.isLoggedIn())
	assert.Equal(t, ModeOffline, a.Mode())
}

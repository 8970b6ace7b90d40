package cli

import (
	"context"
	"fmt"
)

func (a *App) getStatus() string {
	s := ""
	if u := a.session.State().User; u != nil {
		s = u.Email + " "
	}
	if m := a.Mode(); m != "" {
		s = s + string(m)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// Run restores the persisted session, starts the connectivity watcher and
// blocks in the REPL until the user exits or input ends.
func (a *App) Run(ctx context.Context) {
	defer a.close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fmt.Fprintln(a.out, "Welcome to sessionkeeper (type 'help' for commands)")

	a.probe(ctx)
	a.session.CheckAuth(ctx)
	if a.isLoggedIn() {
		fmt.Fprintf(a.out, "Signed in as %s\n", a.session.State().User.Email)
	}

	if a.config.OnlineCheckInterval > 0 {
		go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)
	}

	runREPL(ctx, a, a.getStatus, a.reader, a.out)
}

package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/dkurbatov/catalogkeeper/internal/client/guard"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	Authorize(ctx context.Context, destination string) (guard.State, error)
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	List(ctx context.Context) error
	Show(ctx context.Context) error
	Create(ctx context.Context) error
	Update(ctx context.Context) error
	Delete(ctx context.Context) error
	SetThumbnail(ctx context.Context) error
	RemoveThumbnail(ctx context.Context) error
	Profile(ctx context.Context) error
	Password(ctx context.Context) error
}

// runREPL starts a simple read-eval-print loop for the catalogkeeper CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Catalog commands are protected:
// they pass through the guard first, and a denied command is remembered and
// re-dispatched automatically after the next successful login. The loop
// exits on scanner EOF or when the user types "exit" or "quit".
//
// Commands:
//
//	login | logout | whoami
//	list | show | create | update | delete
//	set-thumb | rm-thumb
//	profile | passwd
//	help | exit | quit
//
// Any errors returned by command handlers are ignored here; handlers report
// their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	protected := map[string]func(context.Context) error{
		"list":      a.List,
		"show":      a.Show,
		"create":    a.Create,
		"update":    a.Update,
		"delete":    a.Delete,
		"set-thumb": a.SetThumbnail,
		"rm-thumb":  a.RemoveThumbnail,
		"profile":   a.Profile,
		"passwd":    a.Password,
	}

	// The command the guard last denied; re-run after login.
	var pending string

	runProtected := func(cmd string) {
		state, err := a.Authorize(ctx, cmd)
		if err != nil {
			return
		}
		switch state {
		case guard.Granted:
			_ = protected[cmd](ctx)
		case guard.Denied:
			pending = cmd
			printlnFn("Please log in first. '" + cmd + "' will run after login.")
		}
	}

	for {
		printlnFn(fmt.Sprintf("ck> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			printlnFn("Available commands: login, logout, whoami, list, show, create, update, delete, set-thumb, rm-thumb, profile, passwd, exit")

		case "login":
			if err := a.Login(ctx); err != nil {
				continue
			}
			if pending != "" {
				redo := pending
				pending = ""
				runProtected(redo)
			}

		case "logout":
			_ = a.Logout(ctx)

		case "whoami":
			_ = a.WhoAmI(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			if _, ok := protected[cmd]; ok {
				runProtected(cmd)
			} else {
				printlnFn("Unknown command:", cmd)
			}
		}
	}
}

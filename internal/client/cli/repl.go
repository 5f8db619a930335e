package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/mdrscore/client/internal/client/notify"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	notice() (notify.Notification, bool)

	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error

	Profile(ctx context.Context) error
	Edit(ctx context.Context) error
	Avatar(ctx context.Context) error
	Account(ctx context.Context) error
	Delete(ctx context.Context) error
}

const (
	helpGuest  = "Available commands: register, login, exit"
	helpMember = "Available commands: (p)rofile, edit, avatar, account, delete, logout, exit"
)

// runREPL reads one command per line from reader and dispatches it to a.
// The loop exits on EOF or when the user types "exit" or "quit".
//
//	Not logged in:
//	  - help           show available commands
//	  - register       create an account
//	  - login          authenticate
//	  - exit | quit    leave the program
//
//	Logged in:
//	  - help           show available commands
//	  - profile | p    show the profile dashboard
//	  - edit           change profile fields
//	  - avatar         upload a new avatar
//	  - account        change email or password
//	  - delete         delete the account
//	  - logout         log out
//	  - exit | quit    leave the program
//
// Errors returned by commands are not printed here; commands report through
// notifications, which are shown before the next prompt.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if n, ok := a.notice(); ok {
			printlnFn(fmt.Sprintf("[%s] %s", n.Kind, n.Text))
		}
		printlnFn(fmt.Sprintf("mdr %s > ", statusFn()))

		line, err := readLine(reader)
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		if ctx.Err() != nil {
			return
		}

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpMember)
			} else {
				printlnFn(helpGuest)
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "p", "profile":
			_ = a.Profile(ctx)

		case "edit":
			_ = a.Edit(ctx)

		case "avatar":
			_ = a.Avatar(ctx)

		case "account":
			_ = a.Account(ctx)

		case "delete":
			_ = a.Delete(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

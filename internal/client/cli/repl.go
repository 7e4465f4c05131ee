package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/securevault/internal/common"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	List(ctx context.Context) error
	Search(ctx context.Context, query string) error
	Show(ctx context.Context, id string) error
	Add(ctx context.Context) error
	Edit(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	Export(ctx context.Context) error
}

const (
	helpSignedOut = "Available commands: register, login, help, exit"
	helpSignedIn  = "Available commands: (l)ist, search [text], show [id], add, edit [id], delete [id], export, whoami, logout, help, exit"
)

// runREPL starts a simple read–eval–print loop for the SecureVault CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'; the rest of the line is the command
// argument. A command that needs an id and got none asks for it. The loop
// exits on EOF or when the user types "exit" or "quit".
//
// Errors returned by command handlers are printed as user messages and do
// not stop the loop.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("sv (%s)> ", statusFn()))

		line, err := readLine(reader)
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, arg := parts[0], strings.Join(parts[1:], " ")

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpSignedIn)
			} else {
				printlnFn(helpSignedOut)
			}
			continue

		case "exit", "quit":
			printlnFn("Bye!")
			return

		case "register":
			err = a.Register(ctx)
		case "login":
			err = a.Login(ctx)
		case "logout":
			err = a.Logout(ctx)
		case "whoami":
			err = a.WhoAmI(ctx)
		case "l", "list":
			err = a.List(ctx)
		case "search":
			err = a.Search(ctx, arg)
		case "show":
			err = a.Show(ctx, arg)
		case "add":
			err = a.Add(ctx)
		case "edit":
			err = a.Edit(ctx, arg)
		case "delete":
			err = a.Delete(ctx, arg)
		case "export":
			err = a.Export(ctx)

		default:
			printlnFn("Unknown command:", cmd)
			continue
		}

		if msg := common.UserMessage(err); msg != "" {
			printlnFn(msg)
		}
	}
}

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Messages() <-chan Message
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Balance(ctx context.Context) error
	Logout(ctx context.Context) error
}

// runREPL reads commands line by line from reader and dispatches them to a.
// Pending messages are printed after every command. The loop exits on EOF,
// on "exit" or "quit", or when ctx is done.
//
// Errors returned by command handlers are not printed here; handlers report
// them through the message channel.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		flush(a.Messages())
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("bk> %s > ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch cmd := parts[0]; cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: balance, logout, exit")
			} else {
				printlnFn("Available commands: register, login, exit")
			}

		case "register":
			if a.isLoggedIn() {
				printlnFn("Log out first")
				continue
			}
			_ = a.Register(ctx)

		case "login":
			if a.isLoggedIn() {
				printlnFn("Already logged in")
				continue
			}
			_ = a.Login(ctx)

		case "balance", "b":
			_ = a.Balance(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "exit", "quit":
			flush(a.Messages())
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

func flush(messages <-chan Message) {
	for {
		select {
		case m := <-messages:
			printlnFn(m.String())
		default:
			return
		}
	}
}

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/bonuskeeper/internal/accounts"
	"github.com/dmitrijs2005/bonuskeeper/internal/client/session"
	"github.com/dmitrijs2005/bonuskeeper/internal/common"
	"github.com/dmitrijs2005/bonuskeeper/internal/logging"
	"github.com/dmitrijs2005/bonuskeeper/internal/models"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
)

// Accounts is the account service surface the terminal uses.
type Accounts interface {
	Register(ctx context.Context, username, password string) (*models.UserRecord, error)
	Authenticate(ctx context.Context, username, password string) (*models.UserRecord, error)
	Profile(ctx context.Context, username string) (*models.UserRecord, error)
}

type App struct {
	accounts Accounts
	sessions *session.Store
	reader   *bufio.Reader
	out      io.Writer
	logger   logging.Logger

	view     View
	userName string
	messages chan Message
}

func NewApp(acc Accounts, sessions *session.Store, in io.Reader, out io.Writer, l logging.Logger) *App {
	if sessions == nil {
		sessions = session.NewStore("")
	}
	if l == nil {
		l = logging.Nop{}
	}
	return &App{
		accounts: acc,
		sessions: sessions,
		reader:   bufio.NewReader(in),
		out:      out,
		logger:   l.With("module", "cli"),
		view:     ViewWelcome,
		messages: make(chan Message, 32),
	}
}

// View returns the current screen.
func (a *App) View() View { return a.view }

// Messages is drained by the REPL after every command.
func (a *App) Messages() <-chan Message { return a.messages }

func (a *App) isLoggedIn() bool {
	return a.view == ViewDashboard
}

func (a *App) getStatus() string {
	if a.userName != "" {
		return a.userName
	}
	return string(a.view)
}

func (a *App) notify(kind MessageKind, text string) {
	select {
	case a.messages <- Message{Kind: kind, Text: text}:
	default:
		a.logger.Warn(context.Background(), "message dropped", "text", text)
	}
}

func (a *App) fail(err error) error {
	a.notify(MessageError, accounts.UserMessage(err))
	return err
}

// Register prompts for a username and password and creates the account.
// On success the login screen is shown next.
func (a *App) Register(ctx context.Context) error {
	a.view = ViewRegister

	userName, err := getSimpleText(a.reader, "Choose a username", a.out)
	if err != nil {
		a.view = ViewWelcome
		return err
	}
	password, err := getPassword(a.reader, a.out)
	if err != nil {
		a.view = ViewWelcome
		return err
	}
	defer common.WipeByteArray(password)

	a.notify(MessageInfo, "registering...")
	if _, err := a.accounts.Register(ctx, userName, string(password)); err != nil {
		a.view = ViewWelcome
		return a.fail(err)
	}

	a.view = ViewLogin
	a.notify(MessageInfo, "registration successful, now log in")
	return nil
}

// Login prompts for credentials and opens the dashboard on success.
func (a *App) Login(ctx context.Context) error {
	a.view = ViewLogin

	userName, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	rec, err := a.accounts.Authenticate(ctx, userName, string(password))
	if err != nil {
		return a.fail(err)
	}

	a.enterDashboard(ctx, accounts.NormalizeUsername(userName), rec)
	return nil
}

func (a *App) enterDashboard(ctx context.Context, userName string, rec *models.UserRecord) {
	a.userName = userName
	a.view = ViewDashboard
	if err := a.sessions.Save(session.Session{Username: userName, Bonuses: rec.BonusBalance, UserID: rec.UserID}); err != nil {
		a.logger.Warn(ctx, "session not saved", "error", err)
	}
	a.notify(MessageInfo, fmt.Sprintf("welcome, %s! you have %d bonuses", userName, rec.BonusBalance))
}

// Balance re-reads the logged-in account and reports its bonus balance.
func (a *App) Balance(ctx context.Context) error {
	if !a.isLoggedIn() {
		a.notify(MessageError, "log in first")
		return nil
	}
	rec, err := a.accounts.Profile(ctx, a.userName)
	if errors.Is(err, common.ErrNotFound) {
		a.reset()
		a.notify(MessageError, "this account no longer exists")
		return err
	}
	if err != nil {
		return a.fail(err)
	}
	a.notify(MessageInfo, fmt.Sprintf("balance: %d bonuses", rec.BonusBalance))
	return nil
}

// Logout forgets the user and returns to the welcome screen.
func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		a.notify(MessageError, "you are not logged in")
		return nil
	}
	a.reset()
	a.notify(MessageInfo, "you have logged out, see you again")
	return nil
}

func (a *App) reset() {
	if err := a.sessions.Clear(); err != nil {
		a.logger.Warn(context.Background(), "session not cleared", "error", err)
	}
	a.userName = ""
	a.view = ViewWelcome
}

// Restore reopens the dashboard for a cached session if the account still
// exists. The cached balance is ignored.
func (a *App) Restore(ctx context.Context) {
	sess, err := a.sessions.Load()
	if err != nil {
		a.logger.Warn(ctx, "session not loaded", "error", err)
		return
	}
	if sess == nil {
		return
	}
	rec, err := a.accounts.Profile(ctx, sess.Username)
	switch {
	case errors.Is(err, common.ErrNotFound):
		a.reset()
	case err != nil:
		a.notify(MessageError, accounts.UserMessage(err))
	default:
		a.enterDashboard(ctx, accounts.NormalizeUsername(sess.Username), rec)
	}
}

// Run restores any cached session and serves the REPL until exit or EOF.
func (a *App) Run(ctx context.Context) {
	printlnFn("bonuskeeper (type 'help' for commands)")
	a.Restore(ctx)
	runREPL(ctx, a, a.getStatus, a.reader)
}

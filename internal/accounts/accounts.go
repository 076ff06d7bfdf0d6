// Package accounts implements registration and login against the account
// Document.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/bonuskeeper/internal/common"
	"github.com/dmitrijs2005/bonuskeeper/internal/logging"
	"github.com/dmitrijs2005/bonuskeeper/internal/models"
)

const (
	MinUsernameLen = 2
	MinPasswordLen = 4
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9]+$`)

// DocumentStore is the part of docstore.Store the service needs.
type DocumentStore interface {
	Load(ctx context.Context) (*models.Document, error)
	Transact(ctx context.Context, summary string, mutate func(*models.Document) error) (*models.Document, error)
}

// CredentialVerifier compares a stored credential with a presented one.
type CredentialVerifier interface {
	Verify(stored, presented string) bool
}

// PlaintextVerifier compares passwords with ==, so it is not constant time.
type PlaintextVerifier struct{}

func (PlaintextVerifier) Verify(stored, presented string) bool {
	return stored == presented
}

type Service struct {
	store    DocumentStore
	verifier CredentialVerifier
	log      logging.Logger

	newID func() (uuid.UUID, error)
}

func NewService(store DocumentStore, verifier CredentialVerifier, log logging.Logger) *Service {
	if verifier == nil {
		verifier = PlaintextVerifier{}
	}
	if log == nil {
		log = logging.Nop{}
	}
	return &Service{store: store, verifier: verifier, log: log, newID: uuid.NewV7}
}

// NormalizeUsername trims and lower-cases a username.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Register creates an account with a zero balance.
func (s *Service) Register(ctx context.Context, username, password string) (*models.UserRecord, error) {
	username = NormalizeUsername(username)
	if err := validateRegistration(username, password); err != nil {
		return nil, err
	}

	var created models.UserRecord
	_, err := s.store.Transact(ctx, "register "+username, func(doc *models.Document) error {
		if _, ok := doc.Users[username]; ok {
			return common.ErrUsernameTaken
		}
		id, err := s.newID()
		if err != nil {
			return fmt.Errorf("accounts: generating user id: %w", err)
		}
		created = models.UserRecord{Password: password, BonusBalance: 0, UserID: id.String()}
		doc.Users[username] = created
		return nil
	})
	if err != nil {
		if !errors.Is(err, common.ErrUsernameTaken) {
			s.log.Error(ctx, "registration failed", "username", username, "error", err)
		}
		return nil, err
	}
	s.log.Info(ctx, "user registered", "username", username, "user_id", created.UserID)
	return &created, nil
}

// Authenticate returns the account for valid credentials. Unknown users and
// wrong passwords fail with the same common.ErrAuthFailure.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.UserRecord, error) {
	username = NormalizeUsername(username)
	if username == "" || password == "" {
		return nil, common.Validation("enter both username and password")
	}
	doc, err := s.store.Load(ctx)
	if err != nil {
		s.log.Error(ctx, "login failed", "username", username, "error", err)
		return nil, err
	}
	rec, ok := doc.Users[username]
	if !ok || !s.verifier.Verify(rec.Password, password) {
		s.log.Info(ctx, "login rejected", "username", username)
		return nil, common.ErrAuthFailure
	}
	return &rec, nil
}

// Profile re-reads the account for an already authenticated username.
func (s *Service) Profile(ctx context.Context, username string) (*models.UserRecord, error) {
	username = NormalizeUsername(username)
	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	rec, ok := doc.Users[username]
	if !ok {
		return nil, fmt.Errorf("accounts: user %q: %w", username, common.ErrNotFound)
	}
	return &rec, nil
}

func validateRegistration(username, password string) error {
	switch {
	case username == "" || password == "":
		return common.Validation("fill in all fields")
	case len(username) < MinUsernameLen:
		return common.Validation(fmt.Sprintf("username must be at least %d characters", MinUsernameLen))
	case len(password) < MinPasswordLen:
		return common.Validation(fmt.Sprintf("password must be at least %d characters", MinPasswordLen))
	case !usernamePattern.MatchString(username):
		return common.Validation("username may contain only latin letters and digits")
	}
	return nil
}

// GenericFailureMessage is shown for every failure below the domain layer.
const GenericFailureMessage = "service unavailable, try again"

// UserMessage turns err into text safe to show the end user. Domain and
// validation failures get a specific message; anything else, including
// transport, remote and decryption failures, gets GenericFailureMessage.
func UserMessage(err error) string {
	var ve *common.ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve):
		return ve.Reason
	case errors.Is(err, common.ErrUsernameTaken):
		return "this username is already taken, try another one"
	case errors.Is(err, common.ErrAuthFailure):
		return "invalid username or password, try again"
	default:
		return GenericFailureMessage
	}
}

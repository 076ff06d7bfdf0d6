// Package docstore keeps the account Document as one encrypted object in a
// blob.Client. The object is read in full, changed in memory and written
// back in full under the version observed on read; nothing is cached
// between calls.
package docstore

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/dmitrijs2005/bonuskeeper/internal/blob"
	"github.com/dmitrijs2005/bonuskeeper/internal/common"
	"github.com/dmitrijs2005/bonuskeeper/internal/cryptox"
	"github.com/dmitrijs2005/bonuskeeper/internal/logging"
	"github.com/dmitrijs2005/bonuskeeper/internal/models"
)

const (
	DefaultPath       = "bonus_data.json"
	DefaultMaxRetries = 5
	DefaultBaseDelay  = 50 * time.Millisecond
)

type Config struct {
	// Path of the object. Defaults to DefaultPath.
	Path string
	// MaxRetries bounds Transact re-attempts after a rejected write.
	// Negative disables retrying; zero selects DefaultMaxRetries.
	MaxRetries int
	// BaseDelay is the first backoff interval. Defaults to DefaultBaseDelay.
	BaseDelay time.Duration
}

type Store struct {
	blob       blob.Client
	codec      cryptox.Codec
	path       string
	maxRetries uint64
	baseDelay  time.Duration
	log        logging.Logger

	now func() time.Time
}

func New(client blob.Client, codec cryptox.Codec, cfg Config, log logging.Logger) *Store {
	s := &Store{
		blob:       client,
		codec:      codec,
		path:       cfg.Path,
		maxRetries: DefaultMaxRetries,
		baseDelay:  cfg.BaseDelay,
		log:        log,
		now:        time.Now,
	}
	if s.path == "" {
		s.path = DefaultPath
	}
	switch {
	case cfg.MaxRetries < 0:
		s.maxRetries = 0
	case cfg.MaxRetries > 0:
		s.maxRetries = uint64(cfg.MaxRetries)
	}
	if s.baseDelay <= 0 {
		s.baseDelay = DefaultBaseDelay
	}
	if s.log == nil {
		s.log = logging.Nop{}
	}
	return s
}

// Load returns the current document, or an empty one if nothing has been
// stored yet.
func (s *Store) Load(ctx context.Context) (*models.Document, error) {
	doc, _, err := s.read(ctx)
	return doc, err
}

// Save overwrites the stored document with doc. It reads first to learn the
// current version; a concurrent writer in between makes the write fail with
// common.ErrConflict or common.ErrAlreadyExists.
func (s *Store) Save(ctx context.Context, doc *models.Document) error {
	payload, err := s.encode(doc)
	if err != nil {
		return err
	}
	obj, err := s.blob.Get(ctx, s.path)
	switch {
	case errors.Is(err, common.ErrNotFound):
		obj = blob.Object{}
	case err != nil:
		return fmt.Errorf("docstore: reading version: %w", err)
	}
	if _, err := s.blob.Put(ctx, s.path, payload, obj.Version, s.message(obj.Version == "", "")); err != nil {
		return fmt.Errorf("docstore: writing document: %w", err)
	}
	s.log.Debug(ctx, "document saved", "path", s.path, "users", len(doc.Users))
	return nil
}

// Transact applies mutate to a freshly read document and writes the result
// conditioned on the version of that read. Rejected writes are retried with
// jittered exponential backoff; any error from mutate aborts without a
// write. summary, if set, is appended to the commit message.
func (s *Store) Transact(ctx context.Context, summary string, mutate func(*models.Document) error) (*models.Document, error) {
	backoff := retry.WithMaxRetries(s.maxRetries, retry.WithJitterPercent(25, retry.NewExponential(s.baseDelay)))

	var (
		result  *models.Document
		attempt int
	)
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		doc, version, err := s.read(ctx)
		if err != nil {
			return err
		}
		if err := mutate(doc); err != nil {
			return err
		}
		payload, err := s.encode(doc)
		if err != nil {
			return err
		}

		_, err = s.blob.Put(ctx, s.path, payload, version, s.message(version == "", summary))
		if common.IsRetryableWrite(err) {
			s.log.Debug(ctx, "document write rejected, retrying", "attempt", attempt, "error", err)
			return retry.RetryableError(err)
		}
		if err != nil {
			return fmt.Errorf("docstore: writing document: %w", err)
		}
		result = doc
		return nil
	})

	switch {
	case err == nil:
		s.log.Debug(ctx, "document committed", "attempts", attempt, "summary", summary)
		return result, nil
	case common.IsRetryableWrite(err):
		s.log.Warn(ctx, "document write kept conflicting", "attempts", attempt)
		if errors.Is(err, common.ErrConflict) {
			return nil, fmt.Errorf("docstore: gave up after %d attempts: %w", attempt, err)
		}
		return nil, fmt.Errorf("docstore: gave up after %d attempts: %w: %w", attempt, common.ErrConflict, err)
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		if errors.Is(err, common.ErrTransport) {
			return nil, err
		}
		return nil, common.Transport(err)
	default:
		return nil, err
	}
}

// read returns the stored document and its version. A missing object is an
// empty document with the zero version.
func (s *Store) read(ctx context.Context) (*models.Document, blob.Version, error) {
	obj, err := s.blob.Get(ctx, s.path)
	if errors.Is(err, common.ErrNotFound) {
		return models.NewDocument(), "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("docstore: reading document: %w", err)
	}
	doc, err := s.decode(obj.Content)
	if err != nil {
		return nil, "", err
	}
	return doc, obj.Version, nil
}

func (s *Store) decode(content []byte) (*models.Document, error) {
	envelope, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(content)))
	if err != nil {
		return nil, fmt.Errorf("docstore: envelope is not base64: %w", common.ErrCorruptDocument)
	}
	plain, err := s.codec.Decrypt(envelope)
	if err != nil {
		return nil, fmt.Errorf("docstore: %w", err)
	}
	defer common.WipeByteArray(plain)

	doc, err := models.ParseDocument(plain)
	if err != nil {
		return nil, fmt.Errorf("docstore: decrypted document is not valid JSON: %w", common.ErrCorruptDocument)
	}
	return doc, nil
}

func (s *Store) encode(doc *models.Document) ([]byte, error) {
	plain, err := doc.Marshal()
	if err != nil {
		return nil, fmt.Errorf("docstore: encoding document: %w", err)
	}
	defer common.WipeByteArray(plain)

	envelope, err := s.codec.Encrypt(plain)
	if err != nil {
		return nil, fmt.Errorf("docstore: encrypting document: %w", err)
	}
	out := make([]byte, base64.StdEncoding.EncodedLen(len(envelope)))
	base64.StdEncoding.Encode(out, envelope)
	return out, nil
}

func (s *Store) message(create bool, summary string) string {
	verb := "Update"
	if create {
		verb = "Create"
	}
	msg := fmt.Sprintf("%s bonus data - %s", verb, s.now().UTC().Format(time.RFC3339))
	if summary != "" {
		msg += ": " + summary
	}
	return msg
}

// Package backend assembles the client's storage stack from configuration:
// blob client, codec, document store and account service.
package backend

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/bonuskeeper/internal/accounts"
	"github.com/dmitrijs2005/bonuskeeper/internal/blob"
	"github.com/dmitrijs2005/bonuskeeper/internal/blob/github"
	"github.com/dmitrijs2005/bonuskeeper/internal/blob/memblob"
	"github.com/dmitrijs2005/bonuskeeper/internal/blob/s3blob"
	"github.com/dmitrijs2005/bonuskeeper/internal/client/config"
	"github.com/dmitrijs2005/bonuskeeper/internal/cryptox"
	"github.com/dmitrijs2005/bonuskeeper/internal/docstore"
	"github.com/dmitrijs2005/bonuskeeper/internal/logging"
	"github.com/dmitrijs2005/bonuskeeper/internal/transport"
)

// NewBlobClient returns the blob.Client selected by cfg.Backend.
func NewBlobClient(ctx context.Context, cfg *config.Config, l logging.Logger) (blob.Client, error) {
	switch cfg.Backend {
	case config.BackendProxy:
		fwd, err := transport.NewProxyClient(cfg.ProxyURL, cfg.RequestTimeout, nil)
		if err != nil {
			return nil, err
		}
		return newGitHub(cfg, fwd, l)
	case config.BackendGitHub:
		fwd, err := transport.NewDirect(transport.DirectConfig{
			BaseURL: cfg.GitHubBaseURL,
			Token:   cfg.GitHubToken,
			Timeout: cfg.RequestTimeout,
		})
		if err != nil {
			return nil, err
		}
		return newGitHub(cfg, fwd, l)
	case config.BackendS3:
		c, err := s3blob.New(ctx, s3blob.Config{
			Region:         cfg.S3Region,
			AccessKey:      cfg.S3User,
			SecretKey:      cfg.S3Password,
			BaseEndpoint:   cfg.S3BaseEndpoint,
			Bucket:         cfg.S3Bucket,
			ForcePathStyle: cfg.S3BaseEndpoint != "",
			Timeout:        cfg.RequestTimeout,
		}, l)
		if err != nil {
			return nil, err
		}
		return c, nil
	case config.BackendMemory:
		return memblob.New(), nil
	default:
		return nil, fmt.Errorf("backend: unknown backend %q", cfg.Backend)
	}
}

func newGitHub(cfg *config.Config, fwd transport.Forwarder, l logging.Logger) (blob.Client, error) {
	c, err := github.New(github.Config{Owner: cfg.Owner, Repo: cfg.Repo, Branch: cfg.Branch}, fwd, l)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// NewStore builds the document store over client.
func NewStore(cfg *config.Config, client blob.Client, l logging.Logger) (*docstore.Store, error) {
	codec, err := cryptox.NewCodec(cfg.Codec, cryptox.DeriveKey(cfg.EncryptionKey))
	if err != nil {
		return nil, err
	}
	retries := cfg.MaxRetries
	if retries == 0 {
		retries = -1
	}
	return docstore.New(client, codec, docstore.Config{Path: cfg.DataFile, MaxRetries: retries}, l), nil
}

// NewAccounts validates cfg and returns the account service it describes.
func NewAccounts(ctx context.Context, cfg *config.Config, l logging.Logger) (*accounts.Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client, err := NewBlobClient(ctx, cfg, l)
	if err != nil {
		return nil, err
	}
	store, err := NewStore(cfg, client, l)
	if err != nil {
		return nil, err
	}
	return accounts.NewService(store, accounts.PlaintextVerifier{}, l), nil
}

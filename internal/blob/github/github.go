// Package github is a blob.Client over the GitHub repository contents API.
// Object versions are the blob shas GitHub reports, and every write is a
// commit on the configured branch.
package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/bonuskeeper/internal/blob"
	"github.com/dmitrijs2005/bonuskeeper/internal/common"
	"github.com/dmitrijs2005/bonuskeeper/internal/logging"
	"github.com/dmitrijs2005/bonuskeeper/internal/transport"
)

type Config struct {
	Owner  string
	Repo   string
	Branch string // empty selects the repository default branch
}

type Client struct {
	cfg Config
	fwd transport.Forwarder
	log logging.Logger
}

var _ blob.Client = (*Client)(nil)

func New(cfg Config, fwd transport.Forwarder, log logging.Logger) (*Client, error) {
	if cfg.Owner == "" || cfg.Repo == "" {
		return nil, errors.New("github: owner and repo are required")
	}
	if fwd == nil {
		return nil, errors.New("github: forwarder is required")
	}
	if log == nil {
		log = logging.Nop{}
	}
	return &Client{cfg: cfg, fwd: fwd, log: log}, nil
}

type contentFile struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
	SHA      string `json:"sha"`
}

type putRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	SHA     string `json:"sha,omitempty"`
	Branch  string `json:"branch,omitempty"`
}

type putResponse struct {
	Content struct {
		SHA string `json:"sha"`
	} `json:"content"`
}

type apiError struct {
	Message string `json:"message"`
}

func (c *Client) Get(ctx context.Context, path string) (blob.Object, error) {
	endpoint := c.endpoint(path)
	if c.cfg.Branch != "" {
		endpoint += "?ref=" + url.QueryEscape(c.cfg.Branch)
	}
	resp, err := c.fwd.Forward(ctx, transport.Request{Endpoint: endpoint, Method: http.MethodGet})
	if err != nil {
		return blob.Object{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return blob.Object{}, c.statusError(resp, path, false)
	}

	var f contentFile
	if err := json.Unmarshal(resp.Body, &f); err != nil {
		return blob.Object{}, fmt.Errorf("github: decoding %s metadata: %w", path, common.ErrCorruptDocument)
	}
	if f.Encoding != "" && f.Encoding != "base64" {
		return blob.Object{}, fmt.Errorf("github: %s has unsupported encoding %q: %w", path, f.Encoding, common.ErrCorruptDocument)
	}
	content, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(f.Content, "\n", ""))
	if err != nil {
		return blob.Object{}, fmt.Errorf("github: decoding %s content: %w", path, common.ErrCorruptDocument)
	}
	c.log.Debug(ctx, "github object read", "path", path, "sha", f.SHA)
	return blob.Object{Content: content, Version: blob.Version(f.SHA)}, nil
}

func (c *Client) Put(ctx context.Context, path string, content []byte, version blob.Version, message string) (blob.Version, error) {
	if err := blob.CheckMessage(message); err != nil {
		return "", err
	}
	data, err := json.Marshal(putRequest{
		Message: message,
		Content: base64.StdEncoding.EncodeToString(content),
		SHA:     string(version),
		Branch:  c.cfg.Branch,
	})
	if err != nil {
		return "", fmt.Errorf("github: encoding put: %w", err)
	}

	resp, err := c.fwd.Forward(ctx, transport.Request{Endpoint: c.endpoint(path), Method: http.MethodPut, Data: data})
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", c.statusError(resp, path, version == "")
	}

	var pr putResponse
	if err := json.Unmarshal(resp.Body, &pr); err != nil || pr.Content.SHA == "" {
		return "", &common.RemoteError{Status: resp.StatusCode, Message: "github: put response carries no content sha"}
	}
	c.log.Info(ctx, "github object written", "path", path, "sha", pr.Content.SHA, "created", version == "")
	return blob.Version(pr.Content.SHA), nil
}

func (c *Client) endpoint(path string) string {
	segs := strings.Split(strings.Trim(path, "/"), "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("repos/%s/%s/contents/%s",
		url.PathEscape(c.cfg.Owner), url.PathEscape(c.cfg.Repo), strings.Join(segs, "/"))
}

// statusError maps a non-success contents API response. GitHub answers a
// create over an existing file with 422 and a stale sha with 409.
func (c *Client) statusError(resp *transport.Response, path string, create bool) error {
	msg := remoteMessage(resp.Body)
	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("github: %s: %w", path, common.ErrNotFound)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("github: %s: %s: %w", path, msg, common.ErrAuth)
	case http.StatusConflict:
		return fmt.Errorf("github: %s: %w", path, common.ErrConflict)
	case http.StatusUnprocessableEntity:
		if create {
			return fmt.Errorf("github: %s: %w", path, common.ErrAlreadyExists)
		}
		return fmt.Errorf("github: %s: %w", path, common.ErrConflict)
	default:
		return &common.RemoteError{Status: resp.StatusCode, Message: msg}
	}
}

func remoteMessage(body []byte) string {
	var e apiError
	if json.Unmarshal(body, &e) == nil && e.Message != "" {
		return e.Message
	}
	if len(body) > 200 {
		body = body[:200]
	}
	return string(body)
}

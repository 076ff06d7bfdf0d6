package backend

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/bonuskeeper/internal/blob/github"
	"github.com/dmitrijs2005/bonuskeeper/internal/blob/memblob"
	"github.com/dmitrijs2005/bonuskeeper/internal/client/config"
	"github.com/dmitrijs2005/bonuskeeper/internal/common"
	"github.com/dmitrijs2005/bonuskeeper/internal/proxy"
	"github.com/dmitrijs2005/bonuskeeper/internal/testutil/fakegithub"
	"github.com/dmitrijs2005/bonuskeeper/internal/transport"
)

func baseConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.Owner, c.Repo, c.EncryptionKey = "octo", "data", "pepper"
	return c
}

func TestNewBlobClient_Selects(t *testing.T) {
	ctx := context.Background()

	c := baseConfig()
	c.Backend = config.BackendMemory
	bc, err := NewBlobClient(ctx, c, nil)
	require.NoError(t, err)
	assert.IsType(t, &memblob.Store{}, bc)

	c = baseConfig()
	bc, err = NewBlobClient(ctx, c, nil)
	require.NoError(t, err)
	assert.IsType(t, &github.Client{}, bc)

	c.Backend = "ftp"
	_, err = NewBlobClient(ctx, c, nil)
	assert.Error(t, err)
}

func TestNewAccounts_InvalidConfig(t *testing.T) {
	c := baseConfig()
	c.EncryptionKey = ""
	_, err := NewAccounts(context.Background(), c, nil)
	assert.Error(t, err)
}

// Registration and login through client -> proxy -> fake GitHub.
func TestEndToEndThroughProxy(t *testing.T) {
	gh := fakegithub.New("secret-token")
	defer gh.Close()

	direct, err := transport.NewDirect(transport.DirectConfig{BaseURL: gh.URL, Token: "secret-token"})
	require.NoError(t, err)
	p := httptest.NewServer(proxy.NewHandler(direct, []string{"repos/octo/data/"}, nil, nil).Router())
	defer p.Close()

	c := baseConfig()
	c.ProxyURL = p.URL
	svc, err := NewAccounts(context.Background(), c, nil)
	require.NoError(t, err)
	ctx := context.Background()

	rec, err := svc.Register(ctx, "Alice", "pass")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "bob", "word")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "alice", "other")
	require.ErrorIs(t, err, common.ErrUsernameTaken)

	got, err := svc.Authenticate(ctx, "alice", "pass")
	require.NoError(t, err)
	assert.Equal(t, rec.UserID, got.UserID)

	commits := gh.Commits()
	require.Len(t, commits, 2)
	assert.Contains(t, commits[0].Message, "Create bonus data - ")
	assert.Contains(t, commits[1].Message, "Update bonus data - ")

	raw, ok := gh.File("octo/data/bonus_data.json")
	require.True(t, ok)
	assert.NotContains(t, string(raw), `"users"`)
}

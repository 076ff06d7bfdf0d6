// Package blob defines the versioned remote object contract the document
// store is written against.
//
// Every object carries a Version, an opaque content identity returned on
// read and required on overwrite. Backends live in subpackages: github
// (GitHub contents API), s3blob (S3-compatible object storage) and memblob
// (in-process).
//
// Error contract, matched with errors.Is / errors.As:
//   - common.ErrNotFound: no object at the path (Get only).
//   - common.ErrConflict: Put with a Version that is no longer current.
//   - common.ErrAlreadyExists: Put without a Version over an existing object.
//   - common.ErrAuth: the remote rejected the credential.
//   - common.ErrTransport: network failure or timeout.
//   - *common.RemoteError: any other non-success response.
package blob

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/bonuskeeper/internal/common"
)

// Version identifies a content state of an object. The zero value means
// the object does not exist yet.
type Version string

// Object is the content of a remote object together with its Version.
type Object struct {
	Content []byte
	Version Version
}

// Client reads and conditionally writes remote objects.
type Client interface {
	// Get returns the object stored at path.
	Get(ctx context.Context, path string) (Object, error)

	// Put stores content at path. A non-empty version makes the write
	// conditional on the object still being at that version; an empty
	// version requires that no object exists. message is recorded in the
	// remote history and must not be empty.
	Put(ctx context.Context, path string, content []byte, version Version, message string) (Version, error)
}

// CheckMessage validates a commit message.
func CheckMessage(message string) error {
	if strings.TrimSpace(message) == "" {
		return common.Validation("commit message must not be empty")
	}
	return nil
}

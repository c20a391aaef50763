// Package media talks to the remote asset host that stores avatars and
// cover images. The rest of the service depends on the Store interface so
// profile flows can be exercised without a live bucket.
package media

import (
	"context"
	"io"
)

// Store uploads and deletes public binary assets.
type Store interface {
	// Upload stores body under key and returns the public URL of the asset.
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	// Delete removes a previously uploaded asset. Deleting an unknown key
	// is not an error.
	Delete(ctx context.Context, key string) error
}

// Package firebase implements identity.Provider with the Firebase Admin SDK and the
// Identity Toolkit password grant.
package firebase

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
)

// Credentials selects how the Firebase app authenticates. With neither field set the
// app falls back to application default credentials.
type Credentials struct {
	ProjectID string
	File      string
	JSON      []byte
}

// NewApp initialises a Firebase app. The same app serves Auth and Firestore.
func NewApp(ctx context.Context, creds Credentials) (*firebase.App, error) {
	var opts []option.ClientOption
	switch {
	case len(creds.JSON) > 0:
		opts = append(opts, option.WithCredentialsJSON(creds.JSON))
	case creds.File != "":
		opts = append(opts, option.WithCredentialsFile(creds.File))
	}

	var conf *firebase.Config
	if creds.ProjectID != "" {
		conf = &firebase.Config{ProjectID: creds.ProjectID}
	}

	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise firebase app: %w", err)
	}
	return app, nil
}

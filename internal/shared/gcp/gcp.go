// Package gcp builds Google Cloud client options and the Firebase app.
package gcp

import (
	"context"
	"fmt"
	"strings"

	firebase "firebase.google.com/go/v4"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

var scopes = []string{
	"https://www.googleapis.com/auth/cloud-platform",
	"https://www.googleapis.com/auth/datastore",
	"https://www.googleapis.com/auth/firebase",
	"https://www.googleapis.com/auth/identitytoolkit",
	"https://www.googleapis.com/auth/userinfo.email",
}

// ClientOptions returns options carrying the service account credentials.
// Empty credentials fall back to application default credentials.
func ClientOptions(ctx context.Context, credentialsJSON string) ([]option.ClientOption, error) {
	if strings.TrimSpace(credentialsJSON) == "" {
		return nil, nil
	}
	creds, err := google.CredentialsFromJSON(ctx, []byte(credentialsJSON), scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse google credentials: %w", err)
	}
	return []option.ClientOption{option.WithCredentials(creds)}, nil
}

// NewFirebaseApp initializes the Firebase Admin SDK for projectID.
func NewFirebaseApp(ctx context.Context, projectID string, opts ...option.ClientOption) (*firebase.App, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	return app, nil
}

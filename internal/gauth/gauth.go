// Package gauth builds authenticated HTTP clients for Google APIs from either a service
// account key or an installed-app OAuth client plus a cached token.
package gauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Credentials names the files to authenticate with. ServiceAccountFile wins when set.
type Credentials struct {
	ServiceAccountFile string
	OAuthCredentials   string // credentials.json of an OAuth desktop client
	OAuthToken         string // token.json written by the auth flow
}

func (c Credentials) Configured() bool {
	return c.ServiceAccountFile != "" || c.OAuthCredentials != ""
}

// HTTPClient returns a client authorized for scopes. base, when non-nil, is used for the
// token and API round trips.
func HTTPClient(ctx context.Context, creds Credentials, base *http.Client, scopes ...string) (*http.Client, error) {
	if base != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
	}

	if creds.ServiceAccountFile != "" {
		b, err := os.ReadFile(creds.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account file: %w", err)
		}
		conf, err := google.JWTConfigFromJSON(b, scopes...)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}
		return conf.Client(ctx), nil
	}

	if creds.OAuthCredentials == "" {
		return nil, fmt.Errorf("no Google credentials configured: set GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_OAUTH_CREDENTIALS")
	}
	conf, err := OAuthConfig(creds.OAuthCredentials, scopes...)
	if err != nil {
		return nil, err
	}
	tok, err := TokenFromFile(creds.OAuthToken)
	if err != nil {
		return nil, fmt.Errorf("no usable OAuth token at %q (run `cvctl auth`): %w", creds.OAuthToken, err)
	}
	return conf.Client(ctx, tok), nil
}

// OAuthConfig reads an installed-app client definition.
func OAuthConfig(credentialsFile string, scopes ...string) (*oauth2.Config, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}
	conf, err := google.ConfigFromJSON(b, scopes...)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}
	return conf, nil
}

// TokenFromWeb runs the copy-paste authorization flow: it prints the consent URL to out
// and reads the code from in.
func TokenFromWeb(ctx context.Context, conf *oauth2.Config, in io.Reader, out io.Writer) (*oauth2.Token, error) {
	authURL := conf.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Fprintf(out, "Go to the following link in your browser then type the authorization code:\n%v\n", authURL)

	var authCode string
	if _, err := fmt.Fscan(in, &authCode); err != nil {
		return nil, fmt.Errorf("unable to read authorization code: %w", err)
	}
	tok, err := conf.Exchange(ctx, strings.TrimSpace(authCode))
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve token from web: %w", err)
	}
	return tok, nil
}

// TokenFromFile retrieves a token from a local file.
func TokenFromFile(file string) (*oauth2.Token, error) {
	if file == "" {
		return nil, fmt.Errorf("token file not set")
	}
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, err
	}
	return tok, nil
}

// SaveToken writes a token with owner-only permissions.
func SaveToken(path string, token *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to cache oauth token: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}

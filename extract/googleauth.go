// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/sheets/v4"
)

// GoogleScopes are the read-only scopes requested for Docs and Sheets.
var GoogleScopes = []string{docs.DocumentsReadonlyScope, sheets.SpreadsheetsReadonlyScope}

// ErrGoogleLoginRequired is returned when client secrets are configured but
// no token has been saved yet.
var ErrGoogleLoginRequired = errors.New("google login required")

// GoogleOAuthConfig reads installed-app client secrets from credentialsFile.
func GoogleOAuthConfig(credentialsFile string) (*oauth2.Config, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("reading google credentials: %w", err)
	}
	cfg, err := google.ConfigFromJSON(data, GoogleScopes...)
	if err != nil {
		return nil, fmt.Errorf("parsing google credentials: %w", err)
	}
	return cfg, nil
}

// GoogleHTTPClient returns an HTTP client authorized for GoogleScopes.
// Service account keys are used directly. Client secrets need the token saved
// in tokenFile by a previous login; refreshed tokens are written back to it.
func GoogleHTTPClient(ctx context.Context, credentialsFile, tokenFile string, logger *slog.Logger) (*http.Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("reading google credentials: %w", err)
	}

	var kind struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &kind); err == nil && kind.Type == "service_account" {
		jwtCfg, err := google.JWTConfigFromJSON(data, GoogleScopes...)
		if err != nil {
			return nil, fmt.Errorf("parsing service account key: %w", err)
		}
		return jwtCfg.Client(ctx), nil
	}

	cfg, err := google.ConfigFromJSON(data, GoogleScopes...)
	if err != nil {
		return nil, fmt.Errorf("parsing google credentials: %w", err)
	}
	tok, err := LoadGoogleToken(tokenFile)
	if err != nil {
		return nil, err
	}
	src := &persistingTokenSource{
		src:    cfg.TokenSource(ctx, tok),
		path:   tokenFile,
		last:   tok.AccessToken,
		logger: logger.With("component", "google-auth"),
	}
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(tok, src)), nil
}

// LoadGoogleToken reads a token saved by SaveGoogleToken.
func LoadGoogleToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: no token at %s", ErrGoogleLoginRequired, path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading google token: %w", err)
	}
	tok := &oauth2.Token{}
	if err := json.Unmarshal(data, tok); err != nil {
		return nil, fmt.Errorf("parsing google token %s: %w", path, err)
	}
	return tok, nil
}

// SaveGoogleToken writes tok to path with owner-only permissions.
func SaveGoogleToken(path string, tok *oauth2.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// persistingTokenSource saves every newly minted token.
type persistingTokenSource struct {
	src    oauth2.TokenSource
	path   string
	logger *slog.Logger

	mu   sync.Mutex
	last string
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.src.Token()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		if err := SaveGoogleToken(s.path, tok); err != nil {
			s.logger.Warn("could not save refreshed google token", "path", s.path, "err", err)
		}
	}
	return tok, nil
}

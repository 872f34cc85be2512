package auth

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// NewSheetsService builds an authenticated Sheets service from service
// account credentials. The private key usually arrives through the
// environment with literal "\n" sequences in place of newlines, so those
// are unescaped before signing.
func NewSheetsService(ctx context.Context, email, privateKey string) (*sheets.Service, error) {
	if email == "" || privateKey == "" {
		return nil, fmt.Errorf("service account email and private key are required")
	}

	conf := &jwt.Config{
		Email:      email,
		PrivateKey: []byte(strings.ReplaceAll(privateKey, `\n`, "\n")),
		Scopes:     []string{sheets.SpreadsheetsScope},
		TokenURL:   google.JWTTokenURL,
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(conf.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %w", err)
	}
	return srv, nil
}

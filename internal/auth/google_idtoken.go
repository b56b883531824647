package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/hitoshi/storefront/internal/model"
)

// DefaultGoogleIssuer はGoogleのIDトークン発行者。
const DefaultGoogleIssuer = "https://accounts.google.com"

// IdentityClaims は検証済みIDトークンから取り出した本人情報。
type IdentityClaims struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// IdentityVerifier は外部IdPが発行したIDトークンを検証する。
type IdentityVerifier interface {
	// Verify は署名・発行者・audience・有効期限を検証し、本人情報を返す。
	// 失敗時はINVALID_IDENTITY_TOKENのAPIErrorを返す。
	Verify(ctx context.Context, rawIDToken string) (*IdentityClaims, error)
}

type googleClaims struct {
	Sub     string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// GoogleVerifier はgo-oidcを使用してGoogleのIDトークンを検証する。
type GoogleVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewGoogleVerifier はOIDCディスカバリで公開鍵の取得先を解決し、GoogleVerifierを生成する。
// 公開鍵はgo-oidcがキャッシュし、鍵のローテーション時に再取得する。
// clientがnilでない場合、ディスカバリとJWKSの取得にそのクライアントを使う。
func NewGoogleVerifier(ctx context.Context, issuer, clientID string, client *http.Client) (*GoogleVerifier, error) {
	if issuer == "" {
		issuer = DefaultGoogleIssuer
	}
	if client != nil {
		ctx = oidc.ClientContext(ctx, client)
	}

	p, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to create oidc provider: %w", err)
	}

	return NewGoogleVerifierWith(p.Verifier(&oidc.Config{ClientID: clientID})), nil
}

// NewGoogleVerifierWith は構築済みのIDTokenVerifierからGoogleVerifierを生成する。
func NewGoogleVerifierWith(v *oidc.IDTokenVerifier) *GoogleVerifier {
	return &GoogleVerifier{verifier: v}
}

// Verify はIDトークンを検証する。emailを含まないトークンは拒否する。
func (g *GoogleVerifier) Verify(ctx context.Context, rawIDToken string) (*IdentityClaims, error) {
	if rawIDToken == "" {
		return nil, model.NewInvalidIdentityTokenError(errors.New("empty id token"))
	}

	idTok, err := g.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, model.NewInvalidIdentityTokenError(err)
	}

	var c googleClaims
	if err := idTok.Claims(&c); err != nil {
		return nil, model.NewInvalidIdentityTokenError(fmt.Errorf("failed to decode claims: %w", err))
	}
	if c.Email == "" {
		return nil, model.NewInvalidIdentityTokenError(errors.New("id token has no email"))
	}

	return &IdentityClaims{
		Subject: c.Sub,
		Email:   c.Email,
		Name:    c.Name,
		Picture: c.Picture,
	}, nil
}

// compile-time interface check
var _ IdentityVerifier = (*GoogleVerifier)(nil)

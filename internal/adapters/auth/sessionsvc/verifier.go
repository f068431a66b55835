package sessionsvc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cad-care-tracker/internal/ports/auth"
)

var (
	ErrTokenEmpty = errors.New("token is empty")
)

// Verifier implementa auth.AuthVerifier contra el proveedor remoto de
// sesiones. No se integra automáticamente; se instancia desde main si hay
// SESSION_BASE_URL configurada.
type Verifier struct {
	client *Client
}

func NewVerifier(client *Client) *Verifier {
	return &Verifier{client: client}
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	if v == nil || v.client == nil {
		return auth.Claims{}, ErrNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrTokenEmpty
	}

	claims, err := v.client.VerifySession(ctx, token)
	if err != nil {
		// Normalizamos un poco, pero sin inventar semantics.
		// El middleware ya decide si corta o no.
		return auth.Claims{}, fmt.Errorf("session verify failed: %w", err)
	}

	claims.UserID = strings.TrimSpace(claims.UserID)
	if claims.UserID == "" {
		return auth.Claims{}, errors.New("session claims missing user id")
	}

	return claims, nil
}

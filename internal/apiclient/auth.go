package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stemsi/exstem-client/internal/model"
)

// Login authenticates a student and stores the returned token on the client.
// POST /auth/student/login
func (c *Client) Login(ctx context.Context, nisn, password string) (*model.StudentLoginResponse, error) {
	var res model.StudentLoginResponse
	body := model.StudentLoginRequest{NISN: nisn, Password: password}
	if err := c.do(ctx, http.MethodPost, "/auth/student/login", body, &res); err != nil {
		return nil, err
	}
	if res.Token == "" {
		return nil, errors.New("login response carried no token")
	}
	c.SetToken(res.Token)
	return &res, nil
}

// TokenExpired reports whether a JWT's exp claim is before now. The
// signature is not verified; the backend remains the authority. An empty
// token or one without exp is treated as unexpired.
func TokenExpired(token string, now time.Time) (bool, error) {
	if token == "" {
		return false, nil
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false, fmt.Errorf("parse token: %w", err)
	}
	if claims.ExpiresAt == nil {
		return false, nil
	}
	return now.After(claims.ExpiresAt.Time), nil
}

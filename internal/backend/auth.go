package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/hacknet/portal/internal/hacknet"
)

type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (hacknet.User, error) {
	var u hacknet.User
	err := c.post(ctx, "/auth/register", req, &u)
	return u, err
}

// Login exchanges credentials for an access token. It does not store the
// token; that is the caller's session concern.
func (c *Client) Login(ctx context.Context, email, password string) (hacknet.Token, error) {
	var tok hacknet.Token
	if err := c.post(ctx, "/auth/login", LoginRequest{Email: email, Password: password}, &tok); err != nil {
		return hacknet.Token{}, err
	}
	if tok.AccessToken == "" {
		return hacknet.Token{}, fmt.Errorf("login response carried no access token")
	}
	return tok, nil
}

// Welcome calls the protected greeting page.
func (c *Client) Welcome(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	err := c.get(ctx, "/welcome", nil, &out)
	return out, err
}

// --- Profile ---

func (c *Client) Profile(ctx context.Context) (hacknet.Profile, error) {
	var p hacknet.Profile
	err := c.get(ctx, "/profile", nil, &p)
	return p, err
}

func (c *Client) UpdateUsername(ctx context.Context, username string) (hacknet.Profile, error) {
	var p hacknet.Profile
	err := c.put(ctx, "/profile", map[string]string{"username": username}, &p)
	return p, err
}

func (c *Client) UpdateEmail(ctx context.Context, email string) (hacknet.Message, error) {
	var m hacknet.Message
	err := c.put(ctx, "/profile/email", map[string]string{"new_email": email}, &m)
	return m, err
}

func (c *Client) ChangePassword(ctx context.Context, current, next string) (hacknet.Message, error) {
	var m hacknet.Message
	err := c.put(ctx, "/profile/password", map[string]string{
		"current_password": current,
		"new_password":     next,
	}, &m)
	return m, err
}

// UploadAvatar sends the image as the multipart "file" field.
func (c *Client) UploadAvatar(ctx context.Context, filename string, content io.Reader) (hacknet.Profile, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return hacknet.Profile{}, fmt.Errorf("creating avatar part: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return hacknet.Profile{}, fmt.Errorf("copying avatar: %w", err)
	}
	if err := mw.Close(); err != nil {
		return hacknet.Profile{}, fmt.Errorf("closing avatar form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/profile/avatar", nil), &buf)
	if err != nil {
		return hacknet.Profile{}, fmt.Errorf("building avatar upload: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var p hacknet.Profile
	err = c.send(req, &p)
	return p, err
}

// --- Feedback ---

func (c *Client) SubmitFeedback(ctx context.Context, fb hacknet.Feedback) (hacknet.Message, error) {
	var m hacknet.Message
	err := c.post(ctx, "/feedback", fb, &m)
	return m, err
}

package profile

import (
	"context"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/hacknet/portal/internal/hacknet"
)

var ErrBadUsername = errors.New("username must be 3 to 50 characters")

type API interface {
	Profile(ctx context.Context) (hacknet.Profile, error)
	UpdateUsername(ctx context.Context, username string) (hacknet.Profile, error)
	UploadAvatar(ctx context.Context, filename string, content io.Reader) (hacknet.Profile, error)
}

// Editor applies profile edits and announces them on a broker.
type Editor struct {
	broker *Broker
}

func NewEditor(broker *Broker) *Editor {
	return &Editor{broker: broker}
}

func (e *Editor) Rename(ctx context.Context, api API, username string) (hacknet.Profile, error) {
	username = strings.TrimSpace(username)
	if n := utf8.RuneCountInString(username); n < 3 || n > 50 {
		return hacknet.Profile{}, ErrBadUsername
	}
	p, err := api.UpdateUsername(ctx, username)
	if err != nil {
		return hacknet.Profile{}, err
	}
	e.broker.Publish(UpdateOf(p))
	return p, nil
}

func (e *Editor) SetAvatar(ctx context.Context, api API, filename string, content io.Reader) (hacknet.Profile, error) {
	p, err := api.UploadAvatar(ctx, filename, content)
	if err != nil {
		return hacknet.Profile{}, err
	}
	e.broker.Publish(UpdateOf(p))
	return p, nil
}

func UpdateOf(p hacknet.Profile) Update {
	u := Update{UserID: p.ID, Username: p.Username}
	if p.AvatarURL != nil {
		u.AvatarURL = *p.AvatarURL
	}
	return u
}

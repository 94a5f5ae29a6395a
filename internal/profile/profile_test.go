package profile

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/hacknet/portal/internal/hacknet"
)

type fakeAPI struct {
	profile hacknet.Profile
	err     error
	avatar  string
}

func (f *fakeAPI) Profile(ctx context.Context) (hacknet.Profile, error) { return f.profile, f.err }

func (f *fakeAPI) UpdateUsername(ctx context.Context, username string) (hacknet.Profile, error) {
	if f.err != nil {
		return hacknet.Profile{}, f.err
	}
	f.profile.Username = username
	return f.profile, nil
}

func (f *fakeAPI) UploadAvatar(ctx context.Context, filename string, content io.Reader) (hacknet.Profile, error) {
	if f.err != nil {
		return hacknet.Profile{}, f.err
	}
	b, _ := io.ReadAll(content)
	f.avatar = string(b)
	url := "https://cdn/avatars/" + filename
	f.profile.AvatarURL = &url
	return f.profile, nil
}

func TestBrokerFanOut(t *testing.T) {
	b := NewBroker()
	a1, cancel1 := b.Subscribe(1)
	a2, cancel2 := b.Subscribe(1)
	other, cancelOther := b.Subscribe(2)
	defer cancelOther()

	if n := b.Publish(Update{UserID: 1, Username: "neo"}); n != 2 {
		t.Errorf("delivered to %d views, want 2", n)
	}

	for _, ch := range []<-chan []byte{a1, a2} {
		select {
		case data := <-ch:
			var u Update
			if err := json.Unmarshal(data, &u); err != nil || u.Username != "neo" {
				t.Errorf("got %s (%v)", data, err)
			}
		default:
			t.Error("view missed the update")
		}
	}
	select {
	case data := <-other:
		t.Errorf("other user received %s", data)
	default:
	}

	cancel1()
	cancel1()
	if n := b.Views(1); n != 1 {
		t.Errorf("views after one cancel = %d, want 1", n)
	}
	cancel2()
	if n := b.Views(1); n != 0 {
		t.Errorf("views = %d", n)
	}
	if n := b.Publish(Update{UserID: 1}); n != 0 {
		t.Errorf("closed views received %d updates", n)
	}
}

func TestBrokerSkipsFullView(t *testing.T) {
	b := NewBroker()
	ch, cancel := b.Subscribe(5)
	defer cancel()
	for i := 0; i < viewBuffer; i++ {
		b.Publish(Update{UserID: 5})
	}
	if n := b.Publish(Update{UserID: 5}); n != 0 {
		t.Errorf("full view took %d updates", n)
	}
	if len(ch) != viewBuffer {
		t.Errorf("buffered %d, want %d", len(ch), viewBuffer)
	}
}

func TestEditorPublishes(t *testing.T) {
	b := NewBroker()
	ch, cancel := b.Subscribe(9)
	defer cancel()
	api := &fakeAPI{profile: hacknet.Profile{ID: 9, Username: "old"}}
	e := NewEditor(b)

	if _, err := e.Rename(context.Background(), api, "  trinity "); err != nil {
		t.Fatal(err)
	}
	if _, err := e.SetAvatar(context.Background(), api, "me.png", strings.NewReader("PNG")); err != nil {
		t.Fatal(err)
	}
	if api.avatar != "PNG" {
		t.Errorf("avatar body = %q", api.avatar)
	}

	var got []Update
	for len(ch) > 0 {
		var u Update
		json.Unmarshal(<-ch, &u)
		got = append(got, u)
	}
	if len(got) != 2 || got[0].Username != "trinity" || got[1].AvatarURL != "https://cdn/avatars/me.png" {
		t.Errorf("updates = %+v", got)
	}
}

func TestEditorRejects(t *testing.T) {
	b := NewBroker()
	ch, cancel := b.Subscribe(1)
	defer cancel()
	e := NewEditor(b)

	if _, err := e.Rename(context.Background(), &fakeAPI{}, "ab"); !errors.Is(err, ErrBadUsername) {
		t.Errorf("err = %v, want ErrBadUsername", err)
	}
	if _, err := e.Rename(context.Background(), &fakeAPI{err: errors.New("taken")}, "morpheus"); err == nil {
		t.Error("backend failure swallowed")
	}
	if len(ch) != 0 {
		t.Errorf("failed edits published %d updates", len(ch))
	}
}

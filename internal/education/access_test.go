package education

import (
	"testing"

	"github.com/hacknet/portal/internal/hacknet"
)

func strp(s string) *string { return &s }

func TestParseAccessType(t *testing.T) {
	tests := []struct {
		in   string
		want AccessType
	}{
		{"vm", VM},
		{"  VPN ", VPN},
		{"Link", Link},
		{"file", File},
		{"just_flag", JustFlag},
		{"", JustFlag},
		{"ssh", JustFlag},
		{"vm2", JustFlag},
		{"💥", JustFlag},
	}
	for _, tt := range tests {
		if got := ParseAccessType(tt.in); got != tt.want {
			t.Errorf("ParseAccessType(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestResolveUnknownTypeIsJustFlag(t *testing.T) {
	acc := Resolve(hacknet.PracticeTask{AccessType: "quantum", Materials: []hacknet.Material{{ID: 1, Type: "vm", URL: strp("https://vm")}}})
	if acc.Type != JustFlag || acc.Action.Kind != ActionNone || acc.Action.Enabled {
		t.Errorf("access = %+v", acc)
	}
}

func TestResolveVM(t *testing.T) {
	tests := []struct {
		name      string
		materials []hacknet.Material
		want      string
	}{
		{
			name: "launch_url first",
			materials: []hacknet.Material{{Type: "vm", URL: strp("https://fallback"), Meta: map[string]any{
				"launch_url": "https://launch", "connect_url": "https://connect",
			}}},
			want: "https://launch",
		},
		{
			name:      "connect_url when launch is not http",
			materials: []hacknet.Material{{Type: "vm", Meta: map[string]any{"launch_url": "ftp://x", "connect_url": "https://connect"}}},
			want:      "https://connect",
		},
		{
			name:      "material url",
			materials: []hacknet.Material{{Type: "VM", URL: strp(" https://vm.example "), Meta: map[string]any{"url": "https://meta"}}},
			want:      "https://vm.example",
		},
		{
			name:      "meta url",
			materials: []hacknet.Material{{Type: "vm", Meta: map[string]any{"url": "http://meta"}}},
			want:      "http://meta",
		},
		{
			name:      "none",
			materials: []hacknet.Material{{Type: "vm", Meta: map[string]any{"launch_url": 42}}},
			want:      "",
		},
		{
			name:      "no vm material",
			materials: []hacknet.Material{{Type: "file", URL: strp("https://file")}},
			want:      "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := Resolve(hacknet.PracticeTask{AccessType: "vm", Materials: tt.materials})
			if acc.Action.Kind != ActionLaunch || acc.Action.URL != tt.want || acc.Action.Enabled != (tt.want != "") {
				t.Errorf("action = %+v, want url %q", acc.Action, tt.want)
			}
		})
	}
}

func TestResolveLink(t *testing.T) {
	tests := []struct {
		name      string
		materials []hacknet.Material
		want      Action
	}{
		{
			name:      "typed link with id goes through backend",
			materials: []hacknet.Material{{ID: 9, Type: "link", Name: "Открыть стенд"}},
			want:      Action{Kind: ActionMaterial, Label: "Открыть стенд", MaterialID: 9, Enabled: true},
		},
		{
			name:      "target url",
			materials: []hacknet.Material{{Type: "link", Meta: map[string]any{"target_url": "https://target"}, URL: strp("https://url")}},
			want:      Action{Kind: ActionOpen, Label: "Перейти к заданию", URL: "https://target", Enabled: true},
		},
		{
			name: "heuristic by description",
			materials: []hacknet.Material{
				{Type: "file", Name: "readme.txt"},
				{Type: "other", Name: "Стенд", Description: strp("Ссылка на стенд"), URL: strp("https://stand")},
			},
			want: Action{Kind: ActionOpen, Label: "Стенд", URL: "https://stand", Enabled: true},
		},
		{
			name:      "no link material",
			materials: []hacknet.Material{{Type: "file", Name: "data.bin"}},
			want:      Action{Kind: ActionOpen, Label: "Перейти к заданию"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := Resolve(hacknet.PracticeTask{AccessType: "link", Materials: tt.materials})
			if acc.Action != tt.want {
				t.Errorf("action = %+v, want %+v", acc.Action, tt.want)
			}
		})
	}
}

func TestResolveFile(t *testing.T) {
	tests := []struct {
		name      string
		materials []hacknet.Material
		want      Action
		badge     string
	}{
		{
			name:      "signed download by id",
			materials: []hacknet.Material{{ID: 3, Type: "file", Name: "dump.pcap"}},
			want:      Action{Kind: ActionMaterial, MaterialID: 3, Enabled: true},
			badge:     "PCAP",
		},
		{
			name:      "embedded url",
			materials: []hacknet.Material{{Type: "file", Name: "task.zip", Meta: map[string]any{"download_url": "https://cdn/task.zip"}}},
			want:      Action{Kind: ActionDownload, URL: "https://cdn/task.zip", Filename: "task.zip", Enabled: true},
			badge:     "ZIP",
		},
		{
			name:      "nothing to download",
			materials: []hacknet.Material{{Type: "file", Name: "archive", Meta: map[string]any{"badge": "bin"}}},
			want:      Action{Kind: ActionDownload, Filename: "archive"},
			badge:     "BIN",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := Resolve(hacknet.PracticeTask{AccessType: "file", Materials: tt.materials})
			if acc.Action != tt.want {
				t.Errorf("action = %+v, want %+v", acc.Action, tt.want)
			}
			if acc.File == nil || acc.File.Badge != tt.badge {
				t.Errorf("file card = %+v, want badge %q", acc.File, tt.badge)
			}
		})
	}
}

func TestFileSizeLabel(t *testing.T) {
	m := hacknet.Material{Type: "file", Name: "x", Description: strp("Архив дампа, 12,5 МБ")}
	if got := fileSizeLabel(&m); got != "12,5 МБ" {
		t.Errorf("size = %q", got)
	}
	m.Meta = map[string]any{"size_label": "3 KB"}
	if got := fileSizeLabel(&m); got != "3 KB" {
		t.Errorf("size = %q", got)
	}
}

func TestResolveVPN(t *testing.T) {
	tests := []struct {
		name      string
		materials []hacknet.Material
		vpn       *hacknet.VPNInfo
		want      Action
	}{
		{
			name: "explicit source beats bare id",
			materials: []hacknet.Material{
				{ID: 1, Type: "vpn", Name: "bare.ovpn"},
				{ID: 2, Type: "file", Name: "conf.ovpn", StorageKey: strp("s3://conf")},
			},
			want: Action{Kind: ActionMaterial, MaterialID: 2, Enabled: true},
		},
		{
			name: "vpn type preferred among explicit",
			materials: []hacknet.Material{
				{ID: 4, Type: "credentials", Meta: map[string]any{"storage_key": "k1"}},
				{ID: 5, Type: "vpn", Meta: map[string]any{"download_storage_key": "k2"}},
			},
			want: Action{Kind: ActionMaterial, MaterialID: 5, Enabled: true},
		},
		{
			name: "bare id when no explicit source",
			materials: []hacknet.Material{
				{Type: "other", Name: "notes"},
				{ID: 7, Type: "credentials"},
			},
			want: Action{Kind: ActionMaterial, MaterialID: 7, Enabled: true},
		},
		{
			name: "vpn url field is not a download source",
			materials: []hacknet.Material{
				{Type: "vpn", URL: strp("https://docs")},
				{Type: "credentials", Name: "creds.txt", URL: strp("https://creds")},
			},
			want: Action{Kind: ActionDownload, URL: "https://creds", Filename: "creds.txt", Enabled: true},
		},
		{
			name: "any material with a source",
			materials: []hacknet.Material{
				{ID: 11, Type: "image", Name: "diagram.png"},
			},
			want: Action{Kind: ActionMaterial, MaterialID: 11, Enabled: true},
		},
		{
			name:      "fallback to task vpn download url",
			materials: []hacknet.Material{{Type: "vpn"}},
			vpn:       &hacknet.VPNInfo{DownloadURL: strp("https://vpn/conf"), HowToConnectURL: strp("https://howto")},
			want:      Action{Kind: ActionDownload, URL: "https://vpn/conf", Filename: "vpn-config", Enabled: true},
		},
		{
			name: "nothing",
			want: Action{Kind: ActionDownload, Filename: "vpn-config"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := Resolve(hacknet.PracticeTask{AccessType: "vpn", Materials: tt.materials, VPN: tt.vpn, ConnectionIP: strp("10.0.0.5")})
			if acc.Action != tt.want {
				t.Errorf("action = %+v, want %+v", acc.Action, tt.want)
			}
			if acc.ConnectionIP != "10.0.0.5" {
				t.Errorf("connection ip = %q", acc.ConnectionIP)
			}
		})
	}
}

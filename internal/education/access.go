package education

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hacknet/portal/internal/hacknet"
	"github.com/hacknet/portal/internal/messages"
)

// AccessType is how a participant reaches a practice task's environment.
type AccessType int

const (
	JustFlag AccessType = iota
	VM
	Link
	File
	VPN
)

var accessNames = map[AccessType]string{
	JustFlag: "just_flag",
	VM:       "vm",
	Link:     "link",
	File:     "file",
	VPN:      "vpn",
}

// ParseAccessType maps the backend's free-text access type onto the closed
// set. Anything unrecognized is JustFlag.
func ParseAccessType(s string) AccessType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "vm":
		return VM
	case "link":
		return Link
	case "file":
		return File
	case "vpn":
		return VPN
	}
	return JustFlag
}

func (a AccessType) String() string {
	if s, ok := accessNames[a]; ok {
		return s
	}
	return accessNames[JustFlag]
}

func (a AccessType) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// ActionKind says what the page does when the access button is pressed.
type ActionKind string

const (
	ActionNone     ActionKind = "none"
	ActionLaunch   ActionKind = "launch"   // open the VM console URL
	ActionOpen     ActionKind = "open"     // open URL in a new tab
	ActionDownload ActionKind = "download" // save URL under Filename
	ActionMaterial ActionKind = "material" // ask the portal to resolve MaterialID
)

type Action struct {
	Kind       ActionKind `json:"kind"`
	Label      string     `json:"label,omitempty"`
	URL        string     `json:"url,omitempty"`
	Filename   string     `json:"filename,omitempty"`
	MaterialID int        `json:"material_id,omitempty"`
	Enabled    bool       `json:"enabled"`
}

// FileCard describes the downloadable file of a "file" task.
type FileCard struct {
	Name      string `json:"name"`
	Badge     string `json:"badge"`
	SizeLabel string `json:"size_label,omitempty"`
}

// Access is the resolved way into a task.
type Access struct {
	Type            AccessType `json:"type"`
	Action          Action     `json:"action"`
	File            *FileCard  `json:"file,omitempty"`
	ConnectionIP    string     `json:"connection_ip,omitempty"`
	HowToConnectURL string     `json:"how_to_connect_url,omitempty"`
}

// Resolve works out the access action for task.
func Resolve(task hacknet.PracticeTask) Access {
	acc := Access{Type: ParseAccessType(task.AccessType), Action: Action{Kind: ActionNone}}

	switch acc.Type {
	case VM:
		url := vmLaunchURL(task.Materials)
		acc.Action = Action{Kind: ActionLaunch, URL: url, Enabled: url != ""}

	case Link:
		m := linkMaterial(task.Materials)
		if m == nil {
			acc.Action = Action{Kind: ActionOpen, Label: messages.Get("education.link_default")}
			break
		}
		label := strings.TrimSpace(m.Name)
		if label == "" {
			label = messages.Get("education.link_default")
		}
		if m.ID != 0 {
			acc.Action = Action{Kind: ActionMaterial, Label: label, MaterialID: m.ID, Enabled: true}
			break
		}
		url := firstHTTPURL(metaString(m, "target_url"), deref(m.URL), metaString(m, "url"))
		acc.Action = Action{Kind: ActionOpen, Label: label, URL: url, Enabled: url != ""}

	case File:
		m := firstOfType(task.Materials, "file")
		if m == nil {
			break
		}
		acc.File = &FileCard{Name: fileName(m), Badge: fileBadge(m), SizeLabel: fileSizeLabel(m)}
		if m.ID != 0 {
			acc.Action = Action{Kind: ActionMaterial, MaterialID: m.ID, Enabled: true}
			break
		}
		url := firstHTTPURL(metaString(m, "download_url"), deref(m.URL), metaString(m, "url"))
		acc.Action = Action{Kind: ActionDownload, URL: url, Filename: nameOr(m, "download"), Enabled: url != ""}

	case VPN:
		acc.ConnectionIP = deref(task.ConnectionIP)
		var fallback string
		if task.VPN != nil {
			acc.HowToConnectURL = firstHTTPURL(deref(task.VPN.HowToConnectURL))
			fallback = firstHTTPURL(deref(task.VPN.DownloadURL))
		}
		if m := vpnMaterial(task.Materials); m != nil {
			acc.Action = materialDownload(m)
			break
		}
		acc.Action = Action{Kind: ActionDownload, URL: fallback, Filename: "vpn-config", Enabled: fallback != ""}
	}
	return acc
}

// materialDownload is the download action for m: through the backend when
// m has an id, else straight to its embedded URL.
func materialDownload(m *hacknet.Material) Action {
	if m.ID != 0 {
		return Action{Kind: ActionMaterial, MaterialID: m.ID, Enabled: true}
	}
	url := embeddedDownloadURL(m)
	return Action{Kind: ActionDownload, URL: url, Filename: nameOr(m, "download"), Enabled: url != ""}
}

func vmLaunchURL(materials []hacknet.Material) string {
	m := firstOfType(materials, "vm")
	if m == nil {
		return ""
	}
	return firstHTTPURL(metaString(m, "launch_url"), metaString(m, "connect_url"), deref(m.URL), metaString(m, "url"))
}

var linkHints = []string{"link", "url", "перейт", "ссылк"}

// linkMaterial prefers a material typed "link", then one whose type, name
// or description mentions a link.
func linkMaterial(materials []hacknet.Material) *hacknet.Material {
	if m := firstOfType(materials, "link"); m != nil {
		return m
	}
	for i := range materials {
		m := &materials[i]
		var parts []string
		for _, p := range []string{m.Type, m.Name, deref(m.Description)} {
			if p != "" {
				parts = append(parts, p)
			}
		}
		text := strings.ToLower(strings.Join(parts, " "))
		for _, hint := range linkHints {
			if strings.Contains(text, hint) {
				return m
			}
		}
	}
	return nil
}

var vpnSearchOrder = []string{"vpn", "file", "credentials"}

// vpnMaterial finds the VPN config: explicit download metadata beats a bare
// material id, and the preferred types beat everything else.
func vpnMaterial(materials []hacknet.Material) *hacknet.Material {
	for _, typ := range vpnSearchOrder {
		for i := range materials {
			if materialType(&materials[i]) == typ && hasExplicitSource(&materials[i]) {
				return &materials[i]
			}
		}
	}
	for _, typ := range vpnSearchOrder {
		for i := range materials {
			if materialType(&materials[i]) == typ && hasAnySource(&materials[i]) {
				return &materials[i]
			}
		}
	}
	for i := range materials {
		if hasAnySource(&materials[i]) {
			return &materials[i]
		}
	}
	return nil
}

func hasExplicitSource(m *hacknet.Material) bool {
	storageKey := strings.TrimSpace(firstNonEmpty(deref(m.StorageKey), metaString(m, "download_storage_key"), metaString(m, "storage_key")))
	return storageKey != "" || embeddedDownloadURL(m) != ""
}

func hasAnySource(m *hacknet.Material) bool {
	return hasExplicitSource(m) || m.ID != 0
}

// embeddedDownloadURL honours the material's own url field only for file
// and credentials materials.
func embeddedDownloadURL(m *hacknet.Material) string {
	switch materialType(m) {
	case "file", "credentials":
		return firstHTTPURL(metaString(m, "download_url"), deref(m.URL), metaString(m, "url"))
	}
	return firstHTTPURL(metaString(m, "download_url"), metaString(m, "url"))
}

func firstOfType(materials []hacknet.Material, typ string) *hacknet.Material {
	for i := range materials {
		if materialType(&materials[i]) == typ {
			return &materials[i]
		}
	}
	return nil
}

func materialType(m *hacknet.Material) string {
	return strings.ToLower(strings.TrimSpace(m.Type))
}

func findMaterial(materials []hacknet.Material, id int) *hacknet.Material {
	for i := range materials {
		if materials[i].ID == id {
			return &materials[i]
		}
	}
	return nil
}

// metaString reads meta[key] as trimmed text. Missing and null read as "".
func metaString(m *hacknet.Material, key string) string {
	if m == nil || m.Meta == nil {
		return ""
	}
	v, ok := m.Meta[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func firstHTTPURL(values ...string) string {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if strings.HasPrefix(v, "http://") || strings.HasPrefix(v, "https://") {
			return v
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nameOr(m *hacknet.Material, fallback string) string {
	if m != nil && m.Name != "" {
		return m.Name
	}
	return fallback
}

func fileName(m *hacknet.Material) string {
	if n := strings.TrimSpace(m.Name); n != "" {
		return n
	}
	return messages.Get("education.file_default")
}

func fileBadge(m *hacknet.Material) string {
	if b := firstNonEmpty(metaString(m, "badge"), metaString(m, "file_ext"), metaString(m, "extension")); b != "" {
		return strings.ToUpper(b)
	}
	var parts []string
	for _, p := range strings.Split(strings.TrimSpace(m.Name), ".") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) > 1 {
		ext := []rune(parts[len(parts)-1])
		if len(ext) > 4 {
			ext = ext[:4]
		}
		return strings.ToUpper(string(ext))
	}
	return messages.Get("education.file_badge_default")
}

var sizePattern = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?\s*(?:КБ|МБ|ГБ|KB|MB|GB))`)

func fileSizeLabel(m *hacknet.Material) string {
	if s := firstNonEmpty(metaString(m, "size_label"), metaString(m, "file_size_label"), metaString(m, "size_human"), metaString(m, "size")); s != "" {
		return s
	}
	return sizePattern.FindString(deref(m.Description))
}

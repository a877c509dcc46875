package backend

import (
	"encoding/json"
	"strings"
	"time"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type User struct {
	ID         int64  `json:"id"`
	Username   string `json:"username"`
	Role       string `json:"role"`
	LastActive string `json:"lastActive,omitempty"`
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// NewUser is the JSON body of POST /users/. UserID is always sent empty; the
// backend assigns identifiers.
type NewUser struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	ProjectID int64  `json:"project_id,omitempty"`
}

type Project struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// UnmarshalJSON accepts the list shape ("name") as well as the creation
// responses ("projectName", "project_name").
func (p *Project) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID          int64  `json:"id"`
		Name        string `json:"name"`
		ProjectName string `json:"projectName"`
		SnakeName   string `json:"project_name"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.ID = raw.ID
	p.Name = firstNonEmpty(raw.Name, raw.ProjectName, raw.SnakeName)
	return nil
}

type Document struct {
	ID               int64     `json:"id"`
	FileName         string    `json:"file_name"`
	FileURL          string    `json:"file_url"`
	UploaderUsername string    `json:"uploader_username"`
	ProjectID        int64     `json:"project_id"`
	CreatedAt        Timestamp `json:"created_at"`
}

type MediaItem struct {
	ID               int64     `json:"id"`
	FileName         string    `json:"file_name"`
	FileURL          string    `json:"file_url"`
	FileType         string    `json:"file_type,omitempty"`
	UploaderUsername string    `json:"uploader_username"`
	ProjectID        int64     `json:"project_id"`
	CreatedAt        Timestamp `json:"created_at"`
}

// UnmarshalJSON folds the backend's two spellings of the file name into FileName.
func (m *MediaItem) UnmarshalJSON(data []byte) error {
	type plain MediaItem
	var raw struct {
		plain
		Filename      string `json:"filename"`
		UploaderEmail string `json:"uploader_email"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = MediaItem(raw.plain)
	m.FileName = firstNonEmpty(m.FileName, raw.Filename)
	m.UploaderUsername = firstNonEmpty(m.UploaderUsername, raw.UploaderEmail)
	return nil
}

// IsVideo reports whether the item should be rendered with a video player.
func (m MediaItem) IsVideo() bool {
	if strings.HasPrefix(m.FileType, "video/") || m.FileType == "video" {
		return true
	}
	switch strings.ToLower(extension(m.FileURL)) {
	case ".mp4", ".webm", ".mov", ".ogg", ".m4v":
		return true
	}
	return false
}

type Report struct {
	ID         int64     `json:"id"`
	ReportName string    `json:"report_name"`
	ReportURL  string    `json:"report_url"`
	ProjectID  int64     `json:"project_id"`
	CreatedBy  string    `json:"created_by"`
	CreatedAt  Timestamp `json:"created_at"`
}

type ChatMessage struct {
	ID             int64     `json:"id"`
	Message        string    `json:"message"`
	SenderUsername string    `json:"sender_username"`
	ProjectID      int64     `json:"project_id"`
	Timestamp      Timestamp `json:"timestamp"`
}

// LoginResult is what POST /login/login yields. Role and Username are empty
// when the backend answered with a bare token.
type LoginResult struct {
	Token    string
	Username string
	Role     string
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Timestamp tolerates the timezone-less ISO strings the backend emits. The raw
// value is kept so unparseable timestamps can still be shown.
type Timestamp struct {
	time.Time
	Raw string
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	t.Raw = s
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.Time.IsZero() {
		return json.Marshal(t.Raw)
	}
	return json.Marshal(t.Time.Format(time.RFC3339))
}

// String renders the timestamp for list views.
func (t Timestamp) String() string {
	if t.Time.IsZero() {
		return t.Raw
	}
	return t.Time.Format("2006-01-02 15:04")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func extension(u string) string {
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	if i := strings.LastIndexByte(u, '.'); i >= 0 && !strings.Contains(u[i:], "/") {
		return u[i:]
	}
	return ""
}

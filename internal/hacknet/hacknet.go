// Package hacknet defines the entities served by the HackNet backend.
// Every value here is a non-authoritative copy of server-owned state.
// It imports nothing outside the standard library.
package hacknet

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Time accepts the timestamp shapes the backend emits: RFC 3339 with or
// without an offset, or a bare date. null and "" decode to the zero Time;
// anything else that does not parse is an error.
type Time struct {
	time.Time
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

func (t *Time) UnmarshalJSON(data []byte) error {
	t.Time = time.Time{}
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a JSON string, got %s", data)
	}
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if v, err := time.Parse(layout, s); err == nil {
			t.Time = v
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.UTC().Format(time.RFC3339))
}

// At wraps a time.Time.
func At(v time.Time) Time { return Time{Time: v} }

// Token is the response of POST /auth/login.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type User struct {
	ID        int    `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	IsActive  bool   `json:"is_active"`
	CreatedAt Time   `json:"created_at"`
}

type Profile struct {
	ID        int     `json:"id"`
	Email     string  `json:"email"`
	Username  string  `json:"username"`
	Role      string  `json:"role"`
	Bio       *string `json:"bio"`
	AvatarURL *string `json:"avatar_url"`
}

// Message is the generic {"message": ...} acknowledgement.
type Message struct {
	Message string `json:"message"`
}

// --- Contests ---

type Contest struct {
	ID                 int      `json:"id"`
	Title              string   `json:"title"`
	Description        *string  `json:"description"`
	StartAt            Time     `json:"start_at"`
	EndAt              Time     `json:"end_at"`
	IsPublic           bool     `json:"is_public"`
	LeaderboardVisible bool     `json:"leaderboard_visible"`
	TasksTotal         int      `json:"tasks_total"`
	TasksSolved        int      `json:"tasks_solved"`
	RewardPoints       int      `json:"reward_points"`
	ParticipantsCount  int      `json:"participants_count"`
	FirstBloodUsername *string  `json:"first_blood_username"`
	KnowledgeAreas     []string `json:"knowledge_areas"`
	DaysLeft           int      `json:"days_left"`
	PrevContestID      *int     `json:"prev_contest_id"`
	NextContestID      *int     `json:"next_contest_id"`
}

type RequiredFlag struct {
	FlagID      string  `json:"flag_id"`
	Format      *string `json:"format"`
	Description *string `json:"description"`
	IsSolved    bool    `json:"is_solved"`
}

type ContestTask struct {
	ID                     int            `json:"id"`
	Title                  string         `json:"title"`
	Category               *string        `json:"category"`
	Difficulty             *int           `json:"difficulty"`
	Points                 int            `json:"points"`
	Tags                   []string       `json:"tags"`
	ParticipantDescription *string        `json:"participant_description"`
	OrderIndex             int            `json:"order_index"`
	IsSolved               bool           `json:"is_solved"`
	RequiredFlags          []RequiredFlag `json:"required_flags"`
	RequiredFlagsCount     int            `json:"required_flags_count"`
	SolvedFlagsCount       int            `json:"solved_flags_count"`
}

// RemainingFlags reports how many required flags are still unsolved,
// never negative.
func (t ContestTask) RemainingFlags() int {
	required, solved := t.RequiredFlagsCount, t.SolvedFlagsCount
	if required == 0 && len(t.RequiredFlags) > 0 {
		required = len(t.RequiredFlags)
		solved = 0
		for _, f := range t.RequiredFlags {
			if f.IsSolved {
				solved++
			}
		}
	}
	return max(0, required-solved)
}

type TaskState struct {
	ContestID     int           `json:"contest_id"`
	Task          *ContestTask  `json:"task"`
	ProgressIndex int           `json:"progress_index"`
	TasksTotal    int           `json:"tasks_total"`
	SolvedTaskIDs []int         `json:"solved_task_ids"`
	PreviousTasks []ContestTask `json:"previous_tasks"`
	Finished      bool          `json:"finished"`
}

type JoinResult struct {
	ContestID int  `json:"contest_id"`
	JoinedAt  Time `json:"joined_at"`
	IsJoined  bool `json:"is_joined"`
}

type FlagSubmission struct {
	TaskID int    `json:"task_id"`
	FlagID string `json:"flag_id"`
	Flag   string `json:"flag"`
}

type SubmissionResult struct {
	IsCorrect     bool `json:"is_correct"`
	AwardedPoints int  `json:"awarded_points"`
	Finished      bool `json:"finished"`
}

type ContestLeaderboardRow struct {
	Rank             int     `json:"rank"`
	UserID           int     `json:"user_id"`
	Username         string  `json:"username"`
	AvatarURL        *string `json:"avatar_url"`
	Points           int     `json:"points"`
	SolvedCount      int     `json:"solved_count"`
	FirstBloodCount  int     `json:"first_blood_count"`
	LastSubmissionAt Time    `json:"last_submission_at"`
	IsMe             bool    `json:"is_me"`
}

type ContestLeaderboard struct {
	ContestID int                     `json:"contest_id"`
	Rows      []ContestLeaderboardRow `json:"rows"`
	Me        *ContestLeaderboardRow  `json:"me"`
}

type ContestResultItem struct {
	TaskID   int    `json:"task_id"`
	Title    string `json:"title"`
	Points   int    `json:"points"`
	SolvedAt Time   `json:"solved_at"`
}

type ContestResults struct {
	ContestID   int                 `json:"contest_id"`
	UserID      int                 `json:"user_id"`
	Items       []ContestResultItem `json:"items"`
	TotalPoints int                 `json:"total_points"`
}

// --- Education ---

type PracticeStatus string

const (
	StatusNotStarted PracticeStatus = "not_started"
	StatusInProgress PracticeStatus = "in_progress"
	StatusSolved     PracticeStatus = "solved"
)

type PracticeTaskCard struct {
	ID               int            `json:"id"`
	Title            string         `json:"title"`
	Summary          *string        `json:"summary"`
	Category         string         `json:"category"`
	Difficulty       int            `json:"difficulty"`
	DifficultyLabel  string         `json:"difficulty_label"`
	Points           int            `json:"points"`
	PassedUsersCount int            `json:"passed_users_count"`
	MyStatus         PracticeStatus `json:"my_status"`
	Tags             []string       `json:"tags"`
}

type PracticeTaskList struct {
	Items      []PracticeTaskCard `json:"items"`
	Total      int                `json:"total"`
	Categories []string           `json:"categories"`
}

type Material struct {
	ID          int            `json:"id"`
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Description *string        `json:"description"`
	URL         *string        `json:"url"`
	StorageKey  *string        `json:"storage_key"`
	Meta        map[string]any `json:"meta"`
}

type VPNInfo struct {
	ConfigIP        *string `json:"config_ip"`
	AllowedIPs      *string `json:"allowed_ips"`
	CreatedAt       *string `json:"created_at"`
	HowToConnectURL *string `json:"how_to_connect_url"`
	DownloadURL     *string `json:"download_url"`
}

type PracticeTask struct {
	ID                     int            `json:"id"`
	Title                  string         `json:"title"`
	Category               string         `json:"category"`
	Difficulty             int            `json:"difficulty"`
	DifficultyLabel        string         `json:"difficulty_label"`
	Points                 int            `json:"points"`
	Tags                   []string       `json:"tags"`
	ParticipantDescription *string        `json:"participant_description"`
	Story                  *string        `json:"story"`
	MyStatus               PracticeStatus `json:"my_status"`
	SolvedFlagsCount       int            `json:"solved_flags_count"`
	RequiredFlagsCount     int            `json:"required_flags_count"`
	PassedUsersCount       int            `json:"passed_users_count"`
	HintsCount             int            `json:"hints_count"`
	Hints                  []string       `json:"hints"`
	ConnectionIP           *string        `json:"connection_ip"`
	AccessType             string         `json:"access_type"`
	Materials              []Material     `json:"materials"`
	VPN                    *VPNInfo       `json:"vpn"`
}

type PracticeSubmission struct {
	Flag   string  `json:"flag"`
	FlagID *string `json:"flag_id,omitempty"`
}

type PracticeSubmitResult struct {
	IsCorrect          bool           `json:"is_correct"`
	AwardedPoints      int            `json:"awarded_points"`
	Status             PracticeStatus `json:"status"`
	SolvedFlagsCount   int            `json:"solved_flags_count"`
	RequiredFlagsCount int            `json:"required_flags_count"`
	Message            string         `json:"message"`
}

// DownloadDescriptor is a server-issued signed URL for a material.
type DownloadDescriptor struct {
	URL       string  `json:"url"`
	ExpiresIn int     `json:"expires_in"`
	Filename  *string `json:"filename"`
}

// --- Knowledge base ---

type KnowledgeEntry struct {
	ID          int      `json:"id"`
	Source      string   `json:"source"`
	SourceID    *string  `json:"source_id"`
	CVEID       *string  `json:"cve_id"`
	RuTitle     *string  `json:"ru_title"`
	RuSummary   *string  `json:"ru_summary"`
	RuExplainer *string  `json:"ru_explainer"`
	Tags        []string `json:"tags"`
	Difficulty  *int     `json:"difficulty"`
	Views       int      `json:"views"`
	CreatedAt   Time     `json:"created_at"`
	UpdatedAt   Time     `json:"updated_at"`
}

type KnowledgePage struct {
	Items  []KnowledgeEntry `json:"items"`
	Total  int              `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
}

type Comment struct {
	ID        int     `json:"id"`
	EntryID   int     `json:"kb_entry_id"`
	UserID    int     `json:"user_id"`
	ParentID  *int    `json:"parent_id"`
	Body      string  `json:"body"`
	Status    string  `json:"status"`
	CreatedAt Time    `json:"created_at"`
	Username  *string `json:"username"`
	AvatarURL *string `json:"avatar_url"`
}

// --- Ratings ---

type LeaderboardEntry struct {
	Rank          int     `json:"rank"`
	UserID        int     `json:"user_id"`
	Username      string  `json:"username"`
	AvatarURL     *string `json:"avatar_url"`
	Rating        int     `json:"rating"`
	Solved        int     `json:"solved"`
	FirstBlood    int     `json:"first_blood"`
	IsCurrentUser bool    `json:"is_current_user"`
}

type Leaderboard struct {
	Kind        string             `json:"kind"`
	GeneratedAt Time               `json:"generated_at"`
	Entries     []LeaderboardEntry `json:"entries"`
}

// --- Admin ---

type AdminStats struct {
	TotalUsers                     int `json:"total_users"`
	ActiveUsers24h                 int `json:"active_users_24h"`
	PaidUsers                      int `json:"paid_users"`
	CurrentChampionshipSubmissions int `json:"current_championship_submissions"`
}

type AdminFeedback struct {
	UserID    int     `json:"user_id"`
	Username  *string `json:"username"`
	Topic     string  `json:"topic"`
	Message   string  `json:"message"`
	CreatedAt Time    `json:"created_at"`
}

type AdminChampionship struct {
	ID                 int     `json:"id"`
	Title              string  `json:"title"`
	Description        *string `json:"description"`
	StartAt            Time    `json:"start_at"`
	EndAt              Time    `json:"end_at"`
	IsPublic           bool    `json:"is_public"`
	LeaderboardVisible bool    `json:"leaderboard_visible"`
}

type Article struct {
	ID          int      `json:"id"`
	Source      string   `json:"source"`
	SourceID    *string  `json:"source_id"`
	CVEID       *string  `json:"cve_id"`
	RawEnText   *string  `json:"raw_en_text"`
	RuTitle     *string  `json:"ru_title"`
	RuSummary   *string  `json:"ru_summary"`
	RuExplainer *string  `json:"ru_explainer"`
	Tags        []string `json:"tags"`
	Difficulty  *int     `json:"difficulty"`
	CreatedAt   Time     `json:"created_at"`
}

type ArticleInput struct {
	Source      string   `json:"source"`
	SourceID    *string  `json:"source_id,omitempty"`
	CVEID       *string  `json:"cve_id,omitempty"`
	RawEnText   *string  `json:"raw_en_text,omitempty"`
	RuTitle     *string  `json:"ru_title,omitempty"`
	RuSummary   *string  `json:"ru_summary,omitempty"`
	RuExplainer *string  `json:"ru_explainer,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Difficulty  *int     `json:"difficulty,omitempty"`
}

type NVDSync struct {
	LastFetchAt  Time    `json:"last_fetch_at"`
	LastInserted *int    `json:"last_inserted"`
	Status       *string `json:"status"`
}

type Dashboard struct {
	Stats               AdminStats         `json:"stats"`
	LatestFeedbacks     []AdminFeedback    `json:"latest_feedbacks"`
	CurrentChampionship *AdminChampionship `json:"current_championship"`
	LastArticle         *Article           `json:"last_article"`
	NVDSync             *NVDSync           `json:"nvd_sync"`
}

// --- Feedback ---

type Feedback struct {
	Topic   string `json:"topic"`
	Message string `json:"message"`
}

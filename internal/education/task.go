package education

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/hacknet/portal/internal/backend"
	"github.com/hacknet/portal/internal/hacknet"
	"github.com/hacknet/portal/internal/messages"
)

var (
	ErrEmptyFlag       = errors.New("flag value is empty")
	ErrBusy            = errors.New("a request for this task is in flight")
	ErrNoTask          = errors.New("no task loaded")
	ErrUnknownMaterial = errors.New("material does not belong to the task")
	ErrNoDownloadURL   = errors.New("backend returned no download url")
)

type TaskView struct {
	Task        *hacknet.PracticeTask `json:"task,omitempty"`
	Access      *Access               `json:"access,omitempty"`
	StatusLabel string                `json:"status_label,omitempty"`
	Loading     bool                  `json:"loading"`
	Error       string                `json:"error,omitempty"`
	Message     string                `json:"message,omitempty"`
	Submitting  bool                  `json:"submitting"`
}

// Outcome tells the page what to do with a resolved material.
type Outcome struct {
	Kind     ActionKind `json:"kind"`
	URL      string     `json:"url"`
	Filename string     `json:"filename,omitempty"`
}

// TaskPage is the state of one open practice task.
type TaskPage struct {
	mu      sync.Mutex
	seq     uint64
	task    *hacknet.PracticeTask
	loading bool
	errMsg  string
	message string

	// submitting is the token of the submit in flight, zero when idle.
	submitting uint64
	submits    uint64
}

func NewTaskPage() *TaskPage {
	return &TaskPage{}
}

// Load opens task id. A later Load or Close discards this one's result.
func (p *TaskPage) Load(ctx context.Context, api API, id int) (TaskView, error) {
	p.mu.Lock()
	p.seq++
	seq := p.seq
	p.task = nil
	p.message = ""
	p.errMsg = ""
	if id <= 0 {
		p.errMsg = messages.Get("education.task_id_missing")
		v := p.viewLocked()
		p.mu.Unlock()
		return v, nil
	}
	p.loading = true
	p.mu.Unlock()

	t, err := api.PracticeTask(ctx, id)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.seq != seq {
		return p.viewLocked(), ErrStale
	}
	p.loading = false
	if err != nil {
		p.errMsg = backend.Detail(err, messages.Get("education.task_failed"))
		return p.viewLocked(), err
	}
	p.task = &t
	return p.viewLocked(), nil
}

// Submit posts one flag and then reloads the task for fresh counters.
func (p *TaskPage) Submit(ctx context.Context, api API, flag string) (TaskView, error) {
	flag = strings.TrimSpace(flag)

	p.mu.Lock()
	if flag == "" {
		v := p.viewLocked()
		p.mu.Unlock()
		return v, ErrEmptyFlag
	}
	if p.submitting != 0 {
		v := p.viewLocked()
		p.mu.Unlock()
		return v, ErrBusy
	}
	if p.task == nil {
		v := p.viewLocked()
		p.mu.Unlock()
		return v, ErrNoTask
	}
	p.submits++
	token := p.submits
	p.submitting = token
	p.message = ""
	seq := p.seq
	taskID := p.task.ID
	p.mu.Unlock()

	res, err := api.SubmitPracticeFlag(ctx, taskID, hacknet.PracticeSubmission{Flag: flag})
	var refreshed hacknet.PracticeTask
	if err == nil {
		refreshed, err = api.PracticeTask(ctx, taskID)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.submitting == token {
		p.submitting = 0
	}
	if p.seq != seq {
		return p.viewLocked(), ErrStale
	}
	if err != nil {
		// A failed reload reports as a failed submission.
		p.message = backend.Detail(err, messages.Get("education.submit_failed"))
		return p.viewLocked(), err
	}
	p.message = res.Message
	if p.message == "" {
		p.message = messages.Get("education.answer_received")
	}
	p.task = &refreshed
	return p.viewLocked(), nil
}

// OpenMaterial asks the backend for a signed descriptor of materialID and
// decides whether the page should open it or download it.
func (p *TaskPage) OpenMaterial(ctx context.Context, api API, materialID int) (Outcome, TaskView, error) {
	p.mu.Lock()
	if p.task == nil {
		v := p.viewLocked()
		p.mu.Unlock()
		return Outcome{}, v, ErrNoTask
	}
	m := findMaterial(p.task.Materials, materialID)
	if m == nil || materialID == 0 {
		v := p.viewLocked()
		p.mu.Unlock()
		return Outcome{}, v, ErrUnknownMaterial
	}
	material := *m
	access := Resolve(*p.task)
	isLink := access.Type == Link && access.Action.MaterialID == materialID
	label := access.Action.Label
	seq := p.seq
	taskID := p.task.ID
	p.message = ""
	p.mu.Unlock()

	d, err := api.MaterialDownload(ctx, taskID, materialID)
	if err == nil && d.URL == "" {
		err = ErrNoDownloadURL
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.seq != seq {
		return Outcome{}, p.viewLocked(), ErrStale
	}
	if err != nil {
		if isLink {
			p.message = messages.Get("education.link_failed")
		} else {
			p.message = messages.Get("education.download_failed")
		}
		return Outcome{}, p.viewLocked(), err
	}

	filename := deref(d.Filename)
	if isLink {
		if d.ExpiresIn == 0 && filename == "" {
			return Outcome{Kind: ActionOpen, URL: d.URL}, p.viewLocked(), nil
		}
		if filename == "" {
			filename = label
		}
		return Outcome{Kind: ActionDownload, URL: d.URL, Filename: filename}, p.viewLocked(), nil
	}
	if filename == "" {
		filename = nameOr(&material, "download")
	}
	return Outcome{Kind: ActionDownload, URL: d.URL, Filename: filename}, p.viewLocked(), nil
}

func (p *TaskPage) View() TaskView {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.viewLocked()
}

func (p *TaskPage) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seq++
	p.task = nil
	p.loading = false
	p.errMsg = ""
	p.message = ""
	p.submitting = 0
}

func (p *TaskPage) viewLocked() TaskView {
	v := TaskView{
		Loading:    p.loading,
		Error:      p.errMsg,
		Message:    p.message,
		Submitting: p.submitting != 0,
	}
	if p.task != nil {
		t := *p.task
		acc := Resolve(t)
		v.Task = &t
		v.Access = &acc
		v.StatusLabel = StatusLabel(t.MyStatus)
	}
	return v
}

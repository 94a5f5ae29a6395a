package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hacknet/portal/internal/backend"
	"github.com/hacknet/portal/internal/contest"
	"github.com/hacknet/portal/internal/education"
	"github.com/hacknet/portal/internal/feedback"
	"github.com/hacknet/portal/internal/knowledge"
	"github.com/hacknet/portal/internal/messages"
)

func (c *CLI) login(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usage("login")
	}
	return c.signIn(ctx, args[0], args[1], messages.Get("auth.login_failed"))
}

func (c *CLI) register(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return usage("register")
	}
	_, err := c.base.Register(ctx, backend.RegisterRequest{Email: args[0], Username: args[1], Password: args[2]})
	if err != nil {
		c.printf("%s\n", backend.Detail(err, messages.Get("auth.register_failed")))
		return nil
	}
	return c.signIn(ctx, args[0], args[2], messages.Get("auth.register_failed"))
}

func (c *CLI) signIn(ctx context.Context, email, password, fallback string) error {
	tok, err := c.base.Login(ctx, email, password)
	if err != nil {
		c.printf("%s\n", backend.Detail(err, fallback))
		return nil
	}
	if err := c.tokens.Save(tok.AccessToken); err != nil {
		return err
	}
	c.resetPages()
	c.printf("Вход выполнен.\n")
	return nil
}

func (c *CLI) logout(_ context.Context, _ []string) error {
	if err := c.tokens.Clear(); err != nil {
		return err
	}
	c.resetPages()
	c.printf("Вы вышли.\n")
	return nil
}

func (c *CLI) whoami(ctx context.Context, _ []string) error {
	p, err := c.api.Profile(ctx)
	if err != nil {
		c.printf("%s\n", backend.Detail(err, messages.Get("profile.load_failed")))
		return nil
	}
	c.printf("%s <%s> #%d %s\n", p.Username, p.Email, p.ID, p.Role)
	return nil
}

func (c *CLI) rename(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("rename")
	}
	p, err := c.editor.Rename(ctx, c.api, args[0])
	if err != nil {
		c.printf("%s\n", backend.Detail(err, err.Error()))
		return nil
	}
	c.printf("Имя пользователя: %s\n", p.Username)
	return nil
}

// --- Contest ---

func (c *CLI) showContest(ctx context.Context, _ []string) error {
	v, err := c.contest.Load(ctx, c.api)
	if err != nil && v.Error == "" {
		return err
	}
	c.printContest(v)
	return nil
}

func (c *CLI) ensureContest(ctx context.Context) (contest.View, error) {
	if v := c.contest.View(); v.State != contest.Loading || v.Contest != nil {
		return v, nil
	}
	return c.contest.Load(ctx, c.api)
}

func (c *CLI) join(ctx context.Context, _ []string) error {
	if _, err := c.ensureContest(ctx); err != nil {
		return err
	}
	v, err := c.contest.Join(ctx, c.api)
	if errors.Is(err, contest.ErrNoContest) {
		c.printf("Активного чемпионата нет.\n")
		return nil
	}
	c.printContest(v)
	return nil
}

func (c *CLI) flag(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return usage("flag")
	}
	if _, err := c.ensureContest(ctx); err != nil {
		return err
	}
	v, err := c.contest.Submit(ctx, c.api, args[0], strings.Join(args[1:], " "))
	switch {
	case errors.Is(err, contest.ErrUnknownFlag):
		return fmt.Errorf("у текущей задачи нет флага %q", args[0])
	case errors.Is(err, contest.ErrNotJoined):
		c.printf("Сначала вступите в чемпионат: join\n")
		return nil
	case errors.Is(err, contest.ErrEmptyFlag):
		return usage("flag")
	}
	c.printContest(v)
	return nil
}

func (c *CLI) board(ctx context.Context, _ []string) error {
	if _, err := c.ensureContest(ctx); err != nil {
		return err
	}
	v, _ := c.contest.Leaderboard(ctx, c.api)
	if v.LeaderboardError != "" {
		c.printf("%s\n", v.LeaderboardError)
	}
	if v.Leaderboard != nil {
		for _, row := range v.Leaderboard.Rows {
			mark := " "
			if row.IsMe {
				mark = "*"
			}
			c.printf("%s%3d. %-20s %5d очк. %d реш.\n", mark, row.Rank, row.Username, row.Points, row.SolvedCount)
		}
	}

	v, _ = c.contest.Results(ctx, c.api)
	if v.ResultsError != "" {
		c.printf("%s\n", v.ResultsError)
	}
	if v.Results != nil {
		for _, it := range v.Results.Items {
			c.printf("  %-30s %d\n", it.Title, it.Points)
		}
		c.printf("Итого: %d\n", v.Results.TotalPoints)
	}
	return nil
}

func (c *CLI) printContest(v contest.View) {
	if v.Error != "" {
		c.printf("%s\n", v.Error)
		return
	}
	switch v.State {
	case contest.NoContest:
		c.printf("Активного чемпионата нет.\n")
		return
	case contest.Loading:
		return
	}
	if v.Contest != nil {
		c.printf("%s  [%s]  %d/%d задач (%d%%)", v.Contest.Title, v.State, v.TasksSolved, v.TasksTotal, v.TaskProgressPercent)
		if v.DaysLeftLabel != "" {
			c.printf("  %s", v.DaysLeftLabel)
		}
		c.printf("\n")
	}
	if v.Message != "" {
		c.printf("%s\n", v.Message)
	}
	switch {
	case v.Inactive:
		c.printf("Чемпионат недоступен.\n")
	case v.CanJoin():
		c.printf("Вы ещё не участвуете: join\n")
	}
	if v.TaskState == nil || v.TaskState.Task == nil {
		return
	}
	t := v.TaskState.Task
	c.printf("\nЗадача %d: %s (%d очк.)\n", t.OrderIndex, t.Title, t.Points)
	if t.ParticipantDescription != nil {
		c.printf("%s\n", *t.ParticipantDescription)
	}
	for _, f := range t.RequiredFlags {
		state := "[ ]"
		if f.IsSolved {
			state = "[x]"
		}
		line := fmt.Sprintf("  %s %s", state, f.FlagID)
		if f.Description != nil {
			line += "  " + *f.Description
		}
		if f.Format != nil {
			line += "  формат: " + *f.Format
		}
		c.printf("%s\n", line)
	}
}

// --- Education ---

func (c *CLI) tasks(ctx context.Context, args []string) error {
	var f education.Filter
	for _, a := range args {
		k, val, ok := strings.Cut(a, "=")
		if !ok {
			return usage("tasks")
		}
		switch k {
		case "difficulty":
			f.Difficulty = val
		case "category":
			f.Category = val
		case "status":
			f.Status = val
		default:
			return usage("tasks")
		}
	}
	v, err := c.catalog.Load(ctx, c.api, f)
	if errors.Is(err, education.ErrBadFilter) {
		return err
	}
	switch {
	case v.Error != "":
		c.printf("%s\n", v.Error)
	case v.Empty != "":
		c.printf("%s\n", v.Empty)
	}
	for _, t := range v.Items {
		c.printf("%4d  %-40s %-12s %-10s %4d  %s\n", t.ID, t.Title, t.Category, t.DifficultyLabel, t.Points, education.StatusLabel(t.MyStatus))
	}
	if len(v.Categories) > 0 {
		c.printf("Категории: %s\n", strings.Join(v.Categories, ", "))
	}
	return nil
}

func (c *CLI) openTask(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("task")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return usage("task")
	}
	v, _ := c.task.Load(ctx, c.api, id)
	c.printTask(v)
	return nil
}

func (c *CLI) submit(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usage("submit")
	}
	v, err := c.task.Submit(ctx, c.api, strings.Join(args, " "))
	if errors.Is(err, education.ErrNoTask) {
		c.printf("Сначала откройте задачу: task <id>\n")
		return nil
	}
	if errors.Is(err, education.ErrEmptyFlag) {
		return usage("submit")
	}
	c.printTask(v)
	return nil
}

func (c *CLI) material(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("material")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return usage("material")
	}
	out, v, err := c.task.OpenMaterial(ctx, c.api, id)
	switch {
	case errors.Is(err, education.ErrNoTask):
		c.printf("Сначала откройте задачу: task <id>\n")
	case v.Error != "":
		c.printf("%s\n", v.Error)
	case err != nil:
		return err
	case out.Filename != "":
		c.printf("%s: %s\n", out.Filename, out.URL)
	default:
		c.printf("%s\n", out.URL)
	}
	return nil
}

func (c *CLI) printTask(v education.TaskView) {
	if v.Error != "" {
		c.printf("%s\n", v.Error)
	}
	if v.Task == nil {
		return
	}
	t := v.Task
	c.printf("%s  [%s, %s, %d очк.]  %s  флаги %d/%d\n", t.Title, t.Category, t.DifficultyLabel, t.Points,
		v.StatusLabel, t.SolvedFlagsCount, t.RequiredFlagsCount)
	if t.ParticipantDescription != nil {
		c.printf("%s\n", *t.ParticipantDescription)
	}
	if a := v.Access; a != nil && a.Type != education.JustFlag {
		c.printf("Доступ: %s", a.Type)
		switch {
		case a.Action.URL != "":
			c.printf("  %s", a.Action.URL)
		case a.Action.MaterialID != 0:
			c.printf("  material %d", a.Action.MaterialID)
		case !a.Action.Enabled:
			c.printf("  (недоступно)")
		}
		c.printf("\n")
		if a.ConnectionIP != "" {
			c.printf("IP: %s\n", a.ConnectionIP)
		}
	}
	for _, m := range t.Materials {
		c.printf("  material %d: %s (%s)\n", m.ID, m.Name, m.Type)
	}
	if v.Message != "" {
		c.printf("%s\n", v.Message)
	}
}

// --- Knowledge ---

func (c *CLI) kb(ctx context.Context, args []string) error {
	q := knowledge.Query{Order: c.listing.View().Order, Tag: c.listing.View().Tag}
	for _, a := range args {
		if k, val, ok := strings.Cut(a, "="); ok {
			switch k {
			case "order":
				q.Order = val
			case "tag":
				q.Tag = val
			default:
				return usage("kb")
			}
			continue
		}
		page, err := strconv.Atoi(a)
		if err != nil || page < 1 {
			return usage("kb")
		}
		q.Page = page
	}
	v, err := c.listing.Load(ctx, c.api, q)
	if errors.Is(err, knowledge.ErrBadOrder) {
		return usage("kb")
	}
	if v.Error != "" {
		c.printf("%s\n", v.Error)
		return nil
	}
	for _, card := range v.Items {
		c.printf("%5d  %-50s %3d мин  %d просм.\n", card.ID, card.Title, card.ReadMinutes, card.Views)
	}
	var pages []string
	for _, it := range knowledge.PageItems(v.Page, v.TotalPages) {
		switch {
		case it.Ellipsis:
			pages = append(pages, "…")
		case it.Current:
			pages = append(pages, fmt.Sprintf("[%d]", it.Page))
		default:
			pages = append(pages, strconv.Itoa(it.Page))
		}
	}
	c.printf("Страницы: %s  (всего %d)\n", strings.Join(pages, " "), v.Total)
	return nil
}

func (c *CLI) read(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("read")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return usage("read")
	}
	v, _ := c.article.Load(ctx, c.api, id)
	c.printArticle(v)
	return nil
}

func (c *CLI) comment(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usage("comment")
	}
	v, err := c.article.PostComment(ctx, c.api, strings.Join(args, " "))
	if errors.Is(err, knowledge.ErrNoArticle) {
		c.printf("Сначала откройте статью: read <id>\n")
		return nil
	}
	if v.CommentError != "" {
		c.printf("%s\n", v.CommentError)
		return nil
	}
	c.printf("Комментарий опубликован.\n")
	return nil
}

func (c *CLI) printArticle(v knowledge.ArticleView) {
	if v.Error != "" {
		c.printf("%s\n", v.Error)
		return
	}
	if v.Entry == nil {
		return
	}
	c.printf("%s  (%d мин)\n", v.Title, v.ReadMinutes)
	if len(v.Entry.Tags) > 0 {
		c.printf("#%s\n", strings.Join(v.Entry.Tags, " #"))
	}
	if v.Entry.RuExplainer != nil {
		for _, p := range knowledge.Paragraphs(*v.Entry.RuExplainer) {
			c.printf("\n%s\n", p)
		}
	}
	if len(v.Related) > 0 {
		c.printf("\nПохожие:\n")
		for _, r := range v.Related {
			c.printf("  %d  %s\n", r.ID, r.Title)
		}
	}
	if v.CommentsError != "" {
		c.printf("\n%s\n", v.CommentsError)
		return
	}
	c.printf("\nКомментарии (%d):\n", len(v.Comments))
	for _, cm := range v.Comments {
		who := "аноним"
		if cm.Username != nil {
			who = *cm.Username
		}
		c.printf("  %s: %s\n", who, cm.Body)
	}
}

// --- Ratings and feedback ---

func (c *CLI) ratings(ctx context.Context, args []string) error {
	kind := backend.KindContest
	if len(args) > 0 {
		kind = args[0]
	}
	lb, err := c.api.Leaderboard(ctx, kind)
	if errors.Is(err, backend.ErrUnknownKind) {
		return usage("ratings")
	}
	if err != nil {
		c.printf("%s\n", backend.Detail(err, messages.Get("ratings.load_failed")))
		return nil
	}
	for _, e := range lb.Entries {
		mark := " "
		if e.IsCurrentUser {
			mark = "*"
		}
		c.printf("%s%3d. %-20s %6d  %d реш.  %d first blood\n", mark, e.Rank, e.Username, e.Rating, e.Solved, e.FirstBlood)
	}
	return nil
}

func (c *CLI) feedback(ctx context.Context, args []string) error {
	if len(args) < 2 {
		for i, t := range feedback.Topics {
			c.printf("  %d. %s\n", i+1, t)
		}
		return usage("feedback")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(feedback.Topics) {
		return usage("feedback")
	}
	res, err := feedback.Submit(ctx, c.api, feedback.Topics[n-1], strings.Join(args[1:], " "))
	if errors.Is(err, feedback.ErrBadMessage) {
		return fmt.Errorf("сообщение должно быть от 1 до %d символов", feedback.MaxRunes)
	}
	c.printf("%s\n", res.Message)
	return nil
}

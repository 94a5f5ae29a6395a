// Package cli is the interactive terminal client. It drives the same flows
// as the web portal against the backend directly.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/chzyer/readline"

	"github.com/hacknet/portal/internal/backend"
	"github.com/hacknet/portal/internal/contest"
	"github.com/hacknet/portal/internal/education"
	"github.com/hacknet/portal/internal/knowledge"
	"github.com/hacknet/portal/internal/messages"
	"github.com/hacknet/portal/internal/profile"
	"github.com/hacknet/portal/internal/session"
)

var errExit = errors.New("exit requested")

type CLI struct {
	base   *backend.Client
	api    *backend.Client
	tokens *session.TokenFile
	out    io.Writer
	// expired is set by the 401 hook; pages are reset once the command
	// returns.
	expired atomic.Bool

	contest *contest.Flow
	catalog *education.Catalog
	task    *education.TaskPage
	listing *knowledge.Listing
	article *knowledge.Article
	editor  *profile.Editor
}

// New binds base to tokens. A 401 from the backend clears the token file.
func New(base *backend.Client, tokens *session.TokenFile, out io.Writer) *CLI {
	c := &CLI{
		base:    base,
		tokens:  tokens,
		out:     out,
		contest: contest.NewFlow(),
		catalog: education.NewCatalog(),
		task:    education.NewTaskPage(),
		listing: knowledge.NewListing(),
		article: knowledge.NewArticle(),
		editor:  profile.NewEditor(profile.NewBroker()),
	}
	c.api = base.WithSession(tokens, c.expire)
	return c
}

func (c *CLI) expire() {
	if err := c.tokens.Clear(); err != nil {
		c.printf("%v\n", err)
	}
	c.expired.Store(true)
}

func (c *CLI) resetPages() {
	c.contest.Close()
	c.catalog.Close()
	c.task.Close()
	c.listing.Close()
	c.article.Close()
	c.contest = contest.NewFlow()
	c.catalog = education.NewCatalog()
	c.task = education.NewTaskPage()
	c.listing = knowledge.NewListing()
	c.article = knowledge.NewArticle()
}

// Run reads commands until exit or EOF.
func (c *CLI) Run(ctx context.Context, rl *readline.Instance) error {
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		args := ParseArgs(strings.TrimSpace(line))
		if len(args) == 0 {
			continue
		}
		err = c.Execute(ctx, args)
		if errors.Is(err, errExit) {
			return nil
		}
		if err != nil {
			c.printf("ошибка: %v\n", err)
		}
	}
}

// ParseArgs splits input on spaces. Double quotes group words.
func ParseArgs(input string) []string {
	var args []string
	var cur strings.Builder
	inQuotes, started := false, false

	for _, r := range input {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			started = true
		case r == ' ' && !inQuotes:
			if started {
				args = append(args, cur.String())
				cur.Reset()
				started = false
			}
		default:
			cur.WriteRune(r)
			started = true
		}
	}
	if started {
		args = append(args, cur.String())
	}
	return args
}

type command struct {
	usage  string
	help   string
	public bool
	run    func(c *CLI, ctx context.Context, args []string) error
}

var commands map[string]command

// Filled in init because several commands refer back to the table.
func init() {
	commands = map[string]command{
		"login":    {usage: "login <email> <password>", help: "войти", public: true, run: (*CLI).login},
		"register": {usage: "register <email> <username> <password>", help: "зарегистрироваться", public: true, run: (*CLI).register},
		"logout":   {usage: "logout", help: "выйти", run: (*CLI).logout},
		"whoami":   {usage: "whoami", help: "профиль", run: (*CLI).whoami},
		"rename":   {usage: "rename <username>", help: "сменить имя пользователя", run: (*CLI).rename},
		"contest":  {usage: "contest", help: "текущий чемпионат", run: (*CLI).showContest},
		"join":     {usage: "join", help: "вступить в чемпионат", run: (*CLI).join},
		"flag":     {usage: "flag <flag_id> <value>", help: "отправить флаг чемпионата", run: (*CLI).flag},
		"board":    {usage: "board", help: "итоги чемпионата", run: (*CLI).board},
		"tasks":    {usage: "tasks [difficulty=…] [category=…] [status=…]", help: "задачи для практики", run: (*CLI).tasks},
		"task":     {usage: "task <id>", help: "открыть задачу", run: (*CLI).openTask},
		"submit":   {usage: "submit <flag>", help: "отправить флаг открытой задачи", run: (*CLI).submit},
		"material": {usage: "material <id>", help: "ссылка или файл материала", run: (*CLI).material},
		"kb":       {usage: "kb [page] [order=asc|desc] [tag=…]", help: "база знаний", run: (*CLI).kb},
		"read":     {usage: "read <id>", help: "открыть статью", run: (*CLI).read},
		"comment":  {usage: "comment <text>", help: "комментарий к открытой статье", run: (*CLI).comment},
		"ratings":  {usage: "ratings [contest|practice]", help: "рейтинг", run: (*CLI).ratings},
		"feedback": {usage: "feedback <topic#> <text>", help: "отправить отзыв", run: (*CLI).feedback},
		"help":     {usage: "help", help: "список команд", public: true, run: (*CLI).help},
		"exit":     {usage: "exit", help: "выход", public: true, run: func(*CLI, context.Context, []string) error { return errExit }},
	}
}

// Execute runs one parsed command line.
func (c *CLI) Execute(ctx context.Context, args []string) error {
	cmd, ok := commands[args[0]]
	if args[0] == "quit" {
		cmd, ok = commands["exit"], true
	}
	if !ok {
		return fmt.Errorf("неизвестная команда %q, см. help", args[0])
	}
	if !cmd.public && !c.tokens.Authenticated() {
		c.printf("Сначала войдите: %s\n", commands["login"].usage)
		return nil
	}
	err := cmd.run(c, ctx, args[1:])
	if c.expired.Swap(false) {
		c.resetPages()
		c.printf("%s\n", messages.Get("auth.session_expired"))
		return nil
	}
	return err
}

func (c *CLI) help(_ context.Context, _ []string) error {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c.printf("  %-45s %s\n", commands[name].usage, commands[name].help)
	}
	return nil
}

func (c *CLI) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func usage(name string) error {
	return fmt.Errorf("использование: %s", commands[name].usage)
}

package messages

import "testing"

func TestBuiltinCatalog(t *testing.T) {
	tests := []struct {
		key  string
		args []any
		want string
	}{
		{key: "contest.flag_accepted", want: "Флаг принят."},
		{key: "contest.flag_accepted_remaining", args: []any{2}, want: "Флаг принят. Осталось флагов для задачи: 2."},
		{key: "contest.next_task_ready", want: "Флаг принят. Следующая задача готова."},
		{key: "contest.finished", want: "Контест завершён!"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := Format(tt.key, tt.args...); got != tt.want {
				t.Errorf("Format(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestMissingKeyFallsBackToKey(t *testing.T) {
	if got := Get("nope.missing"); got != "nope.missing" {
		t.Errorf("Get = %q, want key echo", got)
	}
}

func TestParseRejectsNonStrings(t *testing.T) {
	if _, err := Parse([]byte("a:\n  b: [1, 2]\n")); err == nil {
		t.Fatal("expected error for list value")
	}
}

func TestParseNested(t *testing.T) {
	c, err := Parse([]byte("a:\n  b:\n    c: hi\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !c.Has("a.b.c") || c.Get("a.b.c") != "hi" {
		t.Errorf("a.b.c = %q", c.Get("a.b.c"))
	}
	if keys := c.Keys("a."); len(keys) != 1 {
		t.Errorf("keys = %v", keys)
	}
}

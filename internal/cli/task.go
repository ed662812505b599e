package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sadopc/focuskit/internal/tasks"
)

type TaskAddCmd struct {
	Text     []string `arg:"" help:"Task text."`
	Category string   `short:"c" help:"Category." default:"Work"`
}

func (c *TaskAddCmd) Run(ctx *Context) error {
	_, _, _, tm := ctx.managers()
	task, err := tm.Add(strings.Join(c.Text, " "), c.Category)
	if errors.Is(err, tasks.ErrDailyLimit) {
		// A limit warning, not a failure.
		ctx.printf("⚠ %v\n", err)
		return nil
	}
	if err != nil {
		return err
	}
	ctx.printf("Added %s: %s [%s]\n", shortID(task.ID), task.Text, task.Category)
	if left := tm.Remaining(); left >= 0 {
		ctx.printf("%d of %d adds left today\n", left, tasks.FreeDailyLimit)
	}
	return nil
}

type TaskListCmd struct {
	Pending bool `help:"Show only tasks that are not completed."`
}

func (c *TaskListCmd) Run(ctx *Context) error {
	_, _, _, tm := ctx.managers()
	list := tm.Sorted()
	if len(list) == 0 {
		ctx.printf("No tasks found\n")
		return nil
	}

	for _, t := range list {
		if c.Pending && t.Completed {
			continue
		}
		check := "[ ]"
		if t.Completed {
			check = "[x]"
		}
		ctx.printf("  %s %s %s [%s]\n", shortID(t.ID), check, t.Text, t.Category)
	}
	return nil
}

type TaskDoneCmd struct {
	ID string `arg:"" help:"Task id or unique id prefix."`
}

func (c *TaskDoneCmd) Run(ctx *Context) error {
	return setCompleted(ctx, c.ID, true)
}

type TaskUndoCmd struct {
	ID string `arg:"" help:"Task id or unique id prefix."`
}

func (c *TaskUndoCmd) Run(ctx *Context) error {
	return setCompleted(ctx, c.ID, false)
}

func setCompleted(ctx *Context, ref string, completed bool) error {
	_, _, _, tm := ctx.managers()
	t, err := findTask(tm, ref)
	if err != nil {
		return err
	}
	t, err = tm.SetCompleted(t.ID, completed)
	if err != nil {
		return err
	}
	verb := "Completed"
	if !completed {
		verb = "Reopened"
	}
	ctx.printf("%s %s: %s\n", verb, shortID(t.ID), t.Text)
	return nil
}

type TaskDeleteCmd struct {
	ID string `arg:"" help:"Task id or unique id prefix."`
}

func (c *TaskDeleteCmd) Run(ctx *Context) error {
	_, _, _, tm := ctx.managers()
	t, err := findTask(tm, c.ID)
	if err != nil {
		return err
	}
	if err := tm.Delete(t.ID); err != nil {
		return err
	}
	ctx.printf("Deleted %s: %s\n", shortID(t.ID), t.Text)
	return nil
}

// shortID drops the "task-<millis>-" prefix; the suffix is what users type.
func shortID(id string) string {
	if i := strings.LastIndex(id, "-"); i >= 0 && i < len(id)-1 {
		return id[i+1:]
	}
	return id
}

// findTask accepts a full id, an id prefix or a prefix of the short id.
func findTask(tm *tasks.Manager, ref string) (tasks.Task, error) {
	if t, err := tm.Find(ref); err == nil {
		return t, nil
	}
	var found []tasks.Task
	for _, t := range tm.List() {
		if ref != "" && strings.HasPrefix(shortID(t.ID), ref) {
			found = append(found, t)
		}
	}
	if len(found) != 1 {
		return tasks.Task{}, fmt.Errorf("%w: %q", tasks.ErrNotFound, ref)
	}
	return found[0], nil
}

package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/focuskit/internal/tasks"
)

var taskCategories = []string{tasks.DefaultCategory, "Personal", "Study", "Errands"}

type tasksModel struct {
	tasks  *tasks.Manager
	width  int
	height int

	list   []tasks.Task
	cursor int

	formActive bool
	form       *huh.Form

	// Form field pointers (survive value copies)
	formText     *string
	formCategory *string
}

func newTasksModel(m *tasks.Manager) tasksModel {
	text, cat := "", tasks.DefaultCategory
	return tasksModel{
		tasks:        m,
		formText:     &text,
		formCategory: &cat,
	}
}

func (t *tasksModel) setSize(w, h int) {
	t.width = w
	t.height = h
}

type tasksDataMsg struct {
	list []tasks.Task
}

func (t tasksModel) refresh() tea.Cmd {
	return func() tea.Msg {
		return tasksDataMsg{list: t.tasks.Sorted()}
	}
}

func (t tasksModel) update(msg tea.Msg) (tasksModel, tea.Cmd) {
	if t.formActive && t.form != nil {
		return t.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tasksDataMsg:
		t.list = msg.list
		if t.cursor >= len(t.list) {
			t.cursor = max(0, len(t.list)-1)
		}
		return t, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if t.cursor > 0 {
				t.cursor--
			}
		case key.Matches(msg, keys.Down):
			if t.cursor < len(t.list)-1 {
				t.cursor++
			}
		case key.Matches(msg, keys.New):
			if !t.tasks.CanAdd() {
				return t, statusCmd(statusMsg{text: limitText(), isError: true})
			}
			return t.showNewTaskForm()
		case key.Matches(msg, keys.Toggle), key.Matches(msg, keys.Enter):
			if len(t.list) == 0 {
				return t, nil
			}
			task := t.list[t.cursor]
			if _, err := t.tasks.SetCompleted(task.ID, !task.Completed); err != nil {
				return t, statusCmd(statusErr("Task", err))
			}
			return t, tea.Batch(t.refresh(), dataChanged())
		case key.Matches(msg, keys.Delete):
			if len(t.list) == 0 {
				return t, nil
			}
			if err := t.tasks.Delete(t.list[t.cursor].ID); err != nil {
				return t, statusCmd(statusErr("Task", err))
			}
			return t, tea.Batch(t.refresh(), dataChanged())
		}
	}
	return t, nil
}

func (t tasksModel) showNewTaskForm() (tasksModel, tea.Cmd) {
	*t.formText = ""
	*t.formCategory = tasks.DefaultCategory

	catOptions := make([]huh.Option[string], len(taskCategories))
	for i, c := range taskCategories {
		catOptions[i] = huh.NewOption(c, c)
	}

	t.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Task").Value(t.formText).Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return tasks.ErrEmptyText
				}
				return nil
			}),
			huh.NewSelect[string]().Title("Category").Options(catOptions...).Value(t.formCategory),
		),
	).WithShowHelp(true).WithShowErrors(true)

	t.formActive = true
	return t, t.form.Init()
}

func (t tasksModel) updateForm(msg tea.Msg) (tasksModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			t.formActive = false
			t.form = nil
			return t, nil
		}
	}

	form, cmd := t.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		t.form = f
	}

	if t.form.State == huh.StateCompleted {
		t.formActive = false
		t.form = nil
		if _, err := t.tasks.Add(*t.formText, *t.formCategory); err != nil {
			if errors.Is(err, tasks.ErrDailyLimit) {
				return t, statusCmd(statusMsg{text: limitText(), isError: true})
			}
			return t, statusCmd(statusErr("Task", err))
		}
		return t, tea.Batch(t.refresh(), dataChanged())
	}

	return t, cmd
}

func limitText() string {
	return fmt.Sprintf("Daily limit of %d tasks reached. Upgrade to Pro for unlimited tasks.", tasks.FreeDailyLimit)
}

func dataChanged() tea.Cmd {
	return func() tea.Msg { return dataChangedMsg{} }
}

func (t tasksModel) view() string {
	w := t.width - 4

	if t.formActive && t.form != nil {
		content := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("New Task"), "", t.form.View())
		return panelStyle.Width(w).Render(content)
	}

	title := titleStyle.Render("Tasks")
	if left := t.tasks.Remaining(); left >= 0 {
		title += mutedStyle.Render(fmt.Sprintf("  %d of %d adds left today", left, tasks.FreeDailyLimit))
	}

	if len(t.list) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No tasks yet. Press n to add one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	for i, task := range t.list {
		cursor := "  "
		style := normalItemStyle
		if i == t.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		check := "[ ]"
		if task.Completed {
			check = "[x]"
			if i != t.cursor {
				style = doneItemStyle
			}
		}
		category := mutedStyle.Render(" [" + task.Category + "]")
		rows = append(rows, style.Render(fmt.Sprintf("%s%s %s", cursor, check, task.Text))+category)
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new  space: done/undo  d: delete"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

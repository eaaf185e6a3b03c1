package browse

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/anmolkh/internradar/internal/model"
)

var (
	baseStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Padding(0, 1)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)
)

type browseModel struct {
	table table.Model
	jobs  []model.Job
	err   string
}

func newBrowseModel(jobs []model.Job) browseModel {
	columns := []table.Column{
		{Title: "Company", Width: 20},
		{Title: "Title", Width: 42},
		{Title: "Location", Width: 26},
		{Title: "Source", Width: 15},
		{Title: "Posted", Width: 10},
	}

	rows := make([]table.Row, 0, len(jobs))
	for _, j := range jobs {
		posted := "—"
		if j.PostedAt != nil {
			posted = j.PostedAt.Format("2006-01-02")
		}
		rows = append(rows, table.Row{j.Company, j.Title, j.Location, string(j.Source), posted})
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(20),
	)

	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).BorderBottom(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("15")).
		Background(lipgloss.Color("24")).
		Bold(true)
	t.SetStyles(styles)

	return browseModel{table: t, jobs: jobs}
}

func (m browseModel) Init() tea.Cmd { return nil }

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 6)
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "enter", "o":
			if i := m.table.Cursor(); i >= 0 && i < len(m.jobs) {
				if err := openURL(m.jobs[i].URL); err != nil {
					m.err = fmt.Sprintf("open link: %v", err)
				} else {
					m.err = ""
				}
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m browseModel) View() string {
	header := headerStyle.Render(fmt.Sprintf("internradar — %d stored postings", len(m.jobs)))
	hint := hintStyle.Render("↑/↓ move · enter open link · q quit")
	if m.err != "" {
		hint = hintStyle.Render(m.err)
	}
	return header + "\n" + baseStyle.Render(m.table.View()) + "\n" + hint + "\n"
}

// Run loads the freshest stored postings and opens the interactive browser.
func Run(ctx context.Context, store model.JobStore, limit int) error {
	loadCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	jobs, err := store.Recent(loadCtx, limit)
	if err != nil {
		return fmt.Errorf("loading stored postings: %w", err)
	}
	if len(jobs) == 0 {
		fmt.Println("no stored postings yet — run `internradar poll` first")
		return nil
	}

	_, err = tea.NewProgram(newBrowseModel(jobs), tea.WithAltScreen()).Run()
	return err
}

// openURL opens the link in the OS default browser.
func openURL(url string) error {
	if url == "" {
		return fmt.Errorf("posting has no link")
	}
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}

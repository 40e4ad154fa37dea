// Command pilotmon is a small terminal dashboard over a running pilotd's
// read-only diagnostics API: queue depths, the communication manager's
// per-stage backlog, and a scrolling feed of recent job-lifecycle events.
// It polls /events?since=<id> on a fixed tick; the diagnostics API serves
// JSON snapshots, not a long-lived stream.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	docStyle = lipgloss.NewStyle().Margin(1, 2)

	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#874BFD"))

	statusOK     = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))
	statusFailed = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Padding(0, 1)
)

type apiEvent struct {
	ID   int64           `json:"id"`
	Type string          `json:"type"`
	At   time.Time       `json:"at"`
	Data json.RawMessage `json:"data"`
}

type healthzResponse struct {
	Status string `json:"status"`
}

type statusResponse struct {
	UptimeSeconds  int64          `json:"uptime_seconds"`
	QueueDepths    map[string]int `json:"queue_depths"`
	CommmgrBacklog map[string]int `json:"commmgr_backlog"`
	FinishedJobs   int            `json:"finished_jobs"`
	FailedJobs     int            `json:"failed_jobs"`
}

type healthMsg struct {
	healthz healthzResponse
	status  statusResponse
	err     error
}

type eventsMsg struct {
	events []apiEvent
	err    error
}

type tickMsg time.Time

type model struct {
	apiURL string

	width  int
	height int

	healthz  healthzResponse
	status   statusResponse
	lastSeen int64
	eventLog []apiEvent

	depthTable table.Model
}

func newModel(apiURL string) model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Queue", Width: 20},
			{Title: "Depth", Width: 8},
		}),
		table.WithFocused(false),
		table.WithHeight(8),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	t.SetStyles(s)

	return model{
		apiURL:     apiURL,
		depthTable: t,
		eventLog:   make([]apiEvent, 0, 50),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.pollHealth(), m.pollEvents(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.depthTable.SetWidth(m.width - 6)

	case tickMsg:
		return m, tea.Batch(m.pollHealth(), m.pollEvents(), tick())

	case healthMsg:
		if msg.err == nil {
			m.healthz = msg.healthz
			m.status = msg.status
			m.updateTable()
		}

	case eventsMsg:
		if msg.err == nil {
			for _, e := range msg.events {
				m.eventLog = append([]apiEvent{e}, m.eventLog...)
				if e.ID > m.lastSeen {
					m.lastSeen = e.ID
				}
			}
			if len(m.eventLog) > 50 {
				m.eventLog = m.eventLog[:50]
			}
		}
	}

	return m, nil
}

func (m *model) updateTable() {
	rows := make([]table.Row, 0, len(m.status.QueueDepths)+len(m.status.CommmgrBacklog))
	for _, name := range []string{"data_in", "data_out", "finished_data_in", "failed_data_in", "finished_data_out", "failed_data_out", "finished_jobs", "failed_jobs"} {
		if depth, ok := m.status.QueueDepths[name]; ok {
			rows = append(rows, table.Row{name, fmt.Sprintf("%d", depth)})
		}
	}
	for _, name := range []string{"request_get_jobs", "request_get_events", "update_jobs", "update_events", "processing_get_jobs", "processing_get_events"} {
		if depth, ok := m.status.CommmgrBacklog[name]; ok {
			rows = append(rows, table.Row{"commmgr:" + name, fmt.Sprintf("%d", depth)})
		}
	}
	m.depthTable.SetRows(rows)
}

func (m model) View() string {
	if m.width == 0 {
		return "Connecting to pilotd..."
	}

	header := m.renderHeader()
	queues := borderStyle.Width(m.width - 4).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Queue depths"),
			m.depthTable.View(),
		),
	)
	eventsView := borderStyle.Width(m.width - 4).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Recent events"),
			m.renderEvents(),
		),
	)
	help := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render(" [q] Quit")

	return docStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left, header, queues, eventsView, help),
	)
}

func (m model) renderHeader() string {
	status := statusOK.Render("RUNNING")
	if m.healthz.Status != "ok" {
		status = statusFailed.Render("DEGRADED")
	}
	uptime := time.Duration(m.status.UptimeSeconds) * time.Second
	items := []string{
		fmt.Sprintf("Status: %s", status),
		fmt.Sprintf("Uptime: %s", uptime),
		fmt.Sprintf("Finished: %d", m.status.FinishedJobs),
		fmt.Sprintf("Failed: %d", m.status.FailedJobs),
	}
	width := (m.width - 4) / len(items)
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = lipgloss.NewStyle().Width(width).Render(it)
	}
	return borderStyle.Width(m.width - 4).Render(lipgloss.JoinHorizontal(lipgloss.Top, parts...))
}

func (m model) renderEvents() string {
	if len(m.eventLog) == 0 {
		return "  No events yet..."
	}
	var lines []string
	for i, e := range m.eventLog {
		if i >= 10 {
			break
		}
		lines = append(lines, fmt.Sprintf("%s | %-22s | %s", e.At.Format("15:04:05"), e.Type, string(e.Data)))
	}
	return lipgloss.NewStyle().Padding(0, 1).Render(joinLines(lines))
}

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}

func (m model) pollHealth() tea.Cmd {
	return func() tea.Msg {
		client := &http.Client{Timeout: 2 * time.Second}

		var hz healthzResponse
		if err := getJSON(client, m.apiURL+"/healthz", &hz); err != nil {
			return healthMsg{err: err}
		}

		var st statusResponse
		if err := getJSON(client, m.apiURL+"/status", &st); err != nil {
			return healthMsg{err: err}
		}

		return healthMsg{healthz: hz, status: st}
	}
}

func (m model) pollEvents() tea.Cmd {
	since := m.lastSeen
	apiURL := m.apiURL
	return func() tea.Msg {
		client := &http.Client{Timeout: 2 * time.Second}
		var evs []apiEvent
		url := fmt.Sprintf("%s/events?since=%d", apiURL, since)
		if err := getJSON(client, url, &evs); err != nil {
			return eventsMsg{err: err}
		}
		return eventsMsg{events: evs}
	}
}

func getJSON(client *http.Client, url string, out any) error {
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected status %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func main() {
	apiURL := flag.String("api", "http://127.0.0.1:8080", "pilotd diagnostics API base URL")
	flag.Parse()

	p := tea.NewProgram(newModel(*apiURL), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "pilotmon: %v\n", err)
		os.Exit(1)
	}
}

package tui

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docqa/internal/domain"
	"docqa/internal/passage"
	"docqa/internal/service"
)

// QAPort is the TUI-facing subset of the QA service.
type QAPort interface {
	Extract(ctx context.Context, path, question string) (passage.Result, error)
	Ask(ctx context.Context, path, question string, onChunk func(string)) (service.Answer, error)
	History(ctx context.Context, path string, limit int) ([]domain.Exchange, error)
	CanAnswer() bool
}

const recentLimit = 10

type extractMsg struct {
	question string
	result   passage.Result
	err      error
}

type answerMsg struct {
	question string
	answer   service.Answer
	err      error
}

type historyMsg struct {
	exchanges []domain.Exchange
	err       error
}

// Model is the Bubble Tea model for the TUI application.
type Model struct {
	service   QAPort
	docPath   string
	input     textinput.Model
	viewport  viewport.Model
	result    passage.Result
	parts     []string
	answer    string
	recent    []domain.Exchange
	status    string
	cursor    int
	ready     bool
	busy      bool
	lastQuery string
}

// New creates a new TUI model instance.
func New(service QAPort, docPath string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about the document and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	status := "Enter extracts passages. Ctrl+R shows recent questions."
	if service.CanAnswer() {
		status += " Ctrl+A asks the model."
	}
	return Model{service: service, docPath: docPath, input: ti, viewport: vp, status: status}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		// account for frames around result and query boxes
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		totalHeaderLines := 2                                    // header + document
		totalFooterLines := 1                                    // status
		reserved := totalHeaderLines + totalFooterLines + qh + 1 // 1 spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderCurrent())
		return m, nil
	case extractMsg:
		m.busy = false
		m = m.showResult(msg.question, msg.result, msg.err)
		m.refresh()
		return m, nil
	case answerMsg:
		m.busy = false
		m = m.showResult(msg.question, msg.answer.Excerpt, msg.err)
		if msg.err == nil {
			m.answer = msg.answer.Text
			m.status = fmt.Sprintf("Answer for %q", msg.question)
		}
		m.refresh()
		return m, nil
	case historyMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			return m, nil
		}
		m.recent = msg.exchanges
		if len(msg.exchanges) == 0 {
			m.status = "No recent questions."
		} else {
			m.status = fmt.Sprintf("%d recent questions", len(msg.exchanges))
		}
		m.refresh()
		return m, nil
	case tea.KeyMsg:
		// Global quits
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.busy {
				return m, nil
			}
			m.busy = true
			m.status = fmt.Sprintf("Extracting passages for %q...", q)
			return m, m.extract(q)
		case "ctrl+a":
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.busy {
				return m, nil
			}
			if !m.service.CanAnswer() {
				m.status = "No language model configured."
				return m, nil
			}
			m.busy = true
			m.status = fmt.Sprintf("Asking the model about %q...", q)
			return m, m.ask(q)
		case "ctrl+r":
			if m.busy {
				return m, nil
			}
			m.busy = true
			return m, m.history()
		case "down":
			if len(m.parts) > 0 {
				m.cursor = (m.cursor + 1) % len(m.parts)
				m.viewport.SetContent(m.renderCurrent())
				return m, nil
			}
		case "up":
			if len(m.parts) > 0 {
				m.cursor = (m.cursor - 1 + len(m.parts)) % len(m.parts)
				m.viewport.SetContent(m.renderCurrent())
				return m, nil
			}
		case "pgdown":
			m.viewport.HalfViewDown()
			return m, nil
		case "pgup":
			m.viewport.HalfViewUp()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderCurrent())
	m.viewport.GotoTop()
}

func (m Model) showResult(q string, res passage.Result, err error) Model {
	m.answer = ""
	m.recent = nil
	if err != nil {
		m.status = "Error: " + err.Error()
		m.result = passage.Result{}
		m.parts = nil
		return m
	}
	m.result = res
	m.parts = pages(res)
	m.cursor = 0
	m.lastQuery = q
	if res.Fallback {
		m.status = fmt.Sprintf("No matches for %q; showing start and end of the document", q)
	} else {
		m.status = fmt.Sprintf("%d passages for %q (keywords: %s)", len(m.parts), q, strings.Join(res.Keywords, ", "))
	}
	return m
}

func (m Model) extract(q string) tea.Cmd {
	svc, path := m.service, m.docPath
	return func() tea.Msg {
		res, err := svc.Extract(context.Background(), path, q)
		return extractMsg{question: q, result: res, err: err}
	}
}

func (m Model) ask(q string) tea.Cmd {
	svc, path := m.service, m.docPath
	return func() tea.Msg {
		ans, err := svc.Ask(context.Background(), path, q, nil)
		return answerMsg{question: q, answer: ans, err: err}
	}
}

func (m Model) history() tea.Cmd {
	svc, path := m.service, m.docPath
	return func() tea.Msg {
		ex, err := svc.History(context.Background(), path, recentLimit)
		return historyMsg{exchanges: ex, err: err}
	}
}

// View renders the TUI layout and current passage.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Document Q&A")
	doc := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.docPath)
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + doc + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) renderCurrent() string {
	var b strings.Builder
	if len(m.recent) > 0 {
		b.WriteString(answerStyle.Render("Recent questions"))
		b.WriteString("\n")
		for _, ex := range m.recent {
			fmt.Fprintf(&b, "%s  %s\n    %s\n", ex.CreatedAt.Local().Format("2006-01-02 15:04"), ex.Question, ex.Answer)
		}
		return b.String()
	}
	if m.answer != "" {
		b.WriteString(answerStyle.Render("Answer"))
		b.WriteString("\n")
		b.WriteString(m.answer)
		b.WriteString("\n\n")
	}
	if len(m.parts) == 0 {
		if b.Len() == 0 {
			return "No results yet."
		}
		return b.String()
	}
	title := fmt.Sprintf("Passage %d/%d", m.cursor+1, len(m.parts))
	if m.cursor < len(m.result.Passages) {
		title += fmt.Sprintf("  score=%d", m.result.Passages[m.cursor].Score)
	}
	b.WriteString(title)
	b.WriteString("\n\n")
	b.WriteString(highlightKeywords(m.parts[m.cursor], m.result.Keywords))
	return b.String()
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	answerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
)

// pages returns one page per selected passage. A fallback excerpt is shown
// as a single page.
func pages(res passage.Result) []string {
	if res.Fallback {
		if res.Text == "" {
			return nil
		}
		return []string{res.Text}
	}
	return res.Texts
}

func highlightKeywords(text string, keywords []string) string {
	if len(keywords) == 0 {
		return text
	}
	quoted := make([]string, len(keywords))
	for i, kw := range keywords {
		quoted[i] = regexp.QuoteMeta(kw)
	}
	re, err := regexp.Compile(`(?i)` + strings.Join(quoted, "|"))
	if err != nil {
		return text
	}
	return re.ReplaceAllStringFunc(text, func(s string) string {
		return highlightStyle.Render(s)
	})
}

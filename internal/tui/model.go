package tui

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"translator-notes/internal/domain"
)

// NotesPort is the TUI-facing subset of the notes service.
type NotesPort interface {
	ResolveVerse(reference string) string
	Retrieve(ctx context.Context, query string, n int) (domain.QueryResult, error)
	Draft(ctx context.Context, query, reference string) (string, error)
}

type draftMsg struct {
	verse string
	note  string
	err   error
}

type retrieveMsg struct {
	result domain.QueryResult
	err    error
}

const requestTimeout = 3 * time.Minute

// Model is the Bubble Tea model for drafting notes interactively.
// Tab switches between the verse and query fields, Enter drafts a note,
// Ctrl+E lists the nearest examples and Up/Down pages through them.
type Model struct {
	service   NotesPort
	ref       textinput.Model
	input     textinput.Model
	viewport  viewport.Model
	verse     string
	draft     string
	examples  []domain.ExampleDocument
	distances []float64
	summary   string
	status    string
	cursor    int
	busy      bool
	ready     bool
	lastQuery string
}

// New creates a new TUI model instance.
func New(service NotesPort, summary string) Model {
	ref := textinput.New()
	ref.Prompt = "verse> "
	ref.Placeholder = "GEN 1:1"
	ref.CharLimit = 64
	ti := textinput.New()
	ti.Prompt = "query> "
	ti.Placeholder = "What should the note explain? Enter drafts, Ctrl+E shows examples"
	ti.CharLimit = 0
	ref.Focus()
	vp := viewport.New(0, 0)
	return Model{service: service, ref: ref, input: ti, viewport: vp, summary: summary, status: "Ready."}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and service events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + 2*qh + 2 // header+summary, status, two inputs, inputs' lines
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-rh)
		m.viewport.SetContent(m.render())
		return m, nil
	case draftMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
		} else {
			m.verse, m.draft, m.examples = msg.verse, msg.note, nil
			m.status = "Draft ready."
		}
		m.viewport.SetContent(m.render())
		return m, nil
	case retrieveMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			m.examples = nil
		} else {
			m.examples, m.distances, m.cursor = msg.result.Documents, msg.result.Distances, 0
			m.status = fmt.Sprintf("%d examples for %q", len(m.examples), m.lastQuery)
		}
		m.viewport.SetContent(m.render())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "tab", "shift+tab":
			if m.ref.Focused() {
				m.ref.Blur()
				m.input.Focus()
			} else {
				m.input.Blur()
				m.ref.Focus()
			}
			return m, nil
		case "enter":
			q, ref := strings.TrimSpace(m.input.Value()), strings.TrimSpace(m.ref.Value())
			if q == "" || ref == "" || m.busy {
				m.status = "Both a verse reference and a query are needed."
				return m, nil
			}
			m.busy, m.lastQuery = true, q
			m.status = "Drafting note for " + ref + "..."
			return m, m.draftCmd(q, ref)
		case "ctrl+e":
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.busy {
				return m, nil
			}
			m.busy, m.lastQuery = true, q
			m.status = "Searching examples..."
			return m, m.retrieveCmd(q)
		case "down":
			if len(m.examples) > 0 {
				m.cursor = (m.cursor + 1) % len(m.examples)
				m.viewport.SetContent(m.render())
				return m, nil
			}
		case "up":
			if len(m.examples) > 0 {
				m.cursor = (m.cursor - 1 + len(m.examples)) % len(m.examples)
				m.viewport.SetContent(m.render())
				return m, nil
			}
		}
	}
	var cmds [2]tea.Cmd
	m.ref, cmds[0] = m.ref.Update(msg)
	m.input, cmds[1] = m.input.Update(msg)
	return m, tea.Batch(cmds[:]...)
}

func (m Model) draftCmd(query, ref string) tea.Cmd {
	svc := m.service
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		note, err := svc.Draft(ctx, query, ref)
		return draftMsg{verse: svc.ResolveVerse(ref), note: note, err: err}
	}
}

func (m Model) retrieveCmd(query string) tea.Cmd {
	svc := m.service
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		res, err := svc.Retrieve(ctx, query, 10)
		return retrieveMsg{result: res, err: err}
	}
}

// View renders the TUI layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Translator Notes")
	summary := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.summary)
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + summary + "\n" + results + "\n" +
		queryBoxStyle.Render(m.ref.View()) + "\n" + queryBoxStyle.Render(m.input.View()) + "\n" + status
}

func (m Model) render() string {
	if len(m.examples) > 0 {
		d := m.examples[m.cursor]
		title := fmt.Sprintf("Example %d/%d  %s  distance=%.3f", m.cursor+1, len(m.examples), d.Metadata.Reference, m.distances[m.cursor])
		return title + "\n\n" + highlightBestSentence(d.Note, m.lastQuery)
	}
	if m.draft == "" {
		return "No draft yet."
	}
	return verseStyle.Render(m.verse) + "\n\n" + highlightBestSentence(m.draft, m.lastQuery)
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	verseStyle     = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("12"))
	unicodeWordRe  = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentenceRe     = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
)

// highlightBestSentence emphasises the sentence sharing the most words with query.
func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sentences := sentenceRe.FindAllString(text, -1)
	if len(sentences) == 0 {
		sentences = []string{strings.TrimSpace(text)}
	}
	qTokens := toTokenSet(query)
	if len(qTokens) == 0 {
		return strings.Join(sentences, " ")
	}
	bestIdx, bestScore := 0, -1
	for i, s := range sentences {
		if score := overlap(qTokens, toTokenSet(s)); score > bestScore {
			bestIdx, bestScore = i, score
		}
	}
	for i := range sentences {
		sent := strings.TrimSpace(sentences[i])
		if i == bestIdx {
			sent = highlightStyle.Render(sent)
		}
		sentences[i] = sent
	}
	return strings.Join(sentences, " ")
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func overlap(a, b map[string]struct{}) int {
	n := 0
	for t := range b {
		if _, ok := a[t]; ok {
			n++
		}
	}
	return n
}

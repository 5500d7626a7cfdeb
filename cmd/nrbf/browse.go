package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/nrbf/dump"
	"github.com/wippyai/nrbf/extract"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	kindStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	knownStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// pageSize is the number of rows shown around the cursor.
const pageSize = 20

type browseState int

const (
	stateLoading browseState = iota
	stateBrowse
	stateJump
)

// frame is one level of the navigation stack.
type frame struct {
	title    string
	node     dump.Node
	selected int
}

type child struct {
	label string
	node  dump.Node
}

type browseModel struct {
	env      *env
	err      error
	filename string
	known    string
	status   string
	byID     map[int32]dump.Node
	stack    []frame
	jump     textinput.Model
	state    browseState
}

type loadedMsg struct {
	err   error
	tree  dump.Node
	byID  map[int32]dump.Node
	known string
}

func newBrowseModel(e *env, filename string) *browseModel {
	return &browseModel{env: e, filename: filename, state: stateLoading}
}

func (m *browseModel) Init() tea.Cmd {
	return m.load
}

func (m *browseModel) load() tea.Msg {
	g, _, err := m.env.loadGraph(m.filename)
	if err != nil {
		return loadedMsg{err: err}
	}
	tree := dump.Tree(g)
	byID := make(map[int32]dump.Node)
	indexNodes(tree, byID)

	var known string
	if root, err := g.Root(); err == nil {
		if v, ok := extract.TryGetKnownValue(root, g.Map); ok {
			known = fmt.Sprintf("%v", dump.Value(v))
		}
	}
	return loadedMsg{tree: tree, byID: byID, known: known}
}

// indexNodes records every identified record in n, including nested ones.
func indexNodes(n dump.Node, out map[int32]dump.Node) {
	if n.ID != 0 && n.Kind != dump.KindGraph {
		out[n.ID] = n
	}
	for _, mem := range n.Members {
		indexNodes(mem.Value, out)
	}
	for _, e := range n.Elements {
		indexNodes(e, out)
	}
}

func children(n dump.Node) []child {
	out := make([]child, 0, len(n.Members)+len(n.Elements))
	for _, mem := range n.Members {
		out = append(out, child{label: mem.Name, node: mem.Value})
	}
	for i, e := range n.Elements {
		out = append(out, child{label: "[" + strconv.Itoa(i) + "]", node: e})
	}
	return out
}

func (m *browseModel) top() *frame {
	return &m.stack[len(m.stack)-1]
}

func (m *browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.byID = msg.byID
		m.known = msg.known
		m.stack = []frame{{title: m.filename, node: msg.tree}}
		m.state = stateBrowse
		return m, nil

	case tea.KeyMsg:
		if m.state == stateJump {
			return m.updateJump(msg)
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}
		if m.state != stateBrowse {
			return m, nil
		}
		m.status = ""
		f := m.top()
		items := children(f.node)

		switch msg.String() {
		case "up", "k":
			if f.selected > 0 {
				f.selected--
			}
		case "down", "j":
			if f.selected < len(items)-1 {
				f.selected++
			}
		case "enter", "right", "l":
			if f.selected < len(items) {
				m.open(items[f.selected])
			}
		case "esc", "backspace", "left", "h":
			if len(m.stack) > 1 {
				m.stack = m.stack[:len(m.stack)-1]
			}
		case "g", "/":
			m.jump = textinput.New()
			m.jump.Placeholder = "object id"
			m.jump.Prompt = "go to #"
			m.jump.Width = 20
			m.jump.Focus()
			m.state = stateJump
		}
	}
	return m, nil
}

func (m *browseModel) updateJump(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.state = stateBrowse
		return m, nil
	case "enter":
		m.state = stateBrowse
		id, err := strconv.ParseInt(strings.TrimSpace(m.jump.Value()), 10, 32)
		if err != nil {
			m.status = "not an object id"
			return m, nil
		}
		m.follow(int32(id))
		return m, nil
	}
	var cmd tea.Cmd
	m.jump, cmd = m.jump.Update(msg)
	return m, cmd
}

// open descends into c, following a reference to its target record.
func (m *browseModel) open(c child) {
	if c.node.Kind == "MemberReference" {
		m.follow(c.node.Ref)
		return
	}
	if len(c.node.Members) == 0 && len(c.node.Elements) == 0 {
		return
	}
	m.stack = append(m.stack, frame{title: c.label, node: c.node})
}

func (m *browseModel) follow(id int32) {
	target, ok := m.byID[id]
	if !ok {
		m.status = fmt.Sprintf("no record #%d", id)
		return
	}
	m.stack = append(m.stack, frame{title: "#" + strconv.Itoa(int(id)), node: target})
}

func (m *browseModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	if m.state == stateLoading {
		return "Decoding stream..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("NRBF Browser"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n")
	if m.known != "" {
		b.WriteString(knownStyle.Render("root value: " + m.known))
		b.WriteString("\n")
	}

	titles := make([]string, len(m.stack))
	for i, f := range m.stack {
		titles[i] = f.title
	}
	b.WriteString(helpStyle.Render(strings.Join(titles, " › ")))
	b.WriteString("\n\n")

	f := m.top()
	b.WriteString(kindStyle.Render(dump.Summary(f.node)))
	b.WriteString("\n")

	items := children(f.node)
	start := max(0, f.selected-pageSize/2)
	end := min(len(items), start+pageSize)
	for i := start; i < end; i++ {
		line := labelStyle.Render(items[i].label) + "  " + dump.Summary(items[i].node)
		if i == f.selected {
			b.WriteString(selectedStyle.Render("> " + items[i].label + "  " + dump.Summary(items[i].node)))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	if len(items) == 0 {
		b.WriteString(helpStyle.Render("  (no members)"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case m.state == stateJump:
		b.WriteString(m.jump.View())
	case m.status != "":
		b.WriteString(errorStyle.Render(m.status))
	default:
		b.WriteString(helpStyle.Render("↑/↓ select • enter open/follow • esc back • g go to id • q quit"))
	}
	return b.String()
}

func runBrowse(e *env, args []string) error {
	path, err := oneArg(args, "input file")
	if err != nil {
		return err
	}
	p := tea.NewProgram(newBrowseModel(e, path), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/js-runtime/runtime"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	nameStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#98FB98"))
	paramStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB"))
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA")).Background(lipgloss.Color("#7D56F4"))
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#90EE90"))
	outputStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#D3D3D3")).PaddingLeft(2)
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)

// pickerModel loads a script, lists the global functions it declared and
// calls the chosen one with arguments typed as JSON. Console output of the
// script is captured and shown with the call result.
//
// bubbletea runs commands one at a time, so the Context is never used from
// two goroutines at once.
type pickerModel struct {
	cfg  Config
	path string

	ctx     *runtime.Context
	console *bytes.Buffer
	funcs   []scriptFunc

	filter    textinput.Model
	filtering bool
	visible   []int
	cursor    int

	args    []textinput.Model
	focused int

	outcome *callOutcome
	loadErr error
	mode    pickerMode
}

type scriptFunc struct {
	name   string
	params int
	fn     runtime.Function
}

type pickerMode int

const (
	modeList pickerMode = iota
	modeArgs
	modeOutcome
)

type scriptLoaded struct {
	ctx   *runtime.Context
	funcs []scriptFunc
	err   error
}

type callOutcome struct {
	value   string
	output  string
	elapsed time.Duration
	err     error
}

func newPickerModel(cfg Config, path string) *pickerModel {
	filter := textinput.New()
	filter.Prompt = "/"
	filter.Placeholder = "filter"
	filter.Width = 30
	return &pickerModel{
		cfg:     cfg,
		path:    path,
		console: &bytes.Buffer{},
		filter:  filter,
		mode:    modeList,
	}
}

func (m *pickerModel) Init() tea.Cmd {
	return m.load
}

func (m *pickerModel) load() tea.Msg {
	src, err := os.ReadFile(m.path)
	if err != nil {
		return scriptLoaded{err: err}
	}
	ctx, err := m.cfg.newContextTo(m.console, m.console)
	if err != nil {
		return scriptLoaded{err: err}
	}
	if _, err := evaluate(m.cfg, ctx, string(src), m.path); err != nil {
		ctx.Close()
		return scriptLoaded{err: err}
	}
	funcs, err := globalFunctions(ctx)
	if err == nil && len(funcs) == 0 {
		err = fmt.Errorf("%s declares no global functions", m.path)
	}
	if err != nil {
		ctx.Close()
		return scriptLoaded{err: err}
	}
	return scriptLoaded{ctx: ctx, funcs: funcs}
}

// globalFunctions lists the enumerable global functions. Builtins are not
// enumerable, so these are the ones scripts declared.
func globalFunctions(ctx *runtime.Context) ([]scriptFunc, error) {
	globals := ctx.Globals()
	defer globals.Drop()

	var funcs []scriptFunc
	props := globals.Properties()
	defer props.Close()
	for props.Next() {
		fn, ok := props.Value().AsFunction()
		if !ok {
			props.Key().Drop()
			props.Value().Drop()
			continue
		}
		name, err := runtime.Into[string](ctx, props.Key())
		props.Key().Drop()
		if err != nil {
			fn.Drop()
			return nil, err
		}
		params, _ := runtime.GetInto[int](fn.ToObject(), "length")
		funcs = append(funcs, scriptFunc{name: name, params: params, fn: fn})
	}
	if err := props.Err(); err != nil {
		return nil, err
	}
	sort.Slice(funcs, func(i, j int) bool { return funcs[i].name < funcs[j].name })
	return funcs, nil
}

// refilter recomputes the visible functions from the filter text.
func (m *pickerModel) refilter() {
	needle := strings.ToLower(m.filter.Value())
	m.visible = m.visible[:0]
	for i, f := range m.funcs {
		if needle == "" || strings.Contains(strings.ToLower(f.name), needle) {
			m.visible = append(m.visible, i)
		}
	}
	if m.cursor >= len(m.visible) {
		m.cursor = max(len(m.visible)-1, 0)
	}
}

func (m *pickerModel) current() (scriptFunc, bool) {
	if m.cursor >= len(m.visible) {
		return scriptFunc{}, false
	}
	return m.funcs[m.visible[m.cursor]], true
}

func (m *pickerModel) quit() (tea.Model, tea.Cmd) {
	if m.ctx != nil {
		m.ctx.Close()
	}
	return m, tea.Quit
}

func (m *pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case scriptLoaded:
		m.loadErr = msg.err
		m.ctx = msg.ctx
		m.funcs = msg.funcs
		m.refilter()
		return m, nil

	case callOutcome:
		m.outcome = &msg
		m.mode = modeOutcome
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || (m.loadErr != nil && msg.String() == "q") {
			return m.quit()
		}
		switch m.mode {
		case modeList:
			return m.updateList(msg)
		case modeArgs:
			return m.updateArgs(msg)
		case modeOutcome:
			switch msg.String() {
			case "q":
				return m.quit()
			case "enter", "esc":
				m.outcome = nil
				m.mode = modeList
			case "r":
				return m, m.call
			}
		}
	}
	return m, nil
}

func (m *pickerModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.filtering {
		switch msg.String() {
		case "enter", "esc":
			m.filtering = false
			m.filter.Blur()
			if msg.String() == "esc" {
				m.filter.SetValue("")
				m.refilter()
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.filter, cmd = m.filter.Update(msg)
		m.refilter()
		return m, cmd
	}

	switch msg.String() {
	case "q":
		return m.quit()
	case "/":
		m.filtering = true
		return m, m.filter.Focus()
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.visible)-1 {
			m.cursor++
		}
	case "enter":
		f, ok := m.current()
		if !ok {
			break
		}
		m.args = argInputs(f.params)
		m.focused = 0
		if len(m.args) == 0 {
			return m, m.call
		}
		m.mode = modeArgs
	}
	return m, nil
}

func (m *pickerModel) updateArgs(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.args = nil
		m.mode = modeList
		return m, nil
	case "enter":
		return m, m.call
	case "tab", "shift+tab":
		m.args[m.focused].Blur()
		step := 1
		if msg.String() == "shift+tab" {
			step = len(m.args) - 1
		}
		m.focused = (m.focused + step) % len(m.args)
		return m, m.args[m.focused].Focus()
	}
	var cmd tea.Cmd
	m.args[m.focused], cmd = m.args[m.focused].Update(msg)
	return m, cmd
}

func argInputs(n int) []textinput.Model {
	inputs := make([]textinput.Model, n)
	for i := range inputs {
		in := textinput.New()
		in.Prompt = fmt.Sprintf("arg%d: ", i)
		in.Placeholder = "JSON or text"
		in.Width = 40
		if i == 0 {
			in.Focus()
		}
		inputs[i] = in
	}
	return inputs
}

// call runs the selected function with the configured timeout.
func (m *pickerModel) call() tea.Msg {
	f, ok := m.current()
	if !ok {
		return callOutcome{err: fmt.Errorf("no function selected")}
	}
	args := make([]any, len(m.args))
	for i, in := range m.args {
		args[i] = parseArg(m.ctx, in.Value())
	}

	timeout, err := m.cfg.timeout()
	if err != nil {
		return callOutcome{err: err}
	}
	callCtx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(callCtx, timeout)
		defer cancel()
	}

	m.console.Reset()
	start := time.Now()
	v, err := f.fn.CallWithSettings(runtime.ExecSettings{Cancel: runtime.CancelOnContext(callCtx)}, args...)
	out := callOutcome{
		output:  strings.TrimRight(m.console.String(), "\n"),
		elapsed: time.Since(start),
		err:     err,
	}
	if err == nil {
		out.value = formatValue(m.ctx, v)
		v.Drop()
	}
	for _, a := range args {
		if v, ok := a.(runtime.Value); ok {
			v.Drop()
		}
	}
	return out
}

// parseArg reads text as JSON, falling back to the raw string.
func parseArg(ctx *runtime.Context, text string) any {
	globals := ctx.Globals()
	defer globals.Drop()
	json, err := runtime.GetInto[runtime.Object](globals, "JSON")
	if err != nil {
		return text
	}
	defer json.Drop()
	v, err := json.CallProp("parse", text)
	if err != nil {
		return text
	}
	return v
}

func (m *pickerModel) View() string {
	if m.loadErr != nil {
		return failStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.loadErr))
	}
	if m.ctx == nil {
		return "Loading " + m.path + "..."
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("JS Runner") + " " + m.path + "\n\n")
	switch m.mode {
	case modeList:
		m.viewList(&b)
	case modeArgs:
		m.viewArgs(&b)
	case modeOutcome:
		m.viewOutcome(&b)
	}
	return b.String()
}

func (m *pickerModel) viewList(b *strings.Builder) {
	if m.filtering || m.filter.Value() != "" {
		b.WriteString(m.filter.View() + "\n\n")
	}
	if len(m.visible) == 0 {
		b.WriteString(hintStyle.Render("no function matches") + "\n")
	}
	for i, idx := range m.visible {
		line := signature(m.funcs[idx])
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("> "+line) + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}
	b.WriteString("\n" + hintStyle.Render("↑/↓ move • / filter • enter call • q quit"))
}

func (m *pickerModel) viewArgs(b *strings.Builder) {
	f, _ := m.current()
	b.WriteString("Arguments for " + nameStyle.Render(f.name) + "\n\n")
	for _, in := range m.args {
		b.WriteString(in.View() + "\n")
	}
	b.WriteString("\n" + hintStyle.Render("tab/shift+tab field • enter call • esc back"))
}

func (m *pickerModel) viewOutcome(b *strings.Builder) {
	f, _ := m.current()
	o := m.outcome
	fmt.Fprintf(b, "%s returned after %s\n\n", nameStyle.Render(f.name), o.elapsed.Round(time.Microsecond))
	if o.output != "" {
		b.WriteString(hintStyle.Render("console:") + "\n")
		b.WriteString(outputStyle.Render(o.output) + "\n\n")
	}
	if o.err != nil {
		b.WriteString(failStyle.Render("Error: " + o.err.Error()))
	} else {
		b.WriteString(valueStyle.Render(o.value))
	}
	b.WriteString("\n\n" + hintStyle.Render("enter back • r repeat • q quit"))
}

func signature(f scriptFunc) string {
	params := make([]string, f.params)
	for i := range params {
		params[i] = fmt.Sprintf("arg%d", i)
	}
	return nameStyle.Render(f.name) + "(" + paramStyle.Render(strings.Join(params, ", ")) + ")"
}

func runInteractive(cfg Config, path string) error {
	_, err := tea.NewProgram(newPickerModel(cfg, path), tea.WithAltScreen()).Run()
	return err
}

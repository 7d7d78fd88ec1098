package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nconklindev/sheetjson/internal/remote"
	"github.com/nconklindev/sheetjson/internal/render"
	"github.com/nconklindev/sheetjson/internal/session"
	"github.com/nconklindev/sheetjson/internal/workbook"
)

type state int

const (
	stateFilePicker state = iota
	stateSheets
	stateEditColumns
	stateEditStartRow
)

// Options configures a new Model
type Options struct {
	Client    *remote.Client
	OutputDir string
	Timeout   time.Duration
	StartDir  string
	// StartFile, when set, is uploaded as soon as the program starts
	StartFile string
}

type Model struct {
	state      state
	filepicker filepicker.Model
	store      *session.Store
	client     *remote.Client
	outDir     string
	timeout    time.Duration
	startFile  string
	fileName   string

	cursor      int
	shownCursor int
	editing     string

	uploading  bool
	analyzing  bool
	converting bool

	status    string
	statusErr bool

	spinner  spinner.Model
	columns  textarea.Model
	startRow textinput.Model
	viewport viewport.Model
	help     help.Model

	width  int
	height int
}

func New(opts Options) Model {
	fp := filepicker.New()
	fp.AllowedTypes = workbook.SupportedExts
	fp.CurrentDirectory = opts.StartDir
	if fp.CurrentDirectory == "" {
		fp.CurrentDirectory, _ = os.Getwd()
	}
	themeFilePicker(&fp)

	ta := textarea.New()
	ta.Placeholder = `["name", "age"] or name, age`
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(3)

	ti := textinput.New()
	ti.Placeholder = "1"
	ti.CharLimit = 9
	ti.Width = 10

	vp := viewport.New(80, 20)
	vp.MouseWheelEnabled = true

	m := Model{
		state:       stateFilePicker,
		filepicker:  fp,
		store:       session.New(),
		client:      opts.Client,
		outDir:      opts.OutputDir,
		timeout:     opts.Timeout,
		shownCursor: -1,
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(SpinnerStyle)),
		columns:     ta,
		startRow:    ti,
		viewport:    vp,
		help:        help.New(),
	}
	if opts.StartFile != "" {
		m.startFile = opts.StartFile
		m.uploading = true
		m.setInfo("Uploading " + filepath.Base(opts.StartFile) + "...")
	}
	return m
}

func (m Model) Init() tea.Cmd {
	if m.startFile != "" {
		return tea.Batch(m.filepicker.Init(), uploadCmd(m.client, m.timeout, m.startFile), m.spinner.Tick)
	}
	return m.filepicker.Init()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		height := msg.Height - 12
		if height < 5 {
			height = 5
		}
		m.filepicker.SetHeight(height)
		m.columns.SetWidth(max(msg.Width-6, 20))
		m.help.Width = msg.Width
		m.shownCursor = -1
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case uploadDoneMsg:
		return m.uploadDone(msg), nil

	case analyzeDoneMsg:
		return m.analyzeDone(msg), nil

	case convertDoneMsg:
		return m.convertDone(msg), nil

	case downloadDoneMsg:
		if msg.err != nil {
			m.setError(msg.err.Error())
		} else {
			m.setInfo("Saved " + strings.Join(msg.paths, ", "))
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.state {
		case stateSheets:
			return m.updateSheets(msg)
		case stateEditColumns, stateEditStartRow:
			return m.updateEditing(msg)
		case stateFilePicker:
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "tab":
				if m.store.HasFile() {
					m.state = stateSheets
					m.refresh()
					return m, nil
				}
			}
		}
	}

	switch m.state {
	case stateFilePicker:
		var cmd tea.Cmd
		m.filepicker, cmd = m.filepicker.Update(msg)

		if didSelect, path := m.filepicker.DidSelectFile(msg); didSelect {
			return m.startUpload(path)
		}
		if didSelect, path := m.filepicker.DidSelectDisabledFile(msg); didSelect {
			m.setError(filepath.Base(path) + " is not a supported spreadsheet (.xlsx, .xlsm, .csv)")
		}
		return m, cmd

	case stateEditColumns:
		var cmd tea.Cmd
		m.columns, cmd = m.columns.Update(msg)
		return m, cmd

	case stateEditStartRow:
		var cmd tea.Cmd
		m.startRow, cmd = m.startRow.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) updateSheets(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < m.store.Len()-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Toggle):
		if name, ok := m.current(); ok {
			m.store.SetSelected(name, !m.store.Sheet(name).Selected)
		}
	case key.Matches(msg, keys.ToggleAll):
		m.store.SetAllSelected(!m.store.AllSelected())
	case key.Matches(msg, keys.Analyze):
		return m.analyze()
	case key.Matches(msg, keys.Convert):
		return m.convert(nil, true)
	case key.Matches(msg, keys.ConvertOne):
		if name, ok := m.current(); ok {
			return m.convert([]string{name}, false)
		}
	case key.Matches(msg, keys.EditColumns):
		return m.edit(stateEditColumns)
	case key.Matches(msg, keys.EditStartRow):
		return m.edit(stateEditStartRow)
	case key.Matches(msg, keys.Download):
		if name, ok := m.current(); ok {
			return m.download([]string{name})
		}
	case key.Matches(msg, keys.DownloadAll):
		return m.download(m.store.Names())
	case key.Matches(msg, keys.Open):
		m.state = stateFilePicker
		return m, m.filepicker.Init()
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	m.refresh()
	return m, nil
}

// updateEditing writes every change straight into the store
func (m Model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, fieldKeys.Done) || (m.state == stateEditStartRow && msg.Type == tea.KeyEnter) {
		m.finishEditing()
		return m, nil
	}

	var cmd tea.Cmd
	if m.state == stateEditColumns {
		m.columns, cmd = m.columns.Update(msg)
		m.store.SetColumnsText(m.editing, m.columns.Value())
	} else {
		m.startRow, cmd = m.startRow.Update(msg)
		m.store.SetDataStartRow(m.editing, session.ParseDataStartRow(m.startRow.Value()))
	}
	m.refresh()
	return m, cmd
}

func (m Model) edit(target state) (tea.Model, tea.Cmd) {
	name, ok := m.current()
	if !ok {
		return m, nil
	}
	sh := m.store.Sheet(name)
	m.editing = name
	m.state = target

	var cmd tea.Cmd
	if target == stateEditColumns {
		m.columns.SetValue(sh.Columns)
		cmd = m.columns.Focus()
	} else {
		m.startRow.SetValue(strconv.Itoa(sh.DataStartRow))
		m.startRow.CursorEnd()
		cmd = m.startRow.Focus()
	}
	m.refresh()
	return m, cmd
}

func (m *Model) finishEditing() {
	m.columns.Blur()
	m.startRow.Blur()
	m.editing = ""
	m.state = stateSheets
	m.refresh()
}

func (m Model) startUpload(path string) (tea.Model, tea.Cmd) {
	if m.uploading {
		m.setInfo("An upload is already in progress.")
		return m, nil
	}
	if err := remote.CheckUploadPath(path); err != nil {
		m.setError(remote.UserMessage(err))
		return m, nil
	}
	m.uploading = true
	m.setInfo("Uploading " + filepath.Base(path) + "...")
	return m, tea.Batch(uploadCmd(m.client, m.timeout, path), m.spinner.Tick)
}

func (m Model) uploadDone(msg uploadDoneMsg) Model {
	m.uploading = false
	if msg.err != nil {
		m.setError(remote.UserMessage(msg.err))
		return m
	}

	remote.ApplyUpload(m.store, msg.resp)
	m.fileName = filepath.Base(msg.path)
	m.cursor = 0
	m.shownCursor = -1
	if m.state != stateSheets {
		m.finishEditing()
	}
	m.viewport.GotoTop()
	m.setInfo(fmt.Sprintf("Loaded %d sheet(s) from %s.", m.store.Len(), m.fileName))
	m.refresh()
	return m
}

func (m Model) analyze() (tea.Model, tea.Cmd) {
	if m.analyzing {
		return m, nil
	}
	req, ticket, err := remote.BuildAnalyzeRequest(m.store)
	if err != nil {
		m.setError(remote.UserMessage(err))
		return m, nil
	}
	m.analyzing = true
	m.setInfo(fmt.Sprintf("Analyzing %d sheet(s)...", len(req.Sheets)))
	return m, tea.Batch(analyzeCmd(m.client, m.timeout, req, ticket), m.spinner.Tick)
}

func (m Model) analyzeDone(msg analyzeDoneMsg) Model {
	m.analyzing = false
	if msg.err != nil {
		m.setError(remote.UserMessage(msg.err))
		return m
	}

	sum := remote.ApplyAnalyze(m.store, msg.ticket, msg.resp)
	switch {
	case sum.Stale:
		m.setInfo("Ignored an analysis result for a previous file.")
	case len(sum.Failed) > 0:
		m.setError(fmt.Sprintf("Analyzed %d sheet(s), %d failed.", len(sum.Succeeded), len(sum.Failed)))
	default:
		m.setInfo(fmt.Sprintf("Analyzed %d sheet(s).", len(sum.Succeeded)))
	}
	m.syncEditor()
	m.refresh()
	return m
}

// convert sends names, or the selection when names is nil. Only the
// selection-wide convert is guarded by the converting flag.
func (m Model) convert(names []string, batch bool) (tea.Model, tea.Cmd) {
	if batch && m.converting {
		return m, nil
	}
	req, ticket, err := remote.BuildConvertRequest(m.store, names)
	if err != nil {
		m.setError(remote.UserMessage(err))
		return m, nil
	}
	if batch {
		m.converting = true
	}
	m.setInfo(fmt.Sprintf("Converting %d sheet(s)...", len(req.Sheets)))
	return m, tea.Batch(convertCmd(m.client, m.timeout, req, ticket, batch), m.spinner.Tick)
}

func (m Model) convertDone(msg convertDoneMsg) Model {
	if msg.batch {
		m.converting = false
	}
	if msg.err != nil {
		m.setError(remote.UserMessage(msg.err))
		return m
	}

	sum := remote.ApplyConvert(m.store, msg.ticket, msg.resp)
	switch {
	case sum.Stale:
		m.setInfo("Ignored a conversion result for a previous file.")
	case len(sum.Failed) > 0:
		m.setError(fmt.Sprintf("Converted %d sheet(s), %d failed.", len(sum.Succeeded), len(sum.Failed)))
	default:
		m.setInfo(fmt.Sprintf("Converted %d sheet(s).", len(sum.Succeeded)))
	}
	m.refresh()
	return m
}

// download saves the converted sheets among names
func (m Model) download(names []string) (tea.Model, tea.Cmd) {
	var sheets []sheetRecords
	for _, name := range names {
		if sh := m.store.Sheet(name); sh != nil && sh.Converted() {
			sheets = append(sheets, sheetRecords{name: name, records: sh.JSON})
		}
	}
	if len(sheets) == 0 {
		if len(names) == 1 {
			m.setError("Convert " + names[0] + " before downloading it.")
		} else {
			m.setError("No converted sheets to download yet.")
		}
		return m, nil
	}
	return m, downloadCmd(m.outDir, sheets)
}

// syncEditor reloads an open field after the store changed underneath it
func (m *Model) syncEditor() {
	sh := m.store.Sheet(m.editing)
	if sh == nil {
		return
	}
	switch m.state {
	case stateEditColumns:
		if m.columns.Value() != sh.Columns {
			m.columns.SetValue(sh.Columns)
		}
	case stateEditStartRow:
		if session.ParseDataStartRow(m.startRow.Value()) != sh.DataStartRow {
			m.startRow.SetValue(strconv.Itoa(sh.DataStartRow))
		}
	}
}

func (m Model) current() (string, bool) {
	names := m.store.Names()
	if m.cursor < 0 || m.cursor >= len(names) {
		return "", false
	}
	return names[m.cursor], true
}

func (m Model) busy() bool {
	return m.uploading || m.analyzing || m.converting
}

func (m *Model) setInfo(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(s string) {
	m.status = s
	m.statusErr = true
}

// refresh redraws the sheet cards into the viewport and scrolls the focused
// card into view when the cursor moved.
func (m *Model) refresh() {
	if n := m.store.Len(); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}

	m.viewport.Width = m.width
	m.viewport.Height = max(m.height-lipgloss.Height(m.headerView())-lipgloss.Height(m.footerView()), 3)

	v := render.Build(m.store, m.cursor)
	m.viewport.SetContent(render.Render(v, m.width))

	if m.cursor != m.shownCursor {
		top := 0
		for i := 0; i < m.cursor && i < len(v.Cards); i++ {
			top += lipgloss.Height(render.RenderCard(v.Cards[i], m.width))
		}
		m.viewport.SetYOffset(top)
		m.shownCursor = m.cursor
	}
}

func (m Model) View() string {
	if m.state == stateFilePicker {
		return m.viewFilePicker()
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.headerView(), m.viewport.View(), m.footerView())
}

func (m Model) viewFilePicker() string {
	var s strings.Builder

	title := TitleStyle.Render("sheetjson · Spreadsheet to JSON")
	serverSpan := SubtitleStyle.Render("server: ")
	urlSpan := LinkStyle.Render(m.client.BaseURL())
	byLine := lipgloss.JoinHorizontal(lipgloss.Top, serverSpan, urlSpan)

	s.WriteString(lipgloss.JoinVertical(lipgloss.Left, title, byLine))
	s.WriteString("\n")
	s.WriteString(SubtitleStyle.Render("Select a .xlsx, .xlsm or .csv file to upload"))
	s.WriteString("\n\n")
	s.WriteString(m.filepicker.View())
	s.WriteString("\n")
	s.WriteString(m.statusView())
	s.WriteString("\n")

	hint := "enter: upload • q: quit"
	if m.store.HasFile() {
		hint = "enter: upload • tab: back to sheets • q: quit"
	}
	s.WriteString(HelpStyle.Render(hint))
	return s.String()
}

func (m Model) headerView() string {
	title := TitleStyle.Render("sheetjson · Spreadsheet to JSON")
	file := SubtitleStyle.Render(fmt.Sprintf("File: %s  (id %s)", m.fileName, m.store.FileID()))
	return lipgloss.JoinVertical(lipgloss.Left, title, file, m.toolbarView())
}

// toolbarView shows the selection-wide controls and whether they can be used
func (m Model) toolbarView() string {
	all := "[ ] Select all"
	if m.store.AllSelected() {
		all = CheckedStyle.Render("[x] Select all")
	}

	selected := m.store.AnySelected()
	parts := []string{
		all,
		m.control("z Analyze selected", "Analyzing...", selected, m.analyzing),
		m.control("c Convert selected", "Converting...", selected, m.converting),
	}
	if m.uploading {
		parts = append(parts, m.spinner.View()+" Uploading...")
	}
	return strings.Join(parts, "   ")
}

func (m Model) control(label, busyLabel string, enabled, busy bool) string {
	switch {
	case busy:
		return m.spinner.View() + " " + busyLabel
	case !enabled:
		return DisabledStyle.Render(label)
	default:
		return ActionStyle.Render(label)
	}
}

func (m Model) footerView() string {
	var parts []string

	switch m.state {
	case stateEditColumns:
		editor := lipgloss.JoinVertical(lipgloss.Left,
			CheckedStyle.Render("Columns for "+m.editing),
			m.columns.View())
		parts = append(parts, EditorStyle.Render(editor))
	case stateEditStartRow:
		editor := CheckedStyle.Render("Data start row for "+m.editing+": ") + m.startRow.View()
		parts = append(parts, EditorStyle.Render(editor))
	}

	parts = append(parts, m.statusView())
	if m.state == stateSheets {
		parts = append(parts, m.help.View(keys))
	} else {
		parts = append(parts, m.help.View(fieldKeys))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) statusView() string {
	if m.statusErr {
		return ErrorStyle.Render("✗ " + m.status)
	}
	return InfoStyle.Render(m.status)
}

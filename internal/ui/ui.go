package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/xbr/internal/models"
	"github.com/desertthunder/xbr/internal/shared"
	"github.com/desertthunder/xbr/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	HistoryListView ViewState = iota
	DetailView
	ConfirmDeleteView
)

// HistoryStore is the subset of the snapshot repository the TUI needs.
type HistoryStore interface {
	List(criteria map[string]any) ([]*models.SnapshotRecord, error)
	Delete(id string) error
}

// Model represents the TUI application state.
type Model struct {
	ctx         context.Context
	view        ViewState
	store       HistoryStore
	gamertag    string
	loadDoc     func(path string) (*models.SnapshotDocument, error)
	width       int
	height      int
	historyList list.Model
	records     []*models.SnapshotRecord
	selected    *models.SnapshotRecord
	doc         *models.SnapshotDocument
	docErr      error
	err         error
	help        help.Model
	keys        keyMap
}

// NewModel creates a new TUI model with the provided dependencies. When
// gamertag is non-empty the history list is filtered to that player.
func NewModel(ctx context.Context, store HistoryStore, gamertag string) *Model {
	return &Model{
		ctx:      ctx,
		view:     HistoryListView,
		store:    store,
		gamertag: gamertag,
		loadDoc:  tasks.LoadSnapshot,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init initializes the TUI by fetching the snapshot history.
func (m *Model) Init() tea.Cmd {
	return m.fetchSnapshots()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.historyList.Width() == 0 {
			m.historyList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case HistoryListView:
			return m.handleHistoryListKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		case ConfirmDeleteView:
			return m.handleConfirmDeleteKeys(msg)
		}

	case snapshotsFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.records = msg.records
		items := make([]list.Item, len(msg.records))
		for i, record := range msg.records {
			items[i] = snapshotItem{record: record}
		}
		m.historyList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.historyList.Title = m.listTitle()
		m.historyList.SetSize(m.width-4, m.height-8)
		return m, nil

	case documentLoadedMsg:
		m.doc = msg.doc
		m.docErr = msg.err
		m.view = DetailView
		return m, nil

	case recordDeletedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = HistoryListView
			return m, nil
		}
		m.selected = nil
		m.view = HistoryListView
		return m, m.fetchSnapshots()
	}

	return m.updateList(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case HistoryListView:
		return m.renderHistoryList()
	case DetailView:
		return m.renderDetail()
	case ConfirmDeleteView:
		return m.renderConfirmDelete()
	default:
		return ""
	}
}

func (m *Model) listTitle() string {
	if m.gamertag != "" {
		return fmt.Sprintf("Snapshots for %s", m.gamertag)
	}
	return "Snapshot History"
}

func (m *Model) handleHistoryListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		if item, ok := m.selectedItem(); ok {
			m.selected = item.record
			return m, m.loadDocument(item.record.SnapshotPath())
		}
	case "d":
		if item, ok := m.selectedItem(); ok {
			m.selected = item.record
			m.view = ConfirmDeleteView
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.historyList, cmd = m.historyList.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = HistoryListView
		m.doc = nil
		m.docErr = nil
		return m, nil
	case "d":
		m.view = ConfirmDeleteView
		return m, nil
	}
	return m, nil
}

func (m *Model) handleConfirmDeleteKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "n", "esc":
		m.view = HistoryListView
		return m, nil
	case "y":
		if m.selected != nil {
			return m, m.deleteRecord(m.selected.ID())
		}
		m.view = HistoryListView
		return m, nil
	}
	return m, nil
}

func (m *Model) selectedItem() (snapshotItem, bool) {
	selected := m.historyList.SelectedItem()
	if selected == nil {
		return snapshotItem{}, false
	}
	item, ok := selected.(snapshotItem)
	return item, ok
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.view == HistoryListView {
		m.historyList, cmd = m.historyList.Update(msg)
	}
	return m, cmd
}

func (m *Model) fetchSnapshots() tea.Cmd {
	return func() tea.Msg {
		criteria := map[string]any{}
		if m.gamertag != "" {
			criteria["gamertag"] = m.gamertag
		}
		records, err := m.store.List(criteria)
		return snapshotsFetchedMsg{records: records, err: err}
	}
}

func (m *Model) loadDocument(path string) tea.Cmd {
	return func() tea.Msg {
		doc, err := m.loadDoc(path)
		return documentLoadedMsg{doc: doc, err: err}
	}
}

func (m *Model) deleteRecord(id string) tea.Cmd {
	return func() tea.Msg {
		err := m.store.Delete(id)
		return recordDeletedMsg{id: id, err: err}
	}
}

func (m *Model) renderHistoryList() string {
	if len(m.records) == 0 {
		title := styles.title.Render(m.listTitle())
		empty := "No snapshots recorded yet. Run `xbr snapshot` first."
		helpView := m.help.ShortHelpView([]key.Binding{m.keys.quit})
		return fmt.Sprintf("%s\n%s\n\n%s", title, empty, helpView)
	}

	helpKeys := []key.Binding{m.keys.enter, m.keys.delete, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.historyList.View(), helpView)
}

func (m *Model) renderDetail() string {
	if m.selected == nil {
		return ""
	}

	title := styles.title.Render(fmt.Sprintf("Snapshot #%d — %s", m.selected.Sequence(), m.selected.Gamertag()))

	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Taken:    %s\n", m.selected.CreatedAt().Format("2006-01-02 15:04:05")))
	b.WriteString(fmt.Sprintf("File:     %s\n", m.selected.SnapshotPath()))

	if m.docErr != nil {
		b.WriteString("\n")
		b.WriteString(styles.warn.Render(fmt.Sprintf("Snapshot file unavailable: %v", m.docErr)))
		b.WriteString("\n")
	} else if m.doc != nil {
		stats := m.doc.Statistics
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("Games:        %d (%d completed)\n", stats.TotalGames, stats.CompletedGames))
		b.WriteString(fmt.Sprintf("Hours:        %sh\n", shared.FormatHours(stats.TotalHours)))
		b.WriteString(fmt.Sprintf("Achievements: %s\n", shared.FormatNumber(stats.TotalAchievements)))
		b.WriteString(fmt.Sprintf("Gamerscore:   %sG\n", shared.FormatNumber(m.doc.Profile.Gamerscore)))

		top := m.doc.TopGames(5)
		if len(top) > 0 {
			b.WriteString("\n")
			b.WriteString(styles.ok.Render("Top games"))
			b.WriteString("\n")
			for i, g := range top {
				b.WriteString(fmt.Sprintf("  %d. %s — %sh\n", i+1, g.Name, shared.FormatHours(g.HoursPlayed)))
			}
		}

		if len(m.doc.Warnings) > 0 {
			b.WriteString("\n")
			b.WriteString(styles.warn.Render(fmt.Sprintf("%d warnings", len(m.doc.Warnings))))
			b.WriteString("\n")
			for _, w := range m.doc.Warnings {
				b.WriteString(fmt.Sprintf("  • %s\n", w))
			}
		}
	}

	helpKeys := []key.Binding{m.keys.back, m.keys.delete, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n%s", b.String(), helpView)
}

func (m *Model) renderConfirmDelete() string {
	if m.selected == nil {
		return ""
	}

	title := styles.title.Render(fmt.Sprintf("Delete snapshot #%d for %s?", m.selected.Sequence(), m.selected.Gamertag()))
	info := "\nThe record is removed from history; the snapshot file on disk is kept.\n"

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s%s\n%s", title, info, helpView)
}

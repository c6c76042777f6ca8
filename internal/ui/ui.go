package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/ptt/internal/catalog"
	"github.com/desertthunder/ptt/internal/categories"
	"github.com/desertthunder/ptt/internal/creators"
	"github.com/desertthunder/ptt/internal/models"
	"github.com/desertthunder/ptt/internal/pagination"
	"github.com/desertthunder/ptt/internal/progress"
	"github.com/desertthunder/ptt/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	CategoryView ViewState = iota
	GridView
	ConfirmResetView
)

type inputMode int

const (
	inputNone inputMode = iota
	inputSearch
	inputNewCategory
	inputAssign
)

// API is the part of the REST API the TUI reads directly; progress calls go through the tracker.
type API interface {
	Creators(ctx context.Context) ([]models.Creator, error)
}

// Deps are the collaborators a [Model] drives.
type Deps struct {
	API        API
	Tracker    *progress.Tracker
	Creators   *creators.Selector
	Categories *categories.Store
	Notices    *StatusNotifier    // Notices is the notifier the tracker was built with, if any
	Open       func(string) error // Open plays a video URL, defaults to [shared.OpenVideo]
	PageSize   int
}

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	view      ViewState
	prevView  ViewState
	api       API
	tracker   *progress.Tracker
	selector  *creators.Selector
	store     *categories.Store
	notices   *StatusNotifier
	open      func(string) error
	width     int
	height    int
	loading   bool
	videos    []models.Video
	catMap    catalog.CategoryMap
	catList   list.Model
	category  string
	members   []models.Video
	shown     []models.Video
	query     string
	paginator *pagination.Paginator
	cursor    int
	input     textinput.Model
	mode      inputMode
	status    string
	statusErr bool
	help      help.Model
	keys      keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, deps Deps) *Model {
	open := deps.Open
	if open == nil {
		open = shared.OpenVideo
	}

	catList := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	catList.Title = "Categories"
	catList.SetShowHelp(false)

	input := textinput.New()
	input.CharLimit = 80

	return &Model{
		ctx:       ctx,
		view:      CategoryView,
		api:       deps.API,
		tracker:   deps.Tracker,
		selector:  deps.Creators,
		store:     deps.Categories,
		notices:   deps.Notices,
		open:      open,
		loading:   true,
		catMap:    catalog.CategoryMap{},
		catList:   catList,
		paginator: pagination.New(0, deps.PageSize),
		input:     input,
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Init loads videos and creators and starts listening for tracker notices.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadVideos(), m.fetchCreators(), m.waitForNotice())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.catList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case Msg:
		return m.handleMsg(msg)

	case tea.KeyMsg:
		if m.mode != inputNone {
			return m.handleInputKeys(msg)
		}
		switch m.view {
		case CategoryView:
			return m.handleCategoryKeys(msg)
		case GridView:
			return m.handleGridKeys(msg)
		case ConfirmResetView:
			return m.handleConfirmKeys(msg)
		}
	}

	if m.view == CategoryView {
		var cmd tea.Cmd
		m.catList, cmd = m.catList.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgVideosLoaded:
		d := msg.data.(videosLoaded)
		m.loading = false
		if d.err != nil {
			m.setStatus(fmt.Sprintf("Could not load videos: %v", d.err), true)
			return m, nil
		}
		m.videos = d.videos
		return m, m.refresh()

	case MsgCreatorsFetched:
		d := msg.data.(creatorsFetched)
		if d.err != nil {
			m.setStatus(fmt.Sprintf("Could not load creators: %v", d.err), true)
			return m, nil
		}
		m.selector.SetCreators(d.creators)
		return m, m.refresh()

	case MsgToggled:
		d := msg.data.(toggled)
		switch {
		case errors.Is(d.err, shared.ErrRequestPending):
			m.setStatus(fmt.Sprintf("Video %d is already being updated", d.id), true)
		case d.err != nil:
			m.setStatus(fmt.Sprintf("Could not update video %d", d.id), true)
		case d.watched:
			m.setStatus(fmt.Sprintf("Marked video %d as watched", d.id), false)
		default:
			m.setStatus(fmt.Sprintf("Marked video %d as unwatched", d.id), false)
		}
		return m, m.refresh()

	case MsgProgressReset:
		d := msg.data.(progressReset)
		if d.err != nil {
			m.setStatus(fmt.Sprintf("Could not reset progress: %v", d.err), true)
			return m, nil
		}
		m.setStatus(fmt.Sprintf("Reset progress for %d videos", d.count), false)
		return m, m.refresh()

	case MsgNotice:
		n := msg.data.(progress.Notice)
		text := n.Message
		if n.Err != nil {
			text = fmt.Sprintf("%s: %v", n.Message, n.Err)
		}
		m.setStatus(text, n.Level == progress.LevelError)
		return m, m.waitForNotice()
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var body string
	switch {
	case m.loading:
		body = "Loading videos…"
	case m.view == CategoryView:
		body = m.renderCategories()
	case m.view == GridView:
		body = m.renderGrid()
	case m.view == ConfirmResetView:
		body = m.renderConfirm()
	}

	parts := []string{m.renderHeader(), body}
	if m.status != "" {
		style := styles.ok
		if m.statusErr {
			style = styles.err
		}
		parts = append(parts, "", style.Render(m.status))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *Model) handleCategoryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.catList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.catList, cmd = m.catList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.catList.SelectedItem().(categoryItem); ok {
			m.openCategory(item.category.Name)
			m.view = GridView
		}
		return m, nil
	case key.Matches(msg, m.keys.creator):
		return m, m.cycleCreator(1)
	case key.Matches(msg, m.keys.prevCrtr):
		return m, m.cycleCreator(-1)
	case key.Matches(msg, m.keys.add):
		return m, m.prompt(inputNewCategory, "New category: ")
	case key.Matches(msg, m.keys.remove):
		return m, m.deleteSelectedCategory()
	case key.Matches(msg, m.keys.reset):
		m.confirmReset()
		return m, nil
	}

	var cmd tea.Cmd
	m.catList, cmd = m.catList.Update(msg)
	return m, cmd
}

func (m *Model) handleGridKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		if m.query != "" {
			m.setQuery("")
			return m, nil
		}
		m.view = CategoryView
		m.selectInList(m.category)
	case key.Matches(msg, m.keys.left):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.right):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.up):
		m.moveCursor(-m.columns())
	case key.Matches(msg, m.keys.down):
		m.moveCursor(m.columns())
	case key.Matches(msg, m.keys.nextPage):
		if m.paginator.Next() {
			m.cursor = 0
		}
	case key.Matches(msg, m.keys.prevPage):
		if m.paginator.Prev() {
			m.cursor = 0
		}
	case key.Matches(msg, m.keys.toggle):
		return m, m.toggleSelected()
	case key.Matches(msg, m.keys.open):
		m.openSelected()
	case key.Matches(msg, m.keys.search):
		return m, m.prompt(inputSearch, "/ ")
	case key.Matches(msg, m.keys.assign):
		if _, ok := m.selectedVideo(); ok {
			return m, m.prompt(inputAssign, "Add to category: ")
		}
	case key.Matches(msg, m.keys.remove):
		return m, m.removeSelectedFromCategory()
	case key.Matches(msg, m.keys.creator):
		return m, m.cycleCreator(1)
	case key.Matches(msg, m.keys.prevCrtr):
		return m, m.cycleCreator(-1)
	case key.Matches(msg, m.keys.reset):
		m.confirmReset()
	}
	return m, nil
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		m.view = m.prevView
		return m, m.resetProgress()
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.quit):
		m.view = m.prevView
	}
	return m, nil
}

func (m *Model) handleInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	mode := m.mode

	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.endInput()
		if mode == inputSearch {
			m.setQuery("")
		}
		return m, nil
	case tea.KeyEnter:
		value := strings.TrimSpace(m.input.Value())
		m.endInput()
		return m, m.submit(mode, value)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if mode == inputSearch {
		m.setQuery(m.input.Value())
	}
	return m, cmd
}

func (m *Model) prompt(mode inputMode, label string) tea.Cmd {
	m.mode = mode
	m.input.Prompt = label
	if mode == inputSearch {
		m.input.SetValue(m.query)
	} else {
		m.input.SetValue("")
	}
	return m.input.Focus()
}

func (m *Model) endInput() {
	m.mode = inputNone
	m.input.Blur()
}

func (m *Model) submit(mode inputMode, value string) tea.Cmd {
	switch mode {
	case inputNewCategory:
		if _, ok := m.addCategory(value); ok {
			return m.refresh()
		}
	case inputAssign:
		return m.assignSelected(value)
	}
	return nil
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

func (m *Model) confirmReset() {
	m.prevView = m.view
	m.view = ConfirmResetView
}

// creatorVideos returns the videos of the selected creator, or every video when none is selected.
func (m *Model) creatorVideos() []models.Video {
	return catalog.FilterByCreator(m.videos, models.Ident(m.selector.SelectedID()))
}

// refresh rebuilds the category list and the open category from the current videos, creator and user categories.
func (m *Model) refresh() tea.Cmd {
	creatorID := m.selector.SelectedID()
	videos := m.creatorVideos()
	userCats := m.store.All()

	m.catMap = catalog.BuildCategoryMap(videos, userCats, creatorID)
	summaries := catalog.Summarize(m.catMap, userCats, creatorID, m.tracker.IsWatched)
	items := make([]list.Item, len(summaries))
	for i, c := range summaries {
		items[i] = categoryItem{category: c}
	}
	cmd := m.catList.SetItems(items)

	if _, ok := m.catMap[m.category]; !ok {
		m.openCategory(catalog.FirstCategory(videos))
	} else {
		m.loadMembers()
	}
	m.selectInList(m.category)
	return cmd
}

func (m *Model) selectInList(name string) {
	for i, item := range m.catList.Items() {
		if c, ok := item.(categoryItem); ok && c.category.Name == name {
			m.catList.Select(i)
			return
		}
	}
}

func (m *Model) openCategory(name string) {
	if _, ok := m.catMap[name]; !ok {
		name = ""
	}
	m.category = name
	m.query = ""
	m.input.SetValue("")
	m.paginator.Reset()
	m.cursor = 0
	m.loadMembers()
}

func (m *Model) loadMembers() {
	m.members = catalog.VideosIn(m.creatorVideos(), m.catMap[m.category])
	m.applySearch()
}

func (m *Model) setQuery(q string) {
	m.query = strings.TrimSpace(q)
	m.paginator.Reset()
	m.cursor = 0
	m.applySearch()
}

func (m *Model) applySearch() {
	m.shown = catalog.Search(m.members, m.query)
	m.paginator.SetTotal(len(m.shown))
	m.cursor = max(0, min(m.cursor, len(m.pageVideos())-1))
}

func (m *Model) pageVideos() []models.Video {
	return pagination.Slice(m.shown, m.paginator)
}

func (m *Model) selectedVideo() (models.Video, bool) {
	videos := m.pageVideos()
	if m.cursor < 0 || m.cursor >= len(videos) {
		return models.Video{}, false
	}
	return videos[m.cursor], true
}

// moveCursor moves the grid selection, crossing onto the neighbouring page at either edge.
func (m *Model) moveCursor(delta int) {
	n := len(m.pageVideos())
	if n == 0 {
		return
	}

	next := m.cursor + delta
	switch {
	case next >= n:
		if m.paginator.Next() {
			m.cursor = 0
			return
		}
		next = n - 1
	case next < 0:
		if m.paginator.Prev() {
			m.cursor = len(m.pageVideos()) - 1
			return
		}
		next = 0
	}
	m.cursor = next
}

func (m *Model) cycleCreator(delta int) tea.Cmd {
	c, ok := m.selector.Cycle(delta)
	if !ok {
		m.setStatus("No creators available", true)
		return nil
	}
	m.setStatus("Creator: "+c.Name, false)
	m.category = ""
	return m.refresh()
}

func (m *Model) toggleSelected() tea.Cmd {
	v, ok := m.selectedVideo()
	if !ok {
		return nil
	}
	if m.tracker.Pending(v.ID) {
		m.setStatus(fmt.Sprintf("Video %d is already being updated", v.ID), true)
		return nil
	}

	id := v.ID
	return func() tea.Msg {
		watched, err := m.tracker.Toggle(m.ctx, id)
		return toggledMsg(id, watched, err)
	}
}

func (m *Model) openSelected() {
	v, ok := m.selectedVideo()
	if !ok {
		return
	}
	if err := m.open(v.URL); err != nil {
		m.setStatus(fmt.Sprintf("Could not open %q: %v", v.Title, err), true)
		return
	}
	m.setStatus("Opened "+v.Title, false)
}

func (m *Model) resetProgress() tea.Cmd {
	return func() tea.Msg {
		count, err := m.tracker.Reset(m.ctx)
		return progressResetMsg(count, err)
	}
}

// addCategory creates a user category for the selected creator, refusing duplicate names.
func (m *Model) addCategory(name string) (models.UserCategory, bool) {
	creatorID := m.selector.SelectedID()
	if creatorID == "" {
		m.setStatus("Select a creator first", true)
		return models.UserCategory{}, false
	}
	if name == "" {
		return models.UserCategory{}, false
	}
	if m.store.Exists(name, creatorID) {
		m.setStatus(fmt.Sprintf("Category %q already exists", name), true)
		return models.UserCategory{}, false
	}

	uc, err := m.store.Add(name, creatorID)
	if err != nil {
		m.setStatus(err.Error(), true)
		return models.UserCategory{}, false
	}
	m.setStatus(fmt.Sprintf("Created category %q", uc.Name), false)
	return uc, true
}

func (m *Model) assignSelected(name string) tea.Cmd {
	v, ok := m.selectedVideo()
	if !ok || name == "" {
		return nil
	}

	uc, found := m.store.Find(name, m.selector.SelectedID())
	if !found {
		if uc, found = m.addCategory(name); !found {
			return nil
		}
	}

	if m.store.Assign(uc.ID, v.ID) {
		m.setStatus(fmt.Sprintf("Added %q to %s", v.Title, uc.Name), false)
	} else {
		m.setStatus(fmt.Sprintf("%q is already in %s", v.Title, uc.Name), false)
	}
	return m.refresh()
}

func (m *Model) removeSelectedFromCategory() tea.Cmd {
	v, ok := m.selectedVideo()
	if !ok {
		return nil
	}

	uc, found := m.store.Find(m.category, m.selector.SelectedID())
	if !found || !m.store.Unassign(uc.ID, v.ID) {
		m.setStatus(fmt.Sprintf("%q was not added to %s by you", v.Title, m.category), true)
		return nil
	}
	m.setStatus(fmt.Sprintf("Removed %q from %s", v.Title, uc.Name), false)
	return m.refresh()
}

func (m *Model) deleteSelectedCategory() tea.Cmd {
	item, ok := m.catList.SelectedItem().(categoryItem)
	if !ok {
		return nil
	}

	uc, found := m.store.Find(item.category.Name, m.selector.SelectedID())
	if !item.category.UserDefined || !found {
		m.setStatus(fmt.Sprintf("%s is not one of your categories", item.category.Name), true)
		return nil
	}
	m.store.Delete(uc.ID)
	m.setStatus(fmt.Sprintf("Deleted category %q", uc.Name), false)
	return m.refresh()
}

func (m *Model) loadVideos() tea.Cmd {
	return func() tea.Msg {
		videos, err := m.tracker.Initialize(m.ctx)
		return videosLoadedMsg(videos, err)
	}
}

func (m *Model) fetchCreators() tea.Cmd {
	return func() tea.Msg {
		found, err := m.api.Creators(m.ctx)
		return creatorsFetchedMsg(found, err)
	}
}

func (m *Model) waitForNotice() tea.Cmd {
	if m.notices == nil {
		return nil
	}
	ch := m.notices.ch
	return func() tea.Msg {
		return noticeMsg(<-ch)
	}
}

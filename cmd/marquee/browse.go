package main

import (
	"context"
	"fmt"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/vadimtrunov/marquee/internal/config"
	"github.com/vadimtrunov/marquee/internal/genres"
	"github.com/vadimtrunov/marquee/internal/metadata/tmdb"
	"github.com/vadimtrunov/marquee/internal/movies"
	"github.com/vadimtrunov/marquee/internal/viewstate"
)

// newBrowseCmd returns the "browse" subcommand for the interactive TUI.
func newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse movies interactively",
		Long: "Open the interactive browser. Type to search, tab to pick genres,\n" +
			"enter for details, ctrl+n/ctrl+p to page and ctrl+c to exit.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBrowse(cmdContext(cmd))
		},
	}
}

// runBrowse wires the coordinator to the Bubble Tea browser.
func runBrowse(parent context.Context) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	// The alt screen owns stdout, so logs go to a file.
	logger, closer, err := config.SetupFileLogger(cfg.App.LogLevel, cfg.App.LogFile)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	sess, err := openSession(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	coord := viewstate.New(sess.repo, cfg.App.SearchDebounce, logger)
	defer coord.Close()

	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	m := newBrowseModel(coord)
	defer m.unsubscribe()

	p := tea.NewProgram(m, tea.WithAltScreen())

	// Bridge OS signal cancellation into the Bubble Tea event loop.
	go func() {
		<-ctx.Done()
		p.Send(tea.Quit())
	}()

	coord.Start()
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run browser: %w", err)
	}
	return nil
}

// browser is the subset of the coordinator the TUI drives.
type browser interface {
	State() movies.State
	Subscribe() (<-chan movies.State, func())
	Reset()
	SearchInput(text string)
	ToggleGenre(id int)
	ClearGenres()
	NextPage()
	PreviousPage()
	Refresh()
	SelectMovie(id int)
}

var _ browser = (*viewstate.Coordinator)(nil)

// browseScreen selects which pane has focus.
type browseScreen int

const (
	screenList browseScreen = iota
	screenGenres
	screenDetails
)

// stateMsg carries a new repository snapshot into the TUI.
type stateMsg struct {
	state movies.State
}

// updatesClosedMsg reports that the snapshot channel was closed.
type updatesClosedMsg struct{}

// Fixed rows around the movie list: search box, summary, blank, footer.
const chromeHeight = 6

// browseModel is the Bubble Tea model for the interactive browser.
type browseModel struct {
	coord       browser
	updates     <-chan movies.State
	unsubscribe func()

	state  movies.State
	screen browseScreen

	search      textinput.Model
	genreFilter textinput.Model
	details     viewport.Model
	spinner     spinner.Model

	cursor      int
	genreCursor int
	pendingID   int // movie awaited by the details pane, 0 when none

	width  int
	height int
	ready  bool
}

// newBrowseModel subscribes to coord and builds the initial model.
func newBrowseModel(coord browser) browseModel {
	search := textinput.New()
	search.Placeholder = "Search movies..."
	search.Prompt = "/ "
	search.Focus()
	search.CharLimit = 200

	filter := textinput.New()
	filter.Placeholder = "Filter genres..."
	filter.Prompt = "# "
	filter.CharLimit = 50

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styleInfo

	updates, unsubscribe := coord.Subscribe()
	return browseModel{
		coord:       coord,
		updates:     updates,
		unsubscribe: unsubscribe,
		state:       coord.State(),
		search:      search,
		genreFilter: filter,
		spinner:     s,
	}
}

// waitForState blocks on the next snapshot.
func waitForState(ch <-chan movies.State) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-ch
		if !ok {
			return updatesClosedMsg{}
		}
		return stateMsg{state: st}
	}
}

// Init starts the cursor blink, the spinner and the snapshot listener.
func (m browseModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, waitForState(m.updates))
}

// Update handles snapshots, resizes and key presses.
func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.handleResize(msg)
		return m, nil

	case stateMsg:
		m.applyState(msg.state)
		return m, waitForState(m.updates)

	case updatesClosedMsg:
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.screen {
		case screenGenres:
			return m.updateGenres(msg)
		case screenDetails:
			return m.updateDetails(msg)
		default:
			return m.updateList(msg)
		}
	}

	var cmd tea.Cmd
	if m.screen == screenGenres {
		m.genreFilter, cmd = m.genreFilter.Update(msg)
	} else {
		m.search, cmd = m.search.Update(msg)
	}
	return m, cmd
}

// handleResize adjusts the inputs and the details viewport.
func (m *browseModel) handleResize(msg tea.WindowSizeMsg) {
	m.width = msg.Width
	m.height = msg.Height
	vpHeight := max(m.height-3, 1)
	if !m.ready {
		m.details = viewport.New(m.width, vpHeight)
		m.ready = true
	} else {
		m.details.Width = m.width
		m.details.Height = vpHeight
	}
	m.search.Width = max(m.width-4, 10)
	m.genreFilter.Width = max(m.width-4, 10)
	if m.screen == screenDetails {
		m.details.SetContent(m.detailsContent())
	}
}

// applyState stores a snapshot and keeps cursors in range.
func (m *browseModel) applyState(st movies.State) {
	prev := m.state
	m.state = st

	if firstID(prev.Movies) != firstID(st.Movies) || prev.CurrentPage != st.CurrentPage {
		m.cursor = 0
	}
	m.cursor = clamp(m.cursor, len(st.Movies))
	m.genreCursor = clamp(m.genreCursor, len(m.genreHits()))

	if m.screen == screenDetails && m.ready {
		m.details.SetContent(m.detailsContent())
	}
}

func (m browseModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down":
		if m.cursor < len(m.state.Movies)-1 {
			m.cursor++
		}
		return m, nil
	case "enter":
		if len(m.state.Movies) == 0 {
			return m, nil
		}
		id := m.state.Movies[m.cursor].ID
		m.pendingID = id
		m.screen = screenDetails
		m.coord.SelectMovie(id)
		if m.ready {
			m.details.SetContent(m.detailsContent())
			m.details.GotoTop()
		}
		return m, nil
	case "ctrl+n", "pgdown":
		m.coord.NextPage()
		return m, nil
	case "ctrl+p", "pgup":
		m.coord.PreviousPage()
		return m, nil
	case "ctrl+r":
		m.coord.Refresh()
		return m, nil
	case "ctrl+x":
		m.coord.ClearGenres()
		return m, nil
	case "tab":
		m.screen = screenGenres
		m.search.Blur()
		m.genreFilter.SetValue("")
		m.genreCursor = 0
		cmd := m.genreFilter.Focus()
		return m, cmd
	case "esc":
		m.search.SetValue("")
		m.coord.Reset()
		return m, nil
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if v := m.search.Value(); v != before {
		m.coord.SearchInput(v)
	}
	return m, cmd
}

func (m browseModel) updateGenres(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	hits := m.genreHits()
	switch msg.String() {
	case "esc", "tab":
		m.screen = screenList
		m.genreFilter.Blur()
		cmd := m.search.Focus()
		return m, cmd
	case "up":
		if m.genreCursor > 0 {
			m.genreCursor--
		}
		return m, nil
	case "down":
		if m.genreCursor < len(hits)-1 {
			m.genreCursor++
		}
		return m, nil
	case "enter":
		if len(hits) > 0 {
			m.coord.ToggleGenre(hits[m.genreCursor].Genre.ID)
		}
		return m, nil
	case "ctrl+x":
		m.coord.ClearGenres()
		return m, nil
	}

	var cmd tea.Cmd
	m.genreFilter, cmd = m.genreFilter.Update(msg)
	m.genreCursor = clamp(m.genreCursor, len(m.genreHits()))
	return m, cmd
}

func (m browseModel) updateDetails(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "backspace", "q":
		m.screen = screenList
		m.pendingID = 0
		return m, nil
	}
	var cmd tea.Cmd
	m.details, cmd = m.details.Update(msg)
	return m, cmd
}

// genreHits returns the catalog narrowed by the picker filter.
func (m browseModel) genreHits() []genres.Hit {
	return genres.Filter(m.state.Genres, m.genreFilter.Value())
}

// detailsContent renders the details pane for the awaited movie.
func (m browseModel) detailsContent() string {
	st := m.state
	if st.SelectedMovie != nil && st.SelectedMovie.ID == m.pendingID {
		return renderDetails(st)
	}
	if st.SelectedMovie == nil && st.HasError() {
		return styleError.Render(st.Error)
	}
	return styleDim.Render("Loading details...")
}

// View renders the active screen.
func (m browseModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	switch m.screen {
	case screenDetails:
		return m.details.View() + "\n" + m.footer("↑/↓ scroll · esc back · ctrl+c quit")
	case screenGenres:
		return m.viewGenres()
	default:
		return m.viewList()
	}
}

func (m browseModel) viewList() string {
	var sb strings.Builder
	sb.WriteString(m.search.View())
	sb.WriteString("\n")
	sb.WriteString(styleHeader.Render(filterSummary(m.state)))
	sb.WriteString("\n")

	st := m.state
	if len(st.Movies) == 0 {
		sb.WriteString(styleDim.Render("No movies to show."))
		sb.WriteString("\n")
	}
	from, to := visibleRange(m.cursor, len(st.Movies), m.height-chromeHeight)
	for i := from; i < to; i++ {
		mv := st.Movies[i]
		line := movieLine(mv, st.GenreNames(mv.GenreIDs))
		if i == m.cursor {
			sb.WriteString(styleSelected.Render("› ") + line)
		} else {
			sb.WriteString("  " + line)
		}
		sb.WriteString("\n")
	}

	sb.WriteString(m.footer("type to search · enter details · tab genres · ctrl+n/p page · ctrl+r refresh · esc reset"))
	return sb.String()
}

func (m browseModel) viewGenres() string {
	var sb strings.Builder
	sb.WriteString(m.genreFilter.View())
	sb.WriteString("\n")
	sb.WriteString(styleHeader.Render(filterSummary(m.state)))
	sb.WriteString("\n")

	hits := m.genreHits()
	if len(m.state.Genres) == 0 {
		sb.WriteString(styleDim.Render("Genres are not loaded."))
		sb.WriteString("\n")
	}
	from, to := visibleRange(m.genreCursor, len(hits), m.height-chromeHeight)
	for i := from; i < to; i++ {
		h := hits[i]
		mark := "[ ] "
		if m.state.GenreSelected(h.Genre.ID) {
			mark = styleSuccess.Render("[✓] ")
		}
		prefix := "  "
		if i == m.genreCursor {
			prefix = styleSelected.Render("› ")
		}
		sb.WriteString(prefix + mark + highlight(h.Genre.Name, h.MatchedIndexes))
		sb.WriteString("\n")
	}

	sb.WriteString(m.footer("type to filter · enter toggle · ctrl+x clear · esc back"))
	return sb.String()
}

// footer renders the status line and the key help.
func (m browseModel) footer(help string) string {
	status := styleDim.Render(pageLabel(m.state))
	switch {
	case m.state.IsRefreshing:
		status += "  " + m.spinner.View() + styleDim.Render(" Refreshing...")
	case m.state.HasError():
		status += "  " + styleError.Render(m.state.Error)
	}
	helpLine := lipgloss.NewStyle().
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("8")).
		Render(styleDim.Render(help))
	return "\n" + status + "\n" + helpLine
}

// highlight emphasizes the matched character positions of name.
func highlight(name string, matched []int) string {
	if len(matched) == 0 {
		return name
	}
	var sb strings.Builder
	for i, r := range name {
		if slices.Contains(matched, i) {
			sb.WriteString(styleRating.Render(string(r)))
		} else {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// visibleRange returns the [from, to) window of n rows that keeps cursor on screen.
func visibleRange(cursor, n, rows int) (int, int) {
	if rows < 1 {
		rows = 1
	}
	if n <= rows {
		return 0, n
	}
	from := cursor - rows/2
	from = max(from, 0)
	from = min(from, n-rows)
	return from, from + rows
}

func clamp(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	return min(i, n-1)
}

func firstID(list []tmdb.Movie) int {
	if len(list) == 0 {
		return 0
	}
	return list[0].ID
}

package ui

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"agentwatch/config"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

const (
	maxSearchResults   = 1000
	paneWriterMaxBytes = 64 * 1024
)

const (
	accentTag   = "[#00afff]"
	accentReset = "[-]"
)

var (
	uiBorderColor = tcell.ColorGray
	uiTitleColor  = tcell.ColorDeepSkyBlue
)

var defaultPageOrder = []string{"overview", "activity", "system"}

// Dashboard implements the page-based tview UI.
type Dashboard struct {
	app       *tview.Application
	pages     *tview.Pages
	scheduler *frameScheduler

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	ready chan struct{}

	snapshotMu sync.RWMutex
	snapshot   Snapshot
	statsMu    sync.Mutex
	statsLines []string

	activityBuf *BoundedEventBuffer
	systemBuf   *BoundedEventBuffer

	overviewRoot     *tview.Flex
	overviewHdr      *tview.TextView
	overviewProjects *tview.TextView
	overviewCounters *tview.TextView

	activityPage *eventPage
	systemPage   *eventPage

	pageOrder   []string
	pageIndex   int
	helpShown   bool
	metrics     *Metrics
	pagePresent map[string]bool
}

// NewDashboard constructs the tview dashboard if enabled.
func NewDashboard(cfg config.UIConfig, enable bool) *Dashboard {
	if !enable {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	app := tview.NewApplication().EnableMouse(true)
	pages := tview.NewPages()
	ready := make(chan struct{})
	var once sync.Once
	app.SetBeforeDrawFunc(func(screen tcell.Screen) bool {
		once.Do(func() { close(ready) })
		return false
	})

	metrics := NewMetrics()
	d := &Dashboard{
		app:         app,
		pages:       pages,
		ctx:         ctx,
		cancel:      cancel,
		ready:       ready,
		pageOrder:   defaultPageOrder,
		metrics:     metrics,
		pagePresent: make(map[string]bool),
	}

	policy := DropPolicy{MaxMessageBytes: 4096, EvictOnByteLimit: true, LogDrops: true}
	d.activityBuf = NewBoundedEventBuffer("activity", cfg.EventBuffer, 1024*1024, policy, log.Printf)
	d.systemBuf = NewBoundedEventBuffer("system", cfg.EventBuffer, 1024*1024, policy, log.Printf)

	d.overviewHdr = newBoxedTextView("Agent")
	d.overviewProjects = newBoxedTextView("Projects")
	d.overviewProjects.SetScrollable(true)
	d.overviewCounters = newBoxedTextView("Poll Counters")
	d.seedOverviewPlaceholders()
	d.overviewRoot = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(d.overviewHdr, 4, 0, false).
		AddItem(newSpacer(), 1, 0, false).
		AddItem(d.overviewProjects, 0, 1, false).
		AddItem(newSpacer(), 1, 0, false).
		AddItem(d.overviewCounters, 4, 0, false)

	d.activityPage = newEventPage(ctx, "Activity", d.activityBuf, true, metrics)
	d.systemPage = newEventPage(ctx, "System", d.systemBuf, false, metrics)

	d.addPage("overview", d.overviewRoot, true, false)
	d.addPage("activity", d.activityPage.root, true, false)
	d.addPage("system", d.systemPage.root, true, false)
	d.addPage("help", buildHelpOverlay(), true, false)

	d.scheduler = newFrameScheduler(app, cfg.TargetFPS, 100*time.Millisecond, metrics.ObserveRender)
	d.scheduler.Start()

	d.installKeybindings()
	d.installRoot()

	go func() {
		if err := app.Run(); err != nil {
			log.Printf("UI: tview error: %v", err)
		}
	}()

	return d
}

func (d *Dashboard) installRoot() {
	root := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(d.pages, 0, 1, true).
		AddItem(buildFooter(), 1, 0, false)
	d.app.SetRoot(root, true)
	d.showFirstAvailablePage()
}

func (d *Dashboard) installKeybindings() {
	d.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if d.helpShown {
			if event.Key() == tcell.KeyEsc || event.Key() == tcell.KeyF1 || event.Rune() == 'h' || event.Rune() == '?' {
				d.toggleHelp(false)
				return nil
			}
		}

		pageName, _ := d.pages.GetFrontPage()
		if pageName == "activity" {
			if d.app.GetFocus() == d.activityPage.search {
				return event
			}
			if d.activityPage.handleInput(event, d.app) {
				return nil
			}
		} else if pageName == "system" {
			if d.app.GetFocus() == d.systemPage.search {
				return event
			}
			if d.systemPage.handleInput(event, d.app) {
				return nil
			}
		} else if pageName == "overview" {
			if scrollTextView(d.overviewProjects, event) {
				return nil
			}
		}

		switch event.Key() {
		case tcell.KeyF1:
			d.toggleHelp(!d.helpShown)
			return nil
		case tcell.KeyF2:
			d.showPage("overview")
			return nil
		case tcell.KeyF3:
			d.showPage("activity")
			return nil
		case tcell.KeyF4:
			d.showPage("system")
			return nil
		case tcell.KeyTab:
			d.nextPage()
			return nil
		case tcell.KeyBacktab:
			d.prevPage()
			return nil
		case tcell.KeyCtrlC:
			d.Stop()
			return nil
		}

		switch event.Rune() {
		case 'q', 'Q':
			d.Stop()
			return nil
		case 'h', '?':
			d.toggleHelp(!d.helpShown)
			return nil
		case 'o':
			d.showPage("overview")
			return nil
		case 'a':
			d.showPage("activity")
			return nil
		case 's':
			d.showPage("system")
			return nil
		}

		return event
	})
}

func (d *Dashboard) toggleHelp(show bool) {
	d.helpShown = show
	d.pages.ShowPage("help")
	d.pages.SendToFront("help")
	if !show {
		d.pages.HidePage("help")
	}
}

func (d *Dashboard) showPage(name string) {
	if !d.pageAvailable(name) {
		return
	}
	for i, page := range d.pageOrder {
		if page == name {
			d.pageIndex = i
			break
		}
	}
	d.pages.SwitchToPage(name)
	if d.metrics != nil {
		d.metrics.PageSwitch()
	}
	switch name {
	case "overview":
		d.app.SetFocus(d.overviewProjects)
	case "activity":
		d.app.SetFocus(d.activityPage.list)
	case "system":
		d.app.SetFocus(d.systemPage.list)
	}
}

func (d *Dashboard) showFirstAvailablePage() {
	if d == nil {
		return
	}
	for _, name := range d.pageOrder {
		if d.pageAvailable(name) {
			d.showPage(name)
			return
		}
	}
}

func (d *Dashboard) nextPage() { d.cyclePage(1) }
func (d *Dashboard) prevPage() { d.cyclePage(-1) }

func (d *Dashboard) pageAvailable(name string) bool {
	if d == nil {
		return false
	}
	return d.pagePresent[name]
}

func (d *Dashboard) addPage(name string, page tview.Primitive, resize, visible bool) {
	if d == nil || d.pages == nil || page == nil || name == "" {
		return
	}
	d.pages.AddPage(name, page, resize, visible)
	d.pagePresent[name] = true
}

func (d *Dashboard) cyclePage(delta int) {
	if d == nil || len(d.pageOrder) == 0 {
		return
	}
	for i := 0; i < len(d.pageOrder); i++ {
		d.pageIndex += delta
		if d.pageIndex < 0 {
			d.pageIndex = len(d.pageOrder) - 1
		} else if d.pageIndex >= len(d.pageOrder) {
			d.pageIndex = 0
		}
		name := d.pageOrder[d.pageIndex]
		if d.pageAvailable(name) {
			d.showPage(name)
			return
		}
	}
}

func (d *Dashboard) WaitReady() {
	if d == nil || d.ready == nil {
		return
	}
	<-d.ready
}

func (d *Dashboard) Stop() {
	if d == nil {
		return
	}
	d.cancel()
	if d.scheduler != nil {
		d.scheduler.Stop()
	}
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(200 * time.Millisecond):
		log.Printf("UI: dashboard stop timeout, some goroutines may leak")
	}
	if d.app != nil {
		d.app.Stop()
	}
}

// Done closes when the user quits the dashboard or Stop is called.
func (d *Dashboard) Done() <-chan struct{} {
	return d.ctx.Done()
}

func (d *Dashboard) SetStats(lines []string) {
	if d == nil {
		return
	}
	d.statsMu.Lock()
	d.statsLines = append(d.statsLines[:0], lines...)
	d.statsMu.Unlock()
	d.scheduler.Schedule("stats", func() {
		d.renderSnapshot()
	})
}

func (d *Dashboard) SetSnapshot(snapshot Snapshot) {
	if d == nil {
		return
	}
	d.snapshotMu.Lock()
	d.snapshot = snapshot
	d.snapshotMu.Unlock()
	d.scheduler.Schedule("snapshot", func() {
		d.renderSnapshot()
	})
}

func (d *Dashboard) renderSnapshot() {
	snap := d.snapshotCopy()
	if len(snap.CounterLines) == 0 {
		d.statsMu.Lock()
		snap.CounterLines = append([]string{}, d.statsLines...)
		d.statsMu.Unlock()
	}
	if len(snap.HeaderLines) == 0 && len(snap.ProjectLines) == 0 {
		d.seedOverviewPlaceholders()
		return
	}
	setBoxText(d.overviewHdr, strings.Join(snap.HeaderLines, "\n"))
	setBoxText(d.overviewProjects, strings.Join(snap.ProjectLines, "\n"))
	setBoxText(d.overviewCounters, strings.Join(snap.CounterLines, "\n"))
	if d.overviewRoot != nil {
		height := len(snap.CounterLines) + 2
		if height < 4 {
			height = 4
		}
		d.overviewRoot.ResizeItem(d.overviewCounters, height, 0)
	}
}

func (d *Dashboard) snapshotCopy() Snapshot {
	d.snapshotMu.RLock()
	defer d.snapshotMu.RUnlock()
	copyLines := func(lines []string) []string {
		if len(lines) == 0 {
			return nil
		}
		out := make([]string, len(lines))
		copy(out, lines)
		return out
	}
	return Snapshot{
		GeneratedAt:  d.snapshot.GeneratedAt,
		HeaderLines:  copyLines(d.snapshot.HeaderLines),
		ProjectLines: copyLines(d.snapshot.ProjectLines),
		CounterLines: copyLines(d.snapshot.CounterLines),
	}
}

func (d *Dashboard) AppendActivity(line string) {
	d.appendEvent(EventSuccess, line, d.activityBuf)
}

func (d *Dashboard) AppendFailure(line string) {
	d.appendEvent(EventFailure, line, d.activityBuf)
}

func (d *Dashboard) AppendInfo(line string) {
	d.appendEvent(EventInfo, line, d.activityBuf)
}

func (d *Dashboard) AppendSystem(line string) {
	d.appendEvent(EventSystem, line, d.activityBuf)
	d.appendEvent(EventSystem, line, d.systemBuf)
}

func (d *Dashboard) appendEvent(kind EventKind, line string, buf *BoundedEventBuffer) {
	if d == nil || buf == nil {
		return
	}
	event := StyledEvent{
		Timestamp: time.Now().UTC(),
		Kind:      kind,
		Message:   stripTags(line),
	}
	if buf.Append(event) {
		d.scheduler.Schedule("events", func() {
			if d.activityPage != nil {
				d.activityPage.refresh()
			}
			if d.systemPage != nil {
				d.systemPage.refresh()
			}
		})
	}
}

func (d *Dashboard) SystemWriter() io.Writer {
	if d == nil {
		return nil
	}
	return &paneWriter{dash: d}
}

type paneWriter struct {
	dash *Dashboard
	// buf holds any partial line; it is bounded to avoid unbounded growth when no newline arrives.
	buf          []byte
	mu           sync.Mutex
	droppedBytes uint64
	lastDropLog  time.Time
}

func (w *paneWriter) Write(p []byte) (int, error) {
	if w == nil || w.dash == nil {
		return len(p), nil
	}
	var logDrop bool
	var dropBytes uint64
	var totalDropped uint64
	now := time.Now().UTC()
	w.mu.Lock()
	w.buf = append(w.buf, p...)
	if excess := len(w.buf) - paneWriterMaxBytes; excess > 0 {
		w.buf = w.buf[excess:]
		w.droppedBytes += uint64(excess)
		dropBytes = uint64(excess)
		totalDropped = w.droppedBytes
		if w.lastDropLog.IsZero() || now.Sub(w.lastDropLog) >= 30*time.Second {
			w.lastDropLog = now
			logDrop = true
		}
	}
	data := w.buf
	w.mu.Unlock()
	if logDrop {
		log.Printf("UI: paneWriter dropped %d bytes (total %d) due to missing newline", dropBytes, totalDropped)
	}

	for {
		idx := bytes.IndexByte(data, '\n')
		if idx == -1 {
			break
		}
		line := string(bytes.TrimRight(data[:idx], "\r"))
		w.dash.AppendSystem(line)
		data = data[idx+1:]
	}
	w.mu.Lock()
	w.buf = data
	w.mu.Unlock()
	return len(p), nil
}

func (d *Dashboard) seedOverviewPlaceholders() {
	setBoxText(d.overviewHdr, "[yellow]Agent[-]: --  [yellow]State[-]: OFFLINE\n[yellow]Last contact[-]: --  [yellow]Polls[-]: --")
	setBoxText(d.overviewProjects, "waiting for first poll")
	setBoxText(d.overviewCounters, "Polls by outcome: (none)\nFeed entries by type: (none)")
}

func newBoxedTextView(title string) *tview.TextView {
	tv := tview.NewTextView().SetDynamicColors(true).SetWrap(false)
	tv.SetBorder(true)
	if title != "" {
		tv.SetTitle(accentText(title)).SetTitleAlign(tview.AlignLeft)
	}
	tv.SetBorderColor(uiBorderColor)
	tv.SetTitleColor(uiTitleColor)
	return tv
}

func newSpacer() *tview.Box {
	return tview.NewBox()
}

func setBoxText(tv *tview.TextView, text string) {
	if tv == nil {
		return
	}
	tv.SetText(padLines(text))
}

func buildFooter() *tview.TextView {
	return tview.NewTextView().SetDynamicColors(true).SetText(
		accentText("F1") + "Help  " + accentText("F2") + "Overview  " + accentText("F3") + "Activity  " + accentText("F4") + "System  [Q]Quit",
	)
}

func buildHelpOverlay() tview.Primitive {
	help := tview.NewTextView().SetDynamicColors(true).SetWrap(false)
	help.SetText(strings.TrimSpace(fmt.Sprintf(`
KEYBOARD HELP

NAVIGATION
  %sF1%s  Help   %sF2%s Overview   %sF3%s Activity   %sF4%s System
  Tab Next page   Shift+Tab Previous page   q / Ctrl+C Quit

ACTIVITY/SYSTEM
  ↑/↓ or k/j Scroll   PageUp/Down Fast scroll   Home/End Top/Bottom
  1-4 Filter tabs (Activity)   / Search   Esc Clear search / close
`, accentTag, accentReset, accentTag, accentReset, accentTag, accentReset, accentTag, accentReset)))
	help.SetBorder(true).SetTitle("Help")
	help.SetBorderColor(uiBorderColor)
	help.SetTitleColor(uiTitleColor)
	container := tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(help, 13, 1, true).
			AddItem(nil, 0, 1, false),
			60, 1, true).
		AddItem(nil, 0, 1, false)
	return container
}

func scrollTextView(target *tview.TextView, event *tcell.EventKey) bool {
	if target == nil || event == nil {
		return false
	}
	row, _ := target.GetScrollOffset()
	switch event.Key() {
	case tcell.KeyUp:
		target.ScrollTo(row-1, 0)
		return true
	case tcell.KeyDown:
		target.ScrollTo(row+1, 0)
		return true
	case tcell.KeyPgUp:
		target.ScrollTo(row-10, 0)
		return true
	case tcell.KeyPgDn:
		target.ScrollTo(row+10, 0)
		return true
	case tcell.KeyHome:
		target.ScrollToBeginning()
		return true
	case tcell.KeyEnd:
		target.ScrollToEnd()
		return true
	}
	switch event.Rune() {
	case 'k':
		target.ScrollTo(row-1, 0)
		return true
	case 'j':
		target.ScrollTo(row+1, 0)
		return true
	}
	return false
}

type eventPage struct {
	root   *tview.Flex
	header *tview.TextView
	footer *tview.TextView
	search *tview.InputField
	list   *VirtualList

	buffer        *BoundedEventBuffer
	filterEnabled bool
	filterIndex   int
	searchFilter  *SearchFilter
	title         string
	metrics       *Metrics

	scratch []StyledEvent
}

func newEventPage(ctx context.Context, title string, buffer *BoundedEventBuffer, filterEnabled bool, metrics *Metrics) *eventPage {
	header := tview.NewTextView().SetDynamicColors(true).SetWrap(false)
	footer := tview.NewTextView().SetDynamicColors(true).SetWrap(false)
	search := tview.NewInputField().SetLabel("Search: ").SetFieldWidth(30)
	list := NewVirtualList()
	root := tview.NewFlex().SetDirection(tview.FlexRow)

	headerRow := tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(header, 0, 3, false).
		AddItem(search, 0, 1, false)
	root.AddItem(headerRow, 1, 0, false)
	root.AddItem(list, 0, 1, true)
	root.AddItem(footer, 1, 0, false)

	page := &eventPage{
		root:          root,
		header:        header,
		footer:        footer,
		search:        search,
		list:          list,
		buffer:        buffer,
		filterEnabled: filterEnabled,
		filterIndex:   0,
		searchFilter:  NewSearchFilter(ctx),
		title:         title,
		metrics:       metrics,
	}

	search.SetChangedFunc(func(text string) {
		page.searchFilter.SetQuery(text, func() {
			page.refresh()
		})
	})

	page.updateHeader()
	return page
}

func (p *eventPage) handleInput(event *tcell.EventKey, app *tview.Application) bool {
	if p == nil || event == nil {
		return false
	}
	switch event.Key() {
	case tcell.KeyUp:
		p.list.ScrollUp(1)
		return true
	case tcell.KeyDown:
		p.list.ScrollDown(1)
		return true
	case tcell.KeyPgUp:
		p.list.ScrollUp(10)
		return true
	case tcell.KeyPgDn:
		p.list.ScrollDown(10)
		return true
	case tcell.KeyHome:
		p.list.ScrollToStart()
		return true
	case tcell.KeyEnd:
		p.list.ScrollToEnd()
		return true
	case tcell.KeyEsc:
		p.search.SetText("")
		if app != nil {
			app.SetFocus(p.list)
		}
		return true
	}

	switch event.Rune() {
	case '/':
		if app != nil {
			app.SetFocus(p.search)
		}
		return true
	case 'k':
		p.list.ScrollUp(1)
		return true
	case 'j':
		p.list.ScrollDown(1)
		return true
	}

	if p.filterEnabled {
		switch event.Rune() {
		case '1', '2', '3', '4':
			p.filterIndex = int(event.Rune() - '1')
			p.refresh()
			return true
		}
	}
	return false
}

func (p *eventPage) refresh() {
	if p == nil || p.buffer == nil {
		return
	}
	snapshot := p.buffer.SnapshotInto(p.scratch)
	p.scratch = snapshot.Events

	indices := p.filterSnapshot(snapshot.Events)
	p.list.SetSnapshot(snapshot.Events, indices)
	p.updateFooter(snapshot.Events, indices)
}

func (p *eventPage) filterSnapshot(events []StyledEvent) []int {
	if len(events) == 0 {
		return nil
	}
	query := p.searchFilter.ActiveQuery()
	start := time.Time{}
	if query != "" && p.metrics != nil {
		start = time.Now()
	}
	indices := make([]int, 0, len(events))
	for i, event := range events {
		if p.filterEnabled && !matchFilter(p.filterIndex, event.Kind) {
			continue
		}
		if query != "" && !MatchQuery(event.Message, query) {
			continue
		}
		indices = append(indices, i)
		if query != "" && len(indices) >= maxSearchResults {
			break
		}
	}
	if !start.IsZero() {
		p.metrics.ObserveSearch(time.Since(start))
	}
	if len(indices) == len(events) && query == "" && !p.filterEnabled {
		return nil
	}
	return indices
}

func (p *eventPage) updateHeader() {
	if !p.filterEnabled {
		p.header.SetText(p.title)
		return
	}
	labels := []string{"All", "Success", "Failures", "System"}
	var b strings.Builder
	for i, label := range labels {
		if i == p.filterIndex {
			fmt.Fprintf(&b, "[yellow]%s[-] ", label)
		} else {
			fmt.Fprintf(&b, "%s ", label)
		}
	}
	p.header.SetText(strings.TrimSpace(b.String()))
}

func (p *eventPage) updateFooter(events []StyledEvent, indices []int) {
	p.updateHeader()
	count, maxCount, bytes, maxBytes := p.buffer.BufferUsage()
	drops := p.buffer.DropSnapshot()
	filtered := len(events)
	if indices != nil {
		filtered = len(indices)
	}
	p.footer.SetText(fmt.Sprintf("Showing: %d  Buffer: %d/%d  Bytes: %d/%d  Drops: O:%d E:%d B:%d",
		filtered, count, maxCount, bytes, maxBytes, drops.Oversized, drops.Evicted, drops.ByteLimit))
}

func matchFilter(filterIndex int, kind EventKind) bool {
	switch filterIndex {
	case 0:
		return true
	case 1:
		return kind == EventSuccess || kind == EventInfo
	case 2:
		return kind == EventFailure
	case 3:
		return kind == EventSystem
	default:
		return true
	}
}

func padLines(text string) string {
	if text == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line == "" {
			continue
		}
		lines[i] = " " + line
	}
	return strings.Join(lines, "\n")
}

func stripTags(s string) string {
	if s == "" {
		return ""
	}
	replacer := strings.NewReplacer(
		"[red]", "",
		"[green]", "",
		"[yellow]", "",
		"[blue]", "",
		"[#00afff]", "",
		"[magenta]", "",
		"[cyan]", "",
		"[white]", "",
		"[-]", "",
	)
	return replacer.Replace(s)
}

func accentText(text string) string {
	if text == "" {
		return ""
	}
	return accentTag + text + accentReset
}

package output

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"sync"
	"time"
)

type TaskLine struct {
	ID           int
	Label        string
	Status       string
	Message      string
	Downloaded   int64
	Total        int64 // -1 when the size is unknown
	Transferring bool
	Complete     bool
	StartTime    time.Time
	LastUpdated  time.Time
	Error        error
}

type ErrorReport struct {
	Label string
	Error error
	Time  time.Time
}

// Manager renders one line per task, redrawn in place on every tick. It is
// safe for concurrent use by many reporters.
type Manager struct {
	out         io.Writer
	tasks       map[int]*TaskLine
	mutex       sync.RWMutex
	numLines    int
	errors      []ErrorReport
	doneCh      chan struct{}
	displayTick time.Duration
	taskCount   int
	displayWg   sync.WaitGroup
	maxLabel    int
	redraw      bool
	started     bool
	stopOnce    sync.Once
}

func NewManager(out io.Writer) *Manager {
	return &Manager{
		out:         out,
		tasks:       make(map[int]*TaskLine),
		doneCh:      make(chan struct{}),
		displayTick: 200 * time.Millisecond,
		maxLabel:    40,
		redraw:      isTerminal(),
	}
}

func (m *Manager) SetMaxLabel(n int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if n > 0 {
		m.maxLabel = n
	}
}

func (m *Manager) Register(label string) int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.taskCount++
	m.tasks[m.taskCount] = &TaskLine{
		ID:          m.taskCount,
		Label:       label,
		Status:      "pending",
		Total:       -1,
		StartTime:   time.Now(),
		LastUpdated: time.Now(),
	}
	return m.taskCount
}

func (m *Manager) update(id int, fn func(t *TaskLine)) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if t, ok := m.tasks[id]; ok {
		fn(t)
		t.LastUpdated = time.Now()
	}
}

func (m *Manager) SetLabel(id int, label string) {
	m.update(id, func(t *TaskLine) { t.Label = label })
}

func (m *Manager) SetMessage(id int, message string) {
	m.update(id, func(t *TaskLine) {
		t.Message = message
		if t.Status == "pending" {
			t.Status = "active"
		}
	})
}

func (m *Manager) SetStatus(id int, status string) {
	m.update(id, func(t *TaskLine) { t.Status = status })
}

func (m *Manager) SetTotal(id int, total int64) {
	m.update(id, func(t *TaskLine) { t.Total = total })
}

func (m *Manager) StartTransfer(id int) {
	m.update(id, func(t *TaskLine) {
		t.Transferring = true
		t.StartTime = time.Now()
	})
}

func (m *Manager) AddProgress(id int, delta int64) {
	m.update(id, func(t *TaskLine) { t.Downloaded += delta })
}

func (m *Manager) GetStatus(id int) string {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if t, ok := m.tasks[id]; ok {
		return t.Status
	}
	return "unknown"
}

func (m *Manager) Complete(id int, message string) {
	m.update(id, func(t *TaskLine) {
		if message == "" {
			message = fmt.Sprintf("Completed %s", t.Label)
		}
		t.Message = message
		t.Transferring = false
		t.Complete = true
		t.Status = "success"
	})
}

func (m *Manager) ReportError(id int, err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if t, ok := m.tasks[id]; ok {
		t.Complete = true
		t.Transferring = false
		t.Status = "error"
		t.Error = err
		t.Message = err.Error()
		t.LastUpdated = time.Now()
		m.errors = append(m.errors, ErrorReport{
			Label: t.Label,
			Error: err,
			Time:  time.Now(),
		})
	}
}

func (m *Manager) Errors() []ErrorReport {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	out := make([]ErrorReport, len(m.errors))
	copy(out, m.errors)
	return out
}

func (m *Manager) statusIndicator(status string) string {
	switch status {
	case "success":
		return successStyle.Render(StyleSymbols["pass"])
	case "error":
		return errorStyle.Render(StyleSymbols["fail"])
	case "warning":
		return warningStyle.Render(StyleSymbols["warning"])
	case "pending":
		return pendingStyle.Render(StyleSymbols["pending"])
	default:
		return infoStyle.Render(StyleSymbols["arrow"])
	}
}

func (m *Manager) styledMessage(status, message string) string {
	switch status {
	case "success":
		return successStyle.Render(message)
	case "error":
		return errorStyle.Render(message)
	case "warning":
		return warningStyle.Render(message)
	default:
		return pendingStyle.Render(message)
	}
}

func (m *Manager) sortTasks() (active, pending, completed []*TaskLine) {
	all := make([]*TaskLine, 0, len(m.tasks))
	for _, t := range m.tasks {
		all = append(all, t)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].ID < all[j].ID
	})
	for _, t := range all {
		switch {
		case t.Complete:
			completed = append(completed, t)
		case t.Status == "pending":
			pending = append(pending, t)
		default:
			active = append(active, t)
		}
	}
	return active, pending, completed
}

func (m *Manager) progressLine(t *TaskLine) string {
	elapsed := time.Since(t.StartTime).Seconds()
	speed := FormatSpeed(t.Downloaded, elapsed)
	if t.Total > 0 {
		text := fmt.Sprintf("%s / %s", FormatBytes(uint64(t.Downloaded)), FormatBytes(uint64(t.Total)))
		return fmt.Sprintf("%s%s %s %s", ProgressBar(t.Downloaded, t.Total, 30), debugStyle.Render(text), StyleSymbols["bullet"], debugStyle.Render(speed))
	}
	return debugStyle.Render(fmt.Sprintf("%s %s %s", FormatBytes(uint64(t.Downloaded)), StyleSymbols["bullet"], speed))
}

func (m *Manager) writeTask(t *TaskLine, lines *int, limit int) {
	if *lines >= limit {
		return
	}
	indent := strings.Repeat(" ", 2)
	elapsed := time.Since(t.StartTime).Round(time.Second)
	if t.Complete {
		elapsed = t.LastUpdated.Sub(t.StartTime).Round(time.Second)
	}
	label := ShortenName(t.Label, m.maxLabel)
	message := t.Message
	if message == "" {
		message = label
	} else if label != "" && !t.Complete {
		message = fmt.Sprintf("%s %s %s", label, StyleSymbols["arrow"], message)
	}
	fmt.Fprintf(m.out, "%s%s %s %s\n", indent, m.statusIndicator(t.Status), debugStyle.Render(elapsed.String()), m.styledMessage(t.Status, message))
	*lines++
	if t.Transferring && *lines < limit {
		fmt.Fprintf(m.out, "%s%s\n", strings.Repeat(" ", 2+4), m.progressLine(t))
		*lines++
	}
}

func (m *Manager) updateDisplay() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	available := math.MaxInt
	if m.redraw {
		available = getTerminalHeight() - 3
	}
	if m.numLines > 0 && m.redraw {
		fmt.Fprintf(m.out, "\033[%dA\033[J", m.numLines)
	}
	active, pending, completed := m.sortTasks()

	needed := len(completed)
	if len(pending) > 0 {
		needed++
	}
	for _, t := range active {
		needed++
		if t.Transferring {
			needed++
		}
	}
	if needed > available {
		keep := max(available-(needed-len(completed)), 0)
		if len(completed) > keep {
			completed = completed[len(completed)-keep:]
		}
	}

	lines := 0
	for _, t := range active {
		m.writeTask(t, &lines, available)
	}
	if len(pending) > 0 && lines < available {
		fmt.Fprintf(m.out, "%s%s %s\n", strings.Repeat(" ", 2), m.statusIndicator("pending"), pendingStyle.Render(fmt.Sprintf("%d waiting...", len(pending))))
		lines++
	}
	for _, t := range completed {
		m.writeTask(t, &lines, available)
	}
	m.numLines = lines
}

// StartDisplay redraws on a ticker. Without a terminal the display is only
// drawn once, at StopDisplay.
func (m *Manager) StartDisplay() {
	m.started = true
	if !m.redraw {
		return
	}
	m.displayWg.Add(1)
	go func() {
		defer m.displayWg.Done()
		ticker := time.NewTicker(m.displayTick)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.updateDisplay()
			case <-m.doneCh:
				return
			}
		}
	}()
}

func (m *Manager) StopDisplay() {
	m.stopOnce.Do(func() {
		close(m.doneCh)
		m.displayWg.Wait()
		if m.started {
			m.updateDisplay()
		}
	})
}

func (m *Manager) ShowSummary() {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	var success, failures int
	for _, t := range m.tasks {
		switch t.Status {
		case "success":
			success++
		case "error":
			failures++
		}
	}
	fmt.Fprintln(m.out)
	fmt.Fprintln(m.out, strings.Repeat(" ", 2)+success2Style.Render(fmt.Sprintf("Completed %d of %d", success, len(m.tasks))))
	if failures > 0 {
		fmt.Fprintln(m.out, strings.Repeat(" ", 2)+errorStyle.Render(fmt.Sprintf("Failed %d of %d", failures, len(m.tasks))))
	}
}

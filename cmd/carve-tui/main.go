// Command carve-tui is an interactive wizard over the carving engine,
// adapted from the recovery CLI's terminal wizard: pick a source, an
// output directory, confirm, then watch the sweep progress live.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/shubham/sigcarve/internal/carver"
	"github.com/shubham/sigcarve/internal/device"
	"github.com/shubham/sigcarve/internal/signature"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true)
)

// State represents the current wizard screen.
type State int

const (
	StateWelcome State = iota
	StateSelectSource
	StateSelectDevice
	StateEnterPath
	StateSelectOutput
	StateConfirm
	StateRunning
	StateResults
)

// SourceType distinguishes a physical device from a disk image file.
type SourceType int

const (
	SourceDevice SourceType = iota
	SourceImage
)

type model struct {
	state State
	width int
	height int
	err   error

	sourceType SourceType
	sourceList list.Model

	devices        []device.Device
	deviceList     list.Model
	selectedDevice *device.Device

	pathInput textinput.Model
	imagePath string

	outputInput textinput.Model
	outputPath  string

	spinner  spinner.Model
	progress progress.Model
	statusMsg string

	cancel context.CancelFunc

	resultCount int
}

type sourceItem struct{ name, desc string }

func (i sourceItem) Title() string       { return i.name }
func (i sourceItem) Description() string { return i.desc }
func (i sourceItem) FilterValue() string { return i.name }

type deviceItem struct{ device device.Device }

func (i deviceItem) Title() string { return fmt.Sprintf("%s - %s", i.device.Path, i.device.Name) }
func (i deviceItem) Description() string {
	return fmt.Sprintf("%s | %s", i.device.SizeHuman, i.device.Filesystem)
}
func (i deviceItem) FilterValue() string { return i.device.Path }

type devicesLoadedMsg struct {
	devices []device.Device
	err     error
}

type scanProgressMsg struct {
	current, total int64
	ch              chan scanProgressMsg
	doneCh          chan scanDoneMsg
}

type scanDoneMsg struct {
	count int
	err   error
}

func initialModel() model {
	sourceItems := []list.Item{
		sourceItem{name: "Physical device", desc: "Scan a connected drive (USB, HDD, SSD)"},
		sourceItem{name: "Disk image", desc: "Scan a .img, .dd, or .raw file"},
	}
	sourceList := list.New(sourceItems, list.NewDefaultDelegate(), 0, 0)
	sourceList.Title = "Select a source"
	sourceList.SetShowStatusBar(false)
	sourceList.SetFilteringEnabled(false)

	pathInput := textinput.New()
	pathInput.Placeholder = "/path/to/disk.img"
	pathInput.Focus()
	pathInput.Width = 50

	outputInput := textinput.New()
	outputInput.Placeholder = "./recovered"
	outputInput.SetValue("./recovered")
	outputInput.Width = 50

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))

	return model{
		state:       StateWelcome,
		sourceList:  sourceList,
		pathInput:   pathInput,
		outputInput: outputInput,
		spinner:     s,
		progress:    progress.New(progress.WithDefaultGradient()),
		outputPath:  "./recovered",
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.state != StateRunning {
				return m, tea.Quit
			}
			if m.cancel != nil {
				m.cancel()
			}
		case "esc":
			if m.state > StateWelcome && m.state != StateRunning {
				m.state--
				return m, nil
			}
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.sourceList.SetSize(msg.Width-4, msg.Height-10)
		m.progress.Width = msg.Width - 8
		if m.deviceList.Items() != nil {
			m.deviceList.SetSize(msg.Width-4, msg.Height-10)
		}
		return m, nil

	case devicesLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.devices = msg.devices
		items := make([]list.Item, len(msg.devices))
		for i, d := range msg.devices {
			items[i] = deviceItem{device: d}
		}
		m.deviceList = list.New(items, list.NewDefaultDelegate(), m.width-4, m.height-10)
		m.deviceList.Title = "Select device"
		m.deviceList.SetShowStatusBar(false)
		m.deviceList.SetFilteringEnabled(true)
		m.state = StateSelectDevice
		return m, nil

	case scanProgressMsg:
		var pct float64
		if msg.total > 0 {
			pct = float64(msg.current) / float64(msg.total)
		}
		return m, tea.Batch(m.progress.SetPercent(pct), waitForActivity(msg.ch, msg.doneCh))

	case scanDoneMsg:
		m.state = StateResults
		m.resultCount = msg.count
		if msg.err != nil {
			m.err = msg.err
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		pm, cmd := m.progress.Update(msg)
		m.progress = pm.(progress.Model)
		return m, cmd
	}

	switch m.state {
	case StateWelcome:
		return m.updateWelcome(msg)
	case StateSelectSource:
		return m.updateSelectSource(msg)
	case StateSelectDevice:
		return m.updateSelectDevice(msg)
	case StateEnterPath:
		return m.updateEnterPath(msg)
	case StateSelectOutput:
		return m.updateSelectOutput(msg)
	case StateConfirm:
		return m.updateConfirm(msg)
	case StateRunning:
		return m, nil
	case StateResults:
		return m.updateResults(msg)
	}

	return m, nil
}

func (m model) updateWelcome(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		m.state = StateSelectSource
	}
	return m, nil
}

func (m model) updateSelectSource(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		selected := m.sourceList.SelectedItem()
		if selected != nil {
			if strings.Contains(selected.(sourceItem).name, "device") {
				m.sourceType = SourceDevice
				return m, loadDevices()
			}
			m.sourceType = SourceImage
			m.state = StateEnterPath
			m.pathInput.Focus()
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.sourceList, cmd = m.sourceList.Update(msg)
	return m, cmd
}

func (m model) updateSelectDevice(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		selected := m.deviceList.SelectedItem()
		if selected != nil {
			dev := selected.(deviceItem).device
			m.selectedDevice = &dev
			m.imagePath = dev.Path
			m.state = StateSelectOutput
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.deviceList, cmd = m.deviceList.Update(msg)
	return m, cmd
}

func (m model) updateEnterPath(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		path := m.pathInput.Value()
		if path != "" {
			if strings.HasPrefix(path, "~") {
				home, _ := os.UserHomeDir()
				path = filepath.Join(home, path[1:])
			}
			m.imagePath = path
			m.state = StateSelectOutput
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.pathInput, cmd = m.pathInput.Update(msg)
	return m, cmd
}

func (m model) updateSelectOutput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		path := m.outputInput.Value()
		if path != "" {
			if strings.HasPrefix(path, "~") {
				home, _ := os.UserHomeDir()
				path = filepath.Join(home, path[1:])
			}
			m.outputPath = path
			m.state = StateConfirm
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.outputInput, cmd = m.outputInput.Update(msg)
	return m, cmd
}

func (m model) updateConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "y", "Y", "enter":
			m.state = StateRunning
			m.statusMsg = "Scanning..."
			progressCh := make(chan scanProgressMsg, 8)
			doneCh := make(chan scanDoneMsg, 1)
			ctx, cancel := context.WithCancel(context.Background())
			m.cancel = cancel
			return m, tea.Batch(m.spinner.Tick, runScan(ctx, m.imagePath, m.outputPath, progressCh, doneCh), waitForActivity(progressCh, doneCh))
		case "n", "N":
			m.state = StateSelectSource
		}
	}
	return m, nil
}

func (m model) updateResults(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "enter", "q":
			return m, tea.Quit
		case "r":
			return initialModel(), nil
		}
	}
	return m, nil
}

func loadDevices() tea.Cmd {
	return func() tea.Msg {
		devs, err := device.List()
		return devicesLoadedMsg{devices: devs, err: err}
	}
}

// runScan starts the carving sweep on a background goroutine, feeding
// progress and completion back over channels a waitForActivity loop
// turns into tea.Msg values.
func runScan(ctx context.Context, source, outputDir string, progressCh chan scanProgressMsg, doneCh chan scanDoneMsg) tea.Cmd {
	return func() tea.Msg {
		go func() {
			opts := carver.NewOptions()
			hooks := carver.Hooks{
				Progress: func(current, total int64) {
					select {
					case progressCh <- scanProgressMsg{current: current, total: total, ch: progressCh, doneCh: doneCh}:
					default:
					}
				},
				Stop: new(atomic.Bool),
			}
			c, err := carver.New(source, outputDir, signature.DefaultSet(), opts, hooks)
			if err != nil {
				doneCh <- scanDoneMsg{err: err}
				return
			}
			count := 0
			for res := range c.Scan(ctx) {
				if res.OK {
					count++
				}
			}
			doneCh <- scanDoneMsg{count: count}
		}()
		return nil
	}
}

func waitForActivity(progressCh chan scanProgressMsg, doneCh chan scanDoneMsg) tea.Cmd {
	return func() tea.Msg {
		select {
		case p := <-progressCh:
			return p
		case d := <-doneCh:
			return d
		}
	}
}

func (m model) View() string {
	var s strings.Builder
	s.WriteString(titleStyle.Render(" Signature Carver "))
	s.WriteString("\n\n")

	switch m.state {
	case StateWelcome:
		s.WriteString(m.viewWelcome())
	case StateSelectSource:
		s.WriteString(m.sourceList.View())
	case StateSelectDevice:
		s.WriteString(m.deviceList.View())
	case StateEnterPath:
		s.WriteString(m.viewEnterPath())
	case StateSelectOutput:
		s.WriteString(m.viewSelectOutput())
	case StateConfirm:
		s.WriteString(m.viewConfirm())
	case StateRunning:
		s.WriteString(m.viewRunning())
	case StateResults:
		s.WriteString(m.viewResults())
	}

	if m.err != nil {
		s.WriteString("\n\n")
		s.WriteString(errorStyle.Render("Error: " + m.err.Error()))
	}

	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render("Press q to quit • esc to go back"))
	return s.String()
}

func (m model) viewWelcome() string {
	var s strings.Builder
	s.WriteString(subtitleStyle.Render("Welcome"))
	s.WriteString("\n\n")
	s.WriteString("Recover files from a raw disk image or device by\n")
	s.WriteString("scanning for known file-format signatures.\n\n")
	s.WriteString(lipgloss.NewStyle().Bold(true).Render("Important:"))
	s.WriteString(" the source is only ever opened read-only.\n\n")
	s.WriteString(selectedStyle.Render("Press Enter to continue..."))
	return s.String()
}

func (m model) viewEnterPath() string {
	var s strings.Builder
	s.WriteString(subtitleStyle.Render("Enter disk image path"))
	s.WriteString("\n\n")
	s.WriteString(m.pathInput.View())
	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render("Press Enter to continue"))
	return s.String()
}

func (m model) viewSelectOutput() string {
	var s strings.Builder
	s.WriteString(subtitleStyle.Render("Select output directory"))
	s.WriteString("\n\n")
	s.WriteString(m.outputInput.View())
	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render("Press Enter to continue"))
	return s.String()
}

func (m model) viewConfirm() string {
	var s strings.Builder
	s.WriteString(subtitleStyle.Render("Confirm scan settings"))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("  Source: %s\n", m.imagePath))
	s.WriteString(fmt.Sprintf("  Output: %s\n", m.outputPath))
	s.WriteString("\n")
	s.WriteString(selectedStyle.Render("Press Y to start, N to go back"))
	return s.String()
}

func (m model) viewRunning() string {
	var s strings.Builder
	s.WriteString(m.spinner.View())
	s.WriteString(" ")
	s.WriteString(m.statusMsg)
	s.WriteString("\n\n")
	s.WriteString(m.progress.View())
	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render("Press q to cancel"))
	return s.String()
}

func (m model) viewResults() string {
	var s strings.Builder
	if m.err != nil {
		s.WriteString(errorStyle.Render("Scan failed"))
		s.WriteString("\n\n")
		s.WriteString(fmt.Sprintf("Error: %v\n", m.err))
	} else {
		s.WriteString(successStyle.Render("Scan complete"))
		s.WriteString("\n\n")
		s.WriteString(fmt.Sprintf("Recovered %d files to %s\n", m.resultCount, m.outputPath))
	}
	s.WriteString("\n")
	s.WriteString(helpStyle.Render("Press r to run again • q to quit"))
	return s.String()
}

func main() {
	p := tea.NewProgram(initialModel(), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

// Command ntfsrecover-tui is an interactive terminal front end for the
// ntfsrecover engine: pick a source, enter patterns, pick an output
// directory, watch progress, and review results.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ntfsgo/mftrecover/internal/bootsect"
	"github.com/ntfsgo/mftrecover/internal/device"
	"github.com/ntfsgo/mftrecover/internal/disk"
	"github.com/ntfsgo/mftrecover/internal/mft"
	"github.com/ntfsgo/mftrecover/internal/recovery"
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

// State represents the current screen.
type State int

const (
	StateWelcome State = iota
	StateSelectSource
	StateSelectDevice
	StateEnterPath
	StateEnterPatterns
	StateSelectOutput
	StateConfirm
	StateRunning
	StateResults
)

// SourceType distinguishes a physical device from an image file.
type SourceType int

const (
	SourceDevice SourceType = iota
	SourceImage
)

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

type recoveryCompleteMsg struct {
	entries []recovery.FileEntry
	err     error
}

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

	patternsInput textinput.Model
	patterns      []string

	outputInput textinput.Model
	outputPath  string

	spinner   spinner.Model
	statusMsg string

	entries []recovery.FileEntry
}

func initialModel() model {
	sourceItems := []list.Item{
		sourceItem{name: "Physical Device", desc: "Recover from a connected drive (USB, HDD, SSD)"},
		sourceItem{name: "Disk Image", desc: "Recover from an .img, .dd, or .raw file"},
	}
	sourceList := list.New(sourceItems, list.NewDefaultDelegate(), 0, 0)
	sourceList.Title = "Select Recovery Source"
	sourceList.SetShowStatusBar(false)
	sourceList.SetFilteringEnabled(false)

	pathInput := textinput.New()
	pathInput.Placeholder = "/path/to/disk.img"
	pathInput.Focus()
	pathInput.Width = 50

	patternsInput := textinput.New()
	patternsInput.Placeholder = "*.docx,*important*  (comma-separated, blank = list only)"
	patternsInput.Width = 60

	outputInput := textinput.New()
	outputInput.Placeholder = "./recovered"
	outputInput.SetValue("./recovered")
	outputInput.Width = 50

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))

	return model{
		state:         StateWelcome,
		sourceList:    sourceList,
		pathInput:     pathInput,
		patternsInput: patternsInput,
		outputInput:   outputInput,
		spinner:       s,
		outputPath:    "./recovered",
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
		case "esc":
			if m.state > StateWelcome && m.state != StateRunning {
				m.state--
				return m, nil
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.sourceList.SetSize(msg.Width-4, msg.Height-10)
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
		m.deviceList.Title = "Select Device"
		m.deviceList.SetShowStatusBar(false)
		m.deviceList.SetFilteringEnabled(true)
		m.state = StateSelectDevice
		return m, nil

	case recoveryCompleteMsg:
		m.state = StateResults
		m.entries = msg.entries
		if msg.err != nil {
			m.err = msg.err
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
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
	case StateEnterPatterns:
		return m.updateEnterPatterns(msg)
	case StateSelectOutput:
		return m.updateSelectOutput(msg)
	case StateConfirm:
		return m.updateConfirm(msg)
	case StateRunning:
		return m.updateRunning(msg)
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
			if strings.Contains(selected.(sourceItem).name, "Device") {
				m.sourceType = SourceDevice
				return m, m.loadDevices()
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
			d := selected.(deviceItem).device
			m.selectedDevice = &d
			m.imagePath = d.Path
			m.state = StateEnterPatterns
			m.patternsInput.Focus()
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
			m.state = StateEnterPatterns
			m.patternsInput.Focus()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.pathInput, cmd = m.pathInput.Update(msg)
	return m, cmd
}

func (m model) updateEnterPatterns(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		raw := strings.TrimSpace(m.patternsInput.Value())
		m.patterns = nil
		if raw != "" {
			for _, p := range strings.Split(raw, ",") {
				p = strings.TrimSpace(p)
				if p != "" {
					m.patterns = append(m.patterns, p)
				}
			}
		}
		if len(m.patterns) == 0 {
			m.state = StateConfirm
		} else {
			m.state = StateSelectOutput
			m.outputInput.Focus()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.patternsInput, cmd = m.patternsInput.Update(msg)
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
			m.statusMsg = "Parsing MFT..."
			return m, tea.Batch(m.spinner.Tick, m.runRecovery())
		case "n", "N":
			m.state = StateSelectSource
		}
	}
	return m, nil
}

func (m model) updateRunning(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
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

func (m model) loadDevices() tea.Cmd {
	return func() tea.Msg {
		devices, err := device.List()
		return devicesLoadedMsg{devices: devices, err: err}
	}
}

func (m model) runRecovery() tea.Cmd {
	return func() tea.Msg {
		r, err := disk.Open(m.imagePath)
		if err != nil {
			return recoveryCompleteMsg{err: err}
		}
		defer r.Close()

		sig, err := disk.DetectNTFSSignature(r)
		if err != nil {
			return recoveryCompleteMsg{err: err}
		}
		if sig == disk.SignatureCloned {
			r.Close()
			stripped, err := disk.StripClonedImage(m.imagePath)
			if err != nil {
				return recoveryCompleteMsg{err: err}
			}
			r, err = disk.Open(stripped)
			if err != nil {
				return recoveryCompleteMsg{err: err}
			}
			defer r.Close()
		} else if sig == disk.SignatureNone {
			return recoveryCompleteMsg{err: fmt.Errorf("not an NTFS volume")}
		}

		if len(m.patterns) > 0 {
			if err := os.MkdirAll(m.outputPath, 0o755); err != nil {
				return recoveryCompleteMsg{err: err}
			}
		}

		image, bs, err := recovery.Bootstrap(r, recovery.BootstrapOptions{
			Overrides: bootsect.Overrides{},
		})
		if err != nil {
			return recoveryCompleteMsg{err: err}
		}

		stream := mft.BuildStream(image, bs.BytesPerCluster)
		driver := recovery.NewDriver(stream, r, recovery.Options{
			Patterns: m.patterns,
			OutDir:   m.outputPath,
		})

		entries, err := driver.Run()
		return recoveryCompleteMsg{entries: entries, err: err}
	}
}

func (m model) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(" NTFS Recovery Tool "))
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
	case StateEnterPatterns:
		s.WriteString(m.viewEnterPatterns())
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
	s.WriteString(helpStyle.Render("Press q to quit - esc to go back"))

	return s.String()
}

func (m model) viewWelcome() string {
	var s strings.Builder
	s.WriteString(subtitleStyle.Render("Welcome"))
	s.WriteString("\n\n")
	s.WriteString("This tool recovers files from NTFS volumes by parsing the\n")
	s.WriteString("Master File Table directly, without the OS's NTFS driver.\n\n")
	s.WriteString(lipgloss.NewStyle().Bold(true).Render("Important:"))
	s.WriteString(" this tool is READ-ONLY and will not modify your drive.\n")
	s.WriteString("For best results, recover from a disk image rather than a live device.\n\n")
	s.WriteString(selectedStyle.Render("Press Enter to continue..."))
	return s.String()
}

func (m model) viewEnterPath() string {
	var s strings.Builder
	s.WriteString(subtitleStyle.Render("Enter Disk Image Path"))
	s.WriteString("\n\n")
	s.WriteString(m.pathInput.View())
	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render("Press Enter to continue"))
	return s.String()
}

func (m model) viewEnterPatterns() string {
	var s strings.Builder
	s.WriteString(subtitleStyle.Render("Patterns to Recover"))
	s.WriteString("\n\n")
	s.WriteString("Enter one or more glob patterns, comma-separated. Leave blank\n")
	s.WriteString("to only list matching records without recovering them.\n\n")
	s.WriteString(m.patternsInput.View())
	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render("Press Enter to continue"))
	return s.String()
}

func (m model) viewSelectOutput() string {
	var s strings.Builder
	s.WriteString(subtitleStyle.Render("Select Output Directory"))
	s.WriteString("\n\n")
	s.WriteString(m.outputInput.View())
	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render("Press Enter to continue"))
	return s.String()
}

func (m model) viewConfirm() string {
	var s strings.Builder
	s.WriteString(subtitleStyle.Render("Confirm Recovery Settings"))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("  Source:   %s\n", m.imagePath))
	if len(m.patterns) == 0 {
		s.WriteString("  Mode:     List only\n")
	} else {
		s.WriteString(fmt.Sprintf("  Patterns: %s\n", strings.Join(m.patterns, ", ")))
		s.WriteString(fmt.Sprintf("  Output:   %s\n", m.outputPath))
	}
	s.WriteString("\n⚠️  The source will be opened in READ-ONLY mode.\n\n")
	s.WriteString(selectedStyle.Render("Press Y to start, N to go back"))
	return s.String()
}

func (m model) viewRunning() string {
	var s strings.Builder
	s.WriteString(m.spinner.View())
	s.WriteString(" ")
	s.WriteString(m.statusMsg)
	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render("This may take a while for large volumes..."))
	return s.String()
}

func (m model) viewResults() string {
	var s strings.Builder

	if m.err != nil {
		s.WriteString(errorStyle.Render("Recovery Failed"))
		s.WriteString("\n\n")
		s.WriteString(fmt.Sprintf("Error: %v\n", m.err))
	} else {
		s.WriteString(successStyle.Render("Recovery Complete"))
		s.WriteString("\n\n")
		s.WriteString(fmt.Sprintf("Matched %d record(s).\n", len(m.entries)))
		if len(m.patterns) > 0 {
			s.WriteString(fmt.Sprintf("Files saved to: %s\n", m.outputPath))
		}
		shown := m.entries
		if len(shown) > 15 {
			shown = shown[:15]
		}
		for _, e := range shown {
			s.WriteString("  " + e.Path + "\n")
		}
		if len(m.entries) > 15 {
			s.WriteString(fmt.Sprintf("  ... and %d more\n", len(m.entries)-15))
		}
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render("Press R to run again - Q to quit"))
	return s.String()
}

func main() {
	p := tea.NewProgram(initialModel(), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

// Package ui is the settings window and tray menu of the application shell.
package ui

import (
	"context"
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/genricoloni/movingwallpaper/internal/domain"
	"go.uber.org/zap"
)

const (
	// AppID is the reverse-DNS application identifier
	AppID = "io.github.genricoloni.movingwallpaper"
	// AppName is shown in the window title and tray menu
	AppName = "Moving Wallpaper"
)

// videoExtensions restricts the file chooser to MP4 files
var videoExtensions = []string{".mp4"}

// SettingsWindow shows detected displays and the active video and lets the
// user pick or reset a custom video
type SettingsWindow struct {
	logger   *zap.Logger
	app      fyne.App
	selector domain.VideoSelector
	status   domain.StatusProvider
	quit     func()

	window      fyne.Window
	displayList *fyne.Container
	videoIcon   *widget.Icon
	videoLabel  *widget.Label
	reset       *widget.Button
}

// NewSettingsWindow builds the window; it stays hidden until Start
func NewSettingsWindow(logger *zap.Logger, app fyne.App, selector domain.VideoSelector, status domain.StatusProvider) *SettingsWindow {
	s := &SettingsWindow{
		logger:   logger,
		app:      app,
		selector: selector,
		status:   status,
		quit:     app.Quit,
	}
	s.build()
	return s
}

// SetQuitHandler replaces the tray Quit action
func (s *SettingsWindow) SetQuitHandler(fn func()) {
	s.quit = fn
}

func (s *SettingsWindow) build() {
	s.window = s.app.NewWindow(AppName)
	s.window.Resize(fyne.NewSize(550, 400))
	s.window.CenterOnScreen()

	// Background windows keep running: closing only hides settings
	s.window.SetCloseIntercept(func() {
		s.window.Hide()
	})

	s.displayList = container.NewVBox()
	s.videoIcon = widget.NewIcon(theme.WarningIcon())
	s.videoLabel = widget.NewLabel("")
	s.videoLabel.Wrapping = fyne.TextWrapBreak

	choose := widget.NewButtonWithIcon("Choose Video File...", theme.FolderOpenIcon(), s.chooseVideo)
	s.reset = widget.NewButtonWithIcon("Reset to Default", theme.ViewRefreshIcon(), s.resetVideo)

	content := container.NewVBox(
		widget.NewLabelWithStyle(AppName, fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewSeparator(),
		header("Detected Displays"),
		s.displayList,
		widget.NewSeparator(),
		header("Video Status"),
		container.NewBorder(nil, nil, s.videoIcon, nil, s.videoLabel),
		widget.NewSeparator(),
		header("Video Selection"),
		container.NewHBox(choose, s.reset),
	)

	s.window.SetContent(container.NewPadded(container.NewVScroll(content)))
}

func header(text string) *widget.Label {
	return widget.NewLabelWithStyle(text, fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
}

// Start subscribes to coordinator status, installs the tray menu and shows the window
func (s *SettingsWindow) Start(ctx context.Context) error {
	s.status.OnStatusChange(func(st domain.Status) {
		fyne.Do(func() { s.Refresh(st) })
	})
	s.Refresh(s.status.Status())

	if desk, ok := s.app.(desktop.App); ok {
		desk.SetSystemTrayMenu(s.trayMenu())
		desk.SetSystemTrayIcon(theme.ComputerIcon())
	} else {
		s.logger.Info("Tray icon not supported on this platform")
	}

	s.window.Show()
	return nil
}

// trayMenu offers the settings window and an explicit Quit
func (s *SettingsWindow) trayMenu() *fyne.Menu {
	settings := fyne.NewMenuItem("Settings…", s.Show)
	quit := fyne.NewMenuItem("Quit", func() {
		s.logger.Info("Quit requested from tray")
		s.quit()
	})
	quit.IsQuit = true

	return fyne.NewMenu(AppName, settings, fyne.NewMenuItemSeparator(), quit)
}

// Show brings the settings window to the front
func (s *SettingsWindow) Show() {
	s.window.Show()
	s.window.RequestFocus()
}

// Refresh renders a status snapshot. It must run on the fyne goroutine.
func (s *SettingsWindow) Refresh(st domain.Status) {
	s.displayList.RemoveAll()
	for _, line := range displayLines(st) {
		s.displayList.Add(container.NewHBox(widget.NewIcon(theme.ComputerIcon()), widget.NewLabel(line)))
	}
	s.displayList.Refresh()

	text, ok := describeVideo(st.Video)
	s.videoLabel.SetText(text)
	if ok {
		s.videoIcon.SetResource(theme.ConfirmIcon())
	} else {
		s.videoIcon.SetResource(theme.WarningIcon())
	}

	if st.Video.Source == domain.SourceCustom {
		s.reset.Enable()
	} else {
		s.reset.Disable()
	}
}

// displayLines lists one line per display, or a placeholder
func displayLines(st domain.Status) []string {
	if len(st.Displays) == 0 {
		return []string{"No displays detected"}
	}
	return st.Displays
}

// describeVideo renders the active video source and whether a video is playing
func describeVideo(ref domain.VideoReference) (string, bool) {
	switch {
	case ref.Source == domain.SourceCustom && ref.Present():
		return fmt.Sprintf("Custom video: %s", ref.Path), true
	case ref.Source == domain.SourceBundled && ref.Present():
		return fmt.Sprintf("%s (bundled)", ref.Name()), true
	default:
		return "wallpaper.mp4 not found (showing fallback)", false
	}
}

// chooseVideo opens an MP4-only file chooser
func (s *SettingsWindow) chooseVideo() {
	picker := dialog.NewFileOpen(func(r fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, s.window)
			return
		}
		if r == nil {
			return // Cancelled
		}
		path := r.URI().Path()
		if cerr := r.Close(); cerr != nil {
			s.logger.Debug("Failed to close picked file", zap.Error(cerr))
		}
		s.applySelection(path)
	}, s.window)
	picker.SetFilter(storage.NewExtensionFileFilter(videoExtensions))
	picker.Show()
}

// applySelection stores a custom video. The store applies it even when it
// cannot be persisted, so the error is only reported.
func (s *SettingsWindow) applySelection(path string) {
	s.logger.Info("Custom video selected", zap.String("path", path))
	if err := s.selector.Set(domain.VideoReference{Path: path, Source: domain.SourceCustom}); err != nil {
		dialog.ShowError(fmt.Errorf("the video is playing but could not be saved: %w", err), s.window)
	}
}

func (s *SettingsWindow) resetVideo() {
	s.logger.Info("Video reset to default")
	if err := s.selector.Clear(); err != nil {
		dialog.ShowError(fmt.Errorf("the default video is playing but the reset could not be saved: %w", err), s.window)
	}
}

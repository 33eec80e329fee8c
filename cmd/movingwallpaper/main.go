package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/genricoloni/movingwallpaper/internal/ui"
	"go.uber.org/fx"
)

func main() {
	// The fyne app owns the main thread, surfaces are created through it
	fyneApp := app.NewWithID(ui.AppID)

	fxApp := fx.New(
		AppOptions,
		fx.Provide(func() fyne.App { return fyneApp }),
	)

	// Handle graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Start the application
	if err := fxApp.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "movingwallpaper: %v\n", err)
		os.Exit(1)
	}

	var once sync.Once
	stop := func() {
		once.Do(func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), fxApp.StopTimeout())
			defer stopCancel()
			if err := fxApp.Stop(stopCtx); err != nil {
				fmt.Fprintf(os.Stderr, "movingwallpaper: %v\n", err)
			}
		})
	}

	// Tray Quit or a signal: tear down while the UI loop still runs, then end it
	go func() {
		select {
		case <-ctx.Done():
		case <-fxApp.Wait():
		}
		stop()
		fyne.Do(fyneApp.Quit)
	}()

	fyneApp.Run()

	// The UI loop can also end on its own (system quit)
	stop()
}

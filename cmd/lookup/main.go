package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/evyataryagoni/ipweather/internal/app"
	"github.com/evyataryagoni/ipweather/internal/config"
	"github.com/evyataryagoni/ipweather/internal/logger"
	"github.com/evyataryagoni/ipweather/internal/models"
)

// This tool runs one lookup from the command line and prints the display fields
// Usage: go run ./cmd/lookup [-reload] [-v] [ip or place name]
//
// With no query it looks up this machine's own IP. -reload then prints the
// default location, from the cache when the first lookup filled it.
// Logs go to stderr so stdout carries only the result
func main() {
	os.Exit(run())
}

func run() int {
	reload := flag.Bool("reload", false, "print the default location after the lookup")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Parse()

	appConfig := config.Load()

	level := "warn"
	if *verbose {
		level = "debug"
	}
	appLogger := logger.New(logger.Config{Level: level, Pretty: true, Output: os.Stderr})

	if err := appConfig.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	application, err := app.New(ctx, appConfig, nil, appLogger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		return 1
	}
	defer application.Close()

	query := strings.TrimSpace(strings.Join(flag.Args(), " "))
	controller := application.Sessions.Controller("cli")

	var display models.Display
	if query == "" {
		fmt.Println("🔎 Looking up this machine's IP...")
		display, err = controller.Load(ctx, "")
	} else {
		fmt.Printf("🔎 Looking up %q...\n", query)
		display, err = controller.Search(ctx, query)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %s (%v)\n", display.Error, err)
		return 1
	}
	printDisplay(display)

	if *reload {
		display, err = controller.ReloadDefault(ctx, "")
		if err != nil {
			fmt.Fprintf(os.Stderr, "❌ %s (%v)\n", display.Error, err)
			return 1
		}
		fmt.Println("\n🏠 Default location")
		printDisplay(display)
	}
	return 0
}

func printDisplay(d models.Display) {
	fmt.Printf("IP address: %s\n", d.IP)
	fmt.Printf("Location:   %s\n", d.Location)
	fmt.Printf("Timezone:   %s\n", d.Timezone)
	fmt.Printf("ISP:        %s\n", d.ISP)
	fmt.Printf("Weather:    %s\n", d.Weather)
	if d.Marker != nil {
		fmt.Printf("Map:        %.5f, %.5f (zoom %d)\n", d.Map.Center.Lat, d.Map.Center.Lng, d.Map.Zoom)
	}
	if d.DistanceKM != nil {
		fmt.Printf("Distance:   %.1f km from default location\n", *d.DistanceKM)
	}
}

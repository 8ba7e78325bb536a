// Command tourctl is a terminal client for the tour API. Selections and
// completion marks live in a local profile directory.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/careroute/tour-backend-go/internal/pkg/kv"
	"github.com/careroute/tour-backend-go/internal/pkg/tourapi"
	"github.com/careroute/tour-backend-go/internal/service/session"
	"github.com/joho/godotenv"
)

const usage = `usage: tourctl [flags] <command> [args]

commands:
  state                          show selections and completion marks
  actor employee <id>            act as an employee
  actor area <name>              act as a weekend area
  weekday <day>                  select the weekday
  areas                          list weekend areas
  appointments                   list appointments of the weekday
  routes                         list routes of the selection
  stops                          list resolved stops with completion marks
  toggle <appointment-id>        flip the completion mark
  clear [all]                    clear marks of the weekday, or all marks
  move <appointment-id> up|down  move a stop one position
  drag <appointment-id> <index>...
                                 drag a stop over indices and drop at the last;
                                 indices start at 0 (POS shown by stops, minus 1)
  optimize                       optimize the selection's routes

flags:
`

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using environment")
	}

	home, _ := os.UserHomeDir()
	fs := flag.NewFlagSet("tourctl", flag.ExitOnError)
	apiURL := fs.String("api", getEnv("TOUR_API_URL", "http://localhost:8080"), "tour API base URL")
	token := fs.String("token", os.Getenv("TOUR_API_TOKEN"), "access token")
	profileDir := fs.String("profile-dir", getEnv("TOUR_PROFILE_DIR", filepath.Join(home, ".tourctl")), "profile directory")
	profile := fs.String("profile", "default", "profile name")
	week := fs.Int("week", currentWeek(), "calendar week")
	timeout := fs.Duration("timeout", 30*time.Second, "request timeout")
	verbose := fs.Bool("v", false, "verbose logging")
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[1:])

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store, err := kv.NewFileStore(*profileDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "tourctl:", err)
		os.Exit(1)
	}
	sess, loadErr := session.Open(ctx, store, *profile)
	if loadErr != nil {
		slog.Warn("Failed to load profile", "profile", *profile, "error", loadErr)
	}

	a := newApp(tourapi.NewClient(*apiURL, *token, *timeout), sess, *week, os.Stdout)
	a.loadErr = loadErr
	if err := a.run(ctx, fs.Arg(0), fs.Args()[1:]); err != nil {
		if errors.Is(err, errUsage) {
			fs.Usage()
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "tourctl:", err)
		os.Exit(1)
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func currentWeek() int {
	_, week := time.Now().ISOWeek()
	return week
}

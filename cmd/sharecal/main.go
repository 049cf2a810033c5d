package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/crypto/bcrypt"

	"sharecal/internal/calendar"
	"sharecal/internal/capture"
	"sharecal/internal/config"
	appLog "sharecal/internal/log"
	"sharecal/internal/share"
	"sharecal/internal/store"
	"sharecal/internal/web"
)

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath   string
	listen       string
	debug        bool
	once         bool
	seed         bool
	hashPassword string
}

func main() {
	flags := parseFlags()

	// -hash-password prints a bcrypt hash for the basic_auth config block
	// and exits; no server is started.
	if flags.hashPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(flags.hashPassword), bcrypt.DefaultCost)
		if err != nil {
			appLog.Error("failed to hash password", err)
			os.Exit(1)
		}
		fmt.Println(string(hash))
		return
	}

	appLog.Info("sharecal starting", "version", "0.1.0")

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI --listen overrides config file listen if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	loc, err := time.LoadLocation(conf.Timezone)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", conf.Timezone)
		loc = time.Local
	}

	weekStart := time.Sunday
	if conf.WeekStart == "monday" {
		weekStart = time.Monday
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"week_start", conf.WeekStart,
		"db_path", conf.DBPath,
		"max_visible_bars", conf.MaxVisibleBars,
		"snapshot_cron", conf.Snapshot.Cron,
		"debug", flags.debug,
		"once", flags.once,
	)

	st, err := store.Open(conf.DBPath)
	if err != nil {
		appLog.Error("failed to open store", err, "db_path", conf.DBPath)
		os.Exit(1)
	}
	defer st.Close()

	if flags.seed {
		if err := seedDemoData(context.Background(), st); err != nil {
			appLog.Error("failed to seed demo data", err)
			os.Exit(1)
		}
		appLog.Info("demo data seeded", "db_path", conf.DBPath)
		return
	}

	resolver := share.NewResolver(st)
	engine := calendar.NewEngine(st, st, resolver, calendar.Options{
		Location:       loc,
		WeekStart:      weekStart,
		MaxVisibleBars: conf.MaxVisibleBars,
	})

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	// -once: run a single snapshot pass and exit without serving.
	if flags.once {
		if err := runSnapshot(ctx, conf, flags.debug); err != nil {
			appLog.Error("snapshot failed", err)
			os.Exit(1)
		}
		return
	}

	// Scheduled snapshot refresh, if configured.
	if conf.Snapshot.Cron != "" && conf.Snapshot.Viewer != "" {
		c := cron.New()
		_, err := c.AddFunc(conf.Snapshot.Cron, func() {
			if err := runSnapshot(ctx, conf, flags.debug); err != nil {
				appLog.Error("scheduled snapshot failed", err)
			}
		})
		if err != nil {
			appLog.Error("invalid snapshot cron spec", err, "cron", conf.Snapshot.Cron)
			os.Exit(1)
		}
		c.Start()
		defer c.Stop()
	}

	if err := web.StartServer(ctx, conf, st, engine, loc, flags.debug); err != nil {
		appLog.Error("HTTP server stopped", err)
		os.Exit(1)
	}

	appLog.Info("sharecal exiting")
}

// runSnapshot captures the /calendar page for the configured snapshot viewer
// into the configured output path.
func runSnapshot(ctx context.Context, conf *config.Config, debug bool) error {
	out := conf.Snapshot.OutputPath
	if debug {
		out = "./cache/preview.png"
		if err := os.MkdirAll("./cache", 0o755); err != nil {
			return err
		}
	}

	url := "http://" + conf.Listen + "/calendar?viewer=" + conf.Snapshot.Viewer

	appLog.Info("capturing calendar snapshot", "url", url, "output", out)
	return capture.CalendarPNG(ctx, capture.Options{
		URL:        url,
		OutputPath: out,
	})
}

// seedDemoData populates an empty database with two linked accounts and a
// handful of schedules so the /calendar page has something to render.
func seedDemoData(ctx context.Context, st *store.Store) error {
	if _, err := st.CreateAccount(ctx, "mina", "미나"); err != nil {
		return err
	}
	if _, err := st.CreateAccount(ctx, "june", "준"); err != nil {
		return err
	}
	if err := st.GrantShare(ctx, "june", "mina", "calendar", true); err != nil {
		return err
	}

	now := time.Now()
	monday := now.AddDate(0, 0, -int((now.Weekday()+6)%7))
	at := func(d, hour int) time.Time {
		base := monday.AddDate(0, 0, d)
		return time.Date(base.Year(), base.Month(), base.Day(), hour, 0, 0, 0, now.Location())
	}

	chores, err := st.CreateGroup(ctx, store.GroupRow{OwnerID: "mina", Name: "집안일"})
	if err != nil {
		return err
	}
	if _, err := st.CreateEntry(ctx, store.EntryRow{
		GroupID: chores, Title: "분리수거", StartAt: at(1, 19), EndAt: at(1, 20),
	}); err != nil {
		return err
	}
	if _, err := st.CreateEntry(ctx, store.EntryRow{
		GroupID: chores, Title: "운동", StartAt: at(0, 7), EndAt: at(0, 8),
		RRule: "FREQ=WEEKLY;BYDAY=MO,WE,FR",
	}); err != nil {
		return err
	}

	workout, err := st.CreateGroup(ctx, store.GroupRow{OwnerID: "june", Name: "일정"})
	if err != nil {
		return err
	}
	if _, err := st.CreateEntry(ctx, store.EntryRow{
		GroupID: workout, Title: "회의", StartAt: at(2, 14), EndAt: at(2, 15),
	}); err != nil {
		return err
	}

	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	_, err = st.CreateGroup(ctx, store.GroupRow{
		OwnerID: "mina", Name: "제주 여행", SingleSchedule: true,
		StartAt: day.AddDate(0, 0, 3), EndAt: day.AddDate(0, 0, 6), AllDay: true,
	})
	return err
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/sharecal/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.debug, "debug", false, "Use ./cache for snapshots and enable debug paths")
	flag.BoolVar(&cfg.once, "once", false, "Run one snapshot capture and exit")
	flag.BoolVar(&cfg.seed, "seed", false, "Populate the database with demo accounts and schedules, then exit")
	flag.StringVar(&cfg.hashPassword, "hash-password", "", "Print a bcrypt hash for the given password and exit")

	flag.Parse()

	return cfg
}

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/2beens/kegeltrainer/internal/client"
	"github.com/2beens/kegeltrainer/internal/export"
	"github.com/2beens/kegeltrainer/internal/kegel"
	"github.com/2beens/kegeltrainer/internal/localstore"
	"github.com/2beens/kegeltrainer/internal/logging"
	"github.com/2beens/kegeltrainer/internal/reminder"
	"github.com/2beens/kegeltrainer/internal/syncer"
	"github.com/2beens/kegeltrainer/internal/trainer"

	log "github.com/sirupsen/logrus"
)

const defaultServerURL = "http://localhost:8080"

func main() {
	serverURL := flag.String("server", defaultServerURL, "training data API address")
	dataDir := flag.String("data-dir", "", "local data directory (default ~/.kegeltrainer)")
	logLevel := flag.String("log-level", "error", "log level [trace | debug | info | warn | error]")
	flag.Parse()

	logging.Setup(logging.LoggerSetupParams{
		LogToStdout: true,
		LogLevel:    *logLevel,
	})

	if *dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatalf("resolve home dir: %s", err)
		}
		*dataDir = filepath.Join(home, ".kegeltrainer")
	}

	store, err := localstore.NewStore(*dataDir)
	if err != nil {
		log.Fatalf("open local store: %s", err)
	}

	userID := client.LoadOrCreateUserID(store)
	apiClient := client.NewClient(*serverURL, userID, &http.Client{Timeout: 10 * time.Second})
	syncManager := syncer.NewManager(syncer.ManagerParams{
		Store: store,
		Api:   apiClient,
	})

	cli := &trainerCli{
		store: store,
		api:   apiClient,
		sync:  syncManager,
	}

	command := flag.Arg(0)
	if command == "" {
		command = "help"
	}

	ctx := context.Background()
	switch command {
	case "run":
		cli.runSession(ctx)
	case "sessions":
		cli.listSessions(ctx)
	case "stats":
		cli.showStats(ctx)
	case "sync":
		cli.syncToCloud(ctx)
	case "pull":
		cli.pullFromCloud(ctx)
	case "sync-toggle":
		cli.toggleSync(flag.Arg(1))
	case "settings":
		cli.settings(flag.Args()[1:])
	case "preset":
		cli.applyPreset(ctx, flag.Arg(1))
	case "export":
		cli.export(flag.Args()[1:])
	case "import":
		cli.importData(flag.Args()[1:])
	case "reminder":
		cli.reminderCmd(flag.Args()[1:])
	case "help":
		printUsage()
	default:
		fmt.Printf("unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`usage: trainer [flags] <command>

commands:
  run                      run a training session
  sessions                 list training sessions
  stats                    show training stats
  sync                     push unsynced local sessions to the cloud
  pull                     pull all sessions from the cloud
  sync-toggle [on|off]     enable or disable cloud sync
  settings [flags]         show or change training settings
  preset <name>            apply a settings preset (beginner | intermediate | advanced)
  export [-format json|csv] [-out file]
  import -file <file> [-yes]
  reminder [-enable HH:MM | -disable]
`)
}

type trainerCli struct {
	store *localstore.Store
	api   *client.Client
	sync  *syncer.Manager
}

func (cli *trainerCli) loadSettings() kegel.Settings {
	settings := kegel.DefaultSettings()
	if _, err := cli.store.Get(localstore.KeySettings, &settings); err != nil {
		log.Errorf("load settings: %s", err)
	}
	return settings
}

// saveSettings persists locally always, then tries the cloud.
func (cli *trainerCli) saveSettings(ctx context.Context, settings kegel.Settings) {
	cli.store.Set(localstore.KeySettings, settings)
	if cli.sync.Enabled() && cli.sync.CheckConnection(ctx) {
		if err := cli.api.SaveSettings(ctx, settings); err != nil {
			log.Warnf("save settings to cloud: %s", err)
		}
	}
}

func (cli *trainerCli) runSession(ctx context.Context) {
	settings := cli.loadSettings()
	duration := kegel.ComputeDuration(settings)
	fmt.Printf("starting: %d sets x %d reps (%ds contract / %ds relax), ~%.1f min\n",
		settings.TotalSets, settings.RepsPerSet, settings.ContractTime, settings.RelaxTime, duration)

	done := make(chan kegel.Session, 1)
	tr := trainer.NewTrainer(trainer.TrainerParams{
		Settings: settings,
		Audio:    terminalBell{},
		OnPhaseChange: func(change trainer.PhaseChange) {
			if change.Phase == trainer.PhaseComplete {
				return
			}
			fmt.Printf("\r\033[K[%-8s] set %d/%d  rep %d/%d  %2ds ",
				change.Phase, change.Set, settings.TotalSets,
				change.Rep, settings.RepsPerSet, change.TimeLeft)
		},
		OnComplete: func(session kegel.Session) {
			done <- session
		},
	})

	chOsInterrupt := make(chan os.Signal, 1)
	signal.Notify(chOsInterrupt, os.Interrupt, syscall.SIGTERM)

	// the reminder check loop runs beside the session, it never touches the timer
	reminderCtx, reminderCancel := context.WithCancel(ctx)
	defer reminderCancel()
	go reminder.NewChecker(cli.store, terminalNotifier{}).Run(reminderCtx)

	tr.Start()

	select {
	case session := <-done:
		fmt.Printf("\r\033[Ksession complete: %.1f min on %s\n", session.Duration, session.Date)
		cli.sync.SaveSession(ctx, session)
	case sig := <-chOsInterrupt:
		fmt.Printf("\nsignal [%s] received, session aborted\n", sig)
		tr.Reset()
	}
}

func (cli *trainerCli) listSessions(ctx context.Context) {
	sessions := cli.sync.LoadSessions(ctx)
	if len(sessions) == 0 {
		fmt.Println("no sessions yet")
		return
	}
	for _, s := range sessions {
		fmt.Printf("%s  %d sets x %2d reps  %.1f min\n", s.Date, s.Sets, s.Reps, s.Duration)
	}
	fmt.Printf("total: %d\n", len(sessions))
}

func (cli *trainerCli) showStats(ctx context.Context) {
	stats := cli.sync.LoadStats(ctx)
	if stats == nil {
		local := kegel.ComputeLocalStats(cli.sync.LoadSessions(ctx), time.Now())
		stats = &local
	}
	fmt.Printf("days trained:   %d\n", stats.TotalDays)
	fmt.Printf("total sessions: %d\n", stats.TotalSessions)
	fmt.Printf("total time:     %d min\n", stats.TotalTime)
	fmt.Printf("streak:         %d day(s)\n", stats.Streak)
}

func (cli *trainerCli) syncToCloud(ctx context.Context) {
	result, err := cli.sync.SyncToCloud(ctx)
	if err != nil {
		fmt.Printf("sync failed: %s\n", err)
		os.Exit(1)
	}
	fmt.Printf("synced %d/%d session(s), %d failed\n", result.SuccessCount, result.Total, result.FailCount)
}

func (cli *trainerCli) pullFromCloud(ctx context.Context) {
	count, err := cli.sync.PullFromCloud(ctx)
	if err != nil {
		fmt.Printf("pull failed: %s\n", err)
		os.Exit(1)
	}
	fmt.Printf("pulled %d session(s) from the cloud\n", count)
}

func (cli *trainerCli) toggleSync(arg string) {
	switch arg {
	case "on":
		cli.sync.ToggleSync(true)
		fmt.Println("cloud sync enabled")
	case "off":
		cli.sync.ToggleSync(false)
		fmt.Println("cloud sync disabled")
	case "":
		fmt.Printf("cloud sync enabled: %t\n", cli.sync.Enabled())
	default:
		fmt.Println("usage: trainer sync-toggle [on|off]")
		os.Exit(1)
	}
}

func (cli *trainerCli) settings(args []string) {
	settings := cli.loadSettings()

	fs := flag.NewFlagSet("settings", flag.ExitOnError)
	reps := fs.Int("reps", settings.RepsPerSet, "reps per set")
	sets := fs.Int("sets", settings.TotalSets, "total sets")
	contract := fs.Int("contract", settings.ContractTime, "contract seconds")
	relax := fs.Int("relax", settings.RelaxTime, "relax seconds")
	rest := fs.Int("rest", settings.RestTime, "rest between sets, seconds")
	sound := fs.Bool("sound", settings.SoundEnabled, "sound on phase changes")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if len(args) == 0 {
		fmt.Printf("reps per set:  %d\n", settings.RepsPerSet)
		fmt.Printf("total sets:    %d\n", settings.TotalSets)
		fmt.Printf("contract time: %ds\n", settings.ContractTime)
		fmt.Printf("relax time:    %ds\n", settings.RelaxTime)
		fmt.Printf("rest time:     %ds\n", settings.RestTime)
		fmt.Printf("sound:         %t\n", settings.SoundEnabled)
		fmt.Printf("duration:      ~%.1f min\n", kegel.ComputeDuration(settings))
		return
	}

	settings.RepsPerSet = *reps
	settings.TotalSets = *sets
	settings.ContractTime = *contract
	settings.RelaxTime = *relax
	settings.RestTime = *rest
	settings.SoundEnabled = *sound

	if err := settings.Validate(); err != nil {
		fmt.Printf("invalid settings: %s\n", err)
		os.Exit(1)
	}

	cli.saveSettings(context.Background(), settings)
	fmt.Println("settings saved")
}

func (cli *trainerCli) applyPreset(ctx context.Context, name string) {
	presets := kegel.Presets()
	preset, ok := presets[strings.ToLower(name)]
	if !ok {
		var names []string
		for presetName := range presets {
			names = append(names, presetName)
		}
		sort.Strings(names)
		fmt.Printf("unknown preset [%s], available: %s\n", name, strings.Join(names, ", "))
		os.Exit(1)
	}

	// presets change the training plan, not the sound or reminder choices
	settings := cli.loadSettings()
	settings.RepsPerSet = preset.RepsPerSet
	settings.TotalSets = preset.TotalSets
	settings.ContractTime = preset.ContractTime
	settings.RelaxTime = preset.RelaxTime
	settings.RestTime = preset.RestTime

	cli.saveSettings(ctx, settings)
	fmt.Printf("preset [%s] applied, ~%.1f min per session\n", name, kegel.ComputeDuration(settings))
}

func (cli *trainerCli) export(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	format := fs.String("format", "json", "export format [json | csv]")
	out := fs.String("out", "", "output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	var data []byte
	var err error
	switch *format {
	case "json":
		data, err = export.JSON(cli.store)
	case "csv":
		data, err = export.CSV(cli.store)
	default:
		fmt.Printf("unknown format: %s\n", *format)
		os.Exit(1)
	}
	if err != nil {
		fmt.Printf("export failed: %s\n", err)
		os.Exit(1)
	}

	if *out == "" {
		fmt.Println(string(data))
		return
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		fmt.Printf("write export file: %s\n", err)
		os.Exit(1)
	}
	fmt.Printf("exported to %s\n", *out)
}

func (cli *trainerCli) importData(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	file := fs.String("file", "", "JSON export file to import")
	yes := fs.Bool("yes", false, "skip the overwrite confirmation")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if *file == "" {
		fmt.Println("usage: trainer import -file <file> [-yes]")
		os.Exit(1)
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		fmt.Printf("read import file: %s\n", err)
		os.Exit(1)
	}

	if !*yes {
		fmt.Print("importing overwrites all local sessions and settings, continue? [y/N] ")
		var answer string
		_, _ = fmt.Scanln(&answer)
		if !strings.EqualFold(answer, "y") {
			fmt.Println("import cancelled")
			return
		}
	}

	count, err := export.ImportJSON(cli.store, data)
	if err != nil {
		fmt.Printf("import failed: %s\n", err)
		os.Exit(1)
	}
	fmt.Printf("imported %d session(s)\n", count)
}

func (cli *trainerCli) reminderCmd(args []string) {
	fs := flag.NewFlagSet("reminder", flag.ExitOnError)
	enableAt := fs.String("enable", "", "enable the daily reminder at HH:MM")
	disable := fs.Bool("disable", false, "disable the daily reminder")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	checker := reminder.NewChecker(cli.store, terminalNotifier{})
	switch {
	case *enableAt != "":
		if err := checker.Enable(*enableAt); err != nil {
			fmt.Printf("enable reminder: %s\n", err)
			os.Exit(1)
		}
		fmt.Printf("daily reminder set for %s\n", *enableAt)
	case *disable:
		checker.Disable()
		fmt.Println("daily reminder disabled")
	default:
		var state reminder.State
		if _, err := cli.store.Get(localstore.KeyReminders, &state); err != nil {
			fmt.Printf("read reminder state: %s\n", err)
			os.Exit(1)
		}
		if state.Enabled {
			fmt.Printf("daily reminder enabled at %s\n", state.Time)
		} else {
			fmt.Println("daily reminder disabled")
		}
	}
}

// terminalBell rings the terminal bell instead of playing audio files.
type terminalBell struct{}

func (terminalBell) Play(string) error {
	fmt.Print("\a")
	return nil
}

type terminalNotifier struct{}

func (terminalNotifier) Notify(title, body string) error {
	fmt.Printf("%s: %s\n", title, body)
	return nil
}

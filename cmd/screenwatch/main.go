package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	hook "github.com/robotn/gohook"
	"github.com/spf13/viper"

	"github.com/minsu-lab/screenwatch/internal/input"
	"github.com/minsu-lab/screenwatch/internal/logging"
	"github.com/minsu-lab/screenwatch/internal/monitor"
	"github.com/minsu-lab/screenwatch/internal/ocr"
	"github.com/minsu-lab/screenwatch/internal/registry"
	"github.com/minsu-lab/screenwatch/internal/screen"
	"github.com/minsu-lab/screenwatch/internal/vision"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// settings holds the CLI configuration, read from screenwatch.yaml and
// SCREENWATCH_* environment overrides.
type settings struct {
	// Tasks is the path of the target registry document.
	Tasks string `mapstructure:"tasks"`
	// Interval is the polling cadence in seconds.
	Interval float64 `mapstructure:"interval"`
	// Language is the Tesseract language string, e.g. "eng+kor".
	Language string `mapstructure:"language"`
	// LogFile mirrors status lines to a file when set.
	LogFile string `mapstructure:"log_file"`
	// Hotkey toggles pause/resume while the loop runs.
	Hotkey string `mapstructure:"hotkey"`
}

func loadSettings() (settings, error) {
	viper.SetConfigName("screenwatch")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.SetEnvPrefix("SCREENWATCH")
	viper.AutomaticEnv()

	viper.SetDefault("tasks", "config/targets.json")
	viper.SetDefault("interval", 1.0)
	viper.SetDefault("language", "eng+kor")
	viper.SetDefault("log_file", "")
	viper.SetDefault("hotkey", "f8")

	if err := viper.ReadInConfig(); err != nil {
		// Running without a config file is fine; everything has a default.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return settings{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var s settings
	if err := viper.Unmarshal(&s); err != nil {
		return settings{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return s, nil
}

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("screenwatch %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("screenwatch - watches the screen and acts on registered targets")
			fmt.Println()
			fmt.Println("Usage: screenwatch [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Configuration is read from screenwatch.yaml in the working")
			fmt.Println("directory; SCREENWATCH_* environment variables override it:")
			fmt.Println("  tasks      registry document path (default config/targets.json)")
			fmt.Println("  interval   polling cadence in seconds (default 1)")
			fmt.Println("  language   Tesseract languages (default eng+kor)")
			fmt.Println("  log_file   mirror status lines to a file")
			fmt.Println("  hotkey     pause/resume toggle key (default f8)")
			return
		}
	}

	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cfg, err := loadSettings()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	logs, err := logging.New(cfg.LogFile)
	if err != nil {
		log.Fatalf("Log setup error: %v", err)
	}
	defer logs.Close()

	reg := registry.NewManager(cfg.Tasks)
	if err := reg.Load(); err != nil {
		logs.Errorf("registry %s is unreadable, starting empty: %v", cfg.Tasks, err)
	}
	logs.Infof("loaded %d target(s), %d group(s) from %s",
		len(reg.Targets()), len(reg.Groups()), cfg.Tasks)

	locator := ocr.NewLocator(ocr.NewTesseract(cfg.Language), logs.Infof)

	eng, err := monitor.New(monitor.Config{
		Registry:   reg,
		Templates:  vision.NewTemplateCache(),
		Locator:    locator,
		Dispatcher: input.New(input.NewRobot()),
		Capture:    screen.Capture,
		Sink:       logs.Line,
		Interval:   time.Duration(cfg.Interval * float64(time.Second)),
	})
	if err != nil {
		log.Fatalf("Engine setup error: %v", err)
	}

	if err := eng.Start(); err != nil {
		log.Fatalf("Start error: %v", err)
	}

	go watchHotkey(cfg.Hotkey, eng)
	logs.Infof("press %s to pause/resume, ctrl+c to quit", cfg.Hotkey)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	hook.End()
	eng.Stop()
}

// watchHotkey toggles the engine's pause state on every press of key. It
// blocks on the global event stream until hook.End is called.
func watchHotkey(key string, eng *monitor.Engine) {
	hook.Register(hook.KeyDown, []string{key}, func(hook.Event) {
		eng.Toggle()
	})
	s := hook.Start()
	<-hook.Process(s)
}

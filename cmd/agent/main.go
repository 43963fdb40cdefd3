package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"bling-controller/internal/agent"
	"bling-controller/internal/config"
)

// These variables will be set by the build script
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "bling-agent",
	Short: "Drive an addressable LED strip from bling commands",
	Long: `Runs the LED strip controller: a web UI and JSON API, MQTT and Home Assistant
integration, cron schedules and Lua scripts, all feeding one command processor.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		log.Printf("Starting Bling Controller Agent version: %s, commit: %s, built: %s", version, commit, date)

		a, err := agent.NewAgent(cfg)
		if err != nil {
			return fmt.Errorf("failed to create agent: %w", err)
		}

		go a.Run()
		notify(daemon.SdNotifyReady)

		waitForSignal()

		log.Println("Shutting down agent...")
		notify(daemon.SdNotifyStopping)
		a.Shutdown()
		log.Println("Agent shut down gracefully.")
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "config.json", "Path to the JSON config file")
	flags.Int("leds", 0, "Number of LEDs on the strip")
	flags.Int("segments", 0, "Number of identical physical segments (0 = not segmented)")
	flags.Int("brightness", 0, "Strip brightness 0-255")
	flags.String("driver", "", "LED driver: memory, lpd8806, terminal or ble")
	flags.Bool("debug", false, "Log with microsecond timestamps and file positions")

	rootCmd.AddCommand(menuCmd, sendCmd)
}

// loadConfig reads the config file and applies any flags given on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	flags := cmd.Flags()
	path, _ := flags.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if flags.Changed("leds") {
		cfg.Strip.NumLEDs, _ = flags.GetInt("leds")
	}
	if flags.Changed("segments") {
		cfg.Strip.NumSegments, _ = flags.GetInt("segments")
	}
	if flags.Changed("brightness") {
		b, _ := flags.GetInt("brightness")
		cfg.Strip.Brightness = &b
	}
	if flags.Changed("driver") {
		cfg.Strip.Driver, _ = flags.GetString("driver")
	}
	if flags.Changed("debug") {
		cfg.Debug, _ = flags.GetBool("debug")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Debug {
		log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	}
	return cfg, nil
}

// notify reports the agent's state to systemd when it runs as a Type=notify unit.
func notify(state string) {
	if _, err := daemon.SdNotify(false, state); err != nil {
		log.Printf("systemd notify failed: %v", err)
	}
}

func waitForSignal() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

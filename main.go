// Package main provides the entry point for the voicelink CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/voicelink/pkg/voice"
	"github.com/dgnsrekt/voicelink/ui"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	serverURL  string
	voiceName  string
	debug      bool
	mockAudio  bool

	keyword = lipgloss.NewStyle().Foreground(lipgloss.Color("#AD58B4")).Render

	rootCmd = &cobra.Command{
		Use:   "voicelink",
		Short: "Talk to a voice agent from your terminal",
		Long: fmt.Sprintf(
			"\nOpen a %s to a voice agent service: your microphone streams up, the agent's speech streams back, gaplessly.",
			keyword("live audio session"),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.NoArgs,
		RunE:             execute,
	}
)

// envOverrides are environment-variable overrides applied on top of
// the config file but below command-line flags.
type envOverrides struct {
	ServerURL string `env:"VOICELINK_SERVER_URL"`
	Voice     string `env:"VOICELINK_VOICE"`
	Debug     bool   `env:"VOICELINK_DEBUG"`
}

// buildConfig assembles the effective configuration: file, then
// environment, then flags.
func buildConfig(cmd *cobra.Command) (*voice.Config, error) {
	cfg, err := voice.LoadConfig()
	if err != nil {
		return nil, err
	}

	overrides, err := env.ParseAs[envOverrides]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if overrides.ServerURL != "" {
		cfg.Server.URL = overrides.ServerURL
	}
	if overrides.Voice != "" {
		cfg.Agent.Voice = overrides.Voice
	}
	if overrides.Debug {
		cfg.Advanced.DebugLogging = true
	}

	if cmd.Flags().Changed("url") {
		cfg.Server.URL = serverURL
	}
	if cmd.Flags().Changed("voice") {
		cfg.Agent.Voice = voiceName
	}
	if cmd.Flags().Changed("debug") {
		cfg.Advanced.DebugLogging = debug
	}
	if cmd.Flags().Changed("mock-audio") {
		cfg.Audio.MockDevices = mockAudio
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func execute(cmd *cobra.Command, _ []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("voicelink needs an interactive terminal")
	}

	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if err := voice.InitializeLogging(cfg.Advanced.DebugLogging); err != nil {
		return err
	}

	return ui.Run(cfg)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.Flags().StringVarP(&serverURL, "url", "u", "", "voice agent websocket endpoint")
	rootCmd.Flags().StringVar(&voiceName, "voice", "", "voice the agent speaks with")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "write debug logs to ~/.config/voicelink/debug.log")
	rootCmd.Flags().BoolVar(&mockAudio, "mock-audio", false, "use mock audio devices instead of hardware")

	_ = viper.BindPFlag("server.url", rootCmd.Flags().Lookup("url"))
	_ = viper.BindPFlag("agent.voice", rootCmd.Flags().Lookup("voice"))
	_ = viper.BindPFlag("advanced.debug_logging", rootCmd.Flags().Lookup("debug"))
	_ = viper.BindPFlag("audio.mock_devices", rootCmd.Flags().Lookup("mock-audio"))

	rootCmd.AddCommand(configCmd, manCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "voicelink")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "voicelink")}, dirs...)
	}

	if c := os.Getenv("VOICELINK_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("voicelink")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", used)
		return
	}

	if len(dirs) > 0 {
		configFile = filepath.Join(dirs[0], "config.yml")
	}
}

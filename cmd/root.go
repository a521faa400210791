package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kozaktomas/photo-framer/internal/config"
	"github.com/kozaktomas/photo-framer/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "photo-framer",
	Short: "Profile photo framing with face checks",
	Long: `Photo Framer lets a user upload a profile photo, pan and zoom it inside a
fixed circular frame, and checks that exactly one face is centred and sized
within the accepted range before the framed photo is saved.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initLogging(cmd)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error); overrides LOG_LEVEL")
	rootCmd.PersistentFlags().String("log-file", "", "Also write logs to this rotated file; overrides LOG_FILE")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}

// initLogging configures the process logger from config and the persistent flags.
func initLogging(cmd *cobra.Command) {
	cfg := config.Load()
	level := cfg.Log.Level
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		level = v
	}
	file := cfg.Log.File
	if v, _ := cmd.Flags().GetString("log-file"); v != "" {
		file = v
	}
	logging.Init(logging.Options{Level: level, File: file})
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const app = "scorectl"

var rootCmd = &cobra.Command{
	Use:           app,
	Short:         "scorectl scores resumes against a job description without running the HTTP server",
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute executes the root command. An interrupt cancels resumes that are
// still being scored.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("LOG_DEBUG", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("LOG_JSON", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	if err := godotenv.Load(); err != nil {
		log.Println("Could not load .env file")
	}
	viper.AutomaticEnv()
}

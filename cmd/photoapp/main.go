// Package main (in photoapp-subfolder) is a command-line client for the photo API
package main

import (
	"os"
	"time"

	"github.com/UnendingLoop/PhotoApp/internal/client"
	"github.com/spf13/cobra"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/zlog"
)

const defaultURL = "http://localhost:8080"

var (
	// адрес API; флаг важнее PHOTOAPP_URL
	baseURL string
	timeout time.Duration

	api *client.Client
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "photoapp",
	Short: "photoapp - client for the photo-sharing API",
	Long: "photoapp uploads images, downloads them back and queries the labels\n" +
		"detected for every uploaded image.",
	SilenceUsage:      true,
	PersistentPreRunE: initializeClient,
}

func main() {
	zlog.InitConsole()
	if err := zlog.SetLevel("warn"); err != nil {
		os.Exit(1)
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "", "API base URL (default $PHOTOAPP_URL or "+defaultURL+")")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Overall timeout for one command")

	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(imagesCmd)
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(thumbnailCmd)
	rootCmd.AddCommand(labelsCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(clearCmd)
}

func initializeClient(cmd *cobra.Command, args []string) error {
	if baseURL == "" {
		appConfig := config.New()
		appConfig.EnableEnv("")
		baseURL = appConfig.GetString("PHOTOAPP_URL")
	}
	if baseURL == "" {
		baseURL = defaultURL
	}

	api = client.New(baseURL)
	return nil
}

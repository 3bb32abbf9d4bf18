package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kuzamma/surah-recognition-go/cmd/health"
	"github.com/kuzamma/surah-recognition-go/cmd/history"
	"github.com/kuzamma/surah-recognition-go/cmd/recognize"
	"github.com/kuzamma/surah-recognition-go/cmd/serve"
	"github.com/kuzamma/surah-recognition-go/internal/conf"
)

// RootCommand creates and returns the root command.
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "surah-recognition",
		Short: "Surah recognition CLI",
		Long:  `Recognize which of the supported surahs a recitation recording contains, using the remote classifier service.`,
	}

	setupFlags(rootCmd, settings)

	rootCmd.AddCommand(
		recognize.Command(settings),
		serve.Command(settings),
		history.Command(settings),
		health.Command(settings),
	)

	return rootCmd
}

func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&settings.Recognition.Endpoint, "endpoint", viper.GetString("recognition.endpoint"), "Base URL of the remote classifier service")
	rootCmd.PersistentFlags().IntVar(&settings.Recognition.UploadTimeout, "timeout", viper.GetInt("recognition.uploadtimeout"), "Upload deadline in seconds")

	_ = viper.BindPFlags(rootCmd.PersistentFlags())
}

// Package health implements the classifier availability check command.
package health

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kuzamma/surah-recognition-go/internal/classifier"
	"github.com/kuzamma/surah-recognition-go/internal/conf"
	"github.com/kuzamma/surah-recognition-go/internal/errors"
)

// Command creates the health command.
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Probe the remote classifier service",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := classifier.New(settings)
			defer client.Close()

			if client.ForceCheck(cmd.Context()) {
				fmt.Printf("Classifier at %s is reachable\n", settings.Recognition.Endpoint)
				return nil
			}
			return errors.Newf("classifier at %s is unreachable", settings.Recognition.Endpoint).
				Component("health").
				Category(errors.CategoryNetwork).
				Build()
		},
	}
}

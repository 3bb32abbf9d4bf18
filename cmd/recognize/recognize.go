// Package recognize implements the one-shot recognition command: validate a
// WAV recording, run it through the full pipeline, and print the outcome.
package recognize

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kuzamma/surah-recognition-go/internal/classifier"
	"github.com/kuzamma/surah-recognition-go/internal/conf"
	"github.com/kuzamma/surah-recognition-go/internal/datastore"
	"github.com/kuzamma/surah-recognition-go/internal/errors"
	"github.com/kuzamma/surah-recognition-go/internal/history"
	"github.com/kuzamma/surah-recognition-go/internal/myaudio"
	"github.com/kuzamma/surah-recognition-go/internal/recognition"
	"github.com/kuzamma/surah-recognition-go/internal/session"
)

// Command creates the recognize command.
func Command(settings *conf.Settings) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "recognize [input.wav]",
		Short: "Recognize the surah in a recording",
		Long:  `Upload a WAV recording to the remote classifier and print which surah it contains. The recording must be at least 13 seconds long.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), settings, args[0], asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}

func run(ctx context.Context, settings *conf.Settings, path string, asJSON bool) error {
	info, err := myaudio.ReadWAVInfo(path)
	if err != nil {
		return err
	}
	if formatErr := info.Validate(); formatErr != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", formatErr)
	}
	if maxSeconds := float64(settings.Recognition.MaxDuration); maxSeconds > 0 && info.Seconds() > maxSeconds {
		fmt.Fprintf(os.Stderr, "warning: recording is %.1fs, longer than the usual maximum of %.0fs\n",
			info.Seconds(), maxSeconds)
	}

	store, err := openStore(settings)
	if err != nil {
		return err
	}
	defer store.Close()

	ledger, err := history.NewLedger(store)
	if err != nil {
		return err
	}

	client := classifier.New(settings)
	defer client.Close()

	if !client.EnsureAvailable(ctx) {
		fmt.Fprintln(os.Stderr, "warning: classifier service is unreachable, result may be synthetic")
	}

	ctrl := session.NewController(client, ledger)
	if err := ctrl.StartRecording(); err != nil {
		return err
	}

	result, err := ctrl.FinishRecording(ctx, myaudio.NewFileSource(path), info.Seconds())
	if err != nil {
		if errors.HasCategory(err, errors.CategoryValidation) {
			return fmt.Errorf("recording is too short: %.1fs, need at least %ds", info.Seconds(), session.MinRecordingSeconds)
		}
		return err
	}

	if asJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}
	printResult(result)
	return nil
}

func printResult(result *recognition.Result) {
	if result.Recognized {
		fmt.Printf("Recognized: %s (%.0f%% confidence)\n", result.SurahName, result.Confidence)
		if s, ok := result.Surah(); ok {
			fmt.Printf("  %s — %s, %d verses\n", s.NameArabic, s.Meaning, s.Verses)
		}
	} else {
		fmt.Printf("Not recognized (%.0f%% confidence)\n", result.Confidence)
	}
	if result.Source == recognition.SourceFallback {
		fmt.Println("  note: classifier was unavailable, this result is synthetic")
	}
}

func openStore(settings *conf.Settings) (datastore.Store, error) {
	if settings.Output.SQLite.Enabled {
		return datastore.OpenSQLite(settings.Output.SQLite.Path)
	}
	return datastore.NewMemStore(), nil
}

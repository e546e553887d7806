package cli

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"quiz-session-engine/internal/catalog"
	"quiz-session-engine/internal/config"
)

// NewSeedCmd loads quiz records from a JSON file into the configured catalog.
func NewSeedCmd(configPath *string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import quizzes from a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			raw, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			var records []catalog.QuizRecord
			if err := json.Unmarshal(raw, &records); err != nil {
				return fmt.Errorf("parse %s: %w", file, err)
			}

			b := &backend{}
			defer b.Close()
			if err := openStorage(cmd.Context(), cfg, b); err != nil {
				return err
			}
			if b.catalog == nil {
				return fmt.Errorf("no persistent catalog configured; set postgres.url or sqlite.path")
			}
			for _, rec := range records {
				// reject what sessions could not load
				if rec.Published {
					if _, err := catalog.Decode(rec); err != nil {
						return fmt.Errorf("quiz %s: %w", rec.ID, err)
					}
				}
				if err := b.catalog.PutQuiz(cmd.Context(), rec); err != nil {
					return err
				}
			}
			log.Printf("seeded %d quizzes", len(records))
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "quizzes.json", "JSON array of quiz records")
	return cmd
}

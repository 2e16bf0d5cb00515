package cli

import (
	"fmt"

	"nexar-backend/internal/application/emails"
	"nexar-backend/internal/application/tasks"
	"nexar-backend/internal/interfaces/router"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func WorkerCmd() *cobra.Command {
	var concurrency int
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Process queued emails and listing image cleanups",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
			if err != nil {
				return fmt.Errorf("parse redis url: %w", err)
			}
			uploads, err := router.NewUploadService(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("concurrency") {
				concurrency = cfg.WorkerConcurrency
			}
			processor := &tasks.TaskProcessor{
				Sender:  &emails.BrevoClient{APIKey: cfg.SendinblueAPIKey, MailFrom: cfg.MailFrom},
				Cleaner: uploads,
			}
			log.Info().Int("concurrency", concurrency).Msg("worker starting")
			return tasks.NewServer(redisOpt, concurrency).Run(tasks.NewServeMux(processor))
		},
	}
	cmd.Flags().IntVar(&concurrency, "concurrency", 10, "number of tasks processed in parallel")
	return cmd
}

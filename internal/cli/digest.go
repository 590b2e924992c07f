package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/pulseboard/internal/config"
	"github.com/roach88/pulseboard/internal/digest"
	"github.com/roach88/pulseboard/internal/sink"
	"github.com/roach88/pulseboard/internal/store"
)

// NewDigestCommand creates the digest command: render a one-shot digest from
// the current store state, printing it or posting it to the webhook.
func NewDigestCommand(opts *RootOptions) *cobra.Command {
	var post bool

	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Print (or post) a digest of active tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}

			loc, err := time.LoadLocation(cfg.Timezone)
			if err != nil {
				return fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
			}

			persister, cleanup, err := openPersister(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			st := store.Open(persister)
			text := digest.New(st, loc).Generate(time.Now())

			if post {
				if cfg.Digest.WebhookURL == "" {
					return fmt.Errorf("--post requires a webhook URL in config")
				}
				return sink.NewWebhook(cfg.Digest.WebhookURL).Deliver(cmd.Context(), text)
			}

			fmt.Fprint(cmd.OutOrStdout(), text)
			return nil
		},
	}

	cmd.Flags().BoolVar(&post, "post", false, "deliver to the configured webhook instead of printing")
	return cmd
}

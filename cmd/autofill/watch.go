package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	watchProvider string
	watchHeadless bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep a provider tab open that picks up pending uploads",
	Long: `Opens the provider and fills every pending upload stored for it, whether
written before the page loaded or later by another autofill process, until
interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := providerProfile(watchProvider)
		if err != nil {
			return err
		}
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		session, err := newSession()
		if err != nil {
			return err
		}
		t, err := openTab(session, profile, watchHeadless || cfg.Chrome.Headless)
		if err != nil {
			return err
		}
		defer t.close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			select {
			case <-t.ctx.Done():
				cancel()
			case <-ctx.Done():
			}
		}()

		results := make(chan pageResult, 8)
		errc := make(chan error, 1)
		go func() {
			errc <- t.run(ctx, store, results)
		}()

		log.Info().Str("provider", string(profile.Provider)).Msg("watching for pending uploads, Ctrl+C to stop")
		for {
			select {
			case r := <-results:
				if r.session != nil {
					logSession(*r.session)
				} else {
					logSend(*r.send)
				}
			case err := <-errc:
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVarP(&watchProvider, "provider", "p", "", "AI chat web app (chatgpt, gemini, claude, aistudio)")
	watchCmd.Flags().BoolVar(&watchHeadless, "headless", false, "Run Chrome headless")
}

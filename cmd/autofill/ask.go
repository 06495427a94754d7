package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/dimchansky/utfbom"
	"github.com/koizuka/autofill"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	askProvider string
	askTemplate string
	askPrompt   string
	askFile     string
	askTitle    string
	askURL      string
	askSite     string
	askAttach   bool
	askHeadless bool
	askKeepOpen bool
)

var askCmd = &cobra.Command{
	Use:   "ask [text...]",
	Short: "Send content with an instruction to an AI chat web app",
	Long: `Builds the prompt from an instruction (a template or --prompt) and the content
(--file, the arguments, or stdin), stores it as the pending upload and opens the
provider. The page fills the composer and sends it once it has hydrated.

When the pending upload cannot be stored the prompt is copied to the clipboard
instead and the provider is opened for a manual paste.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		profile, err := providerProfile(askProvider)
		if err != nil {
			return err
		}
		content, err := readContent(cmd.InOrStdin(), askFile, args)
		if err != nil {
			return err
		}
		if strings.TrimSpace(content) == "" {
			return errors.New("nothing to send: give --file, text arguments or stdin")
		}

		instruction := askPrompt
		if instruction == "" {
			template := askTemplate
			if template == "" {
				template = cfg.DefaultTemplate
			}
			instruction = autofill.TemplateByID(template).Prompt
		}
		meta := autofill.SourceMeta{Title: askTitle, SiteName: askSite}
		if askURL != "" {
			u, ok := autofill.SanitizeURL(askURL)
			if !ok {
				return fmt.Errorf("--url %q is not an http(s) URL", askURL)
			}
			meta.URL = u
		}
		upload := autofill.BuildUpload(profile, instruction, content, meta, askAttach)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		store, err := deliver(ctx, upload)
		if err != nil {
			return err
		}
		if store != nil {
			defer store.Close()
		}

		session, err := newSession()
		if err != nil {
			return err
		}
		headless := askHeadless || cfg.Chrome.Headless
		t, err := openTab(session, profile, headless)
		if err != nil {
			return err
		}
		defer t.close()

		if store == nil {
			<-ctx.Done()
			return nil
		}

		runCtx, cancelRun := context.WithCancel(ctx)
		results := make(chan pageResult, 8)
		errc := make(chan error, 1)
		go func() {
			errc <- t.run(runCtx, store, results)
		}()

		err = waitDispatched(ctx, t.ctx, results)
		cancelRun()
		<-errc
		if err != nil {
			return err
		}

		if askKeepOpen && !headless {
			log.Info().Msg("press Ctrl+C to close the browser")
			select {
			case <-ctx.Done():
			case <-t.ctx.Done():
			}
		}
		return nil
	},
}

var (
	defaultCopyToClipboard = clipboard.WriteAll
	// copyToClipboard is replaced in tests.
	copyToClipboard = defaultCopyToClipboard
)

// deliver saves upload as the pending upload. When the store is unusable the
// prompt goes to the clipboard instead and the returned store is nil.
func deliver(ctx context.Context, upload autofill.PendingUpload) (*autofill.SQLiteStore, error) {
	store, err := openStore()
	if err == nil {
		err = autofill.SavePendingUpload(ctx, store, upload)
		if err == nil {
			return store, nil
		}
		store.Close()
	}
	log.Warn().Err(err).Msg("could not store the pending upload")
	if err := copyToClipboard(upload.Prompt); err != nil {
		return nil, fmt.Errorf("failed to copy the prompt to the clipboard: %w", err)
	}
	log.Info().Msg("prompt copied to the clipboard, paste it into the composer")
	return nil, nil
}

// waitDispatched returns once the page has sent the prompt or given up.
func waitDispatched(ctx, tabCtx context.Context, results <-chan pageResult) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tabCtx.Done():
			return fmt.Errorf("browser closed: %w", tabCtx.Err())
		case r := <-results:
			if r.send != nil {
				logSend(*r.send)
				if r.send.Outcome != autofill.SendClicked {
					return fmt.Errorf("send %v after %d attempt(s)", r.send.Outcome, r.send.Attempts)
				}
				return nil
			}
			logSession(*r.session)
			if r.session.Outcome != autofill.OutcomeFilled {
				return fmt.Errorf("prompt not filled: %v", r.session.Outcome)
			}
		}
	}
}

// readContent takes the content from file ("-" for stdin), else the
// arguments, else stdin.
func readContent(stdin io.Reader, file string, args []string) (string, error) {
	var r io.Reader
	switch {
	case file == "-":
		r = stdin
	case file != "":
		f, err := os.Open(file)
		if err != nil {
			return "", err
		}
		defer f.Close()
		r = f
	case len(args) > 0:
		return strings.Join(args, " "), nil
	default:
		r = stdin
	}
	b, err := io.ReadAll(utfbom.SkipOnly(r))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askProvider, "provider", "p", "", "AI chat web app (chatgpt, gemini, claude, aistudio)")
	askCmd.Flags().StringVarP(&askTemplate, "template", "t", "", "Prompt template id (see autofill templates)")
	askCmd.Flags().StringVar(&askPrompt, "prompt", "", "Instruction to use instead of a template")
	askCmd.Flags().StringVarP(&askFile, "file", "f", "", "Read the content from a file (- for stdin)")
	askCmd.Flags().StringVar(&askTitle, "title", "", "Title of the source, also names the attachment")
	askCmd.Flags().StringVar(&askURL, "url", "", "URL of the source")
	askCmd.Flags().StringVar(&askSite, "site", "", "Site name of the source")
	askCmd.Flags().BoolVar(&askAttach, "attach", false, "Also attach the raw content as a file where the provider supports it")
	askCmd.Flags().BoolVar(&askHeadless, "headless", false, "Run Chrome headless")
	askCmd.Flags().BoolVar(&askKeepOpen, "keep-open", true, "Keep the browser open after sending")
}

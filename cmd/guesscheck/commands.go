package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/park285/guesswho/internal/domain"
	"github.com/park285/guesswho/internal/game"
	"github.com/park285/guesswho/internal/genai"
	"github.com/park285/guesswho/internal/msgcat"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type geminiConfig struct {
	apiKey   string
	baseURL  string
	model    string
	timeout  time.Duration
	persona  string
	messages string
}

func newCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "guesscheck",
		Short:         "Offline checks for the guess detector and the Gemini persona backend.",
		Version:       releaseVersion,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.CompletionOptions.HiddenDefaultCmd = true
	root.SetHelpCommand(&cobra.Command{Hidden: true})

	root.AddCommand(newClassifyCmd(), newGeminiCmd())
	return root
}

func newClassifyCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "classify <display name> <message>",
		Short: "Show how a chat message is judged against a display name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, msg := args[0], args[1]
			d := game.NewDetector()
			outcome, rule := d.Judge(msg, name)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "outcome=%s rule=%s\n", outcome, orDash(string(rule)))
			if all {
				ids := d.MatchAll(msg, name)
				names := make([]string, len(ids))
				for i, id := range ids {
					names[i] = string(id)
				}
				fmt.Fprintf(out, "matched=%s\n", orDash(strings.Join(names, ",")))
			}
			fmt.Fprintf(out, "explicit=%t\n", game.MatchExplicit(msg, name))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "list every rule that matches, not just the first")
	return cmd
}

func newGeminiCmd() *cobra.Command {
	cfg := &geminiConfig{}
	v := viper.New()
	v.SetEnvPrefix("GUESSWHO")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "gemini <message>",
		Short: "Send one in-character message to the configured Gemini model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(cfg.apiKey) == "" {
				return fmt.Errorf("--gemini-api-key is required (env: GUESSWHO_GEMINI_API_KEY)")
			}
			cat, err := msgcat.New(cfg.messages)
			if err != nil {
				return err
			}
			client := genai.NewClient(cfg.baseURL, cfg.apiKey, cat,
				genai.WithModel(cfg.model),
				genai.WithTimeout(cfg.timeout),
				genai.WithRetry(1),
			)
			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.timeout+time.Second)
			defer cancel()
			reply, err := client.Generate(ctx, game.GenerateRequest{
				Persona: cfg.persona,
				History: []domain.ChatTurn{},
				Message: args[0],
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), reply)
			return nil
		},
	}

	fs := cmd.Flags()
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
	fs.StringVar(&cfg.apiKey, "gemini-api-key", "", "Gemini API key (env: GUESSWHO_GEMINI_API_KEY)")
	fs.StringVar(&cfg.baseURL, "gemini-base-url", "https://generativelanguage.googleapis.com/v1beta", "Gemini API base URL (env: GUESSWHO_GEMINI_BASE_URL)")
	fs.StringVar(&cfg.model, "gemini-model", "gemini-2.0-flash-exp", "model name (env: GUESSWHO_GEMINI_MODEL)")
	fs.DurationVar(&cfg.timeout, "timeout", 20*time.Second, "request timeout (env: GUESSWHO_TIMEOUT)")
	fs.StringVarP(&cfg.persona, "persona", "p", "I studied at MIT. My favorite hobby is sailing.", "persona description (env: GUESSWHO_PERSONA)")
	fs.StringVar(&cfg.messages, "messages-dir", "", "directory of message catalog overrides (env: GUESSWHO_MESSAGES_DIR)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
	return cmd
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

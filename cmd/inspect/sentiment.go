package main

import (
	"github.com/spf13/cobra"

	"solana-token-sentinel/internal/config"
	"solana-token-sentinel/internal/domain"
	"solana-token-sentinel/internal/sentiment"
	"solana-token-sentinel/internal/social"
	"solana-token-sentinel/internal/upstream"
)

func newSentimentCmd(opts *globalOptions) *cobra.Command {
	var (
		symbol string
		posts  int
	)
	cmd := &cobra.Command{
		Use:   "sentiment <mint>",
		Short: "Build a social sentiment report for a mint",
		Args:  mintArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			logger := opts.logger()

			tunables, err := config.LoadTunables(cfg.TunablesFile)
			if err != nil {
				return err
			}

			var sources []social.Source
			if cfg.Social.SocialDataKey != "" {
				sources = append(sources, social.NewSocialData(cfg.Social.SocialDataKey,
					upstream.New("socialdata", upstream.WithLogger(logger)),
					social.WithSocialDataURL(cfg.Social.SocialDataURL),
					social.WithMaxPosts(cfg.Social.MaxPosts),
				))
			}
			if cfg.Social.TwitterBearerToken != "" {
				sources = append(sources, social.NewTwitterV2(cfg.Social.TwitterBearerToken,
					upstream.New("twitter", upstream.WithLogger(logger)),
					social.WithTwitterMaxPosts(cfg.Social.MaxPosts),
				))
			}

			svc := sentiment.NewService(social.NewChain(logger, sources...), nil,
				sentiment.WithWeights(tunables.Sentiment),
				sentiment.WithLogger(logger),
			)
			report := svc.ReportFor(cmd.Context(), domain.PostQuery{Mint: args[0], Symbol: symbol})

			out := cmd.OutOrStdout()
			if opts.jsonOut {
				return writeJSON(out, report)
			}
			printSentiment(out, report, posts)
			return nil
		},
	}
	cmd.Flags().StringVar(&symbol, "symbol", "", "Token symbol to include as a cashtag")
	cmd.Flags().IntVar(&posts, "posts", 5, "Number of top posts to print")
	return cmd
}

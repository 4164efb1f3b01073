package main

import (
	"fmt"

	"coursemart/internal/config"
	"coursemart/internal/pubsub"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func pubsubCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pubsub",
		Short: "Manage the Pub/Sub resources for purchase events",
	}

	var topic string
	setupCmd := &cobra.Command{
		Use:   "setup",
		Short: "Create the purchase topic, its dead-letter topic and subscription",
		Long: "Create the purchase topic, its dead-letter topic and a pull subscription when they are missing.\n" +
			"Honours PUBSUB_EMULATOR_HOST for local development.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_ = godotenv.Load()
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if topic == "" {
				topic = cfg.PubSubPurchaseTopic
			}

			pub, err := pubsub.NewPublisher(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer pub.Close()

			created, err := pub.EnsurePurchaseTopic(cmd.Context(), topic)
			for _, name := range created {
				fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", name)
			}
			if err != nil {
				return err
			}
			if len(created) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is already set up\n", topic)
			}
			return nil
		},
	}
	setupCmd.Flags().StringVar(&topic, "topic", "", "topic to set up (defaults to PUBSUB_PURCHASE_TOPIC)")

	cmd.AddCommand(setupCmd)
	return cmd
}

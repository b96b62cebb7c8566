package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newIDsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ids",
		Short: "List every document identifier",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.run(cmd, func(ctx context.Context, svc Service) error {
				ids, err := svc.DocIDs(ctx)
				if err != nil {
					return fmt.Errorf("list documents: %w", err)
				}
				for _, id := range ids {
					fmt.Fprintln(cmd.OutOrStdout(), id)
				}
				return nil
			})
		},
	}
}

func newTextCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "text [id]",
		Short: "Print the text of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, svc Service) error {
				doc, err := svc.Document(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), doc.Text)
				return nil
			})
		},
	}
}

func newMetaCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "meta [id]",
		Short: "Print the metadata of a document as JSON",
		Long:  `Prints the metadata mapping of a document. Unknown identifiers print {}.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, svc Service) error {
				meta, err := svc.Metadata(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd, meta)
			})
		},
	}
}

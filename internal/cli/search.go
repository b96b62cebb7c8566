package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/docrank/internal/domain"
)

func newSearchCommand(opts *rootOptions) *cobra.Command {
	var (
		k      int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Rank documents against a query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, svc Service) error {
				ranking, err := svc.Search(ctx, args[0], k)
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(cmd, ranking)
				}
				printRanking(cmd, ranking)
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&k, "top-k", "k", 0, "number of results (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func newHighlightCommand(opts *rootOptions) *cobra.Command {
	var (
		k   int
		tag string
	)
	cmd := &cobra.Command{
		Use:   "highlight [query]",
		Short: "Rank documents and print raw hits with highlighted content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, svc Service) error {
				answers, err := svc.Highlight(ctx, args[0], k, tag)
				if err != nil {
					return err
				}
				return printJSON(cmd, answers)
			})
		},
	}
	cmd.Flags().IntVarP(&k, "top-k", "k", 0, "number of results (default from config)")
	cmd.Flags().StringVar(&tag, "tag", "", "highlight tag name (default em)")
	return cmd
}

// batchLine is one JSON line of batch output.
type batchLine struct {
	Query string `json:"query"`
	domain.Ranking
}

func newBatchCommand(opts *rootOptions) *cobra.Command {
	var k, workers int
	cmd := &cobra.Command{
		Use:   "batch [file]",
		Short: "Rank one query per line of a file (- for stdin)",
		Long: `Reads one query per line, skipping empty lines, ranks them concurrently and
prints one JSON object per query in input order.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			queries, err := readQueries(cmd, args[0])
			if err != nil {
				return err
			}
			return opts.run(cmd, func(ctx context.Context, svc Service) error {
				rankings, err := svc.SearchBatch(ctx, queries, k, workers)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				for i, r := range rankings {
					if err := enc.Encode(batchLine{Query: queries[i], Ranking: r}); err != nil {
						return fmt.Errorf("write result: %w", err)
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&k, "top-k", "k", 0, "number of results per query (default from config)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "worker pool size (default from config)")
	return cmd
}

func readQueries(cmd *cobra.Command, path string) ([]string, error) {
	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("open queries: %w", err)
		}
		defer f.Close()
		r = f
	}

	var queries []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimRight(sc.Text(), "\r"); line != "" {
			queries = append(queries, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read queries: %w", err)
	}
	return queries, nil
}

func printRanking(cmd *cobra.Command, r domain.Ranking) {
	if r.Len() == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No results found.")
		return
	}
	for i, id := range r.IDs {
		fmt.Fprintf(cmd.OutOrStdout(), "%d. %s (score: %.4f)\n", i+1, id, r.Scores[i])
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

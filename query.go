package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// printJSON writes v as indented JSON to the command's output.
func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <phrase>",
		Short: "Exact-phrase full-text search",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, client, err := setup(cmd)
			if err != nil {
				return err
			}
			res, err := client.Search(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
}

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <title>",
		Short: "Resolve a title and its redirect",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, client, err := setup(cmd)
			if err != nil {
				return err
			}
			page, err := client.ResolveTitle(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			return printJSON(cmd, page)
		},
	}
}

func candidatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "candidates <title>",
		Short: "List articles that mention a subject without linking to it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, client, err := setup(cmd)
			if err != nil {
				return err
			}
			res, err := client.Candidates(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
}

func backlinksCmd() *cobra.Command {
	var redirectsOnly bool

	cmd := &cobra.Command{
		Use:   "backlinks <title>",
		Short: "List articles and redirects linking to a title",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, client, err := setup(cmd)
			if err != nil {
				return err
			}
			title := strings.Join(args, " ")
			if redirectsOnly {
				titles, err := client.Redirects(cmd.Context(), title)
				if err != nil {
					return err
				}
				return printJSON(cmd, titles)
			}
			set, err := client.Backlinks(cmd.Context(), title)
			if err != nil {
				return err
			}
			return printJSON(cmd, set)
		},
	}

	cmd.Flags().BoolVar(&redirectsOnly, "redirects", false, "List only the redirects to the title")

	return cmd
}

func disambigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disambig <title>...",
		Short: "Print which of the given titles are disambiguation pages",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, client, err := setup(cmd)
			if err != nil {
				return err
			}
			found, err := client.FindDisambig(cmd.Context(), args)
			if err != nil {
				return err
			}
			for _, title := range found {
				fmt.Fprintln(cmd.OutOrStdout(), title)
			}
			return nil
		},
	}
}

func diffCmd() *cobra.Command {
	var (
		section int
		file    string
	)

	cmd := &cobra.Command{
		Use:   "diff <title>",
		Short: "Preview the diff between a section and proposed text",
		Long:  `Preview the diff between a section and proposed text. The text is read from --file, or from stdin when --file is "-". Nothing is saved.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readText(cmd, file)
			if err != nil {
				return err
			}
			_, _, client, err := setup(cmd)
			if err != nil {
				return err
			}
			diff, err := client.Diff(cmd.Context(), strings.Join(args, " "), section, text)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), diff)
			return nil
		},
	}

	cmd.Flags().IntVar(&section, "section", 0, "Section number (0 is the lead)")
	cmd.Flags().StringVar(&file, "file", "-", `File with the proposed wikitext ("-" for stdin)`)

	return cmd
}

func readText(cmd *cobra.Command, file string) (string, error) {
	var (
		data []byte
		err  error
	)
	if file == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return "", fmt.Errorf("read text: %w", err)
	}
	return string(data), nil
}

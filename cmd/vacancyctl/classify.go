package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"lawjobs-workers/internal/classification"
	"lawjobs-workers/internal/models"
)

func classifyCommand() *cobra.Command {
	var (
		employer string
		seeds    []string
	)
	cmd := &cobra.Command{
		Use:   "classify <description>",
		Short: "Run the tag and employer classifiers on a text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := classification.NewClassifier(classification.DefaultConfig())

			tags := c.ClassifyTags(args[0], seeds)
			var employerDescription *string
			if cmd.Flags().Changed("employer") {
				employerDescription = &employer
			}
			category := c.ClassifyEmployer(employerDescription)

			fmt.Fprintf(cmd.OutOrStdout(), "tags: %s\nemployer: %s\n", joinAreas(tags), category)
			return nil
		},
	}
	cmd.Flags().StringVar(&employer, "employer", "", "employer self-description")
	cmd.Flags().StringSliceVar(&seeds, "seed", nil, "seed keyword (repeatable)")
	return cmd
}

func joinAreas(tags []models.PracticeArea) string {
	if len(tags) == 0 {
		return "-"
	}
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = string(t)
	}
	return strings.Join(parts, ", ")
}

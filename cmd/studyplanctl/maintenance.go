package main

import (
	"fmt"
	"strings"
	"time"

	"alcyxob/intern-platform/internal/app"
	"alcyxob/intern-platform/internal/service"

	"github.com/spf13/cobra"
)

var ensureIndexesCmd = &cobra.Command{
	Use:   "ensure-indexes",
	Short: "Create the collection indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.store.EnsureIndexes(cmd.Context()); err != nil {
			return fmt.Errorf("ensure indexes: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Indexes are in place.")
		return nil
	},
}

var migrateSlugsCmd = &cobra.Command{
	Use:   "migrate-slugs",
	Short: "Backfill slugs on plans, days and lessons created without them",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		r := e.store.Repos
		report, err := service.NewSlugMigrator(r.Users, r.Plans, r.Lessons, e.log).Run(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Slugs written: %d plans, %d days, %d lessons\n", report.Plans, report.Days, report.Lessons)
		return nil
	},
}

var regenerateLessonCmd = &cobra.Command{
	Use:   "regenerate-lesson <topic>",
	Short: "Regenerate the cached lesson for a topic, bypassing the cache",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		svc, err := app.NewServices(cmd.Context(), &e.cfg, e.store, e.log)
		if err != nil {
			return err
		}
		lesson, err := svc.Lessons.Regenerate(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Regenerated %q as %s (%d questions, model %s)\n",
			lesson.DisplayTopic, lesson.Slug, len(lesson.Questions), lesson.Model)
		return nil
	},
}

var lessonsCmd = &cobra.Command{
	Use:   "lessons",
	Short: "Inspect the shared lesson cache",
}

var lessonsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached lessons",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt64("limit")
		offset, _ := cmd.Flags().GetInt64("offset")

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		lessons, total, err := e.store.Repos.Lessons.List(cmd.Context(), limit, offset)
		if err != nil {
			return fmt.Errorf("list lessons: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(lessons) == 0 {
			fmt.Fprintln(out, "No cached lessons.")
			return nil
		}

		fmt.Fprintf(out, "%-24s  %-32s  %-4s  %-12s  %s\n", "ID", "Slug", "Qs", "Model", "Updated")
		fmt.Fprintln(out, strings.Repeat("─", 96))
		for _, l := range lessons {
			slug := l.Slug
			if len(slug) > 32 {
				slug = slug[:32]
			}
			fmt.Fprintf(out, "%-24s  %-32s  %-4d  %-12s  %s\n",
				l.ID.Hex(), slug, len(l.Questions), l.Model, l.LastUpdated.Local().Format(time.DateTime))
		}
		fmt.Fprintf(out, "%d of %d shown\n", len(lessons), total)
		return nil
	},
}

func init() {
	lessonsListCmd.Flags().Int64("limit", 50, "Maximum number of lessons")
	lessonsListCmd.Flags().Int64("offset", 0, "Number of lessons to skip")
	lessonsCmd.AddCommand(lessonsListCmd)
}

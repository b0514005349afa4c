package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/abhisek/studypod/internal/course"
	"github.com/spf13/cobra"
)

var courseCmd = &cobra.Command{
	Use:   "course",
	Short: "Work with course directories",
}

var courseValidateCmd = &cobra.Command{
	Use:   "validate <dir>",
	Short: "Check that every subtopic in a course directory has a playable playlist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src := course.NewDirSource(args[0])
		o, problems, err := course.Validate(context.Background(), src)
		if err != nil {
			return fmt.Errorf("read course: %w", err)
		}

		title := o.Title
		if title == "" {
			title = o.CourseID
		}
		fmt.Printf("%s: %d modules, %d subtopics\n", title, len(o.Modules), o.SubtopicCount())

		if len(problems) == 0 {
			fmt.Println("All subtopics have a playlist.")
			return nil
		}

		fmt.Println()
		fmt.Printf("%-24s  %s\n", "Subtopic", "Problem")
		fmt.Println(strings.Repeat("─", 72))
		for _, p := range problems {
			fmt.Printf("%-24s  %s\n", truncate(p.SubtopicID, 24), p.Err)
		}
		return fmt.Errorf("%d of %d subtopics cannot be played", len(problems), o.SubtopicCount())
	},
}

var courseListCmd = &cobra.Command{
	Use:   "list <root>",
	Short: "List the courses under a library directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := course.NewLibrary(args[0]).Courses()
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			fmt.Println("No courses found.")
			return nil
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	},
}

func init() {
	courseCmd.AddCommand(courseValidateCmd)
	courseCmd.AddCommand(courseListCmd)
}

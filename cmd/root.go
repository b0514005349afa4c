package cmd

import (
	"github.com/abhisek/studypod/internal/store"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "studypod",
	Short: "Terminal course player",
	Long: "studypod plays interactive courses in the terminal: lessons, quick checks, open questions\n" +
		"graded by a tutor model, and coding exercises run in a sandbox, with a focus timer alongside.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides STUDYPOD_DB env var)")

	rootCmd.Flags().StringP("course", "c", "", "Course directory, or a course id served by the gateway (env STUDYPOD_COURSE)")
	rootCmd.Flags().StringP("gateway", "g", "", "Gateway base URL, e.g. http://localhost:8080 (env STUDYPOD_GATEWAY)")
	rootCmd.Flags().String("token", "", "Bearer token sent to the gateway (env STUDYPOD_TOKEN)")
	rootCmd.Flags().IntP("duration", "d", 25, "Focus timer length in minutes")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(courseCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then STUDYPOD_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

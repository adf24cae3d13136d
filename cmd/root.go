package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/matheuskafuri/blogpull/internal/update"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagConfig string
	flagBlog   string
	flagOut    string
	flagFetch  bool
)

var rootCmd = &cobra.Command{
	Use:   "blogpull",
	Short: "Open a post from one of your blogs",
	Long: `blogpull lists the most recent posts of a configured blog and hands the
one you pick back to you as markdown, ready to load into an editor.`,
	SilenceUsage: true,
	RunE:         runDialog,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")
	rootCmd.Flags().StringVar(&flagBlog, "blog", "", "preselect a blog by name")
	rootCmd.Flags().StringVarP(&flagOut, "out", "o", "", "write the chosen post to this file instead of stdout")
	rootCmd.Flags().BoolVar(&flagFetch, "fetch", false, "fetch posts as soon as the dialog opens")

	versionCmd.Flags().BoolVar(&flagCheckUpdate, "check", false, "check GitHub for a newer release")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(statsCmd)
}

var flagCheckUpdate bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "blogpull %s (commit: %s, built: %s)\n", version, commit, date)
		if !flagCheckUpdate {
			return
		}
		if res := update.Check(cmd.Context(), version); res != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Update available: v%s\n", res.LatestVersion)
		}
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}

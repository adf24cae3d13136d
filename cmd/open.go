package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var openCmd = &cobra.Command{
	Use:   "open <post-id>",
	Short: "Print a previously fetched post as markdown",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		defer e.close()

		post, err := e.db.GetPost(args[0])
		if err != nil {
			return fmt.Errorf("opening post: %w", err)
		}
		return writePost(cmd.OutOrStdout(), flagOpenOut, post)
	},
}

var flagOpenOut string

func init() {
	openCmd.Flags().StringVarP(&flagOpenOut, "out", "o", "", "write the post to this file instead of stdout")
}

/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"os"

	"github.com/rstms/imgfs/image"
	"github.com/spf13/cobra"
)

var lsCmd = &cobra.Command{
	Use:   "ls <img-file> [path]",
	Short: "List directory contents",
	Long: `List the contents of an image directory. Repeat -l to raise the
metadata verbosity; -r lists subdirectory contents recursively, like
tree.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		long, err := cmd.Flags().GetCount("long")
		if err != nil {
			return err
		}
		if long > image.MaxListLong {
			long = image.MaxListLong
		}
		recursive, err := cmd.Flags().GetBool("recursive")
		if err != nil {
			return err
		}
		innerPath := "/"
		if len(args) > 1 {
			innerPath = args[1]
		}
		return withImage(args[0], func(img *image.Image) error {
			return img.List(os.Stdout, innerPath, image.ListOptions{
				Long:      long,
				Recursive: recursive,
			})
		})
	},
}

func init() {
	rootCmd.AddCommand(lsCmd)
	lsCmd.Flags().CountP("long", "l", "list entry metadata; repeat for more")
	lsCmd.Flags().BoolP("recursive", "r", false, "list subdirectory contents recursively")
}

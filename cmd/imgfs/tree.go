/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"github.com/rstms/imgfs/image"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var readTreeCmd = &cobra.Command{
	Use:   "read-tree <img-file> <host-path>",
	Short: "Extract an image subtree onto the host filesystem",
	Long: `Recursively copy an image directory subtree onto the host. A
missing destination is created; a non-empty destination is refused
unless --force is given, which overwrites conflicting files and
merges directories.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		subtree, err := cmd.Flags().GetString("subtree")
		if err != nil {
			return err
		}
		force, err := cmd.Flags().GetBool("force")
		if err != nil {
			return err
		}
		return withImage(args[0], func(img *image.Image) error {
			return img.ReadTree(afero.NewOsFs(), subtree, args[1], force)
		})
	},
}

var writeTreeCmd = &cobra.Command{
	Use:   "write-tree <img-file> <host-path>",
	Short: "Copy a host directory subtree into the image",
	Long: `Recursively copy a host directory subtree into an image
directory. The image destination must be empty; symlinks and special
files are skipped with a warning.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		subtree, err := cmd.Flags().GetString("subtree")
		if err != nil {
			return err
		}
		return withImage(args[0], func(img *image.Image) error {
			return img.WriteTree(afero.NewOsFs(), subtree, args[1])
		})
	},
}

func init() {
	rootCmd.AddCommand(readTreeCmd)
	readTreeCmd.Flags().StringP("subtree", "s", "/", "path in the image")
	readTreeCmd.Flags().BoolP("force", "f", false, "overwrite existing output")

	rootCmd.AddCommand(writeTreeCmd)
	writeTreeCmd.Flags().StringP("subtree", "s", "/", "path in the image")
}

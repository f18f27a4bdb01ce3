/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"io"
	"os"

	"github.com/rstms/imgfs/image"
	"github.com/spf13/cobra"
)

var writeCmd = &cobra.Command{
	Use:   "write <img-file> <path>",
	Short: "Stream bytes into an image file",
	Long: `Write an image file from a host file or standard input. Any
existing contents are truncated.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		hostPath, err := cmd.Flags().GetString("input")
		if err != nil {
			return err
		}
		var source io.Reader = os.Stdin
		if hostPath != "" {
			f, err := os.Open(hostPath)
			if err != nil {
				return err
			}
			defer f.Close()
			source = f
		}
		return withImage(args[0], func(img *image.Image) error {
			return img.WriteFile(args[1], source)
		})
	},
}

func init() {
	rootCmd.AddCommand(writeCmd)
	writeCmd.Flags().StringP("input", "i", "", "write contents of this file; stdin is used if not specified")
}

/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"os"

	"github.com/rstms/imgfs/image"
	"github.com/spf13/cobra"
)

var readCmd = &cobra.Command{
	Use:   "read <img-file> <path>",
	Short: "Stream an image file to standard output",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withImage(args[0], func(img *image.Image) error {
			return img.ReadFile(args[1], os.Stdout)
		})
	},
}

func init() {
	rootCmd.AddCommand(readCmd)
}

/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"os"

	"github.com/rstms/imgfs/image"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info <img-file>",
	Short: "Print filesystem type, volume identification, and usage",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withImage(args[0], func(img *image.Image) error {
			return img.Info(os.Stdout)
		})
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"github.com/rstms/imgfs/image"
	"github.com/spf13/cobra"
)

var mkdirCmd = &cobra.Command{
	Use:   "mkdir <img-file> <path>",
	Short: "Create a directory",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withImage(args[0], func(img *image.Image) error {
			return img.Mkdir(args[1])
		})
	},
}

func init() {
	rootCmd.AddCommand(mkdirCmd)
}

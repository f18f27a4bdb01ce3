/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"os"
	"strings"

	"github.com/rstms/imgfs/image"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "imgfs",
	Short: "FAT filesystem image manipulation tool",
	Long: `imgfs inspects and mutates the contents of a FAT-formatted disk
image from the host, and synchronizes whole subtrees between the host
filesystem and the image. All inner paths are absolute and begin
with '/'.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	viper.SetEnvPrefix("imgfs")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// withImage opens the image file, runs fn, and releases the handle
// whether or not fn fails.
func withImage(filename string, fn func(*image.Image) error) error {
	img, err := image.OpenImage(filename)
	if err != nil {
		return err
	}
	defer img.Close()
	return fn(img)
}

/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"github.com/rstms/imgfs/image"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var createCmd = &cobra.Command{
	Use:   "create <img-file>",
	Short: "Create and format a new filesystem image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		size, err := cmd.Flags().GetInt64("size")
		if err != nil {
			return err
		}
		force, err := cmd.Flags().GetBool("force")
		if err != nil {
			return err
		}
		fatType, err := cmd.Flags().GetInt("fat-type")
		if err != nil {
			return err
		}
		img, err := image.CreateImage(args[0],
			viper.GetString("label"), viper.GetString("oem"),
			fatType, size, force)
		if err != nil {
			return err
		}
		return img.Close()
	},
}

func init() {
	rootCmd.AddCommand(createCmd)
	createCmd.Flags().Int64P("size", "s", 0, "size of the created image, in bytes")
	createCmd.MarkFlagRequired("size")
	createCmd.Flags().BoolP("force", "f", false, "overwrite existing output file")
	createCmd.Flags().Int("fat-type", 12, "FAT variant: 12, 16, or 32")
	createCmd.Flags().String("label", "", "volume label")
	createCmd.Flags().String("oem", "", "OEM name")
	viper.SetDefault("label", "IMGFS")
	viper.SetDefault("oem", "imgfs")
	viper.BindPFlag("label", createCmd.Flags().Lookup("label"))
	viper.BindPFlag("oem", createCmd.Flags().Lookup("oem"))
}

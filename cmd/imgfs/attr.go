/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"fmt"

	"github.com/rstms/imgfs"
	"github.com/rstms/imgfs/image"
	"github.com/spf13/cobra"
)

var attrFlags = map[string]imgfs.DirectoryAttr{
	"r": imgfs.AttrReadOnly,
	"h": imgfs.AttrHidden,
	"s": imgfs.AttrSystem,
}

var attrCmd = &cobra.Command{
	Use:   "attr <img-file> <path>",
	Short: "Show or change entry attribute flags",
	Long: `Print an entry's attribute mask, or toggle the read-only (r),
hidden (h), or system (s) flag with --set or --clear.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := cmd.Flags().GetString("set")
		if err != nil {
			return err
		}
		clear, err := cmd.Flags().GetString("clear")
		if err != nil {
			return err
		}
		return withImage(args[0], func(img *image.Image) error {
			if set != "" {
				attr, ok := attrFlags[set]
				if !ok {
					return fmt.Errorf("unknown attribute: %s", set)
				}
				if err := img.SetAttr(args[1], attr, true); err != nil {
					return err
				}
			}
			if clear != "" {
				attr, ok := attrFlags[clear]
				if !ok {
					return fmt.Errorf("unknown attribute: %s", clear)
				}
				if err := img.SetAttr(args[1], attr, false); err != nil {
					return err
				}
			}
			attr, err := img.GetAttr(args[1])
			if err != nil {
				return err
			}
			fmt.Println(image.FormatAttr(attr))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(attrCmd)
	attrCmd.Flags().String("set", "", "set an attribute flag: r, h, or s")
	attrCmd.Flags().String("clear", "", "clear an attribute flag: r, h, or s")
}

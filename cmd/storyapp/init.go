package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/storyapp/storyapp/internal/config"
	"github.com/storyapp/storyapp/internal/errors"
)

func initCmd() *cobra.Command {
	var (
		dir   string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default storyapp.json",
		Long: `Write storyapp.json with the default settings.

Examples:
  storyapp init
  storyapp init --dir deploy/staging --force`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(dir, force)
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "Directory to write storyapp.json into")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing storyapp.json")

	return cmd
}

func runInit(dir string, force bool) error {
	path := filepath.Join(dir, config.ConfigFileName)
	if config.Exists(dir) && !force {
		return errors.New("S110").WithDetail(path + " already exists")
	}
	if err := config.New().SaveTo(path); err != nil {
		return err
	}
	success("Created %s", path)
	info("Edit it, then run 'storyapp serve'")
	return nil
}

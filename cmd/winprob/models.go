package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yourusername/ipl-winprob/internal/database"
	"github.com/yourusername/ipl-winprob/internal/repository"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Inspect the model registry and prediction log",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := rootCmd.PersistentPreRunE(cmd, args); err != nil {
			return err
		}
		if !cfg.Database.Enabled {
			return fmt.Errorf("the model registry requires database.enabled")
		}
		return nil
	},
}

func withRepositories(cmd *cobra.Command, fn func(*repository.Repositories) error) error {
	db, err := database.Initialize(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	repos, err := repository.NewRepositories(db)
	if err != nil {
		return err
	}
	return fn(repos)
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered models",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRepositories(cmd, func(repos *repository.Repositories) error {
			list, err := repos.Model.List(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(list)
			}

			for _, m := range list {
				active := " "
				if m.Active {
					active = "*"
				}
				served, err := repos.Prediction.CountByModelVersion(cmd.Context(), m.Version)
				if err != nil {
					return err
				}
				fmt.Printf("%s %s  %-12s %-20s %-9s %6d predictions  %s\n",
					active, m.ID, m.Name, m.Version, m.Kind, served, m.Path)
			}
			return nil
		})
	},
}

var modelsActivateCmd = &cobra.Command{
	Use:   "activate <id>",
	Short: "Mark a registered model active",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid model id: %w", err)
		}
		return withRepositories(cmd, func(repos *repository.Repositories) error {
			if err := repos.Model.Activate(cmd.Context(), id); err != nil {
				return err
			}
			m, err := repos.Model.GetByID(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Printf("Activated %s %s; point model.artifact_path at %s to serve it\n", m.Name, m.Version, m.Path)
			return nil
		})
	},
}

func init() {
	modelsCmd.AddCommand(modelsListCmd, modelsActivateCmd)
}

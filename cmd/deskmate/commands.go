package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kalambet/deskmate/internal/config"
	"github.com/kalambet/deskmate/internal/profile"
	"github.com/kalambet/deskmate/internal/session"
	"github.com/kalambet/deskmate/internal/storage"
)

// withStore loads config, opens the configured store and runs fn with it.
// Management commands work on the data directly so they do not need a
// running server or a reachable backend.
func withStore(fn func(cfg config.Config, store storage.Store) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(cfg, store)
}

// --- profile ---

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or edit remembered profile facts",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the profile as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(_ config.Config, store storage.Store) error {
			mgr := profile.NewManager(store)
			mgr.Load()
			return printJSON(os.Stdout, mgr.All())
		})
	},
}

var profileSetNameCmd = &cobra.Command{
	Use:   "set-name <name>",
	Short: "Set the remembered name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(_ config.Config, store storage.Store) error {
			mgr := profile.NewManager(store)
			mgr.Load()
			if err := mgr.Set(profile.KeyName, args[0]); err != nil {
				return err
			}
			printSuccess("Name set to %s", args[0])
			return nil
		})
	},
}

func init() {
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileSetNameCmd)
}

// --- memory ---

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Show or clear the short memory",
}

var memoryShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List remembered exchanges, oldest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(cfg config.Config, store storage.Store) error {
			sess := session.New(store, cfg.Session.MemoryCap)
			sess.Load()
			printMemory(os.Stdout, sess.Memory())
			return nil
		})
	},
}

var memoryClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget every remembered exchange",
	RunE: func(cmd *cobra.Command, args []string) error {
		// A running server holds the memory in process; clear it there so
		// the next exchange does not write the old entries back.
		if client, err := newAPIClient(); err == nil && serverRunning(cmd.Context(), client) {
			resp, err := client.delete(cmd.Context(), "/memory")
			if err != nil {
				return err
			}
			var result map[string]string
			if err := decodeJSON(resp, &result); err != nil {
				return err
			}
			printSuccess("Short memory cleared")
			return nil
		}

		return withStore(func(cfg config.Config, store storage.Store) error {
			sess := session.New(store, cfg.Session.MemoryCap)
			if err := sess.ClearMemory(); err != nil {
				return err
			}
			printSuccess("Short memory cleared")
			return nil
		})
	},
}

func init() {
	memoryCmd.AddCommand(memoryShowCmd)
	memoryCmd.AddCommand(memoryClearCmd)
}

// --- interactions ---

var errNoInteractionLog = errors.New("interaction log requires storage.driver=sqlite")

var interactionsCmd = &cobra.Command{
	Use:   "interactions",
	Short: "Browse the interaction log",
}

var interactionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent interactions",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return withStore(func(_ config.Config, store storage.Store) error {
			is, ok := store.(storage.InteractionStore)
			if !ok {
				return errNoInteractionLog
			}
			interactions, err := is.RecentInteractions(limit)
			if err != nil {
				return err
			}
			printInteractions(os.Stdout, interactions)
			return nil
		})
	},
}

var interactionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a single interaction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(_ config.Config, store storage.Store) error {
			is, ok := store.(storage.InteractionStore)
			if !ok {
				return errNoInteractionLog
			}
			interaction, err := is.GetInteraction(args[0])
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("interaction %s not found", args[0])
			}
			if err != nil {
				return err
			}
			return printJSON(os.Stdout, interaction)
		})
	},
}

func init() {
	interactionsListCmd.Flags().Int("limit", 20, "maximum number of interactions to list")
	interactionsCmd.AddCommand(interactionsListCmd)
	interactionsCmd.AddCommand(interactionsShowCmd)
}

// --- position ---

var positionCmd = &cobra.Command{
	Use:   "position",
	Short: "Show or set the saved widget position",
}

var positionShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the saved position",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(_ config.Config, store storage.Store) error {
			p, err := store.LoadPosition()
			if errors.Is(err, storage.ErrNotFound) {
				fmt.Println("No position saved.")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Printf("%d %d\n", p.X, p.Y)
			return nil
		})
	},
}

var positionSetCmd = &cobra.Command{
	Use:   "set <x> <y>",
	Short: "Save a widget position",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := parsePosition(args[0], args[1])
		if err != nil {
			return err
		}
		return withStore(func(_ config.Config, store storage.Store) error {
			if err := store.SavePosition(p); err != nil {
				return err
			}
			printSuccess("Position saved (%d, %d)", p.X, p.Y)
			return nil
		})
	},
}

func init() {
	positionCmd.AddCommand(positionShowCmd)
	positionCmd.AddCommand(positionSetCmd)
}

func parsePosition(xs, ys string) (storage.Position, error) {
	x, err := strconv.Atoi(xs)
	if err != nil {
		return storage.Position{}, fmt.Errorf("invalid x %q: %w", xs, err)
	}
	y, err := strconv.Atoi(ys)
	if err != nil {
		return storage.Position{}, fmt.Errorf("invalid y %q: %w", ys, err)
	}
	return storage.Position{X: x, Y: y}, nil
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		printConfig(os.Stdout, config.ShowAll(cfg))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:       "set <key> <value>",
	Short:     "Set a configuration value",
	Args:      cobra.ExactArgs(2),
	ValidArgs: config.ValidKeys(),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

var configUnsetCmd = &cobra.Command{
	Use:       "unset <key>",
	Short:     "Restore a configuration value to its default",
	Args:      cobra.ExactArgs(1),
	ValidArgs: config.ValidKeys(),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.UnsetKey(args[0]); err != nil {
			return err
		}
		printSuccess("Unset %s", args[0])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
}

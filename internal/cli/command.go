package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ccenv/ccenv/internal/ccenv/codec"
	"github.com/ccenv/ccenv/internal/ccenv/domain"
	"github.com/ccenv/ccenv/internal/ccenv/launch"
	"github.com/ccenv/ccenv/internal/ccenv/project"
	"github.com/ccenv/ccenv/internal/ccenv/store"
)

// NewRootCommand constructs the root Cobra command for ccenv.
func NewRootCommand(st *store.Store, prompter Prompter, stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ccenv",
		Short: "Claude Code provider switcher",
		Long:  "ccenv stores named provider credential profiles and launches Claude Code with one of them active.",
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	cmd.AddCommand(newListCommand(st, stdout))
	cmd.AddCommand(newAddCommand(st, prompter, stdout))
	cmd.AddCommand(newShowCommand(st, prompter, stdout))
	cmd.AddCommand(newEditCommand(st, prompter, stdout))
	cmd.AddCommand(newRenameCommand(st, prompter, stdout))
	cmd.AddCommand(newRemoveCommand(st, prompter, stdout))
	cmd.AddCommand(newEnvCommand(st, stdout))
	cmd.AddCommand(newUseCommand(st, prompter, stdout, stderr))
	cmd.AddCommand(newOffCommand(st, stdout, stderr))

	return cmd
}

func newListCommand(st *store.Store, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored provider profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := st.List()
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(stdout, "No provider profiles stored yet. Use 'ccenv add' to create one.")
				return nil
			}
			for _, entry := range entries {
				if entry.Active {
					fmt.Fprintf(stdout, "* [%s] (active)\n", entry.Name)
				} else {
					fmt.Fprintf(stdout, "  [%s]\n", entry.Name)
				}
			}
			return nil
		},
	}
}

func newAddCommand(st *store.Store, prompter Prompter, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "add [name]",
		Short: "Create a provider profile",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var name string
			var err error
			if len(args) == 1 {
				name = strings.TrimSpace(args[0])
			} else {
				name, err = prompter.Prompt("Profile name", "")
				if err != nil {
					return err
				}
				name = strings.TrimSpace(name)
			}

			exists, err := st.Exists(name)
			if err != nil {
				return err
			}

			var existing *domain.ProviderProfile
			if exists {
				ok, err := prompter.Confirm(fmt.Sprintf("Profile '%s' already exists. Update it? (y/N)", name), false)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(stdout, "Aborted.")
					return nil
				}
				existing, err = st.Read(name)
				if err != nil {
					return err
				}
			}

			profile, err := promptProfileFields(prompter, name, existing)
			if err != nil {
				return err
			}

			if exists {
				err = st.Write(name, profile)
			} else {
				err = st.Create(name, profile)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Saved provider profile: %s\n", name)
			return nil
		},
	}
}

func newShowCommand(st *store.Store, prompter Prompter, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "show [name]",
		Short: "Display a provider profile with its API key redacted",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := resolveProfileName(st, prompter, args, "Select profile to show")
			if err != nil {
				return err
			}
			profile, err := st.Read(name)
			if err != nil {
				return err
			}
			active, err := st.GetActive()
			if err != nil {
				return err
			}

			header := fmt.Sprintf("Profile: %s", name)
			if name == active {
				header += " (active)"
			}
			fmt.Fprintln(stdout, header)
			fmt.Fprintf(stdout, "  Base URL:  %s\n", profile.BaseURL)
			fmt.Fprintf(stdout, "  API key:   %s\n", Redact(profile.APIKey))
			fmt.Fprintln(stdout, "  Models:")
			fmt.Fprintf(stdout, "    main:       %s\n", profile.Models.Main)
			fmt.Fprintf(stdout, "    haiku:      %s\n", profile.Models.Haiku)
			fmt.Fprintf(stdout, "    sonnet:     %s\n", profile.Models.Sonnet)
			fmt.Fprintf(stdout, "    opus:       %s\n", profile.Models.Opus)
			fmt.Fprintf(stdout, "    subagent:   %s\n", profile.Models.Subagent)
			fmt.Fprintf(stdout, "    small-fast: %s\n", profile.Models.Small)
			if len(profile.CustomVars) > 0 {
				fmt.Fprintln(stdout, "  Custom variables:")
				for _, v := range profile.CustomVars {
					fmt.Fprintf(stdout, "    %s=%s\n", v.Name, v.Value)
				}
			}
			return nil
		},
	}
}

func newEditCommand(st *store.Store, prompter Prompter, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "edit [name]",
		Short: "Modify a provider profile, keeping unchanged fields",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := resolveProfileName(st, prompter, args, "Select profile to edit")
			if err != nil {
				return err
			}
			existing, err := st.Read(name)
			if err != nil {
				return err
			}
			// Pending changes are collected first and applied in one write.
			profile, err := promptProfileFields(prompter, name, existing)
			if err != nil {
				return err
			}
			if err := st.Write(name, profile); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Updated provider profile: %s\n", name)
			return nil
		},
	}
}

func newRenameCommand(st *store.Store, prompter Prompter, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <old> <new>",
		Short: "Rename a provider profile",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			oldName, newName := args[0], args[1]
			err := st.Rename(oldName, newName, false)
			if errors.Is(err, domain.ErrConflict) {
				ok, cerr := prompter.Confirm(fmt.Sprintf("Profile '%s' already exists. Overwrite it? (y/N)", newName), false)
				if cerr != nil {
					return cerr
				}
				if !ok {
					fmt.Fprintln(stdout, "Aborted.")
					return nil
				}
				err = st.Rename(oldName, newName, true)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Renamed provider profile: %s -> %s\n", oldName, newName)
			return nil
		},
	}
}

func newRemoveCommand(st *store.Store, prompter Prompter, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "remove [name]",
		Short: "Delete a provider profile",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := resolveProfileName(st, prompter, args, "Select profile to remove")
			if err != nil {
				return err
			}
			ok, err := prompter.Confirm(fmt.Sprintf("Remove profile '%s'? (y/N)", name), false)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(stdout, "Aborted.")
				return nil
			}
			if err := st.Remove(name); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Removed provider profile: %s\n", name)
			return nil
		},
	}
}

func newEnvCommand(st *store.Store, stdout io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "env",
		Short: "Manage custom environment variables of a profile",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <profile> <NAME> <value>",
		Short: "Add or update a custom variable",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := st.SetCustomVar(args[0], args[1], args[2]); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Set %s on profile %s\n", args[1], args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "unset <profile> <NAME>",
		Short: "Remove a custom variable",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := st.RemoveCustomVar(args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Unset %s on profile %s\n", args[1], args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list <profile>",
		Short: "List custom variables",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vars, err := st.CustomVars(args[0])
			if err != nil {
				return err
			}
			if len(vars) == 0 {
				fmt.Fprintln(stdout, "No custom variables.")
				return nil
			}
			for _, v := range vars {
				fmt.Fprintf(stdout, "%s=%s\n", v.Name, v.Value)
			}
			return nil
		},
	})

	return cmd
}

func newUseCommand(st *store.Store, prompter Prompter, stdout, stderr io.Writer) *cobra.Command {
	var target string
	var printOnly bool

	cmd := &cobra.Command{
		Use:   "use [name] [-- target-args...]",
		Short: "Activate a profile and launch the target program",
		RunE: func(cmd *cobra.Command, args []string) error {
			ownArgs := args
			var targetArgs []string
			if at := cmd.ArgsLenAtDash(); at >= 0 {
				ownArgs = args[:at]
				targetArgs = args[at:]
			}
			if len(ownArgs) > 1 {
				return fmt.Errorf("expected at most one profile name, got %d", len(ownArgs))
			}

			name, err := resolveProfileName(st, prompter, ownArgs, "Select profile to activate")
			if err != nil {
				return err
			}
			next, err := st.Read(name)
			if err != nil {
				return err
			}
			prev, err := readPreviousActive(st, stderr)
			if err != nil {
				return err
			}

			proj := project.Compute(prev, next)

			// The marker must be durable before the process image goes away.
			if err := st.SetActive(name); err != nil {
				return err
			}

			if printOnly {
				return printProjection(stdout, proj)
			}

			if err := launch.Apply(proj); err != nil {
				return err
			}
			fmt.Fprintf(stderr, "Launching %s with provider profile: %s\n", target, name)
			return launch.Exec(target, targetArgs)
		},
	}

	cmd.Flags().StringVar(&target, "target", launch.DefaultTarget, "Program to launch after activation")
	cmd.Flags().BoolVar(&printOnly, "print", false, "Print shell commands instead of launching (for eval)")
	return cmd
}

func newOffCommand(st *store.Store, stdout, stderr io.Writer) *cobra.Command {
	var printOnly bool

	cmd := &cobra.Command{
		Use:   "off",
		Short: "Deactivate the current provider profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			prev, err := readPreviousActive(st, stderr)
			if err != nil {
				return err
			}

			proj := project.Compute(prev, nil)
			if err := st.ClearActive(); err != nil {
				return err
			}

			if printOnly {
				return printProjection(stdout, proj)
			}
			fmt.Fprintln(stdout, "No provider profile is active now.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&printOnly, "print", false, "Print shell unset commands instead of only clearing the marker")
	return cmd
}

// readPreviousActive resolves the active marker to its profile. A marker
// pointing at a removed profile is a soft error: reported, then treated as
// "no active profile".
func readPreviousActive(st *store.Store, stderr io.Writer) (*domain.ProviderProfile, error) {
	prev, err := st.ReadActive()
	if err != nil {
		if errors.Is(err, domain.ErrMarkerInconsistent) {
			fmt.Fprintf(stderr, "Warning: %v\n", err)
			return nil, nil
		}
		return nil, err
	}
	return prev, nil
}

func printProjection(stdout io.Writer, proj project.Projection) error {
	for _, name := range proj.Unset {
		fmt.Fprintf(stdout, "unset %s\n", name)
	}
	for _, v := range proj.Apply {
		line, err := codec.ExportLine(v.Name, v.Value)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, line)
	}
	return nil
}

// promptProfileFields collects the field values for a new or updated profile.
// Existing values are offered as defaults so an update keeps whatever the
// user does not change; nothing is persisted here.
func promptProfileFields(prompter Prompter, name string, existing *domain.ProviderProfile) (*domain.ProviderProfile, error) {
	defaults := domain.ProviderProfile{DisableNonessentialTraffic: true}
	if existing != nil {
		defaults = *existing
	}

	baseURL, err := prompter.Prompt("Base URL", defaults.BaseURL)
	if err != nil {
		return nil, err
	}

	keyLabel := "API key"
	if existing != nil {
		keyLabel = "API key (leave empty to keep current)"
	}
	apiKey, err := prompter.Secret(keyLabel)
	if err != nil {
		return nil, err
	}
	if apiKey == "" && existing != nil {
		apiKey = existing.APIKey
	}

	mainModel, err := prompter.Prompt("Main model", defaults.Models.Main)
	if err != nil {
		return nil, err
	}

	models := domain.TierModels{Main: strings.TrimSpace(mainModel)}
	configureTiers, err := prompter.Confirm("Configure per-tier model overrides? (y/N)", false)
	if err != nil {
		return nil, err
	}
	if configureTiers {
		tiers := []struct {
			label string
			def   string
			dst   *string
		}{
			{"Haiku model", defaults.Models.Haiku, &models.Haiku},
			{"Sonnet model", defaults.Models.Sonnet, &models.Sonnet},
			{"Opus model", defaults.Models.Opus, &models.Opus},
			{"Subagent model", defaults.Models.Subagent, &models.Subagent},
			{"Small/fast model", defaults.Models.Small, &models.Small},
		}
		for _, tier := range tiers {
			def := tier.def
			if def == "" {
				def = models.Main
			}
			value, err := prompter.Prompt(tier.label, def)
			if err != nil {
				return nil, err
			}
			*tier.dst = strings.TrimSpace(value)
		}
	} else if existing != nil {
		models.Haiku = existing.Models.Haiku
		models.Sonnet = existing.Models.Sonnet
		models.Opus = existing.Models.Opus
		models.Subagent = existing.Models.Subagent
		models.Small = existing.Models.Small
	}
	models.FillDefaults()

	profile := &domain.ProviderProfile{
		Name:                       name,
		BaseURL:                    strings.TrimSpace(baseURL),
		APIKey:                     apiKey,
		Models:                     models,
		DisableNonessentialTraffic: defaults.DisableNonessentialTraffic,
		CustomVars:                 defaults.CustomVars,
	}
	return profile, nil
}

// resolveProfileName takes the name from args when given, otherwise prompts
// with the stored names, active profile first.
func resolveProfileName(st *store.Store, prompter Prompter, args []string, label string) (string, error) {
	if len(args) > 0 {
		return strings.TrimSpace(args[0]), nil
	}

	entries, err := st.List()
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", fmt.Errorf("no provider profiles stored in %s", st.Paths().ProvidersDir())
	}

	names := make([]string, 0, len(entries))
	active := ""
	for _, entry := range entries {
		names = append(names, entry.Name)
		if entry.Active {
			active = entry.Name
		}
	}
	names = reorderWithDefault(names, active)

	_, selected, err := prompter.Select(label, names, active)
	if err != nil {
		return "", err
	}
	return selected, nil
}

// reorderWithDefault moves the default value to the front of the list.
// If defaultValue is empty or not found, or already first, returns items unchanged.
func reorderWithDefault(items []string, defaultValue string) []string {
	if defaultValue == "" {
		return items
	}

	idx := -1
	for i, item := range items {
		if item == defaultValue {
			idx = i
			break
		}
	}
	if idx <= 0 {
		return items
	}

	reordered := make([]string, 0, len(items))
	reordered = append(reordered, defaultValue)
	reordered = append(reordered, items[:idx]...)
	reordered = append(reordered, items[idx+1:]...)

	return reordered
}

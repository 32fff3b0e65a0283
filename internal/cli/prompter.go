package cli

// Prompter abstracts interactive input so commands can be tested with stubs.
type Prompter interface {
	Select(label string, items []string, defaultValue string) (int, string, error)
	Prompt(label, defaultValue string) (string, error)
	Secret(label string) (string, error)
	Confirm(label string, defaultYes bool) (bool, error)
}

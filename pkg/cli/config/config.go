package config

import (
	"bytes"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/actiontracker/pkg/domain/model"
	"github.com/urfave/cli/v3"
)

// PolicyFile is the TOML layout of the policy configuration file
type PolicyFile struct {
	Policy PolicySection `toml:"policy"`
}

// PolicySection holds the [policy] table. Unset toggles keep the strict default.
type PolicySection struct {
	EnforceOwnerAllowList     *bool    `toml:"enforce_owner_allow_list"`
	EnforceComponentAllowList *bool    `toml:"enforce_component_allow_list"`
	CloseRequiresResolved     *bool    `toml:"close_requires_resolved"`
	AllowDelete               *bool    `toml:"allow_delete"`
	Owners                    []string `toml:"owners"`
	Components                []string `toml:"components"`
}

// Validate checks the allow-lists for blank and repeated entries
func (p *PolicySection) Validate() error {
	if err := validateList("owners", p.Owners); err != nil {
		return err
	}
	return validateList("components", p.Components)
}

func validateList(name string, entries []string) error {
	seen := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if strings.TrimSpace(entry) == "" {
			return goerr.Wrap(ErrEmptyEntry, "allow-list entry must not be blank", goerr.V(ListKey, name))
		}
		if seen[entry] {
			return goerr.Wrap(ErrDuplicateEntry, "allow-list entry appears twice",
				goerr.V(ListKey, name), goerr.V(EntryKey, entry))
		}
		seen[entry] = true
	}
	return nil
}

// Apply overlays the section onto policy
func (p *PolicySection) Apply(policy *model.Policy) {
	if p.EnforceOwnerAllowList != nil {
		policy.EnforceOwnerAllowList = *p.EnforceOwnerAllowList
	}
	if p.EnforceComponentAllowList != nil {
		policy.EnforceComponentAllowList = *p.EnforceComponentAllowList
	}
	if p.CloseRequiresResolved != nil {
		policy.CloseRequiresResolved = *p.CloseRequiresResolved
	}
	if p.AllowDelete != nil {
		policy.AllowDelete = *p.AllowDelete
	}
	policy.Owners = append(policy.Owners, p.Owners...)
	policy.Components = append(policy.Components, p.Components...)
}

// LoadPolicyFile reads and validates a TOML policy file. Unknown keys are rejected.
func LoadPolicyFile(path string) (*PolicyFile, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(ErrConfigNotFound, "policy file does not exist", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read policy file", goerr.V(ConfigPathKey, path))
	}

	var file PolicyFile
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&file); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "failed to parse policy file",
			goerr.V(ConfigPathKey, path), goerr.V("cause", err.Error()))
	}

	if err := file.Policy.Validate(); err != nil {
		return nil, goerr.Wrap(err, "policy file validation failed", goerr.V(ConfigPathKey, path))
	}

	return &file, nil
}

// AppConfig holds the policy flags
type AppConfig struct {
	path       string
	owners     []string
	components []string
}

func (x *AppConfig) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to the TOML policy file",
			Category:    "Policy",
			Sources:     cli.EnvVars("ACTIONTRACKER_CONFIG"),
			Destination: &x.path,
		},
		&cli.StringSliceFlag{
			Name:        "owner",
			Usage:       "Allowed owner (repeatable, merged with the policy file)",
			Category:    "Policy",
			Sources:     cli.EnvVars("ACTIONTRACKER_OWNERS"),
			Destination: &x.owners,
		},
		&cli.StringSliceFlag{
			Name:        "component",
			Usage:       "Allowed component (repeatable, merged with the policy file)",
			Category:    "Policy",
			Sources:     cli.EnvVars("ACTIONTRACKER_COMPONENTS"),
			Destination: &x.components,
		},
	}
}

func (x AppConfig) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("path", x.path),
		slog.Int("owners", len(x.owners)),
		slog.Int("components", len(x.components)),
	)
}

// Path returns the policy file path
func (x *AppConfig) Path() string {
	return x.path
}

// Configure builds the policy from the defaults, the policy file and the flags.
func (x *AppConfig) Configure() (model.Policy, error) {
	policy := model.DefaultPolicy()

	if x.path != "" {
		file, err := LoadPolicyFile(x.path)
		if err != nil {
			return model.Policy{}, err
		}
		file.Policy.Apply(&policy)
	}

	policy.Owners = mergeEntries(policy.Owners, x.owners)
	policy.Components = mergeEntries(policy.Components, x.components)
	return policy, nil
}

// mergeEntries appends trimmed, non-blank extra entries not already present
func mergeEntries(base, extra []string) []string {
	seen := make(map[string]bool, len(base)+len(extra))
	merged := make([]string, 0, len(base)+len(extra))
	for _, entry := range append(append([]string{}, base...), extra...) {
		entry = strings.TrimSpace(entry)
		if entry == "" || seen[entry] {
			continue
		}
		seen[entry] = true
		merged = append(merged, entry)
	}
	return merged
}

package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/supacatalog/internal/activities"
	"github.com/leapstack-labs/supacatalog/internal/cli/config"
	"github.com/leapstack-labs/supacatalog/internal/cli/output"
	"github.com/leapstack-labs/supacatalog/internal/secretstore"
	"github.com/leapstack-labs/supacatalog/pkg/client"
	"github.com/leapstack-labs/supacatalog/pkg/core"
)

// DoctorOptions holds options for the doctor command.
type DoctorOptions struct {
	Offline bool
}

// CheckStatus is the outcome of one doctor check.
type CheckStatus string

// Check outcomes.
const (
	StatusPass CheckStatus = "pass"
	StatusWarn CheckStatus = "warn"
	StatusFail CheckStatus = "fail"
	StatusSkip CheckStatus = "skip"
)

// Check is one doctor finding.
type Check struct {
	Category string      `json:"category"`
	Name     string      `json:"name"`
	Status   CheckStatus `json:"status"`
	Detail   string      `json:"detail,omitempty"`
}

// DoctorReport is the JSON form of the doctor output.
type DoctorReport struct {
	Healthy bool    `json:"healthy"`
	Checks  []Check `json:"checks"`
}

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	opts := &DoctorOptions{}
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, credentials and source connectivity",
		Long: `Verify that supacatalog can run an extraction:
- configuration file and source type
- secret store and credential reference
- a live connection to the source (skip with --offline)`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.Offline, "offline", false, "Skip the connection check")
	return cmd
}

func runDoctor(cmd *cobra.Command, opts *DoctorOptions) error {
	cc := NewCommandContext(cmd)
	report := diagnose(cmd.Context(), cc, opts)

	if cc.Renderer.Mode() == output.ModeJSON {
		if err := cc.Renderer.JSON(report); err != nil {
			return err
		}
	} else {
		renderDoctorReport(cc.Renderer, report)
	}

	if !report.Healthy {
		return fmt.Errorf("doctor found %d problem(s)", countStatus(report.Checks, StatusFail))
	}
	return nil
}

func diagnose(ctx context.Context, cc *CommandContext, opts *DoctorOptions) *DoctorReport {
	cfg := cc.Cfg
	var checks []Check
	add := func(category, name string, status CheckStatus, detail string) {
		checks = append(checks, Check{Category: category, Name: name, Status: status, Detail: detail})
	}

	if f := config.GetConfigFileUsed(); f != "" {
		add("configuration", "config file", StatusPass, f)
	} else {
		add("configuration", "config file", StatusWarn, "no "+config.ConfigFileName+" found, using defaults")
	}
	if cfg.Connection.QualifiedName == "" {
		add("configuration", "connection", StatusWarn, "connection.qualified_name is empty; qualified names will lack a prefix")
	} else {
		add("configuration", "connection", StatusPass, cfg.Connection.QualifiedName)
	}

	if client.IsRegistered(cfg.Source.Type) {
		add("source", "client", StatusPass, fmt.Sprintf("%s (available: %s)", cfg.Source.Type, strings.Join(client.ListClients(), ", ")))
	} else {
		add("source", "client", StatusFail, fmt.Sprintf("unknown source type %q", cfg.Source.Type))
	}

	var store secretstore.Store
	credsOK := false
	switch {
	case cfg.Source.CredentialRef != "":
		s, err := cc.openSecretStore(ctx, true)
		if err != nil {
			add("credentials", "secret store", StatusFail, err.Error())
			break
		}
		store = s
		add("credentials", "secret store", StatusPass, fmt.Sprintf("%s at %s", cfg.SecretStore.Type, cfg.SecretStore.Path))

		creds, err := s.GetCredentials(ctx, cfg.Source.CredentialRef)
		if err != nil {
			add("credentials", "reference", StatusFail, err.Error())
			break
		}
		credsOK = true
		add("credentials", "reference", StatusPass, fmt.Sprintf("%s (%s)", cfg.Source.CredentialRef, describeCredentials(creds)))
	case len(cfg.Source.Credentials) > 0:
		credsOK = true
		add("credentials", "inline", StatusPass, describeCredentials(cfg.Source.Credentials))
	default:
		add("credentials", "credentials", StatusFail, "set source.credentials or source.credential_ref")
	}
	defer func() { _ = secretstore.Close(store) }()

	switch {
	case opts.Offline:
		add("connection", "connect", StatusSkip, "--offline")
	case !credsOK:
		add("connection", "connect", StatusSkip, "no usable credentials")
	default:
		acts := activities.New(cc.newStateStore(store), activities.NewMemoryWriter(),
			activities.WithLogger(cc.Logger))
		if err := acts.CheckCredentials(ctx, cfg.WorkflowArgs()); err != nil {
			add("connection", "connect", StatusFail, err.Error())
		} else {
			add("connection", "connect", StatusPass, "connected to "+cfg.Source.Type)
		}
	}

	return &DoctorReport{Healthy: countStatus(checks, StatusFail) == 0, Checks: checks}
}

// describeCredentials lists credential keys with secrets masked.
func describeCredentials(c core.Credentials) string {
	redacted := c.Redacted()
	keys := make([]string, 0, len(redacted))
	for k := range redacted {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, redacted[k])
	}
	return strings.Join(parts, " ")
}

func countStatus(checks []Check, status CheckStatus) int {
	n := 0
	for _, c := range checks {
		if c.Status == status {
			n++
		}
	}
	return n
}

func renderDoctorReport(r *output.Renderer, report *DoctorReport) {
	styles := r.Styles()
	title := cases.Title(language.English)
	upper := cases.Upper(language.English)

	category := ""
	for _, c := range report.Checks {
		if c.Category != category {
			if category != "" {
				_, _ = fmt.Fprintln(r.Out())
			}
			category = c.Category
			r.Header(title.String(category))
		}

		label := upper.String(string(c.Status))
		switch c.Status {
		case StatusPass:
			label = styles.Success.Render(label)
		case StatusWarn:
			label = styles.Warning.Render(label)
		case StatusFail:
			label = styles.Error.Render(label)
		default:
			label = styles.Muted.Render(label)
		}
		_, _ = fmt.Fprintf(r.Out(), "  %-4s  %-14s %s\n", label, c.Name, styles.Muted.Render(c.Detail))
	}

	_, _ = fmt.Fprintln(r.Out())
	if report.Healthy {
		r.Success("Ready to extract")
	} else {
		r.Error("%d check(s) failed", countStatus(report.Checks, StatusFail))
	}
}

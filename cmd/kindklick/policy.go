package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"kindklick/internal/models"
	"kindklick/internal/services"
)

func evaluateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate <url>",
		Short: "Show the verdict for a URL under the current settings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			action, err := a.navigator.HandleNavigation(cmd.Context(), services.NavigationEvent{URL: args[0]})
			if err != nil {
				return err
			}
			if action.SafeSearch {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  safe search (%s)\n  -> %s\n", color.YellowString("%-8s", "redirect"), action.Engine, action.URL)
				return nil
			}

			v, err := a.navigator.Evaluate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			label := color.GreenString("%-8s", v.Action)
			if v.Blocked() {
				label = color.RedString("%-8s", v.Action)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s\n", label, v.Domain, v.Explain())
			if action.Kind == services.ActionRedirect {
				fmt.Fprintf(cmd.OutOrStdout(), "  -> %s\n", action.URL)
			}
			return nil
		},
	}
}

func approveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "approve <domain>",
		Short: "Grant a parent approval for a domain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			minutes, _ := cmd.Flags().GetInt("minutes")
			always, _ := cmd.Flags().GetBool("always")
			mode := models.ApprovalTemporary
			if always {
				mode = models.ApprovalAlways
			}

			approval, err := a.approvals.Grant(cmd.Context(), services.GrantRequest{
				Domain:          args[0],
				DurationMinutes: minutes,
				Mode:            mode,
			}, pinCredentials(cmd))
			if err != nil {
				return describeAuthError(err)
			}
			if approval == nil {
				return fmt.Errorf("no domain given")
			}

			if approval.IsPermanent() {
				fmt.Fprintf(cmd.OutOrStdout(), "approved %s permanently\n", approval.Domain)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "approved %s until %s\n", approval.Domain, approval.ExpiresAt.Local().Format(time.Kitchen))
			}
			return nil
		},
	}
	cmd.Flags().Int("minutes", 0, "Approval duration in minutes (default from config)")
	cmd.Flags().Bool("always", false, "Approve permanently")
	cmd.Flags().String("pin", "", "Parent PIN")
	return cmd
}

func revokeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revoke <domain>",
		Short: "Remove a parent approval",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			found, err := a.approvals.Revoke(cmd.Context(), args[0], pinCredentials(cmd))
			if err != nil {
				return describeAuthError(err)
			}
			if !found {
				return fmt.Errorf("no approval for %s", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "revoked %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().String("pin", "", "Parent PIN")
	return cmd
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Remove expired approvals and list the rest",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.approvals.SweepExpired(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired approval(s)\n", n)

			list, err := a.approvals.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(list) == 0 {
				return nil
			}

			now := a.approvals.Now()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DOMAIN\tMODE\tREMAINING")
			for _, ap := range list {
				remaining := "forever"
				if !ap.IsPermanent() {
					remaining = ap.Remaining(now).Round(time.Second).String()
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", ap.Domain, ap.Mode, remaining)
			}
			return tw.Flush()
		},
	}
}

func requestsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "requests",
		Short: "List access requests, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			list, err := a.requests.List(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tDOMAIN\tCATEGORY\tSTATUS")
			for _, r := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Ts.Local().Format(time.DateTime), r.Domain, r.Category, r.Status)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().Bool("json", false, "Print JSON")
	return cmd
}

package main

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"kindklick/internal/services"
)

func pinCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pin",
		Short: "Manage the parent PIN",
	}
	cmd.AddCommand(pinSetCmd(), pinClearCmd())
	return cmd
}

func pinSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Set or change the parent PIN",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			current, _ := cmd.Flags().GetString("pin")
			pin, _ := cmd.Flags().GetString("new-pin")
			confirm := pin

			settings, err := a.store.Read(cmd.Context())
			if err != nil {
				return err
			}

			if pin == "" {
				fields := []huh.Field{}
				if settings.HasPin() && current == "" {
					fields = append(fields, passwordInput("Current PIN", &current, nil))
				}
				fields = append(fields,
					passwordInput("New PIN", &pin, func(s string) error {
						_, err := services.ValidateNewPin(s, s)
						return err
					}),
					passwordInput("Confirm new PIN", &confirm, nil),
				)
				if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
					if errors.Is(err, huh.ErrUserAborted) {
						return errors.New("cancelled")
					}
					return err
				}
			}

			if err := a.gate.SetPin(cmd.Context(), pin, confirm, services.Credentials{PIN: current}); err != nil {
				return describeAuthError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "parent PIN updated")
			return nil
		},
	}
	cmd.Flags().String("pin", "", "Current parent PIN")
	cmd.Flags().String("new-pin", "", "New PIN (skips the interactive prompt)")
	return cmd
}

func pinClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove the parent PIN",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			creds := pinCredentials(cmd)
			if creds.PIN == "" {
				settings, err := a.store.Read(cmd.Context())
				if err != nil {
					return err
				}
				if settings.HasPin() {
					if err := huh.NewForm(huh.NewGroup(passwordInput("Current PIN", &creds.PIN, nil))).Run(); err != nil {
						return err
					}
				}
			}

			if err := a.gate.ClearPin(cmd.Context(), creds); err != nil {
				return describeAuthError(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "parent PIN cleared")
			return nil
		},
	}
	cmd.Flags().String("pin", "", "Current parent PIN")
	return cmd
}

func passwordInput(title string, value *string, validate func(string) error) *huh.Input {
	in := huh.NewInput().
		Title(title).
		EchoMode(huh.EchoModePassword).
		Value(value)
	if validate != nil {
		in = in.Validate(validate)
	}
	return in
}

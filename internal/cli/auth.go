package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/storefront/pkg/types"
)

func newLoginCmd(a *app) *cobra.Command {
	var req types.LoginRequest
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services()
			if err != nil {
				return err
			}
			res := svc.Auth.Login(cmd.Context(), req)
			if !res.OK() {
				return failure(res)
			}
			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), res.Data.Data)
			}
			user := res.Data.Data
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s <%s>\n", user.Name, user.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "account email")
	cmd.Flags().StringVar(&req.Password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the session tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services()
			if err != nil {
				return err
			}
			if !a.tokens.SignedIn() {
				fmt.Fprintln(cmd.OutOrStdout(), "Not signed in")
				return nil
			}
			res := svc.Auth.Logout(cmd.Context())
			if !res.OK() {
				a.logger.Sugar().Warnw("logout request failed; local session cleared", "error", res.Err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func newProfileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services()
			if err != nil {
				return err
			}
			if !a.tokens.SignedIn() {
				return exitError(exitUserError, "%w (run `storefront login`)", types.ErrNotAuthenticated)
			}
			res := svc.Auth.Profile(cmd.Context())
			if !res.OK() {
				return failure(res)
			}
			if a.flags.jsonMode {
				return printJSON(cmd.OutOrStdout(), res.Data.Data)
			}
			writeUser(cmd.OutOrStdout(), res.Data.Data)
			return nil
		},
	}

	var update types.UpdateProfileRequest
	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Change the account name and email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services()
			if err != nil {
				return err
			}
			res := svc.Auth.UpdateProfile(cmd.Context(), update)
			if !res.OK() {
				return failure(res)
			}
			a.notify(cmd, res.Data.Message)
			return nil
		},
	}
	updateCmd.Flags().StringVar(&update.Name, "name", "", "display name")
	updateCmd.Flags().StringVar(&update.Email, "email", "", "email address")
	_ = updateCmd.MarkFlagRequired("name")
	_ = updateCmd.MarkFlagRequired("email")
	cmd.AddCommand(updateCmd)
	return cmd
}

func writeUser(w io.Writer, u types.User) {
	fmt.Fprintf(w, "ID:    %s\nName:  %s\nEmail: %s\nRole:  %s\n", u.ID, u.Name, u.Email, u.Role)
	if u.Store != nil {
		fmt.Fprintf(w, "Store: %s (%s)\n", u.Store.Name, u.Store.ID)
	}
}

func newRegisterCmd(a *app) *cobra.Command {
	var req types.RegisterRequest
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services()
			if err != nil {
				return err
			}
			res := svc.Auth.Register(cmd.Context(), req)
			if !res.OK() {
				return failure(res)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Data.Message)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Name, "name", "", "display name")
	cmd.Flags().StringVar(&req.Email, "email", "", "email address")
	cmd.Flags().StringVar(&req.Password, "password", "", "password (at least 8 characters)")
	return cmd
}

func newPasswordCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Change, forget, or reset the account password",
	}

	var change types.UpdatePasswordRequest
	changeCmd := &cobra.Command{
		Use:   "change",
		Short: "Change the password of the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services()
			if err != nil {
				return err
			}
			res := svc.Auth.UpdatePassword(cmd.Context(), change)
			if !res.OK() {
				return failure(res)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Data.Message)
			return nil
		},
	}
	changeCmd.Flags().StringVar(&change.OldPassword, "old", "", "current password")
	changeCmd.Flags().StringVar(&change.NewPassword, "new", "", "new password")

	var forgot types.ForgotPasswordRequest
	forgotCmd := &cobra.Command{
		Use:   "forgot",
		Short: "Request a password reset link",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services()
			if err != nil {
				return err
			}
			res := svc.Auth.ForgotPassword(cmd.Context(), forgot)
			if !res.OK() {
				return failure(res)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Data.Message)
			return nil
		},
	}
	forgotCmd.Flags().StringVar(&forgot.Email, "email", "", "account email")
	forgotCmd.Flags().StringVar(&forgot.VerifyEmailURL, "redirect-url", "http://localhost:3000/reset-password", "page the reset link points to")

	var reset types.ResetPasswordRequest
	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Set a new password with a reset token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services()
			if err != nil {
				return err
			}
			res := svc.Auth.ResetPassword(cmd.Context(), reset)
			if !res.OK() {
				return failure(res)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Data.Message)
			return nil
		},
	}
	resetCmd.Flags().StringVar(&reset.Token, "token", "", "reset token from the email")
	resetCmd.Flags().StringVar(&reset.Password, "password", "", "new password")

	cmd.AddCommand(changeCmd, forgotCmd, resetCmd)
	return cmd
}

package app

import (
	"fmt"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/safedrive-io/safedrive/cmd/sdrive-companion/app/options"
	"github.com/safedrive-io/safedrive/internal/companion/model"
)

func newMembersCommand(opts *options.CompanionOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "members",
		Short: "List and manage dashboard members",
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := restoredCore(cmd, opts)
			if err != nil {
				return err
			}

			members, err := core.Members(cmd.Context())
			if err != nil {
				return err
			}

			table := uitable.New()
			table.AddRow("MEMBER ID", "NAME", "PHONE", "RELATION", "ROLE", "STATUS")
			for _, m := range members {
				table.AddRow(m.ID, m.User.Name, m.User.Phone, m.Relation, m.Role, m.Status)
			}
			fmt.Println(table)
			return nil
		},
	}

	cmd.AddCommand(newMembersAddCommand(opts), newMembersRemoveCommand(opts))
	return cmd
}

func newMembersAddCommand(opts *options.CompanionOptions) *cobra.Command {
	var phone, relation, role string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Attach a registered user to the dashboard by phone number",
		RunE: func(cmd *cobra.Command, args []string) error {
			if phone == "" || relation == "" {
				return fmt.Errorf("both --phone and --relation are required")
			}

			core, err := restoredCore(cmd, opts)
			if err != nil {
				return err
			}

			m, err := core.AddMember(cmd.Context(), phone, relation, model.Role(role))
			if err != nil {
				return err
			}
			fmt.Printf("Added %s as %s (%s)\n", m.User.Name, m.Relation, m.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&phone, "phone", "", "Phone number of the registered user.")
	cmd.Flags().StringVar(&relation, "relation", "", "Relation to the owner, e.g. 'mother'.")
	cmd.Flags().StringVar(&role, "role", string(model.RoleFamily), "Role to grant: FAMILY or FRIEND.")
	return cmd
}

func newMembersRemoveCommand(opts *options.CompanionOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <member-id>",
		Short: "Detach a member from the dashboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			core, err := restoredCore(cmd, opts)
			if err != nil {
				return err
			}
			if err := core.DeleteMember(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Println("Member removed")
			return nil
		},
	}
}

// orgs.go implements the "chimeractl orgs" and "chimeractl use" commands.
package main

import (
	"fmt"
	"strconv"

	session "github.com/goliatone/go-console-session"
	"github.com/spf13/cobra"
)

var orgsCmd = &cobra.Command{
	Use:         "orgs",
	Short:       "List the organizations of the signed in user",
	Annotations: map[string]string{routeAnnotation: session.RouteChat},
	RunE:        runOrgs,
}

var useCmd = &cobra.Command{
	Use:   "use <org-id>",
	Short: "Switch the active organization of the profile",
	Long: `Use makes the given organization the active context, scoped to the
resource collection of the membership. Organization 0 is the personal space.`,
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{routeAnnotation: session.RouteChat},
	RunE:        runUse,
}

type orgView struct {
	session.OrgRecord `yaml:",inline"`
	Active            bool `json:"active" yaml:"active"`
}

func runOrgs(cmd *cobra.Command, args []string) error {
	if err := refreshMemberships(cmd); err != nil {
		return err
	}

	current := app.store.Context()
	orgs := app.store.AvailableOrgs()
	views := make([]orgView, 0, len(orgs))
	for _, org := range orgs {
		views = append(views, orgView{
			OrgRecord: org,
			Active:    org.OrgID == current.OrgID && org.ResourceCollectionID == current.ResourceCollectionID,
		})
	}

	return app.render(views)
}

func runUse(cmd *cobra.Command, args []string) error {
	orgID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid organization id %q: %w", args[0], err)
	}

	if err := refreshMemberships(cmd); err != nil {
		return err
	}

	err = session.NewSwitchContextHandler(app.store).
		WithLogger(app.GetLogger("session:context")).
		WithActivitySink(app.activitySink()).
		Execute(cmd.Context(), session.SwitchContextMessage{OrgID: orgID})
	if err != nil {
		return fmt.Errorf("switching context: %w", err)
	}

	return app.render(app.store.Context())
}

// memberships are not persisted, every invocation loads them again
func refreshMemberships(cmd *cobra.Command) error {
	err := session.NewMembershipLoader(app.API()).
		WithLogger(app.GetLogger("session:memberships")).
		Refresh(cmd.Context(), app.store)
	if err != nil {
		return fmt.Errorf("loading organizations: %w", app.expiredHint(err))
	}
	return nil
}

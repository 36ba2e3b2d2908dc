// routes.go implements the "chimeractl routes" command, which shows what
// the route guard decides for every console route with the profile session.
package main

import (
	session "github.com/goliatone/go-console-session"
	"github.com/spf13/cobra"
)

var routesCmd = &cobra.Command{
	Use:   "routes [path...]",
	Short: "Show the guard decision for console routes",
	RunE:  runRoutes,
}

type routeView struct {
	Path    string            `json:"path" yaml:"path"`
	Meta    session.RouteMeta `json:"meta" yaml:"meta"`
	Outcome string            `json:"outcome" yaml:"outcome"`
	Target  string            `json:"target,omitempty" yaml:"target,omitempty"`
	Reason  string            `json:"reason,omitempty" yaml:"reason,omitempty"`
}

func runRoutes(cmd *cobra.Command, args []string) error {
	paths := args
	if len(paths) == 0 {
		for _, r := range app.guard.Routes().Routes() {
			paths = append(paths, r.Path)
		}
	}

	views := make([]routeView, 0, len(paths))
	for _, path := range paths {
		views = append(views, decide(app.guard, path))
	}
	return app.render(views)
}

func decide(guard *session.RouteGuard, path string) routeView {
	d, err := guard.Navigate(path)
	if err != nil {
		return routeView{Path: path, Outcome: "error", Reason: err.Error()}
	}
	return routeView{
		Path:    path,
		Meta:    d.Route.Meta,
		Outcome: d.Outcome.String(),
		Target:  d.Target,
		Reason:  d.Reason,
	}
}

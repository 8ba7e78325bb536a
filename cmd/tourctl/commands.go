package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	domainSession "github.com/careroute/tour-backend-go/internal/domain/session"
	"github.com/careroute/tour-backend-go/internal/domain/tour"
	"github.com/careroute/tour-backend-go/internal/service/reorder"
	"github.com/careroute/tour-backend-go/internal/service/session"
)

var errUsage = errors.New("invalid usage")

// API is the part of the tour API the commands use.
type API interface {
	reorder.RouteClient
	reorder.RouteLister
	ListAppointments(ctx context.Context, weekday tour.Weekday, calendarWeek int) ([]tour.AppointmentResponse, error)
	OptimizeRoutes(ctx context.Context, req tour.OptimizeRoutesRequest) (tour.OptimizeRoutesResponse, error)
	Stops(ctx context.Context, query tour.StopsQuery) (tour.ResolutionResponse, error)
	WeekendAreas(ctx context.Context) ([]string, error)
}

type app struct {
	api     API
	session *session.Session
	week    int
	out     io.Writer

	routes     *reorder.RouteCache
	controller *reorder.Controller

	// loadErr is set when the profile could not be read; commands that
	// write the profile refuse to run so they cannot overwrite it.
	loadErr error
}

// writesProfile lists the commands that save the local profile.
var writesProfile = map[string]bool{
	"actor":    true,
	"weekday":  true,
	"toggle":   true,
	"clear":    true,
	"optimize": true,
}

func newApp(api API, sess *session.Session, week int, out io.Writer) *app {
	routes := reorder.NewRouteCache()
	return &app{
		api:        api,
		session:    sess,
		week:       week,
		out:        out,
		routes:     routes,
		controller: reorder.NewController(routes, api),
	}
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	if a.loadErr != nil && writesProfile[command] {
		return fmt.Errorf("profile could not be read, not changing it: %w", a.loadErr)
	}

	switch command {
	case "state":
		return a.state()
	case "actor":
		return a.selectActor(ctx, args)
	case "weekday":
		return a.selectWeekday(ctx, args)
	case "areas":
		return a.areas(ctx)
	case "appointments":
		return a.appointments(ctx)
	case "routes":
		return a.listRoutes(ctx)
	case "stops":
		return a.stops(ctx)
	case "toggle":
		return a.toggle(ctx, args)
	case "clear":
		return a.clear(ctx, args)
	case "move":
		return a.move(ctx, args)
	case "drag":
		return a.drag(ctx, args)
	case "optimize":
		return a.optimize(ctx)
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, command)
}

func (a *app) state() error {
	state := a.session.State()

	actor := "-"
	if state.Actor != nil {
		actor = state.Actor.Key
	}
	weekday := "-"
	if state.Weekday != nil {
		weekday = *state.Weekday
	}
	fmt.Fprintf(a.out, "actor:   %s\nweekday: %s\nweek:    %d\n", actor, weekday, a.week)
	days := make([]string, 0, len(state.Completed))
	for day := range state.Completed {
		days = append(days, day)
	}
	sort.Strings(days)
	for _, day := range days {
		fmt.Fprintf(a.out, "done %s: %s\n", day, joinIDs(state.Completed[day]))
	}
	return nil
}

func (a *app) selectActor(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: actor employee <id> | actor area <name>", errUsage)
	}

	var actor tour.Actor
	switch args[0] {
	case "employee":
		id, err := parseID(args[1])
		if err != nil {
			return err
		}
		actor = tour.EmployeeActor(id)
	case "area":
		actor = tour.AreaActor(strings.TrimSpace(args[1]))
	default:
		return fmt.Errorf("%w: actor kind must be employee or area", errUsage)
	}

	if err := a.session.SelectActor(ctx, actor); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "acting as %s\n", actor.Key())
	return nil
}

func (a *app) selectWeekday(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: weekday <day>", errUsage)
	}
	day, err := tour.ParseWeekday(args[0])
	if err != nil {
		return err
	}
	if err := a.session.SelectWeekday(ctx, day); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "weekday %s\n", day)
	return nil
}

func (a *app) areas(ctx context.Context) error {
	areas, err := a.api.WeekendAreas(ctx)
	if err != nil {
		return err
	}
	for _, area := range areas {
		fmt.Fprintln(a.out, area)
	}
	return nil
}

func (a *app) appointments(ctx context.Context) error {
	weekday, err := a.weekday()
	if err != nil {
		return err
	}
	appointments, err := a.api.ListAppointments(ctx, weekday, a.week)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPATIENT\tTYPE\tEMPLOYEE\tAREA\tTIME")
	for _, appt := range appointments {
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\t%s\n", appt.ID, appt.PatientID, appt.VisitType, optionalID(appt.EmployeeID), optionalString(appt.Area), optionalString(appt.Time))
	}
	return w.Flush()
}

func (a *app) listRoutes(ctx context.Context) error {
	if err := a.refresh(ctx); err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ROUTE\tEMPLOYEE\tAREA\tORDER\tDURATION\tDISTANCE")
	for _, r := range a.routes.Routes() {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%.1f\n", r.ID, optionalID(r.EmployeeID), optionalString(r.Area), joinIDs(r.RouteOrder), r.TotalDuration, r.TotalDistance)
	}
	return w.Flush()
}

// stops shows the server's resolution with this profile's completion marks.
func (a *app) stops(ctx context.Context) error {
	query, err := a.stopsQuery()
	if err != nil {
		return err
	}
	resolution, err := a.api.Stops(ctx, query)
	if err != nil {
		return err
	}

	marks := a.session.Completion()
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "\tPOS\tID\tPATIENT\tTYPE\tROLE\tWITH\tADDRESS")
	for _, group := range []struct {
		name  string
		stops []tour.StopResponse
	}{
		{"route", resolution.RouteStops},
		{"coverage", resolution.CoverageStops},
		{"phone", resolution.PhoneStops},
	} {
		for _, s := range group.stops {
			s.IsCompleted = marks.IsCompleted(s.ID)
			check := "[ ]"
			if s.IsCompleted {
				check = "[x]"
			}
			position := group.name
			if s.Position != nil {
				position = strconv.Itoa(*s.Position)
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\t%s\t%s\n", check, position, s.ID, s.PatientName, s.VisitType, s.Role, counterpart(s), s.Address)
		}
	}
	return w.Flush()
}

func (a *app) toggle(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: toggle <appointment-id>", errUsage)
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	done, err := a.session.Toggle(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%d completed=%t\n", id, done)
	return nil
}

func (a *app) clear(ctx context.Context, args []string) error {
	switch {
	case len(args) == 0:
		return a.session.ClearCurrentWeekday(ctx)
	case len(args) == 1 && args[0] == "all":
		return a.session.ClearAll(ctx)
	}
	return fmt.Errorf("%w: clear [all]", errUsage)
}

func (a *app) move(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("%w: move <appointment-id> up|down", errUsage)
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := a.refresh(ctx); err != nil {
		return err
	}

	route, err := a.controller.Move(ctx, id, tour.Direction(strings.ToLower(args[1])))
	if err != nil {
		return a.reorderFailed(route, err)
	}
	fmt.Fprintf(a.out, "route %d: %s\n", route.ID, joinIDs(route.RouteOrder))
	return nil
}

// drag replays a pointer drag: every index but the last is a hover, the last
// one is where the stop is dropped.
func (a *app) drag(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: drag <appointment-id> <index>... (indices start at 0, POS-1)", errUsage)
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	indices := make([]int, 0, len(args)-1)
	for _, arg := range args[1:] {
		idx, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("%w: index %q is not a number", errUsage, arg)
		}
		indices = append(indices, idx)
	}
	if err := a.refresh(ctx); err != nil {
		return err
	}

	if err := a.controller.BeginDrag(id); err != nil {
		return err
	}
	for _, idx := range indices {
		if err := a.controller.Hover(idx); err != nil {
			a.controller.Cancel()
			return err
		}
		if preview, ok := a.controller.Preview(); ok {
			fmt.Fprintf(a.out, "hover %d: %s\n", idx, joinIDs(preview))
		}
	}

	route, err := a.controller.Drop(ctx)
	if err != nil {
		return a.reorderFailed(route, err)
	}
	if a.controller.State() == reorder.StateCancelled {
		fmt.Fprintln(a.out, "dropped at start, nothing changed")
		return nil
	}
	fmt.Fprintf(a.out, "route %d: %s\n", route.ID, joinIDs(route.RouteOrder))
	return nil
}

func (a *app) optimize(ctx context.Context) error {
	query, err := a.stopsQuery()
	if err != nil {
		return err
	}

	result, err := a.api.OptimizeRoutes(ctx, tour.OptimizeRoutesRequest{
		Weekday:      query.Weekday,
		CalendarWeek: query.CalendarWeek,
		EmployeeID:   query.EmployeeID,
		Area:         query.Area,
	})
	if err != nil {
		return err
	}
	if err := a.session.NotifyOptimized(ctx); err != nil {
		return fmt.Errorf("routes optimized but completion marks were not cleared: %w", err)
	}

	fmt.Fprintf(a.out, "run %s\n", result.RunID)
	for _, r := range result.Routes {
		fmt.Fprintf(a.out, "route %d: %s\n", r.ID, joinIDs(r.RouteOrder))
	}
	return nil
}

// refresh loads the routes of the current selection into the cache.
func (a *app) refresh(ctx context.Context) error {
	query, err := a.stopsQuery()
	if err != nil {
		return err
	}
	return a.routes.Refresh(ctx, a.api, tour.RouteFilter{
		Weekday:      query.Weekday,
		CalendarWeek: query.CalendarWeek,
		EmployeeID:   query.EmployeeID,
		Area:         query.Area,
	})
}

func (a *app) reorderFailed(route tour.Route, err error) error {
	if route.ID != 0 && a.routes.IsStale(route.ID) {
		fmt.Fprintf(a.out, "route %d (unconfirmed): %s\n", route.ID, joinIDs(route.RouteOrder))
	}
	return err
}

func (a *app) weekday() (tour.Weekday, error) {
	day, ok := a.session.Weekday()
	if !ok {
		return "", domainSession.ErrNoWeekdaySelected
	}
	return day, nil
}

func (a *app) stopsQuery() (tour.StopsQuery, error) {
	day, err := a.weekday()
	if err != nil {
		return tour.StopsQuery{}, err
	}
	actor := a.session.Actor()
	if actor.IsZero() {
		return tour.StopsQuery{}, domainSession.ErrNoActorSelected
	}

	query := tour.StopsQuery{Weekday: string(day), CalendarWeek: a.week}
	if actor.IsArea() {
		area := actor.Area
		query.Area = &area
	} else {
		id := actor.EmployeeID
		query.EmployeeID = &id
	}
	return query, nil
}

func counterpart(s tour.StopResponse) string {
	switch {
	case s.ResponsibleEmployeeName != nil:
		return "for " + *s.ResponsibleEmployeeName
	case s.TourEmployeeName != nil:
		return "by " + *s.TourEmployeeName
	case s.ResponsibleArea != nil:
		return "area " + *s.ResponsibleArea
	}
	return ""
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q is not a valid id", errUsage, s)
	}
	return id, nil
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, " ")
}

func optionalID(id *int64) string {
	if id == nil {
		return "-"
	}
	return strconv.FormatInt(*id, 10)
}

func optionalString(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

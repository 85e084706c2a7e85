package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/yourorg/feedbackflow/internal/domain"
	"github.com/yourorg/feedbackflow/internal/infrastructure/logger"
	"github.com/yourorg/feedbackflow/internal/repository"
	"github.com/yourorg/feedbackflow/internal/service"
	"github.com/yourorg/feedbackflow/pkg/config"
)

// The CLI runs against the fixture directory with a file-backed session, so
// a login survives across invocations the way the web client's persisted
// session survives a reload.
type app struct {
	sessions   *service.SessionService
	dashboards *service.DashboardService
	feedbacks  *service.FeedbackService
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.NewLogger("warn")

	directory := repository.SeedDirectory()
	feedbackRepo := repository.SeedFeedbackRepository(time.Now())
	sessionStore := repository.NewFileSessionStore(cfg.SessionFilePath, log)

	clock := service.SystemClock()
	a := &app{
		sessions:   service.NewSessionService(directory, sessionStore, log, cfg.LoginDelay),
		dashboards: service.NewDashboardService(directory, feedbackRepo, log, clock),
		feedbacks:  service.NewFeedbackService(feedbackRepo, directory, log, clock),
	}

	ctx := context.Background()
	a.sessions.Initialize(ctx)

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "auth":
		a.handleAuth(ctx, args)
	case "dashboard":
		a.showDashboard(ctx)
	case "feedback":
		a.handleFeedback(ctx, args)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func (a *app) handleAuth(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: feedbackflow auth <login|logout|who>")
		return
	}

	subCmd := args[0]
	switch subCmd {
	case "login":
		a.login(ctx, args[1:])
	case "logout":
		a.logout(ctx)
	case "who":
		a.whoAmI()
	default:
		fmt.Printf("unknown auth command: %s\n", subCmd)
	}
}

func (a *app) login(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "user email")
	password := fs.String("password", "", "password")

	fs.Parse(args)

	if *email == "" || *password == "" {
		fmt.Println("Error: email and password are required")
		fs.PrintDefaults()
		return
	}

	user, err := a.sessions.Login(ctx, *email, *password)
	if err != nil {
		fmt.Printf("✗ Login failed: %v\n", err)
		return
	}
	fmt.Printf("✓ Logged in as: %s (%s)\n", user.Name, user.Role)
}

func (a *app) logout(ctx context.Context) {
	a.sessions.Logout(ctx)
	fmt.Println("✓ Logged out")
}

func (a *app) whoAmI() {
	user := a.sessions.CurrentUser()
	if user == nil {
		fmt.Println("Not logged in")
		return
	}
	fmt.Printf("✓ Logged in as: %s <%s> (%s)\n", user.Name, user.Email, user.Role)
}

func (a *app) showDashboard(ctx context.Context) {
	user := a.requireUser()
	if user == nil {
		return
	}

	view, err := a.dashboards.ViewFor(ctx, user)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	switch {
	case view.Manager != nil:
		printManagerView(view.Manager)
	case view.Employee != nil:
		printEmployeeView(view.Employee)
	}
}

func printManagerView(v *service.ManagerView) {
	fmt.Printf("Team dashboard: %d members, %d feedbacks (%d recent, %d pending ack)\n",
		v.Stats.TotalTeamMembers, v.Stats.TotalFeedbacks, v.Stats.RecentFeedbacks, v.Stats.PendingAcknowledgments)
	fmt.Printf("Sentiment: %d positive / %d neutral / %d negative (%d%% positive)\n\n",
		v.Sentiment.Positive, v.Sentiment.Neutral, v.Sentiment.Negative, v.PositivePercentage)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MEMBER\tFEEDBACKS\tLAST")
	for _, m := range v.Members {
		last := "-"
		if m.LastFeedback != nil {
			last = m.LastFeedback.CreatedAt.Format("2006-01-02")
		}
		fmt.Fprintf(w, "%s\t%d\t%s\n", m.Member.Name, len(m.Feedbacks), last)
	}
	w.Flush()
}

func printEmployeeView(v *service.EmployeeView) {
	managerName := "-"
	if v.Manager != nil {
		managerName = v.Manager.Name
	}
	fmt.Printf("My feedback: %d received, %d unacknowledged, %d this month (manager: %s)\n",
		v.Stats.TotalReceived, v.Stats.Unacknowledged, v.Stats.ThisMonth, managerName)
	fmt.Printf("Sentiment: %d positive / %d neutral / %d negative (%d%% positive)\n\n",
		v.Sentiment.Positive, v.Sentiment.Neutral, v.Sentiment.Negative, v.PositivePercentage)

	printFeedbackTable(v.Feedbacks)
}

func (a *app) handleFeedback(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: feedbackflow feedback <list|ack>")
		return
	}

	subCmd := args[0]
	switch subCmd {
	case "list":
		a.listFeedback(ctx)
	case "ack":
		a.acknowledgeFeedback(ctx, args[1:])
	default:
		fmt.Printf("unknown feedback command: %s\n", subCmd)
	}
}

func (a *app) listFeedback(ctx context.Context) {
	user := a.requireUser()
	if user == nil {
		return
	}

	records, err := a.feedbacks.ListForUser(ctx, user)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	printFeedbackTable(records)
}

func (a *app) acknowledgeFeedback(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: feedbackflow feedback ack <feedback-id>")
		return
	}

	user := a.requireUser()
	if user == nil {
		return
	}

	if _, err := a.feedbacks.Acknowledge(ctx, args[0], user.ID); err != nil {
		fmt.Printf("✗ Acknowledge failed: %v\n", err)
		return
	}
	fmt.Printf("✓ Acknowledged: %s\n", args[0])
}

func (a *app) requireUser() *domain.User {
	user := a.sessions.CurrentUser()
	if user == nil {
		fmt.Println("Not logged in. Run: feedbackflow auth login -email <email> -password <password>")
	}
	return user
}

func printFeedbackTable(records []*domain.Feedback) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tSENTIMENT\tACK\tSTRENGTHS")
	for _, f := range records {
		ack := " "
		if f.Acknowledged {
			ack = "✓"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			f.ID, f.CreatedAt.Format("2006-01-02"), f.Sentiment, ack, truncate(f.Strengths, 48))
	}
	w.Flush()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func printUsage() {
	fmt.Print(`FeedbackFlow CLI

Usage:
  feedbackflow <command> [options]

Commands:
  auth       Session management (login, logout, who)
  dashboard  Show the role-specific dashboard
  feedback   Feedback operations (list, ack)
  help       Show this help message

Environment Variables:
  SESSION_FILE_PATH   Session file location (default: ~/.feedbackflow/session.json)
  LOGIN_DELAY_MS      Simulated login delay (default: 1000)

Examples:
  feedbackflow auth login -email sarah.johnson@company.com -password password
  feedbackflow dashboard
  feedbackflow feedback ack f-1
`)
}

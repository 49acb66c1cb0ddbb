package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"okrboard/internal/audit"
	"okrboard/internal/config"
	"okrboard/internal/dashboard"
	"okrboard/internal/model"
	"okrboard/internal/progress"
	"okrboard/internal/workspace"
)

func runInit(args []string, workspacePath string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	appID := fs.String("app-id", "", "Application namespace (default okrboard)")
	team := fs.String("team", "", "Default team name (default General)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ws, err := workspace.Init(workspacePath)
	if err != nil {
		return err
	}

	if _, err := os.Stat(ws.ConfigPath); err == nil {
		fmt.Printf("Workspace already initialized at %s\n", ws.Root)
		return nil
	}

	cfg := config.Default()
	if *appID != "" {
		cfg.AppID = *appID
	}
	if *team != "" {
		cfg.DefaultTeam = *team
	}
	secret, err := newAuthSecret()
	if err != nil {
		return err
	}
	cfg.AuthSecret = secret

	if err := config.Write(ws.ConfigPath, cfg); err != nil {
		return err
	}
	fmt.Printf("Initialized workspace at %s\n", ws.Root)
	return nil
}

func runLogin(args []string, workspacePath string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	guest := fs.Bool("guest", false, "Sign in as a guest")
	token := fs.String("token", "", "Provider-issued session token")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !*guest && *token == "" {
		return fmt.Errorf("login requires --guest or --token")
	}

	a, err := openApp(workspacePath)
	if err != nil {
		return err
	}
	defer a.close()

	if *guest {
		user, sessionToken, err := a.auth.SignInAsGuest()
		if err != nil {
			return err
		}
		if err := a.saveSession(sessionToken); err != nil {
			return err
		}
		fmt.Printf("Signed in as guest (id %s)\n", shortID(user.ID))
		return nil
	}

	user, err := a.auth.SignInWithToken(*token)
	if err != nil {
		return err
	}
	if err := a.saveSession(*token); err != nil {
		return err
	}
	fmt.Printf("Signed in as %s\n", displayName(user.DisplayName, user.ID))
	return nil
}

func runLogout(args []string, workspacePath string) error {
	fs := flag.NewFlagSet("logout", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	ws, err := workspace.Resolve(workspacePath)
	if err != nil {
		return err
	}
	a := &app{ws: ws}
	if err := a.clearSession(); err != nil {
		return err
	}
	fmt.Println("Signed out.")
	return nil
}

func runWhoami(args []string, workspacePath string) error {
	fs := flag.NewFlagSet("whoami", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := openApp(workspacePath)
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.restoreSession(); err != nil {
		return err
	}

	user := a.auth.CurrentUser()
	kind := "user"
	if user.Guest {
		kind = "guest"
	}
	fmt.Printf("%s (%s, id %s)\n", displayName(user.DisplayName, user.ID), kind, shortID(user.ID))
	if user.Email != "" {
		fmt.Println(user.Email)
	}
	return nil
}

// orgFile is the YAML shape accepted by `org set --file`.
type orgFile struct {
	Okrs []model.OrgObjective `yaml:"okrs"`
}

func runOrg(args []string, workspacePath string) error {
	if len(args) == 0 {
		return fmt.Errorf("org requires a subcommand: show, set")
	}

	switch args[0] {
	case "show":
		a, err := openApp(workspacePath)
		if err != nil {
			return err
		}
		defer a.close()
		if err := a.restoreSession(); err != nil {
			return err
		}

		okrs := a.ctrl.OrgObjectives()
		if len(okrs) == 0 {
			fmt.Println("No organizational OKRs defined yet.")
			return nil
		}
		for i, okr := range okrs {
			fmt.Printf("%d. %s\n", i+1, okr.Objective)
			for _, kr := range okr.KeyResults {
				fmt.Printf("   - %s\n", kr.Name)
			}
		}
		return nil

	case "set":
		fs := flag.NewFlagSet("org set", flag.ContinueOnError)
		file := fs.String("file", "", "YAML file with organizational OKRs")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *file == "" {
			return fmt.Errorf("org set requires --file")
		}

		data, err := os.ReadFile(*file)
		if err != nil {
			return fmt.Errorf("read %s: %w", *file, err)
		}
		var parsed orgFile
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return fmt.Errorf("parse %s: %w", *file, err)
		}

		a, err := openApp(workspacePath)
		if err != nil {
			return err
		}
		defer a.close()
		if err := a.restoreSession(); err != nil {
			return err
		}

		if err := a.ctrl.SaveOrgObjectives(parsed.Okrs); err != nil {
			return err
		}
		a.printLastNote()
		return nil

	default:
		return fmt.Errorf("unknown org subcommand: %s", args[0])
	}
}

func runSetup(args []string, workspacePath string) error {
	if len(args) == 0 {
		return fmt.Errorf("setup requires a subcommand: show, set")
	}

	switch args[0] {
	case "show":
		a, err := openApp(workspacePath)
		if err != nil {
			return err
		}
		defer a.close()
		if err := a.restoreSession(); err != nil {
			return err
		}

		cfg := a.ctrl.Setup()
		fmt.Printf("Cycle:      %s (%s to %s)\n", orDash(cfg.CycleDuration), orDash(cfg.CycleStartDate), orDash(cfg.CycleEndDate))
		fmt.Printf("Ambassador: %s\n", orDash(cfg.OrganizationalAmbassador))
		for _, amb := range cfg.TeamAmbassadors {
			fmt.Printf("  %s: %s\n", amb.Team, amb.Name)
		}
		return nil

	case "set":
		fs := flag.NewFlagSet("setup set", flag.ContinueOnError)
		duration := fs.String("duration", "", "Cycle duration, e.g. quarter")
		start := fs.String("start", "", "Cycle start date (YYYY-MM-DD)")
		end := fs.String("end", "", "Cycle end date (YYYY-MM-DD)")
		ambassador := fs.String("ambassador", "", "Organizational ambassador")
		teamAmbassadors := fs.String("team-ambassadors", "", "Comma-separated Team=Name pairs")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}

		cfg := model.SetupConfig{
			CycleDuration:            *duration,
			CycleStartDate:           *start,
			CycleEndDate:             *end,
			OrganizationalAmbassador: *ambassador,
		}
		if *teamAmbassadors != "" {
			for _, pair := range strings.Split(*teamAmbassadors, ",") {
				team, name, ok := strings.Cut(strings.TrimSpace(pair), "=")
				if !ok {
					return fmt.Errorf("invalid team ambassador %q (expected Team=Name)", pair)
				}
				cfg.TeamAmbassadors = append(cfg.TeamAmbassadors, model.TeamAmbassador{Team: team, Name: name})
			}
		}

		a, err := openApp(workspacePath)
		if err != nil {
			return err
		}
		defer a.close()
		if err := a.restoreSession(); err != nil {
			return err
		}

		if err := a.ctrl.SaveSetup(cfg); err != nil {
			return err
		}
		a.printLastNote()
		return nil

	default:
		return fmt.Errorf("unknown setup subcommand: %s", args[0])
	}
}

func runOkr(args []string, workspacePath string) error {
	if len(args) == 0 {
		return fmt.Errorf("okr requires a subcommand: create, list, progress, health, close, delete")
	}

	withSession := func(fn func(a *app) error) error {
		a, err := openApp(workspacePath)
		if err != nil {
			return err
		}
		defer a.close()
		if err := a.restoreSession(); err != nil {
			return err
		}
		return fn(a)
	}

	switch args[0] {
	case "create":
		fs := flag.NewFlagSet("okr create", flag.ContinueOnError)
		objective := fs.String("objective", "", "Team objective text")
		align := fs.String("align", "", "Organizational objective this aligns to")
		team := fs.String("team", "", "Team name")
		krs := fs.String("kr", "", "Comma-separated key result names")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}

		draft := model.TeamOkr{
			Objective: *objective,
			AlignedTo: *align,
			Team:      *team,
		}
		for _, name := range strings.Split(*krs, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			draft.KeyResults = append(draft.KeyResults, model.KeyResult{
				Name:        name,
				Type:        model.KeyResultTypeMetric,
				TargetValue: 100,
			})
		}

		return withSession(func(a *app) error {
			id, err := a.ctrl.CreateTeamOkr(draft)
			if err != nil {
				return err
			}
			a.printLastNote()
			fmt.Printf("id: %s\n", id)
			return nil
		})

	case "list":
		fs := flag.NewFlagSet("okr list", flag.ContinueOnError)
		all := fs.Bool("all", false, "Include closed OKRs")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}

		return withSession(func(a *app) error {
			okrs := a.ctrl.TeamOkrs()
			shown := 0
			for _, okr := range okrs {
				if okr.Status == model.StatusClosed && !*all {
					continue
				}
				shown++
				fmt.Printf("%s  [%s/%s]  %3d%%  %s (%s)\n",
					okr.ID, okr.Status, okr.HealthOrDefault(),
					progress.Overall(okr.KeyResults), okr.Objective, okr.Team)
				for i, kr := range okr.KeyResults {
					fmt.Printf("    kr[%d] %3d%%  %s\n", i, progress.LatestValue(kr), kr.Name)
				}
				if okr.Retrospective != nil {
					fmt.Printf("    retrospective: %s\n", okr.Retrospective.Reflection)
				}
			}
			if shown == 0 {
				fmt.Println("No team OKRs yet.")
			}
			return nil
		})

	case "progress":
		fs := flag.NewFlagSet("okr progress", flag.ContinueOnError)
		id := fs.String("id", "", "Team OKR id")
		kr := fs.Int("kr", 0, "Key result index")
		value := fs.Int("value", -1, "Progress value (0-100)")
		comment := fs.String("comment", "", "Optional comment")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}

		return withSession(func(a *app) error {
			if err := a.ctrl.RecordProgress(*id, *kr, *value, *comment); err != nil {
				return err
			}
			a.printLastNote()
			return nil
		})

	case "health":
		fs := flag.NewFlagSet("okr health", flag.ContinueOnError)
		id := fs.String("id", "", "Team OKR id")
		status := fs.String("status", "", "on_track, at_risk, or off_track")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}

		return withSession(func(a *app) error {
			if err := a.ctrl.SetHealth(*id, model.Health(*status)); err != nil {
				return err
			}
			a.printLastNote()
			return nil
		})

	case "close":
		fs := flag.NewFlagSet("okr close", flag.ContinueOnError)
		id := fs.String("id", "", "Team OKR id")
		reflection := fs.String("reflection", "", "How did the cycle go?")
		achievements := fs.String("achievements", "", "What was achieved?")
		learnings := fs.String("learnings", "", "What was learned?")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}

		retro := model.Retrospective{
			Reflection:   *reflection,
			Achievements: *achievements,
			Learnings:    *learnings,
		}
		return withSession(func(a *app) error {
			if err := a.ctrl.CloseOkr(*id, retro); err != nil {
				return err
			}
			a.printLastNote()
			return nil
		})

	case "delete":
		fs := flag.NewFlagSet("okr delete", flag.ContinueOnError)
		id := fs.String("id", "", "Team OKR id")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}

		return withSession(func(a *app) error {
			if err := a.ctrl.DeleteOkr(*id); err != nil {
				return err
			}
			a.printLastNote()
			return nil
		})

	default:
		return fmt.Errorf("unknown okr subcommand: %s", args[0])
	}
}

func runDashboard(args []string, workspacePath string) error {
	fs := flag.NewFlagSet("dashboard", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "Emit the rollup as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := openApp(workspacePath)
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.restoreSession(); err != nil {
		return err
	}

	summary := dashboard.Build(a.ctrl.OrgObjectives(), a.ctrl.TeamOkrs())

	if *asJSON {
		data, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Printf("Active OKRs: %d   Closed: %d   Overall: %d%%\n",
		summary.TotalActive, summary.TotalClosed, summary.OverallProgress)
	fmt.Printf("Health: %d on track, %d at risk, %d off track\n",
		summary.Health.OnTrack, summary.Health.AtRisk, summary.Health.OffTrack)
	for _, team := range summary.Teams {
		fmt.Printf("  %-16s %3d%%  %d active, %d closed\n",
			team.Team, team.AverageProgress, team.Active, team.Closed)
	}
	if len(summary.Alignment) > 0 {
		fmt.Println("Alignment:")
		for _, row := range summary.Alignment {
			fmt.Printf("  %d  %s\n", row.Aligned, row.Objective)
		}
		if summary.Unaligned > 0 {
			fmt.Printf("  %d OKR(s) not aligned to any organizational objective\n", summary.Unaligned)
		}
	}
	return nil
}

func runInitiative(args []string, workspacePath string) error {
	if len(args) == 0 {
		return fmt.Errorf("initiative requires a subcommand: add, list, status")
	}

	withSession := func(fn func(a *app) error) error {
		a, err := openApp(workspacePath)
		if err != nil {
			return err
		}
		defer a.close()
		if err := a.restoreSession(); err != nil {
			return err
		}
		return fn(a)
	}

	switch args[0] {
	case "add":
		fs := flag.NewFlagSet("initiative add", flag.ContinueOnError)
		name := fs.String("name", "", "Initiative name")
		description := fs.String("description", "", "What this initiative does")
		owner := fs.String("owner", "", "Responsible person")
		okrID := fs.String("okr", "", "Linked team OKR id")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}

		draft := model.Initiative{
			Name:        *name,
			Description: *description,
			Owner:       *owner,
			LinkedOkrID: *okrID,
		}
		return withSession(func(a *app) error {
			id, err := a.ctrl.SaveInitiative(draft)
			if err != nil {
				return err
			}
			a.printLastNote()
			fmt.Printf("id: %s\n", id)
			return nil
		})

	case "list":
		return withSession(func(a *app) error {
			inis := a.ctrl.Initiatives()
			if len(inis) == 0 {
				fmt.Println("No initiatives yet.")
				return nil
			}
			for _, ini := range inis {
				linked := "(okr not found)"
				if okr, ok := a.ctrl.ResolveInitiativeOkr(ini); ok {
					linked = okr.Objective
				}
				fmt.Printf("%s  [%s]  %s -> %s\n", ini.ID, ini.Status, ini.Name, linked)
			}
			return nil
		})

	case "status":
		fs := flag.NewFlagSet("initiative status", flag.ContinueOnError)
		id := fs.String("id", "", "Initiative id")
		status := fs.String("status", "", "Pendiente, En Progreso, or Completado")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}

		return withSession(func(a *app) error {
			var target *model.Initiative
			for _, ini := range a.ctrl.Initiatives() {
				if ini.ID == *id {
					copied := ini
					target = &copied
					break
				}
			}
			if target == nil {
				return fmt.Errorf("initiative not found: %s", *id)
			}
			target.Status = model.InitiativeStatus(*status)
			if _, err := a.ctrl.SaveInitiative(*target); err != nil {
				return err
			}
			a.printLastNote()
			return nil
		})

	default:
		return fmt.Errorf("unknown initiative subcommand: %s", args[0])
	}
}

func runReport(args []string, workspacePath string) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	message := fs.String("message", "", "Problem description")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := openApp(workspacePath)
	if err != nil {
		return err
	}
	defer a.close()
	if err := a.restoreSession(); err != nil {
		return err
	}

	if err := a.ctrl.ReportProblem(*message); err != nil {
		return err
	}
	a.printLastNote()
	return nil
}

func runAudit(args []string, workspacePath string) error {
	fs := flag.NewFlagSet("audit", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "Maximum events to show")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ws, err := workspace.Resolve(workspacePath)
	if err != nil {
		return err
	}
	events, err := audit.NewLogger(ws.AuditDBPath).ListEvents(*limit)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Println("No audit events yet.")
		return nil
	}
	for _, ev := range events {
		fmt.Printf("%s  %-20s  %s  %s\n",
			ev.Timestamp.UTC().Format("2006-01-02 15:04:05"),
			ev.Type, shortID(ev.Actor), ev.PayloadJSON)
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func displayName(name, id string) string {
	if name != "" {
		return name
	}
	return shortID(id)
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}

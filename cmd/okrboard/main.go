package main

import (
	"flag"
	"fmt"
	"os"
)

const appName = "okrboard"

func main() {
	flag.String("workspace", "", "Path to workspace root")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s: OKR cycle management\n\n", appName)
		fmt.Fprintf(os.Stderr, "Usage:\n  %s [command] [flags]\n\n", appName)
		fmt.Fprintln(os.Stderr, "Commands:")
		fmt.Fprintln(os.Stderr, "  init        Initialize a new workspace")
		fmt.Fprintln(os.Stderr, "  login       Sign in (guest or provider token)")
		fmt.Fprintln(os.Stderr, "  logout      Sign out")
		fmt.Fprintln(os.Stderr, "  whoami      Show the current user")
		fmt.Fprintln(os.Stderr, "  org         Manage organizational OKRs")
		fmt.Fprintln(os.Stderr, "  setup       Manage cycle setup")
		fmt.Fprintln(os.Stderr, "  okr         Manage team OKRs")
		fmt.Fprintln(os.Stderr, "  dashboard   Show the cycle rollup")
		fmt.Fprintln(os.Stderr, "  initiative  Manage initiatives")
		fmt.Fprintln(os.Stderr, "  report      Send a problem report")
		fmt.Fprintln(os.Stderr, "  audit       Show recent audit events")
		fmt.Fprintln(os.Stderr, "  help        Show this help")
		fmt.Fprintln(os.Stderr, "\nFlags:")
		flag.PrintDefaults()
	}

	workspacePath, remaining, err := extractWorkspaceFlag(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	args := remaining
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		flag.Usage()
		return
	}

	var cmdErr error
	switch args[0] {
	case "init":
		cmdErr = runInit(args[1:], workspacePath)
	case "login":
		cmdErr = runLogin(args[1:], workspacePath)
	case "logout":
		cmdErr = runLogout(args[1:], workspacePath)
	case "whoami":
		cmdErr = runWhoami(args[1:], workspacePath)
	case "org":
		cmdErr = runOrg(args[1:], workspacePath)
	case "setup":
		cmdErr = runSetup(args[1:], workspacePath)
	case "okr":
		cmdErr = runOkr(args[1:], workspacePath)
	case "dashboard":
		cmdErr = runDashboard(args[1:], workspacePath)
	case "initiative":
		cmdErr = runInitiative(args[1:], workspacePath)
	case "report":
		cmdErr = runReport(args[1:], workspacePath)
	case "audit":
		cmdErr = runAudit(args[1:], workspacePath)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args[0])
		flag.Usage()
		os.Exit(1)
	}

	if cmdErr != nil {
		fmt.Fprintln(os.Stderr, cmdErr)
		os.Exit(1)
	}
}

// extractWorkspaceFlag pulls --workspace out of the argument list so it
// can precede or follow the subcommand.
func extractWorkspaceFlag(args []string) (string, []string, error) {
	var workspacePath string
	var remaining []string

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--workspace" || arg == "-workspace":
			if i+1 >= len(args) {
				return "", nil, fmt.Errorf("--workspace requires a value")
			}
			workspacePath = args[i+1]
			i++
		case len(arg) > 12 && arg[:12] == "--workspace=":
			workspacePath = arg[12:]
		case len(arg) > 11 && arg[:11] == "-workspace=":
			workspacePath = arg[11:]
		default:
			remaining = append(remaining, arg)
		}
	}

	if workspacePath == "" {
		workspacePath = os.Getenv("OKRBOARD_WORKSPACE")
	}
	if workspacePath == "" {
		workspacePath = "."
	}
	return workspacePath, remaining, nil
}

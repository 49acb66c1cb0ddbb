package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"okrboard/internal/audit"
	"okrboard/internal/auth"
	"okrboard/internal/config"
	"okrboard/internal/notify"
	"okrboard/internal/session"
	"okrboard/internal/store"
	"okrboard/internal/workspace"
)

// app bundles the collaborators one CLI invocation needs.
type app struct {
	ws    *workspace.Workspace
	cfg   config.Config
	store *store.SQLiteStore
	auth  *auth.Service
	notes *notify.Center
	ctrl  *session.Controller
}

// openApp resolves the workspace, loads config, and wires the store,
// auth service, and session controller.
func openApp(workspacePath string) (*app, error) {
	ws, err := workspace.Resolve(workspacePath)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(ws.ConfigPath)
	if err != nil {
		return nil, err
	}
	if cfg.AuthSecret == "" {
		return nil, fmt.Errorf("auth secret is not configured; run %s init or set OKRBOARD_AUTH_SECRET", appName)
	}

	st, err := store.OpenSQLite(ws.DataDBPath)
	if err != nil {
		return nil, err
	}

	authSvc, err := auth.NewService(auth.Config{Secret: []byte(cfg.AuthSecret)})
	if err != nil {
		st.Close()
		return nil, err
	}

	notes := &notify.Center{}
	ctrl, err := session.New(session.Options{
		Store:         st,
		Auth:          authSvc,
		Audit:         audit.NewLogger(ws.AuditDBPath),
		Notifications: notes,
		AppID:         cfg.AppID,
		DefaultTeam:   cfg.DefaultTeam,
	})
	if err != nil {
		st.Close()
		return nil, err
	}
	if err := ctrl.Start(); err != nil {
		st.Close()
		return nil, err
	}

	return &app{ws: ws, cfg: cfg, store: st, auth: authSvc, notes: notes, ctrl: ctrl}, nil
}

func (a *app) close() {
	a.ctrl.Stop()
	_ = a.store.Close()
}

// restoreSession signs in with the persisted session token.
func (a *app) restoreSession() error {
	data, err := os.ReadFile(a.ws.SessionPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("not signed in; run %s login", appName)
		}
		return fmt.Errorf("read session: %w", err)
	}
	token := strings.TrimSpace(string(data))
	if _, err := a.auth.SignInWithToken(token); err != nil {
		return fmt.Errorf("session expired or invalid; run %s login again: %w", appName, err)
	}
	return nil
}

func (a *app) saveSession(token string) error {
	if err := a.ws.EnsureDirs(); err != nil {
		return err
	}
	if err := os.WriteFile(a.ws.SessionPath, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

func (a *app) clearSession() error {
	if err := os.Remove(a.ws.SessionPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

// printLastNote echoes the action's notification to stdout.
func (a *app) printLastNote() {
	if n, ok := a.notes.Last(); ok {
		fmt.Println(n.Message)
	}
}

func newAuthSecret() (string, error) {
	var raw [32]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", fmt.Errorf("generate auth secret: %w", err)
	}
	return hex.EncodeToString(raw[:]), nil
}

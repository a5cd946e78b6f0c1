package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"classroom-levels-service/internal/domain"
)

// SessionControl is what the operator console drives.
type SessionControl interface {
	StartSession(ctx context.Context) error
	Status() domain.SessionStatus
	Participants() []domain.Participant
}

// RunConsole reads operator commands from in until EOF or exit. exit also
// calls shutdown.
func RunConsole(ctx context.Context, in io.Reader, out io.Writer, session SessionControl, shutdown func()) {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, "ADMIN > ")
	for scanner.Scan() {
		cmd := strings.ToLower(strings.TrimSpace(scanner.Text()))
		switch cmd {
		case "":
		case "start":
			err := session.StartSession(ctx)
			switch {
			case errors.Is(err, domain.ErrNoParticipants):
				fmt.Fprintln(out, "[!] cannot start without students")
			case err != nil:
				fmt.Fprintf(out, "[!] start failed: %v\n", err)
			default:
				fmt.Fprintln(out, "[OK] game started")
			}
		case "status":
			printStatus(out, session.Status())
		case "list":
			fmt.Fprintln(out, "--- STUDENTS ---")
			for _, p := range session.Participants() {
				fmt.Fprintf(out, "- %s (position: [%d, %d])\n", p.Name, p.Position.X(), p.Position.Y())
			}
		case "exit":
			fmt.Fprintln(out, "[*] shutting down...")
			shutdown()
			return
		case "help":
			fmt.Fprintln(out, "commands: start, status, list, exit")
		default:
			fmt.Fprintf(out, "unknown command %q, try help\n", cmd)
		}
		fmt.Fprint(out, "ADMIN > ")
	}
}

func printStatus(out io.Writer, s domain.SessionStatus) {
	fmt.Fprintln(out, "--- STATUS ---")
	fmt.Fprintf(out, "students: %d\n", s.Participants)
	fmt.Fprintf(out, "running: %t\n", s.Started)
	if s.LevelID != "" {
		fmt.Fprintf(out, "level: %s (%s) #%d\n", s.LevelTitle, s.LevelType, s.LevelIndex+1)
	}
}

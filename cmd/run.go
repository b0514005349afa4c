package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/abhisek/studypod/internal/app"
	"github.com/abhisek/studypod/internal/course"
	"github.com/abhisek/studypod/internal/gateway"
	"github.com/abhisek/studypod/internal/screen"
	"github.com/abhisek/studypod/internal/screens/history"
	"github.com/abhisek/studypod/internal/screens/study"
	"github.com/abhisek/studypod/internal/screens/welcome"
	"github.com/abhisek/studypod/internal/store"
	"github.com/spf13/cobra"
)

// runApp opens the store, resolves the course and gateway, and launches
// the TUI.
func runApp(cmd *cobra.Command) error {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	events := st.EventRepo()
	client, err := newGatewayClient(cmd, events)
	if err != nil {
		return err
	}

	courseArg := flagOrEnv(cmd, "course", "STUDYPOD_COURSE")
	src, courseID, err := resolveCourse(courseArg, client)
	if err != nil {
		return err
	}

	var gw study.Gateway
	var check func(ctx context.Context) error
	if client != nil {
		gw = client
		check = func(ctx context.Context) error {
			h, err := client.Health(ctx)
			if err != nil {
				return err
			}
			return gateway.CheckCompatible(h)
		}
	} else {
		fmt.Fprintln(os.Stderr, "No gateway configured (--gateway or STUDYPOD_GATEWAY).")
		fmt.Fprintln(os.Stderr, "Feedback, chat and code runs will be unavailable.")
	}

	duration, _ := cmd.Flags().GetInt("duration")
	focus := st.FocusRepo()

	player := func(o *course.Outline) screen.Screen {
		return study.New(study.Options{
			CourseID: courseID,
			Outline:  o,
			Source:   src,
			Gateway:  gw,
			Events:   events,
			History:  func() screen.Screen { return history.New(events, focus) },
		})
	}

	return app.Run(app.Options{
		Initial: welcome.New(welcome.Options{
			Load:  src.Outline,
			Check: check,
			Next:  player,
		}),
		Focus:           focus,
		DurationMinutes: duration,
	})
}

// newGatewayClient returns nil when no gateway URL is set. Every round
// trip is recorded as a gateway_call event.
func newGatewayClient(cmd *cobra.Command, events store.EventRepo) (*gateway.Client, error) {
	baseURL := flagOrEnv(cmd, "gateway", "STUDYPOD_GATEWAY")
	if baseURL == "" {
		return nil, nil
	}
	cfg := gateway.Config{
		BaseURL: baseURL,
		OnCall: func(ci gateway.CallInfo) {
			data := store.GatewayCallEventData{
				Operation:  ci.Op,
				StatusCode: ci.StatusCode,
				LatencyMs:  ci.Latency.Milliseconds(),
				Success:    ci.Err == nil,
			}
			if ci.Err != nil {
				data.ErrorMessage = ci.Err.Error()
			}
			_ = events.AppendGatewayCall(context.Background(), data)
		},
	}
	if token := flagOrEnv(cmd, "token", "STUDYPOD_TOKEN"); token != "" {
		cfg.Session = &gateway.Session{Token: token}
	}
	client, err := gateway.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("gateway: %w", err)
	}
	return client, nil
}

// resolveCourse treats arg as a course directory when one exists at that
// path, and as a gateway course id otherwise.
func resolveCourse(arg string, client *gateway.Client) (course.Source, string, error) {
	if arg == "" {
		return nil, "", errors.New("no course selected: pass --course <dir> or --course <id> with --gateway")
	}
	if info, err := os.Stat(arg); err == nil && info.IsDir() {
		src := course.NewDirSource(arg)
		return src, src.CourseID(), nil
	}
	if client == nil {
		return nil, "", fmt.Errorf("course directory %q not found, and no gateway is configured to fetch it", arg)
	}
	return client.CourseSource(arg), arg, nil
}

func flagOrEnv(cmd *cobra.Command, flag, env string) string {
	if v, _ := cmd.Flags().GetString(flag); strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return strings.TrimSpace(os.Getenv(env))
}

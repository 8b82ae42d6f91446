// chat.go implements the "qudud chat" line-mode command.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qudud-dev/qudud/internal/conversation"
	"github.com/qudud-dev/qudud/internal/profile"
)

// exitCommand ends a line-mode conversation.
const exitCommand = "exit"

type chatOptions struct {
	frequency int
	craving   int
	mood      string
	reason    string
}

func newChatCmd(global *globalOptions) *cobra.Command {
	opts := &chatOptions{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with Qudud line by line",
		Long: `Start a session from the profile given on the command line, then read
messages from stdin, one per line, printing each reply. Type 'exit' or
close stdin to finish.`,
		Example: `  qudud chat --frequency 10 --craving 6 --mood stressed --reason "my kids"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := opts.profile()
			if err != nil {
				return err
			}

			projectRoot, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("getting current directory: %w", err)
			}

			rt, err := openRuntime(projectRoot, global, conversation.WithProfile(p))
			if err != nil {
				return err
			}
			defer rt.Close()

			return runChat(cmd.Context(), rt.ctrl, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVar(&opts.frequency, "frequency", profile.MinSmokingFrequency,
		fmt.Sprintf("Cigarettes per day (%d-%d)", profile.MinSmokingFrequency, profile.MaxSmokingFrequency))
	cmd.Flags().IntVar(&opts.craving, "craving", profile.MinCravingLevel,
		fmt.Sprintf("Craving level (%d-%d)", profile.MinCravingLevel, profile.MaxCravingLevel))
	cmd.Flags().StringVar(&opts.mood, "mood", "", "Current mood: "+moodList())
	cmd.Flags().StringVar(&opts.reason, "reason", "", "Your reason to quit")

	return cmd
}

// profile converts the flags into a submittable profile.
func (o *chatOptions) profile() (profile.Profile, error) {
	if o.frequency < profile.MinSmokingFrequency || o.frequency > profile.MaxSmokingFrequency {
		return profile.Profile{}, fmt.Errorf("--frequency must be between %d and %d",
			profile.MinSmokingFrequency, profile.MaxSmokingFrequency)
	}
	if o.craving < profile.MinCravingLevel || o.craving > profile.MaxCravingLevel {
		return profile.Profile{}, fmt.Errorf("--craving must be between %d and %d",
			profile.MinCravingLevel, profile.MaxCravingLevel)
	}

	p := profile.New()
	p.SmokingFrequency = o.frequency
	p.CravingLevel = o.craving
	p.ReasonToQuit = o.reason

	if o.mood != "" {
		m, err := profile.ParseMood(o.mood)
		if err != nil {
			return profile.Profile{}, fmt.Errorf("--mood: %w (choose one of %s)", err, moodList())
		}
		p.Mood = m
	}

	if err := p.Validate(); err != nil {
		var missing []string
		if errors.Is(err, profile.ErrMoodUnset) {
			missing = append(missing, "--mood")
		}
		if errors.Is(err, profile.ErrReasonEmpty) {
			missing = append(missing, "--reason")
		}
		return profile.Profile{}, fmt.Errorf("required: %s", strings.Join(missing, ", "))
	}
	return p, nil
}

func moodList() string {
	moods := profile.Moods()
	names := make([]string, len(moods))
	for i, m := range moods {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

// runChat submits ctrl's profile and then relays one turn per non-empty
// input line until exit or EOF. Failed turns print a notice and the loop
// continues; a failed initialization ends the command.
func runChat(ctx context.Context, ctrl *conversation.Controller, in io.Reader, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := ctrl.Submit(ctx); err != nil {
		return fmt.Errorf("could not start a session: %w", err)
	}
	for _, m := range ctrl.Messages() {
		fmt.Fprintf(out, "Bot: %s\n", m.Text)
	}

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.EqualFold(trimmed, exitCommand) {
			return nil
		}

		reply, err := ctrl.SendTurn(ctx, line)
		if err != nil {
			if errors.Is(err, conversation.ErrClosed) || errors.Is(err, context.Canceled) {
				return nil
			}
			fmt.Fprintf(out, "Message not delivered: %v\n", err)
			continue
		}
		fmt.Fprintf(out, "Bot: %s\n", reply)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	return nil
}

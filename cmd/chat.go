package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/tastebud/internal/formatter"
	"github.com/desertthunder/tastebud/internal/session"
	"github.com/desertthunder/tastebud/internal/shared"
	"github.com/desertthunder/tastebud/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Ask sends one query, or every query in --file, and prints the answers.
func (r *Runner) Ask(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	queryFile := cmd.String("file")

	if query == "" && queryFile == "" {
		return fmt.Errorf("%w: provide a query or --file", shared.ErrMissingArgument)
	}
	if query != "" && queryFile != "" {
		return fmt.Errorf("%w: cannot specify both a query and --file", shared.ErrInvalidArgument)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	s, err := r.newSession()
	if err != nil {
		return err
	}

	if queryFile != "" {
		if err := r.askAll(ctx, s, queryFile); err != nil {
			return err
		}
	} else if err := r.askOne(ctx, s, query, cmd.Bool("json")); err != nil {
		return err
	}

	if output := cmd.String("output"); output != "" {
		path, err := formatter.WriteTranscriptExport(s.ID, s.Chat.Transcript(), format, output, session.TranscriptTrackLimit)
		if err != nil {
			return err
		}
		r.writePlain("Transcript exported to %s\n", path)
	}
	return nil
}

func (r *Runner) askOne(ctx context.Context, s *session.Session, query string, asJSON bool) error {
	r.logger.Info("asking", "query", query)

	answer, err := s.Chat.Ask(ctx, query)
	if err != nil {
		r.writePlain("%s\n", answer.Text)
		return err
	}

	if asJSON {
		return r.writeJSON(answer, true)
	}
	r.writePlain("%s", formatter.AnswerText(answer, session.CompactTrackLimit))
	return nil
}

func (r *Runner) askAll(ctx context.Context, s *session.Session, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open query file: %w", err)
	}
	defer f.Close()

	queries, err := tasks.ReadQueries(f)
	if err != nil {
		return err
	}

	progressCh := make(chan tasks.ProgressUpdate, len(queries)*2)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.AskQuery:
				r.writePlain("\n🔍 %s\n", update.Message)
			case tasks.Answered:
				r.writePlain("   %s\n", update.Message)
			}
		}
	}()

	result, err := r.engine.Replay(ctx, s.Chat, queries, progressCh)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Answers")
	for _, qr := range result.Results {
		r.writePlain("\n> %s\n%s\n", qr.Query, formatter.AnswerText(qr.Answer, session.CompactTrackLimit))
	}
	r.writePlainln("Answered %d/%d questions", result.Succeeded, len(result.Results))

	if result.Failed > 0 {
		return fmt.Errorf("%w: %d of %d questions failed", shared.ErrAPIRequest, result.Failed, len(result.Results))
	}
	return nil
}

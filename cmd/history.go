package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/desertthunder/tastebud/internal/formatter"
	"github.com/desertthunder/tastebud/internal/models"
	"github.com/desertthunder/tastebud/internal/session"
	"github.com/desertthunder/tastebud/internal/shared"
	"github.com/urfave/cli/v3"
)

// HistoryList prints archived sessions newest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireArchive(); err != nil {
		return err
	}

	limit := int(cmd.Int("limit"))
	if limit <= 0 {
		return fmt.Errorf("%w: --limit must be positive", shared.ErrInvalidFlag)
	}

	summaries, err := r.archive.Sessions(limit)
	if err != nil {
		return err
	}

	if len(summaries) == 0 {
		r.writePlain("No archived sessions\n")
		return nil
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "STARTED", "MESSAGES", "UPLOADS", "BACKEND")
	for _, s := range summaries {
		t.Row(
			shared.ShortID(s.Session.ID()),
			s.Session.CreatedAt().Local().Format("2006-01-02 15:04"),
			strconv.Itoa(s.Messages),
			strconv.Itoa(s.Uploads),
			s.Session.BackendURL(),
		)
	}
	return r.writePlain("%s\n", t.String())
}

// HistoryShow prints the uploads and transcript of one archived session.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	record, transcript, err := r.loadArchived(cmd.StringArg("id"))
	if err != nil {
		return err
	}

	uploads, err := r.archive.Uploads(record.ID())
	if err != nil {
		return err
	}

	r.writePlainHeader(fmt.Sprintf("Session %s (%s)", shared.ShortID(record.ID()), record.CreatedAt().Local().Format("2006-01-02 15:04")))
	for _, u := range uploads {
		r.writePlain("📥 %s\n", formatter.UploadSummary(u.FileName(), u.Result()))
	}
	r.writePlain("\n")
	_, err = r.output.Write(formatter.TranscriptToText(transcript, session.TranscriptTrackLimit))
	return err
}

// HistoryExport writes the transcript of one archived session to a file.
func (r *Runner) HistoryExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	record, transcript, err := r.loadArchived(cmd.StringArg("id"))
	if err != nil {
		return err
	}

	path, err := formatter.WriteTranscriptExport(record.ID(), transcript, format, cmd.String("output"), session.TranscriptTrackLimit)
	if err != nil {
		return err
	}

	r.logger.Info("exported session", "session", shared.ShortID(record.ID()), "path", path)
	r.writePlain("✓ Exported %d messages to %s\n", len(transcript), path)
	return nil
}

// HistoryForget removes a session from listings.
func (r *Runner) HistoryForget(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireArchive(); err != nil {
		return err
	}

	record, err := r.archive.Session(cmd.StringArg("id"))
	if err != nil {
		return err
	}

	if err := r.archive.Forget(record.ID()); err != nil {
		return err
	}
	r.writePlain("✓ Forgot session %s\n", shared.ShortID(record.ID()))
	return nil
}

func (r *Runner) loadArchived(idOrPrefix string) (*models.SessionRecord, []models.Message, error) {
	if err := r.requireArchive(); err != nil {
		return nil, nil, err
	}

	record, err := r.archive.Session(idOrPrefix)
	if err != nil {
		return nil, nil, err
	}

	transcript, err := r.archive.Transcript(record.ID())
	if err != nil {
		return nil, nil, err
	}
	return record, transcript, nil
}

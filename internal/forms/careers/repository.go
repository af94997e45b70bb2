package careers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"iiot-site/internal/common/database"
	"iiot-site/internal/common/logger"
	"iiot-site/internal/common/validation"
)

var ErrDatabaseInsertFailed = errors.New("DATABASE_INSERT_FAILED")

const (
	widthName           = 100
	widthEmail          = 100
	widthPhone          = 20
	widthEducation      = 100
	widthAreaOfInterest = 100
	widthStartDate      = 50
	widthFilename       = 255
	widthMIME           = 100
	widthMessage        = 2000
)

const insertQuery = `
	INSERT INTO resumeform (
		id, name, email, phone, education, area_of_interest, start_date,
		resume_filename, resume_mime, message, resume, terms_accepted
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

// Repository writes applications, resume bytes included, to Postgres.
type Repository struct {
	db     *sql.DB
	logger logger.Logger
}

func NewRepository(db *sql.DB, log logger.Logger) *Repository {
	return &Repository{db: db, logger: log}
}

func (r *Repository) Insert(ctx context.Context, id string, a *Application) error {
	values, cut := validation.FitColumns([]validation.Column{
		{Name: "name", Value: a.Name, Width: widthName},
		{Name: "email", Value: a.Email, Width: widthEmail},
		{Name: "phone", Value: a.Phone, Width: widthPhone},
		{Name: "education", Value: a.Education, Width: widthEducation},
		{Name: "area_of_interest", Value: a.AreaOfInterest, Width: widthAreaOfInterest},
		{Name: "start_date", Value: a.StartDate, Width: widthStartDate},
		{Name: "resume_filename", Value: a.Resume.Filename, Width: widthFilename},
		{Name: "resume_mime", Value: a.Resume.ContentType, Width: widthMIME},
		{Name: "message", Value: a.Message, Width: widthMessage},
	})
	for _, t := range cut {
		r.logger.Warn("field truncated to column width", map[string]interface{}{
			"table":          "resumeform",
			"submissionId":   id,
			"field":          t.Column,
			"originalLength": t.OriginalLength,
			"width":          t.Width,
		})
	}

	args := make([]interface{}, 0, len(values)+3)
	args = append(args, id)
	for _, v := range values {
		args = append(args, v)
	}
	args = append(args, a.Resume.Content, a.Terms)

	if _, err := database.ExecOnConn(ctx, r.db, insertQuery, args...); err != nil {
		return fmt.Errorf("%w: insert resumeform: %v", ErrDatabaseInsertFailed, err)
	}

	r.logger.Info("application stored", map[string]interface{}{
		"submissionId": id,
		"resumeBytes":  len(a.Resume.Content),
		"truncated":    len(cut),
	})
	return nil
}

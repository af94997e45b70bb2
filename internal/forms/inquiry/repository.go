package inquiry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"iiot-site/internal/common/database"
	"iiot-site/internal/common/logger"
	"iiot-site/internal/common/validation"
)

var ErrDatabaseInsertFailed = errors.New("DATABASE_INSERT_FAILED")

// Column widths of the quoteform table.
const (
	widthName         = 50
	widthEmail        = 100
	widthPhone        = 20
	widthCompany      = 100
	widthJobTitle     = 100
	widthInterestType = 20
	widthIndustry     = 50
	widthTimeline     = 50
	widthBudget       = 50
	widthMultiSelect  = 255
	widthDescription  = 2000
)

const insertQuery = `
	INSERT INTO quoteform (
		id, first_name, last_name, email, phone, company, job_title,
		interest_type, industry, timeline, budget, products, solutions,
		description, privacy_accepted
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

// Repository writes quote requests to Postgres.
type Repository struct {
	db     *sql.DB
	logger logger.Logger
}

func NewRepository(db *sql.DB, log logger.Logger) *Repository {
	return &Repository{db: db, logger: log}
}

// Insert stores s under id with one statement on one pooled connection.
func (r *Repository) Insert(ctx context.Context, id string, s *Submission) error {
	values, cut := validation.FitColumns([]validation.Column{
		{Name: "first_name", Value: s.FirstName, Width: widthName},
		{Name: "last_name", Value: s.LastName, Width: widthName},
		{Name: "email", Value: s.Email, Width: widthEmail},
		{Name: "phone", Value: s.Phone, Width: widthPhone},
		{Name: "company", Value: s.Company, Width: widthCompany},
		{Name: "job_title", Value: s.JobTitle, Width: widthJobTitle},
		{Name: "interest_type", Value: string(s.InterestType), Width: widthInterestType},
		{Name: "industry", Value: s.Industry, Width: widthIndustry},
		{Name: "timeline", Value: s.Timeline, Width: widthTimeline},
		{Name: "budget", Value: s.Budget, Width: widthBudget},
		{Name: "products", Value: strings.Join(s.Products, ", "), Width: widthMultiSelect},
		{Name: "solutions", Value: strings.Join(s.Solutions, ", "), Width: widthMultiSelect},
		{Name: "description", Value: s.Description, Width: widthDescription},
	})
	for _, t := range cut {
		r.logger.Warn("field truncated to column width", map[string]interface{}{
			"table":          "quoteform",
			"submissionId":   id,
			"field":          t.Column,
			"originalLength": t.OriginalLength,
			"width":          t.Width,
		})
	}

	args := make([]interface{}, 0, len(values)+2)
	args = append(args, id)
	for _, v := range values {
		args = append(args, v)
	}
	args = append(args, s.Privacy)

	if _, err := database.ExecOnConn(ctx, r.db, insertQuery, args...); err != nil {
		return fmt.Errorf("%w: insert quoteform: %v", ErrDatabaseInsertFailed, err)
	}

	r.logger.Info("quote request stored", map[string]interface{}{
		"submissionId": id,
		"truncated":    len(cut),
	})
	return nil
}

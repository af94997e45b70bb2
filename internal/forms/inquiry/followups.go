package inquiry

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/sns"

	awsclient "iiot-site/internal/common/aws"
	"iiot-site/internal/common/logger"
	"iiot-site/internal/common/zoho"
	"iiot-site/internal/submission"
)

// LeadCreator is satisfied by *zoho.CRMClient.
type LeadCreator interface {
	CreateLead(ctx context.Context, lead *zoho.Lead) (string, error)
}

// CRMFollowUp mirrors each notified quote request into the CRM as a lead.
type CRMFollowUp struct {
	crm    LeadCreator
	source string
	logger logger.Logger
}

func NewCRMFollowUp(crm LeadCreator, leadSource string, log logger.Logger) *CRMFollowUp {
	return &CRMFollowUp{crm: crm, source: leadSource, logger: log}
}

func (f *CRMFollowUp) Name() string { return "crm-lead" }

func (f *CRMFollowUp) Handle(ctx context.Context, n submission.Notice) error {
	s, ok := n.Record.(*Submission)
	if !ok {
		return nil
	}

	var details []string
	details = append(details,
		"Interest: "+string(s.InterestType),
		"Timeline: "+s.Timeline,
		"Budget: "+orDefault(s.Budget, notSpecified),
		"Products: "+strings.Join(listOrNone(s.Products), ", "),
		"Solutions: "+strings.Join(listOrNone(s.Solutions), ", "),
		"",
		s.Description,
	)

	id, err := f.crm.CreateLead(ctx, &zoho.Lead{
		FirstName:   s.FirstName,
		LastName:    s.LastName,
		Email:       s.Email,
		Phone:       s.Phone,
		Company:     s.Company,
		Designation: s.JobTitle,
		Industry:    s.Industry,
		Source:      f.source,
		Description: strings.Join(details, "\n"),
	})
	if err != nil {
		return err
	}

	f.logger.Info("CRM lead created", map[string]interface{}{
		"submissionId": n.SubmissionID,
		"leadId":       id,
	})
	return nil
}

// SMSPublisher is satisfied by *aws.SNSClient.
type SMSPublisher interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

// SalesAlertFollowUp texts the sales phone when a request has the hot timeline.
type SalesAlertFollowUp struct {
	sns         SMSPublisher
	phone       string
	senderID    string
	hotTimeline string
}

func NewSalesAlertFollowUp(publisher SMSPublisher, phone, senderID, hotTimeline string) *SalesAlertFollowUp {
	if hotTimeline == "" {
		hotTimeline = "immediate"
	}
	return &SalesAlertFollowUp{sns: publisher, phone: phone, senderID: senderID, hotTimeline: hotTimeline}
}

func (f *SalesAlertFollowUp) Name() string { return "sales-alert" }

func (f *SalesAlertFollowUp) Handle(ctx context.Context, n submission.Notice) error {
	s, ok := n.Record.(*Submission)
	if !ok || !strings.EqualFold(s.Timeline, f.hotTimeline) {
		return nil
	}

	text := fmt.Sprintf("Hot lead: %s %s (%s), %s, timeline %s. Reply to %s",
		s.FirstName, s.LastName, s.Company, s.InterestType, s.Timeline, s.Email)
	_, err := f.sns.Publish(ctx, awsclient.SMSInput(f.phone, f.senderID, text))
	return err
}

package zoho

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	httpclient "iiot-site/internal/common/http"
)

const DefaultBaseURL = "https://www.zohoapis.com/crm/v3"

type CRMClient struct {
	oauthToken string
	baseURL    string
	http       *httpclient.Client
}

// Lead mirrors the Zoho CRM Leads module fields the site fills in.
type Lead struct {
	FirstName   string `json:"First_Name,omitempty"`
	LastName    string `json:"Last_Name"`
	Email       string `json:"Email"`
	Phone       string `json:"Phone,omitempty"`
	Company     string `json:"Company"`
	Designation string `json:"Designation,omitempty"`
	Industry    string `json:"Industry,omitempty"`
	Source      string `json:"Lead_Source,omitempty"`
	Description string `json:"Description,omitempty"`
}

type createResponse struct {
	Data []struct {
		Code    string `json:"code"`
		Details struct {
			ID string `json:"id"`
		} `json:"details"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"data"`
}

func NewCRMClient(baseURL, oauthToken string) *CRMClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &CRMClient{
		oauthToken: oauthToken,
		baseURL:    strings.TrimRight(baseURL, "/"),
		http:       httpclient.NewClient(30 * time.Second),
	}
}

// CreateLead inserts one lead and returns its Zoho id.
func (c *CRMClient) CreateLead(ctx context.Context, lead *Lead) (string, error) {
	if lead.LastName == "" || lead.Company == "" {
		return "", fmt.Errorf("lead requires last name and company")
	}

	var resp createResponse
	err := c.http.DoJSON(ctx, http.MethodPost, c.baseURL+"/Leads",
		map[string]string{"Authorization": "Zoho-oauthtoken " + c.oauthToken},
		map[string]interface{}{"data": []Lead{*lead}},
		&resp)
	if err != nil {
		return "", fmt.Errorf("failed to create lead: %w", err)
	}

	if len(resp.Data) == 0 {
		return "", fmt.Errorf("no data in response")
	}
	if resp.Data[0].Status != "success" {
		return "", fmt.Errorf("lead creation failed: %s", resp.Data[0].Message)
	}
	return resp.Data[0].Details.ID, nil
}

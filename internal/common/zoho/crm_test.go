package zoho

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateLead_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Leads", r.URL.Path)
		assert.Equal(t, "Zoho-oauthtoken tok", r.Header.Get("Authorization"))

		var body struct {
			Data []Lead `json:"data"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Data, 1)
		assert.Equal(t, "Doe", body.Data[0].LastName)
		assert.Equal(t, "Acme", body.Data[0].Company)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":[{"code":"SUCCESS","status":"success","details":{"id":"4150868000000623001"},"message":"record added"}]}`))
	}))
	defer srv.Close()

	c := NewCRMClient(srv.URL+"/", "tok")
	id, err := c.CreateLead(context.Background(), &Lead{FirstName: "Jane", LastName: "Doe", Email: "jane@acme.com", Company: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, "4150868000000623001", id)
}

func TestCreateLead_RecordError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"code":"DUPLICATE_DATA","status":"error","message":"duplicate data"}]}`))
	}))
	defer srv.Close()

	_, err := NewCRMClient(srv.URL, "tok").CreateLead(context.Background(), &Lead{LastName: "Doe", Company: "Acme"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate data")
}

func TestCreateLead_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":"INVALID_TOKEN"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewCRMClient(srv.URL, "bad").CreateLead(context.Background(), &Lead{LastName: "Doe", Company: "Acme"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestCreateLead_RequiresFields(t *testing.T) {
	_, err := NewCRMClient("", "tok").CreateLead(context.Background(), &Lead{Email: "x@y.z"})
	assert.Error(t, err)
}

package workflow

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"creative-pipeline/internal/models"
	"creative-pipeline/shared/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
	err      error
}

func (r *recordingNotifier) Notify(ctx context.Context, role, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, role+": "+message)
	return r.err
}

type fakeSender struct {
	subject, body string
}

func (f *fakeSender) SendHTML(subject, body string) error {
	f.subject, f.body = subject, body
	return nil
}

func TestApprove(t *testing.T) {
	n := &recordingNotifier{}
	a := NewApprover(n, nil)

	assert.True(t, a.Approve(context.Background(), "Nike Shoes"))
	assert.Equal(t, []string{"Creative Director: Approved visuals for Nike Shoes"}, n.messages)
}

func TestApproveIgnoresNotificationFailure(t *testing.T) {
	a := NewApprover(&recordingNotifier{err: errors.New("smtp down")}, nil)
	assert.True(t, a.Approve(context.Background(), "iPhone"))
}

func TestApproveCampaign(t *testing.T) {
	n := &recordingNotifier{}
	a := NewApprover(n, nil)

	result := &models.CampaignResult{
		CampaignName:     "Summer",
		ProcessingStatus: models.StatusCompletedSuccessfully,
		Assets: map[string]map[string]models.AssetResult{
			"Nike Shoes": {"square": {Path: "a.png", Status: models.AssetSuccess}},
			"Coca Cola":  {"square": {Status: models.AssetFailed}},
		},
		Summary: models.CampaignSummary{TotalAssetsRequested: 2, AssetsGenerated: 1, OverallComplianceScore: 88.5},
	}

	approved := a.ApproveCampaign(context.Background(), result)
	assert.Equal(t, map[string]bool{"Nike Shoes": true}, approved)
	require.Len(t, n.messages, 2)
	assert.Equal(t, "Creative Director: Approved visuals for Nike Shoes", n.messages[0])
	assert.Contains(t, n.messages[1], "Campaign Manager: Campaign Summer finished with status completed_successfully: 1/2 assets generated")
}

func TestEmailNotifierRendersTemplates(t *testing.T) {
	sender := &fakeSender{}
	n := &EmailNotifier{sender: sender}

	require.NoError(t, n.Notify(context.Background(), "Creative Director", "Approved visuals for <Nike>"))
	assert.Equal(t, "[Creative Director] Approved visuals for <Nike>", sender.subject)
	assert.Contains(t, sender.body, "<h2>Creative Director</h2>")
	assert.Contains(t, sender.body, "Approved visuals for &lt;Nike&gt;")
}

func TestTelegramNotifier(t *testing.T) {
	var gotPath, gotText, gotChat string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotPath = r.URL.Path
		gotText = r.PostForm.Get("text")
		gotChat = r.PostForm.Get("chat_id")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n, err := NewTelegramNotifier(srv.URL, "token123", "42", srv.Client())
	require.NoError(t, err)
	require.NoError(t, n.Notify(context.Background(), "Creative Director", "Approved visuals for iPhone"))

	assert.Equal(t, "/bottoken123/sendMessage", gotPath)
	assert.Equal(t, "42", gotChat)
	assert.Equal(t, "*Creative Director*: Approved visuals for iPhone", gotText)
}

func TestTelegramNotifierErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	n, err := NewTelegramNotifier(srv.URL, "bad", "42", srv.Client())
	require.NoError(t, err)
	err = n.Notify(context.Background(), "role", "msg")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "401"))

	_, err = NewTelegramNotifier("", "", "42", nil)
	assert.Error(t, err)
}

func TestNewNotifier(t *testing.T) {
	cfg := config.Default()

	n, err := NewNotifier(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &LogNotifier{}, n)

	cfg.Notifications.Backend = "email"
	_, err = NewNotifier(cfg, nil)
	assert.Error(t, err, "email backend without SMTP settings should fail")

	cfg.Notifications.Backend = "pigeon"
	_, err = NewNotifier(cfg, nil)
	assert.Error(t, err)
}

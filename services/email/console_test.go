package emailsvc

import (
	"bytes"
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/vidyalaya/core"
	appfs "github.com/trezcool/vidyalaya/fs"
)

type testLogger struct{ errors []string }

func (l *testLogger) Debug(string, ...interface{})       {}
func (l *testLogger) Info(string, ...interface{})        {}
func (l *testLogger) Warn(string, ...interface{})        {}
func (l *testLogger) Error(msg string, _ ...interface{}) { l.errors = append(l.errors, msg) }
func (l *testLogger) Fatal(string, ...interface{})       {}

func TestConsoleServiceMock(t *testing.T) {
	conf := &core.Config{AppName: "Vidyalaya", FrontendBaseURL: "http://localhost:3000"}
	logger := &testLogger{}
	core.ParseEmailTemplates(appfs.FS, conf, logger)
	require.Empty(t, logger.errors)

	ClearSentMessages()
	svc := NewConsoleServiceMock(conf, logger)

	report := &core.EmailMessage{
		To:           []mail.Address{{Name: "Asha", Address: "asha@example.com"}},
		Subject:      "Report card",
		TemplateName: "report_card",
		TemplateData: map[string]interface{}{
			"Name": "Asha", "AdmissionID": "A001", "ClassSection": "10-A", "OverallPercentage": 82.5,
		},
	}
	require.NoError(t, report.Attach(bytes.NewBufferString("%PDF-1.3"), "report-card.pdf", "application/pdf"))

	svc.SendMessages(
		report,
		&core.EmailMessage{Bcc: []mail.Address{{Address: "a@example.com"}}, Subject: "Broadcast", BodyStr: "Hello"},
		&core.EmailMessage{Subject: "nobody", BodyStr: "dropped"},
	)

	sent := SentMessages()
	require.Len(t, sent, 2)
	assert.Contains(t, sent[0].TextContent, "report card of Asha (A001, class 10-A)")
	assert.Contains(t, sent[0].TextContent, "82.50%")
	assert.Contains(t, sent[0].HTMLContent, "<strong>Asha</strong>")
	assert.Contains(t, sent[0].TextContent, "The Vidyalaya team")
	assert.Len(t, sent[0].Attachments, 1)
	assert.Equal(t, "Hello", sent[1].TextContent)
	assert.Empty(t, logger.errors)
}

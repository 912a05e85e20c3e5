package emailsvc

import (
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mutabaah/mutabaah/core"
	"github.com/mutabaah/mutabaah/fs"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func TestConsoleServiceMock_SendMessages(t *testing.T) {
	conf := core.NewTestConfig()
	core.ParseEmailTemplates(appfs.FS, appfs.EmailTemplatesDir, nopLogger{}, true)
	svc := NewConsoleServiceMock(conf, nopLogger{})

	to := []mail.Address{{Name: "Abu Umar", Address: "abu@example.com"}}
	svc.SendMessages(
		&core.EmailMessage{
			To:           to,
			Subject:      "Reminder",
			TemplateName: "activity_reminder",
			TemplateData: map[string]string{"Title": "Tahfidz", "ChildName": "Umar", "StartTime": "16:00"},
		},
		&core.EmailMessage{To: to, Subject: "Plain", BodyStr: "hello"},
		&core.EmailMessage{Subject: "Nobody", BodyStr: "dropped"},
		&core.EmailMessage{To: to, Subject: "Empty"},
	)

	sent := svc.Sent()
	require.Len(t, sent, 2)
	assert.Contains(t, sent[0].TextContent, `The activity "Tahfidz" for Umar starts at 16:00.`)
	assert.Contains(t, sent[0].HTMLContent, "Tahfidz")
	assert.Equal(t, "hello", sent[1].TextContent)

	body, err := svc.format(sent[0])
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(body, `From: "Mutabaah" <noreply@localhost>`))
	assert.Contains(t, body, "Subject: [Mutabaah] Reminder")

	svc.Reset()
	assert.Empty(t, svc.Sent())
}

package notify

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/slack-go/slack"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMailer(t *testing.T) {
	Convey("Given a mailer with a captured transport", t, func() {
		var addr, from string
		var to []string
		var body []byte
		m := NewMailer("smtp.example.com", 587, "user", "secret", "noreply@example.com").
			WithSendMail(func(a string, _ smtp.Auth, f string, t []string, msg []byte) error {
				addr, from, to, body = a, f, t, msg
				return nil
			})

		Convey("When a message is sent", func() {
			err := m.Notify(context.Background(), Message{To: "mod@example.com", Subject: "Ticket assigned", Body: "Fix the API"})

			So(err, ShouldBeNil)
			So(addr, ShouldEqual, "smtp.example.com:587")
			So(from, ShouldEqual, "noreply@example.com")
			So(to, ShouldResemble, []string{"mod@example.com"})
			So(strings.Contains(string(body), "Subject: Ticket assigned\r\n"), ShouldBeTrue)
			So(strings.HasSuffix(string(body), "Fix the API"), ShouldBeTrue)
		})

		Convey("When header values carry line breaks they stay on one line", func() {
			err := m.Notify(context.Background(), Message{
				To:      "mod@example.com\r\nCc: other@example.com",
				Subject: "docker broken\r\nBcc: victim@evil.test\nX-Injected: yes",
				Body:    "body",
			})

			So(err, ShouldBeNil)
			headers, _, found := strings.Cut(string(body), "\r\n\r\n")
			So(found, ShouldBeTrue)
			So(headers, ShouldContainSubstring, "Subject: docker broken Bcc: victim@evil.test X-Injected: yes\r\n")
			for _, line := range strings.Split(headers, "\r\n") {
				So(line, ShouldNotStartWith, "Bcc:")
				So(line, ShouldNotStartWith, "Cc:")
				So(line, ShouldNotStartWith, "X-Injected:")
			}
		})

		Convey("When the recipient is blank nothing is sent", func() {
			So(m.Notify(context.Background(), Message{Subject: "x"}), ShouldBeNil)
			So(addr, ShouldBeEmpty)
		})

		Convey("When the transport fails the error names the recipient", func() {
			m.WithSendMail(func(string, smtp.Auth, string, []string, []byte) error { return errors.New("421") })
			err := m.Notify(context.Background(), Message{To: "mod@example.com"})
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "mod@example.com")
		})
	})
}

func TestSlack(t *testing.T) {
	Convey("Given a slack notifier with a captured poster", t, func() {
		var gotURL, gotText string
		s := NewSlack("https://hooks.slack.test/x").WithPoster(func(_ context.Context, url string, msg *slack.WebhookMessage) error {
			gotURL, gotText = url, msg.Text
			return nil
		})

		So(s.Notify(context.Background(), Message{Subject: "Assigned", Body: "ticket t1"}), ShouldBeNil)
		So(gotURL, ShouldEqual, "https://hooks.slack.test/x")
		So(gotText, ShouldEqual, "*Assigned*\nticket t1")
	})
}

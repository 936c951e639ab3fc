package bootstrap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/redis/go-redis/v9"
	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-assigner/internal/config"
	"github.com/spec-kit/ticket-assigner/internal/lock"
	"github.com/spec-kit/ticket-assigner/internal/notify"
	"github.com/spec-kit/ticket-assigner/internal/persistence"
)

func TestLocker(t *testing.T) {
	Convey("Lock mode selects the locker", t, func() {
		l, err := Locker(config.AssignmentConfig{LockMode: config.LockModeNone}, nil, zap.NewNop())
		So(err, ShouldBeNil)
		So(l, ShouldBeNil)

		l, err = Locker(config.AssignmentConfig{LockMode: config.LockModeLocal}, nil, zap.NewNop())
		So(err, ShouldBeNil)
		So(l, ShouldHaveSameTypeAs, &lock.Local{})

		_, err = Locker(config.AssignmentConfig{LockMode: config.LockModeRedis}, nil, zap.NewNop())
		So(err, ShouldNotBeNil)

		client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
		defer client.Close()
		l, err = Locker(config.AssignmentConfig{LockMode: config.LockModeRedis}, &persistence.Redis{Client: client}, zap.NewNop())
		So(err, ShouldBeNil)
		So(l, ShouldHaveSameTypeAs, &persistence.RedisLocker{})

		_, err = Locker(config.AssignmentConfig{LockMode: "zookeeper"}, nil, zap.NewNop())
		So(err, ShouldNotBeNil)
	})
}

func TestSkills(t *testing.T) {
	Convey("Without a path the built-in catalog is used", t, func() {
		catalog, extractor, err := Skills(config.AssignmentConfig{})
		So(err, ShouldBeNil)
		So(catalog.Len(), ShouldEqual, 27)
		So(extractor.Extract("docker", ""), ShouldResemble, []string{"Docker"})
	})

	Convey("A custom catalog file replaces the built-in one", t, func() {
		path := filepath.Join(t.TempDir(), "skills.yaml")
		So(os.WriteFile(path, []byte("skills:\n  - name: Go\n    variants: [go, golang]\n"), 0o600), ShouldBeNil)

		catalog, extractor, err := Skills(config.AssignmentConfig{SkillCatalogPath: path})
		So(err, ShouldBeNil)
		So(catalog.Names(), ShouldResemble, []string{"Go"})
		So(extractor.Extract("golang panic", ""), ShouldResemble, []string{"Go"})
	})
}

func TestNotifiers(t *testing.T) {
	Convey("Only configured channels are built", t, func() {
		mail, chat := Notifiers(config.NotificationConfig{})
		So(mail, ShouldBeNil)
		So(chat, ShouldBeNil)

		mail, chat = Notifiers(config.NotificationConfig{SMTPHost: "smtp.example.com", SMTPPort: 25, SlackWebhookURL: "https://hooks.slack.test/x"})
		So(mail, ShouldHaveSameTypeAs, &notify.Mailer{})
		So(chat, ShouldHaveSameTypeAs, &notify.Slack{})
	})
}

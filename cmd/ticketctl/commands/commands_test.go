package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func run(args ...string) (string, error) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestExtractCommand(t *testing.T) {
	Convey("extract prints detected skills one per line", t, func() {
		catalogPath, extractTitle, extractDescription = "", "", ""
		out, err := run("extract", "--title", "Dockerize the Flask app", "--description", "")
		So(err, ShouldBeNil)
		So(out, ShouldContainSubstring, "Flask\n")
		So(out, ShouldContainSubstring, "Python\n")
	})

	Convey("extract reports when nothing is found", t, func() {
		catalogPath, extractTitle, extractDescription = "", "", ""
		out, err := run("extract", "--title", "coffee machine", "--description", "is empty")
		So(err, ShouldBeNil)
		So(out, ShouldEqual, "no skills detected\n")
	})

	Convey("extract honours a custom catalog", t, func() {
		path := filepath.Join(t.TempDir(), "skills.yaml")
		So(os.WriteFile(path, []byte("skills:\n  - name: Go\n    variants: [golang]\n"), 0o600), ShouldBeNil)
		extractTitle, extractDescription = "", ""

		out, err := run("extract", "--catalog", path, "--title", "golang race")
		So(err, ShouldBeNil)
		So(out, ShouldEqual, "Go\n")
		catalogPath = ""
	})
}

func TestMatchCommand(t *testing.T) {
	Convey("match explains directional matches", t, func() {
		out, err := run("match", "JavaScript", "nodejs")
		So(err, ShouldBeNil)
		So(out, ShouldStartWith, "match (")

		out, err = run("match", "nextjs", "javascript")
		So(err, ShouldBeNil)
		So(out, ShouldStartWith, "no match")
	})

	Convey("match needs two arguments", t, func() {
		_, err := run("match", "go")
		So(err, ShouldNotBeNil)
	})
}

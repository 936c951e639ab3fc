package skills_test

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/spec-kit/ticket-assigner/internal/skills"
)

func mustDefaultExtractor() *skills.Extractor {
	catalog, err := skills.DefaultCatalog()
	if err != nil {
		panic(err)
	}
	return skills.NewExtractor(catalog)
}

func TestExtract(t *testing.T) {
	Convey("Given an extractor over the built-in catalog", t, func() {
		extractor := mustDefaultExtractor()

		Convey("When the title mentions Node.js and an API", func() {
			found := extractor.Extract("Need help with Node.js API", "")

			Convey("Then both canonical skills are detected", func() {
				So(found, ShouldContain, "Node.js")
				So(found, ShouldContain, "API")
			})

			Convey("Then unrelated skills are absent", func() {
				So(found, ShouldNotContain, "Python")
				So(found, ShouldNotContain, "Docker")
			})
		})

		Convey("When title and description are empty", func() {
			found := extractor.Extract("", "")

			Convey("Then the result is empty but not nil", func() {
				So(found, ShouldNotBeNil)
				So(found, ShouldBeEmpty)
			})
		})

		Convey("When the text uses mixed case", func() {
			found := extractor.Extract("DOCKER build fails", "on GitHub Actions")
			So(found, ShouldResemble, []string{"Docker", "Git"})
		})

		Convey("When a variant only appears inside a longer word", func() {
			found := extractor.Extract("postgresql migration", "")

			Convey("Then the whole-word rule prevents a partial match", func() {
				So(found, ShouldResemble, []string{"PostgreSQL"})
				So(found, ShouldNotContain, "MySQL")
			})
		})

		Convey("When text contains js only as part of json", func() {
			found := extractor.Extract("jsonschema validation", "")
			So(found, ShouldNotContain, "JavaScript")
		})

		Convey("When several variants of one skill appear", func() {
			found := extractor.Extract("django and flask", "python3 upgrade")

			Convey("Then each canonical skill is reported once in catalog order", func() {
				So(found, ShouldResemble, []string{"Python", "Django", "Flask"})
			})
		})

		Convey("When the title and description meet at the boundary", func() {
			found := extractor.Extract("react", "native")
			So(found, ShouldContain, "React")
			So(found, ShouldContain, "Mobile")
		})
	})
}

func TestExtractEscapesVariants(t *testing.T) {
	Convey("Given a catalog whose variant contains regex metacharacters", t, func() {
		catalog, err := skills.NewCatalog([]skills.Entry{
			{Name: "Runtime", Variants: []string{"node.js"}},
		})
		So(err, ShouldBeNil)
		extractor := skills.NewExtractor(catalog)

		Convey("Then the dot is matched literally", func() {
			So(extractor.Extract("upgrade nodexjs", ""), ShouldBeEmpty)
			So(extractor.Extract("upgrade node.js", ""), ShouldResemble, []string{"Runtime"})
		})
	})
}

package skills_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/spec-kit/ticket-assigner/internal/skills"
)

func TestDefaultCatalog(t *testing.T) {
	Convey("Given the built-in catalog", t, func() {
		catalog, err := skills.DefaultCatalog()
		So(err, ShouldBeNil)

		Convey("Then it carries every canonical skill in declaration order", func() {
			names := catalog.Names()
			So(catalog.Len(), ShouldEqual, 27)
			So(names[0], ShouldEqual, "JavaScript")
			So(names[1], ShouldEqual, "Node.js")
			So(names[len(names)-1], ShouldEqual, "Performance")
			So(names, ShouldContain, "Responsive Design")
		})

		Convey("Then entries are copies the caller cannot mutate", func() {
			entries := catalog.Entries()
			entries[0].Name = "mutated"
			entries[0].Variants[0] = "mutated"
			So(catalog.Entries()[0].Name, ShouldEqual, "JavaScript")
			So(catalog.Entries()[0].Variants[0], ShouldEqual, "javascript")
		})
	})
}

func TestNewCatalog(t *testing.T) {
	Convey("Given catalog entries", t, func() {
		Convey("When variants need cleaning", func() {
			catalog, err := skills.NewCatalog([]skills.Entry{
				{Name: " Go ", Variants: []string{" Golang ", "", "GO"}},
			})

			Convey("Then names are trimmed and variants are lower-cased without blanks", func() {
				So(err, ShouldBeNil)
				entries := catalog.Entries()
				So(entries, ShouldHaveLength, 1)
				So(entries[0].Name, ShouldEqual, "Go")
				So(entries[0].Variants, ShouldResemble, []string{"golang", "go"})
			})
		})

		Convey("When a name is duplicated", func() {
			_, err := skills.NewCatalog([]skills.Entry{
				{Name: "Go", Variants: []string{"go"}},
				{Name: "Go", Variants: []string{"golang"}},
			})
			So(errors.Is(err, skills.ErrInvalidCatalog), ShouldBeTrue)
		})

		Convey("When a name is blank", func() {
			_, err := skills.NewCatalog([]skills.Entry{{Name: "  ", Variants: []string{"go"}}})
			So(errors.Is(err, skills.ErrInvalidCatalog), ShouldBeTrue)
		})

		Convey("When an entry has no usable variants", func() {
			_, err := skills.NewCatalog([]skills.Entry{{Name: "Go", Variants: []string{" "}}})
			So(errors.Is(err, skills.ErrInvalidCatalog), ShouldBeTrue)
		})
	})
}

func TestLoadCatalog(t *testing.T) {
	Convey("Given a catalog file on disk", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "skills.yaml")
		content := `
skills:
  - name: Go
    variants: [go, golang]
  - name: Kubernetes
    variants: [kubernetes, k8s, kubectl]
`
		So(os.WriteFile(path, []byte(content), 0o600), ShouldBeNil)

		Convey("When it is loaded", func() {
			catalog, err := skills.LoadCatalog(path)

			Convey("Then it holds the file entries", func() {
				So(err, ShouldBeNil)
				So(catalog.Names(), ShouldResemble, []string{"Go", "Kubernetes"})
			})
		})

		Convey("When LoadCatalogOrDefault gets an empty path", func() {
			catalog, err := skills.LoadCatalogOrDefault("")

			Convey("Then the built-in catalog is used", func() {
				So(err, ShouldBeNil)
				So(catalog.Len(), ShouldEqual, 27)
			})
		})

		Convey("When the file is missing", func() {
			_, err := skills.LoadCatalog(filepath.Join(dir, "missing.yaml"))
			So(err, ShouldNotBeNil)
		})

		Convey("When the YAML is malformed", func() {
			bad := filepath.Join(dir, "bad.yaml")
			So(os.WriteFile(bad, []byte("skills: [name: ["), 0o600), ShouldBeNil)
			_, err := skills.LoadCatalog(bad)
			So(err, ShouldNotBeNil)
		})
	})
}

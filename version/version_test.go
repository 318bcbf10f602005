package version

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestCompare(t *testing.T) {
	Convey("Given two releases", t, func() {
		Convey("A higher minor is newer", func() {
			n, err := Compare("0.4.0", "0.3.9")
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 1)
		})

		Convey("The v prefix and missing patch are tolerated", func() {
			n, err := Compare("v1.2", "1.2.0")
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 0)
		})

		Convey("Pre-release suffixes are ignored", func() {
			n, err := Compare("1.0.0-rc1", "1.0.1")
			So(err, ShouldBeNil)
			So(n, ShouldEqual, -1)
		})

		Convey("Garbage is an error", func() {
			_, err := Compare("latest", "1.0.0")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestReleasesAPI(t *testing.T) {
	Convey("The repository URL maps to the latest release endpoint", t, func() {
		So(releasesAPI("https://github.com/vidra-player/vidra"), ShouldEqual,
			"https://api.github.com/repos/vidra-player/vidra/releases/latest")
	})
}
